package report

import (
	"io"
	"strings"

	"golang.org/x/net/html"
)

// PlainText strips markup from a channel message for console output.
// Link targets are appended in parentheses so they stay visible.
func PlainText(markup string) string {
	z := html.NewTokenizer(strings.NewReader(markup))
	var b strings.Builder
	var href string

	for {
		switch z.Next() {
		case html.ErrorToken:
			if z.Err() == io.EOF {
				return b.String()
			}
			return markup
		case html.TextToken:
			b.Write(z.Text())
		case html.StartTagToken:
			name, hasAttr := z.TagName()
			if string(name) != "a" || !hasAttr {
				continue
			}
			for {
				key, val, more := z.TagAttr()
				if string(key) == "href" {
					href = string(val)
				}
				if !more {
					break
				}
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			if string(name) == "a" && href != "" {
				b.WriteString(" (" + href + ")")
				href = ""
			}
		}
	}
}
