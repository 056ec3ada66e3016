package report

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/entrhq/autologin/pkg/login"
)

// TimeLayout is the timestamp format used in reports.
const TimeLayout = "2006-01-02 15:04:05"

// Target identifies the site a report is about.
type Target struct {
	Label        string
	DashboardURL string
}

// Report is the aggregate outcome of one run. It is built once and never mutated.
type Report struct {
	Target     Target
	StartedAt  time.Time
	FinishedAt time.Time
	Succeeded  []string
	Failed     []string
}

// Build partitions results into succeeded and failed accounts, keeping input order.
func Build(target Target, results []login.Result, startedAt, finishedAt time.Time) Report {
	r := Report{
		Target:     target,
		StartedAt:  startedAt,
		FinishedAt: finishedAt,
		Succeeded:  []string{},
		Failed:     []string{},
	}
	for _, res := range results {
		if res.Success {
			r.Succeeded = append(r.Succeeded, res.Email)
		} else {
			r.Failed = append(r.Failed, res.Email)
		}
	}
	return r
}

// Total returns the number of accounts the report covers.
func (r Report) Total() int {
	return len(r.Succeeded) + len(r.Failed)
}

// String renders the report in the HTML subset understood by the notification channel.
func (r Report) String() string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s 自动登录报告\n", html.EscapeString(r.Target.Label))
	if r.Target.DashboardURL != "" {
		fmt.Fprintf(&b, "目标: <a href='%s'>控制面板</a>\n", html.EscapeString(r.Target.DashboardURL))
	}
	fmt.Fprintf(&b, "时间: %s → %s\n", r.StartedAt.Format(TimeLayout), r.FinishedAt.Format(TimeLayout))
	fmt.Fprintf(&b, "结果: <b>%d 成功</b> | <b>%d 失败</b>\n", len(r.Succeeded), len(r.Failed))

	if len(r.Succeeded) > 0 {
		b.WriteString("\nSuccess 成功：\n")
		writeEmails(&b, r.Succeeded)
	}

	if len(r.Failed) > 0 {
		b.WriteString("\nFailed 失败：\n")
		writeEmails(&b, r.Failed)
	}

	return strings.TrimRight(b.String(), "\n")
}

func writeEmails(b *strings.Builder, emails []string) {
	for _, email := range emails {
		fmt.Fprintf(b, "   • <code>%s</code>\n", html.EscapeString(email))
	}
}
