package login

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/entrhq/autologin/pkg/browser"
)

// maxAlerts caps how many banner texts are folded into a failure detail.
const maxAlerts = 3

// Artifact is a screenshot taken when an account fails for good.
// Whoever receives it is responsible for deleting Path.
type Artifact struct {
	AccountEmail string
	Path         string
	Attempt      int
	CapturedAt   time.Time
}

// Diagnostics captures the state of a page at terminal failure.
type Diagnostics struct {
	dir            string
	errorSelectors []string
	now            func() time.Time
}

// NewDiagnostics creates a capturer writing into dir (the working directory when empty).
func NewDiagnostics(dir string, errorSelectors []string) *Diagnostics {
	return &Diagnostics{
		dir:            dir,
		errorSelectors: errorSelectors,
		now:            time.Now,
	}
}

// ArtifactName derives the screenshot file name from the account and capture time.
func ArtifactName(email string, at time.Time) string {
	safe := strings.NewReplacer("@", "_", "/", "_", "\\", "_", ":", "_", " ", "_").Replace(email)
	return fmt.Sprintf("error_%s_%d.png", safe, at.Unix())
}

// Capture writes a full-page screenshot of page for the given account and attempt.
func (d *Diagnostics) Capture(page browser.Page, email string, attempt int) (*Artifact, error) {
	if page == nil {
		return nil, fmt.Errorf("no page to capture")
	}

	if d.dir != "" {
		if err := os.MkdirAll(d.dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create diagnostics directory: %w", err)
		}
	}

	at := d.now()
	path := filepath.Join(d.dir, ArtifactName(email, at))

	if err := page.Screenshot(browser.ScreenshotOptions{Path: path, FullPage: true}); err != nil {
		return nil, err
	}

	return &Artifact{
		AccountEmail: email,
		Path:         path,
		Attempt:      attempt,
		CapturedAt:   at,
	}, nil
}

// Alerts returns the visible text of error banners on the page, deduplicated.
// Any read or parse problem yields no alerts.
func (d *Diagnostics) Alerts(page browser.Page) []string {
	query := joinSelectors(d.errorSelectors)
	if page == nil || query == "" {
		return nil
	}

	content, err := page.Content()
	if err != nil {
		return nil
	}

	return extractAlerts(content, query)
}

func extractAlerts(content, query string) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return nil
	}

	seen := make(map[string]bool)
	var alerts []string
	doc.Find(query).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		text := strings.Join(strings.Fields(sel.Text()), " ")
		if text != "" && !seen[text] {
			seen[text] = true
			alerts = append(alerts, text)
		}
		return len(alerts) < maxAlerts
	})
	return alerts
}
