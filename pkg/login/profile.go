package login

import (
	"fmt"
	"strings"
	"time"

	"github.com/gobwas/glob"
)

// SiteProfile describes the login flow of one target site.
// A profile is fixed for the lifetime of a run.
type SiteProfile struct {
	// Name is a short identifier used in logs and artifact names
	Name string `yaml:"name" json:"name"`

	// Label is the human-readable site name used in notifications
	Label string `yaml:"label" json:"label"`

	// LoginURL is the page the workflow navigates to
	LoginURL string `yaml:"login_url" json:"login_url"`

	// DashboardURL is linked from the report
	DashboardURL string `yaml:"dashboard_url" json:"dashboard_url"`

	// Success decides whether a URL is an authenticated destination
	Success SuccessRule `yaml:"success" json:"success"`

	// Ordered fallback candidates, each list evaluated as one first-match query
	EmailSelectors    []string `yaml:"email_selectors" json:"email_selectors"`
	PasswordSelectors []string `yaml:"password_selectors" json:"password_selectors"`
	SubmitSelectors   []string `yaml:"submit_selectors" json:"submit_selectors"`

	// Consent describes the optional human-verification control
	Consent ConsentControl `yaml:"consent" json:"consent"`

	// ErrorSelectors locate inline error banners scraped into failure details
	ErrorSelectors []string `yaml:"error_selectors" json:"error_selectors"`

	// MaxRetries is the number of retries after the first attempt
	MaxRetries int `yaml:"max_retries" json:"max_retries"`

	// SettleDelay is the blind wait that lets client-side challenges resolve
	SettleDelay time.Duration `yaml:"settle_delay" json:"settle_delay"`

	// ConsentDelay is the pause after ticking the consent control
	ConsentDelay time.Duration `yaml:"consent_delay" json:"consent_delay"`

	// RetryDelay is the pause before opening the next session
	RetryDelay time.Duration `yaml:"retry_delay" json:"retry_delay"`

	Timeouts Timeouts `yaml:"timeouts" json:"timeouts"`
}

// ConsentControl locates the optional "confirm you are human" control.
type ConsentControl struct {
	// Probe is waited for to detect whether any consent control exists
	Probe []string `yaml:"probe" json:"probe"`

	// Checkbox is ticked when visible
	Checkbox string `yaml:"checkbox" json:"checkbox"`

	// Label is clicked when the checkbox is not visible
	Label string `yaml:"label" json:"label"`
}

// Timeouts bounds every blocking step of an attempt.
type Timeouts struct {
	Default  time.Duration `yaml:"default" json:"default"`
	Page     time.Duration `yaml:"page" json:"page"`
	DOMReady time.Duration `yaml:"dom_ready" json:"dom_ready"`
	Form     time.Duration `yaml:"form" json:"form"`
	Consent  time.Duration `yaml:"consent" json:"consent"`
	Action   time.Duration `yaml:"action" json:"action"`
	Verify   time.Duration `yaml:"verify" json:"verify"`
}

// SuccessRule matches authenticated destinations: the URL must match Pattern
// and contain none of Exclude (case-insensitive).
type SuccessRule struct {
	// Pattern is a glob where * stays within a path segment and ** spans segments
	Pattern string `yaml:"pattern" json:"pattern"`

	Exclude []string `yaml:"exclude" json:"exclude"`
}

// Matcher compiles the rule into a URL predicate.
func (r SuccessRule) Matcher() (func(url string) bool, error) {
	if r.Pattern == "" {
		return nil, fmt.Errorf("success pattern is required")
	}

	g, err := glob.Compile(r.Pattern, '/')
	if err != nil {
		return nil, fmt.Errorf("invalid success pattern %q: %w", r.Pattern, err)
	}

	exclude := make([]string, 0, len(r.Exclude))
	for _, e := range r.Exclude {
		if e = strings.ToLower(strings.TrimSpace(e)); e != "" {
			exclude = append(exclude, e)
		}
	}

	return func(url string) bool {
		if !g.Match(url) {
			return false
		}
		lower := strings.ToLower(url)
		for _, e := range exclude {
			if strings.Contains(lower, e) {
				return false
			}
		}
		return true
	}, nil
}

// EmailQuery returns the combined first-match query for the username field.
func (p *SiteProfile) EmailQuery() string {
	return joinSelectors(p.EmailSelectors)
}

// PasswordQuery returns the combined first-match query for the password field.
func (p *SiteProfile) PasswordQuery() string {
	return joinSelectors(p.PasswordSelectors)
}

// SubmitQuery returns the combined first-match query for the login button.
func (p *SiteProfile) SubmitQuery() string {
	return joinSelectors(p.SubmitSelectors)
}

// ConsentQuery returns the combined probe query for the consent control.
func (p *SiteProfile) ConsentQuery() string {
	return joinSelectors(p.Consent.Probe)
}

func joinSelectors(selectors []string) string {
	parts := make([]string, 0, len(selectors))
	for _, s := range selectors {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, ", ")
}

// timeout returns d, or the profile default when d is unset.
func (t Timeouts) timeout(d time.Duration) time.Duration {
	if d > 0 {
		return d
	}
	return t.Default
}

// Validate validates the profile
func (p *SiteProfile) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("profile name is required")
	}

	if p.LoginURL == "" {
		return fmt.Errorf("login_url is required")
	}

	if _, err := p.Success.Matcher(); err != nil {
		return err
	}

	if p.EmailQuery() == "" {
		return fmt.Errorf("at least one email selector is required")
	}

	if p.PasswordQuery() == "" {
		return fmt.Errorf("at least one password selector is required")
	}

	if p.SubmitQuery() == "" {
		return fmt.Errorf("at least one submit selector is required")
	}

	if p.MaxRetries < 0 {
		return fmt.Errorf("max_retries cannot be negative")
	}

	if p.SettleDelay < 0 || p.ConsentDelay < 0 || p.RetryDelay < 0 {
		return fmt.Errorf("delays cannot be negative")
	}

	if p.Timeouts.Default <= 0 {
		return fmt.Errorf("timeouts.default must be positive")
	}

	if p.Label == "" {
		p.Label = p.Name
	}

	return nil
}

// consentPrompt is the text of the Wispbyte human-verification label.
const consentPrompt = "确认您是真人"

// WispbyteProfile returns the profile for the Wispbyte client panel.
func WispbyteProfile() SiteProfile {
	return SiteProfile{
		Name:         "wispbyte",
		Label:        "Wispbyte",
		LoginURL:     "https://wispbyte.com/client/login",
		DashboardURL: "https://wispbyte.com/client",
		Success: SuccessRule{
			Pattern: "**/client**",
			Exclude: []string{"login"},
		},
		EmailSelectors: []string{
			`input[placeholder*="Email"]`,
			`input[placeholder*="Username"]`,
			`input[type="email"]`,
			`input[type="text"]`,
		},
		PasswordSelectors: []string{
			`input[placeholder*="Password"]`,
			`input[type="password"]`,
		},
		SubmitSelectors: []string{
			`button:has-text("Log In")`,
			`input[type="submit"]`,
		},
		Consent: ConsentControl{
			Probe:    []string{`input[type="checkbox"]`, `.cf-turnstile`, `:text("` + consentPrompt + `")`},
			Checkbox: `input[type="checkbox"]`,
			Label:    `:text("` + consentPrompt + `")`,
		},
		ErrorSelectors: []string{
			`.alert-danger`,
			`.error`,
			`[role="alert"]`,
		},
		MaxRetries:   2,
		SettleDelay:  5 * time.Second,
		ConsentDelay: 3 * time.Second,
		RetryDelay:   2 * time.Second,
		Timeouts: Timeouts{
			Default:  90 * time.Second,
			Page:     90 * time.Second,
			DOMReady: 30 * time.Second,
			Form:     20 * time.Second,
			Consent:  10 * time.Second,
			Verify:   30 * time.Second,
		},
	}
}
