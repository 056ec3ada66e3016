package login

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuccessRuleMatcher(t *testing.T) {
	match, err := WispbyteProfile().Success.Matcher()
	require.NoError(t, err)

	tests := []struct {
		url  string
		want bool
	}{
		{"https://wispbyte.com/client", true},
		{"https://wispbyte.com/client/servers", true},
		{"https://wispbyte.com/client?tab=billing", true},
		{"https://wispbyte.com/client/login", false},
		{"https://wispbyte.com/client/LOGIN?next=/client", false},
		{"https://wispbyte.com/", false},
		{"about:blank", false},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, match(tt.url))
		})
	}
}

func TestSuccessRuleRequiresPattern(t *testing.T) {
	_, err := SuccessRule{}.Matcher()
	assert.Error(t, err)
}

func TestSiteProfileValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(p *SiteProfile)
		wantErr string
	}{
		{name: "default profile is valid", mutate: func(p *SiteProfile) {}},
		{name: "missing name", mutate: func(p *SiteProfile) { p.Name = "" }, wantErr: "name"},
		{name: "missing login url", mutate: func(p *SiteProfile) { p.LoginURL = "" }, wantErr: "login_url"},
		{name: "missing success pattern", mutate: func(p *SiteProfile) { p.Success.Pattern = "" }, wantErr: "success pattern"},
		{name: "no email selector", mutate: func(p *SiteProfile) { p.EmailSelectors = []string{" "} }, wantErr: "email selector"},
		{name: "no password selector", mutate: func(p *SiteProfile) { p.PasswordSelectors = nil }, wantErr: "password selector"},
		{name: "no submit selector", mutate: func(p *SiteProfile) { p.SubmitSelectors = nil }, wantErr: "submit selector"},
		{name: "negative retries", mutate: func(p *SiteProfile) { p.MaxRetries = -1 }, wantErr: "max_retries"},
		{name: "negative delay", mutate: func(p *SiteProfile) { p.RetryDelay = -time.Second }, wantErr: "delays"},
		{name: "no default timeout", mutate: func(p *SiteProfile) { p.Timeouts.Default = 0 }, wantErr: "timeouts.default"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := WispbyteProfile()
			tt.mutate(&p)
			err := p.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestSiteProfileValidateDefaultsLabel(t *testing.T) {
	p := WispbyteProfile()
	p.Label = ""
	require.NoError(t, p.Validate())
	assert.Equal(t, p.Name, p.Label)
}

func TestSelectorQueries(t *testing.T) {
	p := WispbyteProfile()
	assert.Equal(t, `input[placeholder*="Password"], input[type="password"]`, p.PasswordQuery())
	assert.Equal(t, `button:has-text("Log In"), input[type="submit"]`, p.SubmitQuery())
	assert.Equal(t, `input[type="checkbox"], .cf-turnstile, :text("确认您是真人")`, p.ConsentQuery())
	assert.Contains(t, p.ConsentQuery(), p.Consent.Label, "the label alone must be enough to detect the control")
}

func TestTimeoutsFallBackToDefault(t *testing.T) {
	to := Timeouts{Default: 90 * time.Second, Verify: 30 * time.Second}
	assert.Equal(t, 30*time.Second, to.timeout(to.Verify))
	assert.Equal(t, 90*time.Second, to.timeout(to.Action))
}
