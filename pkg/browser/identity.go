package browser

// Identity is the browser fingerprint presented by one session.
// Identities are values: a retry gets a different one instead of mutating the current one.
type Identity struct {
	// Label is a short human-readable name used in logs
	Label string `yaml:"label" json:"label"`

	// UserAgent is sent with every request of the session
	UserAgent string `yaml:"user_agent" json:"user_agent"`
}

// IdentityPool is an ordered rotation of identities.
type IdentityPool []Identity

// DefaultIdentities rotates between desktop Chrome builds on three platforms.
var DefaultIdentities = IdentityPool{
	{
		Label:     "chrome-windows",
		UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/130.0.0.0 Safari/537.36",
	},
	{
		Label:     "chrome-macos",
		UserAgent: "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/130.0.0.0 Safari/537.36",
	},
	{
		Label:     "chrome-linux",
		UserAgent: "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/130.0.0.0 Safari/537.36",
	},
}

// For returns the identity used for the given zero-based attempt.
// An empty pool falls back to DefaultIdentities.
func (p IdentityPool) For(attempt int) Identity {
	pool := p
	if len(pool) == 0 {
		pool = DefaultIdentities
	}
	if attempt < 0 {
		attempt = 0
	}
	return pool[attempt%len(pool)]
}
