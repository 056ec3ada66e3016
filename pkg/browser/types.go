package browser

import (
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"
)

// Session represents one isolated browser process with its context and page.
// A session serves exactly one login attempt and is never reused.
type Session struct {
	// Name identifies the session in logs (account and attempt)
	Name string

	// Identity is the browser identity presented by this session
	Identity Identity

	// Browser is the Playwright browser instance
	Browser playwright.Browser

	// Context is the browser context (isolated cookies and storage)
	Context playwright.BrowserContext

	// Page is the only page opened in the context
	Page playwright.Page

	// CreatedAt is the timestamp when the session was created
	CreatedAt time.Time

	// CurrentURL is the URL observed after the last navigation, click or close
	CurrentURL string

	release   func(*Session)
	closeOnce sync.Once
	closeErr  error
}

// LaunchOptions configures how the launcher starts browsers.
type LaunchOptions struct {
	// Headless controls whether the browser runs without a visible window
	Headless bool

	// Args are extra command line switches passed to Chromium
	Args []string

	// ExecutablePath overrides the bundled Chromium binary
	ExecutablePath string

	// Install downloads the Playwright driver and browsers before starting
	Install bool

	// Viewport sets the page viewport size
	Viewport *Viewport

	// Timeout sets the default timeout for operations (in milliseconds)
	Timeout float64
}

// Viewport represents the browser viewport dimensions.
type Viewport struct {
	Width  int `yaml:"width" json:"width"`
	Height int `yaml:"height" json:"height"`
}

// NavigateOptions configures page navigation behavior.
type NavigateOptions struct {
	// WaitUntil specifies when to consider navigation successful
	// Valid values: "load", "domcontentloaded", "networkidle", "commit"
	WaitUntil string

	// Timeout in milliseconds (0 means default)
	Timeout float64
}

// LoadStateOptions configures waiting for a document readiness state.
type LoadStateOptions struct {
	// State is one of "load", "domcontentloaded", "networkidle"
	State string

	// Timeout in milliseconds
	Timeout float64
}

// ClickOptions configures element clicking behavior.
type ClickOptions struct {
	// Selector identifies the element to click; the first match is used
	Selector string

	// Timeout in milliseconds
	Timeout float64
}

// FillOptions configures form input filling.
type FillOptions struct {
	// Selector identifies the input element; the first match is used
	Selector string

	// Value is the text to fill
	Value string

	// Timeout in milliseconds
	Timeout float64
}

// WaitOptions configures waiting for a selector.
type WaitOptions struct {
	// Selector to wait for
	Selector string

	// State to wait for: "attached", "detached", "visible", "hidden"
	State string

	// Timeout in milliseconds
	Timeout float64
}

// URLWaitOptions configures waiting for the page URL to satisfy a predicate.
type URLWaitOptions struct {
	// Match reports whether a URL is the expected destination
	Match func(url string) bool

	// Timeout in milliseconds
	Timeout float64
}

// ScreenshotOptions configures page captures.
type ScreenshotOptions struct {
	// Path is the file the image is written to
	Path string

	// FullPage captures the whole scrollable page instead of the viewport
	FullPage bool
}

// Default values for various operations
const (
	DefaultTimeout        = 90000.0 // 90 seconds in milliseconds
	DefaultViewportWidth  = 1920
	DefaultViewportHeight = 1080
)

// DefaultArgs are the Chromium switches used for unattended runs.
var DefaultArgs = []string{
	"--no-sandbox",
	"--disable-setuid-sandbox",
	"--disable-dev-shm-usage",
	"--disable-gpu",
	"--disable-extensions",
	"--window-size=1920,1080",
	"--disable-blink-features=AutomationControlled",
	"--disable-web-security",
}

// Milliseconds converts a duration into the float millisecond form Playwright expects.
func Milliseconds(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
