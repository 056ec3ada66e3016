package browser

import "context"

// Page is the set of page operations a login attempt drives.
// *Session implements it; tests substitute fakes.
type Page interface {
	Navigate(url string, opts NavigateOptions) error
	WaitForLoadState(opts LoadStateOptions) error
	Wait(opts WaitOptions) error
	Fill(opts FillOptions) error
	Click(opts ClickOptions) error
	Check(opts ClickOptions) error
	IsVisible(selector string) bool
	WaitForURL(opts URLWaitOptions) error
	Screenshot(opts ScreenshotOptions) error
	Content() (string, error)
	URL() string

	// Close releases the page, its context and its browser process.
	// It is safe to call more than once.
	Close() error
}

// Factory opens a freshly isolated page for one attempt.
type Factory interface {
	Open(ctx context.Context, name string, identity Identity) (Page, error)
}
