package browser

import (
	"errors"
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"
)

// IsTimeout reports whether err came from a Playwright wait running out of time.
func IsTimeout(err error) bool {
	return errors.Is(err, playwright.ErrTimeout)
}

// Navigate navigates the session's page to the specified URL.
func (s *Session) Navigate(url string, opts NavigateOptions) error {
	playwrightOpts := playwright.PageGotoOptions{}

	if opts.WaitUntil != "" {
		waitUntil := playwright.WaitUntilState(opts.WaitUntil)
		playwrightOpts.WaitUntil = &waitUntil
	}

	if opts.Timeout > 0 {
		playwrightOpts.Timeout = &opts.Timeout
	}

	if _, err := s.Page.Goto(url, playwrightOpts); err != nil {
		return fmt.Errorf("navigation failed: %w", err)
	}

	s.CurrentURL = s.Page.URL()
	return nil
}

// WaitForLoadState blocks until the document reaches the requested readiness state.
func (s *Session) WaitForLoadState(opts LoadStateOptions) error {
	playwrightOpts := playwright.PageWaitForLoadStateOptions{}

	if opts.State != "" {
		state := playwright.LoadState(opts.State)
		playwrightOpts.State = &state
	}

	if opts.Timeout > 0 {
		playwrightOpts.Timeout = &opts.Timeout
	}

	if err := s.Page.WaitForLoadState(playwrightOpts); err != nil {
		return fmt.Errorf("load state %q not reached: %w", opts.State, err)
	}
	return nil
}

// Wait waits for an element matching the selector.
func (s *Session) Wait(opts WaitOptions) error {
	if opts.Selector == "" {
		return fmt.Errorf("selector is required for wait")
	}

	playwrightOpts := playwright.PageWaitForSelectorOptions{}

	if opts.State != "" {
		state := playwright.WaitForSelectorState(opts.State)
		playwrightOpts.State = &state
	}

	if opts.Timeout > 0 {
		playwrightOpts.Timeout = &opts.Timeout
	}

	if _, err := s.Page.WaitForSelector(opts.Selector, playwrightOpts); err != nil {
		return fmt.Errorf("wait failed: %w", err)
	}

	return nil
}

// Fill fills the first input element matching the selector.
func (s *Session) Fill(opts FillOptions) error {
	playwrightOpts := playwright.LocatorFillOptions{}

	if opts.Timeout > 0 {
		playwrightOpts.Timeout = &opts.Timeout
	}

	if err := s.Page.Locator(opts.Selector).First().Fill(opts.Value, playwrightOpts); err != nil {
		return fmt.Errorf("fill failed: %w", err)
	}

	return nil
}

// Click clicks the first element matching the selector.
func (s *Session) Click(opts ClickOptions) error {
	playwrightOpts := playwright.LocatorClickOptions{}

	if opts.Timeout > 0 {
		playwrightOpts.Timeout = &opts.Timeout
	}

	if err := s.Page.Locator(opts.Selector).First().Click(playwrightOpts); err != nil {
		return fmt.Errorf("click failed: %w", err)
	}

	// Update current URL in case click caused navigation
	s.CurrentURL = s.Page.URL()
	return nil
}

// Check ticks the first checkbox matching the selector.
func (s *Session) Check(opts ClickOptions) error {
	playwrightOpts := playwright.LocatorCheckOptions{}

	if opts.Timeout > 0 {
		playwrightOpts.Timeout = &opts.Timeout
	}

	if err := s.Page.Locator(opts.Selector).First().Check(playwrightOpts); err != nil {
		return fmt.Errorf("check failed: %w", err)
	}

	return nil
}

// IsVisible reports whether the first element matching the selector is visible right now.
// Lookup errors count as not visible.
func (s *Session) IsVisible(selector string) bool {
	visible, err := s.Page.Locator(selector).First().IsVisible()
	if err != nil {
		return false
	}
	return visible
}

// WaitForURL waits until the page URL satisfies the predicate.
func (s *Session) WaitForURL(opts URLWaitOptions) error {
	if opts.Match == nil {
		return fmt.Errorf("url predicate is required")
	}

	playwrightOpts := playwright.PageWaitForURLOptions{}

	if opts.Timeout > 0 {
		playwrightOpts.Timeout = &opts.Timeout
	}

	if err := s.Page.WaitForURL(opts.Match, playwrightOpts); err != nil {
		return fmt.Errorf("url wait failed (at %s): %w", s.Page.URL(), err)
	}

	s.CurrentURL = s.Page.URL()
	return nil
}

// Screenshot writes a PNG capture of the page to opts.Path.
func (s *Session) Screenshot(opts ScreenshotOptions) error {
	if opts.Path == "" {
		return fmt.Errorf("screenshot path is required")
	}

	_, err := s.Page.Screenshot(playwright.PageScreenshotOptions{
		Path:     playwright.String(opts.Path),
		FullPage: playwright.Bool(opts.FullPage),
	})
	if err != nil {
		return fmt.Errorf("screenshot failed: %w", err)
	}

	return nil
}

// Content returns the serialized HTML of the page.
func (s *Session) Content() (string, error) {
	content, err := s.Page.Content()
	if err != nil {
		return "", fmt.Errorf("content read failed: %w", err)
	}
	return content, nil
}

// Age returns how long the session has been open.
func (s *Session) Age() time.Duration {
	return time.Since(s.CreatedAt)
}

// URL returns the current page URL.
func (s *Session) URL() string {
	return s.Page.URL()
}

// Close releases the page, the context and the browser process, ignoring
// secondary errors so every resource gets a close call. Safe to call multiple times.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		if s.Page != nil {
			s.CurrentURL = s.Page.URL()
			_ = s.Page.Close() // Ignore errors, continue cleanup
		}
		if s.Context != nil {
			_ = s.Context.Close() // Ignore errors, continue cleanup
		}
		if s.Browser != nil {
			if err := s.Browser.Close(); err != nil {
				s.closeErr = fmt.Errorf("failed to close browser for session %q: %w", s.Name, err)
			}
		}

		if s.release != nil {
			s.release(s)
		}
	})
	return s.closeErr
}
