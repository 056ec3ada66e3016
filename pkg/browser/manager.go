package browser

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/entrhq/autologin/pkg/logging"
)

// Launcher owns the Playwright driver and every browser session started through it.
// Each Open launches a dedicated browser process, so attempts share nothing.
type Launcher struct {
	mu          sync.Mutex
	sessions    map[*Session]struct{}
	playwright  *playwright.Playwright
	opts        LaunchOptions
	initialized bool
	log         logging.Sink
}

// NewLauncher creates a new launcher. Initialize must be called before Open.
func NewLauncher(opts LaunchOptions) *Launcher {
	if opts.Viewport == nil {
		opts.Viewport = &Viewport{
			Width:  DefaultViewportWidth,
			Height: DefaultViewportHeight,
		}
	}
	if opts.Timeout == 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Args == nil {
		opts.Args = DefaultArgs
	}

	return &Launcher{
		sessions: make(map[*Session]struct{}),
		opts:     opts,
		log:      logging.Discard,
	}
}

// SetLogger routes session lifecycle messages to log.
func (l *Launcher) SetLogger(log logging.Sink) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if log == nil {
		log = logging.Discard
	}
	l.log = log
}

// Initialize starts the Playwright driver, installing it first when configured to.
func (l *Launcher) Initialize() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.initialized {
		return nil
	}

	runOpts := &playwright.RunOptions{
		Browsers: []string{"chromium"},
		Verbose:  false,
		Stdout:   io.Discard,
		Stderr:   io.Discard,
	}

	if l.opts.Install {
		if err := playwright.Install(runOpts); err != nil {
			return fmt.Errorf("failed to install playwright: %w", err)
		}
	}

	pw, err := playwright.Run(runOpts)
	if err != nil {
		return fmt.Errorf("failed to start playwright: %w", err)
	}

	l.playwright = pw
	l.initialized = true
	return nil
}

// Open launches a browser with a new context presenting identity and returns its page.
// The caller must Close the page on every exit path.
func (l *Launcher) Open(ctx context.Context, name string, identity Identity) (Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.mu.Lock()
	pw := l.playwright
	ready := l.initialized
	l.mu.Unlock()

	if !ready {
		return nil, fmt.Errorf("launcher not initialized")
	}

	launchOpts := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(l.opts.Headless),
		Args:     l.opts.Args,
	}
	if l.opts.ExecutablePath != "" {
		launchOpts.ExecutablePath = playwright.String(l.opts.ExecutablePath)
	}

	browser, err := pw.Chromium.Launch(launchOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	contextOpts := playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{
			Width:  l.opts.Viewport.Width,
			Height: l.opts.Viewport.Height,
		},
	}
	if identity.UserAgent != "" {
		contextOpts.UserAgent = playwright.String(identity.UserAgent)
	}

	bctx, err := browser.NewContext(contextOpts)
	if err != nil {
		_ = browser.Close()
		return nil, fmt.Errorf("failed to create context: %w", err)
	}
	bctx.SetDefaultTimeout(l.opts.Timeout)

	page, err := bctx.NewPage()
	if err != nil {
		_ = bctx.Close()
		_ = browser.Close()
		return nil, fmt.Errorf("failed to create page: %w", err)
	}
	page.SetDefaultTimeout(l.opts.Timeout)

	session := &Session{
		Name:       name,
		Identity:   identity,
		Browser:    browser,
		Context:    bctx,
		Page:       page,
		CreatedAt:  time.Now(),
		CurrentURL: "about:blank",
		release:    l.forget,
	}

	l.mu.Lock()
	l.sessions[session] = struct{}{}
	log := l.log
	l.mu.Unlock()

	log.Debugf("opened browser session %s as %s", name, identity.Label)

	return session, nil
}

// forget removes a closed session from the registry.
func (l *Launcher) forget(s *Session) {
	l.mu.Lock()
	delete(l.sessions, s)
	log := l.log
	l.mu.Unlock()

	log.Debugf("released browser session %s after %s (last at %s)", s.Name, s.Age().Round(time.Millisecond), s.CurrentURL)
}

// ActiveSessions returns the number of sessions not yet closed.
func (l *Launcher) ActiveSessions() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.sessions)
}

// Shutdown closes all sessions still open and stops the Playwright driver.
func (l *Launcher) Shutdown() error {
	l.mu.Lock()
	open := make([]*Session, 0, len(l.sessions))
	for s := range l.sessions {
		open = append(open, s)
	}
	l.mu.Unlock()

	var errs []error
	for _, s := range open {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.initialized && l.playwright != nil {
		if err := l.playwright.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop playwright: %w", err))
		}
		l.initialized = false
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors during shutdown: %v", errs)
	}
	return nil
}
