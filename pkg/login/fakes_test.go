package login

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/entrhq/autologin/pkg/browser"
)

var errTimeout = fmt.Errorf("%w: waiting for locator", playwright.ErrTimeout)

// fakePage scripts one attempt. The zero value loads the login page and
// never leaves it.
type fakePage struct {
	mu sync.Mutex

	startURL  string // URL after navigation
	submitURL string // URL after the submit click

	navigateErr     error
	formErr         error
	consentVisible  bool // turnstile widget
	checkboxVisible bool
	labelVisible    bool
	screenshotErr   error
	content         string

	url         string
	calls       []string
	filled      map[string]string
	checked     []string
	clicked     []string
	screenshots []string
	closeCount  int
}

func (p *fakePage) record(call string) {
	p.calls = append(p.calls, call)
}

func (p *fakePage) Navigate(url string, _ browser.NavigateOptions) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.record("navigate")
	if p.navigateErr != nil {
		return p.navigateErr
	}
	p.url = url
	if p.startURL != "" {
		p.url = p.startURL
	}
	return nil
}

func (p *fakePage) WaitForLoadState(browser.LoadStateOptions) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.record("load_state")
	return nil
}

func (p *fakePage) Wait(opts browser.WaitOptions) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.record("wait " + opts.Selector)

	profile := WispbyteProfile()
	switch opts.Selector {
	case profile.EmailQuery():
		return p.formErr
	case profile.ConsentQuery():
		if p.consentVisible || p.checkboxVisible {
			return nil
		}
		if p.labelVisible && strings.Contains(opts.Selector, consentPrompt) {
			return nil
		}
		return errTimeout
	}
	return nil
}

func (p *fakePage) Fill(opts browser.FillOptions) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.record("fill")
	if p.filled == nil {
		p.filled = make(map[string]string)
	}
	p.filled[opts.Selector] = opts.Value
	return nil
}

func (p *fakePage) Click(opts browser.ClickOptions) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.record("click")
	p.clicked = append(p.clicked, opts.Selector)
	profile := WispbyteProfile()
	if opts.Selector == profile.SubmitQuery() && p.submitURL != "" {
		p.url = p.submitURL
	}
	return nil
}

func (p *fakePage) Check(opts browser.ClickOptions) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.record("check")
	p.checked = append(p.checked, opts.Selector)
	return nil
}

func (p *fakePage) IsVisible(selector string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.checkboxVisible && selector == WispbyteProfile().Consent.Checkbox
}

func (p *fakePage) WaitForURL(opts browser.URLWaitOptions) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.record("wait_url")
	if opts.Match(p.url) {
		return nil
	}
	return errTimeout
}

func (p *fakePage) Screenshot(opts browser.ScreenshotOptions) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.screenshotErr != nil {
		return p.screenshotErr
	}
	p.screenshots = append(p.screenshots, opts.Path)
	return os.WriteFile(opts.Path, []byte("png"), 0600)
}

func (p *fakePage) Content() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.content, nil
}

func (p *fakePage) URL() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url
}

func (p *fakePage) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closeCount++
	return nil
}

func (p *fakePage) has(call string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, c := range p.calls {
		if c == call {
			return true
		}
	}
	return false
}

// fakeFactory hands out one scripted page per attempt, reusing a fresh copy
// of the template once the script runs out.
type fakeFactory struct {
	mu         sync.Mutex
	script     []*fakePage
	template   func() *fakePage
	openErr    error
	opened     []*fakePage
	names      []string
	identities []browser.Identity
}

func (f *fakeFactory) Open(_ context.Context, name string, identity browser.Identity) (browser.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.names = append(f.names, name)
	f.identities = append(f.identities, identity)
	if f.openErr != nil {
		return nil, f.openErr
	}

	var page *fakePage
	if i := len(f.opened); i < len(f.script) {
		page = f.script[i]
	} else if f.template != nil {
		page = f.template()
	} else {
		page = &fakePage{}
	}
	f.opened = append(f.opened, page)
	return page, nil
}

type sentImage struct {
	path    string
	caption string
	existed bool
}

// fakeNotifier honours the ownership contract by deleting each image.
type fakeNotifier struct {
	mu     sync.Mutex
	images []sentImage
}

func (n *fakeNotifier) SendImage(_ context.Context, path, caption string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	_, err := os.Stat(path)
	n.images = append(n.images, sentImage{path: path, caption: caption, existed: err == nil})
	_ = os.Remove(path)
}

func noSleep(ctx context.Context, _ time.Duration) error {
	return ctx.Err()
}
