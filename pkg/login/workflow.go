package login

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/entrhq/autologin/pkg/browser"
	"github.com/entrhq/autologin/pkg/logging"
)

// captionErrorLimit is the number of characters of the error kept in a failure caption.
const captionErrorLimit = 200

// ImageNotifier delivers a failure screenshot. Implementations own the file
// once called and must delete it whether or not delivery succeeds.
type ImageNotifier interface {
	SendImage(ctx context.Context, path, caption string)
}

// Workflow drives the login state machine for one site profile.
// A Workflow holds no per-account state and may run many accounts concurrently.
type Workflow struct {
	profile       SiteProfile
	factory       browser.Factory
	notifier      ImageNotifier
	identities    browser.IdentityPool
	diagnostics   *Diagnostics
	log           logging.Sink
	authenticated func(url string) bool
	sleep         func(ctx context.Context, d time.Duration) error
}

// Option configures a Workflow.
type Option func(*Workflow)

// WithIdentities sets the identity rotation used across retries.
func WithIdentities(pool browser.IdentityPool) Option {
	return func(w *Workflow) {
		w.identities = pool
	}
}

// WithDiagnostics sets where failure screenshots are written.
func WithDiagnostics(d *Diagnostics) Option {
	return func(w *Workflow) {
		w.diagnostics = d
	}
}

// WithLogger sets the progress log.
func WithLogger(log logging.Sink) Option {
	return func(w *Workflow) {
		w.log = log
	}
}

// WithSleep replaces the blind-wait implementation.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(w *Workflow) {
		w.sleep = sleep
	}
}

// NewWorkflow validates the profile and creates a workflow opening sessions through factory.
func NewWorkflow(profile SiteProfile, factory browser.Factory, notifier ImageNotifier, opts ...Option) (*Workflow, error) {
	if err := profile.Validate(); err != nil {
		return nil, fmt.Errorf("invalid site profile: %w", err)
	}
	if factory == nil {
		return nil, fmt.Errorf("browser factory is required")
	}
	if notifier == nil {
		return nil, fmt.Errorf("notifier is required")
	}

	match, err := profile.Success.Matcher()
	if err != nil {
		return nil, err
	}

	w := &Workflow{
		profile:       profile,
		factory:       factory,
		notifier:      notifier,
		identities:    browser.DefaultIdentities,
		log:           logging.Discard,
		authenticated: match,
		sleep:         sleepContext,
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.diagnostics == nil {
		w.diagnostics = NewDiagnostics("", profile.ErrorSelectors)
	}

	return w, nil
}

// attempt is the state owned by a single try: one session, one identity.
type attempt struct {
	account  Account
	index    int
	identity browser.Identity
	page     browser.Page
}

// Run logs account in and returns its one Result. Faults never escape: they
// are retried with a fresh session until the budget is spent, then recorded.
func (w *Workflow) Run(ctx context.Context, account Account) Result {
	started := time.Now()
	result := Result{Email: account.Email}

	for index := 0; ; index++ {
		result.Attempts = index + 1
		if w.cycle(ctx, account, index, &result) {
			break
		}

		// RetryOrFail with budget left: the session is already released.
		w.log.Warnf("[%s] retrying in %s with a new browser identity", account.Email, w.profile.RetryDelay)
		if err := w.sleep(ctx, w.profile.RetryDelay); err != nil {
			w.log.Debugf("[%s] retry wait interrupted: %v", account.Email, err)
		}
	}

	result.Duration = time.Since(started)
	return result
}

// cycle runs one attempt and reports whether the account reached a terminal state.
// The attempt's session is released before cycle returns, on every path.
func (w *Workflow) cycle(ctx context.Context, account Account, index int, result *Result) bool {
	a, err := w.open(ctx, account, index)
	if a != nil {
		defer w.release(a)
	}
	if err == nil {
		err = w.drive(ctx, a)
	}

	if a != nil {
		result.FinalURL = a.page.URL()
	}

	if err == nil {
		result.Success = true
		result.Error = ""
		w.log.Infof("[%s] login succeeded (%s)", account.Email, result.FinalURL)
		return true
	}

	w.log.Warnf("[%s] %v", account.Email, err)

	if index < w.profile.MaxRetries && ctx.Err() == nil {
		return false
	}

	var page browser.Page
	if a != nil {
		page = a.page
	}
	w.fail(ctx, page, account, index, err, result)
	return true
}

// open acquires the session for attempt index with the identity that index maps to.
func (w *Workflow) open(ctx context.Context, account Account, index int) (*attempt, error) {
	if err := ctx.Err(); err != nil {
		return nil, &StepError{State: StateInit, Attempt: index, Err: err}
	}

	identity := w.identities.For(index)
	name := fmt.Sprintf("%s#%d", account.Email, index+1)

	page, err := w.factory.Open(ctx, name, identity)
	if err != nil {
		return nil, &StepError{State: StateInit, Attempt: index, Err: err}
	}

	w.log.Debugf("[%s] session %s opened as %s", account.Email, name, identity.Label)
	return &attempt{
		account:  account,
		index:    index,
		identity: identity,
		page:     page,
	}, nil
}

func (w *Workflow) release(a *attempt) {
	if err := a.page.Close(); err != nil {
		w.log.Warnf("[%s] failed to release session: %v", a.account.Email, err)
	}
}

// drive walks the states of one attempt from PageLoad until Success or the first fault.
func (w *Workflow) drive(ctx context.Context, a *attempt) error {
	state := StatePageLoad
	for !state.IsTerminal() {
		if err := ctx.Err(); err != nil {
			return &StepError{State: state, Attempt: a.index, Err: err}
		}

		next, err := w.step(ctx, a, state)
		if err != nil {
			return &StepError{State: state, Attempt: a.index, Err: err}
		}
		if !CanTransition(state, next) {
			return &StepError{State: state, Attempt: a.index, Err: fmt.Errorf("illegal transition to %s", next)}
		}

		w.log.Debugf("[%s] %s -> %s", a.account.Email, state, next)
		state = next
	}
	return nil
}

// step performs the work of one state and returns the state to move to.
func (w *Workflow) step(ctx context.Context, a *attempt, state State) (State, error) {
	p := &w.profile
	email := a.account.Email

	switch state {
	case StatePageLoad:
		w.log.Infof("[%s] attempt %d: opening login page as %s", email, a.index+1, a.identity.Label)
		err := a.page.Navigate(p.LoginURL, browser.NavigateOptions{
			WaitUntil: "load",
			Timeout:   w.timeout(p.Timeouts.Page),
		})
		return StateChallengeSettle, err

	case StateChallengeSettle:
		err := a.page.WaitForLoadState(browser.LoadStateOptions{
			State:   "domcontentloaded",
			Timeout: w.timeout(p.Timeouts.DOMReady),
		})
		if err != nil {
			return state, err
		}
		// Challenge completion is not observable, so this is a fixed wait, not a poll.
		if err := w.sleep(ctx, p.SettleDelay); err != nil {
			return state, err
		}
		if w.authenticated(a.page.URL()) {
			w.log.Infof("[%s] session already authenticated", email)
			return StateSuccess, nil
		}
		return StateLocateForm, nil

	case StateLocateForm:
		err := a.page.Wait(browser.WaitOptions{
			Selector: p.EmailQuery(),
			State:    "visible",
			Timeout:  w.timeout(p.Timeouts.Form),
		})
		if err == nil {
			w.log.Debugf("[%s] login form detected", email)
		}
		return StateFillCredentials, err

	case StateFillCredentials:
		if err := a.page.Fill(browser.FillOptions{
			Selector: p.EmailQuery(),
			Value:    a.account.Email,
			Timeout:  w.timeout(p.Timeouts.Action),
		}); err != nil {
			return state, err
		}
		err := a.page.Fill(browser.FillOptions{
			Selector: p.PasswordQuery(),
			Value:    a.account.Password,
			Timeout:  w.timeout(p.Timeouts.Action),
		})
		return StateOptionalConsent, err

	case StateOptionalConsent:
		w.consent(ctx, a)
		return StateSubmit, nil

	case StateSubmit:
		err := a.page.Click(browser.ClickOptions{
			Selector: p.SubmitQuery(),
			Timeout:  w.timeout(p.Timeouts.Action),
		})
		if err == nil {
			w.log.Debugf("[%s] login submitted", email)
		}
		return StateVerifyOutcome, err

	case StateVerifyOutcome:
		err := a.page.WaitForURL(browser.URLWaitOptions{
			Match:   w.authenticated,
			Timeout: w.timeout(p.Timeouts.Verify),
		})
		return StateSuccess, err
	}

	return state, fmt.Errorf("no handler for state %s", state)
}

// consent ticks the human-verification control when one shows up in time.
// It never faults: absence or a failed click only gets logged.
func (w *Workflow) consent(ctx context.Context, a *attempt) {
	p := &w.profile
	email := a.account.Email

	probe := p.ConsentQuery()
	if probe == "" {
		return
	}

	if err := a.page.Wait(browser.WaitOptions{
		Selector: probe,
		State:    "visible",
		Timeout:  w.timeout(p.Timeouts.Consent),
	}); err != nil {
		w.log.Debugf("[%s] no consent control: %v", email, err)
		return
	}

	opts := browser.ClickOptions{Timeout: w.timeout(p.Timeouts.Consent)}
	var err error
	switch {
	case p.Consent.Checkbox != "" && a.page.IsVisible(p.Consent.Checkbox):
		opts.Selector = p.Consent.Checkbox
		err = a.page.Check(opts)
	case p.Consent.Label != "":
		opts.Selector = p.Consent.Label
		err = a.page.Click(opts)
	default:
		return
	}
	if err != nil {
		w.log.Warnf("[%s] consent control found but not ticked: %v", email, err)
		return
	}

	w.log.Infof("[%s] consent control ticked", email)
	if err := w.sleep(ctx, p.ConsentDelay); err != nil {
		w.log.Debugf("[%s] consent wait interrupted: %v", email, err)
	}
}

// fail records the terminal fault and hands a screenshot to the notifier.
// A capture problem is logged and never replaces cause.
func (w *Workflow) fail(ctx context.Context, page browser.Page, account Account, index int, cause error, result *Result) {
	detail := cause.Error()
	if alerts := w.diagnostics.Alerts(page); len(alerts) > 0 {
		detail = fmt.Sprintf("%s | page: %s", detail, strings.Join(alerts, "; "))
	}
	result.Success = false
	result.Error = detail

	w.log.Errorf("[%s] all %d attempts failed: %s", account.Email, index+1, detail)

	artifact, err := w.diagnostics.Capture(page, account.Email, index)
	if err != nil {
		w.log.Warnf("[%s] diagnostic capture failed: %v", account.Email, err)
		return
	}

	// Deliver even when the run is being cancelled; the notifier bounds its own calls.
	w.notifier.SendImage(context.WithoutCancel(ctx), artifact.Path, w.caption(account, detail, result.FinalURL))
}

// caption builds the HTML caption attached to a failure screenshot.
func (w *Workflow) caption(account Account, detail, url string) string {
	return fmt.Sprintf("%s 登录失败\n账号: <code>%s</code>\n错误: <i>%s</i>\nURL: %s\n建议: 检查网络或手动登录一次",
		html.EscapeString(w.profile.Label),
		html.EscapeString(account.Email),
		html.EscapeString(truncate(detail, captionErrorLimit)),
		html.EscapeString(url),
	)
}

func (w *Workflow) timeout(d time.Duration) float64 {
	return browser.Milliseconds(w.profile.Timeouts.timeout(d))
}

// truncate cuts s to at most n characters.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// sleepContext waits for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
