// Package runner fans the login workflow out over every configured account
// and reports the aggregate outcome.
package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/entrhq/autologin/pkg/logging"
	"github.com/entrhq/autologin/pkg/login"
	"github.com/entrhq/autologin/pkg/notify"
	"github.com/entrhq/autologin/pkg/report"
)

// Configuration fault messages sent to the operator.
const (
	msgNoAccounts        = "Failed: 未配置任何账号"
	msgMalformedAccounts = "Failed: LOGIN_ACCOUNTS 格式错误，应为 email:password"
)

// ConfigError reports a run that was refused before any login attempt.
type ConfigError struct {
	Err error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration fault: %v", e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// AccountRunner logs one account in and always returns its result.
type AccountRunner interface {
	Run(ctx context.Context, account login.Account) login.Result
}

// Printer receives the final report in plain text.
type Printer interface {
	Block(text string)
}

// Options tunes a Runner.
type Options struct {
	// Concurrency caps accounts in flight; zero runs them all at once
	Concurrency int

	// Artifacts writes run.json and summary.md when set
	Artifacts *report.ArtifactWriter

	Printer Printer
	Log     logging.Sink

	// Prepare runs once the account list is accepted and before the first
	// login, e.g. to start the browser driver. An error aborts the run.
	Prepare func(ctx context.Context) error

	// Now is the clock used for the report window
	Now func() time.Time
}

// Runner orchestrates one run over an account list.
type Runner struct {
	accounts string
	workflow AccountRunner
	notifier notify.Notifier
	target   report.Target
	opts     Options
}

// New creates a runner for the raw account list.
func New(accounts string, workflow AccountRunner, notifier notify.Notifier, target report.Target, opts Options) *Runner {
	if opts.Log == nil {
		opts.Log = logging.Discard
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Runner{
		accounts: accounts,
		workflow: workflow,
		notifier: notifier,
		target:   target,
		opts:     opts,
	}
}

// Run parses the accounts, logs each one in concurrently and sends the report.
// A configuration fault is notified and returned as *ConfigError before
// Prepare runs; login failures are part of the report, not errors.
func (r *Runner) Run(ctx context.Context) (report.Report, error) {
	accounts, err := login.ParseAccounts(r.accounts)
	if err != nil {
		r.refuse(context.WithoutCancel(ctx), err)
		return report.Report{}, &ConfigError{Err: err}
	}

	log := r.opts.Log
	if r.opts.Prepare != nil {
		if err := r.opts.Prepare(ctx); err != nil {
			log.Errorf("%v", err)
			return report.Report{}, err
		}
	}
	log.Infof("starting login for %d account(s)", len(accounts))

	startedAt := r.opts.Now()
	results := make([]login.Result, len(accounts))

	var g errgroup.Group
	if r.opts.Concurrency > 0 {
		g.SetLimit(r.opts.Concurrency)
	}
	for i, account := range accounts {
		g.Go(func() error {
			results[i] = r.workflow.Run(ctx, account)
			return nil
		})
	}
	// Workflows never return errors; Wait is only the join.
	_ = g.Wait()

	finishedAt := r.opts.Now()
	rep := report.Build(r.target, results, startedAt, finishedAt)
	log.Infof("run finished: %d succeeded, %d failed", len(rep.Succeeded), len(rep.Failed))

	// The report still goes out when the run was interrupted.
	message := rep.String()
	r.notifier.SendText(context.WithoutCancel(ctx), message)
	if r.opts.Printer != nil {
		r.opts.Printer.Block(report.PlainText(message))
	}

	if r.opts.Artifacts != nil {
		if err := r.opts.Artifacts.WriteAll(report.NewRunSummary(rep, results)); err != nil {
			log.Warnf("failed to write run artifacts: %v", err)
		}
	}

	return rep, nil
}

func (r *Runner) refuse(ctx context.Context, cause error) {
	message := msgMalformedAccounts
	if errors.Is(cause, login.ErrNoAccounts) {
		message = msgNoAccounts
	}
	r.opts.Log.Errorf("%v", cause)
	r.notifier.SendText(ctx, message)
}
