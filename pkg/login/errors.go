package login

import (
	"fmt"

	"github.com/entrhq/autologin/pkg/browser"
)

// StepError is a transient fault raised by one state of one attempt.
// It is retried with a new session until the retry budget runs out.
type StepError struct {
	State   State
	Attempt int
	Err     error
}

func (e *StepError) Error() string {
	kind := "failed"
	if browser.IsTimeout(e.Err) {
		kind = "timed out"
	}
	return fmt.Sprintf("attempt %d: %s %s: %v", e.Attempt+1, e.State, kind, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}
