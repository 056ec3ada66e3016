package login

// State is a step of the per-account login state machine.
type State int

const (
	StateInit State = iota
	StatePageLoad
	StateChallengeSettle
	StateLocateForm
	StateFillCredentials
	StateOptionalConsent
	StateSubmit
	StateVerifyOutcome
	StateRetryOrFail
	StateSuccess
	StateFailed
)

var stateNames = map[State]string{
	StateInit:            "init",
	StatePageLoad:        "page_load",
	StateChallengeSettle: "challenge_settle",
	StateLocateForm:      "locate_form",
	StateFillCredentials: "fill_credentials",
	StateOptionalConsent: "optional_consent",
	StateSubmit:          "submit",
	StateVerifyOutcome:   "verify_outcome",
	StateRetryOrFail:     "retry_or_fail",
	StateSuccess:         "success",
	StateFailed:          "failed",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

// IsTerminal reports whether no further transition leaves the state.
func (s State) IsTerminal() bool {
	return s == StateSuccess || s == StateFailed
}

// allowedNext lists the legal successors of every non-terminal state.
var allowedNext = map[State][]State{
	StateInit:            {StatePageLoad, StateRetryOrFail},
	StatePageLoad:        {StateChallengeSettle, StateRetryOrFail},
	StateChallengeSettle: {StateSuccess, StateLocateForm, StateRetryOrFail},
	StateLocateForm:      {StateFillCredentials, StateRetryOrFail},
	StateFillCredentials: {StateOptionalConsent, StateRetryOrFail},
	StateOptionalConsent: {StateSubmit},
	StateSubmit:          {StateVerifyOutcome, StateRetryOrFail},
	StateVerifyOutcome:   {StateSuccess, StateRetryOrFail},
	StateRetryOrFail:     {StateInit, StateFailed},
}

// CanTransition reports whether from -> to is a legal move.
func CanTransition(from, to State) bool {
	for _, next := range allowedNext[from] {
		if next == to {
			return true
		}
	}
	return false
}
