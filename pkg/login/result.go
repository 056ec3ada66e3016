package login

import "time"

// Result is the single outcome recorded for one account, however many attempts it took.
type Result struct {
	Email    string        `json:"email"`
	Success  bool          `json:"success"`
	Error    string        `json:"error,omitempty"`
	Attempts int           `json:"attempts"`
	FinalURL string        `json:"final_url,omitempty"`
	Duration time.Duration `json:"duration"`
}
