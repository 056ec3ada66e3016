package login

import (
	"errors"
	"strings"
)

var (
	// ErrNoAccounts is returned when the account list is empty.
	ErrNoAccounts = errors.New("no accounts configured")

	// ErrMalformedAccounts is returned when no entry of a non-empty list is a valid email:password pair.
	ErrMalformedAccounts = errors.New("account list malformed, expected email:password")
)

// Account is one credential pair. The email is an opaque identifier.
type Account struct {
	Email    string
	Password string
}

// String returns the email only so accounts can be logged safely.
func (a Account) String() string {
	return a.Email
}

// ParseAccounts parses a comma-separated list of email:password pairs.
// Each entry is split on its first colon, so passwords may contain colons.
// Entries without a colon, or with an empty email or password, are dropped silently.
func ParseAccounts(raw string) ([]Account, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, ErrNoAccounts
	}

	var accounts []Account
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		email, password, ok := strings.Cut(entry, ":")
		if !ok {
			continue
		}
		email = strings.TrimSpace(email)
		if email == "" || password == "" {
			continue
		}
		accounts = append(accounts, Account{Email: email, Password: password})
	}

	if len(accounts) == 0 {
		return nil, ErrMalformedAccounts
	}
	return accounts, nil
}
