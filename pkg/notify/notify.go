// Package notify delivers run reports and failure screenshots to the operator.
//
// Delivery is best effort: every failure is logged and swallowed so a broken
// channel can never be mistaken for a failed login. Image senders always delete
// the file they were handed, delivered or not.
package notify

import (
	"context"
	"os"
	"time"

	"github.com/entrhq/autologin/pkg/logging"
)

// Notifier sends text and image messages to an operator channel.
// Implementations must be safe for concurrent use.
type Notifier interface {
	SendText(ctx context.Context, message string)
	SendImage(ctx context.Context, path, caption string)
}

// Config holds the channel credentials and delivery tuning.
type Config struct {
	// BotToken and ChatID are the Telegram credentials; either empty disables remote delivery
	BotToken string `yaml:"bot_token" json:"-"`
	ChatID   string `yaml:"chat_id" json:"chat_id"`

	// APIBase overrides the Bot API endpoint
	APIBase string `yaml:"api_base" json:"api_base"`

	// Timeout bounds each HTTP call
	Timeout time.Duration `yaml:"timeout" json:"timeout"`

	// RatePerSecond paces outbound calls shared by all accounts
	RatePerSecond float64 `yaml:"rate_per_second" json:"rate_per_second"`
}

// Enabled reports whether both credentials are present.
func (c Config) Enabled() bool {
	return c.BotToken != "" && c.ChatID != ""
}

// New returns a Telegram notifier when credentials are configured and a
// log-only notifier otherwise.
func New(cfg Config, log logging.Sink) Notifier {
	if log == nil {
		log = logging.Discard
	}
	if !cfg.Enabled() {
		log.Warnf("TG_BOT_TOKEN / TG_CHAT_ID not set, notifications will only be logged")
		return NewLogNotifier(log)
	}
	return NewTelegram(cfg, log)
}

// removeArtifact deletes a delivered (or undeliverable) file.
func removeArtifact(path string, log logging.Sink) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		log.Warnf("failed to remove artifact %s: %v", path, err)
	}
}
