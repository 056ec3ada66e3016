package notify

import (
	"context"

	"github.com/entrhq/autologin/pkg/logging"
)

// LogNotifier writes notifications to the log instead of a remote channel.
type LogNotifier struct {
	log logging.Sink
}

// NewLogNotifier creates a log-only notifier.
func NewLogNotifier(log logging.Sink) *LogNotifier {
	return &LogNotifier{log: log}
}

// SendText logs the message.
func (n *LogNotifier) SendText(_ context.Context, message string) {
	n.log.Infof("notification (not delivered): %s", message)
}

// SendImage logs the caption and deletes the image.
func (n *LogNotifier) SendImage(_ context.Context, path, caption string) {
	defer removeArtifact(path, n.log)
	n.log.Infof("image notification (not delivered): %s: %s", path, caption)
}
