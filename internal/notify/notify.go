// Package notify raises desktop notifications.
package notify

import (
	"log/slog"

	"github.com/gen2brain/beeep"
)

// Notifier sends desktop notifications when enabled. Failures are logged and
// otherwise ignored; a missing notification daemon must never fail a command.
type Notifier struct {
	Enabled bool
	Logger  *slog.Logger
	send    func(title, message string) error
}

func New(enabled bool, logger *slog.Logger) *Notifier {
	return &Notifier{
		Enabled: enabled,
		Logger:  logger,
		send: func(title, message string) error {
			return beeep.Notify(title, message, "")
		},
	}
}

func (n *Notifier) Send(title, message string) {
	if n == nil || !n.Enabled {
		return
	}
	if err := n.send(title, message); err != nil && n.Logger != nil {
		n.Logger.Warn("desktop notification failed", "error", err)
	}
}
