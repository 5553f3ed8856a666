package notify

import (
	"log/slog"

	"attendance-tracker/internal/domain"
)

// SlogNotifier implements ports.Notifier on the structured log. Front-ends
// that want toasts subscribe to tracker events instead; the log is the
// always-on surface.
type SlogNotifier struct {
	Log *slog.Logger
}

func (n *SlogNotifier) Success(identity, message string) {
	n.Log.Info("notification",
		slog.String("identity", identity),
		slog.String("outcome", "success"),
		slog.String("message", message),
	)
}

func (n *SlogNotifier) Failure(identity string, kind domain.Kind, message string) {
	n.Log.Warn("notification",
		slog.String("identity", identity),
		slog.String("outcome", "failure"),
		slog.String("kind", kind.String()),
		slog.String("message", message),
	)
}
