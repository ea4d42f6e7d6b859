package notifier

import (
	"log/slog"

	"github.com/amishk599/jobboard/internal/model"
)

// Ensure LogNotifier implements model.Notifier.
var _ model.Notifier = (*LogNotifier)(nil)

// LogNotifier writes toasts to the given logger as structured messages.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier returns a notifier that logs each toast via slog.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify logs the toast message with its kind, variant and application id.
// Returns nil (stdout logging does not fail).
func (n *LogNotifier) Notify(note model.Notification) error {
	args := []any{
		"kind", string(note.Kind),
		"variant", string(note.Variant()),
		"application_id", note.ApplicationID(),
	}
	if jobID := note.JobID(); jobID != "" {
		args = append(args, "job_id", jobID)
	}
	n.logger.Info(note.Message(), args...)
	return nil
}
