package archive

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// noteTimeFormat is the local-timestamp prefix of every work note, second
// precision.
const noteTimeFormat = "2006-01-02 15:04:05"

// NotesUpdater is the write-back surface of the tracker client.
type NotesUpdater interface {
	UpdateWorkNotes(ctx context.Context, sysID, note string) error
}

// Notifier appends archival summaries to a ticket's work notes.
type Notifier struct {
	client NotesUpdater
	now    func() time.Time
}

// NewNotifier creates a Notifier using the given tracker client.
func NewNotifier(client NotesUpdater) *Notifier {
	return &Notifier{client: client, now: time.Now}
}

// PostNote patches "<timestamp> - <message>" onto the ticket's work notes.
// It reports success; a failed write-back is logged and surfaced only as
// work_notes_updated=false in the response, never as a pipeline failure.
func (n *Notifier) PostNote(ctx context.Context, incidentNumber, sysID, message string) bool {
	note := n.now().Format(noteTimeFormat) + " - " + message

	if err := n.client.UpdateWorkNotes(ctx, sysID, note); err != nil {
		log.Error().Err(err).Str("incident", incidentNumber).Msg("Work note update failed")
		return false
	}

	log.Info().Str("incident", incidentNumber).Msg("Updated work notes")
	return true
}
