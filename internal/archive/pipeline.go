// Package archive implements the incident archival pipeline: attachment
// acquisition, document rendering, tracker write-back and response assembly.
package archive

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
)

// Acquirer downloads a ticket's attachments and returns at most one
// artifact path.
type Acquirer interface {
	Acquire(ctx context.Context, sysID, incidentNumber string) (string, bool)
}

// DocumentRenderer builds and persists the incident document.
type DocumentRenderer interface {
	Render(ctx context.Context, data, refs map[string]string, incidentNumber, attachmentPath string) (string, error)
}

// NotePoster writes the archival summary back to the ticket.
type NotePoster interface {
	PostNote(ctx context.Context, incidentNumber, sysID, message string) bool
}

// DocumentMirror uploads a rendered document to object storage.
type DocumentMirror interface {
	Upload(ctx context.Context, incidentNumber, path string) error
}

// Result is the data section of a successful response envelope.
type Result struct {
	Status          string  `json:"status"`
	Timestamp       string  `json:"timestamp"`
	TransactionID   string  `json:"transaction_id"`
	IncidentNumber  string  `json:"incident_number"`
	WordDocument    string  `json:"word_document"`
	Attachments     *string `json:"attachments"`
	WorkNotesUpdate bool    `json:"work_notes_updated"`
}

// Pipeline sequences one incident through acquisition, rendering and
// write-back. Each request is processed synchronously start to finish;
// concurrent requests run as independent, uncoordinated pipelines.
type Pipeline struct {
	attachments Acquirer
	renderer    DocumentRenderer
	notifier    NotePoster
	mirror      DocumentMirror // nil unless mirroring is configured
}

// NewPipeline wires the pipeline stages. mirror may be nil.
func NewPipeline(attachments Acquirer, renderer DocumentRenderer, notifier NotePoster, mirror DocumentMirror) *Pipeline {
	return &Pipeline{
		attachments: attachments,
		renderer:    renderer,
		notifier:    notifier,
		mirror:      mirror,
	}
}

// Process runs the archival pipeline for one validated payload.
//
// Attachment acquisition and the work-note write-back degrade in place; a
// renderer failure is the only fatal outcome and carries the incident number
// for the error response.
func (p *Pipeline) Process(ctx context.Context, payload IncidentPayload) (*Result, error) {
	log.Info().
		Str("incident", payload.IncidentNumber).
		Str("transactionId", payload.TransactionID).
		Msg("Processing incident")

	attachmentPath, hasAttachment := p.attachments.Acquire(ctx, payload.SysID, payload.IncidentNumber)

	docPath, err := p.renderer.Render(ctx, payload.tableData(), nil, payload.IncidentNumber, attachmentPath)
	if err != nil {
		return nil, fmt.Errorf("process incident %s: %w", payload.IncidentNumber, err)
	}

	message := fmt.Sprintf("Incident has been indexed and documented. Document created: %s%s",
		payload.IncidentNumber, DocExt)
	if hasAttachment {
		message += " | Attachments downloaded: " + filepath.Base(attachmentPath)
	}
	notified := p.notifier.PostNote(ctx, payload.IncidentNumber, payload.SysID, message)

	if p.mirror != nil {
		if err := p.mirror.Upload(ctx, payload.IncidentNumber, docPath); err != nil {
			log.Error().Err(err).Str("incident", payload.IncidentNumber).Msg("Document mirror upload failed")
		}
	}

	result := &Result{
		Status:          "processed",
		Timestamp:       time.Now().UTC().Format(time.RFC3339),
		TransactionID:   payload.TransactionID,
		IncidentNumber:  payload.IncidentNumber,
		WordDocument:    docPath,
		WorkNotesUpdate: notified,
	}
	if hasAttachment {
		result.Attachments = &attachmentPath
	}

	log.Info().Str("incident", payload.IncidentNumber).Msg("Successfully processed incident")
	return result, nil
}
