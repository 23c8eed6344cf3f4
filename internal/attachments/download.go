// Package attachments downloads a ticket's attachments to local storage and
// consolidates multi-image sets into a single vertically-stacked image.
//
// Attachments are best-effort enrichment: a listing failure, a failed
// download, or a failed merge never blocks document creation. The caller gets
// at most one artifact path per ticket.
package attachments

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"incident-archiver/internal/servicenow"

	"github.com/rs/zerolog/log"
)

// Fetcher is the subset of the ServiceNow client the downloader needs.
type Fetcher interface {
	ListAttachments(ctx context.Context, tableSysID string) []servicenow.Attachment
	FetchAttachment(ctx context.Context, attachmentID string) ([]byte, error)
}

// Downloader acquires the attachments of a ticket into Dir.
type Downloader struct {
	client Fetcher
	dir    string
}

// NewDownloader creates a Downloader writing into dir.
func NewDownloader(client Fetcher, dir string) *Downloader {
	return &Downloader{client: client, dir: dir}
}

// Acquire downloads every attachment of the record identified by sysID and
// returns the path of the resulting artifact:
//
//   - no attachments saved: ok is false
//   - exactly one: that file's path
//   - more than one: the consolidated image's path
//
// Local filenames are {incidentNumber}_{index}{ext} in the tracker's listing
// order. A single failed download is logged and skipped; a failed merge
// degrades to "no artifact".
func (d *Downloader) Acquire(ctx context.Context, sysID, incidentNumber string) (string, bool) {
	atts := d.client.ListAttachments(ctx, sysID)
	if len(atts) == 0 {
		log.Debug().Str("incident", incidentNumber).Msg("No attachments on record")
		return "", false
	}

	var saved []string
	for idx, att := range atts {
		name := fmt.Sprintf("%s_%d%s", incidentNumber, idx, filepath.Ext(att.FileName))
		path := filepath.Join(d.dir, name)

		data, err := d.client.FetchAttachment(ctx, att.SysID)
		if err != nil {
			log.Error().Err(err).
				Str("incident", incidentNumber).
				Str("fileName", att.FileName).
				Msg("Attachment download failed, skipping")
			continue
		}

		if err := os.WriteFile(path, data, 0o644); err != nil {
			log.Error().Err(err).Str("path", path).Msg("Attachment write failed, skipping")
			continue
		}

		log.Info().Str("incident", incidentNumber).Str("fileName", att.FileName).Str("path", path).Msg("Attachment downloaded")
		saved = append(saved, path)
	}

	switch len(saved) {
	case 0:
		return "", false
	case 1:
		return saved[0], true
	}

	combined := filepath.Join(d.dir, incidentNumber+"_combined.jpg")
	out, err := StackVertically(saved, combined)
	if err != nil {
		log.Error().Err(err).Str("incident", incidentNumber).Msg("Image consolidation failed")
		return "", false
	}
	return out, true
}
