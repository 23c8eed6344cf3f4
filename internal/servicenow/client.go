// Package servicenow provides a client for the ServiceNow Table and
// Attachment REST APIs used by the archival pipeline.
//
// The client covers four operations:
//  1. Resolve a linked record's display name by reference URL
//  2. List the attachments owned by a record
//  3. Fetch an attachment's raw bytes
//  4. Patch the work_notes field of an incident record
//
// Lookups degrade rather than fail: a resolution that cannot complete returns
// the "Unknown" placeholder and an attachment listing that cannot complete
// returns nil. The renderer must never fail solely because a linked-record
// lookup did.
package servicenow

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"incident-archiver/internal/config"

	"github.com/rs/zerolog/log"
)

// UnknownName is returned by ResolveDisplayName when the linked record
// cannot be resolved.
const UnknownName = "Unknown"

// maxErrorBody bounds how much of an error response body ends up in logs.
const maxErrorBody = 200

// Client provides authenticated access to a ServiceNow instance.
type Client struct {
	httpClient *http.Client
	baseURL    string
	username   string
	password   string
}

// Attachment is one entry from the sys_attachment listing.
type Attachment struct {
	SysID      string `json:"sys_id"`
	FileName   string `json:"file_name"`
	TableSysID string `json:"table_sys_id"`
}

// nameResult is the response shape of a linked-record GET.
type nameResult struct {
	Result struct {
		Name string `json:"name"`
	} `json:"result"`
}

// attachmentListResult is the response shape of the attachment listing.
type attachmentListResult struct {
	Result []Attachment `json:"result"`
}

// NewClient creates a ServiceNow API client from injected configuration.
func NewClient(cfg config.ServiceNow) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL:  cfg.BaseURL,
		username: cfg.Username,
		password: cfg.Password,
	}
}

// ResolveDisplayName fetches the display name of a linked record by its
// reference URL. On any transport error, non-200 status or malformed body it
// logs the failure and returns UnknownName; it never returns an error.
func (c *Client) ResolveDisplayName(ctx context.Context, refURL string) string {
	body, err := c.get(ctx, refURL)
	if err != nil {
		log.Error().Err(err).Str("url", refURL).Msg("Linked record lookup failed")
		return UnknownName
	}

	var res nameResult
	if err := json.Unmarshal(body, &res); err != nil {
		log.Error().Err(err).Str("url", refURL).Msg("Linked record response malformed")
		return UnknownName
	}
	if res.Result.Name == "" {
		return UnknownName
	}
	return res.Result.Name
}

// ListAttachments returns the attachments owned by the record with the given
// sys_id, in the order the tracker returns them. Any failure degrades to nil;
// the caller treats that as "no attachments".
func (c *Client) ListAttachments(ctx context.Context, tableSysID string) []Attachment {
	listURL := fmt.Sprintf("%s/api/now/table/sys_attachment?sysparm_query=table_sys_id=%s",
		c.baseURL, url.QueryEscape(tableSysID))

	body, err := c.get(ctx, listURL)
	if err != nil {
		log.Warn().Err(err).Str("tableSysId", tableSysID).Msg("Attachment listing failed")
		return nil
	}

	var res attachmentListResult
	if err := json.Unmarshal(body, &res); err != nil {
		log.Warn().Err(err).Str("tableSysId", tableSysID).Msg("Attachment listing malformed")
		return nil
	}
	return res.Result
}

// FetchAttachment downloads the raw bytes of a single attachment.
func (c *Client) FetchAttachment(ctx context.Context, attachmentID string) ([]byte, error) {
	fileURL := fmt.Sprintf("%s/api/now/attachment/%s/file", c.baseURL, url.PathEscape(attachmentID))

	body, err := c.get(ctx, fileURL)
	if err != nil {
		return nil, fmt.Errorf("fetch attachment %s: %w", attachmentID, err)
	}
	return body, nil
}

// UpdateWorkNotes performs a partial update of only the work_notes field on
// an incident record. Any status other than 200 is an error.
func (c *Client) UpdateWorkNotes(ctx context.Context, sysID, note string) error {
	patchURL := fmt.Sprintf("%s/api/now/table/incident/%s", c.baseURL, url.PathEscape(sysID))

	payload, err := json.Marshal(map[string]string{"work_notes": note})
	if err != nil {
		return fmt.Errorf("encode work notes: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, patchURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.SetBasicAuth(c.username, c.password)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("patch work notes: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("patch work notes: status %d (body: %s)",
			resp.StatusCode, truncate(string(body), maxErrorBody))
	}
	return nil
}

// get performs an authenticated GET and returns the body on HTTP 200.
func (c *Client) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.SetBasicAuth(c.username, c.password)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	log.Debug().Str("url", rawURL).Int("statusCode", resp.StatusCode).Int("bodySize", len(body)).Msg("ServiceNow API response")

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d (body: %s)", resp.StatusCode, truncate(string(body), maxErrorBody))
	}
	return body, nil
}

// truncate returns the first n characters of s, appending "..." if truncated.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
