package archive

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// IncidentPayload is the inbound webhook body sent by the tracker when an
// incident is resolved. All fields except the two notes are required.
type IncidentPayload struct {
	TransactionID    string `json:"transaction_id"`
	IncidentNumber   string `json:"incident_number"`
	ShortDescription string `json:"short_description"`
	Description      string `json:"description"`
	Priority         string `json:"priority"`
	CallerID         string `json:"caller_id"`
	SysID            string `json:"sys_id"`
	ResolutionNotes  string `json:"resolution_notes"`
	WorkNotes        string `json:"work_notes"`
}

// Validate checks that every required field is present. It names the first
// missing field; the request must be rejected before any pipeline step runs.
//
// The tracker populates transaction_id with a UUID, but its shape is not part
// of the contract: a malformed one is logged, not rejected.
func (p IncidentPayload) Validate() error {
	required := []struct {
		name  string
		value string
	}{
		{"transaction_id", p.TransactionID},
		{"incident_number", p.IncidentNumber},
		{"short_description", p.ShortDescription},
		{"description", p.Description},
		{"priority", p.Priority},
		{"caller_id", p.CallerID},
		{"sys_id", p.SysID},
	}
	for _, f := range required {
		if f.value == "" {
			return fmt.Errorf("field %s is required", f.name)
		}
	}

	if _, err := uuid.Parse(p.TransactionID); err != nil {
		log.Warn().Str("transactionId", p.TransactionID).Msg("Transaction id is not a UUID")
	}
	return nil
}

// tableData exposes the payload as the renderer's key/value data source,
// mapping resolution notes onto the document's close_notes field.
func (p IncidentPayload) tableData() map[string]string {
	return map[string]string{
		"number":            p.IncidentNumber,
		"short_description": p.ShortDescription,
		"description":       p.Description,
		"priority":          p.Priority,
		"caller_id":         p.CallerID,
		"sys_id":            p.SysID,
		"close_notes":       p.ResolutionNotes,
		"work_notes":        p.WorkNotes,
	}
}
