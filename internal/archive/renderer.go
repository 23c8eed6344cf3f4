package archive

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"incident-archiver/internal/docwriter"

	"github.com/rs/zerolog/log"
)

// Fallback strings for linked-record fields and placeholders for the
// optional cells.
const (
	fallbackUnknown    = "Unknown"
	fallbackUnassigned = "Unassigned"
	noAttachments      = "No attachments"
	noWorkNotes        = "No work notes"
)

// DocExt is the rendered document's file extension.
const DocExt = ".docx"

// documentFields is the fixed, ordered field list of the incident table. One
// row per field, always all fifteen.
var documentFields = []string{
	"incident_number",
	"short_description",
	"description",
	"assigned_to",
	"application_name",
	"priority",
	"category",
	"subcategory",
	"region",
	"attachments",
	"close_notes",
	"work_notes",
	"kba",
	"opened_by",
	"caller_id",
}

// NameResolver resolves a linked record's display name by reference URL.
type NameResolver interface {
	ResolveDisplayName(ctx context.Context, refURL string) string
}

// renderInput carries everything a field resolver may consult.
type renderInput struct {
	ctx            context.Context
	resolver       NameResolver
	data           map[string]string
	refs           map[string]string
	incidentNumber string
	attachmentPath string
}

// fieldResolver produces the value cell for one field.
type fieldResolver func(in renderInput) string

// specialResolvers maps field names to their resolution rule. Fields absent
// here fall through to a plain data lookup with an empty-string fallback.
var specialResolvers = map[string]fieldResolver{
	"incident_number": func(in renderInput) string {
		return in.incidentNumber
	},
	"application_name": linkedRecord("application_name", fallbackUnknown),
	"assigned_to":      linkedRecord("assigned_to", fallbackUnassigned),
	"opened_by":        linkedRecord("opened_by", fallbackUnknown),
	"attachments": func(in renderInput) string {
		if in.attachmentPath == "" {
			return noAttachments
		}
		return in.attachmentPath
	},
	"work_notes": func(in renderInput) string {
		if v := in.data["work_notes"]; v != "" {
			return v
		}
		return noWorkNotes
	},
}

// linkedRecord builds a resolver that follows a reference URL when one is
// present and substitutes fallback otherwise. A failed resolution also
// produces the fallback; it must never abort rendering.
func linkedRecord(field, fallback string) fieldResolver {
	return func(in renderInput) string {
		refURL := in.refs[field]
		if refURL == "" {
			return fallback
		}
		name := in.resolver.ResolveDisplayName(in.ctx, refURL)
		if name == "" {
			return fallback
		}
		return name
	}
}

// Renderer builds and persists the incident document.
type Renderer struct {
	resolver NameResolver
	docsDir  string
}

// NewRenderer creates a Renderer writing into docsDir.
func NewRenderer(resolver NameResolver, docsDir string) *Renderer {
	return &Renderer{resolver: resolver, docsDir: docsDir}
}

// Render builds the two-column incident table and saves it as
// {incidentNumber}.docx in the configured directory, silently overwriting any
// earlier document for the same number. refs optionally carries linked-record
// reference URLs keyed by field name; attachmentPath is empty when no
// artifact was produced.
//
// A rendering or persistence failure is the pipeline's only fatal condition;
// everything below it degrades in place.
func (r *Renderer) Render(ctx context.Context, data, refs map[string]string, incidentNumber, attachmentPath string) (string, error) {
	in := renderInput{
		ctx:            ctx,
		resolver:       r.resolver,
		data:           data,
		refs:           refs,
		incidentNumber: incidentNumber,
		attachmentPath: attachmentPath,
	}

	rows := make([][2]string, 0, len(documentFields))
	for _, field := range documentFields {
		resolve, ok := specialResolvers[field]
		if !ok {
			resolve = func(in renderInput) string { return in.data[field] }
		}
		rows = append(rows, [2]string{fieldLabel(field), resolve(in)})
	}

	doc := docwriter.New()
	doc.AddTable(rows)

	path := filepath.Join(r.docsDir, incidentNumber+DocExt)
	if err := doc.Save(path); err != nil {
		return "", fmt.Errorf("render document for %s: %w", incidentNumber, err)
	}

	log.Info().Str("incident", incidentNumber).Str("path", path).Msg("Created incident document")
	return path, nil
}

// fieldLabel turns a field name into its label cell: "incident_number"
// becomes "Incident Number".
func fieldLabel(field string) string {
	parts := strings.Split(field, "_")
	for i, p := range parts {
		if p == "" {
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, " ")
}
