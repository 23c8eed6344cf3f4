package archive

import (
	"context"
	"fmt"
	"strings"
	"testing"
)

type fakeAcquirer struct {
	path string
	ok   bool
}

func (f *fakeAcquirer) Acquire(_ context.Context, _, _ string) (string, bool) {
	return f.path, f.ok
}

type fakeRenderer struct {
	path string
	err  error

	gotData           map[string]string
	gotAttachmentPath string
}

func (f *fakeRenderer) Render(_ context.Context, data, _ map[string]string, _, attachmentPath string) (string, error) {
	f.gotData = data
	f.gotAttachmentPath = attachmentPath
	return f.path, f.err
}

type fakePoster struct {
	ok      bool
	message string
}

func (f *fakePoster) PostNote(_ context.Context, _, _, message string) bool {
	f.message = message
	return f.ok
}

func validPayload() IncidentPayload {
	return IncidentPayload{
		TransactionID:    "7b0c9a6e-4f4c-45c4-9d2c-8f6f1a6c0a11",
		IncidentNumber:   "INC0001",
		ShortDescription: "disk full",
		Description:      "root volume at 100%",
		Priority:         "1",
		CallerID:         "Jane",
		SysID:            "abc123",
	}
}

func TestProcess_HappyPathNoAttachments(t *testing.T) {
	renderer := &fakeRenderer{path: "/docs/INC0001.docx"}
	poster := &fakePoster{ok: true}
	p := NewPipeline(&fakeAcquirer{}, renderer, poster, nil)

	res, err := p.Process(context.Background(), validPayload())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.Status != "processed" {
		t.Errorf("expected status processed, got %q", res.Status)
	}
	if res.IncidentNumber != "INC0001" || res.TransactionID != "7b0c9a6e-4f4c-45c4-9d2c-8f6f1a6c0a11" {
		t.Errorf("payload identifiers not carried into result: %+v", res)
	}
	if res.WordDocument != "/docs/INC0001.docx" {
		t.Errorf("unexpected document path %q", res.WordDocument)
	}
	if res.Attachments != nil {
		t.Errorf("expected null attachments, got %v", *res.Attachments)
	}
	if !res.WorkNotesUpdate {
		t.Error("expected work_notes_updated true")
	}
	if strings.Contains(poster.message, "Attachments downloaded") {
		t.Errorf("note should not mention attachments: %q", poster.message)
	}
	if !strings.Contains(poster.message, "INC0001.docx") {
		t.Errorf("note should name the document: %q", poster.message)
	}
}

func TestProcess_AttachmentArtifactInResultAndNote(t *testing.T) {
	renderer := &fakeRenderer{path: "/docs/INC0001.docx"}
	poster := &fakePoster{ok: true}
	acq := &fakeAcquirer{path: "/attachments/INC0001_combined.jpg", ok: true}
	p := NewPipeline(acq, renderer, poster, nil)

	res, err := p.Process(context.Background(), validPayload())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.Attachments == nil || *res.Attachments != "/attachments/INC0001_combined.jpg" {
		t.Errorf("expected attachment path in result, got %v", res.Attachments)
	}
	if renderer.gotAttachmentPath != "/attachments/INC0001_combined.jpg" {
		t.Errorf("renderer did not receive artifact path, got %q", renderer.gotAttachmentPath)
	}
	if !strings.Contains(poster.message, "Attachments downloaded: INC0001_combined.jpg") {
		t.Errorf("note should name the artifact basename: %q", poster.message)
	}
}

func TestProcess_RenderFailureIsFatal(t *testing.T) {
	renderer := &fakeRenderer{err: fmt.Errorf("disk error")}
	p := NewPipeline(&fakeAcquirer{}, renderer, &fakePoster{ok: true}, nil)

	_, err := p.Process(context.Background(), validPayload())
	if err == nil {
		t.Fatal("expected error when rendering fails")
	}
	if !strings.Contains(err.Error(), "INC0001") {
		t.Errorf("error should carry the incident number: %v", err)
	}
	if !strings.Contains(err.Error(), "disk error") {
		t.Errorf("error should carry the underlying cause: %v", err)
	}
}

func TestProcess_NotifyFailureIsNotFatal(t *testing.T) {
	renderer := &fakeRenderer{path: "/docs/INC0001.docx"}
	p := NewPipeline(&fakeAcquirer{}, renderer, &fakePoster{ok: false}, nil)

	res, err := p.Process(context.Background(), validPayload())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.WorkNotesUpdate {
		t.Error("expected work_notes_updated false")
	}
}

type fakeMirror struct {
	uploaded []string
	err      error
}

func (f *fakeMirror) Upload(_ context.Context, incidentNumber, _ string) error {
	f.uploaded = append(f.uploaded, incidentNumber)
	return f.err
}

func TestProcess_MirrorFailureIsNotFatal(t *testing.T) {
	renderer := &fakeRenderer{path: "/docs/INC0001.docx"}
	mirror := &fakeMirror{err: fmt.Errorf("bucket unreachable")}
	p := NewPipeline(&fakeAcquirer{}, renderer, &fakePoster{ok: true}, mirror)

	res, err := p.Process(context.Background(), validPayload())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(mirror.uploaded) != 1 {
		t.Errorf("expected one mirror attempt, got %d", len(mirror.uploaded))
	}
	if res.Status != "processed" {
		t.Errorf("mirror failure changed response status: %q", res.Status)
	}
}

func TestValidate_RequiredFields(t *testing.T) {
	cases := []struct {
		name  string
		strip func(*IncidentPayload)
	}{
		{"transaction_id", func(p *IncidentPayload) { p.TransactionID = "" }},
		{"incident_number", func(p *IncidentPayload) { p.IncidentNumber = "" }},
		{"short_description", func(p *IncidentPayload) { p.ShortDescription = "" }},
		{"description", func(p *IncidentPayload) { p.Description = "" }},
		{"priority", func(p *IncidentPayload) { p.Priority = "" }},
		{"caller_id", func(p *IncidentPayload) { p.CallerID = "" }},
		{"sys_id", func(p *IncidentPayload) { p.SysID = "" }},
	}
	for _, tc := range cases {
		p := validPayload()
		tc.strip(&p)
		err := p.Validate()
		if err == nil {
			t.Errorf("expected error for missing %s", tc.name)
			continue
		}
		if !strings.Contains(err.Error(), tc.name) {
			t.Errorf("error should name %s, got: %v", tc.name, err)
		}
	}
}

func TestValidate_OptionalNotes(t *testing.T) {
	p := validPayload()
	p.ResolutionNotes = ""
	p.WorkNotes = ""
	if err := p.Validate(); err != nil {
		t.Errorf("notes are optional, got: %v", err)
	}
}

func TestValidate_NonUUIDTransactionIDAccepted(t *testing.T) {
	p := validPayload()
	p.TransactionID = "t1"
	if err := p.Validate(); err != nil {
		t.Errorf("non-UUID transaction id should be accepted, got: %v", err)
	}
}
