package archive

import (
	"archive/zip"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type fakeResolver struct {
	names map[string]string // refURL -> display name
	calls []string
}

func (f *fakeResolver) ResolveDisplayName(_ context.Context, refURL string) string {
	f.calls = append(f.calls, refURL)
	if name, ok := f.names[refURL]; ok {
		return name
	}
	return "Unknown"
}

// documentBody extracts word/document.xml from a saved docx.
func documentBody(t *testing.T, path string) string {
	t.Helper()
	zr, err := zip.OpenReader(path)
	if err != nil {
		t.Fatalf("open docx: %v", err)
	}
	defer zr.Close()
	for _, f := range zr.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			t.Fatal(err)
		}
		defer rc.Close()
		data, err := io.ReadAll(rc)
		if err != nil {
			t.Fatal(err)
		}
		return string(data)
	}
	t.Fatal("word/document.xml not found")
	return ""
}

func sampleData() map[string]string {
	return map[string]string{
		"number":            "INC0001",
		"short_description": "disk full",
		"description":       "root volume at 100%",
		"priority":          "1",
		"caller_id":         "Jane",
		"sys_id":            "abc123",
		"close_notes":       "freed space",
		"work_notes":        "checked df",
	}
}

func TestRender_FixedFieldList(t *testing.T) {
	dir := t.TempDir()
	r := NewRenderer(&fakeResolver{}, dir)

	path, err := r.Render(context.Background(), sampleData(), nil, "INC0001", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if path != filepath.Join(dir, "INC0001.docx") {
		t.Errorf("unexpected document path: %q", path)
	}

	body := documentBody(t, path)
	if got := strings.Count(body, "<w:tr>"); got != len(documentFields) {
		t.Errorf("expected %d rows, got %d", len(documentFields), got)
	}
	for _, label := range []string{
		"Incident Number", "Short Description", "Description", "Assigned To",
		"Application Name", "Priority", "Category", "Subcategory", "Region",
		"Attachments", "Close Notes", "Work Notes", "Kba", "Opened By", "Caller Id",
	} {
		if !strings.Contains(body, label) {
			t.Errorf("document missing label %q", label)
		}
	}
}

func TestRender_FallbacksWithoutRefs(t *testing.T) {
	r := NewRenderer(&fakeResolver{}, t.TempDir())

	path, err := r.Render(context.Background(), sampleData(), nil, "INC0001", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	body := documentBody(t, path)
	if !strings.Contains(body, "Unassigned") {
		t.Error("expected Unassigned fallback for assigned_to")
	}
	if !strings.Contains(body, "Unknown") {
		t.Error("expected Unknown fallback for application_name/opened_by")
	}
	if !strings.Contains(body, "No attachments") {
		t.Error("expected attachments placeholder")
	}
}

func TestRender_LinkedRecordResolution(t *testing.T) {
	resolver := &fakeResolver{names: map[string]string{
		"https://sn.example/api/now/table/cmdb_ci/x1":  "Payment Gateway",
		"https://sn.example/api/now/table/sys_user/u1": "Sam Ops",
	}}
	r := NewRenderer(resolver, t.TempDir())

	refs := map[string]string{
		"application_name": "https://sn.example/api/now/table/cmdb_ci/x1",
		"assigned_to":      "https://sn.example/api/now/table/sys_user/u1",
	}
	path, err := r.Render(context.Background(), sampleData(), refs, "INC0001", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	body := documentBody(t, path)
	if !strings.Contains(body, "Payment Gateway") {
		t.Error("expected resolved application name")
	}
	if !strings.Contains(body, "Sam Ops") {
		t.Error("expected resolved assignee")
	}
	if len(resolver.calls) != 2 {
		t.Errorf("expected 2 resolutions, got %d", len(resolver.calls))
	}
}

func TestRender_AttachmentCell(t *testing.T) {
	r := NewRenderer(&fakeResolver{}, t.TempDir())

	path, err := r.Render(context.Background(), sampleData(), nil, "INC0001", "/tmp/attachments/INC0001_0.png")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(documentBody(t, path), "/tmp/attachments/INC0001_0.png") {
		t.Error("expected attachment path in document")
	}
}

func TestRender_EmptyWorkNotesPlaceholder(t *testing.T) {
	data := sampleData()
	data["work_notes"] = ""
	r := NewRenderer(&fakeResolver{}, t.TempDir())

	path, err := r.Render(context.Background(), data, nil, "INC0001", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(documentBody(t, path), "No work notes") {
		t.Error("expected work notes placeholder")
	}
}

func TestRender_OverwritesPriorDocument(t *testing.T) {
	dir := t.TempDir()
	r := NewRenderer(&fakeResolver{}, dir)

	if _, err := r.Render(context.Background(), sampleData(), nil, "INC0001", ""); err != nil {
		t.Fatal(err)
	}
	data := sampleData()
	data["short_description"] = "disk still full"
	if _, err := r.Render(context.Background(), data, nil, "INC0001", ""); err != nil {
		t.Fatal(err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("expected a single document after re-render, got %d files", len(entries))
	}
	if !strings.Contains(documentBody(t, filepath.Join(dir, "INC0001.docx")), "disk still full") {
		t.Error("re-render did not overwrite document contents")
	}
}

func TestRender_UnwritableDirFails(t *testing.T) {
	r := NewRenderer(&fakeResolver{}, filepath.Join(t.TempDir(), "missing", "nested"))
	if _, err := r.Render(context.Background(), sampleData(), nil, "INC0001", ""); err == nil {
		t.Error("expected error for unwritable directory")
	}
}

func TestFieldLabel(t *testing.T) {
	cases := map[string]string{
		"incident_number": "Incident Number",
		"kba":             "Kba",
		"caller_id":       "Caller Id",
	}
	for in, want := range cases {
		if got := fieldLabel(in); got != want {
			t.Errorf("fieldLabel(%q) = %q, want %q", in, got, want)
		}
	}
}
