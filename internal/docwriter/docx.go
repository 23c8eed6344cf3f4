// Package docwriter writes minimal Word (.docx) documents.
//
// A .docx file is a zip container holding WordprocessingML parts. This writer
// produces the three parts a single-table document needs: the content types
// manifest, the package relationships, and word/document.xml. That is enough
// for the incident table and avoids a full OOXML dependency.
package docwriter

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/flate"
)

const contentTypesXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"><Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/><Default Extension="xml" ContentType="application/xml"/><Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/></Types>`

const relsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"><Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/></Relationships>`

// Styling applied to every table cell.
const (
	fontFamily   = "Arial"
	fontHalfPts  = "20" // 10pt, WordprocessingML counts half-points
	borderSize   = "4"  // eighths of a point, a thin single line
	borderColor  = "000000"
	tableWidthTw = "9360" // 6.5" page width in twentieths of a point
)

// Document accumulates content and serializes it as a .docx file.
type Document struct {
	rows [][2]string
}

// New creates an empty document.
func New() *Document {
	return &Document{}
}

// AddTable appends a two-column table; each entry is one (label, value) row.
// Tables render with a uniform single-line border on all outer edges and
// between every row and column.
func (d *Document) AddTable(rows [][2]string) {
	d.rows = append(d.rows, rows...)
}

// Save writes the document to path, overwriting any existing file. File
// handles are closed on every exit path; on error no partial file is
// guaranteed consistent.
func (d *Document) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create document: %w", err)
	}
	defer f.Close()

	if err := d.write(f); err != nil {
		return fmt.Errorf("write document: %w", err)
	}
	return nil
}

func (d *Document) write(w io.Writer) error {
	zw := zip.NewWriter(w)
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, flate.DefaultCompression)
	})

	parts := []struct {
		name string
		body string
	}{
		{"[Content_Types].xml", contentTypesXML},
		{"_rels/.rels", relsXML},
		{"word/document.xml", d.documentXML()},
	}
	for _, part := range parts {
		pw, err := zw.Create(part.name)
		if err != nil {
			return fmt.Errorf("create %s: %w", part.name, err)
		}
		if _, err := io.WriteString(pw, part.body); err != nil {
			return fmt.Errorf("write %s: %w", part.name, err)
		}
	}

	return zw.Close()
}

// documentXML renders the main document part: one table, two columns, every
// cell in the fixed font with single borders throughout.
func (d *Document) documentXML() string {
	var sb strings.Builder
	sb.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`)
	sb.WriteString("\n")
	sb.WriteString(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`)

	sb.WriteString(`<w:tbl><w:tblPr><w:tblW w:w="` + tableWidthTw + `" w:type="dxa"/><w:tblBorders>`)
	for _, edge := range []string{"top", "left", "bottom", "right", "insideH", "insideV"} {
		sb.WriteString(`<w:` + edge + ` w:val="single" w:sz="` + borderSize + `" w:space="0" w:color="` + borderColor + `"/>`)
	}
	sb.WriteString(`</w:tblBorders></w:tblPr>`)
	sb.WriteString(`<w:tblGrid><w:gridCol w:w="3120"/><w:gridCol w:w="6240"/></w:tblGrid>`)

	for _, row := range d.rows {
		sb.WriteString(`<w:tr>`)
		for _, cell := range row {
			sb.WriteString(`<w:tc><w:p><w:r>`)
			sb.WriteString(`<w:rPr><w:rFonts w:ascii="` + fontFamily + `" w:hAnsi="` + fontFamily + `"/><w:sz w:val="` + fontHalfPts + `"/></w:rPr>`)
			sb.WriteString(`<w:t xml:space="preserve">` + escape(cell) + `</w:t>`)
			sb.WriteString(`</w:r></w:p></w:tc>`)
		}
		sb.WriteString(`</w:tr>`)
	}

	sb.WriteString(`</w:tbl><w:p/></w:body></w:document>`)
	return sb.String()
}

func escape(s string) string {
	var sb strings.Builder
	_ = xml.EscapeText(&sb, []byte(s))
	return sb.String()
}
