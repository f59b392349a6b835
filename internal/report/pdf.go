package report

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-pdf/fpdf"
)

const (
	linesPerPage = 48
	lineSpacing  = 14.0
	marginLeft   = 50.0
	marginTop    = 50.0
	fontSize     = 10.0
	pdfExtension = ".pdf"
)

// RenderPDF lays the lines out as a plain multi-page PDF document in 10pt Helvetica.
// An empty input still yields a single page.
func RenderPDF(lines []string) ([]byte, error) {
	doc := fpdf.New("P", "pt", "Letter", "")
	doc.SetAutoPageBreak(false, 0)
	// Reports are short; uncompressed streams keep the text searchable.
	doc.SetCompression(false)
	doc.SetCreator("peer-review-dashboard", false)
	doc.SetCreationDate(time.Now().UTC())
	doc.SetFont("Helvetica", "", fontSize)

	for _, page := range paginate(lines) {
		doc.AddPage()
		for i, line := range page {
			doc.Text(marginLeft, marginTop+float64(i)*lineSpacing, pdfText(line))
		}
	}

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// ContentType sniffs the media type of a rendered document.
func ContentType(data []byte) string {
	return mimetype.Detect(data).String()
}

// Filename appends the .pdf extension when it is missing.
func Filename(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		name = "report"
	}
	if strings.HasSuffix(name, pdfExtension) {
		return name
	}
	return name + pdfExtension
}

func paginate(lines []string) [][]string {
	pages := make([][]string, 0, len(lines)/linesPerPage+1)
	for start := 0; start < len(lines); start += linesPerPage {
		end := min(start+linesPerPage, len(lines))
		pages = append(pages, lines[start:end])
	}
	if len(pages) == 0 {
		pages = append(pages, []string{"Report"})
	}
	return pages
}

// pdfText maps a line onto what the core Helvetica font can draw: control
// characters become spaces and anything outside printable ASCII becomes '?'.
func pdfText(value string) string {
	var b strings.Builder
	b.Grow(len(value))
	for _, r := range value {
		switch {
		case r == '\t' || r == '\n' || r == '\r':
			b.WriteByte(' ')
		case r >= 0x20 && r <= 0x7e:
			b.WriteRune(r)
		default:
			b.WriteByte('?')
		}
	}
	return b.String()
}
