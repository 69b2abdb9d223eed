package pdfgen

import (
	"bytes"
	"fmt"
	"strings"
)

// Package pdfgen writes small text-only PDF documents. It backs the seed
// command and the fixtures used by the redaction tests.

const (
	LetterWidth  = 612.0
	LetterHeight = 792.0

	fontSize = 11.0
	leading  = 14.0
	margin   = 72.0
)

// Page is one page of generated text. A zero size means US Letter.
type Page struct {
	// OriginX/OriginY set the lower-left corner of the media box.
	OriginX float64
	OriginY float64
	Width   float64
	Height  float64
	Lines   []string
}

// Document is a generated PDF document.
type Document struct {
	Title string
	Pages []Page
}

// Letter returns a letter-size page holding lines.
func Letter(lines ...string) Page {
	return Page{Width: LetterWidth, Height: LetterHeight, Lines: lines}
}

// Bytes serialises d as an uncompressed PDF 1.4 file with a valid
// cross-reference table.
func (d Document) Bytes() []byte {
	w := &writer{}
	w.buf.WriteString("%PDF-1.4\n%\xe2\xe3\xcf\xd3\n")

	const (
		catalogID = 1
		pagesID   = 2
		fontID    = 3
		infoID    = 4
		firstPage = 5
	)

	kids := make([]string, len(d.Pages))
	for i := range d.Pages {
		kids[i] = fmt.Sprintf("%d 0 R", firstPage+2*i)
	}

	w.object(catalogID, fmt.Sprintf("<< /Type /Catalog /Pages %d 0 R >>", pagesID))
	w.object(pagesID, fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(d.Pages)))
	w.object(fontID, "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>")
	w.object(infoID, fmt.Sprintf("<< /Title (%s) /Producer (redactapi pdfgen) >>", escape(d.Title)))

	for i, p := range d.Pages {
		if p.Width == 0 {
			p.Width = LetterWidth
		}
		if p.Height == 0 {
			p.Height = LetterHeight
		}
		pageID := firstPage + 2*i
		contentID := pageID + 1

		w.object(pageID, fmt.Sprintf(
			"<< /Type /Page /Parent %d 0 R /MediaBox [%s %s %s %s] /Resources << /Font << /F1 %d 0 R >> >> /Contents %d 0 R >>",
			pagesID, num(p.OriginX), num(p.OriginY), num(p.OriginX+p.Width), num(p.OriginY+p.Height), fontID, contentID))

		content := textStream(p)
		w.object(contentID, fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content))
	}

	w.finish(infoID, catalogID)
	return w.buf.Bytes()
}

func textStream(p Page) string {
	var b strings.Builder
	fmt.Fprintf(&b, "BT\n/F1 %s Tf\n%s TL\n%s %s Td\n", num(fontSize), num(leading),
		num(p.OriginX+margin), num(p.OriginY+p.Height-margin))
	for _, line := range p.Lines {
		fmt.Fprintf(&b, "(%s) Tj\nT*\n", escape(line))
	}
	b.WriteString("ET")
	return b.String()
}

// LinesPerPage is how many lines fit between the margins of a letter page:
// (LetterHeight - 2*margin) / leading, rounded down.
const LinesPerPage = 46

// Wrap breaks text into lines of at most width runes on word boundaries.
// Words longer than width are kept whole.
func Wrap(text string, width int) []string {
	var (
		lines []string
		cur   strings.Builder
	)
	for _, word := range strings.Fields(text) {
		if cur.Len() > 0 && len([]rune(cur.String()))+1+len([]rune(word)) > width {
			lines = append(lines, cur.String())
			cur.Reset()
		}
		if cur.Len() > 0 {
			cur.WriteByte(' ')
		}
		cur.WriteString(word)
	}
	if cur.Len() > 0 {
		lines = append(lines, cur.String())
	}
	return lines
}

// Paginate flows lines onto as many letter pages as needed. A line equal to
// PageBreak starts a new page.
func Paginate(lines []string) []Page {
	var (
		pages []Page
		cur   []string
	)
	flush := func() {
		pages = append(pages, Letter(cur...))
		cur = nil
	}
	for _, l := range lines {
		if l == PageBreak {
			flush()
			continue
		}
		if len(cur) == LinesPerPage {
			flush()
		}
		cur = append(cur, l)
	}
	if len(cur) > 0 || len(pages) == 0 {
		flush()
	}
	return pages
}

// PageBreak is the marker line understood by Paginate.
const PageBreak = "\f"

type writer struct {
	buf     bytes.Buffer
	offsets []int
}

func (w *writer) object(id int, body string) {
	for len(w.offsets) < id {
		w.offsets = append(w.offsets, 0)
	}
	w.offsets[id-1] = w.buf.Len()
	fmt.Fprintf(&w.buf, "%d 0 obj\n%s\nendobj\n", id, body)
}

func (w *writer) finish(infoID, rootID int) {
	xref := w.buf.Len()
	size := len(w.offsets) + 1
	fmt.Fprintf(&w.buf, "xref\n0 %d\n", size)
	w.buf.WriteString("0000000000 65535 f \n")
	for _, off := range w.offsets {
		fmt.Fprintf(&w.buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&w.buf, "trailer\n<< /Size %d /Root %d 0 R /Info %d 0 R >>\nstartxref\n%d\n%%%%EOF\n", size, rootID, infoID, xref)
}

func escape(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`, "\r", `\r`, "\n", `\n`)
	return r.Replace(s)
}

func num(v float64) string {
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.3f", v), "0"), ".")
}
