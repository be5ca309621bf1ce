package report

import (
	"bytes"
	"fmt"
	"os"
	"strings"
)

// WritePDF renders the composed document as a small self-contained PDF
// (Helvetica only, no images). pdfcpu reads PDFs but does not compose text
// documents, so the report keeps its own writer.
func WritePDF(path string, doc Document) error {
	lines := layoutLines(doc)
	pages := paginate(lines)

	var objects []string

	// obj 1: catalog, obj 2: pages, obj 3/4: fonts.
	kids := make([]string, len(pages))
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", 5+2*i)
	}
	objects = append(objects,
		"<< /Type /Catalog /Pages 2 0 R >>",
		fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages)),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>",
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica-Bold >>",
	)

	for i, page := range pages {
		content := contentStream(page)
		pageObj := fmt.Sprintf(
			"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 3 0 R /F2 4 0 R >> >> /Contents %d 0 R >>",
			6+2*i)
		streamObj := fmt.Sprintf("<< /Length %d >>\nstream\n%sendstream", len(content), content)
		objects = append(objects, pageObj, streamObj)
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)

	return os.WriteFile(path, buf.Bytes(), 0o644)
}

type pdfLine struct {
	text   string
	bold   bool
	size   float64
	indent float64
	gap    float64 // extra vertical space before the line
}

const (
	pageHeight = 792.0
	pageMargin = 54.0
	lineWidth  = 612.0 - 2*pageMargin
)

func layoutLines(doc Document) []pdfLine {
	var lines []pdfLine
	add := func(text string, bold bool, size, indent, gap float64) {
		for i, wrapped := range wrapText(text, size, lineWidth-indent) {
			g := gap
			if i > 0 {
				g = 0
			}
			lines = append(lines, pdfLine{text: wrapped, bold: bold, size: size, indent: indent, gap: g})
		}
	}

	add(doc.Title, true, 20, 0, 0)
	add(doc.Subtitle, false, 11, 0, 4)
	add(doc.Stamp, false, 10, 0, 2)

	for _, sec := range doc.Sections {
		add(sec.Title, true, 14, 0, 14)
		num := 0
		for _, b := range sec.Blocks {
			switch b.Kind {
			case BlockBullet:
				num = 0
				add("• "+b.Text, false, 10, 12, 2)
			case BlockNumbered:
				num++
				add(fmt.Sprintf("%d. %s", num, b.Text), false, 10, 12, 2)
			case BlockSubheading:
				num = 0
				add(b.Text, true, 12, 0, 8)
			default:
				num = 0
				add(b.Text, false, 10, 0, 4)
			}
		}
	}
	return lines
}

func paginate(lines []pdfLine) [][]pdfLine {
	var pages [][]pdfLine
	var page []pdfLine
	y := pageHeight - pageMargin
	for _, l := range lines {
		advance := l.gap + l.size + 3
		if y-advance < pageMargin && len(page) > 0 {
			pages = append(pages, page)
			page = nil
			y = pageHeight - pageMargin
			advance = l.size + 3
		}
		y -= advance
		page = append(page, l)
	}
	if len(page) > 0 || len(pages) == 0 {
		pages = append(pages, page)
	}
	return pages
}

func contentStream(page []pdfLine) string {
	var sb strings.Builder
	y := pageHeight - pageMargin
	for _, l := range page {
		y -= l.gap + l.size + 3
		font := "/F1"
		if l.bold {
			font = "/F2"
		}
		fmt.Fprintf(&sb, "BT %s %.1f Tf %.1f %.1f Td (%s) Tj ET\n",
			font, l.size, pageMargin+l.indent, y, escapePDF(l.text))
	}
	return sb.String()
}

// wrapText breaks text into lines that fit the given width, using the
// crude-but-serviceable Helvetica average of 0.5em per character.
func wrapText(text string, size, width float64) []string {
	if strings.TrimSpace(text) == "" {
		return []string{""}
	}
	maxChars := int(width / (size * 0.5))
	if maxChars < 8 {
		maxChars = 8
	}

	var out []string
	var cur strings.Builder
	for _, word := range strings.Fields(text) {
		if cur.Len() > 0 && cur.Len()+1+len(word) > maxChars {
			out = append(out, cur.String())
			cur.Reset()
		}
		if cur.Len() > 0 {
			cur.WriteByte(' ')
		}
		cur.WriteString(word)
	}
	if cur.Len() > 0 {
		out = append(out, cur.String())
	}
	return out
}

var pdfReplacer = strings.NewReplacer(`\`, `\\`, "(", `\(`, ")", `\)`, "\r", " ", "\n", " ")

func escapePDF(s string) string { return pdfReplacer.Replace(s) }
