// Package report turns an analysis record into a formatted document.
// The composer classifies result lines into typed blocks; docx.go and
// pdf.go render the composed document to a file.
package report

import (
	"strings"

	"github.com/bryanwahyu/doc-insight/internal/domain/analysis"
)

type BlockKind string

const (
	BlockParagraph  BlockKind = "paragraph"
	BlockBullet     BlockKind = "bullet"
	BlockNumbered   BlockKind = "numbered"
	BlockSubheading BlockKind = "subheading"
)

type Block struct {
	Kind BlockKind
	Text string
}

type Section struct {
	Title  string
	Blocks []Block
}

// Document is the composed report, ready for a writer.
type Document struct {
	Title    string
	Subtitle string
	Stamp    string
	Sections []Section
}

// sectionOrder is fixed; readers rely on it.
var sectionOrder = []struct {
	title   string
	content func(r analysis.Results) string
}{
	{"Summary", func(r analysis.Results) string { return r.Summary }},
	{"Grammar Corrections", func(r analysis.Results) string { return r.GrammarCorrection }},
	{"Improvement Suggestions", func(r analysis.Results) string { return r.Suggestions }},
	{"Screenshot Inconsistencies", func(r analysis.Results) string { return r.Inconsistencies }},
	{"Repetitive Content Check", func(r analysis.Results) string { return r.RepetitionCheck }},
	{"Internal Inconsistencies Check", func(r analysis.Results) string { return r.InternalInconsistencies }},
}

// Compose builds the report document for a record. Sections with empty
// content are omitted entirely, heading included.
func Compose(rec *analysis.Record) Document {
	doc := Document{
		Title:    "AI Analysis Report",
		Subtitle: "Analysis for: " + rec.OriginalFilename,
		Stamp:    "Analyzed on: " + rec.Timestamp.Format("2006-01-02 15:04:05"),
	}

	for _, s := range sectionOrder {
		content := strings.TrimSpace(s.content(rec.Results))
		if content == "" {
			continue
		}
		sec := Section{Title: s.title}
		for _, line := range strings.Split(content, "\n") {
			sec.Blocks = append(sec.Blocks, classifyLine(line))
		}
		doc.Sections = append(doc.Sections, sec)
	}

	return doc
}

// classifyLine applies the line rules. Note the numbered-list rule only
// matches two-digit prefixes ("12. "), not single-digit ones ("1. "),
// long-standing behaviour that downstream consumers test against.
func classifyLine(line string) Block {
	stripped := strings.TrimSpace(line)
	switch {
	case strings.HasPrefix(stripped, "* "), strings.HasPrefix(stripped, "- "):
		return Block{Kind: BlockBullet, Text: stripped[2:]}
	case len(stripped) >= 4 && isDigit(stripped[0]) && isDigit(stripped[1]) && stripped[2:4] == ". ":
		return Block{Kind: BlockNumbered, Text: stripped[4:]}
	case strings.HasPrefix(stripped, "### "):
		return Block{Kind: BlockSubheading, Text: stripped[4:]}
	default:
		return Block{Kind: BlockParagraph, Text: stripped}
	}
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }
