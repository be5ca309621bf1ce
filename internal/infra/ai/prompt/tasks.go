package prompt

import (
	"fmt"
	"strings"
)

// Prompt builders for the six analysis tasks. The wording is part of the
// product behaviour; do not reword casually.

func Summarize(text string) string {
	return fmt.Sprintf("Summarize the following document:\n%s", text)
}

func GrammarCorrect(text string) string {
	return fmt.Sprintf("Correct the grammar in the following text:\n%s", text)
}

func Suggestions(text string) string {
	return fmt.Sprintf("Suggest improvements for the following document:\n%s", text)
}

// Inconsistencies compares the document against OCR output of up to five
// screenshots, newline-joined.
func Inconsistencies(docText string, screenshotTexts []string) string {
	joined := strings.Join(screenshotTexts, "\n")
	return fmt.Sprintf("Check for inconsistencies between the following document and screenshots.\nDocument:\n%s\nScreenshots:\n%s", docText, joined)
}

func RepetitionCheck(text string) string {
	return fmt.Sprintf("Analyze the following text and identify any repetitive phrases, sentences, or ideas. List the redundant parts and suggest how they could be consolidated or rewritten for better clarity.\n\nText:\n%s", text)
}

func InternalInconsistencies(text string) string {
	return fmt.Sprintf("Analyze the following document for internal inconsistencies. Check for contradictory statements, conflicting data or numbers, and inconsistencies in definitions or terminology. List any inconsistencies you find.\n\nDocument:\n%s", text)
}
