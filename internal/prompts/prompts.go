// Package prompts builds the instruction text sent to the model for the
// summarization and question-answering features.
package prompts

import (
	"fmt"
	"strings"
)

// Length controls how long a summary should be.
type Length string

const (
	Short  Length = "short"
	Medium Length = "medium"
	Long   Length = "long"
)

// Style controls how a summary is formatted.
type Style string

const (
	ExecutiveSummary Style = "executive_summary"
	BulletPoints     Style = "bullet_points"
	Narrative        Style = "narrative"
)

// NotAvailable is the reply the model is told to give when the document does
// not contain the answer.
const NotAvailable = "The answer is not available in the provided document."

var lengthInstructions = map[Length]string{
	Short:  "Keep the summary concise, no more than 3-4 sentences.",
	Medium: "Provide a moderately detailed summary, about 1-2 paragraphs.",
	Long:   "Provide a comprehensive summary, covering all key points in detail.",
}

var styleInstructions = map[Style]string{
	ExecutiveSummary: "Format as an executive summary for a business audience.",
	BulletPoints:     "Format the summary as clear, concise bullet points.",
	Narrative:        "Write the summary in a narrative, story-like style.",
}

const (
	defaultLength = "Provide a summary of appropriate length."
	defaultStyle  = "Format the summary in a clear and readable way."
)

// Summary returns a summarization prompt. Unknown lengths and styles fall
// back to generic instructions.
func Summary(document string, length Length, style Style) string {
	lengthText, ok := lengthInstructions[length]
	if !ok {
		lengthText = defaultLength
	}
	styleText, ok := styleInstructions[style]
	if !ok {
		styleText = defaultStyle
	}

	var b strings.Builder
	b.WriteString("You are an expert summarizer. Your task is to summarize the following document.\n")
	fmt.Fprintf(&b, "%s %s\n", lengthText, styleText)
	b.WriteString("Document:\n")
	b.WriteString(document)
	b.WriteString("\nSummary:")
	return b.String()
}

// Question returns a prompt asking the model to answer strictly from document.
func Question(document, question string) string {
	var b strings.Builder
	b.WriteString("You are a helpful assistant. Answer the following question using only the information in the provided document. ")
	fmt.Fprintf(&b, "If the answer is not present in the document, reply with '%s'\n", NotAvailable)
	b.WriteString("Document:\n")
	b.WriteString(document)
	b.WriteString("\nQuestion: ")
	b.WriteString(question)
	b.WriteString("\nAnswer:")
	return b.String()
}

// ParseLength maps free text onto a Length, reporting whether it was known.
func ParseLength(s string) (Length, bool) {
	l := Length(strings.ToLower(strings.TrimSpace(s)))
	_, ok := lengthInstructions[l]
	return l, ok
}

// ParseStyle maps free text onto a Style, reporting whether it was known.
func ParseStyle(s string) (Style, bool) {
	st := Style(strings.ToLower(strings.TrimSpace(s)))
	_, ok := styleInstructions[st]
	return st, ok
}
