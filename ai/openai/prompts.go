package openai

import (
	"fmt"
	"strings"
)

const summarySystemPrompt = `You summarize internal company knowledge for a search index.
Condense the user's text into one or two sentences. Preserve concrete
facts: names, dates, decisions, action items. Do not add information
that is not in the text. Do not editorialize.`

const synthesisSystemPrompt = `You answer questions from internal company knowledge.
Use only the provided source passages. If the passages do not contain
the answer, say so plainly. Keep the answer short and factual, and do
not invent details.`

// buildSynthesisPrompt renders a question and its source passages into a
// single user message.
func buildSynthesisPrompt(question string, passages []string) string {
	var b strings.Builder
	b.WriteString("Sources:\n")
	for i, p := range passages {
		fmt.Fprintf(&b, "[%d] %s\n", i+1, p)
	}
	b.WriteString("\nQuestion: ")
	b.WriteString(question)
	return b.String()
}
