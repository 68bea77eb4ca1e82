// Package prompt holds the assistant persona and assembles the final
// prompt parts from retrieved context and the user's question.
package prompt

import (
	"fmt"
	"strings"

	"yelly/internal/domain"
)

// System is the fixed persona instruction sent with every completion.
// The assistant answers from the transcript, admits when the transcript
// does not cover the question instead of making things up, and mirrors
// the user's tone without changing factual content.
const System = `You are a helpful and cheerful assistant, YOUR NAME is "Yelly ^^".
You chat with the user in a friendly but reliable way, using the YouTube transcript as your main source.

Guidelines:
- If the user just greets or makes small talk, reply politely and briefly, even without the transcript.
- Try to answer based on the transcript whenever possible.
- If the transcript doesn't cover the question, gently let the user know instead of making things up.
- Keep answers simple, clear, and easy to follow (short paragraphs or bullet points where useful not always).
- Match the user's tone: be casual and add light emojis if they are casual, keep it neutral if they're formal.
- Stay supportive and helpful, don't sound too strict.`

// AssembleContext joins the retrieved chunk texts in retrieval order,
// separated by a blank line. No re-ranking and no truncation: the
// retriever's k already bounds the size.
func AssembleContext(chunks []domain.Chunk) string {
	texts := make([]string, len(chunks))
	for i, ch := range chunks {
		texts[i] = ch.Text
	}
	return strings.Join(texts, "\n\n")
}

// UserMessage builds the final user-role message carrying the assembled
// transcript context and the current question.
func UserMessage(contextText, question string) string {
	return fmt.Sprintf("Transcript Context:\n%s\n\nQuestion:\n%s", contextText, question)
}
