package chat

import (
	"fmt"
	"strings"
)

// NoContextSentinel is emitted when retrieval found nothing relevant, so the
// generator is told explicitly instead of being handed an empty block.
const NoContextSentinel = "No relevant context was found in the knowledge base."

// BuildContext formats retrieved matches into the grounding block included in
// the generation prompt. It is pure: the same matches, budget and counter
// always produce the same text. Matches are consumed in the given order
// (highest similarity first); once the token budget is exhausted the
// remaining, lower-similarity matches are dropped whole. A budget of zero
// disables truncation.
func BuildContext(matches []RetrievedMatch, maxTokens int, counter TokenCounter) string {
	if len(matches) == 0 {
		return NoContextSentinel
	}

	var builder strings.Builder
	used := 0
	for i, match := range matches {
		block := fmt.Sprintf("[%d] Q: %s\nA: %s", i+1, match.Question, match.Answer)
		if maxTokens > 0 && counter != nil {
			tokens := counter.Count(block)
			if used+tokens > maxTokens && builder.Len() > 0 {
				break
			}
			used += tokens
		}
		if builder.Len() > 0 {
			builder.WriteString("\n\n")
		}
		builder.WriteString(block)
	}
	return builder.String()
}

// BuildPrompt assembles the grounded generation input from the system
// instruction, the context block and the user question.
func BuildPrompt(instruction, contextBlock, question string) Prompt {
	var user strings.Builder
	user.WriteString("Context:\n")
	user.WriteString(contextBlock)
	user.WriteString("\n\nUser question:\n")
	user.WriteString(question)
	user.WriteString("\n\nAnswer:")
	return Prompt{System: instruction, User: user.String()}
}
