// Package explain renders the study explanation attached to a card.
package explain

import (
	"strings"

	"github.com/dmitrijs2005/flippy/internal/common"
)

// Normalize maps an empty difficulty to medium. Any other value is
// returned unchanged; callers validate it with common.IsValidDifficulty.
func Normalize(difficulty string) string {
	if difficulty == "" {
		return common.DifficultyMedium
	}
	return difficulty
}

// Generate returns the explanation text for a card. It is a pure function
// of its arguments; an unknown difficulty renders the medium template.
func Generate(question, answer, difficulty string) string {
	var sb strings.Builder

	switch difficulty {
	case common.DifficultyEasy:
		sb.WriteString("Let me explain this in simple terms:\n\n")
		writeQA(&sb, question, answer)
		sb.WriteString("In other words: This means ")
		sb.WriteString(strings.ToLower(answer))
		sb.WriteString(". Think of it as a straightforward concept that you can apply directly.")

	case common.DifficultyHard:
		sb.WriteString("Advanced Analysis:\n\n")
		writeQA(&sb, question, answer)
		sb.WriteString("Deep Dive: This answer represents a complex concept that requires understanding multiple layers. ")
		sb.WriteString("First, consider the theoretical foundation behind why ")
		sb.WriteString(answer)
		sb.WriteString(" is the correct response. Then, analyze the implications of this answer in broader contexts. ")
		sb.WriteString("Think critically about edge cases, alternative interpretations, and how this knowledge connects to advanced topics in the field.")

	default:
		sb.WriteString("Here's a detailed explanation:\n\n")
		writeQA(&sb, question, answer)
		sb.WriteString("Explanation: The answer addresses the question by providing ")
		sb.WriteString(answer)
		sb.WriteString(". This involves understanding the relationship between the question's key concepts and how they connect to form the solution. ")
		sb.WriteString("Consider the context and how this applies to similar scenarios.")
	}

	return sb.String()
}

func writeQA(sb *strings.Builder, question, answer string) {
	sb.WriteString("Question: ")
	sb.WriteString(question)
	sb.WriteString("\n\nAnswer: ")
	sb.WriteString(answer)
	sb.WriteString("\n\n")
}
