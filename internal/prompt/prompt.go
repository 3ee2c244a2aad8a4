package prompt

import (
	"fmt"
	"strings"
)

type Style string

const (
	// StyleInline puts the instruction and the question into one text.
	StyleInline Style = "inline"
	// StyleSystem sends the instruction as a separate system instruction.
	StyleSystem Style = "system"

	inlinePreamble = "You are an expert assistant. Answer concisely and clearly."

	SystemInstruction = "You are a concise and factual question-answering assistant. " +
		"Answer clearly and directly to the user query."
)

// Prompt is the payload handed to the model client.
type Prompt struct {
	// System is an optional system instruction. Empty for StyleInline.
	System string
	// Text is the user content.
	Text string
}

func ParseStyle(s string) (Style, error) {
	switch Style(strings.ToLower(strings.TrimSpace(s))) {
	case StyleInline:
		return StyleInline, nil
	case StyleSystem:
		return StyleSystem, nil
	default:
		return "", fmt.Errorf("unknown prompt style %q (want %q or %q)", s, StyleInline, StyleSystem)
	}
}

// Build wraps an already normalized question.
func Build(style Style, question string) Prompt {
	if style == StyleSystem {
		return Prompt{
			System: SystemInstruction,
			Text:   "Question: " + question,
		}
	}

	var b strings.Builder
	b.WriteString(inlinePreamble)
	b.WriteString("\nQuestion: ")
	b.WriteString(question)
	b.WriteString("\nAnswer:")

	return Prompt{Text: b.String()}
}
