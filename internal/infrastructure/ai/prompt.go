package ai

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/doeshing/suggest-go/internal/domain"
)

const systemPrompt = `You are a code completion engine.
Continue the code at the cursor position marked <CURSOR>.
Output ONLY the raw code completion, without markdown fences, explanations, or introductory text.`

// renderPromptMessages assembles the chat payload from the captured editor
// context. The context has already passed the sanitizer gate by the time it
// reaches this package.
func renderPromptMessages(ctx domain.CompletionContext) []domain.PromptMessage {
	var b strings.Builder

	if ctx.FilePath != "" {
		fmt.Fprintf(&b, "File: %s\n", filepath.Base(ctx.FilePath))
	}
	if ctx.Language != "" {
		fmt.Fprintf(&b, "Language: %s\n", ctx.Language)
	}
	b.WriteString("\n")

	for _, line := range ctx.PrecedingLines {
		b.WriteString(line)
		b.WriteString("\n")
	}

	// Split the current line at the caret. Column is 1-based.
	col := ctx.Position.Column - 1
	if col < 0 || col > len(ctx.CurrentLine) {
		col = len(ctx.CurrentLine)
	}
	b.WriteString(ctx.CurrentLine[:col])
	b.WriteString("<CURSOR>")
	b.WriteString(ctx.CurrentLine[col:])
	b.WriteString("\n")

	for _, line := range ctx.FollowingLines {
		b.WriteString(line)
		b.WriteString("\n")
	}

	return []domain.PromptMessage{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: b.String()},
	}
}
