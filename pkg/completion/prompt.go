package completion

import (
	"fmt"
	"strings"

	"github.com/polisai/codeforge/pkg/domain"
)

// BuildPrompt renders the level instruction and source into the rewrite prompt.
func BuildPrompt(level domain.EnhancementLevel, levelNumber int, code string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "ENHANCEMENT LEVEL: %d", levelNumber)
	if level.Name != "" {
		fmt.Fprintf(&sb, " (%s)", level.Name)
	}
	sb.WriteString("\n\nINSTRUCTIONS:\n")
	sb.WriteString(strings.TrimSpace(level.Instruction))
	if len(level.ModuleIDs) > 0 {
		sb.WriteString("\nFocus areas: ")
		sb.WriteString(strings.Join(level.ModuleIDs, ", "))
	}
	sb.WriteString("\n\nSOURCE CODE:\n")
	sb.WriteString(code)
	sb.WriteString("\n\nReturn only the complete enhanced JavaScript source, with no explanations.")
	return sb.String()
}

// StripCodeFence removes one surrounding Markdown code fence, if present.
func StripCodeFence(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return content
	}
	nl := strings.IndexByte(trimmed, '\n')
	if nl < 0 {
		return content
	}
	body := trimmed[nl+1:]
	end := strings.LastIndex(body, "```")
	if end < 0 {
		return content
	}
	return strings.TrimRight(body[:end], "\n") + "\n"
}
