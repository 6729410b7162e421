package session

import (
	"fmt"
	"strings"

	"github.com/richinex/zerb/llm"
	"github.com/richinex/zerb/project"
	"github.com/richinex/zerb/storage"
)

// SystemPrompt sets the two behavioral modes and the file block protocol.
const SystemPrompt = `You are Zerb, an Elite Full-Stack AI Architect.

Behavioral Modes:
1. **General Chat**: If the user is greeting you, asking a general question, or just chatting, respond with simple, friendly, and professional RAW PLAIN TEXT. Do NOT use the planning protocol or XML.
2. **Engineering Task**: If the user asks to build, modify, fix, or architect something:
   - START your response with the exact word "Plan:".
   - List the files and architectural logic.
   - Immediately follow with the XML protocol for the code.

XML Protocol for Code:
<file name="filename.ext" language="lang_id">
[CODE CONTENT]
</file>

Strict Rules for Tasks:
- Use "Plan:" only for actual coding/architectural work.
- For tasks, output COMPLETE file contents.
- Use RAW PLAIN TEXT for all chat components.
- Tech stack: React (TSX), TypeScript, Python, Tailwind, Framer Motion.
- When writing React components, assume they will be rendered in a browser environment with Tailwind support.`

const noFilesContext = "No files currently in project."

// FileContext renders the project files the way the model sees them.
func FileContext(files []project.File) string {
	if len(files) == 0 {
		return noFilesContext
	}
	parts := make([]string, len(files))
	for i, f := range files {
		parts[i] = fmt.Sprintf("File: %s\nLanguage: %s\nContent:\n%s", f.Name, f.Language, f.Content)
	}
	return strings.Join(parts, "\n\n")
}

// UserPrompt wraps the user's text with the current project files.
func UserPrompt(text string, files []project.File) string {
	return fmt.Sprintf("Current Project Files:\n%s\n\nUser Message: %s", FileContext(files), text)
}

// BuildMessages assembles the request for one turn. Prior messages are
// replayed by their displayed content; only the new message carries files.
func BuildMessages(history []storage.Message, text string, files []project.File) []llm.ChatMessage {
	messages := make([]llm.ChatMessage, 0, len(history)+2)
	messages = append(messages, llm.SystemMessage(SystemPrompt))
	for _, m := range history {
		messages = append(messages, llm.ChatMessage{Role: m.Role, Content: m.Content})
	}
	messages = append(messages, llm.UserMessage(UserPrompt(text, files)))
	return messages
}
