package prompts

import (
	"bytes"
	"embed"
	"strings"
	"text/template"
)

//go:embed templates/*
var templatesFS embed.FS

// RenderChatSystemPrompt renders the fixed chatbot instruction for the given
// answer language. language may be a display name ("English") or a BCP 47
// tag ("en", "pt-BR").
func RenderChatSystemPrompt(language string) (string, error) {
	systemTemplateContent, err := templatesFS.ReadFile("templates/chat_system.md")
	if err != nil {
		return "", err
	}

	systemTmpl, err := template.New("chat_system").Parse(string(systemTemplateContent))
	if err != nil {
		return "", err
	}

	data := struct {
		Language string
	}{
		Language: ResolveLanguage(language),
	}

	var systemBuf bytes.Buffer
	if err := systemTmpl.Execute(&systemBuf, data); err != nil {
		return "", err
	}

	return strings.TrimSpace(systemBuf.String()), nil
}
