package prompts

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

const DefaultLanguage = "English"

// ResolveLanguage turns a configured language into the name the model is told
// to answer in. Tags are expanded to their English display name; anything
// else is used as written.
func ResolveLanguage(lang string) string {
	lang = strings.TrimSpace(lang)
	if lang == "" {
		return DefaultLanguage
	}
	if !looksLikeTag(lang) {
		return lang
	}

	tag, err := language.Parse(lang)
	if err != nil || tag == language.Und {
		return lang
	}

	if name := display.English.Tags().Name(tag); name != "" {
		return name
	}
	return lang
}

func looksLikeTag(s string) bool {
	return len(s) <= 3 || strings.ContainsAny(s, "-_")
}
