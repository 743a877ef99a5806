package evaluator

import (
	"fmt"
	"os"
	"strings"

	"newsroom/pkg/apperr"
)

// promptTemplate holds the system/user halves of a loaded prompt file,
// split on the <<SYS>>/<<USER>> markers (§4.3).
type promptTemplate struct {
	system string
	user   string
}

const (
	sysMarker  = "<<SYS>>"
	userMarker = "<<USER>>"
)

// loadPromptFile reads and splits a prompt file at path.
func loadPromptFile(path string) (promptTemplate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return promptTemplate{}, apperr.Config(fmt.Sprintf("cannot read prompt file %q", path)).WithError(err)
	}
	text := string(data)
	if !strings.Contains(text, sysMarker) || !strings.Contains(text, userMarker) {
		return promptTemplate{}, apperr.Config(fmt.Sprintf("prompt file %q must contain %s and %s markers", path, sysMarker, userMarker))
	}
	sysPart, userPart, _ := strings.Cut(text, userMarker)
	system := strings.TrimSpace(strings.Replace(sysPart, sysMarker, "", 1))
	user := strings.TrimSpace(userPart)
	if system == "" || user == "" {
		return promptTemplate{}, apperr.Config(fmt.Sprintf("prompt file %q has an empty system or user section", path))
	}
	return promptTemplate{system: system, user: user}, nil
}

// fillPrompt substitutes {{key}} placeholders with their mapped values.
func fillPrompt(template string, mapping map[string]string) string {
	result := template
	for key, value := range mapping {
		result = strings.ReplaceAll(result, "{{"+key+"}}", value)
	}
	return result
}
