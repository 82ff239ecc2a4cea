package ai

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed prompts/*.toml
var promptFS embed.FS

// SummaryPlaceholder marks where the formatted summary goes in the task.
const SummaryPlaceholder = "{{summary}}"

const narrativePromptName = "narrative.toml"

// PromptTemplate holds the fixed system instruction and the task template.
type PromptTemplate struct {
	System string `toml:"system"`
	Task   string `toml:"task"`
}

// LoadPrompts returns the narrative prompt. A narrative.toml in dir takes
// precedence over the embedded default.
func LoadPrompts(dir string) (*PromptTemplate, error) {
	if dir != "" {
		userPath := filepath.Join(dir, narrativePromptName)
		if data, err := os.ReadFile(userPath); err == nil {
			return parsePrompts(data)
		}
	}

	data, err := promptFS.ReadFile("prompts/" + narrativePromptName)
	if err != nil {
		return nil, fmt.Errorf("embedded prompt %s: %w", narrativePromptName, err)
	}
	return parsePrompts(data)
}

func parsePrompts(data []byte) (*PromptTemplate, error) {
	var p PromptTemplate
	if err := toml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse prompt template: %w", err)
	}
	if strings.TrimSpace(p.System) == "" {
		return nil, fmt.Errorf("prompt template has no system instruction")
	}
	if !strings.Contains(p.Task, SummaryPlaceholder) {
		return nil, fmt.Errorf("prompt task must contain %s", SummaryPlaceholder)
	}
	return &p, nil
}

// UserPrompt interpolates the summary into the task template.
func (p *PromptTemplate) UserPrompt(summary string) string {
	return strings.ReplaceAll(p.Task, SummaryPlaceholder, summary)
}
