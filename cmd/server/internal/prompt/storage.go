package prompt

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Override is the optional on-disk prompt customization. Deployments tuning
// the coaching style can replace the system prompt without rebuilding.
type Override struct {
	SystemPrompt string `yaml:"system_prompt"`
}

// Library resolves the active prompt pair, applying a file override when one
// is configured.
type Library struct {
	systemPrompt string
}

// NewLibrary builds a Library. configPath may be empty, in which case the
// built-in prompts are used. A configured but unreadable or empty override
// file is an error; silently ignoring it would mask deployment mistakes.
func NewLibrary(configPath string) (*Library, error) {
	lib := &Library{systemPrompt: ClassroomEvaluatorPrompt}
	if configPath == "" {
		return lib, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompt config: %w", err)
	}

	var override Override
	if err := yaml.Unmarshal(data, &override); err != nil {
		return nil, fmt.Errorf("failed to parse prompt config: %w", err)
	}

	if strings.TrimSpace(override.SystemPrompt) == "" {
		return nil, fmt.Errorf("prompt config %s has empty system_prompt", configPath)
	}

	lib.systemPrompt = override.SystemPrompt
	return lib, nil
}

// SystemPrompt returns the active system prompt.
func (l *Library) SystemPrompt() string {
	return l.systemPrompt
}
