package anthropic

import "strings"

// ModelInfo describes a known model in the catalog.
type ModelInfo struct {
	ID               string   `json:"id"`
	DisplayName      string   `json:"display_name"`
	MaxOutput        int      `json:"max_output"`
	SupportsVision   bool     `json:"supports_vision"`
	SupportsThinking bool     `json:"supports_thinking"`
	Aliases          []string `json:"aliases,omitempty"`
}

// Models is the built-in model catalog.
var Models = []ModelInfo{
	{
		ID: "claude-opus-4-5", DisplayName: "Opus 4.5",
		MaxOutput:      32768,
		SupportsVision: true, SupportsThinking: true,
		Aliases: []string{"opus", "claude-opus"},
	},
	{
		ID: "claude-sonnet-4-5", DisplayName: "Sonnet 4.5",
		MaxOutput:      16384,
		SupportsVision: true, SupportsThinking: true,
		Aliases: []string{"sonnet", "claude-sonnet"},
	},
	{
		ID: "claude-haiku-4-5", DisplayName: "Haiku 4.5",
		MaxOutput:      16384,
		SupportsVision: true, SupportsThinking: true,
		Aliases: []string{"haiku", "claude-haiku"},
	},
}

// DefaultModel is used when no model choice is configured.
const DefaultModel = "claude-sonnet-4-5"

// ResolveModel returns the catalog entry matching an ID or alias,
// case-insensitively, or nil if unknown.
func ResolveModel(choice string) *ModelInfo {
	choice = strings.ToLower(strings.TrimSpace(choice))
	for i := range Models {
		m := &Models[i]
		if strings.ToLower(m.ID) == choice {
			return m
		}
		for _, alias := range m.Aliases {
			if alias == choice {
				return m
			}
		}
	}
	return nil
}
