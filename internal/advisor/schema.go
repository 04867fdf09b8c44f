package advisor

import "github.com/ciclofficina/tracker/internal/llm"

// SuggestionSchema is the output shape requested from the model.
var SuggestionSchema = &llm.Schema{
	Name:        "prerequisite-suggestions",
	Description: "Prerequisite modules proposed for one workshop module",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"suggestions": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"code": map[string]any{
							"type":        "string",
							"description": "Code of a catalog module, copied exactly",
						},
						"type": map[string]any{
							"type":        "string",
							"enum":        []any{"mandatory", "recommended"},
							"description": "mandatory blocks the module until completed, recommended is advice only",
						},
						"reason": map[string]any{
							"type":        "string",
							"description": "One sentence on what the prerequisite teaches that the module relies on",
						},
					},
					"required":             []any{"code", "type", "reason"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []any{"suggestions"},
		"additionalProperties": false,
	},
}

type suggestionsOutput struct {
	Suggestions []struct {
		Code   string `json:"code"`
		Type   string `json:"type"`
		Reason string `json:"reason"`
	} `json:"suggestions"`
}
