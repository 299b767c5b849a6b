// ABOUTME: ContextMessage is the compacted, LLM-ready form of conversation history
// ABOUTME: ModelParams carries the numeric completion settings for a single call
package models

// ContextMessage is a role/content pair sent to the completion API.
// It is derived from history and never persisted.
type ContextMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ModelParams configures one completion call
type ModelParams struct {
	Model            string  `json:"model"`
	Temperature      float32 `json:"temperature"`
	FrequencyPenalty float32 `json:"frequency_penalty,omitempty"`
	PresencePenalty  float32 `json:"presence_penalty,omitempty"`
	MaxTokens        int     `json:"max_tokens,omitempty"`
	JSONMode         bool    `json:"json_mode,omitempty"`
}

// WithTemperature returns a copy of p using the given temperature
func (p ModelParams) WithTemperature(t float32) ModelParams {
	p.Temperature = t
	return p
}
