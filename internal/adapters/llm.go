package adapters

import (
	"github.com/gage-technologies/mistral-go"
)

type LlmAdapter struct {
	Client *mistral.MistralClient
	Model  string
}

// NewLlmAdapter returns nil when no API key is configured; annotations then
// always use the template summary.
func NewLlmAdapter(apiKey string, model string) *LlmAdapter {
	if apiKey == "" {
		return nil
	}
	return &LlmAdapter{
		Client: mistral.NewMistralClientDefault(apiKey),
		Model:  model,
	}
}
