package factory

import (
	"fmt"

	"brandpulse-be/pkg/llm"
	"brandpulse-be/pkg/llm/gemini"
	"brandpulse-be/pkg/llm/ollama"
)

// NewLLMProvider creates an LLM provider based on configuration.
// Every provider is wrapped with bounded retries for transient failures.
func NewLLMProvider(providerName, modelName, ollamaBaseURL, geminiApiKey string, maxRetries uint) (llm.LLMProvider, error) {
	var provider llm.LLMProvider

	switch providerName {
	case "ollama":
		provider = ollama.NewOllamaProvider(ollamaBaseURL, modelName)
	case "gemini":
		if geminiApiKey == "" {
			return nil, fmt.Errorf("gemini provider requires an API key")
		}
		provider = gemini.NewGeminiProvider(geminiApiKey, modelName)
	default:
		return nil, fmt.Errorf("unknown LLM provider: %s", providerName)
	}

	return llm.NewRetryingProvider(provider, maxRetries), nil
}
