package factory

import (
	"fmt"

	"orchestration-agent/pkg/llm"
	"orchestration-agent/pkg/llm/gemini"
	"orchestration-agent/pkg/llm/huggingface"
	"orchestration-agent/pkg/llm/ollama"
)

// NewLLMProvider builds a provider bound to a single credential. Providers that
// do not authenticate (ollama) ignore apiKey.
func NewLLMProvider(providerType, modelName, baseURL, apiKey string) (llm.LLMProvider, error) {
	switch providerType {
	case "gemini":
		if apiKey == "" {
			return nil, fmt.Errorf("gemini provider requires an api key")
		}
		return gemini.NewGeminiProvider(apiKey, baseURL, modelName), nil
	case "huggingface":
		if apiKey == "" {
			return nil, fmt.Errorf("huggingface provider requires an api key")
		}
		return huggingface.NewHuggingFaceProvider(apiKey, baseURL, modelName), nil
	case "ollama":
		if baseURL == "" {
			baseURL = "http://localhost:11434" // Default
		}
		return ollama.NewOllamaProvider(baseURL, modelName), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", providerType)
	}
}
