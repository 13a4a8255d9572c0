package llm

import "fmt"

// Resolve builds the provider named in configuration. An empty name
// returns (nil, nil): the honeypot then falls back to rule-based
// detection and canned persona replies, so it still runs with zero
// external dependencies.
func Resolve(name, apiKey, baseURL string) (Provider, error) {
	switch name {
	case "":
		return nil, nil
	case "openai":
		if apiKey == "" {
			return nil, fmt.Errorf("provider %q requires an API key", name)
		}
		if baseURL != "" {
			return NewOpenAIProviderWithBaseURL(apiKey, baseURL), nil
		}
		return NewOpenAIProvider(apiKey), nil
	case "ollama":
		return NewOllamaProvider(baseURL), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", name)
	}
}
