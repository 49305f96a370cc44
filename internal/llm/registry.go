// Package llm drives registry-configured language models against a
// materialized challenge and records their raw answers for grading. It is
// glue around the core: nothing in here touches scoring.
package llm

import (
	"encoding/json"
	"fmt"
	"os"
)

// RegistryEntry describes one model endpoint. Providers are
// OpenAI-compatible; BaseURL selects the vendor endpoint and APIKeyEnv
// names the environment variable holding the credential, so the registry
// file itself never contains secrets.
type RegistryEntry struct {
	Alias       string  `json:"alias"`
	Provider    string  `json:"provider"`
	Model       string  `json:"model"`
	APIKeyEnv   string  `json:"api_key_env"`
	BaseURL     string  `json:"base_url,omitempty"`
	Temperature float32 `json:"temperature,omitempty"`
}

// LoadRegistry reads the model registry from a JSON file.
func LoadRegistry(path string) ([]RegistryEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("llm: read registry: %w", err)
	}
	var entries []RegistryEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("llm: parse registry: %w", err)
	}
	return entries, nil
}

// ProviderFor returns the provider recorded for an alias, if any.
func ProviderFor(entries []RegistryEntry, alias string) string {
	for _, entry := range entries {
		if entry.Alias == alias {
			return entry.Provider
		}
	}
	return ""
}
