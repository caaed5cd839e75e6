package catalog

import (
	"log"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

// staticFile is the shape of an optional config/models.yaml override.
type staticFile struct {
	Models []ModelDescriptor `yaml:"models"`
}

var (
	staticCatalog []ModelDescriptor
	staticOnce    sync.Once
)

// StaticCatalogPath returns the override path, checking the env var first.
func StaticCatalogPath() string {
	if envPath := os.Getenv("WRAPPR_MODELS_CONFIG"); envPath != "" {
		return envPath
	}
	return "./config/models.yaml"
}

// StaticCatalog returns the built-in model table, optionally replaced by a
// models.yaml file. The result is copied so callers can mutate freely.
func StaticCatalog() []ModelDescriptor {
	staticOnce.Do(func() {
		path := StaticCatalogPath()
		data, err := os.ReadFile(path)
		if err != nil {
			staticCatalog = defaultStaticCatalog()
			return
		}
		var f staticFile
		if err := yaml.Unmarshal(data, &f); err != nil || len(f.Models) == 0 {
			log.Printf("Warning: failed to parse model catalog from %s: %v. Using defaults.", path, err)
			staticCatalog = defaultStaticCatalog()
			return
		}
		staticCatalog = f.Models
		log.Printf("Loaded model catalog from %s (%d models)", path, len(f.Models))
	})

	out := make([]ModelDescriptor, len(staticCatalog))
	copy(out, staticCatalog)
	return out
}

// ResetStaticCatalogForTest resets the loader singleton. Test code only.
func ResetStaticCatalogForTest() {
	staticOnce = sync.Once{}
	staticCatalog = nil
}

// defaultStaticCatalog is the capability table compiled into the binary.
// It is the floor the catalog can never fall below: total backend failure
// degrades to exactly this list.
func defaultStaticCatalog() []ModelDescriptor {
	return []ModelDescriptor{
		{
			Name:        "gpt-4o-mini",
			DisplayName: "GPT-4o mini",
			Provider:    ProviderOpenAI,
			Type:        TypeText,
			Tier:        TierFree,
			Capabilities: Capabilities{
				WebSearchCapable: true,
				CodeExecution:    false,
				MaxTokens:        16384,
				ContextWindow:    128000,
				Multimodal:       true,
				FunctionCalling:  true,
				Streaming:        true,
			},
			Description: "Fast, low-cost default for everyday chat.",
		},
		{
			Name:        "gpt-4o",
			DisplayName: "GPT-4o",
			Provider:    ProviderOpenAI,
			Type:        TypeText,
			Tier:        TierPro,
			Capabilities: Capabilities{
				WebSearchCapable: true,
				CodeExecution:    true,
				MaxTokens:        16384,
				ContextWindow:    128000,
				Multimodal:       true,
				FunctionCalling:  true,
				Streaming:        true,
			},
			Description: "Flagship multimodal model.",
		},
		{
			Name:        "claude-3-5-haiku",
			DisplayName: "Claude 3.5 Haiku",
			Provider:    ProviderAnthropic,
			Type:        TypeText,
			Tier:        TierFree,
			Capabilities: Capabilities{
				WebSearchCapable: false,
				CodeExecution:    false,
				MaxTokens:        8192,
				ContextWindow:    200000,
				FunctionCalling:  true,
				Streaming:        true,
			},
			Description: "Fast Anthropic model for short-form assistance.",
		},
		{
			Name:        "claude-sonnet-4",
			DisplayName: "Claude Sonnet 4",
			Provider:    ProviderAnthropic,
			Type:        TypeText,
			Tier:        TierPro,
			Capabilities: Capabilities{
				WebSearchCapable: true,
				CodeExecution:    true,
				MaxTokens:        64000,
				ContextWindow:    200000,
				Multimodal:       true,
				FunctionCalling:  true,
				Streaming:        true,
			},
			Description: "Balanced Anthropic model for complex work.",
		},
		{
			Name:        "claude-opus-4",
			DisplayName: "Claude Opus 4",
			Provider:    ProviderAnthropic,
			Type:        TypeText,
			Tier:        TierPremium,
			Capabilities: Capabilities{
				WebSearchCapable: true,
				CodeExecution:    true,
				MaxTokens:        32000,
				ContextWindow:    200000,
				Multimodal:       true,
				FunctionCalling:  true,
				Streaming:        true,
			},
			Description: "Highest-quality Anthropic model.",
		},
		{
			Name:        "llama-3.3-70b-versatile",
			DisplayName: "Llama 3.3 70B",
			Provider:    ProviderGroq,
			Type:        TypeText,
			Tier:        TierFree,
			Capabilities: Capabilities{
				WebSearchCapable: false,
				CodeExecution:    false,
				MaxTokens:        32768,
				ContextWindow:    128000,
				FunctionCalling:  true,
				Streaming:        true,
			},
			Description: "Open-weights model served on Groq hardware.",
		},
	}
}
