// Package llm provides centralized LLM configuration and client abstractions
// for the course generation agents.
package llm

// ModelTier represents the complexity/capability level of a model
type ModelTier string

const (
	// TierLite is for short, formulaic output such as quiz scripts
	TierLite ModelTier = "lite"
	// TierStandard is for structured extraction: objective analysis, narrative scripts
	TierStandard ModelTier = "standard"
	// TierAdvanced is for planning a whole course sequence
	TierAdvanced ModelTier = "advanced"
)

// Provider represents an LLM provider
type Provider string

const (
	// ProviderGemini is the Google Gemini provider
	ProviderGemini Provider = "gemini"
)

// DefaultTemperature is used when a call does not set its own.
const DefaultTemperature float32 = 0.2

// Config holds the model configuration for the application
type Config struct {
	Provider    Provider
	Models      map[ModelTier]string
	Temperature float32
}

// DefaultConfig returns the default configuration (currently Gemini)
func DefaultConfig() *Config {
	return DefaultGeminiConfig()
}

// DefaultGeminiConfig returns the default Gemini configuration
func DefaultGeminiConfig() *Config {
	return &Config{
		Provider: ProviderGemini,
		Models: map[ModelTier]string{
			TierLite:     "gemini-2.5-flash-lite",
			TierStandard: "gemini-2.5-flash",
			TierAdvanced: "gemini-2.5-pro",
		},
		Temperature: DefaultTemperature,
	}
}

// GetModel returns the model name for a given tier
func (c *Config) GetModel(tier ModelTier) string {
	if model, ok := c.Models[tier]; ok {
		return model
	}
	// Fallback chain: try standard, then lite
	if model, ok := c.Models[TierStandard]; ok {
		return model
	}
	if model, ok := c.Models[TierLite]; ok {
		return model
	}
	return ""
}

// WithModel returns a new Config with a specific model for a tier
func (c *Config) WithModel(tier ModelTier, model string) *Config {
	newConfig := &Config{
		Provider:    c.Provider,
		Models:      make(map[ModelTier]string, len(c.Models)+1),
		Temperature: c.Temperature,
	}
	for k, v := range c.Models {
		newConfig.Models[k] = v
	}
	newConfig.Models[tier] = model
	return newConfig
}

// WithAllModels returns a new Config that uses model for every tier.
// An empty model leaves the config unchanged.
func (c *Config) WithAllModels(model string) *Config {
	if model == "" {
		return c
	}
	out := c
	for _, tier := range []ModelTier{TierLite, TierStandard, TierAdvanced} {
		out = out.WithModel(tier, model)
	}
	return out
}

// CallOptions tunes a single generation call.
type CallOptions struct {
	Temperature *float32
}

// CallOption mutates CallOptions.
type CallOption func(*CallOptions)

// WithTemperature overrides the sampling temperature for one call.
func WithTemperature(t float32) CallOption {
	return func(o *CallOptions) {
		o.Temperature = &t
	}
}

// resolveTemperature picks the per-call temperature, then the config default.
func (c *Config) resolveTemperature(opts []CallOption) float32 {
	var o CallOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.Temperature != nil {
		return *o.Temperature
	}
	if c.Temperature > 0 {
		return c.Temperature
	}
	return DefaultTemperature
}
