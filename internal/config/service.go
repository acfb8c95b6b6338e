package config

import "github.com/JonMunkholm/sortinghat/internal/core"

// ServiceConfig maps the inference settings onto core.ServiceConfig.
func (c *Config) ServiceConfig() core.ServiceConfig {
	return core.ServiceConfig{
		DefaultClassifier: c.Inference.Classifier,
		Backend: core.BackendConfig{
			RemoteURL:     c.Remote.URL,
			RemoteAPIKey:  c.Remote.APIKey,
			RemoteTimeout: c.Remote.Timeout,
			GeminiAPIKey:  c.Gemini.APIKey,
			GeminiModel:   c.Gemini.Model,
		},
		MaxConcurrent: c.Inference.MaxConcurrent,
		MaxWaitTime:   c.Inference.MaxWaitTime,
		Timeout:       c.Inference.Timeout,
	}
}
