package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// LoadSuiteConfig loads the named-suite configuration from config/suites.yaml.
func LoadSuiteConfig() (*SuiteConfig, error) {
	return LoadSuiteConfigFromPath(filepath.Join("config", "suites.yaml"))
}

// LoadSuiteConfigFromPath loads the named-suite configuration from a specific path.
func LoadSuiteConfigFromPath(path string) (*SuiteConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read suite config: %w", err)
	}

	var cfg SuiteConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse suite config: %w", err)
	}

	for id, settings := range cfg.Suites {
		if settings.Description == "" {
			return nil, fmt.Errorf("suite %s: description is required", id)
		}
	}

	return &cfg, nil
}

// LoadSuiteConfigOrDefault loads the suite config or returns the default
// built-in suites if config/suites.yaml is absent.
func LoadSuiteConfigOrDefault() *SuiteConfig {
	cfg, err := LoadSuiteConfig()
	if err != nil {
		return DefaultSuiteConfig()
	}
	return cfg
}

// DefaultSuiteConfig returns the built-in suite set: one suite per tag
// convention the bundled scenarios use (§4.2's tags field).
func DefaultSuiteConfig() *SuiteConfig {
	return &SuiteConfig{
		Suites: map[string]*SuiteSettings{
			"smoke": {
				Enabled:     true,
				Tags:        []string{"smoke"},
				Description: "Fast, connectivity-only checks safe to run on every commit",
			},
			"rest": {
				Enabled:     true,
				Tags:        []string{"rest"},
				Description: "REST-only order lifecycle and account scenarios",
			},
			"websocket": {
				Enabled:     true,
				Tags:        []string{"websocket"},
				Description: "WebSocket subscribe/reconnect/fill-event scenarios",
			},
			"regression": {
				Enabled:     true,
				Description: "Every enabled scenario for the provider",
			},
		},
	}
}
