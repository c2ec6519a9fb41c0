package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
)

// ProviderConfig bundles the REST/WebSocket endpoints and credentials for
// both supported trading providers. Fields are populated by envdecode from
// KRAKEN_* / BINANCE_* environment variables; LoadProviderConfig loads a
// .env file first (via godotenv) when one is present, mirroring the
// teacher's env-first configuration discipline.
type ProviderConfig struct {
	Kraken struct {
		APIKey    string        `env:"KRAKEN_API_KEY"`
		APISecret string        `env:"KRAKEN_API_SECRET"`
		RESTURL   string        `env:"KRAKEN_REST_URL,default=https://futures.kraken.com"`
		WSURL     string        `env:"KRAKEN_WS_URL,default=wss://futures.kraken.com/ws/v1"`
		Timeout   time.Duration `env:"KRAKEN_HTTP_TIMEOUT,default=30s"`
	}
	Binance struct {
		APIKey    string        `env:"BINANCE_API_KEY"`
		APISecret string        `env:"BINANCE_API_SECRET"`
		RESTURL   string        `env:"BINANCE_REST_URL,default=https://fapi.binance.com"`
		WSURL     string        `env:"BINANCE_WS_URL,default=wss://fstream.binance.com/ws"`
		Testnet   bool          `env:"BINANCE_TESTNET,default=false"`
		Timeout   time.Duration `env:"BINANCE_HTTP_TIMEOUT,default=10s"`
	}
}

// LoadProviderConfig loads a .env file if present (missing files are not an
// error) and decodes ProviderConfig from the process environment.
func LoadProviderConfig(envFile string) (*ProviderConfig, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("load env file %s: %w", envFile, err)
		}
	}

	var cfg ProviderConfig
	if err := envdecode.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode provider config: %w", err)
	}

	if cfg.Binance.Testnet {
		if cfg.Binance.RESTURL == "https://fapi.binance.com" {
			cfg.Binance.RESTURL = "https://testnet.binancefuture.com"
		}
	}
	return &cfg, nil
}

// minCredentialLength is the "shorter than a small threshold" bound from
// spec.md's credential-usability skip-gate rule.
const minCredentialLength = 8

var placeholderSubstrings = []string{
	"changeme", "your-api-key", "your_api_key", "replace-me",
	"test-key", "xxxxxxxx", "example", "placeholder", "todo",
}

// LooksPlaceholder reports whether value is empty, shorter than
// minCredentialLength, or contains an obvious placeholder substring —
// the three disjuncts spec.md's credential-usability rule names.
func LooksPlaceholder(value string) bool {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" || len(trimmed) < minCredentialLength {
		return true
	}
	lower := strings.ToLower(trimmed)
	for _, substr := range placeholderSubstrings {
		if strings.Contains(lower, substr) {
			return true
		}
	}
	return false
}

// KrakenUsable reports whether cfg's Kraken credentials are usable as-is,
// without consulting the environment-variable fallback spec.md also allows.
func (cfg *ProviderConfig) KrakenUsable() bool {
	return !LooksPlaceholder(cfg.Kraken.APIKey) && !LooksPlaceholder(cfg.Kraken.APISecret)
}

// BinanceUsable mirrors KrakenUsable for the Binance credential pair.
func (cfg *ProviderConfig) BinanceUsable() bool {
	return !LooksPlaceholder(cfg.Binance.APIKey) && !LooksPlaceholder(cfg.Binance.APISecret)
}

// CredentialsUsable dispatches to the per-provider usability check by
// provider name ("kraken"/"binance", case-insensitive), falling back to
// environment-variable-sourced credentials per spec.md's fallback rule when
// the provider config's own fields look unset or placeholder.
func (cfg *ProviderConfig) CredentialsUsable(provider string) bool {
	switch strings.ToLower(provider) {
	case "kraken":
		if cfg.KrakenUsable() {
			return true
		}
		return !LooksPlaceholder(os.Getenv("KRAKEN_API_KEY")) && !LooksPlaceholder(os.Getenv("KRAKEN_API_SECRET"))
	case "binance":
		if cfg.BinanceUsable() {
			return true
		}
		return !LooksPlaceholder(os.Getenv("BINANCE_API_KEY")) && !LooksPlaceholder(os.Getenv("BINANCE_API_SECRET"))
	default:
		return false
	}
}
