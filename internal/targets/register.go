package targets

import (
	"fmt"

	appconfig "github.com/R3E-Network/scenario-engine/infrastructure/config"
	"github.com/R3E-Network/scenario-engine/internal/providers/binance"
	"github.com/R3E-Network/scenario-engine/internal/providers/kraken"
	"github.com/R3E-Network/scenario-engine/internal/registry"
)

// Register installs the "KrakenClient" and "BinanceClient" class factories
// on reg, each building its REST client from the matching section of the
// *appconfig.ProviderConfig the registry was constructed with.
func Register(reg *registry.Registry) {
	reg.Register(registry.ClassFactory{
		Name: "KrakenClient",
		New: func(cfg registry.ProviderConfig, _ map[string]any) (any, error) {
			pc, err := providerConfig(cfg)
			if err != nil {
				return nil, err
			}
			rest := kraken.NewClient(kraken.RESTConfig{
				BaseURL:   pc.Kraken.RESTURL,
				APIKey:    pc.Kraken.APIKey,
				APISecret: pc.Kraken.APISecret,
			})
			return NewKrakenClient(rest), nil
		},
	})

	reg.Register(registry.ClassFactory{
		Name: "BinanceClient",
		New: func(cfg registry.ProviderConfig, _ map[string]any) (any, error) {
			pc, err := providerConfig(cfg)
			if err != nil {
				return nil, err
			}
			rest := binance.NewClient(binance.RESTConfig{
				BaseURL:   pc.Binance.RESTURL,
				APIKey:    pc.Binance.APIKey,
				APISecret: pc.Binance.APISecret,
			})
			return NewBinanceClient(rest), nil
		},
	})
}

func providerConfig(cfg registry.ProviderConfig) (*appconfig.ProviderConfig, error) {
	pc, ok := cfg.(*appconfig.ProviderConfig)
	if !ok {
		return nil, fmt.Errorf("targets: registry configured with %T, want *config.ProviderConfig", cfg)
	}
	return pc, nil
}
