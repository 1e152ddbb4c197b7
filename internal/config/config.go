package config

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"tiledraft/internal/domain"
)

type FactoryTier struct {
	Players   int `json:"players"`
	Factories int `json:"factories"`
}

type GameConfig struct {
	DefaultPlayers int           `json:"default_players"`
	TilesPerColor  int           `json:"tiles_per_color"`
	TickRate       int           `json:"tick_rate"`
	Factories      []FactoryTier `json:"factories_by_players"`
}

var (
	cfg      *GameConfig
	loadOnce sync.Once
	loadErr  error
)

// LoadGameConfig loads the game configuration from the given path.
func LoadGameConfig(path string) error {
	loadOnce.Do(func() {
		data, err := os.ReadFile(path)
		if err != nil {
			loadErr = fmt.Errorf("failed to read game config: %w", err)
			return
		}
		cfg, loadErr = ParseGameConfig(data)
	})
	return loadErr
}

// ParseGameConfig decodes and validates a configuration document.
func ParseGameConfig(data []byte) (*GameConfig, error) {
	var c GameConfig
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to unmarshal game config: %w", err)
	}
	if c.DefaultPlayers != 0 && domain.FactoriesForPlayers(c.DefaultPlayers) == 0 {
		return nil, fmt.Errorf("default_players %d out of range %d..%d", c.DefaultPlayers, domain.MinPlayers, domain.MaxPlayers)
	}
	for _, tier := range c.Factories {
		if tier.Factories <= 0 {
			return nil, fmt.Errorf("factories_by_players: %d players needs a positive factory count", tier.Players)
		}
	}
	return &c, nil
}

// GetGameConfig returns the global game configuration, or nil if none was loaded.
func GetGameConfig() *GameConfig {
	return cfg
}

// GetDefaultPlayers returns the configured table size, or 2.
func GetDefaultPlayers() int {
	if cfg == nil || cfg.DefaultPlayers == 0 {
		return domain.MinPlayers
	}
	return cfg.DefaultPlayers
}

// GetTilesPerColor returns the configured tiles per color, or the standard 20.
func GetTilesPerColor() int {
	if cfg == nil || cfg.TilesPerColor <= 0 {
		return domain.TilesPerColor
	}
	return cfg.TilesPerColor
}

// GetTickRate returns the configured match tick rate, or 5.
func GetTickRate() int {
	if cfg == nil || cfg.TickRate <= 0 {
		return 5
	}
	return cfg.TickRate
}

// GetFactoryCount returns the factory count for a player count from the config,
// falling back to the standard rule.
func (c *GameConfig) GetFactoryCount(players int) int {
	if c != nil {
		for _, tier := range c.Factories {
			if tier.Players == players {
				return tier.Factories
			}
		}
	}
	return domain.FactoriesForPlayers(players)
}
