package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// WatchlistEntry is one item seeded from a watchlist file.
type WatchlistEntry struct {
	ID             string   `yaml:"id"`
	Label          string   `yaml:"label"`
	TargetBuyPrice *float64 `yaml:"target_buy_price"`
}

type watchlistFile struct {
	Items []WatchlistEntry `yaml:"items"`
}

// LoadWatchlist reads a watchlist YAML file. Entries without an id are
// rejected so a malformed file fails loudly at startup instead of silently
// tracking nothing.
func LoadWatchlist(path string) ([]WatchlistEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read watchlist file: %w", err)
	}

	var wl watchlistFile
	if err := yaml.Unmarshal(data, &wl); err != nil {
		return nil, fmt.Errorf("parse watchlist yaml: %w", err)
	}

	for i, e := range wl.Items {
		if e.ID == "" {
			return nil, fmt.Errorf("watchlist item %d has no id", i)
		}
	}

	return wl.Items, nil
}
