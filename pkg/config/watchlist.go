package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// WatchlistEntry is one symbol the desk keeps warm.
type WatchlistEntry struct {
	Symbol string `yaml:"symbol"`
	Name   string `yaml:"name"`
}

type watchlistFile struct {
	Symbols []WatchlistEntry `yaml:"symbols"`
}

// LoadWatchlist reads the symbol watchlist from a YAML file.
func LoadWatchlist(path string) ([]WatchlistEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var file watchlistFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, err
	}
	return file.Symbols, nil
}
