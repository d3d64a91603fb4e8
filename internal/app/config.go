package app

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config holds runtime wiring options for building the app.
type Config struct {
	// Home is the data directory, e.g. $HOME/.paracord.
	Home string `toml:"-"`
	// ServerURL is the API base URL.
	ServerURL string `toml:"server_url"`
	// Token authenticates requests to the keys API.
	Token string `toml:"token"`
}

const configFilename = "config.toml"

// LoadConfig reads <home>/config.toml if present. A missing file yields
// a zero config; flags may still fill the fields in.
func LoadConfig(home string) (Config, error) {
	cfg := Config{Home: home}
	raw, err := os.ReadFile(filepath.Join(home, configFilename))
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return Config{}, err
	}
	if err := toml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, err
	}
	cfg.Home = home
	return cfg, nil
}
