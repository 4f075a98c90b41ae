package lutris

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// GameConfig mirrors the parts of a Lutris per-game YAML config we read and
// write. Unknown sections survive a rewrite because updates go through a
// generic mapping, not this struct.
type GameConfig struct {
	Game   *GameSection   `yaml:"game,omitempty"`
	System *SystemSection `yaml:"system,omitempty"`
	Wine   *WineSection   `yaml:"wine,omitempty"`
}

type GameSection struct {
	Exe    string `yaml:"exe,omitempty"`
	Prefix string `yaml:"prefix,omitempty"`
}

type SystemSection struct {
	Env map[string]string `yaml:"env,omitempty"`
}

type WineSection struct {
	Version        string `yaml:"version,omitempty"`
	CustomWinePath string `yaml:"custom_wine_path,omitempty"`
}

// LoadGameConfig parses the YAML config at path.
func LoadGameConfig(path string) (*GameConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg GameConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse game config %s: %w", path, err)
	}
	return &cfg, nil
}

// Executable resolves the configured exe against the prefix when it is
// relative. directory is the database fallback for a missing prefix.
func (c *GameConfig) Executable(directory string) string {
	if c.Game == nil || c.Game.Exe == "" {
		return ""
	}
	if filepath.IsAbs(c.Game.Exe) {
		return c.Game.Exe
	}
	return filepath.Join(c.Prefix(directory), c.Game.Exe)
}

// Prefix returns the wine prefix, falling back to the game directory.
func (c *GameConfig) Prefix(directory string) string {
	if c.Game != nil && c.Game.Prefix != "" {
		return c.Game.Prefix
	}
	return directory
}

// EnvString flattens the configured environment into "K=V;K=V" form with
// stable key order.
func (c *GameConfig) EnvString() string {
	if c.System == nil || len(c.System.Env) == 0 {
		return ""
	}
	keys := make([]string, 0, len(c.System.Env))
	for k := range c.System.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := ""
	for i, k := range keys {
		if i > 0 {
			out += ";"
		}
		out += k + "=" + c.System.Env[k]
	}
	return out
}

// WineVersionPath resolves the configured wine version name to an installed
// build under protonDir. Empty when unset or not installed.
func (c *GameConfig) WineVersionPath(protonDir string) string {
	if c.Wine == nil || c.Wine.Version == "" {
		return ""
	}
	p := filepath.Join(protonDir, c.Wine.Version)
	if _, err := os.Stat(p); err != nil {
		return ""
	}
	return p
}

// SetGameWineVersion rewrites the game config at path to use the wine build
// at winePath, referenced by version name so Lutris resolves it from its own
// runners directory. Sections other than wine are preserved as-is.
func SetGameWineVersion(path, winePath string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read game config: %w", err)
	}

	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse game config %s: %w", path, err)
	}
	if doc == nil {
		doc = map[string]any{}
	}

	versionName := filepath.Base(winePath)
	if versionName == "." || versionName == "/" {
		return fmt.Errorf("invalid wine version path %q", winePath)
	}

	wine, _ := doc["wine"].(map[string]any)
	if wine == nil {
		wine = map[string]any{}
	}
	wine["version"] = versionName
	delete(wine, "custom_wine_path")
	doc["wine"] = wine

	out, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("serialize game config: %w", err)
	}
	if err := os.WriteFile(path, out, 0644); err != nil {
		return fmt.Errorf("write game config: %w", err)
	}
	return nil
}
