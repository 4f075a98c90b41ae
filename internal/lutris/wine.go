package lutris

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/gamedock/backend/internal/paths"
)

// WineVersion is one installed wine or Proton build offered to clients.
// Path identifies the build; DisplayName carries the source label only when
// the same version name appears in more than one location.
type WineVersion struct {
	Path        string `json:"path"`
	DisplayName string `json:"display_name"`
}

var systemWinePaths = []string{"/usr/bin/wine", "/usr/local/bin/wine"}

// ScanWineVersions walks every known runner directory and returns the
// installed builds, sorted by display name.
func ScanWineVersions(r *paths.Resolver) []WineVersion {
	type found struct {
		name   string
		source string
		path   string
	}
	var all []found

	for _, loc := range r.WineScanLocations() {
		entries, err := os.ReadDir(loc.Dir)
		if err != nil {
			continue
		}
		for _, e := range entries {
			if !e.IsDir() {
				continue
			}
			dir := filepath.Join(loc.Dir, e.Name())
			all = append(all, found{
				name:   versionName(dir, e.Name()),
				source: loc.Source,
				path:   dir,
			})
		}
	}

	for _, p := range systemWinePaths {
		if _, err := os.Stat(p); err == nil {
			all = append(all, found{name: "System Wine", source: "system", path: p})
			break
		}
	}

	counts := make(map[string]int)
	for _, f := range all {
		counts[f.name]++
	}

	versions := make([]WineVersion, 0, len(all))
	for _, f := range all {
		display := f.name
		if counts[f.name] > 1 {
			display = fmt.Sprintf("%s (%s)", f.name, f.source)
		}
		versions = append(versions, WineVersion{Path: f.path, DisplayName: display})
	}

	sort.Slice(versions, func(i, j int) bool {
		return versions[i].DisplayName < versions[j].DisplayName
	})

	// Same build reachable through two scan roots keeps one entry.
	seen := make(map[string]bool)
	deduped := versions[:0]
	for _, v := range versions {
		if !seen[v.Path] {
			seen[v.Path] = true
			deduped = append(deduped, v)
		}
	}
	return deduped
}

// versionName reads the build's version file, which holds
// "<timestamp> <version>", falling back to the directory name.
func versionName(dir, fallback string) string {
	data, err := os.ReadFile(filepath.Join(dir, "version"))
	if err != nil {
		return fallback
	}
	fields := strings.Fields(string(data))
	if len(fields) >= 2 {
		return fields[1]
	}
	return fallback
}

type wineRunnerConfig struct {
	Wine *WineSection `yaml:"wine,omitempty"`
}

// DefaultWineVersion reads the global default wine build from the runner
// config, returning the build directory path. Empty when unset.
func DefaultWineVersion(r *paths.Resolver) string {
	data, err := os.ReadFile(r.WineRunnerConfig())
	if err != nil {
		return ""
	}
	var cfg wineRunnerConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil || cfg.Wine == nil {
		return ""
	}

	// custom_wine_path points at the wine binary inside the build; the
	// build directory is its parent.
	if cfg.Wine.CustomWinePath != "" {
		return filepath.Dir(cfg.Wine.CustomWinePath)
	}

	if cfg.Wine.Version != "" {
		p := filepath.Join(r.ProtonDir(), cfg.Wine.Version)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// SetDefaultWineVersion points the global default at the build directory
// winePath, preserving unrelated keys already present in the runner config.
func SetDefaultWineVersion(r *paths.Resolver, winePath string) error {
	cfgPath := r.WineRunnerConfig()
	if err := os.MkdirAll(filepath.Dir(cfgPath), 0755); err != nil {
		return fmt.Errorf("create runners directory: %w", err)
	}

	doc := map[string]any{}
	if data, err := os.ReadFile(cfgPath); err == nil {
		if err := yaml.Unmarshal(data, &doc); err != nil || doc == nil {
			doc = map[string]any{}
		}
	}

	wine, _ := doc["wine"].(map[string]any)
	if wine == nil {
		wine = map[string]any{}
	}
	// Lutris expects the path of the wine binary, which Proton builds name
	// "proton".
	wine["custom_wine_path"] = filepath.Join(winePath, "proton")
	doc["wine"] = wine

	out, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("serialize wine config: %w", err)
	}
	if err := os.WriteFile(cfgPath, out, 0644); err != nil {
		return fmt.Errorf("write wine config: %w", err)
	}
	return nil
}
