// Package paths resolves the on-disk layout of a Lutris installation,
// covering both the system package layout under the XDG directories and the
// flatpak layout under ~/.var/app.
package paths

import (
	"fmt"
	"os"
	"path/filepath"
)

const flatpakAppDir = ".var/app/net.lutris.Lutris"

// Resolver computes Lutris file locations for one home directory. All
// methods are pure path math; only the Find helpers touch the filesystem.
type Resolver struct {
	home    string
	flatpak bool
}

// NewResolver resolves against the current user's home. The flatpak layout
// is used when the flatpak app directory exists and the system one does not.
func NewResolver() (*Resolver, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}
	r := &Resolver{home: home}
	if _, err := os.Stat(filepath.Join(home, ".local/share/lutris")); err == nil {
		return r, nil
	}
	if _, err := os.Stat(filepath.Join(home, flatpakAppDir)); err == nil {
		r.flatpak = true
	}
	return r, nil
}

// NewResolverAt pins the home directory and layout explicitly.
func NewResolverAt(home string, flatpak bool) *Resolver {
	return &Resolver{home: home, flatpak: flatpak}
}

// Flatpak reports whether the resolver uses the flatpak layout.
func (r *Resolver) Flatpak() bool { return r.flatpak }

// DataDir is where Lutris keeps its database, runners and artwork.
func (r *Resolver) DataDir() string {
	if r.flatpak {
		return filepath.Join(r.home, flatpakAppDir, "data/lutris")
	}
	return filepath.Join(r.home, ".local/share/lutris")
}

// ConfigDir is where Lutris keeps per-game and per-runner YAML configs.
func (r *Resolver) ConfigDir() string {
	if r.flatpak {
		return filepath.Join(r.home, flatpakAppDir, "config/lutris")
	}
	return filepath.Join(r.home, ".config/lutris")
}

// CacheDir is where Lutris writes its main log.
func (r *Resolver) CacheDir() string {
	if r.flatpak {
		return filepath.Join(r.home, flatpakAppDir, "cache/lutris")
	}
	return filepath.Join(r.home, ".cache/lutris")
}

// Database is the pga.db SQLite file listing installed games.
func (r *Resolver) Database() string {
	return filepath.Join(r.DataDir(), "pga.db")
}

// GamesDir holds one YAML config per installed game.
func (r *Resolver) GamesDir() string {
	return filepath.Join(r.ConfigDir(), "games")
}

// GameConfig is the YAML config file for the given configpath name, as
// stored in the database (without extension).
func (r *Resolver) GameConfig(name string) string {
	return filepath.Join(r.GamesDir(), name+".yml")
}

// RunnersDir holds Lutris-managed runner builds.
func (r *Resolver) RunnersDir() string {
	return filepath.Join(r.DataDir(), "runners")
}

// WineDir holds Lutris-managed wine builds.
func (r *Resolver) WineDir() string {
	return filepath.Join(r.RunnersDir(), "wine")
}

// ProtonDir holds Proton builds installed for Lutris.
func (r *Resolver) ProtonDir() string {
	return filepath.Join(r.RunnersDir(), "proton")
}

// WineRunnerConfig is the runner-level wine config carrying the global
// default wine version.
func (r *Resolver) WineRunnerConfig() string {
	return filepath.Join(r.ConfigDir(), "runners/wine.yml")
}

// MainLog is the Lutris application log.
func (r *Resolver) MainLog() string {
	return filepath.Join(r.CacheDir(), "lutris.log")
}

// CoverArtDir holds vertical cover art keyed by slug.
func (r *Resolver) CoverArtDir() string {
	return filepath.Join(r.DataDir(), "coverart")
}

// BannersDir holds wide banner art keyed by slug.
func (r *Resolver) BannersDir() string {
	return filepath.Join(r.DataDir(), "banners")
}

// DownloadsDir is where exported logs are written.
func (r *Resolver) DownloadsDir() string {
	return filepath.Join(r.home, "Downloads")
}

// SteamCompatToolDirs lists every compatibilitytools.d location a Proton
// build may live in, for both system and flatpak Steam.
func (r *Resolver) SteamCompatToolDirs() []string {
	return []string{
		filepath.Join(r.home, ".steam/root/compatibilitytools.d"),
		filepath.Join(r.home, ".local/share/Steam/compatibilitytools.d"),
		filepath.Join(r.home, ".var/app/com.valvesoftware.Steam/data/Steam/compatibilitytools.d"),
	}
}

// WineScanLocations lists every directory scanned for wine and Proton
// builds, labeled by origin.
func (r *Resolver) WineScanLocations() []ScanLocation {
	locs := []ScanLocation{
		{Dir: r.WineDir(), Source: "lutris"},
		{Dir: r.ProtonDir(), Source: "proton"},
	}
	for _, d := range r.SteamCompatToolDirs() {
		locs = append(locs, ScanLocation{Dir: d, Source: "steam"})
	}
	return locs
}

// ScanLocation is one directory holding runner builds plus a label for
// where it belongs to.
type ScanLocation struct {
	Dir    string
	Source string
}

// GameLogCandidates lists the disk log files a finished or externally
// launched game may have written, most specific first.
func (r *Resolver) GameLogCandidates(slug string) []string {
	return []string{
		filepath.Join(r.CacheDir(), slug+".log"),
		filepath.Join(r.home, "steam-0.log"),
		r.MainLog(),
	}
}

// FindGameLog returns the first existing non-empty disk log for slug.
func (r *Resolver) FindGameLog(slug string) (string, bool) {
	for _, p := range r.GameLogCandidates(slug) {
		if info, err := os.Stat(p); err == nil && info.Size() > 0 {
			return p, true
		}
	}
	return "", false
}

// FindCoverArt returns the path of the slug's cover image, preferring
// vertical cover art over banners.
func (r *Resolver) FindCoverArt(slug string) (string, bool) {
	candidates := []string{
		filepath.Join(r.CoverArtDir(), slug+".jpg"),
		filepath.Join(r.CoverArtDir(), slug+".png"),
		filepath.Join(r.BannersDir(), slug+".jpg"),
		filepath.Join(r.BannersDir(), slug+".png"),
	}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p, true
		}
	}
	return "", false
}
