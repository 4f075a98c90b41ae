package paths

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSystemLayout(t *testing.T) {
	r := NewResolverAt("/home/alice", false)

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"DataDir", r.DataDir(), "/home/alice/.local/share/lutris"},
		{"ConfigDir", r.ConfigDir(), "/home/alice/.config/lutris"},
		{"CacheDir", r.CacheDir(), "/home/alice/.cache/lutris"},
		{"Database", r.Database(), "/home/alice/.local/share/lutris/pga.db"},
		{"GamesDir", r.GamesDir(), "/home/alice/.config/lutris/games"},
		{"GameConfig", r.GameConfig("elden-ring-1680000000"), "/home/alice/.config/lutris/games/elden-ring-1680000000.yml"},
		{"WineDir", r.WineDir(), "/home/alice/.local/share/lutris/runners/wine"},
		{"ProtonDir", r.ProtonDir(), "/home/alice/.local/share/lutris/runners/proton"},
		{"WineRunnerConfig", r.WineRunnerConfig(), "/home/alice/.config/lutris/runners/wine.yml"},
		{"MainLog", r.MainLog(), "/home/alice/.cache/lutris/lutris.log"},
		{"DownloadsDir", r.DownloadsDir(), "/home/alice/Downloads"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %q, want %q", tt.name, tt.got, tt.want)
		}
	}
}

func TestFlatpakLayout(t *testing.T) {
	r := NewResolverAt("/home/alice", true)

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"DataDir", r.DataDir(), "/home/alice/.var/app/net.lutris.Lutris/data/lutris"},
		{"ConfigDir", r.ConfigDir(), "/home/alice/.var/app/net.lutris.Lutris/config/lutris"},
		{"CacheDir", r.CacheDir(), "/home/alice/.var/app/net.lutris.Lutris/cache/lutris"},
		{"Database", r.Database(), "/home/alice/.var/app/net.lutris.Lutris/data/lutris/pga.db"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %q, want %q", tt.name, tt.got, tt.want)
		}
	}
	if !r.Flatpak() {
		t.Error("Flatpak() = false, want true")
	}
}

func TestSteamCompatToolDirs(t *testing.T) {
	r := NewResolverAt("/home/alice", false)
	dirs := r.SteamCompatToolDirs()
	if len(dirs) != 3 {
		t.Fatalf("got %d compat tool dirs, want 3", len(dirs))
	}
	for _, d := range dirs {
		if filepath.Base(d) != "compatibilitytools.d" {
			t.Errorf("dir %q does not end in compatibilitytools.d", d)
		}
	}
}

func TestWineScanLocations(t *testing.T) {
	r := NewResolverAt("/home/alice", false)
	locs := r.WineScanLocations()
	if len(locs) != 5 {
		t.Fatalf("got %d scan locations, want 5", len(locs))
	}
	if locs[0].Source != "lutris" || locs[0].Dir != r.WineDir() {
		t.Errorf("first location = %+v, want lutris wine dir", locs[0])
	}
	if locs[1].Source != "proton" {
		t.Errorf("second location source = %q, want proton", locs[1].Source)
	}
	for _, l := range locs[2:] {
		if l.Source != "steam" {
			t.Errorf("location %q source = %q, want steam", l.Dir, l.Source)
		}
	}
}

func TestFindGameLog(t *testing.T) {
	home := t.TempDir()
	r := NewResolverAt(home, false)

	if _, ok := r.FindGameLog("elden-ring"); ok {
		t.Fatal("FindGameLog found a log in an empty home")
	}

	// Empty files don't count.
	if err := os.MkdirAll(r.CacheDir(), 0755); err != nil {
		t.Fatal(err)
	}
	slugLog := filepath.Join(r.CacheDir(), "elden-ring.log")
	if err := os.WriteFile(slugLog, nil, 0644); err != nil {
		t.Fatal(err)
	}
	if _, ok := r.FindGameLog("elden-ring"); ok {
		t.Error("FindGameLog returned an empty log file")
	}

	// The main log is a fallback; the per-slug log wins when both exist.
	if err := os.WriteFile(r.MainLog(), []byte("main log\n"), 0644); err != nil {
		t.Fatal(err)
	}
	got, ok := r.FindGameLog("elden-ring")
	if !ok || got != r.MainLog() {
		t.Errorf("FindGameLog = (%q, %v), want main log fallback", got, ok)
	}

	if err := os.WriteFile(slugLog, []byte("game output\n"), 0644); err != nil {
		t.Fatal(err)
	}
	got, ok = r.FindGameLog("elden-ring")
	if !ok || got != slugLog {
		t.Errorf("FindGameLog = (%q, %v), want per-slug log %q", got, ok, slugLog)
	}
}

func TestFindCoverArt(t *testing.T) {
	home := t.TempDir()
	r := NewResolverAt(home, false)

	if _, ok := r.FindCoverArt("elden-ring"); ok {
		t.Fatal("FindCoverArt found art in an empty home")
	}

	if err := os.MkdirAll(r.BannersDir(), 0755); err != nil {
		t.Fatal(err)
	}
	banner := filepath.Join(r.BannersDir(), "elden-ring.jpg")
	if err := os.WriteFile(banner, []byte("jpg"), 0644); err != nil {
		t.Fatal(err)
	}
	got, ok := r.FindCoverArt("elden-ring")
	if !ok || got != banner {
		t.Errorf("FindCoverArt = (%q, %v), want banner %q", got, ok, banner)
	}

	// Cover art beats banners.
	if err := os.MkdirAll(r.CoverArtDir(), 0755); err != nil {
		t.Fatal(err)
	}
	cover := filepath.Join(r.CoverArtDir(), "elden-ring.jpg")
	if err := os.WriteFile(cover, []byte("jpg"), 0644); err != nil {
		t.Fatal(err)
	}
	got, ok = r.FindCoverArt("elden-ring")
	if !ok || got != cover {
		t.Errorf("FindCoverArt = (%q, %v), want cover %q", got, ok, cover)
	}
}
