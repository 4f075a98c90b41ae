package proton

import (
	"archive/tar"
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"

	"github.com/gamedock/backend/internal/paths"
)

// buildTarGz packs files (path -> content) into a gzipped tarball.
func buildTarGz(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	for name, content := range files {
		hdr := &tar.Header{
			Name: name,
			Mode: 0755,
			Size: int64(len(content)),
		}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatal(err)
		}
		if _, err := tw.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := gz.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestDownloadInstallsBuild(t *testing.T) {
	archive := buildTarGz(t, map[string]string{
		"GE-Proton10-3/proton":  "#!/bin/sh\n",
		"GE-Proton10-3/version": "1762104463 GE-Proton10-3\n",
	})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(archive)
	}))
	defer srv.Close()

	home := t.TempDir()
	r := paths.NewResolverAt(home, false)
	c := NewClient()

	var updates []Progress
	got, err := c.Download(r, Release{
		TagName:     "GE-Proton10-3",
		DownloadURL: srv.URL + "/GE-Proton10-3.tar.gz",
	}, func(p Progress) { updates = append(updates, p) })
	if err != nil {
		t.Fatalf("Download() error: %v", err)
	}

	want := filepath.Join(r.ProtonDir(), "gamedock-GE-Proton10-3")
	if got != want {
		t.Errorf("Download() = %q, want %q", got, want)
	}
	if _, err := os.Stat(filepath.Join(want, "proton")); err != nil {
		t.Errorf("extracted proton binary missing: %v", err)
	}
	// The unprefixed directory must not remain.
	if _, err := os.Stat(filepath.Join(r.ProtonDir(), "GE-Proton10-3")); !os.IsNotExist(err) {
		t.Error("unprefixed extracted directory left behind")
	}

	if len(updates) == 0 {
		t.Fatal("no progress updates delivered")
	}
	last := updates[len(updates)-1]
	if !last.Extracting || last.Percent != 100 {
		t.Errorf("final progress = %+v, want extracting at 100%%", last)
	}
}

func TestDownloadRefusesAlreadyInstalled(t *testing.T) {
	home := t.TempDir()
	r := paths.NewResolverAt(home, false)
	if err := os.MkdirAll(filepath.Join(r.ProtonDir(), "gamedock-GE-Proton10-3"), 0755); err != nil {
		t.Fatal(err)
	}

	c := NewClient()
	_, err := c.Download(r, Release{TagName: "GE-Proton10-3", DownloadURL: "http://unused"}, nil)
	if err == nil {
		t.Fatal("Download() should refuse an already-installed version")
	}
}

func TestDownloadRefusesVersionInstalledElsewhere(t *testing.T) {
	home := t.TempDir()
	r := paths.NewResolverAt(home, false)
	steamDir := filepath.Join(home, ".local/share/Steam/compatibilitytools.d/GE-Proton10-3")
	if err := os.MkdirAll(steamDir, 0755); err != nil {
		t.Fatal(err)
	}

	c := NewClient()
	_, err := c.Download(r, Release{TagName: "GE-Proton10-3", DownloadURL: "http://unused"}, nil)
	if err == nil {
		t.Fatal("Download() should refuse a version already present in a Steam directory")
	}
}

func TestDownloadHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	r := paths.NewResolverAt(t.TempDir(), false)
	c := NewClient()
	_, err := c.Download(r, Release{TagName: "GE-Proton10-3", DownloadURL: srv.URL}, nil)
	if err == nil {
		t.Fatal("Download() should fail on a non-200 response")
	}
}

func TestExtractTarGzRejectsEscapingEntries(t *testing.T) {
	archive := buildTarGz(t, map[string]string{
		"../outside.txt": "escape",
	})

	dest := t.TempDir()
	err := extractTarGz(bytes.NewReader(archive), dest)
	if err == nil {
		t.Fatal("extractTarGz should reject entries escaping the destination")
	}
	if _, statErr := os.Stat(filepath.Join(filepath.Dir(dest), "outside.txt")); !os.IsNotExist(statErr) {
		t.Error("escaping entry was written outside the destination")
	}
}
