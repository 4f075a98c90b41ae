package proton

import (
	"archive/tar"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/gamedock/backend/internal/lutris"
	"github.com/gamedock/backend/internal/paths"
)

// installPrefix marks builds installed by this service, keeping them apart
// from Lutris-managed ones in the same directory.
const installPrefix = "gamedock-"

// Progress reports download state to a subscriber.
type Progress struct {
	TagName    string `json:"tag_name"`
	Downloaded int64  `json:"downloaded"`
	Total      int64  `json:"total"`
	Percent    int    `json:"percent"`
	Extracting bool   `json:"extracting,omitempty"`
}

// ProgressFunc receives progress updates during Download. May be nil.
type ProgressFunc func(Progress)

// Download fetches the GE-Proton build for release and installs it under
// the Lutris proton directory as <installPrefix><tag>. It refuses to
// install a version that already exists in any scanned runner directory.
func (c *Client) Download(r *paths.Resolver, release Release, onProgress ProgressFunc) (string, error) {
	protonDir := r.ProtonDir()
	if err := os.MkdirAll(protonDir, 0755); err != nil {
		return "", fmt.Errorf("create proton directory: %w", err)
	}

	installed := filepath.Join(protonDir, installPrefix+release.TagName)
	if _, err := os.Stat(installed); err == nil {
		return "", fmt.Errorf("%s is already installed at %s", release.TagName, installed)
	}
	for _, v := range lutris.ScanWineVersions(r) {
		name := strings.SplitN(v.DisplayName, " (", 2)[0]
		if name == release.TagName || strings.HasSuffix(v.Path, release.TagName) {
			return "", fmt.Errorf("%s is already installed at %s", release.TagName, v.Path)
		}
	}

	req, err := http.NewRequest(http.MethodGet, release.DownloadURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", "gamedock")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("download %s: %w", release.TagName, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download %s: unexpected status %s", release.TagName, resp.Status)
	}

	log.Printf("downloading %s (%.1f MB)", release.TagName, release.SizeMB)
	body := &progressReader{
		r:     resp.Body,
		total: resp.ContentLength,
		tag:   release.TagName,
		fn:    onProgress,
	}

	if err := extractTarGz(body, protonDir); err != nil {
		return "", fmt.Errorf("extract %s: %w", release.TagName, err)
	}

	if onProgress != nil {
		onProgress(Progress{
			TagName: release.TagName, Downloaded: body.read, Total: body.total,
			Percent: 100, Extracting: true,
		})
	}

	// The archive unpacks to the bare tag name; rename to claim it.
	extracted := filepath.Join(protonDir, release.TagName)
	if _, err := os.Stat(extracted); err != nil {
		return "", fmt.Errorf("expected extracted directory %s: %w", extracted, err)
	}
	if err := os.Rename(extracted, installed); err != nil {
		return "", fmt.Errorf("rename extracted build: %w", err)
	}

	log.Printf("installed %s as %s", release.TagName, filepath.Base(installed))
	return installed, nil
}

type progressReader struct {
	r     io.Reader
	total int64
	read  int64
	tag   string
	fn    ProgressFunc

	lastPercent int
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	p.read += int64(n)
	if p.fn != nil && p.total > 0 {
		percent := int(float64(p.read) / float64(p.total) * 100)
		if percent != p.lastPercent {
			p.lastPercent = percent
			p.fn(Progress{
				TagName: p.tag, Downloaded: p.read, Total: p.total, Percent: percent,
			})
		}
	}
	return n, err
}

// extractTarGz streams a gzipped tarball into dest, rejecting entries that
// would escape it.
func extractTarGz(r io.Reader, dest string) error {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return fmt.Errorf("open gzip stream: %w", err)
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read tar entry: %w", err)
		}

		target := filepath.Join(dest, hdr.Name)
		rel, err := filepath.Rel(dest, target)
		if err != nil || strings.HasPrefix(rel, "..") {
			return fmt.Errorf("archive entry %q escapes destination", hdr.Name)
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, os.FileMode(hdr.Mode)); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return err
			}
			f, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, os.FileMode(hdr.Mode))
			if err != nil {
				return err
			}
			if _, err := io.Copy(f, tr); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
		case tar.TypeSymlink:
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return err
			}
			if err := os.Symlink(hdr.Linkname, target); err != nil && !os.IsExist(err) {
				return err
			}
		}
	}
}
