// Package proton manages GE-Proton builds: listing upstream releases,
// downloading and installing them into the Lutris runners tree, and removing
// installed builds.
package proton

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const defaultReleasesURL = "https://api.github.com/repos/GloriousEggroll/proton-ge-custom/releases"

// maxReleases caps how many upstream releases are offered.
const maxReleases = 5

// Release is one downloadable GE-Proton version.
type Release struct {
	TagName     string  `json:"tag_name"`
	Name        string  `json:"name"`
	PublishedAt string  `json:"published_at"`
	DownloadURL string  `json:"download_url"`
	SizeMB      float64 `json:"size_mb"`
}

// Client talks to the GE-Proton release feed.
type Client struct {
	httpClient  *http.Client
	releasesURL string
}

func NewClient() *Client {
	return &Client{
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		releasesURL: defaultReleasesURL,
	}
}

// SetReleasesURL overrides the release feed endpoint.
func (c *Client) SetReleasesURL(url string) { c.releasesURL = url }

type githubRelease struct {
	TagName     string `json:"tag_name"`
	Name        string `json:"name"`
	PublishedAt string `json:"published_at"`
	Assets      []struct {
		Name               string `json:"name"`
		BrowserDownloadURL string `json:"browser_download_url"`
		Size               int64  `json:"size"`
	} `json:"assets"`
}

// Releases fetches the newest GE-Proton releases that carry a .tar.gz
// build asset.
func (c *Client) Releases() ([]Release, error) {
	req, err := http.NewRequest(http.MethodGet, c.releasesURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "gamedock")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch releases: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch releases: unexpected status %s", resp.Status)
	}

	var ghReleases []githubRelease
	if err := json.NewDecoder(resp.Body).Decode(&ghReleases); err != nil {
		return nil, fmt.Errorf("parse releases: %w", err)
	}

	var releases []Release
	for _, gr := range ghReleases {
		if len(releases) >= maxReleases {
			break
		}
		for _, asset := range gr.Assets {
			if strings.HasSuffix(asset.Name, ".tar.gz") && !strings.HasSuffix(asset.Name, ".sha512sum") {
				releases = append(releases, Release{
					TagName:     gr.TagName,
					Name:        gr.Name,
					PublishedAt: gr.PublishedAt,
					DownloadURL: asset.BrowserDownloadURL,
					SizeMB:      float64(asset.Size) / 1024 / 1024,
				})
				break
			}
		}
	}
	return releases, nil
}
