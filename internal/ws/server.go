package ws

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/gamedock/backend/internal/config"
	"github.com/gamedock/backend/internal/launcher"
	"github.com/gamedock/backend/internal/logbuf"
	"github.com/gamedock/backend/internal/lutris"
	"github.com/gamedock/backend/internal/paths"
	"github.com/gamedock/backend/internal/proton"
	"github.com/gamedock/backend/internal/sysinfo"
)

type Server struct {
	config      *config.Config
	registry    *logbuf.Registry
	broadcaster *Broadcaster
	launcher    *launcher.Launcher
	resolver    *paths.Resolver
	proton      *proton.Client

	allowedOrigins map[string]bool
	allowedHosts   map[string]bool
	authToken      string
}

func NewServer(cfg *config.Config, registry *logbuf.Registry, broadcaster *Broadcaster, l *launcher.Launcher, resolver *paths.Resolver, allowedOrigins []string, authToken string) *Server {
	s := &Server{
		config:         cfg,
		registry:       registry,
		broadcaster:    broadcaster,
		launcher:       l,
		resolver:       resolver,
		proton:         proton.NewClient(),
		allowedOrigins: make(map[string]bool),
		allowedHosts:   make(map[string]bool),
		authToken:      authToken,
	}

	for _, origin := range allowedOrigins {
		trimmed := strings.TrimSpace(origin)
		if trimmed == "" {
			continue
		}
		s.allowedOrigins[trimmed] = true
		if parsed, err := url.Parse(trimmed); err == nil && parsed.Host != "" {
			s.allowedHosts[parsed.Host] = true
		}
	}

	return s
}

// SetProtonClient overrides the release client. Must be called before
// SetupRoutes.
func (s *Server) SetProtonClient(c *proton.Client) {
	s.proton = c
}

func (s *Server) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/api/games", s.handleGames)
	mux.HandleFunc("/api/games/", s.handleGameRoutes)
	mux.HandleFunc("/api/wine/versions", s.handleWineVersions)
	mux.HandleFunc("/api/wine/default", s.handleWineDefault)
	mux.HandleFunc("/api/proton/releases", s.handleProtonReleases)
	mux.HandleFunc("/api/proton/download", s.handleProtonDownload)
	mux.HandleFunc("/api/proton", s.handleProtonDelete)
	mux.HandleFunc("/api/system", s.handleSystem)
	mux.HandleFunc("/api/lutris", s.handleLutris)
}

func (s *Server) openDB() (*lutris.DB, error) {
	return lutris.OpenDB(s.resolver.Database())
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	if !s.authorize(r) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	upgrader := websocket.Upgrader{
		CheckOrigin: s.checkOrigin,
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade error: %v", err)
		return
	}

	var topics []string
	if raw := r.URL.Query().Get("topics"); raw != "" {
		topics = strings.Split(raw, ",")
	}

	log.Printf("WebSocket client connected: %s (topics: %v)", r.RemoteAddr, topics)
	c := s.broadcaster.AddClient(conn, topics)

	go func() {
		defer func() {
			s.broadcaster.RemoveClient(c)
			log.Printf("WebSocket client disconnected: %s", r.RemoteAddr)
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (s *Server) handleGames(w http.ResponseWriter, r *http.Request) {
	if !s.authorize(r) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	db, err := s.openDB()
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	games, err := lutris.Games(db, s.resolver)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(games)
}

func (s *Server) handleGameRoutes(w http.ResponseWriter, r *http.Request) {
	if !s.authorize(r) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	// Parse: /api/games/{slug}/{action...}
	path := strings.TrimPrefix(r.URL.Path, "/api/games/")
	parts := strings.SplitN(path, "/", 2)
	if len(parts) != 2 || parts[0] == "" {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	slug, err := url.PathUnescape(parts[0])
	if err != nil {
		http.Error(w, "invalid game slug", http.StatusBadRequest)
		return
	}

	switch parts[1] {
	case "launch":
		s.handleLaunch(w, r, slug)
	case "running":
		s.handleRunning(w, r, slug)
	case "log":
		s.handleLog(w, r, slug)
	case "log/save":
		s.handleLogSave(w, r, slug)
	case "wine":
		s.handleGameWine(w, r, slug)
	default:
		http.Error(w, "not found", http.StatusNotFound)
	}
}

func (s *Server) handleLaunch(w http.ResponseWriter, r *http.Request, slug string) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	pid, err := s.launcher.Launch(slug)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"slug":  slug,
		"pid":   pid,
		"topic": logbuf.Topic(slug),
	})
}

func (s *Server) handleRunning(w http.ResponseWriter, r *http.Request, slug string) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// The executable sharpens the process scan but its absence is fine.
	executable := ""
	if db, err := s.openDB(); err == nil {
		if g, err := lutris.GameBySlug(db, s.resolver, slug); err == nil {
			executable = g.Executable
		}
	}

	running, err := s.launcher.Running(slug, executable)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]bool{"running": running})
}

type logResponse struct {
	Slug       string `json:"slug"`
	Log        string `json:"log"`
	TotalLines int    `json:"total_lines"`
	Source     string `json:"source"`
}

func (s *Server) handleLog(w http.ResponseWriter, r *http.Request, slug string) {
	switch r.Method {
	case http.MethodGet:
		s.handleLogGet(w, slug)
	case http.MethodDelete:
		s.registry.Remove(slug)
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleLogGet(w http.ResponseWriter, slug string) {
	if buf, ok := s.registry.Get(slug); ok {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(logResponse{
			Slug:       slug,
			Log:        buf.Snapshot(),
			TotalLines: buf.TotalLines(),
			Source:     "live",
		})
		return
	}

	// No live session; fall back to logs Lutris left on disk.
	path, ok := s.resolver.FindGameLog(slug)
	if !ok {
		http.Error(w, "no log available for "+slug, http.StatusNotFound)
		return
	}
	data, err := os.ReadFile(path)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(logResponse{
		Slug:   slug,
		Log:    string(data),
		Source: "disk",
	})
}

func (s *Server) handleLogSave(w http.ResponseWriter, r *http.Request, slug string) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var content string
	if buf, ok := s.registry.Get(slug); ok {
		content = buf.Snapshot()
	} else if path, ok := s.resolver.FindGameLog(slug); ok {
		data, err := os.ReadFile(path)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		content = string(data)
	} else {
		http.Error(w, "no log available for "+slug, http.StatusNotFound)
		return
	}

	dir := s.resolver.DownloadsDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	name := fmt.Sprintf("%s_lutris_%s.log", slug, time.Now().UTC().Format("20060102_150405"))
	dest := filepath.Join(dir, name)
	if err := os.WriteFile(dest, []byte(content), 0644); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"path": dest})
}

func (s *Server) handleGameWine(w http.ResponseWriter, r *http.Request, slug string) {
	if r.Method != http.MethodPut {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		WinePath string `json:"wine_path"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.WinePath == "" {
		http.Error(w, "wine_path required", http.StatusBadRequest)
		return
	}

	db, err := s.openDB()
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	configPath, err := db.ConfigPathFor(slug)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, lutris.ErrGameNotFound) {
			status = http.StatusNotFound
		}
		http.Error(w, err.Error(), status)
		return
	}

	if err := lutris.SetGameWineVersion(s.resolver.GameConfig(configPath), req.WinePath); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleWineVersions(w http.ResponseWriter, r *http.Request) {
	if !s.authorize(r) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(lutris.ScanWineVersions(s.resolver))
}

func (s *Server) handleWineDefault(w http.ResponseWriter, r *http.Request) {
	if !s.authorize(r) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	switch r.Method {
	case http.MethodGet:
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"path": lutris.DefaultWineVersion(s.resolver),
		})
	case http.MethodPut:
		var req struct {
			WinePath string `json:"wine_path"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.WinePath == "" {
			http.Error(w, "wine_path required", http.StatusBadRequest)
			return
		}
		if err := lutris.SetDefaultWineVersion(s.resolver, req.WinePath); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleProtonReleases(w http.ResponseWriter, r *http.Request) {
	if !s.authorize(r) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	releases, err := s.proton.Releases()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(releases)
}

func (s *Server) handleProtonDownload(w http.ResponseWriter, r *http.Request) {
	if !s.authorize(r) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var release proton.Release
	if err := json.NewDecoder(r.Body).Decode(&release); err != nil || release.TagName == "" || release.DownloadURL == "" {
		http.Error(w, "tag_name and download_url required", http.StatusBadRequest)
		return
	}

	installed, err := s.proton.Download(s.resolver, release, func(p proton.Progress) {
		s.broadcaster.Broadcast(DownloadTopic, WSMessage{
			Type:    MsgDownloadProgress,
			Topic:   DownloadTopic,
			Payload: p,
		})
	})
	if err != nil {
		s.broadcaster.Broadcast(DownloadTopic, WSMessage{
			Type:    MsgError,
			Topic:   DownloadTopic,
			Payload: map[string]string{"tag_name": release.TagName, "error": err.Error()},
		})
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"path": installed})
}

func (s *Server) handleProtonDelete(w http.ResponseWriter, r *http.Request) {
	if !s.authorize(r) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	if r.Method != http.MethodDelete {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Path string `json:"path"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Path == "" {
		http.Error(w, "path required", http.StatusBadRequest)
		return
	}

	if err := proton.Delete(s.resolver, req.Path); err != nil {
		http.Error(w, err.Error(), http.StatusForbidden)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSystem(w http.ResponseWriter, r *http.Request) {
	if !s.authorize(r) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(sysinfo.Collect())
}

func (s *Server) handleLutris(w http.ResponseWriter, r *http.Request) {
	if !s.authorize(r) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(lutris.CheckAvailability(s.config.Lutris.Executable))
}

func (s *Server) authorize(r *http.Request) bool {
	if s.authToken == "" {
		return true
	}

	if r.URL.Query().Get("token") == s.authToken {
		return true
	}

	if r.Header.Get("X-Gamedock-Token") == s.authToken {
		return true
	}

	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") && strings.TrimPrefix(auth, "Bearer ") == s.authToken {
		return true
	}

	return false
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	if len(s.allowedOrigins) > 0 {
		if s.allowedOrigins[origin] {
			return true
		}
		if parsed, err := url.Parse(origin); err == nil && parsed.Host != "" {
			return s.allowedHosts[parsed.Host]
		}
		return false
	}

	parsed, err := url.Parse(origin)
	if err != nil {
		return false
	}

	host := parsed.Host
	if host == "" {
		return false
	}

	if host == r.Host {
		return true
	}

	if strings.HasPrefix(host, "localhost:") || host == "localhost" {
		return true
	}
	if strings.HasPrefix(host, "127.0.0.1:") || host == "127.0.0.1" {
		return true
	}
	if strings.HasPrefix(host, "[::1]:") || host == "::1" {
		return true
	}

	return false
}

func ListenAndServe(host string, port int, mux *http.ServeMux) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	log.Printf("Server listening on %s", addr)
	return http.ListenAndServe(addr, mux)
}
