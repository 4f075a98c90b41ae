package lutris

import (
	"time"

	"github.com/gamedock/backend/internal/paths"
)

// Game merges a database row with the game's YAML config and artwork into
// the shape served to clients.
type Game struct {
	Slug            string `json:"slug"`
	Name            string `json:"name"`
	Runner          string `json:"runner,omitempty"`
	Platform        string `json:"platform,omitempty"`
	Directory       string `json:"directory,omitempty"`
	PlaytimeSeconds int64  `json:"playtime_seconds"`
	LastPlayed      string `json:"last_played,omitempty"`
	Executable      string `json:"executable,omitempty"`
	WineVersion     string `json:"wine_version,omitempty"`
	WinePrefix      string `json:"wine_prefix,omitempty"`
	EnvironmentVars string `json:"environment_vars,omitempty"`
	CoverPath       string `json:"cover_path,omitempty"`
}

// Games lists installed games with their config and artwork merged in.
// A game whose YAML config is missing or unreadable still appears with the
// database fields alone.
func Games(db *DB, r *paths.Resolver) ([]Game, error) {
	rows, err := db.InstalledGames()
	if err != nil {
		return nil, err
	}

	games := make([]Game, 0, len(rows))
	for _, row := range rows {
		if row.Slug == "" || row.Name == "" {
			continue
		}
		games = append(games, mergeGame(row, r))
	}
	return games, nil
}

// GameBySlug is the single-game variant of Games.
func GameBySlug(db *DB, r *paths.Resolver, slug string) (Game, error) {
	row, err := db.GameBySlug(slug)
	if err != nil {
		return Game{}, err
	}
	return mergeGame(row, r), nil
}

func mergeGame(row DBGame, r *paths.Resolver) Game {
	g := Game{
		Slug:            row.Slug,
		Name:            row.Name,
		Runner:          row.Runner,
		Platform:        row.Platform,
		Directory:       row.Directory,
		PlaytimeSeconds: int64(row.PlaytimeHours * 3600),
	}
	if row.LastPlayed > 0 {
		g.LastPlayed = time.Unix(row.LastPlayed, 0).UTC().Format(time.RFC3339)
	}
	if cover, ok := r.FindCoverArt(row.Slug); ok {
		g.CoverPath = cover
	}

	if row.ConfigPath == "" {
		return g
	}
	cfg, err := LoadGameConfig(r.GameConfig(row.ConfigPath))
	if err != nil {
		return g
	}
	g.Executable = cfg.Executable(row.Directory)
	g.WinePrefix = cfg.Prefix(row.Directory)
	g.WineVersion = cfg.WineVersionPath(r.ProtonDir())
	g.EnvironmentVars = cfg.EnvString()
	return g
}
