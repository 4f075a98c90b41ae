package lutris

import (
	"database/sql"
	"errors"
	"fmt"
	"os"

	_ "modernc.org/sqlite"
)

// ErrGameNotFound is returned when a slug has no row in the database.
var ErrGameNotFound = errors.New("game not found")

// DB reads Lutris's pga.db game database. Lutris owns the file; we only
// ever read it, and open a fresh connection per call so a Lutris write
// never collides with a held handle.
type DB struct {
	path string
}

// OpenDB validates that the database file exists and returns a reader
// for it.
func OpenDB(path string) (*DB, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("lutris database not found at %s: %w", path, err)
	}
	return &DB{path: path}, nil
}

func (d *DB) connect() (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?mode=ro&_pragma=busy_timeout(5000)", d.path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open lutris database: %w", err)
	}
	return db, nil
}

// DBGame is one row of the games table, limited to the columns we use.
type DBGame struct {
	ID         int64
	Name       string
	Slug       string
	Runner     string
	Platform   string
	Directory  string
	ConfigPath string
	Installed  bool
	// PlaytimeHours is stored by Lutris as fractional hours.
	PlaytimeHours float64
	// LastPlayed is a unix timestamp, zero when never played.
	LastPlayed int64
}

const gameColumns = `id, coalesce(name, ''), coalesce(slug, ''), coalesce(runner, ''),
	coalesce(platform, ''), coalesce(directory, ''), coalesce(configpath, ''),
	coalesce(installed, 0), coalesce(playtime, 0), coalesce(lastplayed, 0)`

func scanGame(row interface{ Scan(...any) error }) (DBGame, error) {
	var g DBGame
	var installed int
	err := row.Scan(&g.ID, &g.Name, &g.Slug, &g.Runner, &g.Platform,
		&g.Directory, &g.ConfigPath, &installed, &g.PlaytimeHours, &g.LastPlayed)
	g.Installed = installed != 0
	return g, err
}

// InstalledGames lists every installed game, ordered by name.
func (d *DB) InstalledGames() ([]DBGame, error) {
	db, err := d.connect()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.Query("SELECT " + gameColumns + " FROM games WHERE installed = 1 ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("query installed games: %w", err)
	}
	defer rows.Close()

	var games []DBGame
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, fmt.Errorf("scan game row: %w", err)
		}
		games = append(games, g)
	}
	return games, rows.Err()
}

// GameBySlug looks up one game. Returns ErrGameNotFound when absent.
func (d *DB) GameBySlug(slug string) (DBGame, error) {
	db, err := d.connect()
	if err != nil {
		return DBGame{}, err
	}
	defer db.Close()

	row := db.QueryRow("SELECT "+gameColumns+" FROM games WHERE slug = ?", slug)
	g, err := scanGame(row)
	if errors.Is(err, sql.ErrNoRows) {
		return DBGame{}, fmt.Errorf("%w: %s", ErrGameNotFound, slug)
	}
	if err != nil {
		return DBGame{}, fmt.Errorf("query game %s: %w", slug, err)
	}
	return g, nil
}

// ConfigPathFor returns the configpath name of the game's YAML config file.
func (d *DB) ConfigPathFor(slug string) (string, error) {
	g, err := d.GameBySlug(slug)
	if err != nil {
		return "", err
	}
	if g.ConfigPath == "" {
		return "", fmt.Errorf("game %s has no config path in database", slug)
	}
	return g.ConfigPath, nil
}
