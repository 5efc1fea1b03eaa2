// Package store keeps the league's teams and games in Postgres. It is the table the game feed
// writes into; derived standings are never stored.
package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/utakatalp/playoff-picture/internal/league"
)

// Store wraps a Postgres connection and provides methods to persist and retrieve league data.
type Store struct {
	DB *sql.DB
}

// NewStore opens a Postgres connection using the given connection string.
func NewStore(ctx context.Context, connStr string) (*Store, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// verify early
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return &Store{DB: db}, nil
}

// Close releases the connection pool.
func (s *Store) Close() error { return s.DB.Close() }

// Migrate creates the necessary tables if they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS teams (
		    id         TEXT PRIMARY KEY,
		    name       TEXT NOT NULL DEFAULT '',
		    conference TEXT NOT NULL,
		    division   TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS games (
		    id         TEXT PRIMARY KEY,
		    week       INT  NOT NULL,
		    home_team  TEXT NOT NULL,
		    away_team  TEXT NOT NULL,
		    status     TEXT NOT NULL DEFAULT 'scheduled',
		    home_score INT,
		    away_score INT
		);`,
		`CREATE INDEX IF NOT EXISTS games_week_idx ON games (week, id);`,
	}
	for _, q := range queries {
		if _, err := s.DB.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("migrating: %w", err)
		}
	}
	return nil
}

// InsertTeams adds teams, updating the name and alignment of ids already present.
func (s *Store) InsertTeams(ctx context.Context, teams []league.Team) error {
	const q = `
    INSERT INTO teams (id, name, conference, division)
    VALUES ($1, $2, $3, $4)
    ON CONFLICT (id) DO UPDATE
    SET name = EXCLUDED.name, conference = EXCLUDED.conference, division = EXCLUDED.division
    `
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin InsertTeams tx: %w", err)
	}
	defer tx.Rollback()

	for _, t := range teams {
		if _, err := tx.ExecContext(ctx, q, t.ID, t.Name, string(t.Conference), string(t.Division)); err != nil {
			return fmt.Errorf("inserting team %s: %w", t.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit InsertTeams tx: %w", err)
	}
	return nil
}

// UpsertGames inserts games or replaces the stored schedule, status and score of known ids.
func (s *Store) UpsertGames(ctx context.Context, games []league.Game) error {
	const q = `
    INSERT INTO games (id, week, home_team, away_team, status, home_score, away_score)
    VALUES ($1, $2, $3, $4, $5, $6, $7)
    ON CONFLICT (id) DO UPDATE
    SET week       = EXCLUDED.week,
        home_team  = EXCLUDED.home_team,
        away_team  = EXCLUDED.away_team,
        status     = EXCLUDED.status,
        home_score = EXCLUDED.home_score,
        away_score = EXCLUDED.away_score
    `
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin UpsertGames tx: %w", err)
	}
	defer tx.Rollback()

	for _, g := range games {
		home, away := scoreColumns(g.Score)
		if _, err := tx.ExecContext(ctx, q, g.ID, g.Week, g.Home, g.Away, g.Status.String(), home, away); err != nil {
			return fmt.Errorf("saving game %s: %w", g.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit UpsertGames tx: %w", err)
	}
	return nil
}

// Teams returns every stored team ordered by id.
func (s *Store) Teams(ctx context.Context) ([]league.Team, error) {
	const q = `
        SELECT id, name, conference, division
        FROM teams
        ORDER BY id
    `
	rows, err := s.DB.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("querying teams: %w", err)
	}
	defer rows.Close()

	var teams []league.Team
	for rows.Next() {
		var (
			t          league.Team
			conference string
			division   string
		)
		if err := rows.Scan(&t.ID, &t.Name, &conference, &division); err != nil {
			return nil, fmt.Errorf("scanning team row: %w", err)
		}
		t.Conference = league.Conference(conference)
		t.Division = league.Division(division)
		teams = append(teams, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating teams rows: %w", err)
	}
	return teams, nil
}

// Games returns every stored game ordered by week, then id.
func (s *Store) Games(ctx context.Context) ([]league.Game, error) {
	const q = `
SELECT id, week, home_team, away_team, status, home_score, away_score
FROM games
ORDER BY week, id;
`
	rows, err := s.DB.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("querying games: %w", err)
	}
	defer rows.Close()

	var games []league.Game
	for rows.Next() {
		var (
			g         league.Game
			status    string
			homeScore sql.NullInt64
			awayScore sql.NullInt64
		)
		if err := rows.Scan(&g.ID, &g.Week, &g.Home, &g.Away, &status, &homeScore, &awayScore); err != nil {
			return nil, fmt.Errorf("scanning game: %w", err)
		}
		if g.Status, err = league.ParseGameStatus(status); err != nil {
			return nil, fmt.Errorf("game %s: %w", g.ID, err)
		}
		g.Score = scoreFromColumns(homeScore, awayScore)
		games = append(games, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating games rows: %w", err)
	}
	return games, nil
}

// DeleteAllGames empties the games table.
func (s *Store) DeleteAllGames(ctx context.Context) error {
	if _, err := s.DB.ExecContext(ctx, `DELETE FROM games;`); err != nil {
		return fmt.Errorf("deleting all games: %w", err)
	}
	return nil
}

// DeleteAllTeams empties the teams table.
func (s *Store) DeleteAllTeams(ctx context.Context) error {
	if _, err := s.DB.ExecContext(ctx, `DELETE FROM teams;`); err != nil {
		return fmt.Errorf("deleting all teams: %w", err)
	}
	return nil
}

func scoreColumns(sc *league.Score) (home, away sql.NullInt64) {
	if sc == nil {
		return home, away
	}
	return sql.NullInt64{Int64: int64(sc.Home), Valid: true}, sql.NullInt64{Int64: int64(sc.Away), Valid: true}
}

// A score is only kept when both sides are present.
func scoreFromColumns(home, away sql.NullInt64) *league.Score {
	if !home.Valid || !away.Valid {
		return nil
	}
	return &league.Score{Home: int(home.Int64), Away: int(away.Int64)}
}
