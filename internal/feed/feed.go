// Package feed loads the season inputs the engine runs on: teams, games, selections and the
// external playoff games.
package feed

import (
	"context"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/utakatalp/playoff-picture/internal/bracket"
	"github.com/utakatalp/playoff-picture/internal/league"
)

// ErrUnknownSource is returned when no game source is configured.
var ErrUnknownSource = errors.New("unknown feed source")

// Season is one snapshot of inputs.
type Season struct {
	Teams      []league.Team          `json:"teams" yaml:"teams"`
	Games      []league.Game          `json:"games" yaml:"games"`
	Selections league.Selections      `json:"selections,omitempty" yaml:"selections,omitempty"`
	Playoffs   []bracket.ExternalGame `json:"playoffs,omitempty" yaml:"playoffs,omitempty"`
}

// League indexes the snapshot's teams.
func (s *Season) League() *league.League { return league.NewLeague(s.Teams) }

// Source produces a season snapshot.
type Source interface {
	Load(ctx context.Context) (*Season, error)
}

// ParseSnapshot decodes a YAML or JSON snapshot.
func ParseSnapshot(data []byte) (*Season, error) {
	var s Season
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decoding snapshot: %w", err)
	}
	if len(s.Teams) == 0 {
		return nil, fmt.Errorf("decoding snapshot: no teams")
	}
	return &s, nil
}

// LoadSnapshot reads and decodes a snapshot file.
func LoadSnapshot(path string) (*Season, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}
	return ParseSnapshot(data)
}

// FileSource loads a snapshot file on every call.
type FileSource struct {
	Path string
}

func (f FileSource) Load(ctx context.Context) (*Season, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return LoadSnapshot(f.Path)
}

// GameStore is the read side of a database holding teams and games.
type GameStore interface {
	Teams(ctx context.Context) ([]league.Team, error)
	Games(ctx context.Context) ([]league.Game, error)
}

// StoreSource loads teams and games from a database. Selections and playoff games are not stored.
type StoreSource struct {
	Store GameStore
}

func (s StoreSource) Load(ctx context.Context) (*Season, error) {
	teams, err := s.Store.Teams(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading teams: %w", err)
	}
	games, err := s.Store.Games(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading games: %w", err)
	}
	return &Season{Teams: teams, Games: games}, nil
}

// Open picks a source: the snapshot file when a path is given, else the store.
func Open(snapshotPath string, store GameStore) (Source, error) {
	switch {
	case snapshotPath != "":
		return FileSource{Path: snapshotPath}, nil
	case store != nil:
		return StoreSource{Store: store}, nil
	}
	return nil, ErrUnknownSource
}
