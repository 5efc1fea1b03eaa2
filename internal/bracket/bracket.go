// Package bracket reconciles playoff matchups computed from seeding with an external, possibly
// stale, feed of playoff games and a user pick overlay.
package bracket

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/utakatalp/playoff-picture/internal/league"
)

// Round is a playoff round.
type Round int

const (
	RoundWildCard Round = iota + 1
	RoundDivisional
	RoundChampionship
	RoundSuperBowl
)

// Rounds lists every round in playing order.
var Rounds = []Round{RoundWildCard, RoundDivisional, RoundChampionship, RoundSuperBowl}

func (r Round) String() string {
	switch r {
	case RoundWildCard:
		return "wild_card"
	case RoundDivisional:
		return "divisional"
	case RoundChampionship:
		return "championship"
	case RoundSuperBowl:
		return "super_bowl"
	}
	return fmt.Sprintf("Round(%d)", int(r))
}

// ParseRound maps a round name to the enum.
func ParseRound(s string) (Round, error) {
	for _, r := range Rounds {
		if r.String() == s {
			return r, nil
		}
	}
	return 0, fmt.Errorf("unknown round %q", s)
}

func (r Round) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

func (r *Round) UnmarshalText(b []byte) error {
	v, err := ParseRound(string(b))
	if err != nil {
		return err
	}
	*r = v
	return nil
}

// Stage is the first round still undecided, or StageComplete once a champion is known.
type Stage int

const (
	StageWildCard Stage = iota + 1
	StageDivisional
	StageChampionship
	StageSuperBowl
	StageComplete
)

func (s Stage) String() string {
	if s == StageComplete {
		return "complete"
	}
	return Round(s).String()
}

func (s Stage) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Source says where a matchup's teams came from.
type Source int

const (
	// SourceComputed matchups are derived from seeds and earlier winners.
	SourceComputed Source = iota + 1
	// SourceExternal matchups are copied from the feed because an earlier round is undecided.
	SourceExternal
)

func (s Source) String() string {
	switch s {
	case SourceComputed:
		return "computed"
	case SourceExternal:
		return "external"
	}
	return fmt.Sprintf("Source(%d)", int(s))
}

func (s Source) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Seeded is a team with its conference seed; Seed is 0 when unknown.
type Seeded struct {
	TeamID string `json:"team_id"`
	Seed   int    `json:"seed"`
}

// ExternalGame is a playoff game as reported by the feed. Only WinnerID is trusted once a
// matchup can be computed.
type ExternalGame struct {
	Round      Round             `json:"round" yaml:"round"`
	Conference league.Conference `json:"conference,omitempty" yaml:"conference"`
	HomeID     string            `json:"home_id" yaml:"home_id"`
	AwayID     string            `json:"away_id" yaml:"away_id"`
	WinnerID   string            `json:"winner_id,omitempty" yaml:"winner_id"`
}

// Matchup is one playoff game. High holds the better seed.
type Matchup struct {
	Round      Round             `json:"round"`
	Conference league.Conference `json:"conference,omitempty"`
	Slot       int               `json:"slot"`
	High       Seeded            `json:"high"`
	Low        Seeded            `json:"low"`
	Winner     string            `json:"winner,omitempty"`
	Source     Source            `json:"source"`
}

// Key returns the pick key of the matchup.
func (m Matchup) Key() PickKey { return PickKey{Round: m.Round, Conference: m.Conference, Slot: m.Slot} }

// Has reports whether teamID plays in the matchup.
func (m Matchup) Has(teamID string) bool {
	return teamID != "" && (m.High.TeamID == teamID || m.Low.TeamID == teamID)
}

func (m Matchup) winnerSeeded() Seeded {
	if m.Winner == m.Low.TeamID {
		return m.Low
	}
	return m.High
}

// Bracket is the reconciled playoff tree.
type Bracket struct {
	Matchups []Matchup                   `json:"matchups"`
	Stages   map[league.Conference]Stage `json:"stages"`
	Stage    Stage                       `json:"stage"`
	Champion string                      `json:"champion,omitempty"`
}

// Round returns the matchups of one round and conference, in slot order. The Super Bowl has no
// conference.
func (b Bracket) Round(r Round, conf league.Conference) []Matchup {
	var out []Matchup
	for _, m := range b.Matchups {
		if m.Round == r && m.Conference == conf {
			out = append(out, m)
		}
	}
	return out
}

// wildCardPairs are the seed pairings of the first round; seed 1 sits out.
var wildCardPairs = [][2]int{{2, 7}, {3, 6}, {4, 5}}

// Reconcile builds the bracket. seeds maps each conference to its seeding order (seeds[i] is
// seed i+1).
func Reconcile(seeds map[league.Conference][]string, external []ExternalGame, picks Picks) Bracket {
	r := reconciler{seeds: seeds, external: external, picks: picks}
	b := Bracket{Stages: make(map[league.Conference]Stage, len(league.Conferences))}

	var champions []Seeded
	for _, conf := range league.Conferences {
		stage := StageSuperBowl
		prev := r.wildCard(conf)
		b.Matchups = append(b.Matchups, prev...)
		if !decided(prev) {
			stage = StageWildCard
		}

		for _, round := range []Round{RoundDivisional, RoundChampionship} {
			var cur []Matchup
			if decided(prev) {
				cur = r.advance(round, conf, prev)
			} else {
				cur = r.fromFeed(round, conf)
			}
			b.Matchups = append(b.Matchups, cur...)
			if stage == StageSuperBowl && !decided(cur) {
				stage = Stage(round)
			}
			prev = cur
		}
		b.Stages[conf] = stage
		if decided(prev) && len(prev) == 1 {
			champions = append(champions, prev[0].winnerSeeded())
		}
	}

	var final []Matchup
	if len(champions) == len(league.Conferences) {
		final = []Matchup{r.decide(Matchup{
			Round:  RoundSuperBowl,
			High:   champions[0],
			Low:    champions[1],
			Source: SourceComputed,
		})}
	} else {
		final = r.fromFeed(RoundSuperBowl, "")
	}
	b.Matchups = append(b.Matchups, final...)

	b.Stage = StageSuperBowl
	for _, conf := range league.Conferences {
		b.Stage = min(b.Stage, b.Stages[conf])
	}
	if decided(final) {
		b.Champion = final[0].Winner
		b.Stage = StageComplete
	}
	return b
}

type reconciler struct {
	seeds    map[league.Conference][]string
	external []ExternalGame
	picks    Picks
}

func (r reconciler) seedOf(conf league.Conference, teamID string) Seeded {
	if conf == "" {
		for _, c := range league.Conferences {
			if s := r.seedOf(c, teamID); s.Seed > 0 {
				return s
			}
		}
		return Seeded{TeamID: teamID}
	}
	return Seeded{TeamID: teamID, Seed: slices.Index(r.seeds[conf], teamID) + 1}
}

func (r reconciler) wildCard(conf league.Conference) []Matchup {
	seeds := r.seeds[conf]
	out := make([]Matchup, 0, len(wildCardPairs))
	for slot, pair := range wildCardPairs {
		m := Matchup{Round: RoundWildCard, Conference: conf, Slot: slot, Source: SourceComputed}
		if pair[0] <= len(seeds) {
			m.High = Seeded{TeamID: seeds[pair[0]-1], Seed: pair[0]}
		}
		if pair[1] <= len(seeds) {
			m.Low = Seeded{TeamID: seeds[pair[1]-1], Seed: pair[1]}
		}
		out = append(out, r.decide(m))
	}
	return out
}

// advance pairs the survivors of prev: highest remaining seed against lowest. The 1 seed rejoins
// in the divisional round.
func (r reconciler) advance(round Round, conf league.Conference, prev []Matchup) []Matchup {
	var alive []Seeded
	if round == RoundDivisional {
		if seeds := r.seeds[conf]; len(seeds) > 0 {
			alive = append(alive, Seeded{TeamID: seeds[0], Seed: 1})
		}
	}
	for _, m := range prev {
		alive = append(alive, m.winnerSeeded())
	}
	slices.SortStableFunc(alive, func(a, b Seeded) int { return cmp.Compare(a.Seed, b.Seed) })

	var out []Matchup
	for slot := 0; slot < len(alive)/2; slot++ {
		out = append(out, r.decide(Matchup{
			Round:      round,
			Conference: conf,
			Slot:       slot,
			High:       alive[slot],
			Low:        alive[len(alive)-1-slot],
			Source:     SourceComputed,
		}))
	}
	return out
}

// fromFeed copies the feed's games for a round whose teams cannot be derived yet.
func (r reconciler) fromFeed(round Round, conf league.Conference) []Matchup {
	var out []Matchup
	for _, g := range r.external {
		if g.Round != round || g.Conference != conf {
			continue
		}
		high, low := r.seedOf(conf, g.HomeID), r.seedOf(conf, g.AwayID)
		if low.Seed > 0 && (high.Seed == 0 || low.Seed < high.Seed) {
			high, low = low, high
		}
		out = append(out, r.decide(Matchup{
			Round:      round,
			Conference: conf,
			Slot:       len(out),
			High:       high,
			Low:        low,
			Source:     SourceExternal,
		}))
	}
	return out
}

// decide sets the winner: a pick naming one of the two sides, else a feed winner id matching one
// of them, else none.
func (r reconciler) decide(m Matchup) Matchup {
	if pick := r.picks[m.Key()]; m.Has(pick) {
		m.Winner = pick
		return m
	}
	for _, g := range r.external {
		if g.Round == m.Round && g.Conference == m.Conference && m.Has(g.WinnerID) {
			m.Winner = g.WinnerID
			return m
		}
	}
	return m
}

// decided reports whether every matchup of a non-empty round has a winner.
func decided(ms []Matchup) bool {
	if len(ms) == 0 {
		return false
	}
	for _, m := range ms {
		if m.Winner == "" {
			return false
		}
	}
	return true
}
