package league

import (
	"cmp"
	"math"
	"slices"
)

// PlayoffSeeds is the number of seeded teams per conference.
const PlayoffSeeds = 7

// Seeding is one conference's playoff order.
type Seeding struct {
	Conference Conference `json:"conference"`
	// Seeds[i] holds seed i+1. Division winners fill seeds 1-4.
	Seeds []string `json:"seeds"`
	// Order ranks every conference team: division winners, then the rest by wildcard order.
	Order []string `json:"order"`
}

// SeedOf returns a team's seed, or 0 when unseeded.
func (s Seeding) SeedOf(teamID string) int {
	if i := slices.Index(s.Seeds, teamID); i >= 0 {
		return i + 1
	}
	return 0
}

// rankTeams orders teams by win percentage and breaks each equal-percentage group.
func (s *Season) rankTeams(ids []string, divisionTie bool) []string {
	sorted := slices.Clone(ids)
	slices.SortStableFunc(sorted, func(a, b string) int {
		if c := cmp.Compare(s.record(b).Overall.Pct(), s.record(a).Overall.Pct()); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})

	out := make([]string, 0, len(sorted))
	for i := 0; i < len(sorted); {
		j := i + 1
		pct := s.record(sorted[i]).Overall.Pct()
		for j < len(sorted) && math.Abs(s.record(sorted[j]).Overall.Pct()-pct) < epsilon {
			j++
		}
		out = append(out, s.breakGroup(sorted[i:j], divisionTie)...)
		i = j
	}
	return out
}

func (s *Season) breakGroup(group []string, divisionTie bool) []string {
	if len(group) < 2 {
		return slices.Clone(group)
	}
	if s.favor != "" && slices.Contains(group, s.favor) {
		rest := slices.DeleteFunc(slices.Clone(group), func(id string) bool { return id == s.favor })
		return append([]string{s.favor}, s.resolve(rest, divisionTie, nil)...)
	}
	return s.resolve(group, divisionTie, nil)
}

// DivisionOrder ranks a division; the first team is the division leader.
func (s *Season) DivisionOrder(div Division) []string {
	return s.rankTeams(s.league.DivisionTeams(div), true)
}

// Seeds computes a conference's seeding. Division leaders are ranked against each other for
// seeds 1-4, every other conference team competes for seeds 5-7.
func (s *Season) Seeds(conf Conference) Seeding {
	var winners []string
	for _, div := range s.league.Divisions(conf) {
		if order := s.DivisionOrder(div); len(order) > 0 {
			winners = append(winners, order[0])
		}
	}
	winners = s.rankTeams(winners, false)

	var rest []string
	for _, id := range s.league.ConferenceTeams(conf) {
		if !slices.Contains(winners, id) {
			rest = append(rest, id)
		}
	}
	rest = s.rankTeams(rest, false)

	order := append(slices.Clone(winners), rest...)
	n := min(PlayoffSeeds, len(winners)+len(rest))
	return Seeding{
		Conference: conf,
		Seeds:      slices.Clone(order[:n]),
		Order:      order,
	}
}

// Standings returns the conference table in seeding order. The clinch marker reflects the
// current provisional seed only.
func (s *Season) Standings(conf Conference) []Standing {
	seeding := s.Seeds(conf)
	out := make([]Standing, 0, len(seeding.Order))
	for _, id := range seeding.Order {
		t, _ := s.league.Team(id)
		seed := seeding.SeedOf(id)
		out = append(out, Standing{
			Team:     t,
			Record:   *s.record(id),
			Seed:     seed,
			Clinched: ClinchForSeed(seed),
		})
	}
	return out
}
