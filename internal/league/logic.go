// internal/league/logic.go
package league

import (
	"cmp"
	"fmt"
	"maps"
	"slices"
)

// Result is the effective result of one counted game.
type Result struct {
	GameID       string
	Week         int
	Home, Away   string
	HomePoints   int
	AwayPoints   int
	Hypothetical bool
}

// Winner returns the winning team id, or "" for a tie.
func (r Result) Winner() string {
	switch {
	case r.HomePoints > r.AwayPoints:
		return r.Home
	case r.AwayPoints > r.HomePoints:
		return r.Away
	}
	return ""
}

// PointsFor returns the points scored by teamID in the game.
func (r Result) PointsFor(teamID string) (scored, allowed int) {
	if r.Home == teamID {
		return r.HomePoints, r.AwayPoints
	}
	return r.AwayPoints, r.HomePoints
}

// Opponent returns the other side of the game for teamID.
func (r Result) Opponent(teamID string) string {
	if r.Home == teamID {
		return r.Away
	}
	return r.Home
}

// line returns the game as a one-game WLT line for teamID.
func (r Result) line(teamID string) WLT {
	switch r.Winner() {
	case "":
		return WLT{T: 1}
	case teamID:
		return WLT{W: 1}
	}
	return WLT{L: 1}
}

func (r Result) ScoreLine() string {
	return fmt.Sprintf("%s %d - %d %s", r.Home, r.HomePoints, r.AwayPoints, r.Away)
}

// EffectiveResult resolves what a game counts as. A final game uses its real score and ignores
// any selection. A non-final game counts only when selected, using a placeholder split that fixes
// the sign of the point differential and nothing else. Games with a missing side or a final game
// without a score are not counted.
func EffectiveResult(g Game, sel Selections) (Result, bool) {
	if g.Home == "" || g.Away == "" || g.Home == g.Away {
		return Result{}, false
	}
	r := Result{GameID: g.ID, Week: g.Week, Home: g.Home, Away: g.Away}
	if g.Final() {
		if g.Score == nil {
			return Result{}, false
		}
		r.HomePoints, r.AwayPoints = g.Score.Home, g.Score.Away
		return r, true
	}
	o, ok := sel[g.ID]
	if !ok {
		return Result{}, false
	}
	r.Hypothetical = true
	switch o {
	case HomeWin:
		r.HomePoints = 1
	case AwayWin:
		r.AwayPoints = 1
	case Tie:
	default:
		return Result{}, false
	}
	return r, true
}

// Season is the immutable snapshot every standings computation reads from: the counted results
// of a game list under a selection overlay, folded into per-team records.
type Season struct {
	league  *League
	results []Result
	byTeam  map[string][]int
	records map[string]*Record

	confPointsRank   map[string]int
	leaguePointsRank map[string]int

	// favor wins every tie at equal win percentage it takes part in.
	favor string
}

// NewSeason folds games plus selections into records for every team of the league.
func NewSeason(lg *League, games []Game, sel Selections) *Season {
	s := &Season{
		league:  lg,
		results: make([]Result, 0, len(games)),
		byTeam:  make(map[string][]int, lg.Len()),
		records: make(map[string]*Record, lg.Len()),
	}
	for _, t := range lg.Teams() {
		s.records[t.ID] = &Record{TeamID: t.ID}
	}

	for _, g := range games {
		r, ok := EffectiveResult(g, sel)
		if !ok {
			continue
		}
		home, okH := s.records[r.Home]
		away, okA := s.records[r.Away]
		if !okH || !okA {
			continue
		}
		idx := len(s.results)
		s.results = append(s.results, r)
		s.byTeam[r.Home] = append(s.byTeam[r.Home], idx)
		s.byTeam[r.Away] = append(s.byTeam[r.Away], idx)

		sameDiv := lg.SameDivision(r.Home, r.Away)
		sameConf := lg.SameConference(r.Home, r.Away)
		for _, rec := range []*Record{home, away} {
			line := r.line(rec.TeamID)
			scored, allowed := r.PointsFor(rec.TeamID)
			opp := r.Opponent(rec.TeamID)

			rec.Overall = rec.Overall.add(line)
			if sameDiv {
				rec.Division = rec.Division.add(line)
			}
			if sameConf {
				rec.Conference = rec.Conference.add(line)
			}
			rec.PointsFor += scored
			rec.PointsAgainst += allowed
			rec.Opponents = append(rec.Opponents, opp)
			if line.W == 1 {
				rec.Beaten = append(rec.Beaten, opp)
			}
		}
	}

	s.confPointsRank = make(map[string]int, lg.Len())
	for _, conf := range Conferences {
		maps.Copy(s.confPointsRank, s.combinedPointsRank(lg.ConferenceTeams(conf)))
	}
	all := make([]string, 0, lg.Len())
	for _, t := range lg.Teams() {
		all = append(all, t.ID)
	}
	s.leaguePointsRank = s.combinedPointsRank(all)
	return s
}

// ComputeRecords is NewSeason for callers that only need the record map.
func ComputeRecords(lg *League, games []Game, sel Selections) map[string]*Record {
	return NewSeason(lg, games, sel).Records()
}

// League returns the reference data the season was built from.
func (s *Season) League() *League { return s.league }

// Results returns every counted result in input order.
func (s *Season) Results() []Result { return s.results }

// Records returns a copy of the team -> record map.
func (s *Season) Records() map[string]*Record {
	out := make(map[string]*Record, len(s.records))
	for id, r := range s.records {
		cp := *r
		out[id] = &cp
	}
	return out
}

// Record returns a team's record; unknown ids report false.
func (s *Season) Record(teamID string) (Record, bool) {
	r, ok := s.records[teamID]
	if !ok {
		return Record{TeamID: teamID}, false
	}
	return *r, true
}

// record never returns nil so unknown ids rank as an empty record.
func (s *Season) record(teamID string) *Record {
	if r, ok := s.records[teamID]; ok {
		return r
	}
	return &Record{TeamID: teamID}
}

// WithFavor returns a view of the season in which teamID wins every tie at equal win percentage.
func (s *Season) WithFavor(teamID string) *Season {
	cp := *s
	cp.favor = teamID
	return &cp
}

// teamResults returns the counted results teamID played in.
func (s *Season) teamResults(teamID string) []Result {
	idx := s.byTeam[teamID]
	out := make([]Result, len(idx))
	for i, j := range idx {
		out[i] = s.results[j]
	}
	return out
}

// combinedPointsRank ranks teams by points scored (most first) and points allowed (fewest
// first) and sums the two ranks. Equal values share the better rank.
func (s *Season) combinedPointsRank(ids []string) map[string]int {
	out := make(map[string]int, len(ids))
	rank := func(key func(*Record) int) {
		sorted := slices.Clone(ids)
		slices.SortStableFunc(sorted, func(a, b string) int {
			return cmp.Compare(key(s.record(a)), key(s.record(b)))
		})
		prevRank := 0
		for i, id := range sorted {
			if i == 0 || key(s.record(sorted[i-1])) != key(s.record(id)) {
				prevRank = i + 1
			}
			out[id] += prevRank
		}
	}
	rank(func(r *Record) int { return -r.PointsFor })
	rank(func(r *Record) int { return r.PointsAgainst })
	return out
}
