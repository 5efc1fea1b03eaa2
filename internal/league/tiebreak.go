package league

import (
	"fmt"
	"math"
	"slices"
)

// Step is one criterion of the tie-break procedure, in the order it is applied.
type Step int

const (
	StepHeadToHead Step = iota + 1
	StepDivision
	StepCommonGames
	StepConference
	StepStrengthOfVictory
	StepStrengthOfSchedule
	StepConferencePointsRank
	StepLeaguePointsRank
	StepCommonNetPoints
	StepNetPoints
	StepNetTouchdowns
	StepLastResort
)

var steps = []Step{
	StepHeadToHead,
	StepDivision,
	StepCommonGames,
	StepConference,
	StepStrengthOfVictory,
	StepStrengthOfSchedule,
	StepConferencePointsRank,
	StepLeaguePointsRank,
	StepCommonNetPoints,
	StepNetPoints,
	StepNetTouchdowns,
}

func (s Step) String() string {
	switch s {
	case StepHeadToHead:
		return "head-to-head"
	case StepDivision:
		return "division record"
	case StepCommonGames:
		return "common games"
	case StepConference:
		return "conference record"
	case StepStrengthOfVictory:
		return "strength of victory"
	case StepStrengthOfSchedule:
		return "strength of schedule"
	case StepConferencePointsRank:
		return "conference points rank"
	case StepLeaguePointsRank:
		return "league points rank"
	case StepCommonNetPoints:
		return "net points in common games"
	case StepNetPoints:
		return "net points"
	case StepNetTouchdowns:
		return "net touchdowns"
	case StepLastResort:
		return "last resort"
	}
	return fmt.Sprintf("Step(%d)", int(s))
}

func (s Step) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// minCommonOpponents is the smallest common-opponent set for which common games apply.
const minCommonOpponents = 4

const epsilon = 1e-9

// Split records that a step separated a group into ordered subgroups.
type Split struct {
	Step   Step       `json:"step"`
	Groups [][]string `json:"groups"`
}

// BreakTie orders teams that share a win percentage. When every criterion is exhausted the
// remaining teams keep their input order.
func (s *Season) BreakTie(teams []string, divisionTie bool) []string {
	return s.resolve(teams, divisionTie, nil)
}

// ExplainTie is BreakTie plus the splits that produced the order.
func (s *Season) ExplainTie(teams []string, divisionTie bool) ([]string, []Split) {
	var trace []Split
	order := s.resolve(teams, divisionTie, &trace)
	return order, trace
}

// resolve applies one criterion at a time to the whole group. The first criterion that separates
// it splits it into equal-valued subgroups, and every subgroup starts over from head-to-head with
// only its own members.
func (s *Season) resolve(group []string, divisionTie bool, trace *[]Split) []string {
	if len(group) < 2 {
		return slices.Clone(group)
	}
	for _, step := range steps {
		scores, ok := s.score(step, group, divisionTie)
		if !ok {
			continue
		}
		groups := partition(group, scores)
		if len(groups) < 2 {
			continue
		}
		if trace != nil {
			*trace = append(*trace, Split{Step: step, Groups: groups})
		}
		out := make([]string, 0, len(group))
		for _, g := range groups {
			out = append(out, s.resolve(g, divisionTie, trace)...)
		}
		return out
	}
	if trace != nil {
		last := make([][]string, len(group))
		for i, id := range group {
			last[i] = []string{id}
		}
		*trace = append(*trace, Split{Step: StepLastResort, Groups: last})
	}
	return slices.Clone(group)
}

// partition groups teams by score, best first, keeping input order inside each group.
func partition(group []string, scores map[string]float64) [][]string {
	sorted := slices.Clone(group)
	slices.SortStableFunc(sorted, func(a, b string) int {
		switch d := scores[a] - scores[b]; {
		case d > epsilon:
			return -1
		case d < -epsilon:
			return 1
		}
		return 0
	})
	var out [][]string
	for i, id := range sorted {
		if i == 0 || math.Abs(scores[sorted[i-1]]-scores[id]) > epsilon {
			out = append(out, nil)
		}
		out[len(out)-1] = append(out[len(out)-1], id)
	}
	return out
}

// score evaluates one criterion for every member; higher is better. ok is false when the
// criterion does not apply to this group.
func (s *Season) score(step Step, group []string, divisionTie bool) (map[string]float64, bool) {
	out := make(map[string]float64, len(group))
	switch step {
	case StepHeadToHead:
		return s.headToHead(group)

	case StepDivision:
		if !divisionTie {
			return nil, false
		}
		for _, id := range group {
			out[id] = s.record(id).Division.Pct()
		}

	case StepCommonGames:
		common := s.commonOpponents(group)
		if len(common) < minCommonOpponents {
			return nil, false
		}
		for _, id := range group {
			out[id] = s.lineAgainst(id, common).Pct()
		}

	case StepConference:
		for _, id := range group {
			out[id] = s.record(id).Conference.Pct()
		}

	case StepStrengthOfVictory:
		for _, id := range group {
			out[id] = s.combinedPct(s.record(id).Beaten)
		}

	case StepStrengthOfSchedule:
		for _, id := range group {
			out[id] = s.combinedPct(s.record(id).Opponents)
		}

	case StepConferencePointsRank:
		for _, id := range group {
			out[id] = -float64(s.confPointsRank[id])
		}

	case StepLeaguePointsRank:
		for _, id := range group {
			out[id] = -float64(s.leaguePointsRank[id])
		}

	case StepCommonNetPoints:
		common := s.commonOpponents(group)
		if len(common) == 0 {
			return nil, false
		}
		for _, id := range group {
			out[id] = float64(s.netPointsAgainst(id, common))
		}

	// Touchdowns are not part of the game feed; net points stands in for them.
	case StepNetPoints, StepNetTouchdowns:
		for _, id := range group {
			out[id] = float64(s.record(id).NetPoints())
		}

	default:
		return nil, false
	}
	return out, true
}

// headToHead applies only when every pair in the group has met at least once.
func (s *Season) headToHead(group []string) (map[string]float64, bool) {
	members := make(map[string]bool, len(group))
	for _, id := range group {
		members[id] = true
	}
	met := make(map[[2]string]bool)
	lines := make(map[string]WLT, len(group))
	for _, id := range group {
		for _, r := range s.teamResults(id) {
			opp := r.Opponent(id)
			if !members[opp] {
				continue
			}
			met[[2]string{id, opp}] = true
			lines[id] = lines[id].add(r.line(id))
		}
	}
	for i, a := range group {
		for _, b := range group[i+1:] {
			if !met[[2]string{a, b}] {
				return nil, false
			}
		}
	}
	out := make(map[string]float64, len(group))
	for _, id := range group {
		out[id] = lines[id].Pct()
	}
	return out, true
}

// commonOpponents returns the opponents every member has played, excluding the members.
func (s *Season) commonOpponents(group []string) map[string]bool {
	var common map[string]bool
	for _, id := range group {
		played := make(map[string]bool)
		for _, opp := range s.record(id).Opponents {
			played[opp] = true
		}
		if common == nil {
			common = played
			continue
		}
		for opp := range common {
			if !played[opp] {
				delete(common, opp)
			}
		}
	}
	for _, id := range group {
		delete(common, id)
	}
	return common
}

func (s *Season) lineAgainst(teamID string, opponents map[string]bool) WLT {
	var line WLT
	for _, r := range s.teamResults(teamID) {
		if opponents[r.Opponent(teamID)] {
			line = line.add(r.line(teamID))
		}
	}
	return line
}

func (s *Season) netPointsAgainst(teamID string, opponents map[string]bool) int {
	net := 0
	for _, r := range s.teamResults(teamID) {
		if opponents[r.Opponent(teamID)] {
			scored, allowed := r.PointsFor(teamID)
			net += scored - allowed
		}
	}
	return net
}

// combinedPct is the combined win percentage of a list of teams, counted once per entry.
func (s *Season) combinedPct(ids []string) float64 {
	var total WLT
	for _, id := range ids {
		total = total.add(s.record(id).Overall)
	}
	return total.Pct()
}
