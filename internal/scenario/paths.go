package scenario

import (
	"cmp"
	"maps"
	"slices"

	"github.com/utakatalp/playoff-picture/internal/league"
)

// paths builds, verifies and minimizes sets of results that clinch the goal.
//
// For every number x of target wins, the target is assumed to lose its other games. Teams that
// could still finish level with or above it are then neutralized with the fewest losses needed to
// drop them strictly below. Each candidate is verified and shrunk by dropping requirements the
// rest can do without. Verification shares the query's memo, so a set reached from two plans is
// settled once.
func (q *query) paths() []Path {
	own := q.targetGames()
	contenders := q.threats(q.newState(nil, false))

	tried := make(map[string]bool)
	seen := make(map[string]bool)
	var out []Path
	for x := 0; x <= len(own) && !q.bounded; x++ {
		wins := make(map[int]league.Outcome, x)
		for _, gi := range own[:x] {
			wins[gi] = league.WinFor(q.s.open[gi].game, q.id)
		}
		for _, fixed := range q.plans(wins) {
			plan := fingerprint(fixed)
			if tried[plan] {
				continue
			}
			tried[plan] = true
			if !q.settles(fixed) {
				continue
			}
			fixed = q.minimize(fixed)
			key := fingerprint(fixed)
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, q.path(fixed, contenders))
		}
	}

	slices.SortStableFunc(out, func(a, b Path) int {
		if c := cmp.Compare(len(a.Requirements), len(b.Requirements)); c != 0 {
			return c
		}
		return cmp.Compare(a.Events, b.Events)
	})
	if len(out) > q.s.cfg.MaxPaths {
		out = out[:q.s.cfg.MaxPaths]
	}
	if out == nil {
		out = []Path{}
	}
	return out
}

// targetGames orders the target's open games: games against contenders first, strongest
// opponent first, then by schedule.
func (q *query) targetGames() []int {
	var own []int
	for gi, og := range q.s.open {
		if og.home == q.target || og.away == q.target {
			own = append(own, gi)
		}
	}
	opp := func(gi int) int {
		if og := q.s.open[gi]; og.home != q.target {
			return og.home
		}
		return q.s.open[gi].away
	}
	slices.SortStableFunc(own, func(a, b int) int {
		oa, ob := opp(a), opp(b)
		if q.relevant[oa] != q.relevant[ob] {
			if q.relevant[oa] {
				return -1
			}
			return 1
		}
		if c := cmp.Compare(q.s.pts[ob], q.s.pts[oa]); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})
	return own
}

// plans returns candidate fixed-outcome sets that extend wins with the losses needed to drop
// contenders below the target.
func (q *query) plans(wins map[int]league.Outcome) []map[int]league.Outcome {
	st := q.newState(wins, false)
	possible := q.threats(st)

	var sets [][]int
	var rivals, all []int
	for i, in := range possible {
		if !in {
			continue
		}
		all = append(all, i)
		if q.group[i] == q.group[q.target] {
			rivals = append(rivals, i)
		}
	}
	switch q.goal {
	case GoalDivision:
		sets = append(sets, rivals)
	case GoalBye:
		sets = append(sets, all)
	default:
		sets = append(sets, rivals)
		if greedy, ok := q.greedy(st, possible, all); ok && !slices.Equal(greedy, rivals) {
			sets = append(sets, greedy)
		}
	}

	var out []map[int]league.Outcome
	for _, set := range sets {
		if fixed, ok := q.neutralize(st, wins, set); ok {
			out = append(out, fixed)
		}
	}
	return out
}

// greedy removes the cheapest contenders until the rest can no longer cost the target a
// playoff spot.
func (q *query) greedy(st *state, possible []bool, all []int) ([]int, bool) {
	left := slices.Clone(possible)
	order := slices.Clone(all)
	slices.SortStableFunc(order, func(a, b int) int {
		return cmp.Compare(q.lossesNeeded(st, a), q.lossesNeeded(st, b))
	})
	var set []int
	for _, i := range order {
		if !q.canFail(left) {
			break
		}
		left[i] = false
		set = append(set, i)
	}
	if q.canFail(left) {
		return nil, false
	}
	slices.Sort(set)
	return set, true
}

// lossesNeeded is the number of extra losses that drop team i strictly below the target's
// current points.
func (q *query) lossesNeeded(st *state, i int) int {
	tp, tg := st.pts[q.target], q.s.gamesFor(q.target)
	ceil, games := st.ceiling(i), q.s.gamesFor(i)
	n := 0
	for cmpPct(ceil-2*n, games, tp, tg) >= 0 {
		n++
	}
	return n
}

// neutralize assigns each team in set the losses it needs, using games not yet decided.
func (q *query) neutralize(st *state, wins map[int]league.Outcome, set []int) (map[int]league.Outcome, bool) {
	fixed := maps.Clone(wins)
	if fixed == nil {
		fixed = make(map[int]league.Outcome)
	}
	inSet := make([]bool, len(st.pts))
	for _, i := range set {
		inSet[i] = true
	}
	for _, i := range set {
		need := q.lossesNeeded(st, i)
		if need == 0 {
			continue
		}
		var options []int
		for gi, og := range q.s.open {
			if st.out[gi] != 0 || (og.home != i && og.away != i) {
				continue
			}
			if _, taken := fixed[gi]; taken {
				continue
			}
			options = append(options, gi)
		}
		if len(options) < need {
			return nil, false
		}
		// Prefer losses to teams that do not contest the goal.
		rank := func(gi int) int {
			og := q.s.open[gi]
			opp := og.home
			if opp == i {
				opp = og.away
			}
			switch {
			case !q.relevant[opp]:
				return 0
			case !inSet[opp]:
				return 1
			}
			return 2
		}
		slices.SortStableFunc(options, func(a, b int) int { return cmp.Compare(rank(a), rank(b)) })
		for _, gi := range options[:need] {
			og := q.s.open[gi]
			fixed[gi] = league.WinFor(og.game, og.game.Opponent(q.s.lg.At(i).ID))
		}
	}
	return fixed, true
}

// minimize drops requirements one at a time while the rest still clinch. Other teams' results
// are dropped before the target's own wins.
func (q *query) minimize(fixed map[int]league.Outcome) map[int]league.Outcome {
	order := slices.Sorted(maps.Keys(fixed))
	slices.SortStableFunc(order, func(a, b int) int {
		return cmp.Compare(q.isOwn(a), q.isOwn(b))
	})
	for _, gi := range order {
		if q.bounded {
			break
		}
		trial := maps.Clone(fixed)
		delete(trial, gi)
		if q.settles(trial) {
			fixed = trial
		}
	}
	return fixed
}

func (q *query) isOwn(gi int) int {
	if og := q.s.open[gi]; og.home == q.target || og.away == q.target {
		return 1
	}
	return 0
}

// path renders fixed outcomes as requirements. Each result counts one event, and a target win
// over a contender counts twice.
func (q *query) path(fixed map[int]league.Outcome, contenders []bool) Path {
	p := Path{Requirements: make([]Requirement, 0, len(fixed))}
	var own, help int
	for _, gi := range slices.Sorted(maps.Keys(fixed)) {
		og := q.s.open[gi]
		o := fixed[gi]
		winner := og.game.Home
		if o == league.AwayWin {
			winner = og.game.Away
		}
		p.Requirements = append(p.Requirements, Requirement{
			GameID:  og.game.ID,
			Week:    og.game.Week,
			Home:    og.game.Home,
			Away:    og.game.Away,
			Winner:  winner,
			Outcome: o,
		})
		p.Events++
		if winner == q.id {
			own++
			if opp := q.s.lg.Index(og.game.Opponent(q.id)); contenders[opp] {
				p.Events++
			}
		} else {
			help++
		}
	}
	switch {
	case help == 0:
		p.Kind = PathWinOut
	case own == 0:
		p.Kind = PathHelpOnly
	default:
		p.Kind = PathNeedsHelp
	}
	return p
}
