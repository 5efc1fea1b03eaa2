package scenario

import (
	"cmp"
	"math"
	"slices"
)

// Points are handed out in half wins: every open game gives its two teams two points between
// them, 2-0 for a win and 1-1 for a tie.

// pointsToPass is the fewest points that lift team i strictly above the target's win
// percentage, or -1 when its open games cannot.
func (q *query) pointsToPass(st *state, i int) int {
	tp, tg, g := st.pts[q.target], q.s.gamesFor(q.target), q.s.gamesFor(i)
	for p := 0; p <= 2*st.rem[i]; p++ {
		if cmpPct(st.pts[i]+p, g, tp, tg) > 0 {
			return p
		}
	}
	return -1
}

// pointsToStay is the most points team i can take without passing the target's win
// percentage, or -1 when it is already past it.
func (q *query) pointsToStay(st *state, i int) int {
	tp, tg, g := st.pts[q.target], q.s.gamesFor(q.target), q.s.gamesFor(i)
	for p := 2 * st.rem[i]; p >= 0; p-- {
		if cmpPct(st.pts[i]+p, g, tp, tg) <= 0 {
			return p
		}
	}
	return -1
}

// sharedGames lists the undecided games between two teams of set.
func (q *query) sharedGames(st *state, set []bool) [][2]int {
	var out [][2]int
	for gi, og := range q.s.open {
		if st.out[gi] == 0 && set[og.home] && set[og.away] {
			out = append(out, [2]int{og.home, og.away})
		}
	}
	return out
}

// pushAbove reports whether the open games can lift enough teams strictly above the target to
// cost it the goal. A team strictly above the target ranks above it whatever the tiebreakers say,
// so a lift that fits is a counterexample on its own.
func (q *query) pushAbove(st *state) bool {
	need := make([]int, len(st.pts))
	var cands []int
	rival := false
	for i, ok := range q.relevant {
		need[i] = -1
		if ok {
			need[i] = q.pointsToPass(st, i)
		}
		if need[i] >= 0 {
			cands = append(cands, i)
			rival = rival || q.group[i] == q.group[q.target]
		}
	}
	switch {
	case q.goal == GoalBye:
		return len(cands) > 0
	case !rival:
		return false
	case q.goal == GoalDivision:
		return true
	}

	byNeed := slices.Clone(cands)
	slices.SortStableFunc(byNeed, func(a, b int) int { return cmp.Compare(need[a], need[b]) })
	if q.liftWildcards(st, need, byNeed) {
		return true
	}
	bySlack := slices.Clone(cands)
	slices.SortStableFunc(bySlack, func(a, b int) int {
		return cmp.Compare(2*st.rem[b]-need[b], 2*st.rem[a]-need[a])
	})
	return q.liftWildcards(st, need, bySlack)
}

// liftWildcards lifts the first division rival in order, then adds teams in order while the
// lifted set still fits, until enough of them would finish outside the division lead.
func (q *query) liftWildcards(st *state, need, order []int) bool {
	lifted := make([]bool, len(st.pts))
	for _, i := range order {
		if q.group[i] == q.group[q.target] {
			lifted[i] = true
			break
		}
	}
	for _, i := range order {
		if _, _, wildcards := q.tally(lifted); wildcards >= q.spots {
			return true
		}
		if lifted[i] {
			continue
		}
		lifted[i] = true
		if !q.liftable(st, lifted, need) {
			lifted[i] = false
		}
	}
	_, _, wildcards := q.tally(lifted)
	return wildcards >= q.spots
}

// liftable reports whether every lifted team can gain its needed points at once. Lifted teams
// beat everyone else, so only games between two of them are shared out, as points dropped.
func (q *query) liftable(st *state, lifted []bool, need []int) bool {
	limit := make([]int, len(st.pts))
	for i, in := range lifted {
		if in {
			limit[i] = 2*st.rem[i] - need[i]
		}
	}
	return shareable(q.sharedGames(st, lifted), limit)
}

// holdBelow reports whether the open games can keep every team that would cost the target the
// goal at or under its win percentage. Ties at that percentage go the target's way, so a hold
// that fits is a witness on its own.
func (q *query) holdBelow(st *state) bool {
	rivals := make([]bool, len(st.pts))
	for i, ok := range q.relevant {
		rivals[i] = ok && q.group[i] == q.group[q.target]
	}
	switch q.goal {
	case GoalBye:
		return q.holdable(st, q.relevant)
	case GoalDivision:
		return q.holdable(st, rivals)
	}
	// Winning the division is enough for a playoff spot.
	return q.holdable(st, rivals) || q.holdable(st, q.wildcardCaps(st))
}

// holdable reports whether every capped team can stay under the target at once. Capped teams
// lose to everyone else, so only games between two of them are shared out.
func (q *query) holdable(st *state, capped []bool) bool {
	limit := make([]int, len(st.pts))
	for i, in := range capped {
		if !in {
			continue
		}
		if limit[i] = q.pointsToStay(st, i); limit[i] < 0 {
			return false
		}
	}
	return shareable(q.sharedGames(st, capped), limit)
}

// wildcardCaps frees one team per division and spots-1 more to finish above the target and caps
// the rest. The teams that would have to drop the most points to stay under are freed first.
// However the free teams finish, at most spots-1 of them end up outside a division lead and
// above the target.
func (q *query) wildcardCaps(st *state) []bool {
	pressure := make([]int, len(st.pts))
	var order []int
	for i, ok := range q.relevant {
		if !ok {
			continue
		}
		order = append(order, i)
		pressure[i] = math.MaxInt32
		if room := q.pointsToStay(st, i); room >= 0 {
			pressure[i] = 2*st.rem[i] - room
		}
	}
	slices.SortStableFunc(order, func(a, b int) int { return cmp.Compare(pressure[b], pressure[a]) })

	capped := slices.Clone(q.relevant)
	seen := make([]bool, q.ndiv)
	extra := q.spots - 1
	for _, i := range order {
		switch {
		case !seen[q.group[i]]:
			seen[q.group[i]] = true
		case extra > 0:
			extra--
		default:
			continue
		}
		capped[i] = false
	}
	return capped
}

// shareable reports whether the two points of every game can go to its two teams without any
// team taking more than its limit. It places one point at a time and moves earlier points along
// alternating paths when both teams are full.
func shareable(games [][2]int, limit []int) bool {
	holder := make([]int, 2*len(games))
	for p := range holder {
		holder[p] = -1
	}
	load := make([]int, len(limit))
	give := func(p, t int) {
		if h := holder[p]; h >= 0 {
			load[h]--
		}
		holder[p] = t
		load[t]++
	}

	var place func(p int, seen []bool) bool
	place = func(p int, seen []bool) bool {
		for _, t := range games[p/2] {
			if seen[t] {
				continue
			}
			seen[t] = true
			if load[t] < limit[t] {
				give(p, t)
				return true
			}
			for r, h := range holder {
				if h == t && place(r, seen) {
					give(p, t)
					return true
				}
			}
		}
		return false
	}

	for p := range holder {
		if !place(p, make([]bool, len(limit))) {
			return false
		}
	}
	return true
}
