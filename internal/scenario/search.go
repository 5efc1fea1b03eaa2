package scenario

import (
	"cmp"
	"context"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/utakatalp/playoff-picture/internal/league"
)

// openGame is an unresolved game between two known teams, by dense team index.
type openGame struct {
	game       league.Game
	home, away int
}

// verdict is the result of one search. A bounded search never holds.
type verdict struct {
	holds   bool
	bounded bool
}

// query carries one (team, goal) evaluation: the target, its search budget and its memo.
type query struct {
	s      *Solver
	ctx    context.Context
	target int
	id     string
	goal   Goal
	conf   league.Conference
	div    league.Division
	// group[i] is team i's division slot inside the target's conference, -1 outside it.
	group    []int
	ndiv     int
	spots    int
	relevant []bool

	deadline   time.Time
	nodes      int
	leaves     int
	bounded    bool
	anyBounded bool
	spentNodes int
	// capped runs a search under the trial budget; running out of it sets cut, not bounded.
	capped bool
	cut    bool

	memo map[string]verdict
}

func (s *Solver) newQuery(ctx context.Context, teamID string, goal Goal) (*query, bool) {
	idx := s.lg.Index(teamID)
	if idx < 0 || goal < GoalPlayoff || goal > GoalBye {
		return nil, false
	}
	team := s.lg.At(idx)
	divs := s.lg.Divisions(team.Conference)
	q := &query{
		s:        s,
		ctx:      ctx,
		target:   idx,
		id:       teamID,
		goal:     goal,
		conf:     team.Conference,
		div:      team.Division,
		group:    make([]int, s.lg.Len()),
		ndiv:     len(divs),
		spots:    league.PlayoffSeeds - len(divs),
		relevant: make([]bool, s.lg.Len()),
		memo:     make(map[string]verdict),
	}
	if s.cfg.Timeout > 0 {
		q.deadline = time.Now().Add(s.cfg.Timeout)
	}
	for i, t := range s.lg.Teams() {
		q.group[i] = slices.Index(divs, t.Division)
		if t.Conference != team.Conference {
			q.group[i] = -1
		}
	}
	for i := range q.relevant {
		switch {
		case i == idx || q.group[i] < 0:
		case goal == GoalDivision:
			q.relevant[i] = q.group[i] == q.group[idx]
		default:
			q.relevant[i] = true
		}
	}
	return q, true
}

// begin starts a search phase with a fresh node and leaf budget.
func (q *query) begin() {
	q.nodes, q.leaves, q.bounded = 0, 0, false
}

func (q *query) end() {
	q.spentNodes += q.nodes
	q.anyBounded = q.anyBounded || q.bounded
}

func (q *query) search() Search {
	if q.anyBounded {
		return SearchBounded
	}
	return SearchComplete
}

// Budget of one trial search during path minimization.
const (
	trialGames  = 3
	trialNodes  = 256
	trialLeaves = 27
)

// spent reports whether the current search is out of budget, and latches that.
func (q *query) spent() bool {
	if q.halted() {
		return true
	}
	switch {
	case q.capped && (q.nodes >= trialNodes || q.leaves >= trialLeaves):
		q.cut = true
	case q.nodes >= q.s.cfg.MaxNodes, q.leaves >= q.s.cfg.MaxLeaves:
		q.bounded = true
	case q.nodes&15 == 0:
		q.expired()
	}
	return q.halted()
}

// expired latches the bound once the context is done or the deadline has passed.
func (q *query) expired() bool {
	if q.ctx.Err() != nil || (!q.deadline.IsZero() && time.Now().After(q.deadline)) {
		q.bounded = true
	}
	return q.bounded
}

func (q *query) halted() bool { return q.bounded || q.cut }

// state is a partial assignment of the open games with the points it implies.
type state struct {
	out []league.Outcome
	pts []int
	rem []int
}

// newState applies fixed, then settles the target's remaining games as wins or losses.
func (q *query) newState(fixed map[int]league.Outcome, targetWins bool) *state {
	st := &state{
		out: make([]league.Outcome, len(q.s.open)),
		pts: slices.Clone(q.s.pts),
		rem: slices.Clone(q.s.remaining),
	}
	for gi, o := range fixed {
		st.assign(q.s.open, gi, o)
	}
	for gi, og := range q.s.open {
		if st.out[gi] != 0 || (og.home != q.target && og.away != q.target) {
			continue
		}
		o := league.WinFor(og.game, q.id)
		if !targetWins {
			o = league.WinFor(og.game, og.game.Opponent(q.id))
		}
		st.assign(q.s.open, gi, o)
	}
	return st
}

func (st *state) assign(open []openGame, gi int, o league.Outcome) {
	og := open[gi]
	st.out[gi] = o
	st.rem[og.home]--
	st.rem[og.away]--
	switch o {
	case league.HomeWin:
		st.pts[og.home] += 2
	case league.AwayWin:
		st.pts[og.away] += 2
	case league.Tie:
		st.pts[og.home]++
		st.pts[og.away]++
	}
}

func (st *state) unassign(open []openGame, gi int) {
	og := open[gi]
	switch st.out[gi] {
	case league.HomeWin:
		st.pts[og.home] -= 2
	case league.AwayWin:
		st.pts[og.away] -= 2
	case league.Tie:
		st.pts[og.home]--
		st.pts[og.away]--
	}
	st.rem[og.home]++
	st.rem[og.away]++
	st.out[gi] = 0
}

func (st *state) ceiling(i int) int { return st.pts[i] + 2*st.rem[i] }

// cmpPct compares win percentages given half-win points and games played.
func cmpPct(pa, ga, pb, gb int) int {
	if ga == 0 {
		pa, ga = 0, 1
	}
	if gb == 0 {
		pb, gb = 0, 1
	}
	return cmp.Compare(pa*gb, pb*ga)
}

// threats marks relevant teams whose best case reaches the target's current points.
func (q *query) threats(st *state) []bool {
	tp, tg := st.pts[q.target], q.s.gamesFor(q.target)
	out := make([]bool, len(st.pts))
	for i, ok := range q.relevant {
		out[i] = ok && cmpPct(st.ceiling(i), q.s.gamesFor(i), tp, tg) >= 0
	}
	return out
}

// above marks relevant teams whose worst case beats the target's best case.
func (q *query) above(st *state) []bool {
	tp, tg := st.ceiling(q.target), q.s.gamesFor(q.target)
	out := make([]bool, len(st.pts))
	for i, ok := range q.relevant {
		out[i] = ok && cmpPct(st.pts[i], q.s.gamesFor(i), tp, tg) > 0
	}
	return out
}

// tally counts a team set: whether it holds a division rival, and how many of its teams could
// finish as non-winners of their division.
func (q *query) tally(set []bool) (members int, rival bool, wildcards int) {
	per := make([]int, q.ndiv)
	for i, in := range set {
		if !in {
			continue
		}
		members++
		per[q.group[i]]++
		if q.group[i] == q.group[q.target] {
			rival = true
		}
	}
	for _, n := range per {
		wildcards += max(0, n-1)
	}
	return members, rival, wildcards
}

// canFail reports whether teams that may finish at or above the target could still cost it the goal.
func (q *query) canFail(possible []bool) bool {
	members, rival, wildcards := q.tally(possible)
	switch q.goal {
	case GoalDivision:
		return rival
	case GoalBye:
		return members > 0
	default:
		return rival && wildcards >= q.spots
	}
}

// canSucceed reports whether the teams certainly above the target still leave room for the goal.
func (q *query) canSucceed(certain []bool) bool {
	members, rival, wildcards := q.tally(certain)
	switch q.goal {
	case GoalDivision:
		return !rival
	case GoalBye:
		return members == 0
	default:
		return !rival || wildcards < q.spots
	}
}

// branchGame picks the next unassigned game between two marked teams.
func (q *query) branchGame(st *state, marked []bool) int {
	for gi, og := range q.s.open {
		if st.out[gi] == 0 && marked[og.home] && marked[og.away] {
			return gi
		}
	}
	return -1
}

// complete fills every unassigned game. Marked teams win (clinch search) or lose (elimination
// search) against unmarked ones; other games go to the home side.
func (q *query) complete(st *state, marked []bool, markedWin bool) league.Selections {
	sel := q.s.sel.Clone(len(q.s.open))
	for gi, og := range q.s.open {
		o := st.out[gi]
		if o == 0 {
			o = league.HomeWin
			if marked[og.away] != marked[og.home] && marked[og.away] == markedWin {
				o = league.AwayWin
			}
		}
		sel[og.game.ID] = o
	}
	return sel
}

// leaf builds the standings of one completion and evaluates the goal on them. It reports false
// for evaluated when the budget or the deadline ran out first.
func (q *query) leaf(sel league.Selections, favor bool) (ok, evaluated bool) {
	if q.spent() || q.expired() {
		return false, false
	}
	season := league.NewSeason(q.s.lg, q.s.games, sel)
	if favor {
		season = season.WithFavor(q.id)
	}
	return q.achieved(season), true
}

// achieved evaluates the goal on fully decided standings.
func (q *query) achieved(season *league.Season) bool {
	q.leaves++
	if q.goal == GoalDivision {
		order := season.DivisionOrder(q.div)
		return len(order) > 0 && order[0] == q.id
	}
	return q.goal.Accepts(season.Seeds(q.conf).SeedOf(q.id))
}

// clinched reports whether the goal holds under every completion of the open games once fixed
// is applied.
func (q *query) clinched(fixed map[int]league.Outcome) verdict {
	key := fingerprint(fixed)
	if v, ok := q.memo[key]; ok {
		return v
	}
	found := q.counterexample(q.newState(fixed, false), true)
	v := verdict{holds: !found && !q.halted(), bounded: !found && q.halted()}
	if !v.bounded {
		q.memo[key] = v
	}
	return v
}

// counterexample searches for a completion in which the target misses the goal. At the root it
// first tries to lift enough teams strictly above the target.
func (q *query) counterexample(st *state, root bool) bool {
	if q.spent() {
		return false
	}
	q.nodes++

	possible := q.threats(st)
	if !q.canFail(possible) {
		return false
	}
	if root {
		if q.spent() {
			return false
		}
		q.nodes++
		if q.pushAbove(st) {
			return true
		}
	}
	gi := q.branchGame(st, possible)
	if gi < 0 {
		ok, evaluated := q.leaf(q.complete(st, possible, true), false)
		return evaluated && !ok
	}

	// Weaker side first to spread wins across contenders. A tie between two contenders can
	// lift both of them past the target where no win or loss does.
	for _, o := range q.outcomes(st, gi, false) {
		st.assign(q.s.open, gi, o)
		found := q.counterexample(st, false)
		st.unassign(q.s.open, gi)
		if found {
			return true
		}
		if q.halted() {
			return false
		}
	}
	return false
}

// eliminated reports whether the goal fails under every completion, with the target winning
// out and every tie at equal win percentage going its way.
func (q *query) eliminated() verdict {
	found := q.witness(q.newState(nil, true), true)
	return verdict{holds: !found && !q.halted(), bounded: !found && q.halted()}
}

// witness searches for a completion in which the target reaches the goal. At the root it first
// tries to hold every team that could pass the target under it.
func (q *query) witness(st *state, root bool) bool {
	if q.spent() {
		return false
	}
	q.nodes++

	if !q.canSucceed(q.above(st)) {
		return false
	}
	if root {
		if q.spent() {
			return false
		}
		q.nodes++
		if q.holdBelow(st) {
			return true
		}
		// With ties going the target's way, the division and the bye need exactly that every
		// capped team stays under the target, which holdBelow decides.
		if q.goal != GoalPlayoff {
			return false
		}
	}
	possible := q.threats(st)
	gi := q.branchGame(st, possible)
	if gi < 0 {
		ok, _ := q.leaf(q.complete(st, possible, false), true)
		return ok
	}

	// For a playoff spot, concentrate wins on teams already ahead; for the division and the
	// bye, spread them.
	for _, o := range q.outcomes(st, gi, q.goal == GoalPlayoff) {
		st.assign(q.s.open, gi, o)
		found := q.witness(st, false)
		st.unassign(q.s.open, gi)
		if found {
			return true
		}
		if q.halted() {
			return false
		}
	}
	return false
}

// outcomes orders the results tried for an open game: one side's win, the other side's, then a
// tie. The weaker side by points goes first unless strongerFirst is set.
func (q *query) outcomes(st *state, gi int, strongerFirst bool) [3]league.Outcome {
	og := q.s.open[gi]
	awayFirst := st.pts[og.away] < st.pts[og.home]
	if strongerFirst {
		awayFirst = st.pts[og.away] > st.pts[og.home]
	}
	if awayFirst {
		return [3]league.Outcome{league.AwayWin, league.HomeWin, league.Tie}
	}
	return [3]league.Outcome{league.HomeWin, league.AwayWin, league.Tie}
}

// settles reports whether fixed clinches the goal, for path building. A set the counting bound
// cannot settle is searched only when few contested games remain, under a trial budget of its
// own; a set the trial cannot settle is treated as not clinching.
func (q *query) settles(fixed map[int]league.Outcome) bool {
	if q.spent() {
		return false
	}
	q.nodes++
	key := fingerprint(fixed)
	if v, ok := q.memo[key]; ok {
		return v.holds
	}

	st := q.newState(fixed, false)
	possible := q.threats(st)
	switch {
	case !q.canFail(possible):
		q.memo[key] = verdict{holds: true}
		return true
	case q.pushAbove(st):
		q.memo[key] = verdict{}
		return false
	case len(q.sharedGames(st, possible)) > trialGames:
		return false
	}

	nodes, leaves := q.nodes, q.leaves
	q.nodes, q.leaves, q.capped = 0, 0, true
	found := q.counterexample(st, false)
	settled := !found && !q.halted()
	q.spentNodes += q.nodes
	q.nodes, q.leaves, q.capped, q.cut = nodes, leaves, false, false
	if found || settled {
		q.memo[key] = verdict{holds: settled}
	}
	return settled
}

// fingerprint keys a set of fixed outcomes independent of map order.
func fingerprint(fixed map[int]league.Outcome) string {
	keys := make([]int, 0, len(fixed))
	for gi := range fixed {
		keys = append(keys, gi)
	}
	slices.Sort(keys)
	var b strings.Builder
	for _, gi := range keys {
		b.WriteString(strconv.Itoa(gi))
		b.WriteByte(':')
		b.WriteString(strconv.Itoa(int(fixed[gi])))
		b.WriteByte(',')
	}
	return b.String()
}
