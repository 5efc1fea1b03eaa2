package scenario

import (
	"cmp"
	"context"
	"runtime"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/utakatalp/playoff-picture/internal/league"
)

// Config bounds the work done by one evaluation.
type Config struct {
	// MaxNodes caps search nodes per search phase.
	MaxNodes int
	// MaxLeaves caps full standings evaluations per search phase.
	MaxLeaves int
	// MaxPaths caps the number of paths reported.
	MaxPaths int
	// Timeout caps the wall time of one evaluation. Zero disables it.
	Timeout time.Duration
}

// DefaultConfig returns the bounds used when a field is left zero.
func DefaultConfig() Config {
	return Config{
		MaxNodes:  100_000,
		MaxLeaves: 1_500,
		MaxPaths:  5,
		Timeout:   750 * time.Millisecond,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.MaxNodes <= 0 {
		c.MaxNodes = d.MaxNodes
	}
	if c.MaxLeaves <= 0 {
		c.MaxLeaves = d.MaxLeaves
	}
	if c.MaxPaths <= 0 {
		c.MaxPaths = d.MaxPaths
	}
	return c
}

// Solver answers clinch, elimination and magic-number questions for one snapshot of games and
// selections. It is immutable after construction and safe for concurrent use.
type Solver struct {
	lg    *league.League
	games []league.Game
	sel   league.Selections
	cfg   Config
	base  *league.Season

	open []openGame
	// Per dense team index: half-win points and games from counted results, and open games left.
	pts       []int
	played    []int
	remaining []int
}

// NewSolver prepares a solver. Games that are final or selected are fixed; the rest with two
// known teams are open.
func NewSolver(lg *league.League, games []league.Game, sel league.Selections, cfg Config) *Solver {
	s := &Solver{
		lg:        lg,
		games:     games,
		sel:       sel.Clone(0),
		cfg:       cfg.withDefaults(),
		base:      league.NewSeason(lg, games, sel),
		pts:       make([]int, lg.Len()),
		played:    make([]int, lg.Len()),
		remaining: make([]int, lg.Len()),
	}
	for i, t := range lg.Teams() {
		rec, _ := s.base.Record(t.ID)
		s.pts[i] = rec.Overall.Points()
		s.played[i] = rec.Overall.Games()
	}
	for _, g := range games {
		if g.Final() {
			continue
		}
		if _, ok := s.sel[g.ID]; ok {
			continue
		}
		h, a := lg.Index(g.Home), lg.Index(g.Away)
		if h < 0 || a < 0 || h == a {
			continue
		}
		s.open = append(s.open, openGame{game: g, home: h, away: a})
		s.remaining[h]++
		s.remaining[a]++
	}
	slices.SortStableFunc(s.open, func(a, b openGame) int {
		if c := cmp.Compare(a.game.Week, b.game.Week); c != 0 {
			return c
		}
		return cmp.Compare(a.game.ID, b.game.ID)
	})
	return s
}

// Season returns the standings under the solver's selections.
func (s *Solver) Season() *league.Season { return s.base }

// OpenGames returns the number of games the solver searches over.
func (s *Solver) OpenGames() int { return len(s.open) }

func (s *Solver) gamesFor(i int) int { return s.played[i] + s.remaining[i] }

// Evaluate answers one goal for one team. Unknown teams get an empty, undetermined scenario.
func (s *Solver) Evaluate(ctx context.Context, teamID string, goal Goal) Scenario {
	out := Scenario{TeamID: teamID, Goal: goal, Status: StatusUndetermined, Paths: []Path{}}
	q, ok := s.newQuery(ctx, teamID, goal)
	if !ok {
		return out
	}

	q.begin()
	clinch := q.clinched(nil)
	q.end()
	if clinch.holds {
		out.Status = StatusClinched
		out.MagicNumber = intPtr(0)
		out.Nodes = q.spentNodes
		return out
	}

	q.begin()
	elim := q.eliminated()
	q.end()
	if elim.holds {
		out.Status = StatusEliminated
		out.Search = q.search()
		out.Nodes = q.spentNodes
		return out
	}

	q.begin()
	paths := q.paths()
	partial := q.bounded
	q.end()
	out.Paths = paths
	out.Search = q.search()
	out.Nodes = q.spentNodes

	switch {
	case clinch.bounded:
	case elim.bounded && len(paths) == 0:
	default:
		out.Status = StatusAlive
		// Paths cut short by the bound only give an upper bound, not the magic number.
		if len(paths) > 0 && !partial {
			best := paths[0].Events
			for _, p := range paths[1:] {
				best = min(best, p.Events)
			}
			out.MagicNumber = intPtr(best)
		}
	}
	return out
}

// Bundle evaluates every goal for a team. A team eliminated from a weaker goal is eliminated
// from every stronger one, and a clinched stronger goal clinches every weaker one.
func (s *Solver) Bundle(ctx context.Context, teamID string) Bundle {
	playoff := s.Evaluate(ctx, teamID, GoalPlayoff)

	division := derived(playoff, GoalDivision, StatusEliminated)
	if !playoff.Eliminated() {
		division = s.Evaluate(ctx, teamID, GoalDivision)
	}
	bye := derived(division, GoalBye, StatusEliminated)
	if !division.Eliminated() {
		bye = s.Evaluate(ctx, teamID, GoalBye)
	}

	if bye.Clinched() && !division.Clinched() {
		division = derived(bye, GoalDivision, StatusClinched)
	}
	if division.Clinched() && !playoff.Clinched() {
		playoff = derived(division, GoalPlayoff, StatusClinched)
	}
	return Bundle{
		TeamID: teamID,
		Scenarios: map[Goal]Scenario{
			GoalPlayoff:  playoff,
			GoalDivision: division,
			GoalBye:      bye,
		},
	}
}

func derived(from Scenario, goal Goal, status Status) Scenario {
	out := Scenario{TeamID: from.TeamID, Goal: goal, Status: status, Paths: []Path{}, Search: from.Search}
	if status == StatusClinched {
		out.MagicNumber = intPtr(0)
	}
	return out
}

// Report bundles every team of a conference. Teams are evaluated concurrently; the result is in
// conference order.
func (s *Solver) Report(ctx context.Context, conf league.Conference) ([]Bundle, error) {
	ids := s.lg.ConferenceTeams(conf)
	out := make([]Bundle, len(ids))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, id := range ids {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			out[i] = s.Bundle(ctx, id)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Standings returns the conference table annotated with playoff elimination and magic numbers.
func (s *Solver) Standings(ctx context.Context, conf league.Conference) ([]league.Standing, error) {
	bundles, err := s.Report(ctx, conf)
	if err != nil {
		return nil, err
	}
	byTeam := make(map[string]Scenario, len(bundles))
	for _, b := range bundles {
		byTeam[b.TeamID] = b.Scenarios[GoalPlayoff]
	}
	table := s.base.Standings(conf)
	for i := range table {
		sc := byTeam[table[i].Team.ID]
		table[i].Eliminated = sc.Eliminated()
		table[i].MagicNumber = sc.MagicNumber
	}
	return table, nil
}

func intPtr(v int) *int { return &v }
