package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/utakatalp/playoff-picture/internal/api"
	"github.com/utakatalp/playoff-picture/internal/bracket"
	"github.com/utakatalp/playoff-picture/internal/feed"
	"github.com/utakatalp/playoff-picture/internal/league"
	"github.com/utakatalp/playoff-picture/internal/scenario"
	"github.com/utakatalp/playoff-picture/internal/store"
)

var (
	selectFlags []string
	pickFlags   []string
	goalFlag    string
	divisionTie bool
	annotate    bool
)

var standingsCmd = &cobra.Command{
	Use:   "standings [conference]",
	Short: "Print a conference table in seeding order",
	Long: `Prints the conference table in seeding order. With --annotate every team is also
run through the scenario solver for playoff elimination and magic numbers.

Example:
  playoffs standings AFC --select w18-buf-mia=away`,
	Args: cobra.ExactArgs(1),
	RunE: runStandings,
}

var scenariosCmd = &cobra.Command{
	Use:   "scenarios [team]",
	Short: "Print what a team needs to clinch a playoff spot, its division and the bye",
	Args:  cobra.ExactArgs(1),
	RunE:  runScenarios,
}

var reportCmd = &cobra.Command{
	Use:   "report [conference]",
	Short: "Print the clinch/elimination picture of every team in a conference",
	Args:  cobra.ExactArgs(1),
	RunE:  runReport,
}

var tiebreakCmd = &cobra.Command{
	Use:   "tiebreak [team...]",
	Short: "Order tied teams and show which step separated them",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runTiebreak,
}

var bracketCmd = &cobra.Command{
	Use:   "bracket",
	Short: "Print the playoff bracket from current seeds, feed results and picks",
	Long: `Builds the bracket from the current seeds, the playoff results in the snapshot
and winner picks given as round:conference:slot=team.

Example:
  playoffs bracket --pick wild_card:AFC:0=BUF --pick divisional:AFC:0=KC`,
	Args: cobra.NoArgs,
	RunE: runBracket,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the Postgres tables",
	Args:  cobra.NoArgs,
	RunE:  runMigrate,
}

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Write the snapshot's teams and games into Postgres",
	Args:  cobra.NoArgs,
	RunE:  runImport,
}

func init() {
	for _, c := range []*cobra.Command{standingsCmd, scenariosCmd, reportCmd, tiebreakCmd, bracketCmd} {
		c.Flags().StringArrayVar(&selectFlags, "select", nil, "Hypothetical result as game=home|away|tie (repeatable)")
	}
	standingsCmd.Flags().BoolVar(&annotate, "annotate", false, "Add elimination flags and magic numbers")
	scenariosCmd.Flags().StringVar(&goalFlag, "goal", "", "Only evaluate one goal: playoff, division or bye")
	tiebreakCmd.Flags().BoolVar(&divisionTie, "division", false, "Use the division tie-break procedure")
	bracketCmd.Flags().StringArrayVar(&pickFlags, "pick", nil, "Winner pick as round:conference:slot=team (repeatable)")
}

// loadSeason reads the configured source once.
func loadSeason(cmd *cobra.Command) (*feed.Season, error) {
	src, release, err := openSource(cmd.Context())
	defer release()
	if err != nil {
		return nil, err
	}
	season, err := src.Load(cmd.Context())
	if err != nil {
		return nil, err
	}
	logger.Debug("season loaded", zap.Int("teams", len(season.Teams)), zap.Int("games", len(season.Games)))
	return season, nil
}

// newSolver loads the season and lays the --select flags over its selections.
func newSolver(cmd *cobra.Command) (*scenario.Solver, *feed.Season, error) {
	season, err := loadSeason(cmd)
	if err != nil {
		return nil, nil, err
	}
	sel, err := parseSelections(season.Selections, selectFlags)
	if err != nil {
		return nil, nil, err
	}
	return scenario.NewSolver(season.League(), season.Games, sel, solverConfig()), season, nil
}

func parseConference(s string) (league.Conference, error) {
	conf := league.Conference(strings.ToUpper(s))
	for _, c := range league.Conferences {
		if c == conf {
			return conf, nil
		}
	}
	return "", fmt.Errorf("unknown conference %q", s)
}

// parseSelections copies base and applies game=outcome flags.
func parseSelections(base league.Selections, flags []string) (league.Selections, error) {
	sel := base.Clone(len(flags))
	for _, f := range flags {
		id, raw, ok := strings.Cut(f, "=")
		if !ok || id == "" {
			return nil, fmt.Errorf("malformed selection %q, want game=home|away|tie", f)
		}
		var o league.Outcome
		if err := o.UnmarshalText([]byte(raw)); err != nil {
			return nil, fmt.Errorf("selection %q: %w", f, err)
		}
		sel[id] = o
	}
	return sel, nil
}

// parsePicks applies round:conference:slot=team flags in order, so a later flag clears the picks
// that depended on an earlier one.
func parsePicks(flags []string) (bracket.Picks, error) {
	picks := bracket.Picks{}
	for _, f := range flags {
		raw, team, ok := strings.Cut(f, "=")
		if !ok || team == "" {
			return nil, fmt.Errorf("malformed pick %q, want round:conference:slot=team", f)
		}
		var k bracket.PickKey
		if err := k.UnmarshalText([]byte(raw)); err != nil {
			return nil, fmt.Errorf("pick %q: %w", f, err)
		}
		picks.Set(k, team)
	}
	return picks, nil
}

func runStandings(cmd *cobra.Command, args []string) error {
	conf, err := parseConference(args[0])
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(true)
	defer cancel()
	cmd.SetContext(ctx)

	solver, _, err := newSolver(cmd)
	if err != nil {
		return err
	}
	table := solver.Season().Standings(conf)
	if annotate {
		if table, err = solver.Standings(ctx, conf); err != nil {
			return err
		}
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderStandings(table, annotate))
	return nil
}

func runScenarios(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(true)
	defer cancel()
	cmd.SetContext(ctx)

	solver, season, err := newSolver(cmd)
	if err != nil {
		return err
	}
	teamID := args[0]
	if _, ok := season.League().Team(teamID); !ok {
		return fmt.Errorf("unknown team %q", teamID)
	}

	var scenarios []scenario.Scenario
	if goalFlag != "" {
		goal, err := scenario.ParseGoal(goalFlag)
		if err != nil {
			return err
		}
		scenarios = append(scenarios, solver.Evaluate(ctx, teamID, goal))
	} else {
		b := solver.Bundle(ctx, teamID)
		for _, g := range scenario.Goals {
			scenarios = append(scenarios, b.Scenarios[g])
		}
	}
	for _, sc := range scenarios {
		if sc.Search == scenario.SearchBounded {
			logger.Warn("search hit its bound", zap.String("team", teamID), zap.Stringer("goal", sc.Goal), zap.Int("nodes", sc.Nodes))
		}
		fmt.Fprintln(cmd.OutOrStdout(), renderScenario(sc))
	}
	return nil
}

func runReport(cmd *cobra.Command, args []string) error {
	conf, err := parseConference(args[0])
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(true)
	defer cancel()
	cmd.SetContext(ctx)

	solver, _, err := newSolver(cmd)
	if err != nil {
		return err
	}
	bundles, err := solver.Report(ctx, conf)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderReport(bundles))
	return nil
}

func runTiebreak(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(true)
	defer cancel()
	cmd.SetContext(ctx)

	solver, season, err := newSolver(cmd)
	if err != nil {
		return err
	}
	for _, id := range args {
		if _, ok := season.League().Team(id); !ok {
			return fmt.Errorf("unknown team %q", id)
		}
	}
	order, splits := solver.Season().ExplainTie(args, divisionTie)
	fmt.Fprintln(cmd.OutOrStdout(), renderTiebreak(order, splits))
	return nil
}

func runBracket(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(true)
	defer cancel()
	cmd.SetContext(ctx)

	picks, err := parsePicks(pickFlags)
	if err != nil {
		return err
	}
	solver, season, err := newSolver(cmd)
	if err != nil {
		return err
	}
	seeds := make(map[league.Conference][]string, len(league.Conferences))
	for _, conf := range league.Conferences {
		seeds[conf] = solver.Season().Seeds(conf).Seeds
	}
	b := bracket.Reconcile(seeds, season.Playoffs, picks)
	fmt.Fprintln(cmd.OutOrStdout(), renderBracket(b))
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(false)
	defer cancel()

	src, release, err := openSource(ctx)
	defer release()
	if err != nil {
		return err
	}
	srv := api.NewServer(logger, api.Options{
		Source:  src,
		Cache:   feed.NewCache(cfg.Feed.TTL),
		Solver:  solverConfig(),
		Metrics: api.NewMetrics(),
		Limiter: api.NewClientRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst),
	})
	return srv.ListenAndServe(ctx, cfg.Server.Addr, cfg.Server.ReadTimeout, cfg.Server.WriteTimeout)
}

func openStore(cmd *cobra.Command) (*store.Store, error) {
	if cfg.Postgres.DSN == "" {
		return nil, fmt.Errorf("postgres.dsn or DATABASE_URL is required")
	}
	return store.NewStore(cmd.Context(), cfg.Postgres.DSN)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(true)
	defer cancel()
	cmd.SetContext(ctx)

	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()
	if err := st.Migrate(ctx); err != nil {
		return err
	}
	logger.Info("migrated")
	return nil
}

func runImport(cmd *cobra.Command, args []string) error {
	if cfg.Feed.SnapshotPath == "" {
		return fmt.Errorf("--snapshot is required")
	}
	ctx, cancel := commandContext(true)
	defer cancel()
	cmd.SetContext(ctx)

	season, err := feed.LoadSnapshot(cfg.Feed.SnapshotPath)
	if err != nil {
		return err
	}
	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()
	if err := st.Migrate(ctx); err != nil {
		return err
	}
	if err := st.InsertTeams(ctx, season.Teams); err != nil {
		return err
	}
	if err := st.UpsertGames(ctx, season.Games); err != nil {
		return err
	}
	logger.Info("imported snapshot",
		zap.String("snapshot", cfg.Feed.SnapshotPath),
		zap.Int("teams", len(season.Teams)),
		zap.Int("games", len(season.Games)),
	)
	return nil
}
