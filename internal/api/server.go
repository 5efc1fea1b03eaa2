// Package api serves standings, scenarios, tie-break explanations and the playoff bracket over
// HTTP. Every evaluation runs on the current season snapshot plus the selections sent with the
// request; nothing a request sends is kept.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/utakatalp/playoff-picture/internal/bracket"
	"github.com/utakatalp/playoff-picture/internal/feed"
	"github.com/utakatalp/playoff-picture/internal/league"
	"github.com/utakatalp/playoff-picture/internal/scenario"
)

const seasonKey = "season"

// maxBodyBytes caps request bodies; a full season of selections is far below it.
const maxBodyBytes = 1 << 20

// Options configures a Server.
type Options struct {
	Source  feed.Source
	Cache   *feed.Cache
	Solver  scenario.Config
	Metrics *Metrics
	Limiter *ClientRateLimiter
}

// Server routes HTTP requests to the engine.
type Server struct {
	log     *zap.Logger
	src     feed.Source
	cache   *feed.Cache
	solver  scenario.Config
	metrics *Metrics
	router  *mux.Router
}

// NewServer wires the routes. Missing metrics or limiter options get working defaults.
func NewServer(log *zap.Logger, opts Options) *Server {
	if opts.Metrics == nil {
		opts.Metrics = NewMetrics()
	}
	if opts.Limiter == nil {
		opts.Limiter = NewClientRateLimiter(0, 0)
	}
	s := &Server{
		log:     log,
		src:     opts.Source,
		cache:   opts.Cache,
		solver:  opts.Solver,
		metrics: opts.Metrics,
		router:  mux.NewRouter(),
	}

	s.router.Use(requestIDMiddleware, accessLog(log, s.metrics))
	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	s.router.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)

	v1 := s.router.PathPrefix("/v1").Subrouter()
	v1.Use(rateLimit(opts.Limiter))
	v1.HandleFunc("/teams", s.handleTeams).Methods(http.MethodGet)
	v1.HandleFunc("/standings/{conference}", s.handleStandings).Methods(http.MethodPost)
	v1.HandleFunc("/scenarios/{team}", s.handleScenarios).Methods(http.MethodPost)
	v1.HandleFunc("/reports/{conference}", s.handleReport).Methods(http.MethodPost)
	v1.HandleFunc("/tiebreak", s.handleTiebreak).Methods(http.MethodPost)
	v1.HandleFunc("/bracket", s.handleBracket).Methods(http.MethodPost)

	s.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "no such route")
	})
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.router.ServeHTTP(w, r) }

// evalRequest is the body shared by the evaluation endpoints. Every field is optional.
type evalRequest struct {
	Selections league.Selections `json:"selections"`
	Picks      bracket.Picks     `json:"picks"`
	Teams      []string          `json:"teams"`
	Division   bool              `json:"division"`
}

type tiebreakResponse struct {
	Order  []string       `json:"order"`
	Splits []league.Split `json:"splits"`
}

// ListenAndServe runs the server until ctx is canceled, then drains in-flight requests.
func (s *Server) ListenAndServe(ctx context.Context, addr string, readTimeout, writeTimeout time.Duration) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}
	errc := make(chan error, 1)
	go func() {
		s.log.Info("listening", zap.String("addr", addr))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("serving: %w", err)
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleTeams(w http.ResponseWriter, r *http.Request) {
	season, err := feed.Cached(r.Context(), s.cache, seasonKey, s.src)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, season.Teams)
}

func (s *Server) handleStandings(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decode(w, r)
	if !ok {
		return
	}
	conf, ok := conferenceVar(w, r)
	if !ok {
		return
	}
	solver, _, err := s.newSolver(r.Context(), req.Selections)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	start := time.Now()
	table, err := solver.Standings(r.Context(), conf)
	s.metrics.observeEvaluation("standings", start)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, table)
}

func (s *Server) handleScenarios(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decode(w, r)
	if !ok {
		return
	}
	var goal scenario.Goal
	if g := r.URL.Query().Get("goal"); g != "" {
		parsed, err := scenario.ParseGoal(g)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		goal = parsed
	}
	solver, lg, err := s.newSolver(r.Context(), req.Selections)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	teamID := mux.Vars(r)["team"]
	if _, ok := lg.Team(teamID); !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown team %q", teamID))
		return
	}

	start := time.Now()
	if goal != 0 {
		sc := solver.Evaluate(r.Context(), teamID, goal)
		s.metrics.observeEvaluation("scenario", start)
		s.logBounds(r, s.metrics.observeBundles(scenario.Bundle{TeamID: teamID, Scenarios: map[scenario.Goal]scenario.Scenario{goal: sc}}))
		writeJSON(w, http.StatusOK, sc)
		return
	}
	b := solver.Bundle(r.Context(), teamID)
	s.metrics.observeEvaluation("bundle", start)
	s.logBounds(r, s.metrics.observeBundles(b))
	writeJSON(w, http.StatusOK, b)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decode(w, r)
	if !ok {
		return
	}
	conf, ok := conferenceVar(w, r)
	if !ok {
		return
	}
	solver, _, err := s.newSolver(r.Context(), req.Selections)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	start := time.Now()
	bundles, err := solver.Report(r.Context(), conf)
	s.metrics.observeEvaluation("report", start)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.logBounds(r, s.metrics.observeBundles(bundles...))
	writeJSON(w, http.StatusOK, bundles)
}

func (s *Server) handleTiebreak(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decode(w, r)
	if !ok {
		return
	}
	if len(req.Teams) == 0 {
		writeError(w, http.StatusBadRequest, "teams must not be empty")
		return
	}
	solver, lg, err := s.newSolver(r.Context(), req.Selections)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	for _, id := range req.Teams {
		if _, ok := lg.Team(id); !ok {
			writeError(w, http.StatusNotFound, fmt.Sprintf("unknown team %q", id))
			return
		}
	}
	order, splits := solver.Season().ExplainTie(req.Teams, req.Division)
	if splits == nil {
		splits = []league.Split{}
	}
	writeJSON(w, http.StatusOK, tiebreakResponse{Order: order, Splits: splits})
}

func (s *Server) handleBracket(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decode(w, r)
	if !ok {
		return
	}
	season, err := feed.Cached(r.Context(), s.cache, seasonKey, s.src)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	standings := league.NewSeason(season.League(), season.Games, mergeSelections(season.Selections, req.Selections))

	start := time.Now()
	seeds := make(map[league.Conference][]string, len(league.Conferences))
	for _, conf := range league.Conferences {
		seeds[conf] = standings.Seeds(conf).Seeds
	}
	b := bracket.Reconcile(seeds, season.Playoffs, req.Picks)
	s.metrics.observeEvaluation("bracket", start)
	writeJSON(w, http.StatusOK, b)
}

// newSolver builds a solver over the current snapshot with the request's selections laid over
// the snapshot's own.
func (s *Server) newSolver(ctx context.Context, sel league.Selections) (*scenario.Solver, *league.League, error) {
	season, err := feed.Cached(ctx, s.cache, seasonKey, s.src)
	if err != nil {
		return nil, nil, err
	}
	lg := season.League()
	return scenario.NewSolver(lg, season.Games, mergeSelections(season.Selections, sel), s.solver), lg, nil
}

func mergeSelections(base, over league.Selections) league.Selections {
	out := base.Clone(len(over))
	for id, o := range over {
		out[id] = o
	}
	return out
}

// decode reads an optional JSON body. An empty body is an empty request.
func (s *Server) decode(w http.ResponseWriter, r *http.Request) (evalRequest, bool) {
	var req evalRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("decoding request: %v", err))
		return req, false
	}
	return req, true
}

func conferenceVar(w http.ResponseWriter, r *http.Request) (league.Conference, bool) {
	raw := mux.Vars(r)["conference"]
	conf := league.Conference(strings.ToUpper(raw))
	for _, c := range league.Conferences {
		if c == conf {
			return conf, true
		}
	}
	writeError(w, http.StatusNotFound, fmt.Sprintf("unknown conference %q", raw))
	return "", false
}

func (s *Server) logBounds(r *http.Request, hits int) {
	if hits > 0 {
		s.log.Warn("scenario search hit its bound",
			zap.String("request_id", RequestID(r.Context())),
			zap.String("path", r.URL.Path),
			zap.Int("scenarios", hits),
		)
	}
}

// fail reports an internal error. A canceled request is logged at debug level only.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, context.Canceled) {
		s.log.Debug("request canceled", zap.String("request_id", RequestID(r.Context())))
		writeError(w, http.StatusServiceUnavailable, "request canceled")
		return
	}
	s.log.Error("request failed", zap.String("request_id", RequestID(r.Context())), zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal error")
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
