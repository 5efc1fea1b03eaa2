package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/utakatalp/playoff-picture/internal/feed"
	"github.com/utakatalp/playoff-picture/internal/league"
	"github.com/utakatalp/playoff-picture/internal/scenario"
)

type staticSource struct {
	season *feed.Season
	err    error
}

func (s staticSource) Load(context.Context) (*feed.Season, error) { return s.season, s.err }

func final(id string, week int, home, away string) league.Game {
	return league.Game{ID: id, Week: week, Home: home, Away: away, Status: league.StatusFinal, Score: &league.Score{Home: 24, Away: 17}}
}

func testSeason() *feed.Season {
	return &feed.Season{
		Teams: []league.Team{
			{ID: "BUF", Name: "Buffalo", Conference: league.AFC, Division: "AFC East"},
			{ID: "MIA", Name: "Miami", Conference: league.AFC, Division: "AFC East"},
			{ID: "BAL", Name: "Baltimore", Conference: league.AFC, Division: "AFC North"},
			{ID: "PIT", Name: "Pittsburgh", Conference: league.AFC, Division: "AFC North"},
			{ID: "DAL", Name: "Dallas", Conference: league.NFC, Division: "NFC East"},
			{ID: "PHI", Name: "Philadelphia", Conference: league.NFC, Division: "NFC East"},
			{ID: "GB", Name: "Green Bay", Conference: league.NFC, Division: "NFC North"},
			{ID: "CHI", Name: "Chicago", Conference: league.NFC, Division: "NFC North"},
		},
		Games: []league.Game{
			final("g1", 1, "BUF", "MIA"),
			final("g2", 1, "BAL", "PIT"),
			final("g3", 1, "DAL", "PHI"),
			final("g4", 1, "GB", "CHI"),
			{ID: "g5", Week: 2, Home: "BUF", Away: "BAL", Status: league.StatusScheduled},
		},
	}
}

func newTestServer(t *testing.T, src feed.Source, limiter *ClientRateLimiter) *Server {
	t.Helper()
	return NewServer(zap.NewNop(), Options{
		Source:  src,
		Cache:   feed.NewCache(0),
		Solver:  scenario.DefaultConfig(),
		Limiter: limiter,
	})
}

func do(s *Server, method, target, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

// standingRow is the part of a standings row the tests read.
type standingRow struct {
	Team struct {
		ID         string `json:"id"`
		Conference string `json:"conference"`
	} `json:"team"`
	Seed       int  `json:"seed"`
	Eliminated bool `json:"eliminated"`
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, staticSource{season: testSeason()}, nil)
	rec := do(s, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))
}

func TestRequestIDIsEchoed(t *testing.T) {
	s := newTestServer(t, staticSource{season: testSeason()}, nil)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
}

func TestStandings(t *testing.T) {
	defer goleak.VerifyNone(t)
	s := newTestServer(t, staticSource{season: testSeason()}, nil)

	rec := do(s, http.MethodPost, "/v1/standings/afc", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var table []standingRow
	decodeBody(t, rec, &table)
	require.Len(t, table, 4)
	assert.Equal(t, 1, table[0].Seed)
	for _, row := range table {
		assert.Equal(t, "AFC", row.Team.Conference)
		// Four teams compete for seven seeds.
		assert.False(t, row.Eliminated)
	}
}

func TestSelectionsShapeStandings(t *testing.T) {
	s := newTestServer(t, staticSource{season: testSeason()}, nil)

	for _, tc := range []struct {
		outcome string
		leader  string
	}{
		{"home", "BUF"},
		{"away", "BAL"},
	} {
		t.Run(tc.outcome, func(t *testing.T) {
			rec := do(s, http.MethodPost, "/v1/standings/AFC", `{"selections": {"g5": "`+tc.outcome+`"}}`)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			var table []standingRow
			decodeBody(t, rec, &table)
			require.NotEmpty(t, table)
			assert.Equal(t, tc.leader, table[0].Team.ID)
		})
	}
}

func TestScenarioForOneGoal(t *testing.T) {
	s := newTestServer(t, staticSource{season: testSeason()}, nil)

	// MIA has no games left and can only finish behind BUF.
	rec := do(s, http.MethodPost, "/v1/scenarios/BUF?goal=division", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var sc struct {
		TeamID      string `json:"team_id"`
		Status      string `json:"status"`
		MagicNumber *int   `json:"magic_number"`
	}
	decodeBody(t, rec, &sc)
	assert.Equal(t, "BUF", sc.TeamID)
	assert.Equal(t, "clinched", sc.Status)
	require.NotNil(t, sc.MagicNumber)
	assert.Equal(t, 0, *sc.MagicNumber)
}

func TestScenarioBundle(t *testing.T) {
	s := newTestServer(t, staticSource{season: testSeason()}, nil)

	rec := do(s, http.MethodPost, "/v1/scenarios/MIA", "{}")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var b struct {
		TeamID    string                     `json:"team_id"`
		Scenarios map[string]json.RawMessage `json:"scenarios"`
	}
	decodeBody(t, rec, &b)
	assert.Equal(t, "MIA", b.TeamID)
	assert.Contains(t, b.Scenarios, "playoff")
	assert.Contains(t, b.Scenarios, "division")
	assert.Contains(t, b.Scenarios, "bye")
}

func TestReport(t *testing.T) {
	defer goleak.VerifyNone(t)
	s := newTestServer(t, staticSource{season: testSeason()}, nil)

	rec := do(s, http.MethodPost, "/v1/reports/NFC", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var bundles []struct {
		TeamID string `json:"team_id"`
	}
	decodeBody(t, rec, &bundles)
	require.Len(t, bundles, 4)
	assert.Equal(t, "DAL", bundles[0].TeamID)
}

func TestTiebreakExplainsSplits(t *testing.T) {
	s := newTestServer(t, staticSource{season: testSeason()}, nil)

	rec := do(s, http.MethodPost, "/v1/tiebreak", `{"teams": ["BAL", "BUF"], "selections": {"g5": "home"}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var out struct {
		Order  []string `json:"order"`
		Splits []struct {
			Step string `json:"step"`
		} `json:"splits"`
	}
	decodeBody(t, rec, &out)
	assert.Equal(t, []string{"BUF", "BAL"}, out.Order)
	require.NotEmpty(t, out.Splits)
	assert.Equal(t, "head-to-head", out.Splits[0].Step)
}

func TestBracketFromSeeds(t *testing.T) {
	s := newTestServer(t, staticSource{season: testSeason()}, nil)

	rec := do(s, http.MethodPost, "/v1/bracket", `{"picks": {"wild_card:AFC:0": "nobody"}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var b struct {
		Matchups []json.RawMessage `json:"matchups"`
		Champion string            `json:"champion"`
	}
	decodeBody(t, rec, &b)
	// Three wild card slots per conference; nothing later can be derived.
	assert.Len(t, b.Matchups, 6)
	assert.Empty(t, b.Champion)
}

func TestErrors(t *testing.T) {
	s := newTestServer(t, staticSource{season: testSeason()}, nil)

	tests := []struct {
		name   string
		method string
		target string
		body   string
		code   int
	}{
		{"unknown conference", http.MethodPost, "/v1/standings/XFL", "", http.StatusNotFound},
		{"unknown team", http.MethodPost, "/v1/scenarios/NOPE", "", http.StatusNotFound},
		{"unknown goal", http.MethodPost, "/v1/scenarios/BUF?goal=superbowl", "", http.StatusBadRequest},
		{"malformed body", http.MethodPost, "/v1/standings/AFC", "{", http.StatusBadRequest},
		{"unknown field", http.MethodPost, "/v1/standings/AFC", `{"weeks": 3}`, http.StatusBadRequest},
		{"bad outcome", http.MethodPost, "/v1/standings/AFC", `{"selections": {"g5": "draw"}}`, http.StatusBadRequest},
		{"bad pick key", http.MethodPost, "/v1/bracket", `{"picks": {"round-one": "BUF"}}`, http.StatusBadRequest},
		{"empty tiebreak", http.MethodPost, "/v1/tiebreak", `{"teams": []}`, http.StatusBadRequest},
		{"unknown tiebreak team", http.MethodPost, "/v1/tiebreak", `{"teams": ["BUF", "NOPE"]}`, http.StatusNotFound},
		{"no route", http.MethodGet, "/v2/anything", "", http.StatusNotFound},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(s, tc.method, tc.target, tc.body)
			assert.Equal(t, tc.code, rec.Code, rec.Body.String())
			var body errorResponse
			decodeBody(t, rec, &body)
			assert.NotEmpty(t, body.Error)
		})
	}
}

func TestFeedFailureIsInternalError(t *testing.T) {
	s := newTestServer(t, staticSource{err: errors.New("feed down")}, nil)
	rec := do(s, http.MethodGet, "/v1/teams", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "feed down")
}

func TestRateLimit(t *testing.T) {
	s := newTestServer(t, staticSource{season: testSeason()}, NewClientRateLimiter(0.001, 1))

	first := do(s, http.MethodGet, "/v1/teams", "")
	assert.Equal(t, http.StatusOK, first.Code)
	second := do(s, http.MethodGet, "/v1/teams", "")
	assert.Equal(t, http.StatusTooManyRequests, second.Code)

	// Health checks are not limited.
	assert.Equal(t, http.StatusOK, do(s, http.MethodGet, "/healthz", "").Code)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, staticSource{season: testSeason()}, nil)
	do(s, http.MethodGet, "/healthz", "")
	do(s, http.MethodPost, "/v1/standings/AFC", "")

	rec := do(s, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `playoffs_http_requests_total{code="200",route="/healthz"} 1`)
	assert.Contains(t, body, `playoffs_evaluation_seconds_count{kind="standings"} 1`)
}
