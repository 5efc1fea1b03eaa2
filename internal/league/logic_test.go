package league

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEffectiveResult(t *testing.T) {
	tests := []struct {
		name     string
		game     Game
		sel      Selections
		wantOK   bool
		wantWin  string
		wantHypo bool
	}{
		{
			name:    "final score is authoritative over a selection",
			game:    Game{ID: "g1", Home: "AE1", Away: "AE2", Status: StatusFinal, Score: &Score{Home: 10, Away: 20}},
			sel:     Selections{"g1": HomeWin},
			wantOK:  true,
			wantWin: "AE2",
		},
		{
			name:     "selected home win counts as a placeholder result",
			game:     Game{ID: "g2", Home: "AE1", Away: "AE2", Status: StatusScheduled},
			sel:      Selections{"g2": HomeWin},
			wantOK:   true,
			wantWin:  "AE1",
			wantHypo: true,
		},
		{
			name:     "selected tie has no winner",
			game:     Game{ID: "g3", Home: "AE1", Away: "AE2", Status: StatusInProgress},
			sel:      Selections{"g3": Tie},
			wantOK:   true,
			wantWin:  "",
			wantHypo: true,
		},
		{
			name: "unselected scheduled game is not counted",
			game: Game{ID: "g4", Home: "AE1", Away: "AE2", Status: StatusScheduled},
		},
		{
			name: "final game without a score is skipped",
			game: Game{ID: "g5", Home: "AE1", Away: "AE2", Status: StatusFinal},
		},
		{
			name: "missing opponent is skipped",
			game: Game{ID: "g6", Home: "AE1", Status: StatusFinal, Score: &Score{Home: 3}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, ok := EffectiveResult(tt.game, tt.sel)
			require.Equal(t, tt.wantOK, ok)
			if !ok {
				return
			}
			assert.Equal(t, tt.wantWin, r.Winner())
			assert.Equal(t, tt.wantHypo, r.Hypothetical)
		})
	}
}

func TestNewSeasonBuckets(t *testing.T) {
	lg := testLeague()
	var b gameBook
	b.beat("AE1", "AE2")       // division and conference
	b.beat("AN1", "AE1")       // conference only
	b.beat("AE1", "NE1")       // neither
	b.final("AE1", "AE3", 7, 7) // division tie
	b.beat("AE1", "ZZ9")

	s := NewSeason(lg, b.games, nil)
	rec, ok := s.Record("AE1")
	require.True(t, ok)

	assert.Equal(t, WLT{W: 2, L: 1, T: 1}, rec.Overall)
	assert.Equal(t, WLT{W: 1, L: 0, T: 1}, rec.Division)
	assert.Equal(t, WLT{W: 1, L: 1, T: 1}, rec.Conference)
	assert.InDelta(t, 0.625, rec.Overall.Pct(), 1e-9)
	assert.ElementsMatch(t, []string{"AE2", "AN1", "NE1", "AE3"}, rec.Opponents)
	assert.ElementsMatch(t, []string{"AE2", "NE1"}, rec.Beaten)
	assert.Equal(t, 24+17+24+7, rec.PointsFor)
	assert.Len(t, s.Results(), 4, "game against an unknown team is skipped")

	_, ok = s.Record("ZZ9")
	assert.False(t, ok)
}

func TestSelectionNeverOverridesFinal(t *testing.T) {
	lg := testLeague()
	var b gameBook
	id := b.beat("AE1", "AE2")
	s := NewSeason(lg, b.games, Selections{id: AwayWin})
	rec, _ := s.Record("AE1")
	assert.Equal(t, 1, rec.Overall.W)
}

func TestComputeRecordsDeterministic(t *testing.T) {
	lg := testLeague()
	var b gameBook
	b.beatN("AE1", 5, "NE1", "NE2", "NE3")
	b.beatN("AN2", 3, "AE1", "AS3")
	b.final("AW1", "AW2", 13, 13)
	open := b.open("AE1", "AN2")
	sel := Selections{open: AwayWin}

	first := ComputeRecords(lg, b.games, sel)
	second := ComputeRecords(lg, b.games, sel)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("records differ between runs (-first +second):\n%s", diff)
	}
	if diff := cmp.Diff(NewSeason(lg, b.games, sel).Standings(AFC), NewSeason(lg, b.games, sel).Standings(AFC)); diff != "" {
		t.Fatalf("standings differ between runs (-first +second):\n%s", diff)
	}
}

func TestCombinedPointsRank(t *testing.T) {
	lg := testLeague()
	var b gameBook
	b.final("AE1", "AE2", 40, 0)
	b.final("AE3", "AE4", 10, 10)

	s := NewSeason(lg, b.games, nil)
	// AE1 scores most and allows least among the AFC.
	assert.Equal(t, 2, s.confPointsRank["AE1"])
	assert.Less(t, s.confPointsRank["AE1"], s.confPointsRank["AE2"])
}
