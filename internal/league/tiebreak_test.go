package league

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBreakTieHeadToHead(t *testing.T) {
	lg := testLeague()
	var b gameBook
	b.beat("AE1", "AE2")
	b.beat("AE1", "AE2")
	// Division records are level at 2-2.
	b.beatN("AE2", 2, "AE3", "AE4")
	b.beatN("AE3", 2, "AE1")

	s := NewSeason(lg, b.games, nil)
	order, trace := s.ExplainTie([]string{"AE2", "AE1"}, true)
	assert.Equal(t, []string{"AE1", "AE2"}, order)
	require.NotEmpty(t, trace)
	assert.Equal(t, StepHeadToHead, trace[0].Step)
}

func TestBreakTieHeadToHeadNeedsEveryPairing(t *testing.T) {
	lg := testLeague()
	var b gameBook
	b.beat("AE1", "AE2")
	// AE3 never met AE1 or AE2, so head-to-head cannot apply to the three of them.
	b.beat("AE3", "AE4")
	b.beat("AE2", "AE4")
	b.beat("AE4", "AE1")
	b.beat("AE4", "AE3")
	b.beat("AN1", "AE2")

	s := NewSeason(lg, b.games, nil)
	_, trace := s.ExplainTie([]string{"AE1", "AE2", "AE3"}, true)
	require.NotEmpty(t, trace)
	assert.NotEqual(t, StepHeadToHead, trace[0].Step)
}

func TestRestartAppliesHeadToHeadInsideSubgroup(t *testing.T) {
	lg := testLeague()
	var b gameBook
	// AE1 and AE2 met; AE3 met neither. AE3 drops out on division record, then the remaining
	// pair restarts and is separated head-to-head even though AE2 has the better conference record.
	b.beat("AE1", "AE2")
	b.beat("AE4", "AE1")
	b.beat("AE2", "AE4")
	b.beat("AE4", "AE3")
	b.beat("AE4", "AE3")
	b.beat("AE3", "NE1")
	b.beat("AE3", "NE2")
	b.beat("AE2", "AN1")
	b.beat("NE3", "AE2")
	b.beat("AE1", "NE4")
	b.beat("AN3", "AE1")

	s := NewSeason(lg, b.games, nil)
	recs := []string{"AE1", "AE2", "AE3"}
	for _, id := range recs {
		r, _ := s.Record(id)
		require.InDelta(t, 0.5, r.Overall.Pct(), 1e-9, id)
	}

	order, trace := s.ExplainTie(recs, true)
	assert.Equal(t, []string{"AE1", "AE2", "AE3"}, order)
	require.GreaterOrEqual(t, len(trace), 2)
	assert.Equal(t, StepDivision, trace[0].Step)
	assert.Equal(t, StepHeadToHead, trace[1].Step)
}

func TestDivisionRecordOnlyForDivisionTies(t *testing.T) {
	lg := testLeague()
	var b gameBook
	// AE1: division 2-0, conference 2-2, overall 2-2.
	b.beat("AE1", "AE2")
	b.beat("AE1", "AE3")
	b.beat("AS1", "AE1")
	b.beat("AS2", "AE1")
	// AN1: division 0-2, conference 3-2, overall 3-3.
	b.beat("AN2", "AN1")
	b.beat("AN3", "AN1")
	b.beat("AN1", "AW1")
	b.beat("AN1", "AW2")
	b.beat("AN1", "AW3")
	b.beat("NE1", "AN1")

	s := NewSeason(lg, b.games, nil)

	order, trace := s.ExplainTie([]string{"AE1", "AN1"}, false)
	assert.Equal(t, []string{"AN1", "AE1"}, order)
	require.NotEmpty(t, trace)
	assert.Equal(t, StepConference, trace[0].Step)
	for _, split := range trace {
		assert.NotEqual(t, StepDivision, split.Step)
	}

	order, trace = s.ExplainTie([]string{"AE1", "AN1"}, true)
	assert.Equal(t, []string{"AE1", "AN1"}, order)
	assert.Equal(t, StepDivision, trace[0].Step)
}

func TestCommonGamesThreshold(t *testing.T) {
	build := func(common int) *Season {
		var b gameBook
		opps := []string{"NE1", "NE2", "NE3", "NE4"}[:common]
		conf := []string{"AS1", "AS2", "AS3", "AS4"}[:common]
		for i := range opps {
			b.beat("AE1", opps[i])
			b.beat(opps[i], "AN1")
			b.beat(conf[i], "AE1")
			b.beat("AN1", "AW"+conf[i][2:])
		}
		return NewSeason(testLeague(), b.games, nil)
	}

	t.Run("three common opponents fall through to conference record", func(t *testing.T) {
		order, trace := build(3).ExplainTie([]string{"AE1", "AN1"}, false)
		assert.Equal(t, []string{"AN1", "AE1"}, order)
		assert.Equal(t, StepConference, trace[0].Step)
	})

	t.Run("four common opponents decide", func(t *testing.T) {
		order, trace := build(4).ExplainTie([]string{"AE1", "AN1"}, false)
		assert.Equal(t, []string{"AE1", "AN1"}, order)
		assert.Equal(t, StepCommonGames, trace[0].Step)
	})
}

func TestCommonGamesAfterSplitHeadToHead(t *testing.T) {
	lg := testLeague()
	var b gameBook
	b.beat("AE1", "AE2")
	b.beat("AE2", "AE1")
	for _, opp := range []string{"NE1", "NE2", "NE3", "NE4"} {
		b.beat("AE1", opp)
		b.beat(opp, "AE2")
	}
	for _, opp := range []string{"NS1", "NS2", "NS3", "NS4"} {
		b.beat(opp, "AE1")
	}
	for _, opp := range []string{"NW1", "NW2", "NW3", "NW4"} {
		b.beat("AE2", opp)
	}

	s := NewSeason(lg, b.games, nil)
	order, trace := s.ExplainTie([]string{"AE2", "AE1"}, true)
	assert.Equal(t, []string{"AE1", "AE2"}, order)
	require.NotEmpty(t, trace)
	assert.Equal(t, StepCommonGames, trace[0].Step)
}

func TestBreakTieExhaustedKeepsInputOrder(t *testing.T) {
	s := NewSeason(testLeague(), nil, nil)
	order, trace := s.ExplainTie([]string{"AW3", "AE1", "AN2"}, false)
	assert.Equal(t, []string{"AW3", "AE1", "AN2"}, order)
	require.Len(t, trace, 1)
	assert.Equal(t, StepLastResort, trace[0].Step)
}

func TestBreakTieNeverDropsUnknownTeams(t *testing.T) {
	s := NewSeason(testLeague(), nil, nil)
	order := s.BreakTie([]string{"AE1", "ZZ1"}, false)
	assert.ElementsMatch(t, []string{"AE1", "ZZ1"}, order)
}

func TestStrengthOfVictory(t *testing.T) {
	lg := testLeague()
	var b gameBook
	// AE1 and AN1 each beat one team and lose once; AE1's victim is stronger.
	b.beat("AE1", "NE1")
	b.beat("NE1", "NE2")
	b.beat("NE1", "NE3")
	b.beat("AN1", "NS1")
	b.beat("NS2", "NS1")
	b.beat("NW1", "AE1")
	b.beat("NW2", "AN1")

	s := NewSeason(lg, b.games, nil)
	order, trace := s.ExplainTie([]string{"AN1", "AE1"}, false)
	assert.Equal(t, []string{"AE1", "AN1"}, order)
	assert.Equal(t, StepStrengthOfVictory, trace[0].Step)
}
