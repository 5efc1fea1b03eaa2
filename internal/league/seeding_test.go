package league

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedsDivisionLeadersThenWildcards(t *testing.T) {
	lg := testLeague()
	var b gameBook
	nfc := lg.ConferenceTeams(NFC)
	// Twelve games each: leaders 12-0, 11-1, 10-2, 9-3; wildcards 8-4, 7-5, 6-6; then 5-7.
	record := func(id string, wins int) {
		b.beatN(id, wins, nfc...)
		for i := wins; i < 12; i++ {
			b.beat("NE1", id)
		}
	}
	record("AE1", 12)
	record("AN1", 11)
	record("AS1", 10)
	record("AW1", 9)
	record("AE2", 8)
	record("AN2", 7)
	record("AS2", 6)
	record("AW2", 5)

	s := NewSeason(lg, b.games, nil)
	seeding := s.Seeds(AFC)
	assert.Equal(t, []string{"AE1", "AN1", "AS1", "AW1", "AE2", "AN2", "AS2"}, seeding.Seeds)
	assert.Len(t, seeding.Order, 16)
	assert.Equal(t, 0, seeding.SeedOf("AW2"))
	assert.Equal(t, "AW2", seeding.Order[7])

	table := s.Standings(AFC)
	require.Len(t, table, 16)
	wantClinch := []Clinch{ClinchBye, ClinchDivision, ClinchDivision, ClinchDivision, ClinchPlayoff, ClinchPlayoff, ClinchPlayoff}
	for i, want := range wantClinch {
		assert.Equal(t, i+1, table[i].Seed, "row %d", i)
		assert.Equal(t, want, table[i].Clinched, "row %d (%s)", i, table[i].Team.ID)
	}
	for _, row := range table[7:] {
		assert.Zero(t, row.Seed, row.Team.ID)
		assert.Equal(t, ClinchNone, row.Clinched, row.Team.ID)
	}
	assert.Equal(t, 12, table[0].Record.Overall.W)
}

func TestUndefeatedLeadersFillTopSeeds(t *testing.T) {
	lg := testLeague()
	var b gameBook
	nfc := lg.ConferenceTeams(NFC)
	b.beatN("AE1", 12, nfc...)
	b.beatN("AN1", 11, nfc...)
	b.beatN("AS1", 10, nfc...)
	b.beatN("AW1", 9, nfc...)

	seeding := NewSeason(lg, b.games, nil).Seeds(AFC)
	// All four are perfect; the tie among them falls through to net points.
	assert.Equal(t, []string{"AE1", "AN1", "AS1", "AW1"}, seeding.Seeds[:4])
}

func TestDivisionWinnerWithWorseRecordStillSeededAhead(t *testing.T) {
	lg := testLeague()
	var b gameBook
	nfc := lg.ConferenceTeams(NFC)
	// AE1 and AE2 are the two best teams in the conference, but only one can win the East.
	b.beatN("AE1", 10, nfc...)
	b.beatN("AE2", 9, nfc...)
	b.beat("NE1", "AE2")
	for _, id := range []string{"AN1", "AS1", "AW1"} {
		b.beatN(id, 2, nfc...)
		b.beat("NE1", id)
	}

	s := NewSeason(lg, b.games, nil)
	seeding := s.Seeds(AFC)
	assert.Equal(t, "AE1", seeding.Seeds[0])
	assert.Equal(t, "AE2", seeding.Seeds[4])
	assert.ElementsMatch(t, []string{"AN1", "AS1", "AW1"}, seeding.Seeds[1:4])
}

func TestSeedsWithFavor(t *testing.T) {
	s := NewSeason(testLeague(), nil, nil)
	assert.Equal(t, "AE1", s.Seeds(AFC).Seeds[0])

	favored := s.WithFavor("AE3")
	assert.Equal(t, "AE3", favored.Seeds(AFC).Seeds[0])
	assert.Equal(t, "AE3", favored.DivisionOrder("AFC East")[0])
	// The original season is untouched.
	assert.Equal(t, "AE1", s.Seeds(AFC).Seeds[0])
}

func TestSeedsUnknownConference(t *testing.T) {
	s := NewSeason(testLeague(), nil, nil)
	assert.Empty(t, s.Seeds("XFL").Seeds)
	assert.Empty(t, s.Standings("XFL"))
}
