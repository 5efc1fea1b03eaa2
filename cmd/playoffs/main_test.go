package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utakatalp/playoff-picture/internal/bracket"
	"github.com/utakatalp/playoff-picture/internal/league"
)

const seasonYAML = `
teams:
  - {id: BUF, name: Buffalo, conference: AFC, division: AFC East}
  - {id: MIA, name: Miami, conference: AFC, division: AFC East}
  - {id: BAL, name: Baltimore, conference: AFC, division: AFC North}
  - {id: PIT, name: Pittsburgh, conference: AFC, division: AFC North}
  - {id: DAL, name: Dallas, conference: NFC, division: NFC East}
  - {id: PHI, name: Philadelphia, conference: NFC, division: NFC East}
games:
  - {id: g1, week: 1, home: BUF, away: MIA, status: final, score: {home: 24, away: 17}}
  - {id: g2, week: 1, home: BAL, away: PIT, status: final, score: {home: 20, away: 13}}
  - {id: g3, week: 1, home: DAL, away: PHI, status: final, score: {home: 30, away: 27}}
  - {id: g4, week: 2, home: BUF, away: BAL, status: scheduled}
`

// execute runs the root command with fresh flag state and returns its stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	selectFlags, pickFlags, goalFlag, divisionTie, annotate = nil, nil, "", false, false

	path := filepath.Join(t.TempDir(), "season.yaml")
	require.NoError(t, os.WriteFile(path, []byte(seasonYAML), 0o600))

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(append(args, "--snapshot", path, "--config", filepath.Join(t.TempDir(), "none.yaml")))
	err := rootCmd.Execute()
	return out.String(), err
}

func TestStandingsCommand(t *testing.T) {
	out, err := execute(t, "standings", "afc", "--select", "g4=away")
	require.NoError(t, err)
	assert.Contains(t, out, "BAL")
	assert.Contains(t, out, "2-0")
}

func TestTiebreakCommand(t *testing.T) {
	out, err := execute(t, "tiebreak", "BAL", "BUF", "--select", "g4=home")
	require.NoError(t, err)
	assert.Contains(t, out, "BUF > BAL")
	assert.Contains(t, out, "head-to-head")
}

func TestBracketCommand(t *testing.T) {
	out, err := execute(t, "bracket")
	require.NoError(t, err)
	assert.Contains(t, out, "wild_card")
}

func TestUnknownConference(t *testing.T) {
	_, err := execute(t, "standings", "XFL")
	assert.ErrorContains(t, err, "unknown conference")
}

func TestParseSelections(t *testing.T) {
	base := league.Selections{"g1": league.HomeWin}
	sel, err := parseSelections(base, []string{"g2=away", "g1=tie"})
	require.NoError(t, err)
	assert.Equal(t, league.Selections{"g1": league.Tie, "g2": league.AwayWin}, sel)
	assert.Equal(t, league.HomeWin, base["g1"], "base is not modified")

	_, err = parseSelections(nil, []string{"g2"})
	assert.Error(t, err)
	_, err = parseSelections(nil, []string{"g2=draw"})
	assert.Error(t, err)
}

func TestParsePicksClearsDependents(t *testing.T) {
	picks, err := parsePicks([]string{
		"divisional:AFC:0=KC",
		"wild_card:AFC:0=BUF",
	})
	require.NoError(t, err)
	assert.Equal(t, bracket.Picks{
		{Round: bracket.RoundWildCard, Conference: league.AFC, Slot: 0}: "BUF",
	}, picks)

	_, err = parsePicks([]string{"wild_card:AFC:0"})
	assert.Error(t, err)
	_, err = parsePicks([]string{"first:AFC:0=BUF"})
	assert.Error(t, err)
}

func TestRenderEmptyBracket(t *testing.T) {
	out := renderBracket(bracket.Reconcile(nil, nil, nil))
	assert.Contains(t, out, "stage:")
}
