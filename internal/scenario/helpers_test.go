package scenario

import (
	"fmt"

	"github.com/utakatalp/playoff-picture/internal/league"
)

// testLeague builds a 32-team league; team ids are conference, division and slot, e.g. "AE1".
func testLeague() *league.League {
	var teams []league.Team
	for _, conf := range league.Conferences {
		for _, div := range []string{"East", "North", "South", "West"} {
			for i := 1; i <= 4; i++ {
				id := fmt.Sprintf("%c%c%d", conf[0], div[0], i)
				teams = append(teams, league.Team{
					ID:         id,
					Name:       id,
					Conference: conf,
					Division:   league.Division(string(conf) + " " + div),
				})
			}
		}
	}
	return league.NewLeague(teams)
}

type gameBook struct {
	games []league.Game
}

func (b *gameBook) nextID() string { return fmt.Sprintf("g%03d", len(b.games)+1) }

func (b *gameBook) beat(winner, loser string) string {
	id := b.nextID()
	b.games = append(b.games, league.Game{
		ID: id, Week: 1 + len(b.games)%15, Home: winner, Away: loser,
		Status: league.StatusFinal, Score: &league.Score{Home: 24, Away: 17},
	})
	return id
}

// record gives a team wins and losses against a rotating list of opponents.
func (b *gameBook) record(id string, wins, losses int, opponents []string) {
	for i := 0; i < wins; i++ {
		b.beat(id, opponents[i%len(opponents)])
	}
	for i := 0; i < losses; i++ {
		b.beat(opponents[(wins+i)%len(opponents)], id)
	}
}

func (b *gameBook) open(week int, home, away string) string {
	id := b.nextID()
	b.games = append(b.games, league.Game{ID: id, Week: week, Home: home, Away: away, Status: league.StatusScheduled})
	return id
}

func selectionsFor(p Path) league.Selections {
	sel := make(league.Selections, len(p.Requirements))
	for _, r := range p.Requirements {
		sel[r.GameID] = r.Outcome
	}
	return sel
}
