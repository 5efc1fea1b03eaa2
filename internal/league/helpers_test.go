package league

import "fmt"

// testLeague builds a 32-team league; team ids are conference, division and slot, e.g. "AE1"
// for the first team of AFC East.
func testLeague() *League {
	var teams []Team
	for _, conf := range Conferences {
		for _, div := range []string{"East", "North", "South", "West"} {
			for i := 1; i <= 4; i++ {
				id := fmt.Sprintf("%c%c%d", conf[0], div[0], i)
				teams = append(teams, Team{
					ID:         id,
					Name:       id,
					Conference: conf,
					Division:   Division(string(conf) + " " + div),
				})
			}
		}
	}
	return NewLeague(teams)
}

type gameBook struct {
	games []Game
}

func (b *gameBook) nextID() string { return fmt.Sprintf("g%03d", len(b.games)+1) }

func (b *gameBook) final(home, away string, hs, as int) string {
	id := b.nextID()
	b.games = append(b.games, Game{
		ID: id, Week: len(b.games)/16 + 1, Home: home, Away: away,
		Status: StatusFinal, Score: &Score{Home: hs, Away: as},
	})
	return id
}

func (b *gameBook) beat(winner, loser string) string { return b.final(winner, loser, 24, 17) }

func (b *gameBook) beatN(winner string, n int, losers ...string) {
	for i := 0; i < n; i++ {
		b.beat(winner, losers[i%len(losers)])
	}
}

func (b *gameBook) open(home, away string) string {
	id := b.nextID()
	b.games = append(b.games, Game{ID: id, Week: 18, Home: home, Away: away, Status: StatusScheduled})
	return id
}
