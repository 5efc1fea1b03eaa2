package league

import (
	"fmt"
	"slices"
)

// Conference names one half of the league.
type Conference string

// Division names a four-team group inside a conference.
type Division string

const (
	AFC Conference = "AFC"
	NFC Conference = "NFC"
)

// Conferences lists both conferences in display order.
var Conferences = []Conference{AFC, NFC}

// Team represents a club in the league. Reference data, never computed.
type Team struct {
	ID         string     `json:"id" yaml:"id"`
	Name       string     `json:"name" yaml:"name"`
	Conference Conference `json:"conference" yaml:"conference"`
	Division   Division   `json:"division" yaml:"division"`
}

// GameStatus is the lifecycle state of a game.
type GameStatus int

const (
	StatusScheduled GameStatus = iota
	StatusInProgress
	StatusFinal
)

func (s GameStatus) String() string {
	switch s {
	case StatusScheduled:
		return "scheduled"
	case StatusInProgress:
		return "in_progress"
	case StatusFinal:
		return "final"
	}
	return fmt.Sprintf("GameStatus(%d)", int(s))
}

// ParseGameStatus maps the wire name of a status back to the enum.
func ParseGameStatus(s string) (GameStatus, error) {
	switch s {
	case "scheduled", "":
		return StatusScheduled, nil
	case "in_progress":
		return StatusInProgress, nil
	case "final":
		return StatusFinal, nil
	}
	return StatusScheduled, fmt.Errorf("unknown game status %q", s)
}

func (s GameStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *GameStatus) UnmarshalText(b []byte) error {
	v, err := ParseGameStatus(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Score holds a final score.
type Score struct {
	Home int `json:"home" yaml:"home"`
	Away int `json:"away" yaml:"away"`
}

// Game represents a fixture between two teams, referenced by id.
type Game struct {
	ID     string     `json:"id" yaml:"id"`
	Week   int        `json:"week" yaml:"week"`
	Home   string     `json:"home" yaml:"home"`
	Away   string     `json:"away" yaml:"away"`
	Status GameStatus `json:"status" yaml:"status"`
	Score  *Score     `json:"score,omitempty" yaml:"score,omitempty"`
}

// Final reports whether the game's result is authoritative.
func (g Game) Final() bool { return g.Status == StatusFinal }

// Involves reports whether the team plays in the game.
func (g Game) Involves(teamID string) bool { return g.Home == teamID || g.Away == teamID }

// Opponent returns the other side of the game for teamID.
func (g Game) Opponent(teamID string) string {
	if g.Home == teamID {
		return g.Away
	}
	return g.Home
}

// Outcome is a hypothetical result a user fixes for a non-final game.
type Outcome int

const (
	HomeWin Outcome = iota + 1
	AwayWin
	Tie
)

func (o Outcome) String() string {
	switch o {
	case HomeWin:
		return "home"
	case AwayWin:
		return "away"
	case Tie:
		return "tie"
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

func (o *Outcome) UnmarshalText(b []byte) error {
	switch string(b) {
	case "home":
		*o = HomeWin
	case "away":
		*o = AwayWin
	case "tie":
		*o = Tie
	default:
		return fmt.Errorf("unknown outcome %q", string(b))
	}
	return nil
}

// WinFor returns the outcome in which teamID wins the game.
func WinFor(g Game, teamID string) Outcome {
	if g.Home == teamID {
		return HomeWin
	}
	return AwayWin
}

// Selections overlays hypothetical outcomes on non-final games, keyed by game id.
type Selections map[string]Outcome

// Clone returns a copy with room for extra entries.
func (s Selections) Clone(extra int) Selections {
	out := make(Selections, len(s)+extra)
	for k, v := range s {
		out[k] = v
	}
	return out
}

// WLT is a win-loss-tie line.
type WLT struct {
	W int `json:"w"`
	L int `json:"l"`
	T int `json:"t"`
}

// Games returns the number of games in the line.
func (r WLT) Games() int { return r.W + r.L + r.T }

// Points returns the line in half-win units (tie = 1, win = 2).
func (r WLT) Points() int { return 2*r.W + r.T }

// Pct returns the win percentage, counting a tie as half a win. Zero games is 0.
func (r WLT) Pct() float64 {
	if r.Games() == 0 {
		return 0
	}
	return float64(r.Points()) / float64(2*r.Games())
}

func (r WLT) add(o WLT) WLT { return WLT{r.W + o.W, r.L + o.L, r.T + o.T} }

func (r WLT) String() string {
	if r.T > 0 {
		return fmt.Sprintf("%d-%d-%d", r.W, r.L, r.T)
	}
	return fmt.Sprintf("%d-%d", r.W, r.L)
}

// Record holds the standings info for one team, derived from games and selections.
type Record struct {
	TeamID        string   `json:"team_id"`
	Overall       WLT      `json:"overall"`
	Division      WLT      `json:"division"`
	Conference    WLT      `json:"conference"`
	PointsFor     int      `json:"points_for"`
	PointsAgainst int      `json:"points_against"`
	Opponents     []string `json:"opponents"`
	Beaten        []string `json:"beaten"`
}

// NetPoints is points for minus points against.
func (r *Record) NetPoints() int { return r.PointsFor - r.PointsAgainst }

// Clinch is the provisional standing marker derived from a seed.
type Clinch int

const (
	ClinchNone Clinch = iota
	ClinchPlayoff
	ClinchDivision
	ClinchBye
)

func (c Clinch) String() string {
	switch c {
	case ClinchNone:
		return ""
	case ClinchPlayoff:
		return "x"
	case ClinchDivision:
		return "z"
	case ClinchBye:
		return "*"
	}
	return fmt.Sprintf("Clinch(%d)", int(c))
}

func (c Clinch) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

// ClinchForSeed maps a seed to its provisional marker.
func ClinchForSeed(seed int) Clinch {
	switch {
	case seed == 1:
		return ClinchBye
	case seed >= 2 && seed <= 4:
		return ClinchDivision
	case seed >= 5 && seed <= 7:
		return ClinchPlayoff
	}
	return ClinchNone
}

// Standing is one row of a conference table.
type Standing struct {
	Team        Team   `json:"team"`
	Record      Record `json:"record"`
	Seed        int    `json:"seed,omitempty"`
	Clinched    Clinch `json:"clinched"`
	Eliminated  bool   `json:"eliminated"`
	MagicNumber *int   `json:"magic_number,omitempty"`
}

// League indexes the immutable team reference list.
type League struct {
	teams []Team
	index map[string]int
}

// NewLeague builds a League. Teams with an empty or duplicate id are dropped.
func NewLeague(teams []Team) *League {
	lg := &League{index: make(map[string]int, len(teams))}
	for _, t := range teams {
		if t.ID == "" {
			continue
		}
		if _, dup := lg.index[t.ID]; dup {
			continue
		}
		lg.index[t.ID] = len(lg.teams)
		lg.teams = append(lg.teams, t)
	}
	return lg
}

// Teams returns every team in reference order.
func (lg *League) Teams() []Team { return lg.teams }

// Len returns the number of teams.
func (lg *League) Len() int { return len(lg.teams) }

// Team looks a team up by id.
func (lg *League) Team(id string) (Team, bool) {
	i, ok := lg.index[id]
	if !ok {
		return Team{}, false
	}
	return lg.teams[i], true
}

// Index returns the dense index of a team, or -1.
func (lg *League) Index(id string) int {
	i, ok := lg.index[id]
	if !ok {
		return -1
	}
	return i
}

// At returns the team at a dense index.
func (lg *League) At(i int) Team { return lg.teams[i] }

// ConferenceTeams returns the ids of a conference's teams in reference order.
func (lg *League) ConferenceTeams(conf Conference) []string {
	var ids []string
	for _, t := range lg.teams {
		if t.Conference == conf {
			ids = append(ids, t.ID)
		}
	}
	return ids
}

// Divisions returns a conference's divisions, sorted by name.
func (lg *League) Divisions(conf Conference) []Division {
	var divs []Division
	for _, t := range lg.teams {
		if t.Conference == conf && !slices.Contains(divs, t.Division) {
			divs = append(divs, t.Division)
		}
	}
	slices.Sort(divs)
	return divs
}

// DivisionTeams returns the ids of a division's teams in reference order.
func (lg *League) DivisionTeams(div Division) []string {
	var ids []string
	for _, t := range lg.teams {
		if t.Division == div {
			ids = append(ids, t.ID)
		}
	}
	return ids
}

// SameDivision reports whether two known teams share a division.
func (lg *League) SameDivision(a, b string) bool {
	ta, okA := lg.Team(a)
	tb, okB := lg.Team(b)
	return okA && okB && ta.Division == tb.Division
}

// SameConference reports whether two known teams share a conference.
func (lg *League) SameConference(a, b string) bool {
	ta, okA := lg.Team(a)
	tb, okB := lg.Team(b)
	return okA && okB && ta.Conference == tb.Conference
}
