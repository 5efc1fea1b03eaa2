package scenario

import (
	"fmt"

	"github.com/utakatalp/playoff-picture/internal/league"
)

// Goal is what a team is trying to reach.
type Goal int

const (
	GoalPlayoff Goal = iota + 1
	GoalDivision
	GoalBye
)

// Goals lists every goal, weakest first.
var Goals = []Goal{GoalPlayoff, GoalDivision, GoalBye}

func (g Goal) String() string {
	switch g {
	case GoalPlayoff:
		return "playoff"
	case GoalDivision:
		return "division"
	case GoalBye:
		return "bye"
	}
	return fmt.Sprintf("Goal(%d)", int(g))
}

// ParseGoal maps a goal name to the enum.
func ParseGoal(s string) (Goal, error) {
	for _, g := range Goals {
		if g.String() == s {
			return g, nil
		}
	}
	return 0, fmt.Errorf("unknown goal %q", s)
}

func (g Goal) MarshalText() ([]byte, error) { return []byte(g.String()), nil }

func (g *Goal) UnmarshalText(b []byte) error {
	v, err := ParseGoal(string(b))
	if err != nil {
		return err
	}
	*g = v
	return nil
}

// Accepts reports whether a final seed satisfies the goal.
func (g Goal) Accepts(seed int) bool {
	switch g {
	case GoalPlayoff:
		return seed >= 1 && seed <= league.PlayoffSeeds
	case GoalDivision:
		return seed >= 1 && seed <= 4
	case GoalBye:
		return seed == 1
	}
	return false
}

// Status is the verdict for one team and goal.
type Status int

const (
	StatusAlive Status = iota
	StatusClinched
	StatusEliminated
	// StatusUndetermined means a search bound was hit before a verdict was reached.
	StatusUndetermined
)

func (s Status) String() string {
	switch s {
	case StatusAlive:
		return "alive"
	case StatusClinched:
		return "clinched"
	case StatusEliminated:
		return "eliminated"
	case StatusUndetermined:
		return "undetermined"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

func (s Status) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// PathKind classifies a path by whose results it needs.
type PathKind int

const (
	// PathWinOut needs only the team's own wins.
	PathWinOut PathKind = iota + 1
	// PathNeedsHelp needs team wins and other teams' losses.
	PathNeedsHelp
	// PathHelpOnly needs only other teams' losses.
	PathHelpOnly
)

func (k PathKind) String() string {
	switch k {
	case PathWinOut:
		return "win-out"
	case PathNeedsHelp:
		return "needs-help"
	case PathHelpOnly:
		return "help-only"
	}
	return fmt.Sprintf("PathKind(%d)", int(k))
}

func (k PathKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// Search reports whether every search in an evaluation ran to completion.
type Search int

const (
	SearchComplete Search = iota
	SearchBounded
)

func (s Search) String() string {
	switch s {
	case SearchComplete:
		return "complete"
	case SearchBounded:
		return "bounded"
	}
	return fmt.Sprintf("Search(%d)", int(s))
}

func (s Search) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Requirement is one game result a path needs.
type Requirement struct {
	GameID  string         `json:"game_id"`
	Week    int            `json:"week"`
	Home    string         `json:"home"`
	Away    string         `json:"away"`
	Winner  string         `json:"winner"`
	Outcome league.Outcome `json:"outcome"`
}

// Path is a set of results that guarantees the goal whatever else happens.
type Path struct {
	Kind         PathKind      `json:"kind"`
	Requirements []Requirement `json:"requirements"`
	// Events counts team wins plus losses by teams that can still contest the goal.
	Events int `json:"events"`
}

// Scenario is the verdict for one team and goal.
type Scenario struct {
	TeamID string `json:"team_id"`
	Goal   Goal   `json:"goal"`
	Status Status `json:"status"`
	// MagicNumber is nil once eliminated, and while alive when no path was found or the path
	// search hit its bound.
	MagicNumber *int   `json:"magic_number"`
	Paths       []Path `json:"paths"`
	Search      Search `json:"search"`
	Nodes       int    `json:"nodes"`
}

func (s Scenario) Clinched() bool   { return s.Status == StatusClinched }
func (s Scenario) Eliminated() bool { return s.Status == StatusEliminated }

// Bundle holds a team's scenarios for every goal.
type Bundle struct {
	TeamID    string            `json:"team_id"`
	Scenarios map[Goal]Scenario `json:"scenarios"`
}
