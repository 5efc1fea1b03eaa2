package bracket

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/utakatalp/playoff-picture/internal/league"
)

// PickKey addresses one matchup. Super Bowl keys have no conference.
type PickKey struct {
	Round      Round
	Conference league.Conference
	Slot       int
}

// String renders the key as "round:conference:slot", e.g. "divisional:AFC:1".
func (k PickKey) String() string {
	return fmt.Sprintf("%s:%s:%d", k.Round, k.Conference, k.Slot)
}

func (k PickKey) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *PickKey) UnmarshalText(b []byte) error {
	parts := strings.Split(string(b), ":")
	if len(parts) != 3 {
		return fmt.Errorf("malformed pick key %q", string(b))
	}
	r, err := ParseRound(parts[0])
	if err != nil {
		return err
	}
	slot, err := strconv.Atoi(parts[2])
	if err != nil || slot < 0 {
		return fmt.Errorf("malformed pick slot %q", parts[2])
	}
	*k = PickKey{Round: r, Conference: league.Conference(parts[1]), Slot: slot}
	return nil
}

// downstream reports whether a pick at k can depend on the winner picked at from.
func (k PickKey) downstream(from PickKey) bool {
	if k.Round <= from.Round {
		return false
	}
	return k.Round == RoundSuperBowl || k.Conference == from.Conference
}

// Picks is the user's winner overlay, keyed by matchup.
type Picks map[PickKey]string

// Set records a winner. Changing a pick clears every pick that depends on it.
func (p Picks) Set(k PickKey, teamID string) {
	if old, ok := p[k]; ok && old == teamID {
		return
	}
	p.clearDownstream(k)
	p[k] = teamID
}

// Clear removes a pick and every pick that depends on it.
func (p Picks) Clear(k PickKey) {
	delete(p, k)
	p.clearDownstream(k)
}

func (p Picks) clearDownstream(from PickKey) {
	for k := range p {
		if k.downstream(from) {
			delete(p, k)
		}
	}
}
