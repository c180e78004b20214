package domain

import "sort"

// Canonical event names emitted by the demo parser.
const (
	EventPlayerDeath  = "player_death"
	EventPlayerHurt   = "player_hurt"
	EventPlayerBlind  = "player_blind"
	EventGrenadeThrow = "grenade_thrown"
	EventBombPlanted  = "bomb_planted"
	EventBombDefused  = "bomb_defused"
	EventBombExploded = "bomb_exploded"
	EventRoundStart   = "round_start"
	EventRoundEnd     = "round_end"
	EventRoundEconomy = "round_economy"
)

// Payload is the opaque key/value body of an event. Values come from JSON:
// strings, bools and float64 numbers.
type Payload map[string]interface{}

// Str returns the string value for key, or "" when absent or not a string.
func (p Payload) Str(key string) string {
	if v, ok := p[key].(string); ok {
		return v
	}
	return ""
}

// Int returns the integer value for key. JSON numbers arrive as float64;
// plain ints are accepted for payloads built in code.
func (p Payload) Int(key string) int64 {
	switch v := p[key].(type) {
	case float64:
		return int64(v)
	case int64:
		return v
	case int:
		return int64(v)
	}
	return 0
}

// Float returns the numeric value for key, or 0 when absent.
func (p Payload) Float(key string) float64 {
	switch v := p[key].(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	case int:
		return float64(v)
	}
	return 0
}

// Bool returns the boolean value for key, or false when absent.
func (p Payload) Bool(key string) bool {
	if v, ok := p[key].(bool); ok {
		return v
	}
	return false
}

// Event is one timestamped game event from the recording. Seq preserves the
// original emission order and breaks tick ties.
type Event struct {
	MatchID string
	Seq     int64 // emission order within the match, 0-based
	Name    string
	Tick    int64
	Payload Payload
}

// SortEvents orders events by (tick, seq) ascending. The parser does not
// guarantee tick order on the wire.
func SortEvents(events []*Event) {
	sort.Slice(events, func(i, j int) bool {
		if events[i].Tick != events[j].Tick {
			return events[i].Tick < events[j].Tick
		}
		return events[i].Seq < events[j].Seq
	})
}

// FilterEvents returns the events matching any of the given names,
// preserving order.
func FilterEvents(events []*Event, names ...string) []*Event {
	want := make(map[string]struct{}, len(names))
	for _, n := range names {
		want[n] = struct{}{}
	}
	var out []*Event
	for _, e := range events {
		if _, ok := want[e.Name]; ok {
			out = append(out, e)
		}
	}
	return out
}
