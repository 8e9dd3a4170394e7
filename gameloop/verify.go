package gameloop

import (
	"fmt"
	"strings"
)

// TurnResult classifies a completed turn's movement commands.
type TurnResult string

const (
	TurnSuccess TurnResult = "SUCCESS"
	TurnFailed  TurnResult = "FAILED"
	TurnUnknown TurnResult = "UNKNOWN"
)

// TurnRecord is the scored outcome of one turn, fed back into the next
// prompt so the model can see its own failures.
type TurnRecord struct {
	Turn            int        `json:"turn"`
	Inputs          []Command  `json:"-"`
	InputText       string     `json:"inputs"`
	PositionBefore  Position   `json:"position_before"`
	PositionAfter   Position   `json:"position_after"`
	HadPosition     bool       `json:"had_position"`
	PositionChanged bool       `json:"position_changed"`
	Result          TurnResult `json:"result"`
	Reason          string     `json:"reason"`
}

// Stuck-pattern policy: the same direction totalling stuckThreshold
// presses across the last stuckWindow records with no movement.
const (
	stuckWindow    = 3
	stuckThreshold = 4
)

// Verifier keeps the capped buffer of turn records and derives
// stuck-pattern advisories from it.
type Verifier struct {
	records []TurnRecord
	max     int
}

// NewVerifier creates a Verifier retaining up to max records.
func NewVerifier(max int) *Verifier {
	if max <= 0 {
		max = 10
	}
	return &Verifier{max: max}
}

// ScoreTurn classifies a completed turn and appends its record.
// SUCCESS requires a directional command, ground truth on both sides,
// and a coordinate pair that differs.
func (v *Verifier) ScoreTurn(turn int, before, after *Position, commands []Command) TurnRecord {
	rec := TurnRecord{
		Turn:      turn,
		Inputs:    commands,
		InputText: commandText(commands),
	}

	directional := false
	for _, c := range commands {
		if c.Key.Directional() {
			directional = true
			break
		}
	}

	switch {
	case !directional:
		rec.Result = TurnUnknown
		rec.Reason = "no directional input to verify"
	case before == nil || after == nil:
		rec.Result = TurnUnknown
		rec.Reason = "ground truth unavailable"
	default:
		rec.HadPosition = true
		rec.PositionBefore = *before
		rec.PositionAfter = *after
		rec.PositionChanged = !before.Same(*after)
		if rec.PositionChanged {
			rec.Result = TurnSuccess
			rec.Reason = fmt.Sprintf("position changed (%d,%d) -> (%d,%d)",
				before.X, before.Y, after.X, after.Y)
		} else {
			rec.Result = TurnFailed
			rec.Reason = fmt.Sprintf("position unchanged at (%d,%d)", after.X, after.Y)
		}
	}

	v.records = append(v.records, rec)
	if len(v.records) > v.max {
		v.records = v.records[1:]
	}
	return rec
}

// Records returns a copy of the retained records, oldest first.
func (v *Verifier) Records() []TurnRecord {
	out := make([]TurnRecord, len(v.records))
	copy(out, v.records)
	return out
}

// CheckStuckPattern inspects the most recent records for a direction
// pressed repeatedly with no movement at all, and returns an advisory
// string for the next prompt, or "" when the pattern is absent.
func (v *Verifier) CheckStuckPattern() string {
	start := len(v.records) - stuckWindow
	if start < 0 {
		start = 0
	}
	window := v.records[start:]
	if len(window) == 0 {
		return ""
	}

	presses := make(map[Key]int)
	for _, rec := range window {
		if rec.HadPosition && rec.PositionChanged {
			// Any net movement in the window clears the pattern.
			return ""
		}
		for _, c := range rec.Inputs {
			if c.Key.Directional() {
				presses[c.Key] += c.Count
			}
		}
	}

	for key, n := range presses {
		if n >= stuckThreshold {
			return fmt.Sprintf(
				"WARNING: you pressed %s %d times over the last %d turns without moving. "+
					"Something is blocking that direction. Try another direction, or press A to interact with whatever is in front of you.",
				strings.ToUpper(key.String()), n, len(window))
		}
	}
	return ""
}

func commandText(commands []Command) string {
	parts := make([]string, len(commands))
	for i, c := range commands {
		parts[i] = c.String()
	}
	return strings.Join(parts, ", ")
}
