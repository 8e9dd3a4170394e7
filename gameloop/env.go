package gameloop

import "strings"

// Key is a GBA input code. The numeric values match the emulator's
// key order (KEYINPUT bit positions).
type Key int

const (
	KeyA      Key = 0
	KeyB      Key = 1
	KeySelect Key = 2
	KeyStart  Key = 3
	KeyRight  Key = 4
	KeyLeft   Key = 5
	KeyUp     Key = 6
	KeyDown   Key = 7
	KeyR      Key = 8
	KeyL      Key = 9
)

// DefaultKey is the safe action pressed when a response contains no
// recognizable command. A advances dialogue and confirms menus, so it
// always makes some forward progress.
const DefaultKey = KeyA

var keyNames = map[Key]string{
	KeyA:      "a",
	KeyB:      "b",
	KeySelect: "select",
	KeyStart:  "start",
	KeyRight:  "right",
	KeyLeft:   "left",
	KeyUp:     "up",
	KeyDown:   "down",
	KeyR:      "r",
	KeyL:      "l",
}

func (k Key) String() string {
	if name, ok := keyNames[k]; ok {
		return name
	}
	return "unknown"
}

// Directional reports whether the key is a d-pad direction.
func (k Key) Directional() bool {
	switch k {
	case KeyUp, KeyDown, KeyLeft, KeyRight:
		return true
	}
	return false
}

// KeyFromName resolves a button name case-insensitively.
func KeyFromName(name string) (Key, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for k, n := range keyNames {
		if n == name {
			return k, true
		}
	}
	return 0, false
}

// Position is a ground-truth telemetry snapshot. X and Y are tile
// coordinates; the map pair identifies the current room or route.
type Position struct {
	X        int  `json:"x"`
	Y        int  `json:"y"`
	MapGroup int  `json:"map_group"`
	MapNum   int  `json:"map_num"`
	InBattle bool `json:"in_battle"`
}

// Same reports whether two snapshots describe the same tile on the
// same map.
func (p Position) Same(o Position) bool {
	return p.X == o.X && p.Y == o.Y && p.MapGroup == o.MapGroup && p.MapNum == o.MapNum
}

// GameInfo identifies the loaded title, read from the ROM header by
// the host.
type GameInfo struct {
	Title string
	Code  string
}

// Actuator delivers discrete key events to the emulator. Both calls are
// idempotent and unqueued; pacing is the loop's job.
type Actuator interface {
	PressKey(k Key)
	ReleaseKey(k Key)
}

// Environment is the boundary to the controlled emulator. Frame capture,
// telemetry extraction, and input primitives all live on the host side.
type Environment interface {
	Actuator

	// Capture returns the current frame encoded as PNG.
	Capture() ([]byte, error)

	// Snapshot returns ground-truth telemetry, or ok=false when the
	// host cannot provide it (unsupported game, mid-transition).
	Snapshot() (pos Position, ok bool)

	// Game identifies the running title.
	Game() GameInfo
}

// SaveStater is implemented by environments that can snapshot emulator
// state to a numbered slot. Critical-error escalation uses it
// best-effort before halting.
type SaveStater interface {
	SaveState(slot int) error
}
