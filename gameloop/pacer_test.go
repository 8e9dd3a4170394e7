package gameloop

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// recordingActuator logs press and release events in order.
type recordingActuator struct {
	events []string
}

func (r *recordingActuator) PressKey(k Key)   { r.events = append(r.events, "press "+k.String()) }
func (r *recordingActuator) ReleaseKey(k Key) { r.events = append(r.events, "release "+k.String()) }

func newTestPacer(act *recordingActuator) *Pacer {
	return NewPacer(act, 500*time.Millisecond, 150*time.Millisecond, nil)
}

func TestPacerTapSequence(t *testing.T) {
	act := &recordingActuator{}
	p := newTestPacer(act)

	p.Enqueue([]Command{{Key: KeyA, Count: 2}, {Key: KeyB, Count: 1}})

	// First tap asserted immediately; the rest follow timer fires.
	require.Equal(t, []string{"press a"}, act.events)
	require.False(t, p.Idle())

	p.OnTimer()
	require.Equal(t, []string{"press a", "release a", "press a"}, act.events)

	p.OnTimer()
	require.Equal(t, []string{"press a", "release a", "press a", "release a", "press b"}, act.events)

	p.OnTimer()
	require.Equal(t, "release b", act.events[len(act.events)-1])
	require.True(t, p.Idle())
}

func TestPacerDirectionalRepeatIsOneHold(t *testing.T) {
	act := &recordingActuator{}
	p := newTestPacer(act)

	p.Enqueue([]Command{{Key: KeyUp, Count: 3}})

	require.Equal(t, []string{"press up"}, act.events)

	// A single release covers the whole repeat; no per-press taps.
	p.OnTimer()
	require.Equal(t, []string{"press up", "release up"}, act.events)
	require.True(t, p.Idle())
}

func TestPacerMixedQueue(t *testing.T) {
	act := &recordingActuator{}
	p := newTestPacer(act)

	p.Enqueue([]Command{{Key: KeyUp, Count: 2}, {Key: KeyA, Count: 1}})

	p.OnTimer()
	p.OnTimer()
	require.Equal(t, []string{"press up", "release up", "press a", "release a"}, act.events)
	require.True(t, p.Idle())
}

func TestPacerEnqueueWhileActuatingAppends(t *testing.T) {
	act := &recordingActuator{}
	p := newTestPacer(act)

	p.Enqueue([]Command{{Key: KeyA, Count: 1}})
	p.Enqueue([]Command{{Key: KeyB, Count: 1}})

	// The second enqueue must not assert while a is still held.
	require.Equal(t, []string{"press a"}, act.events)

	p.OnTimer()
	require.Equal(t, []string{"press a", "release a", "press b"}, act.events)
}

func TestPacerStopReleasesHeldKey(t *testing.T) {
	act := &recordingActuator{}
	p := newTestPacer(act)

	p.Enqueue([]Command{{Key: KeyUp, Count: 3}, {Key: KeyA, Count: 1}})
	p.Stop()

	require.Equal(t, []string{"press up", "release up"}, act.events)
	require.True(t, p.Idle())

	// A timer fire after Stop must be harmless.
	p.OnTimer()
	require.Equal(t, []string{"press up", "release up"}, act.events)
}

func TestPacerEmptyEnqueue(t *testing.T) {
	act := &recordingActuator{}
	p := newTestPacer(act)

	p.Enqueue(nil)

	require.Empty(t, act.events)
	require.True(t, p.Idle())
}
