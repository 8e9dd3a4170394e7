package gameloop

import (
	"time"

	"go.uber.org/zap"
)

// PendingAction is one queued actuation. Directional actions with a
// repeat above 1 collapse into a single hold of scaled duration;
// button actions stay discrete taps.
type PendingAction struct {
	Key         Key
	Directional bool
	Remaining   int
	Original    int
}

// Pacer sequences queued commands into individually timed
// press/release events. Two states: idle (no timer armed) and
// actuating (one key held, release timer armed). At most one key is
// held at any instant.
//
// The pacer is not safe for concurrent use; the session loop owns it
// and calls OnTimer when the release timer fires.
type Pacer struct {
	actuator        Actuator
	directionalUnit time.Duration
	tapDuration     time.Duration
	logger          *zap.Logger

	queue []PendingAction
	held  *Key
	timer *time.Timer
}

// NewPacer creates an idle Pacer.
func NewPacer(actuator Actuator, directionalUnit, tapDuration time.Duration, logger *zap.Logger) *Pacer {
	if logger == nil {
		logger = zap.NewNop()
	}
	timer := time.NewTimer(time.Hour)
	if !timer.Stop() {
		<-timer.C
	}
	return &Pacer{
		actuator:        actuator,
		directionalUnit: directionalUnit,
		tapDuration:     tapDuration,
		logger:          logger,
		timer:           timer,
	}
}

// TimerC exposes the release timer channel for the session loop.
func (p *Pacer) TimerC() <-chan time.Time {
	return p.timer.C
}

// Idle reports whether nothing is held and nothing is queued.
func (p *Pacer) Idle() bool {
	return p.held == nil && len(p.queue) == 0
}

// Enqueue appends commands in order and begins actuating if idle.
func (p *Pacer) Enqueue(commands []Command) {
	for _, c := range commands {
		count := c.Count
		if count < 1 {
			count = 1
		}
		p.queue = append(p.queue, PendingAction{
			Key:         c.Key,
			Directional: c.Key.Directional(),
			Remaining:   count,
			Original:    count,
		})
	}
	if p.held == nil && len(p.queue) > 0 {
		p.startNext()
	}
}

// OnTimer handles a release-timer fire: release the held key, then
// either start the next action or go idle.
func (p *Pacer) OnTimer() {
	if p.held != nil {
		p.actuator.ReleaseKey(*p.held)
		p.held = nil
	}
	if len(p.queue) > 0 {
		p.startNext()
	}
}

// Stop releases any held key and clears the queue, leaving the
// environment in a neutral state.
func (p *Pacer) Stop() {
	if !p.timer.Stop() {
		select {
		case <-p.timer.C:
		default:
		}
	}
	if p.held != nil {
		p.actuator.ReleaseKey(*p.held)
		p.held = nil
	}
	p.queue = nil
}

// startNext pops the front action, asserts its key, and arms the
// release timer. Directional holds scale with the original repeat
// count; everything else gets the fixed tap duration.
func (p *Pacer) startNext() {
	front := &p.queue[0]
	key := front.Key

	var hold time.Duration
	if front.Directional {
		// One hold covers the whole repeat.
		hold = p.directionalUnit * time.Duration(front.Original)
		front.Remaining = 0
	} else {
		hold = p.tapDuration
		front.Remaining--
	}
	if front.Remaining <= 0 {
		p.queue = p.queue[1:]
	}

	p.actuator.PressKey(key)
	p.held = &key
	p.timer.Reset(hold)

	p.logger.Debug("key asserted",
		zap.String("key", key.String()),
		zap.Duration("hold", hold),
		zap.Int("queued", len(p.queue)))
}
