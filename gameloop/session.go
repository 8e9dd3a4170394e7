package gameloop

import (
	"context"
	"encoding/base64"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"claudemon/anthropic"
)

// SessionState is the lifecycle state of a session.
type SessionState string

const (
	StateStopped SessionState = "stopped"
	StateRunning SessionState = "running"
	StatePaused  SessionState = "paused"
	StateFailed  SessionState = "failed"
)

// Completer is the completion endpoint dependency. *anthropic.Client
// satisfies it; tests substitute fakes.
type Completer interface {
	Complete(ctx context.Context, req anthropic.Request) (*anthropic.Response, error)
}

// completion carries the outcome of one network call back into the
// control loop. The token identifies which request it answers; late
// responses with a stale token are discarded.
type completion struct {
	token string
	resp  *anthropic.Response
	err   error
}

// Session is the turn orchestration engine. All mutable state is owned
// by a single control goroutine; the network call is the only
// concurrent operation, and its result re-enters the loop through
// completionCh.
type Session struct {
	id      string
	cfg     Config
	env     Environment
	client  Completer
	logger  *zap.Logger
	emitter *EventEmitter

	history  *History
	notes    *NoteStore
	verifier *Verifier
	pacer    *Pacer
	backoff  *Backoff
	store    *Store

	modelID string
	game    GameInfo

	// Loop-owned state. Touched only on the control goroutine.
	turn          int
	inFlight      bool
	requestToken  string
	cancelRequest context.CancelFunc
	pendingPrompt string
	prevShot      string // previous turn's screenshot, base64
	searchQuery   string

	// Carry-over for scoring the prior turn once its effect is visible.
	lastBefore   *Position
	lastCommands []Command
	lastTurn     int

	timer        *time.Timer
	completionCh chan completion
	ctrlCh       chan func()
	done         chan struct{}

	mu       sync.Mutex
	state    SessionState
	started  bool
	shutDown bool
}

// NewSession creates a session. The environment is required; logger
// may be nil.
func NewSession(cfg Config, env Environment, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	id := uuid.New().String()

	timer := time.NewTimer(time.Hour)
	if !timer.Stop() {
		<-timer.C
	}

	s := &Session{
		id:           id,
		cfg:          cfg,
		env:          env,
		logger:       logger,
		emitter:      NewEventEmitter(id, 256),
		history:      NewHistory(cfg.MaxHistory),
		notes:        NewNoteStore(cfg.MaxNotes, logger),
		verifier:     NewVerifier(cfg.MaxTurnRecords),
		backoff:      NewBackoff(cfg.BackoffBase, cfg.BackoffMax),
		store:        NewStore(cfg.SessionFile, logger),
		timer:        timer,
		completionCh: make(chan completion),
		ctrlCh:       make(chan func()),
		done:         make(chan struct{}),
		state:        StateStopped,
	}
	s.pacer = NewPacer(env, cfg.DirectionalUnit, cfg.TapDuration, logger)
	return s
}

// SetClient injects a custom completion client (tests).
func (s *Session) SetClient(client Completer) {
	s.client = client
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// State returns the current lifecycle state.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Events returns the event channel for the host application.
func (s *Session) Events() <-chan SessionEvent {
	return s.emitter.Events()
}

// Start restores persisted state, validates configuration, and begins
// the turn loop.
func (s *Session) Start() error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return fmt.Errorf("session already started")
	}
	s.mu.Unlock()

	if doc := s.store.Load(); doc != nil {
		s.restore(doc)
	}
	if err := s.cfg.Validate(); err != nil {
		return err
	}

	info := anthropic.ResolveModel(s.cfg.Model)
	if info == nil {
		s.logger.Warn("unknown model choice, using default",
			zap.String("choice", s.cfg.Model))
		s.modelID = anthropic.DefaultModel
	} else {
		s.modelID = info.ID
	}
	if s.client == nil {
		s.client = anthropic.NewClient(s.cfg.APIKey, anthropic.WithLogger(s.logger))
	}
	s.game = s.env.Game()

	s.mu.Lock()
	s.started = true
	s.state = StateRunning
	s.mu.Unlock()

	s.emitter.Emit(EventSessionStart, map[string]interface{}{
		"model": s.modelID,
		"game":  s.game.Title,
	})
	s.logger.Info("session started",
		zap.String("session_id", s.id),
		zap.String("model", s.modelID),
		zap.String("game", s.game.Title))

	s.timer.Reset(s.cfg.TurnInterval)
	go s.run()
	return nil
}

// Stop halts the loop synchronously: all timers disarmed, the pending
// queue cleared, and any held key released, leaving the environment
// neutral. Safe to call more than once.
func (s *Session) Stop() {
	s.mu.Lock()
	started := s.started
	s.mu.Unlock()
	if !started {
		return
	}
	s.ctrl(func() { s.shutdown() })
}

// Pause suspends turn scheduling without tearing anything down. The
// pacer finishes whatever is already queued.
func (s *Session) Pause() {
	s.ctrl(func() {
		if s.stateIs(StateRunning) {
			s.setState(StatePaused)
			s.stopTimer()
			s.logger.Info("session paused")
		}
	})
}

// Resume restarts turn scheduling after a pause.
func (s *Session) Resume() {
	s.ctrl(func() {
		if s.stateIs(StatePaused) {
			s.setState(StateRunning)
			s.timer.Reset(s.cfg.TurnInterval)
			s.logger.Info("session resumed")
		}
	})
}

// Turn returns the current turn number.
func (s *Session) Turn() int {
	var n int
	s.inspect(func() { n = s.turn })
	return n
}

// Notes returns a snapshot of the note store.
func (s *Session) Notes() []Note {
	var out []Note
	s.inspect(func() { out = s.notes.Notes() })
	return out
}

// History returns a snapshot of the conversation history.
func (s *Session) History() []ChatMessage {
	var out []ChatMessage
	s.inspect(func() { out = s.history.Messages() })
	return out
}

// TurnRecords returns a snapshot of the scored turn records.
func (s *Session) TurnRecords() []TurnRecord {
	var out []TurnRecord
	s.inspect(func() { out = s.verifier.Records() })
	return out
}

// ConsecutiveErrors returns the current consecutive failure count.
func (s *Session) ConsecutiveErrors() int {
	var n int
	s.inspect(func() { n = s.backoff.Consecutive() })
	return n
}

// run is the control loop. Every state mutation happens here.
func (s *Session) run() {
	for {
		select {
		case <-s.timer.C:
			s.onTick()
		case c := <-s.completionCh:
			s.onCompletion(c)
		case <-s.pacer.TimerC():
			s.pacer.OnTimer()
		case fn := <-s.ctrlCh:
			fn()
		case <-s.done:
			return
		}
	}
}

// onTick runs one scheduled turn: score the prior turn against fresh
// telemetry, validate notes, assemble the prompt, and dispatch.
func (s *Session) onTick() {
	if !s.stateIs(StateRunning) {
		return
	}
	if s.inFlight {
		// No queueing, no overlap; the next tick tries again.
		s.logger.Debug("tick skipped, request in flight")
		s.timer.Reset(s.cfg.TurnInterval)
		return
	}

	s.turn++
	s.emitter.Emit(EventLoopTick, map[string]interface{}{"turn": s.turn})

	shot, err := s.env.Capture()
	if err != nil {
		s.logger.Warn("frame capture failed, skipping turn", zap.Error(err))
		s.emitter.Emit(EventError, map[string]interface{}{"error": err.Error()})
		s.timer.Reset(s.cfg.TurnInterval)
		return
	}

	var posPtr *Position
	if pos, ok := s.env.Snapshot(); ok {
		p := pos
		posPtr = &p
	}

	// Ground truth spanning the previous turn's actuation.
	hadGT := s.lastBefore != nil && posPtr != nil
	moved := hadGT && !s.lastBefore.Same(*posPtr)
	if n := s.notes.Validate(hadGT, moved); n > 0 {
		s.persist()
		s.emitNotes()
	}

	if s.lastCommands != nil {
		rec := s.verifier.ScoreTurn(s.lastTurn, s.lastBefore, posPtr, s.lastCommands)
		s.lastCommands = nil
		s.emitter.Emit(EventTurnScored, map[string]interface{}{
			"turn":   rec.Turn,
			"result": string(rec.Result),
			"reason": rec.Reason,
		})
	}

	stuck := s.verifier.CheckStuckPattern()
	if stuck != "" {
		s.emitter.Emit(EventStuckWarning, map[string]interface{}{"message": stuck})
	}

	prompt := BuildPrompt(PromptData{
		Game:          s.game,
		Turn:          s.turn,
		Position:      posPtr,
		Notes:         s.notes.Notes(),
		Records:       s.verifier.Records(),
		StuckWarning:  stuck,
		SearchQuery:   s.searchQuery,
		SearchEnabled: s.cfg.SearchEnabled,
		MaxRepeat:     s.cfg.MaxRepeat,
	})
	s.searchQuery = ""
	s.pendingPrompt = prompt
	s.lastBefore = posPtr

	s.dispatch(s.buildRequest(prompt, shot))
	s.timer.Reset(s.cfg.TurnInterval)
}

// buildRequest converts the history plus the current multimodal turn
// into a wire request.
func (s *Session) buildRequest(prompt string, screenshot []byte) anthropic.Request {
	var msgs []anthropic.Message
	for _, m := range s.history.Messages() {
		if m.Role == ChatUser {
			msgs = append(msgs, anthropic.UserMessage(m.Text))
		} else {
			msgs = append(msgs, anthropic.AssistantMessage(m.Text))
		}
	}

	shot := base64.StdEncoding.EncodeToString(screenshot)
	var content []anthropic.ContentBlock
	if s.prevShot != "" {
		content = append(content, anthropic.ImageBlock(s.prevShot, "image/png"))
	}
	content = append(content, anthropic.ImageBlock(shot, "image/png"), anthropic.TextBlock(prompt))
	msgs = append(msgs, anthropic.Message{Role: anthropic.RoleUser, Content: content})
	s.prevShot = shot

	req := anthropic.Request{
		Model:     s.modelID,
		MaxTokens: s.cfg.MaxTokens,
		Messages:  msgs,
	}
	if s.cfg.ThinkingEnabled {
		req.Thinking = &anthropic.Thinking{Type: "enabled", BudgetTokens: s.cfg.ThinkingBudget}
	}
	if s.cfg.SearchEnabled {
		req.Tools = []anthropic.Tool{anthropic.WebSearchTool(1)}
	}
	return req
}

// dispatch issues the network call. Exactly one request may be
// outstanding; each carries a token so a completion that outlives its
// deadline is recognized and discarded.
func (s *Session) dispatch(req anthropic.Request) {
	token := uuid.New().String()
	s.requestToken = token
	s.inFlight = true

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.RequestTimeout)
	s.cancelRequest = cancel

	go func() {
		resp, err := s.client.Complete(ctx, req)
		select {
		case s.completionCh <- completion{token: token, resp: resp, err: err}:
		case <-s.done:
		}
	}()
}

// onCompletion routes a finished request to exactly one of success,
// recoverable failure, or escalation.
func (s *Session) onCompletion(c completion) {
	if !s.inFlight || c.token != s.requestToken {
		s.logger.Debug("discarding late response", zap.String("token", c.token))
		return
	}
	s.inFlight = false
	if s.cancelRequest != nil {
		s.cancelRequest()
		s.cancelRequest = nil
	}

	if c.err != nil {
		s.handleFailure(c.err)
		return
	}
	s.handleSuccess(c.resp)
}

// handleFailure applies the error taxonomy: fatal-class endpoint
// errors escalate immediately; everything else counts toward the
// consecutive-error threshold and stretches the next interval.
func (s *Session) handleFailure(err error) {
	if anthropic.IsFatal(err) {
		s.escalate(err)
		return
	}

	s.backoff.Fail()
	if s.backoff.Consecutive() >= s.cfg.MaxConsecutiveErrors {
		s.escalate(err)
		return
	}

	delay := s.backoff.Delay()
	s.logger.Warn("turn failed, backing off",
		zap.Error(err),
		zap.Int("consecutive", s.backoff.Consecutive()),
		zap.Duration("delay", delay))
	s.emitter.Emit(EventError, map[string]interface{}{
		"error":       err.Error(),
		"consecutive": s.backoff.Consecutive(),
	})

	// No retry timer: the next tick is the retry, just later.
	s.timer.Reset(s.cfg.TurnInterval + delay)
}

// handleSuccess parses the response and drives everything downstream:
// memory ops, history, scoring carry-over, pacing, persistence.
func (s *Session) handleSuccess(resp *anthropic.Response) {
	s.backoff.Success()
	s.timer.Reset(s.cfg.TurnInterval)

	text := resp.Text()
	parsed := Parse(text, s.cfg.MaxRepeat)

	// Clear directives apply before new notes from the same response.
	notesChanged := false
	for _, op := range parsed.MemoryOps {
		switch op.Kind {
		case OpClearAll:
			s.notes.ClearAll()
			notesChanged = true
		case OpClearNote:
			if s.notes.Clear(op.NoteID) {
				notesChanged = true
			}
		}
	}
	for _, op := range parsed.MemoryOps {
		if op.Kind == OpAddNote {
			s.notes.Add(op.Text, op.Prediction)
			notesChanged = true
		}
	}

	if parsed.SearchQuery != "" {
		s.searchQuery = parsed.SearchQuery
		s.emitter.Emit(EventSearchRequested, map[string]interface{}{
			"query": parsed.SearchQuery,
		})
	}

	s.history.Append(ChatUser, s.pendingPrompt)
	s.history.Append(ChatAssistant, text)

	// Scoring waits for the next snapshot, when the effect is visible.
	s.lastCommands = parsed.Commands
	s.lastTurn = s.turn

	s.emitter.Emit(EventResponse, map[string]interface{}{
		"text":      text,
		"reasoning": resp.Reasoning(),
	})
	inputs := make([]string, len(parsed.Commands))
	for i, c := range parsed.Commands {
		inputs[i] = c.String()
	}
	s.emitter.Emit(EventInputs, map[string]interface{}{
		"inputs":   inputs,
		"fallback": parsed.Fallback,
	})
	if notesChanged {
		s.emitNotes()
	}

	s.logger.Info("turn completed",
		zap.Int("turn", s.turn),
		zap.Strings("inputs", inputs),
		zap.Bool("fallback", parsed.Fallback))

	s.pacer.Enqueue(parsed.Commands)
	s.persist()
}

// escalate is the critical-error path: halt scheduling, neutralize
// input, snapshot the game best-effort, and raise the terminal event.
// There is no automatic restart.
func (s *Session) escalate(err error) {
	s.logger.Error("critical error, halting loop", zap.Error(err))
	s.setState(StateFailed)
	s.stopTimer()
	if s.cancelRequest != nil {
		s.cancelRequest()
		s.cancelRequest = nil
	}
	s.inFlight = false
	s.pacer.Stop()

	saved := false
	if ss, ok := s.env.(SaveStater); ok {
		if saveErr := ss.SaveState(s.cfg.CriticalSaveSlot); saveErr != nil {
			s.logger.Warn("emergency save state failed", zap.Error(saveErr))
		} else {
			saved = true
			s.logger.Info("game state saved", zap.Int("slot", s.cfg.CriticalSaveSlot))
		}
	}

	s.emitter.Emit(EventCriticalError, map[string]interface{}{
		"error": err.Error(),
		"saved": saved,
	})
}

// shutdown tears the loop down. Idempotent.
func (s *Session) shutdown() {
	s.mu.Lock()
	if s.shutDown {
		s.mu.Unlock()
		return
	}
	s.shutDown = true
	s.state = StateStopped
	s.mu.Unlock()

	s.stopTimer()
	if s.cancelRequest != nil {
		s.cancelRequest()
		s.cancelRequest = nil
	}
	s.inFlight = false
	s.pacer.Stop()
	s.persist()

	s.logger.Info("session stopped", zap.String("session_id", s.id))
	s.emitter.Emit(EventSessionEnd, nil)
	s.emitter.Close()
	close(s.done)
}

func (s *Session) stopTimer() {
	if !s.timer.Stop() {
		select {
		case <-s.timer.C:
		default:
		}
	}
}

func (s *Session) persist() {
	doc := &SessionDocument{
		Model:           s.cfg.Model,
		APIKey:          s.cfg.APIKey,
		ThinkingEnabled: s.cfg.ThinkingEnabled,
		SearchEnabled:   s.cfg.SearchEnabled,
		History:         s.history.Messages(),
		Notes:           s.notes.Notes(),
		NextNoteID:      s.notes.NextID(),
	}
	if err := s.store.Save(doc); err != nil {
		s.logger.Warn("session save failed", zap.Error(err))
	}
}

// restore applies a persisted document. Configured values win over
// persisted ones; the document only fills gaps.
func (s *Session) restore(doc *SessionDocument) {
	s.history.Restore(doc.History)
	s.notes.Restore(doc.Notes, doc.NextNoteID)
	if s.cfg.APIKey == "" {
		s.cfg.APIKey = doc.APIKey
	}
	if s.cfg.Model == "" {
		s.cfg.Model = doc.Model
	}
	s.logger.Info("session restored",
		zap.Int("history", s.history.Len()),
		zap.Int("notes", s.notes.Len()))
}

func (s *Session) emitNotes() {
	notes := s.notes.Notes()
	summaries := make([]string, len(notes))
	for i, n := range notes {
		summaries[i] = fmt.Sprintf("#%d (%s): %s", n.ID, n.Status, n.Content)
	}
	s.emitter.Emit(EventNotesChanged, map[string]interface{}{"notes": summaries})
}

func (s *Session) setState(st SessionState) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

func (s *Session) stateIs(st SessionState) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == st
}

// ctrl marshals fn onto the control goroutine and waits for it.
// Returns false, without running fn, when the loop is not running.
func (s *Session) ctrl(fn func()) bool {
	s.mu.Lock()
	started := s.started
	s.mu.Unlock()
	if !started {
		return false
	}
	ack := make(chan struct{})
	select {
	case s.ctrlCh <- func() { fn(); close(ack) }:
		<-ack
		return true
	case <-s.done:
		return false
	}
}

// inspect runs fn with loop-owned state, on the loop goroutine while
// it is alive and inline once it is not.
func (s *Session) inspect(fn func()) {
	if !s.ctrl(fn) {
		fn()
	}
}
