package gameloop

import (
	"strings"
	"time"

	"go.uber.org/zap"
)

// NoteStatus tags a note with its verification state.
type NoteStatus string

const (
	NoteUnverified   NoteStatus = "UNVERIFIED"
	NoteVerified     NoteStatus = "VERIFIED"
	NoteContradicted NoteStatus = "CONTRADICTED"
)

// Note is one user-visible memory entry written by the model.
type Note struct {
	ID        int        `json:"id"`
	Timestamp string     `json:"timestamp"`
	Content   string     `json:"content"`
	Status    NoteStatus `json:"verification_status"`

	// writtenThisTurn is transient; validation clears it on the next
	// turn before the new prompt is built.
	writtenThisTurn bool
}

// predictionAnnotation is appended to notes that claim an outcome for
// the same turn's own commands.
const predictionAnnotation = " [unverified prediction]"

// Movement-claim markers for ground-truth validation. Substring match
// on lowercased content; approximate by design.
var movementClaimWords = []string{
	"moved", "walk", "went", "going", "head", "stepped",
	"enter", "exit", "arriv", "reach", "now in", "now at",
}

// NoteStore is the bounded FIFO of model-written notes.
type NoteStore struct {
	notes  []Note
	nextID int
	max    int
	logger *zap.Logger
}

// NewNoteStore creates a store capped at max notes.
func NewNoteStore(max int, logger *zap.Logger) *NoteStore {
	if max <= 0 {
		max = 20
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NoteStore{nextID: 1, max: max, logger: logger}
}

// Add appends a note, evicting the oldest when over capacity. A
// prediction note is stored with an annotation, never rejected.
func (s *NoteStore) Add(content string, prediction bool) Note {
	if prediction {
		content += predictionAnnotation
	}
	note := Note{
		ID:              s.nextID,
		Timestamp:       time.Now().Format("15:04:05"),
		Content:         content,
		Status:          NoteUnverified,
		writtenThisTurn: true,
	}
	s.nextID++
	s.notes = append(s.notes, note)
	if len(s.notes) > s.max {
		evicted := s.notes[0]
		s.notes = s.notes[1:]
		s.logger.Debug("note evicted", zap.Int("id", evicted.ID))
	}
	s.renumberIfNeeded()
	return note
}

// Clear removes the note with the given id.
func (s *NoteStore) Clear(id int) bool {
	for i, n := range s.notes {
		if n.ID == id {
			s.notes = append(s.notes[:i], s.notes[i+1:]...)
			return true
		}
	}
	return false
}

// ClearAll removes every note and resets the id counter to 1.
func (s *NoteStore) ClearAll() {
	s.notes = nil
	s.nextID = 1
}

// Notes returns a copy of the notes in insertion order.
func (s *NoteStore) Notes() []Note {
	out := make([]Note, len(s.notes))
	copy(out, s.notes)
	return out
}

// Len returns the note count.
func (s *NoteStore) Len() int {
	return len(s.notes)
}

// NextID returns the id the next note will receive.
func (s *NoteStore) NextID() int {
	return s.nextID
}

// Restore replaces the store contents from a persisted session.
func (s *NoteStore) Restore(notes []Note, nextID int) {
	s.notes = make([]Note, len(notes))
	copy(s.notes, notes)
	if nextID < 1 {
		nextID = 1
	}
	s.nextID = nextID
	if len(s.notes) > s.max {
		s.notes = s.notes[len(s.notes)-s.max:]
	}
}

// renumberIfNeeded compacts ids once the counter has grown past twice
// the capacity. Afterwards ids are a dense 1..count sequence and
// nextID is count+1.
func (s *NoteStore) renumberIfNeeded() {
	if s.nextID <= 2*s.max {
		return
	}
	for i := range s.notes {
		s.notes[i].ID = i + 1
	}
	s.nextID = len(s.notes) + 1
	s.logger.Debug("note ids renumbered", zap.Int("count", len(s.notes)))
}

// Validate cross-checks notes against ground truth. It runs once per
// turn before the new prompt is built: it always clears the previous
// turn's written flags, and when telemetry was available across the
// turn it settles movement claims written that turn: VERIFIED when the
// position actually changed, CONTRADICTED when it did not. Returns the
// number of notes whose status changed.
func (s *NoteStore) Validate(hadGroundTruth, moved bool) int {
	changed := 0
	for i := range s.notes {
		n := &s.notes[i]
		if !n.writtenThisTurn {
			continue
		}
		n.writtenThisTurn = false
		if !hadGroundTruth || n.Status != NoteUnverified {
			continue
		}
		if !claimsMovement(n.Content) {
			continue
		}
		if moved {
			n.Status = NoteVerified
		} else {
			n.Status = NoteContradicted
			s.logger.Info("note contradicted by telemetry",
				zap.Int("id", n.ID),
				zap.String("content", n.Content))
		}
		changed++
	}
	return changed
}

func claimsMovement(content string) bool {
	lower := strings.ToLower(content)
	for _, w := range movementClaimWords {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}
