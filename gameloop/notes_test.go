package gameloop

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNoteStoreSequentialIDs(t *testing.T) {
	s := NewNoteStore(20, nil)

	n1 := s.Add("rival took charmander", false)
	n2 := s.Add("gym is north of the mart", false)

	require.Equal(t, 1, n1.ID)
	require.Equal(t, 2, n2.ID)
	require.Equal(t, NoteUnverified, n1.Status)
	require.Equal(t, 3, s.NextID())
}

func TestNoteStoreEvictsOldest(t *testing.T) {
	s := NewNoteStore(3, nil)

	for i := 1; i <= 5; i++ {
		s.Add(fmt.Sprintf("note %d", i), false)
	}

	notes := s.Notes()
	require.Len(t, notes, 3)
	require.Equal(t, "note 3", notes[0].Content)
	require.Equal(t, 3, notes[0].ID)
}

func TestNoteStoreClear(t *testing.T) {
	s := NewNoteStore(20, nil)
	s.Add("keep", false)
	s.Add("drop", false)

	require.True(t, s.Clear(2))
	require.False(t, s.Clear(2))
	require.Equal(t, 1, s.Len())
	require.Equal(t, "keep", s.Notes()[0].Content)
}

func TestNoteStoreClearAllResetsCounter(t *testing.T) {
	s := NewNoteStore(20, nil)
	s.Add("one", false)
	s.Add("two", false)

	s.ClearAll()

	require.Zero(t, s.Len())
	require.Equal(t, 1, s.NextID())
	require.Equal(t, 1, s.Add("fresh", false).ID)
}

func TestNoteStoreRenumbersWhenCounterGrows(t *testing.T) {
	s := NewNoteStore(3, nil)

	// Push the counter past twice the capacity.
	for i := 1; i <= 6; i++ {
		s.Add(fmt.Sprintf("note %d", i), false)
	}

	notes := s.Notes()
	require.Len(t, notes, 3)
	require.Equal(t, 1, notes[0].ID)
	require.Equal(t, 2, notes[1].ID)
	require.Equal(t, 3, notes[2].ID)
	require.Equal(t, "note 4", notes[0].Content)
	require.Equal(t, 4, s.NextID())
}

func TestNoteStorePredictionAnnotated(t *testing.T) {
	s := NewNoteStore(20, nil)

	n := s.Add("pressing up moved me north", true)

	require.True(t, strings.HasSuffix(n.Content, "[unverified prediction]"))
}

func TestNoteValidateVerifiesMovementClaim(t *testing.T) {
	s := NewNoteStore(20, nil)
	s.Add("walked through the gym door", false)

	changed := s.Validate(true, true)

	require.Equal(t, 1, changed)
	require.Equal(t, NoteVerified, s.Notes()[0].Status)
}

func TestNoteValidateContradictsMovementClaim(t *testing.T) {
	s := NewNoteStore(20, nil)
	s.Add("walked through the gym door", false)

	changed := s.Validate(true, false)

	require.Equal(t, 1, changed)
	require.Equal(t, NoteContradicted, s.Notes()[0].Status)
}

func TestNoteValidateSkipsNonMovementClaims(t *testing.T) {
	s := NewNoteStore(20, nil)
	s.Add("the clerk sells potions", false)

	require.Zero(t, s.Validate(true, false))
	require.Equal(t, NoteUnverified, s.Notes()[0].Status)
}

func TestNoteValidateRequiresGroundTruth(t *testing.T) {
	s := NewNoteStore(20, nil)
	s.Add("walked into the cave", false)

	require.Zero(t, s.Validate(false, false))
	require.Equal(t, NoteUnverified, s.Notes()[0].Status)
}

func TestNoteValidateOnlyChecksFreshNotes(t *testing.T) {
	s := NewNoteStore(20, nil)
	s.Add("walked into the cave", false)

	// First validation settles the note and clears its written flag.
	s.Validate(true, true)

	// A later turn with no movement must not flip the old note.
	require.Zero(t, s.Validate(true, false))
	require.Equal(t, NoteVerified, s.Notes()[0].Status)
}

func TestNoteStoreRestore(t *testing.T) {
	s := NewNoteStore(20, nil)
	s.Restore([]Note{
		{ID: 4, Content: "restored", Status: NoteVerified},
	}, 5)

	require.Equal(t, 1, s.Len())
	require.Equal(t, 5, s.NextID())
	require.Equal(t, NoteVerified, s.Notes()[0].Status)
}
