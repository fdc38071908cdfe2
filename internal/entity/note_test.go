package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotesNextIsMonotonic(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	var notes Notes

	first := notes.Next("first", "a1", now)
	notes = append(notes, first)
	second := notes.Next("second", "a1", now)
	notes = append(notes, second)
	third := notes.Next("third", "a1", now.Add(-time.Hour))

	assert.Equal(t, now, first.CreatedAt)
	assert.True(t, second.CreatedAt.After(first.CreatedAt))
	assert.True(t, third.CreatedAt.After(second.CreatedAt))
	assert.NotEqual(t, first.ID, second.ID)
}

func TestNotesMergeSkipsKnownIDs(t *testing.T) {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	a := Note{ID: "a", Content: "a", CreatedAt: base}
	b := Note{ID: "b", Content: "b", CreatedAt: base.Add(time.Minute)}
	c := Note{ID: "c", Content: "c", CreatedAt: base.Add(2 * time.Minute)}

	target := Notes{a, c}
	merged := target.Merge(Notes{a, b, c}, time.Time{})

	require.Len(t, merged, 3)
	assert.Equal(t, []string{"a", "b", "c"}, ids(merged))
	assert.Len(t, target, 2, "merge must not mutate the receiver")
}

func TestNotesMissingHonoursSince(t *testing.T) {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	src := Notes{
		{ID: "old", CreatedAt: base},
		{ID: "edge", CreatedAt: base.Add(time.Minute)},
		{ID: "new", CreatedAt: base.Add(2 * time.Minute)},
	}

	missing := Notes{}.Missing(src, base.Add(time.Minute))

	assert.Equal(t, []string{"edge", "new"}, ids(missing))
}

func TestNotesNewestFirstBreaksTiesByInsertion(t *testing.T) {
	ts := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	notes := Notes{
		{ID: "1", CreatedAt: ts},
		{ID: "2", CreatedAt: ts},
		{ID: "3", CreatedAt: ts.Add(time.Second)},
	}

	assert.Equal(t, []string{"3", "2", "1"}, ids(notes.NewestFirst()))
}

func ids(n Notes) []string {
	out := make([]string, len(n))
	for i, note := range n {
		out[i] = note.ID
	}
	return out
}
