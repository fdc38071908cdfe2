package entity

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// Note is an immutable remark. Its ID survives copies between entities so
// the same note is never stored twice on one entity.
type Note struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	CreatedBy string    `json:"createdBy"`
}

// Notes is kept in insertion order. It is only ever appended to.
type Notes []Note

// notePrecision matches the timestamp resolution of the database.
const notePrecision = time.Microsecond

// Next builds the note that would be appended at now, bumping the timestamp
// past the latest note so createdAt stays monotonic per entity.
func (n Notes) Next(content, author string, now time.Time) Note {
	ts := now.Truncate(notePrecision)
	if last, ok := n.latest(); ok && !ts.After(last) {
		ts = last.Add(notePrecision)
	}
	return Note{
		ID:        uuid.New().String(),
		Content:   content,
		CreatedAt: ts,
		CreatedBy: author,
	}
}

func (n Notes) latest() (time.Time, bool) {
	if len(n) == 0 {
		return time.Time{}, false
	}
	newest := n[0].CreatedAt
	for _, note := range n[1:] {
		if note.CreatedAt.After(newest) {
			newest = note.CreatedAt
		}
	}
	return newest, true
}

// Missing returns the notes of src, in src order, that are not on n and
// were created at or after since. A zero since selects every note.
func (n Notes) Missing(src Notes, since time.Time) Notes {
	have := make(map[string]bool, len(n))
	for _, note := range n {
		have[note.ID] = true
	}
	var out Notes
	for _, note := range src {
		if have[note.ID] {
			continue
		}
		if !since.IsZero() && note.CreatedAt.Before(since) {
			continue
		}
		have[note.ID] = true
		out = append(out, note)
	}
	return out
}

// Merge appends the missing notes of src and restores chronological order.
func (n Notes) Merge(src Notes, since time.Time) Notes {
	out := append(n.Clone(), n.Missing(src, since)...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// NewestFirst orders by createdAt descending; equal timestamps keep the later
// insertion first.
func (n Notes) NewestFirst() Notes {
	out := make(Notes, len(n))
	for i := range n {
		out[len(n)-1-i] = n[i]
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (n Notes) Clone() Notes {
	if n == nil {
		return Notes{}
	}
	return append(Notes{}, n...)
}
