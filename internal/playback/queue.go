package playback

import "jukebox/internal/library"

// Queue is the flattened play order for one playback session. The cursor
// starts before the first element; Next and Prev are the only traversal
// mutators. A new queue is built per play request, the old one is discarded.
type Queue struct {
	entries []library.Entry
	cursor  int
}

// NewQueue creates a queue over the given entries with the cursor parked
// before the first element.
func NewQueue(entries []library.Entry) *Queue {
	return &Queue{entries: entries, cursor: -1}
}

// Next advances the cursor and returns the entry there, or nil when the
// cursor is already at the last element. No wraparound.
func (q *Queue) Next() *library.Entry {
	if q.cursor >= len(q.entries)-1 {
		return nil
	}
	q.cursor++
	e := q.entries[q.cursor]
	return &e
}

// Prev retreats the cursor and returns the entry there, or nil when the
// cursor is at or before the first element.
func (q *Queue) Prev() *library.Entry {
	if q.cursor < 1 {
		return nil
	}
	q.cursor--
	e := q.entries[q.cursor]
	return &e
}

// Clear empties the queue and resets the cursor to its initial sentinel.
func (q *Queue) Clear() {
	q.entries = nil
	q.cursor = -1
}

// Len returns the number of entries in the queue.
func (q *Queue) Len() int { return len(q.entries) }

// Index returns the cursor position (-1 before the first element).
func (q *Queue) Index() int { return q.cursor }
