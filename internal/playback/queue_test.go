package playback

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"jukebox/internal/library"
)

func entries(names ...string) []library.Entry {
	result := make([]library.Entry, len(names))
	for i, name := range names {
		result[i] = library.Entry{
			ID:      int64(i + 1),
			Variant: library.VariantFile,
			Name:    name,
		}
	}
	return result
}

func TestQueue_NextTraversal(t *testing.T) {
	q := NewQueue(entries("A", "B", "C"))

	for _, want := range []string{"A", "B", "C"} {
		e := q.Next()
		if assert.NotNil(t, e) {
			assert.Equal(t, want, e.Name)
		}
	}

	// No wraparound, repeatedly.
	assert.Nil(t, q.Next())
	assert.Nil(t, q.Next())
}

func TestQueue_PrevTraversal(t *testing.T) {
	q := NewQueue(entries("A", "B", "C"))
	for range 3 {
		q.Next()
	}

	for _, want := range []string{"B", "A"} {
		e := q.Prev()
		if assert.NotNil(t, e) {
			assert.Equal(t, want, e.Name)
		}
	}

	assert.Nil(t, q.Prev(), "Prev() at the head")
}

func TestQueue_PrevBeforeStart(t *testing.T) {
	q := NewQueue(entries("A", "B"))

	assert.Nil(t, q.Prev(), "Prev() before first Next()")

	q.Next()
	assert.Nil(t, q.Prev(), "Prev() at first element")
}

func TestQueue_Clear(t *testing.T) {
	q := NewQueue(entries("A", "B"))
	q.Next()

	q.Clear()

	assert.Equal(t, 0, q.Len())
	assert.Equal(t, -1, q.Index())
	assert.Nil(t, q.Next())
}

func TestQueue_Empty(t *testing.T) {
	q := NewQueue(nil)

	assert.Nil(t, q.Next())
	assert.Nil(t, q.Prev())
}
