package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecentKings_RecordNew(t *testing.T) {
	var r RecentKings
	r = r.Record(testID(1))
	r = r.Record(testID(2))
	r = r.Record(testID(3))

	assert.Equal(t, 3, r.Len())
	assert.Equal(t, []Identity{testID(3), testID(2), testID(1)}, r.Kings())

	r = r.Record(testID(4))
	assert.Equal(t, 3, r.Len(), "capped at three")
	assert.Equal(t, []Identity{testID(4), testID(3), testID(2)}, r.Kings())
	assert.False(t, r.Contains(testID(1)))
}

func TestRecentKings_MoveToFront(t *testing.T) {
	var r RecentKings
	r = r.Record(testID(1)).Record(testID(2)).Record(testID(3))

	r = r.Record(testID(1))
	assert.Equal(t, 3, r.Len(), "re-recording keeps the count")
	assert.Equal(t, []Identity{testID(1), testID(3), testID(2)}, r.Kings())

	r = r.Record(testID(1))
	assert.Equal(t, []Identity{testID(1), testID(3), testID(2)}, r.Kings(), "already in front")
}

func TestRecentKings_PartialFill(t *testing.T) {
	var r RecentKings
	r = r.Record(testID(1)).Record(testID(2)).Record(testID(1))

	assert.Equal(t, 2, r.Len())
	assert.Equal(t, []Identity{testID(1), testID(2)}, r.Kings())

	_, ok := r.At(2)
	assert.False(t, ok)
	id, ok := r.At(1)
	assert.True(t, ok)
	assert.Equal(t, testID(2), id)
	assert.Equal(t, Identity{}, r.Slot(5))
}

func TestRecentKings_NeverDuplicates(t *testing.T) {
	var r RecentKings
	seq := []byte{1, 2, 1, 3, 3, 2, 4, 1, 4, 4, 2, 5, 1}
	for _, b := range seq {
		r = r.Record(testID(b))
		assert.True(t, r.valid(), "after recording %d: %v", b, r.Kings())
		assert.LessOrEqual(t, r.Len(), MaxRecentKings)
		assert.Equal(t, testID(b), r.Kings()[0])
	}
}

func TestRecentKings_Reset(t *testing.T) {
	r := RecentKings{}.Record(testID(1)).Reset()
	assert.Equal(t, 0, r.Len())
	assert.Empty(t, r.Kings())
}
