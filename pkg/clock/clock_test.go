package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMock(t *testing.T) {
	m := NewMock(1_700_000_000)
	assert.Equal(t, int64(1_700_000_000), Unix(m))

	m.Add(2500 * time.Millisecond)
	assert.Equal(t, int64(1_700_000_002), Unix(m), "truncated to whole seconds")
}
