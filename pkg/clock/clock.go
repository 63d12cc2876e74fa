// Package clock supplies the wall clock the arbiter reads "now" from. Tests
// swap in a mock and move time by hand.
package clock

import (
	"time"

	"github.com/benbjohnson/clock"
)

type Clock = clock.Clock

type Mock = clock.Mock

func New() Clock {
	return clock.New()
}

// NewMock returns a mock clock set to unix second at.
func NewMock(at int64) *Mock {
	m := clock.NewMock()
	m.Set(time.Unix(at, 0))
	return m
}

// Unix is the whole-second timestamp the game runs on.
func Unix(c Clock) int64 {
	return c.Now().Unix()
}
