package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClockStrictlyIncreasing(t *testing.T) {
	var c hlc
	prev := ""
	for i := 0; i < 10000; i++ {
		cur := c.next()
		require.True(t, ValidCursor(cur), "cursor %q", cur)
		require.Greater(t, cur, prev)
		prev = cur
	}
}

func TestValidCursor(t *testing.T) {
	var c hlc
	cur := c.next()
	assert.True(t, ValidCursor(cur))

	assert.False(t, ValidCursor(""))
	assert.False(t, ValidCursor("12345"))
	assert.False(t, ValidCursor(cur+"0"))
	assert.False(t, ValidCursor("0000000000000000000a-000001"))
}

func TestCursorTimeRoundTrip(t *testing.T) {
	var c hlc
	before := time.Now().UTC()
	cur := c.next()
	after := time.Now().UTC()
	ts := CursorTime(cur)
	assert.False(t, ts.Before(before.Truncate(time.Nanosecond)))
	assert.False(t, ts.After(after.Add(time.Millisecond)))
}
