package store

import (
	"fmt"
	"regexp"
	"strconv"
	"sync"
	"time"
)

// Cursors are fixed-width "<unix_nano_padded>-<seq>" strings, so lexical
// order equals issue order. The sequence component breaks ties between
// mutations landing in the same nanosecond; the clock never issues the
// same or a smaller cursor twice, which keeps the sync protocol from
// stalling on identical timestamps.
const cursorLen = 20 + 1 + 6

var cursorRe = regexp.MustCompile(`^\d{20}-\d{6}$`)

type hlc struct {
	mu   sync.Mutex
	last int64
	seq  uint64
}

func (c *hlc) next() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := time.Now().UTC().UnixNano()
	if now < c.last {
		now = c.last
	}
	if now == c.last {
		c.seq++
		if c.seq > 999999 {
			now++
			c.seq = 0
		}
	} else {
		c.seq = 0
	}
	c.last = now
	return fmt.Sprintf("%020d-%06d", now, c.seq)
}

// ValidCursor reports whether s is a well-formed cursor string.
func ValidCursor(s string) bool {
	return len(s) == cursorLen && cursorRe.MatchString(s)
}

// CursorTime extracts the wall-clock component of a cursor. Zero time for
// malformed input.
func CursorTime(s string) time.Time {
	if !ValidCursor(s) {
		return time.Time{}
	}
	ns, err := strconv.ParseInt(s[:20], 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.Unix(0, ns).UTC()
}
