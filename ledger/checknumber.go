package ledger

import (
	"fmt"
	"sync"
	"time"
)

const (
	checkNumberPrefix = "CHK"
	maxDailyChecks    = 9999
)

// CheckNumbers issues check numbers of the form CHK-YYYY-MMDD-NNNN, where NNNN
// is a per-day sequence starting at 0001 and wrapping from 9999 back to 0001.
// It is safe for concurrent use.
type CheckNumbers struct {
	mu  sync.Mutex
	day string
	seq int
	now func() time.Time
}

// NewCheckNumbers returns a generator driven by the wall clock.
func NewCheckNumbers() *CheckNumbers {
	return &CheckNumbers{now: time.Now}
}

// Next returns the next check number for today.
func (c *CheckNumbers) Next() string {
	now := time.Now
	if c.now != nil {
		now = c.now
	}
	return c.NextFor(now())
}

// NextFor returns the next check number for the calendar day of t. Only the
// most recently used day keeps a counter; moving to another day starts over.
func (c *CheckNumbers) NextFor(t time.Time) string {
	day := t.Format("2006-0102")

	c.mu.Lock()
	if day != c.day {
		c.day = day
		c.seq = 0
	}
	c.seq++
	if c.seq > maxDailyChecks {
		c.seq = 1
	}
	seq := c.seq
	c.mu.Unlock()

	return fmt.Sprintf("%s-%s-%04d", checkNumberPrefix, day, seq)
}

var defaultCheckNumbers = NewCheckNumbers()
