// Package progress renders discovery progress on a terminal.
package progress

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Bar shows how many subreddits of a run were scanned, the subreddit
// scanned last and how many users were found so far.
type Bar struct {
	mu          sync.Mutex
	total       int64
	current     int64
	found       int
	width       int
	message     string
	stepMessage string
	start       time.Time
	durations   []time.Duration
}

// NewBar creates a progress bar with a total value to track progress against,
// a width in characters for the visual bar, and a message describing the run.
func NewBar(total int64, width int, message string) *Bar {
	return &Bar{
		total:   total,
		width:   width,
		message: message,
		start:   time.Now(),
	}
}

// SetTotal updates the total value that represents 100% progress.
func (b *Bar) SetTotal(total int64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.total = total
}

// SetCurrent directly sets the current progress value, capping at total.
func (b *Bar) SetCurrent(current int64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.current = min(current, b.total)
}

// SetFound updates the number of users found so far.
func (b *Bar) SetFound(found int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.found = found
}

// SetMessage updates the overall operation description.
func (b *Bar) SetMessage(message string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.message = message
}

// SetStepMessage updates the current step description.
func (b *Bar) SetStepMessage(message string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.stepMessage = message
}

// String generates the visual progress bar.
func (b *Bar) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	percent := 0.0
	if b.total > 0 {
		percent = float64(b.current) / float64(b.total)
	}

	filled := int(percent * float64(b.width))
	bar := strings.Repeat("=", filled) + strings.Repeat("-", b.width-filled)

	line := fmt.Sprintf("%s [%s] %d/%d | found %d | %s",
		b.message, bar, b.current, b.total, b.found,
		time.Since(b.start).Round(time.Second))

	if eta := b.eta(); eta != "" {
		line += " (ETA: " + eta + ")"
	}
	if b.stepMessage != "" {
		line += " | " + b.stepMessage
	}

	return line
}

// eta averages previous run durations. Empty without history.
func (b *Bar) eta() string {
	if len(b.durations) == 0 {
		return ""
	}

	var total time.Duration
	for _, duration := range b.durations {
		total += duration
	}

	remaining := total/time.Duration(len(b.durations)) - time.Since(b.start)
	return max(remaining, 0).Round(time.Second).String()
}

// Reset prepares the bar for a new run and remembers the duration of the
// previous one for ETA calculation. At most 10 durations are kept.
func (b *Bar) Reset(total int64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.current > 0 {
		if len(b.durations) >= 10 {
			b.durations = b.durations[1:]
		}
		b.durations = append(b.durations, time.Since(b.start))
	}

	b.total = total
	b.current = 0
	b.found = 0
	b.stepMessage = ""
	b.start = time.Now()
}
