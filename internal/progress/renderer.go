package progress

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"
)

const clearLine = "\033[1A\033[K"

// Renderer redraws progress bars in place until stopped.
type Renderer struct {
	bars     []*Bar
	output   io.Writer
	interval time.Duration
	mu       sync.Mutex
	drawn    bool
	started  bool
	done     chan struct{}
	stopped  chan struct{}
}

// NewRenderer creates a Renderer drawing the bars to output every interval.
func NewRenderer(output io.Writer, interval time.Duration, bars ...*Bar) *Renderer {
	return &Renderer{
		bars:     bars,
		output:   output,
		interval: interval,
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
}

// Start launches the rendering loop. It ends when ctx is cancelled or Stop is called.
func (r *Renderer) Start(ctx context.Context) {
	r.mu.Lock()
	r.started = true
	r.mu.Unlock()

	go func() {
		defer close(r.stopped)

		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()

		r.Draw()
		for {
			select {
			case <-ticker.C:
				r.Draw()
			case <-r.done:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Draw replaces the previously drawn bars with their current state.
func (r *Renderer) Draw() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.clear()
	for _, bar := range r.bars {
		_, _ = fmt.Fprintln(r.output, bar.String())
	}
	r.drawn = true
}

// Println prints a line above the bars.
func (r *Renderer) Println(a ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()

	wasDrawn := r.drawn
	r.clear()
	_, _ = fmt.Fprintln(r.output, a...)

	if wasDrawn {
		for _, bar := range r.bars {
			_, _ = fmt.Fprintln(r.output, bar.String())
		}
		r.drawn = true
	}
}

// Stop ends the rendering loop and clears the bars from the screen.
// It is not safe to call concurrently with itself.
func (r *Renderer) Stop() {
	select {
	case <-r.done:
		return
	default:
		close(r.done)
	}

	r.mu.Lock()
	started := r.started
	r.mu.Unlock()

	if started {
		<-r.stopped
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.clear()
}

func (r *Renderer) clear() {
	if !r.drawn {
		return
	}
	for range r.bars {
		_, _ = fmt.Fprint(r.output, clearLine)
	}
	r.drawn = false
}
