package output

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// ProgressBar draws a single redrawn line tracking elapsed time against a
// planned duration, with a caller supplied status suffix.
type ProgressBar struct {
	mu    sync.Mutex
	w     io.Writer
	title string
	width int
	total time.Duration
	done  time.Duration
	note  string
}

// NewProgressBar returns a bar for a run of length total. A zero total draws
// only the elapsed time.
func NewProgressBar(w io.Writer, title string, total time.Duration) *ProgressBar {
	return &ProgressBar{w: w, title: title, width: 30, total: total}
}

// Update redraws the bar.
func (p *ProgressBar) Update(elapsed time.Duration, note string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.done = elapsed
	p.note = note
	p.render()
}

// Finish draws the final state and ends the line.
func (p *ProgressBar) Finish(note string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.total > 0 {
		p.done = p.total
	}
	p.note = note
	p.render()
	fmt.Fprintln(p.w)
}

func (p *ProgressBar) render() {
	elapsed := p.done.Round(time.Second)
	if p.total <= 0 {
		fmt.Fprintf(p.w, "\r%s %s %s", p.title, elapsed, p.note)
		return
	}

	ratio := float64(p.done) / float64(p.total)
	ratio = min(max(ratio, 0), 1)
	filled := int(float64(p.width) * ratio)
	bar := strings.Repeat("#", filled) + strings.Repeat(".", p.width-filled)
	fmt.Fprintf(p.w, "\r%s [%s] %3.0f%% %s/%s %s",
		p.title, bar, ratio*100, elapsed, p.total.Round(time.Second), p.note)
}
