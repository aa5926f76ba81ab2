package progress

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// Reporter prints "[PROGRESS] n" markers for a supervising process.
// Reported values never decrease and are clamped to [0, 100].
type Reporter struct {
	mu   sync.Mutex
	w    io.Writer
	last int
}

func NewReporter(w io.Writer) *Reporter {
	if w == nil {
		w = os.Stderr
	}
	return &Reporter{w: w}
}

// Report emits pct, raised to the last value if it would go backwards.
func (r *Reporter) Report(pct int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	if pct < r.last {
		pct = r.last
	}
	r.last = pct

	fmt.Fprintf(r.w, "[PROGRESS] %d\n", pct)
	if s, ok := r.w.(interface{ Sync() error }); ok {
		_ = s.Sync()
	}
}

// Last returns the most recently reported value.
func (r *Reporter) Last() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last
}

// Scaled maps item i (zero based) of total onto the band [from, to].
func Scaled(from, to, i, total int) int {
	if total < 1 {
		total = 1
	}
	return from + int(float64(i+1)/float64(total)*float64(to-from))
}
