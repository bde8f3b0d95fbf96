package services

import (
	"sync"

	"mfps/internal/core/domain/model/assembly"
)

// LineRouter is a domain service that balances orders across the assembly
// lines. Every admitted order increments the pending count of its chosen
// line; the count drops again when the order's workflow finishes.
//
// Routing rule: pick the line with the fewest pending orders. Ties are broken
// by declaration order of the lines, so a freshly started router always picks
// ASSEMBLY_LINE_A first.
type LineRouter struct {
	mu      sync.Mutex
	pending map[assembly.Location]int
}

// NewLineRouter creates a router with zero pending orders on every line.
func NewLineRouter() *LineRouter {
	pending := make(map[assembly.Location]int, len(assembly.AllLines()))
	for _, line := range assembly.AllLines() {
		pending[line] = 0
	}
	return &LineRouter{pending: pending}
}

// Route picks the least loaded line and increments its pending count. The
// caller must pair every Route call with a later Done call for the returned
// line.
func (r *LineRouter) Route() assembly.Location {
	r.mu.Lock()
	defer r.mu.Unlock()

	lines := assembly.AllLines()
	chosen := lines[0]
	for _, line := range lines[1:] {
		if r.pending[line] < r.pending[chosen] {
			chosen = line
		}
	}
	r.pending[chosen]++
	return chosen
}

// Done releases one pending slot on the line. The count never drops below
// zero, so an unmatched Done is harmless.
func (r *LineRouter) Done(line assembly.Location) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.pending[line] > 0 {
		r.pending[line]--
	}
}

// PendingPerLine returns a snapshot of the pending counts, keyed by line.
func (r *LineRouter) PendingPerLine() map[assembly.Location]int {
	r.mu.Lock()
	defer r.mu.Unlock()

	snapshot := make(map[assembly.Location]int, len(r.pending))
	for line, count := range r.pending {
		snapshot[line] = count
	}
	return snapshot
}
