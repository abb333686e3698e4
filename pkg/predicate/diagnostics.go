package predicate

// Diagnostics collects failure explanations for one polling pass.
// It is not safe for concurrent use; each validation owns its own.
type Diagnostics struct {
	entries []string
}

// Add appends an explanation. Empty strings are ignored.
func (d *Diagnostics) Add(msg string) {
	if msg == "" {
		return
	}
	d.entries = append(d.entries, msg)
}

// Reset discards all collected explanations.
func (d *Diagnostics) Reset() {
	d.entries = d.entries[:0]
}

// Len returns the number of collected explanations.
func (d *Diagnostics) Len() int {
	return len(d.entries)
}

// All returns a copy of the collected explanations in insertion order.
func (d *Diagnostics) All() []string {
	out := make([]string, len(d.entries))
	copy(out, d.entries)
	return out
}

// Best returns the most specific explanation, taken to be the longest.
// Ties go to the earliest entry.
func (d *Diagnostics) Best() string {
	best := ""
	for _, e := range d.entries {
		if len(e) > len(best) {
			best = e
		}
	}
	return best
}
