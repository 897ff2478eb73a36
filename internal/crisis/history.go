package crisis

import "slices"

// History is the ordered record of resolved crisis names.
// It is not safe for concurrent use; the Engine guards it.
type History struct {
	names []string
	cap   int
}

// NewHistory creates a history. A positive limit keeps only the most recent
// limit entries; zero or negative means unbounded.
func NewHistory(limit int) *History {
	return &History{cap: limit}
}

// Record appends a resolved event name.
func (h *History) Record(name string) {
	h.names = append(h.names, name)
	if h.cap > 0 && len(h.names) > h.cap {
		h.names = slices.Clone(h.names[len(h.names)-h.cap:])
	}
}

// Names returns a copy of the recorded names, oldest first.
func (h *History) Names() []string {
	return slices.Clone(h.names)
}

// Len returns the number of recorded entries.
func (h *History) Len() int {
	return len(h.names)
}

// Replace swaps the recorded names, for restoring a saved campaign.
func (h *History) Replace(names []string) {
	h.names = nil
	for _, n := range names {
		h.Record(n)
	}
}

// IsEligible reports whether name may be selected given history. Once history
// has as many entries as the catalog has events, every event is eligible again.
func IsEligible(name string, history []string, catalogSize int) bool {
	if len(history) >= catalogSize {
		return true
	}
	return !slices.Contains(history, name)
}
