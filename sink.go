package rulepack

import (
	"sort"
	"sync"
)

// Sink accumulates diagnostics. It is safe for concurrent use.
type Sink struct {
	mu    sync.Mutex
	diags []Diagnostic
	seen  map[sinkKey]struct{}
}

type sinkKey struct {
	ruleID string
	file   string
	start  int
	end    int
}

// NewSink returns an empty sink.
func NewSink() *Sink {
	return &Sink{seen: make(map[sinkKey]struct{})}
}

// Report appends d unless the same rule already reported the same
// location. Reports whether d was kept.
func (s *Sink) Report(d Diagnostic) bool {
	key := sinkKey{
		ruleID: d.RuleID,
		file:   d.Location.File,
		start:  d.Location.Start,
		end:    d.Location.End,
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.seen[key]; ok {
		return false
	}
	s.seen[key] = struct{}{}
	s.diags = append(s.diags, d)
	return true
}

// Len returns the number of distinct diagnostics reported so far.
func (s *Sink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.diags)
}

// Snapshot returns a sorted copy of the collected diagnostics.
// The order does not depend on the order of Report calls.
func (s *Sink) Snapshot() []Diagnostic {
	s.mu.Lock()
	out := make([]Diagnostic, len(s.diags))
	copy(out, s.diags)
	s.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool {
		return lessDiagnostic(out[i], out[j])
	})
	return out
}
