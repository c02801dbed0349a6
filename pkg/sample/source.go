package sample

import "io"

// Source yields decoded samples from a profiling session in capture
// order. Sources are single-pass and must be closed to release the
// underlying session resources.
type Source interface {
	// Next returns the next sample, or io.EOF after the last one.
	Next() (*Record, error)

	// Events lists the distinct event types seen so far, in
	// first-seen order. After Next has returned io.EOF it covers the
	// whole session.
	Events() []string

	Close() error
}

// SliceSource adapts an in-memory record slice to the Source
// interface.
type SliceSource struct {
	records []*Record
	pos     int
	events  []string
	seen    map[string]struct{}
}

func NewSliceSource(records ...*Record) *SliceSource {
	return &SliceSource{
		records: records,
		seen:    make(map[string]struct{}),
	}
}

func (s *SliceSource) Next() (*Record, error) {
	if s.pos >= len(s.records) {
		return nil, io.EOF
	}
	rec := s.records[s.pos]
	s.pos++
	if _, ok := s.seen[rec.Event]; !ok {
		s.seen[rec.Event] = struct{}{}
		s.events = append(s.events, rec.Event)
	}
	return rec, nil
}

func (s *SliceSource) Events() []string {
	return s.events
}

func (s *SliceSource) Close() error {
	return nil
}

var _ Source = (*SliceSource)(nil)
