// Package pprofsource decodes pprof protobuf profiles into sample
// records. It is the natural input for sessions converted by
// simpleperf's pprof generator or recorded by pprof-speaking
// profilers.
package pprofsource

import (
	"fmt"
	"io"
	"strings"

	"github.com/google/pprof/profile"

	"github.com/perftools/stackcollapse/pkg/sample"
)

type Reader struct {
	prof *profile.Profile
	// event is the session-wide event name derived from the sample
	// type; per-sample "event" labels override it.
	event string
	pos   int

	events []string
	seen   map[string]struct{}
}

// ParseData decodes a pprof profile from r (raw or gzipped protobuf).
func ParseData(r io.Reader) (*Reader, error) {
	prof, err := profile.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("pprof: failed to parse profile: %w", err)
	}
	return New(prof), nil
}

func New(prof *profile.Profile) *Reader {
	return &Reader{
		prof:  prof,
		event: defaultEvent(prof),
		seen:  make(map[string]struct{}),
	}
}

// defaultEvent names the sample type samples count by: the profile's
// DefaultSampleType if set, the first sample type otherwise.
func defaultEvent(prof *profile.Profile) string {
	if len(prof.SampleType) == 0 {
		return "samples"
	}
	for _, st := range prof.SampleType {
		if st.Type == prof.DefaultSampleType {
			return st.Type
		}
	}
	return prof.SampleType[0].Type
}

func (r *Reader) Next() (*sample.Record, error) {
	if r.pos >= len(r.prof.Sample) {
		return nil, io.EOF
	}
	s := r.prof.Sample[r.pos]
	r.pos++

	rec := &sample.Record{
		Event:  r.event,
		Pid:    int(firstNumLabel(s, "pid")),
		Tid:    int(firstNumLabel(s, "tid")),
		Comm:   firstLabel(s, "comm", "thread", "thread_name"),
		Frames: frames(s),
	}
	if event := firstLabel(s, "event"); event != "" {
		rec.Event = event
	}
	rec.OffCPU = firstLabel(s, "state") == "off-cpu"

	if _, ok := r.seen[rec.Event]; !ok {
		r.seen[rec.Event] = struct{}{}
		r.events = append(r.events, rec.Event)
	}

	return rec, nil
}

func (r *Reader) Events() []string {
	return r.events
}

func (r *Reader) Close() error {
	return nil
}

// frames flattens a pprof location stack into leaf-first frames,
// expanding inlined call chains.
func frames(s *profile.Sample) []sample.Frame {
	res := make([]sample.Frame, 0, len(s.Location))
	for _, loc := range s.Location {
		origin := classifyMapping(loc.Mapping)

		if len(loc.Line) == 0 {
			res = append(res, sample.Frame{
				Address: loc.Address,
				Origin:  origin,
			})
			continue
		}

		// Line[0] is the leaf of the inlined chain.
		for j, line := range loc.Line {
			name := ""
			if line.Function != nil {
				name = line.Function.Name
				if name == "" {
					name = line.Function.SystemName
				}
			}
			if name == "" {
				res = append(res, sample.Frame{
					Address: loc.Address,
					Origin:  origin,
				})
				continue
			}
			if j != 0 {
				name += " (inlined)"
			}
			res = append(res, sample.Frame{
				Symbol: name,
				Origin: origin,
			})
		}
	}
	return res
}

func classifyMapping(m *profile.Mapping) sample.FrameOrigin {
	if m == nil {
		return sample.OriginNative
	}
	file := m.File
	switch {
	case strings.HasPrefix(file, "[kernel"),
		strings.Contains(file, "vmlinux"),
		strings.HasSuffix(file, ".ko"):
		return sample.OriginKernel
	case strings.Contains(file, "jit-app-cache"),
		strings.Contains(file, "perf-") && strings.HasSuffix(file, ".map"),
		strings.HasPrefix(file, "[JIT"):
		return sample.OriginJIT
	default:
		return sample.OriginNative
	}
}

func firstLabel(s *profile.Sample, keys ...string) string {
	for _, key := range keys {
		if vals := s.Label[key]; len(vals) > 0 {
			return vals[0]
		}
	}
	return ""
}

func firstNumLabel(s *profile.Sample, key string) int64 {
	if vals := s.NumLabel[key]; len(vals) > 0 {
		return vals[0]
	}
	return 0
}

var _ sample.Source = (*Reader)(nil)
