// Package perfscript decodes `perf script` style textual session dumps
// into sample records. Each record is an event header line followed by
// indented frame lines and terminated by a blank line:
//
//	java 12688/12697 [002] 6544038.708352: 10309278 cpu-clock:
//	        7f805346e5e8 ArrayList.indexOf (/tmp/perf-12688.map)
//	        ffffffff8104f45a sched_clock ([kernel.kallsyms])
package perfscript

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/perftools/stackcollapse/pkg/sample"
)

var (
	eventLineRegex = regexp.MustCompile(`^(\S.+?)\s+(\d+)/?(\d+)?\s+`)
	eventTypeRegex = regexp.MustCompile(`:\s*(\d+)*\s+(\S+):\s*$`)
	stackLineRegex = regexp.MustCompile(`^\s*([0-9a-fA-F]+)\s+(.+) \((.*)\)$`)
	jitModuleRegex = regexp.MustCompile(`^(/tmp/perf-\d+\.map|\[JIT( app)? cache\].*|.*jit-app-cache.*)$`)

	offCPUEvent = "sched:sched_switch"
)

type Reader struct {
	src     io.ReadCloser
	scanner *bufio.Scanner
	line    int

	events []string
	seen   map[string]struct{}

	// pending holds a half-built record between Next calls.
	pending *sample.Record
}

func NewReader(src io.ReadCloser) *Reader {
	scanner := bufio.NewScanner(src)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &Reader{
		src:     src,
		scanner: scanner,
		seen:    make(map[string]struct{}),
	}
}

func (r *Reader) Next() (*sample.Record, error) {
	for r.scanner.Scan() {
		r.line++
		line := r.scanner.Text()

		if strings.HasPrefix(line, "#") {
			continue
		}

		if strings.TrimSpace(line) == "" {
			if rec := r.pending; rec != nil {
				r.pending = nil
				return rec, nil
			}
			continue
		}

		if strings.HasPrefix(line, " ") || strings.HasPrefix(line, "\t") {
			if r.pending == nil {
				return nil, fmt.Errorf("perfscript: frame line outside of sample at line %d", r.line)
			}
			frame, err := parseFrame(line)
			if err != nil {
				return nil, fmt.Errorf("perfscript: %w at line %d", err, r.line)
			}
			r.pending.Frames = append(r.pending.Frames, *frame)
			continue
		}

		// A new header line flushes the record in flight, if any.
		flushed := r.pending
		rec, err := r.parseHeader(line)
		if err != nil {
			return nil, fmt.Errorf("perfscript: %w at line %d", err, r.line)
		}
		r.pending = rec
		if flushed != nil {
			return flushed, nil
		}
	}

	if err := r.scanner.Err(); err != nil {
		return nil, fmt.Errorf("perfscript: %w", err)
	}
	if rec := r.pending; rec != nil {
		r.pending = nil
		return rec, nil
	}
	return nil, io.EOF
}

func (r *Reader) Events() []string {
	return r.events
}

func (r *Reader) Close() error {
	return r.src.Close()
}

func (r *Reader) parseHeader(line string) (*sample.Record, error) {
	m := eventLineRegex.FindStringSubmatch(line)
	if m == nil {
		return nil, fmt.Errorf("malformed event header %q", line)
	}

	rec := &sample.Record{Comm: m[1]}
	if m[3] != "" {
		rec.Pid, _ = strconv.Atoi(m[2])
		rec.Tid, _ = strconv.Atoi(m[3])
	} else {
		// Without an explicit pid/tid pair perf prints the tid only.
		rec.Tid, _ = strconv.Atoi(m[2])
		rec.Pid = rec.Tid
	}

	em := eventTypeRegex.FindStringSubmatch(line)
	if em == nil {
		return nil, fmt.Errorf("missing event type in header %q", line)
	}
	rec.Event = em[2]
	rec.OffCPU = rec.Event == offCPUEvent

	if _, ok := r.seen[rec.Event]; !ok {
		r.seen[rec.Event] = struct{}{}
		r.events = append(r.events, rec.Event)
	}

	return rec, nil
}

func parseFrame(line string) (*sample.Frame, error) {
	m := stackLineRegex.FindStringSubmatch(line)
	if m == nil {
		return nil, fmt.Errorf("malformed frame %q", line)
	}

	frame := &sample.Frame{
		Symbol: stripOffset(m[2]),
		Origin: classifyModule(m[3]),
	}

	if frame.Symbol == "[unknown]" || frame.Symbol == "unknown" {
		frame.Symbol = ""
		addr, err := strconv.ParseUint(m[1], 16, 64)
		if err != nil {
			return nil, fmt.Errorf("malformed frame address %q", m[1])
		}
		frame.Address = addr
	}

	return frame, nil
}

// stripOffset drops the "+0x1a" suffix perf appends to symbol names.
func stripOffset(symbol string) string {
	if idx := strings.LastIndex(symbol, "+0x"); idx > 0 {
		return symbol[:idx]
	}
	return symbol
}

func classifyModule(module string) sample.FrameOrigin {
	switch {
	case strings.HasPrefix(module, "[kernel"),
		module == "[vmlinux]",
		strings.HasSuffix(module, ".ko"):
		return sample.OriginKernel
	case jitModuleRegex.MatchString(module):
		return sample.OriginJIT
	default:
		return sample.OriginNative
	}
}

var _ sample.Source = (*Reader)(nil)
