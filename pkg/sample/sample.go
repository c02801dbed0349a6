// Package sample defines the decoded profiling sample model shared by
// all session readers.
package sample

// FrameOrigin classifies where a call stack frame was executing.
type FrameOrigin int

const (
	OriginNative FrameOrigin = iota
	OriginKernel
	OriginJIT
)

func (o FrameOrigin) String() string {
	switch o {
	case OriginKernel:
		return "kernel"
	case OriginJIT:
		return "jit"
	default:
		return "native"
	}
}

// Frame is a single call stack entry. A frame with an empty Symbol is
// unresolved and carries the raw program counter in Address.
type Frame struct {
	Symbol  string
	Address uint64
	Origin  FrameOrigin
}

// Resolved reports whether symbolization produced a name for the frame.
func (f *Frame) Resolved() bool {
	return f.Symbol != ""
}

// Record is one decoded profiling sample.
type Record struct {
	// Event names the performance counter the sample belongs to,
	// e.g. "cpu-cycles" or "cpu-clock".
	Event string

	Pid  int
	Tid  int
	Comm string

	// Frames is leaf-first: Frames[0] is the innermost call.
	Frames []Frame

	// OffCPU marks synthetic samples accounting blocked time rather
	// than on-CPU execution.
	OffCPU bool
}
