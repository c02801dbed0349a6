package collapse

import "errors"

// IdentityMode controls the process/thread prefix prepended to stack
// keys. Samples with different prefixes never collapse together.
type IdentityMode int

const (
	// IdentityNone collapses samples across all processes and threads.
	IdentityNone IdentityMode = iota
	// IdentityPid prefixes stacks with "comm-pid".
	IdentityPid
	// IdentityTid prefixes stacks with "comm-pid/tid".
	IdentityTid
)

type Options struct {
	// AnnotateKernel appends "_[k]" to kernel-space frames.
	AnnotateKernel bool
	// AnnotateJIT appends "_[j]" to JIT-compiled frames.
	AnnotateJIT bool
	// Addresses renders unresolved frames as "[0x<hex>]" instead of
	// the "unknown" placeholder.
	Addresses bool

	Identity IdentityMode

	// EventFilter restricts aggregation to one event type. When
	// empty, the first event type encountered in the stream is
	// selected.
	EventFilter string
}

var ErrConflictingIdentity = errors.New("pid and tid identity modes are mutually exclusive")
