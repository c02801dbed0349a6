package collapse

import (
	"fmt"

	"github.com/perftools/stackcollapse/pkg/sample"
)

// stackKey builds the root-first stack of a record, including the
// identity prefix when one is configured. Captured frames are
// leaf-first, so the rendered frames are laid out in reverse.
func stackKey(rec *sample.Record, opts *Options) []string {
	extra := 0
	if opts.Identity != IdentityNone {
		extra = 1
	}

	stack := make([]string, len(rec.Frames)+extra)
	switch opts.Identity {
	case IdentityPid:
		stack[0] = fmt.Sprintf("%s-%d", rec.Comm, rec.Pid)
	case IdentityTid:
		stack[0] = fmt.Sprintf("%s-%d/%d", rec.Comm, rec.Pid, rec.Tid)
	}

	for i := range rec.Frames {
		stack[len(stack)-1-i] = renderFrame(&rec.Frames[i], opts)
	}

	if len(rec.Frames) == 0 {
		stack = append(stack, unknownStack)
	}

	return stack
}
