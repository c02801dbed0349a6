package collapse

import (
	"fmt"

	"github.com/perftools/stackcollapse/pkg/sample"
)

const (
	kernelSuffix = "_[k]"
	jitSuffix    = "_[j]"

	// unknownSymbol stands in for frames symbolization could not
	// resolve, unknownStack for samples with no frames at all.
	unknownSymbol = "unknown"
	unknownStack  = "[unknown]"
)

// renderFrame produces the exact string a frame contributes to the
// folded output. Pure function of the frame and the options.
func renderFrame(f *sample.Frame, opts *Options) string {
	name := f.Symbol
	if !f.Resolved() {
		if opts.Addresses {
			name = fmt.Sprintf("[0x%x]", f.Address)
		} else {
			name = unknownSymbol
		}
	}

	switch f.Origin {
	case sample.OriginKernel:
		if opts.AnnotateKernel {
			name += kernelSuffix
		}
	case sample.OriginJIT:
		if opts.AnnotateJIT {
			name += jitSuffix
		}
	}

	return name
}
