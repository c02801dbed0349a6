package collapse

import (
	"github.com/google/pprof/profile"

	"github.com/perftools/stackcollapse/pkg/collapsed"
)

// ToPProf converts a folded profile into a pprof profile with a single
// "event/count" sample type. Locations are interned per frame name.
func ToPProf(prof *collapsed.Profile) *profile.Profile {
	res := &profile.Profile{
		SampleType: []*profile.ValueType{{
			Type: "event",
			Unit: "count",
		}},
		Sample: make([]*profile.Sample, len(prof.Samples)),
	}

	locations := make(map[string]*profile.Location)
	for i := range prof.Samples {
		res.Sample[i] = &profile.Sample{
			Value: []int64{prof.Samples[i].Value},
		}
		// pprof stacks are leaf-first, folded stacks root-first.
		stack := prof.Samples[i].Stack
		for j := len(stack) - 1; j >= 0; j-- {
			function := stack[j]
			loc, found := locations[function]
			if !found {
				funcPtr := &profile.Function{
					ID:   1 + uint64(len(res.Function)),
					Name: function,
				}
				loc = &profile.Location{
					ID: 1 + uint64(len(res.Location)),
					Line: []profile.Line{{
						Function: funcPtr,
					}},
				}
				res.Function = append(res.Function, funcPtr)
				res.Location = append(res.Location, loc)
				locations[function] = loc
			}
			res.Sample[i].Location = append(res.Sample[i].Location, loc)
		}
	}

	return res
}
