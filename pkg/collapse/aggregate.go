package collapse

import (
	"strings"

	"github.com/perftools/stackcollapse/pkg/collapsed"
)

// aggregator counts samples per stack key. Entries are kept in
// first-seen order; the emitted profile is sorted separately.
type aggregator struct {
	counts map[string]int64
	order  []string
	stacks map[string][]string
	total  int64
}

func newAggregator() *aggregator {
	return &aggregator{
		counts: make(map[string]int64),
		stacks: make(map[string][]string),
	}
}

func (a *aggregator) record(stack []string) {
	key := strings.Join(stack, ";")
	if _, ok := a.counts[key]; !ok {
		a.order = append(a.order, key)
		a.stacks[key] = stack
	}
	a.counts[key]++
	a.total++
}

// profile converts the aggregate into a sorted collapsed profile.
func (a *aggregator) profile() *collapsed.Profile {
	res := &collapsed.Profile{
		Samples: make([]collapsed.Sample, 0, len(a.order)),
	}
	for _, key := range a.order {
		res.Samples = append(res.Samples, collapsed.Sample{
			Stack: a.stacks[key],
			Value: a.counts[key],
		})
	}
	res.Sort()
	return res
}
