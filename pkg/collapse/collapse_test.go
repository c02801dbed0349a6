package collapse_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/perftools/stackcollapse/pkg/collapse"
	"github.com/perftools/stackcollapse/pkg/collapsed"
	"github.com/perftools/stackcollapse/pkg/sample"
)

func cpuRecord(comm string, pid, tid int, symbols ...string) *sample.Record {
	rec := &sample.Record{
		Event: "cpu-cycles",
		Pid:   pid,
		Tid:   tid,
		Comm:  comm,
	}
	for _, symbol := range symbols {
		rec.Frames = append(rec.Frames, sample.Frame{Symbol: symbol})
	}
	return rec
}

func fold(t *testing.T, opts *collapse.Options, records ...*sample.Record) string {
	t.Helper()
	prof, err := collapse.Run(sample.NewSliceSource(records...), opts, zap.NewNop())
	require.NoError(t, err)
	raw, err := collapsed.Marshal(prof)
	require.NoError(t, err)
	return string(raw)
}

func TestSingleStack(t *testing.T) {
	// Frames are leaf-first, the folded line is root-first.
	got := fold(t, &collapse.Options{}, cpuRecord("app", 10, 10, "main", "foo", "bar"))
	require.Equal(t, "bar;foo;main 1\n", got)
}

func TestCollapsing(t *testing.T) {
	got := fold(t, &collapse.Options{},
		cpuRecord("app", 10, 10, "malloc", "run", "main"),
		cpuRecord("app", 11, 11, "malloc", "run", "main"),
		cpuRecord("app", 10, 10, "free", "run", "main"),
	)
	require.Equal(t, "main;run;free 1\nmain;run;malloc 2\n", got)
}

func TestPidModeSplitsProcesses(t *testing.T) {
	got := fold(t, &collapse.Options{Identity: collapse.IdentityPid},
		cpuRecord("app", 10, 10, "malloc", "main"),
		cpuRecord("app", 11, 11, "malloc", "main"),
	)
	require.Equal(t, "app-10;main;malloc 1\napp-11;main;malloc 1\n", got)
}

func TestTidModeSplitsThreads(t *testing.T) {
	got := fold(t, &collapse.Options{Identity: collapse.IdentityTid},
		cpuRecord("app", 10, 10, "malloc", "main"),
		cpuRecord("app", 10, 11, "malloc", "main"),
		cpuRecord("app", 10, 11, "malloc", "main"),
	)
	require.Equal(t, "app-10/10;main;malloc 1\napp-10/11;main;malloc 2\n", got)
}

func TestKernelAnnotation(t *testing.T) {
	rec := &sample.Record{
		Event: "cpu-cycles",
		Comm:  "app",
		Frames: []sample.Frame{
			{Symbol: "finish_task_switch", Origin: sample.OriginKernel},
			{Symbol: "read"},
		},
	}

	require.Equal(t, "read;finish_task_switch_[k] 1\n",
		fold(t, &collapse.Options{AnnotateKernel: true}, rec))
	require.Equal(t, "read;finish_task_switch 1\n",
		fold(t, &collapse.Options{}, rec))
}

func TestJITAnnotation(t *testing.T) {
	rec := &sample.Record{
		Event: "cpu-cycles",
		Comm:  "app",
		Frames: []sample.Frame{
			{Symbol: "ArrayList.indexOf", Origin: sample.OriginJIT},
			{Symbol: "art_quick_invoke"},
		},
	}

	require.Equal(t, "art_quick_invoke;ArrayList.indexOf_[j] 1\n",
		fold(t, &collapse.Options{AnnotateJIT: true}, rec))

	// JIT annotation must not touch frames of other origins.
	require.Equal(t, "art_quick_invoke;ArrayList.indexOf 1\n",
		fold(t, &collapse.Options{AnnotateKernel: true}, rec))
}

func TestUnresolvedFrames(t *testing.T) {
	rec := &sample.Record{
		Event: "cpu-cycles",
		Comm:  "app",
		Frames: []sample.Frame{
			{Address: 0x7f3a00001234},
			{Symbol: "main"},
		},
	}

	require.Equal(t, "main;unknown 1\n", fold(t, &collapse.Options{}, rec))
	require.Equal(t, "main;[0x7f3a00001234] 1\n",
		fold(t, &collapse.Options{Addresses: true}, rec))
}

func TestEmptyStackIsConserved(t *testing.T) {
	got := fold(t, &collapse.Options{},
		cpuRecord("app", 10, 10, "main"),
		&sample.Record{Event: "cpu-cycles", Comm: "app"},
		&sample.Record{Event: "cpu-cycles", Comm: "app"},
	)
	require.Equal(t, "[unknown] 2\nmain 1\n", got)
}

func TestFirstEventTypeWins(t *testing.T) {
	records := func() []*sample.Record {
		return []*sample.Record{
			{Event: "cpu-cycles", Comm: "app", Frames: []sample.Frame{{Symbol: "cycles_stack"}}},
			{Event: "cpu-clock", Comm: "app", Frames: []sample.Frame{{Symbol: "clock_stack"}}},
			{Event: "cpu-cycles", Comm: "app", Frames: []sample.Frame{{Symbol: "cycles_stack"}}},
		}
	}

	implicit := fold(t, &collapse.Options{}, records()...)
	explicit := fold(t, &collapse.Options{EventFilter: "cpu-cycles"}, records()...)
	require.Equal(t, explicit, implicit)
	require.Equal(t, "cycles_stack 2\n", implicit)
}

func TestEventFilter(t *testing.T) {
	got := fold(t, &collapse.Options{EventFilter: "cpu-clock"},
		&sample.Record{Event: "cpu-cycles", Comm: "app", Frames: []sample.Frame{{Symbol: "cycles_stack"}}},
		&sample.Record{Event: "cpu-clock", Comm: "app", Frames: []sample.Frame{{Symbol: "clock_stack"}}},
	)
	require.Equal(t, "clock_stack 1\n", got)
}

func TestUnknownEventFilterFails(t *testing.T) {
	src := sample.NewSliceSource(
		&sample.Record{Event: "cpu-cycles", Comm: "app", Frames: []sample.Frame{{Symbol: "main"}}},
		&sample.Record{Event: "page-faults", Comm: "app", Frames: []sample.Frame{{Symbol: "main"}}},
	)
	_, err := collapse.Run(src, &collapse.Options{EventFilter: "cpu-clock"}, nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), `"cpu-clock"`)
	require.Contains(t, err.Error(), "cpu-cycles, page-faults")
}

func TestCountConservation(t *testing.T) {
	records := []*sample.Record{
		cpuRecord("app", 1, 1, "a", "main"),
		cpuRecord("app", 1, 2, "b", "main"),
		cpuRecord("app", 2, 2, "a", "main"),
		cpuRecord("app", 1, 1, "a", "main"),
		{Event: "cpu-clock", Comm: "app", Frames: []sample.Frame{{Symbol: "other"}}},
	}

	prof, err := collapse.Run(sample.NewSliceSource(records...), &collapse.Options{}, nil)
	require.NoError(t, err)
	// One record belongs to a different event type.
	require.Equal(t, int64(4), prof.Total())
}

func TestDeterminism(t *testing.T) {
	records := func() []*sample.Record {
		return []*sample.Record{
			cpuRecord("app", 1, 1, "z", "main"),
			cpuRecord("app", 1, 1, "a", "main"),
			cpuRecord("app", 1, 1, "m", "main"),
			cpuRecord("app", 1, 1, "a", "main"),
		}
	}

	first := fold(t, &collapse.Options{}, records()...)
	second := fold(t, &collapse.Options{}, records()...)
	require.Equal(t, first, second)
	require.Equal(t, "main;a 2\nmain;m 1\nmain;z 1\n", first)
}

func TestEmptySession(t *testing.T) {
	prof, err := collapse.Run(sample.NewSliceSource(), &collapse.Options{}, nil)
	require.NoError(t, err)
	require.Empty(t, prof.Samples)
}
