package sample_test

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/perftools/stackcollapse/pkg/sample"
)

func TestSliceSource(t *testing.T) {
	src := sample.NewSliceSource(
		&sample.Record{Event: "cpu-clock", Comm: "a"},
		&sample.Record{Event: "cpu-cycles", Comm: "b"},
		&sample.Record{Event: "cpu-clock", Comm: "c"},
	)

	var comms []string
	for {
		rec, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		comms = append(comms, rec.Comm)
	}

	require.Equal(t, []string{"a", "b", "c"}, comms)
	require.Equal(t, []string{"cpu-clock", "cpu-cycles"}, src.Events())
	require.NoError(t, src.Close())
}

func TestFrameResolved(t *testing.T) {
	resolved := sample.Frame{Symbol: "main"}
	require.True(t, resolved.Resolved())

	unresolved := sample.Frame{Address: 0x1234}
	require.False(t, unresolved.Resolved())
}

func TestOriginString(t *testing.T) {
	require.Equal(t, "native", sample.OriginNative.String())
	require.Equal(t, "kernel", sample.OriginKernel.String())
	require.Equal(t, "jit", sample.OriginJIT.String())
}
