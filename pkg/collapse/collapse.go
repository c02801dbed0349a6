// Package collapse aggregates decoded profiling samples into a folded
// stack profile: samples sharing one identity prefix and one rendered
// frame sequence merge into a single counted line.
package collapse

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/perftools/stackcollapse/pkg/collapsed"
	"github.com/perftools/stackcollapse/pkg/sample"
)

// Run drains the source and aggregates every sample matching the event
// filter. When no filter is configured, the first event type in stream
// order is selected and samples of other event types are dropped.
//
// The source is consumed in a single forward pass. The returned profile
// is sorted by stack key, so repeated runs over the same session are
// byte-identical after encoding.
func Run(src sample.Source, opts *Options, logger *zap.Logger) (*collapsed.Profile, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	agg := newAggregator()
	event := opts.EventFilter

	var processed, skipped int64
	for {
		rec, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read sample: %w", err)
		}

		if event == "" {
			// The first record fixes the event type for the
			// whole run.
			event = rec.Event
			logger.Info("Selected event type",
				zap.String("event", event),
			)
		}
		if rec.Event != event {
			skipped++
			continue
		}

		agg.record(stackKey(rec, opts))
		processed++
	}

	if opts.EventFilter != "" {
		if err := checkEventPresent(src, opts.EventFilter); err != nil {
			return nil, err
		}
	}

	logger.Debug("Aggregated session",
		zap.String("event", event),
		zap.Int64("samples", processed),
		zap.Int64("skipped", skipped),
		zap.Int("stacks", len(agg.order)),
	)

	return agg.profile(), nil
}

// checkEventPresent validates an explicit event filter against the
// event types actually present in the drained session.
func checkEventPresent(src sample.Source, filter string) error {
	events := src.Events()
	for _, event := range events {
		if event == filter {
			return nil
		}
	}

	sorted := append([]string(nil), events...)
	sort.Strings(sorted)
	return fmt.Errorf("event type %q not found in session, present: [%s]",
		filter, strings.Join(sorted, ", "))
}
