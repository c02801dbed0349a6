package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/perftools/stackcollapse/pkg/must"
)

var eventsCmd = &cobra.Command{
	Use:   "events <session-file>",
	Short: "List the event types present in a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runEvents(cmd, args[0])
	},
}

func init() {
	eventsCmd.Flags().Var(inputFormat, "format", "session format, one of ["+inputFormat.Variants()+"]")
	must.Must(eventsCmd.RegisterFlagCompletionFunc("format", inputFormat.Complete))
	rootCmd.AddCommand(eventsCmd)
}

func runEvents(cmd *cobra.Command, inputPath string) error {
	src, err := openSource(inputPath, inputFormat.String())
	if err != nil {
		return err
	}
	defer func() { _ = src.Close() }()

	// Single-pass sources discover event types while scanning, so
	// the whole session has to be drained first.
	for {
		_, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read sample: %w", err)
		}
	}

	for _, event := range src.Events() {
		fmt.Fprintln(cmd.OutOrStdout(), event)
	}
	return nil
}
