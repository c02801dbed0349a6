package cmd

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"

	"github.com/perftools/stackcollapse/internal/cli"
	"github.com/perftools/stackcollapse/pkg/collapse"
	"github.com/perftools/stackcollapse/pkg/collapsed"
	"github.com/perftools/stackcollapse/pkg/must"
	"github.com/perftools/stackcollapse/pkg/sample"
	"github.com/perftools/stackcollapse/pkg/sample/perfscript"
	"github.com/perftools/stackcollapse/pkg/sample/pprofsource"
	"github.com/perftools/stackcollapse/pkg/xpflag"
)

const (
	formatAuto       = "auto"
	formatPerfScript = "perfscript"
	formatPProf      = "pprof"

	outputFolded = "folded"
	outputPProf  = "pprof"
)

var (
	annotateJIT    bool
	annotateKernel bool
	pidMode        bool
	tidMode        bool
	showAddresses  bool
	eventFilter    string

	inputFormat  = xpflag.NewOneOf(formatAuto, formatAuto, formatPerfScript, formatPProf)
	outputFormat = xpflag.NewOneOf(outputFolded, outputFolded, outputPProf)
	outputPath   string
	configPath   string
	logLevel     = "info"

	rootCmd = &cobra.Command{
		Use:           "stackcollapse [flags] <session-file>",
		Short:         "Collapse a profiling session into folded stacks",
		Long:          "Aggregate the call stack samples of a recorded profiling session into the folded stack format consumed by flame graph tooling.",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCollapse(cmd, args[0])
		},
	}
)

func init() {
	flags := rootCmd.Flags()
	flags.BoolVar(&annotateJIT, "jit", false, "annotate JIT-compiled frames with "+`"_[j]"`)
	flags.BoolVar(&annotateKernel, "kernel", false, "annotate kernel frames with "+`"_[k]"`)
	flags.BoolVar(&pidMode, "pid", false, "prefix stacks with comm-pid")
	flags.BoolVar(&tidMode, "tid", false, "prefix stacks with comm-pid/tid")
	flags.BoolVar(&showAddresses, "addrs", false, "render unresolved frames as [0x<addr>] instead of \"unknown\"")
	flags.StringVar(&eventFilter, "event-filter", "", "aggregate only samples of this event type")
	flags.Var(inputFormat, "format", "session format, one of ["+inputFormat.Variants()+"]")
	flags.VarP(outputFormat, "output-format", "f", "output format, one of ["+outputFormat.Variants()+"]")
	flags.StringVarP(&outputPath, "output", "o", "", "write output to this file instead of stdout")
	flags.StringVar(&configPath, "config", "", "path to a YAML file with option defaults")

	rootCmd.MarkFlagsMutuallyExclusive("pid", "tid")
	must.Must(rootCmd.MarkFlagFilename("output"))
	must.Must(rootCmd.MarkFlagFilename("config", "yaml", "yml"))
	must.Must(rootCmd.RegisterFlagCompletionFunc("format", inputFormat.Complete))
	must.Must(rootCmd.RegisterFlagCompletionFunc("output-format", outputFormat.Complete))

	// Validate the level at parse time so a typo fails before the
	// session is opened.
	logLevelFlag := xpflag.NewFunc(func(val string) error {
		if _, err := zapcore.ParseLevel(val); err != nil {
			return fmt.Errorf("invalid log level %q: %w", val, err)
		}
		logLevel = val
		return nil
	})
	rootCmd.PersistentFlags().Var(logLevelFlag, "log-level", "logging level, one of ('debug', 'info', 'warn', 'error')")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %+v\n", err)
		os.Exit(1)
	}
}

func makeOptions(cmd *cobra.Command) (*collapse.Options, error) {
	if configPath != "" {
		if err := applyConfigFile(cmd, configPath); err != nil {
			return nil, err
		}
	}

	opts := &collapse.Options{
		AnnotateKernel: annotateKernel,
		AnnotateJIT:    annotateJIT,
		Addresses:      showAddresses,
		EventFilter:    eventFilter,
	}

	switch {
	case pidMode && tidMode:
		// Reachable through the config file only: cobra rejects
		// the flag combination before RunE.
		return nil, collapse.ErrConflictingIdentity
	case pidMode:
		opts.Identity = collapse.IdentityPid
	case tidMode:
		opts.Identity = collapse.IdentityTid
	}

	return opts, nil
}

func runCollapse(cmd *cobra.Command, inputPath string) error {
	opts, err := makeOptions(cmd)
	if err != nil {
		return err
	}

	app, err := cli.New(&cli.Config{LogLevel: logLevel})
	if err != nil {
		return err
	}
	defer app.Shutdown()

	src, err := openSource(inputPath, inputFormat.String())
	if err != nil {
		return err
	}
	defer func() { _ = src.Close() }()

	profile, err := collapse.Run(src, opts, app.Logger())
	if err != nil {
		return err
	}

	out, closeOut, err := openOutput(outputPath, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer closeOut()

	switch outputFormat.String() {
	case outputPProf:
		return collapse.ToPProf(profile).Write(out)
	default:
		return collapsed.Encode(profile, out)
	}
}

type sourceReader struct {
	io.Reader
	io.Closer
}

func openSource(path, format string) (sample.Source, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open session: %w", err)
	}

	buffered := bufio.NewReader(file)
	if format == formatAuto {
		format = sniffFormat(buffered)
	}

	switch format {
	case formatPProf:
		// The pprof reader decodes the whole profile eagerly, the
		// file handle is not needed afterwards.
		defer func() { _ = file.Close() }()
		src, err := pprofsource.ParseData(buffered)
		if err != nil {
			return nil, err
		}
		return src, nil
	default:
		return perfscript.NewReader(&sourceReader{buffered, file}), nil
	}
}

// sniffFormat distinguishes pprof protobuf sessions from perf-script
// text: pprof profiles are gzipped or start with binary protobuf tags,
// perf script output is plain ASCII.
func sniffFormat(r *bufio.Reader) string {
	head, _ := r.Peek(16)
	if len(head) >= 2 && head[0] == 0x1f && head[1] == 0x8b {
		return formatPProf
	}
	if bytes.IndexByte(head, 0x00) != -1 {
		return formatPProf
	}
	return formatPerfScript
}

func openOutput(path string, stdout io.Writer) (io.Writer, func(), error) {
	if path == "" {
		return stdout, func() {}, nil
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return file, func() { _ = file.Close() }, nil
}
