package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// fileConfig provides defaults for the collapse options. Flags given
// on the command line always win over the file.
type fileConfig struct {
	JIT         *bool   `yaml:"jit"`
	Kernel      *bool   `yaml:"kernel"`
	Pid         *bool   `yaml:"pid"`
	Tid         *bool   `yaml:"tid"`
	Addrs       *bool   `yaml:"addrs"`
	EventFilter *string `yaml:"event_filter"`
}

func applyConfigFile(cmd *cobra.Command, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var conf fileConfig
	if err := yaml.Unmarshal(raw, &conf); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	flags := cmd.Flags()
	apply := func(name string, dst *bool, src *bool) {
		if src != nil && !flags.Changed(name) {
			*dst = *src
		}
	}
	apply("jit", &annotateJIT, conf.JIT)
	apply("kernel", &annotateKernel, conf.Kernel)
	apply("pid", &pidMode, conf.Pid)
	apply("tid", &tidMode, conf.Tid)
	apply("addrs", &showAddresses, conf.Addrs)
	if conf.EventFilter != nil && !flags.Changed("event-filter") {
		eventFilter = *conf.EventFilter
	}

	return nil
}
