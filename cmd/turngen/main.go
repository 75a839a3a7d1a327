// Command turngen generates change detectors from directive metadata.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/AnatoleLucet/turn/internal/config"
	"github.com/AnatoleLucet/turn/internal/logging"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

type options struct {
	configPath string
	logLevel   string
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "turngen",
		Short:         "Generate change detectors for directives",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	root.PersistentFlags().StringVar(&opts.configPath, "config", "turngen.toml", "path to the TOML configuration")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override logging.level")

	root.AddCommand(newGenerateCmd(opts), newCheckCmd(opts))
	return root
}

// load reads the configuration and builds the logger it asks for.
func (o *options) load(cmd *cobra.Command) (config.Config, *log.Logger, error) {
	cfg, err := config.Load(o.configPath, config.Default())
	if err != nil {
		return config.Config{}, nil, err
	}
	if o.logLevel != "" {
		cfg.Logging.Level = o.logLevel
	}

	logger, err := logging.New(cmd.ErrOrStderr(), "turngen", cfg.Logging.Level)
	if err != nil {
		return config.Config{}, nil, err
	}

	return cfg, logger, nil
}
