// Package cmd implements the CLI commands for signalgraph.
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/signalgraph/internal/config"
	"github.com/jmylchreest/signalgraph/internal/observability"
	"github.com/jmylchreest/signalgraph/internal/version"
)

var (
	cfgFile   string
	logLevel  string
	logFormat string

	cfg *config.Config
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:     "signalgraph",
	Short:   "Modular media dataflow graph runtime",
	Version: version.Short(),
	Long: `signalgraph runs a graph of dataflow modules connected by typed ports,
rectifies per-stream presentation time against a shared clock, and packages
the result into adaptive-streaming segments and manifests.

It is a demonstration runtime: the bundled modules are synthetic sources
and stand-in muxers/sinks rather than real codecs, built to exercise the
module/port/pipeline machinery end-to-end.`,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("loading configuration: %w", err)
		}
		if logLevel != "" {
			cfg.Logging.Level = strings.ToLower(logLevel)
		}
		if logFormat != "" {
			cfg.Logging.Format = strings.ToLower(logFormat)
		}
		observability.SetDefault(observability.NewLogger(cfg.Logging))
		return nil
	},
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and runs it.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		return fmt.Errorf("executing root command: %w", err)
	}
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default search: ./config.yaml, ./configs, /etc/signalgraph)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level override (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format override (json, text)")
}

// exitErr prints msg to stderr and returns a non-nil error so Execute
// reports failure via its exit code without cobra's usage banner noise.
func exitErr(format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(os.Stderr, msg)
	return fmt.Errorf("%s", msg)
}
