package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	logLevel  string
	logFormat string
	noColor   bool

	// logger is built once flags are parsed; runID tags every log line of
	// this invocation.
	logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
	runID  = uuid.NewString()
)

var rootCmd = &cobra.Command{
	Use:   "aos8ctl",
	Short: "Declarative VLAN and VLAN membership management for AOS8 switches",
	Long: `aos8ctl reconciles a desired VLAN configuration against what an AOS8
switch reports and prints (or applies) the ordered commands that get it there.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if noColor {
			color.NoColor = true
		}
		l, err := newLogger(logLevel, logFormat)
		if err != nil {
			return err
		}
		logger = l.With("run_id", runID)
		return nil
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func newLogger(level, format string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("--log-level: %w", err)
	}
	opts := &slog.HandlerOptions{Level: lvl}
	switch strings.ToLower(format) {
	case "text", "":
		return slog.New(slog.NewTextHandler(os.Stderr, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(os.Stderr, opts)), nil
	}
	return nil, fmt.Errorf("--log-format must be text or json, got %q", format)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn or error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Log format: text or json")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
}
