package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"aos8ctl/pkg/aos8"
	"aos8ctl/pkg/resource"
	"aos8ctl/pkg/task"
)

// validateCmd checks task files without touching any device.
var validateCmd = &cobra.Command{
	Use:   "validate TASK...",
	Short: "Validate task files",
	Long: `validate checks each task file: its keys, its resource and state, and every
entry of its config list against the resource schema. All problems of a file
are reported together.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		failed := 0
		for _, path := range args {
			if err := validateTask(path); err != nil {
				failed++
				color.New(color.FgRed).Fprintf(out, "❌ %s\n%v\n", path, err)
				continue
			}
			color.New(color.FgGreen).Fprintf(out, "✅ %s\n", path)
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d task file(s) failed validation", failed, len(args))
		}
		return nil
	},
}

func validateTask(path string) error {
	t, err := task.Load(path)
	if err != nil {
		return err
	}
	m, err := aos8.Lookup(t.Resource)
	if err != nil {
		return err
	}
	if err := m.Validate(t.Request()); err != nil {
		return err
	}
	st := t.State
	if st == "" {
		st = resource.Merged
	}
	_, err = m.Schema.Desired(t.Config, st)
	return err
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
