package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"aos8ctl/pkg/aos8"
	"aos8ctl/pkg/devsim"
)

var (
	labForce    bool
	labResource string
)

var labCmd = &cobra.Command{
	Use:   "lab",
	Short: "Manage lab switch state files",
	Long: `A lab switch is an in-memory AOS8 VLAN table persisted as YAML. apply and
watch use it as the device when --lab is given.`,
}

var labInitCmd = &cobra.Command{
	Use:   "init FILE",
	Short: "Create a lab switch in factory state (VLAN 1 only)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		if _, err := os.Stat(path); err == nil && !labForce {
			return fmt.Errorf("%s already exists (use --force to reset it)", path)
		} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		if err := devsim.New().Save(path); err != nil {
			return err
		}
		color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "✅ Lab switch written to %s\n", path)
		return nil
	},
}

var labShowCmd = &cobra.Command{
	Use:   "show FILE",
	Short: "Print the show output of a lab switch",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sw, err := devsim.Load(args[0])
		if err != nil {
			return err
		}
		names := aos8.Names()
		if labResource != "" {
			names = []string{labResource}
		}
		out := cmd.OutOrStdout()
		for _, name := range names {
			m, err := aos8.Lookup(name)
			if err != nil {
				return err
			}
			text, err := sw.Fetch(cmd.Context(), m.ShowCommand)
			if err != nil {
				return err
			}
			color.New(color.FgHiCyan, color.Bold).Fprintf(out, "-> %s\n", m.ShowCommand)
			fmt.Fprintln(out, text)
		}
		return nil
	},
}

func init() {
	labInitCmd.Flags().BoolVar(&labForce, "force", false, "Overwrite an existing file")
	labShowCmd.Flags().StringVar(&labResource, "resource", "", "Only show the output backing this resource")
	labCmd.AddCommand(labInitCmd, labShowCmd)
	rootCmd.AddCommand(labCmd)
}
