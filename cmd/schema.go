package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"aos8ctl/pkg/aos8"
	"aos8ctl/pkg/resource"
)

var schemaState string

// schemaCmd prints the JSON schema a task's config list is validated with.
var schemaCmd = &cobra.Command{
	Use:   "schema [resource]",
	Short: "Print the JSON schema of a resource's config list",
	Long: `schema prints the JSON schema (draft-07) that the config list of a task is
validated against. Without an argument it lists the known resources.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if len(args) == 0 {
			for _, name := range aos8.Names() {
				fmt.Fprintln(out, name)
			}
			return nil
		}
		m, err := aos8.Lookup(args[0])
		if err != nil {
			return err
		}
		st := resource.State(schemaState)
		if !st.Known() {
			return fmt.Errorf("--state: unknown state %q", schemaState)
		}
		data, err := json.MarshalIndent(m.Schema.JSONSchema(st), "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(data))
		return nil
	},
}

func init() {
	schemaCmd.Flags().StringVar(&schemaState, "state", string(resource.Merged), "State the schema applies to (deleted only requires keys)")
	rootCmd.AddCommand(schemaCmd)
}
