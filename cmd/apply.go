package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"aos8ctl/pkg/aos8"
	"aos8ctl/pkg/devsim"
	"aos8ctl/pkg/facts"
	"aos8ctl/pkg/reconcile"
	"aos8ctl/pkg/resource"
	"aos8ctl/pkg/sink"
	"aos8ctl/pkg/task"
)

// runOptions is everything one reconcile pass needs besides the task file.
type runOptions struct {
	taskFile      string
	resource      string
	state         string
	runningConfig string
	factsDir      string
	lab           string
	check         bool
	diff          bool
	output        string
}

var applyOpts runOptions

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Reconcile one task file against a switch",
	Long: `apply loads a task file, reads the current configuration from captured
show outputs (--facts), a lab switch (--lab) or a running-config file
(--running-config), and prints the commands that move it to the desired state.
With --lab the commands are applied to the lab switch unless --check is set.`,
	Example: `  aos8ctl apply -c vlans.yaml --lab lab.yaml
  aos8ctl apply -c vlans.yaml --facts captures/ --diff
  aos8ctl apply -c vlans.yaml --state rendered --output json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if applyOpts.lab == "" {
			applyOpts.lab = os.Getenv("AOS8CTL_LAB")
		}
		_, err := runTask(cmd.Context(), cmd.OutOrStdout(), applyOpts)
		return err
	},
}

// runTask performs one reconcile pass and prints its outcome to out.
func runTask(ctx context.Context, out io.Writer, opts runOptions) (reconcile.Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.taskFile == "" {
		return reconcile.Result{}, fmt.Errorf("a task file is required (-c)")
	}
	if opts.factsDir != "" && opts.lab != "" {
		return reconcile.Result{}, fmt.Errorf("--facts and --lab are mutually exclusive")
	}

	t, err := task.Load(opts.taskFile)
	if err != nil {
		return reconcile.Result{}, err
	}
	if opts.resource != "" {
		t.Resource = opts.resource
	}
	if opts.state != "" {
		t.State = resource.State(opts.state)
	}
	if opts.runningConfig != "" {
		data, err := os.ReadFile(opts.runningConfig)
		if err != nil {
			return reconcile.Result{}, err
		}
		t.RunningConfig = string(data)
	}
	if err := t.Validate(); err != nil {
		return reconcile.Result{}, err
	}
	module, err := aos8.Lookup(t.Resource)
	if err != nil {
		return reconcile.Result{}, err
	}

	runOpts := []reconcile.Option{reconcile.WithLogger(logger)}
	var sw *devsim.Switch
	switch {
	case opts.lab != "":
		sw, err = devsim.Load(opts.lab)
		if err != nil {
			return reconcile.Result{}, err
		}
		runOpts = append(runOpts, reconcile.WithSource(sw))
	case opts.factsDir != "":
		runOpts = append(runOpts, reconcile.WithSource(facts.Dir(opts.factsDir)))
	}

	res, err := module.Run(ctx, t.Request(), runOpts...)
	if err != nil {
		return reconcile.Result{}, err
	}
	printBanner(out, res)

	printer := sink.Writer{W: out}
	switch {
	case res.State == resource.Rendered:
		if _, err := printer.Execute(ctx, res.Rendered); err != nil {
			return res, err
		}
	case !res.Changed:
		if res.State.Mutating() {
			color.New(color.FgGreen).Fprintln(out, "✅ Already in the desired state, nothing to do.")
		}
	case sw == nil || opts.check:
		if _, err := printer.Execute(ctx, res.Commands); err != nil {
			return res, err
		}
		if sw != nil {
			color.New(color.FgYellow).Fprintln(out, "💡 Check mode: nothing was sent to the lab switch.")
		}
	default:
		commands := t.SinkCommands(res)
		if _, err := (sink.Tee{printer, sw}).Execute(ctx, commands); err != nil {
			return res, fmt.Errorf("applying to lab %s: %w", opts.lab, err)
		}
		if err := sw.Save(opts.lab); err != nil {
			return res, err
		}
		logger.Info("applied", "resource", res.Resource, "lab", opts.lab, "commands", len(commands))
		color.New(color.FgGreen).Fprintf(out, "✅ Applied %d command(s) to %s\n", len(commands), opts.lab)
	}

	if opts.diff && res.State.Mutating() {
		if err := printDiff(out, res); err != nil {
			return res, err
		}
	}
	if opts.output != "" {
		if err := printResult(out, res, opts.output); err != nil {
			return res, err
		}
	}
	return res, nil
}

func addRunFlags(cmd *cobra.Command, opts *runOptions, output string) {
	cmd.Flags().StringVarP(&opts.taskFile, "config", "c", "", "Task file (YAML)")
	cmd.Flags().StringVar(&opts.resource, "resource", "", "Override the task resource")
	cmd.Flags().StringVar(&opts.state, "state", "", "Override the task state")
	cmd.Flags().StringVar(&opts.lab, "lab", "", "Lab switch state file used as the device (env AOS8CTL_LAB)")
	cmd.Flags().StringVar(&opts.output, "output", output, "Result document format: yaml, json, or empty for none")
	cmd.Flags().BoolVar(&opts.diff, "diff", false, "Show a unified diff of before and after")
}

func init() {
	addRunFlags(applyCmd, &applyOpts, "yaml")
	applyCmd.Flags().StringVar(&applyOpts.runningConfig, "running-config", "", "File holding show output, for state parsed")
	applyCmd.Flags().StringVar(&applyOpts.factsDir, "facts", "", "Directory of captured show outputs (show_vlan.txt, ...)")
	applyCmd.Flags().BoolVar(&applyOpts.check, "check", false, "Print the commands without applying them")
	applyCmd.MarkFlagRequired("config")
	rootCmd.AddCommand(applyCmd)
}
