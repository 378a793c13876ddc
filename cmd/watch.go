package cmd

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

var (
	watchOpts     runOptions
	watchInterval time.Duration
	watchDetach   bool
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Keep a lab switch converged to a task file",
	Long: `watch runs an initial pass, then reconciles again whenever the task file is
written and on every --interval tick, until interrupted. With --detach it
re-launches itself in the background and returns.`,
	Example: `  aos8ctl watch -c vlans.yaml --lab lab.yaml --interval 1m`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if watchOpts.lab == "" {
			watchOpts.lab = os.Getenv("AOS8CTL_LAB")
		}
		if watchOpts.lab == "" {
			return fmt.Errorf("watch needs a lab switch (--lab or AOS8CTL_LAB)")
		}
		if watchDetach {
			return detachWatch(watchOpts, watchInterval)
		}
		return StartWatchDaemon(watchOpts, watchInterval)
	},
}

// StartWatchDaemon watches the task file, then runs an initial, on-change
// and periodic reconcile pass.
func StartWatchDaemon(opts runOptions, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("--interval must be positive, got %s", interval)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(opts.taskFile)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}

	// initial pass
	watchPass(opts)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	for {
		select {
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) == filepath.Clean(opts.taskFile) &&
				ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				fmt.Printf("📄 %s changed; reconciling…\n", filepath.Base(opts.taskFile))
				watchPass(opts)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher error", "err", err)
		case <-ticker.C:
			fmt.Println("⏱️  Periodic reconcile…")
			watchPass(opts)
		case <-stop:
			fmt.Println("\n🛑 Watch stopped.")
			return nil
		}
	}
}

// watchPass reports a failed pass and keeps the daemon alive.
func watchPass(opts runOptions) {
	if _, err := runTask(context.Background(), os.Stdout, opts); err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		logger.Error("reconcile pass failed", "task", opts.taskFile, "err", err)
	}
}

// detachWatch re-executes the binary through the hidden daemon entry point.
func detachWatch(opts runOptions, interval time.Duration) error {
	self, err := os.Executable()
	if err != nil {
		return err
	}
	args := []string{DaemonArg, "--config", opts.taskFile, "--lab", opts.lab, "--interval", interval.String()}
	if opts.resource != "" {
		args = append(args, "--resource", opts.resource)
	}
	if opts.state != "" {
		args = append(args, "--state", opts.state)
	}
	c := exec.Command(self, args...)
	c.Stdout, c.Stderr = nil, nil
	if err := c.Start(); err != nil {
		return fmt.Errorf("starting watch daemon: %w", err)
	}
	fmt.Printf("🚀 Watch daemon started (pid %d)\n", c.Process.Pid)
	return c.Process.Release()
}

// DaemonArg is the hidden first argument main recognizes.
const DaemonArg = "__watch_daemon"

// RunDaemon is the entry point behind DaemonArg: flags are parsed by hand so
// the daemon never goes through the interactive command tree.
func RunDaemon(args []string) error {
	var opts runOptions
	interval := 30 * time.Second
	for i := 0; i < len(args)-1; i++ {
		switch args[i] {
		case "--config":
			opts.taskFile = args[i+1]
		case "--lab":
			opts.lab = args[i+1]
		case "--resource":
			opts.resource = args[i+1]
		case "--state":
			opts.state = args[i+1]
		case "--interval":
			d, err := time.ParseDuration(args[i+1])
			if err != nil {
				return fmt.Errorf("--interval: %w", err)
			}
			interval = d
		}
	}
	if opts.taskFile == "" || opts.lab == "" {
		return fmt.Errorf("missing --config or --lab for the watch daemon")
	}
	logger = logger.With("run_id", runID)
	return StartWatchDaemon(opts, interval)
}

func init() {
	addRunFlags(watchCmd, &watchOpts, "")
	watchCmd.Flags().DurationVar(&watchInterval, "interval", 30*time.Second, "Time between periodic passes")
	watchCmd.Flags().BoolVar(&watchDetach, "detach", false, "Run in the background")
	watchCmd.MarkFlagRequired("config")
	rootCmd.AddCommand(watchCmd)
}
