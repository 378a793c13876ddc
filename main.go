package main

import (
	"fmt"
	"os"

	"aos8ctl/cmd"
)

func main() {
	// Background watch entry point, NOT a user CLI command
	if len(os.Args) > 1 && os.Args[1] == cmd.DaemonArg {
		if err := cmd.RunDaemon(os.Args[2:]); err != nil {
			fmt.Fprintln(os.Stderr, "❌", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	// Normal CLI mode
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "\n❌", err)
		os.Exit(1)
	}
}
