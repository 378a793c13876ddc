package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/pmezard/go-difflib/difflib"
	"gopkg.in/yaml.v3"

	"aos8ctl/pkg/reconcile"
)

// printBanner prints the one-line summary heading every pass.
func printBanner(out io.Writer, res reconcile.Result) {
	color.New(color.FgHiCyan, color.Bold).Fprintf(out, "🔎 %s (%s) run %s\n", res.Resource, res.State, runID)
}

// printDiff shows the projected change as a unified diff of the before and
// after record sets.
func printDiff(out io.Writer, res reconcile.Result) error {
	text, err := unifiedDiff(res)
	if err != nil {
		return err
	}
	if text == "" {
		return nil
	}
	for _, line := range strings.SplitAfter(text, "\n") {
		switch {
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
			color.New(color.Bold).Fprint(out, line)
		case strings.HasPrefix(line, "+"):
			color.New(color.FgGreen).Fprint(out, line)
		case strings.HasPrefix(line, "-"):
			color.New(color.FgRed).Fprint(out, line)
		case strings.HasPrefix(line, "@@"):
			color.New(color.FgCyan).Fprint(out, line)
		default:
			fmt.Fprint(out, line)
		}
	}
	return nil
}

func unifiedDiff(res reconcile.Result) (string, error) {
	before, err := yaml.Marshal(res.Before)
	if err != nil {
		return "", err
	}
	after, err := yaml.Marshal(res.After)
	if err != nil {
		return "", err
	}
	return difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(before)),
		B:        difflib.SplitLines(string(after)),
		FromFile: res.Resource + " (before)",
		ToFile:   res.Resource + " (after)",
		Context:  3,
	})
}

// printResult writes the result document.
func printResult(out io.Writer, res reconcile.Result, format string) error {
	switch strings.ToLower(format) {
	case "yaml", "yml":
		var b bytes.Buffer
		enc := yaml.NewEncoder(&b)
		enc.SetIndent(2)
		if err := enc.Encode(res); err != nil {
			return err
		}
		if err := enc.Close(); err != nil {
			return err
		}
		_, err := out.Write(b.Bytes())
		return err
	case "json":
		data, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, string(data))
		return err
	}
	return fmt.Errorf("--output must be yaml or json, got %q", format)
}
