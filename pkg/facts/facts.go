// Package facts provides the sources a reconciliation reads device output
// from. How the text was obtained is not the reconciler's concern.
package facts

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrNoOutput is returned when a source holds nothing for a command.
var ErrNoOutput = errors.New("no captured output")

// Source returns the raw output of a show command.
type Source interface {
	Fetch(ctx context.Context, command string) (string, error)
}

// Static serves canned output keyed by command.
type Static map[string]string

func (s Static) Fetch(_ context.Context, command string) (string, error) {
	out, ok := s[command]
	if !ok {
		return "", fmt.Errorf("%s: %w", command, ErrNoOutput)
	}
	return out, nil
}

// Dir reads captured outputs from a directory, one file per command:
// "show vlan members" is read from show_vlan_members.txt.
type Dir string

// FileName is the file a command's output is captured in.
func FileName(command string) string {
	return strings.Join(strings.Fields(command), "_") + ".txt"
}

func (d Dir) Fetch(ctx context.Context, command string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	path := filepath.Join(string(d), FileName(command))
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("%s: %w (looked for %s)", command, ErrNoOutput, path)
	}
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return string(data), nil
}
