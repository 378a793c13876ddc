// Package sink holds the command sinks a reconciliation hands its commands to.
package sink

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// Sink executes commands in order and returns one raw output per command.
type Sink interface {
	Execute(ctx context.Context, commands []string) ([]string, error)
}

// Writer prints each command instead of sending it anywhere. Removals are
// marked 🗑️, everything else ➕.
type Writer struct {
	W io.Writer
}

var (
	removeColor = color.New(color.FgRed)
	addColor    = color.New(color.FgGreen)
)

func (w Writer) Execute(ctx context.Context, commands []string) ([]string, error) {
	outputs := make([]string, 0, len(commands))
	for _, c := range commands {
		if err := ctx.Err(); err != nil {
			return outputs, err
		}
		var err error
		if strings.HasPrefix(c, "no ") {
			_, err = removeColor.Fprintf(w.W, "🗑️  %s\n", c)
		} else {
			_, err = addColor.Fprintf(w.W, "➕ %s\n", c)
		}
		if err != nil {
			return outputs, fmt.Errorf("writing %q: %w", c, err)
		}
		outputs = append(outputs, "")
	}
	return outputs, nil
}

// Discard accepts every command and does nothing.
type Discard struct{}

func (Discard) Execute(_ context.Context, commands []string) ([]string, error) {
	return make([]string, len(commands)), nil
}

// Tee executes on every sink in turn and returns the outputs of the first.
type Tee []Sink

func (t Tee) Execute(ctx context.Context, commands []string) ([]string, error) {
	var first []string
	for i, s := range t {
		out, err := s.Execute(ctx, commands)
		if err != nil {
			return first, err
		}
		if i == 0 {
			first = out
		}
	}
	return first, nil
}
