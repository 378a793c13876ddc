// Package task loads task files: one resource invocation written the way an
// automation task body would carry it.
package task

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"aos8ctl/pkg/errs"
	"aos8ctl/pkg/reconcile"
	"aos8ctl/pkg/resource"
)

// FlashSynchro saves the running configuration and synchronizes it to the
// secondary CMM.
const FlashSynchro = "write memory flash-synchro"

// Task is the content of a task file.
type Task struct {
	Resource      string           `yaml:"resource"`
	State         resource.State   `yaml:"state"`
	Config        []map[string]any `yaml:"config"`
	RunningConfig string           `yaml:"running_config"`
	FlashSynchro  bool             `yaml:"flash_synchro"`
}

// Load reads and checks a task file.
func Load(path string) (Task, error) {
	f, err := os.Open(path)
	if err != nil {
		return Task{}, err
	}
	defer f.Close()
	t, err := Decode(f)
	if err != nil {
		return Task{}, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// Decode reads one task document. Unknown top-level keys are rejected.
func Decode(r io.Reader) (Task, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Task{}, err
	}
	var t Task
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&t); err != nil && !errors.Is(err, io.EOF) {
		return Task{}, fmt.Errorf("decoding task: %w", err)
	}
	if err := t.Validate(); err != nil {
		return Task{}, err
	}
	return t, nil
}

// Validate checks what can be checked without a resource module.
func (t Task) Validate() error {
	var problems []string
	if t.Resource == "" {
		problems = append(problems, "resource is required")
	}
	if t.State != "" && !t.State.Known() {
		names := make([]string, 0, len(resource.States))
		for _, s := range resource.States {
			names = append(names, string(s))
		}
		problems = append(problems, fmt.Sprintf("state must be one of %s, got %q", strings.Join(names, ","), t.State))
	}
	if t.FlashSynchro && t.State != "" && !t.State.Mutating() {
		problems = append(problems, fmt.Sprintf("flash_synchro has no effect when state is %s", t.State))
	}
	return errs.Validation("task", problems)
}

// Request is the invocation the task describes.
func (t Task) Request() reconcile.Request {
	return reconcile.Request{State: t.State, Config: t.Config, RunningConfig: t.RunningConfig}
}

// SinkCommands is what goes to the device for a result: its commands,
// followed by a flash-synchro save when asked for and something changed.
func (t Task) SinkCommands(res reconcile.Result) []string {
	if !res.Changed {
		return nil
	}
	out := append([]string{}, res.Commands...)
	if t.FlashSynchro {
		out = append(out, FlashSynchro)
	}
	return out
}
