// Package reconcile runs one resource module invocation: it validates the
// request, obtains the observed configuration and produces the ordered
// command list together with the before and after record sets.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"dario.cat/mergo"

	"aos8ctl/pkg/diff"
	"aos8ctl/pkg/errs"
	"aos8ctl/pkg/facts"
	"aos8ctl/pkg/parser"
	"aos8ctl/pkg/render"
	"aos8ctl/pkg/resource"
)

// Module bundles what a resource needs to be reconciled.
type Module struct {
	Schema      *resource.Schema
	Parser      *parser.Parser
	Renderer    *render.Renderer
	ShowCommand string
	// States restricts the supported states. Nil means every state.
	States []resource.State
}

// Name is the resource name.
func (m *Module) Name() string { return m.Schema.Resource }

// Supports reports whether st is implemented by the module.
func (m *Module) Supports(st resource.State) bool {
	if !st.Known() {
		return false
	}
	return m.States == nil || slices.Contains(m.States, st)
}

// Request is one invocation as a caller would write it in a task.
type Request struct {
	State         resource.State   `yaml:"state" json:"state"`
	Config        []map[string]any `yaml:"config" json:"config"`
	RunningConfig string           `yaml:"running_config" json:"running_config"`
}

// ErrNoSource is returned when a state needs live facts and none was given.
var ErrNoSource = errors.New("no fact source configured")

type options struct {
	logger *slog.Logger
	source facts.Source
}

// Option configures Run.
type Option func(*options)

// WithLogger logs the invocation to l.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithSource reads observed configuration from src.
func WithSource(src facts.Source) Option {
	return func(o *options) { o.source = src }
}

// Run validates req, gathers facts when the state needs them and
// reconciles. No command is produced unless the whole request is valid.
func (m *Module) Run(ctx context.Context, req Request, opts ...Option) (Result, error) {
	o := options{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(&o)
	}
	st := req.State
	if st == "" {
		st = resource.Merged
	}
	log := o.logger.With("resource", m.Name(), "state", string(st))

	if err := m.Validate(req); err != nil {
		return Result{}, err
	}
	desired, err := m.Schema.Desired(req.Config, st)
	if err != nil {
		return Result{}, err
	}

	var observed resource.RecordSet
	switch st {
	case resource.Rendered:
		observed = resource.Empty(m.Schema)
	case resource.Parsed:
		observed, err = m.Parser.Parse(req.RunningConfig)
		if err != nil {
			return Result{}, err
		}
	default:
		if o.source == nil {
			return Result{}, fmt.Errorf("%s: state %s: %w", m.Name(), st, ErrNoSource)
		}
		text, err := o.source.Fetch(ctx, m.ShowCommand)
		if err != nil {
			return Result{}, fmt.Errorf("%s: fetching %q: %w", m.Name(), m.ShowCommand, err)
		}
		observed, err = m.Parser.Parse(text)
		if err != nil {
			return Result{}, err
		}
		log.Debug("gathered facts", "records", observed.Len())
	}

	res, err := m.Reconcile(desired, observed, st)
	if err != nil {
		return Result{}, err
	}
	log.Info("reconciled", "changed", res.Changed, "commands", len(res.Commands), "rendered", len(res.Rendered))
	return res, nil
}

// Validate checks that req names a supported state and carries the inputs
// that state needs. It does not look at the config entries themselves.
func (m *Module) Validate(req Request) error {
	st := req.State
	if st == "" {
		st = resource.Merged
	}
	if !m.Supports(st) {
		return errs.Unsupported(m.Name(), string(st))
	}
	var problems []string
	if st.NeedsConfig() && len(req.Config) == 0 {
		problems = append(problems, fmt.Sprintf("config is required when state is %s", st))
	}
	if st == resource.Parsed && req.RunningConfig == "" {
		problems = append(problems, "running_config is required when state is parsed")
	}
	if len(req.Config) > 0 && req.RunningConfig != "" {
		problems = append(problems, "config and running_config are mutually exclusive")
	}
	return errs.Validation(m.Name(), problems)
}

// Reconcile is the pure core: the same inputs always give byte-identical
// commands. Removals come first, then adds and changes in desired order.
func (m *Module) Reconcile(desired, observed resource.RecordSet, st resource.State) (Result, error) {
	res := Result{State: st, Resource: m.Name()}
	switch st {
	case resource.Gathered:
		res.Gathered = observed
		return res, nil
	case resource.Parsed:
		res.Parsed = observed
		return res, nil
	}

	d := diff.Diff(desired, observed, st)
	commands, err := m.commands(desired, d)
	if err != nil {
		return Result{}, err
	}

	if st == resource.Rendered {
		res.Rendered = commands
		return res, nil
	}

	after, err := project(observed, d)
	if err != nil {
		return Result{}, err
	}
	res.Before = observed
	res.After = after
	res.Commands = commands
	res.Changed = len(commands) > 0
	return res, nil
}

func (m *Module) commands(desired resource.RecordSet, d diff.Result) ([]string, error) {
	commands := []string{}
	for _, r := range d.ToRemove {
		cmds, err := m.Renderer.Remove(r)
		if err != nil {
			return nil, err
		}
		commands = append(commands, cmds...)
	}

	adds := make(map[resource.Key]resource.Record, len(d.ToAdd))
	for _, r := range d.ToAdd {
		adds[r.Key()] = r
	}
	changes := make(map[resource.Key]diff.Change, len(d.ToChange))
	for _, c := range d.ToChange {
		changes[c.Desired.Key()] = c
	}
	for _, r := range desired.Records() {
		var cmds []string
		var err error
		if a, ok := adds[r.Key()]; ok {
			cmds, err = m.Renderer.Create(a)
		} else if c, ok := changes[r.Key()]; ok {
			cmds, err = m.Renderer.Change(c.Desired, c.Attrs)
		}
		if err != nil {
			return nil, err
		}
		commands = append(commands, cmds...)
	}
	return commands, nil
}

// project applies d to a copy of observed, giving what a gather would report
// once the commands succeed.
func project(observed resource.RecordSet, d diff.Result) (resource.RecordSet, error) {
	s := observed.Schema()
	fields := map[resource.Key]map[string]any{}
	var order []resource.Key
	for _, r := range observed.Records() {
		fields[r.Key()] = r.Fields()
		order = append(order, r.Key())
	}
	for _, r := range d.ToRemove {
		delete(fields, r.Key())
	}
	for _, r := range d.ToAdd {
		fields[r.Key()] = r.Dense().Fields()
		order = append(order, r.Key())
	}
	for _, c := range d.ToChange {
		dst := fields[c.Desired.Key()]
		src := make(map[string]any, len(c.Attrs))
		for _, a := range c.Attrs {
			src[a], _ = c.Desired.Get(a)
		}
		if err := mergo.Merge(&dst, src, mergo.WithOverride); err != nil {
			return resource.RecordSet{}, fmt.Errorf("%s: projecting %s: %w", s.Resource, c.Desired.Key(), err)
		}
		fields[c.Desired.Key()] = dst
	}

	records := make([]resource.Record, 0, len(fields))
	for _, k := range order {
		f, ok := fields[k]
		if !ok {
			continue
		}
		r, err := s.NewRecord(f)
		if err != nil {
			return resource.RecordSet{}, err
		}
		records = append(records, r)
	}
	rs, err := resource.NewRecordSet(s, records...)
	if err != nil {
		return resource.RecordSet{}, err
	}
	return rs.Sorted(), nil
}
