// Package diff compares a desired record set with an observed one.
package diff

import (
	"slices"

	"aos8ctl/pkg/resource"
)

// Change is a key present on both sides whose attributes differ.
type Change struct {
	// Desired is the record the attributes are taken from: sparse for merged,
	// dense (defaults filled) for replaced and overridden.
	Desired  resource.Record
	Observed resource.Record
	// Attrs lists the differing attributes in schema order.
	Attrs []string
}

// Result groups the per-key outcome of a comparison.
type Result struct {
	ToAdd    []resource.Record
	ToRemove []resource.Record
	ToChange []Change
}

// Empty reports whether nothing needs to happen.
func (r Result) Empty() bool {
	return len(r.ToAdd) == 0 && len(r.ToRemove) == 0 && len(r.ToChange) == 0
}

// Diff computes what moves observed to desired under st. Adds and changes
// follow desired order. Removals of keys absent from desired follow key
// order; removals named by a deleted config follow desired order.
func Diff(desired, observed resource.RecordSet, st resource.State) Result {
	var res Result

	switch st {
	case resource.Deleted:
		if desired.Len() == 0 {
			res.ToRemove = observed.Sorted().Records()
			return res
		}
		for _, d := range desired.Records() {
			if o, ok := observed.Get(d.Key()); ok {
				res.ToRemove = append(res.ToRemove, o)
			}
		}
		return res
	case resource.Rendered:
		res.ToAdd = desired.Records()
		return res
	case resource.Gathered, resource.Parsed:
		return res
	}

	if st == resource.Overridden {
		for _, o := range observed.Sorted().Records() {
			if !desired.Has(o.Key()) {
				res.ToRemove = append(res.ToRemove, o)
			}
		}
	}

	for _, d := range desired.Records() {
		o, ok := observed.Get(d.Key())
		if !ok {
			res.ToAdd = append(res.ToAdd, d)
			continue
		}
		if st == resource.Replaced || st == resource.Overridden {
			d = d.Dense()
		}
		if attrs := Attrs(d, o); len(attrs) > 0 {
			res.ToChange = append(res.ToChange, Change{Desired: d, Observed: o, Attrs: attrs})
		}
	}
	return res
}

// Attrs returns, in schema order, the non-key attributes populated in
// desired whose value differs from observed. An attribute absent from
// desired is never a difference.
func Attrs(desired, observed resource.Record) []string {
	var out []string
	for _, a := range desired.Schema().ValueAttributes() {
		dv, ok := desired.Get(a.Name)
		if !ok {
			continue
		}
		if ov, ok := observed.Get(a.Name); ok && ov == dv {
			continue
		}
		out = append(out, a.Name)
	}
	return out
}

// Keys lists the keys of records, handy for logging and tests.
func Keys(records []resource.Record) []resource.Key {
	out := make([]resource.Key, 0, len(records))
	for _, r := range records {
		out = append(out, r.Key())
	}
	return slices.Clip(out)
}
