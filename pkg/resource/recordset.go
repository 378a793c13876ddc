package resource

import (
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"aos8ctl/pkg/errs"
)

// RecordSet is an ordered collection of records with unique keys. It is a
// value: nothing mutates it after construction.
type RecordSet struct {
	schema  *Schema
	records []Record
	index   map[Key]int
}

// NewRecordSet keeps records in the given order. Duplicate keys fail with a
// validation error.
func NewRecordSet(s *Schema, records ...Record) (RecordSet, error) {
	rs := RecordSet{schema: s, records: make([]Record, 0, len(records)), index: make(map[Key]int, len(records))}
	var problems []string
	for i, r := range records {
		k := r.Key()
		if j, dup := rs.index[k]; dup {
			problems = append(problems, fmt.Sprintf("config[%d] repeats the key of config[%d] (%s)", i, j, describeKey(r)))
			continue
		}
		rs.index[k] = len(rs.records)
		rs.records = append(rs.records, r)
	}
	if err := errs.Validation(s.Resource, problems); err != nil {
		return RecordSet{}, err
	}
	return rs, nil
}

// Empty returns a set with no records.
func Empty(s *Schema) RecordSet {
	return RecordSet{schema: s, index: map[Key]int{}}
}

func describeKey(r Record) string {
	var parts []string
	for _, a := range r.schema.KeyAttributes() {
		parts = append(parts, fmt.Sprintf("%s=%v", a.Name, r.values[a.Name]))
	}
	return strings.Join(parts, " ")
}

func (rs RecordSet) Schema() *Schema { return rs.schema }

func (rs RecordSet) Len() int { return len(rs.records) }

// Records returns the records in set order.
func (rs RecordSet) Records() []Record {
	return slices.Clone(rs.records)
}

// Get looks a record up by key.
func (rs RecordSet) Get(k Key) (Record, bool) {
	i, ok := rs.index[k]
	if !ok {
		return Record{}, false
	}
	return rs.records[i], true
}

// Has reports whether k is present.
func (rs RecordSet) Has(k Key) bool {
	_, ok := rs.index[k]
	return ok
}

// Sorted returns a copy ordered by key.
func (rs RecordSet) Sorted() RecordSet {
	records := slices.Clone(rs.records)
	slices.SortStableFunc(records, func(a, b Record) int { return CompareKeys(a, b) })
	out := RecordSet{schema: rs.schema, records: records, index: make(map[Key]int, len(records))}
	for i, r := range records {
		out.index[r.Key()] = i
	}
	return out
}

// Equal reports whether both sets hold equal records in the same order.
func (rs RecordSet) Equal(o RecordSet) bool {
	if len(rs.records) != len(o.records) {
		return false
	}
	for i := range rs.records {
		if rs.records[i].Key() != o.records[i].Key() || !rs.records[i].Equal(o.records[i]) {
			return false
		}
	}
	return true
}

func (rs RecordSet) MarshalYAML() (interface{}, error) {
	if rs.records == nil {
		return []Record{}, nil
	}
	return rs.records, nil
}

func (rs RecordSet) MarshalJSON() ([]byte, error) {
	if rs.records == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(rs.records)
}

// CompareKeys orders records by their key attributes in schema order. Int
// attributes compare numerically; strings compare segment by segment on "/"
// so that port 1/1/3 sorts before 1/1/13.
func CompareKeys(a, b Record) int {
	for _, attr := range a.schema.KeyAttributes() {
		av, bv := a.values[attr.Name], b.values[attr.Name]
		var c int
		if attr.Type == Int {
			c = compareInt(av.(int), bv.(int))
		} else {
			c = compareSegments(fmt.Sprint(av), fmt.Sprint(bv))
		}
		if c != 0 {
			return c
		}
	}
	return 0
}

func compareInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func compareSegments(a, b string) int {
	as, bs := strings.Split(a, "/"), strings.Split(b, "/")
	for i := 0; i < len(as) && i < len(bs); i++ {
		an, aerr := strconv.Atoi(as[i])
		bn, berr := strconv.Atoi(bs[i])
		var c int
		if aerr == nil && berr == nil {
			c = compareInt(an, bn)
		} else {
			c = strings.Compare(as[i], bs[i])
		}
		if c != 0 {
			return c
		}
	}
	return compareInt(len(as), len(bs))
}
