// Package fixture loads tabular test input for scenario runners.
//
// A fixture file is a delimited table (CSV, TSV or an .xlsx workbook) with a
// header row. When the file does not exist the loader writes a small sample
// set first, so a fresh checkout can run every scenario. Column names are
// matched tolerantly and blank cells fall back to per-column defaults.
//
// Loading never fails: an unreadable file yields an empty record sequence,
// which runners treat as "skip the data-dependent step".
package fixture

import (
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
	"golang.org/x/text/unicode/norm"
)

// Record is one row of fixture data: field name to value, in column order.
// Records are read-only once loaded.
type Record struct {
	fields *orderedmap.OrderedMap[string, string]
}

// NewRecord builds a record from alternating name/value pairs. A trailing
// name without a value is ignored.
func NewRecord(pairs ...string) Record {
	r := Record{fields: orderedmap.New[string, string]()}
	for i := 0; i+1 < len(pairs); i += 2 {
		r.fields.Set(pairs[i], pairs[i+1])
	}
	return r
}

// Get returns the value of a field, or "" when the field is absent.
func (r Record) Get(name string) string {
	v, _ := r.Lookup(name)
	return v
}

// Lookup returns the value of a field. Names match exactly first, then by
// normalized form ("first_name" finds "firstName").
func (r Record) Lookup(name string) (string, bool) {
	if r.fields == nil {
		return "", false
	}
	if v, ok := r.fields.Get(name); ok {
		return v, true
	}
	want := NormalizeHeader(name)
	for pair := r.fields.Oldest(); pair != nil; pair = pair.Next() {
		if NormalizeHeader(pair.Key) == want {
			return pair.Value, true
		}
	}
	return "", false
}

// Fields returns the field names in column order.
func (r Record) Fields() []string {
	if r.fields == nil {
		return nil
	}
	names := make([]string, 0, r.fields.Len())
	for pair := r.fields.Oldest(); pair != nil; pair = pair.Next() {
		names = append(names, pair.Key)
	}
	return names
}

// Len returns the number of fields.
func (r Record) Len() int {
	if r.fields == nil {
		return 0
	}
	return r.fields.Len()
}

// Map returns a copy of the record as a plain map.
func (r Record) Map() map[string]string {
	out := make(map[string]string, r.Len())
	for _, name := range r.Fields() {
		out[name] = r.Get(name)
	}
	return out
}

// Label is a short human description of the record for result messages:
// the first non-blank value among the given fields, else the first value.
func (r Record) Label(prefer ...string) string {
	for _, name := range prefer {
		if v := strings.TrimSpace(r.Get(name)); v != "" {
			return v
		}
	}
	for _, name := range r.Fields() {
		if v := strings.TrimSpace(r.Get(name)); v != "" {
			return v
		}
	}
	return "(empty record)"
}

func (r Record) set(name, value string) {
	r.fields.Set(name, value)
}

// NormalizeHeader folds a column name for tolerant matching: Unicode NFKC,
// lower case, separators removed. "First Name", "first_name" and
// "firstName" all become "firstname".
func NormalizeHeader(s string) string {
	s = strings.TrimPrefix(s, "\ufeff")
	s = strings.ToLower(norm.NFKC.String(strings.TrimSpace(s)))
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '_', '-', '.', '\t':
			return -1
		}
		return r
	}, s)
}
