package fixture

import (
	"regexp"
	"strings"
)

// DefaultFunc computes a value for a blank cell. It sees every value that
// was read directly from the row.
type DefaultFunc func(rec Record) string

// Column describes one canonical field of a fixture file.
type Column struct {
	// Name is the canonical field name, also written as the header when a
	// sample file is synthesized.
	Name string

	// Aliases are synonymous header names. Spelling variants that only
	// differ in case or separators need no alias.
	Aliases []string

	// Default fills blank cells. Nil leaves them blank.
	Default DefaultFunc
}

// Schema describes the fixture file of one domain.
type Schema struct {
	Name    string
	Columns []Column

	// Samples are written, in column order, when the file is missing.
	Samples [][]string
}

// Header returns the canonical column names.
func (s Schema) Header() []string {
	h := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		h[i] = c.Name
	}
	return h
}

// column returns the index of the schema column a header cell maps to.
func (s Schema) column(header string) (int, bool) {
	key := NormalizeHeader(header)
	if key == "" {
		return 0, false
	}
	for i, c := range s.Columns {
		if NormalizeHeader(c.Name) == key {
			return i, true
		}
		for _, a := range c.Aliases {
			if NormalizeHeader(a) == key {
				return i, true
			}
		}
	}
	return 0, false
}

// Literal defaults a blank cell to v.
func Literal(v string) DefaultFunc {
	return func(Record) string { return v }
}

// NamePart splits a combined name field on whitespace. Index 0 is the first
// word; any other index returns the remaining words joined.
func NamePart(source string, index int) DefaultFunc {
	return func(rec Record) string {
		parts := strings.Fields(rec.Get(source))
		if len(parts) == 0 {
			return ""
		}
		if index == 0 {
			return parts[0]
		}
		if len(parts) < 2 {
			return ""
		}
		return strings.Join(parts[1:], " ")
	}
}

// Join concatenates the non-blank values of fields with a space.
func Join(fields ...string) DefaultFunc {
	return func(rec Record) string {
		var parts []string
		for _, f := range fields {
			if v := strings.TrimSpace(rec.Get(f)); v != "" {
				parts = append(parts, v)
			}
		}
		return strings.Join(parts, " ")
	}
}

var emailUnsafe = regexp.MustCompile(`[^a-z0-9.]+`)

// EmailFrom derives an address at example.com from the first non-blank of
// fields: "Jane Doe" becomes "jane.doe@example.com".
func EmailFrom(fields ...string) DefaultFunc {
	return func(rec Record) string {
		for _, f := range fields {
			v := strings.TrimSpace(rec.Get(f))
			if v == "" {
				continue
			}
			local := strings.Join(strings.Fields(strings.ToLower(v)), ".")
			local = strings.Trim(emailUnsafe.ReplaceAllString(local, ""), ".")
			if local == "" {
				continue
			}
			return local + "@example.com"
		}
		return ""
	}
}

// Generated defaults a blank cell to a freshly generated value.
func Generated(fn func() string) DefaultFunc {
	return func(Record) string { return fn() }
}
