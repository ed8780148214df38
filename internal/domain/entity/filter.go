package entity

import (
	"fmt"
	"sort"
	"strings"
)

// Filter is a single column predicate used by metric counters.
// The concrete variants are Equals, In and Range.
type Filter interface {
	// Clause renders the predicate for column with ? placeholders.
	Clause(column string) (string, []interface{})
}

type equalsFilter struct {
	value interface{}
}

// Equals matches column = value
func Equals(value interface{}) Filter {
	return equalsFilter{value: value}
}

func (f equalsFilter) Clause(column string) (string, []interface{}) {
	return column + " = ?", []interface{}{f.value}
}

type inFilter struct {
	values []interface{}
}

// In matches column IN (values...). An empty set matches nothing.
func In(values ...interface{}) Filter {
	return inFilter{values: values}
}

func (f inFilter) Clause(column string) (string, []interface{}) {
	if len(f.values) == 0 {
		return "1 = 0", nil
	}
	return column + " IN ?", []interface{}{f.values}
}

// Range matches Gte <= column < Lt. A nil bound is open.
type Range struct {
	Gte interface{}
	Lt  interface{}
}

func (f Range) Clause(column string) (string, []interface{}) {
	parts := make([]string, 0, 2)
	args := make([]interface{}, 0, 2)
	if f.Gte != nil {
		parts = append(parts, column+" >= ?")
		args = append(args, f.Gte)
	}
	if f.Lt != nil {
		parts = append(parts, column+" < ?")
		args = append(args, f.Lt)
	}
	if len(parts) == 0 {
		return "1 = 1", nil
	}
	return strings.Join(parts, " AND "), args
}

// Filters maps column names to predicates. All predicates must hold.
type Filters map[string]Filter

// Columns returns the filtered columns in sorted order
func (f Filters) Columns() []string {
	cols := make([]string, 0, len(f))
	for col := range f {
		cols = append(cols, col)
	}
	sort.Strings(cols)
	return cols
}

// Validate rejects column names that are not plain identifiers
func (f Filters) Validate() error {
	for col, filter := range f {
		if filter == nil {
			return fmt.Errorf("filter for %q is nil", col)
		}
		if !isIdentifier(col) {
			return fmt.Errorf("invalid filter column %q", col)
		}
	}
	return nil
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}
