package core

import (
	"fmt"
	"reflect"
	"sort"
	"time"
)

// NotFound is the row position reported when a lookup has no match.
const NotFound = 0

// MinDate is the value assigned to date properties whose cell cannot be
// read as a date. Equal to the zero time.
var MinDate = time.Time{}

// Char is a single-character column value.
type Char rune

// TableNamer is implemented by every model type. The returned name selects
// the table inside the workbook.
type TableNamer interface {
	TableName() string
}

// Row maps 1-based column positions to raw cell values.
// Raw values are string, a numeric kind, bool, time.Time or nil (empty cell).
type Row map[int]any

// Positions returns the row's column positions in ascending order.
func (r Row) Positions() []int {
	out := make([]int, 0, len(r))
	for p := range r {
		out = append(out, p)
	}
	sort.Ints(out)
	return out
}

// ColumnDescriptor is the resolved, immutable metadata of one mapped column.
type ColumnDescriptor struct {
	Property string       // Go field name
	Name     string       // Column header in the live table
	Position int          // 1-based column position
	ReadOnly bool         // Never written by Save
	IsKey    bool         // Identifies rows for lookup
	Type     reflect.Type // Declared field type

	index []int
}

// TypeName returns a short, human readable name of the declared type.
func (c ColumnDescriptor) TypeName() string {
	if c.Type == nil {
		return ""
	}
	return c.Type.String()
}

// TableMetadata is the column mapping of one model type against one live
// table. Built once per TableContext and never mutated afterward.
type TableMetadata struct {
	TableName   string
	Columns     map[string]ColumnDescriptor // keyed by property name
	KeyProperty string                      // empty when the table has no key

	order []string
}

// Column returns the descriptor mapped to the given property.
func (m *TableMetadata) Column(property string) (ColumnDescriptor, bool) {
	c, ok := m.Columns[property]
	return c, ok
}

// ColumnByName returns the descriptor whose header matches name.
func (m *TableMetadata) ColumnByName(name string) (ColumnDescriptor, bool) {
	for _, p := range m.order {
		if c := m.Columns[p]; sameName(c.Name, name) {
			return c, true
		}
	}
	return ColumnDescriptor{}, false
}

// Key returns the key column descriptor.
func (m *TableMetadata) Key() (ColumnDescriptor, error) {
	if m.KeyProperty == "" {
		return ColumnDescriptor{}, fmt.Errorf("%w on table %s", ErrNoKeyColumn, m.TableName)
	}
	return m.Columns[m.KeyProperty], nil
}

// Ordered returns the descriptors in model declaration order.
func (m *TableMetadata) Ordered() []ColumnDescriptor {
	out := make([]ColumnDescriptor, 0, len(m.order))
	for _, p := range m.order {
		out = append(out, m.Columns[p])
	}
	return out
}

// owns reports whether c was resolved by this metadata.
func (m *TableMetadata) owns(c ColumnDescriptor) bool {
	own, ok := m.Columns[c.Property]
	return ok && own.Position == c.Position && own.Name == c.Name
}
