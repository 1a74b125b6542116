package core

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
)

// FindTable returns the first table named name across all sheets.
func FindTable(c Container, name string) (Table, error) {
	sheets, err := c.Sheets()
	if err != nil {
		return nil, fmt.Errorf("list sheets: %w", err)
	}
	for _, s := range sheets {
		t, err := findInSheet(s, name)
		if err == nil {
			return t, nil
		}
		if !errors.Is(err, ErrMissingTable) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrMissingTable, name)
}

func findInSheet(s Sheet, name string) (Table, error) {
	tables, err := s.Tables()
	if err != nil {
		return nil, fmt.Errorf("list tables of sheet %s: %w", s.Name(), err)
	}
	for _, t := range tables {
		if sameName(t.Name(), name) {
			return t, nil
		}
	}
	return nil, fmt.Errorf("%w: %s in sheet %s", ErrMissingTable, name, s.Name())
}

// resolve maps the declared columns of model type spec onto the live table.
func resolve(spec *modelSpec, table Table) (*TableMetadata, error) {
	headers, err := table.Columns()
	if err != nil {
		return nil, fmt.Errorf("read headers of %s: %w", table.Name(), err)
	}

	meta := &TableMetadata{
		TableName: table.Name(),
		Columns:   make(map[string]ColumnDescriptor, len(spec.fields)),
	}
	taken := make(map[int]string, len(spec.fields))

	for _, f := range spec.fields {
		pos := f.position
		if f.name != "" {
			pos = headerPosition(headers, f.name)
			if pos == NotFound {
				return nil, &ColumnError{Table: meta.TableName, Column: f.name}
			}
		} else if pos > len(headers) {
			return nil, &ColumnError{Table: meta.TableName, Column: fmt.Sprintf("#%d", pos)}
		}

		if other, dup := taken[pos]; dup {
			return nil, fmt.Errorf("%w: %s and %s both map to column %d of %s",
				ErrConfiguration, other, f.property, pos, meta.TableName)
		}
		taken[pos] = f.property

		meta.Columns[f.property] = ColumnDescriptor{
			Property: f.property,
			Name:     headers[pos-1],
			Position: pos,
			ReadOnly: f.readOnly,
			IsKey:    f.key,
			Type:     f.typ,
			index:    f.index,
		}
		meta.order = append(meta.order, f.property)
		if f.key && meta.KeyProperty == "" {
			meta.KeyProperty = f.property
		}
	}

	// Without an explicit key the first table column identifies rows.
	if meta.KeyProperty == "" {
		if p, ok := taken[1]; ok {
			meta.KeyProperty = p
			c := meta.Columns[p]
			c.IsKey = true
			meta.Columns[p] = c
		}
	}
	return meta, nil
}

// headerPosition returns the 1-based position of name among headers, trying
// an exact match before a case-folded one.
func headerPosition(headers []string, name string) int {
	for i, h := range headers {
		if h == name {
			return i + 1
		}
	}
	for i, h := range headers {
		if sameName(h, name) {
			return i + 1
		}
	}
	return NotFound
}

// sameName compares workbook identifiers the way the host does, ignoring
// case and surrounding blanks.
func sameName(a, b string) bool {
	fold := cases.Fold()
	return fold.String(strings.TrimSpace(a)) == fold.String(strings.TrimSpace(b))
}
