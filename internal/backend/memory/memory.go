// Package memory is an in-memory workbook. It backs tests and any caller
// that wants table semantics without a file.
package memory

import (
	"fmt"
	"sync"

	"github.com/JonMunkholm/xltable/internal/core"
)

// Workbook holds sheets in insertion order.
type Workbook struct {
	mu     sync.Mutex
	sheets []*Sheet
}

// New returns an empty workbook.
func New() *Workbook {
	return &Workbook{}
}

// AddSheet appends a sheet.
func (w *Workbook) AddSheet(name string) *Sheet {
	w.mu.Lock()
	defer w.mu.Unlock()
	s := &Sheet{name: name}
	w.sheets = append(w.sheets, s)
	return s
}

func (w *Workbook) Sheets() ([]core.Sheet, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]core.Sheet, len(w.sheets))
	for i, s := range w.sheets {
		out[i] = s
	}
	return out, nil
}

// Sheet is a named list of tables.
type Sheet struct {
	mu     sync.Mutex
	name   string
	tables []*Table
}

func (s *Sheet) Name() string { return s.name }

// AddTable appends a table with the given headers and an empty body.
func (s *Sheet) AddTable(name string, headers ...string) *Table {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &Table{name: name, headers: append([]string(nil), headers...)}
	s.tables = append(s.tables, t)
	return t
}

func (s *Sheet) Tables() ([]core.Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Table, len(s.tables))
	for i, t := range s.tables {
		out[i] = t
	}
	return out, nil
}

// Table is a header row plus a rectangular body.
type Table struct {
	mu      sync.Mutex
	name    string
	headers []string
	rows    [][]any

	faults     map[int]error // column -> error returned by WriteCell
	appendErr  error
	writeCount int
}

func (t *Table) Name() string { return t.name }

// Insert appends a row of raw values, padding or truncating to the width.
func (t *Table) Insert(values ...any) *Table {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rows = append(t.rows, t.fit(values))
	return t
}

// Rows returns a copy of the body.
func (t *Table) Rows() [][]any {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.copyBody()
}

// FailWrites makes every WriteCell to column fail with err. A nil err
// clears the fault.
func (t *Table) FailWrites(column int, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.faults == nil {
		t.faults = make(map[int]error)
	}
	if err == nil {
		delete(t.faults, column)
		return
	}
	t.faults[column] = err
}

// FailAppend makes AppendRow fail with err. A nil err clears the fault.
func (t *Table) FailAppend(err error) {
	t.mu.Lock()
	t.appendErr = err
	t.mu.Unlock()
}

// WriteCount returns the number of successful cell writes.
func (t *Table) WriteCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.writeCount
}

func (t *Table) Columns() ([]string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.headers...), nil
}

func (t *Table) RowCount() (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.rows), nil
}

func (t *Table) ReadBody() ([][]any, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.copyBody(), nil
}

func (t *Table) ReadRow(position int) ([]any, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.checkRow(position); err != nil {
		return nil, err
	}
	return append([]any(nil), t.rows[position-1]...), nil
}

func (t *Table) ReadColumn(column int) ([]any, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.checkColumn(column); err != nil {
		return nil, err
	}
	out := make([]any, len(t.rows))
	for i, r := range t.rows {
		out[i] = r[column-1]
	}
	return out, nil
}

func (t *Table) WriteCell(position, column int, value any) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.checkRow(position); err != nil {
		return err
	}
	if err := t.checkColumn(column); err != nil {
		return err
	}
	if err := t.faults[column]; err != nil {
		return err
	}
	t.rows[position-1][column-1] = value
	t.writeCount++
	return nil
}

func (t *Table) AppendRow() (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.appendErr != nil {
		return 0, t.appendErr
	}
	t.rows = append(t.rows, make([]any, len(t.headers)))
	return len(t.rows), nil
}

func (t *Table) DeleteRow(position int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.checkRow(position); err != nil {
		return err
	}
	t.rows = append(t.rows[:position-1], t.rows[position:]...)
	return nil
}

func (t *Table) fit(values []any) []any {
	row := make([]any, len(t.headers))
	copy(row, values)
	return row
}

func (t *Table) copyBody() [][]any {
	out := make([][]any, len(t.rows))
	for i, r := range t.rows {
		out[i] = append([]any(nil), r...)
	}
	return out
}

func (t *Table) checkRow(position int) error {
	if position < 1 || position > len(t.rows) {
		return fmt.Errorf("%w: position %d of %s (body has %d rows)", core.ErrMissingRow, position, t.name, len(t.rows))
	}
	return nil
}

func (t *Table) checkColumn(column int) error {
	if column < 1 || column > len(t.headers) {
		return &core.ColumnError{Table: t.name, Column: fmt.Sprintf("#%d", column)}
	}
	return nil
}
