// Package xlsx is a workbook backend over .xlsx files. Tables are the
// file's Excel tables (ListObjects); cells are read and written through
// excelize.
//
// A table always has at least one body row in the file. A single body row
// with every cell blank is reported as an empty body, and the first append
// reuses it.
package xlsx

import (
	"errors"
	"fmt"
	"sync"

	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/xltable/internal/core"
)

// ErrRowOccupied is returned by AppendRow when the cells below a table are
// not empty.
var ErrRowOccupied = errors.New("cells below table are not empty")

// Workbook is an open .xlsx file.
type Workbook struct {
	mu    sync.Mutex
	f     *excelize.File
	path  string
	dirty bool
}

// Open opens an existing file.
func Open(path string) (*Workbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", path, err)
	}
	return &Workbook{f: f, path: path}, nil
}

// New returns an empty in-memory workbook with one sheet named "Sheet1".
// Use SaveAs to give it a path.
func New() *Workbook {
	return &Workbook{f: excelize.NewFile()}
}

// File exposes the underlying excelize file.
func (w *Workbook) File() *excelize.File {
	return w.f
}

// Path returns the file path, empty until the workbook is saved.
func (w *Workbook) Path() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.path
}

func (w *Workbook) Sheets() ([]core.Sheet, error) {
	names := w.f.GetSheetList()
	out := make([]core.Sheet, len(names))
	for i, n := range names {
		out[i] = &Sheet{wb: w, name: n}
	}
	return out, nil
}

// AddSheet creates a sheet if it does not exist yet.
func (w *Workbook) AddSheet(name string) error {
	idx, err := w.f.GetSheetIndex(name)
	if err != nil {
		return fmt.Errorf("look up sheet %s: %w", name, err)
	}
	if idx >= 0 {
		return nil
	}
	if _, err := w.f.NewSheet(name); err != nil {
		return fmt.Errorf("create sheet %s: %w", name, err)
	}
	w.markDirty()
	return nil
}

// AddTable writes headers starting at cell and defines a table over them
// with one blank body row.
func (w *Workbook) AddTable(sheet, name, cell string, headers []string) error {
	if len(headers) == 0 {
		return fmt.Errorf("add table %s: no headers", name)
	}
	col, row, err := excelize.CellNameToCoordinates(cell)
	if err != nil {
		return fmt.Errorf("add table %s: %w", name, err)
	}
	for i, h := range headers {
		ref, err := excelize.CoordinatesToCellName(col+i, row)
		if err != nil {
			return fmt.Errorf("add table %s: %w", name, err)
		}
		if err := w.f.SetCellValue(sheet, ref, h); err != nil {
			return fmt.Errorf("add table %s: write header %q: %w", name, h, err)
		}
	}

	ref, err := rangeRef(bounds{x1: col, y1: row, x2: col + len(headers) - 1, y2: row + 1})
	if err != nil {
		return fmt.Errorf("add table %s: %w", name, err)
	}
	if err := w.f.AddTable(sheet, &excelize.Table{
		Range:     ref,
		Name:      name,
		StyleName: "TableStyleMedium2",
	}); err != nil {
		return fmt.Errorf("add table %s: %w", name, err)
	}
	w.markDirty()
	return nil
}

// Save writes the workbook to its path.
func (w *Workbook) Save() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.path == "" {
		return errors.New("save workbook: no path, use SaveAs")
	}
	if err := w.f.SaveAs(w.path); err != nil {
		return fmt.Errorf("save workbook %s: %w", w.path, err)
	}
	w.dirty = false
	return nil
}

// SaveAs writes the workbook to path and remembers it.
func (w *Workbook) SaveAs(path string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook %s: %w", path, err)
	}
	w.path = path
	w.dirty = false
	return nil
}

// Flush saves the workbook if it changed since the last save and has a path.
func (w *Workbook) Flush() error {
	w.mu.Lock()
	dirty, path := w.dirty, w.path
	w.mu.Unlock()
	if !dirty || path == "" {
		return nil
	}
	return w.Save()
}

// Dirty reports unsaved changes.
func (w *Workbook) Dirty() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.dirty
}

// Close releases the file's resources without saving.
func (w *Workbook) Close() error {
	return w.f.Close()
}

func (w *Workbook) markDirty() {
	w.mu.Lock()
	w.dirty = true
	w.mu.Unlock()
}

// Sheet is one worksheet.
type Sheet struct {
	wb   *Workbook
	name string
}

func (s *Sheet) Name() string { return s.name }

func (s *Sheet) Tables() ([]core.Table, error) {
	tables, err := s.wb.f.GetTables(s.name)
	if err != nil {
		return nil, fmt.Errorf("list tables of sheet %s: %w", s.name, err)
	}
	out := make([]core.Table, len(tables))
	for i, t := range tables {
		out[i] = &Table{wb: s.wb, sheet: s.name, name: t.Name}
	}
	return out, nil
}
