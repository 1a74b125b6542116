package xlsx

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/xltable/internal/core"
)

// bounds is a table range in absolute sheet coordinates. Row y1 is the
// header row.
type bounds struct {
	x1, y1, x2, y2 int
}

func (b bounds) width() int { return b.x2 - b.x1 + 1 }

func parseRange(ref string) (bounds, error) {
	from, to, ok := strings.Cut(ref, ":")
	if !ok {
		return bounds{}, fmt.Errorf("invalid table range %q", ref)
	}
	x1, y1, err := excelize.CellNameToCoordinates(from)
	if err != nil {
		return bounds{}, err
	}
	x2, y2, err := excelize.CellNameToCoordinates(to)
	if err != nil {
		return bounds{}, err
	}
	return bounds{x1: x1, y1: y1, x2: x2, y2: y2}, nil
}

func rangeRef(b bounds) (string, error) {
	from, err := excelize.CoordinatesToCellName(b.x1, b.y1)
	if err != nil {
		return "", err
	}
	to, err := excelize.CoordinatesToCellName(b.x2, b.y2)
	if err != nil {
		return "", err
	}
	return from + ":" + to, nil
}

// Table is one Excel table. Its range is re-read on every call so edits
// made through other handles are seen.
type Table struct {
	wb    *Workbook
	sheet string
	name  string
}

func (t *Table) Name() string { return t.name }

func (t *Table) definition() (excelize.Table, bounds, error) {
	tables, err := t.wb.f.GetTables(t.sheet)
	if err != nil {
		return excelize.Table{}, bounds{}, fmt.Errorf("list tables of sheet %s: %w", t.sheet, err)
	}
	for _, def := range tables {
		if def.Name == t.name {
			b, err := parseRange(def.Range)
			if err != nil {
				return excelize.Table{}, bounds{}, fmt.Errorf("table %s: %w", t.name, err)
			}
			return def, b, nil
		}
	}
	return excelize.Table{}, bounds{}, fmt.Errorf("%w: %s in sheet %s", core.ErrMissingTable, t.name, t.sheet)
}

func (t *Table) bounds() (bounds, error) {
	_, b, err := t.definition()
	return b, err
}

// count returns the number of body rows, treating a lone blank row as none.
func (t *Table) count(b bounds) (int, error) {
	n := b.y2 - b.y1
	if n != 1 {
		return n, nil
	}
	blank, err := t.blankRow(b, b.y1+1)
	if err != nil {
		return 0, err
	}
	if blank {
		return 0, nil
	}
	return 1, nil
}

func (t *Table) blankRow(b bounds, row int) (bool, error) {
	for x := b.x1; x <= b.x2; x++ {
		v, err := t.cell(x, row)
		if err != nil {
			return false, err
		}
		if v != nil {
			return false, nil
		}
	}
	return true, nil
}

// cell reads one raw value: nil, string, float64 or bool.
func (t *Table) cell(col, row int) (any, error) {
	ref, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return nil, err
	}
	f := t.wb.f
	val, err := f.GetCellValue(t.sheet, ref, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read %s!%s: %w", t.sheet, ref, err)
	}
	if val == "" {
		return nil, nil
	}
	typ, err := f.GetCellType(t.sheet, ref)
	if err != nil {
		return nil, fmt.Errorf("read type of %s!%s: %w", t.sheet, ref, err)
	}

	switch typ {
	case excelize.CellTypeBool:
		return val == "1" || strings.EqualFold(val, "true"), nil
	case excelize.CellTypeSharedString, excelize.CellTypeInlineString, excelize.CellTypeError:
		return val, nil
	case excelize.CellTypeDate:
		if ts, err := time.Parse(time.RFC3339, val); err == nil {
			return ts, nil
		}
		return val, nil
	}
	if n, err := strconv.ParseFloat(val, 64); err == nil {
		return n, nil
	}
	return val, nil
}

func (t *Table) setCell(col, row int, v any) error {
	ref, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	if err := t.wb.f.SetCellValue(t.sheet, ref, v); err != nil {
		return fmt.Errorf("write %s!%s: %w", t.sheet, ref, err)
	}
	t.wb.markDirty()
	return nil
}

func (t *Table) Columns() ([]string, error) {
	b, err := t.bounds()
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, b.width())
	for x := b.x1; x <= b.x2; x++ {
		v, err := t.cell(x, b.y1)
		if err != nil {
			return nil, err
		}
		out = append(out, fmt.Sprint(nilToEmpty(v)))
	}
	return out, nil
}

func (t *Table) RowCount() (int, error) {
	b, err := t.bounds()
	if err != nil {
		return 0, err
	}
	return t.count(b)
}

func (t *Table) ReadBody() ([][]any, error) {
	b, err := t.bounds()
	if err != nil {
		return nil, err
	}
	n, err := t.count(b)
	if err != nil {
		return nil, err
	}
	out := make([][]any, 0, n)
	for p := 1; p <= n; p++ {
		row, err := t.readRow(b, p)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, nil
}

func (t *Table) readRow(b bounds, position int) ([]any, error) {
	row := make([]any, 0, b.width())
	for x := b.x1; x <= b.x2; x++ {
		v, err := t.cell(x, b.y1+position)
		if err != nil {
			return nil, err
		}
		row = append(row, v)
	}
	return row, nil
}

func (t *Table) ReadRow(position int) ([]any, error) {
	b, err := t.bounds()
	if err != nil {
		return nil, err
	}
	if err := t.checkRow(b, position); err != nil {
		return nil, err
	}
	return t.readRow(b, position)
}

func (t *Table) ReadColumn(column int) ([]any, error) {
	b, err := t.bounds()
	if err != nil {
		return nil, err
	}
	if err := t.checkColumn(b, column); err != nil {
		return nil, err
	}
	n, err := t.count(b)
	if err != nil {
		return nil, err
	}
	out := make([]any, 0, n)
	for p := 1; p <= n; p++ {
		v, err := t.cell(b.x1+column-1, b.y1+p)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (t *Table) WriteCell(position, column int, value any) error {
	b, err := t.bounds()
	if err != nil {
		return err
	}
	if err := t.checkWritable(b, position); err != nil {
		return err
	}
	if err := t.checkColumn(b, column); err != nil {
		return err
	}
	return t.setCell(b.x1+column-1, b.y1+position, value)
}

func (t *Table) AppendRow() (int, error) {
	def, b, err := t.definition()
	if err != nil {
		return 0, err
	}
	n, err := t.count(b)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 1, nil
	}

	below := b.y2 + 1
	blank, err := t.blankRow(b, below)
	if err != nil {
		return 0, err
	}
	if !blank {
		return 0, fmt.Errorf("append to %s: row %d: %w", t.name, below, ErrRowOccupied)
	}
	b.y2 = below
	if err := t.resize(def, b); err != nil {
		return 0, err
	}
	return n + 1, nil
}

// DeleteRow removes a body row by shifting the rows below it up one and
// shrinking the table. Only cells inside the table's columns move. Formulas
// in the body travel with their cells and have their references adjusted;
// formulas outside the table are not rewritten. The last remaining row is
// blanked instead, keeping the placeholder.
func (t *Table) DeleteRow(position int) error {
	def, b, err := t.definition()
	if err != nil {
		return err
	}
	if err := t.checkWritable(b, position); err != nil {
		return err
	}

	formulas, err := t.formulas(b)
	if err != nil {
		return err
	}
	for at := range formulas {
		if err := t.setFormula(at.x, at.y, ""); err != nil {
			return err
		}
	}

	shift := rowShift{sheet: t.sheet, deleted: b.y1 + position, last: b.y2, x1: b.x1, x2: b.x2}
	for y := shift.deleted; y < b.y2; y++ {
		for x := b.x1; x <= b.x2; x++ {
			v, err := t.cell(x, y+1)
			if err != nil {
				return err
			}
			if err := t.setCell(x, y, v); err != nil {
				return err
			}
		}
	}
	for x := b.x1; x <= b.x2; x++ {
		if err := t.setCell(x, b.y2, nil); err != nil {
			return err
		}
	}

	for at, formula := range formulas {
		dest := at.y
		switch {
		case at.y == shift.deleted:
			continue
		case at.y > shift.deleted:
			dest--
		}
		if err := t.setFormula(at.x, dest, shift.apply(formula)); err != nil {
			return err
		}
	}

	if b.y2-b.y1 > 1 {
		b.y2--
		return t.resize(def, b)
	}
	return nil
}

type coord struct{ x, y int }

// formulas collects the formula text of every body cell that has one.
// Shared formulas come back expanded for each cell.
func (t *Table) formulas(b bounds) (map[coord]string, error) {
	out := make(map[coord]string)
	for y := b.y1 + 1; y <= b.y2; y++ {
		for x := b.x1; x <= b.x2; x++ {
			ref, err := excelize.CoordinatesToCellName(x, y)
			if err != nil {
				return nil, err
			}
			formula, err := t.wb.f.GetCellFormula(t.sheet, ref)
			if err != nil {
				return nil, fmt.Errorf("read formula %s!%s: %w", t.sheet, ref, err)
			}
			if formula != "" {
				out[coord{x, y}] = formula
			}
		}
	}
	return out, nil
}

func (t *Table) setFormula(col, row int, formula string) error {
	ref, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	if err := t.wb.f.SetCellFormula(t.sheet, ref, formula); err != nil {
		return fmt.Errorf("write formula %s!%s: %w", t.sheet, ref, err)
	}
	t.wb.markDirty()
	return nil
}

// resize redefines the table over b, keeping its name and style.
func (t *Table) resize(def excelize.Table, b bounds) error {
	ref, err := rangeRef(b)
	if err != nil {
		return err
	}
	f := t.wb.f
	if err := f.DeleteTable(t.name); err != nil {
		return fmt.Errorf("resize %s: %w", t.name, err)
	}
	next := excelize.Table{
		Range:             ref,
		Name:              def.Name,
		StyleName:         def.StyleName,
		ShowColumnStripes: def.ShowColumnStripes,
		ShowFirstColumn:   def.ShowFirstColumn,
		ShowHeaderRow:     def.ShowHeaderRow,
		ShowLastColumn:    def.ShowLastColumn,
		ShowRowStripes:    def.ShowRowStripes,
	}
	if err := f.AddTable(t.sheet, &next); err != nil {
		return fmt.Errorf("resize %s to %s: %w", t.name, ref, err)
	}
	t.wb.markDirty()
	return nil
}

func (t *Table) checkRow(b bounds, position int) error {
	n, err := t.count(b)
	if err != nil {
		return err
	}
	if position < 1 || position > n {
		return fmt.Errorf("%w: position %d of %s (body has %d rows)", core.ErrMissingRow, position, t.name, n)
	}
	return nil
}

// checkWritable is checkRow that also accepts the placeholder row, which
// AppendRow hands out as position 1 while it is still blank.
func (t *Table) checkWritable(b bounds, position int) error {
	if position == 1 && b.y2-b.y1 == 1 {
		return nil
	}
	return t.checkRow(b, position)
}

func (t *Table) checkColumn(b bounds, column int) error {
	if column < 1 || column > b.width() {
		return &core.ColumnError{Table: t.name, Column: fmt.Sprintf("#%d", column)}
	}
	return nil
}

func nilToEmpty(v any) any {
	if v == nil {
		return ""
	}
	return v
}
