package core

import (
	"errors"
	"fmt"
	"reflect"
)

// modelFromRow builds a T from a raw row. Columns missing from the row read
// as empty cells.
func modelFromRow[T any](meta *TableMetadata, row Row) (*T, error) {
	model := new(T)
	if err := fillModel(meta, reflect.ValueOf(model).Elem(), row); err != nil {
		return nil, err
	}
	return model, nil
}

func fillModel(meta *TableMetadata, v reflect.Value, row Row) error {
	for _, p := range meta.order {
		col := meta.Columns[p]
		raw := row[col.Position]
		typed, err := ToTyped(col.Type, raw)
		if err != nil {
			return columnErr(col, raw, err)
		}
		v.FieldByIndex(col.index).Set(typed)
	}
	return nil
}

// rowFromModel stages the raw values Save writes: every mapped column that
// is not read-only.
func rowFromModel(meta *TableMetadata, v reflect.Value) Row {
	row := make(Row, len(meta.order))
	for _, p := range meta.order {
		col := meta.Columns[p]
		if col.ReadOnly {
			continue
		}
		row[col.Position] = ToRaw(v.FieldByIndex(col.index))
	}
	return row
}

// columnErr attaches the column name and raw value to a coercion failure.
func columnErr(col ColumnDescriptor, raw any, err error) error {
	var ce *ConversionError
	if errors.As(err, &ce) {
		tagged := *ce
		tagged.Column = col.Name
		return &tagged
	}
	return fmt.Errorf("column %q value %v: %w", col.Name, raw, err)
}
