package core

import "fmt"

// FindPosition returns the 1-based position of the first body row whose
// cell in column equals key, or NotFound. A nil key matches nothing, so an
// unset key never selects a row with a blank key cell.
func FindPosition(table Table, column int, key any) (int, error) {
	if key == nil {
		return NotFound, nil
	}
	if m, ok := table.(Matcher); ok {
		return m.Match(column, key)
	}

	values, err := table.ReadColumn(column)
	if err != nil {
		return NotFound, fmt.Errorf("read column %d of %s: %w", column, table.Name(), err)
	}
	for i, v := range values {
		if RawEqual(v, key) {
			return i + 1, nil
		}
	}
	return NotFound, nil
}

// FetchRow reads the row at position. Positions outside the body fail with
// ErrMissingRow.
func FetchRow(table Table, position int) (Row, error) {
	count, err := table.RowCount()
	if err != nil {
		return nil, fmt.Errorf("count rows of %s: %w", table.Name(), err)
	}
	if position < 1 || position > count {
		return nil, fmt.Errorf("%w: position %d of %s (body has %d rows)", ErrMissingRow, position, table.Name(), count)
	}

	values, err := table.ReadRow(position)
	if err != nil {
		return nil, fmt.Errorf("read row %d of %s: %w", position, table.Name(), err)
	}
	return rowOf(values), nil
}

func rowOf(values []any) Row {
	row := make(Row, len(values))
	for i, v := range values {
		row[i+1] = v
	}
	return row
}
