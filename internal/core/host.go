package core

// Container exposes the worksheets of a workbook.
type Container interface {
	Sheets() ([]Sheet, error)
}

// Sheet is a named grouping of tables inside a workbook.
type Sheet interface {
	Name() string
	Tables() ([]Table, error)
}

// Table is one live table. Positions are 1-based: body rows count from the
// first row under the header, columns from the table's left edge.
type Table interface {
	Name() string
	// Columns returns the header names in position order.
	Columns() ([]string, error)
	// RowCount returns the number of body rows.
	RowCount() (int, error)
	// ReadBody returns every body row as a rectangular block. Empty when
	// the body is empty.
	ReadBody() ([][]any, error)
	ReadRow(position int) ([]any, error)
	ReadColumn(column int) ([]any, error)
	WriteCell(position, column int, value any) error
	// AppendRow adds an empty row at the bottom of the body and returns its
	// position.
	AppendRow() (int, error)
	DeleteRow(position int) error
}

// Matcher is optionally implemented by tables with a native exact-match
// lookup. Match must return the first matching position or NotFound.
type Matcher interface {
	Match(column int, value any) (int, error)
}

// Host is the application owning the workbook.
type Host interface {
	Interactive() (bool, error)
	SetInteractive(on bool) error
	// Max returns the largest numeric value, ignoring text, booleans and
	// empty cells. Zero when there is none.
	Max(values []any) (float64, error)
}
