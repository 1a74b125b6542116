// Package core maps typed Go models onto rows of named workbook tables.
//
// The package has no knowledge of any particular workbook format. Backends
// implement [Container], [Sheet], [Table] and [Host]; this package turns
// their raw cells into models and back.
//
// # Declaring a model
//
// A model is a struct with a TableName method and xl tags:
//
//	type Contact struct {
//	    ID    int     `xl:"Id,key"`
//	    Name  string  `xl:"Name"`
//	    Phone *string `xl:"Phone"`
//	    Total float64 `xl:"Total,readonly"`
//	    Code  Char    `xl:"#5"`
//	}
//
//	func (Contact) TableName() string { return "Contacts" }
//
// Columns are matched by header name (exact first, then case-folded) or by
// 1-based position. Without an explicit key the column at position 1 is the
// key. Declarations are parsed once per type and cached.
//
// # Operations
//
// [Open] binds a model type to its table and returns a [TableContext]:
//
//	tc, err := core.Open[Contact](workbook, host)
//	c, err := tc.GetByID(ctx, 7)      // nil when no row matches
//	err = tc.Save(ctx, &Contact{Name: "Ada"}) // assigns ID = max+1
//
// Save and Delete first switch the host to non-interactive mode, retrying
// with capped exponential backoff per the [InteractionPolicy], and always
// switch it back. A failed Save leaves the table as it was.
//
// # Coercion
//
// Raw cells are string, float64, bool, time.Time or nil. Pointers and the
// nullable pgtype wrappers (Text, Int4, Int8, Float8, Bool, Date, Timestamp,
// Numeric) read empty cells as absent. Dates never fail: unreadable values
// become [MinDate].
//
// # Error Handling
//
// All errors wrap one of the package sentinels, so callers branch with
// errors.Is. [MapError] turns them into user messages with support codes.
package core
