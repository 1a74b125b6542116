package tables

import (
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JonMunkholm/xltable/internal/core"
)

func init() {
	core.Register(core.Define[Invoice](core.TableInfo{
		Key:   "invoices",
		Group: "Billing",
		Label: "Invoices",
	}))
}

// Invoice is a row of the Invoices table. Invoices are keyed by their
// number, so Save never assigns keys.
type Invoice struct {
	Number    string         `xl:"Invoice,key" json:"number"`
	ContactID int64          `xl:"Contact Id" json:"contactId"`
	Amount    pgtype.Numeric `xl:"Amount" json:"amount"`
	Issued    pgtype.Date    `xl:"Issued" json:"issued"`
	Due       *time.Time     `xl:"Due" json:"due,omitempty"`
	Grade     core.Char      `xl:"#6" json:"grade"`
	Paid      pgtype.Bool    `xl:"Paid" json:"paid"`
	Total     float64        `xl:"Total,readonly" json:"total"`
}

func (Invoice) TableName() string { return "Invoices" }
