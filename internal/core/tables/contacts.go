package tables

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JonMunkholm/xltable/internal/core"
)

func init() {
	core.Register(core.Define[Contact](core.TableInfo{
		Key:   "contacts",
		Group: "CRM",
		Label: "Contacts",
	}))
}

// Contact is a row of the Contacts table.
type Contact struct {
	ID       int         `xl:"Id,key" json:"id"`
	Name     string      `xl:"Name" json:"name"`
	Email    string      `xl:"Email" json:"email"`
	Phone    *string     `xl:"Phone" json:"phone,omitempty"`
	State    string      `xl:"State" json:"state"`
	Since    time.Time   `xl:"Customer Since" json:"since"`
	Active   bool        `xl:"Active" json:"active"`
	Orders   pgtype.Int4 `xl:"Orders,readonly" json:"orders"`
	Internal string      `xl:"-" json:"-"`
}

func (Contact) TableName() string { return "Contacts" }

// ContactRepository adds contact-specific queries to the generic repository.
type ContactRepository struct {
	*core.Repository[Contact]
	tc *core.TableContext[Contact]
}

// NewContactRepository binds the Contacts table in c.
func NewContactRepository(c core.Container, host core.Host, opts ...core.Option) (*ContactRepository, error) {
	tc, err := core.Open[Contact](c, host, opts...)
	if err != nil {
		return nil, err
	}
	return &ContactRepository{Repository: core.NewRepository[Contact](tc), tc: tc}, nil
}

// Save stores the contact with its state normalized to a postal code.
func (r *ContactRepository) Save(ctx context.Context, c *Contact) error {
	c.State = NormalizeState(c.State)
	return r.Repository.Save(ctx, c)
}

// ByEmail returns the first contact with the given email, or nil.
func (r *ContactRepository) ByEmail(ctx context.Context, email string) (*Contact, error) {
	col, err := r.tc.Column("Email")
	if err != nil {
		return nil, err
	}
	return r.tc.GetByColumn(ctx, email, col)
}
