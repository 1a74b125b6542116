package core

import (
	"context"
	"time"
)

// JournalAction is the kind of mutation recorded in the journal.
type JournalAction string

const (
	ActionRowCreate JournalAction = "row_create"
	ActionRowUpdate JournalAction = "row_update"
	ActionRowDelete JournalAction = "row_delete"
)

// JournalSeverity ranks journal entries for review.
type JournalSeverity string

const (
	SeverityLow    JournalSeverity = "low"
	SeverityMedium JournalSeverity = "medium"
	SeverityHigh   JournalSeverity = "high"
)

// SeverityOf returns the severity recorded for an action.
func SeverityOf(action JournalAction) JournalSeverity {
	switch action {
	case ActionRowDelete:
		return SeverityHigh
	case ActionRowCreate:
		return SeverityLow
	default:
		return SeverityMedium
	}
}

// JournalEntry describes one committed mutation.
type JournalEntry struct {
	OpID      string          `json:"opId"`
	Action    JournalAction   `json:"action"`
	Severity  JournalSeverity `json:"severity"`
	Table     string          `json:"table"`
	Key       any             `json:"key,omitempty"`
	Position  int             `json:"position"`
	Values    map[string]any  `json:"values,omitempty"` // column name -> raw value
	IPAddress string          `json:"ipAddress,omitempty"`
	UserAgent string          `json:"userAgent,omitempty"`
	At        time.Time       `json:"at"`
}

// Journal records committed mutations. A failing journal never fails the
// mutation it describes.
type Journal interface {
	Record(ctx context.Context, entry JournalEntry) error
}

// newJournalEntry fills the fields every entry shares.
func newJournalEntry(ctx context.Context, opID string, action JournalAction, meta *TableMetadata, key any, position int, row Row) JournalEntry {
	client := ClientFromContext(ctx)
	values := make(map[string]any, len(row))
	for _, c := range meta.Ordered() {
		if v, ok := row[c.Position]; ok {
			values[c.Name] = v
		}
	}
	return JournalEntry{
		OpID:      opID,
		Action:    action,
		Severity:  SeverityOf(action),
		Table:     meta.TableName,
		Key:       key,
		Position:  position,
		Values:    values,
		IPAddress: client.IPAddress,
		UserAgent: client.UserAgent,
		At:        time.Now().UTC(),
	}
}
