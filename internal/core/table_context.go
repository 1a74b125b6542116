package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"

	"github.com/google/uuid"

	"github.com/JonMunkholm/xltable/internal/logging"
)

// Option configures a TableContext.
type Option func(*options)

type options struct {
	policy  InteractionPolicy
	journal Journal
	logger  *slog.Logger
}

// WithLogger sets the base logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithJournal records every committed mutation to j.
func WithJournal(j Journal) Option {
	return func(o *options) { o.journal = j }
}

// WithInteractionPolicy overrides DefaultInteractionPolicy.
func WithInteractionPolicy(p InteractionPolicy) Option {
	return func(o *options) { o.policy = p }
}

// TableContext binds model type T to one live table and provides the CRUD
// operations on it. A TableContext is not safe for concurrent use; callers
// serialize access per workbook (see OperationLimiter).
type TableContext[T any] struct {
	table   Table
	host    Host
	meta    *TableMetadata
	guard   *InteractionGuard
	journal Journal
	logger  *slog.Logger
}

// Open locates T's table anywhere in the container and binds to it.
func Open[T any](c Container, host Host, opts ...Option) (*TableContext[T], error) {
	spec, err := specOf[T]()
	if err != nil {
		return nil, err
	}
	table, err := FindTable(c, spec.tableName)
	if err != nil {
		return nil, err
	}
	return Bind[T](table, host, opts...)
}

// OpenInSheet locates T's table in one sheet and binds to it.
func OpenInSheet[T any](s Sheet, host Host, opts ...Option) (*TableContext[T], error) {
	spec, err := specOf[T]()
	if err != nil {
		return nil, err
	}
	table, err := findInSheet(s, spec.tableName)
	if err != nil {
		return nil, err
	}
	return Bind[T](table, host, opts...)
}

// Bind resolves T's columns against an already located table.
func Bind[T any](table Table, host Host, opts ...Option) (*TableContext[T], error) {
	spec, err := specOf[T]()
	if err != nil {
		return nil, err
	}
	if table == nil || host == nil {
		return nil, fmt.Errorf("%w: bind %s needs a table and a host", ErrConfiguration, spec.typ)
	}
	meta, err := resolve(spec, table)
	if err != nil {
		return nil, err
	}

	o := options{policy: DefaultInteractionPolicy()}
	for _, opt := range opts {
		opt(&o)
	}
	return &TableContext[T]{
		table:   table,
		host:    host,
		meta:    meta,
		guard:   NewInteractionGuard(host, o.policy, o.logger),
		journal: o.journal,
		logger:  o.logger,
	}, nil
}

// Metadata returns the resolved column mapping.
func (tc *TableContext[T]) Metadata() *TableMetadata {
	return tc.meta
}

// Column returns the descriptor of a mapped property.
func (tc *TableContext[T]) Column(property string) (ColumnDescriptor, error) {
	c, ok := tc.meta.Column(property)
	if !ok {
		return ColumnDescriptor{}, fmt.Errorf("%w: property %s is not mapped on table %s", ErrConfiguration, property, tc.meta.TableName)
	}
	return c, nil
}

// Save updates the row whose key matches model's key, or creates one.
//
// On create with an integer key, model's key is set to one more than the
// largest key in the table. The row is appended and written; if a write
// fails the row is removed and the key restored. On update the row's prior
// values are restored if a write fails.
func (tc *TableContext[T]) Save(ctx context.Context, model *T) (err error) {
	if model == nil {
		return fmt.Errorf("%w: save of nil %T", ErrConfiguration, model)
	}
	key, err := tc.meta.Key()
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	ctx = logging.WithOpID(ctx, uuid.NewString())
	logger := tc.log(ctx)

	restore, err := tc.guard.Suppress(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if rerr := restore(); rerr != nil {
			logger.Error("restore interactive mode", "error", rerr)
			err = errors.Join(err, fmt.Errorf("restore interactive mode: %w", rerr))
		}
	}()

	v := reflect.ValueOf(model).Elem()
	pos, err := FindPosition(tc.table, key.Position, ToRaw(v.FieldByIndex(key.index)))
	if err != nil {
		return err
	}
	if pos == NotFound {
		return tc.create(ctx, logger, v, key)
	}
	return tc.update(ctx, logger, v, key, pos)
}

func (tc *TableContext[T]) create(ctx context.Context, logger *slog.Logger, v reflect.Value, key ColumnDescriptor) (err error) {
	keyField := v.FieldByIndex(key.index)
	if isIntegerType(key.Type) {
		next, kerr := tc.nextKey(key)
		if kerr != nil {
			return kerr
		}
		previous := reflect.New(keyField.Type()).Elem()
		previous.Set(keyField)
		keyField.Set(next)
		defer func() {
			if err != nil {
				keyField.Set(previous)
			}
		}()
	}

	row := rowFromModel(tc.meta, v)
	pos, err := tc.table.AppendRow()
	if err != nil {
		return fmt.Errorf("append row to %s: %w", tc.meta.TableName, err)
	}
	if err := tc.writeRow(pos, row); err != nil {
		if derr := tc.table.DeleteRow(pos); derr != nil {
			logger.Error("remove partially written row", "position", pos, "error", derr)
			return errors.Join(err, fmt.Errorf("remove row %d: %w", pos, derr))
		}
		return err
	}

	keyRaw := ToRaw(keyField)
	logger.Info("row created", "position", pos, "key", keyRaw)
	tc.record(ctx, logger, ActionRowCreate, keyRaw, pos, row)
	return nil
}

func (tc *TableContext[T]) update(ctx context.Context, logger *slog.Logger, v reflect.Value, key ColumnDescriptor, pos int) error {
	row := rowFromModel(tc.meta, v)
	snapshot, err := tc.table.ReadRow(pos)
	if err != nil {
		return fmt.Errorf("read row %d of %s: %w", pos, tc.meta.TableName, err)
	}
	if err := tc.writeRow(pos, row); err != nil {
		if rerr := tc.restoreRow(pos, row, snapshot); rerr != nil {
			logger.Error("restore row after failed update", "position", pos, "error", rerr)
			return errors.Join(err, rerr)
		}
		return err
	}

	keyRaw := ToRaw(v.FieldByIndex(key.index))
	logger.Info("row updated", "position", pos, "key", keyRaw)
	tc.record(ctx, logger, ActionRowUpdate, keyRaw, pos, row)
	return nil
}

// nextKey returns one more than the largest numeric key in the table.
func (tc *TableContext[T]) nextKey(key ColumnDescriptor) (reflect.Value, error) {
	values, err := tc.table.ReadColumn(key.Position)
	if err != nil {
		return reflect.Value{}, fmt.Errorf("read key column of %s: %w", tc.meta.TableName, err)
	}
	largest, err := tc.host.Max(values)
	if err != nil {
		return reflect.Value{}, fmt.Errorf("max key of %s: %w", tc.meta.TableName, err)
	}
	next, err := ToTyped(key.Type, int64(largest)+1)
	if err != nil {
		return reflect.Value{}, columnErr(key, int64(largest)+1, err)
	}
	return next, nil
}

func (tc *TableContext[T]) writeRow(pos int, row Row) error {
	for _, col := range row.Positions() {
		if err := tc.table.WriteCell(pos, col, row[col]); err != nil {
			return fmt.Errorf("write %s row %d column %d: %w", tc.meta.TableName, pos, col, err)
		}
	}
	return nil
}

// restoreRow writes the snapshot back over every staged column.
func (tc *TableContext[T]) restoreRow(pos int, staged Row, snapshot []any) error {
	var errs []error
	for _, col := range staged.Positions() {
		if col > len(snapshot) {
			continue
		}
		if err := tc.table.WriteCell(pos, col, snapshot[col-1]); err != nil {
			errs = append(errs, fmt.Errorf("restore %s row %d column %d: %w", tc.meta.TableName, pos, col, err))
		}
	}
	return errors.Join(errs...)
}

// Delete removes the row whose key matches model's key. Deleting a key that
// is not in the table is a no-op.
func (tc *TableContext[T]) Delete(ctx context.Context, model *T) error {
	if model == nil {
		return fmt.Errorf("%w: delete of nil %T", ErrConfiguration, model)
	}
	key, err := tc.meta.Key()
	if err != nil {
		return err
	}
	return tc.deleteKey(ctx, key, ToRaw(reflect.ValueOf(model).Elem().FieldByIndex(key.index)))
}

// DeleteByID removes the row whose key equals key.
func (tc *TableContext[T]) DeleteByID(ctx context.Context, key any) error {
	col, err := tc.meta.Key()
	if err != nil {
		return err
	}
	return tc.deleteKey(ctx, col, normalizeKey(key))
}

func (tc *TableContext[T]) deleteKey(ctx context.Context, key ColumnDescriptor, keyRaw any) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}
	ctx = logging.WithOpID(ctx, uuid.NewString())
	logger := tc.log(ctx)

	restore, err := tc.guard.Suppress(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if rerr := restore(); rerr != nil {
			logger.Error("restore interactive mode", "error", rerr)
			err = errors.Join(err, fmt.Errorf("restore interactive mode: %w", rerr))
		}
	}()

	pos, err := FindPosition(tc.table, key.Position, keyRaw)
	if err != nil {
		return err
	}
	if pos == NotFound {
		logger.Debug("delete skipped, key not found", "key", keyRaw)
		return nil
	}

	var snapshot []any
	if tc.journal != nil {
		if snapshot, err = tc.table.ReadRow(pos); err != nil {
			return fmt.Errorf("read row %d of %s: %w", pos, tc.meta.TableName, err)
		}
	}
	if err := tc.table.DeleteRow(pos); err != nil {
		return fmt.Errorf("delete row %d of %s: %w", pos, tc.meta.TableName, err)
	}

	logger.Info("row deleted", "position", pos, "key", keyRaw)
	tc.record(ctx, logger, ActionRowDelete, keyRaw, pos, rowOf(snapshot))
	return nil
}

// GetAll returns every body row as a model, in table order. A row that
// fails conversion fails the whole read.
func (tc *TableContext[T]) GetAll(ctx context.Context) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	body, err := tc.table.ReadBody()
	if err != nil {
		return nil, fmt.Errorf("read body of %s: %w", tc.meta.TableName, err)
	}

	out := make([]T, 0, len(body))
	for i, values := range body {
		m, err := modelFromRow[T](tc.meta, rowOf(values))
		if err != nil {
			return nil, fmt.Errorf("row %d of %s: %w", i+1, tc.meta.TableName, err)
		}
		out = append(out, *m)
	}
	return out, nil
}

// GetByID returns the model whose key equals key, or nil if none does.
func (tc *TableContext[T]) GetByID(ctx context.Context, key any) (*T, error) {
	col, err := tc.meta.Key()
	if err != nil {
		return nil, err
	}
	return tc.GetByColumn(ctx, key, col)
}

// GetByColumn returns the first model whose value in column equals key, or
// nil if none does.
func (tc *TableContext[T]) GetByColumn(ctx context.Context, key any, column ColumnDescriptor) (*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !tc.meta.owns(column) {
		return nil, fmt.Errorf("%w: column %q is not mapped on table %s", ErrConfiguration, column.Name, tc.meta.TableName)
	}

	pos, err := FindPosition(tc.table, column.Position, normalizeKey(key))
	if err != nil {
		return nil, err
	}
	if pos == NotFound {
		return nil, nil
	}
	return tc.GetByRowIndex(ctx, pos)
}

// GetByRowIndex returns the model at a 1-based body position.
func (tc *TableContext[T]) GetByRowIndex(ctx context.Context, position int) (*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	row, err := FetchRow(tc.table, position)
	if err != nil {
		return nil, err
	}
	m, err := modelFromRow[T](tc.meta, row)
	if err != nil {
		return nil, fmt.Errorf("row %d of %s: %w", position, tc.meta.TableName, err)
	}
	return m, nil
}

func (tc *TableContext[T]) record(ctx context.Context, logger *slog.Logger, action JournalAction, key any, pos int, row Row) {
	if tc.journal == nil {
		return
	}
	entry := newJournalEntry(ctx, logging.OpIDFromContext(ctx), action, tc.meta, key, pos, row)
	if err := tc.journal.Record(context.WithoutCancel(ctx), entry); err != nil {
		logger.Warn("journal record failed", "action", action, "error", err)
	}
}

func (tc *TableContext[T]) log(ctx context.Context) *slog.Logger {
	base := tc.logger
	if base == nil {
		base = slog.Default()
	}
	return logging.Enrich(ctx, base).With("table", tc.meta.TableName)
}

// normalizeKey turns a caller supplied key into its raw cell form.
func normalizeKey(key any) any {
	if key == nil {
		return nil
	}
	return ToRaw(reflect.ValueOf(key))
}
