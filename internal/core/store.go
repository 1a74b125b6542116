package core

import (
	"context"
	"fmt"
)

// Store is the type-erased view of a TableContext used by callers that
// pick tables at runtime, such as the HTTP layer. Models are passed as *T.
type Store interface {
	Metadata() *TableMetadata
	// New returns a zero *T ready for decoding.
	New() any
	Save(ctx context.Context, model any) error
	Delete(ctx context.Context, model any) error
	DeleteByID(ctx context.Context, key any) error
	GetAll(ctx context.Context) ([]any, error)
	// GetByID returns nil, nil when no row matches.
	GetByID(ctx context.Context, key any) (any, error)
	GetByColumn(ctx context.Context, key any, column ColumnDescriptor) (any, error)
	GetByRowIndex(ctx context.Context, position int) (any, error)
	// ParseValue coerces text into the raw form of column's values.
	ParseValue(column ColumnDescriptor, text string) (any, error)
}

// Erase wraps tc as a Store.
func Erase[T any](tc *TableContext[T]) Store {
	return erased[T]{tc: tc}
}

type erased[T any] struct {
	tc *TableContext[T]
}

func (e erased[T]) Metadata() *TableMetadata { return e.tc.Metadata() }

func (e erased[T]) New() any { return new(T) }

func (e erased[T]) model(v any) (*T, error) {
	m, ok := v.(*T)
	if !ok {
		return nil, fmt.Errorf("%w: table %s expects %T, got %T", ErrConfiguration, e.tc.meta.TableName, (*T)(nil), v)
	}
	return m, nil
}

func (e erased[T]) Save(ctx context.Context, v any) error {
	m, err := e.model(v)
	if err != nil {
		return err
	}
	return e.tc.Save(ctx, m)
}

func (e erased[T]) Delete(ctx context.Context, v any) error {
	m, err := e.model(v)
	if err != nil {
		return err
	}
	return e.tc.Delete(ctx, m)
}

func (e erased[T]) DeleteByID(ctx context.Context, key any) error {
	return e.tc.DeleteByID(ctx, key)
}

func (e erased[T]) GetAll(ctx context.Context) ([]any, error) {
	all, err := e.tc.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]any, len(all))
	for i := range all {
		out[i] = &all[i]
	}
	return out, nil
}

func (e erased[T]) GetByID(ctx context.Context, key any) (any, error) {
	return untyped(e.tc.GetByID(ctx, key))
}

func (e erased[T]) GetByColumn(ctx context.Context, key any, column ColumnDescriptor) (any, error) {
	return untyped(e.tc.GetByColumn(ctx, key, column))
}

func (e erased[T]) GetByRowIndex(ctx context.Context, position int) (any, error) {
	return untyped(e.tc.GetByRowIndex(ctx, position))
}

func (e erased[T]) ParseValue(column ColumnDescriptor, text string) (any, error) {
	if !e.tc.meta.owns(column) {
		return nil, fmt.Errorf("%w: column %q is not mapped on table %s", ErrConfiguration, column.Name, e.tc.meta.TableName)
	}
	v, err := ToTyped(column.Type, text)
	if err != nil {
		return nil, columnErr(column, text, err)
	}
	return ToRaw(v), nil
}

// untyped keeps a nil *T from becoming a non-nil interface.
func untyped[T any](m *T, err error) (any, error) {
	if err != nil || m == nil {
		return nil, err
	}
	return m, nil
}
