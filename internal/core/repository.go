package core

import "context"

// TableStore is the set of operations a Repository forwards to.
// *TableContext[T] implements it.
type TableStore[T any] interface {
	Save(ctx context.Context, model *T) error
	Delete(ctx context.Context, model *T) error
	GetAll(ctx context.Context) ([]T, error)
	GetByID(ctx context.Context, key any) (*T, error)
	GetByRowIndex(ctx context.Context, position int) (*T, error)
}

// Repository is a thin facade over a TableStore. Embed it in domain
// repositories to add named queries.
type Repository[T any] struct {
	store TableStore[T]
}

// NewRepository wraps store.
func NewRepository[T any](store TableStore[T]) *Repository[T] {
	return &Repository[T]{store: store}
}

func (r *Repository[T]) Save(ctx context.Context, model *T) error {
	return r.store.Save(ctx, model)
}

func (r *Repository[T]) Delete(ctx context.Context, model *T) error {
	return r.store.Delete(ctx, model)
}

func (r *Repository[T]) GetAll(ctx context.Context) ([]T, error) {
	return r.store.GetAll(ctx)
}

func (r *Repository[T]) GetByID(ctx context.Context, key any) (*T, error) {
	return r.store.GetByID(ctx, key)
}

func (r *Repository[T]) GetByRowIndex(ctx context.Context, position int) (*T, error) {
	return r.store.GetByRowIndex(ctx, position)
}
