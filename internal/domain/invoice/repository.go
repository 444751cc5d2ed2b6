package invoice

import "context"

type Repository interface {
	Create(ctx context.Context, inv *Invoice) error
	Save(ctx context.Context, inv *Invoice) error
	GetByID(ctx context.Context, id uint64) (*Invoice, error)
	// GetByIDForUpdate locks the row for the rest of the transaction.
	GetByIDForUpdate(ctx context.Context, id uint64) (*Invoice, error)
	ListByOwner(ctx context.Context, owner string) ([]Invoice, error)
}
