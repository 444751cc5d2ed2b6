package mysql

import (
	"context"

	invoiceDomain "invoice-ledger/internal/domain/invoice"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type InvoiceRepository struct{ db *gorm.DB }

func NewInvoiceRepository(db *gorm.DB) *InvoiceRepository { return &InvoiceRepository{db: db} }

func (r *InvoiceRepository) Create(ctx context.Context, inv *invoiceDomain.Invoice) error {
	return r.db.WithContext(ctx).Create(inv).Error
}

// Save writes every column, so a cleared ActiveLoanID is persisted as NULL.
func (r *InvoiceRepository) Save(ctx context.Context, inv *invoiceDomain.Invoice) error {
	return r.db.WithContext(ctx).Save(inv).Error
}

func (r *InvoiceRepository) GetByID(ctx context.Context, id uint64) (*invoiceDomain.Invoice, error) {
	var out invoiceDomain.Invoice
	res := r.db.WithContext(ctx).First(&out, id)
	return &out, res.Error
}

func (r *InvoiceRepository) GetByIDForUpdate(ctx context.Context, id uint64) (*invoiceDomain.Invoice, error) {
	var out invoiceDomain.Invoice
	res := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&out, id)
	return &out, res.Error
}

func (r *InvoiceRepository) ListByOwner(ctx context.Context, owner string) ([]invoiceDomain.Invoice, error) {
	var out []invoiceDomain.Invoice
	q := r.db.WithContext(ctx)
	if owner != "" {
		q = q.Where("owner = ?", owner)
	}
	err := q.Order("id ASC").Find(&out).Error
	return out, err
}
