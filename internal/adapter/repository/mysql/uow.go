package mysql

import (
	"context"

	"invoice-ledger/internal/domain/access"
	"invoice-ledger/internal/domain/event"
	"invoice-ledger/internal/domain/funds"
	"invoice-ledger/internal/domain/invoice"
	"invoice-ledger/internal/domain/loan"
	"invoice-ledger/internal/domain/pool"
	"invoice-ledger/internal/domain/uow"

	"gorm.io/gorm"
)

// Migrate creates or updates every ledger table.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&invoice.Invoice{},
		&loan.Loan{},
		&loan.Contribution{},
		&access.Grant{},
		&funds.Balance{},
		&funds.Allowance{},
		&pool.Deposit{},
		&event.Event{},
	)
}

// NewRepos binds every repository to db, which may be a transaction.
func NewRepos(db *gorm.DB) uow.Repos {
	return uow.Repos{
		Loans:    &LoanRepository{db: db},
		Invoices: &InvoiceRepository{db: db},
		Grants:   &GrantRepository{db: db},
		Funds:    &FundsRepository{db: db},
		Pools:    &PoolRepository{db: db},
		Events:   &EventRepository{db: db},
	}
}

type GormUoW struct{ db *gorm.DB }

func NewGormUoW(db *gorm.DB) *GormUoW { return &GormUoW{db: db} }

func (u *GormUoW) WithinTx(ctx context.Context, fn func(r uow.Repos) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepos(tx))
	})
}

func (u *GormUoW) WithinLoanTx(ctx context.Context, loanID uint64, fn func(r uow.Repos, l *loan.Loan) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r := NewRepos(tx)
		// lock the loan row up-front to prevent races
		l, err := r.Loans.GetByIDForUpdate(ctx, loanID)
		if err != nil {
			return err
		}
		return fn(r, l)
	})
}
