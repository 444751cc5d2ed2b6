package uow

import (
	"context"

	"invoice-ledger/internal/domain/access"
	"invoice-ledger/internal/domain/event"
	"invoice-ledger/internal/domain/funds"
	"invoice-ledger/internal/domain/invoice"
	"invoice-ledger/internal/domain/loan"
	"invoice-ledger/internal/domain/pool"
)

// Repos are bound to one transaction.
type Repos struct {
	Loans    loan.Repository
	Invoices invoice.Repository
	Grants   access.Repository
	Funds    funds.Repository
	Pools    pool.Repository
	Events   event.Repository
}

type UnitOfWork interface {
	// plain tx
	WithinTx(ctx context.Context, fn func(r Repos) error) error
	// lock the loan row first, then pass it in
	WithinLoanTx(ctx context.Context, loanID uint64, fn func(r Repos, l *loan.Loan) error) error
}
