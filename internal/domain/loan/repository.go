package loan

import (
	"context"
	"time"
)

type Filter struct {
	Borrower string
	Lender   string
	State    State
}

type Repository interface {
	// Basic Case
	Create(ctx context.Context, l *Loan) error
	Save(ctx context.Context, l *Loan) error
	GetByID(ctx context.Context, id uint64) (*Loan, error)
	// GetByIDForUpdate locks the loan row until the transaction ends.
	GetByIDForUpdate(ctx context.Context, id uint64) (*Loan, error)
	Count(ctx context.Context) (int64, error)
	List(ctx context.Context, f Filter) ([]Loan, error)
	ListOverdue(ctx context.Context, now time.Time) ([]Loan, error)

	// Contributions
	GetContribution(ctx context.Context, loanID uint64, lender string) (*Contribution, error)
	SaveContribution(ctx context.Context, c *Contribution) error
	// ListContributions returns rows in funding order.
	ListContributions(ctx context.Context, loanID uint64) ([]Contribution, error)
	ListContributionsByLender(ctx context.Context, lender string) ([]Contribution, error)
}
