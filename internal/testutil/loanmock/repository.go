package loanmock

import (
	"context"
	"time"

	domain "invoice-ledger/internal/domain/loan"
)

var _ domain.Repository = (*Repo)(nil)

// Repo is a function-backed mock that satisfies domain.Repository.
// Unset lookups return context.Canceled; unset writes succeed.
type Repo struct {
	CreateFn                    func(ctx context.Context, l *domain.Loan) error
	SaveFn                      func(ctx context.Context, l *domain.Loan) error
	GetByIDFn                   func(ctx context.Context, id uint64) (*domain.Loan, error)
	GetByIDForUpdateFn          func(ctx context.Context, id uint64) (*domain.Loan, error)
	CountFn                     func(ctx context.Context) (int64, error)
	ListFn                      func(ctx context.Context, f domain.Filter) ([]domain.Loan, error)
	ListOverdueFn               func(ctx context.Context, now time.Time) ([]domain.Loan, error)
	GetContributionFn           func(ctx context.Context, loanID uint64, lender string) (*domain.Contribution, error)
	SaveContributionFn          func(ctx context.Context, c *domain.Contribution) error
	ListContributionsFn         func(ctx context.Context, loanID uint64) ([]domain.Contribution, error)
	ListContributionsByLenderFn func(ctx context.Context, lender string) ([]domain.Contribution, error)
}

func (m *Repo) Create(ctx context.Context, l *domain.Loan) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, l)
	}
	return nil
}

func (m *Repo) Save(ctx context.Context, l *domain.Loan) error {
	if m.SaveFn != nil {
		return m.SaveFn(ctx, l)
	}
	return nil
}

func (m *Repo) GetByID(ctx context.Context, id uint64) (*domain.Loan, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	return nil, context.Canceled
}

func (m *Repo) GetByIDForUpdate(ctx context.Context, id uint64) (*domain.Loan, error) {
	if m.GetByIDForUpdateFn != nil {
		return m.GetByIDForUpdateFn(ctx, id)
	}
	return nil, context.Canceled
}

func (m *Repo) Count(ctx context.Context) (int64, error) {
	if m.CountFn != nil {
		return m.CountFn(ctx)
	}
	return 0, nil
}

func (m *Repo) List(ctx context.Context, f domain.Filter) ([]domain.Loan, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx, f)
	}
	return nil, nil
}

func (m *Repo) ListOverdue(ctx context.Context, now time.Time) ([]domain.Loan, error) {
	if m.ListOverdueFn != nil {
		return m.ListOverdueFn(ctx, now)
	}
	return nil, nil
}

func (m *Repo) GetContribution(ctx context.Context, loanID uint64, lender string) (*domain.Contribution, error) {
	if m.GetContributionFn != nil {
		return m.GetContributionFn(ctx, loanID, lender)
	}
	return nil, context.Canceled
}

func (m *Repo) SaveContribution(ctx context.Context, c *domain.Contribution) error {
	if m.SaveContributionFn != nil {
		return m.SaveContributionFn(ctx, c)
	}
	return nil
}

func (m *Repo) ListContributions(ctx context.Context, loanID uint64) ([]domain.Contribution, error) {
	if m.ListContributionsFn != nil {
		return m.ListContributionsFn(ctx, loanID)
	}
	return nil, nil
}

func (m *Repo) ListContributionsByLender(ctx context.Context, lender string) ([]domain.Contribution, error) {
	if m.ListContributionsByLenderFn != nil {
		return m.ListContributionsByLenderFn(ctx, lender)
	}
	return nil, nil
}
