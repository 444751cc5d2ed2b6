package loan

import (
	"context"
	"errors"
	"fmt"

	"invoice-ledger/internal/domain/event"
	"invoice-ledger/internal/domain/loan"
	"invoice-ledger/pkg/amount"
	"invoice-ledger/pkg/errs"
	"invoice-ledger/pkg/principal"

	"gorm.io/gorm"
)

var ErrInvalidFilter = errs.New(errs.ErrValidation, "invalid loan filter")

func (u *Usecase) Get(ctx context.Context, id uint64) (*LoanDTO, error) {
	l, err := u.loans.GetByID(ctx, id)
	if err != nil {
		return nil, translate(err)
	}
	return NewLoanDTO(l), nil
}

// Counter is the number of loans ever requested; ids run from 1 to Counter.
func (u *Usecase) Counter(ctx context.Context) (int64, error) {
	return u.loans.Count(ctx)
}

func (u *Usecase) List(ctx context.Context, in ListInput) ([]*LoanDTO, error) {
	var f loan.Filter
	for _, p := range []struct {
		raw string
		dst *string
	}{{in.Borrower, &f.Borrower}, {in.Lender, &f.Lender}} {
		if p.raw == "" {
			continue
		}
		norm, err := principal.Normalize(p.raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidFilter, p.raw)
		}
		*p.dst = norm
	}
	if in.State != "" {
		f.State = loan.State(in.State)
		if !f.State.Valid() {
			return nil, fmt.Errorf("%w: state %q", ErrInvalidFilter, in.State)
		}
	}

	loans, err := u.loans.List(ctx, f)
	if err != nil {
		return nil, err
	}
	out := make([]*LoanDTO, 0, len(loans))
	for i := range loans {
		out = append(out, NewLoanDTO(&loans[i]))
	}
	return out, nil
}

// Contributions lists a loan's lenders in funding order.
func (u *Usecase) Contributions(ctx context.Context, id uint64) ([]ContributionDTO, error) {
	if _, err := u.loans.GetByID(ctx, id); err != nil {
		return nil, translate(err)
	}
	rows, err := u.loans.ListContributions(ctx, id)
	if err != nil {
		return nil, err
	}
	out := make([]ContributionDTO, 0, len(rows))
	for _, c := range rows {
		out = append(out, ContributionDTO{LoanID: c.LoanID, Lender: c.Lender, Amount: c.Amount})
	}
	return out, nil
}

// Contribution is zero for a lender that never funded the loan.
func (u *Usecase) Contribution(ctx context.Context, id uint64, lender string) (*ContributionDTO, error) {
	who, err := principal.Normalize(lender)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidFilter, lender)
	}
	if _, err := u.loans.GetByID(ctx, id); err != nil {
		return nil, translate(err)
	}
	out := &ContributionDTO{LoanID: id, Lender: who, Amount: amount.Zero()}
	c, err := u.loans.GetContribution(ctx, id, who)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return out, nil
	case err != nil:
		return nil, err
	}
	out.Amount = c.Amount
	return out, nil
}

func (u *Usecase) Events(ctx context.Context, id uint64) ([]event.Event, error) {
	if _, err := u.loans.GetByID(ctx, id); err != nil {
		return nil, translate(err)
	}
	out, err := u.events.ListBySubject(ctx, event.SubjectLoan, id)
	if out == nil {
		out = []event.Event{}
	}
	return out, err
}
