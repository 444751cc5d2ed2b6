package stats

import (
	"context"

	"invoice-ledger/internal/domain/loan"
	"invoice-ledger/internal/domain/pool"
	"invoice-ledger/pkg/amount"
	"invoice-ledger/pkg/errs"
)

var ErrOverflow = errs.New(errs.ErrState, "stats total overflow")

type Usecase struct {
	loans    loan.Repository
	deposits pool.Repository
}

func NewUsecase(loans loan.Repository, deposits pool.Repository) *Usecase {
	return &Usecase{loans: loans, deposits: deposits}
}

type DTO struct {
	LoanCount     int64              `json:"loan_count"`
	TotalBorrowed amount.Amount      `json:"total_borrowed"`
	ByState       map[loan.State]int `json:"loans_by_state"`
	PoolDeposits  amount.Amount      `json:"pool_deposits"`
}

// Global reports ledger-wide totals. TotalBorrowed sums TotalFunded over
// every loan ever requested, settled ones included.
func (u *Usecase) Global(ctx context.Context) (*DTO, error) {
	count, err := u.loans.Count(ctx)
	if err != nil {
		return nil, err
	}
	loans, err := u.loans.List(ctx, loan.Filter{})
	if err != nil {
		return nil, err
	}
	out := &DTO{LoanCount: count, TotalBorrowed: amount.Zero(), PoolDeposits: amount.Zero(), ByState: map[loan.State]int{}}
	for _, l := range loans {
		var overflow bool
		if out.TotalBorrowed, overflow = out.TotalBorrowed.Add(l.TotalFunded); overflow {
			return nil, ErrOverflow
		}
		out.ByState[l.State]++
	}

	deposits, err := u.deposits.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, d := range deposits {
		var overflow bool
		if out.PoolDeposits, overflow = out.PoolDeposits.Add(d.Amount); overflow {
			return nil, ErrOverflow
		}
	}
	return out, nil
}
