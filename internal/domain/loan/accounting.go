package loan

import (
	"fmt"

	"invoice-ledger/pkg/amount"
	"invoice-ledger/pkg/errs"
)

var ErrLedgerMismatch = errs.New(errs.ErrState, "contributions do not sum to total funded")

// Terms bounds what a borrower may request.
type Terms struct {
	MaxInterestBps uint32
}

func (t Terms) Validate(principal amount.Amount, interestBps, durationDays uint32) error {
	switch {
	case principal.IsZero():
		return fmt.Errorf("%w: principal must be positive", ErrInvalidTerms)
	case durationDays == 0:
		return fmt.Errorf("%w: duration must be at least one day", ErrInvalidTerms)
	case interestBps > t.MaxInterestBps:
		return fmt.Errorf("%w: interest %d bps above ceiling %d", ErrInvalidTerms, interestBps, t.MaxInterestBps)
	}
	if _, err := TotalDue(principal, interestBps); err != nil {
		return fmt.Errorf("%w: principal too large", ErrInvalidTerms)
	}
	return nil
}

// TotalDue is principal + floor(principal * interestBps / 10000).
func TotalDue(principal amount.Amount, interestBps uint32) (amount.Amount, error) {
	due, overflow := principal.Add(principal.Bps(interestBps))
	if overflow {
		return amount.Zero(), ErrArithmetic
	}
	return due, nil
}

type Share struct {
	Lender string        `json:"lender"`
	Amount amount.Amount `json:"amount"`
}

type Settlement struct {
	Due    amount.Amount `json:"due"`
	Fee    amount.Amount `json:"fee"`
	Payout amount.Amount `json:"payout"`
	Shares []Share       `json:"shares"`
	// Lender that received the flooring remainder.
	Designated string        `json:"designated_lender"`
	Remainder  amount.Amount `json:"remainder"`
}

// Settle splits due into the protocol fee and pro-rata lender shares.
// contributions must be in funding order; the flooring remainder goes to the
// largest contributor, and to the earliest of them on a tie, so that
// Fee + sum(Shares) == Due.
func Settle(due amount.Amount, feeBps uint32, contributions []Contribution, totalFunded amount.Amount) (Settlement, error) {
	if len(contributions) == 0 || totalFunded.IsZero() {
		return Settlement{}, ErrNoContributions
	}
	if feeBps > amount.BasisPoints {
		return Settlement{}, fmt.Errorf("%w: fee %d bps", ErrArithmetic, feeBps)
	}

	sum := amount.Zero()
	designated := 0
	for i, c := range contributions {
		var overflow bool
		if sum, overflow = sum.Add(c.Amount); overflow {
			return Settlement{}, ErrArithmetic
		}
		if c.Amount.Cmp(contributions[designated].Amount) > 0 {
			designated = i
		}
	}
	if !sum.Equal(totalFunded) {
		return Settlement{}, fmt.Errorf("%w: %s != %s", ErrLedgerMismatch, sum, totalFunded)
	}

	fee := due.Bps(feeBps)
	payout, _ := due.Sub(fee)

	shares := make([]Share, len(contributions))
	distributed := amount.Zero()
	for i, c := range contributions {
		part, ok := payout.MulDiv(c.Amount, totalFunded)
		if !ok {
			return Settlement{}, ErrArithmetic
		}
		shares[i] = Share{Lender: c.Lender, Amount: part}
		distributed, _ = distributed.Add(part)
	}

	remainder, underflow := payout.Sub(distributed)
	if underflow {
		return Settlement{}, ErrArithmetic
	}
	shares[designated].Amount, _ = shares[designated].Amount.Add(remainder)

	return Settlement{
		Due:        due,
		Fee:        fee,
		Payout:     payout,
		Shares:     shares,
		Designated: contributions[designated].Lender,
		Remainder:  remainder,
	}, nil
}
