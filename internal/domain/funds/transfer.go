package funds

import (
	"context"
	"fmt"

	"invoice-ledger/pkg/amount"
)

// Approve sets (not increments) the amount spender may pull from owner.
func Approve(ctx context.Context, r Repository, owner, spender string, amt amount.Amount) error {
	a, err := r.GetAllowanceForUpdate(ctx, owner, spender)
	if err != nil {
		return err
	}
	a.Amount = amt
	return r.SaveAllowance(ctx, a)
}

// Credit adds newly issued funds to account.
func Credit(ctx context.Context, r Repository, account string, amt amount.Amount) error {
	if amt.IsZero() {
		return ErrInvalidAmount
	}
	b, err := r.GetBalanceForUpdate(ctx, account)
	if err != nil {
		return err
	}
	next, overflow := b.Amount.Add(amt)
	if overflow {
		return ErrOverflow
	}
	b.Amount = next
	return r.SaveBalance(ctx, b)
}

// TransferFrom moves amt from one account to another on behalf of spender.
// A spender other than from must hold enough allowance, which is consumed.
// Balance rows are locked in account order.
func TransferFrom(ctx context.Context, r Repository, spender, from, to string, amt amount.Amount) error {
	if amt.IsZero() {
		return ErrInvalidAmount
	}

	var allowance *Allowance
	if spender != from {
		a, err := r.GetAllowanceForUpdate(ctx, from, spender)
		if err != nil {
			return err
		}
		left, underflow := a.Amount.Sub(amt)
		if underflow {
			return fmt.Errorf("%w: %s approved %s, need %s", ErrInsufficientAllowance, from, a.Amount, amt)
		}
		a.Amount = left
		allowance = a
	}

	first, second := from, to
	if second < first {
		first, second = second, first
	}
	locked := map[string]*Balance{}
	for _, acct := range []string{first, second} {
		if _, ok := locked[acct]; ok {
			continue
		}
		b, err := r.GetBalanceForUpdate(ctx, acct)
		if err != nil {
			return err
		}
		locked[acct] = b
	}

	src, dst := locked[from], locked[to]
	left, underflow := src.Amount.Sub(amt)
	if underflow {
		return fmt.Errorf("%w: %s holds %s, need %s", ErrInsufficientBalance, from, src.Amount, amt)
	}
	credited := dst.Amount
	if from != to {
		var overflow bool
		if credited, overflow = dst.Amount.Add(amt); overflow {
			return ErrOverflow
		}
	}
	if allowance != nil {
		if err := r.SaveAllowance(ctx, allowance); err != nil {
			return err
		}
	}
	if from == to {
		return nil
	}
	src.Amount, dst.Amount = left, credited
	if err := r.SaveBalance(ctx, src); err != nil {
		return err
	}
	return r.SaveBalance(ctx, dst)
}
