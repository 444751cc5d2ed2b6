package loan

import (
	"fmt"
	"time"

	"invoice-ledger/pkg/amount"
)

var transitions = map[State][]State{
	StateRequested: {StateFunding, StateCancelled},
	StateFunding:   {StateFunded},
	StateFunded:    {StateRepaid, StateDefaulted},
}

func (s State) Valid() bool {
	switch s {
	case StateRequested, StateFunding, StateFunded, StateRepaid, StateDefaulted, StateCancelled:
		return true
	}
	return false
}

// Terminal states release the collateral and freeze the loan.
func (s State) Terminal() bool {
	return s == StateRepaid || s == StateDefaulted || s == StateCancelled
}

func (s State) CanTransitionTo(next State) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (l *Loan) transition(next State, at time.Time) error {
	if !l.State.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, l.State, next)
	}
	l.State = next
	l.StateUpdatedAt = at
	return nil
}

// Remaining is the principal still open for funding.
func (l *Loan) Remaining() amount.Amount {
	rem, underflow := l.Principal.Sub(l.TotalFunded)
	if underflow {
		return amount.Zero()
	}
	return rem
}

// ApplyFunding records amt against the loan and advances its state. It
// reports whether this contribution completed the principal. The loan is
// left untouched on error.
func (l *Loan) ApplyFunding(amt amount.Amount, at time.Time) (bool, error) {
	if l.State != StateRequested && l.State != StateFunding {
		return false, ErrNotFundable
	}
	if amt.IsZero() {
		return false, ErrInvalidAmount
	}
	next, overflow := l.TotalFunded.Add(amt)
	if overflow || next.Cmp(l.Principal) > 0 {
		return false, ErrExceedsPrincipal
	}

	if l.State == StateRequested {
		if err := l.transition(StateFunding, at); err != nil {
			return false, err
		}
	}
	l.TotalFunded = next
	if !next.Equal(l.Principal) {
		return false, nil
	}
	if err := l.transition(StateFunded, at); err != nil {
		return false, err
	}
	funded := at
	due := at.Add(time.Duration(l.DurationDays) * 24 * time.Hour)
	l.FundedAt = &funded
	l.DueDate = &due
	return true, nil
}

func (l *Loan) MarkRepaid(at time.Time) error {
	if l.State != StateFunded {
		return ErrNotFunded
	}
	return l.transition(StateRepaid, at)
}

// MarkDefaulted requires the loan to be strictly past its due date.
func (l *Loan) MarkDefaulted(at time.Time) error {
	if l.State != StateFunded {
		return ErrNotFunded
	}
	if l.DueDate == nil || !at.After(*l.DueDate) {
		return ErrNotOverdue
	}
	return l.transition(StateDefaulted, at)
}

func (l *Loan) Cancel(at time.Time) error {
	if l.State != StateRequested {
		return ErrNotCancellable
	}
	return l.transition(StateCancelled, at)
}

// Overdue reports whether a funded loan has passed its due date at t.
func (l *Loan) Overdue(t time.Time) bool {
	return l.State == StateFunded && l.DueDate != nil && t.After(*l.DueDate)
}
