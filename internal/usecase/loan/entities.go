package loan

import (
	"invoice-ledger/internal/domain/loan"
	"invoice-ledger/pkg/amount"
)

// Config is the process-wide fee and custody setup.
type Config struct {
	FeeBps         uint32
	FeeReceiver    string
	Treasury       string
	MaxInterestBps uint32
}

type RequestInput struct {
	InvoiceID    uint64        `json:"invoice_id" validate:"required"`
	Principal    amount.Amount `json:"principal" validate:"amount"`
	InterestBps  uint32        `json:"interest_bps" validate:"bps"`
	DurationDays uint32        `json:"duration_days" validate:"required"`
}

type FundInput struct {
	Amount amount.Amount `json:"amount" validate:"amount"`
}

type ListInput struct {
	Borrower string `query:"borrower"`
	Lender   string `query:"lender"`
	State    string `query:"state"`
}

type LoanDTO struct {
	*loan.Loan
	Remaining amount.Amount `json:"remaining"`
	// Only set once the loan has been funded.
	TotalDue *amount.Amount `json:"total_due,omitempty"`
}

type RepaymentDTO struct {
	Loan       *LoanDTO        `json:"loan"`
	Payer      string          `json:"payer"`
	Settlement loan.Settlement `json:"settlement"`
}

type ContributionDTO struct {
	LoanID uint64        `json:"loan_id"`
	Lender string        `json:"lender"`
	Amount amount.Amount `json:"amount"`
}

type SweepResult struct {
	Defaulted []uint64          `json:"defaulted"`
	Skipped   []uint64          `json:"skipped"`
	Failed    map[uint64]string `json:"failed,omitempty"`
}

// Funding describes one applied contribution.
type Funding struct {
	Loan      *loan.Loan
	Lender    string
	Amount    amount.Amount
	Started   bool
	Completed bool
}

func NewLoanDTO(l *loan.Loan) *LoanDTO {
	out := &LoanDTO{Loan: l, Remaining: l.Remaining()}
	if hasDue(l.State) {
		if due, err := loan.TotalDue(l.Principal, l.InterestBps); err == nil {
			out.TotalDue = &due
		}
	}
	return out
}

func hasDue(s loan.State) bool {
	return s == loan.StateFunded || s == loan.StateRepaid || s == loan.StateDefaulted
}
