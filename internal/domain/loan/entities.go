package loan

import (
	"time"

	"invoice-ledger/pkg/amount"
	"invoice-ledger/pkg/errs"
)

var (
	ErrNotFound          = errs.New(errs.ErrNotFound, "loan not found")
	ErrInvalidTransition = errs.New(errs.ErrState, "invalid loan state transition")
	ErrNotFundable       = errs.New(errs.ErrState, "loan is not accepting funding")
	ErrNotFunded         = errs.New(errs.ErrState, "loan is not funded")
	ErrExceedsPrincipal  = errs.New(errs.ErrState, "amount exceeds remaining principal")
	ErrNotOverdue        = errs.New(errs.ErrState, "loan is not overdue")
	ErrInvalidCollateral = errs.New(errs.ErrState, "collateral is unverified or already locked")
	ErrNotOwner          = errs.New(errs.ErrAuthorization, "caller does not own the collateral")
	ErrNotCancellable    = errs.New(errs.ErrState, "only requested loans can be cancelled")
	ErrInvalidTerms      = errs.New(errs.ErrValidation, "invalid loan terms")
	ErrInvalidAmount     = errs.New(errs.ErrValidation, "amount must be positive")
	ErrNoContributions   = errs.New(errs.ErrState, "loan has no contributions")
	ErrArithmetic        = errs.New(errs.ErrValidation, "amount arithmetic overflow")
	ErrCustodyAccount    = errs.New(errs.ErrValidation, "the treasury cannot fund or repay loans")
)

type State string

const (
	StateRequested State = "requested"
	StateFunding   State = "funding"
	StateFunded    State = "funded"
	StateRepaid    State = "repaid"
	StateDefaulted State = "defaulted"
	StateCancelled State = "cancelled"
)

// Table: loans
type Loan struct {
	ID                  uint64        `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Borrower            string        `gorm:"column:borrower;size:42;not null;index:idx_loans_borrower" json:"borrower"`
	CollateralInvoiceID uint64        `gorm:"column:collateral_invoice_id;not null;index" json:"collateral_invoice_id"`
	Principal           amount.Amount `gorm:"column:principal;not null" json:"principal"`
	InterestBps         uint32        `gorm:"column:interest_bps;not null" json:"interest_bps"`
	DurationDays        uint32        `gorm:"column:duration_days;not null" json:"duration_days"`
	TotalFunded         amount.Amount `gorm:"column:total_funded;not null" json:"total_funded"`
	State               State         `gorm:"column:state;size:16;not null;index:idx_loans_state_due" json:"state"`
	// Set once the principal is fully funded.
	FundedAt       *time.Time `gorm:"column:funded_at" json:"funded_at,omitempty"`
	DueDate        *time.Time `gorm:"column:due_date;index:idx_loans_state_due" json:"due_date,omitempty"`
	StateUpdatedAt time.Time  `gorm:"column:state_updated_at" json:"state_updated_at"`
	CreatedAt      time.Time  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time  `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Loan) TableName() string { return "loans" }

// Table: loan_contributions. One accumulating row per (loan, lender).
type Contribution struct {
	ID        uint64        `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	LoanID    uint64        `gorm:"column:loan_id;not null;uniqueIndex:ux_contributions_loan_lender" json:"loan_id"`
	Lender    string        `gorm:"column:lender;size:42;not null;uniqueIndex:ux_contributions_loan_lender;index" json:"lender"`
	Amount    amount.Amount `gorm:"column:amount;not null" json:"amount"`
	CreatedAt time.Time     `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time     `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Contribution) TableName() string { return "loan_contributions" }
