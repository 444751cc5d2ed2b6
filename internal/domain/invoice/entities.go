package invoice

import (
	"time"

	"invoice-ledger/pkg/amount"
	"invoice-ledger/pkg/errs"
)

var (
	ErrNotFound          = errs.New(errs.ErrNotFound, "invoice not found")
	ErrInvalidAmount     = errs.New(errs.ErrValidation, "invoice amount must be positive")
	ErrDueDateInPast     = errs.New(errs.ErrValidation, "invoice due date must be in the future")
	ErrInvalidOwner      = errs.New(errs.ErrValidation, "invalid invoice owner")
	ErrNotOwner          = errs.New(errs.ErrAuthorization, "caller does not own the invoice")
	ErrLocked            = errs.New(errs.ErrState, "invoice is collateralizing an active loan")
	ErrAlreadyLocked     = errs.New(errs.ErrState, "invoice is already locked")
	ErrLockMismatch      = errs.New(errs.ErrState, "invoice is locked by a different loan")
	ErrExternalIDTooLong = errs.New(errs.ErrValidation, "external invoice id is too long")
)

type VerificationSource string

const (
	VerifiedByAttestor VerificationSource = "attestor"
	VerifiedByOracle   VerificationSource = "oracle"
)

// Table: invoices
type Invoice struct {
	ID                uint64             `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Owner             string             `gorm:"column:owner;size:42;not null;index:idx_invoices_owner" json:"owner"`
	Amount            amount.Amount      `gorm:"column:amount;not null" json:"amount"`
	DueDate           time.Time          `gorm:"column:due_date;not null" json:"due_date"`
	ExternalInvoiceID string             `gorm:"column:external_invoice_id;size:128" json:"external_invoice_id"`
	MetadataURI       string             `gorm:"column:metadata_uri;type:text" json:"metadata_uri"`
	Verified          bool               `gorm:"column:verified;not null;default:false" json:"verified"`
	VerifiedVia       VerificationSource `gorm:"column:verified_via;size:16" json:"verified_via,omitempty"`
	VerifiedBy        string             `gorm:"column:verified_by;size:42" json:"verified_by,omitempty"`
	VerifiedAt        *time.Time         `gorm:"column:verified_at" json:"verified_at,omitempty"`
	// Non-nil while a Requested/Funding/Funded loan holds the invoice as collateral.
	ActiveLoanID *uint64   `gorm:"column:active_loan_id;index" json:"active_loan_id"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Invoice) TableName() string { return "invoices" }

func (i *Invoice) Locked() bool { return i.ActiveLoanID != nil }

// MarkVerified is monotonic: it reports false and changes nothing when the
// invoice is already verified.
func (i *Invoice) MarkVerified(by string, via VerificationSource, at time.Time) bool {
	if i.Verified {
		return false
	}
	i.Verified = true
	i.VerifiedBy = by
	i.VerifiedVia = via
	i.VerifiedAt = &at
	return true
}

func (i *Invoice) Lock(loanID uint64) error {
	if i.ActiveLoanID != nil {
		return ErrAlreadyLocked
	}
	id := loanID
	i.ActiveLoanID = &id
	return nil
}

func (i *Invoice) Unlock(loanID uint64) error {
	if i.ActiveLoanID == nil || *i.ActiveLoanID != loanID {
		return ErrLockMismatch
	}
	i.ActiveLoanID = nil
	return nil
}
