package event

import (
	"context"
	"time"

	"invoice-ledger/pkg/amount"
)

type Subject string

const (
	SubjectInvoice Subject = "invoice"
	SubjectLoan    Subject = "loan"
	SubjectPool    Subject = "pool"
)

type Type string

const (
	InvoiceMinted      Type = "InvoiceMinted"
	InvoiceVerified    Type = "InvoiceVerified"
	InvoiceTransferred Type = "InvoiceTransferred"
	LoanRequested      Type = "LoanRequested"
	LoanFundedPartial  Type = "LoanFundedPartial"
	LoanFunded         Type = "LoanFunded"
	LoanRepaid         Type = "LoanRepaid"
	LoanDefaulted      Type = "LoanDefaulted"
	LoanCancelled      Type = "LoanCancelled"
	PoolDeposited      Type = "PoolDeposited"
)

// Table: ledger_events. Seq orders events; EventID is the public identifier.
type Event struct {
	Seq          uint64        `gorm:"column:seq;primaryKey;autoIncrement" json:"-"`
	EventID      string        `gorm:"column:event_id;size:32;not null;uniqueIndex" json:"id"`
	Subject      Subject       `gorm:"column:subject;size:16;not null;index:idx_events_subject" json:"subject"`
	SubjectID    uint64        `gorm:"column:subject_id;not null;index:idx_events_subject" json:"subject_id"`
	Type         Type          `gorm:"column:type;size:32;not null" json:"type"`
	Actor        string        `gorm:"column:actor;size:42;not null" json:"actor"`
	Counterparty string        `gorm:"column:counterparty;size:42" json:"counterparty,omitempty"`
	Amount       amount.Amount `gorm:"column:amount;not null" json:"amount"`
	CreatedAt    time.Time     `gorm:"column:created_at" json:"created_at"`
}

func (Event) TableName() string { return "ledger_events" }

type Repository interface {
	// Append assigns EventID when empty.
	Append(ctx context.Context, e *Event) error
	ListBySubject(ctx context.Context, subject Subject, subjectID uint64) ([]Event, error)
}
