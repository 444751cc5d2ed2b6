package invoice

import (
	"context"
	"errors"
	"fmt"
	"time"

	"invoice-ledger/internal/domain/access"
	"invoice-ledger/internal/domain/event"
	"invoice-ledger/internal/domain/invoice"
	"invoice-ledger/internal/domain/uow"
	"invoice-ledger/internal/infrastructure/metrics"
	"invoice-ledger/pkg/amount"
	"invoice-ledger/pkg/principal"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const maxExternalIDLen = 128

type Usecase struct {
	invoices invoice.Repository
	events   event.Repository
	uow      uow.UnitOfWork
	now      func() time.Time
	log      logrus.FieldLogger
	metrics  *metrics.Ledger
}

type Option func(*Usecase)

func WithClock(now func() time.Time) Option { return func(u *Usecase) { u.now = now } }
func WithMetrics(m *metrics.Ledger) Option   { return func(u *Usecase) { u.metrics = m } }
func WithLogger(l logrus.FieldLogger) Option { return func(u *Usecase) { u.log = l } }

func NewUsecase(invoices invoice.Repository, events event.Repository, tx uow.UnitOfWork, opts ...Option) *Usecase {
	u := &Usecase{
		invoices: invoices,
		events:   events,
		uow:      tx,
		now:      func() time.Time { return time.Now().UTC() },
		log:      logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

type MintInput struct {
	Owner             string        `json:"owner" validate:"required,address"`
	Amount            amount.Amount `json:"amount" validate:"amount"`
	DueDate           time.Time     `json:"due_date" validate:"required"`
	ExternalInvoiceID string        `json:"external_invoice_id" validate:"max=128"`
	MetadataURI       string        `json:"metadata_uri"`
}

type TransferInput struct {
	To string `json:"to" validate:"required,address"`
}

// Mint registers an unverified, unlocked invoice for in.Owner. Any caller may mint.
func (u *Usecase) Mint(ctx context.Context, caller string, in MintInput) (*invoice.Invoice, error) {
	owner, err := principal.Normalize(in.Owner)
	if err != nil {
		return nil, errors.Join(invoice.ErrInvalidOwner, err)
	}
	now := u.now()
	switch {
	case in.Amount.IsZero():
		return nil, invoice.ErrInvalidAmount
	case !in.DueDate.After(now):
		return nil, invoice.ErrDueDateInPast
	case len(in.ExternalInvoiceID) > maxExternalIDLen:
		return nil, invoice.ErrExternalIDTooLong
	}

	inv := &invoice.Invoice{
		Owner:             owner,
		Amount:            in.Amount,
		DueDate:           in.DueDate.UTC(),
		ExternalInvoiceID: in.ExternalInvoiceID,
		MetadataURI:       in.MetadataURI,
	}
	err = u.uow.WithinTx(ctx, func(r uow.Repos) error {
		if err := r.Invoices.Create(ctx, inv); err != nil {
			return err
		}
		return u.record(ctx, r, inv.ID, event.InvoiceMinted, caller, owner, inv.Amount)
	})
	if err != nil {
		return nil, err
	}

	u.metrics.InvoiceEvent("minted")
	u.log.WithFields(logrus.Fields{"invoice_id": inv.ID, "owner": owner, "actor": caller}).Info("invoice minted")
	return inv, nil
}

// Verify marks the invoice verified on an attestor's authority.
func (u *Usecase) Verify(ctx context.Context, caller string, id uint64) (*invoice.Invoice, error) {
	return u.verify(ctx, caller, id, access.RoleAttestor, invoice.VerifiedByAttestor)
}

// VerifyByOracle is the oracle-gated twin of Verify.
func (u *Usecase) VerifyByOracle(ctx context.Context, caller string, id uint64) (*invoice.Invoice, error) {
	return u.verify(ctx, caller, id, access.RoleOracle, invoice.VerifiedByOracle)
}

func (u *Usecase) verify(ctx context.Context, caller string, id uint64, role access.Role, via invoice.VerificationSource) (*invoice.Invoice, error) {
	var (
		inv     *invoice.Invoice
		changed bool
	)
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		if err := access.Require(ctx, r.Grants, caller, role); err != nil {
			return err
		}
		var err error
		if inv, err = lockInvoice(ctx, r, id); err != nil {
			return err
		}
		if changed = inv.MarkVerified(caller, via, u.now()); !changed {
			return nil
		}
		if err := r.Invoices.Save(ctx, inv); err != nil {
			return err
		}
		return u.record(ctx, r, id, event.InvoiceVerified, caller, "", amount.Zero())
	})
	if err != nil {
		return nil, err
	}
	if changed {
		u.metrics.InvoiceEvent("verified")
		u.log.WithFields(logrus.Fields{"invoice_id": id, "actor": caller, "via": via}).Info("invoice verified")
	}
	return inv, nil
}

// Transfer hands an unlocked invoice to a new owner.
func (u *Usecase) Transfer(ctx context.Context, caller string, id uint64, in TransferInput) (*invoice.Invoice, error) {
	to, err := principal.Normalize(in.To)
	if err != nil {
		return nil, errors.Join(invoice.ErrInvalidOwner, err)
	}
	var inv *invoice.Invoice
	err = u.uow.WithinTx(ctx, func(r uow.Repos) error {
		var err error
		if inv, err = lockInvoice(ctx, r, id); err != nil {
			return err
		}
		if inv.Owner != caller {
			return invoice.ErrNotOwner
		}
		if inv.Locked() {
			return invoice.ErrLocked
		}
		inv.Owner = to
		if err := r.Invoices.Save(ctx, inv); err != nil {
			return err
		}
		return u.record(ctx, r, id, event.InvoiceTransferred, caller, to, amount.Zero())
	})
	if err != nil {
		return nil, err
	}
	u.log.WithFields(logrus.Fields{"invoice_id": id, "from": caller, "to": to}).Info("invoice transferred")
	return inv, nil
}

func (u *Usecase) Get(ctx context.Context, id uint64) (*invoice.Invoice, error) {
	inv, err := u.invoices.GetByID(ctx, id)
	if err != nil {
		return nil, translate(err)
	}
	return inv, nil
}

func (u *Usecase) OwnerOf(ctx context.Context, id uint64) (string, error) {
	inv, err := u.Get(ctx, id)
	if err != nil {
		return "", err
	}
	return inv.Owner, nil
}

// List returns every invoice, or only owner's when owner is set.
func (u *Usecase) List(ctx context.Context, owner string) ([]invoice.Invoice, error) {
	if owner != "" {
		p, err := principal.Normalize(owner)
		if err != nil {
			return nil, errors.Join(invoice.ErrInvalidOwner, err)
		}
		owner = p
	}
	out, err := u.invoices.ListByOwner(ctx, owner)
	if out == nil {
		out = []invoice.Invoice{}
	}
	return out, err
}

func (u *Usecase) Events(ctx context.Context, id uint64) ([]event.Event, error) {
	if _, err := u.Get(ctx, id); err != nil {
		return nil, err
	}
	out, err := u.events.ListBySubject(ctx, event.SubjectInvoice, id)
	if out == nil {
		out = []event.Event{}
	}
	return out, err
}

func (u *Usecase) record(ctx context.Context, r uow.Repos, id uint64, typ event.Type, actor, counterparty string, amt amount.Amount) error {
	return r.Events.Append(ctx, &event.Event{
		Subject:      event.SubjectInvoice,
		SubjectID:    id,
		Type:         typ,
		Actor:        actor,
		Counterparty: counterparty,
		Amount:       amt,
		CreatedAt:    u.now(),
	})
}

func lockInvoice(ctx context.Context, r uow.Repos, id uint64) (*invoice.Invoice, error) {
	inv, err := r.Invoices.GetByIDForUpdate(ctx, id)
	if err != nil {
		return nil, translate(err)
	}
	return inv, nil
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %v", invoice.ErrNotFound, err)
	}
	return err
}
