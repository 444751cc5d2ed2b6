package loan

import (
	"context"
	"errors"
	"fmt"
	"time"

	"invoice-ledger/internal/domain/access"
	"invoice-ledger/internal/domain/event"
	"invoice-ledger/internal/domain/funds"
	"invoice-ledger/internal/domain/invoice"
	"invoice-ledger/internal/domain/loan"
	"invoice-ledger/internal/domain/uow"
	"invoice-ledger/internal/infrastructure/metrics"
	"invoice-ledger/pkg/amount"
	"invoice-ledger/pkg/principal"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

const tracerName = "invoice-ledger/usecase/loan"

type Usecase struct {
	loans   loan.Repository
	grants  access.Repository
	events  event.Repository
	uow     uow.UnitOfWork
	cfg     Config
	terms   loan.Terms
	now     func() time.Time
	log     logrus.FieldLogger
	metrics *metrics.Ledger
	tracer  trace.Tracer
}

type Option func(*Usecase)

func WithClock(now func() time.Time) Option  { return func(u *Usecase) { u.now = now } }
func WithMetrics(m *metrics.Ledger) Option   { return func(u *Usecase) { u.metrics = m } }
func WithLogger(l logrus.FieldLogger) Option { return func(u *Usecase) { u.log = l } }

func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(u *Usecase) { u.tracer = tp.Tracer(tracerName) }
}

func NewUsecase(loans loan.Repository, grants access.Repository, events event.Repository, tx uow.UnitOfWork, cfg Config, opts ...Option) *Usecase {
	u := &Usecase{
		loans:  loans,
		grants: grants,
		events: events,
		uow:    tx,
		cfg:    cfg,
		terms:  loan.Terms{MaxInterestBps: cfg.MaxInterestBps},
		now:    func() time.Time { return time.Now().UTC() },
		log:    logrus.StandardLogger(),
		tracer: otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Request opens a loan against a verified, unlocked invoice owned by caller
// and locks the invoice to it.
func (u *Usecase) Request(ctx context.Context, caller string, in RequestInput) (_ *LoanDTO, err error) {
	ctx, span := u.tracer.Start(ctx, "loan.Request", trace.WithAttributes(attribute.Int64("invoice.id", int64(in.InvoiceID))))
	defer func() { endSpan(span, err) }()

	if err := u.terms.Validate(in.Principal, in.InterestBps, in.DurationDays); err != nil {
		return nil, err
	}

	var l *loan.Loan
	err = u.uow.WithinTx(ctx, func(r uow.Repos) error {
		inv, err := r.Invoices.GetByIDForUpdate(ctx, in.InvoiceID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return invoice.ErrNotFound
			}
			return err
		}
		if inv.Owner != caller {
			return loan.ErrNotOwner
		}
		if !inv.Verified || inv.Locked() {
			return loan.ErrInvalidCollateral
		}

		now := u.now()
		l = &loan.Loan{
			Borrower:            caller,
			CollateralInvoiceID: inv.ID,
			Principal:           in.Principal,
			InterestBps:         in.InterestBps,
			DurationDays:        in.DurationDays,
			State:               loan.StateRequested,
			StateUpdatedAt:      now,
		}
		if err := r.Loans.Create(ctx, l); err != nil {
			return err
		}
		if err := inv.Lock(l.ID); err != nil {
			return err
		}
		if err := r.Invoices.Save(ctx, inv); err != nil {
			return err
		}
		return u.record(ctx, r, l.ID, event.LoanRequested, caller, "", l.Principal)
	})
	if err != nil {
		return nil, err
	}

	u.metrics.LoanTransition(string(loan.StateRequested))
	u.log.WithFields(logrus.Fields{
		"loan_id": l.ID, "invoice_id": l.CollateralInvoiceID, "actor": caller, "principal": l.Principal.String(),
	}).Info("loan requested")
	return NewLoanDTO(l), nil
}

// FundPartial pulls amt from lender into the treasury and books it against the loan.
func (u *Usecase) FundPartial(ctx context.Context, lender string, id uint64, in FundInput) (_ *LoanDTO, err error) {
	ctx, span := u.tracer.Start(ctx, "loan.FundPartial", trace.WithAttributes(attribute.Int64("loan.id", int64(id))))
	defer func() { endSpan(span, err) }()

	var f *Funding
	err = u.uow.WithinLoanTx(ctx, id, func(r uow.Repos, l *loan.Loan) error {
		var err error
		f, err = u.FundInTx(ctx, r, l, lender, in.Amount)
		return err
	})
	if err != nil {
		return nil, translate(err)
	}
	u.AfterFunding(f)
	return NewLoanDTO(f.Loan), nil
}

// FundInTx applies a contribution to l, which must already be locked in r's
// transaction. Nothing is written when the amount is rejected or the
// transfer fails. Completing the principal disburses it to the borrower.
func (u *Usecase) FundInTx(ctx context.Context, r uow.Repos, l *loan.Loan, lender string, amt amount.Amount) (*Funding, error) {
	// the treasury holds every lender's escrow; a self-transfer moves nothing
	if principal.Same(lender, u.cfg.Treasury) {
		return nil, loan.ErrCustodyAccount
	}
	next := *l
	completed, err := next.ApplyFunding(amt, u.now())
	if err != nil {
		return nil, err
	}
	if err := funds.TransferFrom(ctx, r.Funds, u.cfg.Treasury, lender, u.cfg.Treasury, amt); err != nil {
		return nil, err
	}

	c, err := r.Loans.GetContribution(ctx, l.ID, lender)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		c = &loan.Contribution{LoanID: l.ID, Lender: lender}
	case err != nil:
		return nil, err
	}
	// bounded by the principal, so no overflow
	c.Amount, _ = c.Amount.Add(amt)
	if err := r.Loans.SaveContribution(ctx, c); err != nil {
		return nil, err
	}

	f := &Funding{Lender: lender, Amount: amt, Started: l.State == loan.StateRequested, Completed: completed}
	*l = next
	if err := r.Loans.Save(ctx, l); err != nil {
		return nil, err
	}
	if err := u.record(ctx, r, l.ID, event.LoanFundedPartial, lender, "", amt); err != nil {
		return nil, err
	}
	if completed {
		if err := funds.TransferFrom(ctx, r.Funds, u.cfg.Treasury, u.cfg.Treasury, l.Borrower, l.Principal); err != nil {
			return nil, fmt.Errorf("disburse principal: %w", err)
		}
		if err := u.record(ctx, r, l.ID, event.LoanFunded, lender, l.Borrower, l.Principal); err != nil {
			return nil, err
		}
	}
	f.Loan = l
	return f, nil
}

// AfterFunding emits logs and metrics once the funding transaction committed.
func (u *Usecase) AfterFunding(f *Funding) {
	u.metrics.Volume("funded", f.Amount)
	fields := logrus.Fields{"loan_id": f.Loan.ID, "lender": f.Lender, "amount": f.Amount.String()}
	if f.Started {
		u.metrics.LoanTransition(string(loan.StateFunding))
	}
	u.log.WithFields(fields).Info("loan funded partially")
	if f.Completed {
		u.metrics.LoanTransition(string(loan.StateFunded))
		u.metrics.Volume("disbursed", f.Loan.Principal)
		u.log.WithFields(fields).WithField("due_date", f.Loan.DueDate).Info("loan fully funded")
	}
}

// TotalDue is defined once a loan is funded and stays fixed afterwards.
func (u *Usecase) TotalDue(ctx context.Context, id uint64) (amount.Amount, error) {
	l, err := u.loans.GetByID(ctx, id)
	if err != nil {
		return amount.Zero(), translate(err)
	}
	if !hasDue(l.State) {
		return amount.Zero(), fmt.Errorf("%w: state %s", loan.ErrNotFunded, l.State)
	}
	return loan.TotalDue(l.Principal, l.InterestBps)
}

// Repay collects the total due from payer, pays the protocol fee and the
// lenders' pro-rata shares, then releases the collateral. Anyone may repay.
func (u *Usecase) Repay(ctx context.Context, payer string, id uint64) (_ *RepaymentDTO, err error) {
	ctx, span := u.tracer.Start(ctx, "loan.Repay", trace.WithAttributes(attribute.Int64("loan.id", int64(id))))
	defer func() { endSpan(span, err) }()

	if principal.Same(payer, u.cfg.Treasury) {
		return nil, loan.ErrCustodyAccount
	}
	var (
		out *loan.Loan
		s   loan.Settlement
	)
	err = u.uow.WithinLoanTx(ctx, id, func(r uow.Repos, l *loan.Loan) error {
		if l.State != loan.StateFunded {
			return fmt.Errorf("%w: state %s", loan.ErrNotFunded, l.State)
		}
		due, err := loan.TotalDue(l.Principal, l.InterestBps)
		if err != nil {
			return err
		}
		contributions, err := r.Loans.ListContributions(ctx, l.ID)
		if err != nil {
			return err
		}
		if s, err = loan.Settle(due, u.cfg.FeeBps, contributions, l.TotalFunded); err != nil {
			return err
		}

		treasury := u.cfg.Treasury
		if err := funds.TransferFrom(ctx, r.Funds, treasury, payer, treasury, due); err != nil {
			return err
		}
		if !s.Fee.IsZero() {
			if err := funds.TransferFrom(ctx, r.Funds, treasury, treasury, u.cfg.FeeReceiver, s.Fee); err != nil {
				return fmt.Errorf("pay fee: %w", err)
			}
		}
		for _, sh := range s.Shares {
			if sh.Amount.IsZero() {
				continue
			}
			if err := funds.TransferFrom(ctx, r.Funds, treasury, treasury, sh.Lender, sh.Amount); err != nil {
				return fmt.Errorf("pay lender %s: %w", sh.Lender, err)
			}
		}

		if err := l.MarkRepaid(u.now()); err != nil {
			return err
		}
		if err := u.release(ctx, r, l); err != nil {
			return err
		}
		out = l
		return u.record(ctx, r, l.ID, event.LoanRepaid, payer, "", due)
	})
	if err != nil {
		return nil, translate(err)
	}

	u.metrics.LoanTransition(string(loan.StateRepaid))
	u.metrics.Volume("repaid", s.Due)
	u.metrics.Volume("fee", s.Fee)
	u.log.WithFields(logrus.Fields{
		"loan_id": id, "actor": payer, "due": s.Due.String(), "fee": s.Fee.String(), "remainder_to": s.Designated,
	}).Info("loan repaid")
	return &RepaymentDTO{Loan: NewLoanDTO(out), Payer: payer, Settlement: s}, nil
}

// MarkDefault closes an overdue funded loan and releases its collateral.
// No funds move.
func (u *Usecase) MarkDefault(ctx context.Context, caller string, id uint64) (_ *LoanDTO, err error) {
	ctx, span := u.tracer.Start(ctx, "loan.MarkDefault", trace.WithAttributes(attribute.Int64("loan.id", int64(id))))
	defer func() { endSpan(span, err) }()

	var out *loan.Loan
	err = u.uow.WithinTx(ctx, func(r uow.Repos) error {
		if err := access.Require(ctx, r.Grants, caller, access.RoleAdmin, access.RoleOracle); err != nil {
			return err
		}
		l, err := r.Loans.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := l.MarkDefaulted(u.now()); err != nil {
			return err
		}
		if err := u.release(ctx, r, l); err != nil {
			return err
		}
		out = l
		return u.record(ctx, r, l.ID, event.LoanDefaulted, caller, l.Borrower, l.TotalFunded)
	})
	if err != nil {
		return nil, translate(err)
	}

	u.metrics.LoanTransition(string(loan.StateDefaulted))
	u.log.WithFields(logrus.Fields{"loan_id": id, "actor": caller, "due_date": out.DueDate}).Warn("loan defaulted")
	return NewLoanDTO(out), nil
}

// Cancel withdraws a loan nobody has funded yet. Borrower or admin only.
func (u *Usecase) Cancel(ctx context.Context, caller string, id uint64) (_ *LoanDTO, err error) {
	ctx, span := u.tracer.Start(ctx, "loan.Cancel", trace.WithAttributes(attribute.Int64("loan.id", int64(id))))
	defer func() { endSpan(span, err) }()

	var out *loan.Loan
	err = u.uow.WithinLoanTx(ctx, id, func(r uow.Repos, l *loan.Loan) error {
		if l.Borrower != caller {
			if err := access.Require(ctx, r.Grants, caller, access.RoleAdmin); err != nil {
				return err
			}
		}
		if err := l.Cancel(u.now()); err != nil {
			return err
		}
		if err := u.release(ctx, r, l); err != nil {
			return err
		}
		out = l
		return u.record(ctx, r, l.ID, event.LoanCancelled, caller, "", amount.Zero())
	})
	if err != nil {
		return nil, translate(err)
	}

	u.metrics.LoanTransition(string(loan.StateCancelled))
	u.log.WithFields(logrus.Fields{"loan_id": id, "actor": caller}).Info("loan cancelled")
	return NewLoanDTO(out), nil
}

// SweepOverdue defaults every overdue funded loan, one transaction each.
// Loans that changed state since the scan are skipped.
func (u *Usecase) SweepOverdue(ctx context.Context, caller string) (*SweepResult, error) {
	if err := access.Require(ctx, u.grants, caller, access.RoleAdmin, access.RoleOracle); err != nil {
		return nil, err
	}
	overdue, err := u.loans.ListOverdue(ctx, u.now())
	if err != nil {
		return nil, err
	}

	res := &SweepResult{Defaulted: []uint64{}, Skipped: []uint64{}}
	for _, l := range overdue {
		_, err := u.MarkDefault(ctx, caller, l.ID)
		switch {
		case err == nil:
			res.Defaulted = append(res.Defaulted, l.ID)
		case errors.Is(err, loan.ErrNotFunded), errors.Is(err, loan.ErrNotOverdue):
			res.Skipped = append(res.Skipped, l.ID)
		default:
			if res.Failed == nil {
				res.Failed = map[uint64]string{}
			}
			res.Failed[l.ID] = err.Error()
			u.log.WithError(err).WithField("loan_id", l.ID).Error("sweep: default failed")
		}
	}
	return res, nil
}

func (u *Usecase) release(ctx context.Context, r uow.Repos, l *loan.Loan) error {
	inv, err := r.Invoices.GetByIDForUpdate(ctx, l.CollateralInvoiceID)
	if err != nil {
		return fmt.Errorf("load collateral %d: %w", l.CollateralInvoiceID, err)
	}
	if err := inv.Unlock(l.ID); err != nil {
		return err
	}
	if err := r.Invoices.Save(ctx, inv); err != nil {
		return err
	}
	return r.Loans.Save(ctx, l)
}

func (u *Usecase) record(ctx context.Context, r uow.Repos, id uint64, typ event.Type, actor, counterparty string, amt amount.Amount) error {
	return r.Events.Append(ctx, &event.Event{
		Subject:      event.SubjectLoan,
		SubjectID:    id,
		Type:         typ,
		Actor:        actor,
		Counterparty: counterparty,
		Amount:       amt,
		CreatedAt:    u.now(),
	})
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %v", loan.ErrNotFound, err)
	}
	return err
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
