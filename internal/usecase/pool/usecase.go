package pool

import (
	"context"
	"errors"
	"fmt"
	"time"

	"invoice-ledger/internal/domain/access"
	"invoice-ledger/internal/domain/event"
	"invoice-ledger/internal/domain/funds"
	"invoice-ledger/internal/domain/loan"
	"invoice-ledger/internal/domain/pool"
	"invoice-ledger/internal/domain/uow"
	"invoice-ledger/internal/infrastructure/metrics"
	loanuc "invoice-ledger/internal/usecase/loan"
	"invoice-ledger/pkg/amount"
	"invoice-ledger/pkg/errs"
	"invoice-ledger/pkg/principal"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	ErrInvalidAmount = loan.ErrInvalidAmount
	ErrSelfDeposit   = errs.New(errs.ErrValidation, "the pool account cannot deposit into itself")
)

// Funder applies a contribution inside an open loan transaction.
type Funder interface {
	FundInTx(ctx context.Context, r uow.Repos, l *loan.Loan, lender string, amt amount.Amount) (*loanuc.Funding, error)
	AfterFunding(f *loanuc.Funding)
}

type Config struct {
	// Address is the pool's own account; it lends like any other lender.
	Address  string
	Treasury string
}

type Usecase struct {
	deposits pool.Repository
	funds    funds.Repository
	events   event.Repository
	uow      uow.UnitOfWork
	loans    Funder
	cfg      Config
	now      func() time.Time
	log      logrus.FieldLogger
	metrics  *metrics.Ledger
}

type Option func(*Usecase)

func WithClock(now func() time.Time) Option  { return func(u *Usecase) { u.now = now } }
func WithMetrics(m *metrics.Ledger) Option   { return func(u *Usecase) { u.metrics = m } }
func WithLogger(l logrus.FieldLogger) Option { return func(u *Usecase) { u.log = l } }

func NewUsecase(deposits pool.Repository, fundsRepo funds.Repository, events event.Repository, tx uow.UnitOfWork, loans Funder, cfg Config, opts ...Option) *Usecase {
	u := &Usecase{
		deposits: deposits,
		funds:    fundsRepo,
		events:   events,
		uow:      tx,
		loans:    loans,
		cfg:      cfg,
		now:      func() time.Time { return time.Now().UTC() },
		log:      logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

type DepositInput struct {
	Amount amount.Amount `json:"amount" validate:"amount"`
}

type FundLoanInput struct {
	LoanID uint64        `json:"loan_id" validate:"required"`
	Amount amount.Amount `json:"amount" validate:"amount"`
}

type SummaryDTO struct {
	Address       string        `json:"address"`
	TotalDeposits amount.Amount `json:"total_deposits"`
	// Balance is what the pool can still lend.
	Balance  amount.Amount  `json:"balance"`
	Deposits []pool.Deposit `json:"deposits"`
}

// Deposit pulls amt from caller into the pool. The caller must have
// approved the pool account beforehand.
func (u *Usecase) Deposit(ctx context.Context, caller string, in DepositInput) (*pool.Deposit, error) {
	if in.Amount.IsZero() {
		return nil, ErrInvalidAmount
	}
	if principal.Same(caller, u.cfg.Address) {
		return nil, ErrSelfDeposit
	}
	var out *pool.Deposit
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		if err := funds.TransferFrom(ctx, r.Funds, u.cfg.Address, caller, u.cfg.Address, in.Amount); err != nil {
			return err
		}
		d, err := r.Pools.GetForUpdate(ctx, caller)
		if err != nil {
			return err
		}
		next, overflow := d.Amount.Add(in.Amount)
		if overflow {
			return funds.ErrOverflow
		}
		d.Amount = next
		if err := r.Pools.Save(ctx, d); err != nil {
			return err
		}
		out = d
		return r.Events.Append(ctx, &event.Event{
			Subject:   event.SubjectPool,
			Type:      event.PoolDeposited,
			Actor:     caller,
			Amount:    in.Amount,
			CreatedAt: u.now(),
		})
	})
	if err != nil {
		return nil, err
	}
	u.metrics.Volume("pool_deposit", in.Amount)
	u.log.WithFields(logrus.Fields{"actor": caller, "amount": in.Amount.String()}).Info("pool deposit")
	return out, nil
}

// FundLoan lends from the pool balance through the regular funding path.
// Admin only.
func (u *Usecase) FundLoan(ctx context.Context, caller string, in FundLoanInput) (*loanuc.LoanDTO, error) {
	var f *loanuc.Funding
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		if err := access.Require(ctx, r.Grants, caller, access.RoleAdmin); err != nil {
			return err
		}
		l, err := r.Loans.GetByIDForUpdate(ctx, in.LoanID)
		if err != nil {
			return err
		}
		if err := funds.Approve(ctx, r.Funds, u.cfg.Address, u.cfg.Treasury, in.Amount); err != nil {
			return err
		}
		f, err = u.loans.FundInTx(ctx, r, l, u.cfg.Address, in.Amount)
		return err
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %v", loan.ErrNotFound, err)
		}
		return nil, err
	}
	u.loans.AfterFunding(f)
	u.log.WithFields(logrus.Fields{"loan_id": in.LoanID, "actor": caller, "amount": in.Amount.String()}).Info("pool funded loan")
	return loanuc.NewLoanDTO(f.Loan), nil
}

// TotalDeposits is the lifetime sum of deposits. Lending does not reduce it.
func (u *Usecase) TotalDeposits(ctx context.Context) (amount.Amount, error) {
	rows, err := u.deposits.List(ctx)
	if err != nil {
		return amount.Zero(), err
	}
	total := amount.Zero()
	for _, d := range rows {
		var overflow bool
		if total, overflow = total.Add(d.Amount); overflow {
			return amount.Zero(), funds.ErrOverflow
		}
	}
	return total, nil
}

func (u *Usecase) Summary(ctx context.Context) (*SummaryDTO, error) {
	rows, err := u.deposits.List(ctx)
	if err != nil {
		return nil, err
	}
	total, err := u.TotalDeposits(ctx)
	if err != nil {
		return nil, err
	}
	bal, err := u.funds.GetBalance(ctx, u.cfg.Address)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []pool.Deposit{}
	}
	return &SummaryDTO{Address: u.cfg.Address, TotalDeposits: total, Balance: bal.Amount, Deposits: rows}, nil
}

func (u *Usecase) Events(ctx context.Context) ([]event.Event, error) {
	out, err := u.events.ListBySubject(ctx, event.SubjectPool, 0)
	if out == nil {
		out = []event.Event{}
	}
	return out, err
}
