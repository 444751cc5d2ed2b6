package funds

import (
	"context"
	"errors"

	"invoice-ledger/internal/domain/access"
	"invoice-ledger/internal/domain/funds"
	"invoice-ledger/internal/domain/uow"
	"invoice-ledger/pkg/amount"
	"invoice-ledger/pkg/errs"
	"invoice-ledger/pkg/principal"

	"github.com/sirupsen/logrus"
)

var ErrInvalidAccount = errs.New(errs.ErrValidation, "invalid account")

type Usecase struct {
	funds funds.Repository
	uow   uow.UnitOfWork
	log   logrus.FieldLogger
}

func NewUsecase(repo funds.Repository, tx uow.UnitOfWork, log logrus.FieldLogger) *Usecase {
	return &Usecase{funds: repo, uow: tx, log: log}
}

type ApproveInput struct {
	Spender string        `json:"spender" validate:"required,address"`
	Amount  amount.Amount `json:"amount"`
}

type MintInput struct {
	Account string        `json:"account" validate:"required,address"`
	Amount  amount.Amount `json:"amount" validate:"amount"`
}

// Approve sets how much spender may pull from owner. Zero revokes.
func (u *Usecase) Approve(ctx context.Context, owner string, in ApproveInput) (*funds.Allowance, error) {
	spender, err := principal.Normalize(in.Spender)
	if err != nil {
		return nil, errors.Join(ErrInvalidAccount, err)
	}
	err = u.uow.WithinTx(ctx, func(r uow.Repos) error {
		return funds.Approve(ctx, r.Funds, owner, spender, in.Amount)
	})
	if err != nil {
		return nil, err
	}
	u.log.WithFields(logrus.Fields{"owner": owner, "spender": spender, "amount": in.Amount.String()}).Info("allowance set")
	return u.funds.GetAllowance(ctx, owner, spender)
}

// Mint issues test funds. Admin only.
func (u *Usecase) Mint(ctx context.Context, caller string, in MintInput) (*funds.Balance, error) {
	account, err := principal.Normalize(in.Account)
	if err != nil {
		return nil, errors.Join(ErrInvalidAccount, err)
	}
	err = u.uow.WithinTx(ctx, func(r uow.Repos) error {
		if err := access.Require(ctx, r.Grants, caller, access.RoleAdmin); err != nil {
			return err
		}
		return funds.Credit(ctx, r.Funds, account, in.Amount)
	})
	if err != nil {
		return nil, err
	}
	u.log.WithFields(logrus.Fields{"actor": caller, "account": account, "amount": in.Amount.String()}).Info("funds minted")
	return u.funds.GetBalance(ctx, account)
}

func (u *Usecase) Balance(ctx context.Context, account string) (*funds.Balance, error) {
	p, err := principal.Normalize(account)
	if err != nil {
		return nil, errors.Join(ErrInvalidAccount, err)
	}
	return u.funds.GetBalance(ctx, p)
}

func (u *Usecase) Allowance(ctx context.Context, owner, spender string) (*funds.Allowance, error) {
	o, err := principal.Normalize(owner)
	if err != nil {
		return nil, errors.Join(ErrInvalidAccount, err)
	}
	s, err := principal.Normalize(spender)
	if err != nil {
		return nil, errors.Join(ErrInvalidAccount, err)
	}
	return u.funds.GetAllowance(ctx, o, s)
}
