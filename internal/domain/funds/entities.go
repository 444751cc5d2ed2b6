package funds

import (
	"time"

	"invoice-ledger/pkg/amount"
	"invoice-ledger/pkg/errs"
)

var (
	ErrInsufficientBalance   = errs.New(errs.ErrTransfer, "insufficient balance")
	ErrInsufficientAllowance = errs.New(errs.ErrTransfer, "insufficient allowance")
	ErrInvalidAmount         = errs.New(errs.ErrValidation, "transfer amount must be positive")
	ErrOverflow              = errs.New(errs.ErrTransfer, "balance overflow")
)

// Table: balances
type Balance struct {
	Account   string        `gorm:"column:account;primaryKey;size:42" json:"account"`
	Amount    amount.Amount `gorm:"column:amount;not null" json:"amount"`
	UpdatedAt time.Time     `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Balance) TableName() string { return "balances" }

// Table: allowances
type Allowance struct {
	Owner     string        `gorm:"column:owner;primaryKey;size:42" json:"owner"`
	Spender   string        `gorm:"column:spender;primaryKey;size:42" json:"spender"`
	Amount    amount.Amount `gorm:"column:amount;not null" json:"amount"`
	UpdatedAt time.Time     `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Allowance) TableName() string { return "allowances" }
