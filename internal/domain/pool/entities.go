package pool

import (
	"context"
	"time"

	"invoice-ledger/pkg/amount"
)

// Table: pool_deposits. Lifetime total per depositor.
type Deposit struct {
	Depositor string        `gorm:"column:depositor;primaryKey;size:42" json:"depositor"`
	Amount    amount.Amount `gorm:"column:amount;not null" json:"amount"`
	CreatedAt time.Time     `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time     `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Deposit) TableName() string { return "pool_deposits" }

type Repository interface {
	// GetForUpdate returns a zero deposit for unknown depositors.
	GetForUpdate(ctx context.Context, depositor string) (*Deposit, error)
	Save(ctx context.Context, d *Deposit) error
	List(ctx context.Context) ([]Deposit, error)
}
