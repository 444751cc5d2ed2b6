package mysql

import (
	"context"
	"errors"

	"invoice-ledger/internal/domain/funds"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type FundsRepository struct{ db *gorm.DB }

func NewFundsRepository(db *gorm.DB) *FundsRepository { return &FundsRepository{db: db} }

func (r *FundsRepository) GetBalance(ctx context.Context, account string) (*funds.Balance, error) {
	return r.balance(r.db.WithContext(ctx), account)
}

func (r *FundsRepository) GetBalanceForUpdate(ctx context.Context, account string) (*funds.Balance, error) {
	return r.balance(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), account)
}

func (r *FundsRepository) balance(q *gorm.DB, account string) (*funds.Balance, error) {
	var out funds.Balance
	err := q.Where("account = ?", account).First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &funds.Balance{Account: account}, nil
	}
	return &out, err
}

// SaveBalance upserts on the account key.
func (r *FundsRepository) SaveBalance(ctx context.Context, b *funds.Balance) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "account"}},
		DoUpdates: clause.AssignmentColumns([]string{"amount", "updated_at"}),
	}).Create(b).Error
}

func (r *FundsRepository) GetAllowance(ctx context.Context, owner, spender string) (*funds.Allowance, error) {
	return r.allowance(r.db.WithContext(ctx), owner, spender)
}

func (r *FundsRepository) GetAllowanceForUpdate(ctx context.Context, owner, spender string) (*funds.Allowance, error) {
	return r.allowance(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), owner, spender)
}

func (r *FundsRepository) allowance(q *gorm.DB, owner, spender string) (*funds.Allowance, error) {
	var out funds.Allowance
	err := q.Where("owner = ? AND spender = ?", owner, spender).First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &funds.Allowance{Owner: owner, Spender: spender}, nil
	}
	return &out, err
}

func (r *FundsRepository) SaveAllowance(ctx context.Context, a *funds.Allowance) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "owner"}, {Name: "spender"}},
		DoUpdates: clause.AssignmentColumns([]string{"amount", "updated_at"}),
	}).Create(a).Error
}
