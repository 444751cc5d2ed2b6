package mysql

import (
	"context"
	"errors"

	"invoice-ledger/internal/domain/pool"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PoolRepository struct{ db *gorm.DB }

func NewPoolRepository(db *gorm.DB) *PoolRepository { return &PoolRepository{db: db} }

func (r *PoolRepository) GetForUpdate(ctx context.Context, depositor string) (*pool.Deposit, error) {
	var out pool.Deposit
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("depositor = ?", depositor).
		First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &pool.Deposit{Depositor: depositor}, nil
	}
	return &out, err
}

func (r *PoolRepository) Save(ctx context.Context, d *pool.Deposit) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "depositor"}},
		DoUpdates: clause.AssignmentColumns([]string{"amount", "updated_at"}),
	}).Create(d).Error
}

func (r *PoolRepository) List(ctx context.Context) ([]pool.Deposit, error) {
	var out []pool.Deposit
	err := r.db.WithContext(ctx).Order("depositor ASC").Find(&out).Error
	return out, err
}
