package mysql

import (
	"context"

	"invoice-ledger/internal/domain/access"

	"gorm.io/gorm"
)

type GrantRepository struct{ db *gorm.DB }

func NewGrantRepository(db *gorm.DB) *GrantRepository { return &GrantRepository{db: db} }

func (r *GrantRepository) Create(ctx context.Context, g *access.Grant) error {
	return r.db.WithContext(ctx).Create(g).Error
}

func (r *GrantRepository) Delete(ctx context.Context, principal string, role access.Role) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("principal = ? AND role = ?", principal, role).
		Delete(&access.Grant{})
	return res.RowsAffected > 0, res.Error
}

func (r *GrantRepository) HasRole(ctx context.Context, principal string, role access.Role) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&access.Grant{}).
		Where("principal = ? AND role = ?", principal, role).
		Count(&n).Error
	return n > 0, err
}

func (r *GrantRepository) CountByRole(ctx context.Context, role access.Role) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&access.Grant{}).
		Where("role = ?", role).
		Count(&n).Error
	return n, err
}

func (r *GrantRepository) ListByPrincipal(ctx context.Context, principal string) ([]access.Grant, error) {
	var out []access.Grant
	err := r.db.WithContext(ctx).
		Where("principal = ?", principal).
		Order("role ASC").
		Find(&out).Error
	return out, err
}
