package accessmock

import (
	"context"

	"invoice-ledger/internal/domain/access"
)

var _ access.Repository = (*Repo)(nil)

// Repo is a function-backed mock that satisfies access.Repository.
// HasRole falls back to the Roles table when HasRoleFn is unset.
type Repo struct {
	Roles map[string][]access.Role

	CreateFn          func(ctx context.Context, g *access.Grant) error
	DeleteFn          func(ctx context.Context, principal string, role access.Role) (bool, error)
	HasRoleFn         func(ctx context.Context, principal string, role access.Role) (bool, error)
	CountByRoleFn     func(ctx context.Context, role access.Role) (int64, error)
	ListByPrincipalFn func(ctx context.Context, principal string) ([]access.Grant, error)
}

func (m *Repo) Create(ctx context.Context, g *access.Grant) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, g)
	}
	return nil
}

func (m *Repo) Delete(ctx context.Context, principal string, role access.Role) (bool, error) {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, principal, role)
	}
	return false, nil
}

func (m *Repo) HasRole(ctx context.Context, principal string, role access.Role) (bool, error) {
	if m.HasRoleFn != nil {
		return m.HasRoleFn(ctx, principal, role)
	}
	for _, r := range m.Roles[principal] {
		if r == role {
			return true, nil
		}
	}
	return false, nil
}

func (m *Repo) CountByRole(ctx context.Context, role access.Role) (int64, error) {
	if m.CountByRoleFn != nil {
		return m.CountByRoleFn(ctx, role)
	}
	return 0, nil
}

func (m *Repo) ListByPrincipal(ctx context.Context, principal string) ([]access.Grant, error) {
	if m.ListByPrincipalFn != nil {
		return m.ListByPrincipalFn(ctx, principal)
	}
	return nil, nil
}
