package access

import (
	"context"
	"fmt"
)

type Repository interface {
	// Create inserts a grant; (principal, role) is unique.
	Create(ctx context.Context, g *Grant) error
	// Delete removes a grant and reports whether one existed.
	Delete(ctx context.Context, principal string, role Role) (bool, error)
	HasRole(ctx context.Context, principal string, role Role) (bool, error)
	CountByRole(ctx context.Context, role Role) (int64, error)
	ListByPrincipal(ctx context.Context, principal string) ([]Grant, error)
}

// Require passes when principal holds at least one of roles.
func Require(ctx context.Context, r Repository, principal string, roles ...Role) error {
	for _, role := range roles {
		ok, err := r.HasRole(ctx, principal, role)
		if err != nil {
			return fmt.Errorf("check role %s: %w", role, err)
		}
		if ok {
			return nil
		}
	}
	return ErrUnauthorized
}
