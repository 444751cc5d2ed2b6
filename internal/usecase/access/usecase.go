package access

import (
	"context"
	"errors"
	"fmt"

	"invoice-ledger/internal/domain/access"
	"invoice-ledger/internal/domain/uow"
	"invoice-ledger/pkg/principal"

	"github.com/sirupsen/logrus"
)

type Usecase struct {
	grants access.Repository
	uow    uow.UnitOfWork
	log    logrus.FieldLogger
}

func NewUsecase(grants access.Repository, tx uow.UnitOfWork, log logrus.FieldLogger) *Usecase {
	return &Usecase{grants: grants, uow: tx, log: log}
}

type GrantInput struct {
	Principal string      `json:"principal" validate:"required,address"`
	Role      access.Role `json:"role" validate:"required"`
}

type RolesDTO struct {
	Principal string        `json:"principal"`
	Roles     []access.Role `json:"roles"`
}

// Bootstrap makes admin the role admin when nobody holds that role yet.
func (u *Usecase) Bootstrap(ctx context.Context, admin string) error {
	admin, err := principal.Normalize(admin)
	if err != nil {
		return fmt.Errorf("role admin: %w", err)
	}
	return u.uow.WithinTx(ctx, func(r uow.Repos) error {
		n, err := r.Grants.CountByRole(ctx, access.RoleRoleAdmin)
		if err != nil {
			return err
		}
		if n > 0 {
			return nil
		}
		u.log.WithField("principal", admin).Info("bootstrapping role admin")
		return r.Grants.Create(ctx, &access.Grant{Principal: admin, Role: access.RoleRoleAdmin, GrantedBy: admin})
	})
}

// Grant is idempotent: granting a held role succeeds without a new row.
func (u *Usecase) Grant(ctx context.Context, caller string, in GrantInput) (*RolesDTO, error) {
	target, err := u.checkInput(in)
	if err != nil {
		return nil, err
	}
	err = u.uow.WithinTx(ctx, func(r uow.Repos) error {
		if err := access.Require(ctx, r.Grants, caller, access.RoleRoleAdmin); err != nil {
			return err
		}
		held, err := r.Grants.HasRole(ctx, target, in.Role)
		if err != nil || held {
			return err
		}
		return r.Grants.Create(ctx, &access.Grant{Principal: target, Role: in.Role, GrantedBy: caller})
	})
	if err != nil {
		return nil, err
	}
	u.log.WithFields(logrus.Fields{"actor": caller, "principal": target, "role": in.Role}).Info("role granted")
	return u.Roles(ctx, target)
}

// Revoke refuses to remove the last role admin.
func (u *Usecase) Revoke(ctx context.Context, caller string, in GrantInput) (*RolesDTO, error) {
	target, err := u.checkInput(in)
	if err != nil {
		return nil, err
	}
	err = u.uow.WithinTx(ctx, func(r uow.Repos) error {
		if err := access.Require(ctx, r.Grants, caller, access.RoleRoleAdmin); err != nil {
			return err
		}
		if in.Role == access.RoleRoleAdmin {
			n, err := r.Grants.CountByRole(ctx, access.RoleRoleAdmin)
			if err != nil {
				return err
			}
			held, err := r.Grants.HasRole(ctx, target, access.RoleRoleAdmin)
			if err != nil {
				return err
			}
			if held && n <= 1 {
				return access.ErrLastAdmin
			}
		}
		_, err := r.Grants.Delete(ctx, target, in.Role)
		return err
	})
	if err != nil {
		return nil, err
	}
	u.log.WithFields(logrus.Fields{"actor": caller, "principal": target, "role": in.Role}).Info("role revoked")
	return u.Roles(ctx, target)
}

func (u *Usecase) Roles(ctx context.Context, who string) (*RolesDTO, error) {
	p, err := principal.Normalize(who)
	if err != nil {
		return nil, errors.Join(access.ErrInvalidPrincipal, err)
	}
	grants, err := u.grants.ListByPrincipal(ctx, p)
	if err != nil {
		return nil, err
	}
	out := &RolesDTO{Principal: p, Roles: []access.Role{}}
	for _, g := range grants {
		out.Roles = append(out.Roles, g.Role)
	}
	return out, nil
}

func (u *Usecase) checkInput(in GrantInput) (string, error) {
	if !in.Role.Valid() {
		return "", fmt.Errorf("%w: %q", access.ErrUnknownRole, in.Role)
	}
	target, err := principal.Normalize(in.Principal)
	if err != nil {
		return "", errors.Join(access.ErrInvalidPrincipal, err)
	}
	return target, nil
}
