package access

import (
	"time"

	"invoice-ledger/pkg/errs"
)

type Role string

const (
	// RoleRoleAdmin administers every grant, its own included.
	RoleRoleAdmin Role = "role_admin"
	RoleAdmin     Role = "admin"
	RoleAttestor  Role = "attestor"
	RoleOracle    Role = "oracle"
)

var (
	ErrUnauthorized     = errs.New(errs.ErrAuthorization, "caller lacks the required role")
	ErrUnknownRole      = errs.New(errs.ErrValidation, "unknown role")
	ErrLastAdmin        = errs.New(errs.ErrState, "cannot revoke the last role admin")
	ErrInvalidPrincipal = errs.New(errs.ErrValidation, "invalid principal")
)

func (r Role) Valid() bool {
	switch r {
	case RoleRoleAdmin, RoleAdmin, RoleAttestor, RoleOracle:
		return true
	}
	return false
}

// Table: role_grants
type Grant struct {
	ID        uint64    `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	Principal string    `gorm:"column:principal;size:42;not null;uniqueIndex:ux_role_grants_principal_role" json:"principal"`
	Role      Role      `gorm:"column:role;size:16;not null;uniqueIndex:ux_role_grants_principal_role;index" json:"role"`
	GrantedBy string    `gorm:"column:granted_by;size:42;not null" json:"granted_by"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (Grant) TableName() string { return "role_grants" }
