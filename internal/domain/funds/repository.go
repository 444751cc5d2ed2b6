package funds

import "context"

// Missing rows read as zero-valued records rather than errors.
type Repository interface {
	GetBalance(ctx context.Context, account string) (*Balance, error)
	GetBalanceForUpdate(ctx context.Context, account string) (*Balance, error)
	SaveBalance(ctx context.Context, b *Balance) error
	GetAllowance(ctx context.Context, owner, spender string) (*Allowance, error)
	GetAllowanceForUpdate(ctx context.Context, owner, spender string) (*Allowance, error)
	SaveAllowance(ctx context.Context, a *Allowance) error
}
