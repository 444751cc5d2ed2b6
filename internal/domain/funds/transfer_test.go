package funds

import (
	"context"
	"testing"

	"invoice-ledger/pkg/amount"
	"invoice-ledger/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memRepo struct {
	balances   map[string]amount.Amount
	allowances map[[2]string]amount.Amount
	locks      []string
}

func newMemRepo() *memRepo {
	return &memRepo{balances: map[string]amount.Amount{}, allowances: map[[2]string]amount.Amount{}}
}

func (m *memRepo) GetBalance(_ context.Context, acct string) (*Balance, error) {
	return &Balance{Account: acct, Amount: m.balances[acct]}, nil
}

func (m *memRepo) GetBalanceForUpdate(ctx context.Context, acct string) (*Balance, error) {
	m.locks = append(m.locks, acct)
	return m.GetBalance(ctx, acct)
}

func (m *memRepo) SaveBalance(_ context.Context, b *Balance) error {
	m.balances[b.Account] = b.Amount
	return nil
}

func (m *memRepo) GetAllowance(_ context.Context, owner, spender string) (*Allowance, error) {
	return &Allowance{Owner: owner, Spender: spender, Amount: m.allowances[[2]string{owner, spender}]}, nil
}

func (m *memRepo) GetAllowanceForUpdate(ctx context.Context, owner, spender string) (*Allowance, error) {
	return m.GetAllowance(ctx, owner, spender)
}

func (m *memRepo) SaveAllowance(_ context.Context, a *Allowance) error {
	m.allowances[[2]string{a.Owner, a.Spender}] = a.Amount
	return nil
}

func TestTransferFrom_ConsumesAllowance(t *testing.T) {
	ctx := context.Background()
	r := newMemRepo()
	require.NoError(t, Credit(ctx, r, "0xa", amount.New(1000)))
	require.NoError(t, Approve(ctx, r, "0xa", "0xt", amount.New(600)))

	require.NoError(t, TransferFrom(ctx, r, "0xt", "0xa", "0xt", amount.New(400)))

	assert.Equal(t, "600", r.balances["0xa"].String())
	assert.Equal(t, "400", r.balances["0xt"].String())
	assert.Equal(t, "200", r.allowances[[2]string{"0xa", "0xt"}].String())
}

func TestTransferFrom_OwnerNeedsNoAllowance(t *testing.T) {
	ctx := context.Background()
	r := newMemRepo()
	require.NoError(t, Credit(ctx, r, "0xt", amount.New(50)))

	require.NoError(t, TransferFrom(ctx, r, "0xt", "0xt", "0xb", amount.New(50)))
	assert.True(t, r.balances["0xt"].IsZero())
	assert.Equal(t, "50", r.balances["0xb"].String())
}

func TestTransferFrom_FailuresChangeNothing(t *testing.T) {
	ctx := context.Background()
	r := newMemRepo()
	require.NoError(t, Credit(ctx, r, "0xa", amount.New(100)))
	require.NoError(t, Approve(ctx, r, "0xa", "0xt", amount.New(500)))

	err := TransferFrom(ctx, r, "0xt", "0xa", "0xt", amount.New(101))
	require.ErrorIs(t, err, ErrInsufficientBalance)
	assert.ErrorIs(t, err, errs.ErrTransfer)
	assert.Equal(t, "500", r.allowances[[2]string{"0xa", "0xt"}].String())
	assert.Equal(t, "100", r.balances["0xa"].String())

	err = TransferFrom(ctx, r, "0xs", "0xa", "0xs", amount.New(1))
	assert.ErrorIs(t, err, ErrInsufficientAllowance)

	assert.ErrorIs(t, TransferFrom(ctx, r, "0xa", "0xa", "0xb", amount.Zero()), ErrInvalidAmount)
}

func TestTransferFrom_LocksInAccountOrder(t *testing.T) {
	ctx := context.Background()
	r := newMemRepo()
	require.NoError(t, Credit(ctx, r, "0xb", amount.New(10)))
	r.locks = nil

	require.NoError(t, TransferFrom(ctx, r, "0xb", "0xb", "0xa", amount.New(10)))
	assert.Equal(t, []string{"0xa", "0xb"}, r.locks)
}

func TestTransferFrom_Self(t *testing.T) {
	ctx := context.Background()
	r := newMemRepo()
	require.NoError(t, Credit(ctx, r, "0xa", amount.New(10)))
	require.NoError(t, TransferFrom(ctx, r, "0xa", "0xa", "0xa", amount.New(10)))
	assert.Equal(t, "10", r.balances["0xa"].String())
	assert.ErrorIs(t, TransferFrom(ctx, r, "0xa", "0xa", "0xa", amount.New(11)), ErrInsufficientBalance)
}
