package access

import (
	"context"
	"errors"
	"testing"

	"invoice-ledger/internal/domain/access"
	"invoice-ledger/internal/domain/uow"
	"invoice-ledger/internal/testutil/accessmock"
	"invoice-ledger/internal/testutil/uowmock"

	"github.com/sirupsen/logrus/hooks/test"
)

const someone = "0x00000000000000000000000000000000000000c1"

func mocked(grants *accessmock.Repo) *Usecase {
	logger, _ := test.NewNullLogger()
	return NewUsecase(grants, uowmock.Passthrough(uow.Repos{Grants: grants}), logger)
}

func TestBootstrap_SkipsWhenRoleAdminExists(t *testing.T) {
	created := 0
	grants := &accessmock.Repo{
		CountByRoleFn: func(context.Context, access.Role) (int64, error) { return 1, nil },
		CreateFn:      func(context.Context, *access.Grant) error { created++; return nil },
	}
	if err := mocked(grants).Bootstrap(context.Background(), someone); err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	if created != 0 {
		t.Fatalf("expected no grant, got %d", created)
	}
}

func TestBootstrap_GrantsFirstRoleAdmin(t *testing.T) {
	var got *access.Grant
	grants := &accessmock.Repo{
		CreateFn: func(_ context.Context, g *access.Grant) error { got = g; return nil },
	}
	if err := mocked(grants).Bootstrap(context.Background(), "0x00000000000000000000000000000000000000C1"); err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	if got == nil || got.Principal != someone || got.Role != access.RoleRoleAdmin || got.GrantedBy != someone {
		t.Fatalf("unexpected grant: %+v", got)
	}
}

func TestBootstrap_Errors(t *testing.T) {
	if err := mocked(&accessmock.Repo{}).Bootstrap(context.Background(), "admin"); err == nil {
		t.Fatal("expected error for an invalid admin address")
	}

	boom := errors.New("db down")
	grants := &accessmock.Repo{CountByRoleFn: func(context.Context, access.Role) (int64, error) { return 0, boom }}
	if err := mocked(grants).Bootstrap(context.Background(), someone); !errors.Is(err, boom) {
		t.Fatalf("expected store error, got %v", err)
	}
}

func TestGrant_StoreFailure(t *testing.T) {
	boom := errors.New("insert failed")
	grants := &accessmock.Repo{
		Roles:    map[string][]access.Role{someone: {access.RoleRoleAdmin}},
		CreateFn: func(context.Context, *access.Grant) error { return boom },
	}
	_, err := mocked(grants).Grant(context.Background(), someone, GrantInput{
		Principal: "0x00000000000000000000000000000000000000c2", Role: access.RoleOracle,
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected store error, got %v", err)
	}
}

func TestRevoke_UnitOfWorkFailure(t *testing.T) {
	logger, _ := test.NewNullLogger()
	// an unconfigured UoW refuses every transaction
	u := NewUsecase(&accessmock.Repo{}, &uowmock.UoW{}, logger)
	if _, err := u.Revoke(context.Background(), someone, GrantInput{Principal: someone, Role: access.RoleAdmin}); err == nil {
		t.Fatal("expected transaction error")
	}
}
