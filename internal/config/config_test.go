package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	feeReceiver = "0x00000000000000000000000000000000000000FE"
	treasury    = "0x00000000000000000000000000000000000000ee"
	roleAdmin   = "0x000000000000000000000000000000000000a0a0"
	relayer     = "0x0000000000000000000000000000000000000c01"
	pool        = "0x0000000000000000000000000000000000000001"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("FEE_RECEIVER", feeReceiver)
	t.Setenv("TREASURY_ADDRESS", treasury)
	t.Setenv("ROLE_ADMIN_ADDRESS", roleAdmin)
	t.Setenv("RELAY_ADDRESS", relayer)
	t.Setenv("POOL_ADDRESS", pool)
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)
	c := Load()

	assert.Equal(t, "8080", c.AppPort)
	assert.Equal(t, "mysql", c.DBDriver)
	assert.True(t, c.DBAutoMigrate)
	assert.Equal(t, uint32(50), c.FeeBps)
	assert.Equal(t, uint32(5000), c.MaxInterestBps)
	assert.Equal(t, 300*time.Second, c.IdempotencyTTL())
	assert.Equal(t, "@every 1h", c.SweepSpec)
	assert.Equal(t, "invoice-ledger", c.OTELServiceName)
	assert.Equal(t, "ledger:ledger@tcp(mysql:3306)/ledger?multiStatements=true&parseTime=true&charset=utf8mb4,utf8", c.DSN())
	require.NoError(t, c.Validate())
}

func TestLoad_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("DB_DRIVER", "Postgres")
	t.Setenv("POSTGRES_DSN", "postgres://ledger@db/ledger")
	t.Setenv("DB_AUTO_MIGRATE", "false")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("FEE_BPS", "125")
	t.Setenv("IDEMPOTENCY_TTL_SECONDS", "notanumber")

	c := Load()
	assert.Equal(t, "postgres", c.DBDriver)
	assert.Equal(t, "postgres://ledger@db/ledger", c.DSN())
	assert.False(t, c.DBAutoMigrate)
	assert.Equal(t, 3, c.RedisDB)
	assert.Equal(t, uint32(125), c.FeeBps)
	assert.Equal(t, 300, c.IdempTTLSecs, "unparsable values fall back to the default")
	require.NoError(t, c.Validate())
}

func TestValidate_NormalizesAccounts(t *testing.T) {
	setRequired(t)
	t.Setenv("SWEEPER_ADDRESS", "0x00000000000000000000000000000000000000AD")
	c := Load()
	require.NoError(t, c.Validate())
	assert.Equal(t, "0x00000000000000000000000000000000000000fe", c.FeeReceiver)
	assert.Equal(t, "0x00000000000000000000000000000000000000ad", c.SweeperAddress)
}

func TestValidate_Rejects(t *testing.T) {
	cases := []struct {
		name string
		key  string
		val  string
		msg  string
	}{
		{"unknown driver", "DB_DRIVER", "oracle", "unsupported DB_DRIVER"},
		{"postgres without dsn", "DB_DRIVER", "postgres", "POSTGRES_DSN"},
		{"bad mysql port", "MYSQL_PORT", "not-a-port", "invalid MYSQL_PORT"},
		{"fee above 100%", "FEE_BPS", "10001", "FEE_BPS"},
		{"interest ceiling above 100%", "MAX_INTEREST_BPS", "20000", "MAX_INTEREST_BPS"},
		{"bad treasury", "TREASURY_ADDRESS", "treasury", "TREASURY_ADDRESS"},
		{"bad sweeper", "SWEEPER_ADDRESS", "0x12", "SWEEPER_ADDRESS"},
		{"zero ttl", "IDEMPOTENCY_TTL_SECONDS", "0", "IDEMPOTENCY_TTL_SECONDS"},
		{"pool is the treasury", "POOL_ADDRESS", "0x00000000000000000000000000000000000000EE", "POOL_ADDRESS must differ"},
		{"fees into the treasury", "FEE_RECEIVER", treasury, "FEE_RECEIVER must differ"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			setRequired(t)
			t.Setenv(tc.key, tc.val)
			err := Load().Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.msg)
		})
	}
}

func TestValidate_RequiresSecretAndPool(t *testing.T) {
	setRequired(t)
	t.Setenv("JWT_SECRET", "")
	assert.ErrorContains(t, Load().Validate(), "JWT_SECRET")

	setRequired(t)
	t.Setenv("POOL_ADDRESS", "")
	assert.ErrorContains(t, Load().Validate(), "POOL_ADDRESS")
}
