package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"invoice-ledger/pkg/amount"
	"invoice-ledger/pkg/principal"
)

// Config is read from the environment. cmd/api autoloads a .env file first;
// real environment variables take precedence.
type Config struct {
	AppPort string

	DBDriver      string
	MySQLHost     string
	MySQLPort     string
	MySQLDB       string
	MySQLUser     string
	MySQLPass     string
	PostgresDSN   string
	SQLitePath    string
	DBAutoMigrate bool

	RedisAddr    string
	RedisDB      int
	IdempTTLSecs int

	LogLevel  string
	JWTSecret string

	FeeBps          uint32
	FeeReceiver     string
	TreasuryAddress string
	MaxInterestBps  uint32

	RoleAdminAddress string
	RelayAddress     string
	WebhookSecret    string
	PoolAddress      string

	SweepSpec      string
	SweeperAddress string

	OTLPEndpoint    string
	OTELServiceName string
}

func getenv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func getenvInt(k string, d int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return d
}

func getenvBool(k string, d bool) bool {
	if v := os.Getenv(k); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return d
}

func getenvBps(k string, d uint32) uint32 {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.ParseUint(v, 10, 32); err == nil {
			return uint32(n)
		}
	}
	return d
}

func Load() *Config {
	return &Config{
		AppPort: getenv("APP_PORT", "8080"),

		DBDriver:      strings.ToLower(getenv("DB_DRIVER", "mysql")),
		MySQLHost:     getenv("MYSQL_HOST", "mysql"),
		MySQLPort:     getenv("MYSQL_PORT", "3306"),
		MySQLDB:       getenv("MYSQL_DB", "ledger"),
		MySQLUser:     getenv("MYSQL_USER", "ledger"),
		MySQLPass:     getenv("MYSQL_PASS", "ledger"),
		PostgresDSN:   getenv("POSTGRES_DSN", ""),
		SQLitePath:    getenv("SQLITE_PATH", "ledger.db"),
		DBAutoMigrate: getenvBool("DB_AUTO_MIGRATE", true),

		RedisAddr:    getenv("REDIS_ADDR", "redis:6379"),
		RedisDB:      getenvInt("REDIS_DB", 0),
		IdempTTLSecs: getenvInt("IDEMPOTENCY_TTL_SECONDS", 300),

		LogLevel:  getenv("LOG_LEVEL", "info"),
		JWTSecret: os.Getenv("JWT_SECRET"),

		FeeBps:          getenvBps("FEE_BPS", 50),
		FeeReceiver:     os.Getenv("FEE_RECEIVER"),
		TreasuryAddress: os.Getenv("TREASURY_ADDRESS"),
		MaxInterestBps:  getenvBps("MAX_INTEREST_BPS", 5000),

		RoleAdminAddress: os.Getenv("ROLE_ADMIN_ADDRESS"),
		RelayAddress:     os.Getenv("RELAY_ADDRESS"),
		WebhookSecret:    os.Getenv("WEBHOOK_SECRET"),
		PoolAddress:      os.Getenv("POOL_ADDRESS"),

		SweepSpec:      getenv("DEFAULT_SWEEP_SPEC", "@every 1h"),
		SweeperAddress: os.Getenv("SWEEPER_ADDRESS"),

		OTLPEndpoint:    os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		OTELServiceName: getenv("OTEL_SERVICE_NAME", "invoice-ledger"),
	}
}

// Validate rejects unusable settings and normalizes account addresses.
func (c *Config) Validate() error {
	if c.AppPort == "" {
		return errors.New("missing APP_PORT")
	}
	switch c.DBDriver {
	case "mysql":
		if c.MySQLHost == "" || c.MySQLPort == "" || c.MySQLDB == "" || c.MySQLUser == "" {
			return errors.New("missing MySQL config (MYSQL_HOST/PORT/DB/USER)")
		}
		// ensure port is valid
		if _, err := net.LookupPort("tcp", c.MySQLPort); err != nil {
			return fmt.Errorf("invalid MYSQL_PORT %q: %w", c.MySQLPort, err)
		}
	case "postgres":
		if c.PostgresDSN == "" {
			return errors.New("missing POSTGRES_DSN")
		}
	case "sqlite":
		if c.SQLitePath == "" {
			return errors.New("missing SQLITE_PATH")
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q (mysql|postgres|sqlite)", c.DBDriver)
	}
	if c.JWTSecret == "" {
		return errors.New("missing JWT_SECRET")
	}
	if c.FeeBps > amount.BasisPoints {
		return fmt.Errorf("FEE_BPS %d above %d", c.FeeBps, amount.BasisPoints)
	}
	if c.MaxInterestBps > amount.BasisPoints {
		return fmt.Errorf("MAX_INTEREST_BPS %d above %d", c.MaxInterestBps, amount.BasisPoints)
	}
	if c.IdempTTLSecs <= 0 {
		return fmt.Errorf("invalid IDEMPOTENCY_TTL_SECONDS %d", c.IdempTTLSecs)
	}

	// system accounts are stored in canonical form
	accounts := []struct {
		key      string
		val      *string
		optional bool
	}{
		{"FEE_RECEIVER", &c.FeeReceiver, false},
		{"TREASURY_ADDRESS", &c.TreasuryAddress, false},
		{"ROLE_ADMIN_ADDRESS", &c.RoleAdminAddress, false},
		{"RELAY_ADDRESS", &c.RelayAddress, false},
		{"POOL_ADDRESS", &c.PoolAddress, false},
		{"SWEEPER_ADDRESS", &c.SweeperAddress, true},
	}
	for _, a := range accounts {
		if a.optional && *a.val == "" {
			continue
		}
		p, err := principal.Normalize(*a.val)
		if err != nil {
			return fmt.Errorf("%s must be a 20-byte hex address, got %q", a.key, *a.val)
		}
		*a.val = p
	}
	// the treasury holds lender escrow and cannot also lend or collect fees
	if c.PoolAddress == c.TreasuryAddress {
		return errors.New("POOL_ADDRESS must differ from TREASURY_ADDRESS")
	}
	if c.FeeReceiver == c.TreasuryAddress {
		return errors.New("FEE_RECEIVER must differ from TREASURY_ADDRESS")
	}
	return nil
}

func (c *Config) IdempotencyTTL() time.Duration {
	return time.Duration(c.IdempTTLSecs) * time.Second
}

func (c *Config) mysqlAddr() string { return net.JoinHostPort(c.MySQLHost, c.MySQLPort) }

func (c *Config) MySQLDSN() string {
	// parseTime needed for DATETIME
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?multiStatements=true&parseTime=true&charset=utf8mb4,utf8",
		c.MySQLUser, c.MySQLPass, c.mysqlAddr(), c.MySQLDB)
}

// DSN returns the connection string for the configured driver.
func (c *Config) DSN() string {
	switch c.DBDriver {
	case "postgres":
		return c.PostgresDSN
	case "sqlite":
		return c.SQLitePath
	}
	return c.MySQLDSN()
}
