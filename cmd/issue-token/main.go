// Command issue-token signs a bearer token for a ledger principal.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	_ "github.com/joho/godotenv/autoload"

	"invoice-ledger/internal/adapter/middleware"
)

func main() {
	if err := run(os.Args[1:], os.Getenv, os.Stdout, time.Now); err != nil {
		fmt.Fprintln(os.Stderr, "issue-token:", err)
		os.Exit(1)
	}
}

func run(args []string, getenv func(string) string, out io.Writer, now func() time.Time) error {
	fs := flag.NewFlagSet("issue-token", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	sub := fs.String("sub", "", "principal address the token authenticates")
	ttl := fs.Duration("ttl", 24*time.Hour, "token lifetime")
	secretEnv := fs.String("secret-env", "JWT_SECRET", "environment variable holding the signing secret")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *sub == "" {
		return errors.New("-sub is required")
	}
	if *ttl <= 0 {
		return fmt.Errorf("-ttl must be positive, got %s", *ttl)
	}
	secret := getenv(*secretEnv)
	if secret == "" {
		return fmt.Errorf("%s is not set", *secretEnv)
	}

	tok, err := middleware.IssueToken([]byte(secret), *sub, *ttl, now())
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, tok)
	return err
}
