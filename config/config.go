// Package config loads broker credentials from the environment and merges
// per-portfolio overrides on top of them.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// DefaultBaseURL is the production KIS Open API gateway.
const DefaultBaseURL = "https://openapi.koreainvestment.com:9443"

// ErrMissingCredentials is returned when required credential fields are
// absent after env loading and override merging.
var ErrMissingCredentials = errors.New("missing credentials")

// Credentials identifies one brokerage account and the app key pair used to
// access it.
type Credentials struct {
	AppKey      string
	AppSecret   string
	Account     string // CANO, the 8-digit account number
	ProductCode string // ACNT_PRDT_CD, the 2-digit account product code
	BaseURL     string
}

// FromEnv reads base credentials from the environment. A .env file in the
// working directory is honored when present.
func FromEnv() Credentials {
	_ = godotenv.Load()

	return Credentials{
		AppKey:      os.Getenv("APP_KEY"),
		AppSecret:   os.Getenv("APP_SECRET"),
		Account:     os.Getenv("CANO"),
		ProductCode: getEnv("ACNT_PRDT_CD", "01"),
		BaseURL:     getEnv("URL_BASE", DefaultBaseURL),
	}
}

// Merge returns c with every non-empty field of the override applied. The
// merge is explicit and field-by-field; the base value is never mutated.
func (c Credentials) Merge(o Credentials) Credentials {
	if o.AppKey != "" {
		c.AppKey = o.AppKey
	}
	if o.AppSecret != "" {
		c.AppSecret = o.AppSecret
	}
	if o.Account != "" {
		c.Account = o.Account
	}
	if o.ProductCode != "" {
		c.ProductCode = o.ProductCode
	}
	if o.BaseURL != "" {
		c.BaseURL = o.BaseURL
	}
	return c
}

// Validate checks that every field required to reach the broker is present.
func (c Credentials) Validate() error {
	var missing []string
	if c.AppKey == "" {
		missing = append(missing, "APP_KEY")
	}
	if c.AppSecret == "" {
		missing = append(missing, "APP_SECRET")
	}
	if c.Account == "" {
		missing = append(missing, "CANO")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingCredentials, strings.Join(missing, ", "))
	}
	return nil
}

// Virtual reports whether the base URL points at the paper-trading gateway,
// which uses its own set of transaction ids.
func (c Credentials) Virtual() bool {
	return strings.Contains(c.BaseURL, "openapivts")
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
