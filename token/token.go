// Package token caches broker access tokens across process invocations.
//
// One token is kept per credential key, so multiple portfolios sharing an
// app key but targeting different accounts never collide.
package token

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Tokens are renewed this long before their recorded expiry so an in-flight
// cycle never runs off the end of a token's validity window.
const expiryBuffer = 60 * time.Second

const keyPrefixLen = 8

// Token is one cached access token with its expiry.
type Token struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// ValidAt reports whether the token can still be used at the given time.
func (t Token) ValidAt(now time.Time) bool {
	return t.AccessToken != "" && t.ExpiresAt.After(now.Add(expiryBuffer))
}

// Key builds the credential key for an (app key, account) pair. Only a
// prefix of the app key is used so the full credential never reaches the
// store.
func Key(appKey, account string) string {
	prefix := appKey
	if len(prefix) > keyPrefixLen {
		prefix = prefix[:keyPrefixLen]
	}
	return prefix + "-" + account
}

// Store persists tokens between process invocations.
type Store interface {
	Load(key string) (Token, bool, error)
	Save(key string, tok Token) error
}

// RenewFunc authenticates against the broker and returns a fresh token.
type RenewFunc func(ctx context.Context) (Token, error)

// Cache hands out one valid token per credential key. Expiry is checked
// lazily on each Get; an absent or expired token triggers exactly one
// renewal, and the result is persisted before it is returned.
type Cache struct {
	store Store
	now   func() time.Time
	log   zerolog.Logger
}

// NewCache creates a token cache backed by the given store.
func NewCache(store Store, log zerolog.Logger) *Cache {
	return &Cache{
		store: store,
		now:   time.Now,
		log:   log.With().Str("component", "token-cache").Logger(),
	}
}

// Get returns a valid access token for key, renewing it when the stored one
// is absent or expired.
func (c *Cache) Get(ctx context.Context, key string, renew RenewFunc) (string, error) {
	tok, ok, err := c.store.Load(key)
	if err != nil {
		return "", fmt.Errorf("load token %s: %w", key, err)
	}
	if ok && tok.ValidAt(c.now()) {
		return tok.AccessToken, nil
	}

	c.log.Debug().Str("key", key).Msg("token absent or expired, renewing")
	tok, err = renew(ctx)
	if err != nil {
		return "", fmt.Errorf("renew token %s: %w", key, err)
	}
	if err := c.store.Save(key, tok); err != nil {
		return "", fmt.Errorf("save token %s: %w", key, err)
	}
	return tok.AccessToken, nil
}
