package token

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	records map[string]Token
	saves   int
}

func newMemStore() *memStore {
	return &memStore{records: map[string]Token{}}
}

func (m *memStore) Load(key string) (Token, bool, error) {
	tok, ok := m.records[key]
	return tok, ok, nil
}

func (m *memStore) Save(key string, tok Token) error {
	m.records[key] = tok
	m.saves++
	return nil
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestKey(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "PSabcdef-12345678", Key("PSabcdefGHIJKLMN", "12345678"))
	assert.Equal(t, "short-12345678", Key("short", "12345678"))

	// Same app key, different accounts must never collide.
	assert.NotEqual(t, Key("PSabcdefGHIJKLMN", "111"), Key("PSabcdefGHIJKLMN", "222"))
}

func TestCacheReusesValidToken(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC)
	store := newMemStore()
	cache := NewCache(store, zerolog.Nop())
	cache.now = fixedClock(now)

	renewals := 0
	renew := func(ctx context.Context) (Token, error) {
		renewals++
		return Token{AccessToken: "fresh", ExpiresAt: now.Add(24 * time.Hour)}, nil
	}

	got, err := cache.Get(context.Background(), "key-1", renew)
	require.NoError(t, err)
	assert.Equal(t, "fresh", got)
	assert.Equal(t, 1, renewals)

	// Second call within the validity window: same token, no new auth call.
	got, err = cache.Get(context.Background(), "key-1", renew)
	require.NoError(t, err)
	assert.Equal(t, "fresh", got)
	assert.Equal(t, 1, renewals)
}

func TestCacheRenewsExpiredToken(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC)
	store := newMemStore()
	store.records["key-1"] = Token{AccessToken: "stale", ExpiresAt: now.Add(30 * time.Second)}

	cache := NewCache(store, zerolog.Nop())
	cache.now = fixedClock(now)

	renewals := 0
	renew := func(ctx context.Context) (Token, error) {
		renewals++
		return Token{AccessToken: "fresh", ExpiresAt: now.Add(24 * time.Hour)}, nil
	}

	// 30s left is inside the 60s buffer, so this counts as expired.
	got, err := cache.Get(context.Background(), "key-1", renew)
	require.NoError(t, err)
	assert.Equal(t, "fresh", got)
	assert.Equal(t, 1, renewals)
	assert.Equal(t, "fresh", store.records["key-1"].AccessToken)
}

func TestCacheRenewFailure(t *testing.T) {
	t.Parallel()

	cache := NewCache(newMemStore(), zerolog.Nop())

	renewErr := errors.New("auth endpoint down")
	_, err := cache.Get(context.Background(), "key-1", func(ctx context.Context) (Token, error) {
		return Token{}, renewErr
	})
	assert.ErrorIs(t, err, renewErr)
}

func TestCacheKeysAreIsolated(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC)
	store := newMemStore()
	cache := NewCache(store, zerolog.Nop())
	cache.now = fixedClock(now)

	renewFor := func(value string) RenewFunc {
		return func(ctx context.Context) (Token, error) {
			return Token{AccessToken: value, ExpiresAt: now.Add(time.Hour)}, nil
		}
	}

	a, err := cache.Get(context.Background(), "app1-acct1", renewFor("token-a"))
	require.NoError(t, err)
	b, err := cache.Get(context.Background(), "app1-acct2", renewFor("token-b"))
	require.NoError(t, err)

	assert.Equal(t, "token-a", a)
	assert.Equal(t, "token-b", b)
}

func TestFileStoreRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "token.json")
	store := NewFileStore(path)

	_, ok, err := store.Load("key-1")
	require.NoError(t, err)
	assert.False(t, ok)

	tok := Token{
		AccessToken: "abc",
		ExpiresAt:   time.Date(2024, 6, 4, 9, 0, 0, 0, time.UTC),
	}
	require.NoError(t, store.Save("key-1", tok))

	// A fresh store on the same path sees the persisted token, the way a new
	// process invocation would.
	reopened := NewFileStore(path)
	got, ok, err := reopened.Load("key-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, tok.AccessToken, got.AccessToken)
	assert.True(t, got.ExpiresAt.Equal(tok.ExpiresAt))
}

func TestFileStoreKeepsOtherKeys(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "token.json")
	store := NewFileStore(path)

	exp := time.Now().Add(time.Hour)
	require.NoError(t, store.Save("a", Token{AccessToken: "1", ExpiresAt: exp}))
	require.NoError(t, store.Save("b", Token{AccessToken: "2", ExpiresAt: exp}))

	got, ok, err := store.Load("a")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "1", got.AccessToken)
}

func TestTokenValidAt(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		tok   Token
		valid bool
	}{
		{"empty", Token{}, false},
		{"well inside window", Token{AccessToken: "t", ExpiresAt: now.Add(time.Hour)}, true},
		{"inside buffer", Token{AccessToken: "t", ExpiresAt: now.Add(59 * time.Second)}, false},
		{"already expired", Token{AccessToken: "t", ExpiresAt: now.Add(-time.Minute)}, false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.valid, tt.tok.ValidAt(now))
		})
	}
}
