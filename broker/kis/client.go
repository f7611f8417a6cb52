// Package kis implements the broker interface against the Korea Investment
// & Securities Open API.
package kis

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/rustyeddy/kisrebal/config"
	"github.com/rustyeddy/kisrebal/token"
)

// ErrAuth means the token endpoint rejected the credentials; nothing else
// can be attempted for this account.
var ErrAuth = errors.New("authentication failed")

// KIS access tokens last 24 hours unless the response says otherwise.
const defaultTokenTTL = 24 * time.Hour

// Client talks to one account on the KIS Open API. Real and paper-trading
// gateways use the same endpoints with different transaction ids; the
// gateway is inferred from the base URL, like every KIS client does.
type Client struct {
	creds      config.Credentials
	tokens     *token.Cache
	httpClient *http.Client
	log        zerolog.Logger
}

// New creates a client for the given credentials, reusing cached access
// tokens through the token cache.
func New(creds config.Credentials, tokens *token.Cache, log zerolog.Logger) *Client {
	return &Client{
		creds:      creds,
		tokens:     tokens,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		log:        log.With().Str("component", "kis").Str("account", creds.Account).Logger(),
	}
}

// Account returns the account number the client is bound to.
func (c *Client) Account() string { return c.creds.Account }

// trID picks the real or virtual transaction id for the gateway in use.
func (c *Client) trID(real, virtual string) string {
	if c.creds.Virtual() {
		return virtual
	}
	return real
}

// accessToken returns a valid token for this credential pair, authenticating
// at most once per expiry window.
func (c *Client) accessToken(ctx context.Context) (string, error) {
	key := token.Key(c.creds.AppKey, c.creds.Account)
	return c.tokens.Get(ctx, key, c.authenticate)
}

// authenticate requests a fresh OAuth token from /oauth2/tokenP.
func (c *Client) authenticate(ctx context.Context) (token.Token, error) {
	body, err := json.Marshal(map[string]string{
		"grant_type": "client_credentials",
		"appkey":     c.creds.AppKey,
		"appsecret":  c.creds.AppSecret,
	})
	if err != nil {
		return token.Token{}, fmt.Errorf("marshal auth request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.creds.BaseURL+"/oauth2/tokenP", bytes.NewReader(body))
	if err != nil {
		return token.Token{}, fmt.Errorf("%w: %v", ErrAuth, err)
	}
	req.Header.Set("content-type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return token.Token{}, fmt.Errorf("%w: %v", ErrAuth, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(resp.Body)
		return token.Token{}, fmt.Errorf("%w: status %d: %s", ErrAuth, resp.StatusCode, payload)
	}

	var out tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return token.Token{}, fmt.Errorf("%w: decode response: %v", ErrAuth, err)
	}
	if out.AccessToken == "" {
		return token.Token{}, fmt.Errorf("%w: empty access token", ErrAuth)
	}

	ttl := defaultTokenTTL
	if out.ExpiresIn > 0 {
		ttl = time.Duration(out.ExpiresIn) * time.Second
	}
	c.log.Info().Msg("authenticated")
	return token.Token{AccessToken: out.AccessToken, ExpiresAt: time.Now().Add(ttl)}, nil
}

// get performs an authenticated GET and decodes the JSON response into out.
func (c *Client) get(ctx context.Context, path, trID string, params url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.creds.BaseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if err := c.setHeaders(ctx, req, trID); err != nil {
		return err
	}
	return c.do(req, out)
}

// post performs an authenticated POST with a JSON body.
func (c *Client) post(ctx context.Context, path, trID string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.creds.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if err := c.setHeaders(ctx, req, trID); err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) setHeaders(ctx context.Context, req *http.Request, trID string) error {
	tok, err := c.accessToken(ctx)
	if err != nil {
		return err
	}
	req.Header.Set("content-type", "application/json")
	req.Header.Set("authorization", "Bearer "+tok)
	req.Header.Set("appkey", c.creds.AppKey)
	req.Header.Set("appsecret", c.creds.AppSecret)
	req.Header.Set("tr_id", trID)
	req.Header.Set("custtype", "P")
	return nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("API error (status %d): %s", resp.StatusCode, payload)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
