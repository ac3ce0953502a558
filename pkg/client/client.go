package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/bankoneone/teller/pkg/domain"
)

// apiPrefix is prepended to every endpoint path.
const apiPrefix = "/api/v1"

// authExemptPaths are endpoints whose 401 responses mean a pre-authentication
// failure (wrong password, unverified account, bad reset token) rather than an
// invalidated session. A 401 from any of these must never force a logout.
// Matching is by substring containment against the request path.
var authExemptPaths = []string{
	"/auth/login",
	"/auth/signup",
	"/auth/forgot-password",
	"/auth/reset-password",
	"/auth/verify",
	"/auth/verify-status",
}

// isAuthExempt reports whether path contains any auth-exempt path.
func isAuthExempt(path string) bool {
	for _, p := range authExemptPaths {
		if strings.Contains(path, p) {
			return true
		}
	}
	return false
}

// TokenSource supplies the current bearer token at request-send time.
// An empty string means no session; the request goes out unauthenticated.
type TokenSource interface {
	Token() string
}

// TokenSourceFunc adapts a function to the TokenSource interface.
type TokenSourceFunc func() string

// Token implements TokenSource.
func (f TokenSourceFunc) Token() string { return f() }

// StaticToken returns a TokenSource that always yields the given token.
func StaticToken(token string) TokenSource {
	return TokenSourceFunc(func() string { return token })
}

// Client is the Bank One One API client.
type Client struct {
	baseURL       string
	tokens        TokenSource
	onAuthInvalid func()
	httpClient    *http.Client
	log           zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithAuthInvalidHook registers fn to be called when an authenticated request
// to a non-exempt endpoint comes back 401 — the signal that the session token
// has been invalidated server-side.
func WithAuthInvalidHook(fn func()) Option {
	return func(c *Client) { c.onAuthInvalid = fn }
}

// WithLogger sets the request logger.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) { c.log = log }
}

// New creates a new API client. tokens is read once per request, so a later
// login or logout is picked up by every request sent after it.
func New(baseURL string, tokens TokenSource, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		tokens:  tokens,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		log: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// --- Auth endpoints ---

// SignupRequest is the payload for opening a new account.
type SignupRequest struct {
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber"`
	Password    string `json:"password"`
	City        string `json:"city"`
}

// Signup registers a new user. The account stays unusable until the emailed
// verification link is opened.
func (c *Client) Signup(ctx context.Context, req SignupRequest) error {
	if err := c.post(ctx, "/auth/signup", req, nil); err != nil {
		return fmt.Errorf("client.Signup: %w", err)
	}
	return nil
}

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	var resp struct {
		AccessToken string `json:"accessToken"`
	}
	body := map[string]string{"email": email, "password": password}
	if err := c.post(ctx, "/auth/login", body, &resp); err != nil {
		return "", fmt.Errorf("client.Login: %w", err)
	}
	return resp.AccessToken, nil
}

// Verify redeems an email-verification token. On success the backend issues a
// bearer token so the fresh user lands directly in a session.
func (c *Client) Verify(ctx context.Context, token string) (string, error) {
	params := url.Values{}
	params.Set("token", token)

	var resp struct {
		AccessToken string `json:"accessToken"`
	}
	if err := c.get(ctx, "/auth/verify?"+params.Encode(), &resp); err != nil {
		return "", fmt.Errorf("client.Verify: %w", err)
	}
	return resp.AccessToken, nil
}

// VerifyStatus reports whether the given email address has been verified yet.
// Signup polls this while waiting for the user to open the emailed link.
func (c *Client) VerifyStatus(ctx context.Context, email string) (bool, error) {
	params := url.Values{}
	params.Set("email", email)

	var resp struct {
		IsVerified bool `json:"isVerified"`
	}
	if err := c.get(ctx, "/auth/verify-status?"+params.Encode(), &resp); err != nil {
		return false, fmt.Errorf("client.VerifyStatus: %w", err)
	}
	return resp.IsVerified, nil
}

// ForgotPassword asks the backend to email a password-reset link.
func (c *Client) ForgotPassword(ctx context.Context, email string) error {
	if err := c.post(ctx, "/auth/forgot-password", map[string]string{"email": email}, nil); err != nil {
		return fmt.Errorf("client.ForgotPassword: %w", err)
	}
	return nil
}

// ResetPassword redeems a reset token for a new password.
func (c *Client) ResetPassword(ctx context.Context, token, newPassword string) error {
	body := map[string]string{"token": token, "password": newPassword}
	if err := c.post(ctx, "/auth/reset-password", body, nil); err != nil {
		return fmt.Errorf("client.ResetPassword: %w", err)
	}
	return nil
}

// --- Account and transaction endpoints ---

// Me returns the authenticated user's account and transaction history.
func (c *Client) Me(ctx context.Context) (*domain.Snapshot, error) {
	var snap domain.Snapshot
	if err := c.get(ctx, "/accounts/me", &snap); err != nil {
		return nil, fmt.Errorf("client.Me: %w", err)
	}
	return &snap, nil
}

// ListTransactions returns the authenticated user's transactions, newest first.
func (c *Client) ListTransactions(ctx context.Context) ([]domain.Transaction, error) {
	var txs []domain.Transaction
	if err := c.get(ctx, "/transactions", &txs); err != nil {
		return nil, fmt.Errorf("client.ListTransactions: %w", err)
	}
	return txs, nil
}

// GetTransaction fetches a single transaction by ID.
func (c *Client) GetTransaction(ctx context.Context, id string) (*domain.Transaction, error) {
	var resp struct {
		Transaction domain.Transaction `json:"transaction"`
	}
	if err := c.get(ctx, "/transactions/"+url.PathEscape(id), &resp); err != nil {
		return nil, fmt.Errorf("client.GetTransaction: %w", err)
	}
	return &resp.Transaction, nil
}

// TransferRequest is the payload for sending money.
type TransferRequest struct {
	ReceiverEmail string  `json:"receiverEmail"`
	Amount        float64 `json:"amount"`
	Description   string  `json:"description,omitempty"`
}

// CreateTransaction submits a transfer. Balance changes and transaction
// persistence happen server-side; callers refetch the snapshot afterwards.
func (c *Client) CreateTransaction(ctx context.Context, req TransferRequest) error {
	if err := c.post(ctx, "/transactions", req, nil); err != nil {
		return fmt.Errorf("client.CreateTransaction: %w", err)
	}
	return nil
}

func (c *Client) post(ctx context.Context, path string, body any, out any) error {
	return c.doRequest(ctx, http.MethodPost, path, body, out)
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.doRequest(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) doRequest(ctx context.Context, method, path string, body any, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+apiPrefix+path, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	// Read the token at send time: a request racing a logout may still carry
	// the stale token, but its 401 feeds back through the same handler below.
	token := ""
	if c.tokens != nil {
		token = c.tokens.Token()
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	c.log.Debug().Str("method", method).Str("path", path).Msg("api request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close

	if resp.StatusCode >= 400 {
		if resp.StatusCode == http.StatusUnauthorized && token != "" && !isAuthExempt(path) {
			c.log.Warn().Str("path", path).Msg("session token rejected")
			if c.onAuthInvalid != nil {
				c.onAuthInvalid()
			}
		}
		respBody, readErr := io.ReadAll(io.LimitReader(resp.Body, 1<<20)) // 1 MB max error body
		if readErr != nil {
			return &HTTPError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("failed to read body: %v", readErr)}
		}
		var apiErr struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Message != "" {
			return &HTTPError{StatusCode: resp.StatusCode, Message: apiErr.Message}
		}
		return &HTTPError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
