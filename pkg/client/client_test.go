package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bankoneone/teller/pkg/domain"
)

func TestLogin(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/auth/login" {
			http.NotFound(w, r)
			return
		}
		var req map[string]string
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if req["email"] != "noa@example.com" || req["password"] != "hunter2" {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"message": "Invalid credentials"}) //nolint:errcheck
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"accessToken": "tok-abc"}) //nolint:errcheck
	}))
	defer srv.Close()

	c := New(srv.URL, nil)
	token, err := c.Login(context.Background(), "noa@example.com", "hunter2")
	if err != nil {
		t.Fatalf("Login() error: %v", err)
	}
	if token != "tok-abc" {
		t.Errorf("token = %q, want %q", token, "tok-abc")
	}
}

func TestLogin_BadCredentialsMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"message": "Invalid credentials"}) //nolint:errcheck
	}))
	defer srv.Close()

	c := New(srv.URL, nil)
	_, err := c.Login(context.Background(), "noa@example.com", "wrong")
	if err == nil {
		t.Fatal("expected error for bad credentials")
	}
	if !IsStatus(err, 401) {
		t.Errorf("IsStatus(err, 401) = false, want true: %v", err)
	}
	if got := Message(err); got != "Invalid credentials" {
		t.Errorf("Message(err) = %q, want %q", got, "Invalid credentials")
	}
}

func TestMe_AttachesBearerToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok-abc" {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"message": "not authenticated"}) //nolint:errcheck
			return
		}
		json.NewEncoder(w).Encode(domain.Snapshot{ //nolint:errcheck
			Account:      domain.Account{Email: "noa@example.com", Balance: 1200.50, Status: "active"},
			Transactions: []domain.Transaction{{Amount: 50, Description: "coffee"}},
		})
	}))
	defer srv.Close()

	c := New(srv.URL, StaticToken("tok-abc"))
	snap, err := c.Me(context.Background())
	if err != nil {
		t.Fatalf("Me() error: %v", err)
	}
	if snap.Account.Balance != 1200.50 {
		t.Errorf("Balance = %v, want 1200.50", snap.Account.Balance)
	}
	if len(snap.Transactions) != 1 {
		t.Fatalf("got %d transactions, want 1", len(snap.Transactions))
	}
}

func TestMe_401InvokesAuthInvalidHook(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"message": "token expired"}) //nolint:errcheck
	}))
	defer srv.Close()

	hookCalls := 0
	c := New(srv.URL, StaticToken("stale-token"), WithAuthInvalidHook(func() { hookCalls++ }))
	_, err := c.Me(context.Background())
	if err == nil {
		t.Fatal("expected error for 401 response")
	}
	if hookCalls != 1 {
		t.Errorf("auth-invalid hook called %d times, want 1", hookCalls)
	}
}

func TestLogin_401DoesNotInvokeAuthInvalidHook(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"message": "Invalid credentials"}) //nolint:errcheck
	}))
	defer srv.Close()

	hookCalls := 0
	// Token present, as when a logged-in user re-authenticates after a
	// password change: the login 401 is exempt and must not end the session.
	c := New(srv.URL, StaticToken("current-token"), WithAuthInvalidHook(func() { hookCalls++ }))
	_, err := c.Login(context.Background(), "noa@example.com", "wrong")
	if err == nil {
		t.Fatal("expected error for bad credentials")
	}
	if hookCalls != 0 {
		t.Errorf("auth-invalid hook called %d times on exempt path, want 0", hookCalls)
	}
}

func TestMe_401WithoutTokenDoesNotInvokeHook(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"message": "not authenticated"}) //nolint:errcheck
	}))
	defer srv.Close()

	hookCalls := 0
	c := New(srv.URL, nil, WithAuthInvalidHook(func() { hookCalls++ }))
	_, err := c.Me(context.Background())
	if err == nil {
		t.Fatal("expected error for 401 response")
	}
	if hookCalls != 0 {
		t.Errorf("auth-invalid hook called %d times with no token, want 0", hookCalls)
	}
}

func TestIsAuthExempt(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"/auth/login", true},
		{"/auth/signup", true},
		{"/auth/forgot-password", true},
		{"/auth/reset-password", true},
		{"/auth/verify?token=x", true},
		{"/auth/verify-status?email=a%40b.c", true},
		{"/accounts/me", false},
		{"/transactions", false},
		{"/transactions/42", false},
	}
	for _, tc := range tests {
		if got := isAuthExempt(tc.path); got != tc.want {
			t.Errorf("isAuthExempt(%q) = %v, want %v", tc.path, got, tc.want)
		}
	}
}

func TestVerifyStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("email"); got != "noa@example.com" {
			t.Errorf("email param = %q, want %q", got, "noa@example.com")
		}
		json.NewEncoder(w).Encode(map[string]bool{"isVerified": true}) //nolint:errcheck
	}))
	defer srv.Close()

	c := New(srv.URL, nil)
	verified, err := c.VerifyStatus(context.Background(), "noa@example.com")
	if err != nil {
		t.Fatalf("VerifyStatus() error: %v", err)
	}
	if !verified {
		t.Error("verified = false, want true")
	}
}

func TestVerifyReturnsAccessToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("token"); got != "mail-code-7" {
			t.Errorf("token param = %q, want %q", got, "mail-code-7")
		}
		json.NewEncoder(w).Encode(map[string]string{"accessToken": "tok-new"}) //nolint:errcheck
	}))
	defer srv.Close()

	c := New(srv.URL, nil)
	token, err := c.Verify(context.Background(), "mail-code-7")
	if err != nil {
		t.Fatalf("Verify() error: %v", err)
	}
	if token != "tok-new" {
		t.Errorf("token = %q, want %q", token, "tok-new")
	}
}

func TestListTransactions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/transactions" {
			http.NotFound(w, r)
			return
		}
		json.NewEncoder(w).Encode([]domain.Transaction{ //nolint:errcheck
			{Amount: 50, Description: "rent"},
			{Amount: 12.5, Description: "coffee"},
		})
	}))
	defer srv.Close()

	c := New(srv.URL, StaticToken("tok"))
	txs, err := c.ListTransactions(context.Background())
	if err != nil {
		t.Fatalf("ListTransactions() error: %v", err)
	}
	if len(txs) != 2 {
		t.Fatalf("len(txs) = %d, want 2", len(txs))
	}
	if txs[1].Description != "coffee" {
		t.Errorf("Description = %q, want %q", txs[1].Description, "coffee")
	}
}

func TestGetTransaction(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/api/v1/transactions/") {
			http.NotFound(w, r)
			return
		}
		json.NewEncoder(w).Encode(map[string]domain.Transaction{ //nolint:errcheck
			"transaction": {Amount: 75, Description: "groceries"},
		})
	}))
	defer srv.Close()

	c := New(srv.URL, StaticToken("tok"))
	tx, err := c.GetTransaction(context.Background(), "some-id")
	if err != nil {
		t.Fatalf("GetTransaction() error: %v", err)
	}
	if tx.Description != "groceries" {
		t.Errorf("Description = %q, want %q", tx.Description, "groceries")
	}
}

func TestCreateTransaction(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		var req TransferRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if req.Amount != 120 {
			t.Errorf("Amount = %v, want 120", req.Amount)
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c := New(srv.URL, StaticToken("tok"))
	err := c.CreateTransaction(context.Background(), TransferRequest{
		ReceiverEmail: "dan@example.com",
		Amount:        120,
		Description:   "rent share",
	})
	if err != nil {
		t.Fatalf("CreateTransaction() error: %v", err)
	}
}

func TestDoRequest_CancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(5 * time.Second) // slow server
		json.NewEncoder(w).Encode(domain.Snapshot{}) //nolint:errcheck
	}))
	defer srv.Close()

	c := New(srv.URL, StaticToken("tok"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel() // cancel immediately

	_, err := c.Me(ctx)
	if err == nil {
		t.Fatal("expected error for canceled context")
	}
}
