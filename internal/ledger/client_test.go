// Copyright 2026 fanjia1024
// Tests for the ledger REST client

package ledger

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := NewClient(Config{BaseURL: srv.URL, APIKey: "test-key", Timeout: 5 * time.Second}, nil)
	require.NoError(t, err)
	return c
}

func TestNewClient_RequiresBaseURL(t *testing.T) {
	_, err := NewClient(Config{}, nil)
	assert.Error(t, err)
}

func TestChartOfAccounts(t *testing.T) {
	var gotKey string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-API-KEY")
		assert.Equal(t, "/chart-of-accounts", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"chartOfAccounts": []map[string]any{
				{"key": "a3f8b2c1-9d4e-4f6a-8b2c-1d9e4f6a8b2c", "name": "Office Expenses", "code": "6200"},
			},
		})
	})

	accounts, err := c.ChartOfAccounts(context.Background())
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, "Office Expenses", accounts[0].Name)
	assert.Equal(t, "test-key", gotKey)
}

func TestStatusMapping(t *testing.T) {
	cases := []struct {
		name   string
		status int
		want   error
	}{
		{"not found", http.StatusNotFound, ErrEntityNotFound},
		{"bad request", http.StatusBadRequest, ErrRejected},
		{"unprocessable", http.StatusUnprocessableEntity, ErrRejected},
		{"server error", http.StatusInternalServerError, ErrUnavailable},
		{"bad gateway", http.StatusBadGateway, ErrUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
			})
			_, err := c.Suppliers(context.Background())
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestConnectionFailureIsUnavailable(t *testing.T) {
	c, err := NewClient(Config{BaseURL: "http://127.0.0.1:1", Timeout: 200 * time.Millisecond}, nil)
	require.NoError(t, err)
	_, err = c.BankAccounts(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestCreatePayment(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/payment-form", r.URL.Path)

		var body Payment
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "2026-03-14", body.Date)
		assert.Equal(t, "bank-key-1", body.PaidFrom)
		require.Len(t, body.Lines, 1)
		assert.Equal(t, 42.5, body.Lines[0].UnitPrice)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(CreateResult{Key: "new-entry-key"})
	})

	res, err := c.CreatePayment(context.Background(), Payment{
		Date:     "2026-03-14",
		PaidFrom: "bank-key-1",
		Payee:    "Coffee Corner",
		Lines:    []EntryLine{{Account: "acct-key", UnitPrice: 42.5}},
	})
	require.NoError(t, err)
	assert.Equal(t, "new-entry-key", res.Key)
}

func TestCreateRejectedPropagatesBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"error":"PaidFrom account does not exist"}`))
	})
	_, err := c.CreateExpenseClaim(context.Background(), ExpenseClaim{Date: "2026-01-01"})
	require.ErrorIs(t, err, ErrRejected)
	// 账本的拒绝原因要原样带回，推理服务靠它纠正
	assert.Contains(t, err.Error(), "PaidFrom account does not exist")
}

func TestPaymentsPageSize(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "10", r.URL.Query().Get("pageSize"))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"transactions": []map[string]any{{"key": "t1", "type": "payment", "date": "2026-02-01", "amount": 5}},
		})
	})
	txs, err := c.Payments(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, 5.0, txs[0].Amount)
}

func TestDeleteEntry(t *testing.T) {
	var gotPath string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.Equal(t, http.MethodDelete, r.Method)
		w.WriteHeader(http.StatusOK)
	})
	require.NoError(t, c.DeleteEntry(context.Background(), "payment-form", "entry-key"))
	assert.Equal(t, "/payment-form/entry-key", gotPath)

	c404 := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	assert.ErrorIs(t, c404.DeleteEntry(context.Background(), "payment-form", "missing"), ErrEntityNotFound)
}

func TestBalanceSheetDateParam(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/balance-sheet", r.URL.Path)
		assert.Equal(t, "2026-03-31", r.URL.Query().Get("date"))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"assets": 1000.0})
	})
	rep, err := c.BalanceSheet(context.Background(), "2026-03-31")
	require.NoError(t, err)
	assert.Equal(t, 1000.0, rep["assets"])
}
