package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/accountdesk/internal/sqlite"
	"github.com/mesh-intelligence/accountdesk/pkg/types"
)

func newSeededBackend(t *testing.T) (*sqlite.Backend, string) {
	t.Helper()
	b := sqlite.NewBackend()
	require.NoError(t, b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()}))
	t.Cleanup(func() { b.Detach() })

	id, err := b.SaveAccount(context.Background(), types.Account{
		Name:          "Acme",
		Owner:         &types.Owner{Name: "Alice"},
		Phone:         strPtr("555-0100"),
		AnnualRevenue: decimal.NewNullDecimal(decimal.NewFromInt(500000)),
	})
	require.NoError(t, err)
	return b, id
}

func do(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, Response) {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return rec, resp
}

func TestHealth(t *testing.T) {
	b, _ := newSeededBackend(t)
	rec, resp := do(t, New(b, nil).Handler(), http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, resp.Success)
}

func TestListAccounts(t *testing.T) {
	b, id := newSeededBackend(t)
	rec, resp := do(t, New(b, nil).Handler(), http.MethodGet, "/api/accounts", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var accounts []types.Account
	require.NoError(t, json.Unmarshal(resp.Data, &accounts))
	require.Len(t, accounts, 1)
	assert.Equal(t, id, accounts[0].ID)
	assert.Equal(t, "Alice", accounts[0].Owner.Name)
	assert.True(t, accounts[0].AnnualRevenue.Decimal.Equal(decimal.NewFromInt(500000)))
}

func TestGetAccount(t *testing.T) {
	b, id := newSeededBackend(t)
	h := New(b, nil).Handler()

	rec, resp := do(t, h, http.MethodGet, "/api/accounts/"+id, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var account types.Account
	require.NoError(t, json.Unmarshal(resp.Data, &account))
	assert.Equal(t, "Acme", account.Name)

	rec, resp = do(t, h, http.MethodGet, "/api/accounts/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeNotFound, resp.Error.Code)
}

func TestUpdateAccount(t *testing.T) {
	b, id := newSeededBackend(t)
	h := New(b, nil).Handler()

	rec, resp := do(t, h, http.MethodPatch, "/api/accounts/"+id,
		`{"Phone":"555-0199","annualRevenue":"1250000.50","website":null}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var account types.Account
	require.NoError(t, json.Unmarshal(resp.Data, &account))
	require.NotNil(t, account.Phone)
	assert.Equal(t, "555-0199", *account.Phone)
	assert.Equal(t, "1250000.50", account.AnnualRevenue.Decimal.StringFixed(2))
	assert.Nil(t, account.Website)
}

func TestUpdateAccountKeepsNumericRevenuePrecision(t *testing.T) {
	b, id := newSeededBackend(t)
	h := New(b, nil).Handler()

	rec, _ := do(t, h, http.MethodPatch, "/api/accounts/"+id,
		`{"annualRevenue":123456789012345678.91}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	account, err := b.GetAccount(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "123456789012345678.91", account.AnnualRevenue.Decimal.String())
}

func TestUpdateAccountErrors(t *testing.T) {
	b, id := newSeededBackend(t)
	h := New(b, nil).Handler()

	tests := []struct {
		name   string
		path   string
		body   string
		status int
		code   string
	}{
		{"malformed body", "/api/accounts/" + id, `{`, http.StatusBadRequest, CodeBadRequest},
		{"unknown field", "/api/accounts/" + id, `{"color":"red"}`, http.StatusBadRequest, CodeInvalidField},
		{"read-only field", "/api/accounts/" + id, `{"name":"X"}`, http.StatusBadRequest, CodeNotEditable},
		{"bad website", "/api/accounts/" + id, `{"website":"nope"}`, http.StatusBadRequest, CodeInvalidValue},
		{"bad revenue type", "/api/accounts/" + id, `{"annualRevenue":true}`, http.StatusBadRequest, CodeTypeMismatch},
		{"empty delta", "/api/accounts/" + id, `{}`, http.StatusBadRequest, CodeEmptyDelta},
		{"missing record", "/api/accounts/missing", `{"phone":"1"}`, http.StatusNotFound, CodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, resp := do(t, h, http.MethodPatch, tt.path, tt.body)
			assert.Equal(t, tt.status, rec.Code)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
			assert.False(t, resp.Success)
		})
	}
}

// listOnly hides GetAccount so the handler falls back to scanning the list.
type listOnly struct {
	Records
}

func TestGetAccountFallsBackToList(t *testing.T) {
	b, id := newSeededBackend(t)
	h := New(listOnly{b}, nil).Handler()

	rec, _ := do(t, h, http.MethodGet, "/api/accounts/"+id, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, resp := do(t, h, http.MethodGet, "/api/accounts/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, CodeNotFound, resp.Error.Code)
}

func TestDetachedBackendIsUnavailable(t *testing.T) {
	b, _ := newSeededBackend(t)
	require.NoError(t, b.Detach())

	rec, resp := do(t, New(b, nil).Handler(), http.MethodGet, "/api/accounts", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, CodeUnavailable, resp.Error.Code)
}

func TestServeStopsOnCancel(t *testing.T) {
	b, _ := newSeededBackend(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- New(b, nil).ListenAndServe(ctx, "127.0.0.1:0") }()
	cancel()

	assert.NoError(t, <-done)
}

func TestCodeError(t *testing.T) {
	assert.ErrorIs(t, CodeError(CodeNotFound), types.ErrNotFound)
	assert.Nil(t, CodeError(CodeInternal))
}

func TestMetricsCountRequestsByRoute(t *testing.T) {
	b, id := newSeededBackend(t)
	h := New(b, nil).Handler()

	do(t, h, http.MethodGet, "/api/accounts/"+id, "")
	do(t, h, http.MethodPatch, "/api/accounts/"+id, `{"phone":"555-0000"}`)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `accountdesk_http_requests_total{method="GET",route="/api/accounts/{accountID}",status="200"} 1`)
	assert.Contains(t, body, `accountdesk_record_updates_total{outcome="ok"} 1`)
	assert.NotContains(t, body, id)
}

func strPtr(s string) *string { return &s }
