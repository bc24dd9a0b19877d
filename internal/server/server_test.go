package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"signals-ledger-go/internal/api"
	"signals-ledger-go/internal/database"
	"signals-ledger-go/internal/investment"
	"signals-ledger-go/internal/ledger"
	"signals-ledger-go/internal/models"
	"signals-ledger-go/internal/plans"
	"signals-ledger-go/internal/store"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	ctx := context.Background()

	db, err := database.NewService(ctx, models.DatabaseConfig{
		Path:         ":memory:",
		MaxOpenConns: 1,
		MaxIdleConns: 1,
		PingTimeout:  time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(db.Close)

	_, err = db.CreateUser(ctx, "u1", "Linus", "linus@example.com")
	require.NoError(t, err)

	catalog := plans.NewCatalog(db)
	l := ledger.NewService(db, "USD")
	engine := investment.NewEngine(db, catalog, l, nil, models.EngineConfig{})
	svc := api.NewInvestmentService(db, catalog, l, engine, nil)
	return New(svc, models.ServerConfig{Addr: ":0"}).Handler()
}

func do(t *testing.T, h http.Handler, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealthAndPlans(t *testing.T) {
	h := newTestServer(t)

	rec := do(t, h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/plans", "")
	require.Equal(t, http.StatusOK, rec.Code)
	plansList := decode[[]models.InvestmentPlan](t, rec)
	require.NotEmpty(t, plansList)
	assert.Equal(t, "starter", plansList[0].Id)

	rec = do(t, h, http.MethodGet, "/api/plans/starter/quote?amount=200", "")
	require.Equal(t, http.StatusOK, rec.Code)
	quote := decode[models.InvestmentQuote](t, rec)
	assert.True(t, decimal.NewFromInt(2200).Equal(quote.TotalReturn))

	rec = do(t, h, http.MethodGet, "/api/plans/starter/quote?amount=abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestInvestmentLifecycleOverHTTP(t *testing.T) {
	h := newTestServer(t)

	rec := do(t, h, http.MethodPost, "/api/users/u1/investments",
		`{"plan_id":"starter","amount":"600","fund_from_balance":true}`)
	require.Equal(t, http.StatusPaymentRequired, rec.Code, rec.Body.String())
	assert.Equal(t, store.KindInsufficientBalance, decode[errorResponse](t, rec).Kind)

	rec = do(t, h, http.MethodPost, "/api/users/u1/deposits", `{"amount":"1000","reference":"wire-1"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, h, http.MethodPost, "/api/users/u1/investments",
		`{"plan_id":"starter","amount":"250","payment_method":"usdc"}`, idempotencyHeader, "create-1")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	pending := decode[models.Investment](t, rec)
	assert.Equal(t, models.InvestmentStatusPending, pending.Status)

	rec = do(t, h, http.MethodPost, "/api/investments/"+pending.Id+"/complete", "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/investments/"+pending.Id+"/confirm", `{"transaction_id":"tx-9"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, models.InvestmentStatusActive, decode[models.Investment](t, rec).Status)

	rec = do(t, h, http.MethodPost, "/api/investments/"+pending.Id+"/complete", `{"actual_return":"300"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	completed := decode[models.Investment](t, rec)
	assert.True(t, decimal.NewFromInt(300).Equal(completed.ActualReturn.Decimal))

	rec = do(t, h, http.MethodGet, "/api/users/u1/balance", "")
	require.Equal(t, http.StatusOK, rec.Code)
	balance := decode[models.UserBalance](t, rec)
	assert.True(t, decimal.NewFromInt(1300).Equal(balance.Balance), "got %s", balance.Balance)

	rec = do(t, h, http.MethodGet, "/api/users/u1/investments/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decode[models.InvestmentStats](t, rec)
	assert.Equal(t, 1, stats.CompletedInvestments)

	rec = do(t, h, http.MethodGet, "/api/users/u1/transactions?limit=10", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.TransactionRecord](t, rec), 4)
}

func TestErrorMapping(t *testing.T) {
	h := newTestServer(t)

	rec := do(t, h, http.MethodGet, "/api/investments/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/users/u1/withdrawals", `{"amount":"5"}`)
	assert.Equal(t, http.StatusPaymentRequired, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/users/u1/investments", `{"plan_id":"starter","amount":"1","payment_method":"usdc"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode[errorResponse](t, rec).Error, "minimum investment is 200")

	rec = do(t, h, http.MethodPost, "/api/users/u1/deposits", `{"amount":"5","surprise":true}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/investments/missing/payment-address", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestAttachPaymentOverHTTP(t *testing.T) {
	h := newTestServer(t)

	rec := do(t, h, http.MethodPost, "/api/users/u1/investments",
		`{"plan_id":"standard","amount":"2500","payment_method":"wire"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	pending := decode[models.Investment](t, rec)

	rec = do(t, h, http.MethodPost, "/api/investments/"+pending.Id+"/payment", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/investments/"+pending.Id+"/payment",
		`{"address":"IBAN-DE89-3704","network":"sepa"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	attached := decode[models.Investment](t, rec)
	assert.Equal(t, "IBAN-DE89-3704", attached.PaymentAddress)
	assert.Equal(t, models.InvestmentStatusPending, attached.Status)
}
