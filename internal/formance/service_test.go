package formance

import (
	"strings"
	"testing"

	"signals-ledger-go/internal/models"

	"github.com/shopspring/decimal"
)

// ---------- Unit tests for pure helpers (no Formance stack needed) ----------

func TestFormanceAsset(t *testing.T) {
	tests := []struct {
		symbol string
		want   string
	}{
		{"USD", "USD/2"},
		{"USDC", "USDC/6"},
		{"BTC", "BTC/8"},
		{"UNKNOWN", "UNKNOWN/6"}, // default precision
	}
	for _, tt := range tests {
		if got := formanceAsset(tt.symbol); got != tt.want {
			t.Errorf("formanceAsset(%q) = %q, want %q", tt.symbol, got, tt.want)
		}
	}
}

func TestBigIntToDecimal(t *testing.T) {
	// 12_345 cents = 123.45 USD
	d := decimal.NewFromInt(12_345)
	result := bigIntToDecimal(d.BigInt(), "USD")
	if !result.Equal(decimal.RequireFromString("123.45")) {
		t.Errorf("expected 123.45, got %s", result.String())
	}

	// 100_000_000 smallest units of BTC (precision 8) = 1.0
	d = decimal.NewFromInt(100_000_000)
	result = bigIntToDecimal(d.BigInt(), "BTC")
	if !result.Equal(decimal.NewFromInt(1)) {
		t.Errorf("expected 1, got %s", result.String())
	}

	if result = bigIntToDecimal(nil, "USD"); !result.IsZero() {
		t.Errorf("expected 0, got %s", result.String())
	}
}

func TestIsConflictError(t *testing.T) {
	if isConflictError(nil) {
		t.Error("nil should not be a conflict error")
	}
}

func TestBuildPostTransaction(t *testing.T) {
	tests := []struct {
		txType       models.TransactionType
		counterparty string
		credit       bool
	}{
		{models.TransactionTypeDeposit, "deposits", true},
		{models.TransactionTypePayout, "returns", true},
		{models.TransactionTypeWithdrawal, "withdrawals", false},
		{models.TransactionTypeInvestment, "investments", false},
	}
	for _, tt := range tests {
		t.Run(string(tt.txType), func(t *testing.T) {
			post, err := buildPostTransaction(models.Transaction{
				Id:           "tx-1",
				UserId:       "u1",
				Type:         tt.txType,
				Amount:       decimal.RequireFromString("2200.5"),
				InvestmentId: "inv-1",
			}, "USD")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if post.Reference == nil || *post.Reference != "tx-1" {
				t.Errorf("reference should be the transaction id")
			}
			vars := post.Script.Vars
			if vars["amount"] != "220050" {
				t.Errorf("amount = %q, want 220050", vars["amount"])
			}
			if vars["asset"] != "USD/2" {
				t.Errorf("asset = %q, want USD/2", vars["asset"])
			}
			if vars["counterparty"] != tt.counterparty {
				t.Errorf("counterparty = %q, want %q", vars["counterparty"], tt.counterparty)
			}
			creditsUser := strings.Contains(post.Script.Plain, "destination = @users:$user_id")
			if creditsUser != tt.credit {
				t.Errorf("credit script = %v, want %v", creditsUser, tt.credit)
			}
		})
	}

	if _, err := buildPostTransaction(models.Transaction{Type: "bonus"}, "USD"); err == nil {
		t.Error("expected error for unknown transaction type")
	}
}
