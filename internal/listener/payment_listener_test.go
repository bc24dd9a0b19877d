package listener

import (
	"context"
	"sync"
	"testing"
	"time"

	"signals-ledger-go/internal/database"
	"signals-ledger-go/internal/investment"
	"signals-ledger-go/internal/ledger"
	"signals-ledger-go/internal/models"
	"signals-ledger-go/internal/plans"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	mu           sync.Mutex
	wallets      []models.Wallet
	transactions map[string][]models.PrimeTransaction
}

func (f *fakeSource) ListWallets(_ context.Context, _, _ string, symbols []string) ([]models.Wallet, error) {
	if len(symbols) == 0 {
		return f.wallets, nil
	}
	var out []models.Wallet
	for _, w := range f.wallets {
		for _, s := range symbols {
			if w.Symbol == s {
				out = append(out, w)
			}
		}
	}
	return out, nil
}

func (f *fakeSource) ListWalletTransactions(_ context.Context, _, walletId string, _ time.Time) ([]models.PrimeTransaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.transactions[walletId], nil
}

func deposit(id, address, amount, status string) models.PrimeTransaction {
	return models.PrimeTransaction{
		Id:         id,
		WalletId:   "w-usdc",
		Type:       primeTypeDeposit,
		Status:     status,
		Symbol:     "USDC",
		Amount:     amount,
		TransferTo: models.PrimeTransferInfo{Address: address},
	}
}

type fixture struct {
	db     *database.Service
	engine *investment.Engine
	source *fakeSource
}

func newFixture(t *testing.T) *fixture {
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

	_, err = db.CreateUser(ctx, "u1", "Barbara", "barbara@example.com")
	require.NoError(t, err)

	l := ledger.NewService(db, "USD")
	engine := investment.NewEngine(db, plans.NewCatalog(db), l, nil, models.EngineConfig{})
	return &fixture{
		db:     db,
		engine: engine,
		source: &fakeSource{
			wallets:      []models.Wallet{{Id: "w-usdc", Symbol: "USDC"}, {Id: "w-btc", Symbol: "BTC"}, {Id: "w-eth", Symbol: "ETH"}},
			transactions: map[string][]models.PrimeTransaction{},
		},
	}
}

func (f *fixture) listener() *PaymentListener {
	return NewPaymentListener(PaymentListenerConfig{
		Source:          f.source,
		Investments:     f.db,
		Confirmer:       f.engine,
		PortfolioId:     "portfolio-1",
		Assets: []models.AssetConfig{
			{Symbol: "USDC", Network: "base-mainnet", Stable: true},
			{Symbol: "BTC", Network: "bitcoin-mainnet"},
		},
		LookbackWindow:  time.Hour,
		PollingInterval: time.Minute,
		CleanupInterval: time.Minute,
	})
}

func (f *fixture) pendingInvestment(t *testing.T, address string) *models.Investment {
	t.Helper()
	return f.pendingInvestmentIn(t, "usdc", address)
}

func (f *fixture) pendingInvestmentIn(t *testing.T, method, address string) *models.Investment {
	t.Helper()
	ctx := context.Background()
	inv, err := f.engine.Create(ctx, investment.CreateParams{
		UserId: "u1", PlanId: "starter", Amount: decimal.NewFromInt(500), PaymentMethod: method,
	})
	require.NoError(t, err)
	inv, err = f.engine.AttachPayment(ctx, inv.Id, models.PaymentDetails{Address: address, Network: "base-mainnet"})
	require.NoError(t, err)
	return inv
}

func TestLoadMonitoredWallets(t *testing.T) {
	f := newFixture(t)
	l := f.listener()

	require.NoError(t, l.LoadMonitoredWallets(context.Background()))
	require.Len(t, l.monitoredWallets, 2)
	assert.Equal(t, "w-usdc", l.monitoredWallets[0].Id)
	assert.Equal(t, "base-mainnet", l.monitoredWallets[0].Network)
	assert.Equal(t, "w-btc", l.monitoredWallets[1].Id)
	assert.Equal(t, "bitcoin-mainnet", l.monitoredWallets[1].Network)
}

func TestDepositConfirmsInvestment(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	inv := f.pendingInvestment(t, "0xPay1")

	f.source.transactions["w-usdc"] = []models.PrimeTransaction{
		deposit("prime-pending", "0xpay1", "500", "TRANSACTION_IMPORT_PENDING"),
		deposit("prime-1", "0xpay1", "500", primeStatusSettled),
		deposit("prime-stranger", "0xnobody", "42", primeStatusSettled),
	}

	l := f.listener()
	require.NoError(t, l.LoadMonitoredWallets(ctx))
	l.pollWallets(ctx)

	got, err := f.engine.Get(ctx, inv.Id)
	require.NoError(t, err)
	assert.Equal(t, models.InvestmentStatusActive, got.Status)
	assert.Equal(t, "prime-1", got.PaymentTransactionId)

	assert.True(t, l.isTransactionProcessed("prime-1"))
	assert.True(t, l.isTransactionProcessed("prime-stranger"))
	assert.False(t, l.isTransactionProcessed("prime-pending"))

	// a restarted listener sees the same deposit again
	restarted := f.listener()
	require.NoError(t, restarted.LoadMonitoredWallets(ctx))
	restarted.pollWallets(ctx)

	txs, err := f.db.GetInvestmentTransactions(ctx, inv.Id)
	require.NoError(t, err)
	assert.Len(t, txs, 2)
}

func TestUnderpaymentIsNotConfirmed(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	inv := f.pendingInvestment(t, "0xPay2")

	f.source.transactions["w-usdc"] = []models.PrimeTransaction{
		deposit("prime-2", "0xPay2", "-499.99", primeStatusSettled),
	}

	l := f.listener()
	require.NoError(t, l.LoadMonitoredWallets(ctx))
	l.pollWallets(ctx)

	got, err := f.engine.Get(ctx, inv.Id)
	require.NoError(t, err)
	assert.Equal(t, models.InvestmentStatusPending, got.Status)
	assert.True(t, l.isTransactionProcessed("prime-2"))
}

func TestStableDepositBelowPrincipalIsNotConfirmed(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	inv := f.pendingInvestment(t, "0xPay3")

	f.source.transactions["w-usdc"] = []models.PrimeTransaction{
		deposit("prime-3", "0xPay3", "499.99", primeStatusSettled),
	}

	l := f.listener()
	require.NoError(t, l.LoadMonitoredWallets(ctx))
	l.pollWallets(ctx)

	got, err := f.engine.Get(ctx, inv.Id)
	require.NoError(t, err)
	assert.Equal(t, models.InvestmentStatusPending, got.Status)
}

func TestNonStableDepositConfirmsWithoutAmountCheck(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	inv := f.pendingInvestmentIn(t, "btc", "bc1qpay4")

	btc := deposit("prime-4", "bc1qpay4", "0.0075", primeStatusSettled)
	btc.WalletId = "w-btc"
	btc.Symbol = "BTC"
	f.source.transactions["w-btc"] = []models.PrimeTransaction{btc}

	l := f.listener()
	require.NoError(t, l.LoadMonitoredWallets(ctx))
	l.pollWallets(ctx)

	got, err := f.engine.Get(ctx, inv.Id)
	require.NoError(t, err)
	assert.Equal(t, models.InvestmentStatusActive, got.Status)
	assert.Equal(t, "prime-4", got.PaymentTransactionId)
	assert.True(t, decimal.NewFromInt(500).Equal(got.Amount))
	assert.True(t, l.isTransactionProcessed("prime-4"))
}

func TestCleanupProcessedTransactions(t *testing.T) {
	f := newFixture(t)
	l := f.listener()

	l.processedTxIds["old"] = time.Now().Add(-2 * time.Hour)
	l.markTransactionProcessed("fresh")
	l.cleanupProcessedTransactions()

	assert.False(t, l.isTransactionProcessed("old"))
	assert.True(t, l.isTransactionProcessed("fresh"))
}
