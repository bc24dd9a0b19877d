package prime

import (
	"context"
	"testing"

	"signals-ledger-go/internal/models"
	"signals-ledger-go/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWalletAPI struct {
	wallets       []models.Wallet
	created       int
	addressesMade int
}

func (f *fakeWalletAPI) ListWallets(_ context.Context, _, _ string, symbols []string) ([]models.Wallet, error) {
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

func (f *fakeWalletAPI) CreateWallet(_ context.Context, _, name, symbol, walletType string) (*models.Wallet, error) {
	f.created++
	w := models.Wallet{Id: "wallet-" + symbol, Name: name, Symbol: symbol, Type: walletType}
	f.wallets = append(f.wallets, w)
	return &w, nil
}

func (f *fakeWalletAPI) CreateDepositAddress(_ context.Context, _, walletId, asset, network string) (*models.DepositAddress, error) {
	f.addressesMade++
	return &models.DepositAddress{
		Address:           "0xaddr" + walletId,
		AccountIdentifier: "acct-" + walletId,
		Network:           network,
		Asset:             asset,
		WalletId:          walletId,
	}, nil
}

func TestRequestPayment(t *testing.T) {
	api := &fakeWalletAPI{wallets: []models.Wallet{{Id: "w-usdc", Symbol: "USDC"}}}
	provider := NewPaymentProvider(api, "portfolio-1", []models.AssetConfig{
		{Symbol: "USDC", Network: "base-mainnet"},
		{Symbol: "ETH", Network: "ethereum-mainnet", PaymentMethod: "ether"},
	})
	assert.ElementsMatch(t, []string{"usdc", "ether"}, provider.Methods())

	details, err := provider.RequestPayment(context.Background(), models.Investment{Id: "inv-1", PaymentMethod: "USDC"})
	require.NoError(t, err)
	assert.Equal(t, "0xaddrw-usdc", details.Address)
	assert.Equal(t, "base-mainnet", details.Network)
	assert.Equal(t, "USDC", details.Asset)
	assert.Zero(t, api.created)

	details, err = provider.RequestPayment(context.Background(), models.Investment{Id: "inv-2", PaymentMethod: "ether"})
	require.NoError(t, err)
	assert.Equal(t, "ETH", details.Asset)
	assert.Equal(t, 1, api.created)

	_, err = provider.RequestPayment(context.Background(), models.Investment{Id: "inv-3", PaymentMethod: "ether"})
	require.NoError(t, err)
	assert.Equal(t, 1, api.created)
	assert.Equal(t, 3, api.addressesMade)

	_, err = provider.RequestPayment(context.Background(), models.Investment{Id: "inv-4", PaymentMethod: "paypal"})
	assert.ErrorIs(t, err, store.ErrValidation)
}

func TestWalletIdempotencyKey(t *testing.T) {
	a := WalletIdempotencyKey("portfolio-1", "USDC", "TRADING")
	assert.Equal(t, a, WalletIdempotencyKey("portfolio-1", "USDC", "TRADING"))
	assert.NotEqual(t, a, WalletIdempotencyKey("portfolio-1", "BTC", "TRADING"))
	assert.NotEqual(t, a, WalletIdempotencyKey("portfolio-2", "USDC", "TRADING"))
	assert.Len(t, a, 36)
}
