package prime

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"signals-ledger-go/internal/models"
	"signals-ledger-go/internal/store"

	"go.uber.org/zap"
)

var _ WalletAPI = (*Service)(nil)

// WalletAPI is the subset of the Prime client used to issue deposit addresses.
type WalletAPI interface {
	ListWallets(ctx context.Context, portfolioId, walletType string, symbols []string) ([]models.Wallet, error)
	CreateWallet(ctx context.Context, portfolioId, name, symbol, walletType string) (*models.Wallet, error)
	CreateDepositAddress(ctx context.Context, portfolioId, walletId, asset, network string) (*models.DepositAddress, error)
}

// PaymentProvider issues a fresh Prime deposit address per investment so an
// incoming deposit identifies the investment it pays for.
type PaymentProvider struct {
	api         WalletAPI
	portfolioId string
	routes      map[string]models.AssetConfig

	mu      sync.Mutex
	wallets map[string]string
}

func NewPaymentProvider(api WalletAPI, portfolioId string, assets []models.AssetConfig) *PaymentProvider {
	routes := make(map[string]models.AssetConfig, len(assets))
	for _, asset := range assets {
		method := asset.PaymentMethod
		if method == "" {
			method = asset.Symbol
		}
		routes[strings.ToLower(method)] = asset
	}
	return &PaymentProvider{
		api:         api,
		portfolioId: portfolioId,
		routes:      routes,
		wallets:     make(map[string]string),
	}
}

// Methods lists the payment methods this provider can serve.
func (p *PaymentProvider) Methods() []string {
	methods := make([]string, 0, len(p.routes))
	for method := range p.routes {
		methods = append(methods, method)
	}
	return methods
}

func (p *PaymentProvider) RequestPayment(ctx context.Context, inv models.Investment) (*models.PaymentDetails, error) {
	route, ok := p.routes[strings.ToLower(inv.PaymentMethod)]
	if !ok {
		return nil, store.NewValidationError("payment_method", "unsupported payment method %s", inv.PaymentMethod)
	}

	walletId, err := p.walletFor(ctx, route.Symbol)
	if err != nil {
		return nil, err
	}

	address, err := p.api.CreateDepositAddress(ctx, p.portfolioId, walletId, route.Symbol, route.Network)
	if err != nil {
		return nil, err
	}

	zap.L().Info("Deposit address issued",
		zap.String("investment_id", inv.Id),
		zap.String("asset", route.Symbol),
		zap.String("network", route.Network),
		zap.String("address", address.Address))

	return &models.PaymentDetails{
		Address:           address.Address,
		Network:           route.Network,
		Asset:             route.Symbol,
		AccountIdentifier: address.AccountIdentifier,
	}, nil
}

// walletFor returns the trading wallet for symbol, creating it when missing.
func (p *PaymentProvider) walletFor(ctx context.Context, symbol string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if id, ok := p.wallets[symbol]; ok {
		return id, nil
	}

	wallets, err := p.api.ListWallets(ctx, p.portfolioId, "TRADING", []string{symbol})
	if err != nil {
		return "", fmt.Errorf("failed to list wallets: %w", err)
	}
	for _, w := range wallets {
		if w.Symbol == symbol {
			p.wallets[symbol] = w.Id
			return w.Id, nil
		}
	}

	walletName := fmt.Sprintf("%s Investments Wallet", symbol)
	zap.L().Info("Creating trading wallet", zap.String("symbol", symbol), zap.String("name", walletName))
	wallet, err := p.api.CreateWallet(ctx, p.portfolioId, walletName, symbol, "TRADING")
	if err != nil {
		return "", fmt.Errorf("failed to create wallet: %w", err)
	}
	p.wallets[symbol] = wallet.Id
	return wallet.Id, nil
}
