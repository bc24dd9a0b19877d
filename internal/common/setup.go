package common

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"signals-ledger-go/internal/api"
	"signals-ledger-go/internal/database"
	"signals-ledger-go/internal/formance"
	"signals-ledger-go/internal/investment"
	"signals-ledger-go/internal/ledger"
	"signals-ledger-go/internal/models"
	"signals-ledger-go/internal/notify"
	"signals-ledger-go/internal/plans"
	"signals-ledger-go/internal/prime"

	"github.com/coinbase-samples/prime-sdk-go/credentials"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// init loads environment variables from .env file if it exists
func init() {
	// Environment variables can also be set via shell export, docker, etc.
	if err := godotenv.Load(); err != nil {
		log.Printf("Note: No .env file found or unable to load it: %v\n", err)
		log.Println("Make sure to set environment variables via export or other means")
	} else {
		log.Println("✓ Loaded environment variables from .env file")
	}
}

// Services is the fully wired application. Mirror, QueueClient and the Prime
// fields stay nil when their configuration is absent.
type Services struct {
	Config  *models.Config
	Store   *database.Service
	Catalog *plans.Catalog
	Ledger  *ledger.Service
	Engine  *investment.Engine
	Api     *api.InvestmentService
	Mirror  *formance.Service

	QueueClient *asynq.Client

	PrimeService     *prime.Service
	DefaultPortfolio *models.Portfolio
	Assets           []models.AssetConfig
}

func InitializeLogger() (*zap.Logger, func()) {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	zap.ReplaceGlobals(logger)

	cleanup := func() {
		if err := logger.Sync(); err != nil {
			if !isIgnorableSyncError(err) {
				log.Printf("Failed to sync logger: %v\n", err)
			}
		}
	}

	return logger, cleanup
}

func InitializeServices(ctx context.Context, cfg *models.Config) (*Services, error) {
	dbService, err := database.NewService(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	services := &Services{Config: cfg, Store: dbService}

	services.Catalog = plans.NewCatalog(dbService)
	if cfg.PlansFile != "" {
		if err := services.SeedPlans(ctx, cfg.PlansFile); err != nil {
			services.Close()
			return nil, err
		}
	}

	var ledgerOpts []ledger.Option
	if cfg.Formance.Enabled {
		zap.L().Info("Connecting to Formance ledger mirror", zap.String("stack_url", cfg.Formance.StackURL))
		mirror, err := formance.NewService(ctx, cfg.Formance, cfg.Engine.Currency)
		if err != nil {
			services.Close()
			return nil, err
		}
		services.Mirror = mirror
		ledgerOpts = append(ledgerOpts, ledger.WithMirror(mirror))
	}
	services.Ledger = ledger.NewService(dbService, cfg.Engine.Currency, ledgerOpts...)

	sinks := notify.MultiSink{notify.LogSink{}}
	if cfg.Notify.RedisAddr != "" {
		services.QueueClient = asynq.NewClient(RedisOpt(cfg.Notify))
		sinks = append(sinks, notify.NewQueueSink(services.QueueClient, cfg.Notify.Queue, cfg.Notify.EnqueueTimeout))
		zap.L().Info("Queueing investment events", zap.String("redis_addr", cfg.Notify.RedisAddr))
	}
	services.Engine = investment.NewEngine(dbService, services.Catalog, services.Ledger, sinks, cfg.Engine)

	var payments investment.PaymentProvider
	if err := services.initializePrime(ctx); err != nil {
		zap.L().Warn("Crypto payments disabled", zap.Error(err))
	} else {
		payments = prime.NewPaymentProvider(services.PrimeService, services.DefaultPortfolio.Id, services.Assets)
	}
	services.Api = api.NewInvestmentService(dbService, services.Catalog, services.Ledger, services.Engine, payments)

	return services, nil
}

// InitializeDatabaseOnly initializes just the database service without Prime API
// Useful for read-only operations like querying balances
func InitializeDatabaseOnly(ctx context.Context, cfg *models.Config) (*database.Service, error) {
	return database.NewService(ctx, cfg.Database)
}

// SeedPlans replaces the stored catalog entries named in a plans file.
func (cs *Services) SeedPlans(ctx context.Context, path string) error {
	version, catalog, err := plans.LoadPlansFile(path)
	if err != nil {
		return err
	}
	if err := cs.Catalog.Seed(ctx, catalog); err != nil {
		return fmt.Errorf("failed to seed plans from %s: %w", path, err)
	}
	zap.L().Info("Plans loaded",
		zap.String("file", path),
		zap.String("version", version),
		zap.Int("count", len(catalog)))
	return nil
}

// Reconciler builds a reconciler that also compares against the mirror when one is configured.
func (cs *Services) Reconciler(repair bool) *ledger.Reconciler {
	opts := []ledger.ReconcilerOption{ledger.WithRepair(repair)}
	if cs.Mirror != nil {
		opts = append(opts, ledger.WithBalanceMirror(cs.Mirror))
	}
	return ledger.NewReconciler(cs.Store, cs.Ledger, opts...)
}

// RequirePrime fails for commands that cannot run without Prime credentials.
func (cs *Services) RequirePrime() error {
	if cs.PrimeService == nil || cs.DefaultPortfolio == nil {
		return fmt.Errorf("prime API is not configured: set PRIME_ACCESS_KEY, PRIME_PASSPHRASE and PRIME_SIGNING_KEY")
	}
	return nil
}

func (cs *Services) Close() {
	if cs.QueueClient != nil {
		if err := cs.QueueClient.Close(); err != nil {
			zap.L().Warn("Failed to close queue client", zap.Error(err))
		}
	}
	if cs.Store != nil {
		cs.Store.Close()
	}
}

func RedisOpt(cfg models.NotifyConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword}
}

func (cs *Services) initializePrime(ctx context.Context) error {
	creds, err := loadPrimeCredentials()
	if err != nil {
		return err
	}

	primeService, err := prime.NewService(creds)
	if err != nil {
		return err
	}

	zap.L().Info("Finding default portfolio")
	defaultPortfolio, err := primeService.FindDefaultPortfolio(ctx)
	if err != nil {
		return err
	}
	zap.L().Info("Using default portfolio",
		zap.String("name", defaultPortfolio.Name),
		zap.String("id", defaultPortfolio.Id))

	assets, err := LoadAssetConfig(cs.Config.Listener.AssetsFile)
	if err != nil {
		return err
	}
	zap.L().Info("Asset configuration loaded", zap.Int("count", len(assets)))

	cs.PrimeService = primeService
	cs.DefaultPortfolio = defaultPortfolio
	cs.Assets = assets
	return nil
}

func loadPrimeCredentials() (*credentials.Credentials, error) {
	accessKey := os.Getenv("PRIME_ACCESS_KEY")
	passphrase := os.Getenv("PRIME_PASSPHRASE")
	signingKey := os.Getenv("PRIME_SIGNING_KEY")

	if accessKey == "" || passphrase == "" || signingKey == "" {
		return nil, fmt.Errorf("missing required Prime API credentials: PRIME_ACCESS_KEY, PRIME_PASSPHRASE, PRIME_SIGNING_KEY")
	}

	return &credentials.Credentials{
		AccessKey:  accessKey,
		Passphrase: passphrase,
		SigningKey: signingKey,
	}, nil
}

func isIgnorableSyncError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "sync /dev/stderr: inappropriate ioctl for device") ||
		strings.Contains(msg, "sync /dev/stdout: inappropriate ioctl for device")
}
