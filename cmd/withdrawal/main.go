package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strings"

	"signals-ledger-go/internal/common"
	"signals-ledger-go/internal/config"
	"signals-ledger-go/internal/models"
	"signals-ledger-go/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type withdrawalRequest struct {
	email          string
	amount         decimal.Decimal
	reference      string
	idempotencyKey string
}

func parseAndValidateFlags() (*withdrawalRequest, error) {
	emailFlag := flag.String("email", "", "User email (required)")
	amountFlag := flag.String("amount", "", "Cash amount to withdraw (required)")
	referenceFlag := flag.String("reference", "", "Payout reference, e.g. bank transfer id (required)")
	keyFlag := flag.String("idempotency-key", "", "Reuse to retry a withdrawal safely (default: generated)")
	flag.Parse()

	if *emailFlag == "" || *amountFlag == "" || *referenceFlag == "" {
		return nil, fmt.Errorf("flags are required: --email, --amount, --reference")
	}

	amount, err := decimal.NewFromString(*amountFlag)
	if err != nil {
		return nil, fmt.Errorf("invalid amount format: %w", err)
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("amount must be greater than zero")
	}

	return &withdrawalRequest{
		email:          *emailFlag,
		amount:         amount,
		reference:      *referenceFlag,
		idempotencyKey: *keyFlag,
	}, nil
}

func generateIdempotencyKey(userId string) string {
	userIdSegments := strings.Split(userId, "-")
	uuidSegments := strings.Split(uuid.New().String(), "-")
	return "withdrawal:" + userIdSegments[0] + "-" + strings.Join(uuidSegments[1:], "-")
}

func printWithdrawalSummary(user *models.User, currentBalance, amount decimal.Decimal, reference, currency string) {
	common.PrintHeader("WITHDRAWAL REQUEST", common.DefaultWidth)
	fmt.Printf("User:              %s (%s)\n", user.Name, user.Email)
	fmt.Printf("Current Balance:   %s\n", common.FormatAmount(currentBalance, currency))
	fmt.Printf("Withdrawal Amount: %s\n", common.FormatAmount(amount, currency))
	fmt.Printf("Remaining Balance: %s\n", common.FormatAmount(currentBalance.Sub(amount), currency))
	fmt.Printf("Reference:         %s\n", reference)
	common.PrintSeparator("=", common.DefaultWidth)
	fmt.Println()
}

func main() {
	ctx := context.Background()

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	req, err := parseAndValidateFlags()
	if err != nil {
		zap.L().Fatal("Invalid flags", zap.Error(err))
	}

	zap.L().Info("Starting withdrawal process",
		zap.String("email", req.email),
		zap.String("amount", req.amount.String()),
		zap.String("reference", req.reference))

	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("Failed to load config", zap.Error(err))
	}

	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	targetUser, err := services.Store.GetUserByEmail(ctx, req.email)
	if err != nil {
		common.PrintHeader("WITHDRAWAL FAILED", common.DefaultWidth)
		fmt.Printf("Error: User not found for email %s\n", req.email)
		common.PrintSeparator("=", common.DefaultWidth)
		zap.L().Fatal("User not found", zap.String("email", req.email), zap.Error(err))
	}

	currentBalance, err := services.Ledger.GetBalance(ctx, targetUser.Id)
	if err != nil {
		zap.L().Fatal("Failed to read balance", zap.Error(err))
	}
	printWithdrawalSummary(targetUser, currentBalance, req.amount, req.reference, cfg.Engine.Currency)

	if req.idempotencyKey == "" {
		req.idempotencyKey = generateIdempotencyKey(targetUser.Id)
	}

	result, err := services.Api.Withdraw(ctx, targetUser.Id, req.amount, req.reference, req.idempotencyKey)
	if err != nil {
		var insufficient *store.InsufficientBalanceError
		if errors.As(err, &insufficient) {
			fmt.Printf("Insufficient balance: shortfall %s\n",
				common.FormatAmount(insufficient.Requested.Sub(insufficient.Available), cfg.Engine.Currency))
		}
		zap.L().Fatal("Withdrawal failed", zap.String("idempotency_key", req.idempotencyKey), zap.Error(err))
	}

	fmt.Printf("Withdrawal recorded. New balance: %s\n", common.FormatAmount(result.NewBalance, cfg.Engine.Currency))
	fmt.Printf("Idempotency key:   %s\n\n", req.idempotencyKey)

	zap.L().Info("Withdrawal completed successfully",
		zap.String("user_id", targetUser.Id),
		zap.String("amount", req.amount.String()),
		zap.String("new_balance", result.NewBalance.String()))
}
