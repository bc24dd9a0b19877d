package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"signals-ledger-go/internal/common"
	"signals-ledger-go/internal/config"
	"signals-ledger-go/internal/ledger"

	"go.uber.org/zap"
)

func printReport(report ledger.Report, currency string, isLast bool) {
	status := "OK"
	switch {
	case report.Repaired:
		status = "REPAIRED"
	case !report.Balanced():
		status = "MISMATCH"
	}

	fmt.Printf("%s %-38s %-9s stored=%s computed=%s txs=%d\n",
		common.BoxPrefix(isLast),
		report.UserId,
		status,
		common.FormatAmount(report.Stored, currency),
		common.FormatAmount(report.Computed, currency),
		report.TransactionCount)

	if report.MirrorBalance.Valid && !report.MirrorBalance.Decimal.Equal(report.Stored) {
		fmt.Printf("%s   mirror balance: %s\n",
			common.BoxDetailPrefix(isLast),
			common.FormatAmount(report.MirrorBalance.Decimal, currency))
	}
}

func main() {
	ctx := context.Background()

	logger, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	repairFlag := flag.Bool("repair", false, "Append correcting transactions for mismatched balances")
	userFlag := flag.String("user", "", "Reconcile a single user id (optional)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	reconciler := services.Reconciler(*repairFlag)

	var reports []ledger.Report
	if *userFlag != "" {
		report, err := reconciler.ReconcileUser(ctx, *userFlag)
		if err != nil {
			logger.Fatal("Failed to reconcile user", zap.String("user_id", *userFlag), zap.Error(err))
		}
		reports = append(reports, *report)
	} else {
		reports, err = reconciler.ReconcileAll(ctx)
		if err != nil {
			logger.Error("Reconciliation finished with errors", zap.Error(err))
		}
	}

	common.PrintHeader("BALANCE RECONCILIATION", common.WideWidth)
	mismatched := 0
	for i, report := range reports {
		printReport(report, cfg.Engine.Currency, i == len(reports)-1)
		if !report.Balanced() && !report.Repaired {
			mismatched++
		}
	}

	issues, err := reconciler.CheckInvestments(ctx)
	if err != nil {
		logger.Fatal("Failed to check investments", zap.Error(err))
	}

	common.PrintHeader("INVESTMENT LEDGER TRAIL", common.WideWidth)
	if len(issues) == 0 {
		fmt.Println("All active and completed investments have a matching ledger trail")
	}
	for i, issue := range issues {
		fmt.Printf("%s %s (%s, user %s): %s\n",
			common.BoxPrefix(i == len(issues)-1),
			issue.InvestmentId, issue.Status, issue.UserId, issue.Problem)
	}

	summary := fmt.Sprintf("SUMMARY: %d balances checked, %d mismatched, %d investment issues",
		len(reports), mismatched, len(issues))
	common.PrintFooter(summary, common.WideWidth)

	if mismatched > 0 || len(issues) > 0 {
		os.Exit(1)
	}
}
