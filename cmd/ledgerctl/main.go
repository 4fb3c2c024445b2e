package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"piggybank/internal/config"
	"piggybank/internal/database"
	"piggybank/internal/logger"
	"piggybank/internal/repository"
	"piggybank/internal/service"
)

func main() {
	exportCmd := flag.NewFlagSet("export", flag.ExitOnError)
	verifyCmd := flag.NewFlagSet("verify", flag.ExitOnError)

	exportOutput := exportCmd.String("output", "", "Output file path (default: piggybank_YYYYMMDD_HHMMSS.json)")

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg := config.Load()
	log := logger.New(cfg.Debug)
	ctx := context.Background()

	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	// Run migrations to ensure schema is up to date
	if err := db.RunMigrations(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	backupService := service.NewBackupService(
		repository.NewUserRepository(db),
		repository.NewKidRepository(db),
		repository.NewTransactionRepository(db),
		log,
	)

	switch os.Args[1] {
	case "export":
		exportCmd.Parse(os.Args[2:])
		handleExport(ctx, log, backupService, *exportOutput)

	case "verify":
		verifyCmd.Parse(os.Args[2:])
		if !handleVerify(ctx, log, backupService) {
			db.Close()
			os.Exit(2)
		}

	default:
		printUsage()
		os.Exit(1)
	}
}

func handleExport(ctx context.Context, log zerolog.Logger, backupService *service.BackupService, outputPath string) {
	if outputPath == "" {
		outputPath = fmt.Sprintf("piggybank_%s.json", time.Now().Format("20060102_150405"))
	}

	if dir := filepath.Dir(outputPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatal().Err(err).Msg("Failed to create output directory")
		}
	}

	file, err := os.Create(outputPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create output file")
	}
	defer file.Close()

	log.Info().Str("path", outputPath).Msg("Exporting database")
	if err := backupService.Export(ctx, file); err != nil {
		log.Fatal().Err(err).Msg("Export failed")
	}
}

// handleVerify reports every kid whose balance disagrees with its transactions
func handleVerify(ctx context.Context, log zerolog.Logger, backupService *service.BackupService) bool {
	mismatches, err := backupService.VerifyLedger(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Verification failed")
	}

	for _, m := range mismatches {
		fmt.Printf("%s (%s): balance %s, transactions sum %s\n",
			m.KidName, m.KidID, m.Balance.StringFixed(2), m.TransactionsSum.StringFixed(2))
	}
	if len(mismatches) > 0 {
		return false
	}
	fmt.Println("Ledger OK: every balance matches its transactions")
	return true
}

func printUsage() {
	fmt.Println("Piggybank ledger tool")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  ledgerctl export [options]    Export users, kids, and transactions to JSON")
	fmt.Println("  ledgerctl verify              Check every kid balance against its transactions")
	fmt.Println()
	fmt.Println("Export Options:")
	fmt.Println("  -output <file>    Output file path (default: piggybank_YYYYMMDD_HHMMSS.json)")
	fmt.Println()
	fmt.Println("Environment Variables:")
	fmt.Println("  DATABASE_TYPE    Database type: sqlite, postgres, or mysql (default: sqlite)")
	fmt.Println("  DB_PATH          SQLite database path (default: ./piggybank.db)")
	fmt.Println("  DATABASE_URL     PostgreSQL or MySQL connection URL")
}
