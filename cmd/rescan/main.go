// Package main is the entry point for the periodic bill pattern re-scan.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/finance-tracker/recurring/config"
	"github.com/finance-tracker/recurring/internal/application/usecase/maintenance"
	"github.com/finance-tracker/recurring/internal/infra/db"
	"github.com/finance-tracker/recurring/internal/infra/dependency"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		slog.Info("Received interrupt signal, stopping re-scan...")
		cancel()
	}()

	err := rescanCmd().ExecuteContext(ctx)
	cancel()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rescanCmd() *cobra.Command {
	var (
		userFlag   string
		autoCreate bool
	)

	cmd := &cobra.Command{
		Use:   "rescan",
		Short: "Re-run bill pattern detection and scheduling",
		Long: `Re-run detection, occurrence scheduling, duplicate cleanup, classification
propagation and remaining-transaction classification for one user or every user
that owns transactions.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			input := maintenance.RescanInput{AutoCreate: autoCreate}
			if userFlag != "" {
				userID, err := uuid.Parse(userFlag)
				if err != nil {
					return fmt.Errorf("invalid --user value %q: %w", userFlag, err)
				}
				input.UserID = &userID
			}
			return runRescan(cmd.Context(), input)
		},
	}

	cmd.Flags().StringVar(&userFlag, "user", "", "re-scan a single user (UUID); defaults to every user")
	cmd.Flags().BoolVar(&autoCreate, "auto-create", false, "create bill patterns for strong candidates")

	return cmd
}

func runRescan(ctx context.Context, input maintenance.RescanInput) error {
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := config.Load()

	database, err := db.NewConnection(&cfg.Database)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer func() {
		if err := database.Close(); err != nil {
			slog.Error("Failed to close database connection", "error", err)
		}
	}()

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = db.NewRedisClient(&cfg.Redis)
		if err != nil {
			return fmt.Errorf("redis connection failed: %w", err)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				slog.Error("Failed to close redis connection", "error", err)
			}
		}()
	}

	injector := dependency.NewInjector(cfg, database.DB(), redisClient)

	output, err := injector.Rescan.Execute(ctx, input)
	if err != nil {
		return fmt.Errorf("re-scan aborted: %w", err)
	}

	printReports(output)

	if output.Failed > 0 {
		return fmt.Errorf("re-scan failed for %d of %d users", output.Failed, len(output.Reports))
	}
	return nil
}

func printReports(output *maintenance.RescanOutput) {
	fmt.Printf("%-36s  %10s  %7s  %6s  %12s  %10s  %10s  %8s  %8s\n",
		"USER", "CANDIDATES", "CREATED", "LINKED", "PLACEHOLDERS", "DUPLICATES", "PROPAGATED", "BILL", "ONE-TIME")
	for _, report := range output.Reports {
		if report.Err != nil {
			fmt.Printf("%-36s  error: %v\n", report.UserID, report.Err)
			continue
		}
		fmt.Printf("%-36s  %10d  %7d  %6d  %12d  %10d  %10d  %8d  %8d\n",
			report.UserID,
			report.Candidates,
			report.CreatedPatterns,
			report.Linked,
			report.Placeholders,
			report.DuplicatesRemoved,
			report.Propagated,
			report.ClassifiedBill,
			report.ClassifiedOneTime,
		)
	}
	fmt.Printf("\n%d users scanned, %d failed\n", len(output.Reports), output.Failed)
}
