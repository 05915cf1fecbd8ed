package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/costadiogo/nf-processor-agent/internal/authority"
	"github.com/costadiogo/nf-processor-agent/internal/config"
	"github.com/costadiogo/nf-processor-agent/internal/database"
	"github.com/costadiogo/nf-processor-agent/internal/ingestion"
	"github.com/costadiogo/nf-processor-agent/internal/reference"
	"github.com/costadiogo/nf-processor-agent/internal/validation"
	"github.com/costadiogo/nf-processor-agent/internal/workflow"
)

var rootCmd = &cobra.Command{
	Use:   "processor",
	Short: "Fiscal document processor for NFe invoices and RPS service receipts",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

var processCmd = &cobra.Command{
	Use:   "process <folder>",
	Short: "Process every fiscal record file in a folder",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runProcess(args[0])
	},
}

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Create the database tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSetup()
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show document counts per status and the latest rejections",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStats()
	},
}

func init() {
	rootCmd.AddCommand(processCmd)
	rootCmd.AddCommand(setupCmd)
	rootCmd.AddCommand(statsCmd)
}

func connect() (*config.Config, database.Manager, func(), error) {
	cfg, err := config.New()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	dbpool, err := database.ConnectDB(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("unable to connect to database: %w", err)
	}

	dbManager := database.NewPostgresStore(context.Background(), dbpool)
	return cfg, dbManager, func() { dbpool.Close() }, nil
}

func runProcess(filesPath string) error {
	startTime := time.Now()

	cfg, dbManager, cleanup, err := connect()
	if err != nil {
		return err
	}
	defer cleanup()

	store, err := reference.Load()
	if err != nil {
		return fmt.Errorf("failed to load fiscal rule tables: %w", err)
	}

	pipeline := workflow.New(
		validation.New(store),
		authority.NewSimulator(),
		dbManager,
		nil,
		cfg.Policy,
	)

	handler := ingestion.NewIngestionService(dbManager, pipeline)

	log.Println("Starting batch processing...")
	summary, err := handler.Execute(filesPath)
	if err != nil {
		return fmt.Errorf("error during batch processing: %w", err)
	}

	fmt.Printf("\nBatch %s\n", summary.RunID)
	fmt.Printf("Processed:  %d\n", summary.Processed)
	fmt.Printf("Authorized: %d\n", summary.Authorized)
	fmt.Printf("Rejected:   %d\n", summary.Rejected)
	fmt.Printf("Failed:     %d\n", summary.Failed)
	for _, outcome := range summary.Outcomes {
		line := fmt.Sprintf("  %s/%s: %s", outcome.Number, outcome.Series, outcome.Status)
		if outcome.Reason != "" {
			line += " (" + outcome.Reason + ")"
		}
		fmt.Println(line)
	}

	log.Printf("Execution time: %s\n", time.Since(startTime))
	return nil
}

func runSetup() error {
	_, dbManager, cleanup, err := connect()
	if err != nil {
		return err
	}
	defer cleanup()

	log.Println("Creating file_records table...")
	if err := dbManager.CreateFileRecordsTable(); err != nil {
		return fmt.Errorf("error creating file_records table: %w", err)
	}

	log.Println("Creating document tables...")
	if err := dbManager.CreateDocumentTables(); err != nil {
		return fmt.Errorf("error creating document tables: %w", err)
	}

	log.Println("Database setup finished successfully.")
	return nil
}

func runStats() error {
	cfg, dbManager, cleanup, err := connect()
	if err != nil {
		return err
	}
	defer cleanup()

	counts, err := dbManager.CountByStatus()
	if err != nil {
		return fmt.Errorf("error loading status counts: %w", err)
	}

	fmt.Println("Documents per status:")
	for status, count := range counts {
		fmt.Printf("  %-16s %d\n", status, count)
	}

	rejected, err := dbManager.ListRejected(cfg.StatsRejectedLimit)
	if err != nil {
		return fmt.Errorf("error loading rejected documents: %w", err)
	}

	if len(rejected) > 0 {
		fmt.Printf("\nLatest rejections (up to %d):\n", cfg.StatsRejectedLimit)
		for _, outcome := range rejected {
			fmt.Printf("  %s/%s [%s] %s\n", outcome.Number, outcome.Series, outcome.Status, outcome.Reason)
		}
	}

	return nil
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: could not load .env file: %v", err)
	}

	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
