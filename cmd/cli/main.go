package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/rs/zerolog"

	"github.com/dvloznov/diane/internal/app"
	"github.com/dvloznov/diane/internal/config"
	"github.com/dvloznov/diane/internal/domain"
	"github.com/dvloznov/diane/internal/gcsuploader"
	infraBQ "github.com/dvloznov/diane/internal/infra/bigquery"
	"github.com/dvloznov/diane/internal/logger"
	"github.com/dvloznov/diane/internal/notionsync"
	"github.com/dvloznov/diane/internal/store"
)

func main() {
	log := logger.New()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "chat":
		runChat(log)
	case "backup":
		runBackup(log)
	case "restore":
		runRestore(log)
	case "sync-notion":
		runSyncNotion(log)
	case "prompt-logs":
		runPromptLogs(log)
	case "audit-stats":
		runAuditStats(log)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Diane CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  cli <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  chat          Send one message to the assistant")
	fmt.Println("  backup        Upload a snapshot of the database to GCS")
	fmt.Println("  restore       Restore the database from a GCS backup")
	fmt.Println("  sync-notion   Mirror transactions in a date range to Notion")
	fmt.Println("  prompt-logs   Show recent prompt logs")
	fmt.Println("  audit-stats   Count mirrored prompt logs in BigQuery by kind")
	fmt.Println("  help          Show this help message")
	fmt.Println("\nRun 'cli <command> -h' for more information on a command.")
	fmt.Println("\nSettings are read from the environment and ./.env (see -env).")
}

// loadConfig loads configuration and switches the logger to the configured level.
func loadConfig(envFile string, log *zerolog.Logger, required ...string) *config.Config {
	cfg, err := config.Load(envFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if err := cfg.Validate(required...); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	*log = logger.Configure(cfg.LogLevel, cfg.LogFormat)
	return cfg
}

func runChat(log zerolog.Logger) {
	fs := flag.NewFlagSet("chat", flag.ExitOnError)
	envFile := fs.String("env", "", "Path to a .env file")
	message := fs.String("m", "", "Message to send")
	fs.Parse(os.Args[2:])

	if *message == "" && fs.NArg() > 0 {
		*message = strings.Join(fs.Args(), " ")
	}
	if strings.TrimSpace(*message) == "" {
		log.Fatal().Msg("Usage: cli chat -m MESSAGE")
	}

	cfg := loadConfig(*envFile, &log)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize application")
	}
	if err := a.StartExports(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to start export workers")
	}

	resp, err := a.Chat.HandleMessage(ctx, *message)
	closeErr := a.Close(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Chat failed")
	}
	if closeErr != nil {
		log.Error().Err(closeErr).Msg("Error closing application")
	}

	fmt.Println(resp.Reply)
	if resp.Transaction != nil {
		tx := resp.Transaction
		fmt.Printf("\n[transaction #%d] %s %.2f %s (%s)\n", tx.ID, tx.TxDate, tx.Amount, tx.Description, tx.CategoryName)
	}
}

func runBackup(log zerolog.Logger) {
	fs := flag.NewFlagSet("backup", flag.ExitOnError)
	envFile := fs.String("env", "", "Path to a .env file")
	bucket := fs.String("bucket", "", "GCS bucket name (overrides BACKUP_BUCKET)")
	fs.Parse(os.Args[2:])

	cfg := loadConfig(*envFile, &log)
	if *bucket == "" {
		*bucket = cfg.Backup.Bucket
	}
	if *bucket == "" {
		log.Fatal().Msg("Error: --bucket or BACKUP_BUCKET is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	st, err := store.Open(ctx, cfg.Database.Path)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	defer st.Close()

	svc, err := gcsuploader.NewGCSStorageService(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create storage client")
	}
	defer svc.Close()

	uri, err := gcsuploader.Backup(ctx, st, svc, *bucket, time.Now())
	if err != nil {
		log.Fatal().Err(err).Msg("Backup failed")
	}

	fmt.Printf("Backed up %s to %s\n", cfg.Database.Path, uri)
}

func runRestore(log zerolog.Logger) {
	fs := flag.NewFlagSet("restore", flag.ExitOnError)
	envFile := fs.String("env", "", "Path to a .env file")
	uri := fs.String("uri", "", "gs:// URI of the backup (default: latest in BACKUP_BUCKET)")
	force := fs.Bool("force", false, "Overwrite an existing database file")
	fs.Parse(os.Args[2:])

	cfg := loadConfig(*envFile, &log)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	svc, err := gcsuploader.NewGCSStorageService(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create storage client")
	}
	defer svc.Close()

	var bucket, object string
	if *uri != "" {
		bucket, object, err = gcsuploader.ParseGCSURI(*uri)
		if err != nil {
			log.Fatal().Err(err).Msg("Invalid --uri")
		}
	} else {
		if cfg.Backup.Bucket == "" {
			log.Fatal().Msg("Error: --uri or BACKUP_BUCKET is required")
		}
		bucket = cfg.Backup.Bucket
		object, err = gcsuploader.LatestBackup(ctx, svc, bucket)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to find latest backup")
		}
	}

	if err := gcsuploader.Restore(ctx, svc, bucket, object, cfg.Database.Path, *force); err != nil {
		if errors.Is(err, gcsuploader.ErrDestinationExists) {
			log.Fatal().Str("path", cfg.Database.Path).Msg("Database exists; stop the server and rerun with --force")
		}
		log.Fatal().Err(err).Msg("Restore failed")
	}

	fmt.Printf("Restored %s to %s\n", gcsuploader.GCSURI(bucket, object), cfg.Database.Path)
}

func runSyncNotion(log zerolog.Logger) {
	fs := flag.NewFlagSet("sync-notion", flag.ExitOnError)
	envFile := fs.String("env", "", "Path to a .env file")
	startDate := fs.String("start-date", "", "Start date (YYYY-MM-DD), default: first day of the current month")
	endDate := fs.String("end-date", "", "End date (YYYY-MM-DD), default: today")
	dryRun := fs.Bool("dry-run", false, "Show what would be synced without writing to Notion")
	fs.Parse(os.Args[2:])

	cfg := loadConfig(*envFile, &log, "NOTION_TOKEN", "NOTION_DATABASE_ID")

	today := civil.DateOf(time.Now())
	start := civil.Date{Year: today.Year, Month: today.Month, Day: 1}
	end := today
	var err error
	if *startDate != "" {
		if start, err = civil.ParseDate(*startDate); err != nil {
			log.Fatal().Err(err).Msg("Invalid --start-date")
		}
	}
	if *endDate != "" {
		if end, err = civil.ParseDate(*endDate); err != nil {
			log.Fatal().Err(err).Msg("Invalid --end-date")
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	st, err := store.Open(ctx, cfg.Database.Path)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	defer st.Close()

	client, err := notionsync.NewNotionClient(cfg.Notion.Token)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Notion client")
	}

	log.Info().
		Str("start_date", start.String()).
		Str("end_date", end.String()).
		Bool("dry_run", *dryRun).
		Msg("Starting Notion sync")

	result, err := notionsync.NewSyncer(client, cfg.Notion.DatabaseID).SyncTransactions(ctx, st, start, end, *dryRun)
	if err != nil {
		log.Fatal().Err(err).Msg("Sync failed")
	}

	fmt.Printf("Synced %d transactions: %d created, %d updated, %d failed (%s)\n",
		result.Total, result.Created, result.Updated, result.Failed, result.Elapsed.Round(time.Millisecond))
	if result.Failed > 0 {
		os.Exit(1)
	}
}

func runPromptLogs(log zerolog.Logger) {
	fs := flag.NewFlagSet("prompt-logs", flag.ExitOnError)
	envFile := fs.String("env", "", "Path to a .env file")
	limit := fs.Int("limit", 20, "Number of logs to show")
	kind := fs.String("kind", "", "Filter by kind (chat, extraction_tx, extraction_shopping, extraction_product_price)")
	full := fs.Bool("full", false, "Print full prompt and response text")
	fs.Parse(os.Args[2:])

	cfg := loadConfig(*envFile, &log)

	ctx := logger.WithContext(context.Background(), log)

	st, err := store.Open(ctx, cfg.Database.Path)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	defer st.Close()

	logs, err := st.ListPromptLogs(ctx, store.PromptLogFilter{Limit: *limit, Kind: domain.PromptKind(*kind)})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to list prompt logs")
	}

	if len(logs) == 0 {
		fmt.Println("No prompt logs found.")
		return
	}

	for _, l := range logs {
		fmt.Printf("#%d  %s  %-24s  %s\n", l.ID, l.CreatedAt.Local().Format("2006-01-02 15:04:05"), l.Kind, l.Model)
		if *full {
			fmt.Printf("  prompt:\n%s\n  response:\n%s\n\n", l.PromptText, l.ResponseText)
		} else {
			fmt.Printf("  %s\n", truncate(l.ResponseText, 100))
		}
	}
}

func runAuditStats(log zerolog.Logger) {
	fs := flag.NewFlagSet("audit-stats", flag.ExitOnError)
	envFile := fs.String("env", "", "Path to a .env file")
	since := fs.Duration("since", 7*24*time.Hour, "Count logs created within this window")
	fs.Parse(os.Args[2:])

	cfg := loadConfig(*envFile, &log, "BIGQUERY_PROJECT")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	repo, err := infraBQ.NewPromptLogRepository(ctx, cfg.BigQuery.ProjectID, cfg.BigQuery.DatasetID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create BigQuery repository")
	}
	defer repo.Close()

	counts, err := repo.CountPromptLogsByKind(ctx, time.Now().Add(-*since))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to count prompt logs")
	}

	fmt.Printf("Prompt logs in %s.%s since %s:\n", cfg.BigQuery.ProjectID, cfg.BigQuery.DatasetID, *since)
	if len(counts) == 0 {
		fmt.Println("  (none)")
		return
	}
	var total int64
	for _, c := range counts {
		fmt.Printf("  %-24s %d\n", c.Kind, c.Count)
		total += c.Count
	}
	fmt.Printf("  %-24s %d\n", "total", total)
}

func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
