package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/dvloznov/diane/internal/config"
	infraBQ "github.com/dvloznov/diane/internal/infra/bigquery"
	"github.com/dvloznov/diane/internal/logger"
)

func main() {
	var (
		envFile   = flag.String("env", "", "Path to a .env file")
		projectID = flag.String("project", "", "GCP project ID (overrides BIGQUERY_PROJECT)")
		datasetID = flag.String("dataset", "", "BigQuery dataset ID (overrides BIGQUERY_DATASET)")
		appliedBy = flag.String("applied-by", "migrate-cli", "Name of the tool applying migrations")
		list      = flag.Bool("list", false, "List embedded migrations without connecting")
	)
	flag.Parse()

	log := logger.New()

	cfg, err := config.Load(*envFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if *projectID != "" {
		cfg.BigQuery.ProjectID = *projectID
	}
	if *datasetID != "" {
		cfg.BigQuery.DatasetID = *datasetID
	}
	if err := cfg.Validate("BIGQUERY_PROJECT", "BIGQUERY_DATASET"); err != nil {
		log.Fatal().Err(err).Msg("Error: -project flag or BIGQUERY_PROJECT is required")
	}
	log = logger.Configure(cfg.LogLevel, cfg.LogFormat)

	if *list {
		migrations, err := infraBQ.Migrations(cfg.BigQuery.ProjectID, cfg.BigQuery.DatasetID)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to read migrations")
		}
		for _, m := range migrations {
			fmt.Printf("%04d_%s  %s\n", m.Version, m.Name, m.Checksum[:12])
		}
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	repo, err := infraBQ.NewPromptLogRepository(ctx, cfg.BigQuery.ProjectID, cfg.BigQuery.DatasetID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create BigQuery client")
	}
	defer repo.Close()

	log.Info().
		Str("project", cfg.BigQuery.ProjectID).
		Str("dataset", cfg.BigQuery.DatasetID).
		Msg("Connected to BigQuery")

	applied, err := repo.ApplyMigrations(ctx, *appliedBy)
	if err != nil {
		log.Fatal().Err(err).Msg("Migration failed")
	}

	if applied == 0 {
		fmt.Println("No new migrations to apply. Dataset is up to date.")
	} else {
		fmt.Printf("Successfully applied %d migration(s)\n", applied)
	}
}
