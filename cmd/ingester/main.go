package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/ashishjoshi2605/colaberry-coding-assesment/internal/config"
	"github.com/ashishjoshi2605/colaberry-coding-assesment/internal/repository"
	"github.com/ashishjoshi2605/colaberry-coding-assesment/internal/services"
	"github.com/ashishjoshi2605/colaberry-coding-assesment/pkg/database"
	"github.com/ashishjoshi2605/colaberry-coding-assesment/pkg/logging"
	"github.com/ashishjoshi2605/colaberry-coding-assesment/pkg/metrics"
)

func main() {
	// Parse command-line flags
	dataDir := flag.String("data-dir", "./wx_data", "Directory containing weather data files")
	batchSize := flag.Int("batch-size", 1000, "Number of records to insert per transaction")
	calculateStats := flag.Bool("calculate-stats", false, "Run the yearly aggregation after ingestion")
	dryRun := flag.Bool("dry-run", false, "Parse files and report counts without touching the database")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger := logging.NewStructuredLogger("weather-ingester", "1.0.0", logging.ParseLevel(cfg.Logging.Level))

	ctx := context.Background()
	logger.Info(ctx, "[INGESTER_START] Starting weather data ingestion", logging.Fields{
		"version":         "1.0.0",
		"data_dir":        *dataDir,
		"batch_size":      *batchSize,
		"calculate_stats": *calculateStats,
		"dry_run":         *dryRun,
	})

	// Initialize metrics collector
	metricsCollector := metrics.NewCollector("weather_ingester")

	if *dryRun {
		ingestionService := services.NewIngestionService(nil, logger, metricsCollector)
		result, err := ingestionService.DryRunDirectory(ctx, *dataDir)
		if err != nil {
			logger.Fatal(ctx, "[INGESTION_ERROR] Dry run failed", logging.Fields{}, err)
		}

		fmt.Println(strings.Repeat("=", 80))
		fmt.Println("DRY RUN COMPLETE (no database writes)")
		fmt.Println(strings.Repeat("=", 80))
		fmt.Printf("Files Processed:    %d\n", result.FilesProcessed)
		fmt.Printf("Parseable Rows:     %d\n", result.RowsInserted)
		fmt.Printf("Malformed Skipped:  %d\n", result.MalformedSkipped)
		fmt.Printf("Duration:           %v\n", result.Duration)
		return
	}

	// Initialize database
	dbConfig := &database.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		Database:        cfg.Database.Database,
		SSLMode:         cfg.Database.SSLMode,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
	}

	db, err := database.NewPostgresDB(dbConfig, logger, metricsCollector)
	if err != nil {
		logger.Fatal(ctx, "[INGESTER_ERROR] Failed to connect to database", logging.Fields{}, err)
	}
	defer db.Close()

	// Initialize repository and services
	weatherRepo := repository.NewWeatherRepository(db, logger, metricsCollector)
	ingestionService := services.NewIngestionService(weatherRepo, logger, metricsCollector)
	aggregationService := services.NewAggregationService(weatherRepo, logger, metricsCollector)

	// Ingest data
	result, err := ingestionService.IngestDirectory(ctx, *dataDir, *batchSize)
	if err != nil {
		logger.Fatal(ctx, "[INGESTION_ERROR] Ingestion failed", logging.Fields{
			"error": err.Error(),
		}, err)
	}

	// Print results
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println("INGESTION COMPLETE")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("Files Processed:    %d\n", result.FilesProcessed)
	fmt.Printf("Rows Inserted:      %d\n", result.RowsInserted)
	fmt.Printf("Duplicates Skipped: %d\n", result.DuplicatesSkipped)
	fmt.Printf("Malformed Skipped:  %d\n", result.MalformedSkipped)
	fmt.Printf("Duration:           %v\n", result.Duration)

	if len(result.Errors) > 0 {
		fmt.Printf("\nErrors (%d):\n", len(result.Errors))
		for i, errMsg := range result.Errors {
			if i < 10 {
				fmt.Printf("  - %s\n", errMsg)
			}
		}
		if len(result.Errors) > 10 {
			fmt.Printf("  ... and %d more errors\n", len(result.Errors)-10)
		}
	}

	// Calculate statistics if requested
	if *calculateStats {
		fmt.Println("\n" + strings.Repeat("=", 80))
		fmt.Println("CALCULATING STATISTICS")
		fmt.Println(strings.Repeat("=", 80))

		aggResult, err := aggregationService.Run(ctx)
		if err != nil {
			logger.Error(ctx, "[STATS_ERROR] Statistics aggregation failed", logging.Fields{}, err)
			fmt.Printf("Statistics aggregation failed: %v\n", err)
		} else {
			fmt.Printf("Records Scanned:    %d\n", aggResult.RecordsScanned)
			fmt.Printf("Groups Upserted:    %d\n", aggResult.GroupsUpserted)
			fmt.Printf("Duration:           %v\n", aggResult.Duration)
		}
	}

	logger.Info(ctx, "[INGESTER_COMPLETE] Ingestion completed successfully", logging.Fields{
		"files_processed":    result.FilesProcessed,
		"rows_inserted":      result.RowsInserted,
		"duplicates_skipped": result.DuplicatesSkipped,
		"malformed_skipped":  result.MalformedSkipped,
		"duration_seconds":   result.Duration.Seconds(),
	})
}
