package services

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ashishjoshi2605/colaberry-coding-assesment/internal/models"
	"github.com/ashishjoshi2605/colaberry-coding-assesment/internal/repository"
	"github.com/ashishjoshi2605/colaberry-coding-assesment/pkg/logging"
	"github.com/ashishjoshi2605/colaberry-coding-assesment/pkg/metrics"
)

// IngestionService handles weather data ingestion
type IngestionService struct {
	repo    repository.WeatherRepository
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// IngestionResult contains ingestion summary counts
type IngestionResult struct {
	FilesProcessed    int
	RowsInserted      int
	DuplicatesSkipped int
	MalformedSkipped  int
	Duration          time.Duration
	Errors            []string
}

// NewIngestionService creates a new ingestion service
func NewIngestionService(repo repository.WeatherRepository, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *IngestionService {
	return &IngestionService{
		repo:    repo,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// IngestDirectory ingests all station data files from a directory. Each file
// commits independently, so a failure in one file does not roll back progress
// made on earlier files.
func (s *IngestionService) IngestDirectory(ctx context.Context, dataDir string, batchSize int) (*IngestionResult, error) {
	startTime := time.Now()

	s.logger.Info(ctx, "[INGEST_START] Starting data ingestion", logging.Fields{
		"data_dir":   dataDir,
		"batch_size": batchSize,
		"stage":      "INITIALIZATION",
	})

	result := &IngestionResult{
		Errors: make([]string, 0),
	}

	files, err := filepath.Glob(filepath.Join(dataDir, "*.txt"))
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("no data files found in %s", dataDir)
	}

	s.logger.Info(ctx, "[INGEST_FILES] Found data files", logging.Fields{
		"file_count": len(files),
		"stage":      "FILE_DISCOVERY",
	})

	for _, filePath := range files {
		fileResult, err := s.ingestFile(ctx, filePath, batchSize)
		if err != nil {
			errMsg := fmt.Sprintf("failed to ingest %s: %v", filePath, err)
			result.Errors = append(result.Errors, errMsg)
			s.logger.Error(ctx, "[INGEST_FILE_ERROR] File ingestion failed", logging.Fields{
				"file_path": filePath,
				"stage":     "FILE_PROCESSING",
			}, err)
			continue
		}

		result.FilesProcessed++
		result.RowsInserted += fileResult.RowsInserted
		result.DuplicatesSkipped += fileResult.DuplicatesSkipped
		result.MalformedSkipped += fileResult.MalformedSkipped
		s.metrics.IngestionFilesProcessed.Inc()

		s.logger.Info(ctx, "[INGEST_FILE_SUCCESS] File ingested successfully", logging.Fields{
			"file_path":          filePath,
			"rows_inserted":      fileResult.RowsInserted,
			"duplicates_skipped": fileResult.DuplicatesSkipped,
			"malformed_skipped":  fileResult.MalformedSkipped,
			"stage":              "FILE_COMPLETE",
		})
	}

	result.Duration = time.Since(startTime)
	s.metrics.IngestionDuration.Observe(result.Duration.Seconds())

	s.logger.Info(ctx, "[INGEST_COMPLETE] Data ingestion completed", logging.Fields{
		"files_processed":    result.FilesProcessed,
		"rows_inserted":      result.RowsInserted,
		"duplicates_skipped": result.DuplicatesSkipped,
		"malformed_skipped":  result.MalformedSkipped,
		"duration_seconds":   result.Duration.Seconds(),
		"error_count":        len(result.Errors),
		"stage":              "COMPLETE",
	})

	return result, nil
}

// DryRunDirectory parses all station data files without touching the database
// and reports what a real run would attempt to ingest.
func (s *IngestionService) DryRunDirectory(ctx context.Context, dataDir string) (*IngestionResult, error) {
	startTime := time.Now()

	files, err := filepath.Glob(filepath.Join(dataDir, "*.txt"))
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("no data files found in %s", dataDir)
	}

	result := &IngestionResult{
		Errors: make([]string, 0),
	}

	for _, filePath := range files {
		stationID := stationIDFromPath(filePath)
		parsed, malformed, err := s.parseFile(ctx, filePath, stationID, nil)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("failed to parse %s: %v", filePath, err))
			continue
		}

		result.FilesProcessed++
		result.RowsInserted += parsed
		result.MalformedSkipped += malformed
	}

	result.Duration = time.Since(startTime)

	s.logger.Info(ctx, "[INGEST_DRY_RUN] Dry run completed", logging.Fields{
		"files_processed":   result.FilesProcessed,
		"rows_parsed":       result.RowsInserted,
		"malformed_skipped": result.MalformedSkipped,
		"duration_seconds":  result.Duration.Seconds(),
	})

	return result, nil
}

// FileIngestionResult contains per-file ingestion counts
type FileIngestionResult struct {
	RowsInserted      int
	DuplicatesSkipped int
	MalformedSkipped  int
}

// ingestFile ingests a single station data file in batched transactions
func (s *IngestionService) ingestFile(ctx context.Context, filePath string, batchSize int) (*FileIngestionResult, error) {
	stationID := stationIDFromPath(filePath)
	result := &FileIngestionResult{}

	batch := make([]*models.WeatherRecord, 0, batchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		inserted, duplicates, err := s.repo.InsertRecords(ctx, batch)
		if err != nil {
			return err
		}
		result.RowsInserted += inserted
		result.DuplicatesSkipped += duplicates
		batch = batch[:0]
		return nil
	}

	_, malformed, err := s.parseFile(ctx, filePath, stationID, func(rec *models.WeatherRecord) error {
		batch = append(batch, rec)
		if len(batch) >= batchSize {
			return flush()
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	result.MalformedSkipped = malformed

	if err := flush(); err != nil {
		return nil, fmt.Errorf("failed to insert final batch: %w", err)
	}

	return result, nil
}

// parseFile scans a station file line by line, invoking emit for every record
// that parses cleanly. Malformed lines are logged, counted, and skipped; they
// never abort the file. emit may be nil for a parse-only pass.
func (s *IngestionService) parseFile(ctx context.Context, filePath, stationID string, emit func(*models.WeatherRecord) error) (parsed, malformed int, err error) {
	file, err := os.Open(filePath)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}

		record, err := models.ParseRecordLine(line, stationID)
		if err != nil {
			malformed++
			s.metrics.IngestionRowsMalformed.Inc()
			s.logger.Warn(ctx, "[INGEST_PARSE_ERROR] Skipping malformed line", logging.Fields{
				"file_path": filePath,
				"line":      lineNum,
				"reason":    err.Error(),
			})
			continue
		}

		parsed++
		if emit != nil {
			if err := emit(record); err != nil {
				return parsed, malformed, err
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return parsed, malformed, fmt.Errorf("error reading file: %w", err)
	}

	return parsed, malformed, nil
}

// stationIDFromPath derives the station ID from the file's base name
func stationIDFromPath(filePath string) string {
	fileName := filepath.Base(filePath)
	return strings.TrimSuffix(fileName, filepath.Ext(fileName))
}
