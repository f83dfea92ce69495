package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/ashishjoshi2605/colaberry-coding-assesment/internal/models"
	"github.com/ashishjoshi2605/colaberry-coding-assesment/pkg/database"
	"github.com/ashishjoshi2605/colaberry-coding-assesment/pkg/logging"
	"github.com/ashishjoshi2605/colaberry-coding-assesment/pkg/metrics"
)

// WeatherRepository provides data access for weather records and statistics
type WeatherRepository interface {
	// Record operations
	InsertRecords(ctx context.Context, records []*models.WeatherRecord) (inserted, duplicates int, err error)
	ListRecordsAfter(ctx context.Context, afterID int64, limit int) ([]*models.WeatherRecord, error)
	GetRecords(ctx context.Context, filter RecordFilter) ([]*models.WeatherRecord, int, error)

	// Statistics operations
	UpsertStats(ctx context.Context, stats *models.WeatherStats) error
	GetStats(ctx context.Context, filter StatsFilter) ([]*models.WeatherStats, int, error)

	// Utility operations
	HealthCheck(ctx context.Context) error
}

// RecordFilter defines filters for querying weather records.
// Date is the stored YYYYMMDD form.
type RecordFilter struct {
	StationID *string
	Date      *string
	Limit     int
	Offset    int
}

// StatsFilter defines filters for querying yearly statistics
type StatsFilter struct {
	StationID *string
	Year      *int
	Limit     int
	Offset    int
}

// weatherRepository implements WeatherRepository
type weatherRepository struct {
	db      *database.PostgresDB
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// NewWeatherRepository creates a new weather repository
func NewWeatherRepository(db *database.PostgresDB, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) WeatherRepository {
	return &weatherRepository{
		db:      db,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// InsertRecords inserts a batch of records in a single transaction.
// Rows whose (weather_station_id, date) key already exists are left untouched,
// so re-running ingestion over the same files is a no-op. The two return
// counts split the batch into newly inserted rows and duplicate skips.
func (r *weatherRepository) InsertRecords(ctx context.Context, records []*models.WeatherRecord) (int, int, error) {
	if len(records) == 0 {
		return 0, 0, nil
	}

	timer := time.Now()
	defer func() {
		duration := time.Since(timer)
		r.metrics.IngestionBatchSize.Observe(float64(len(records)))
		r.logger.Debug(ctx, "[REPO_BATCH_INSERT] Batch insert completed", logging.Fields{
			"count":       len(records),
			"duration_ms": duration.Milliseconds(),
		})
	}()

	tx, err := r.db.BeginTx(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO weather_records (
			date, max_temp, min_temp, precipitation,
			weather_station_id, ingestion_timestamp
		)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (weather_station_id, date) DO NOTHING
	`)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	duplicates := 0
	for _, rec := range records {
		result, err := stmt.ExecContext(ctx,
			rec.Date,
			rec.MaxTemp,
			rec.MinTemp,
			rec.Precipitation,
			rec.StationID,
			rec.IngestionTimestamp,
		)
		if err != nil {
			return 0, 0, fmt.Errorf("failed to insert record: %w", err)
		}

		affected, err := result.RowsAffected()
		if err != nil {
			return 0, 0, fmt.Errorf("failed to read rows affected: %w", err)
		}
		if affected == 0 {
			duplicates++
		} else {
			inserted++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	r.metrics.IngestionRowsInserted.Add(float64(inserted))
	r.metrics.IngestionRowsDuplicate.Add(float64(duplicates))

	return inserted, duplicates, nil
}

// ListRecordsAfter returns up to limit records with id greater than afterID,
// in id order. Used by the aggregator to scan the full record store in chunks.
func (r *weatherRepository) ListRecordsAfter(ctx context.Context, afterID int64, limit int) ([]*models.WeatherRecord, error) {
	query := `
		SELECT id, date, max_temp, min_temp, precipitation,
		       weather_station_id, ingestion_timestamp
		FROM weather_records
		WHERE id > $1
		ORDER BY id
		LIMIT $2
	`

	var records []*models.WeatherRecord
	err := r.db.SelectContext(ctx, "list_records_after", &records, query, afterID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}

	return records, nil
}

// GetRecords retrieves weather records with filtering and pagination
func (r *weatherRepository) GetRecords(ctx context.Context, filter RecordFilter) ([]*models.WeatherRecord, int, error) {
	query := `
		SELECT id, date, max_temp, min_temp, precipitation,
		       weather_station_id, ingestion_timestamp
		FROM weather_records
		WHERE 1=1
	`
	args := []interface{}{}
	argNum := 1

	if filter.StationID != nil {
		query += fmt.Sprintf(" AND weather_station_id = $%d", argNum)
		args = append(args, *filter.StationID)
		argNum++
	}

	if filter.Date != nil {
		query += fmt.Sprintf(" AND date = $%d", argNum)
		args = append(args, *filter.Date)
		argNum++
	}

	// Get total count
	countQuery := "SELECT COUNT(*) FROM (" + query + ") AS count_query"
	var totalCount int
	err := r.db.GetContext(ctx, "count_records", &totalCount, countQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count records: %w", err)
	}

	// Add ordering and pagination
	query += " ORDER BY id"
	query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argNum, argNum+1)
	args = append(args, filter.Limit, filter.Offset)

	var records []*models.WeatherRecord
	err = r.db.SelectContext(ctx, "get_records", &records, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get records: %w", err)
	}

	return records, totalCount, nil
}

// UpsertStats creates or replaces yearly statistics keyed by (station, year)
func (r *weatherRepository) UpsertStats(ctx context.Context, stats *models.WeatherStats) error {
	query := `
		INSERT INTO weather_stats (
			year, weather_station_id,
			avg_max_temp, avg_min_temp, total_precipitation,
			updated_at
		)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (weather_station_id, year) DO UPDATE SET
			avg_max_temp = EXCLUDED.avg_max_temp,
			avg_min_temp = EXCLUDED.avg_min_temp,
			total_precipitation = EXCLUDED.total_precipitation,
			updated_at = EXCLUDED.updated_at
		RETURNING id
	`

	err := r.db.DB().QueryRowContext(ctx, query,
		stats.Year,
		stats.StationID,
		stats.AvgMaxTemp,
		stats.AvgMinTemp,
		stats.TotalPrecipitation,
	).Scan(&stats.ID)

	if err != nil {
		return fmt.Errorf("failed to upsert statistics: %w", err)
	}

	return nil
}

// GetStats retrieves yearly statistics with filtering and pagination
func (r *weatherRepository) GetStats(ctx context.Context, filter StatsFilter) ([]*models.WeatherStats, int, error) {
	query := `
		SELECT id, year, weather_station_id,
		       avg_max_temp, avg_min_temp, total_precipitation
		FROM weather_stats
		WHERE 1=1
	`
	args := []interface{}{}
	argNum := 1

	if filter.StationID != nil {
		query += fmt.Sprintf(" AND weather_station_id = $%d", argNum)
		args = append(args, *filter.StationID)
		argNum++
	}

	if filter.Year != nil {
		query += fmt.Sprintf(" AND year = $%d", argNum)
		args = append(args, *filter.Year)
		argNum++
	}

	// Get total count
	countQuery := "SELECT COUNT(*) FROM (" + query + ") AS count_query"
	var totalCount int
	err := r.db.GetContext(ctx, "count_stats", &totalCount, countQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count statistics: %w", err)
	}

	// Add ordering and pagination
	query += " ORDER BY id"
	query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argNum, argNum+1)
	args = append(args, filter.Limit, filter.Offset)

	var stats []*models.WeatherStats
	err = r.db.SelectContext(ctx, "get_stats", &stats, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get statistics: %w", err)
	}

	return stats, totalCount, nil
}

// HealthCheck performs a repository health check
func (r *weatherRepository) HealthCheck(ctx context.Context) error {
	return r.db.HealthCheck(ctx)
}

// NotFoundError signals that a validated query matched zero rows
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no %s matching this criteria found", e.Resource)
}

func (e *NotFoundError) IsTransient() bool {
	return false
}
