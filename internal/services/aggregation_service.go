package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/ashishjoshi2605/colaberry-coding-assesment/internal/models"
	"github.com/ashishjoshi2605/colaberry-coding-assesment/internal/repository"
	"github.com/ashishjoshi2605/colaberry-coding-assesment/pkg/logging"
	"github.com/ashishjoshi2605/colaberry-coding-assesment/pkg/metrics"
)

// scanChunkSize is the number of records fetched per keyset page while the
// aggregator walks the record store.
const scanChunkSize = 5000

// AggregationService computes yearly per-station statistics from raw records
type AggregationService struct {
	repo    repository.WeatherRepository
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// AggregationResult contains aggregation summary counts
type AggregationResult struct {
	RecordsScanned int
	GroupsUpserted int
	Duration       time.Duration
}

// NewAggregationService creates a new aggregation service
func NewAggregationService(repo repository.WeatherRepository, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *AggregationService {
	return &AggregationService{
		repo:    repo,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// statsGroupKey identifies one (station, year) aggregation group
type statsGroupKey struct {
	StationID string
	Year      int
}

// statsAccumulator accumulates non-sentinel readings for one group
type statsAccumulator struct {
	maxTempSum   int64
	maxTempCount int64
	minTempSum   int64
	minTempCount int64
	precipSum    int64
}

func (a *statsAccumulator) add(rec *models.WeatherRecord) {
	if rec.MaxTemp != models.MissingValue {
		a.maxTempSum += int64(rec.MaxTemp)
		a.maxTempCount++
	}
	if rec.MinTemp != models.MissingValue {
		a.minTempSum += int64(rec.MinTemp)
		a.minTempCount++
	}
	if rec.Precipitation != models.MissingValue {
		a.precipSum += int64(rec.Precipitation)
	}
}

// stats converts accumulated tenths into the stored units: degrees Celsius
// for the averages, centimeters for the precipitation total. An average is
// nil when the group had no non-sentinel readings for that measure.
func (a *statsAccumulator) stats(key statsGroupKey) *models.WeatherStats {
	stats := &models.WeatherStats{
		Year:               key.Year,
		StationID:          key.StationID,
		TotalPrecipitation: float64(a.precipSum) / 100.0,
	}

	if a.maxTempCount > 0 {
		avg := float64(a.maxTempSum) / float64(a.maxTempCount) / 10.0
		stats.AvgMaxTemp = &avg
	}
	if a.minTempCount > 0 {
		avg := float64(a.minTempSum) / float64(a.minTempCount) / 10.0
		stats.AvgMinTemp = &avg
	}

	return stats
}

// Run scans the full record store, groups records by (station, year), and
// upserts one statistics row per group. Running twice over an unchanged
// record store produces identical rows.
func (s *AggregationService) Run(ctx context.Context) (*AggregationResult, error) {
	startTime := time.Now()

	s.logger.Info(ctx, "[AGG_START] Starting statistics aggregation", logging.Fields{
		"stage": "INITIALIZATION",
	})

	groups := make(map[statsGroupKey]*statsAccumulator)
	result := &AggregationResult{}

	var afterID int64
	for {
		records, err := s.repo.ListRecordsAfter(ctx, afterID, scanChunkSize)
		if err != nil {
			return nil, fmt.Errorf("failed to scan records: %w", err)
		}
		if len(records) == 0 {
			break
		}

		for _, rec := range records {
			year, err := rec.Year()
			if err != nil {
				// Ingestion validates dates, so this indicates store corruption.
				s.logger.Warn(ctx, "[AGG_BAD_DATE] Skipping record with unparseable date", logging.Fields{
					"record_id": rec.ID,
					"date":      rec.Date,
				})
				continue
			}

			key := statsGroupKey{StationID: rec.StationID, Year: year}
			acc, ok := groups[key]
			if !ok {
				acc = &statsAccumulator{}
				groups[key] = acc
			}
			acc.add(rec)
			result.RecordsScanned++
		}

		afterID = records[len(records)-1].ID
	}

	// Sorted upsert order keeps runs deterministic.
	keys := make([]statsGroupKey, 0, len(groups))
	for key := range groups {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].StationID != keys[j].StationID {
			return keys[i].StationID < keys[j].StationID
		}
		return keys[i].Year < keys[j].Year
	})

	for _, key := range keys {
		stats := groups[key].stats(key)
		if err := s.repo.UpsertStats(ctx, stats); err != nil {
			return nil, fmt.Errorf("failed to upsert statistics for station %s year %d: %w",
				key.StationID, key.Year, err)
		}
		result.GroupsUpserted++
		s.metrics.AggregationGroupsUpserted.Inc()
	}

	result.Duration = time.Since(startTime)
	s.metrics.AggregationDuration.Observe(result.Duration.Seconds())

	s.logger.Info(ctx, "[AGG_COMPLETE] Statistics aggregation completed", logging.Fields{
		"records_scanned":  result.RecordsScanned,
		"groups_upserted":  result.GroupsUpserted,
		"duration_seconds": result.Duration.Seconds(),
		"stage":            "COMPLETE",
	})

	return result, nil
}
