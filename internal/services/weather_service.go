package services

import (
	"context"

	"github.com/ashishjoshi2605/colaberry-coding-assesment/internal/models"
	"github.com/ashishjoshi2605/colaberry-coding-assesment/internal/repository"
	"github.com/ashishjoshi2605/colaberry-coding-assesment/pkg/logging"
	"github.com/ashishjoshi2605/colaberry-coding-assesment/pkg/metrics"
)

// WeatherService handles read queries against records and statistics
type WeatherService struct {
	repo    repository.WeatherRepository
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// NewWeatherService creates a new weather service
func NewWeatherService(repo repository.WeatherRepository, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *WeatherService {
	return &WeatherService{
		repo:    repo,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// GetRecords retrieves weather records for a validated filter. An empty page,
// whether from zero matches or from paging past the end of the result set,
// is reported as a NotFoundError rather than an empty success.
func (s *WeatherService) GetRecords(ctx context.Context, filter repository.RecordFilter) ([]*models.WeatherRecord, int, error) {
	records, total, err := s.repo.GetRecords(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	if len(records) == 0 {
		return nil, 0, &repository.NotFoundError{Resource: "records"}
	}
	return records, total, nil
}

// GetStats retrieves yearly statistics for a validated filter, with the same
// empty-result policy as GetRecords.
func (s *WeatherService) GetStats(ctx context.Context, filter repository.StatsFilter) ([]*models.WeatherStats, int, error) {
	stats, total, err := s.repo.GetStats(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	if len(stats) == 0 {
		return nil, 0, &repository.NotFoundError{Resource: "records"}
	}
	return stats, total, nil
}

// HealthCheck reports whether the backing store is reachable
func (s *WeatherService) HealthCheck(ctx context.Context) error {
	return s.repo.HealthCheck(ctx)
}
