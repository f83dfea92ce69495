package services

import (
	"context"
	"fmt"
	"io"

	"github.com/ashishjoshi2605/colaberry-coding-assesment/internal/models"
	"github.com/ashishjoshi2605/colaberry-coding-assesment/internal/repository"
	"github.com/ashishjoshi2605/colaberry-coding-assesment/pkg/logging"
	"github.com/ashishjoshi2605/colaberry-coding-assesment/pkg/metrics"
)

// Shared across the package's tests: promauto metrics register globally, so
// the collector must be built exactly once per test binary.
var (
	testMetrics = metrics.NewCollector("services_test")
	testLogger  = newQuietLogger()
)

func newQuietLogger() *logging.StructuredLogger {
	l := logging.NewStructuredLogger("test", "0.0.0", logging.ErrorLevel)
	l.SetOutput(io.Discard)
	return l
}

// fakeRepository is an in-memory WeatherRepository for service tests
type fakeRepository struct {
	records []*models.WeatherRecord
	stats   map[string]*models.WeatherStats
	upserts int
	nextID  int64
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		stats: make(map[string]*models.WeatherStats),
	}
}

func statsKey(stationID string, year int) string {
	return fmt.Sprintf("%s|%d", stationID, year)
}

func (f *fakeRepository) InsertRecords(ctx context.Context, records []*models.WeatherRecord) (int, int, error) {
	inserted, duplicates := 0, 0
	for _, rec := range records {
		if f.hasRecord(rec.StationID, rec.Date) {
			duplicates++
			continue
		}
		f.nextID++
		stored := *rec
		stored.ID = f.nextID
		f.records = append(f.records, &stored)
		inserted++
	}
	return inserted, duplicates, nil
}

func (f *fakeRepository) hasRecord(stationID, date string) bool {
	for _, rec := range f.records {
		if rec.StationID == stationID && rec.Date == date {
			return true
		}
	}
	return false
}

func (f *fakeRepository) ListRecordsAfter(ctx context.Context, afterID int64, limit int) ([]*models.WeatherRecord, error) {
	var out []*models.WeatherRecord
	for _, rec := range f.records {
		if rec.ID > afterID {
			out = append(out, rec)
			if len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

func (f *fakeRepository) GetRecords(ctx context.Context, filter repository.RecordFilter) ([]*models.WeatherRecord, int, error) {
	var matched []*models.WeatherRecord
	for _, rec := range f.records {
		if filter.StationID != nil && rec.StationID != *filter.StationID {
			continue
		}
		if filter.Date != nil && rec.Date != *filter.Date {
			continue
		}
		matched = append(matched, rec)
	}

	total := len(matched)
	if filter.Offset >= total {
		return nil, total, nil
	}
	end := filter.Offset + filter.Limit
	if end > total {
		end = total
	}
	return matched[filter.Offset:end], total, nil
}

func (f *fakeRepository) UpsertStats(ctx context.Context, stats *models.WeatherStats) error {
	key := statsKey(stats.StationID, stats.Year)
	if existing, ok := f.stats[key]; ok {
		stats.ID = existing.ID
	} else {
		f.nextID++
		stats.ID = f.nextID
	}
	stored := *stats
	f.stats[key] = &stored
	f.upserts++
	return nil
}

func (f *fakeRepository) GetStats(ctx context.Context, filter repository.StatsFilter) ([]*models.WeatherStats, int, error) {
	var matched []*models.WeatherStats
	for _, st := range f.stats {
		if filter.StationID != nil && st.StationID != *filter.StationID {
			continue
		}
		if filter.Year != nil && st.Year != *filter.Year {
			continue
		}
		matched = append(matched, st)
	}

	total := len(matched)
	if filter.Offset >= total {
		return nil, total, nil
	}
	end := filter.Offset + filter.Limit
	if end > total {
		end = total
	}
	return matched[filter.Offset:end], total, nil
}

func (f *fakeRepository) HealthCheck(ctx context.Context) error {
	return nil
}
