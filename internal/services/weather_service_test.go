package services

import (
	"context"
	"errors"
	"testing"

	"github.com/ashishjoshi2605/colaberry-coding-assesment/internal/models"
	"github.com/ashishjoshi2605/colaberry-coding-assesment/internal/repository"
)

func TestWeatherService_EmptyResultsAreNotFound(t *testing.T) {
	repo := newFakeRepository()
	svc := NewWeatherService(repo, testLogger, testMetrics)
	ctx := context.Background()

	var notFound *repository.NotFoundError

	_, _, err := svc.GetRecords(ctx, repository.RecordFilter{Limit: 10})
	if !errors.As(err, &notFound) {
		t.Errorf("GetRecords on empty store: error = %v, want NotFoundError", err)
	}

	_, _, err = svc.GetStats(ctx, repository.StatsFilter{Limit: 10})
	if !errors.As(err, &notFound) {
		t.Errorf("GetStats on empty store: error = %v, want NotFoundError", err)
	}
}

func TestWeatherService_PagePastEndIsNotFound(t *testing.T) {
	repo := newFakeRepository()
	seedRecords(repo,
		&models.WeatherRecord{Date: "20230101", MaxTemp: 250, MinTemp: 150, StationID: "STATION1"},
	)
	svc := NewWeatherService(repo, testLogger, testMetrics)

	_, _, err := svc.GetRecords(context.Background(), repository.RecordFilter{Limit: 10, Offset: 40})
	var notFound *repository.NotFoundError
	if !errors.As(err, &notFound) {
		t.Errorf("out-of-range page: error = %v, want NotFoundError", err)
	}
}

func TestWeatherService_PassesThroughTotal(t *testing.T) {
	repo := newFakeRepository()
	seedRecords(repo,
		&models.WeatherRecord{Date: "20230101", MaxTemp: 250, MinTemp: 150, StationID: "STATION1"},
		&models.WeatherRecord{Date: "20230102", MaxTemp: 260, MinTemp: 160, StationID: "STATION1"},
		&models.WeatherRecord{Date: "20230103", MaxTemp: 270, MinTemp: 170, StationID: "STATION1"},
	)
	svc := NewWeatherService(repo, testLogger, testMetrics)

	records, total, err := svc.GetRecords(context.Background(), repository.RecordFilter{Limit: 2})
	if err != nil {
		t.Fatalf("GetRecords() error = %v", err)
	}
	if total != 3 {
		t.Errorf("total = %d, want 3", total)
	}
	if len(records) != 2 {
		t.Errorf("records length = %d, want 2", len(records))
	}
}
