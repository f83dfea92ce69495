package models

import (
	"testing"
)

// TestParseRecordLine covers the source line parsing and the ingestion
// policies around sentinel and negative precipitation values.
func TestParseRecordLine(t *testing.T) {
	tests := []struct {
		name        string
		line        string
		stationID   string
		wantErr     bool
		checkValues func(*testing.T, *WeatherRecord)
	}{
		{
			name:      "valid tab-delimited line",
			line:      "20230115\t250\t150\t100",
			stationID: "STATION1",
			wantErr:   false,
			checkValues: func(t *testing.T, rec *WeatherRecord) {
				if rec.StationID != "STATION1" {
					t.Errorf("StationID = %v, want %v", rec.StationID, "STATION1")
				}
				if rec.Date != "20230115" {
					t.Errorf("Date = %v, want %v", rec.Date, "20230115")
				}
				if rec.MaxTemp != 250 {
					t.Errorf("MaxTemp = %v, want %v", rec.MaxTemp, 250)
				}
				if rec.MinTemp != 150 {
					t.Errorf("MinTemp = %v, want %v", rec.MinTemp, 150)
				}
				if rec.Precipitation != 100 {
					t.Errorf("Precipitation = %v, want %v", rec.Precipitation, 100)
				}
				if rec.IngestionTimestamp.IsZero() {
					t.Error("IngestionTimestamp should be set")
				}
			},
		},
		{
			name:      "valid space-delimited line",
			line:      "20230115  250   150  100",
			stationID: "STATION1",
			wantErr:   false,
			checkValues: func(t *testing.T, rec *WeatherRecord) {
				if rec.Date != "20230115" || rec.MaxTemp != 250 {
					t.Errorf("unexpected record: %+v", rec)
				}
			},
		},
		{
			name:      "sentinel values stored as-is",
			line:      "20230115\t-9999\t-9999\t-9999",
			stationID: "STATION1",
			wantErr:   false,
			checkValues: func(t *testing.T, rec *WeatherRecord) {
				if rec.MaxTemp != MissingValue {
					t.Errorf("MaxTemp = %v, want sentinel %v", rec.MaxTemp, MissingValue)
				}
				if rec.MinTemp != MissingValue {
					t.Errorf("MinTemp = %v, want sentinel %v", rec.MinTemp, MissingValue)
				}
				if rec.Precipitation != MissingValue {
					t.Errorf("Precipitation = %v, want sentinel %v", rec.Precipitation, MissingValue)
				}
			},
		},
		{
			name:      "negative non-sentinel precipitation clamped to zero",
			line:      "20230115\t250\t150\t-5",
			stationID: "STATION1",
			wantErr:   false,
			checkValues: func(t *testing.T, rec *WeatherRecord) {
				if rec.Precipitation != 0 {
					t.Errorf("Precipitation = %v, want 0", rec.Precipitation)
				}
			},
		},
		{
			name:      "negative temperatures are valid",
			line:      "20230115\t-50\t-100\t0",
			stationID: "STATION1",
			wantErr:   false,
			checkValues: func(t *testing.T, rec *WeatherRecord) {
				if rec.MaxTemp != -50 {
					t.Errorf("MaxTemp = %v, want %v", rec.MaxTemp, -50)
				}
				if rec.MinTemp != -100 {
					t.Errorf("MinTemp = %v, want %v", rec.MinTemp, -100)
				}
			},
		},
		{
			name:      "too few fields",
			line:      "20230115\t250\t150",
			stationID: "STATION1",
			wantErr:   true,
		},
		{
			name:      "too many fields",
			line:      "20230115\t250\t150\t100\t7",
			stationID: "STATION1",
			wantErr:   true,
		},
		{
			name:      "dashed date format rejected",
			line:      "2023-01-15\t250\t150\t100",
			stationID: "STATION1",
			wantErr:   true,
		},
		{
			name:      "illogical calendar date rejected",
			line:      "20230230\t250\t150\t100",
			stationID: "STATION1",
			wantErr:   true,
		},
		{
			name:      "non-integer temperature",
			line:      "20230115\tabc\t150\t100",
			stationID: "STATION1",
			wantErr:   true,
		},
		{
			name:      "non-integer precipitation",
			line:      "20230115\t250\t150\t1.5",
			stationID: "STATION1",
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := ParseRecordLine(tt.line, tt.stationID)

			if (err != nil) != tt.wantErr {
				t.Errorf("ParseRecordLine() error = %v, wantErr %v", err, tt.wantErr)
				return
			}

			if !tt.wantErr && tt.checkValues != nil {
				tt.checkValues(t, rec)
			}
		})
	}
}

// TestWeatherRecord_Year tests year extraction from stored dates
func TestWeatherRecord_Year(t *testing.T) {
	tests := []struct {
		name     string
		date     string
		wantYear int
		wantErr  bool
	}{
		{name: "normal date", date: "20230115", wantYear: 2023},
		{name: "earliest data", date: "19850101", wantYear: 1985},
		{name: "short date", date: "2023", wantErr: true},
		{name: "garbage date", date: "abcdefgh", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &WeatherRecord{Date: tt.date}
			year, err := rec.Year()

			if (err != nil) != tt.wantErr {
				t.Errorf("Year() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && year != tt.wantYear {
				t.Errorf("Year() = %v, want %v", year, tt.wantYear)
			}
		})
	}
}

// TestValidationError tests error handling
func TestValidationError(t *testing.T) {
	err := &ValidationError{
		Field:   "date",
		Value:   "invalid",
		Message: "invalid date format",
	}

	if err.Error() != "invalid date format" {
		t.Errorf("Error() = %v, want %v", err.Error(), "invalid date format")
	}

	if err.IsTransient() {
		t.Error("ValidationError should not be transient")
	}
}
