package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// MissingValue is the sentinel used in source files for "no reading".
// It is stored as-is and excluded from aggregation math.
const MissingValue = -9999

// WeatherRecord represents a single raw weather observation, kept in source
// units: date as a YYYYMMDD string, temperatures in tenths of a degree Celsius,
// precipitation in tenths of a millimeter.
type WeatherRecord struct {
	ID                 int64     `json:"id" db:"id"`
	Date               string    `json:"date" db:"date"`
	MaxTemp            int       `json:"max_temp" db:"max_temp"`
	MinTemp            int       `json:"min_temp" db:"min_temp"`
	Precipitation      int       `json:"precipitation" db:"precipitation"`
	StationID          string    `json:"weather_station_id" db:"weather_station_id"`
	IngestionTimestamp time.Time `json:"ingestion_timestamp" db:"ingestion_timestamp"`
}

// Year extracts the 4-digit year from the record's YYYYMMDD date.
func (r *WeatherRecord) Year() (int, error) {
	if len(r.Date) != 8 {
		return 0, &ValidationError{
			Field:   "date",
			Value:   r.Date,
			Message: "invalid date format, expected YYYYMMDD",
		}
	}
	year, err := strconv.Atoi(r.Date[:4])
	if err != nil {
		return 0, &ValidationError{
			Field:   "date",
			Value:   r.Date,
			Message: "invalid date format, expected YYYYMMDD",
		}
	}
	return year, nil
}

// WeatherStats represents pre-calculated yearly statistics for one station,
// in converted units: averages in degrees Celsius, precipitation total in
// centimeters. Averages are nil when every reading in the group was missing.
type WeatherStats struct {
	ID                 int64    `json:"id" db:"id"`
	Year               int      `json:"year" db:"year"`
	StationID          string   `json:"weather_station_id" db:"weather_station_id"`
	AvgMaxTemp         *float64 `json:"avg_max_temp" db:"avg_max_temp"`
	AvgMinTemp         *float64 `json:"avg_min_temp" db:"avg_min_temp"`
	TotalPrecipitation float64  `json:"total_precipitation" db:"total_precipitation"`
}

// ParseRecordLine parses one whitespace-delimited source line of the form
// "date max_temp min_temp precipitation" into a WeatherRecord for the given
// station. The date must be a real YYYYMMDD calendar date. Negative
// precipitation values that are not the sentinel are clamped to zero.
func ParseRecordLine(line, stationID string) (*WeatherRecord, error) {
	parts := strings.Fields(line)
	if len(parts) != 4 {
		return nil, &ValidationError{
			Field:   "line",
			Value:   line,
			Message: fmt.Sprintf("invalid line format: expected 4 fields, got %d", len(parts)),
		}
	}

	date := parts[0]
	if _, err := time.Parse("20060102", date); err != nil {
		return nil, &ValidationError{
			Field:   "date",
			Value:   date,
			Message: "invalid date format, expected YYYYMMDD",
		}
	}

	maxTemp, err := strconv.Atoi(parts[1])
	if err != nil {
		return nil, &ValidationError{
			Field:   "max_temp",
			Value:   parts[1],
			Message: "invalid max temperature, expected integer",
		}
	}

	minTemp, err := strconv.Atoi(parts[2])
	if err != nil {
		return nil, &ValidationError{
			Field:   "min_temp",
			Value:   parts[2],
			Message: "invalid min temperature, expected integer",
		}
	}

	precip, err := strconv.Atoi(parts[3])
	if err != nil {
		return nil, &ValidationError{
			Field:   "precipitation",
			Value:   parts[3],
			Message: "invalid precipitation, expected integer",
		}
	}
	if precip < 0 && precip != MissingValue {
		precip = 0
	}

	return &WeatherRecord{
		Date:               date,
		MaxTemp:            maxTemp,
		MinTemp:            minTemp,
		Precipitation:      precip,
		StationID:          stationID,
		IngestionTimestamp: time.Now().UTC(),
	}, nil
}

// ValidationError represents a data validation error
type ValidationError struct {
	Field   string
	Value   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// IsTransient returns false as validation errors are permanent
func (e *ValidationError) IsTransient() bool {
	return false
}
