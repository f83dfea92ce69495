package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/ashishjoshi2605/colaberry-coding-assesment/internal/repository"
	"github.com/ashishjoshi2605/colaberry-coding-assesment/internal/services"
	"github.com/ashishjoshi2605/colaberry-coding-assesment/pkg/logging"
	"github.com/ashishjoshi2605/colaberry-coding-assesment/pkg/metrics"
)

// Pagination defaults and the server-side cap on page size.
const (
	defaultPage    = 1
	defaultPerPage = 10
	maxPerPage     = 100
)

// Fixed API error messages.
const (
	msgInvalidDate = "Invalid date format or illogical date. Use YYYY-MM-DD format."
	msgInvalidYear = "Invalid year format. Use YYYY format."
	msgNotFound    = "No records matching this criteria found."
)

// WeatherHandler handles weather API endpoints
type WeatherHandler struct {
	weatherService *services.WeatherService
	logger         *logging.StructuredLogger
	metrics        *metrics.Collector
}

// NewWeatherHandler creates a new weather handler
func NewWeatherHandler(
	weatherService *services.WeatherService,
	logger *logging.StructuredLogger,
	metricsCollector *metrics.Collector,
) *WeatherHandler {
	return &WeatherHandler{
		weatherService: weatherService,
		logger:         logger,
		metrics:        metricsCollector,
	}
}

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// PaginatedResponse represents a paginated API response
type PaginatedResponse struct {
	Total   int         `json:"total"`
	Page    int         `json:"page"`
	PerPage int         `json:"per_page"`
	Items   interface{} `json:"items"`
}

// parsePagination reads page/per_page query parameters. Values that fail to
// parse or fall below 1 revert to the defaults; per_page is capped so a single
// request cannot pull an unbounded result set.
func parsePagination(r *http.Request) (page, perPage int) {
	page = defaultPage
	perPage = defaultPerPage

	if pageStr := r.URL.Query().Get("page"); pageStr != "" {
		if p, err := strconv.Atoi(pageStr); err == nil && p >= 1 {
			page = p
		}
	}

	if perPageStr := r.URL.Query().Get("per_page"); perPageStr != "" {
		if n, err := strconv.Atoi(perPageStr); err == nil && n >= 1 {
			perPage = n
		}
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}

	return page, perPage
}

// GetRecords handles GET /api/weather
func (h *WeatherHandler) GetRecords(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()

	defer func() {
		duration := time.Since(startTime)
		h.metrics.APIRequestDuration.WithLabelValues("/api/weather").Observe(duration.Seconds())
	}()

	page, perPage := parsePagination(r)

	filter := repository.RecordFilter{
		Limit:  perPage,
		Offset: (page - 1) * perPage,
	}

	if stationID := r.URL.Query().Get("station_id"); stationID != "" {
		filter.StationID = &stationID
	}

	if dateStr := r.URL.Query().Get("date"); dateStr != "" {
		// time.Parse rejects illogical dates (Feb 30, month 13), not just
		// malformed strings.
		parsed, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			h.metrics.RecordAPIError("invalid_date", "/api/weather")
			h.sendError(w, r, msgInvalidDate, http.StatusBadRequest)
			return
		}
		stored := parsed.Format("20060102")
		filter.Date = &stored
	}

	records, total, err := h.weatherService.GetRecords(ctx, filter)
	if err != nil {
		var notFound *repository.NotFoundError
		if errors.As(err, &notFound) {
			h.metrics.RecordAPIError("not_found", "/api/weather")
			h.sendError(w, r, msgNotFound, http.StatusNotFound)
			return
		}

		h.logger.Error(ctx, "[API_GET_RECORDS_ERROR] Failed to get records", logging.Fields{
			"filter": filter,
		}, err)
		h.metrics.RecordAPIError("internal_error", "/api/weather")
		h.sendError(w, r, "failed to retrieve records", http.StatusInternalServerError)
		return
	}

	response := PaginatedResponse{
		Total:   total,
		Page:    page,
		PerPage: perPage,
		Items:   records,
	}

	h.metrics.RecordAPIRequest("/api/weather", "GET", "200")
	h.sendJSON(w, response, http.StatusOK)
}

// GetStats handles GET /api/weather/stats
func (h *WeatherHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()

	defer func() {
		duration := time.Since(startTime)
		h.metrics.APIRequestDuration.WithLabelValues("/api/weather/stats").Observe(duration.Seconds())
	}()

	page, perPage := parsePagination(r)

	filter := repository.StatsFilter{
		Limit:  perPage,
		Offset: (page - 1) * perPage,
	}

	if stationID := r.URL.Query().Get("station_id"); stationID != "" {
		filter.StationID = &stationID
	}

	if yearStr := r.URL.Query().Get("year"); yearStr != "" {
		year, err := strconv.Atoi(yearStr)
		if err != nil || len(yearStr) != 4 {
			h.metrics.RecordAPIError("invalid_year", "/api/weather/stats")
			h.sendError(w, r, msgInvalidYear, http.StatusBadRequest)
			return
		}
		filter.Year = &year
	}

	stats, total, err := h.weatherService.GetStats(ctx, filter)
	if err != nil {
		var notFound *repository.NotFoundError
		if errors.As(err, &notFound) {
			h.metrics.RecordAPIError("not_found", "/api/weather/stats")
			h.sendError(w, r, msgNotFound, http.StatusNotFound)
			return
		}

		h.logger.Error(ctx, "[API_GET_STATS_ERROR] Failed to get statistics", logging.Fields{
			"filter": filter,
		}, err)
		h.metrics.RecordAPIError("internal_error", "/api/weather/stats")
		h.sendError(w, r, "failed to retrieve statistics", http.StatusInternalServerError)
		return
	}

	response := PaginatedResponse{
		Total:   total,
		Page:    page,
		PerPage: perPage,
		Items:   stats,
	}

	h.metrics.RecordAPIRequest("/api/weather/stats", "GET", "200")
	h.sendJSON(w, response, http.StatusOK)
}

// HealthCheck handles GET /health
func (h *WeatherHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.weatherService.HealthCheck(ctx); err != nil {
		h.logger.Error(ctx, "[HEALTH_CHECK_ERROR] Store unreachable", logging.Fields{}, err)
		h.sendJSON(w, map[string]string{
			"status":    "unhealthy",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		}, http.StatusServiceUnavailable)
		return
	}

	h.sendJSON(w, map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}, http.StatusOK)
}

// sendJSON sends a JSON response
func (h *WeatherHandler) sendJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// sendError sends an error response
func (h *WeatherHandler) sendError(w http.ResponseWriter, r *http.Request, message string, statusCode int) {
	h.metrics.RecordAPIRequest(r.URL.Path, r.Method, strconv.Itoa(statusCode))

	h.sendJSON(w, ErrorResponse{Error: message}, statusCode)
}

// RegisterRoutes registers all weather API routes
func (h *WeatherHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/weather", h.GetRecords).Methods("GET")
	router.HandleFunc("/api/weather/stats", h.GetStats).Methods("GET")
	router.HandleFunc("/health", h.HealthCheck).Methods("GET")
}
