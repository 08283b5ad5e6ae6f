package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jalshrestha/Outfit/internal/classify"
	"github.com/jalshrestha/Outfit/internal/models"
	"github.com/jalshrestha/Outfit/internal/storage"
	"github.com/jalshrestha/Outfit/internal/trending"
)

// TrendingService is what the HTTP layer needs from the trending service.
type TrendingService interface {
	Query(ctx context.Context, q trending.Query) ([]models.OutfitRecord, error)
	Refresh(ctx context.Context, req trending.RefreshRequest) (models.RefreshRun, error)
	Stats() (map[string]storage.SourceStats, error)
	History(ctx context.Context, limit int) ([]models.RefreshRun, error)
}

type ImageClassifier interface {
	Classify(ctx context.Context, imageURL string) (models.Category, error)
}

type Handlers struct {
	trending   TrendingService
	classifier ImageClassifier
	validate   *validator.Validate
	logger     *slog.Logger
}

// NewHandlers wires the handlers. classifier may be nil, in which case the
// classify endpoint answers 503.
func NewHandlers(svc TrendingService, classifier ImageClassifier, logger *slog.Logger) *Handlers {
	return &Handlers{
		trending:   svc,
		classifier: classifier,
		validate:   validator.New(),
		logger:     logger.With("component", "api"),
	}
}

// TrendingResponse is the body of GET /api/trending
type TrendingResponse struct {
	Success   bool                  `json:"success"`
	Count     int                   `json:"count"`
	Source    string                `json:"source"`
	Category  string                `json:"category"`
	Timestamp time.Time             `json:"timestamp"`
	Data      []models.OutfitRecord `json:"data"`
}

// RefreshRequest is the body of POST /api/trending/refresh
type RefreshRequest struct {
	Source     string     `json:"source" validate:"omitempty,oneof=pinterest hollister hm h&m all"`
	MaxResults MaxResults `json:"maxResults"`
}

// ClassifyRequest is the body of POST /api/trending/classify-image
type ClassifyRequest struct {
	ImageURL string `json:"imageUrl" validate:"required,url"`
}

// MaxResults accepts a JSON number or a numeric string.
type MaxResults struct {
	Value int
	Set   bool
}

func (m *MaxResults) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}

	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		switch {
		case n < trending.MinMaxResults:
			m.Value = trending.MinMaxResults
		case n > trending.MaxMaxResults:
			m.Value = trending.MaxMaxResults
		default:
			m.Value = int(n)
		}
		m.Set = true
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		m.Value = trending.ParseMaxResults(s)
		m.Set = true
		return nil
	}

	return fmt.Errorf("maxResults must be a number or a numeric string")
}

func (m MaxResults) OrDefault() int {
	if !m.Set {
		return trending.DefaultMaxResults
	}
	return m.Value
}

// GetTrending handles GET /api/trending
func (h *Handlers) GetTrending(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	source := strings.ToLower(strings.TrimSpace(query.Get("source")))
	if source == "" {
		source = string(models.SourceAll)
	}
	if _, ok := models.ParseSourceName(source, true); !ok {
		h.respondInvalidSource(w)
		return
	}

	category := strings.TrimSpace(query.Get("category"))
	maxResults := trending.ParseMaxResults(query.Get("maxResults"))

	records, err := h.trending.Query(r.Context(), trending.Query{
		Source:     source,
		Category:   category,
		MaxResults: maxResults,
	})
	if err != nil {
		if errors.Is(err, trending.ErrInvalidSource) {
			h.respondInvalidSource(w)
			return
		}
		h.logger.Error("failed to fetch trending outfits", "source", source, "error", err)
		h.respondFailure(w, "Failed to fetch trending outfits", err)
		return
	}

	if category == "" {
		category = "all"
	}

	h.respondJSON(w, http.StatusOK, TrendingResponse{
		Success:   true,
		Count:     len(records),
		Source:    source,
		Category:  category,
		Timestamp: time.Now().UTC(),
		Data:      records,
	})
}

// RefreshTrending handles POST /api/trending/refresh
func (h *Handlers) RefreshTrending(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Source = strings.ToLower(strings.TrimSpace(req.Source))
	if req.Source == "" {
		req.Source = string(models.SourceAll)
	}
	if err := h.validate.Struct(req); err != nil {
		h.respondInvalidSource(w)
		return
	}

	run, err := h.trending.Refresh(r.Context(), trending.RefreshRequest{
		Source:     req.Source,
		MaxResults: req.MaxResults.OrDefault(),
		Trigger:    models.TriggerAPI,
	})
	if err != nil {
		if errors.Is(err, trending.ErrInvalidSource) {
			h.respondInvalidSource(w)
			return
		}
		h.logger.Error("failed to refresh cache", "source", req.Source, "error", err)
		h.respondFailure(w, "Failed to refresh cache", err)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":        true,
		"message":        "Cache refreshed successfully",
		"source":         req.Source,
		"itemsRefreshed": run.ItemsRefreshed,
		"runId":          run.ID,
		"timestamp":      time.Now().UTC(),
	})
}

// GetStats handles GET /api/trending/stats. A broken cache file still
// answers 200 with empty stats.
func (h *Handlers) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.trending.Stats()
	if err != nil {
		h.logger.Warn("failed to read cache stats", "error", err)
		h.respondJSON(w, http.StatusOK, map[string]interface{}{
			"success":   true,
			"stats":     map[string]storage.SourceStats{},
			"message":   "No cache data available yet",
			"timestamp": time.Now().UTC(),
		})
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"stats":     stats,
		"timestamp": time.Now().UTC(),
	})
}

// GetHistory handles GET /api/trending/history
func (h *Handlers) GetHistory(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			h.respondError(w, http.StatusBadRequest, "limit must be an integer")
			return
		}
		limit = n
	}

	runs, err := h.trending.History(r.Context(), limit)
	if err != nil {
		h.logger.Error("failed to load refresh history", "error", err)
		h.respondError(w, http.StatusInternalServerError, "failed to load refresh history")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"count":   len(runs),
		"runs":    runs,
	})
}

// ClassifyImage handles POST /api/trending/classify-image
func (h *Handlers) ClassifyImage(w http.ResponseWriter, r *http.Request) {
	if h.classifier == nil {
		h.respondError(w, http.StatusServiceUnavailable, "Image classification is not configured")
		return
	}

	var req ClassifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.respondError(w, http.StatusBadRequest, "imageUrl is required and must be a valid URL")
		return
	}

	category, err := h.classifier.Classify(r.Context(), req.ImageURL)
	if err != nil {
		if errors.Is(err, classify.ErrInvalidImageURL) {
			h.respondError(w, http.StatusBadRequest, "imageUrl is required and must be a valid URL")
			return
		}
		h.logger.Error("failed to classify image", "url", req.ImageURL, "error", err)
		h.respondFailure(w, "Failed to classify image", err)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"category":  category,
		"imageUrl":  req.ImageURL,
		"timestamp": time.Now().UTC(),
	})
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handlers) respondInvalidSource(w http.ResponseWriter) {
	h.respondJSON(w, http.StatusBadRequest, map[string]interface{}{
		"error":        "Invalid source parameter",
		"validSources": models.ValidSourceValues(),
	})
}

func (h *Handlers) respondFailure(w http.ResponseWriter, message string, err error) {
	h.respondJSON(w, http.StatusInternalServerError, map[string]interface{}{
		"success":   false,
		"error":     message,
		"message":   err.Error(),
		"timestamp": time.Now().UTC(),
	})
}

func (h *Handlers) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handlers) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}
