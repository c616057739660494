package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/theLastOfCats/series-browser/internal/db"
	"github.com/theLastOfCats/series-browser/internal/engine"
	"github.com/theLastOfCats/series-browser/internal/logging"
	"github.com/theLastOfCats/series-browser/internal/metrics"
	"github.com/theLastOfCats/series-browser/internal/model"
	"github.com/theLastOfCats/series-browser/internal/normalize"
)

const (
	defaultSearchLimit = 20
	defaultRecoLimit   = 5
	maxLimit           = 100
)

// RecommendHandler proxies search and recommendation requests to the
// engine and joins its hits back onto catalog rows. A nil Engine answers 503.
type RecommendHandler struct {
	Engine engine.Engine
	Slugs  *db.SlugIndex
}

func (h *RecommendHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		JSONError(w, "Parameter 'q' is required", http.StatusBadRequest)
		return
	}
	if !h.available(w) {
		return
	}

	start := time.Now()
	hits, err := h.Engine.Search(r.Context(), q, queryLimit(r, defaultSearchLimit, maxLimit))
	if err != nil {
		h.engineError(w, r, "search", err)
		return
	}
	records, err := h.resolve(r, hits, func(rec *model.Record, hit engine.Hit) {
		rec.Score = &hit.Score
		rec.Details = hit.Details
	})
	if err != nil {
		internalError(w, r, err, "failed to resolve search hits")
		return
	}

	writeJSON(w, http.StatusOK, model.SearchPage{
		Query:     q,
		Results:   records,
		Count:     len(records),
		ElapsedMS: elapsedMS(start),
	})
}

func (h *RecommendHandler) Similar(w http.ResponseWriter, r *http.Request) {
	ref := strings.TrimSpace(r.URL.Query().Get("serie"))
	if ref == "" {
		JSONError(w, "Parameter 'serie' is required", http.StatusBadRequest)
		return
	}
	if !h.available(w) {
		return
	}
	if _, found, err := h.Slugs.Lookup(r.Context(), ref); err != nil {
		internalError(w, r, err, "failed to look up reference series")
		return
	} else if !found {
		JSONError(w, "Series not found", http.StatusNotFound)
		return
	}

	start := time.Now()
	slug := normalize.Key(ref)
	hits, err := h.Engine.Similar(r.Context(), slug, queryLimit(r, defaultRecoLimit, maxLimit))
	if err != nil {
		h.engineError(w, r, "similar", err)
		return
	}
	records, err := h.resolve(r, hits, func(rec *model.Record, hit engine.Hit) {
		rec.SimilarityScore = &hit.Score
	})
	if err != nil {
		internalError(w, r, err, "failed to resolve similar hits")
		return
	}

	writeJSON(w, http.StatusOK, model.SimilarPage{
		Reference: slug,
		Results:   records,
		ElapsedMS: elapsedMS(start),
	})
}

func (h *RecommendHandler) Profile(w http.ResponseWriter, r *http.Request) {
	var req model.ProfileRequest
	if !decode(w, r, &req) {
		return
	}
	if !h.available(w) {
		return
	}

	limit := req.Limit
	if limit <= 0 {
		limit = defaultRecoLimit
	} else if limit > maxLimit {
		limit = maxLimit
	}
	liked := make([]string, 0, len(req.LikedSeries))
	for _, s := range req.LikedSeries {
		if key := normalize.Key(s); key != "" {
			liked = append(liked, key)
		}
	}

	start := time.Now()
	hits, err := h.Engine.Profile(r.Context(), liked, limit)
	if err != nil {
		h.engineError(w, r, "profile", err)
		return
	}
	records, err := h.resolve(r, hits, func(rec *model.Record, hit engine.Hit) {
		rec.ProfileScore = &hit.Score
	})
	if err != nil {
		internalError(w, r, err, "failed to resolve profile hits")
		return
	}

	writeJSON(w, http.StatusOK, model.RecommendationPage{
		Recommendations: records,
		Count:           len(records),
		ElapsedMS:       elapsedMS(start),
	})
}

func (h *RecommendHandler) available(w http.ResponseWriter) bool {
	if h.Engine == nil {
		JSONError(w, "Search engine not available", http.StatusServiceUnavailable)
		return false
	}
	return true
}

func (h *RecommendHandler) engineError(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests),
		errors.Is(err, engine.ErrUnavailable):
		JSONError(w, "Search engine not available", http.StatusServiceUnavailable)
	default:
		logging.Error().Err(err).Str("operation", op).Str("path", r.URL.Path).Msg("engine request failed")
		JSONError(w, "Search engine error", http.StatusBadGateway)
	}
}

// resolve keeps the hits whose slug names a catalog series, in engine order.
func (h *RecommendHandler) resolve(r *http.Request, hits []engine.Hit, fill func(*model.Record, engine.Hit)) ([]model.Record, error) {
	records := make([]model.Record, 0, len(hits))
	for _, hit := range hits {
		s, found, err := h.Slugs.Lookup(r.Context(), hit.Slug)
		if err != nil {
			return nil, err
		}
		if !found {
			metrics.SlugMisses.Inc()
			logging.Debug().Str("slug", hit.Slug).Msg("engine hit has no catalog row")
			continue
		}
		rec := model.Record{Series: s}
		fill(&rec, hit)
		records = append(records, rec)
	}
	return records, nil
}

func elapsedMS(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000
}
