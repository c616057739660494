package api

import (
	"errors"
	"net/http"

	"github.com/theLastOfCats/series-browser/internal/db"
	"github.com/theLastOfCats/series-browser/internal/logging"
	"github.com/theLastOfCats/series-browser/internal/metrics"
	"github.com/theLastOfCats/series-browser/internal/model"
)

// RatingHandler serves the user-scoped routes. RequireUser has already
// matched the token against {id}.
type RatingHandler struct {
	DB *db.DB
}

func (h *RatingHandler) Rate(w http.ResponseWriter, r *http.Request) {
	userID, _ := GetUserID(r)

	var req model.RateRequest
	if !decode(w, r, &req) {
		return
	}

	err := h.DB.UpsertRating(r.Context(), userID, req.SeriesID, req.Score, req.Comment)
	if errors.Is(err, db.ErrConflict) {
		JSONError(w, "Unknown series or user", http.StatusConflict)
		return
	}
	if err != nil {
		internalError(w, r, err, "failed to save rating")
		return
	}

	metrics.RatingsWritten.WithLabelValues("upsert").Inc()
	logging.Debug().Int64("user_id", userID).Int64("series_id", req.SeriesID).Int("score", req.Score).Msg("rating saved")
	writeJSON(w, http.StatusOK, model.MessageResponse{Message: "Rating saved"})
}

func (h *RatingHandler) UserSeries(w http.ResponseWriter, r *http.Request) {
	userID, _ := GetUserID(r)

	records, err := h.DB.RatedSeries(r.Context(), userID)
	if err != nil {
		internalError(w, r, err, "failed to list rated series")
		return
	}
	writeJSON(w, http.StatusOK, model.CatalogPage{Series: records, Count: len(records)})
}

func (h *RatingHandler) GetNote(w http.ResponseWriter, r *http.Request) {
	userID, _ := GetUserID(r)
	seriesID, ok := pathID(w, r, "sid")
	if !ok {
		return
	}

	score, err := h.DB.GetRating(r.Context(), userID, seriesID)
	if err != nil {
		internalError(w, r, err, "failed to load rating")
		return
	}
	writeJSON(w, http.StatusOK, model.CurrentRating{Note: score})
}

func (h *RatingHandler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	userID, _ := GetUserID(r)
	seriesID, ok := pathID(w, r, "sid")
	if !ok {
		return
	}

	err := h.DB.DeleteRating(r.Context(), userID, seriesID)
	if errors.Is(err, db.ErrNotFound) {
		JSONError(w, "Rating not found", http.StatusNotFound)
		return
	}
	if err != nil {
		internalError(w, r, err, "failed to delete rating")
		return
	}

	metrics.RatingsWritten.WithLabelValues("delete").Inc()
	writeJSON(w, http.StatusOK, model.MessageResponse{Message: "Rating deleted"})
}
