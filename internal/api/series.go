package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/theLastOfCats/series-browser/internal/db"
	"github.com/theLastOfCats/series-browser/internal/model"
)

type SeriesHandler struct {
	DB *db.DB
}

func (h *SeriesHandler) List(w http.ResponseWriter, r *http.Request) {
	all, err := h.DB.ListSeries(r.Context())
	if err != nil {
		internalError(w, r, err, "failed to list series")
		return
	}
	records := make([]model.Record, len(all))
	for i, s := range all {
		records[i] = model.Record{Series: s}
	}
	writeJSON(w, http.StatusOK, model.CatalogPage{Series: records, Count: len(records)})
}

func (h *SeriesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	details, err := h.DB.SeriesDetails(r.Context(), id)
	if errors.Is(err, db.ErrNotFound) {
		JSONError(w, "Series not found", http.StatusNotFound)
		return
	}
	if err != nil {
		internalError(w, r, err, "failed to load series")
		return
	}
	writeJSON(w, http.StatusOK, details)
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		JSONError(w, "Invalid "+name, http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

// queryLimit reads ?limit=, falling back to def and capping at maxN.
func queryLimit(r *http.Request, def, maxN int) int {
	n, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || n <= 0 {
		return def
	}
	if n > maxN {
		return maxN
	}
	return n
}
