package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/codecraft/internal/stats"
)

type StatsHandler struct {
	agg *stats.Aggregator
}

func NewStatsHandler(agg *stats.Aggregator) *StatsHandler {
	return &StatsHandler{agg: agg}
}

// HTTP: GET /api/users/{id}/stats
func (h *StatsHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	s, err := h.agg.Stats(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}
