package http

import (
	"net/http"
	"strconv"
)

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.analytics.Summary(r.Context(), parseFilter(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleCategoryBreakdown(w http.ResponseWriter, r *http.Request) {
	breakdown, err := s.analytics.CategoryBreakdown(r.Context(), parseFilter(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, breakdown)
}

func (s *Server) handleDailyBreakdown(w http.ResponseWriter, r *http.Request) {
	breakdown, err := s.analytics.DailyBreakdown(r.Context(), parseFilter(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, breakdown)
}

func (s *Server) handleRanking(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	ranking, err := s.analytics.Ranking(r.Context(), parseFilter(r), limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ranking)
}

func (s *Server) handleGroupedRanking(w http.ResponseWriter, r *http.Request) {
	groups, err := s.analytics.GroupedRanking(r.Context(), parseFilter(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, groups)
}

func (s *Server) handleFilterOptions(w http.ResponseWriter, r *http.Request) {
	opts, err := s.analytics.FilterOptions(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, opts)
}
