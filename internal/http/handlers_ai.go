package http

import (
	"net/http"

	"worklens/internal/grouping"
)

// handleAICategorize asks the configured provider to categorize the given
// work names. When no provider is configured or the call fails, the keyword
// rules answer instead and each result carries the fallback flag.
func (s *Server) handleAICategorize(w http.ResponseWriter, r *http.Request) {
	var p struct {
		WorkNames []string `json:"work_names"`
	}
	if err := decodeJSON(r, &p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(p.WorkNames) == 0 {
		writeError(w, http.StatusUnprocessableEntity, "work_names is required")
		return
	}

	cats, err := s.admin.Categories(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	names := make([]string, 0, len(cats))
	for _, c := range cats {
		names = append(names, c.Name)
	}

	results, err := s.categorizer.Categorize(r.Context(), p.WorkNames, names)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"provider": s.categorizer.ProviderName(),
		"results":  results,
	})
}

// handleAIGroupTasks collapses the submitted work names into groups without
// touching any provider. This runs the same local grouping used by the
// grouped ranking view, optionally followed by the merge pass.
func (s *Server) handleAIGroupTasks(w http.ResponseWriter, r *http.Request) {
	var p struct {
		TaskNames  []string `json:"task_names"`
		ApplyMerge bool     `json:"apply_merge"`
	}
	if err := decodeJSON(r, &p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(p.TaskNames) == 0 {
		writeError(w, http.StatusUnprocessableEntity, "task_names is required")
		return
	}

	writeJSON(w, http.StatusOK, grouping.LocalGroupTasks(p.TaskNames, p.ApplyMerge))
}

func (s *Server) handleAIStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"enabled":  s.categorizer.Enabled(),
		"provider": s.categorizer.ProviderName(),
	})
}
