package http

import (
	"log/slog"
	"net/http"
	"strings"

	"worklens/internal/core"
	applog "worklens/internal/log"
	"worklens/internal/services"
	"worklens/internal/storage"
)

// Rule mutations flush the dashboard response cache: every cached aggregate
// was computed under the previous rule generation.

type categoryPayload struct {
	Name              string `json:"name"`
	Color             string `json:"color"`
	BadgeBgColor      string `json:"badge_bg_color"`
	BadgeTextColor    string `json:"badge_text_color"`
	IsReductionTarget bool   `json:"is_reduction_target"`
	ValueRank         string `json:"value_rank"`
	SortOrder         int    `json:"sort_order"`
}

func (p categoryPayload) toCategory(id int64) core.Category {
	return core.Category{
		ID:                id,
		Name:              strings.TrimSpace(p.Name),
		Color:             p.Color,
		BadgeBgColor:      p.BadgeBgColor,
		BadgeTextColor:    p.BadgeTextColor,
		IsReductionTarget: p.IsReductionTarget,
		ValueRank:         core.ValueRank(p.ValueRank),
		SortOrder:         p.SortOrder,
	}
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := s.admin.Categories(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cats)
}

func (s *Server) handleGetCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	cat, err := s.admin.Category(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cat)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var p categoryPayload
	if err := decodeJSON(r, &p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	id, err := s.admin.CreateCategory(r.Context(), p.toCategory(0))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	s.flushDashboardCache()
	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	var p categoryPayload
	if err := decodeJSON(r, &p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.admin.UpdateCategory(r.Context(), p.toCategory(id)); err != nil {
		writeServiceError(w, r, err)
		return
	}
	s.flushDashboardCache()
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := s.admin.DeleteCategory(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	s.flushDashboardCache()
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

type keywordRulePayload struct {
	Keyword    string `json:"keyword"`
	CategoryID int64  `json:"category_id"`
	MatchType  string `json:"match_type"`
	Priority   int    `json:"priority"`
	IsActive   *bool  `json:"is_active"`
}

func (p keywordRulePayload) toRule(id int64) core.KeywordRule {
	active := true
	if p.IsActive != nil {
		active = *p.IsActive
	}
	return core.KeywordRule{
		ID:         id,
		Keyword:    strings.TrimSpace(p.Keyword),
		CategoryID: p.CategoryID,
		MatchType:  core.MatchType(p.MatchType),
		Priority:   p.Priority,
		IsActive:   active,
	}
}

func (s *Server) handleListKeywordRules(w http.ResponseWriter, r *http.Request) {
	rulesList, err := s.admin.KeywordRules(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rulesList)
}

func (s *Server) handleCreateKeywordRule(w http.ResponseWriter, r *http.Request) {
	var p keywordRulePayload
	if err := decodeJSON(r, &p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	id, err := s.admin.CreateKeywordRule(r.Context(), p.toRule(0))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	s.flushDashboardCache()
	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (s *Server) handleUpdateKeywordRule(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	var p keywordRulePayload
	if err := decodeJSON(r, &p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.admin.UpdateKeywordRule(r.Context(), p.toRule(id)); err != nil {
		writeServiceError(w, r, err)
		return
	}
	s.flushDashboardCache()
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleDeleteKeywordRule(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := s.admin.DeleteKeywordRule(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	s.flushDashboardCache()
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

type unitRulePayload struct {
	Keyword   string `json:"keyword"`
	UnitType  string `json:"unit_type"`
	MatchType string `json:"match_type"`
	Priority  int    `json:"priority"`
	IsActive  *bool  `json:"is_active"`
}

func (p unitRulePayload) toRule(id int64) core.UnitTypeRule {
	active := true
	if p.IsActive != nil {
		active = *p.IsActive
	}
	return core.UnitTypeRule{
		ID:        id,
		Keyword:   strings.TrimSpace(p.Keyword),
		UnitType:  core.UnitType(p.UnitType),
		MatchType: core.MatchType(p.MatchType),
		Priority:  p.Priority,
		IsActive:  active,
	}
}

func (s *Server) handleListUnitRules(w http.ResponseWriter, r *http.Request) {
	rulesList, err := s.admin.UnitRules(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rulesList)
}

func (s *Server) handleCreateUnitRule(w http.ResponseWriter, r *http.Request) {
	var p unitRulePayload
	if err := decodeJSON(r, &p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	id, err := s.admin.CreateUnitRule(r.Context(), p.toRule(0))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	s.flushDashboardCache()
	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (s *Server) handleUpdateUnitRule(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	var p unitRulePayload
	if err := decodeJSON(r, &p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.admin.UpdateUnitRule(r.Context(), p.toRule(id)); err != nil {
		writeServiceError(w, r, err)
		return
	}
	s.flushDashboardCache()
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleDeleteUnitRule(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := s.admin.DeleteUnitRule(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	s.flushDashboardCache()
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

type subCategoryRulePayload struct {
	ParentCategoryID int64  `json:"parent_category_id"`
	SubCategoryName  string `json:"sub_category_name"`
	Keyword          string `json:"keyword"`
	MatchType        string `json:"match_type"`
	Priority         int    `json:"priority"`
	IsActive         *bool  `json:"is_active"`
}

func (p subCategoryRulePayload) toRule(id int64) core.SubCategoryRule {
	active := true
	if p.IsActive != nil {
		active = *p.IsActive
	}
	return core.SubCategoryRule{
		ID:               id,
		ParentCategoryID: p.ParentCategoryID,
		SubCategoryName:  strings.TrimSpace(p.SubCategoryName),
		Keyword:          strings.TrimSpace(p.Keyword),
		MatchType:        core.MatchType(p.MatchType),
		Priority:         p.Priority,
		IsActive:         active,
	}
}

func (s *Server) handleListSubCategoryRules(w http.ResponseWriter, r *http.Request) {
	rulesList, err := s.admin.SubCategoryRules(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rulesList)
}

func (s *Server) handleCreateSubCategoryRule(w http.ResponseWriter, r *http.Request) {
	var p subCategoryRulePayload
	if err := decodeJSON(r, &p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	id, err := s.admin.CreateSubCategoryRule(r.Context(), p.toRule(0))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	s.flushDashboardCache()
	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (s *Server) handleUpdateSubCategoryRule(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	var p subCategoryRulePayload
	if err := decodeJSON(r, &p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.admin.UpdateSubCategoryRule(r.Context(), p.toRule(id)); err != nil {
		writeServiceError(w, r, err)
		return
	}
	s.flushDashboardCache()
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleDeleteSubCategoryRule(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := s.admin.DeleteSubCategoryRule(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	s.flushDashboardCache()
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

type reductionTargetPayload struct {
	WorkName          string `json:"work_name"`
	IsReductionTarget bool   `json:"is_reduction_target"`
}

func (s *Server) handleListReductionTargets(w http.ResponseWriter, r *http.Request) {
	targets, err := s.admin.ReductionTargets(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, targets)
}

func (s *Server) handleSetReductionTarget(w http.ResponseWriter, r *http.Request) {
	var p reductionTargetPayload
	if err := decodeJSON(r, &p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(p.WorkName) == "" {
		writeError(w, http.StatusUnprocessableEntity, "work_name is required")
		return
	}
	if err := s.admin.SetReductionTarget(r.Context(), p.WorkName, p.IsReductionTarget); err != nil {
		writeServiceError(w, r, err)
		return
	}
	s.flushDashboardCache()
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleBulkReductionTargets(w http.ResponseWriter, r *http.Request) {
	var p struct {
		WorkNames         []string `json:"work_names"`
		IsReductionTarget bool     `json:"is_reduction_target"`
	}
	if err := decodeJSON(r, &p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(p.WorkNames) == 0 {
		writeError(w, http.StatusUnprocessableEntity, "work_names is required")
		return
	}
	if err := s.admin.SetReductionTargets(r.Context(), p.WorkNames, p.IsReductionTarget); err != nil {
		writeServiceError(w, r, err)
		return
	}
	s.flushDashboardCache()
	writeJSON(w, http.StatusOK, map[string]int{"updated": len(p.WorkNames)})
}

func (s *Server) handleDeleteReductionTarget(w http.ResponseWriter, r *http.Request) {
	workName := r.URL.Query().Get("work_name")
	if workName == "" {
		writeError(w, http.StatusBadRequest, "work_name query parameter is required")
		return
	}
	if err := s.admin.DeleteReductionTarget(r.Context(), workName); err != nil {
		writeServiceError(w, r, err)
		return
	}
	s.flushDashboardCache()
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleListSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.admin.Settings(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (s *Server) handleSetSetting(w http.ResponseWriter, r *http.Request) {
	var p storage.Setting
	if err := decodeJSON(r, &p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.admin.SetSetting(r.Context(), p); err != nil {
		writeServiceError(w, r, err)
		return
	}
	s.flushDashboardCache()
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleSeedDefaults(w http.ResponseWriter, r *http.Request) {
	if err := s.store.SeedDefaults(r.Context(), s.seeder); err != nil {
		writeServiceError(w, r, err)
		return
	}
	s.flushDashboardCache()
	slog.InfoContext(r.Context(), "Default rules seeded",
		applog.FieldComponent, applog.ComponentAdmin,
		applog.FieldOperation, applog.OpSeed)
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleTestClassification(w http.ResponseWriter, r *http.Request) {
	var p struct {
		Category2 string `json:"category2"`
		WorkName  string `json:"work_name"`
	}
	if err := decodeJSON(r, &p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	resolution, err := s.admin.TestClassification(r.Context(), p.Category2, p.WorkName)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	slog.DebugContext(r.Context(), "Classification tested",
		applog.FieldComponent, applog.ComponentAdmin,
		applog.FieldOperation, applog.OpClassify,
		applog.FieldWorkName, p.WorkName,
		applog.FieldCategory, resolution.Category)
	writeJSON(w, http.StatusOK, map[string]any{
		"work_name":           p.WorkName,
		"category":            resolution.Category,
		"unit_type":           resolution.UnitType,
		"unit_suffix":         resolution.UnitType.Suffix(),
		"sub_category":        resolution.SubCategory,
		"is_reduction_target": resolution.IsReductionTarget,
	})
}

func (s *Server) handleSuggestions(w http.ResponseWriter, r *http.Request) {
	suggestions, err := s.analytics.SuggestKeywords(r.Context(), parseFilter(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, suggestions)
}

func (s *Server) handleApplySuggestions(w http.ResponseWriter, r *http.Request) {
	var p struct {
		Choices []services.SuggestionChoice `json:"choices"`
	}
	if err := decodeJSON(r, &p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(p.Choices) == 0 {
		writeError(w, http.StatusUnprocessableEntity, "choices is required")
		return
	}
	created, err := s.admin.ApplySuggestions(r.Context(), p.Choices)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	s.flushDashboardCache()
	writeJSON(w, http.StatusOK, map[string]int{"created": created})
}
