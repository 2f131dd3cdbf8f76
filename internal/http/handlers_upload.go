package http

import (
	"log/slog"
	"net/http"
	"strings"

	"worklens/internal/ingest"
)

// handleUpload ingests an uploaded xlsx workbook. The import replaces all
// existing work records; a failed parse or insert leaves them untouched.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	if err := r.ParseMultipartForm(s.maxUploadBytes); err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "upload too large or malformed")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer file.Close()

	if !strings.HasSuffix(strings.ToLower(header.Filename), ".xlsx") {
		writeError(w, http.StatusUnprocessableEntity, "only .xlsx files are supported")
		return
	}

	records, err := ingest.ReadWorkbook(r.Context(), file)
	if err != nil {
		slog.WarnContext(r.Context(), "Workbook parse failed", "filename", header.Filename, "error", err)
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	count, err := s.uploads.ReplaceAllRecords(r.Context(), records)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	s.flushDashboardCache()
	slog.InfoContext(r.Context(), "Workbook imported", "filename", header.Filename, "records", count)
	writeJSON(w, http.StatusOK, map[string]any{"imported": count})
}

// handleUploadClear drops every imported work record. Rule tables and
// settings stay untouched.
func (s *Server) handleUploadClear(w http.ResponseWriter, r *http.Request) {
	if _, err := s.uploads.ReplaceAllRecords(r.Context(), nil); err != nil {
		writeServiceError(w, r, err)
		return
	}
	s.flushDashboardCache()
	slog.InfoContext(r.Context(), "Work records cleared")
	writeJSON(w, http.StatusOK, map[string]any{"cleared": true})
}

func (s *Server) handleUploadStatus(w http.ResponseWriter, r *http.Request) {
	count, err := s.uploads.CountRecords(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"record_count": count})
}
