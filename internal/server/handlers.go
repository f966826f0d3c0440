package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hyperjump/suisen/internal/keyword"
	"github.com/hyperjump/suisen/internal/models"
	"github.com/hyperjump/suisen/internal/recommend"
	"github.com/hyperjump/suisen/internal/search"
	"github.com/hyperjump/suisen/internal/storage"
	"github.com/hyperjump/suisen/pkg/utils"
)

const sampleQuery = "I am hiring for Java developers who can also collaborate effectively with my business teams."

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// recommendRequest keeps pointers so a missing field can be told apart from a zero value.
type recommendRequest struct {
	Query *string `json:"query"`
	TopK  *int    `json:"top_k"`
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	_, maxTopK := s.engine.Limits()
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Assessment Recommendation API",
		"version": APIVersion,
		"endpoints": map[string]interface{}{
			"health": map[string]string{"path": "/health", "method": "GET", "description": "Check API health status"},
			"recommend": map[string]interface{}{
				"path":        "/recommend",
				"method":      "POST",
				"description": "Get assessment recommendations",
				"body": map[string]string{
					"query": "string (required)",
					"top_k": fmt.Sprintf("integer (optional, 1-%d, default: 10)", maxTopK),
				},
			},
			"recommend_file": map[string]string{"path": "/api/v1/recommend/file", "method": "POST", "description": "Recommend from an uploaded job description"},
			"assessments":    map[string]string{"path": "/api/v1/assessments", "method": "GET", "description": "Search the catalog by keyword"},
			"status":         map[string]string{"path": "/api/v1/status", "method": "GET", "description": "Index and configuration status"},
		},
		"status": "operational",
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	snap := s.engine.Snapshot()
	if snap == nil {
		s.respondJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":  "unavailable",
			"message": "index not loaded",
		})
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":            "healthy",
		"message":           "Recommendation API is running",
		"total_assessments": snap.Model.Size(),
	})
}

func (s *Server) handleSample(w http.ResponseWriter, r *http.Request) {
	resp, err := s.engine.Recommend(r.Context(), &models.RecommendQuery{Query: sampleQuery, TopK: 5})
	if err != nil {
		s.respondEngineError(w, "sample recommendation failed", err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"test_query":      sampleQuery,
		"recommendations": resp.Recommendations,
		"count":           resp.Count,
		"message":         "Use POST /recommend for real queries.",
	})
}

func (s *Server) handleRecommend(w http.ResponseWriter, r *http.Request) {
	var req recommendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Query == nil {
		s.respondError(w, http.StatusBadRequest, "missing 'query' field in request body")
		return
	}
	query := &models.RecommendQuery{Query: *req.Query}
	if req.TopK != nil {
		if *req.TopK < 1 {
			_, maxTopK := s.engine.Limits()
			s.respondError(w, http.StatusBadRequest, fmt.Sprintf("top_k must be an integer between 1 and %d", maxTopK))
			return
		}
		query.TopK = *req.TopK
	}
	s.logger.Debug("recommend request", zap.String("query", utils.Truncate(query.Query, 80)), zap.Int("top_k", query.TopK))

	resp, err := s.engine.Recommend(r.Context(), query)
	if err != nil {
		s.respondEngineError(w, "recommendation failed", err)
		return
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRecommendFile(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "missing 'file' form field")
		return
	}
	defer file.Close()
	content, err := io.ReadAll(file)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "failed to read upload")
		return
	}

	query := &models.RecommendQuery{}
	if v := r.FormValue("top_k"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			s.respondError(w, http.StatusBadRequest, "top_k must be a positive integer")
			return
		}
		query.TopK = n
	}

	text, err := s.extractor.ExtractBytes(content, filepath.Ext(header.Filename))
	if err != nil {
		s.logger.Warn("extract upload failed", zap.String("filename", header.Filename), zap.Error(err))
		s.respondError(w, http.StatusUnprocessableEntity, "could not read document: "+err.Error())
		return
	}
	query.Query = utils.CollapseWhitespace(text)
	s.logger.Debug("recommend file request",
		zap.String("filename", header.Filename),
		zap.Int("bytes", len(content)),
		zap.Int("text_len", len(query.Query)))

	resp, err := s.engine.Recommend(r.Context(), query)
	if err != nil {
		s.respondEngineError(w, "file recommendation failed", err)
		return
	}
	resp.Query = utils.Truncate(resp.Query, 200)
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListAssessments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := defaultListLimit
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			s.respondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxListLimit)
	}
	opts := &keyword.SearchOptions{
		TestType:     q.Get("type"),
		FuzzyEnabled: q.Get("fuzzy") == "true",
	}
	docs, err := s.engine.Lookup(r.Context(), q.Get("q"), limit, opts)
	if err != nil {
		s.respondEngineError(w, "assessment lookup failed", err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"assessments": docs,
		"count":       len(docs),
	})
}

func (s *Server) handleGetAssessment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	doc, err := s.engine.Get(id)
	if err != nil {
		s.respondEngineError(w, "get assessment failed", err)
		return
	}
	s.respondJSON(w, http.StatusOK, doc)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	defaultTopK, maxTopK := s.engine.Limits()
	resp := map[string]interface{}{"ready": false}

	if snap := s.engine.Snapshot(); snap != nil {
		rc := snap.Model.Config()
		resp["ready"] = true
		resp["version"] = snap.Version
		resp["loaded_at"] = snap.LoadedAt
		resp["stats"] = snap.Model.Stats()
		resp["ranking"] = map[string]interface{}{
			"overlap_threshold": rc.OverlapThreshold,
			"boost_amount":      rc.BoostAmount,
			"max_boost":         rc.MaxBoost,
			"category_cap":      rc.CategoryCap,
			"category_priority": rc.CategoryPriority,
		}
	}

	st := s.config.Storage
	resp["config"] = map[string]interface{}{
		"source":        st.Source,
		"catalog_path":  st.CatalogPath,
		"training_path": st.TrainingPath,
		"database_path": st.DatabasePath,
		"default_top_k": defaultTopK,
		"max_top_k":     maxTopK,
		"watch_enabled": s.config.Watch.Enabled,
	}

	if s.storage != nil {
		assessments, err := s.storage.CountAssessments(ctx)
		if err != nil {
			s.logger.Error("status: count assessments failed", zap.Error(err))
			s.respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		training, err := s.storage.CountTraining(ctx)
		if err != nil {
			s.logger.Error("status: count training failed", zap.Error(err))
			s.respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		resp["stored_assessments"] = assessments
		resp["stored_training_rows"] = training
	}

	paths := append(storage.SQLiteFiles(st.DatabasePath), st.CatalogPath, st.TrainingPath)
	if diskBytes, err := storage.DiskUsageBytes(paths...); err == nil {
		resp["disk_usage_bytes"] = diskBytes
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleReindex(w http.ResponseWriter, r *http.Request) {
	s.logger.Info("reindex requested")
	if err := s.engine.Reload(r.Context()); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, recommend.ErrEmptyCorpus) {
			status = http.StatusUnprocessableEntity
		}
		s.respondError(w, status, err.Error())
		return
	}
	snap := s.engine.Snapshot()
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "reindexed",
		"version":   snap.Version,
		"documents": snap.Model.Size(),
	})
}

// statusFor maps engine errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, search.ErrInvalidRequest),
		errors.Is(err, recommend.ErrEmptyQuery),
		errors.Is(err, recommend.ErrInvalidTopK):
		return http.StatusBadRequest
	case errors.Is(err, search.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, recommend.ErrNotFitted):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) respondEngineError(w http.ResponseWriter, msg string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error(msg, zap.Error(err))
	} else {
		s.logger.Debug(msg, zap.Int("status", status), zap.Error(err))
	}
	s.respondError(w, status, err.Error())
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
