package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hyperjump/knn/internal/config"
	"github.com/hyperjump/knn/internal/index"
	"github.com/hyperjump/knn/internal/models"
	"github.com/hyperjump/knn/internal/service"
	"github.com/hyperjump/knn/internal/storage"
)

func (s *Server) handleAddVector(w http.ResponseWriter, r *http.Request) {
	var input models.ItemInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.logger.Debug("add vector request", zap.String("id", input.ID), zap.Int("dimension", len(input.Vector)))
	item, err := s.engine.Add(r.Context(), &input)
	if err != nil {
		s.respondEngineError(w, "add vector failed", err)
		return
	}
	s.respondJSON(w, http.StatusCreated, map[string]interface{}{"id": item.ID, "ordinal": item.Ordinal})
}

func (s *Server) handleGetVector(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	item, err := s.engine.GetItem(r.Context(), id)
	if err != nil {
		s.respondEngineError(w, "get vector failed", err)
		return
	}
	s.respondJSON(w, http.StatusOK, item)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var query models.SearchQuery
	if err := json.NewDecoder(r.Body).Decode(&query); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.logger.Debug("search request", zap.Int("limit", query.Limit), zap.Int("search_size", query.SearchSize))
	response, err := s.engine.Search(r.Context(), &query)
	if err != nil {
		s.respondEngineError(w, "search failed", err)
		return
	}
	s.respondJSON(w, http.StatusOK, response)
}

type searchSizeRequest struct {
	SearchSize *int `json:"search_size"`
}

func (s *Server) handleSetSearchSize(w http.ResponseWriter, r *http.Request) {
	var req searchSizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.SearchSize == nil {
		s.respondError(w, http.StatusBadRequest, "search_size is required")
		return
	}
	if err := s.engine.SetSearchSize(*req.SearchSize); err != nil {
		s.respondEngineError(w, "set search size failed", err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]int{"search_size": *req.SearchSize})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	stats, err := s.engine.Stats(r.Context())
	if err != nil {
		s.logger.Error("status: stats failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp := map[string]interface{}{
		"index": stats,
	}
	if s.config != nil {
		resp["config"] = map[string]interface{}{
			"storage":       s.config.Storage.Backend,
			"distance":      s.config.Index.Distance,
			"projections":   s.config.Index.Projections,
			"database_path": s.config.Storage.DatabasePath,
		}
		if diskBytes, err := storage.DiskUsageBytes(s.config.Storage.DatabasePath); err == nil {
			resp["disk_usage_bytes"] = diskBytes
		}
	}
	if s.ingest != nil {
		resp["ingest_directories"] = s.ingest.Directories()
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleIngestDirectoriesList(w http.ResponseWriter, r *http.Request) {
	if s.ingest == nil {
		s.respondError(w, http.StatusNotImplemented, "ingest not enabled")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"directories": s.ingest.Directories()})
}

type ingestAddRequest struct {
	Path string `json:"path"`
	Sync *bool  `json:"sync,omitempty"`
}

func (s *Server) handleIngestDirectoriesAdd(w http.ResponseWriter, r *http.Request) {
	if s.ingest == nil {
		s.respondError(w, http.StatusNotImplemented, "ingest not enabled")
		return
	}
	var req ingestAddRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Path == "" {
		s.respondError(w, http.StatusBadRequest, "path is required")
		return
	}
	abs, err := filepath.Abs(req.Path)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid path")
		return
	}
	info, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			s.respondError(w, http.StatusNotFound, "directory not found")
			return
		}
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !info.IsDir() {
		s.respondError(w, http.StatusBadRequest, "path is not a directory")
		return
	}
	syncExisting := true
	if req.Sync != nil {
		syncExisting = *req.Sync
	}
	s.logger.Debug("ingest add directory request", zap.String("path", abs), zap.Bool("sync_existing", syncExisting))
	if err := s.ingest.AddDirectory(abs, syncExisting); err != nil {
		s.logger.Error("ingest add directory failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.persistIngestDirectories()
	s.respondJSON(w, http.StatusCreated, map[string]string{"path": abs, "status": "added"})
}

func (s *Server) handleIngestDirectoriesRemove(w http.ResponseWriter, r *http.Request) {
	if s.ingest == nil {
		s.respondError(w, http.StatusNotImplemented, "ingest not enabled")
		return
	}
	path := r.URL.Query().Get("path")
	if path == "" {
		s.respondError(w, http.StatusBadRequest, "path query parameter is required")
		return
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid path")
		return
	}
	s.logger.Debug("ingest remove directory request", zap.String("path", abs))
	if err := s.ingest.RemoveDirectory(abs); err != nil {
		s.logger.Error("ingest remove directory failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.persistIngestDirectories()
	s.respondJSON(w, http.StatusOK, map[string]string{"path": abs, "status": "removed"})
}

func (s *Server) persistIngestDirectories() {
	if s.configPath == "" || s.config == nil {
		return
	}
	s.configMu.Lock()
	defer s.configMu.Unlock()
	s.config.Ingest.Directories = s.ingest.Directories()
	if err := config.Save(s.configPath, s.config); err != nil {
		s.logger.Warn("failed to persist ingest config", zap.Error(err))
	}
}

// respondEngineError maps engine errors to HTTP status codes.
func (s *Server) respondEngineError(w http.ResponseWriter, msg string, err error) {
	switch {
	case errors.Is(err, index.ErrDimensionMismatch), errors.Is(err, index.ErrInvalidArgument):
		s.respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, storage.ErrNotFound):
		s.respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrDuplicateID):
		s.respondError(w, http.StatusConflict, err.Error())
	default:
		s.logger.Error(msg, zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(data); err != nil {
		s.logger.Error("failed to encode response", zap.Error(err))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"failed to encode response"}` + "\n"))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
