package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/hyperjump/resumatch/internal/config"
	"github.com/hyperjump/resumatch/internal/extract"
	"github.com/hyperjump/resumatch/internal/indexer"
	"github.com/hyperjump/resumatch/internal/llm"
	"github.com/hyperjump/resumatch/internal/models"
	"github.com/hyperjump/resumatch/internal/parser"
	"github.com/hyperjump/resumatch/internal/search"
	"github.com/hyperjump/resumatch/internal/storage"
	"go.uber.org/zap"
)

const rawTextFilename = "raw_text_input"

// statusForError maps the error taxonomy to HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, search.ErrEmptyQuery),
		errors.Is(err, extract.ErrUnsupportedFormat),
		errors.Is(err, extract.ErrEmptyContent),
		errors.Is(err, parser.ErrEmptyInput):
		return http.StatusBadRequest
	case errors.Is(err, search.ErrInference), errors.Is(err, llm.ErrInference):
		return http.StatusBadGateway
	case errors.Is(err, parser.ErrParseFailure),
		errors.Is(err, indexer.ErrNoFilesProcessed),
		errors.Is(err, extract.ErrNoText):
		return http.StatusUnprocessableEntity
	case errors.Is(err, search.ErrServiceUnavailable), errors.Is(err, storage.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) respondErr(w http.ResponseWriter, err error) {
	status := statusForError(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", zap.Int("status", status), zap.Error(err))
	} else {
		s.logger.Debug("request rejected", zap.Int("status", status), zap.Error(err))
	}
	s.respondError(w, status, err.Error())
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes())
	if err := r.ParseMultipartForm(s.maxUploadBytes()); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid multipart form: "+err.Error())
		return
	}
	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		s.respondError(w, http.StatusBadRequest, "no files uploaded")
		return
	}

	uploads := make([]indexer.Upload, 0, len(headers))
	acceptable := 0
	for _, fh := range headers {
		data, err := readPart(fh)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, fmt.Sprintf("read %s: %v", fh.Filename, err))
			return
		}
		if extract.Supported(filepath.Ext(fh.Filename)) && len(data) > 0 {
			acceptable++
		}
		uploads = append(uploads, indexer.Upload{
			Filename:    filepath.Base(fh.Filename),
			ContentType: fh.Header.Get("Content-Type"),
			Data:        data,
		})
	}
	if acceptable == 0 {
		s.respondError(w, http.StatusBadRequest,
			"no supported files: accepted types are "+strings.Join(extract.SupportedExtensions, ", "))
		return
	}

	result, err := s.deps.Ingester.IngestBatch(r.Context(), uploads)
	if err != nil {
		var be *indexer.BatchError
		if errors.As(err, &be) {
			s.respondJSON(w, http.StatusUnprocessableEntity, map[string]any{
				"error":    err.Error(),
				"failures": be.Failures,
			})
			return
		}
		s.respondErr(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, result)
}

func readPart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var query models.SearchQuery
	if err := json.NewDecoder(r.Body).Decode(&query); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.logger.Debug("search request", zap.String("query", query.Query))
	answer, err := s.deps.Searcher.Answer(r.Context(), query.Query)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, answer)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	st, err := s.deps.Store.Status(r.Context())
	if err != nil {
		s.respondErr(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, st)
}

func (s *Server) handleResumes(w http.ResponseWriter, r *http.Request) {
	links, err := storage.ListResumes(r.Context(), s.deps.URLs)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"resumes": links})
}

// jobInput is a job description read from a request, with where it came from.
type jobInput struct {
	text     string
	filename string
	fileType string
}

// readJobInput takes the multipart "file" part if present, otherwise the "raw_text" field.
func (s *Server) readJobInput(w http.ResponseWriter, r *http.Request) (*jobInput, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes())
	if err := r.ParseMultipartForm(s.maxUploadBytes()); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return nil, fmt.Errorf("%w: invalid form: %v", parser.ErrEmptyInput, err)
	}

	file, fh, err := r.FormFile("file")
	if err == nil {
		defer file.Close()
		data, err := io.ReadAll(file)
		if err != nil {
			return nil, fmt.Errorf("read upload: %w", err)
		}
		ext := strings.ToLower(filepath.Ext(fh.Filename))
		if !extract.Supported(ext) {
			ext = extract.ExtFromContentType(fh.Header.Get("Content-Type"))
		}
		if ext == "" {
			return nil, fmt.Errorf("%w: %s", extract.ErrUnsupportedFormat, fh.Filename)
		}
		text, err := s.deps.Extractor.ExtractBytes(data, ext)
		if err != nil {
			return nil, err
		}
		return &jobInput{text: text, filename: fh.Filename, fileType: extract.ContentTypeFor(ext)}, nil
	}

	raw := strings.TrimSpace(r.FormValue("raw_text"))
	if raw == "" {
		return nil, fmt.Errorf("%w: either a file or raw_text must be provided", parser.ErrEmptyInput)
	}
	return &jobInput{text: raw, filename: rawTextFilename, fileType: "text/plain"}, nil
}

func (s *Server) handleUploadJD(w http.ResponseWriter, r *http.Request) {
	in, err := s.readJobInput(w, r)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	jd, err := s.deps.JobParser.ParseJobDescription(r.Context(), in.text)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	match, err := s.deps.Searcher.MatchJob(r.Context(), jd)
	if err != nil {
		if errors.Is(err, search.ErrEmptyQuery) {
			s.respondError(w, http.StatusUnprocessableEntity, "failed to create search query from job description")
			return
		}
		s.respondErr(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{
		"success":                true,
		"message":                "Job description processed successfully",
		"parsed_jd":              match.JobDescription,
		"search_query_generated": match.SearchQuery,
		"matching_results":       match.Results,
		"metadata": map[string]string{
			"filename":         in.filename,
			"file_type":        in.fileType,
			"processing_agent": match.Results.AgentUsed,
		},
	})
}

func (s *Server) handleAnalyzeJD(w http.ResponseWriter, r *http.Request) {
	in, err := s.readJobInput(w, r)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	jd, err := s.deps.JobParser.ParseJobDescription(r.Context(), in.text)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{
		"success":                true,
		"message":                "Job description analyzed successfully",
		"parsed_jd":              jd,
		"suggested_search_query": indexer.JobSearchQuery(jd),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleWatchDirectoriesList(w http.ResponseWriter, r *http.Request) {
	if s.watch == nil {
		s.respondError(w, http.StatusNotImplemented, "watch not enabled")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"directories": s.watch.Directories()})
}

type watchAddRequest struct {
	Path string `json:"path"`
	Sync *bool  `json:"sync,omitempty"`
}

func (s *Server) handleWatchDirectoriesAdd(w http.ResponseWriter, r *http.Request) {
	if s.watch == nil {
		s.respondError(w, http.StatusNotImplemented, "watch not enabled")
		return
	}
	var req watchAddRequest
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
	switch {
	case os.IsNotExist(err):
		s.respondError(w, http.StatusNotFound, "directory not found")
		return
	case err != nil:
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	case !info.IsDir():
		s.respondError(w, http.StatusBadRequest, "path is not a directory")
		return
	}
	syncExisting := true
	if req.Sync != nil {
		syncExisting = *req.Sync
	}
	if err := s.watch.AddDirectory(abs, syncExisting); err != nil {
		s.logger.Error("watch add directory failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.persistWatchDirectories()
	s.respondJSON(w, http.StatusCreated, map[string]string{"path": abs, "status": "added"})
}

func (s *Server) handleWatchDirectoriesRemove(w http.ResponseWriter, r *http.Request) {
	if s.watch == nil {
		s.respondError(w, http.StatusNotImplemented, "watch not enabled")
		return
	}
	path := r.URL.Query().Get("path")
	if path == "" {
		s.respondError(w, http.StatusBadRequest, "path is required")
		return
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid path")
		return
	}
	if err := s.watch.RemoveDirectory(abs); err != nil {
		s.logger.Error("watch remove directory failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.persistWatchDirectories()
	s.respondJSON(w, http.StatusOK, map[string]string{"path": abs, "status": "removed"})
}

// persistWatchDirectories saves the watched directories to the config file. Failures are
// logged; the running watcher keeps the change either way.
func (s *Server) persistWatchDirectories() {
	if s.configPath == "" || s.watchConfig == nil {
		return
	}
	s.watchConfigMu.Lock()
	defer s.watchConfigMu.Unlock()
	s.watchConfig.Watch.Directories = s.watch.Directories()
	if err := config.Save(s.configPath, s.watchConfig); err != nil {
		s.logger.Warn("failed to persist watch config", zap.Error(err))
	}
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
