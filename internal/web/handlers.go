package web

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/sortinghat/internal/core"
	"github.com/JonMunkholm/sortinghat/internal/logging"
	"github.com/JonMunkholm/sortinghat/internal/output"
)

const (
	// DefaultRunsLimit is the page size of GET /api/runs.
	DefaultRunsLimit = 50
	// MaxRunsLimit caps the limit query parameter.
	MaxRunsLimit = 500

	// multipartOverhead is allowed on top of the file size for form framing.
	multipartOverhead = 1 << 20
	// multipartMemory is kept in memory before form files spill to disk.
	multipartMemory = 32 << 20
)

// handleHealth reports liveness and inference slot usage.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"inferences": s.service.LimiterStatus(),
	})
}

// handleInfer types the columns of an uploaded CSV.
//
// The CSV is either the raw request body or the multipart field "file".
// Query parameters: classifier, max_rows, format (json|yaml), name.
func (s *Server) handleInfer(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	maxRows, err := s.maxRows(q.Get("max_rows"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	format := output.FormatJSON
	if f := strings.ToLower(q.Get("format")); f != "" {
		if f != string(output.FormatJSON) && f != string(output.FormatYAML) {
			s.respondError(w, r, fmt.Errorf("%w: format must be json or yaml", errBadRequest))
			return
		}
		format = output.Format(f)
	}

	body, source, err := s.csvBody(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	defer body.Close()
	if name := q.Get("name"); name != "" {
		source = name
	}

	ds, err := core.ReadCSV(body, core.CSVOptions{
		MaxBytes: s.cfg.Inference.MaxFileSize,
		MaxRows:  maxRows,
	})
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			err = fmt.Errorf("%w: limit is %d bytes", core.ErrFileTooLarge, s.cfg.Inference.MaxFileSize)
		}
		s.respondError(w, r, err)
		return
	}

	logger := logging.WithFields(r.Context(), "source", source, "columns", ds.NumColumns(), "rows", ds.NumRows())
	logger.Info("inference requested", "classifier", q.Get("classifier"))

	run, err := s.service.Infer(r.Context(), core.InferRequest{
		Dataset:    ds,
		Source:     source,
		Classifier: q.Get("classifier"),
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	w.Header().Set("Location", "/api/runs/"+run.ID.String())
	if format == output.FormatYAML {
		w.Header().Set("Content-Type", "application/yaml")
		w.WriteHeader(http.StatusCreated)
		if err := output.NewFormatter(output.FormatYAML).Format(w, run); err != nil {
			logger.Error("yaml encode error", "error", err)
		}
		return
	}
	writeJSON(w, http.StatusCreated, run)
}

// csvBody returns the uploaded CSV and a source name for it.
func (s *Server) csvBody(w http.ResponseWriter, r *http.Request) (io.ReadCloser, string, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		if r.Body == nil || r.Body == http.NoBody {
			return nil, "", errNoFile
		}
		r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Inference.MaxFileSize+1)
		return r.Body, "request", nil
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Inference.MaxFileSize+multipartOverhead)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, "", fmt.Errorf("%w: limit is %d bytes", core.ErrFileTooLarge, s.cfg.Inference.MaxFileSize)
		}
		return nil, "", fmt.Errorf("%w: invalid multipart form: %v", errBadRequest, err)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, "", errNoFile
	}
	return file, header.Filename, nil
}

// maxRows resolves the max_rows parameter against the configured cap.
func (s *Server) maxRows(raw string) (int, error) {
	limit := s.cfg.Inference.MaxRows
	if raw == "" {
		return limit, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%w: max_rows must be a positive integer", errBadRequest)
	}
	if limit > 0 && n > limit {
		return limit, nil
	}
	return n, nil
}

// handleListRuns returns recent runs, newest first.
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := parseIntParam(r, "limit", DefaultRunsLimit)
	if limit > MaxRunsLimit {
		limit = MaxRunsLimit
	}

	runs, err := s.service.ListRuns(r.Context(), limit)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

// handleGetRun returns one run with its codes and metadata.
func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.service.GetRun(r.Context(), chi.URLParam(r, "runID"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

// handleListClassifiers lists the registered classifier backends.
func (s *Server) handleListClassifiers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"default":     s.cfg.Inference.Classifier,
		"classifiers": s.service.Classifiers(),
	})
}

// handleRunReport renders a run as an HTML page.
func (s *Server) handleRunReport(w http.ResponseWriter, r *http.Request) {
	run, err := s.service.GetRun(r.Context(), chi.URLParam(r, "runID"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := RunReport(run).Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render run report", "error", err)
	}
}

// parseIntParam parses a positive integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 1 {
		return defaultVal
	}
	return i
}
