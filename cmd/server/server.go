package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Simplici0/quotecalc/internal/configio"
	"github.com/Simplici0/quotecalc/internal/history"
	"github.com/Simplici0/quotecalc/internal/logger"
	"github.com/Simplici0/quotecalc/internal/mirror"
	"github.com/Simplici0/quotecalc/internal/model"
	"github.com/Simplici0/quotecalc/internal/repository"
)

const maxBodyBytes = 10 << 20

type server struct {
	repo     *repository.Repository
	history  *history.Manager
	config   *configio.Service
	mirror   *mirror.Manager
	log      *logger.Logger
	currency string
	now      func() time.Time

	// mu keeps the store single-writer: every API call runs alone.
	mu sync.Mutex
}

func (s *server) serialize(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps domain errors to status codes. Anything unrecognised is a
// 500 and gets logged.
func (s *server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *model.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid record", Fields: verr.Violations})
	case errors.Is(err, errBadRequest), errors.Is(err, configio.ErrInvalidImport):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, repository.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, repository.ErrLastView), errors.Is(err, mirror.ErrDisabled):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.Is(err, mirror.ErrCancelled):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, mirror.ErrPermissionDenied):
		writeJSON(w, http.StatusForbidden, errorResponse{Error: err.Error()})
	default:
		s.log.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

var errBadRequest = errors.New("bad request")

func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errBadRequest, fmt.Sprintf(format, args...))
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return badRequest("empty body")
		}
		return badRequest("invalid json: %v", err)
	}
	return nil
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil, badRequest("read body: %v", err)
	}
	return data, nil
}

func indexParam(r *http.Request, name string) (int, error) {
	i, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil || i < 0 {
		return 0, badRequest("%s must be a non-negative integer", name)
	}
	return i, nil
}

// capture records an undo point before a quote mutation.
func (s *server) capture(r *http.Request, activeQuoteID string) error {
	return s.history.Capture(r.Context(), activeQuoteID)
}

// rejected drops the undo point taken by this request's capture, since the
// mutation did not happen, and writes the error. Only call it after capture.
func (s *server) rejected(w http.ResponseWriter, r *http.Request, err error) {
	s.history.Discard()
	s.writeError(w, r, err)
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
