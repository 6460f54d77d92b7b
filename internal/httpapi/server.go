package httpapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/roach88/chordkit/internal/diagram"
	"github.com/roach88/chordkit/internal/store"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithServerLogger sets the request logger.
func WithServerLogger(l *slog.Logger) ServerOption {
	return func(s *Server) { s.logger = l }
}

// Server exposes a store over HTTP.
type Server struct {
	store  *store.Store
	logger *slog.Logger
}

// NewServer returns a Server backed by st.
func NewServer(st *store.Store, opts ...ServerOption) *Server {
	s := &Server{store: st, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/items/{itemID}/chord-charts", s.handleList)
	mux.HandleFunc("POST /api/items/{itemID}/chord-charts", s.handleCreate)
	mux.HandleFunc("PUT /api/items/{itemID}/chord-charts/order", s.handleReorder)
	mux.HandleFunc("PUT /api/chord-charts/{id}", s.handleUpdate)
	mux.HandleFunc("DELETE /api/chord-charts/{id}", s.handleDelete)
	mux.HandleFunc("GET /api/chord-charts/common/search", s.handleSearchCommon)
	mux.HandleFunc("POST /api/chord-charts/copy", s.handleCopy)
	mux.HandleFunc("POST /api/chord-charts/batch", s.handleBatch)
	mux.HandleFunc("POST /api/chord-charts/batch-delete", s.handleBatchDelete)
	return s.withRequestLog(mux)
}

// Serve listens on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.logger.Info("serving chord charts", "addr", addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	recs, err := s.store.ListForItem(r.Context(), r.PathValue("itemID"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeRecords(w, r, http.StatusOK, recs)
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	d, ok := s.readDiagram(w, r)
	if !ok {
		return
	}
	rec, err := s.store.Create(r.Context(), r.PathValue("itemID"), d)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeRecord(w, r, http.StatusCreated, rec)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	d, ok := s.readDiagram(w, r)
	if !ok {
		return
	}
	rec, err := s.store.Update(r.Context(), id, d)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeRecord(w, r, http.StatusOK, rec)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	if err := s.store.Delete(r.Context(), id); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleReorder(w http.ResponseWriter, r *http.Request) {
	var ids []int64
	if !s.readJSON(w, r, &ids) {
		return
	}
	if err := s.store.Reorder(r.Context(), r.PathValue("itemID"), ids); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSearchCommon(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if name == "" {
		s.writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	recs, err := s.store.SearchCommon(r.Context(), name)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeRecords(w, r, http.StatusOK, recs)
}

type copyRequest struct {
	SourceItemID  string   `json:"source_item_id"`
	TargetItemIDs []string `json:"target_item_ids"`
}

type copyResponse struct {
	Success bool             `json:"success"`
	Message string           `json:"message"`
	Result  store.CopyResult `json:"result"`
}

func (s *Server) handleCopy(w http.ResponseWriter, r *http.Request) {
	var req copyRequest
	if !s.readJSON(w, r, &req) {
		return
	}
	if req.SourceItemID == "" || len(req.TargetItemIDs) == 0 {
		s.writeError(w, http.StatusBadRequest, "source_item_id and target_item_ids are required")
		return
	}
	res, err := s.store.CopyToItems(r.Context(), req.SourceItemID, req.TargetItemIDs)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, copyResponse{
		Success: true,
		Message: fmt.Sprintf("copied %d charts to %d items", res.ChartsFound, len(res.TargetItems)),
		Result:  res,
	})
}

type batchRequest struct {
	ItemIDs []string `json:"item_ids"`
}

func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if !s.readJSON(w, r, &req) {
		return
	}
	byItem, err := s.store.ListForItems(r.Context(), req.ItemIDs)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	out := make(map[string][]map[string]any, len(byItem))
	for item, recs := range byItem {
		enc, err := encodeRecords(recs, s.logger)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		out[item] = enc
	}
	s.writeJSON(w, http.StatusOK, out)
}

type batchDeleteRequest struct {
	ChordIDs []int64 `json:"chord_ids"`
}

type batchDeleteResponse struct {
	Success bool `json:"success"`
	store.DeleteResult
}

func (s *Server) handleBatchDelete(w http.ResponseWriter, r *http.Request) {
	var req batchDeleteRequest
	if !s.readJSON(w, r, &req) {
		return
	}
	if len(req.ChordIDs) == 0 {
		s.writeError(w, http.StatusBadRequest, "chord_ids are required")
		return
	}
	res, err := s.store.DeleteMany(r.Context(), req.ChordIDs)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.logger.Info("batch deleted chord charts", "deleted", len(res.Deleted), "not_found", len(res.NotFound))
	s.writeJSON(w, http.StatusOK, batchDeleteResponse{Success: true, DeleteResult: res})
}

func (s *Server) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid chart id")
		return 0, false
	}
	return id, true
}

func (s *Server) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		s.writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		return nil, false
	}
	return body, true
}

func (s *Server) readJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	body, ok := s.readBody(w, r)
	if !ok {
		return false
	}
	if err := json.Unmarshal(body, v); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func (s *Server) readDiagram(w http.ResponseWriter, r *http.Request) (diagram.Diagram, bool) {
	body, ok := s.readBody(w, r)
	if !ok {
		return diagram.Diagram{}, false
	}
	d, dropped, err := diagram.Decode(body)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return diagram.Diagram{}, false
	}
	for _, de := range dropped {
		s.logger.Warn("dropped finger from request", "path", r.URL.Path, "error", de)
	}
	return d, true
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	if store.IsNotFound(err) {
		s.writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if store.IsInvalidOrder(err) {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	s.writeError(w, http.StatusInternalServerError, "internal error")
}

func (s *Server) writeRecord(w http.ResponseWriter, r *http.Request, status int, rec store.Record) {
	out, err := encodeRecord(rec, s.logger)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeJSON(w, status, out)
}

func (s *Server) writeRecords(w http.ResponseWriter, r *http.Request, status int, recs []store.Record) {
	out, err := encodeRecords(recs, s.logger)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeJSON(w, status, out)
}

type errorBody struct {
	Error string `json:"error"`
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, errorBody{Error: msg})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		s.logger.Error("encode response", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

func (s *Server) withRequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		w.Header().Set("X-Content-Type-Options", "nosniff")
		next.ServeHTTP(rec, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}
