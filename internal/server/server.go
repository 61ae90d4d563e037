// Package server exposes an account backend over HTTP. It is the host
// surface that the remote backend talks to.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/accountdesk/pkg/types"
)

// Records is the capability pair the server publishes.
type Records interface {
	types.AccountSource
	types.RecordUpdater
}

// accountGetter is implemented by backends that can fetch a single record
// without listing.
type accountGetter interface {
	GetAccount(ctx context.Context, id string) (types.Account, error)
}

// maxBodyBytes caps PATCH payloads.
const maxBodyBytes = 1 << 20

const shutdownTimeout = 10 * time.Second

// Server routes account requests to a backend.
type Server struct {
	records Records
	logger  *zap.Logger
	metrics *Metrics
}

// New creates a server over records. A nil logger disables logging.
func New(records Records, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{records: records, logger: logger, metrics: NewMetrics()}
}

// Handler returns the chi router with middleware and routes installed.
func (s *Server) Handler() http.Handler {
	router := chi.NewRouter()

	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(requestLogger(s.logger))
	router.Use(s.metrics.instrument)

	router.Get("/health", s.health)
	router.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	router.Route("/api/accounts", func(r chi.Router) {
		r.Get("/", s.listAccounts)
		r.Get("/{accountID}", s.getAccount)
		r.Patch("/{accountID}", s.updateAccount)
	})

	return router
}

// ListenAndServe serves on addr until ctx is canceled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, listener)
}

// Serve serves on listener until ctx is canceled.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	s.logger.Info("http server listening", zap.String("address", listener.Addr().String()))

	serveDone := make(chan error, 1)
	go func() {
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveDone <- err
		}
		close(serveDone)
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("http server shutting down")
	case err := <-serveDone:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("http server shutdown error", zap.Error(err))
		return fmt.Errorf("http server shutdown: %w", err)
	}
	s.logger.Info("http server stopped")
	return nil
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) listAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := s.records.ListAccounts(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if accounts == nil {
		accounts = []types.Account{}
	}
	respondJSON(w, http.StatusOK, accounts)
}

func (s *Server) getAccount(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "accountID")

	if g, ok := s.records.(accountGetter); ok {
		account, err := g.GetAccount(r.Context(), id)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, account)
		return
	}

	accounts, err := s.records.ListAccounts(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	for _, a := range accounts {
		if a.ID == id {
			respondJSON(w, http.StatusOK, a)
			return
		}
	}
	s.fail(w, r, types.ErrNotFound)
}

// updateAccount applies a JSON object of field to value. Field names go
// through types.ParseField, so "Phone" and "phone" are equivalent. A null
// value clears the field. Numbers are decoded as json.Number so revenue
// keeps every digit.
func (s *Server) updateAccount(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "accountID")

	var body map[string]any
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.UseNumber()
	if err := dec.Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, CodeBadRequest, fmt.Sprintf("decode body: %s", err))
		return
	}

	delta := types.NewFieldDelta(id)
	for key, raw := range body {
		field, err := types.ParseField(key)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		value, err := types.NormalizeValue(field, raw)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		delta.Changes[field] = value
	}

	account, err := s.records.UpdateRecord(r.Context(), delta)
	s.metrics.recordUpdate(err)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, account)
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, code := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			zap.String("path", r.URL.Path),
			zap.String("requestID", chimiddleware.GetReqID(r.Context())),
			zap.Error(err),
		)
	}
	respondError(w, status, code, err.Error())
}
