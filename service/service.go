package service

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/ethereum-optimism/infra/op-runrun/metrics"
	"github.com/ethereum-optimism/infra/op-runrun/types"
)

// ResultSource provides the most recent completed run, or nil before the first one
type ResultSource interface {
	LastResult() *types.TestRunResult
}

// Service exposes health, metrics and the last run result over HTTP
type Service struct {
	log     log.Logger
	addr    string
	results ResultSource

	server   *http.Server
	listener net.Listener
}

func New(logger log.Logger, addr string, results ResultSource) *Service {
	return &Service{
		log:     logger,
		addr:    addr,
		results: results,
	}
}

// Handler returns the routed, CORS-wrapped handler
func (s *Service) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.handleHealthz).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/results", s.handleResults).Methods(http.MethodGet)
	r.HandleFunc("/results/failed", s.handleFailed).Methods(http.MethodGet)
	r.HandleFunc("/results/tests/{id}", s.handleTest).Methods(http.MethodGet)

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
	})
	return c.Handler(r)
}

// Start binds the listener and serves in the background. Bind errors are returned.
func (s *Service) Start(ctx context.Context) error {
	lis, err := net.Listen("tcp", s.addr)
	if err != nil {
		metrics.RecordErrorDetails("service_listen", err)
		return err
	}
	s.listener = lis
	s.server = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	s.log.Info("starting service", "addr", lis.Addr().String())
	go func() {
		if err := s.server.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("error serving", "err", err)
			metrics.RecordErrorDetails("service_serve", err)
		}
	}()
	return nil
}

// Addr returns the bound address, useful when listening on port 0
func (s *Service) Addr() string {
	if s.listener == nil {
		return s.addr
	}
	return s.listener.Addr().String()
}

func (s *Service) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	s.log.Info("service shutting down")
	return s.server.Shutdown(ctx)
}

func (s *Service) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("OK")) //nolint:errcheck
}

func (s *Service) handleResults(w http.ResponseWriter, r *http.Request) {
	res := s.results.LastResult()
	if res == nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "no completed run yet"})
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Service) handleFailed(w http.ResponseWriter, r *http.Request) {
	res := s.results.LastResult()
	if res == nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "no completed run yet"})
		return
	}
	failed := res.FailedTests()
	if failed == nil {
		failed = []*types.TestResult{}
	}
	writeJSON(w, http.StatusOK, failed)
}

func (s *Service) handleTest(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	res := s.results.LastResult()
	if res == nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "no completed run yet"})
		return
	}
	for _, t := range res.AllTests() {
		if t.ID == id {
			writeJSON(w, http.StatusOK, t)
			return
		}
	}
	writeJSON(w, http.StatusNotFound, errorResponse{Error: "unknown test " + id})
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Error("failed to marshal response", "err", err)
		metrics.RecordErrorDetails("service_marshal", err)
		status = http.StatusInternalServerError
		data = []byte(`{"error":"internal server error"}`)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		log.Error("failed to write response", "err", err)
	}
}
