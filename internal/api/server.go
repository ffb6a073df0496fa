// Package api is the maprix backend: the REST surface the operator client
// and the map page talk to.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/maprix/maprix/internal/serverdb"
	"github.com/maprix/maprix/internal/webhook"
)

// Server is the HTTP API server for maprix.
type Server struct {
	config      Config
	http        *http.Server
	store       *serverdb.ServerDB
	photos      *PhotoStore
	metrics     *Metrics
	rateLimiter *RateLimiter
	hooks       *webhook.Notifier
	now         func() time.Time
	cancel      context.CancelFunc
}

// NewServer creates a new Server with the given config and store.
func NewServer(cfg Config, store *serverdb.ServerDB) (*Server, error) {
	photos, err := NewPhotoStore(cfg.PhotoDir)
	if err != nil {
		return nil, err
	}
	s := &Server{
		config:      cfg,
		store:       store,
		photos:      photos,
		metrics:     NewMetrics(),
		rateLimiter: NewRateLimiter(),
		hooks:       webhook.New(cfg.WebhookURL, cfg.WebhookSecret),
		now:         time.Now,
	}

	s.http = &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      s.routes(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return s, nil
}

// Start begins listening for HTTP requests (non-blocking).
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.config.ListenAddr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	go func() {
		if err := s.http.Serve(ln); err != nil && err != http.ErrServerClosed {
			slog.Error("http server", "err", err)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	go s.housekeeping(ctx, 5*time.Minute)
	s.hooks.Start(ctx)

	return nil
}

// housekeeping forgets idle rate limiter keys and prunes old rate limit events.
func (s *Server) housekeeping(ctx context.Context, every time.Duration) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("housekeeping panic", "panic", r)
		}
	}()
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.rateLimiter.Cleanup(2 * time.Minute)
			n, err := s.store.CleanupRateLimitEvents(s.config.RateLimitEventRetention)
			if err != nil {
				slog.Error("cleanup rate limit events", "err", err)
			} else if n > 0 {
				slog.Info("cleaned up rate limit events", "count", n)
			}
		}
	}
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.http.Shutdown(ctx)
	if s.cancel != nil {
		s.cancel()
	}
	s.hooks.Wait()
	return err
}

// routes builds the HTTP handler with all routes and middleware.
func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	// Health & metrics
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /metricz", s.handleMetrics)

	// Assets and types
	mux.HandleFunc("GET /api/ativos", s.handleListAssets)
	mux.HandleFunc("POST /api/ativos", s.handleCreateAsset)
	mux.HandleFunc("DELETE /api/ativos/{id}", s.handleDeleteAsset)
	mux.HandleFunc("GET /api/tipos", s.handleListTypes)
	mux.HandleFunc("POST /api/tipos", s.handleCreateType)
	mux.HandleFunc("POST /api/operador/bateria", s.handleBattery)

	// Checklists
	mux.HandleFunc("GET /api/checklist/config/{tipoId}", s.handleListQuestions)
	mux.HandleFunc("POST /api/checklist/config/{tipoId}", s.handleAddQuestion)
	mux.HandleFunc("DELETE /api/checklist/pergunta/{id}", s.handleDeleteQuestion)
	mux.HandleFunc("POST /api/checklist/submit", s.handleSubmitChecklist)
	mux.HandleFunc("GET /api/checklist/respostas", s.handleListSubmissions)
	mux.HandleFunc("GET /api/fotos/{nome}", s.handlePhoto)

	// Positions
	mux.HandleFunc("POST /api/registrar", s.handleRegister)
	mux.HandleFunc("GET /api/locais", s.handleListRecords)
	mux.HandleFunc("PUT /api/registro/{id}", s.handleUpdateRecord)
	mux.HandleFunc("DELETE /api/registro/{id}", s.handleDeleteRecord)

	// Areas
	mux.HandleFunc("POST /api/salvar_area", s.handleSaveArea)
	mux.HandleFunc("GET /api/areas", s.handleListAreas)
	mux.HandleFunc("DELETE /api/area/{id}", s.handleDeleteArea)

	// Export / import
	mux.HandleFunc("GET /api/exportar", s.handleExport)
	mux.HandleFunc("POST /api/importar", s.handleImport)

	return chain(mux,
		requestContextMiddleware,
		accessLogMiddleware(s.metrics),
		recoveryMiddleware,
		s.CORSMiddleware,
		maxBytesMiddleware(s.config.MaxBodyBytes),
		s.rateLimitMiddleware,
	)
}

// handleHealth returns a health check response, pinging the server DB.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{Status: "erro", Error: "banco indisponivel"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleMetrics returns a snapshot of server metrics.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.metrics.Snapshot())
}
