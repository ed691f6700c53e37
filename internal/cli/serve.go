package cli

import (
	"context"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/matzehuels/digraph/pkg/config"
	"github.com/matzehuels/digraph/pkg/errors"
	"github.com/matzehuels/digraph/pkg/export"
	"github.com/matzehuels/digraph/pkg/graph"
	"github.com/matzehuels/digraph/pkg/owner"
	"github.com/matzehuels/digraph/pkg/store"
	"github.com/matzehuels/digraph/pkg/view"
)

// shutdownTimeout bounds the graceful shutdown of the HTTP server.
const shutdownTimeout = 5 * time.Second

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string
	var origins []string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve documents to browsers over WebSocket",
		Long: `Serve the documents of the configured store.

Routes:
  GET  /healthz               liveness check
  GET  /metrics               Prometheus metrics
  GET  /documents/{key}       the document as JSON
  PUT  /documents/{key}       replace the document
  GET  /documents/{key}/svg   the document as the editor draws it
  GET  /ws/{key}              interactive session

Every WebSocket session drives its own diagram view. Sessions on the same key
share one owner, so an edit in one browser is drawn in all of them.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, vc, err := c.viewConfig()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Serve.Addr = addr
			}
			s, err := c.openStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer s.Close()

			srv := newServer(cfg, vc, s, c.Logger, origins)
			srv.metrics.register()
			printInfo("Serving %s on %s", cfg.Store.URL, StyleLink.Render("http://"+cfg.Serve.Addr))
			if len(origins) == 1 && origins[0] == "*" {
				printWarning("Accepting WebSocket connections from any origin")
			}
			return srv.listen(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	cmd.Flags().StringSliceVar(&origins, "origin", nil, "allowed WebSocket origins (default: same host only)")
	return cmd
}

// =============================================================================
// Server
// =============================================================================

type server struct {
	cfg      config.Config
	vc       view.Config
	store    store.Store
	logger   *log.Logger
	registry *prometheus.Registry
	metrics  *metrics
	upgrader websocket.Upgrader

	mu     sync.Mutex
	owners map[string]*owner.Owner
}

func newServer(cfg config.Config, vc view.Config, s store.Store, logger *log.Logger, origins []string) *server {
	reg := prometheus.NewRegistry()
	srv := &server{
		cfg:      cfg,
		vc:       vc,
		store:    s,
		logger:   logger.WithPrefix("serve"),
		registry: reg,
		metrics:  newMetrics(reg),
		owners:   make(map[string]*owner.Owner),
	}
	srv.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin:     originChecker(origins),
	}
	return srv
}

// originChecker allows the listed origins, or requests without a foreign
// origin when none are listed.
func originChecker(origins []string) func(r *http.Request) bool {
	if len(origins) == 0 {
		return func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || origin == "http://"+r.Host || origin == "https://"+r.Host
		}
	}
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}
	return func(r *http.Request) bool {
		return allowed["*"] || allowed[r.Header.Get("Origin")]
	}
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	r.Route("/documents/{key}", func(r chi.Router) {
		r.Get("/", s.handleGetDocument)
		r.Put("/", s.handlePutDocument)
		r.Get("/svg", s.handleDocumentSVG)
	})
	r.Get("/ws/{key}", s.handleSession)
	return r
}

func (s *server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start).Round(time.Microsecond),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

// listen serves until ctx is cancelled, then shuts down gracefully.
func (s *server) listen(ctx context.Context) error {
	httpSrv := &http.Server{
		Addr:              s.cfg.Serve.Addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.cfg.Serve.Addr, "store", s.cfg.Store.URL)
		errc <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.logger.Info("server stopped")
	return ctx.Err()
}

// owner returns the shared owner of key, loading it on first use.
func (s *server) owner(ctx context.Context, key string) (*owner.Owner, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o, ok := s.owners[key]; ok {
		return o, nil
	}
	o, err := owner.Load(ctx, s.store, key,
		owner.WithLogger(s.logger.WithPrefix("owner")),
		owner.WithCodec(graph.NewCodec(s.vc.NodeKey)))
	if err != nil {
		return nil, err
	}
	s.owners[key] = o
	return o, nil
}

// =============================================================================
// Document Handlers
// =============================================================================

func (s *server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	o, err := s.owner(r.Context(), chi.URLParam(r, "key"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	data, err := graph.NewCodec(s.vc.NodeKey).Marshal(o.Document(), graph.FormatJSON)
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

// maxDocumentBytes bounds PUT request bodies.
const maxDocumentBytes = 8 << 20

func (s *server) handlePutDocument(w http.ResponseWriter, r *http.Request) {
	o, err := s.owner(r.Context(), chi.URLParam(r, "key"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	body := http.MaxBytesReader(w, r.Body, maxDocumentBytes)
	data, err := io.ReadAll(body)
	if err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "read body"))
		return
	}
	doc, err := graph.NewCodec(s.vc.NodeKey).Unmarshal(data, graph.FormatJSON)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := o.Replace(r.Context(), doc); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleDocumentSVG(w http.ResponseWriter, r *http.Request) {
	o, err := s.owner(r.Context(), chi.URLParam(r, "key"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	svg, err := export.SceneSVG(o.Document(), s.vc, true)
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Write(svg)
}

// writeError maps error codes to HTTP statuses.
func (s *server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch errors.GetCode(err) {
	case errors.ErrCodeInvalidKey, errors.ErrCodeInvalidInput, errors.ErrCodeInvalidGraph,
		errors.ErrCodeInvalidFormat, errors.ErrCodeNodeNotFound:
		status = http.StatusBadRequest
	case errors.ErrCodeNotFound:
		status = http.StatusNotFound
	case errors.ErrCodeRateLimited:
		status = http.StatusTooManyRequests
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
	}
	http.Error(w, errors.UserMessage(err), status)
}
