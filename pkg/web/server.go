package web

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"github.com/ritzau/block-visualizer/pkg/layout"
	"github.com/ritzau/block-visualizer/pkg/logging"
	"github.com/ritzau/block-visualizer/pkg/model"
	"github.com/ritzau/block-visualizer/pkg/pubsub"
	"github.com/ritzau/block-visualizer/pkg/render"
	"github.com/ritzau/block-visualizer/pkg/view"
)

//go:embed static/*
var staticFiles embed.FS

// ShutdownTimeout bounds graceful shutdown
const ShutdownTimeout = 5 * time.Second

// Server exposes a view shell over HTTP
type Server struct {
	router    *mux.Router
	shell     *view.Shell
	publisher pubsub.Publisher
	logger    *logging.Logger

	// background operations (reload, layout) outlive their request
	baseCtx context.Context
	wg      sync.WaitGroup
}

// NewServer creates a server for the shell. The publisher must be the one the
// shell publishes to.
func NewServer(shell *view.Shell, publisher pubsub.Publisher) *Server {
	s := &Server{
		router:    mux.NewRouter(),
		shell:     shell,
		publisher: publisher,
		logger:    logging.New("web"),
		baseCtx:   context.Background(),
	}
	s.setupRoutes()
	return s
}

// Handler returns the router wrapped in request logging
func (s *Server) Handler() http.Handler {
	return logging.RequestIDMiddleware(s.router)
}

func (s *Server) setupRoutes() {
	// SSE subscription endpoints
	s.router.HandleFunc("/api/subscribe/{topic}", s.handleSubscribe).Methods("GET")

	// API routes - more specific routes must come first
	s.router.HandleFunc("/api/view.svg", s.handleViewSVG).Methods("GET")
	s.router.HandleFunc("/api/view", s.handleView).Methods("GET")
	s.router.HandleFunc("/api/reload", s.handleReload).Methods("POST")
	s.router.HandleFunc("/api/layout/{direction}", s.handleLayout).Methods("POST")
	s.router.HandleFunc("/api/nodes", s.handleAddNode).Methods("POST")
	s.router.HandleFunc("/api/nodes/{id}/position", s.handleMoveNode).Methods("PUT")
	s.router.HandleFunc("/api/edges", s.handleConnect).Methods("POST")
	s.router.HandleFunc("/api/edges/{id}", s.handleRemoveEdge).Methods("DELETE")
	s.router.HandleFunc("/api/error", s.handleDismissError).Methods("DELETE")

	// Serve static files
	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		logging.Fatal("embedded static files missing", "error", err)
	}
	s.router.PathPrefix("/").Handler(http.FileServer(http.FS(staticFS)))
}

func (s *Server) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	topic := mux.Vars(r)["topic"]
	if topic != pubsub.TopicView && topic != pubsub.TopicDiagram {
		writeError(w, http.StatusNotFound, fmt.Errorf("unknown topic %q", topic))
		return
	}

	// Set SSE headers
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	// Send initial comment to establish connection (Safari compatibility)
	fmt.Fprintf(w, ": connected\n\n")
	flusher, _ := w.(http.Flusher)
	if flusher != nil {
		flusher.Flush()
	}

	sub, err := s.publisher.Subscribe(r.Context(), topic)
	if err != nil {
		s.logger.Warn("subscribe failed", "topic", topic, "error", err)
		return
	}
	defer sub.Close()

	// Stream events until the client leaves or the publisher closes
	for event := range sub.Events() {
		if err := pubsub.WriteSSE(w, event); err != nil {
			s.logger.Debug("error writing SSE event", "topic", topic, "error", err)
			return
		}
		if flusher != nil {
			flusher.Flush()
		}
	}
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.shell.Snapshot())
}

func (s *Server) handleViewSVG(w http.ResponseWriter, r *http.Request) {
	opts := render.DefaultOptions()
	opts.Title = s.shell.SourceName()

	w.Header().Set("Content-Type", "image/svg+xml")
	if err := render.SVG(w, s.shell.Snapshot(), opts); err != nil {
		s.logger.Warn("failed to write svg", "error", err)
	}
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	if s.shell.State() == view.StateLoading {
		writeError(w, http.StatusConflict, view.ErrBusy)
		return
	}
	s.background("reload", func(ctx context.Context) error {
		return s.shell.Load(ctx)
	})
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "loading"})
}

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	dir, err := layout.ParseDirection(mux.Vars(r)["direction"])
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	basis, err := view.ParseBasis(r.URL.Query().Get("basis"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if s.shell.State() == view.StateLoading {
		writeError(w, http.StatusConflict, view.ErrBusy)
		return
	}

	s.background("layout", func(ctx context.Context) error {
		return s.shell.Layout(ctx, dir, basis)
	})
	writeJSON(w, http.StatusAccepted, map[string]string{
		"status":    "laying_out",
		"direction": dir.String(),
		"basis":     string(basis),
	})
}

type addNodeRequest struct {
	Label string `json:"label"`
	Kind  string `json:"kind"`
}

func (s *Server) handleAddNode(w http.ResponseWriter, r *http.Request) {
	var req addNodeRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	node := s.shell.AddNode(req.Label, model.ParseBlockKind(req.Kind))
	writeJSON(w, http.StatusCreated, node)
}

type positionRequest struct {
	X *float64 `json:"x"`
	Y *float64 `json:"y"`
}

func (s *Server) handleMoveNode(w http.ResponseWriter, r *http.Request) {
	var req positionRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.X == nil || req.Y == nil {
		writeError(w, http.StatusBadRequest, errors.New("x and y are required"))
		return
	}

	node, err := s.shell.MoveNode(mux.Vars(r)["id"], *req.X, *req.Y)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, node)
}

type connectRequest struct {
	Source     string `json:"source"`
	Target     string `json:"target"`
	SourcePort string `json:"sourcePort"`
	TargetPort string `json:"targetPort"`
}

func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	var req connectRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.Source == "" || req.Target == "" {
		writeError(w, http.StatusBadRequest, errors.New("source and target are required"))
		return
	}

	edge, err := s.shell.Connect(req.Source, req.Target, req.SourcePort, req.TargetPort)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusCreated, edge)
}

func (s *Server) handleRemoveEdge(w http.ResponseWriter, r *http.Request) {
	if err := s.shell.RemoveEdge(mux.Vars(r)["id"]); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDismissError(w http.ResponseWriter, r *http.Request) {
	s.shell.DismissError()
	w.WriteHeader(http.StatusNoContent)
}

// background runs op detached from the request. Failures are already recorded
// and published by the shell, so they are only logged here.
func (s *Server) background(name string, op func(ctx context.Context) error) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		err := op(s.baseCtx)
		switch {
		case err == nil:
		case errors.Is(err, view.ErrSuperseded), errors.Is(err, context.Canceled):
			s.logger.Debug("background operation abandoned", "op", name, "error", err)
		default:
			s.logger.Warn("background operation failed", "op", name, "error", err)
		}
	}()
}

// Wait blocks until background operations started so far have finished
func (s *Server) Wait() {
	s.wg.Wait()
}

// Start serves on addr until ctx is cancelled, then shuts down gracefully.
// The publisher is closed on shutdown so streaming clients are released.
func (s *Server) Start(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Start on an existing listener
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.baseCtx = ctx
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting web server", "url", "http://"+ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down web server")
	s.publisher.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	s.wg.Wait()
	return nil
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, view.ErrUnknownNode), errors.Is(err, view.ErrUnknownEdge):
		return http.StatusNotFound
	case errors.Is(err, view.ErrBusy):
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Debug("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
