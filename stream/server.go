package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"radgrid/config"
	"radgrid/logging"
	"radgrid/physics"
	"radgrid/simulation"
)

const writeWait = 10 * time.Second

// Server runs one model per request on each websocket connection and streams
// its frames back to the client that asked for it
type Server struct {
	cfg    config.ServerSettings
	opts   []simulation.Option
	logger *slog.Logger

	upgrader websocket.Upgrader

	clients      map[*websocket.Conn]*sync.Mutex
	clientsMutex sync.RWMutex
}

// NewServer creates a server; opts apply to every run before the request's own overrides
func NewServer(cfg config.ServerSettings, opts ...simulation.Option) *Server {
	if cfg.FrameEvery <= 0 {
		cfg.FrameEvery = 1
	}
	return &Server{
		cfg:    cfg,
		opts:   opts,
		logger: logging.L().With("component", "stream"),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // Allow all origins, runs are stateless
			},
		},
		clients: make(map[*websocket.Conn]*sync.Mutex),
	}
}

// Handler returns the HTTP routes of the server
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/healthz", s.handleHealth)
	return mux
}

// Clients returns the number of open connections
func (s *Server) Clients() int {
	s.clientsMutex.RLock()
	defer s.clientsMutex.RUnlock()
	return len(s.clients)
}

// ListenAndServe serves until ctx is canceled, then closes every client
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server.listening", "addr", s.cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.closeClients()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.logger.Info("server.stopped")
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"status": "ok", "clients": s.Clients()})
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("ws.upgrade_failed", "err", err)
		return
	}
	defer conn.Close()

	connMutex := &sync.Mutex{}
	s.clientsMutex.Lock()
	s.clients[conn] = connMutex
	s.clientsMutex.Unlock()
	defer func() {
		s.clientsMutex.Lock()
		delete(s.clients, conn)
		s.clientsMutex.Unlock()
	}()

	log := s.logger.With("remote", r.RemoteAddr)
	log.Debug("ws.connected")

	// Each message is one run request; runs on a connection are sequential
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warn("ws.read_failed", "err", err)
			}
			break
		}

		var req Request
		if err := json.Unmarshal(data, &req); err != nil {
			s.send(conn, connMutex, ErrorData{Type: typeError, Code: "bad_request", Error: err.Error()})
			continue
		}

		if err := s.serveRun(r.Context(), conn, connMutex, req, log); err != nil {
			log.Warn("ws.write_failed", "err", err)
			break
		}
	}
	log.Debug("ws.disconnected")
}

// serveRun executes req and streams it to conn. It returns an error only
// when the connection can no longer be written to.
func (s *Server) serveRun(ctx context.Context, conn *websocket.Conn, mu *sync.Mutex, req Request, log *slog.Logger) error {
	opts, err := s.options(req)
	if err == nil {
		err = s.checkLimits(req.Params)
	}
	if err != nil {
		return s.send(conn, mu, newErrorData(err))
	}

	every := req.Every
	if every <= 0 {
		every = s.cfg.FrameEvery
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var writeErr error
	opts = append(opts, simulation.WithObserver(func(f simulation.Frame) {
		if writeErr != nil || (f.Step%every != 0 && f.Step != req.Steps) {
			return
		}
		msg := FrameData{Type: typeFrame, Step: f.Step, Elapsed: f.Elapsed, Stats: f.Stats}
		if req.Grid {
			msg.Grid = f.Domain.Snapshot()
		}
		if writeErr = s.send(conn, mu, msg); writeErr != nil {
			cancel()
		}
	}))

	start := time.Now()
	res, err := simulation.RunParams(ctx, req.Params, opts...)
	if writeErr != nil {
		return writeErr
	}
	if err != nil {
		log.Info("ws.run_failed", "err", err)
		return s.send(conn, mu, newErrorData(err))
	}

	log.Debug("ws.run_completed", "steps", res.Steps, "took", time.Since(start))
	return s.send(conn, mu, newResultData(res))
}

// options layers the request's overrides on the server defaults
func (s *Server) options(req Request) ([]simulation.Option, error) {
	opts := append([]simulation.Option(nil), s.opts...)
	if req.Boundary != "" {
		mode, err := physics.ParseBoundaryMode(req.Boundary)
		if err != nil {
			return nil, err
		}
		opts = append(opts, simulation.WithBoundaryMode(mode))
	}
	if req.Stability != "" {
		policy, err := simulation.ParseStabilityPolicy(req.Stability)
		if err != nil {
			return nil, err
		}
		opts = append(opts, simulation.WithStability(policy))
	}
	if s.cfg.MaxSubsteps > 0 {
		opts = append(opts, simulation.WithMaxSubsteps(s.cfg.MaxSubsteps))
	}
	return opts, nil
}

func (s *Server) checkLimits(p simulation.Params) error {
	if s.cfg.MaxCells > 0 && p.Layers > 0 && p.Bands > 0 && p.Layers > s.cfg.MaxCells/p.Bands {
		return fmt.Errorf("%dx%d cells, limit %d: %w", p.Layers, p.Bands, s.cfg.MaxCells, errLimit)
	}
	if s.cfg.MaxSteps > 0 && p.Steps > s.cfg.MaxSteps {
		return fmt.Errorf("%d steps, limit %d: %w", p.Steps, s.cfg.MaxSteps, errLimit)
	}
	return nil
}

func (s *Server) send(conn *websocket.Conn, mu *sync.Mutex, v any) error {
	mu.Lock()
	defer mu.Unlock()
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(v)
}

func (s *Server) closeClients() {
	s.clientsMutex.RLock()
	defer s.clientsMutex.RUnlock()
	for client, mutex := range s.clients {
		mutex.Lock()
		client.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(time.Second))
		mutex.Unlock()
		client.Close()
	}
}
