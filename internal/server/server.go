// Package server exposes grid lookups to a browser scene over a websocket.
//
// The page forwards every pick on the terrain mesh as
//
//	{"name":"pick","data":{"id":"7","hitPnt":[x,y,z]}}
//
// and renders the readout or error event it gets back.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/Faultbox/gridprobe/internal/config"
	"github.com/Faultbox/gridprobe/internal/logger"
	"github.com/Faultbox/gridprobe/pkg/gridlookup"
)

const shutdownTimeout = 5 * time.Second

// Server answers pick events against a single immutable Lookup.
type Server struct {
	lookup   *gridlookup.Lookup
	cfg      config.ServerConfig
	log      *zap.Logger
	hub      *hub
	upgrader websocket.Upgrader
}

// New creates a Server. Serve or Run may be called once.
func New(lookup *gridlookup.Lookup, cfg config.ServerConfig) *Server {
	return &Server{
		lookup: lookup,
		cfg:    cfg,
		log:    logger.Named("server"),
		hub:    newHub(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Scene pages are usually opened from disk, so there is no origin to match.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Handler returns the HTTP routes of the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.serveWs)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})
	return mux
}

// Run listens on the configured address and serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Listen)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.cfg.Listen, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled, then closes every
// websocket and shuts the HTTP server down.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	hubCtx, stopHub := context.WithCancel(ctx)
	defer stopHub()
	go s.hub.run(hubCtx)

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		errc <- srv.Serve(ln)
	}()
	s.log.Info("pick server listening", zap.String("addr", ln.Addr().String()))

	select {
	case err := <-errc:
		stopHub()
		<-s.hub.done
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	<-s.hub.done
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("shutting down: %w", err)
	}
	s.log.Info("pick server stopped")
	return nil
}

// serveWs upgrades the request and starts the connection pumps.
func (s *Server) serveWs(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	c := &client{
		srv:  s,
		conn: conn,
		send: make(chan []byte, 64),
		quit: make(chan struct{}),
		gone: make(chan struct{}),
		log:  s.log.With(zap.String("remote", conn.RemoteAddr().String())),
	}
	if !s.hub.add(c) {
		conn.Close()
		return
	}
	c.log.Debug("client connected")

	go c.writePump()
	go c.readPump()
}

// sceneData summarizes the grid for a scene event.
func (s *Server) sceneData() SceneData {
	grid := s.lookup.Grid()
	tr := s.lookup.Transform()
	min, max := s.lookup.ElevationRange()
	return SceneData{
		Columns:       grid.Columns(),
		Rows:          grid.Rows(),
		ColumnSpacing: tr.ColumnSpacing,
		RowSpacing:    tr.RowSpacing,
		VerticalScale: tr.VerticalScale,
		BoundsPolicy:  s.lookup.Policy().String(),
		MinElevation:  gridlookup.RoundTwoDecimals(min),
		MaxElevation:  gridlookup.RoundTwoDecimals(max),
	}
}

// hub tracks live clients so shutdown can close them.
type hub struct {
	clients    map[*client]struct{}
	register   chan *client
	unregister chan *client
	done       chan struct{}
}

func newHub() *hub {
	return &hub{
		clients:    make(map[*client]struct{}),
		register:   make(chan *client),
		unregister: make(chan *client),
		done:       make(chan struct{}),
	}
}

func (h *hub) run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case c := <-h.register:
			h.clients[c] = struct{}{}
		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.quit)
			}
		case <-ctx.Done():
			for c := range h.clients {
				delete(h.clients, c)
				close(c.quit)
			}
			return
		}
	}
}

// add registers c. It returns false once the hub has stopped.
func (h *hub) add(c *client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *hub) remove(c *client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}
