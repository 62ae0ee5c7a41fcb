// Package viewer streams simulation frames to websocket clients. The feed is
// read-only: client messages are read only to notice disconnects.
package viewer

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/zeusync/crowdnav/internal/core/observability/log"
	"github.com/zeusync/crowdnav/internal/core/sim"
)

const (
	sendBuffer   = 8
	writeTimeout = 5 * time.Second
)

// Source provides the frame a client sees right after connecting.
type Source interface {
	Snapshot() (sim.Frame, error)
	Rooms() []string
}

type message struct {
	Type  string     `json:"type"`
	Rooms []string   `json:"rooms,omitempty"`
	Frame *sim.Frame `json:"frame,omitempty"`
}

type client struct {
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

func (c *client) close() {
	c.once.Do(func() {
		close(c.send)
	})
}

type Server struct {
	source   Source
	logger   log.Log
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
	dropped uint64

	httpServer *http.Server
	listener   net.Listener
}

var _ sim.FrameSink = (*Server)(nil)

func New(source Source, logger log.Log) *Server {
	return &Server{
		source: source,
		logger: logger.With(log.String("component", "viewer")),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		clients: make(map[*client]struct{}),
	}
}

// Handler serves the feed on /ws and the current frame as JSON on /state.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/state", s.handleState)
	return mux
}

// Start listens on addr and serves until Stop is called.
func (s *Server) Start(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.listener = ln
	s.httpServer = &http.Server{Handler: s.Handler(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("viewer server stopped", log.Error(err))
		}
	}()
	s.logger.Info("viewer listening", log.String("address", ln.Addr().String()))
	return nil
}

// Addr is the listening address once started.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop shuts the HTTP server down and disconnects every client.
func (s *Server) Stop(ctx context.Context) error {
	var err error
	if s.httpServer != nil {
		err = s.httpServer.Shutdown(ctx)
	}
	s.mu.Lock()
	for c := range s.clients {
		delete(s.clients, c)
		c.close()
		_ = c.conn.Close()
	}
	s.mu.Unlock()
	return err
}

// Publish broadcasts f to every client. Clients that are behind lose the frame.
func (s *Server) Publish(f sim.Frame) {
	data, err := json.Marshal(message{Type: "frame", Frame: &f})
	if err != nil {
		s.logger.Error("marshal frame", log.Error(err))
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.clients {
		select {
		case c.send <- data:
		default:
			s.dropped++
		}
	}
}

// Dropped counts frames skipped for slow clients.
func (s *Server) Dropped() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}

// Clients is the number of connected clients.
func (s *Server) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

func (s *Server) handleState(w http.ResponseWriter, _ *http.Request) {
	frame, err := s.source.Snapshot()
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(frame); err != nil {
		s.logger.Warn("write state", log.Error(err))
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("upgrade failed", log.String("remote", r.RemoteAddr), log.Error(err))
		return
	}

	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}
	hello := message{Type: "hello", Rooms: s.source.Rooms()}
	if frame, err := s.source.Snapshot(); err == nil {
		hello.Frame = &frame
	}
	data, err := json.Marshal(hello)
	if err != nil {
		s.logger.Error("marshal hello", log.Error(err))
		_ = conn.Close()
		return
	}
	c.send <- data

	s.mu.Lock()
	s.clients[c] = struct{}{}
	s.mu.Unlock()
	s.logger.Debug("viewer connected", log.String("remote", r.RemoteAddr))

	go s.writeLoop(c)
	s.readLoop(c)
}

func (s *Server) writeLoop(c *client) {
	defer c.conn.Close()
	for data := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			s.disconnect(c)
			return
		}
	}
	_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

func (s *Server) readLoop(c *client) {
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			s.disconnect(c)
			return
		}
	}
}

func (s *Server) disconnect(c *client) {
	s.mu.Lock()
	_, ok := s.clients[c]
	delete(s.clients, c)
	s.mu.Unlock()
	if ok {
		c.close()
		s.logger.Debug("viewer disconnected")
	}
}
