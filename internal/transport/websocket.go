// SPDX-License-Identifier: MIT
package transport

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	applog "voxcut/internal/log"

	"github.com/gorilla/websocket"
)

// Server is the page-side websocket endpoint. It hands updates to its
// Handler and answers status queries.
type Server struct {
	addr      string
	handler   Handler
	timeout   time.Duration
	upgrader  websocket.Upgrader
	clients   map[*serverConn]bool
	clientsMu sync.Mutex
	server    *http.Server
	listener  net.Listener
}

// serverConn serialises writes; gorilla allows one writer at a time.
type serverConn struct {
	ws      *websocket.Conn
	writeMu sync.Mutex
}

func (c *serverConn) writeJSON(v any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.ws.WriteJSON(v)
}

// NewServer creates a server for addr. statusTimeout bounds how long the
// handler may take to answer a status query.
func NewServer(addr string, handler Handler, statusTimeout time.Duration) *Server {
	return &Server{
		addr:    addr,
		handler: handler,
		timeout: statusTimeout,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // local control surfaces only
			},
		},
		clients: make(map[*serverConn]bool),
	}
}

// Handler returns the HTTP handler serving /ws.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	return mux
}

// Start listens on the configured address and serves in the background.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.listener = ln
	s.server = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		applog.Infof("WebSocketServer: listening on %s", ln.Addr())
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			applog.Errorf("WebSocketServer: server error: %v", err)
		}
	}()
	return nil
}

// Addr returns the bound address once started, else the configured one.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

// ClientCount returns the number of connected clients.
func (s *Server) ClientCount() int {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	return len(s.clients)
}

// handleWebSocket upgrades the connection and serves it until it closes.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		applog.Warnf("WebSocketServer: upgrade error: %v", err)
		return
	}
	conn := &serverConn{ws: ws}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s.clientsMu.Lock()
	s.clients[conn] = true
	total := len(s.clients)
	s.clientsMu.Unlock()
	applog.Debugf("WebSocketServer: client connected, total: %d", total)

	defer func() {
		s.clientsMu.Lock()
		delete(s.clients, conn)
		total := len(s.clients)
		s.clientsMu.Unlock()
		ws.Close()
		applog.Debugf("WebSocketServer: client disconnected, total: %d", total)
	}()

	for {
		var msg Message
		if err := ws.ReadJSON(&msg); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				applog.Debugf("WebSocketServer: read: %v", err)
			}
			return
		}
		s.dispatch(ctx, conn, msg)
	}
}

func (s *Server) dispatch(ctx context.Context, conn *serverConn, msg Message) {
	switch msg.Type {
	case TypeUpdate:
		if msg.Settings == nil {
			applog.Warnf("WebSocketServer: update without settings ignored")
			return
		}
		if err := s.handler.HandleUpdate(ctx, *msg.Settings, msg.ForceReinit); err != nil {
			applog.Warnf("WebSocketServer: update: %v", err)
		}

	case TypeGetStatus:
		// Status replies run concurrently so a slow handler never blocks
		// the read loop.
		go func() {
			qctx, cancel := context.WithTimeout(ctx, s.timeout)
			defer cancel()
			active, err := s.handler.HandleStatus(qctx)
			if err != nil {
				applog.Debugf("WebSocketServer: status: %v", err)
				return // the client times out and reports inactive
			}
			if err := conn.writeJSON(Message{Type: TypeStatus, ID: msg.ID, Active: active}); err != nil {
				applog.Debugf("WebSocketServer: write status: %v", err)
			}
		}()

	default:
		applog.Warnf("WebSocketServer: unknown message type %q", msg.Type)
	}
}

// Close shuts down the server and every client connection.
func (s *Server) Close() error {
	applog.Infof("WebSocketServer: closing server")

	s.clientsMu.Lock()
	for client := range s.clients {
		client.ws.Close()
	}
	s.clients = make(map[*serverConn]bool)
	s.clientsMu.Unlock()

	if s.server != nil {
		return s.server.Close()
	}
	return nil
}
