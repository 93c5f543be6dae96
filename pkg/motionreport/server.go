// Motion report streaming server
//
// Streams solver output over websocket so motion analysis frontends can
// plot commanded extruder positions against nominal ones. This is a debug
// surface: the motion core itself performs no I/O and never depends on
// this package.
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package motionreport

import (
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"

	"klipper-motion-core/pkg/errors"
	"klipper-motion-core/pkg/log"
)

// Sample is one solver observation at an absolute print time.
type Sample struct {
	Time     float64 `json:"time"`
	Position float64 `json:"position"`
	Velocity float64 `json:"velocity"`
}

// Server accepts websocket clients on /motion and broadcasts samples.
type Server struct {
	logger *log.Logger

	upgrader websocket.Upgrader

	clientMu sync.Mutex
	clients  map[int64]*websocket.Conn
	nextID   int64

	httpServer *http.Server
	running    atomic.Bool
}

// New creates a motion report server.
func New(logger *log.Logger) *Server {
	if logger == nil {
		logger = log.GetLogger("motionreport")
	}
	return &Server{
		logger: logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: map[int64]*websocket.Conn{},
	}
}

// Handler returns the HTTP handler serving the /motion websocket endpoint.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/motion", s.handleMotion)
	return mux
}

// Start begins serving on addr in a background goroutine.
func (s *Server) Start(addr string) error {
	if !s.running.CompareAndSwap(false, true) {
		return errors.New(errors.ErrReportServer, "server already running")
	}
	s.httpServer = &http.Server{Addr: addr, Handler: s.Handler()}
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.WithError(err).Error("motion report server stopped")
		}
	}()
	s.logger.Info("motion report server listening on %s", addr)
	return nil
}

// Stop closes all clients and shuts the server down.
func (s *Server) Stop() {
	if !s.running.CompareAndSwap(true, false) {
		return
	}
	s.clientMu.Lock()
	for id, conn := range s.clients {
		conn.Close()
		delete(s.clients, id)
	}
	s.clientMu.Unlock()
	if s.httpServer != nil {
		s.httpServer.Close()
	}
}

func (s *Server) handleMotion(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.WithError(err).Warn("websocket upgrade failed")
		return
	}
	s.clientMu.Lock()
	s.nextID++
	id := s.nextID
	s.clients[id] = conn
	s.clientMu.Unlock()
	s.logger.WithField("client", id).Debug("motion report client connected")

	// Drain client reads; a read error means the client is gone.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				s.drop(id)
				return
			}
		}
	}()
}

func (s *Server) drop(id int64) {
	s.clientMu.Lock()
	defer s.clientMu.Unlock()
	if conn, ok := s.clients[id]; ok {
		conn.Close()
		delete(s.clients, id)
	}
}

// ClientCount returns the number of connected clients.
func (s *Server) ClientCount() int {
	s.clientMu.Lock()
	defer s.clientMu.Unlock()
	return len(s.clients)
}

// Broadcast sends a sample to every connected client. Clients that fail to
// accept the write are dropped.
func (s *Server) Broadcast(sample Sample) {
	s.clientMu.Lock()
	var failed []int64
	for id, conn := range s.clients {
		if err := conn.WriteJSON(sample); err != nil {
			failed = append(failed, id)
		}
	}
	for _, id := range failed {
		if conn, ok := s.clients[id]; ok {
			conn.Close()
			delete(s.clients, id)
		}
	}
	s.clientMu.Unlock()
}
