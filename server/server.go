// Package server exposes a running simulation to a visualization front end:
// read-only snapshots over HTTP and websocket, and a narrow command surface
// (fail/restore link, pause, resume, speed) that maps one-to-one onto the
// driver's control entry points. The server never mutates simulation state
// directly.
package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/routesim/routesim/sim"
)

// stepBatch is how many events the background loop processes per pacing
// interval at speed 1.
const stepBatch = 8

// baseInterval is the wall-clock pacing between step batches at speed 1.
// Pacing is presentation only; simulated time is untouched by it.
const baseInterval = 100 * time.Millisecond

// Server pumps a driver in the background and serves its state.
type Server struct {
	driver   *sim.Driver
	upgrader websocket.Upgrader
	done     chan struct{}
}

// New wraps a driver for serving.
func New(d *sim.Driver) *Server {
	return &Server{
		driver: d,
		upgrader: websocket.Upgrader{
			// any origin: the viewer runs off file:// during development
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		done: make(chan struct{}),
	}
}

// Routes registers the server's endpoints on a mux.
func (s *Server) Routes(mux *http.ServeMux) {
	mux.HandleFunc("/snapshot", s.handleSnapshot)
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/control/fail", s.handleLinkControl(s.driver.FailLink))
	mux.HandleFunc("/control/restore", s.handleLinkControl(s.driver.RestoreLink))
	mux.HandleFunc("/control/pause", s.handlePause)
	mux.HandleFunc("/control/resume", s.handleResume)
	mux.HandleFunc("/control/speed", s.handleSpeed)
}

// Start launches the background step loop and blocks serving HTTP.
func (s *Server) Start(addr string) error {
	mux := http.NewServeMux()
	s.Routes(mux)
	go s.runLoop()
	logrus.Infof("serving simulation on %s", addr)
	return http.ListenAndServe(addr, mux)
}

// runLoop advances the simulation in paced batches until the event queue is
// exhausted. Pause stops popping events; speed scales the pacing only.
func (s *Server) runLoop() {
	defer close(s.done)
	for {
		if s.driver.Paused() {
			time.Sleep(baseInterval)
			continue
		}
		for i := 0; i < stepBatch; i++ {
			if !s.driver.Step() {
				logrus.Info("simulation finished; snapshots remain available")
				return
			}
		}
		time.Sleep(time.Duration(float64(baseInterval) / s.driver.Speed()))
	}
}

// Done returns a channel closed when the simulation has run out of events.
func (s *Server) Done() <-chan struct{} { return s.done }

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.driver.Snapshot())
}

// handleWS pushes a snapshot per pacing interval until the peer goes away.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logrus.Warnf("websocket upgrade: %v", err)
		return
	}
	defer conn.Close()

	ticker := time.NewTicker(baseInterval)
	defer ticker.Stop()
	for range ticker.C {
		if err := conn.WriteJSON(s.driver.Snapshot()); err != nil {
			logrus.Debugf("websocket write: %v", err)
			return
		}
	}
}

// handleLinkControl adapts FailLink/RestoreLink to ?a=X&b=Y requests.
func (s *Server) handleLinkControl(control func(a, b sim.NodeID) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a := sim.NodeID(r.URL.Query().Get("a"))
		b := sim.NodeID(r.URL.Query().Get("b"))
		if a == "" || b == "" {
			http.Error(w, "missing a or b query parameter", http.StatusBadRequest)
			return
		}
		if err := control(a, b); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		writeJSON(w, map[string]any{"ok": true, "a": a, "b": b})
	}
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	s.driver.Pause()
	writeJSON(w, map[string]any{"paused": true})
}

func (s *Server) handleResume(w http.ResponseWriter, r *http.Request) {
	s.driver.Resume()
	writeJSON(w, map[string]any{"paused": false})
}

func (s *Server) handleSpeed(w http.ResponseWriter, r *http.Request) {
	factor, err := strconv.ParseFloat(r.URL.Query().Get("factor"), 64)
	if err != nil {
		http.Error(w, "factor query parameter must be a number", http.StatusBadRequest)
		return
	}
	if err := s.driver.SetSpeed(factor); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, map[string]any{"speed": factor})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.Warnf("encode response: %v", err)
	}
}
