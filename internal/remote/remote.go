// Package remote implements the remote-control bus of spec.md §6: an
// HTTP+WebSocket server that exposes read-write and read-only fields per
// entity kind. Grounded on the teacher's internal/api.go (a plain
// net/http.ServeMux with CORS and a handful of REST endpoints), expanded
// with a gorilla/websocket push channel for live field updates, matching
// the pattern the wider pack uses for live plant telemetry.
package remote

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/rwchcd/rwchcd/internal/dhwt"
	"github.com/rwchcd/rwchcd/internal/hcircuit"
	"github.com/rwchcd/rwchcd/internal/model"
	"github.com/rwchcd/rwchcd/internal/plant"
	"github.com/rwchcd/rwchcd/internal/runtime"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Server is the remote-control bus: a REST surface for per-entity
// overrides plus a WebSocket broadcast of every field spec.md §6's table
// marks read-only.
type Server struct {
	rt       *runtime.Runtime
	plant    *plant.Plant
	circuits map[string]*hcircuit.HCircuit
	dhwts    map[string]*dhwt.DHWT

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

func NewServer(rt *runtime.Runtime, p *plant.Plant, circuits map[string]*hcircuit.HCircuit, dhwts map[string]*dhwt.DHWT) *Server {
	return &Server{
		rt: rt, plant: p, circuits: circuits, dhwts: dhwts,
		clients: make(map[*websocket.Conn]struct{}),
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/system/mode", s.handleSystemMode)
	mux.HandleFunc("/api/hcircuit/", s.handleHCircuit)
	mux.HandleFunc("/api/dhwt/", s.handleDHWT)
	mux.HandleFunc("/ws", s.handleWS)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		mux.ServeHTTP(w, r)
	})
}

// ListenAndServe starts the HTTP server; grounded on the teacher's
// api.Server.Start.
func (s *Server) ListenAndServe(port int) error {
	addr := fmt.Sprintf("0.0.0.0:%d", port)
	log.Info().Str("address", addr).Msg("starting remote control bus")
	return http.ListenAndServe(addr, s.Handler())
}

type systemModeRequest struct {
	SystemMode string `json:"system_mode,omitempty"`
	RunMode    string `json:"run_mode,omitempty"`
	DHWMode    string `json:"dhw_mode,omitempty"`
}

func (s *Server) handleSystemMode(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, map[string]string{
			"system_mode": string(s.rt.SystemMode()),
			"run_mode":    string(s.rt.RunMode()),
			"dhw_mode":    string(s.rt.DHWMode()),
		})
	case http.MethodPut:
		var req systemModeRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if req.SystemMode != "" {
			s.rt.SetSystemMode(model.RunMode(req.SystemMode))
		}
		if req.RunMode != "" {
			s.rt.SetRunMode(model.RunMode(req.RunMode))
		}
		if req.DHWMode != "" {
			s.rt.SetDHWMode(model.RunMode(req.DHWMode))
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// hcircuitFields is the read-write/read-only field view spec.md §6 names
// for a heating circuit.
type hcircuitFields struct {
	Name            string `json:"name"`
	RunModeOverride string `json:"run_mode_override"`
	HeatRequest     int32  `json:"heat_request"`
	Status          string `json:"status"`
}

func (s *Server) handleHCircuit(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Path[len("/api/hcircuit/"):]
	c, ok := s.circuits[id]
	if !ok {
		writeError(w, http.StatusNotFound, "unknown circuit")
		return
	}
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, hcircuitFields{Name: c.Name(), HeatRequest: int32(c.HeatRequest()), Status: c.Status().String()})
	case http.MethodPut:
		var req struct {
			RunModeOverride string `json:"run_mode_override"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}
		if req.RunModeOverride == "" || req.RunModeOverride == "auto" {
			c.DisableRunmodeOverride()
		} else {
			c.SetRunmodeOverride(model.RunMode(req.RunModeOverride))
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleDHWT(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Path[len("/api/dhwt/"):]
	d, ok := s.dhwts[id]
	if !ok {
		writeError(w, http.StatusNotFound, "unknown dhwt")
		return
	}
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, map[string]any{"name": d.Name(), "heat_request": int32(d.HeatRequest()), "status": d.Status().String()})
	case http.MethodPut:
		var req struct {
			RunModeOverride *string `json:"run_mode_override,omitempty"`
			ForceChargeOn   *bool   `json:"force_charge_on,omitempty"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}
		if req.RunModeOverride != nil {
			if *req.RunModeOverride == "" || *req.RunModeOverride == "auto" {
				d.DisableRunmodeOverride()
			} else {
				d.SetRunmodeOverride(model.RunMode(*req.RunModeOverride))
			}
		}
		if req.ForceChargeOn != nil {
			d.SetForceChargeOn(*req.ForceChargeOn)
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handleWS upgrades to a WebSocket and registers the connection for
// Broadcast pushes; the connection is otherwise read-only from the bus's
// perspective (writes happen via the REST surface above).
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	s.mu.Lock()
	s.clients[conn] = struct{}{}
	s.mu.Unlock()

	go func() {
		defer func() {
			s.mu.Lock()
			delete(s.clients, conn)
			s.mu.Unlock()
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// Broadcast pushes pdata to every connected WebSocket client; called once
// per tick after the plant publishes its shared record (spec.md §4.7
// step 7).
func (s *Server) Broadcast(pdata model.PlantData) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.clients) == 0 {
		return
	}
	for conn := range s.clients {
		if err := conn.WriteJSON(pdata); err != nil {
			log.Debug().Err(err).Msg("websocket write failed, dropping client")
			conn.Close()
			delete(s.clients, conn)
		}
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}
