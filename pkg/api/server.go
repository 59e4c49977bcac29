// Package api serves a read-only observation surface over a running
// simulation: REST endpoints for the latest book depth, ledger state and
// recent fills, plus a WebSocket stream of per-tick snapshots. Order
// entry is deliberately absent.
package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/qfex/quotesim/pkg/sim/runner"
	"github.com/qfex/quotesim/pkg/storage"
)

// Server exposes a Runner's published state. It reads only snapshots the
// runner publishes; it never touches the book or ledger directly.
type Server struct {
	run    *runner.Runner
	router *mux.Router
	hub    *Hub
	log    *zap.SugaredLogger
}

func NewServer(run *runner.Runner, log *zap.SugaredLogger) *Server {
	s := &Server{
		run:    run,
		router: mux.NewRouter(),
		hub:    NewHub(log),
		log:    log,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	v1 := s.router.PathPrefix("/api/v1").Subrouter()
	v1.HandleFunc("/book", s.handleGetBook).Methods("GET")
	v1.HandleFunc("/pnl", s.handleGetPnL).Methods("GET")
	v1.HandleFunc("/fills", s.handleGetFills).Methods("GET")
	v1.HandleFunc("/status", s.handleGetStatus).Methods("GET")

	s.router.HandleFunc("/ws", s.handleWebSocket)
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
}

// PublishTick satisfies runner.Publisher: each tick's snapshot goes out
// to every connected websocket client.
func (s *Server) PublishTick(snap storage.Snapshot) {
	s.hub.Broadcast(snap)
}

// Start runs the hub and blocks serving HTTP on addr.
func (s *Server) Start(addr string) error {
	go s.hub.Run()

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	})

	s.log.Infow("api_listening", "addr", addr)
	return http.ListenAndServe(addr, c.Handler(s.router))
}

// Handler returns the routed handler, for tests.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) handleGetBook(w http.ResponseWriter, r *http.Request) {
	snap := s.run.Latest()
	respondJSON(w, BookResponse{Tick: snap.Tick, Bids: snap.Bids, Asks: snap.Asks})
}

func (s *Server) handleGetPnL(w http.ResponseWriter, r *http.Request) {
	snap := s.run.Latest()
	respondJSON(w, PnLResponse{
		Tick:         snap.Tick,
		Cash:         snap.Cash,
		Inventory:    snap.Inventory,
		MarkToMarket: snap.MarkToMarket,
	})
}

func (s *Server) handleGetFills(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			respondError(w, http.StatusBadRequest, "invalid limit", v)
			return
		}
		limit = n
	}

	fills := s.run.RecentFills(limit)
	out := make([]FillInfo, len(fills))
	for i, f := range fills {
		out[i] = FillInfo{
			Tick:    f.Tick,
			Side:    f.Taker.String(),
			Price:   f.Price,
			Qty:     f.Qty,
			MakerID: f.MakerID,
		}
	}
	respondJSON(w, out)
}

func (s *Server) handleGetStatus(w http.ResponseWriter, r *http.Request) {
	snap := s.run.Latest()
	respondJSON(w, StatusResponse{Tick: snap.Tick, LastPrice: snap.LastPrice})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, map[string]string{"status": "ok"})
}

func respondJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, code int, msg, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(errorResponse{Error: msg, Detail: detail})
}
