package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"trackconf-go/config"
	"trackconf-go/confidence"
	"trackconf-go/rbc"
)

const maxBodyBytes = 32 << 20

type scoreRequest struct {
	TrackID string             `json:"track_id,omitempty"`
	Points  []confidence.Point `json:"points"`
	Params  *config.Tuning     `json:"params,omitempty"`
}

type levelCounts struct {
	Unreliable int `json:"unreliable"`
	Moderate   int `json:"moderate"`
	High       int `json:"high"`
}

type scoreResponse struct {
	RunID   string            `json:"run_id"`
	TrackID string            `json:"track_id,omitempty"`
	Params  confidence.Params `json:"params"`
	Levels  []int             `json:"levels"`
	Counts  levelCounts       `json:"counts"`
}

type Server struct {
	Hub    *Hub
	tuning config.Tuning
	sender *rbc.Sender
	static string
}

// NewServer builds a server whose requests start from base. Per-request
// params override base field by field.
func NewServer(base *config.Tuning) *Server {
	s := &Server{Hub: NewHub()}
	s.tuning.Merge(base)
	return s
}

// SetRbcSender forwards every scored track to downstream consumers.
func (s *Server) SetRbcSender(snd *rbc.Sender) { s.sender = snd }

// SetStaticDir serves a frontend from dir at /.
func (s *Server) SetStaticDir(dir string) { s.static = dir }

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		serveWs(s.Hub, w, r)
	})
	mux.HandleFunc("/api/score", s.handleScore)
	mux.HandleFunc("/api/params", s.handleParams)
	if s.static != "" {
		mux.Handle("/", http.FileServer(http.Dir(s.static)))
	}
	return mux
}

// Start serves on addr until ctx is cancelled.
func (s *Server) Start(ctx context.Context, addr string) error {
	go s.Hub.Run()
	defer s.Hub.Close()

	srv := &http.Server{Addr: addr, Handler: s.Handler(), ReadHeaderTimeout: 10 * time.Second}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	slog.Info("HTTP server listening", "addr", addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleParams(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "use GET")
		return
	}
	p, err := s.tuning.Params()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleScore(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "use POST")
		return
	}
	var req scoreRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request: %v", err))
		return
	}

	tun := s.tuning
	tun.Merge(req.Params)
	p, err := tun.Params()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Points == nil {
		req.Points = []confidence.Point{}
	}

	v, err := confidence.ScoreConcurrent(r.Context(), req.Points, p)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	c := v.Counts()
	resp := scoreResponse{
		RunID:   uuid.NewString(),
		TrackID: req.TrackID,
		Params:  p,
		Levels:  make([]int, len(v)),
		Counts:  levelCounts{Unreliable: c[0], Moderate: c[1], High: c[2]},
	}
	for i, l := range v {
		resp.Levels[i] = int(l)
	}
	slog.Debug("scored track", "run_id", resp.RunID, "track_id", req.TrackID, "points", len(v),
		"high", c[2], "moderate", c[1], "unreliable", c[0])

	if s.sender != nil {
		id := req.TrackID
		if id == "" {
			id = resp.RunID
		}
		s.sender.SendTrack(id, req.Points, v)
	}
	if b, err := json.Marshal(resp); err == nil {
		s.Hub.Broadcast(b)
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("write response failed", "err", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
