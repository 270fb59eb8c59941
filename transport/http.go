package transport

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/ethereum/go-ethereum/log"
)

// APDURequest is the body of POST /apdu.
type APDURequest struct {
	Data string `json:"data"`
}

// APDUResponse is the reply to POST /apdu.
type APDUResponse struct {
	Data  string `json:"data,omitempty"`
	Error string `json:"error,omitempty"`
}

// Server exposes the device with the emulator style HTTP API: each
// POST /apdu carries one hex encoded command and waits for its response.
// Requests are queued to the single device loop reading Next.
type Server struct {
	pipe *Pipe
	log  log.Logger
}

// NewServer creates a server.
func NewServer(logger log.Logger) *Server {
	if logger == nil {
		logger = log.Root()
	}
	return &Server{pipe: NewPipe(), log: logger}
}

// Next implements Transport.
func (s *Server) Next(ctx context.Context) (*Exchange, error) {
	return s.pipe.Next(ctx)
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /apdu", s.handleAPDU)
	return mux
}

func (s *Server) handleAPDU(w http.ResponseWriter, r *http.Request) {
	var req APDURequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4096)).Decode(&req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, APDUResponse{Error: fmt.Sprintf("failed to decode request: %v", err)})
		return
	}
	command, err := hex.DecodeString(req.Data)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, APDUResponse{Error: fmt.Sprintf("failed to decode hex data: %v", err)})
		return
	}

	ex := NewExchange(command)
	s.log.Trace("APDU received", "id", ex.ID, "command", req.Data)
	select {
	case s.pipe.ch <- ex:
	case <-r.Context().Done():
		return
	}
	resp, err := ex.Wait(r.Context())
	if err != nil {
		s.log.Debug("APDU abandoned by client", "id", ex.ID, "err", err)
		return
	}
	s.log.Trace("APDU answered", "id", ex.ID, "response", hex.EncodeToString(resp))
	s.writeJSON(w, http.StatusOK, APDUResponse{Data: hex.EncodeToString(resp)})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body APDUResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.log.Warn("Failed to write response", "err", err)
	}
}
