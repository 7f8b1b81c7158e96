package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"led-gateway/internal/domain/model"
	"led-gateway/internal/metrics"
	"led-gateway/internal/ports"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	resultOK    = "ok"
	resultError = "error"
)

// Server is the device-control REST API.
type Server struct {
	leds     ports.LEDPort
	logger   *slog.Logger
	metrics  *metrics.Device
	gatherer prometheus.Gatherer
}

type healthResponse struct {
	Status string `json:"status"`
	ports.ActuatorStatus
}

func NewServer(leds ports.LEDPort, logger *slog.Logger, m *metrics.Device, gatherer prometheus.Gatherer) *Server {
	return &Server{
		leds:     leds,
		logger:   logger,
		metrics:  m,
		gatherer: gatherer,
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /leds", s.handleList)
	mux.HandleFunc("GET /leds/{$}", s.handleList)
	mux.HandleFunc("PUT /leds/{$}", s.handleSetAll)
	mux.HandleFunc("GET /leds/{id}", s.handleGet)
	mux.HandleFunc("PUT /leds/{id}", s.handleSetState)
	mux.HandleFunc("POST /leds/{id}/on", s.handleSwitch(model.StateOn))
	mux.HandleFunc("POST /leds/{id}/off", s.handleSwitch(model.StateOff))
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	var h http.Handler = mux
	h = corsMiddleware(h)
	h = loggingMiddleware(s.logger, h)
	h = recoveryMiddleware(s.logger, h)
	return h
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	leds, err := s.leds.List(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, leds)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := ledID(w, r)
	if !ok {
		return
	}
	led, err := s.leds.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, led)
}

func (s *Server) handleSetState(w http.ResponseWriter, r *http.Request) {
	id, ok := ledID(w, r)
	if !ok {
		return
	}
	update, ok := decodeStateUpdate(w, r)
	if !ok {
		return
	}
	s.set(w, r, id, update.State)
}

func (s *Server) handleSwitch(state model.State) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := ledID(w, r)
		if !ok {
			return
		}
		s.set(w, r, id, state)
	}
}

func (s *Server) set(w http.ResponseWriter, r *http.Request, id int, state model.State) {
	led, err := s.leds.SetState(r.Context(), id, state)
	s.record(r, state, err)
	if err != nil {
		s.logger.Warn("LED command failed", "id", id, "state", state, "error", err)
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, led)
}

func (s *Server) handleSetAll(w http.ResponseWriter, r *http.Request) {
	update, ok := decodeStateUpdate(w, r)
	if !ok {
		return
	}
	leds, err := s.leds.SetAll(r.Context(), update.State)
	s.record(r, update.State, err)
	if err != nil {
		s.logger.Warn("Bulk LED command failed", "state", update.State, "error", err)
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, leds)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", ActuatorStatus: s.leds.Status()})
}

// record updates the command counter and recounts lit LEDs.
func (s *Server) record(r *http.Request, state model.State, err error) {
	result := resultOK
	if err != nil {
		result = resultError
	}
	s.metrics.Commands.WithLabelValues(string(state), result).Inc()

	leds, lerr := s.leds.List(r.Context())
	if lerr != nil {
		return
	}
	on := 0
	for _, led := range leds {
		if led.State == model.StateOn {
			on++
		}
	}
	s.metrics.LEDsOn.Set(float64(on))
}

func ledID(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.PathValue("id")
	id, err := strconv.Atoi(raw)
	if err != nil || id < 1 {
		writeError(w, http.StatusNotFound, codeNotFound, fmt.Sprintf("led %q not found", raw))
		return 0, false
	}
	return id, true
}

func decodeStateUpdate(w http.ResponseWriter, r *http.Request) (model.StateUpdate, bool) {
	var update model.StateUpdate
	body := http.MaxBytesReader(w, r.Body, maxRequestBodyLen)
	if err := json.NewDecoder(body).Decode(&update); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, codeBodyTooLarge, err.Error())
			return update, false
		}
		writeError(w, http.StatusBadRequest, codeBadRequest, "invalid body: "+err.Error())
		return update, false
	}
	if !update.State.Valid() {
		writeError(w, http.StatusBadRequest, codeBadRequest, model.ErrInvalidState.Error())
		return update, false
	}
	return update, true
}
