package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/parking-sim/parking-sim/engine"
	"github.com/parking-sim/parking-sim/store"
)

// simulateRequest is the body of POST /api/parking/simulate.
type simulateRequest struct {
	Vehicles         []engine.VehicleRequest `json:"vehicles"`
	Policy           string                  `json:"policy"`
	InitialFillRatio float64                 `json:"initial_fill_ratio"`
}

// compareRequest is the body of POST /api/parking/compare.
type compareRequest struct {
	Vehicles         []engine.VehicleRequest `json:"vehicles"`
	InitialFillRatio float64                 `json:"initial_fill_ratio"`
}

// updateAllocationRequest is the body of PUT /api/parking/allocation/{id}.
type updateAllocationRequest struct {
	DepartureTime time.Time `json:"departure_time"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "smart parking API is running"})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.service.Status())
}

func (s *Server) handleStatusByPolicy(w http.ResponseWriter, r *http.Request) {
	status, err := s.service.StatusFor(chi.URLParam(r, "policy"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleAllocate(w http.ResponseWriter, r *http.Request) {
	var req engine.VehicleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	rec, err := s.service.Allocate(req, r.URL.Query().Get("policy"))
	if err != nil {
		writeError(w, statusOf(err), err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) handleAllocateBulk(w http.ResponseWriter, r *http.Request) {
	var reqs []engine.VehicleRequest
	if err := json.NewDecoder(r.Body).Decode(&reqs); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, s.service.AllocateBulk(reqs, r.URL.Query().Get("policy")))
}

func (s *Server) handleListAllocations(w http.ResponseWriter, r *http.Request) {
	f := store.Filter{
		ActiveOnly: r.URL.Query().Get("active_only") != "false",
		VehicleID:  r.URL.Query().Get("vehicle_id"),
	}
	records, err := s.service.List(r.URL.Query().Get("policy"), f)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleGetAllocation(w http.ResponseWriter, r *http.Request) {
	rec, ok, err := s.service.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, store.ErrNotFound)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleUpdateAllocation(w http.ResponseWriter, r *http.Request) {
	var body updateAllocationRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	rec, err := s.service.ExtendDeparture(chi.URLParam(r, "id"), body.DepartureTime)
	if err != nil {
		writeError(w, statusOf(err), err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleEndAllocation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.service.End(id); err != nil {
		writeError(w, statusOf(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "allocation " + id + " has been ended"})
}

func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	var body simulateRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	report, err := s.service.Simulate(body.Vehicles, body.Policy, body.InitialFillRatio)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	var body compareRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	reports, err := s.service.Compare(body.Vehicles, body.InitialFillRatio)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, reports)
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	policy := chi.URLParam(r, "policy")
	if err := s.service.Clear(policy); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": policy + " allocations cleared"})
}

// statusOf maps service errors onto HTTP codes: rejections are conflicts,
// malformed input is a bad request, unknown ids are 404.
func statusOf(err error) int {
	switch {
	case errors.Is(err, ErrRejected):
		return http.StatusConflict
	case errors.Is(err, engine.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, engine.ErrConflict), errors.Is(err, engine.ErrNotOccupied):
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.Errorf("encoding response: %v", err)
	}
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, errorResponse{Error: err.Error()})
}
