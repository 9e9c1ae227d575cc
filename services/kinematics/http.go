package kinematics

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"go.viam.com/kinematics/referenceframe"
)

type errorResponse struct {
	Error string `json:"error"`
}

// NoConvergenceResponse is the body of a position request that did not converge.
type NoConvergenceResponse struct {
	Error string `json:"error"`
	*PositionIKResponse
}

type handler struct {
	svc *Service
}

// NewHandler returns the HTTP API of svc:
//
//	GET  /info         solver info
//	POST /fk           forward kinematics
//	POST /ik/velocity  velocity inverse kinematics
//	POST /ik/position  position inverse kinematics
//	GET  /metrics      prometheus metrics
//
// Malformed requests, wrong vector lengths and unknown links or frames are 400s. A position solve
// that does not converge is a 422 carrying the best effort.
func NewHandler(svc *Service) http.Handler {
	h := &handler{svc: svc}
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/info", h.info)
	r.Post("/fk", h.fk)
	r.Post("/ik/velocity", h.velocityIK)
	r.Post("/ik/position", h.positionIK)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(svc.Registry(), promhttp.HandlerOpts{}))
	return r
}

func (h *handler) info(w http.ResponseWriter, r *http.Request) {
	info, err := h.svc.GetSolverInfo(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, info)
}

func (h *handler) fk(w http.ResponseWriter, r *http.Request) {
	var req FKRequest
	if !h.decode(w, r, &req) {
		return
	}
	resp, err := h.svc.ComputeFK(r.Context(), req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *handler) velocityIK(w http.ResponseWriter, r *http.Request) {
	var req VelocityIKRequest
	if !h.decode(w, r, &req) {
		return
	}
	resp, err := h.svc.ComputeVelocityIK(r.Context(), req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *handler) positionIK(w http.ResponseWriter, r *http.Request) {
	var req PositionIKRequest
	if !h.decode(w, r, &req) {
		return
	}
	resp, err := h.svc.ComputePositionIK(r.Context(), req)
	switch {
	case err == nil:
		h.writeJSON(w, http.StatusOK, resp)
	case resp != nil && isNoConvergence(err):
		h.writeJSON(w, http.StatusUnprocessableEntity, NoConvergenceResponse{Error: err.Error(), PositionIKResponse: resp})
	default:
		h.writeError(w, err)
	}
}

func (h *handler) decode(w http.ResponseWriter, r *http.Request, req interface{}) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: errors.Wrap(err, "invalid request body").Error()})
		return false
	}
	return true
}

func (h *handler) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, referenceframe.ErrDimension),
		errors.Is(err, referenceframe.ErrModel),
		errors.Is(err, ErrUnknownLink),
		errors.Is(err, ErrUnknownFrame):
		status = http.StatusBadRequest
	case isNoConvergence(err):
		status = http.StatusUnprocessableEntity
	}
	h.writeJSON(w, status, errorResponse{Error: err.Error()})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.svc.logger.Warnw("failed to encode response", "error", err)
	}
}
