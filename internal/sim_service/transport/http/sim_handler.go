package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/zentel/sim-gateway/internal/sim_service/domain"
)

// SimGatewayService is the application surface consumed by the HTTP layer.
type SimGatewayService interface {
	Create(ctx context.Context, rec *domain.SimRecord, endpointID string) (*domain.SimRecord, error)
	CreateAsXML(ctx context.Context, rec *domain.SimRecord, endpointID string) (string, error)
	CreateFromXML(ctx context.Context, soapXML string, endpointID string) (*domain.SimRecord, error)
	ActivateFromEnvelope(ctx context.Context, soapXML string) (string, error)
	GetBySimID(ctx context.Context, simID string) (*domain.SimRecord, error)
	GetByMSISDN(ctx context.Context, msisdn string) (*domain.SimRecord, error)
	List(ctx context.Context, status string) ([]*domain.SimRecord, error)
	CountByStatus(ctx context.Context, status string) (int64, error)
	DeleteBySimID(ctx context.Context, simID string) error
}

// SimHandler exposes the northbound REST/SOAP routes.
type SimHandler struct {
	service  SimGatewayService
	logger   *slog.Logger
	validate *validator.Validate
}

func NewSimHandler(service SimGatewayService, logger *slog.Logger, validate *validator.Validate) *SimHandler {
	return &SimHandler{service: service, logger: logger, validate: validate}
}

// RegisterRoutes mounts the SIM routes; callers mount this under /api/v1/sim.
func (h *SimHandler) RegisterRoutes(r chi.Router) {
	r.Post("/rest-to-rest", h.RestToRest)
	r.Post("/rest-to-soap", h.RestToSoap)
	r.Post("/soap-to-rest", h.SoapToRest)
	r.Post("/soap-to-soap", h.SoapToSoap)
	r.Get("/all", h.ListSims)
	r.Get("/count", h.CountSims)
	r.Get("/by-msisdn/{msisdn}", h.GetSimByMSISDN)
	r.Get("/health", h.Health)
	r.Get("/{simId}", h.GetSimByID)
	r.Delete("/{simId}", h.DeleteSimByID)
}

func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			slog.Default().Error("Failed to write JSON response", "error", err)
		}
	}
}

func respondWithXML(w http.ResponseWriter, code int, body string) {
	w.Header().Set("Content-Type", "text/xml; charset=utf-8")
	w.WriteHeader(code)
	if _, err := io.WriteString(w, body); err != nil {
		slog.Default().Error("Failed to write XML response", "error", err)
	}
}

func respondWithError(w http.ResponseWriter, r *http.Request, code int, message, details string) {
	respondWithJSON(w, code, ErrorResponse{
		Status:    code,
		Message:   message,
		Details:   details,
		Path:      r.URL.Path,
		Timestamp: time.Now().UTC(),
	})
}

// mapDomainErrorToStatus translates core errors to HTTP statuses,
// most-specific-first. This mapping lives only at the transport boundary.
func mapDomainErrorToStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrDuplicateSimID),
		errors.Is(err, domain.ErrDuplicateMSISDN),
		errors.Is(err, domain.ErrDestinationDisabled):
		return http.StatusConflict
	case errors.Is(err, domain.ErrMissingField),
		errors.Is(err, domain.ErrInvalidFormat),
		errors.Is(err, domain.ErrMalformedPayload),
		errors.Is(err, domain.ErrUnknownDestination):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (h *SimHandler) handleServiceError(w http.ResponseWriter, r *http.Request, err error, message string) {
	code := mapDomainErrorToStatus(err)
	if code >= http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), message, "error", err)
	} else {
		h.logger.WarnContext(r.Context(), message, "error", err)
	}
	respondWithError(w, r, code, message, err.Error())
}

func (h *SimHandler) decodeCreateBody(w http.ResponseWriter, r *http.Request) (*domain.SimRecord, bool) {
	var dto SimRecordRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		respondWithError(w, r, http.StatusBadRequest, "Invalid request payload", err.Error())
		return nil, false
	}
	defer r.Body.Close()

	if err := h.validate.StructCtx(r.Context(), dto); err != nil {
		respondWithError(w, r, http.StatusBadRequest, "Validation failed", err.Error())
		return nil, false
	}
	return dto.toDomain(), true
}

// The create is durable before dispatch; a southbound failure after persist
// still yields 201, with the message flagging the failed dispatch.
const (
	msgActivated             = "SIM activated successfully"
	msgActivatedDispatchFail = "SIM activated, southbound dispatch failed"
)

func createMessage(dispatchErr error) string {
	if dispatchErr != nil {
		return msgActivatedDispatchFail
	}
	return msgActivated
}

func endpointIDParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	endpointID := r.URL.Query().Get("endpointId")
	if endpointID == "" {
		respondWithError(w, r, http.StatusBadRequest, "Missing required parameter", "endpointId query parameter is required")
		return "", false
	}
	return endpointID, true
}

// RestToRest accepts a JSON record and returns the persisted record as JSON.
func (h *SimHandler) RestToRest(w http.ResponseWriter, r *http.Request) {
	endpointID, ok := endpointIDParam(w, r)
	if !ok {
		return
	}
	rec, ok := h.decodeCreateBody(w, r)
	if !ok {
		return
	}

	h.logger.InfoContext(r.Context(), "REST to REST request received", "sim_id", rec.SimID, "endpoint_id", endpointID)

	saved, err := h.service.Create(r.Context(), rec, endpointID)
	if err != nil && !errors.Is(err, domain.ErrDispatchFailed) {
		h.handleServiceError(w, r, err, "Failed to create SIM record")
		return
	}
	respondWithJSON(w, http.StatusCreated, successResponse(saved, createMessage(err)))
}

// RestToSoap accepts a JSON record and returns the persisted record as an
// XML envelope.
func (h *SimHandler) RestToSoap(w http.ResponseWriter, r *http.Request) {
	endpointID, ok := endpointIDParam(w, r)
	if !ok {
		return
	}
	rec, ok := h.decodeCreateBody(w, r)
	if !ok {
		return
	}

	h.logger.InfoContext(r.Context(), "REST to SOAP request received", "sim_id", rec.SimID, "endpoint_id", endpointID)

	envelope, err := h.service.CreateAsXML(r.Context(), rec, endpointID)
	if err != nil && !errors.Is(err, domain.ErrDispatchFailed) {
		h.handleServiceError(w, r, err, "Failed to create SIM record")
		return
	}
	respondWithXML(w, http.StatusCreated, envelope)
}

// SoapToRest accepts an XML envelope and returns the persisted record as JSON.
func (h *SimHandler) SoapToRest(w http.ResponseWriter, r *http.Request) {
	endpointID, ok := endpointIDParam(w, r)
	if !ok {
		return
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		respondWithError(w, r, http.StatusBadRequest, "Invalid request payload", err.Error())
		return
	}
	defer r.Body.Close()

	h.logger.InfoContext(r.Context(), "SOAP to REST request received", "endpoint_id", endpointID)

	saved, err := h.service.CreateFromXML(r.Context(), string(body), endpointID)
	if err != nil && !errors.Is(err, domain.ErrDispatchFailed) {
		h.handleServiceError(w, r, err, "Failed to create SIM record")
		return
	}
	respondWithJSON(w, http.StatusCreated, successResponse(saved, createMessage(err)))
}

// SoapToSoap accepts an XML envelope and returns an XML envelope; routing is
// taken from the envelope's endpoint tag with a configured default.
func (h *SimHandler) SoapToSoap(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		respondWithError(w, r, http.StatusBadRequest, "Invalid request payload", err.Error())
		return
	}
	defer r.Body.Close()

	h.logger.InfoContext(r.Context(), "SOAP to SOAP request received")

	envelope, err := h.service.ActivateFromEnvelope(r.Context(), string(body))
	if err != nil && !errors.Is(err, domain.ErrDispatchFailed) {
		h.handleServiceError(w, r, err, "Failed to create SIM record")
		return
	}
	respondWithXML(w, http.StatusCreated, envelope)
}

func (h *SimHandler) GetSimByID(w http.ResponseWriter, r *http.Request) {
	simID := chi.URLParam(r, "simId")

	rec, err := h.service.GetBySimID(r.Context(), simID)
	if err != nil {
		h.handleServiceError(w, r, err, "Failed to get SIM record")
		return
	}
	respondWithJSON(w, http.StatusOK, successResponse(rec, "Operation completed successfully"))
}

func (h *SimHandler) GetSimByMSISDN(w http.ResponseWriter, r *http.Request) {
	msisdn := chi.URLParam(r, "msisdn")

	rec, err := h.service.GetByMSISDN(r.Context(), msisdn)
	if err != nil {
		h.handleServiceError(w, r, err, "Failed to get SIM record")
		return
	}
	respondWithJSON(w, http.StatusOK, successResponse(rec, "Operation completed successfully"))
}

func (h *SimHandler) ListSims(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")

	records, err := h.service.List(r.Context(), status)
	if err != nil {
		h.handleServiceError(w, r, err, "Failed to list SIM records")
		return
	}
	if records == nil {
		records = []*domain.SimRecord{}
	}
	respondWithJSON(w, http.StatusOK, successResponse(records, fmt.Sprintf("Found %d SIM record(s)", len(records))))
}

func (h *SimHandler) CountSims(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")

	count, err := h.service.CountByStatus(r.Context(), status)
	if err != nil {
		h.handleServiceError(w, r, err, "Failed to count SIM records")
		return
	}
	respondWithJSON(w, http.StatusOK, successResponse(map[string]int64{"count": count}, "Operation completed successfully"))
}

func (h *SimHandler) DeleteSimByID(w http.ResponseWriter, r *http.Request) {
	simID := chi.URLParam(r, "simId")

	if err := h.service.DeleteBySimID(r.Context(), simID); err != nil {
		h.handleServiceError(w, r, err, "Failed to delete SIM record")
		return
	}
	respondWithJSON(w, http.StatusOK, successResponse(nil, "SIM deleted successfully"))
}

func (h *SimHandler) Health(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, successResponse("OK", "SIM gateway is running"))
}
