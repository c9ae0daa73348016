package http

import (
	"time"

	"github.com/zentel/sim-gateway/internal/sim_service/domain"
)

// SimRecordRequestDTO is the JSON body accepted on the create routes.
// Timestamps and id are never client-supplied; the lifecycle assigns them.
type SimRecordRequestDTO struct {
	MSISDN     string         `json:"msisdn" validate:"required"`
	SimID      string         `json:"simId" validate:"required"`
	Endpoint   string         `json:"endpoint,omitempty"`
	Plan       string         `json:"plan" validate:"required"`
	Operator   string         `json:"operator,omitempty"`
	Allowances *AllowancesDTO `json:"allowances,omitempty"`
	Status     string         `json:"status,omitempty"`
}

type AllowancesDTO struct {
	DataAllowance  string `json:"dataAllowance,omitempty"`
	SMSAllowance   string `json:"smsAllowance,omitempty"`
	VoiceAllowance string `json:"voiceAllowance,omitempty"`
}

func (d *SimRecordRequestDTO) toDomain() *domain.SimRecord {
	rec := &domain.SimRecord{
		MSISDN:   d.MSISDN,
		SimID:    d.SimID,
		Endpoint: d.Endpoint,
		Plan:     d.Plan,
		Operator: d.Operator,
		Status:   d.Status,
	}
	if d.Allowances != nil {
		rec.Allowances = &domain.Allowances{
			DataAllowance:  d.Allowances.DataAllowance,
			SMSAllowance:   d.Allowances.SMSAllowance,
			VoiceAllowance: d.Allowances.VoiceAllowance,
		}
	}
	return rec
}

// APIResponse is the uniform success envelope returned by the JSON routes.
type APIResponse struct {
	Status    string    `json:"status"`
	Message   string    `json:"message"`
	Data      any       `json:"data,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func successResponse(data any, message string) APIResponse {
	return APIResponse{
		Status:    "success",
		Message:   message,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}
}

// ErrorResponse is the uniform error body for all API errors.
type ErrorResponse struct {
	Status    int       `json:"status"`
	Message   string    `json:"message"`
	Details   string    `json:"details,omitempty"`
	Path      string    `json:"path"`
	Timestamp time.Time `json:"timestamp"`
}
