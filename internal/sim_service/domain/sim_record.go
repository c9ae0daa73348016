package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// StatusActive is the status assigned to every record at creation.
	StatusActive = "ACTIVE"
	// EndpointNotSpecified is stored when a client supplies no endpoint tag.
	// It is descriptive metadata only; routing is driven by the endpointId
	// request parameter, which may legitimately differ from this field.
	EndpointNotSpecified = "NOT_SPECIFIED"
)

// Allowances holds the optional data/SMS/voice quota descriptions of a SIM.
// Values are free-form strings (e.g. "50GB", "UNLIMITED").
type Allowances struct {
	DataAllowance  string `json:"dataAllowance,omitempty"`
	SMSAllowance   string `json:"smsAllowance,omitempty"`
	VoiceAllowance string `json:"voiceAllowance,omitempty"`
}

// SimRecord is the canonical, protocol-independent representation of a SIM.
// It is the shape persisted to storage and returned to callers regardless of
// which wire format the request arrived in.
type SimRecord struct {
	ID         uuid.UUID   `json:"id,omitempty"`
	MSISDN     string      `json:"msisdn"`
	SimID      string      `json:"simId"`
	Endpoint   string      `json:"endpoint,omitempty"`
	Plan       string      `json:"plan"`
	Operator   string      `json:"operator,omitempty"`
	Allowances *Allowances `json:"allowances,omitempty"`
	Status     string      `json:"status,omitempty"`
	CreatedAt  time.Time   `json:"createdAt,omitempty"`
	UpdatedAt  time.Time   `json:"updatedAt,omitempty"`
}

// ApplyDefaults normalizes the record immediately before persistence:
// blank status becomes ACTIVE, blank endpoint becomes NOT_SPECIFIED, and
// both timestamps are set to now. Client-supplied timestamps are discarded.
func (r *SimRecord) ApplyDefaults(now time.Time) {
	if strings.TrimSpace(r.Status) == "" {
		r.Status = StatusActive
	}
	if strings.TrimSpace(r.Endpoint) == "" {
		r.Endpoint = EndpointNotSpecified
	}
	r.CreatedAt = now
	r.UpdatedAt = now
}

// SouthboundRequest is the minimal payload forwarded to backend systems.
// Only simId and plan cross the southbound boundary; subscriber-identifying
// fields and allowances never do. It is derived per dispatch, never persisted.
type SouthboundRequest struct {
	SimID string `json:"simId"`
	Plan  string `json:"plan"`
}

// DeriveSouthbound builds the minimal southbound payload from a record.
func DeriveSouthbound(r *SimRecord) SouthboundRequest {
	return SouthboundRequest{SimID: r.SimID, Plan: r.Plan}
}
