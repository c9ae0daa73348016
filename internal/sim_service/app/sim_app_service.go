package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/zentel/sim-gateway/internal/sim_service/codec"
	"github.com/zentel/sim-gateway/internal/sim_service/domain"
)

var msisdnPattern = regexp.MustCompile(`^[0-9]{10,15}$`)

// Dispatcher is the southbound collaborator consumed by the lifecycle. It
// performs exactly one outbound call per create.
type Dispatcher interface {
	Send(ctx context.Context, endpointID string, req domain.SouthboundRequest) (string, error)
}

// SimService orchestrates the record lifecycle: validate, persist, derive
// the minimal payload, dispatch. The persisted record is returned regardless
// of dispatch outcome; a dispatch failure never rolls back the local write
// but is surfaced alongside the record so callers can report it.
type SimService struct {
	repo              domain.SimRepository
	dispatcher        Dispatcher
	defaultEndpointID string
	logger            *slog.Logger
}

func NewSimService(repo domain.SimRepository, dispatcher Dispatcher, defaultEndpointID string, logger *slog.Logger) *SimService {
	return &SimService{
		repo:              repo,
		dispatcher:        dispatcher,
		defaultEndpointID: defaultEndpointID,
		logger:            logger.With("service", "sim_app"),
	}
}

// Validate checks the inbound record before any storage interaction.
func (s *SimService) Validate(rec *domain.SimRecord) error {
	if strings.TrimSpace(rec.SimID) == "" {
		return fmt.Errorf("%w: simId is required", domain.ErrMissingField)
	}
	if strings.TrimSpace(rec.MSISDN) == "" {
		return fmt.Errorf("%w: msisdn is required", domain.ErrMissingField)
	}
	if strings.TrimSpace(rec.Plan) == "" {
		return fmt.Errorf("%w: plan is required", domain.ErrMissingField)
	}
	if !msisdnPattern.MatchString(rec.MSISDN) {
		return fmt.Errorf("%w: msisdn must be 10-15 digits", domain.ErrInvalidFormat)
	}
	return nil
}

// Create runs the full lifecycle for one record. endpointID is the routing
// target for the southbound call; it is supplied separately from the
// record's own endpoint field, which is stored as-is and never reconciled
// against the routing target.
//
// When the southbound call fails after the record is persisted, Create
// returns BOTH the saved record and the dispatch error. The record is
// durable at that point; callers decide how to present the partial outcome.
func (s *SimService) Create(ctx context.Context, rec *domain.SimRecord, endpointID string) (*domain.SimRecord, error) {
	s.logger.InfoContext(ctx, "Processing SIM create", "sim_id", rec.SimID, "endpoint_id", endpointID)

	if err := s.Validate(rec); err != nil {
		createRejectedCounter.WithLabelValues(rejectionReason(err)).Inc()
		return nil, err
	}

	// Pre-check only; the repository's unique constraints are authoritative
	// under concurrent creates of the same simId.
	exists, err := s.repo.ExistsBySimID(ctx, rec.SimID)
	if err != nil {
		return nil, err
	}
	if exists {
		createRejectedCounter.WithLabelValues("duplicate").Inc()
		return nil, fmt.Errorf("%w: %s", domain.ErrDuplicateSimID, rec.SimID)
	}

	rec.ApplyDefaults(time.Now().UTC())
	saved, err := s.repo.Save(ctx, rec)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "SIM record saved", "sim_id", saved.SimID, "id", saved.ID)

	// The record is durable at this point. The dispatch context is detached
	// from the request so a client disconnect cannot abort the in-flight
	// call; the dispatcher applies the destination timeout itself.
	dispatchCtx := context.WithoutCancel(ctx)
	southboundReq := domain.DeriveSouthbound(saved)
	if _, err := s.dispatcher.Send(dispatchCtx, endpointID, southboundReq); err != nil {
		recordsCreatedCounter.WithLabelValues("failure").Inc()
		s.logger.WarnContext(ctx, "Southbound dispatch failed after persist; record kept",
			"sim_id", saved.SimID, "endpoint_id", endpointID, "error", err)
		return saved, err
	}

	recordsCreatedCounter.WithLabelValues("success").Inc()
	return saved, nil
}

// CreateAsXML creates the record and returns the full-record envelope, for
// clients that send JSON but expect XML back. As with Create, a post-persist
// dispatch error is returned alongside the envelope.
func (s *SimService) CreateAsXML(ctx context.Context, rec *domain.SimRecord, endpointID string) (string, error) {
	saved, err := s.Create(ctx, rec, endpointID)
	if saved == nil {
		return "", err
	}
	return codec.EncodeRecordEnvelope(saved), err
}

// CreateFromXML decodes an inbound envelope and runs the create lifecycle.
func (s *SimService) CreateFromXML(ctx context.Context, soapXML string, endpointID string) (*domain.SimRecord, error) {
	rec := codec.DecodeRecordEnvelope(soapXML)
	return s.Create(ctx, rec, endpointID)
}

// ActivateFromEnvelope handles the XML-in/XML-out activation flow. The
// routing target comes from the envelope's own endpoint tag, falling back to
// the configured default when the tag is absent.
func (s *SimService) ActivateFromEnvelope(ctx context.Context, soapXML string) (string, error) {
	rec := codec.DecodeRecordEnvelope(soapXML)

	endpointID := rec.Endpoint
	if endpointID == "" || endpointID == domain.EndpointNotSpecified {
		endpointID = s.defaultEndpointID
	}

	saved, err := s.Create(ctx, rec, endpointID)
	if saved == nil {
		return "", err
	}
	return codec.EncodeRecordEnvelope(saved), err
}

// GetBySimID retrieves a record or domain.ErrNotFound.
func (s *SimService) GetBySimID(ctx context.Context, simID string) (*domain.SimRecord, error) {
	return s.repo.GetBySimID(ctx, simID)
}

// GetByMSISDN retrieves a record by subscriber number or domain.ErrNotFound.
func (s *SimService) GetByMSISDN(ctx context.Context, msisdn string) (*domain.SimRecord, error) {
	return s.repo.GetByMSISDN(ctx, msisdn)
}

// List returns all records, optionally filtered by exact status.
func (s *SimService) List(ctx context.Context, status string) ([]*domain.SimRecord, error) {
	return s.repo.List(ctx, status)
}

// CountByStatus reports how many records carry the given status.
func (s *SimService) CountByStatus(ctx context.Context, status string) (int64, error) {
	return s.repo.CountByStatus(ctx, status)
}

// DeleteBySimID removes a record entirely. No southbound call is made on
// delete.
func (s *SimService) DeleteBySimID(ctx context.Context, simID string) error {
	if err := s.repo.DeleteBySimID(ctx, simID); err != nil {
		return err
	}
	recordsDeletedCounter.Inc()
	s.logger.InfoContext(ctx, "SIM record deleted", "sim_id", simID)
	return nil
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrMissingField):
		return "missing_field"
	case errors.Is(err, domain.ErrInvalidFormat):
		return "invalid_format"
	default:
		return "other"
	}
}
