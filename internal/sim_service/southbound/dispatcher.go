package southbound

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/zentel/sim-gateway/internal/platform/config"
	"github.com/zentel/sim-gateway/internal/sim_service/codec"
	"github.com/zentel/sim-gateway/internal/sim_service/domain"
)

const (
	protocolREST = "REST"
	protocolSOAP = "SOAP"

	// soapUnavailableBody is returned in place of a response when a SOAP
	// destination cannot be reached. SOAP dispatch failures are swallowed
	// while REST failures propagate; this asymmetry is a load-bearing
	// contract for existing callers, not an oversight to unify.
	soapUnavailableBody = "<error>Backend unavailable</error>"
)

// Dispatcher performs the single outbound call per create: it resolves the
// destination, encodes the minimal payload in the destination's wire format
// and posts it, bounded by the destination's configured timeout. No retries.
type Dispatcher struct {
	registry   *Registry
	httpClient *http.Client
	logger     *slog.Logger
}

func NewDispatcher(registry *Registry, logger *slog.Logger, httpClient *http.Client) *Dispatcher {
	if httpClient == nil {
		// per-call deadlines come from the destination config; the client
		// itself carries no timeout
		httpClient = &http.Client{}
	}
	return &Dispatcher{
		registry:   registry,
		httpClient: httpClient,
		logger:     logger.With("component", "southbound_dispatcher"),
	}
}

// Send forwards the minimal payload to the identified destination and returns
// the raw response body. For SOAP destinations a transport failure yields the
// sentinel error body and a nil error; for REST destinations it yields
// domain.ErrDispatchFailed.
func (d *Dispatcher) Send(ctx context.Context, endpointID string, req domain.SouthboundRequest) (string, error) {
	cfg, err := d.registry.Resolve(endpointID)
	if err != nil {
		return "", err
	}

	d.logger.InfoContext(ctx, "Dispatching southbound request",
		"destination", endpointID, "url", cfg.URL, "protocol", cfg.Protocol, "sim_id", req.SimID)

	switch {
	case strings.EqualFold(cfg.Protocol, protocolSOAP):
		return d.callSOAP(ctx, endpointID, cfg, req), nil
	case strings.EqualFold(cfg.Protocol, protocolREST):
		return d.callREST(ctx, endpointID, cfg, req)
	default:
		return "", fmt.Errorf("unsupported protocol %q for destination %s", cfg.Protocol, endpointID)
	}
}

func (d *Dispatcher) callREST(ctx context.Context, endpointID string, cfg config.EndpointConfig, req domain.SouthboundRequest) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("%w: marshaling payload: %v", domain.ErrDispatchFailed, err)
	}

	respBody, err := d.post(ctx, endpointID, cfg, protocolREST, "application/json", string(body), nil)
	if err != nil {
		dispatchTotalCounter.WithLabelValues(endpointID, protocolREST, "failure").Inc()
		d.logger.ErrorContext(ctx, "REST backend call failed", "destination", endpointID, "error", err)
		return "", fmt.Errorf("%w: %v", domain.ErrDispatchFailed, err)
	}

	dispatchTotalCounter.WithLabelValues(endpointID, protocolREST, "success").Inc()
	if respBody == "" {
		return "{}", nil
	}
	return respBody, nil
}

func (d *Dispatcher) callSOAP(ctx context.Context, endpointID string, cfg config.EndpointConfig, req domain.SouthboundRequest) string {
	envelope := codec.EncodeActivationEnvelope(req)
	headers := map[string]string{"SOAPAction": `""`}

	respBody, err := d.post(ctx, endpointID, cfg, protocolSOAP, "text/xml", envelope, headers)
	if err != nil {
		dispatchTotalCounter.WithLabelValues(endpointID, protocolSOAP, "swallowed_failure").Inc()
		d.logger.WarnContext(ctx, "SOAP backend call failed, returning sentinel body",
			"destination", endpointID, "error", err)
		return soapUnavailableBody
	}

	dispatchTotalCounter.WithLabelValues(endpointID, protocolSOAP, "success").Inc()
	if respBody == "" {
		return "<empty/>"
	}
	return respBody
}

// post performs one HTTP POST bounded by the destination timeout and treats
// any non-2xx status as a failure.
func (d *Dispatcher) post(ctx context.Context, endpointID string, cfg config.EndpointConfig, protocol, contentType, body string, headers map[string]string) (string, error) {
	timeout := time.Duration(cfg.TimeoutMillis) * time.Millisecond
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(callCtx, http.MethodPost, cfg.URL, strings.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("building request: %w", err)
	}
	httpReq.Header.Set("Content-Type", contentType)
	for k, v := range headers {
		httpReq.Header.Set(k, v)
	}

	start := time.Now()
	httpResp, err := d.httpClient.Do(httpReq)
	dispatchDurationHist.WithLabelValues(endpointID, protocol).Observe(time.Since(start).Seconds())
	if err != nil {
		return "", fmt.Errorf("posting to %s: %w", cfg.URL, err)
	}
	defer httpResp.Body.Close()

	respBytes, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response from %s: %w", cfg.URL, err)
	}
	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return "", fmt.Errorf("backend %s returned status %d", endpointID, httpResp.StatusCode)
	}

	d.logger.DebugContext(ctx, "Southbound response received",
		"destination", endpointID, "status_code", httpResp.StatusCode, "body_len", len(respBytes))
	return string(respBytes), nil
}
