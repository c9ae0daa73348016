// Package codec maps the canonical SIM record to and from each wire format:
// the JSON record shape and the SOAP-style XML envelope. It is pure and does
// no I/O.
//
// The XML decode side deliberately uses tolerant substring extraction rather
// than a schema-validating parser. Upstream SOAP clients are not fully
// contract-compliant in practice (namespaced vs bare tags, short allowance
// tag names), and the fallback behavior here is a documented policy those
// clients depend on. Do not replace it with encoding/xml strict decoding.
package codec

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/zentel/sim-gateway/internal/sim_service/domain"
)

// EncodeRecordJSON serializes a canonical record to its JSON wire shape.
func EncodeRecordJSON(rec *domain.SimRecord) ([]byte, error) {
	return json.Marshal(rec)
}

// DecodeRecordJSON parses the JSON record shape into a canonical record.
// Structurally invalid input yields domain.ErrMalformedPayload.
func DecodeRecordJSON(data []byte) (*domain.SimRecord, error) {
	var rec domain.SimRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedPayload, err)
	}
	return &rec, nil
}

// EncodeRecordEnvelope builds the full-record SOAP-style envelope returned to
// XML clients. Every substituted value is escaped for the five reserved
// markup characters.
func EncodeRecordEnvelope(rec *domain.SimRecord) string {
	var data, sms, voice string
	if rec.Allowances != nil {
		data = rec.Allowances.DataAllowance
		sms = rec.Allowances.SMSAllowance
		voice = rec.Allowances.VoiceAllowance
	}
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/"
               xmlns:sim="http://zentel.io/sim">
    <soap:Header/>
    <soap:Body>
        <sim:SimRecord>
            <sim:msisdn>%s</sim:msisdn>
            <sim:simId>%s</sim:simId>
            <sim:endpoint>%s</sim:endpoint>
            <sim:plan>%s</sim:plan>
            <sim:operator>%s</sim:operator>
            <sim:status>%s</sim:status>
            <sim:allowances>
                <sim:data>%s</sim:data>
                <sim:sms>%s</sim:sms>
                <sim:voice>%s</sim:voice>
            </sim:allowances>
        </sim:SimRecord>
    </soap:Body>
</soap:Envelope>
`,
		escapeXML(rec.MSISDN),
		escapeXML(rec.SimID),
		escapeXML(rec.Endpoint),
		escapeXML(rec.Plan),
		escapeXML(rec.Operator),
		escapeXML(rec.Status),
		escapeXML(data),
		escapeXML(sms),
		escapeXML(voice))
}

// EncodeActivationEnvelope builds the minimal southbound envelope carrying
// only simId and plan.
func EncodeActivationEnvelope(req domain.SouthboundRequest) string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/"
               xmlns:sim="http://zentel.io/sim">
    <soap:Header/>
    <soap:Body>
        <sim:SimActivationRequest>
            <sim:simId>%s</sim:simId>
            <sim:plan>%s</sim:plan>
        </sim:SimActivationRequest>
    </soap:Body>
</soap:Envelope>
`,
		escapeXML(req.SimID),
		escapeXML(req.Plan))
}

// DecodeRecordEnvelope extracts a canonical record from an XML envelope.
// Extraction is tolerant: each field is located by its namespaced tag first,
// then its bare form; the allowance fields additionally fall back to the
// short tag names data/sms/voice. Fields that remain empty stay empty,
// except endpoint (defaults to NOT_SPECIFIED) and status, which is always
// forced to ACTIVE: decode never trusts client-asserted status.
func DecodeRecordEnvelope(soapXML string) *domain.SimRecord {
	rec := &domain.SimRecord{
		MSISDN:   extractTag(soapXML, "msisdn"),
		SimID:    extractTag(soapXML, "simId"),
		Endpoint: extractTag(soapXML, "endpoint"),
		Plan:     extractTag(soapXML, "plan"),
		Operator: extractTag(soapXML, "operator"),
		Status:   domain.StatusActive,
	}
	if rec.Endpoint == "" {
		rec.Endpoint = domain.EndpointNotSpecified
	}

	data := extractFirst(soapXML, "dataAllowance", "data")
	sms := extractFirst(soapXML, "smsAllowance", "sms")
	voice := extractFirst(soapXML, "voiceAllowance", "voice")
	if data != "" || sms != "" || voice != "" {
		rec.Allowances = &domain.Allowances{
			DataAllowance:  data,
			SMSAllowance:   sms,
			VoiceAllowance: voice,
		}
	}
	return rec
}

// extractFirst returns the first non-empty extraction among the given tag
// names, in order.
func extractFirst(xml string, tags ...string) string {
	for _, tag := range tags {
		if v := extractTag(xml, tag); v != "" {
			return v
		}
	}
	return ""
}

// extractTag locates the first <sim:tag>...</sim:tag> pair, falling back to
// the bare <tag>...</tag> form when the namespaced one is absent or empty
// after trimming. Returns "" when neither form yields content.
func extractTag(xml, tag string) string {
	if v := between(xml, "<sim:"+tag+">", "</sim:"+tag+">"); v != "" {
		return v
	}
	return between(xml, "<"+tag+">", "</"+tag+">")
}

func between(xml, open, close string) string {
	start := strings.Index(xml, open)
	end := strings.Index(xml, close)
	if start == -1 || end == -1 || end < start+len(open) {
		return ""
	}
	return strings.TrimSpace(xml[start+len(open) : end])
}

// escapeXML escapes the five reserved markup characters, ampersand first so
// already-substituted entities are not escaped twice.
func escapeXML(value string) string {
	value = strings.ReplaceAll(value, "&", "&amp;")
	value = strings.ReplaceAll(value, "<", "&lt;")
	value = strings.ReplaceAll(value, ">", "&gt;")
	value = strings.ReplaceAll(value, `"`, "&quot;")
	value = strings.ReplaceAll(value, "'", "&apos;")
	return value
}
