package domain

import "errors"

var (
	// ErrNotFound indicates that no record exists for the requested identifier.
	ErrNotFound = errors.New("sim record not found")
	// ErrDuplicateSimID indicates a simId unique constraint violation.
	ErrDuplicateSimID = errors.New("sim id already exists")
	// ErrDuplicateMSISDN indicates an msisdn unique constraint violation.
	ErrDuplicateMSISDN = errors.New("msisdn already exists")
	// ErrMissingField indicates a required field was null or blank.
	ErrMissingField = errors.New("required field missing")
	// ErrInvalidFormat indicates a field value failed format validation.
	ErrInvalidFormat = errors.New("invalid field format")
	// ErrMalformedPayload indicates an inbound body that could not be decoded.
	ErrMalformedPayload = errors.New("malformed payload")
	// ErrUnknownDestination indicates an endpointId with no configuration entry.
	ErrUnknownDestination = errors.New("unknown destination")
	// ErrDestinationDisabled indicates a configured but disabled endpointId.
	ErrDestinationDisabled = errors.New("destination disabled")
	// ErrDispatchFailed indicates a southbound call failed after the record
	// was already persisted. It never undoes the local write.
	ErrDispatchFailed = errors.New("southbound dispatch failed")
)
