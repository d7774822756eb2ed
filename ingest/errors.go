package ingest

import "errors"

var (
	// ErrUnknownFormat is returned for a format name other than auto, json or msgpack
	ErrUnknownFormat = errors.New("unknown log format")

	// ErrMalformedLog is returned when the input cannot be decoded as an OCEL document
	ErrMalformedLog = errors.New("malformed event log")

	// ErrSchemaViolation is returned when a JSON log fails OCEL 2.0 schema validation
	ErrSchemaViolation = errors.New("event log violates OCEL 2.0 schema")

	// ErrTooLarge is returned when the input exceeds the configured size limit
	ErrTooLarge = errors.New("event log exceeds size limit")
)
