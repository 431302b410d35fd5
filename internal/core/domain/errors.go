package domain

import "errors"

// Domain errors represent extraction failures independent of the transport.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidConfig indicates the tap configuration failed validation.
	ErrInvalidConfig = errors.New("invalid config")

	// ErrStreamNotFound indicates a stream name that is not in the catalog.
	ErrStreamNotFound = errors.New("stream not found")

	// ErrSchemaValidation indicates a record did not match its stream schema.
	ErrSchemaValidation = errors.New("record does not match schema")

	// Authentication Errors.

	// ErrAuthRequired indicates no access token is configured.
	ErrAuthRequired = errors.New("authentication required")

	// ErrAuthInvalid indicates the access token was rejected.
	ErrAuthInvalid = errors.New("authentication invalid")

	// ErrTokenExchange indicates a page-scoped token could not be obtained.
	ErrTokenExchange = errors.New("token exchange failed")

	// Connector Errors.

	// ErrConnectorClosed indicates the connector has been closed.
	ErrConnectorClosed = errors.New("connector closed")

	// ErrPartitionSkipped indicates a partition was abandoned because the
	// API refused access to it. Extraction continues with other partitions.
	ErrPartitionSkipped = errors.New("partition skipped")

	// ErrRateLimited indicates the API rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")

	// ErrTooMuchData indicates the API kept rejecting a request as too large
	// after every retry with a smaller window.
	ErrTooMuchData = errors.New("too much data requested")
)
