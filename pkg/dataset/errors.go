package dataset

import "errors"

// Sentinel errors.
var (
	// ErrUnknownKind indicates an unsupported endpoint kind.
	ErrUnknownKind = errors.New("unknown endpoint kind")
	// ErrInvalidEndpoint indicates an endpoint that cannot be parsed for its kind.
	ErrInvalidEndpoint = errors.New("invalid endpoint")
	// ErrInvalidRecord indicates a dataset record that cannot become an interval.
	ErrInvalidRecord = errors.New("invalid record")
	// ErrUnknownFormat indicates a file extension with no decoder.
	ErrUnknownFormat = errors.New("unknown dataset format")
	// ErrSchema indicates a document rejected by the dataset JSON schema.
	ErrSchema = errors.New("dataset does not match schema")
	// ErrTooLarge indicates a dataset exceeding the configured size limit.
	ErrTooLarge = errors.New("dataset too large")
)
