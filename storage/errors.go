package storage

import "errors"

// Storage error constants
var (
	// ErrReportNotFound is returned when a report is not found
	ErrReportNotFound = errors.New("report not found")

	// ErrInvalidReport is returned when a report cannot be persisted as given
	ErrInvalidReport = errors.New("invalid report")

	// ErrDatabaseClosed is returned when attempting to use a closed database connection
	ErrDatabaseClosed = errors.New("database is closed")
)
