// Package datasource fetches raw dataset files from configured providers.
package datasource

import (
	"context"
	"errors"
)

// Dataset file names every provider serves
const (
	GamesFile = "games.csv"
	OddsFile  = "odds.csv"
	ModelFile = "model.csv"
)

// DataSource defines the interface for fetching dataset files from a provider
type DataSource interface {
	// Fetch retrieves the games, odds and model files
	Fetch(ctx context.Context) (*Files, error)

	// Name returns the name of the data source
	Name() string

	// IsEnabled returns whether this data source is currently enabled
	IsEnabled() bool
}

// Files holds the raw CSV content of one dataset
type Files struct {
	Games  []byte
	Odds   []byte
	Model  []byte
	Origin string // directory or URL the files came from
}

// DataSourceError represents errors from data source operations
type DataSourceError struct {
	Source  string // Data source name
	Code    string // Error code (e.g., "rate_limit_exceeded")
	Message string // Error message
	Err     error  // Underlying error
}

func (e DataSourceError) Error() string {
	if e.Err != nil {
		return e.Source + ": " + e.Code + ": " + e.Message + " (" + e.Err.Error() + ")"
	}
	return e.Source + ": " + e.Code + ": " + e.Message
}

// Unwrap returns the underlying error
func (e DataSourceError) Unwrap() error {
	return e.Err
}

// Common error codes
const (
	ErrCodeRateLimitExceeded    = "rate_limit_exceeded"
	ErrCodeAuthenticationFailed = "authentication_failed"
	ErrCodeNotFound             = "not_found"
	ErrCodeNetworkError         = "network_error"
	ErrCodeServerError          = "server_error"
	ErrCodeDisabled             = "disabled"
)

var (
	ErrSourceDisabled = errors.New("data source disabled")
	ErrFileNotFound   = errors.New("dataset file not found")
)

// NewDataSourceError creates a new data source error
func NewDataSourceError(source, code, message string, err error) DataSourceError {
	return DataSourceError{
		Source:  source,
		Code:    code,
		Message: message,
		Err:     err,
	}
}
