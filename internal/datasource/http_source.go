package datasource

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// HTTPSource downloads dataset files from a base URL
type HTTPSource struct {
	name    string
	baseURL string
	apiKey  string
	enabled bool
	client  *RateLimitedHTTPClient
}

// NewHTTPSource creates a new HTTP source
func NewHTTPSource(name, baseURL, apiKey string, enabled bool, client *RateLimitedHTTPClient) *HTTPSource {
	return &HTTPSource{
		name:    name,
		baseURL: baseURL,
		apiKey:  apiKey,
		enabled: enabled,
		client:  client,
	}
}

// Name returns the name of the data source
func (s *HTTPSource) Name() string {
	return s.name
}

// IsEnabled returns whether this data source is enabled
func (s *HTTPSource) IsEnabled() bool {
	return s.enabled
}

// Fetch downloads games.csv, odds.csv and model.csv below the base URL
func (s *HTTPSource) Fetch(ctx context.Context) (*Files, error) {
	if !s.enabled {
		return nil, NewDataSourceError(s.name, ErrCodeDisabled, "source is disabled", ErrSourceDisabled)
	}

	files := &Files{Origin: s.baseURL}
	var err error
	if files.Games, err = s.fetchFile(ctx, GamesFile); err != nil {
		return nil, err
	}
	if files.Odds, err = s.fetchFile(ctx, OddsFile); err != nil {
		return nil, err
	}
	if files.Model, err = s.fetchFile(ctx, ModelFile); err != nil {
		return nil, err
	}
	return files, nil
}

func (s *HTTPSource) fetchFile(ctx context.Context, name string) ([]byte, error) {
	target, err := url.JoinPath(s.baseURL, name)
	if err != nil {
		return nil, NewDataSourceError(s.name, ErrCodeNetworkError, "invalid base url", err)
	}

	header := http.Header{}
	header.Set("Accept", "text/csv")
	if s.apiKey != "" {
		header.Set("Authorization", fmt.Sprintf("Bearer %s", s.apiKey))
	}

	resp, err := s.client.Get(ctx, target, header)
	if err != nil {
		return nil, NewDataSourceError(s.name, ErrCodeNetworkError, fmt.Sprintf("failed to fetch %s", name), err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, NewDataSourceError(s.name, ErrCodeAuthenticationFailed, "invalid API key", nil)
	case resp.StatusCode == http.StatusNotFound:
		return nil, NewDataSourceError(s.name, ErrCodeNotFound, fmt.Sprintf("missing %s", name), ErrFileNotFound)
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, NewDataSourceError(s.name, ErrCodeRateLimitExceeded, "rate limit exceeded", nil)
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, NewDataSourceError(s.name, ErrCodeServerError, fmt.Sprintf("unexpected status %d: %s", resp.StatusCode, string(body)), nil)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, NewDataSourceError(s.name, ErrCodeNetworkError, fmt.Sprintf("failed to read %s", name), err)
	}
	return data, nil
}
