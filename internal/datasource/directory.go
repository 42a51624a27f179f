package datasource

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// DirectorySource reads dataset files from a local directory
type DirectorySource struct {
	name    string
	path    string
	enabled bool
}

// NewDirectorySource creates a new directory source
func NewDirectorySource(name, path string, enabled bool) *DirectorySource {
	return &DirectorySource{name: name, path: path, enabled: enabled}
}

// Name returns the name of the data source
func (s *DirectorySource) Name() string {
	return s.name
}

// IsEnabled returns whether this data source is enabled
func (s *DirectorySource) IsEnabled() bool {
	return s.enabled
}

// Fetch reads games.csv, odds.csv and model.csv from the directory
func (s *DirectorySource) Fetch(ctx context.Context) (*Files, error) {
	if !s.enabled {
		return nil, NewDataSourceError(s.name, ErrCodeDisabled, "source is disabled", ErrSourceDisabled)
	}

	files := &Files{Origin: s.path}
	targets := []struct {
		name string
		dst  *[]byte
	}{
		{GamesFile, &files.Games},
		{OddsFile, &files.Odds},
		{ModelFile, &files.Model},
	}
	for _, target := range targets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := os.ReadFile(filepath.Join(s.path, target.name))
		if errors.Is(err, fs.ErrNotExist) {
			return nil, NewDataSourceError(s.name, ErrCodeNotFound, fmt.Sprintf("missing %s", target.name), ErrFileNotFound)
		}
		if err != nil {
			return nil, NewDataSourceError(s.name, ErrCodeNetworkError, fmt.Sprintf("failed to read %s", target.name), err)
		}
		*target.dst = data
	}
	return files, nil
}
