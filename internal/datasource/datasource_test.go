package datasource

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/edgeboard/internal/config"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func writeDataset(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(name+"\n"), 0o600))
	}
}

func TestDirectorySourceFetch(t *testing.T) {
	dir := t.TempDir()
	writeDataset(t, dir, GamesFile, OddsFile, ModelFile)

	source := NewDirectorySource("local", dir, true)
	files, err := source.Fetch(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "games.csv\n", string(files.Games))
	assert.Equal(t, "odds.csv\n", string(files.Odds))
	assert.Equal(t, "model.csv\n", string(files.Model))
	assert.Equal(t, dir, files.Origin)
	assert.Equal(t, "local", source.Name())
}

func TestDirectorySourceMissingFile(t *testing.T) {
	dir := t.TempDir()
	writeDataset(t, dir, GamesFile, OddsFile)

	_, err := NewDirectorySource("local", dir, true).Fetch(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrFileNotFound))

	var dsErr DataSourceError
	require.True(t, errors.As(err, &dsErr))
	assert.Equal(t, ErrCodeNotFound, dsErr.Code)
}

func TestDirectorySourceDisabled(t *testing.T) {
	source := NewDirectorySource("local", t.TempDir(), false)
	assert.False(t, source.IsEnabled())

	_, err := source.Fetch(context.Background())
	assert.ErrorIs(t, err, ErrSourceDisabled)
}

func TestHTTPSourceFetch(t *testing.T) {
	var auth atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth.Store(r.Header.Get("Authorization"))
		switch r.URL.Path {
		case "/data/games.csv", "/data/odds.csv", "/data/model.csv":
			w.Header().Set("Content-Type", "text/csv")
			_, _ = w.Write([]byte(filepath.Base(r.URL.Path)))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client := NewRateLimitedHTTPClient(HTTPClientConfig{Timeout: 5 * time.Second}, quietLogger())
	source := NewHTTPSource("remote", server.URL+"/data", "secret", true, client)

	files, err := source.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "games.csv", string(files.Games))
	assert.Equal(t, "odds.csv", string(files.Odds))
	assert.Equal(t, "model.csv", string(files.Model))
	assert.Equal(t, "Bearer secret", auth.Load())
}

func TestHTTPSourceStatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		code   string
	}{
		{"unauthorized", http.StatusUnauthorized, ErrCodeAuthenticationFailed},
		{"forbidden", http.StatusForbidden, ErrCodeAuthenticationFailed},
		{"not found", http.StatusNotFound, ErrCodeNotFound},
		{"bad request", http.StatusBadRequest, ErrCodeServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			client := NewRateLimitedHTTPClient(HTTPClientConfig{Timeout: 5 * time.Second}, quietLogger())
			_, err := NewHTTPSource("remote", server.URL, "", true, client).Fetch(context.Background())
			require.Error(t, err)

			var dsErr DataSourceError
			require.True(t, errors.As(err, &dsErr))
			assert.Equal(t, tt.code, dsErr.Code)
		})
	}
}

func TestRateLimitedClientCircuitBreaker(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewRateLimitedHTTPClient(HTTPClientConfig{
		Timeout:           5 * time.Second,
		MaxRetries:        0,
		CircuitBreakerMax: 2,
	}, quietLogger())

	for i := 0; i < 2; i++ {
		_, err := client.Get(context.Background(), server.URL, nil)
		require.Error(t, err)
	}
	assert.True(t, client.IsOpen())

	_, err := client.Get(context.Background(), server.URL, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "circuit breaker open")
	assert.Equal(t, int32(2), calls.Load())

	client.Reset()
	assert.False(t, client.IsOpen())
}

func TestFactoryNewDataSource(t *testing.T) {
	factory := NewFactory(quietLogger())

	dir, err := factory.NewDataSource(config.DataSourceConfig{Name: "local", Type: "directory", Path: "/tmp", Enabled: true})
	require.NoError(t, err)
	assert.IsType(t, &DirectorySource{}, dir)

	remote, err := factory.NewDataSource(config.DataSourceConfig{Name: "remote", Type: "http", BaseURL: "http://localhost:9000", Enabled: true})
	require.NoError(t, err)
	assert.IsType(t, &HTTPSource{}, remote)

	_, err = factory.NewDataSource(config.DataSourceConfig{Name: "bad", Type: "ftp"})
	assert.Error(t, err)

	_, err = factory.NewDataSource(config.DataSourceConfig{Name: "nopath", Type: "directory"})
	assert.Error(t, err)
}

func TestFactoryNewDataSources(t *testing.T) {
	factory := NewFactory(quietLogger())

	sources, err := factory.NewDataSources(config.DataIngestionConfig{
		Sources: []config.DataSourceConfig{
			{Name: "local", Type: "directory", Path: "/tmp", Enabled: true},
			{Name: "off", Type: "http", BaseURL: "http://localhost:9000", Enabled: false},
		},
	})
	require.NoError(t, err)
	require.Len(t, sources, 1)
	assert.Equal(t, "local", sources[0].Name())

	_, err = factory.NewDataSources(config.DataIngestionConfig{})
	assert.Error(t, err)
}
