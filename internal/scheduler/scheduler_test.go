package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/edgeboard/internal/config"
	"github.com/yourusername/edgeboard/internal/datasource"
	"github.com/yourusername/edgeboard/internal/events"
	"github.com/yourusername/edgeboard/internal/ingestion"
	"github.com/yourusername/edgeboard/internal/logger"
)

type fakeSource struct {
	name string
	err  error
}

func (f *fakeSource) Fetch(ctx context.Context) (*datasource.Files, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &datasource.Files{Origin: f.name}, nil
}

func (f *fakeSource) Name() string    { return f.name }
func (f *fakeSource) IsEnabled() bool { return true }

type fakeImporter struct {
	mu      sync.Mutex
	sources []string
	err     error
}

func (f *fakeImporter) ImportFiles(ctx context.Context, source string, files *datasource.Files) (ingestion.Summary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sources = append(f.sources, source)
	if f.err != nil {
		return ingestion.Summary{}, f.err
	}
	return ingestion.Summary{GamesInserted: 1}, nil
}

func (f *fakeImporter) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sources...)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(ctx context.Context, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func newTestScheduler(importer Importer, publisher events.Publisher) *Scheduler {
	return NewScheduler(importer, publisher, time.UTC, logger.Discard())
}

func TestScheduleSourceAndNextRun(t *testing.T) {
	s := newTestScheduler(&fakeImporter{}, nil)

	require.NoError(t, s.ScheduleSource(&fakeSource{name: "nightly"}, "0 3 * * *"))
	assert.True(t, s.GetNextRun().IsZero(), "next run is only known once started")

	require.NoError(t, s.Start())
	defer s.Stop()

	assert.True(t, s.IsRunning())
	next := s.GetNextRun()
	require.False(t, next.IsZero())
	assert.Equal(t, 3, next.Hour())

	jobs := s.Jobs()
	require.Len(t, jobs, 1)
	assert.Equal(t, "nightly", jobs[0].Source)
	assert.Equal(t, next, jobs[0].NextRun)
}

func TestScheduleSourceInvalidCron(t *testing.T) {
	s := newTestScheduler(&fakeImporter{}, nil)
	err := s.ScheduleSource(&fakeSource{name: "bad"}, "not a cron")
	assert.Error(t, err)
}

func TestScheduleSourceRejectsDuplicatesAndRunningScheduler(t *testing.T) {
	s := newTestScheduler(&fakeImporter{}, nil)
	require.NoError(t, s.ScheduleSource(&fakeSource{name: "a"}, "@hourly"))
	assert.Error(t, s.ScheduleSource(&fakeSource{name: "a"}, "@daily"))

	require.NoError(t, s.Start())
	defer s.Stop()

	assert.Error(t, s.ScheduleSource(&fakeSource{name: "b"}, "@daily"))
	assert.Error(t, s.Start())
	assert.Error(t, s.RemoveSource("a"))
}

func TestStartWithoutJobs(t *testing.T) {
	s := newTestScheduler(&fakeImporter{}, nil)
	assert.Error(t, s.Start())
}

func TestConfigureUsesSourceOrDefaultCron(t *testing.T) {
	s := newTestScheduler(&fakeImporter{}, nil)

	sources := []datasource.DataSource{
		&fakeSource{name: "local"},
		&fakeSource{name: "remote"},
	}
	cfg := config.DataIngestionConfig{
		Sources: []config.DataSourceConfig{
			{Name: "local", Cron: "0 6 * * *"},
			{Name: "remote"},
		},
		Schedule: config.ScheduleConfig{DefaultCron: "30 7 * * *"},
	}
	require.NoError(t, s.Configure(sources, cfg))
	require.NoError(t, s.Start())
	defer s.Stop()

	jobs := s.Jobs()
	require.Len(t, jobs, 2)
	assert.Equal(t, "local", jobs[0].Source)
	assert.Equal(t, 6, jobs[0].NextRun.Hour())
	assert.Equal(t, "remote", jobs[1].Source)
	assert.Equal(t, 30, jobs[1].NextRun.Minute())
}

func TestRunNow(t *testing.T) {
	importer := &fakeImporter{}
	s := newTestScheduler(importer, nil)

	require.NoError(t, s.Configure([]datasource.DataSource{&fakeSource{name: "manual"}}, config.DataIngestionConfig{}))

	summary, err := s.RunNow(context.Background(), "manual")
	require.NoError(t, err)
	assert.Equal(t, 1, summary.GamesInserted)
	assert.Equal(t, []string{"manual"}, importer.calls())

	_, err = s.RunNow(context.Background(), "missing")
	assert.Error(t, err)
}

func TestOnImportedRunsAfterSuccessOnly(t *testing.T) {
	importer := &fakeImporter{}
	s := newTestScheduler(importer, nil)

	var imported []string
	s.OnImported(func(source string, summary ingestion.Summary) {
		imported = append(imported, source)
		assert.Equal(t, 1, summary.GamesInserted)
	})

	require.NoError(t, s.ScheduleSource(&fakeSource{name: "ok"}, "@daily"))
	require.NoError(t, s.ScheduleSource(&fakeSource{name: "down", err: errors.New("timeout")}, "@daily"))

	_, err := s.RunNow(context.Background(), "ok")
	require.NoError(t, err)
	_, err = s.RunNow(context.Background(), "down")
	require.Error(t, err)

	importer.err = errors.New("bad rows")
	_, err = s.RunNow(context.Background(), "ok")
	require.Error(t, err)

	assert.Equal(t, []string{"ok"}, imported)
}

func TestRunPublishesFailures(t *testing.T) {
	publisher := &recordingPublisher{}
	importer := &fakeImporter{}
	s := newTestScheduler(importer, publisher)

	fetchErr := errors.New("connection refused")
	require.NoError(t, s.ScheduleSource(&fakeSource{name: "down", err: fetchErr}, "@daily"))

	_, err := s.RunNow(context.Background(), "down")
	require.ErrorIs(t, err, fetchErr)
	assert.Empty(t, importer.calls())

	require.Len(t, publisher.events, 1)
	assert.Equal(t, events.TypeImportFailed, publisher.events[0].Type)
	assert.Contains(t, string(publisher.events[0].Payload), `"source":"down"`)
}

func TestRunOnStart(t *testing.T) {
	importer := &fakeImporter{}
	s := newTestScheduler(importer, nil)

	cfg := config.DataIngestionConfig{Schedule: config.ScheduleConfig{RunOnStart: true}}
	require.NoError(t, s.Configure([]datasource.DataSource{&fakeSource{name: "b"}, &fakeSource{name: "a"}}, cfg))
	require.NoError(t, s.Start())
	defer s.Stop()

	require.Eventually(t, func() bool { return len(importer.calls()) == 2 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"a", "b"}, importer.calls())
}

func TestRemoveSourceAndStop(t *testing.T) {
	s := newTestScheduler(&fakeImporter{}, nil)
	require.NoError(t, s.ScheduleSource(&fakeSource{name: "a"}, "@hourly"))
	require.NoError(t, s.RemoveSource("a"))
	assert.Error(t, s.RemoveSource("a"))

	require.NoError(t, s.Stop())
	assert.False(t, s.IsRunning())
}
