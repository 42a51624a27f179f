// Package scheduler runs dataset imports from configured sources on cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"github.com/yourusername/edgeboard/internal/config"
	"github.com/yourusername/edgeboard/internal/datasource"
	"github.com/yourusername/edgeboard/internal/events"
	"github.com/yourusername/edgeboard/internal/ingestion"
)

// Importer imports fetched dataset files
type Importer interface {
	ImportFiles(ctx context.Context, source string, files *datasource.Files) (ingestion.Summary, error)
}

// Scheduler manages scheduled data ingestion jobs
type Scheduler struct {
	cron            *cron.Cron
	importer        Importer
	publisher       events.Publisher
	logger          *logrus.Entry
	mu              sync.RWMutex
	isRunning       bool
	runOnStart      bool
	sources         map[string]datasource.DataSource
	jobIDs          map[string]cron.EntryID
	jobTimeout      time.Duration
	gracefulTimeout time.Duration
	afterImport     []func(source string, summary ingestion.Summary)
}

// NewScheduler creates a new scheduler. Cron expressions are evaluated in loc.
func NewScheduler(importer Importer, publisher events.Publisher, loc *time.Location, logger *logrus.Logger) *Scheduler {
	if logger == nil {
		logger = logrus.New()
	}
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if loc == nil {
		loc = time.UTC
	}
	entry := logger.WithField("component", "scheduler")

	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithChain(cron.SkipIfStillRunning(cron.PrintfLogger(entry))),
		),
		importer:        importer,
		publisher:       publisher,
		logger:          entry,
		sources:         make(map[string]datasource.DataSource),
		jobIDs:          make(map[string]cron.EntryID),
		jobTimeout:      30 * time.Minute,
		gracefulTimeout: 30 * time.Second,
	}
}

// Configure schedules every source using its own cron expression or the
// default one. Sources without any expression can still be run with RunNow.
func (s *Scheduler) Configure(sources []datasource.DataSource, cfg config.DataIngestionConfig) error {
	expressions := make(map[string]string, len(cfg.Sources))
	for _, srcCfg := range cfg.Sources {
		expressions[srcCfg.Name] = srcCfg.Cron
	}

	s.mu.Lock()
	s.runOnStart = cfg.Schedule.RunOnStart
	s.mu.Unlock()

	for _, source := range sources {
		expression := expressions[source.Name()]
		if expression == "" {
			expression = cfg.Schedule.DefaultCron
		}
		if expression == "" {
			s.addSource(source)
			s.logger.WithField("source", source.Name()).Info("No cron expression configured, source runs on demand only")
			continue
		}
		if err := s.ScheduleSource(source, expression); err != nil {
			return err
		}
	}
	return nil
}

// ScheduleSource schedules periodic imports from source
func (s *Scheduler) ScheduleSource(source datasource.DataSource, cronExpression string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("cannot schedule job while scheduler is running")
	}
	if _, exists := s.jobIDs[source.Name()]; exists {
		return fmt.Errorf("source %s is already scheduled", source.Name())
	}

	entryID, err := s.cron.AddFunc(cronExpression, func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.jobTimeout)
		defer cancel()
		_, _ = s.run(ctx, source)
	})
	if err != nil {
		return fmt.Errorf("failed to add job for %s: %w", source.Name(), err)
	}

	s.sources[source.Name()] = source
	s.jobIDs[source.Name()] = entryID
	s.logger.WithFields(logrus.Fields{
		"source": source.Name(),
		"cron":   cronExpression,
	}).Info("Scheduled dataset import")

	return nil
}

// OnImported registers fn to run after every successful import
func (s *Scheduler) OnImported(fn func(source string, summary ingestion.Summary)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.afterImport = append(s.afterImport, fn)
}

func (s *Scheduler) addSource(source datasource.DataSource) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sources[source.Name()] = source
}

// RunNow imports from the named source immediately
func (s *Scheduler) RunNow(ctx context.Context, name string) (ingestion.Summary, error) {
	s.mu.RLock()
	source, ok := s.sources[name]
	s.mu.RUnlock()
	if !ok {
		return ingestion.Summary{}, fmt.Errorf("unknown source %s", name)
	}
	return s.run(ctx, source)
}

func (s *Scheduler) run(ctx context.Context, source datasource.DataSource) (ingestion.Summary, error) {
	log := s.logger.WithField("source", source.Name())
	log.Info("Starting scheduled dataset import")

	files, err := source.Fetch(ctx)
	if err != nil {
		err = fmt.Errorf("failed to fetch dataset from %s: %w", source.Name(), err)
		s.reportFailure(ctx, source.Name(), err)
		return ingestion.Summary{}, err
	}

	summary, err := s.importer.ImportFiles(ctx, source.Name(), files)
	if err != nil {
		s.reportFailure(ctx, source.Name(), err)
		return ingestion.Summary{}, err
	}

	log.WithFields(logrus.Fields{
		"games_inserted":  summary.GamesInserted,
		"odds_inserted":   summary.OddsInserted,
		"models_inserted": summary.ModelsInserted,
	}).Info("Scheduled dataset import completed")

	s.mu.RLock()
	hooks := append([]func(string, ingestion.Summary){}, s.afterImport...)
	s.mu.RUnlock()
	for _, hook := range hooks {
		hook(source.Name(), summary)
	}
	return summary, nil
}

func (s *Scheduler) reportFailure(ctx context.Context, source string, err error) {
	s.logger.WithField("source", source).WithError(err).Error("Scheduled dataset import failed")

	event, eventErr := events.NewEvent(events.TypeImportFailed, events.ImportFailed{Source: source, Error: err.Error()})
	if eventErr == nil {
		eventErr = s.publisher.Publish(ctx, event)
	}
	if eventErr != nil {
		s.logger.WithError(eventErr).Warn("Failed to publish import failure")
	}
}

// Start starts the scheduler. With run_on_start every source is imported
// once in the background.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("scheduler is already running")
	}

	if len(s.jobIDs) == 0 && !s.runOnStart {
		return fmt.Errorf("no jobs scheduled")
	}

	s.cron.Start()
	s.isRunning = true
	s.logger.Infof("Scheduler started with %d jobs", len(s.jobIDs))

	if s.runOnStart {
		sources := make([]datasource.DataSource, 0, len(s.sources))
		for _, name := range sortedNames(s.sources) {
			sources = append(sources, s.sources[name])
		}
		go func() {
			for _, source := range sources {
				ctx, cancel := context.WithTimeout(context.Background(), s.jobTimeout)
				_, _ = s.run(ctx, source)
				cancel()
			}
		}()
	}

	return nil
}

// Stop stops the scheduler, waiting for running jobs up to the graceful timeout
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return nil
	}

	timer := time.NewTimer(s.gracefulTimeout)
	defer timer.Stop()

	s.isRunning = false
	select {
	case <-s.cron.Stop().Done():
		s.logger.Info("Scheduler stopped")
		return nil
	case <-timer.C:
		return fmt.Errorf("timed out waiting for running jobs after %s", s.gracefulTimeout)
	}
}

// IsRunning returns whether the scheduler is currently running
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// GetNextRun returns the time of the next scheduled job run
func (s *Scheduler) GetNextRun() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning || len(s.jobIDs) == 0 {
		return time.Time{}
	}

	nextRun := time.Time{}
	for _, jobID := range s.jobIDs {
		entry := s.cron.Entry(jobID)
		if entry.Valid() {
			if nextRun.IsZero() || entry.Next.Before(nextRun) {
				nextRun = entry.Next
			}
		}
	}

	return nextRun
}

// JobInfo describes one scheduled source
type JobInfo struct {
	Source  string    `json:"source"`
	NextRun time.Time `json:"nextRun"`
	PrevRun time.Time `json:"prevRun"`
}

// Jobs returns the scheduled sources ordered by name
func (s *Scheduler) Jobs() []JobInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	jobs := make([]JobInfo, 0, len(s.jobIDs))
	for _, name := range sortedNames(s.jobIDs) {
		entry := s.cron.Entry(s.jobIDs[name])
		if !entry.Valid() {
			continue
		}
		jobs = append(jobs, JobInfo{Source: name, NextRun: entry.Next, PrevRun: entry.Prev})
	}
	return jobs
}

// RemoveSource removes the scheduled job of a source
func (s *Scheduler) RemoveSource(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("cannot remove job while scheduler is running")
	}

	jobID, ok := s.jobIDs[name]
	if !ok {
		return fmt.Errorf("source %s is not scheduled", name)
	}
	s.cron.Remove(jobID)
	delete(s.jobIDs, name)
	s.logger.WithField("source", name).Info("Removed scheduled import")

	return nil
}

func sortedNames[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
