package ingestion

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yourusername/edgeboard/internal/analytics"
	"github.com/yourusername/edgeboard/internal/datasource"
	"github.com/yourusername/edgeboard/internal/events"
	"github.com/yourusername/edgeboard/internal/logger"
	"github.com/yourusername/edgeboard/internal/metrics"
	"github.com/yourusername/edgeboard/internal/models"
	"github.com/yourusername/edgeboard/internal/repository"
)

const isoMillis = "2006-01-02T15:04:05.000Z"

// Summary counts the rows written by one import
type Summary struct {
	GamesInserted  int `json:"gamesInserted"`
	OddsInserted   int `json:"oddsInserted"`
	ModelsInserted int `json:"modelsInserted"`
}

func (s Summary) meta() map[string]int {
	return map[string]int{
		"gamesInserted":  s.GamesInserted,
		"oddsInserted":   s.OddsInserted,
		"modelsInserted": s.ModelsInserted,
	}
}

// Importer writes parsed datasets to the store in a single transaction
type Importer struct {
	store     repository.IngestionStore
	publisher events.Publisher
	audit     *logger.AuditLogger
	runs      *logger.RunLogger
	logger    *logrus.Entry
	now       func() time.Time
}

// NewImporter creates a new importer. A nil publisher discards events.
func NewImporter(store repository.IngestionStore, publisher events.Publisher, log *logrus.Logger) *Importer {
	if log == nil {
		log = logrus.New()
	}
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &Importer{
		store:     store,
		publisher: publisher,
		audit:     logger.NewAuditLogger(log),
		runs:      logger.NewRunLogger(log),
		logger:    log.WithField("component", "ingestion"),
		now:       time.Now,
	}
}

// SetClock overrides the clock used for settlement and upload timestamps
func (i *Importer) SetClock(now func() time.Time) {
	i.now = now
}

// ImportFiles parses raw dataset files and imports them
func (i *Importer) ImportFiles(ctx context.Context, source string, files *datasource.Files) (Summary, error) {
	started := time.Now()
	dataset, err := ParseDataset(files)
	if err != nil {
		metrics.RecordImport(source, "invalid", time.Since(started).Seconds())
		i.audit.LogImportRejected(source, err)
		return Summary{}, err
	}
	return i.Import(ctx, source, dataset)
}

// Import writes the dataset: games first so closing totals and results are
// known, then odds and model rows. Nothing is kept when any row fails.
func (i *Importer) Import(ctx context.Context, source string, dataset *Dataset) (Summary, error) {
	started := time.Now()
	at := i.now()

	var (
		summary Summary
		upload  *models.UploadLog
	)
	err := i.store.InTx(ctx, func(repo repository.IngestionRepository) error {
		run := newImportRun(repo, at)
		if err := run.apply(ctx, dataset); err != nil {
			return err
		}

		upload = &models.UploadLog{
			Filename:  fmt.Sprintf("%s-upload-%s", source, at.UTC().Format(isoMillis)),
			Meta:      run.summary.meta(),
			CreatedAt: at,
		}
		if _, err := repo.InsertUploadLog(ctx, upload); err != nil {
			return err
		}
		summary = run.summary
		return nil
	})
	duration := time.Since(started)

	if err != nil {
		status := "error"
		if errors.Is(err, models.ErrInvalidInput) || errors.Is(err, models.ErrInvalidOdds) {
			status = "invalid"
		}
		metrics.RecordImport(source, status, duration.Seconds())
		i.audit.LogImportRejected(source, err)
		return Summary{}, fmt.Errorf("failed to import dataset from %s: %w", source, err)
	}

	metrics.RecordImport(source, "success", duration.Seconds())
	metrics.RecordImportRows("games", summary.GamesInserted)
	metrics.RecordImportRows("odds", summary.OddsInserted)
	metrics.RecordImportRows("models", summary.ModelsInserted)
	i.runs.LogImportCompleted(source, summary.GamesInserted, summary.OddsInserted, summary.ModelsInserted, duration)
	i.audit.LogDatasetImport(source, upload.Filename, upload.ID, summary.GamesInserted, summary.OddsInserted, summary.ModelsInserted)

	i.publish(ctx, source, upload.ID, summary)
	return summary, nil
}

func (i *Importer) publish(ctx context.Context, source string, uploadID int64, summary Summary) {
	event, err := events.NewEvent(events.TypeDatasetImported, events.DatasetImported{
		Source:         source,
		UploadID:       uploadID,
		GamesInserted:  summary.GamesInserted,
		OddsInserted:   summary.OddsInserted,
		ModelsInserted: summary.ModelsInserted,
	})
	if err == nil {
		err = i.publisher.Publish(ctx, event)
	}
	if err != nil {
		i.logger.WithError(err).WithField("source", source).Warn("Failed to publish import event")
	}
}

// importRun holds the identity tables of a single import
type importRun struct {
	repo          repository.IngestionRepository
	at            time.Time
	teams         *lookupTable[int64]
	games         *lookupTable[models.Game]
	markets       *lookupTable[models.Market]
	closingTotals map[string]float64
	summary       Summary
}

func newImportRun(repo repository.IngestionRepository, at time.Time) *importRun {
	return &importRun{
		repo:          repo,
		at:            at,
		teams:         newLookupTable[int64](),
		games:         newLookupTable[models.Game](),
		markets:       newLookupTable[models.Market](),
		closingTotals: make(map[string]float64),
	}
}

func (r *importRun) apply(ctx context.Context, dataset *Dataset) error {
	for _, row := range dataset.Games {
		if err := r.importGame(ctx, row); err != nil {
			return fmt.Errorf("%s line %d: %w", datasource.GamesFile, row.Line, err)
		}
	}
	for _, row := range dataset.Odds {
		if err := r.importOdds(ctx, row); err != nil {
			return fmt.Errorf("%s line %d: %w", datasource.OddsFile, row.Line, err)
		}
	}
	for _, row := range dataset.Models {
		if err := r.importModel(ctx, row); err != nil {
			return fmt.Errorf("%s line %d: %w", datasource.ModelFile, row.Line, err)
		}
	}
	return nil
}

func (r *importRun) importGame(ctx context.Context, row GameRow) error {
	gameID, err := r.gameID(ctx, row.League, row.Date, row.Home, row.Away, row.Finalized)
	if err != nil {
		return err
	}
	r.summary.GamesInserted++

	if err := r.repo.SetGameFinalized(ctx, gameID, row.Finalized); err != nil {
		return err
	}
	if row.ClosingTotal != nil {
		r.closingTotals[lineKey(gameID, models.MarketTypeTotal)] = *row.ClosingTotal
	}

	for _, side := range row.Results {
		marketType := models.MarketTypeML
		var line *float64
		if side.Selection.IsTotalSide() {
			marketType = models.MarketTypeTotal
			line = row.ClosingTotal
		}

		marketID, err := r.marketID(ctx, gameID, marketType, side.Selection, line)
		if err != nil {
			return err
		}
		result := &models.Result{MarketID: marketID, Outcome: side.Outcome, SettledAt: r.at}
		if err := r.repo.UpsertResult(ctx, result); err != nil {
			return err
		}
	}
	return nil
}

func (r *importRun) importOdds(ctx context.Context, row OddsRow) error {
	marketID, observedAt, err := r.quotedMarket(ctx, row.League, row.Date, row.Home, row.Away, row.Market, row.Selection)
	if err != nil {
		return err
	}
	quote := &models.OddsQuote{
		MarketID:    marketID,
		OddsDecimal: row.OddsDecimal,
		Bookmaker:   row.Bookmaker,
		ObservedAt:  observedAt,
	}
	if err := r.repo.InsertOdds(ctx, quote); err != nil {
		return err
	}
	r.summary.OddsInserted++
	return nil
}

func (r *importRun) importModel(ctx context.Context, row ModelRow) error {
	marketID, observedAt, err := r.quotedMarket(ctx, row.League, row.Date, row.Home, row.Away, row.Market, row.Selection)
	if err != nil {
		return err
	}
	prob := &models.ModelProbability{
		MarketID:   marketID,
		PModel:     row.PModel,
		ModelTag:   row.ModelTag,
		ObservedAt: observedAt,
	}
	if err := r.repo.InsertModelProbability(ctx, prob); err != nil {
		return err
	}
	r.summary.ModelsInserted++
	return nil
}

// quotedMarket resolves the market an odds or model row refers to. Games
// first seen here are created unfinalized.
func (r *importRun) quotedMarket(ctx context.Context, league, date, home, away string, marketType models.MarketType, selection models.Selection) (int64, time.Time, error) {
	gameID, err := r.gameID(ctx, league, date, home, away, false)
	if err != nil {
		return 0, time.Time{}, err
	}

	var line *float64
	if total, ok := r.closingTotals[lineKey(gameID, marketType)]; ok {
		line = &total
	}
	marketID, err := r.marketID(ctx, gameID, marketType, selection, line)
	if err != nil {
		return 0, time.Time{}, err
	}

	observedAt, err := analytics.DayAnchor(date)
	if err != nil {
		return 0, time.Time{}, err
	}
	return marketID, observedAt, nil
}

func (r *importRun) teamID(ctx context.Context, league, name string) (int64, error) {
	key := league + "|" + name
	if id, ok := r.teams.get(key); ok {
		return id, nil
	}
	id, err := r.repo.UpsertTeam(ctx, league, name)
	if err != nil {
		return 0, err
	}
	r.teams.put(key, id)
	return id, nil
}

func (r *importRun) gameID(ctx context.Context, league, date, home, away string, finalized bool) (int64, error) {
	key := league + "|" + date + "|" + home + "|" + away
	if game, ok := r.games.get(key); ok {
		return game.ID, nil
	}

	day, err := analytics.DayAnchor(date)
	if err != nil {
		return 0, err
	}
	homeID, err := r.teamID(ctx, league, home)
	if err != nil {
		return 0, err
	}
	awayID, err := r.teamID(ctx, league, away)
	if err != nil {
		return 0, err
	}

	game := models.Game{
		League:     league,
		Date:       day,
		HomeTeamID: homeID,
		AwayTeamID: awayID,
		Finalized:  finalized,
	}
	if _, err := r.repo.FindOrCreateGame(ctx, &game); err != nil {
		return 0, err
	}
	r.games.put(key, game)
	return game.ID, nil
}

// marketID returns the cached market id. Only the first lookup of a market
// in a run may set its line.
func (r *importRun) marketID(ctx context.Context, gameID int64, marketType models.MarketType, selection models.Selection, line *float64) (int64, error) {
	key := fmt.Sprintf("%d|%s|%s", gameID, marketType, selection)
	if market, ok := r.markets.get(key); ok {
		return market.ID, nil
	}

	market := models.Market{GameID: gameID, Type: marketType, Selection: selection, Line: line}
	if _, err := r.repo.EnsureMarket(ctx, &market); err != nil {
		return 0, err
	}
	r.markets.put(key, market)
	return market.ID, nil
}

func lineKey(gameID int64, marketType models.MarketType) string {
	return fmt.Sprintf("%d|%s", gameID, marketType)
}
