package ingestion

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/hashicorp/go-multierror"
	"github.com/yourusername/edgeboard/internal/datasource"
	"github.com/yourusername/edgeboard/internal/models"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("csv"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// GameRow is one line of games.csv
type GameRow struct {
	Line         int          `csv:"-"`
	Date         string       `csv:"date" validate:"required,datetime=2006-01-02"`
	League       string       `csv:"league" validate:"required"`
	Home         string       `csv:"home" validate:"required"`
	Away         string       `csv:"away" validate:"required"`
	Finalized    bool         `csv:"finalized"`
	Results      []ResultSide `csv:"result_side"`
	ClosingTotal *float64     `csv:"closing_total"`
}

// OddsRow is one line of odds.csv
type OddsRow struct {
	Line        int               `csv:"-"`
	Date        string            `csv:"date" validate:"required,datetime=2006-01-02"`
	League      string            `csv:"league" validate:"required"`
	Home        string            `csv:"home" validate:"required"`
	Away        string            `csv:"away" validate:"required"`
	Market      models.MarketType `csv:"market" validate:"required"`
	Selection   models.Selection  `csv:"selection" validate:"required"`
	OddsDecimal float64           `csv:"odds_decimal" validate:"required,gt=1"`
	Bookmaker   string            `csv:"bookmaker" validate:"required"`
}

// ModelRow is one line of model.csv
type ModelRow struct {
	Line      int               `csv:"-"`
	Date      string            `csv:"date" validate:"required,datetime=2006-01-02"`
	League    string            `csv:"league" validate:"required"`
	Home      string            `csv:"home" validate:"required"`
	Away      string            `csv:"away" validate:"required"`
	Market    models.MarketType `csv:"market" validate:"required"`
	Selection models.Selection  `csv:"selection" validate:"required"`
	PModel    float64           `csv:"p_model" validate:"gte=0,lte=1"`
	ModelTag  string            `csv:"model_tag" validate:"required"`
}

// ResultSide is one settled selection listed in a game's result_side column
type ResultSide struct {
	Selection models.Selection
	Outcome   models.Outcome
}

// Dataset holds the validated rows of one import
type Dataset struct {
	Games  []GameRow
	Odds   []OddsRow
	Models []ModelRow
}

// Rows returns the total number of rows in the dataset
func (d *Dataset) Rows() int {
	return len(d.Games) + len(d.Odds) + len(d.Models)
}

// ParseDataset parses and validates the three dataset files. Every problem
// found is reported in one error wrapping models.ErrInvalidInput.
func ParseDataset(files *datasource.Files) (*Dataset, error) {
	if files == nil {
		return nil, fmt.Errorf("%w: no dataset files", models.ErrInvalidInput)
	}

	var errs *multierror.Error
	dataset := &Dataset{}

	games, problems := parseGames(files.Games)
	errs = multierror.Append(errs, problems...)
	dataset.Games = games

	odds, problems := parseOdds(files.Odds)
	errs = multierror.Append(errs, problems...)
	dataset.Odds = odds

	modelRows, problems := parseModels(files.Model)
	errs = multierror.Append(errs, problems...)
	dataset.Models = modelRows

	if err := errs.ErrorOrNil(); err != nil {
		errs.ErrorFormat = formatProblems
		return nil, fmt.Errorf("%w: %w", models.ErrInvalidInput, errs)
	}
	return dataset, nil
}

// ParseResultSide parses values such as "HOME:W;AWAY:L". Entries are
// separated by ';' or '|', tokens missing either half are skipped and a
// repeated selection keeps its first position with the last outcome.
func ParseResultSide(value string) ([]ResultSide, error) {
	tokens := strings.FieldsFunc(value, func(r rune) bool { return r == ';' || r == '|' })

	sides := make([]ResultSide, 0, len(tokens))
	for _, token := range tokens {
		parts := strings.Split(strings.TrimSpace(token), ":")
		if len(parts) < 2 {
			continue
		}
		rawSelection, rawOutcome := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
		if rawSelection == "" || rawOutcome == "" {
			continue
		}

		selection, err := models.ParseSelection(rawSelection)
		if err != nil {
			return nil, err
		}
		outcome, err := models.ParseOutcome(rawOutcome)
		if err != nil {
			return nil, err
		}

		replaced := false
		for i := range sides {
			if sides[i].Selection == selection {
				sides[i].Outcome = outcome
				replaced = true
				break
			}
		}
		if !replaced {
			sides = append(sides, ResultSide{Selection: selection, Outcome: outcome})
		}
	}
	return sides, nil
}

func parseGames(data []byte) ([]GameRow, []error) {
	records, err := readRecords(datasource.GamesFile, data)
	if err != nil {
		return nil, []error{err}
	}

	var problems []error
	rows := make([]GameRow, 0, len(records))
	for _, rec := range records {
		row := GameRow{
			Line:      rec.line,
			Date:      rec.get("date"),
			League:    rec.get("league"),
			Home:      rec.get("home"),
			Away:      rec.get("away"),
			Finalized: parseBool(rec.get("finalized")),
		}

		var rowProblems []error
		if raw := rec.get("closing_total"); raw != "" {
			total, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				rowProblems = append(rowProblems, fmt.Errorf("closing_total %q is not a number", raw))
			} else if total != 0 {
				row.ClosingTotal = &total
			}
		}
		results, err := ParseResultSide(rec.get("result_side"))
		if err != nil {
			rowProblems = append(rowProblems, fmt.Errorf("result_side: %w", err))
		}
		row.Results = results
		rowProblems = append(rowProblems, structProblems(&row)...)

		if len(rowProblems) > 0 {
			problems = append(problems, located(datasource.GamesFile, rec.line, rowProblems)...)
			continue
		}
		rows = append(rows, row)
	}
	return rows, problems
}

func parseOdds(data []byte) ([]OddsRow, []error) {
	records, err := readRecords(datasource.OddsFile, data)
	if err != nil {
		return nil, []error{err}
	}

	var problems []error
	rows := make([]OddsRow, 0, len(records))
	for _, rec := range records {
		row := OddsRow{
			Line:      rec.line,
			Date:      rec.get("date"),
			League:    rec.get("league"),
			Home:      rec.get("home"),
			Away:      rec.get("away"),
			Bookmaker: rec.get("bookmaker"),
		}

		rowProblems := parseMarketColumns(rec, &row.Market, &row.Selection)
		if raw := rec.get("odds_decimal"); raw != "" {
			odds, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				rowProblems = append(rowProblems, fmt.Errorf("odds_decimal %q is not a number", raw))
			} else {
				row.OddsDecimal = odds
			}
		}
		if len(rowProblems) == 0 {
			rowProblems = structProblems(&row)
		}

		if len(rowProblems) > 0 {
			problems = append(problems, located(datasource.OddsFile, rec.line, rowProblems)...)
			continue
		}
		rows = append(rows, row)
	}
	return rows, problems
}

func parseModels(data []byte) ([]ModelRow, []error) {
	records, err := readRecords(datasource.ModelFile, data)
	if err != nil {
		return nil, []error{err}
	}

	var problems []error
	rows := make([]ModelRow, 0, len(records))
	for _, rec := range records {
		row := ModelRow{
			Line:     rec.line,
			Date:     rec.get("date"),
			League:   rec.get("league"),
			Home:     rec.get("home"),
			Away:     rec.get("away"),
			ModelTag: rec.get("model_tag"),
		}

		rowProblems := parseMarketColumns(rec, &row.Market, &row.Selection)
		if raw := rec.get("p_model"); raw == "" {
			rowProblems = append(rowProblems, errors.New("p_model is required"))
		} else if p, err := strconv.ParseFloat(raw, 64); err != nil {
			rowProblems = append(rowProblems, fmt.Errorf("p_model %q is not a number", raw))
		} else {
			row.PModel = p
		}
		if len(rowProblems) == 0 {
			rowProblems = structProblems(&row)
		}

		if len(rowProblems) > 0 {
			problems = append(problems, located(datasource.ModelFile, rec.line, rowProblems)...)
			continue
		}
		rows = append(rows, row)
	}
	return rows, problems
}

// parseMarketColumns fills the market and selection enums. Empty values are
// left for the required checks.
func parseMarketColumns(rec record, market *models.MarketType, selection *models.Selection) []error {
	var problems []error
	if raw := rec.get("market"); raw != "" {
		parsed, err := models.ParseMarketType(raw)
		if err != nil {
			problems = append(problems, fmt.Errorf("market: %w", err))
		}
		*market = parsed
	}
	if raw := rec.get("selection"); raw != "" {
		parsed, err := models.ParseSelection(raw)
		if err != nil {
			problems = append(problems, fmt.Errorf("selection: %w", err))
		}
		*selection = parsed
	}
	return problems
}

func structProblems(row interface{}) []error {
	err := validate.Struct(row)
	if err == nil {
		return nil
	}

	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return []error{err}
	}

	problems := make([]error, 0, len(fieldErrors))
	for _, fe := range fieldErrors {
		problems = append(problems, errors.New(describe(fe)))
	}
	return problems
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "datetime":
		return fmt.Sprintf("%s %q must be YYYY-MM-DD", fe.Field(), fe.Value())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", fe.Field(), fe.Param())
	case "gte", "lte":
		return fmt.Sprintf("%s %v must be between 0 and 1", fe.Field(), fe.Value())
	default:
		return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
	}
}

func located(file string, line int, problems []error) []error {
	out := make([]error, len(problems))
	for i, problem := range problems {
		out[i] = fmt.Errorf("%s line %d: %w", file, line, problem)
	}
	return out
}

func formatProblems(errs []error) string {
	if len(errs) == 1 {
		return errs[0].Error()
	}
	points := make([]string, len(errs))
	for i, err := range errs {
		points[i] = err.Error()
	}
	return fmt.Sprintf("%d problems: %s", len(errs), strings.Join(points, "; "))
}

// parseBool accepts 1, true, yes and y in any case
func parseBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "y":
		return true
	}
	return false
}
