package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/yourusername/edgeboard/internal/backtest"
	"github.com/yourusername/edgeboard/internal/datasource"
	"github.com/yourusername/edgeboard/internal/models"
	"github.com/yourusername/edgeboard/internal/report"
)

// manualSource names imports that arrive through the upload endpoint
const manualSource = "manual"

// handleReports serves GET /api/reports
func (s *Server) handleReports(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	mode, err := report.ParseMode(query.Get("mode"))
	if err != nil {
		s.fail(w, r, err)
		return
	}

	filters := report.Filters{
		StartDate:   query.Get("startDate"),
		EndDate:     query.Get("endDate"),
		Leagues:     splitCSV(query.Get("leagues")),
		MarketTypes: parseMarketTypes(query.Get("marketTypes")),
	}
	if filters.MinSamples, err = optionalInt(query, "minSamples"); err != nil {
		s.fail(w, r, err)
		return
	}
	if filters.MinProbability, err = optionalFloat(query, "minProbability"); err != nil {
		s.fail(w, r, err)
		return
	}
	if filters.MinEV, err = optionalFloat(query, "minEv"); err != nil {
		s.fail(w, r, err)
		return
	}

	result, err := s.deps.Reports.Generate(r.Context(), mode, filters)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// handleOverview serves GET /api/overview
func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	overview, err := s.deps.Reports.Overview(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, overview)
}

// handleGames serves GET /api/games
func (s *Server) handleGames(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	games, err := s.deps.Reports.Games(r.Context(), report.GamesQuery{
		League:     query.Get("league"),
		StartDate:  query.Get("startDate"),
		EndDate:    query.Get("endDate"),
		MarketType: query.Get("marketType"),
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"games": games})
}

// handleLeagues serves GET /api/leagues
func (s *Server) handleLeagues(w http.ResponseWriter, r *http.Request) {
	leagues, err := s.deps.Reports.Leagues(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"leagues": leagues})
}

// handleBacktest serves POST /api/backtest. An empty body runs the defaults.
func (s *Server) handleBacktest(w http.ResponseWriter, r *http.Request) {
	var req backtest.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid request: %v", err))
		return
	}

	result, err := s.deps.Backtest.Run(r.Context(), req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// handleUpload serves POST /api/upload with games, odds and model CSV parts
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes)
	if err := r.ParseMultipartForm(s.opts.MaxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("upload exceeds %d bytes", s.opts.MaxUploadBytes))
			return
		}
		respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid multipart form: %v", err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	files := &datasource.Files{Origin: "upload"}
	parts := []struct {
		field string
		dst   *[]byte
	}{
		{"games", &files.Games},
		{"odds", &files.Odds},
		{"model", &files.Model},
	}
	for _, part := range parts {
		data, err := readPart(r.MultipartForm, part.field)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		*part.dst = data
	}

	summary, err := s.deps.Importer.ImportFiles(r.Context(), manualSource, files)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.deps.Reports.InvalidateLeagues()

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "dataset imported",
		"summary": summary,
	})
}

func readPart(form *multipart.Form, field string) ([]byte, error) {
	headers := form.File[field]
	if len(headers) == 0 {
		return nil, fmt.Errorf("missing required CSV files (games/odds/model): %s", field)
	}
	file, err := headers[0].Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", field, err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", field, err)
	}
	return data, nil
}

// splitCSV splits a comma separated query value, dropping blanks
func splitCSV(value string) []string {
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// parseMarketTypes keeps the recognised market types once each, in order
func parseMarketTypes(value string) []models.MarketType {
	var types []models.MarketType
	seen := make(map[models.MarketType]bool)
	for _, item := range splitCSV(value) {
		marketType, err := models.ParseMarketType(item)
		if err != nil || seen[marketType] {
			continue
		}
		seen[marketType] = true
		types = append(types, marketType)
	}
	return types
}

func optionalInt(query url.Values, key string) (*int, error) {
	raw := strings.TrimSpace(query.Get(key))
	if raw == "" {
		return nil, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be an integer", models.ErrInvalidInput, key)
	}
	return &value, nil
}

func optionalFloat(query url.Values, key string) (*float64, error) {
	raw := strings.TrimSpace(query.Get(key))
	if raw == "" {
		return nil, nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be a number", models.ErrInvalidInput, key)
	}
	return &value, nil
}
