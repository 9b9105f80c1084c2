package ingest

import (
	"encoding/csv"
	"errors"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"acecast/internal/domain"

	"github.com/rs/zerolog"
)

const dateLayout = "20060102"

// Stats summarizes one LoadFiles pass.
type Stats struct {
	Sources        int
	MissingSources int
	Rows           int
	Accepted       int
	Skipped        int
}

// LoadFiles parses match rows from one or more CSV sources. Malformed rows
// and missing files are skipped with a warning, never fatal; the returned
// records keep source order then row order, which the engine's stable sort
// relies on for date ties.
func LoadFiles(paths []string, logger zerolog.Logger) ([]domain.MatchRecord, Stats) {
	var records []domain.MatchRecord
	var stats Stats

	for _, path := range paths {
		stats.Sources++

		f, err := os.Open(path)
		if err != nil {
			stats.MissingSources++
			logger.Warn().Str("path", path).Err(err).Msg("match source not found, skipping")
			continue
		}

		loaded := loadFile(f, path, &stats, logger)
		f.Close()
		records = append(records, loaded...)
	}

	logger.Info().
		Int("sources", stats.Sources).
		Int("missing_sources", stats.MissingSources).
		Int("rows", stats.Rows).
		Int("accepted", stats.Accepted).
		Int("skipped", stats.Skipped).
		Msg("match sources loaded")

	return records, stats
}

func loadFile(f *os.File, path string, stats *Stats, logger zerolog.Logger) []domain.MatchRecord {
	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1 // ragged rows are handled per field

	header, err := reader.Read()
	if err != nil {
		logger.Warn().Str("path", path).Err(err).Msg("failed to read CSV header, skipping source")
		return nil
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.TrimSpace(name)] = i
	}

	var records []domain.MatchRecord
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			stats.Rows++
			stats.Skipped++
			logger.Warn().Str("path", path).Err(err).Msg("unreadable CSV row, skipping")
			continue
		}
		stats.Rows++

		record, ok := parseRow(row, columns, path, stats.Rows, logger)
		if !ok {
			stats.Skipped++
			continue
		}
		stats.Accepted++
		records = append(records, record)
	}
	return records
}

func parseRow(row []string, columns map[string]int, path string, rowNum int, logger zerolog.Logger) (domain.MatchRecord, bool) {
	field := func(name string) string {
		idx, ok := columns[name]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	skip := func(reason string) (domain.MatchRecord, bool) {
		logger.Warn().
			Str("path", path).
			Int("row", rowNum).
			Str("reason", reason).
			Msg("skipping malformed match row")
		return domain.MatchRecord{}, false
	}

	rawDate := field("tourney_date")
	if len(rawDate) != 8 {
		return skip("date missing or not YYYYMMDD")
	}
	date, err := time.Parse(dateLayout, rawDate)
	if err != nil {
		return skip("unparsable date")
	}

	winner := domain.NormalizeName(field("winner_name"))
	loser := domain.NormalizeName(field("loser_name"))
	if winner == "" || loser == "" {
		return skip("empty player name")
	}

	bestOf := 3
	if raw := field("best_of"); raw != "" {
		bestOf, err = strconv.Atoi(raw)
		if err != nil {
			return skip("unparsable best_of")
		}
	}

	return domain.MatchRecord{
		Date:    date,
		Surface: domain.NormalizeSurface(field("surface")),
		Winner:  winner,
		Loser:   loser,
		Score:   field("score"),
		BestOf:  bestOf,
		Round:   field("round"),
	}, true
}
