// Package csvimport parses bulk match uploads. CSV text and the first sheet of
// an XLSX workbook feed the same row parser.
package csvimport

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Billy-Davies-2/picklewickel-scores/internal/errs"
	"github.com/Billy-Davies-2/picklewickel-scores/internal/ingest"
	"github.com/Billy-Davies-2/picklewickel-scores/internal/matches"
	"github.com/Billy-Davies-2/picklewickel-scores/internal/metrics"
	"github.com/Billy-Davies-2/picklewickel-scores/internal/models"
)

// RequiredHeaders must all be present, in any order and case.
var RequiredHeaders = []string{
	"date", "time", "tournamentname", "drawname", "round",
	"team1player1", "team2player1", "status",
}

// OptionalHeaders are read when present.
var OptionalHeaders = []string{
	"team1player2", "team2player2", "scores", "winner", "court", "team1seed", "team2seed",
}

// Result is the outcome of a parse. ValidMatches carry no id.
type Result struct {
	ValidMatches   []models.Match `json:"validMatches"`
	Errors         []string       `json:"errors"`
	DuplicateCount int            `json:"duplicateCount"`
}

// ParseMatchesCSV parses CSV text against the matches already stored. Bad
// rows are reported and skipped; a missing header aborts the whole parse.
func ParseMatchesCSV(text string, existing []models.Match) Result {
	var rows [][]string
	for _, line := range strings.Split(strings.TrimSpace(text), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		rows = append(rows, parseLine(strings.TrimSpace(line)))
	}
	return ParseRows(rows, existing)
}

// ParseRows applies the import rules to rows already split into fields.
// Blank rows must be removed by the caller; row numbers count from the
// header as row 1.
func ParseRows(rows [][]string, existing []models.Match) Result {
	res := Result{ValidMatches: []models.Match{}, Errors: []string{}}
	if len(rows) == 0 {
		res.Errors = append(res.Errors, "CSV is empty")
		return res
	}

	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		headers[i] = strings.ToLower(strings.TrimSpace(h))
	}
	if missing := missingHeaders(headers); len(missing) > 0 {
		res.Errors = append(res.Errors, "Missing required headers: "+strings.Join(missing, ", "))
		return res
	}

	dedup := matches.NewDedupIndex(existing)
	for i, values := range rows[1:] {
		rowNumber := i + 2
		if len(values) != len(headers) {
			res.Errors = append(res.Errors, fmt.Sprintf("Row %d: Column count mismatch (expected %d, got %d)", rowNumber, len(headers), len(values)))
			metrics.CSVRows.WithLabelValues("error").Inc()
			continue
		}

		row := ingest.CSVRow{}
		for j, h := range headers {
			row[h] = strings.TrimSpace(values[j])
		}

		m, err := row.Normalize()
		if err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("Row %d: %s", rowNumber, rowReason(err)))
			metrics.CSVRows.WithLabelValues("error").Inc()
			continue
		}

		if !dedup.Add(m) {
			res.DuplicateCount++
			metrics.CSVRows.WithLabelValues("duplicate").Inc()
			continue
		}
		res.ValidMatches = append(res.ValidMatches, m)
		metrics.CSVRows.WithLabelValues("valid").Inc()
	}
	return res
}

func missingHeaders(headers []string) []string {
	present := make(map[string]bool, len(headers))
	for _, h := range headers {
		present[h] = true
	}
	var missing []string
	for _, h := range RequiredHeaders {
		if !present[h] {
			missing = append(missing, h)
		}
	}
	return missing
}

func rowReason(err error) string {
	var v *errs.ValidationError
	if errors.As(err, &v) {
		return strings.Join(v.Reasons, ", ")
	}
	return "Failed to parse - " + err.Error()
}

// parseLine splits one CSV line on commas outside double quotes. Quote
// characters themselves are dropped and fields are trimmed.
func parseLine(line string) []string {
	var (
		fields   []string
		current  strings.Builder
		inQuotes bool
	)
	for _, r := range line {
		switch {
		case r == '"':
			inQuotes = !inQuotes
		case r == ',' && !inQuotes:
			fields = append(fields, strings.TrimSpace(current.String()))
			current.Reset()
		default:
			current.WriteRune(r)
		}
	}
	return append(fields, strings.TrimSpace(current.String()))
}
