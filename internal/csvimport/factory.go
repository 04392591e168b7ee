package csvimport

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/Billy-Davies-2/picklewickel-scores/internal/models"
)

// Parser parses an uploaded file against the stored matches.
type Parser interface {
	Parse(data []byte, existing []models.Match) (Result, error)
}

// Factory creates the appropriate parser based on file extension.
type Factory struct{}

// NewFactory creates a new parser factory.
func NewFactory() *Factory {
	return &Factory{}
}

// GetParser returns a parser for the given file name.
func (f *Factory) GetParser(fileName string) (Parser, error) {
	fileName = strings.ToLower(fileName)

	if strings.HasSuffix(fileName, ".csv") {
		return CSVParser{}, nil
	}
	if strings.HasSuffix(fileName, ".xlsx") || strings.HasSuffix(fileName, ".xls") {
		return XLSXParser{}, nil
	}
	return nil, fmt.Errorf("unsupported file type: %s (must be .csv or .xlsx)", fileName)
}

// CSVParser parses UTF-8 CSV text
type CSVParser struct{}

func (CSVParser) Parse(data []byte, existing []models.Match) (Result, error) {
	text := strings.TrimPrefix(string(data), "\ufeff")
	return ParseMatchesCSV(strings.ReplaceAll(text, "\r\n", "\n"), existing), nil
}

// XLSXParser reads the first sheet of a workbook
type XLSXParser struct{}

func (XLSXParser) Parse(data []byte, existing []models.Match) (Result, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		if strings.Contains(err.Error(), "zip: not a valid zip file") {
			return Result{}, fmt.Errorf("failed to open XLSX file: %w. (Hint: If this is a CSV file, please ensure it has a .csv extension)", err)
		}
		return Result{}, fmt.Errorf("failed to open XLSX file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return Result{}, fmt.Errorf("XLSX file has no sheets")
	}

	sheetName := sheets[0]
	raw, err := f.GetRows(sheetName)
	if err != nil {
		return Result{}, fmt.Errorf("failed to read sheet %q: %w", sheetName, err)
	}

	// GetRows trims trailing empty cells, so pad data rows back to the
	// header width before the column count check.
	var rows [][]string
	width := 0
	for _, r := range raw {
		if isBlankRow(r) {
			continue
		}
		if width == 0 {
			width = len(r)
		}
		for len(r) < width {
			r = append(r, "")
		}
		rows = append(rows, r)
	}
	return ParseRows(rows, existing), nil
}

func isBlankRow(r []string) bool {
	for _, c := range r {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
