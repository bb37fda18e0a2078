package excel

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/example/phrasebot/pkg/models"
	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

// PhraseCreator is the lifecycle operation rows are fed through
type PhraseCreator interface {
	Create(ctx context.Context, owner uuid.UUID, input models.PhraseInput) (*models.Phrase, error)
}

// ImportConfig defines the import configuration
type ImportConfig struct {
	FilePath               string // Path to the Excel or CSV file
	OriginalColumn         string // Column with the phrase
	OriginalLanguageColumn string // Column with the phrase language code
	MeaningColumn          string // Column with the meaning
	MeaningLanguageColumn  string // Column with the meaning language code
	TagsColumn             string // Column with tags separated by commas or semicolons
	NotesColumn            string // Column with notes
	SheetName              string // Name of the sheet to import
	StartRow               int    // The row to start importing from (1-based index)
}

// DefaultImportConfig returns the default import configuration
func DefaultImportConfig() ImportConfig {
	return ImportConfig{
		OriginalColumn:         "A",
		OriginalLanguageColumn: "B",
		MeaningColumn:          "C",
		MeaningLanguageColumn:  "D",
		TagsColumn:             "E",
		NotesColumn:            "F",
		SheetName:              "Sheet1",
		StartRow:               2, // By default, start from the second row (skip header)
	}
}

// ImportResult holds the result of an import operation
type ImportResult struct {
	TotalProcessed int
	Created        int
	Skipped        int // rows whose phrase already exists
	Errors         []string
}

// ImportPhrases imports phrases for owner from an Excel or CSV file
func ImportPhrases(ctx context.Context, creator PhraseCreator, owner uuid.UUID, config ImportConfig) (*ImportResult, error) {
	columns, err := config.columnIndexes()
	if err != nil {
		return nil, err
	}

	var rows [][]string
	if strings.ToLower(filepath.Ext(config.FilePath)) == ".csv" {
		rows, err = readCSV(config.FilePath)
	} else {
		rows, err = readExcel(config.FilePath, config.SheetName)
	}
	if err != nil {
		return nil, err
	}

	result := &ImportResult{Errors: make([]string, 0)}
	for i, row := range rows {
		rowNum := i + 1
		if rowNum < config.StartRow || isBlank(row) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return result, err
		}

		result.TotalProcessed++
		_, err := creator.Create(ctx, owner, columns.input(row))
		switch {
		case err == nil:
			result.Created++
		case errors.Is(err, models.ErrAlreadyExists):
			result.Skipped++
		default:
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", rowNum, err))
		}
	}

	return result, nil
}

func readExcel(path, sheet string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to get rows: %w", err)
	}
	return rows, nil
}

func readCSV(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1 // Allow variable number of fields
	reader.LazyQuotes = true

	var rows [][]string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading CSV: %w", err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

type columnIndexes struct {
	original, originalLanguage, meaning, meaningLanguage, tags, notes int
}

// columnIndexes converts column letters to zero-based indexes; -1 marks an unused column
func (c ImportConfig) columnIndexes() (columnIndexes, error) {
	index := func(name string, required bool) (int, error) {
		if name == "" {
			if required {
				return 0, fmt.Errorf("required column is not configured")
			}
			return -1, nil
		}
		n, err := excelize.ColumnNameToNumber(name)
		if err != nil {
			return 0, fmt.Errorf("invalid column %q: %w", name, err)
		}
		return n - 1, nil
	}

	var idx columnIndexes
	var err error
	if idx.original, err = index(c.OriginalColumn, true); err != nil {
		return idx, err
	}
	if idx.originalLanguage, err = index(c.OriginalLanguageColumn, true); err != nil {
		return idx, err
	}
	if idx.meaning, err = index(c.MeaningColumn, true); err != nil {
		return idx, err
	}
	if idx.meaningLanguage, err = index(c.MeaningLanguageColumn, true); err != nil {
		return idx, err
	}
	if idx.tags, err = index(c.TagsColumn, false); err != nil {
		return idx, err
	}
	if idx.notes, err = index(c.NotesColumn, false); err != nil {
		return idx, err
	}
	return idx, nil
}

func (idx columnIndexes) input(row []string) models.PhraseInput {
	cell := func(i int) string {
		if i < 0 || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}
	return models.PhraseInput{
		OriginalPhrase:   cell(idx.original),
		OriginalLanguage: cell(idx.originalLanguage),
		Meaning:          cell(idx.meaning),
		MeaningLanguage:  cell(idx.meaningLanguage),
		Tags:             splitTags(cell(idx.tags)),
		Notes:            cell(idx.notes),
	}
}

func splitTags(value string) []string {
	fields := strings.FieldsFunc(value, func(r rune) bool { return r == ',' || r == ';' })
	tags := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			tags = append(tags, f)
		}
	}
	return tags
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
