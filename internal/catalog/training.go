package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/hyperjump/suisen/internal/models"
)

// ErrMissingColumn is returned when a training sheet has no query column.
var ErrMissingColumn = errors.New("missing required column")

var (
	queryColumns      = []string{"query", "queries"}
	assessmentColumns = []string{"assessment_url", "assessment", "url", "assessment_id"}
)

// LoadTraining reads (query, assessment) rows from a .csv or .xlsx file with a
// Query and an Assessment_url column. Rows missing either value are dropped.
func LoadTraining(path string) ([]models.TrainingAssociation, error) {
	records, err := readTable(path)
	if err != nil {
		return nil, err
	}
	return parseTraining(records, true)
}

// LoadQueries reads the distinct queries of a .csv or .xlsx file, in file order.
// Only the Query column is required.
func LoadQueries(path string) ([]string, error) {
	records, err := readTable(path)
	if err != nil {
		return nil, err
	}
	rows, err := parseTraining(records, false)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(rows))
	var out []string
	for _, r := range rows {
		if _, ok := seen[r.Query]; ok {
			continue
		}
		seen[r.Query] = struct{}{}
		out = append(out, r.Query)
	}
	return out, nil
}

// ReadTraining parses training rows from CSV.
func ReadTraining(r io.Reader) ([]models.TrainingAssociation, error) {
	records, err := readCSV(r)
	if err != nil {
		return nil, err
	}
	return parseTraining(records, true)
}

// WriteTraining writes rows as CSV with a Query,Assessment_url header.
func WriteTraining(w io.Writer, rows []models.TrainingAssociation) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Query", "Assessment_url"}); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write([]string{r.Query, r.Assessment}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Labeled groups training rows by query. Queries keep their first-seen order,
// expected references are deduplicated.
func Labeled(rows []models.TrainingAssociation) []models.LabeledQuery {
	index := make(map[string]int)
	seen := make(map[string]map[string]struct{})
	var out []models.LabeledQuery
	for _, r := range rows {
		i, ok := index[r.Query]
		if !ok {
			i = len(out)
			index[r.Query] = i
			seen[r.Query] = make(map[string]struct{})
			out = append(out, models.LabeledQuery{Query: r.Query})
		}
		if _, dup := seen[r.Query][r.Assessment]; dup {
			continue
		}
		seen[r.Query][r.Assessment] = struct{}{}
		out[i].Expected = append(out[i].Expected, r.Assessment)
	}
	return out
}

func readTable(path string) ([][]string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return readXLSX(path)
	default:
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open training file: %w", err)
		}
		defer f.Close()
		return readCSV(f)
	}
}

func readCSV(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return records, nil
}

func readXLSX(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook %s has no sheets", path)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("get rows for sheet %q: %w", sheets[0], err)
	}
	return rows, nil
}

func parseTraining(records [][]string, needAssessment bool) ([]models.TrainingAssociation, error) {
	if len(records) == 0 {
		return nil, nil
	}
	header := records[0]
	qCol := findColumn(header, queryColumns)
	if qCol < 0 {
		return nil, fmt.Errorf("%w: Query", ErrMissingColumn)
	}
	aCol := findColumn(header, assessmentColumns)
	if needAssessment && aCol < 0 {
		return nil, fmt.Errorf("%w: Assessment_url", ErrMissingColumn)
	}

	rows := make([]models.TrainingAssociation, 0, len(records)-1)
	for _, rec := range records[1:] {
		q := cell(rec, qCol)
		if q == "" {
			continue
		}
		a := cell(rec, aCol)
		if needAssessment && a == "" {
			continue
		}
		rows = append(rows, models.TrainingAssociation{Query: q, Assessment: a})
	}
	return rows, nil
}

func findColumn(header []string, names []string) int {
	for _, name := range names {
		for i, h := range header {
			h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
			if h == name {
				return i
			}
		}
	}
	return -1
}

func cell(rec []string, col int) string {
	if col < 0 || col >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[col])
}
