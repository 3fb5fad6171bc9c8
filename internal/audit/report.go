package audit

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// WriteCSV writes errors.csv, duplicates.csv, and thin.csv into dir.
func (r *Report) WriteCSV(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("audit: create report dir: %w", err)
	}

	errRows := [][]string{{"url", "issue"}}
	for _, issue := range r.Errors {
		errRows = append(errRows, []string{issue.URL, issue.Problem})
	}
	if err := writeCSVFile(filepath.Join(dir, "errors.csv"), errRows); err != nil {
		return err
	}

	dupRows := [][]string{{"url", "duplicate_of", "field"}}
	for _, d := range r.Duplicates {
		dupRows = append(dupRows, []string{d.URL, d.Of, d.Field})
	}
	if err := writeCSVFile(filepath.Join(dir, "duplicates.csv"), dupRows); err != nil {
		return err
	}

	thinRows := [][]string{{"url", "word_count"}}
	for _, t := range r.Thin {
		thinRows = append(thinRows, []string{t.URL, strconv.Itoa(t.Words)})
	}
	return writeCSVFile(filepath.Join(dir, "thin.csv"), thinRows)
}

func writeCSVFile(path string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("audit: create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("audit: write %s: %w", path, err)
	}
	return nil
}
