package excel

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"panelfit/domain/run"
	"panelfit/domain/search"
	"panelfit/internal/errors"

	"github.com/xuri/excelize/v2"
)

// ResultHeaders are the columns of an exported result table
var ResultHeaders = []string{"rate", "strength", "direction", "direction_label", "error", "stage", "pattern"}

const (
	resultsSheet  = "results"
	manifestSheet = "run"
)

// WriteResults exports the table to path. A .xlsx path gets an Excel
// workbook with a results sheet and, when manifest is non-nil, a run sheet;
// anything else is written as CSV.
func WriteResults(path string, table *search.Table, manifest *run.Manifest) error {
	var err error
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		err = writeWorkbook(path, table, manifest)
	} else {
		err = writeCSV(path, table)
	}
	if err != nil {
		return errors.ExportFailed(path, err)
	}
	return nil
}

func resultRecord(r search.Row) []string {
	return []string{
		strconv.FormatFloat(r.Rate, 'f', 2, 64),
		strconv.FormatFloat(r.Strength, 'f', 1, 64),
		strconv.FormatFloat(r.Direction, 'f', 2, 64),
		r.Label,
		r.Error.String(),
		strconv.Itoa(r.Stage),
		r.Pattern.String(),
	}
}

func writeCSV(path string, table *search.Table) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write(ResultHeaders); err != nil {
		return err
	}
	for _, row := range table.Rows {
		if err := w.Write(resultRecord(row)); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return file.Close()
}

func writeWorkbook(path string, table *search.Table, manifest *run.Manifest) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", resultsSheet); err != nil {
		return err
	}
	header := make([]interface{}, len(ResultHeaders))
	for i, h := range ResultHeaders {
		header[i] = h
	}
	if err := f.SetSheetRow(resultsSheet, "A1", &header); err != nil {
		return err
	}

	for i, r := range table.Rows {
		var errCell interface{} = "NA"
		if r.Error.Valid {
			errCell = r.Error.Value
		}
		values := []interface{}{r.Rate, r.Strength, r.Direction, r.Label, errCell, r.Stage, r.Pattern.String()}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(resultsSheet, cell, &values); err != nil {
			return err
		}
	}
	if err := f.SetColWidth(resultsSheet, "D", "D", 20); err != nil {
		return err
	}

	if manifest != nil {
		if err := writeManifestSheet(f, manifest); err != nil {
			return err
		}
	}
	return f.SaveAs(path)
}

func writeManifestSheet(f *excelize.File, m *run.Manifest) error {
	if _, err := f.NewSheet(manifestSheet); err != nil {
		return err
	}
	pairs := [][2]interface{}{
		{"run_id", m.RunID.String()},
		{"pattern", m.Settings.Pattern},
		{"step1", m.Settings.Steps[0]},
		{"step2", m.Settings.Steps[1]},
		{"step3", m.Settings.Steps[2]},
		{"reliability", m.Settings.Reliability},
		{"seed", m.Settings.Seed},
		{"units", m.Panel.Units},
		{"waves", m.Panel.Waves},
		{"base_rate", m.Panel.BaseRate},
		{"config_hash", m.Fingerprint.ConfigHash.String()},
		{"input_hash", m.Fingerprint.InputHash.String()},
		{"result_hash", m.ResultHash.String()},
	}
	for i, kv := range pairs {
		row := []interface{}{kv[0], kv[1]}
		if err := f.SetSheetRow(manifestSheet, "A"+strconv.Itoa(i+1), &row); err != nil {
			return err
		}
	}
	return nil
}
