package excel

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"panelfit/domain/core"
	"panelfit/domain/panel"
	"panelfit/internal"
	"panelfit/internal/errors"

	"github.com/xuri/excelize/v2"
)

// DataReader handles reading Excel and CSV files
type DataReader struct {
	filePath string
	fileType string // "xlsx" or "csv"
	sheet    string
	logger   *internal.Logger
}

// NewDataReader creates a new data reader that handles both Excel and CSV files
func NewDataReader(filePath string) *DataReader {
	ext := strings.ToLower(filepath.Ext(filePath))
	fileType := "xlsx"
	if ext == ".csv" {
		fileType = "csv"
	}
	return &DataReader{
		filePath: filePath,
		fileType: fileType,
		sheet:    "Sheet1",
		logger:   internal.DefaultLogger.WithComponent("reader"),
	}
}

// NewReaderFromConfig creates a reader for cfg.FilePath using cfg.Sheet
func NewReaderFromConfig(cfg ReaderConfig) *DataReader {
	r := NewDataReader(cfg.FilePath)
	if cfg.Sheet != "" {
		r.sheet = cfg.Sheet
	}
	return r
}

// WithLogger replaces the reader's logger
func (r *DataReader) WithLogger(logger *internal.Logger) *DataReader {
	r.logger = logger
	return r
}

// ReadData reads data from Excel or CSV files into structured format
func (r *DataReader) ReadData() (*ExcelData, error) {
	r.logger.Debug("reading %s file: %s", r.fileType, r.filePath)

	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return nil, errors.InvalidInput(fmt.Sprintf("%s file not found: %s", strings.ToUpper(r.fileType), r.filePath))
	}

	switch r.fileType {
	case "csv":
		return r.readCSVData()
	case "xlsx":
		return r.readExcelData()
	default:
		return nil, errors.InvalidInput("unsupported file type: " + r.fileType)
	}
}

// readExcelData reads the configured sheet, falling back to the first sheet
// when the configured one does not exist
func (r *DataReader) readExcelData() (*ExcelData, error) {
	startTime := time.Now()
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open Excel file")
	}
	defer f.Close()

	sheet := r.sheet
	if idx, _ := f.GetSheetIndex(sheet); idx < 0 {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, errors.InvalidInput("Excel file has no sheets")
		}
		r.logger.Warn("sheet %q not found, reading %q", sheet, sheets[0])
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read sheet %s", sheet)
	}
	r.logger.Debug("sheet %s read in %.2fms (%d rows)", sheet, float64(time.Since(startTime).Nanoseconds())/1e6, len(rows))

	if len(rows) < 2 {
		return nil, errors.InvalidInput("Excel file must have at least a header row and one data row")
	}
	return r.processRows(rows)
}

// readCSVData reads CSV data into structured format
func (r *DataReader) readCSVData() (*ExcelData, error) {
	file, err := os.Open(r.filePath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open CSV file")
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	readStart := time.Now()
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "failed to read CSV file")
	}
	r.logger.Debug("CSV file read in %.2fms (%d rows)", float64(time.Since(readStart).Nanoseconds())/1e6, len(rows))

	if len(rows) < 2 {
		return nil, errors.InvalidInput("CSV file must have at least a header row and one data row")
	}
	return r.processRows(rows)
}

// processRows converts raw string rows into ExcelData format
func (r *DataReader) processRows(rows [][]string) (*ExcelData, error) {
	headerRow := rows[0]
	headers := make([]string, len(headerRow))
	for i, header := range headerRow {
		headers[i] = strings.TrimSpace(strings.TrimPrefix(header, "\ufeff"))
	}

	dataRows := make([]RawRowData, 0, len(rows)-1)
	for i := 1; i < len(rows); i++ {
		rowData := make(RawRowData, len(headers))
		for j, cell := range rows[i] {
			if j < len(headers) {
				rowData[headers[j]] = strings.TrimSpace(cell)
			}
		}
		dataRows = append(dataRows, rowData)
	}

	r.logger.Debug("%s file processed (%d columns, %d rows)",
		strings.ToUpper(r.fileType), len(headers), len(dataRows))

	return &ExcelData{Headers: headers, Rows: dataRows}, nil
}

// ReadPanel reads the file and converts it into raw panel observations.
// Missing cells become missing fields; cleaning decides what to drop.
func (r *DataReader) ReadPanel(columns ColumnMapping) ([]panel.Observation, error) {
	data, err := r.ReadData()
	if err != nil {
		return nil, err
	}
	return ToObservations(data, columns)
}

// ToObservations maps the configured columns of data to observations
func ToObservations(data *ExcelData, columns ColumnMapping) ([]panel.Observation, error) {
	unitCol, err := resolveColumn(data.Headers, columns.Unit)
	if err != nil {
		return nil, err
	}
	timeCol, err := resolveColumn(data.Headers, columns.Time)
	if err != nil {
		return nil, err
	}
	outcomeCol, err := resolveColumn(data.Headers, columns.Outcome)
	if err != nil {
		return nil, err
	}

	observations := make([]panel.Observation, 0, len(data.Rows))
	for i, row := range data.Rows {
		// row 1 is the header
		line := i + 2
		t, err := ParseTime(row[timeCol])
		if err != nil {
			return nil, errors.WithCode(errors.CodeInvalidInput,
				fmt.Errorf("row %d, column %s: %w", line, timeCol, err))
		}
		y, err := ParseOutcome(row[outcomeCol])
		if err != nil {
			return nil, errors.WithCode(errors.CodeInvalidInput,
				fmt.Errorf("row %d, column %s: %w", line, outcomeCol, err))
		}
		unit := row[unitCol]
		if isMissing(unit) {
			unit = ""
		}
		observations = append(observations, panel.Observation{UnitID: unit, Time: t, Outcome: y})
	}
	return observations, nil
}

// resolveColumn finds name among headers, exactly first and then ignoring case
func resolveColumn(headers []string, name string) (string, error) {
	for _, h := range headers {
		if h == name {
			return h, nil
		}
	}
	for _, h := range headers {
		if strings.EqualFold(h, name) {
			return h, nil
		}
	}
	return "", errors.WithCode(errors.CodeInvalidInput,
		fmt.Errorf("%w: %q (have %s)", core.ErrUnknownColumn, name, strings.Join(headers, ", ")))
}

var missingTokens = map[string]bool{
	"": true, "na": true, "n/a": true, "nan": true, "null": true, "none": true, ".": true,
}

func isMissing(s string) bool {
	return missingTokens[strings.ToLower(strings.TrimSpace(s))]
}

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"01/02/2006",
	"02.01.2006",
}

// ParseTime parses a numeric time or a date. Dates become Unix seconds; only
// differences matter after rescaling. Missing values yield NaN.
func ParseTime(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if isMissing(s) {
		return math.NaN(), nil
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		if math.IsInf(v, 0) {
			return 0, fmt.Errorf("%w: time %q", core.ErrUnparseableValue, s)
		}
		return v, nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return float64(t.Unix()), nil
		}
	}
	return 0, fmt.Errorf("%w: time %q", core.ErrUnparseableValue, s)
}

// ParseOutcome parses a numeric or boolean outcome. Values other than 0/1 are
// returned as-is so cleaning can report them. Missing values yield NaN.
func ParseOutcome(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if isMissing(s) {
		return math.NaN(), nil
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v, nil
	}
	switch strings.ToLower(s) {
	case "true", "yes", "y":
		return 1, nil
	case "false", "no", "n":
		return 0, nil
	}
	return 0, fmt.Errorf("%w: outcome %q", core.ErrUnparseableValue, s)
}
