package excel

import "panelfit/internal/config"

// ReaderConfig holds configuration for a panel data source
type ReaderConfig struct {
	FilePath string
	Sheet    string
	Columns  ColumnMapping
}

// DefaultReaderConfig returns the defaults used when nothing is configured
func DefaultReaderConfig() ReaderConfig {
	return ReaderConfig{
		Sheet:   "Sheet1",
		Columns: ColumnMapping{Unit: "id", Time: "time", Outcome: "outcome"},
	}
}

// ReaderConfigFrom maps the application input settings
func ReaderConfigFrom(in config.InputConfig) ReaderConfig {
	cfg := DefaultReaderConfig()
	cfg.FilePath = in.Path
	if in.Sheet != "" {
		cfg.Sheet = in.Sheet
	}
	if in.UnitColumn != "" {
		cfg.Columns.Unit = in.UnitColumn
	}
	if in.TimeColumn != "" {
		cfg.Columns.Time = in.TimeColumn
	}
	if in.OutcomeColumn != "" {
		cfg.Columns.Outcome = in.OutcomeColumn
	}
	return cfg
}
