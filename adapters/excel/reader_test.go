package excel

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"panelfit/domain/core"
	"panelfit/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

var defaultColumns = ColumnMapping{Unit: "id", Time: "time", Outcome: "outcome"}

func TestReadPanel_CSV(t *testing.T) {
	path := writeFile(t, "panel.csv", "id,time,outcome,extra\n"+
		"a,1,0,x\n"+
		"a,2,1,x\n"+
		"b,1,NA,x\n"+
		",2,1,x\n"+
		"c,2020-01-02,true,x\n")

	obs, err := NewDataReader(path).ReadPanel(defaultColumns)
	require.NoError(t, err)
	require.Len(t, obs, 5)

	assert.Equal(t, "a", obs[0].UnitID)
	assert.Equal(t, 1.0, obs[0].Time)
	assert.Equal(t, 1.0, obs[1].Outcome)
	assert.True(t, math.IsNaN(obs[2].Outcome))
	assert.False(t, obs[2].Complete())
	assert.False(t, obs[3].Complete(), "empty unit is missing")
	assert.Equal(t, 1.0, obs[4].Outcome)
	assert.Equal(t, float64(1577923200), obs[4].Time)
}

func TestReadPanel_ColumnMatching(t *testing.T) {
	path := writeFile(t, "panel.csv", "Person,Wave,Smokes\np1,0,1\np1,1,0\n")

	obs, err := NewDataReader(path).ReadPanel(ColumnMapping{Unit: "person", Time: "wave", Outcome: "SMOKES"})
	require.NoError(t, err)
	assert.Len(t, obs, 2)

	_, err = NewDataReader(path).ReadPanel(defaultColumns)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrUnknownColumn)
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
}

func TestReadPanel_UnparseableValues(t *testing.T) {
	path := writeFile(t, "panel.csv", "id,time,outcome\na,1,maybe\n")
	_, err := NewDataReader(path).ReadPanel(defaultColumns)
	assert.ErrorIs(t, err, core.ErrUnparseableValue)
	assert.Contains(t, err.Error(), "row 2")

	path = writeFile(t, "panel.csv", "id,time,outcome\na,soon,1\n")
	_, err = NewDataReader(path).ReadPanel(defaultColumns)
	assert.ErrorIs(t, err, core.ErrUnparseableValue)
}

func TestReadData_Errors(t *testing.T) {
	_, err := NewDataReader(filepath.Join(t.TempDir(), "missing.csv")).ReadData()
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))

	path := writeFile(t, "header.csv", "id,time,outcome\n")
	_, err = NewDataReader(path).ReadData()
	assert.Error(t, err)
}

func TestReadPanel_XLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "panel.xlsx")
	f := excelize.NewFile()
	rows := [][]interface{}{
		{"id", "time", "outcome"},
		{"u1", 1, 0},
		{"u1", 2, 1},
		{"u2", 1, 1},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	obs, err := NewReaderFromConfig(ReaderConfig{FilePath: path, Sheet: "does-not-exist"}).ReadPanel(defaultColumns)
	require.NoError(t, err)
	require.Len(t, obs, 3)
	assert.Equal(t, "u2", obs[2].UnitID)
	assert.Equal(t, 2.0, obs[1].Time)
	assert.Equal(t, 1.0, obs[2].Outcome)
}

func TestParseOutcome(t *testing.T) {
	tests := map[string]float64{"0": 0, "1": 1, "2": 2, "1.0": 1, "yes": 1, "FALSE": 0}
	for in, want := range tests {
		got, err := ParseOutcome(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	got, err := ParseOutcome(" n/a ")
	require.NoError(t, err)
	assert.True(t, math.IsNaN(got))
}
