package fetcher

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
)

func writeTestXLSX(t *testing.T, sheetName string, rows [][]string) string {
	t.Helper()

	f := xlsx.NewFile()
	sheet, err := f.AddSheet(sheetName)
	require.NoError(t, err)
	for _, cells := range rows {
		row := sheet.AddRow()
		for _, cell := range cells {
			row.AddCell().SetString(cell)
		}
	}

	path := filepath.Join(t.TempDir(), "board.xlsx")
	require.NoError(t, f.Save(path))
	return path
}

func TestReadXLSXBoard(t *testing.T) {
	path := writeTestXLSX(t, "Deals", [][]string{
		{"Name", "Deal Value ($)", "Status"},
		{"Project Falcon", "$12,500.00", "In Progress"},
		{"Project Osprey", "Masked"},
	})

	headers, rows, err := ReadXLSXBoard(path, "")
	require.NoError(t, err)

	assert.Equal(t, []string{"Name", "Deal Value ($)", "Status"}, headers)
	require.Len(t, rows, 2)
	assert.Equal(t, "$12,500.00", rows[0]["Deal Value ($)"])

	// The short second row has no Status cell at all.
	_, present := rows[1]["Status"]
	assert.False(t, present)
}

func TestReadXLSXBoard_NamedSheet(t *testing.T) {
	path := writeTestXLSX(t, "Q3 Export", [][]string{
		{"Name"},
		{"Project Falcon"},
	})

	_, rows, err := ReadXLSXBoard(path, "Q3 Export")
	require.NoError(t, err)
	require.Len(t, rows, 1)

	_, _, err = ReadXLSXBoard(path, "Nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `sheet "Nope" not found`)
}

func TestReadXLSXBoard_EmptySheet(t *testing.T) {
	path := writeTestXLSX(t, "Empty", nil)

	_, _, err := ReadXLSXBoard(path, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is empty")
}

func TestReadXLSXBoard_MissingFile(t *testing.T) {
	_, _, err := ReadXLSXBoard(filepath.Join(t.TempDir(), "absent.xlsx"), "")
	require.Error(t, err)
}
