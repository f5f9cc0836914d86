package fetcher

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skylark-bi/boardpulse/internal/model"
)

func TestReadCSVBoard(t *testing.T) {
	input := `Name, Deal Value ($) ,Status
Project Falcon,"$12,500.00",In Progress
Project Osprey,Masked,Done
`
	headers, rows, err := ReadCSVBoard(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, []string{"Name", "Deal Value ($)", "Status"}, headers)
	require.Len(t, rows, 2)
	assert.Equal(t, model.RawRow{
		"Name":           "Project Falcon",
		"Deal Value ($)": "$12,500.00",
		"Status":         "In Progress",
	}, rows[0])
	assert.Equal(t, "Masked", rows[1]["Deal Value ($)"])
}

func TestReadCSVBoard_ShortRowLeavesKeysAbsent(t *testing.T) {
	input := "Name,Value,Status\nProject Falcon,100\n"

	headers, rows, err := ReadCSVBoard(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, headers, 3)
	require.Len(t, rows, 1)

	_, present := rows[0]["Status"]
	assert.False(t, present)
	assert.Equal(t, "100", rows[0]["Value"])
}

func TestReadCSVBoard_LongRowDropsExtraCells(t *testing.T) {
	input := "Name,Value\nProject Falcon,100,stray\n"

	_, rows, err := ReadCSVBoard(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Len(t, rows[0], 2)
}

func TestReadCSVBoard_EmptyFile(t *testing.T) {
	_, _, err := ReadCSVBoard(strings.NewReader(""))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty file")
}

func TestReadCSVBoard_HeaderOnly(t *testing.T) {
	headers, rows, err := ReadCSVBoard(strings.NewReader("Name,Value\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"Name", "Value"}, headers)
	assert.Empty(t, rows)
}
