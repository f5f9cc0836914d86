// Package fetcher reads board exports from local CSV and XLSX files,
// producing the same headers-plus-rows shape the live GraphQL client
// produces.
package fetcher

import (
	"encoding/csv"
	"io"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/skylark-bi/boardpulse/internal/model"
)

// ReadCSVBoard parses a CSV board export. The first row is the header;
// data rows may have fewer fields than the header (trailing nulls).
func ReadCSVBoard(r io.Reader) ([]string, []model.RawRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil, eris.New("csv: empty file")
	}
	if err != nil {
		return nil, nil, eris.Wrap(err, "csv: read header")
	}
	headers := make([]string, len(header))
	for i, h := range header {
		headers[i] = strings.TrimSpace(h)
	}

	var rows []model.RawRow
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, eris.Wrap(err, "csv: read row")
		}
		rows = append(rows, rowFromCells(headers, record))
	}
	return headers, rows, nil
}

// rowFromCells zips header names with cell values. Cells past the
// header width are dropped; short rows leave trailing keys absent.
func rowFromCells(headers []string, cells []string) model.RawRow {
	row := make(model.RawRow, len(headers))
	for i, cell := range cells {
		if i >= len(headers) || headers[i] == "" {
			continue
		}
		row[headers[i]] = cell
	}
	return row
}
