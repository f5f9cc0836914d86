package fetcher

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/skylark-bi/boardpulse/internal/model"
)

// ReadXLSXBoard parses an Excel board export. If sheetName is empty
// the first sheet is used; the sheet's first row is the header.
func ReadXLSXBoard(path, sheetName string) ([]string, []model.RawRow, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, nil, eris.Wrapf(err, "xlsx: open %s", path)
	}

	sheet, err := pickSheet(f, sheetName)
	if err != nil {
		return nil, nil, err
	}
	if len(sheet.Rows) == 0 {
		return nil, nil, eris.Errorf("xlsx: sheet %q is empty", sheet.Name)
	}

	headers := rowToStrings(sheet.Rows[0])
	for i, h := range headers {
		headers[i] = strings.TrimSpace(h)
	}

	var rows []model.RawRow
	for _, r := range sheet.Rows[1:] {
		rows = append(rows, rowFromCells(headers, rowToStrings(r)))
	}
	return headers, rows, nil
}

func pickSheet(f *xlsx.File, name string) (*xlsx.Sheet, error) {
	if name == "" {
		if len(f.Sheets) == 0 {
			return nil, eris.New("xlsx: file has no sheets")
		}
		return f.Sheets[0], nil
	}
	sheet, ok := f.Sheet[name]
	if !ok {
		return nil, eris.Errorf("xlsx: sheet %q not found", name)
	}
	return sheet, nil
}

func rowToStrings(row *xlsx.Row) []string {
	out := make([]string, len(row.Cells))
	for i, cell := range row.Cells {
		out[i] = cell.String()
	}
	return out
}
