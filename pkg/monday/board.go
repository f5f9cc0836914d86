package monday

// NameColumn is the synthesized column carrying each item's display
// name. Item names arrive outside column_values on the wire, so the
// flattener injects them as the first column.
const NameColumn = "Name"

// Board is a fetched board flattened to ordered headers plus one
// string map per item. A key absent from a row map means the cell was
// null at the source.
type Board struct {
	ID      string
	Name    string
	Headers []string
	Rows    []map[string]string
}

func newBoard(id, name string) *Board {
	return &Board{
		ID:      id,
		Name:    name,
		Headers: []string{NameColumn},
	}
}

// addItems flattens items into rows, extending Headers with column
// titles in first-seen order. Untitled columns are dropped; null cell
// text leaves the key absent.
func (b *Board) addItems(items []item) {
	seen := make(map[string]bool, len(b.Headers))
	for _, h := range b.Headers {
		seen[h] = true
	}

	for _, it := range items {
		row := map[string]string{NameColumn: it.Name}
		for _, cv := range it.ColumnValues {
			title := cv.Column.Title
			if title == "" {
				continue
			}
			if !seen[title] {
				seen[title] = true
				b.Headers = append(b.Headers, title)
			}
			if cv.Text != nil {
				row[title] = *cv.Text
			}
		}
		b.Rows = append(b.Rows, row)
	}
}
