package canvas

import "fmt"

// PreviewRowLimit is the maximum number of rows carried in a Preview.
// Previews are broadcast to every collaborator, so the payload stays bounded
// regardless of how large the underlying result is.
const PreviewRowLimit = 5

// Result is a tabular query result: ordered column names plus rectangular
// rows. Rows are positionally aligned to Columns. Results are treated as
// immutable once stored on a node.
type Result struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// Preview is a Result truncated to at most PreviewRowLimit rows, plus the
// total row count of the full result.
type Preview struct {
	Columns   []string `json:"columns"`
	Rows      [][]any  `json:"rows"`
	TotalRows int      `json:"totalRows"`
}

// Validate checks the rectangularity invariant: every row must have exactly
// len(Columns) values.
func (r *Result) Validate() error {
	for i, row := range r.Rows {
		if len(row) != len(r.Columns) {
			return fmt.Errorf("row %d has %d values, expected %d", i, len(row), len(r.Columns))
		}
	}
	return nil
}

// Preview returns a bounded copy of the result for broadcast.
func (r *Result) Preview() *Preview {
	rows := r.Rows
	if len(rows) > PreviewRowLimit {
		rows = rows[:PreviewRowLimit]
	}
	out := make([][]any, len(rows))
	copy(out, rows)
	return &Preview{
		Columns:   r.Columns,
		Rows:      out,
		TotalRows: len(r.Rows),
	}
}

// Records converts the result into a list of column-keyed records, the shape
// expected when registering the result as a relation in the analytical engine.
// Returns an error if the result is not rectangular.
func (r *Result) Records() ([]map[string]any, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	records := make([]map[string]any, len(r.Rows))
	for i, row := range r.Rows {
		rec := make(map[string]any, len(r.Columns))
		for j, col := range r.Columns {
			rec[col] = row[j]
		}
		records[i] = rec
	}
	return records, nil
}
