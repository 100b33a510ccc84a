// Package dataset handles tabular customer data: row counting for uploaded
// CSVs and the fixed sample dataset served for demos.
package dataset

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
)

// CountRows parses content as CSV and returns the number of data rows,
// excluding the header. An empty file counts as zero customers.
func CountRows(content []byte) (int, error) {
	r := csv.NewReader(bytes.NewReader(content))
	r.FieldsPerRecord = -1 // ragged rows are the model's problem, not ours

	rows := 0
	for {
		_, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("parse csv: %w", err)
		}
		rows++
	}

	if rows == 0 {
		return 0, nil
	}
	return rows - 1, nil
}
