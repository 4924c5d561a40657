package dataset

import (
	"fmt"

	"github.com/parquet-go/parquet-go"
)

// ReadParquetQueries reads a BEIR queries export stored as parquet with
// string columns "_id" and "text".
func ReadParquetQueries(path string) ([]RawQuery, error) {
	rows, err := parquet.ReadFile[RawQuery](path)
	if err != nil {
		return nil, fmt.Errorf("read parquet rows: %w", err)
	}
	for i, r := range rows {
		if r.ID == "" {
			return nil, fmt.Errorf("row %d: missing _id", i)
		}
	}
	return rows, nil
}

// WriteParquetQueries writes queries in the layout ReadParquetQueries expects.
func WriteParquetQueries(path string, rows []RawQuery) error {
	if err := parquet.WriteFile(path, rows); err != nil {
		return fmt.Errorf("write parquet rows: %w", err)
	}
	return nil
}
