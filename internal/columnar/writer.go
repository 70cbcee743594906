// Package columnar writes extracted records as Parquet and rewrites
// existing Parquet files chunk by chunk without holding a whole file in
// memory.
package columnar

import (
	"bytes"

	"github.com/parquet-go/parquet-go"

	apperrors "github.com/inventohub/patent-etl/pkg/errors"
)

// Marshal serializes rows into one in-memory Parquet file.  Callers hand
// the bytes straight to the object store; grant and embedded-record files
// are small enough (one publication week) that buffering is fine.
func Marshal[T any](rows []T) ([]byte, error) {
	var buf bytes.Buffer
	w := parquet.NewGenericWriter[T](&buf)
	if _, err := w.Write(rows); err != nil {
		_ = w.Close()
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "write parquet rows")
	}
	if err := w.Close(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "finalize parquet file")
	}
	return buf.Bytes(), nil
}

// Unmarshal reads every row of an in-memory Parquet file.
func Unmarshal[T any](data []byte) ([]T, error) {
	rows, err := parquet.Read[T](bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "read parquet rows")
	}
	return rows, nil
}
