package rowstore

import (
	"context"
	"errors"
)

// Columns is the number of columns in a lead row.
const Columns = 4

// ErrRowNotFound indicates UpdateRow was given a ref that does not exist.
var ErrRowNotFound = errors.New("row not found")

// Row is one stored row. Values always has Columns entries when returned by
// a Table; short rows are padded with empty strings.
type Row struct {
	Ref    int
	Values []string
}

// Table is an ordered row store. Implementations are safe for concurrent use.
type Table interface {
	// Rows returns every row in storage order.
	Rows(ctx context.Context) ([]Row, error)
	// UpdateRow overwrites the row identified by ref.
	UpdateRow(ctx context.Context, ref int, values []string) error
	// AppendRow adds a row after the last one.
	AppendRow(ctx context.Context, values []string) error
}

// Pad returns values extended or truncated to exactly Columns entries.
func Pad(values []string) []string {
	out := make([]string, Columns)
	copy(out, values)
	return out
}
