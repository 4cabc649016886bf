package rowstore

import (
	"context"
	"sync"
)

// Memory is an in-process Table. Refs are 1-based positions.
type Memory struct {
	mu   sync.RWMutex
	rows [][]string
}

// NewMemory returns a Memory table seeded with rows. Seed rows are stored as
// given, including short ones.
func NewMemory(rows ...[]string) *Memory {
	m := &Memory{rows: make([][]string, 0, len(rows))}
	for _, row := range rows {
		m.rows = append(m.rows, append([]string(nil), row...))
	}
	return m
}

// Rows implements Table.
func (m *Memory) Rows(ctx context.Context) ([]Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Row, 0, len(m.rows))
	for i, values := range m.rows {
		out = append(out, Row{Ref: i + 1, Values: Pad(values)})
	}
	return out, nil
}

// UpdateRow implements Table.
func (m *Memory) UpdateRow(ctx context.Context, ref int, values []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if ref < 1 || ref > len(m.rows) {
		return ErrRowNotFound
	}
	m.rows[ref-1] = Pad(values)
	return nil
}

// AppendRow implements Table.
func (m *Memory) AppendRow(ctx context.Context, values []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = append(m.rows, Pad(values))
	return nil
}

// Len reports the number of stored rows.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rows)
}
