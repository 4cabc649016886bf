package testsupport

import (
	"context"
	"testing"

	"leadlens/internal/config"
	"leadlens/internal/leadlock"
	"leadlens/internal/leads"
	"leadlens/internal/logging"
	"leadlens/internal/rowstore"
)

// MustOpenSQLite opens the SQLite lead table at cfg.Store.SQLitePath and
// registers cleanup.
func MustOpenSQLite(t testing.TB, cfg *config.Config) *rowstore.SQL {
	t.Helper()

	table, err := rowstore.OpenSQLite(context.Background(), cfg.Store.SQLitePath)
	if err != nil {
		t.Fatalf("rowstore.OpenSQLite: %v", err)
	}
	t.Cleanup(func() {
		_ = table.Close()
	})
	return table
}

// NewLeadService wires a lead service over table with an in-process lock and
// a silent logger.
func NewLeadService(t testing.TB, table rowstore.Table, opts ...leads.Option) *leads.Service {
	t.Helper()
	return leads.NewService(table, leadlock.NewLocal(), logging.NewNop(), opts...)
}

// SeedLead appends a lead row directly, bypassing the upsert.
func SeedLead(t testing.TB, table rowstore.Table, timestamp, name, email, color string) {
	t.Helper()

	if err := table.AppendRow(context.Background(), []string{timestamp, name, email, color}); err != nil {
		t.Fatalf("seed lead %s: %v", email, err)
	}
}
