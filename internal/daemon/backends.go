package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"leadlens/internal/config"
	"leadlens/internal/leadlock"
	"leadlens/internal/logging"
	"leadlens/internal/rowstore"
	"leadlens/internal/server"
	"leadlens/internal/services/sheets"
)

// backend is an opened dependency with its probe and release hook.
type backend struct {
	name  string
	kind  string
	check server.HealthCheck
	close func() error
}

// ResolveStoreBackend maps "auto" to sheets when a spreadsheet is configured
// and to sqlite otherwise.
func ResolveStoreBackend(cfg *config.Config) string {
	backend := strings.ToLower(strings.TrimSpace(cfg.Store.Backend))
	if backend == "" || backend == config.StoreAuto {
		if strings.TrimSpace(cfg.Sheets.SpreadsheetID) != "" {
			return config.StoreSheets
		}
		return config.StoreSQLite
	}
	return backend
}

// OpenTable opens the lead table selected by cfg.Store.Backend.
func OpenTable(ctx context.Context, cfg *config.Config) (rowstore.Table, error) {
	table, _, err := openTable(ctx, cfg)
	return table, err
}

func openTable(ctx context.Context, cfg *config.Config) (rowstore.Table, backend, error) {
	kind := ResolveStoreBackend(cfg)
	info := backend{name: "store", kind: kind}

	switch kind {
	case config.StoreSheets:
		table, err := sheets.New(ctx, sheets.Config{
			SpreadsheetID:       cfg.Sheets.SpreadsheetID,
			SheetName:           cfg.Sheets.SheetName,
			ServiceAccountEmail: cfg.Sheets.ServiceAccountEmail,
			PrivateKey:          cfg.Sheets.PrivateKey,
			CredentialsFile:     cfg.Sheets.CredentialsFile,
			Endpoint:            cfg.Sheets.Endpoint,
			Timeout:             time.Duration(cfg.Sheets.RequestTimeout) * time.Second,
		})
		if err != nil {
			return nil, info, fmt.Errorf("open sheets table: %w", err)
		}
		info.check = func(ctx context.Context) error {
			_, err := table.Rows(ctx)
			return err
		}
		return table, info, nil
	case config.StoreSQLite:
		table, err := rowstore.OpenSQLite(ctx, cfg.Store.SQLitePath)
		if err != nil {
			return nil, info, err
		}
		info.check = table.Ping
		info.close = table.Close
		return table, info, nil
	case config.StorePostgres:
		table, err := rowstore.OpenPostgres(ctx, cfg.Store.PostgresDSN)
		if err != nil {
			return nil, info, err
		}
		info.check = table.Ping
		info.close = table.Close
		return table, info, nil
	case config.StoreMemory:
		return rowstore.NewMemory(), info, nil
	default:
		return nil, info, fmt.Errorf("unknown store backend %q", kind)
	}
}

func openLocker(cfg *config.Config, logger *slog.Logger) (leadlock.Locker, backend, error) {
	kind := strings.ToLower(strings.TrimSpace(cfg.Lock.Backend))
	if kind == "" {
		kind = config.LockLocal
	}
	info := backend{name: "lock", kind: kind}

	switch kind {
	case config.LockLocal:
		return leadlock.NewLocal(), info, nil
	case config.LockRedis:
		locker, client, err := leadlock.DialRedis(cfg.Lock.RedisURL,
			leadlock.WithTTL(time.Duration(cfg.Lock.TTLSeconds)*time.Second),
			leadlock.WithWait(time.Duration(cfg.Lock.WaitSeconds)*time.Second),
		)
		if err != nil {
			return nil, info, err
		}
		info.check = locker.Ping
		info.close = client.Close
		logger.Info("redis lead lock configured", logging.String("addr", client.Options().Addr))
		return locker, info, nil
	default:
		return nil, info, fmt.Errorf("unknown lock backend %q", kind)
	}
}
