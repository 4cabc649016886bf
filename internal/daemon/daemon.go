package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/gofrs/flock"

	"leadlens/internal/config"
	"leadlens/internal/leads"
	"leadlens/internal/logging"
	"leadlens/internal/notifications"
	"leadlens/internal/rowstore"
	"leadlens/internal/server"
)

// Daemon owns the lead backends and the HTTP server for one process.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	lockPath string
	lock     *flock.Flock

	backends []backend
	server   *server.Server

	running atomic.Bool
}

// Status represents daemon runtime information.
type Status struct {
	Running bool
	Addr    string
	Store   string
	Lock    string
}

// Option customizes a Daemon.
type Option func(*options)

type options struct {
	table    rowstore.Table
	notifier notifications.Service
}

// WithTable replaces the configured store backend with table.
func WithTable(table rowstore.Table) Option {
	return func(o *options) {
		o.table = table
	}
}

// WithNotifier replaces the ntfy notifier built from config.
func WithNotifier(notifier notifications.Service) Option {
	return func(o *options) {
		o.notifier = notifier
	}
}

// New opens the configured backends and wires the HTTP server. Nothing
// listens until Start.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts ...Option) (*Daemon, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	d := &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		lockPath: cfg.LockFilePath(),
		lock:     flock.New(cfg.LockFilePath()),
	}

	table := o.table
	if table == nil {
		opened, info, err := openTable(ctx, cfg)
		if err != nil {
			return nil, err
		}
		table = opened
		d.backends = append(d.backends, info)
	} else {
		d.backends = append(d.backends, backend{name: "store", kind: "injected"})
	}

	locker, lockInfo, err := openLocker(cfg, d.logger)
	if err != nil {
		_ = d.closeBackends()
		return nil, err
	}
	d.backends = append(d.backends, lockInfo)

	notifier := o.notifier
	if notifier == nil {
		notifier = notifications.NewService(cfg)
	}

	leadSvc := leads.NewService(table, locker, logger, leads.WithNotifier(notifier))

	serverOpts := make([]server.Option, 0, len(d.backends))
	for _, b := range d.backends {
		serverOpts = append(serverOpts, server.WithHealthCheck(b.name, b.check))
	}
	d.server = server.New(cfg, leadSvc, logger, serverOpts...)
	return d, nil
}

// Start acquires the instance lock and begins serving.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	if err := os.MkdirAll(filepath.Dir(d.lockPath), 0o755); err != nil {
		return fmt.Errorf("ensure lock directory: %w", err)
	}
	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("another leadlens instance is already using %s", d.lockPath)
	}

	if err := d.server.Start(ctx); err != nil {
		_ = d.lock.Unlock()
		return fmt.Errorf("start http server: %w", err)
	}

	d.running.Store(true)
	d.logger.Info("leadlens daemon started",
		logging.String("lock", d.lockPath),
		logging.String("addr", d.server.Addr()),
	)
	return nil
}

// Stop shuts the server down and releases the instance lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}
	d.server.Stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("leadlens daemon stopped")
}

// Close stops the daemon and releases its backends.
func (d *Daemon) Close() error {
	d.Stop()
	return d.closeBackends()
}

// Status reports the current lifecycle state.
func (d *Daemon) Status() Status {
	status := Status{Running: d.running.Load()}
	if status.Running {
		status.Addr = d.server.Addr()
	}
	for _, b := range d.backends {
		switch b.name {
		case "store":
			status.Store = b.kind
		case "lock":
			status.Lock = b.kind
		}
	}
	return status
}

// Handler exposes the HTTP handler for in-process callers.
func (d *Daemon) Handler() http.Handler {
	return d.server.Handler()
}

func (d *Daemon) closeBackends() error {
	var errs []error
	for i := len(d.backends) - 1; i >= 0; i-- {
		if closeFn := d.backends[i].close; closeFn != nil {
			if err := closeFn(); err != nil {
				errs = append(errs, fmt.Errorf("close %s: %w", d.backends[i].name, err))
			}
		}
	}
	d.backends = nil
	return errors.Join(errs...)
}
