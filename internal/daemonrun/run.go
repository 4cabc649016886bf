package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"leadlens/internal/config"
	"leadlens/internal/daemon"
	"leadlens/internal/deps"
	"leadlens/internal/logging"
	"leadlens/internal/preflight"
)

// Options configures server process runtime behavior.
type Options struct {
	LogLevel    string
	Development bool
	// SkipPreflight starts even when a required check fails.
	SkipPreflight bool
	// Ready is called with the bound address once the listener is up.
	Ready func(addr string)
}

// Run starts the leadlens server and blocks until cmdCtx is cancelled or the
// process receives SIGINT/SIGTERM.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logCfg := *cfg
	if level := strings.TrimSpace(opts.LogLevel); level != "" {
		logCfg.Logging.Level = level
	}
	if opts.Development {
		logCfg.Server.Development = true
	}
	logger, err := logging.NewFromConfig(&logCfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	if err := runPreflight(signalCtx, logger, cfg, opts.SkipPreflight); err != nil {
		return err
	}
	logDependencySnapshot(logger, cfg)

	pidPath := filepath.Join(cfg.Paths.DataDir, "leadlens.pid")
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	d, err := daemon.New(signalCtx, &logCfg, logger)
	if err != nil {
		logging.ErrorWithContext(signalCtx, logger, "open lead backends", "daemon_open_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check store and lock settings in config.toml"),
		)
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	if err := d.Start(signalCtx); err != nil {
		return err
	}
	if opts.Ready != nil {
		opts.Ready(d.Status().Addr)
	}

	<-signalCtx.Done()
	logger.Info("leadlens shutting down")
	return nil
}

func runPreflight(ctx context.Context, logger *slog.Logger, cfg *config.Config, skip bool) error {
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}
	results := preflight.RunAll(ctx, cfg)
	for _, r := range results {
		if r.Passed {
			logger.Debug("preflight check passed", logging.String("check", r.Name), logging.String("detail", r.Detail))
			continue
		}
		impact := "server will not start"
		if r.Optional || skip {
			impact = "continuing without it"
		}
		logging.WarnWithContext(ctx, logger, "preflight check failed", "preflight_failed",
			logging.String("check", r.Name),
			logging.String("detail", r.Detail),
			logging.String(logging.FieldImpact, impact),
		)
	}
	if failed := preflight.Failed(results); len(failed) > 0 && !skip {
		return fmt.Errorf("preflight failed: %s: %s", failed[0].Name, failed[0].Detail)
	}
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}

func logDependencySnapshot(logger *slog.Logger, cfg *config.Config) {
	if logger == nil || cfg == nil {
		return
	}
	ffmpeg := deps.CheckFFmpeg(cfg.Capture.FFmpegBinary)
	logger.Info("dependency snapshot",
		logging.String(logging.FieldEventType, "dependency_snapshot"),
		logging.String("store_backend", daemon.ResolveStoreBackend(cfg)),
		logging.String("lock_backend", cfg.Lock.Backend),
		logging.Bool("sheets_configured", strings.TrimSpace(cfg.Sheets.SpreadsheetID) != ""),
		logging.Bool("lens_token_present", strings.TrimSpace(cfg.Lens.APIToken) != ""),
		logging.Bool("admin_token_present", strings.TrimSpace(cfg.Server.AdminToken) != ""),
		logging.Bool("ntfy_configured", strings.TrimSpace(cfg.Notifications.NtfyTopic) != ""),
		logging.Bool("ffmpeg_available", ffmpeg.Available),
		logging.String("ffmpeg_binary", ffmpeg.Command),
	)
}
