package config

// Store backends.
const (
	StoreAuto     = "auto"
	StoreSheets   = "sheets"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Lock backends.
const (
	LockLocal = "local"
	LockRedis = "redis"
)

const (
	defaultConfigPath            = "~/.config/leadlens/config.toml"
	defaultPort                  = "8016"
	defaultDataDir               = "~/.local/share/leadlens"
	defaultSheetName             = "Sheet1"
	defaultSheetsRequestTimeout  = 15
	defaultSQLiteFile            = "leads.db"
	defaultLockTTLSeconds        = 10
	defaultLockWaitSeconds       = 5
	defaultClientBaseURL         = "http://localhost:" + defaultPort
	defaultClientMaxAttempts     = 3
	defaultClientRetryDelay      = 1000
	defaultClientTimeout         = 15
	defaultMaxRecordSeconds      = 15
	defaultHoldDelayMillis       = 300
	defaultFFmpegBinary          = "ffmpeg"
	defaultTargetVideoBytes      = 15 * 1024 * 1024
	defaultShareLimitBytes       = 16 * 1024 * 1024
	defaultNotifyRequestTimeout  = 10
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
	defaultCORSOrigin            = "*"
	defaultStoreBackend          = StoreAuto
	defaultLockBackend           = LockLocal
	defaultNotifyLeadCaptured    = true
	defaultNotifyStoreFailures   = true
	defaultServerDevelopmentMode = false
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Server: Server{
			CORSOrigins: []string{defaultCORSOrigin},
			Development: defaultServerDevelopmentMode,
		},
		Paths: Paths{
			DataDir: defaultDataDir,
		},
		Sheets: Sheets{
			SheetName:      defaultSheetName,
			RequestTimeout: defaultSheetsRequestTimeout,
		},
		Store: Store{
			Backend: defaultStoreBackend,
		},
		Lock: Lock{
			Backend:     defaultLockBackend,
			TTLSeconds:  defaultLockTTLSeconds,
			WaitSeconds: defaultLockWaitSeconds,
		},
		Client: Client{
			MaxAttempts:      defaultClientMaxAttempts,
			RetryDelayMillis: defaultClientRetryDelay,
			TimeoutSeconds:   defaultClientTimeout,
		},
		Capture: Capture{
			MaxRecordSeconds: defaultMaxRecordSeconds,
			HoldDelayMillis:  defaultHoldDelayMillis,
			FFmpegBinary:     defaultFFmpegBinary,
			TargetVideoBytes: defaultTargetVideoBytes,
			ShareLimitBytes:  defaultShareLimitBytes,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
			LeadCaptured:   defaultNotifyLeadCaptured,
			StoreFailures:  defaultNotifyStoreFailures,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
