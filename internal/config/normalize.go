package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	c.normalizeServer()
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeSheets(); err != nil {
		return err
	}
	if err := c.normalizeStore(); err != nil {
		return err
	}
	c.normalizeLock()
	c.normalizeClient()
	c.normalizeLens()
	c.normalizeCapture()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizeServer() {
	c.Server.Bind = strings.TrimSpace(c.Server.Bind)
	if c.Server.Bind == "" {
		port := defaultPort
		if value, ok := os.LookupEnv("PORT"); ok && strings.TrimSpace(value) != "" {
			port = strings.TrimSpace(value)
		}
		c.Server.Bind = ":" + port
	}
	if c.Server.AdminToken == "" {
		if value, ok := os.LookupEnv("LEADLENS_ADMIN_TOKEN"); ok {
			c.Server.AdminToken = value
		}
	}
	c.Server.AdminToken = strings.TrimSpace(c.Server.AdminToken)
	origins := make([]string, 0, len(c.Server.CORSOrigins))
	for _, origin := range c.Server.CORSOrigins {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			origins = append(origins, origin)
		}
	}
	if len(origins) == 0 {
		origins = []string{defaultCORSOrigin}
	}
	c.Server.CORSOrigins = origins
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" && c.Paths.DataDir != "" {
		c.Paths.LogDir = filepath.Join(c.Paths.DataDir, "logs")
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if c.Server.StaticDir, err = expandPath(strings.TrimSpace(c.Server.StaticDir)); err != nil {
		return fmt.Errorf("server.static_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeSheets() error {
	if c.Sheets.SpreadsheetID == "" {
		if value, ok := os.LookupEnv("SPREADSHEET_ID"); ok {
			c.Sheets.SpreadsheetID = value
		}
	}
	c.Sheets.SpreadsheetID = strings.TrimSpace(c.Sheets.SpreadsheetID)
	if c.Sheets.ServiceAccountEmail == "" {
		if value, ok := os.LookupEnv("GOOGLE_SERVICE_ACCOUNT_EMAIL"); ok {
			c.Sheets.ServiceAccountEmail = value
		}
	}
	c.Sheets.ServiceAccountEmail = strings.TrimSpace(c.Sheets.ServiceAccountEmail)
	if c.Sheets.PrivateKey == "" {
		if value, ok := os.LookupEnv("GOOGLE_PRIVATE_KEY"); ok {
			c.Sheets.PrivateKey = value
		}
	}
	// Hosting dashboards store PEM keys on one line with literal \n sequences.
	c.Sheets.PrivateKey = strings.ReplaceAll(c.Sheets.PrivateKey, `\n`, "\n")
	if c.Sheets.CredentialsFile == "" {
		if value, ok := os.LookupEnv("GOOGLE_APPLICATION_CREDENTIALS"); ok {
			c.Sheets.CredentialsFile = value
		}
	}
	var err error
	if c.Sheets.CredentialsFile, err = expandPath(strings.TrimSpace(c.Sheets.CredentialsFile)); err != nil {
		return fmt.Errorf("sheets.credentials_file: %w", err)
	}
	c.Sheets.SheetName = strings.TrimSpace(c.Sheets.SheetName)
	if c.Sheets.SheetName == "" {
		c.Sheets.SheetName = defaultSheetName
	}
	c.Sheets.Endpoint = strings.TrimSpace(c.Sheets.Endpoint)
	if c.Sheets.RequestTimeout <= 0 {
		c.Sheets.RequestTimeout = defaultSheetsRequestTimeout
	}
	return nil
}

func (c *Config) normalizeStore() error {
	if c.Store.PostgresDSN == "" {
		if value, ok := os.LookupEnv("DATABASE_URL"); ok {
			c.Store.PostgresDSN = value
		}
	}
	c.Store.PostgresDSN = strings.TrimSpace(c.Store.PostgresDSN)

	c.Store.Backend = strings.ToLower(strings.TrimSpace(c.Store.Backend))
	if c.Store.Backend == "" || c.Store.Backend == StoreAuto {
		if c.Sheets.SpreadsheetID != "" {
			c.Store.Backend = StoreSheets
		} else {
			c.Store.Backend = StoreSQLite
		}
	}

	if strings.TrimSpace(c.Store.SQLitePath) == "" && c.Paths.DataDir != "" {
		c.Store.SQLitePath = filepath.Join(c.Paths.DataDir, defaultSQLiteFile)
	}
	var err error
	if c.Store.SQLitePath, err = expandPath(strings.TrimSpace(c.Store.SQLitePath)); err != nil {
		return fmt.Errorf("store.sqlite_path: %w", err)
	}
	return nil
}

func (c *Config) normalizeLock() {
	if c.Lock.RedisURL == "" {
		if value, ok := os.LookupEnv("REDIS_URL"); ok {
			c.Lock.RedisURL = value
		}
	}
	c.Lock.RedisURL = strings.TrimSpace(c.Lock.RedisURL)
	c.Lock.Backend = strings.ToLower(strings.TrimSpace(c.Lock.Backend))
	if c.Lock.Backend == "" {
		c.Lock.Backend = defaultLockBackend
	}
	if c.Lock.TTLSeconds <= 0 {
		c.Lock.TTLSeconds = defaultLockTTLSeconds
	}
	if c.Lock.WaitSeconds < 0 {
		c.Lock.WaitSeconds = defaultLockWaitSeconds
	}
}

func (c *Config) normalizeClient() {
	if c.Client.BaseURL == "" {
		if value, ok := os.LookupEnv("SERVER_URL"); ok {
			c.Client.BaseURL = value
		}
	}
	c.Client.BaseURL = strings.TrimRight(strings.TrimSpace(c.Client.BaseURL), "/")
	if c.Client.BaseURL == "" {
		c.Client.BaseURL = defaultClientBaseURL
	}
	if c.Client.MaxAttempts == 0 {
		c.Client.MaxAttempts = defaultClientMaxAttempts
	}
	if c.Client.TimeoutSeconds <= 0 {
		c.Client.TimeoutSeconds = defaultClientTimeout
	}
}

func (c *Config) normalizeLens() {
	if c.Lens.APIToken == "" {
		if value, ok := os.LookupEnv("LENS_API_TOKEN"); ok {
			c.Lens.APIToken = value
		} else if value, ok := os.LookupEnv("REACT_APP_API_TOKEN"); ok {
			c.Lens.APIToken = value
		}
	}
	c.Lens.APIToken = strings.TrimSpace(c.Lens.APIToken)
	if c.Lens.GroupID == "" {
		if value, ok := os.LookupEnv("LENS_GROUP_ID"); ok {
			c.Lens.GroupID = value
		} else if value, ok := os.LookupEnv("REACT_APP_LENS_GROUP_ID"); ok {
			c.Lens.GroupID = value
		}
	}
	c.Lens.GroupID = strings.TrimSpace(c.Lens.GroupID)
	c.Lens.DefaultLensID = strings.TrimSpace(c.Lens.DefaultLensID)
}

func (c *Config) normalizeCapture() {
	c.Capture.FFmpegBinary = strings.TrimSpace(c.Capture.FFmpegBinary)
	if c.Capture.FFmpegBinary == "" {
		c.Capture.FFmpegBinary = defaultFFmpegBinary
	}
	if c.Capture.MaxRecordSeconds == 0 {
		c.Capture.MaxRecordSeconds = defaultMaxRecordSeconds
	}
	if c.Capture.TargetVideoBytes == 0 {
		c.Capture.TargetVideoBytes = defaultTargetVideoBytes
	}
	if c.Capture.ShareLimitBytes == 0 {
		c.Capture.ShareLimitBytes = defaultShareLimitBytes
	}
}

func (c *Config) normalizeNotifications() {
	if c.Notifications.NtfyTopic == "" {
		if value, ok := os.LookupEnv("NTFY_TOPIC"); ok {
			c.Notifications.NtfyTopic = value
		}
	}
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyRequestTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
