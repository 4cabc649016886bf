package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateStore(); err != nil {
		return err
	}
	if err := c.validateLock(); err != nil {
		return err
	}
	if err := c.validateClient(); err != nil {
		return err
	}
	if err := c.validateCapture(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateServer() error {
	if strings.TrimSpace(c.Server.Bind) == "" {
		return errors.New("server.bind must be set")
	}
	return nil
}

func (c *Config) validateStore() error {
	switch c.Store.Backend {
	case StoreSheets:
		return c.validateSheets()
	case StoreSQLite:
		if c.Store.SQLitePath == "" {
			return errors.New("store.sqlite_path must be set when store.backend is sqlite")
		}
	case StorePostgres:
		if c.Store.PostgresDSN == "" {
			return errors.New("store.postgres_dsn is required when store.backend is postgres. Set DATABASE_URL or edit the config")
		}
	case StoreMemory:
	default:
		return fmt.Errorf("store.backend %q is not one of auto, sheets, sqlite, postgres, memory", c.Store.Backend)
	}
	return nil
}

func (c *Config) validateSheets() error {
	if c.Sheets.SpreadsheetID == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = defaultConfigPath
		}
		return fmt.Errorf("sheets.spreadsheet_id is required. Set SPREADSHEET_ID env var or edit %s (create with 'leadlens config init')", defaultPath)
	}
	hasKeyPair := c.Sheets.ServiceAccountEmail != "" && c.Sheets.PrivateKey != ""
	if !hasKeyPair && c.Sheets.CredentialsFile == "" {
		return errors.New("sheets credentials are required. Set GOOGLE_SERVICE_ACCOUNT_EMAIL and GOOGLE_PRIVATE_KEY, or GOOGLE_APPLICATION_CREDENTIALS")
	}
	if c.Sheets.ServiceAccountEmail != "" && c.Sheets.PrivateKey == "" && c.Sheets.CredentialsFile == "" {
		return errors.New("sheets.private_key is required when sheets.service_account_email is set")
	}
	if c.Sheets.Endpoint != "" {
		if _, err := url.ParseRequestURI(c.Sheets.Endpoint); err != nil {
			return fmt.Errorf("sheets.endpoint: %w", err)
		}
	}
	return nil
}

func (c *Config) validateLock() error {
	switch c.Lock.Backend {
	case LockLocal:
	case LockRedis:
		if c.Lock.RedisURL == "" {
			return errors.New("lock.redis_url is required when lock.backend is redis. Set REDIS_URL or edit the config")
		}
	default:
		return fmt.Errorf("lock.backend %q is not one of local, redis", c.Lock.Backend)
	}
	if c.Lock.TTLSeconds <= 0 {
		return errors.New("lock.ttl_seconds must be positive")
	}
	if c.Lock.WaitSeconds < 0 {
		return errors.New("lock.wait_seconds must be >= 0")
	}
	return nil
}

func (c *Config) validateClient() error {
	parsed, err := url.Parse(c.Client.BaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("client.base_url %q must be an absolute URL", c.Client.BaseURL)
	}
	if c.Client.MaxAttempts < 1 {
		return errors.New("client.max_attempts must be >= 1")
	}
	if c.Client.RetryDelayMillis < 0 {
		return errors.New("client.retry_delay_ms must be >= 0")
	}
	return nil
}

func (c *Config) validateCapture() error {
	if c.Capture.MaxRecordSeconds <= 0 {
		return errors.New("capture.max_record_seconds must be positive")
	}
	if c.Capture.HoldDelayMillis < 0 {
		return errors.New("capture.hold_delay_ms must be >= 0")
	}
	if c.Capture.TargetVideoBytes <= 0 {
		return errors.New("capture.target_video_bytes must be positive")
	}
	if c.Capture.ShareLimitBytes <= 0 {
		return errors.New("capture.share_limit_bytes must be positive")
	}
	return nil
}
