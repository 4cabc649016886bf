package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Server contains HTTP listener and routing configuration.
type Server struct {
	Bind        string   `toml:"bind"`
	StaticDir   string   `toml:"static_dir"`
	CORSOrigins []string `toml:"cors_origins"`
	AdminToken  string   `toml:"admin_token"`
	Development bool     `toml:"development"`
}

// Paths contains local directories used by the server.
type Paths struct {
	DataDir string `toml:"data_dir"`
	LogDir  string `toml:"log_dir"`
}

// Sheets contains configuration for the Google Sheets lead table.
type Sheets struct {
	SpreadsheetID       string `toml:"spreadsheet_id"`
	SheetName           string `toml:"sheet_name"`
	ServiceAccountEmail string `toml:"service_account_email"`
	PrivateKey          string `toml:"private_key"`
	CredentialsFile     string `toml:"credentials_file"`
	Endpoint            string `toml:"endpoint"`
	RequestTimeout      int    `toml:"request_timeout"`
}

// Store selects the table backend leads are written to.
type Store struct {
	Backend     string `toml:"backend"`
	SQLitePath  string `toml:"sqlite_path"`
	PostgresDSN string `toml:"postgres_dsn"`
}

// Lock configures per-email write serialization.
type Lock struct {
	Backend     string `toml:"backend"`
	RedisURL    string `toml:"redis_url"`
	TTLSeconds  int    `toml:"ttl_seconds"`
	WaitSeconds int    `toml:"wait_seconds"`
}

// Client contains settings for the lead API client.
type Client struct {
	BaseURL          string `toml:"base_url"`
	MaxAttempts      int    `toml:"max_attempts"`
	RetryDelayMillis int    `toml:"retry_delay_ms"`
	TimeoutSeconds   int    `toml:"timeout_seconds"`
}

// Lens contains the camera lens provider wiring handed to the capture page.
type Lens struct {
	APIToken      string `toml:"api_token"`
	GroupID       string `toml:"group_id"`
	DefaultLensID string `toml:"default_lens_id"`
}

// Capture contains limits applied by the capture orchestrator.
type Capture struct {
	MaxRecordSeconds int    `toml:"max_record_seconds"`
	HoldDelayMillis  int    `toml:"hold_delay_ms"`
	FFmpegBinary     string `toml:"ffmpeg_binary"`
	TargetVideoBytes int64  `toml:"target_video_bytes"`
	ShareLimitBytes  int64  `toml:"share_limit_bytes"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	LeadCaptured   bool   `toml:"lead_captured"`
	StoreFailures  bool   `toml:"store_failures"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for leadlens.
//
// Configuration sections by subsystem:
//   - Server: listener, static build directory, CORS, admin token
//   - Paths: data and log directories
//   - Sheets: Google Sheets spreadsheet and service account
//   - Store: lead table backend (sheets, sqlite, postgres, memory)
//   - Lock: per-email lock backend (local or redis)
//   - Client: API client base URL and retry policy
//   - Lens: lens provider token and group for the capture page
//   - Capture: recording limits and transcoder settings
//   - Notifications: ntfy push notification settings
//   - Logging: log format and level
type Config struct {
	Server        Server        `toml:"server"`
	Paths         Paths         `toml:"paths"`
	Sheets        Sheets        `toml:"sheets"`
	Store         Store         `toml:"store"`
	Lock          Lock          `toml:"lock"`
	Client        Client        `toml:"client"`
	Lens          Lens          `toml:"lens"`
	Capture       Capture       `toml:"capture"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. Any .env file next
// to the config file or in the working directory is loaded first without
// overriding variables that are already set. The returned config has all path
// fields expanded and the store backend resolved.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if err := loadDotEnv(filepath.Join(filepath.Dir(resolvedPath), ".env"), ".env"); err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func loadDotEnv(paths ...string) error {
	seen := make(map[string]struct{}, len(paths))
	for _, candidate := range paths {
		abs, err := filepath.Abs(candidate)
		if err != nil {
			continue
		}
		if _, ok := seen[abs]; ok {
			continue
		}
		seen[abs] = struct{}{}
		info, err := os.Stat(abs)
		if err != nil || info.IsDir() {
			continue
		}
		if err := godotenv.Load(abs); err != nil {
			return fmt.Errorf("load env file %s: %w", abs, err)
		}
	}
	return nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("leadlens.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the data and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if c.Store.Backend == StoreSQLite {
		if err := os.MkdirAll(filepath.Dir(c.Store.SQLitePath), 0o755); err != nil {
			return fmt.Errorf("create sqlite directory: %w", err)
		}
	}
	return nil
}

// LockFilePath returns the single-instance lock used by the server.
func (c *Config) LockFilePath() string {
	return filepath.Join(c.Paths.DataDir, "leadlens.lock")
}

// LogFilePath returns the file the server mirrors its log output to.
func (c *Config) LogFilePath() string {
	return filepath.Join(c.Paths.LogDir, "leadlens.log")
}

// SheetRange returns the A1 range covering every lead column.
func (c *Config) SheetRange() string {
	return c.Sheets.SheetName + "!A:D"
}

// RetryDelay returns the base delay the API client multiplies per attempt.
func (c *Config) RetryDelay() time.Duration {
	return time.Duration(c.Client.RetryDelayMillis) * time.Millisecond
}

// HoldDelay returns how long the capture trigger must be held before recording starts.
func (c *Config) HoldDelay() time.Duration {
	return time.Duration(c.Capture.HoldDelayMillis) * time.Millisecond
}

// MaxRecordDuration returns the recording limit.
func (c *Config) MaxRecordDuration() time.Duration {
	return time.Duration(c.Capture.MaxRecordSeconds) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
