package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

type AppConfig struct {
	ListenAddr string          `yaml:"listen_addr" env:"TICKETDESK_LISTEN_ADDR" env-default:"0.0.0.0:3000"`
	StaticDir  string          `yaml:"static_dir" env:"TICKETDESK_STATIC_DIR"`
	LogLevel   string          `yaml:"log_level" env:"TICKETDESK_LOG_LEVEL" env-default:"info"`
	LogFormat  string          `yaml:"log_format" env:"TICKETDESK_LOG_FORMAT" env-default:"text"`
	Storage    StorageConfig   `yaml:"storage"`
	Mail       MailConfig      `yaml:"mail"`
	Scheduler  SchedulerConfig `yaml:"scheduler"`
	Security   SecurityConfig  `yaml:"security"`
}

const (
	DriverJSON     = "json"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type StorageConfig struct {
	Driver     string `yaml:"driver" env:"TICKETDESK_STORAGE_DRIVER" env-default:"json"`
	DataDir    string `yaml:"data_dir" env:"TICKETDESK_DATA_DIR" env-default:"data"`
	File       string `yaml:"file" env:"TICKETDESK_DATA_FILE" env-default:"tickets.json"`
	SQLitePath string `yaml:"sqlite_path" env:"TICKETDESK_SQLITE_PATH"`
	DBURL      string `yaml:"db_url" env:"TICKETDESK_DB_URL"`
}

// TicketsFile is the JSON document path used by the json driver.
func (c StorageConfig) TicketsFile() string {
	return filepath.Join(c.DataDir, c.File)
}

// EffectiveSQLitePath falls back to tickets.db inside DataDir.
func (c StorageConfig) EffectiveSQLitePath() string {
	if strings.TrimSpace(c.SQLitePath) != "" {
		return c.SQLitePath
	}
	return filepath.Join(c.DataDir, "tickets.db")
}

type MailConfig struct {
	Host       string `yaml:"host" env:"SMTP_HOST"`
	Port       int    `yaml:"port" env:"SMTP_PORT" env-default:"587"`
	User       string `yaml:"user" env:"SMTP_USER"`
	Password   string `yaml:"password" env:"SMTP_PASS"`
	From       string `yaml:"from" env:"SMTP_FROM"`
	AdminEmail string `yaml:"admin_email" env:"ADMIN_EMAIL"`
	TimeoutSec int    `yaml:"timeout_sec" env:"SMTP_TIMEOUT_SEC" env-default:"10"`
}

const defaultMailFrom = "no-reply@example.com"

func (c MailConfig) Configured() bool {
	return strings.TrimSpace(c.Host) != "" && strings.TrimSpace(c.User) != "" && c.Password != ""
}

func (c MailConfig) EffectiveFrom() string {
	if v := strings.TrimSpace(c.From); v != "" {
		return v
	}
	if v := strings.TrimSpace(c.User); v != "" {
		return v
	}
	return defaultMailFrom
}

// ImplicitTLS reports whether the SMTP port expects TLS from the first byte.
func (c MailConfig) ImplicitTLS() bool {
	return c.Port == 465
}

func (c MailConfig) Timeout() time.Duration {
	if c.TimeoutSec <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.TimeoutSec) * time.Second
}

type SchedulerConfig struct {
	Enabled           bool   `yaml:"enabled" env:"TICKETDESK_SCHEDULER_ENABLED" env-default:"true"`
	SnapshotSpec      string `yaml:"snapshot_spec" env:"TICKETDESK_SNAPSHOT_SPEC" env-default:"@every 5m"`
	OverdueDigestSpec string `yaml:"overdue_digest_spec" env:"TICKETDESK_OVERDUE_DIGEST_SPEC"`
}

type SecurityConfig struct {
	TrustedProxies []string `yaml:"trusted_proxies" env:"TICKETDESK_TRUSTED_PROXIES" env-separator:","`
}

func (c *AppConfig) Validate() error {
	if c == nil {
		return errors.New("config: nil")
	}
	if strings.TrimSpace(c.ListenAddr) == "" {
		return errors.New("config: listen_addr is required")
	}
	switch strings.ToLower(strings.TrimSpace(c.Storage.Driver)) {
	case DriverJSON:
		if strings.TrimSpace(c.Storage.File) == "" {
			return errors.New("config: storage.file is required for the json driver")
		}
	case DriverSQLite:
	case DriverPostgres:
		if strings.TrimSpace(c.Storage.DBURL) == "" {
			return errors.New("config: storage.db_url is required for the postgres driver")
		}
	default:
		return fmt.Errorf("config: unknown storage driver %q", c.Storage.Driver)
	}
	c.Storage.Driver = strings.ToLower(strings.TrimSpace(c.Storage.Driver))
	if c.Mail.Port < 0 || c.Mail.Port > 65535 {
		return fmt.Errorf("config: invalid smtp port %d", c.Mail.Port)
	}
	return nil
}
