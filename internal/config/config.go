package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App     AppConfig    `mapstructure:"app"`
	Sources []SourceSpec `mapstructure:"sources"`
	Targets []TargetSpec `mapstructure:"targets"`
	Backup  BackupConfig `mapstructure:"backup"`
}

type AppConfig struct {
	Name     string `mapstructure:"name"`
	LogLevel string `mapstructure:"log_level"`
	LogFile  string `mapstructure:"log_file"`
}

// SourceSpec identifies one database to back up. Loaded once, never mutated.
type SourceSpec struct {
	ID       string `mapstructure:"id"`
	Kind     string `mapstructure:"kind"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule"`

	// PostgreSQL specific
	SSLMode string `mapstructure:"ssl_mode"`

	// MongoDB specific
	AuthDatabase string `mapstructure:"auth_database"`
}

// TargetSpec identifies one delivery destination. A telegram target receives
// status summaries rather than artifact bytes.
type TargetSpec struct {
	ID      string `mapstructure:"id"`
	Kind    string `mapstructure:"kind"`
	Enabled bool   `mapstructure:"enabled"`

	// FTP
	Host      string `mapstructure:"host"`
	Port      int    `mapstructure:"port"`
	Username  string `mapstructure:"username"`
	Password  string `mapstructure:"password"`
	RemoteDir string `mapstructure:"remote_dir"`
	TLS       bool   `mapstructure:"tls"`

	// AWS S3 (or any S3-compatible store via endpoint)
	Region    string `mapstructure:"region"`
	Bucket    string `mapstructure:"bucket"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Endpoint  string `mapstructure:"endpoint"`
	Prefix    string `mapstructure:"prefix"`

	// Google Drive
	CredentialsFile string `mapstructure:"credentials_file"`
	FolderID        string `mapstructure:"folder_id"`

	// Telegram
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
	SendFile bool   `mapstructure:"send_file"`
}

type BackupConfig struct {
	LocalPath          string        `mapstructure:"local_path"`
	RetentionDays      int           `mapstructure:"retention_days"`
	LocalRetentionDays int           `mapstructure:"local_retention_days"`
	MaxParallel        int           `mapstructure:"max_parallel"`
	DumpTimeout        time.Duration `mapstructure:"dump_timeout"`
	DeliverTimeout     time.Duration `mapstructure:"deliver_timeout"`
	EagerAlerts        bool          `mapstructure:"eager_alerts"`
}

var sourceKinds = map[string]bool{
	"postgresql": true,
	"mysql":      true,
	"mongodb":    true,
}

var targetKinds = map[string]bool{
	"local":    true,
	"ftp":      true,
	"s3":       true,
	"gdrive":   true,
	"telegram": true,
}

func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetDefault("app.name", "argus")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("backup.retention_days", 7)
	v.SetDefault("backup.max_parallel", 1)
	v.SetDefault("backup.dump_timeout", "15m")
	v.SetDefault("backup.deliver_timeout", "10m")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if len(c.Sources) == 0 {
		return fmt.Errorf("at least one source configuration is required")
	}

	seen := make(map[string]bool)
	for i, s := range c.Sources {
		if s.ID == "" {
			return fmt.Errorf("sources[%d]: id is required", i)
		}
		if seen[s.ID] {
			return fmt.Errorf("sources[%d]: duplicate id %q", i, s.ID)
		}
		seen[s.ID] = true
		if !sourceKinds[s.Kind] {
			return fmt.Errorf("sources[%d]: unknown kind %q", i, s.Kind)
		}
		if s.Host == "" {
			return fmt.Errorf("sources[%d]: host is required", i)
		}
		if s.Database == "" {
			return fmt.Errorf("sources[%d]: database is required", i)
		}
	}

	seen = make(map[string]bool)
	for i, t := range c.Targets {
		if t.ID == "" {
			return fmt.Errorf("targets[%d]: id is required", i)
		}
		if seen[t.ID] {
			return fmt.Errorf("targets[%d]: duplicate id %q", i, t.ID)
		}
		seen[t.ID] = true
		if !targetKinds[t.Kind] {
			return fmt.Errorf("targets[%d]: unknown kind %q", i, t.Kind)
		}
		switch t.Kind {
		case "ftp":
			if t.Host == "" {
				return fmt.Errorf("targets[%d]: host is required for ftp", i)
			}
		case "s3":
			if t.Bucket == "" {
				return fmt.Errorf("targets[%d]: bucket is required for s3", i)
			}
		case "gdrive":
			if t.CredentialsFile == "" {
				return fmt.Errorf("targets[%d]: credentials_file is required for gdrive", i)
			}
		case "telegram":
			if t.BotToken == "" || t.ChatID == "" {
				return fmt.Errorf("targets[%d]: bot_token and chat_id are required for telegram", i)
			}
		}
	}

	if c.Backup.LocalPath == "" {
		return fmt.Errorf("backup.local_path is required")
	}
	if c.Backup.RetentionDays <= 0 {
		return fmt.Errorf("backup.retention_days must be positive")
	}

	return nil
}

func (c *Config) EnabledSources() []SourceSpec {
	var enabled []SourceSpec
	for _, s := range c.Sources {
		if s.Enabled {
			enabled = append(enabled, s)
		}
	}
	return enabled
}

// FindSource looks a source up by id regardless of its enabled flag, so
// restores can address sources excluded from scheduled runs.
func (c *Config) FindSource(id string) (*SourceSpec, bool) {
	for i := range c.Sources {
		if c.Sources[i].ID == id {
			return &c.Sources[i], true
		}
	}
	return nil, false
}

// LocalRetention resolves the policy for the local backup directory: the
// dedicated override when set, the shared retention policy otherwise.
func (c *Config) LocalRetention() int {
	if c.Backup.LocalRetentionDays > 0 {
		return c.Backup.LocalRetentionDays
	}
	return c.Backup.RetentionDays
}
