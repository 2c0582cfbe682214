package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"agenda/internal/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App        AppConfig        `yaml:"app"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Backup     BackupConfig     `yaml:"backup"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Logging    LoggingConfig    `yaml:"logging"`
	API        APIConfig        `yaml:"api"`
	Booking    BookingConfig    `yaml:"booking"`
	Notifier   NotifierConfig   `yaml:"notifier"`
	Reminder   ReminderConfig   `yaml:"reminder"`
	Sync       SyncConfig       `yaml:"sync"`
	Exports    ExportConfig     `yaml:"exports"`
	Google     GoogleConfig     `yaml:"google"`
}

type BookingConfig struct {
	SlotStepMinutes  int   `yaml:"slot_step_minutes"`
	MaxBookingDays   int   `yaml:"max_booking_days"`
	LockTTLSeconds   int   `yaml:"lock_ttl_seconds"`
	HideBlockedSlots *bool `yaml:"hide_blocked_slots"`
}

// HideBlocked reports whether blocked intervals are subtracted from generated slots.
func (b BookingConfig) HideBlocked() bool {
	return b.HideBlockedSlots == nil || *b.HideBlockedSlots
}

func (b BookingConfig) LockTTL() time.Duration {
	return time.Duration(b.LockTTLSeconds) * time.Second
}

type NotifierConfig struct {
	Provider       string         `yaml:"provider"`
	TimeoutSeconds int            `yaml:"timeout_seconds"`
	WhatsApp       WhatsAppConfig `yaml:"whatsapp"`
	Telegram       TelegramConfig `yaml:"telegram"`
}

func (n NotifierConfig) Timeout() time.Duration {
	return time.Duration(n.TimeoutSeconds) * time.Second
}

type WhatsAppConfig struct {
	APIURL        string `yaml:"api_url"`
	PhoneNumberID string `yaml:"phone_number_id"`
	AccessToken   string `yaml:"access_token"`
}

type TelegramConfig struct {
	BotToken string `yaml:"bot_token"`
	ChatID   int64  `yaml:"chat_id"`
	Debug    bool   `yaml:"debug"`
}

type ReminderConfig struct {
	Enabled         bool `yaml:"enabled"`
	IntervalMinutes int  `yaml:"interval_minutes"`
}

type SyncConfig struct {
	Enabled     bool   `yaml:"enabled"`
	QueueKey    string `yaml:"queue_key"`
	MaxAttempts int    `yaml:"max_attempts"`
}

type APIConfig struct {
	Enabled   bool               `yaml:"enabled"`
	HTTP      APIHTTPConfig      `yaml:"http"`
	Auth      APIAuthConfig      `yaml:"auth"`
	RateLimit APIRateLimitConfig `yaml:"rate_limit"`
}

type APIHTTPConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

type APIAuthConfig struct {
	Enabled      bool           `yaml:"enabled"`
	HeaderAPIKey string         `yaml:"header_api_key"`
	HeaderExtra  string         `yaml:"header_extra"`
	APIKeys      []APIClientKey `yaml:"api_keys"`
}

type APIClientKey struct {
	Key         string   `yaml:"key"`
	Extra       string   `yaml:"extra"`
	Name        string   `yaml:"name"`
	Permissions []string `yaml:"permissions"`
}

type APIRateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type ExportConfig struct {
	Path string `yaml:"path"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type BackupConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Schedule      string `yaml:"schedule"`
	RetentionDays int    `yaml:"retention_days"`
	StoragePath   string `yaml:"storage_path"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

type GoogleConfig struct {
	GoogleCredentialsFile string `yaml:"credentials_file"`
	BookingSpreadSheetID  string `yaml:"bookings_spreadsheet_id"`
	SheetName             string `yaml:"sheet_name"`
}

// Enabled reports whether the spreadsheet mirror has everything it needs.
func (g GoogleConfig) Enabled() bool {
	return g.GoogleCredentialsFile != "" && g.BookingSpreadSheetID != ""
}

func Load(configPath string) (*Config, error) {
	// .env необязателен: в контейнере переменные приходят из окружения
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	// Предварительная замена переменных окружения в YAML
	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

var notifierProviders = map[string]bool{"whatsapp": true, "telegram": true, "noop": true}

func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return errors.New("database path is required")
	}

	if c.Booking.SlotStepMinutes <= 0 || models.MinutesPerDay%c.Booking.SlotStepMinutes != 0 {
		return fmt.Errorf("booking.slot_step_minutes must divide a day, got %d", c.Booking.SlotStepMinutes)
	}
	if c.Booking.MaxBookingDays <= 0 {
		return errors.New("booking.max_booking_days must be positive")
	}

	if !notifierProviders[c.Notifier.Provider] {
		return fmt.Errorf("unknown notifier provider %q", c.Notifier.Provider)
	}
	switch c.Notifier.Provider {
	case "whatsapp":
		if c.Notifier.WhatsApp.PhoneNumberID == "" || c.Notifier.WhatsApp.AccessToken == "" {
			return errors.New("notifier.whatsapp requires phone_number_id and access_token")
		}
	case "telegram":
		if c.Notifier.Telegram.BotToken == "" || c.Notifier.Telegram.ChatID == 0 {
			return errors.New("notifier.telegram requires bot_token and chat_id")
		}
	}

	if c.API.Auth.Enabled && c.API.HTTP.Enabled {
		for i, k := range c.API.Auth.APIKeys {
			if strings.TrimSpace(k.Key) == "" {
				return fmt.Errorf("api.auth.api_keys[%d] has empty key", i)
			}
		}
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "agenda"
	}
	if c.API.HTTP.Port == 0 {
		c.API.HTTP.Port = 8080
	}
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}
	if !c.API.HTTP.Enabled && c.API.Enabled {
		c.API.HTTP.Enabled = true
	}
	if c.API.Auth.HeaderAPIKey == "" {
		c.API.Auth.HeaderAPIKey = "x-api-key"
	}
	if c.API.Auth.HeaderExtra == "" {
		c.API.Auth.HeaderExtra = "x-api-extra"
	}
	if c.API.RateLimit.RPS == 0 {
		c.API.RateLimit.RPS = 10
	}
	if c.API.RateLimit.Burst == 0 {
		c.API.RateLimit.Burst = 20
	}

	if c.Booking.SlotStepMinutes == 0 {
		c.Booking.SlotStepMinutes = models.SlotStepMinutes
	}
	if c.Booking.MaxBookingDays == 0 {
		c.Booking.MaxBookingDays = models.DefaultMaxBookingDays
	}
	if c.Booking.LockTTLSeconds == 0 {
		c.Booking.LockTTLSeconds = models.DefaultLockTTL
	}

	c.Notifier.Provider = strings.ToLower(strings.TrimSpace(c.Notifier.Provider))
	if c.Notifier.Provider == "" {
		c.Notifier.Provider = "noop"
	}
	if c.Notifier.TimeoutSeconds == 0 {
		c.Notifier.TimeoutSeconds = models.DefaultNotifyTimeout
	}
	if c.Notifier.WhatsApp.APIURL == "" {
		c.Notifier.WhatsApp.APIURL = "https://graph.facebook.com/v18.0"
	}

	if c.Reminder.IntervalMinutes == 0 {
		c.Reminder.IntervalMinutes = models.DefaultReminderInterval
	}

	if c.Sync.QueueKey == "" {
		c.Sync.QueueKey = "agenda:sync:queue"
	}
	if c.Sync.MaxAttempts == 0 {
		c.Sync.MaxAttempts = 5
	}
	if c.Google.SheetName == "" {
		c.Google.SheetName = "Reservas"
	}

	if c.Backup.StoragePath == "" {
		c.Backup.StoragePath = "data/backups"
	}
	if c.Exports.Path == "" {
		c.Exports.Path = "data/exports"
	}
}
