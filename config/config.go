package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	Booking   BookingConfig   `yaml:"booking"`
	Recommend RecommendConfig `yaml:"recommend"`
	Worker    WorkerConfig    `yaml:"worker"`
	Payment   PaymentConfig   `yaml:"payment"`
}

type HTTPConfig struct {
	Address        string  `yaml:"address"`
	RateLimitRPS   float64 `yaml:"rate_limit_rps"`
	RateLimitBurst int     `yaml:"rate_limit_burst"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s", d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type KafkaConfig struct {
	Brokers            []string `yaml:"brokers"`
	BookingEventsTopic string   `yaml:"booking_events_topic"`
	NotificationsTopic string   `yaml:"notifications_topic"`
	GroupID            string   `yaml:"group_id"`
}

type BookingConfig struct {
	HoldTTLMinutes        int `yaml:"hold_ttl_minutes"`
	AvailabilityCacheTTL  int `yaml:"availability_cache_ttl_seconds"`
	TransientRetries      int `yaml:"transient_retries"`
	TransientBackoffMilli int `yaml:"transient_backoff_ms"`
}

func (b BookingConfig) HoldTTL() time.Duration {
	return time.Duration(b.HoldTTLMinutes) * time.Minute
}

func (b BookingConfig) CacheTTL() time.Duration {
	return time.Duration(b.AvailabilityCacheTTL) * time.Second
}

func (b BookingConfig) TransientBackoff() time.Duration {
	return time.Duration(b.TransientBackoffMilli) * time.Millisecond
}

type RecommendConfig struct {
	PopularTimes       []string `yaml:"popular_times"`
	HighDemandWeekdays []string `yaml:"high_demand_weekdays"`
	Limit              int      `yaml:"limit"`
}

type WorkerConfig struct {
	SweepIntervalSeconds int `yaml:"sweep_interval_seconds"`
	SlotRetentionDays    int `yaml:"slot_retention_days"`
}

func (w WorkerConfig) SweepInterval() time.Duration {
	return time.Duration(w.SweepIntervalSeconds) * time.Second
}

func (w WorkerConfig) SlotRetention() time.Duration {
	return time.Duration(w.SlotRetentionDays) * 24 * time.Hour
}

type PaymentConfig struct {
	RedirectBaseURL string `yaml:"redirect_base_url"`
	// AutoCancelAfterMinutes is how long a confirmed booking may stay unpaid
	// before provider-side auto-cancel. Zero disables auto-cancel.
	AutoCancelAfterMinutes int `yaml:"auto_cancel_after_minutes"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.applyDefaults()

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.HTTP.Address == "" {
		c.HTTP.Address = ":8080"
	}
	if c.Booking.HoldTTLMinutes <= 0 {
		c.Booking.HoldTTLMinutes = 5
	}
	if c.Booking.AvailabilityCacheTTL <= 0 {
		c.Booking.AvailabilityCacheTTL = 30
	}
	if c.Booking.TransientRetries <= 0 {
		c.Booking.TransientRetries = 3
	}
	if c.Booking.TransientBackoffMilli <= 0 {
		c.Booking.TransientBackoffMilli = 200
	}
	if c.Worker.SweepIntervalSeconds <= 0 {
		c.Worker.SweepIntervalSeconds = 60
	}
	if c.Worker.SlotRetentionDays <= 0 {
		c.Worker.SlotRetentionDays = 30
	}
	if c.Recommend.Limit <= 0 {
		c.Recommend.Limit = 3
	}
}
