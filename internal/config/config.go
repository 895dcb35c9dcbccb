package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/richardliu001/ticketing-actions/internal/backoff"
)

// Config top-level struct
type Config struct {
	Environment string          `yaml:"environment"`
	LogLevel    string          `yaml:"log_level"`
	Server      ServerConfig    `yaml:"server"`
	Postgres    PostgresConfig  `yaml:"postgres"`
	Redis       RedisConfig     `yaml:"redis"`
	Kafka       KafkaConfig     `yaml:"kafka"`
	RateLimit   RateLimitConfig `yaml:"ratelimit"`
	Actions     ActionsConfig   `yaml:"actions"`
	Comms       CommsConfig     `yaml:"comms"`
	Sitemap     SitemapConfig   `yaml:"sitemap"`
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type KafkaConfig struct {
	Brokers           []string `yaml:"brokers"`
	DomainEventsTopic string   `yaml:"domain_events_topic"`
	MarketingTopic    string   `yaml:"marketing_topic"`
}

type RateLimitConfig struct {
	RPS   int `yaml:"rps"`
	Burst int `yaml:"burst"`
}

// ActionsConfig drives the dispatcher and the recurring executors.
type ActionsConfig struct {
	PollInterval   time.Duration `yaml:"poll_interval"`
	ActionTimeout  time.Duration `yaml:"action_timeout"`
	BusyTimeout    time.Duration `yaml:"busy_timeout"`
	BatchSize      int           `yaml:"batch_size"`
	Workers        int           `yaml:"workers"`
	EventBatchSize int           `yaml:"event_batch_size"`
	StuckThreshold time.Duration `yaml:"stuck_threshold"`
	Backoff        BackoffConfig `yaml:"backoff"`

	FinalizeSettlementsInterval time.Duration `yaml:"finalize_settlements_interval"`
	RetargetInterval            time.Duration `yaml:"retarget_interval"`
	RetargetWindow              time.Duration `yaml:"retarget_window"`
}

type BackoffConfig struct {
	Initial    time.Duration `yaml:"initial"`
	Max        time.Duration `yaml:"max"`
	Multiplier float64       `yaml:"multiplier"`
	Jitter     float64       `yaml:"jitter"`
}

// Policy converts the yaml block into a backoff policy.
func (b BackoffConfig) Policy() backoff.Policy {
	return backoff.Policy{
		Initial:    b.Initial,
		Max:        b.Max,
		Multiplier: b.Multiplier,
		Jitter:     b.Jitter,
	}
}

// CommsConfig holds template ids and the kill switch for outbound traffic.
type CommsConfig struct {
	// BlockExternalComms suppresses every call to an external system while
	// still reporting success. Used outside production.
	BlockExternalComms bool   `yaml:"block_external_comms"`
	QueuePrefix        string `yaml:"queue_prefix"`
	FrontEndURL        string `yaml:"front_end_url"`

	CustomBroadcastTemplateID   string `yaml:"custom_broadcast_template_id"`
	PurchaseCompletedTemplateID string `yaml:"purchase_completed_template_id"`
	RetargetTemplateID          string `yaml:"retarget_template_id"`
}

type SitemapConfig struct {
	APIBaseURL      string        `yaml:"api_base_url"`
	GooglePingURL   string        `yaml:"google_ping_url"`
	BingPingURL     string        `yaml:"bing_ping_url"`
	Timeout         time.Duration `yaml:"timeout"`
	MaxFailures     int           `yaml:"max_failures"`
	BreakerCooldown time.Duration `yaml:"breaker_cooldown"`
}

// Load reads yaml file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Environment == "" {
		c.Environment = "development"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.RateLimit.RPS == 0 {
		c.RateLimit.RPS = 20
	}
	if c.RateLimit.Burst == 0 {
		c.RateLimit.Burst = 40
	}
	if c.Kafka.DomainEventsTopic == "" {
		c.Kafka.DomainEventsTopic = "domain-events"
	}
	if c.Kafka.MarketingTopic == "" {
		c.Kafka.MarketingTopic = "marketing-contacts"
	}

	a := &c.Actions
	if a.PollInterval == 0 {
		a.PollInterval = 5 * time.Second
	}
	if a.ActionTimeout == 0 {
		a.ActionTimeout = 55 * time.Second
	}
	if a.BusyTimeout == 0 {
		a.BusyTimeout = 60 * time.Second
	}
	if a.BatchSize == 0 {
		a.BatchSize = 50
	}
	if a.Workers == 0 {
		a.Workers = 8
	}
	if a.EventBatchSize == 0 {
		a.EventBatchSize = 500
	}
	if a.StuckThreshold == 0 {
		a.StuckThreshold = 10 * time.Minute
	}
	if a.FinalizeSettlementsInterval == 0 {
		a.FinalizeSettlementsInterval = 24 * time.Hour
	}
	if a.RetargetInterval == 0 {
		a.RetargetInterval = time.Hour
	}
	if a.RetargetWindow == 0 {
		a.RetargetWindow = 24 * time.Hour
	}
	d := backoff.Default()
	if a.Backoff.Initial == 0 {
		a.Backoff.Initial = d.Initial
	}
	if a.Backoff.Max == 0 {
		a.Backoff.Max = d.Max
	}
	if a.Backoff.Multiplier == 0 {
		a.Backoff.Multiplier = d.Multiplier
	}
	if a.Backoff.Jitter == 0 {
		a.Backoff.Jitter = d.Jitter
	}

	if c.Comms.QueuePrefix == "" {
		c.Comms.QueuePrefix = "comms"
	}

	s := &c.Sitemap
	if s.GooglePingURL == "" {
		s.GooglePingURL = "http://www.google.com/webmasters/sitemaps/ping"
	}
	if s.BingPingURL == "" {
		s.BingPingURL = "http://www.bing.com/ping"
	}
	if s.Timeout == 0 {
		s.Timeout = 10 * time.Second
	}
	if s.MaxFailures == 0 {
		s.MaxFailures = 5
	}
	if s.BreakerCooldown == 0 {
		s.BreakerCooldown = time.Minute
	}
}

func (c *Config) applyEnv() error {
	// override DSN password from env if present
	if pw := os.Getenv("POSTGRES_PASSWORD"); pw != "" {
		c.Postgres.DSN = c.Postgres.DSN + " password=" + pw
	}
	if lvl := os.Getenv("LOG_LEVEL"); lvl != "" {
		c.LogLevel = lvl
	}
	if v := os.Getenv("BLOCK_EXTERNAL_COMMS"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("BLOCK_EXTERNAL_COMMS: %w", err)
		}
		c.Comms.BlockExternalComms = b
	}
	return nil
}

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Validate checks the values the engine cannot run without.
func (c *Config) Validate() error {
	var errs []error
	if c.Postgres.DSN == "" {
		errs = append(errs, fmt.Errorf("%w: postgres.dsn is required", ErrInvalidConfig))
	}
	if c.Actions.BatchSize < 1 || c.Actions.Workers < 1 {
		errs = append(errs, fmt.Errorf("%w: actions.batch_size and actions.workers must be positive", ErrInvalidConfig))
	}
	if c.Actions.ActionTimeout >= c.Actions.BusyTimeout {
		errs = append(errs, fmt.Errorf("%w: actions.action_timeout must be shorter than actions.busy_timeout", ErrInvalidConfig))
	}
	a := c.Actions
	for name, d := range map[string]time.Duration{
		"actions.poll_interval":                 a.PollInterval,
		"actions.action_timeout":                a.ActionTimeout,
		"actions.busy_timeout":                  a.BusyTimeout,
		"actions.stuck_threshold":               a.StuckThreshold,
		"actions.finalize_settlements_interval": a.FinalizeSettlementsInterval,
		"actions.retarget_interval":             a.RetargetInterval,
		"actions.retarget_window":               a.RetargetWindow,
		"actions.backoff.initial":               a.Backoff.Initial,
		"actions.backoff.max":                   a.Backoff.Max,
	} {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("%w: %s must be positive, got %s", ErrInvalidConfig, name, d))
		}
	}
	if a.Backoff.Max < a.Backoff.Initial {
		errs = append(errs, fmt.Errorf("%w: actions.backoff.max must not be below actions.backoff.initial", ErrInvalidConfig))
	}
	if a.Backoff.Multiplier < 1 {
		errs = append(errs, fmt.Errorf("%w: actions.backoff.multiplier must be at least 1", ErrInvalidConfig))
	}
	if a.Backoff.Jitter < 0 || a.Backoff.Jitter > 1 {
		errs = append(errs, fmt.Errorf("%w: actions.backoff.jitter must be within [0, 1]", ErrInvalidConfig))
	}
	if !c.Comms.BlockExternalComms && c.Sitemap.APIBaseURL == "" {
		errs = append(errs, fmt.Errorf("%w: sitemap.api_base_url is required unless comms are blocked", ErrInvalidConfig))
	}
	return errors.Join(errs...)
}
