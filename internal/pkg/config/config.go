package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Logging  LoggingConfig  `yaml:"logging"`
	Postgres PostgresConfig `yaml:"postgres"`
	Redis    RedisConfig    `yaml:"redis"`
	Poll     PollConfig     `yaml:"poll"`
	Sources  []SourceConfig `yaml:"sources"`
	KenPom   KenPomConfig   `yaml:"kenpom"`
	Teams    TeamsConfig    `yaml:"teams"`
	Sheets   SheetsConfig   `yaml:"sheets"`
	Telegram TelegramConfig `yaml:"telegram"`
}

type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
	File  string `yaml:"file"`  // optional JSON log file in addition to stdout
}

type PostgresConfig struct {
	DSN string `yaml:"dsn"` // empty = in-memory event store (dry runs)
}

type RedisConfig struct {
	Addr           string        `yaml:"addr"` // empty = no prediction cache
	Password       string        `yaml:"password"`
	DB             int           `yaml:"db"`
	PredictionsTTL time.Duration `yaml:"predictions_ttl"`
}

type PollConfig struct {
	Interval         time.Duration `yaml:"interval"`          // watch mode only
	Timeout          time.Duration `yaml:"timeout"`           // per HTTP request
	UserAgent        string        `yaml:"user_agent"`
	DateCutoff       string        `yaml:"date_cutoff"`       // "19:00"
	TimeZone         string        `yaml:"time_zone"`         // IANA name, empty = local
	RequireMoneyline bool          `yaml:"require_moneyline"` // drop rows without a real moneyline market
}

type SourceConfig struct {
	Name    string            `yaml:"name"`
	Kind    string            `yaml:"kind"` // registry key, e.g. "draftkings"
	Sheet   string            `yaml:"sheet"`
	URL     string            `yaml:"url"`
	Params  map[string]string `yaml:"params"`
	Enabled *bool             `yaml:"enabled"`
}

// IsEnabled reports whether the source runs when no -sources override is given.
func (s SourceConfig) IsEnabled() bool {
	return s.Enabled == nil || *s.Enabled
}

type KenPomConfig struct {
	Enabled  bool          `yaml:"enabled"`
	URL      string        `yaml:"url"`
	Email    string        `yaml:"email"`
	Password string        `yaml:"password"`
	Timeout  time.Duration `yaml:"timeout"`
}

type TeamsConfig struct {
	AliasFile string `yaml:"alias_file"` // empty = built-in table
}

type SheetsConfig struct {
	CredentialsFile string        `yaml:"credentials_file"`
	Title           string        `yaml:"title"`
	EventBaseURL    string        `yaml:"event_base_url"`
	WriteDelay      time.Duration `yaml:"write_delay"`
	Timeout         time.Duration `yaml:"timeout"`
	MaxAttempts     int           `yaml:"max_attempts"`
	ObsoletePolicy  string        `yaml:"obsolete_policy"` // "mark" or "delete"
}

type TelegramConfig struct {
	BotToken string `yaml:"bot_token"`
	ChatID   int64  `yaml:"chat_id"`
}

func Load(configPath string) (*Config, error) {
	// .env is optional; secrets may already be in the environment.
	_ = godotenv.Load()

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	config.applyEnv()
	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// applyEnv lets secrets stay out of the YAML file.
func (c *Config) applyEnv() {
	if v := os.Getenv("POSTGRES_DSN"); v != "" {
		c.Postgres.DSN = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}
	if v := os.Getenv("KENPOM_EMAIL"); v != "" {
		c.KenPom.Email = v
	}
	if v := os.Getenv("KENPOM_PASSWORD"); v != "" {
		c.KenPom.Password = v
	}
	if v := os.Getenv("GOOGLE_CREDENTIALS_FILE"); v != "" {
		c.Sheets.CredentialsFile = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.Telegram.ChatID = id
		}
	}
}

func (c *Config) applyDefaults() {
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Redis.PredictionsTTL <= 0 {
		c.Redis.PredictionsTTL = 6 * time.Hour
	}
	if c.Poll.Timeout <= 0 {
		c.Poll.Timeout = 5 * time.Second
	}
	if c.Poll.DateCutoff == "" {
		c.Poll.DateCutoff = "19:00"
	}
	if c.KenPom.URL == "" {
		c.KenPom.URL = "https://kenpom.com/fanmatch.php"
	}
	if c.KenPom.Timeout <= 0 {
		c.KenPom.Timeout = 60 * time.Second
	}
	if c.Sheets.Title == "" {
		c.Sheets.Title = "KEEP GAMING"
	}
	if c.Sheets.EventBaseURL == "" {
		c.Sheets.EventBaseURL = "https://sportsbook.draftkings.com/event"
	}
	if c.Sheets.WriteDelay < 0 {
		c.Sheets.WriteDelay = 0
	}
	if c.Sheets.Timeout <= 0 {
		c.Sheets.Timeout = 5 * time.Second
	}
	if c.Sheets.MaxAttempts <= 0 {
		c.Sheets.MaxAttempts = 3
	}
	if c.Sheets.ObsoletePolicy == "" {
		c.Sheets.ObsoletePolicy = "mark"
	}
	for i := range c.Sources {
		if c.Sources[i].Kind == "" {
			c.Sources[i].Kind = "draftkings"
		}
		if c.Sources[i].Sheet == "" {
			c.Sources[i].Sheet = c.Sources[i].Name
		}
	}
}

// Validate checks the settings that would otherwise fail halfway through a run.
func (c *Config) Validate() error {
	if len(c.Sources) == 0 {
		return fmt.Errorf("config: at least one source is required")
	}
	seen := make(map[string]bool, len(c.Sources))
	for _, s := range c.Sources {
		name := strings.ToLower(strings.TrimSpace(s.Name))
		if name == "" {
			return fmt.Errorf("config: source without a name")
		}
		if seen[name] {
			return fmt.Errorf("config: duplicate source %q", s.Name)
		}
		seen[name] = true
		if s.URL == "" {
			return fmt.Errorf("config: source %q has no url", s.Name)
		}
	}
	if _, err := ParseClock(c.Poll.DateCutoff); err != nil {
		return fmt.Errorf("config: poll.date_cutoff: %w", err)
	}
	switch c.Sheets.ObsoletePolicy {
	case "mark", "delete":
	default:
		return fmt.Errorf("config: sheets.obsolete_policy must be \"mark\" or \"delete\", got %q", c.Sheets.ObsoletePolicy)
	}
	return nil
}

// Location returns the operator's time zone for date resolution.
func (c *Config) Location() (*time.Location, error) {
	if c.Poll.TimeZone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Poll.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("failed to load time zone %q: %w", c.Poll.TimeZone, err)
	}
	return loc, nil
}

// ParseClock parses "HH:MM" into a duration since midnight.
func ParseClock(s string) (time.Duration, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid clock %q (want HH:MM)", s)
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}
