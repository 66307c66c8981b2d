package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"ApexPick/pkg/util"
)

type Config struct {
	Environment string `yaml:"environment" default:"development" validate:"required"`
	Log         struct {
		Level  string `yaml:"level" default:"info" validate:"oneof=debug info warn error"`
		Format string `yaml:"format" default:"json" validate:"oneof=json console"`
		Output string `yaml:"output" default:"stdout"`
	} `yaml:"log"`
	Server struct {
		Port            int           `yaml:"port" default:"8080" validate:"gt=0,lt=65536"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"15s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"30s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
		RatePerSec      float64       `yaml:"rate_per_sec" default:"20"`
		Burst           int           `yaml:"burst" default:"40"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`
	Backend struct {
		Type string `yaml:"type" default:"none" validate:"oneof=none clickhouse postgres"`
	} `yaml:"backend"`
	Predictions struct {
		TTL time.Duration `yaml:"ttl" default:"6h"`
	} `yaml:"predictions"`
	Kafka struct {
		Enabled      bool     `yaml:"enabled"`
		Brokers      []string `yaml:"brokers" validate:"required_if=Enabled true"`
		RequiredAcks int      `yaml:"required_acks" default:"-1"`
		Compression  string   `yaml:"compression" default:"snappy"`
		Topics       struct {
			Predictions string `yaml:"predictions" default:"apex.predictions"`
			Requests    string `yaml:"requests" default:"apex.fixture-requests"`
			DLQ         string `yaml:"dlq" default:"apex.fixture-requests.dlq"`
			Logs        string `yaml:"logs"`
		} `yaml:"topics"`
		Producer struct {
			MaxAttempts  int           `yaml:"max_attempts" default:"3"`
			Linger       time.Duration `yaml:"linger" default:"10ms"`
			BatchBytes   int           `yaml:"batch_bytes" default:"1048576"`
			BatchSize    int           `yaml:"batch_size" default:"100"`
			WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
			ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
		Consumer struct {
			Enabled    bool          `yaml:"enabled"`
			GroupID    string        `yaml:"group_id" default:"apexpick"`
			Workers    int           `yaml:"workers" default:"4"`
			BufferSize int           `yaml:"buffer_size" default:"64"`
			RetryMax   int           `yaml:"retry_max" default:"3"`
			BackoffMin time.Duration `yaml:"backoff_min" default:"200ms"`
			BackoffMax time.Duration `yaml:"backoff_max" default:"5s"`
			MinBytes   int           `yaml:"min_bytes" default:"1"`
			MaxBytes   int           `yaml:"max_bytes" default:"10485760"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Host             string        `yaml:"host" default:"localhost"`
		Port             int           `yaml:"port" default:"9000"`
		Database         string        `yaml:"database" default:"apexpick"`
		User             string        `yaml:"user" default:"default"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout      time.Duration `yaml:"read_timeout" default:"30s"`
		WriteTimeout     time.Duration `yaml:"write_timeout" default:"30s"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"60s"`
	} `yaml:"clickhouse"`
	Postgres struct {
		DSN             string        `yaml:"dsn"`
		MaxOpenConns    int           `yaml:"max_open_conns" default:"10"`
		MaxIdleConns    int           `yaml:"max_idle_conns" default:"5"`
		ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" default:"30m"`
	} `yaml:"postgres"`
	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Addr     string `yaml:"addr" default:"localhost:6379"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Prefix   string `yaml:"prefix" default:"apexpick"`
	} `yaml:"redis"`
	Aggregator struct {
		CacheTTL        time.Duration `yaml:"cache_ttl" default:"5m"`
		AdapterTimeout  time.Duration `yaml:"adapter_timeout" default:"10s"`
		CleanupInterval time.Duration `yaml:"cleanup_interval" default:"1m"`
	} `yaml:"aggregator"`
	Staking struct {
		StakeCap        float64 `yaml:"stake_cap" default:"5" validate:"gt=0,lte=100"`
		KellyMultiplier float64 `yaml:"kelly_multiplier" default:"0.25" validate:"gt=0,lte=1"`
		MinConfidence   float64 `yaml:"min_confidence" default:"60" validate:"gte=1,lte=100"`
		VaRConfidence   float64 `yaml:"var_confidence" default:"0.95" validate:"gt=0,lt=1"`
	} `yaml:"staking"`
	Adapters []AdapterConfig `yaml:"adapters" validate:"dive"`
	Prewarm  struct {
		Enabled  bool            `yaml:"enabled"`
		Schedule string          `yaml:"schedule" default:"*/10 * * * *"`
		Entities []PrewarmEntity `yaml:"entities" validate:"dive"`
	} `yaml:"prewarm"`
}

// AdapterConfig describes one HTTP data provider.
type AdapterConfig struct {
	Name       string        `yaml:"name" validate:"required"`
	Kinds      []string      `yaml:"kinds" validate:"required,min=1,dive,oneof=stats news sentiment standings"`
	Sports     []string      `yaml:"sports" validate:"required,min=1"` // "*" matches every sport
	BaseURL    string        `yaml:"base_url" validate:"required,url"`
	APIKey     string        `yaml:"api_key"`
	Quality    string        `yaml:"quality" default:"Medium" validate:"oneof=High Medium Low"`
	Disabled   bool          `yaml:"disabled"`
	Timeout    time.Duration `yaml:"timeout"` // zero uses aggregator.adapter_timeout
	RatePerSec float64       `yaml:"rate_per_sec" default:"5"`
	Burst      int           `yaml:"burst" default:"5"`
}

type PrewarmEntity struct {
	Sport  string `yaml:"sport" validate:"required"`
	Entity string `yaml:"entity" validate:"required"`
	League string `yaml:"league"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

// Parse decodes YAML, applies defaults and validates the result.
func Parse(b []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	c.applyEnv(os.Getenv)

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	if v := getenv("APEX_BACKEND"); v != "" {
		c.Backend.Type = v
	}
	if v := getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
		c.Kafka.Enabled = true
	}
	if v := getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
		c.Redis.Enabled = true
	}
	if v := getenv("REDIS_DB"); v != "" {
		c.Redis.DB = util.ParseIntDefault(v, c.Redis.DB)
	}
	if v := getenv("POSTGRES_DSN"); v != "" {
		c.Postgres.DSN = v
	}
	if v := getenv("APEX_SERVER_PORT"); v != "" {
		c.Server.Port = util.ParseIntDefault(v, c.Server.Port)
	}
	if v := getenv("APEX_STAKE_CAP"); v != "" {
		c.Staking.StakeCap = util.ParseFloatDefault(v, c.Staking.StakeCap)
	}
	for i := range c.Adapters {
		if v := getenv(AdapterKeyEnv(c.Adapters[i].Name)); v != "" {
			c.Adapters[i].APIKey = v
		}
	}
}

// AdapterKeyEnv is the environment variable carrying an adapter's API key,
// e.g. "stats-pro" -> APEX_ADAPTER_STATS_PRO_API_KEY.
func AdapterKeyEnv(name string) string {
	up := strings.ToUpper(name)
	up = strings.NewReplacer("-", "_", ".", "_", " ", "_").Replace(up)
	return "APEX_ADAPTER_" + up + "_API_KEY"
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}
	switch c.Backend.Type {
	case "clickhouse":
		if c.ClickHouse.Host == "" {
			return fmt.Errorf("clickhouse.host is required for backend clickhouse")
		}
	case "postgres":
		if c.Postgres.DSN == "" {
			return fmt.Errorf("postgres.dsn is required for backend postgres")
		}
	}
	seen := make(map[string]struct{}, len(c.Adapters))
	for _, a := range c.Adapters {
		if _, dup := seen[a.Name]; dup {
			return fmt.Errorf("adapters: duplicate name %q", a.Name)
		}
		seen[a.Name] = struct{}{}
	}
	return nil
}
