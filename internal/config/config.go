package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	Mode       string        `mapstructure:"mode"`
	LogLevel   string        `mapstructure:"log_level"`
	Port       int           `mapstructure:"port"`
	ReadLimit  int64         `mapstructure:"read_limit"`
	PingPeriod time.Duration `mapstructure:"ping_period"`
	PongWait   time.Duration `mapstructure:"pong_wait"`
	WriteWait  time.Duration `mapstructure:"write_wait"`
	SendBuffer int           `mapstructure:"send_buffer"`
	Secret     string        `mapstructure:"secret"`

	Call        CallConfig     `mapstructure:"call"`
	Database    DatabaseConfig `mapstructure:"database"`
	Breaker     BreakerConfig  `mapstructure:"breaker"`
	NATS        NATSConfig     `mapstructure:"nats"`
	Auth        AuthConfig     `mapstructure:"auth"`
	ICEServers  []ICEServer    `mapstructure:"ice_servers"`
	DevBookings []DevBooking   `mapstructure:"dev_bookings"`
}

type CallConfig struct {
	RingTimeout   time.Duration `mapstructure:"ring_timeout"`
	MaxLifetime   time.Duration `mapstructure:"max_lifetime"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
	TombstoneTTL  time.Duration `mapstructure:"tombstone_ttl"`
	Delivery      string        `mapstructure:"delivery"`
	InitiateRate  float64       `mapstructure:"initiate_rate"`
	InitiateBurst int           `mapstructure:"initiate_burst"`
	HistoryBuffer int           `mapstructure:"history_buffer"`
}

type DatabaseConfig struct {
	URL             string        `mapstructure:"url"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	Migrate         bool          `mapstructure:"migrate"`
	LookupTimeout   time.Duration `mapstructure:"lookup_timeout"`
}

type BreakerConfig struct {
	MaxRequests      uint32        `mapstructure:"max_requests"`
	Interval         time.Duration `mapstructure:"interval"`
	Timeout          time.Duration `mapstructure:"timeout"`
	FailureThreshold uint32        `mapstructure:"failure_threshold"`
}

type NATSConfig struct {
	URL           string `mapstructure:"url"`
	SubjectPrefix string `mapstructure:"subject_prefix"`
}

type AuthConfig struct {
	// JWTSecret enables the HS256 token check on join when set.
	JWTSecret string `mapstructure:"jwt_secret"`
}

type ICEServer struct {
	URLs       []string `mapstructure:"urls"`
	Username   string   `mapstructure:"username"`
	Credential string   `mapstructure:"credential"`
}

// DevBooking seeds the in-memory booking directory when no database is configured.
type DevBooking struct {
	ID           string `mapstructure:"id"`
	Customer     string `mapstructure:"customer"`
	Provider     string `mapstructure:"provider"`
	CustomerName string `mapstructure:"customer_name"`
	ProviderName string `mapstructure:"provider_name"`
}

// Load reads config/config.<CONFIG_ENV>.yaml, falling back to defaults.
func Load() (*Config, error) {
	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	return LoadFrom(fmt.Sprintf("config/config.%s.yaml", env))
}

func LoadFrom(fileName string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile(fileName)
	v.SetEnvPrefix("CALLRELAY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		log.Warn().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", fileName).Msg("loaded config")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	log.Info().Str("module", "config").Str("mode", cfg.Mode).Int("port", cfg.Port).
		Str("delivery", cfg.Call.Delivery).Bool("database", cfg.Database.URL != "").
		Bool("nats", cfg.NATS.URL != "").Msg("config ready")
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", "release")
	v.SetDefault("log_level", "info")
	v.SetDefault("port", 8080)
	v.SetDefault("read_limit", 32768)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("pong_wait", "60s")
	v.SetDefault("write_wait", "5s")
	v.SetDefault("send_buffer", 32)
	v.SetDefault("secret", "change-me")

	v.SetDefault("call.ring_timeout", "30s")
	v.SetDefault("call.max_lifetime", "24h")
	v.SetDefault("call.sweep_interval", "1m")
	v.SetDefault("call.tombstone_ttl", "5m")
	v.SetDefault("call.delivery", "broadcast")
	v.SetDefault("call.initiate_rate", 0.5)
	v.SetDefault("call.initiate_burst", 3)
	v.SetDefault("call.history_buffer", 256)

	v.SetDefault("database.url", "")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("database.migrate", true)
	v.SetDefault("database.lookup_timeout", "2s")

	v.SetDefault("breaker.max_requests", 1)
	v.SetDefault("breaker.interval", "1m")
	v.SetDefault("breaker.timeout", "30s")
	v.SetDefault("breaker.failure_threshold", 5)

	v.SetDefault("nats.url", "")
	v.SetDefault("nats.subject_prefix", "calls")

	v.SetDefault("auth.jwt_secret", "")
}

func (c *Config) Validate() error {
	var errs []error
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
	}
	if c.PongWait <= 0 || c.PingPeriod <= 0 || c.PingPeriod >= c.PongWait {
		errs = append(errs, errors.New("ping_period must be positive and shorter than pong_wait"))
	}
	if c.WriteWait <= 0 {
		errs = append(errs, errors.New("write_wait must be positive"))
	}
	if c.SendBuffer <= 0 {
		errs = append(errs, errors.New("send_buffer must be positive"))
	}
	if c.Call.RingTimeout <= 0 {
		errs = append(errs, errors.New("call.ring_timeout must be positive"))
	}
	if c.Call.MaxLifetime <= c.Call.RingTimeout {
		errs = append(errs, errors.New("call.max_lifetime must exceed call.ring_timeout"))
	}
	if c.Call.SweepInterval <= 0 {
		errs = append(errs, errors.New("call.sweep_interval must be positive"))
	}
	if c.Call.TombstoneTTL < 0 {
		errs = append(errs, errors.New("call.tombstone_ttl must not be negative"))
	}
	switch c.Call.Delivery {
	case "broadcast", "latest":
	default:
		errs = append(errs, fmt.Errorf("call.delivery %q: want broadcast or latest", c.Call.Delivery))
	}
	for i, b := range c.DevBookings {
		if b.ID == "" || b.Customer == "" || b.Provider == "" {
			errs = append(errs, fmt.Errorf("dev_bookings[%d]: id, customer and provider are required", i))
		}
	}
	return errors.Join(errs...)
}
