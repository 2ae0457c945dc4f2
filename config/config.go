package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	configFileEnvName = "CARDFINDER_CONFIG_FILE"
	envPrefix         = "CARDFINDER"
)

type catalog struct {
	BaseURL       string        `mapstructure:"base_url"`
	Timeout       time.Duration `mapstructure:"timeout" validate:"gte=0s"`
	RetryAttempts int           `mapstructure:"retry_attempts" validate:"gte=1"`
	RetryDelay    time.Duration `mapstructure:"retry_delay" validate:"gte=0s"`
}

type auth struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout" validate:"gte=0s"`
}

type session struct {
	IdleTTL time.Duration `mapstructure:"idle_ttl" validate:"gte=0s"`
}

type filters struct {
	APREnabled           bool `mapstructure:"apr_enabled"`
	TravelPreferenceMode bool `mapstructure:"travel_preference_mode"`
}

type topics struct {
	SearchEvents string `mapstructure:"search_events"`
}

type tlsFiles struct {
	CA   string `mapstructure:"ca"`
	Cert string `mapstructure:"cert"`
	Key  string `mapstructure:"key"`
}

func (t tlsFiles) Enabled() bool {
	return t.CA != "" && t.Cert != "" && t.Key != ""
}

type broker struct {
	SeedBrokers        []string `mapstructure:"seed_brokers"`
	SchemaRegistryURLs []string `mapstructure:"schema_registry_urls"`
	Topics             topics   `mapstructure:"topics"`
	TLS                tlsFiles `mapstructure:"tls"`
}

// Enabled reports whether search events are published.
func (b broker) Enabled() bool {
	return len(b.SeedBrokers) != 0
}

type Config struct {
	LogLevel           slog.Level    `mapstructure:"log_level"`
	HTTPServerAddr     string        `mapstructure:"http_server_addr"`
	HTTPHandlerTimeout time.Duration `mapstructure:"http_handler_timeout" validate:"gte=0s"`
	Catalog            catalog       `mapstructure:"catalog"`
	Auth               auth          `mapstructure:"auth"`
	Session            session       `mapstructure:"session"`
	Filters            filters       `mapstructure:"filters"`
	Broker             broker        `mapstructure:"broker"`
}

func Load() Config {
	cfg, err := LoadFile(getConfigFilepath())
	if err != nil {
		die(err)
	}
	return cfg
}

// LoadFile reads the YAML file at path. Keys may be overridden by
// CARDFINDER_ prefixed environment variables, e.g.
// CARDFINDER_CATALOG_BASE_URL.
func LoadFile(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return Config{}, err
	}

	var cfg Config
	err := v.UnmarshalExact(&cfg, viper.DecodeHook(
		mapstructure.ComposeDecodeHookFunc(
			mapstructure.TextUnmarshallerHookFunc(),
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	))
	if err != nil {
		return Config{}, err
	}

	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")
	v.SetDefault("http_server_addr", ":8080")
	v.SetDefault("http_handler_timeout", "15s")
	v.SetDefault("catalog.base_url", "http://localhost:8081")
	v.SetDefault("catalog.timeout", "10s")
	v.SetDefault("catalog.retry_attempts", 3)
	v.SetDefault("catalog.retry_delay", "200ms")
	v.SetDefault("auth.base_url", "http://localhost:8081")
	v.SetDefault("auth.timeout", "5s")
	v.SetDefault("session.idle_ttl", "30m")
	v.SetDefault("filters.apr_enabled", false)
	v.SetDefault("filters.travel_preference_mode", false)
	v.SetDefault("broker.seed_brokers", []string{})
	v.SetDefault("broker.schema_registry_urls", []string{})
	v.SetDefault("broker.topics.search_events", "card-search-events")
	v.SetDefault("broker.tls.ca", "")
	v.SetDefault("broker.tls.cert", "")
	v.SetDefault("broker.tls.key", "")
}

func getConfigFilepath() string {
	cmdLine := pflag.NewFlagSet(os.Args[0], pflag.ExitOnError)
	arg := cmdLine.String("config", "/config.yaml", "config file")
	_ = cmdLine.Parse(os.Args[1:])
	env, ok := os.LookupEnv(configFileEnvName)
	if ok {
		return env
	}
	return *arg
}

func die(err error) {
	fmt.Printf("failed to load config file: %v\n", err)
	os.Exit(2)
}

func (c Config) Print() {
	tamplate := `
	General:
	LogLevel=%q
	HTTPServerAddr=%q
	HTTPHandlerTimeout=%s

	Catalog:
	BaseURL=%q
	Timeout=%s
	RetryAttempts=%d
	RetryDelay=%s

	Auth:
	BaseURL=%q
	Timeout=%s

	Session:
	IdleTTL=%s

	Filters:
	APREnabled=%t
	TravelPreferenceMode=%t

	BrokerConfig:
	SeedBrokers=%q
	SchemaRegistryURLs=%q
	TLS=%t
	Topics:
		SearchEvents=%q

`
	fmt.Println("Loaded config:")
	fmt.Printf(
		strings.TrimLeft(tamplate, "\n"),
		c.LogLevel,
		c.HTTPServerAddr,
		c.HTTPHandlerTimeout,
		c.Catalog.BaseURL,
		c.Catalog.Timeout,
		c.Catalog.RetryAttempts,
		c.Catalog.RetryDelay,
		c.Auth.BaseURL,
		c.Auth.Timeout,
		c.Session.IdleTTL,
		c.Filters.APREnabled,
		c.Filters.TravelPreferenceMode,
		c.Broker.SeedBrokers,
		c.Broker.SchemaRegistryURLs,
		c.Broker.TLS.Enabled(),
		c.Broker.Topics.SearchEvents,
	)
}
