package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Store drivers accepted by STORE_DRIVER.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	StoreDriver     string
	DatabaseURL     string
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Region boundary dataset for the choropleth.
	BoundaryPath         string
	BoundaryNameProperty string
	BoundaryTimeout      time.Duration

	// Record change feed.
	KafkaBrokers      []string
	KafkaChangeTopic  string
	ChangeFeedEnabled bool
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("STORE_DRIVER", DriverMemory)
	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("SHUTDOWN_TIMEOUT", "10s")
	v.SetDefault("BOUNDARY_NAME_PROPERTY", "name")
	v.SetDefault("BOUNDARY_TIMEOUT", "5s")
	v.SetDefault("KAFKA_CHANGE_TOPIC", "dengue-record-changes")

	shutdownTimeout, err := parsePositiveDuration(v, "SHUTDOWN_TIMEOUT")
	if err != nil {
		return nil, err
	}
	boundaryTimeout, err := parsePositiveDuration(v, "BOUNDARY_TIMEOUT")
	if err != nil {
		return nil, err
	}

	brokers := parseBrokers(v.GetString("KAFKA_BROKERS"))
	changeFeedEnabled := len(brokers) > 0
	if s := v.GetString("CHANGE_FEED_ENABLED"); s != "" {
		changeFeedEnabled = s == "true"
	}

	cfg := &Config{
		StoreDriver:     strings.ToLower(strings.TrimSpace(v.GetString("STORE_DRIVER"))),
		DatabaseURL:     v.GetString("DATABASE_URL"),
		HTTPAddr:        v.GetString("HTTP_ADDR"),
		LogLevel:        v.GetString("LOG_LEVEL"),
		LogFormat:       v.GetString("LOG_FORMAT"),
		ShutdownTimeout: shutdownTimeout,

		BoundaryPath:         v.GetString("BOUNDARY_PATH"),
		BoundaryNameProperty: v.GetString("BOUNDARY_NAME_PROPERTY"),
		BoundaryTimeout:      boundaryTimeout,

		KafkaBrokers:      brokers,
		KafkaChangeTopic:  v.GetString("KAFKA_CHANGE_TOPIC"),
		ChangeFeedEnabled: changeFeedEnabled,
	}

	switch cfg.StoreDriver {
	case DriverMemory:
	case DriverSQLite, DriverPostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required for STORE_DRIVER=%s", cfg.StoreDriver)
		}
	default:
		return nil, fmt.Errorf("invalid STORE_DRIVER %q", cfg.StoreDriver)
	}
	if cfg.BoundaryPath != "" && cfg.BoundaryNameProperty == "" {
		return nil, errors.New("BOUNDARY_NAME_PROPERTY is required")
	}
	if cfg.ChangeFeedEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("CHANGE_FEED_ENABLED is true but KAFKA_BROKERS is not set")
	}
	if cfg.ChangeFeedEnabled && cfg.KafkaChangeTopic == "" {
		return nil, errors.New("KAFKA_CHANGE_TOPIC is required")
	}

	return cfg, nil
}

func parsePositiveDuration(v *viper.Viper, key string) (time.Duration, error) {
	d, err := time.ParseDuration(v.GetString(key))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseBrokers(s string) []string {
	var brokers []string
	for _, b := range strings.Split(s, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}
