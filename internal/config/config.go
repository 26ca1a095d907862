package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/couchcryptid/nuclide-data-etl/internal/domain"
	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Store drivers accepted in STORE_DRIVER.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds all build settings, populated from environment variables.
type Config struct {
	StoreDriver string
	StorePath   string
	DatabaseURL string
	TableName   string
	RawDir      string

	// Raw source locations.
	KAERIBaseURL string
	AMDCBaseURL  string
	AMDCMassFile string
	FetchTimeout time.Duration

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Optional publication of built rows.
	KafkaBrokers []string
	KafkaTopic   string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	fetchTimeout, err := time.ParseDuration(sharedcfg.EnvOrDefault("FETCH_TIMEOUT", "30s"))
	if err != nil || fetchTimeout <= 0 {
		return nil, errors.New("invalid FETCH_TIMEOUT")
	}

	var brokers []string
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		brokers = sharedcfg.ParseBrokers(v)
	}

	cfg := &Config{
		StoreDriver:  sharedcfg.EnvOrDefault("STORE_DRIVER", DriverSQLite),
		StorePath:    sharedcfg.EnvOrDefault("STORE_PATH", "nuc_data.db"),
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		TableName:    sharedcfg.EnvOrDefault("TABLE_NAME", "atomic_weight"),
		RawDir:       sharedcfg.EnvOrDefault("RAW_DIR", "build"),
		KAERIBaseURL: sharedcfg.EnvOrDefault("KAERI_BASE_URL", "http://atom.kaeri.re.kr/cgi-bin/nuclide"),
		AMDCBaseURL:  sharedcfg.EnvOrDefault("AMDC_BASE_URL", "http://amdc.in2p3.fr/masstables/Ame2003"),
		AMDCMassFile: sharedcfg.EnvOrDefault("AMDC_MASS_FILE", "mass.mas03"),
		FetchTimeout: fetchTimeout,

		HTTPAddr:        os.Getenv("HTTP_ADDR"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		KafkaBrokers: brokers,
		KafkaTopic:   sharedcfg.EnvOrDefault("KAFKA_TOPIC", "atomic-weights"),
	}

	switch cfg.StoreDriver {
	case DriverSQLite:
	case DriverPostgres:
		if cfg.DatabaseURL == "" {
			return nil, errors.New("DATABASE_URL is required for the postgres driver")
		}
	default:
		return nil, fmt.Errorf("invalid STORE_DRIVER %q", cfg.StoreDriver)
	}
	if !domain.ValidIdentifier(cfg.TableName) {
		return nil, fmt.Errorf("invalid TABLE_NAME %q", cfg.TableName)
	}
	return cfg, nil
}

// KafkaEnabled reports whether built rows should be published.
func (c *Config) KafkaEnabled() bool { return len(c.KafkaBrokers) > 0 }
