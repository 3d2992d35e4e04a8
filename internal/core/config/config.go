// Package config loads runtime settings from defaults, an optional
// dxf2gml.yaml file, a .env file and the environment, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/mohammed-shakir/dxf2gml/internal/core/crs"
)

const FileName = "dxf2gml.yaml"

// ErrConfigNotFound is returned by LoadFile when the file does not exist.
var ErrConfigNotFound = errors.New("config file not found")

type Config struct {
	Addr           string `yaml:"addr"`
	LogLevel       string `yaml:"log_level"`
	LogConsole     bool   `yaml:"log_console"`
	Code           string `yaml:"epsg_default"`
	MaxUploadBytes int64  `yaml:"max_upload_bytes"`

	AreaAbsTolerance float64 `yaml:"area_abs_tolerance"`
	AreaRelTolerance float64 `yaml:"area_rel_tolerance"`
	StrictArea       bool    `yaml:"strict_area"`
	BatchWorkers     int     `yaml:"batch_workers"`

	CacheEnabled   bool          `yaml:"cache_enabled"`
	CacheSize      int           `yaml:"cache_size"`
	CacheTTL       time.Duration `yaml:"cache_ttl"`
	CacheOpTimeout time.Duration `yaml:"cache_op_timeout"`
	RedisAddr      string        `yaml:"redis_addr"`

	EventsEnabled bool   `yaml:"events_enabled"`
	KafkaBrokers  string `yaml:"kafka_brokers"`
	KafkaTopic    string `yaml:"kafka_topic"`
	KafkaGroupID  string `yaml:"kafka_group_id"`
	H3Res         int    `yaml:"h3_res"`

	MetricsEnabled bool `yaml:"metrics_enabled"`
}

func Defaults() Config {
	return Config{
		Addr:             ":8090",
		LogLevel:         "info",
		Code:             string(crs.Default),
		MaxUploadBytes:   32 << 20,
		AreaAbsTolerance: 0.01,
		AreaRelTolerance: 1e-4,
		BatchWorkers:     4,
		CacheEnabled:     true,
		CacheSize:        256,
		CacheTTL:         10 * time.Minute,
		CacheOpTimeout:   250 * time.Millisecond,
		KafkaBrokers:     "localhost:9092",
		KafkaTopic:       "dxf2gml.parcels",
		KafkaGroupID:     "dxf2gml-watch",
		H3Res:            9,
		MetricsEnabled:   true,
	}
}

// FromEnv applies the environment over Defaults.
func FromEnv() Config {
	cfg := Defaults()
	applyEnv(&cfg)
	return cfg
}

// Load reads dir/dxf2gml.yaml and dir/.env when present, then the
// environment. Variables already set in the process win over .env.
func Load(dir string) (Config, error) {
	cfg := Defaults()
	if err := LoadFile(filepath.Join(dir, FileName), &cfg); err != nil && !errors.Is(err, ErrConfigNotFound) {
		return cfg, err
	}
	if err := godotenv.Load(filepath.Join(dir, ".env")); err != nil && !errors.Is(err, os.ErrNotExist) {
		return cfg, fmt.Errorf("load .env: %w", err)
	}
	applyEnv(&cfg)
	return cfg, cfg.Validate()
}

// LoadFile overlays the YAML file at path onto cfg.
func LoadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return ErrConfigNotFound
		}
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func (c Config) Validate() error {
	var errs []error
	if _, err := crs.Parse(c.Code); err != nil {
		errs = append(errs, fmt.Errorf("epsg_default: %w", err))
	}
	if c.MaxUploadBytes <= 0 {
		errs = append(errs, errors.New("max_upload_bytes must be positive"))
	}
	if c.AreaAbsTolerance < 0 || c.AreaRelTolerance < 0 {
		errs = append(errs, errors.New("area tolerances must not be negative"))
	}
	if c.H3Res < 0 || c.H3Res > 15 {
		errs = append(errs, fmt.Errorf("h3_res %d must be 0..15", c.H3Res))
	}
	if c.BatchWorkers < 0 {
		errs = append(errs, errors.New("batch_workers must not be negative"))
	}
	return errors.Join(errs...)
}

func applyEnv(c *Config) {
	c.Addr = getenv("ADDR", c.Addr)
	c.LogLevel = getenv("LOG_LEVEL", c.LogLevel)
	c.LogConsole = getbool("LOG_CONSOLE", c.LogConsole)
	c.Code = getenv("EPSG_DEFAULT", c.Code)
	c.MaxUploadBytes = getint64("MAX_UPLOAD_BYTES", c.MaxUploadBytes)

	c.AreaAbsTolerance = getfloat("AREA_ABS_TOLERANCE", c.AreaAbsTolerance)
	c.AreaRelTolerance = getfloat("AREA_REL_TOLERANCE", c.AreaRelTolerance)
	c.StrictArea = getbool("STRICT_AREA", c.StrictArea)
	c.BatchWorkers = getint("BATCH_WORKERS", c.BatchWorkers)

	c.CacheEnabled = getbool("CACHE_ENABLED", c.CacheEnabled)
	c.CacheSize = getint("CACHE_SIZE", c.CacheSize)
	c.CacheTTL = getduration("CACHE_TTL", c.CacheTTL)
	c.CacheOpTimeout = getduration("CACHE_OP_TIMEOUT", c.CacheOpTimeout)
	c.RedisAddr = getenv("REDIS_ADDR", c.RedisAddr)

	c.EventsEnabled = getbool("EVENTS_ENABLED", c.EventsEnabled)
	c.KafkaBrokers = getenv("KAFKA_BROKERS", c.KafkaBrokers)
	c.KafkaTopic = getenv("KAFKA_TOPIC", c.KafkaTopic)
	c.KafkaGroupID = getenv("KAFKA_GROUP_ID", c.KafkaGroupID)
	c.H3Res = getint("H3_RES", c.H3Res)

	c.MetricsEnabled = getbool("METRICS_ENABLED", c.MetricsEnabled)
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getint(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getint64(k string, def int64) int64 {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "t", "true", "y", "yes":
			return true
		case "0", "f", "false", "n", "no":
			return false
		}
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v := os.Getenv(k); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getduration(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
