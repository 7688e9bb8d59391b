package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

const (
	ConfigPathEnvVar = "CONFIG_PATH"
	envPrefix        = "movierec_"
)

var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/movierec/config.yaml",
}

func defaultConfig() *Config {
	return &Config{
		Env: "development",
		Log: LogConfig{
			Mode:   "development",
			Redact: true,
		},
		Server: ServerConfig{
			Host:              "",
			Port:              8080,
			ReadHeaderTimeout: 5 * time.Second,
			ShutdownTimeout:   15 * time.Second,
			CORSOrigins:       []string{"http://localhost:3000", "http://127.0.0.1:3000"},
		},
		Database: DatabaseConfig{
			Driver:        "sqlite",
			DSN:           "movierec.db",
			MaxOpenConns:  0,
			SlowThreshold: time.Second,
			AutoMigrate:   true,
		},
		Redis: RedisConfig{
			KeyPrefix: "movierec",
			Channel:   "movierec:changes",
			CacheTTL:  5 * time.Minute,
		},
		Model: ModelConfig{
			Kind: "none",
			Remote: RemoteModelConfig{
				Name:       "recommender",
				Timeout:    10 * time.Second,
				MaxRetries: 2,
				BatchSize:  1024,
				Breaker: BreakerConfig{
					MaxRequests:      1,
					Interval:         time.Minute,
					Timeout:          30 * time.Second,
					FailureThreshold: 5,
				},
			},
		},
		Recommend: RecommendConfig{
			DefaultTopN:            10,
			ListingTopN:            20,
			MaxTopN:                100,
			QualityFloor:           4.0,
			Damping:                1000,
			EagerSimilarity:        true,
			SimilarityNeighbors:    50,
			MaxConcurrentInference: 4,
			HistoryEnabled:         true,
		},
		Auth: AuthConfig{
			JWTSecret: defaultJWTSecret,
			TokenTTL:  time.Hour,
		},
		RateLimit: RateLimitConfig{
			Enabled: true,
			RPS:     20,
			Burst:   40,
		},
		Telemetry: TelemetryConfig{
			ServiceName:  "movierec-backend",
			SamplerRatio: 1,
		},
	}
}

// defaultJWTSecret lets an unauthenticated local setup start; it is rejected
// once auth is required.
const defaultJWTSecret = "defaultsecret"

// Load layers defaults, an optional YAML file and the environment, in that
// order, then validates the result.
func Load() (*Config, error) {
	return LoadFile(findConfigFile())
}

// LoadFile is Load with an explicit file; an empty path skips the file layer.
func LoadFile(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}
	if err := processSliceFields(k); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

var sliceConfigPaths = []string{
	"server.cors_origins",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		s, ok := k.Get(path).(string)
		if !ok {
			continue
		}
		parts := strings.Split(s, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		if err := k.Set(path, out); err != nil {
			return fmt.Errorf("set %s: %w", path, err)
		}
	}
	return nil
}

// Legacy variable names kept from the original deployment scripts.
var legacyEnv = map[string]string{
	"port":                  "server.port",
	"log_mode":              "log.mode",
	"log_level":             "log.level",
	"log_redaction_enabled": "log.redact",
	"log_hash_salt":         "log.hash_salt",

	"database_driver": "database.driver",
	"database_dsn":    "database.dsn",
	"redis_addr":      "redis.addr",
	"redis_password":  "redis.password",
	"redis_channel":   "redis.channel",
	"jwt_secret_key":  "auth.jwt_secret",

	"model_kind":                     "model.kind",
	"model_manifest_path":            "model.manifest_path",
	"model_remote_url":               "model.remote.base_url",
	"storage_emulator_host":          "storage.emulator_host",
	"google_application_credentials": "storage.credentials_file",

	"otel_enabled":                "telemetry.enabled",
	"otel_service_name":           "telemetry.service_name",
	"otel_exporter_otlp_endpoint": "telemetry.otlp_endpoint",
	"otel_exporter_otlp_headers":  "telemetry.otlp_headers",
	"otel_exporter_otlp_insecure": "telemetry.otlp_insecure",
	"otel_sampler_ratio":          "telemetry.sampler_ratio",
}

// envTransformFunc maps MOVIEREC_SECTION__FIELD to section.field and the
// legacy names above to their keys. Anything else is dropped.
func envTransformFunc(key string) string {
	key = strings.ToLower(key)
	if strings.HasPrefix(key, envPrefix) {
		return strings.ReplaceAll(strings.TrimPrefix(key, envPrefix), "__", ".")
	}
	if mapped, ok := legacyEnv[key]; ok {
		return mapped
	}
	return ""
}
