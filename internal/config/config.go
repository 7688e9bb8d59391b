package config

import (
	"fmt"
	"time"

	"github.com/yungbote/movierec-backend/internal/pkg/validation"
)

type Config struct {
	Env       string          `koanf:"env" validate:"oneof=development production test"`
	Log       LogConfig       `koanf:"log"`
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Redis     RedisConfig     `koanf:"redis"`
	Model     ModelConfig     `koanf:"model"`
	Storage   StorageConfig   `koanf:"storage"`
	Recommend RecommendConfig `koanf:"recommend"`
	Auth      AuthConfig      `koanf:"auth"`
	RateLimit RateLimitConfig `koanf:"rate_limit"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
}

type LogConfig struct {
	Mode     string `koanf:"mode"`
	Level    string `koanf:"level"`
	Redact   bool   `koanf:"redact"`
	HashSalt string `koanf:"hash_salt"`
}

type ServerConfig struct {
	Host              string        `koanf:"host"`
	Port              int           `koanf:"port" validate:"min=1,max=65535"`
	ReadHeaderTimeout time.Duration `koanf:"read_header_timeout"`
	ShutdownTimeout   time.Duration `koanf:"shutdown_timeout"`
	CORSOrigins       []string      `koanf:"cors_origins"`
}

// Addr is the listen address for http.Server.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type DatabaseConfig struct {
	Driver        string        `koanf:"driver" validate:"oneof=sqlite postgres"`
	DSN           string        `koanf:"dsn" validate:"required"`
	MaxOpenConns  int           `koanf:"max_open_conns" validate:"min=0"`
	SlowThreshold time.Duration `koanf:"slow_threshold"`
	AutoMigrate   bool          `koanf:"auto_migrate"`
}

// RedisConfig is optional; an empty Addr disables the cache and the change bus.
type RedisConfig struct {
	Addr      string        `koanf:"addr"`
	Password  string        `koanf:"password"`
	DB        int           `koanf:"db" validate:"min=0"`
	KeyPrefix string        `koanf:"key_prefix"`
	Channel   string        `koanf:"channel"`
	CacheTTL  time.Duration `koanf:"cache_ttl"`
}

func (r RedisConfig) Enabled() bool { return r.Addr != "" }

type ModelConfig struct {
	// Kind selects the scorer: none, local (embedding weights) or remote (predict API).
	Kind         string            `koanf:"kind" validate:"oneof=none local remote"`
	ManifestPath string            `koanf:"manifest_path" validate:"required_if=Kind local"`
	Remote       RemoteModelConfig `koanf:"remote"`
}

type RemoteModelConfig struct {
	BaseURL    string        `koanf:"base_url"`
	Name       string        `koanf:"name"`
	APIKey     string        `koanf:"api_key"`
	Timeout    time.Duration `koanf:"timeout"`
	MaxRetries int           `koanf:"max_retries" validate:"min=0,max=10"`
	BatchSize  int           `koanf:"batch_size" validate:"min=1"`
	Breaker    BreakerConfig `koanf:"breaker"`
}

type BreakerConfig struct {
	MaxRequests      uint32        `koanf:"max_requests"`
	Interval         time.Duration `koanf:"interval"`
	Timeout          time.Duration `koanf:"timeout"`
	FailureThreshold uint32        `koanf:"failure_threshold" validate:"min=1"`
}

// StorageConfig governs gs:// model artifacts.
type StorageConfig struct {
	CredentialsFile string `koanf:"credentials_file"`
	EmulatorHost    string `koanf:"emulator_host"`
}

type RecommendConfig struct {
	DefaultTopN            int           `koanf:"default_top_n" validate:"min=1"`
	ListingTopN            int           `koanf:"listing_top_n" validate:"min=1"`
	MaxTopN                int           `koanf:"max_top_n" validate:"min=1"`
	QualityFloor           float64       `koanf:"quality_floor"`
	Damping                float64       `koanf:"damping" validate:"gte=0"`
	EagerSimilarity        bool          `koanf:"eager_similarity"`
	SimilarityNeighbors    int           `koanf:"similarity_neighbors" validate:"min=0"`
	SimilarityWorkers      int           `koanf:"similarity_workers" validate:"min=0"`
	MaxConcurrentInference int64         `koanf:"max_concurrent_inference" validate:"min=1"`
	RefreshOnWrite         bool          `koanf:"refresh_on_write"`
	RefreshInterval        time.Duration `koanf:"refresh_interval"`
	HistoryEnabled         bool          `koanf:"history_enabled"`
}

type AuthConfig struct {
	Required  bool          `koanf:"required"`
	JWTSecret string        `koanf:"jwt_secret" validate:"required"`
	TokenTTL  time.Duration `koanf:"token_ttl"`
}

type RateLimitConfig struct {
	Enabled bool    `koanf:"enabled"`
	RPS     float64 `koanf:"rps" validate:"gt=0"`
	Burst   int     `koanf:"burst" validate:"min=1"`
}

type TelemetryConfig struct {
	Enabled      bool    `koanf:"enabled"`
	ServiceName  string  `koanf:"service_name"`
	OTLPEndpoint string  `koanf:"otlp_endpoint"`
	OTLPHeaders  string  `koanf:"otlp_headers"`
	OTLPInsecure bool    `koanf:"otlp_insecure"`
	SamplerRatio float64 `koanf:"sampler_ratio" validate:"gte=0,lte=1"`
	Stdout       bool    `koanf:"stdout"`
}

func (c *Config) Validate() error {
	if err := validation.Struct(c); err != nil {
		return err
	}
	if c.Model.Kind == "remote" && (c.Model.Remote.BaseURL == "" || c.Model.Remote.Name == "") {
		return fmt.Errorf("model.remote.base_url and model.remote.name are required when model.kind is remote")
	}
	if c.Auth.Required && c.Auth.JWTSecret == defaultJWTSecret {
		return fmt.Errorf("auth.jwt_secret must be set when auth.required is true")
	}
	if c.Recommend.DefaultTopN > c.Recommend.MaxTopN || c.Recommend.ListingTopN > c.Recommend.MaxTopN {
		return fmt.Errorf("recommend.max_top_n (%d) must be at least the default top n values", c.Recommend.MaxTopN)
	}
	return nil
}
