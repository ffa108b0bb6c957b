package config

import (
	"strconv"

	"github.com/ElHadji11/farmconnect-backend/internal/platform/logger"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Config holds all configuration for the service.
type Config struct {
	ServiceName           string `mapstructure:"SERVICE_NAME"`
	HTTPPort              string `mapstructure:"HTTP_PORT"`
	MongoURI              string `mapstructure:"MONGO_URI"`
	MongoDatabase         string `mapstructure:"MONGO_DATABASE"`
	RedisAddress          string `mapstructure:"REDIS_ADDRESS"`
	NATSURL               string `mapstructure:"NATS_URL"`
	MinIOEndpoint         string `mapstructure:"MINIO_ENDPOINT"`
	MinIOAccessKey        string `mapstructure:"MINIO_ACCESS_KEY"`
	MinIOSecretKey        string `mapstructure:"MINIO_SECRET_KEY"`
	MinIOBucket           string `mapstructure:"MINIO_BUCKET"`
	MinIOUseSSL           bool   `mapstructure:"MINIO_USE_SSL"`
	IdentityAPIURL        string `mapstructure:"IDENTITY_API_URL"`
	IdentityAPIKey        string `mapstructure:"IDENTITY_API_KEY"`
	IdentitySigningKey    string `mapstructure:"IDENTITY_SIGNING_KEY"`
	PrometheusMetricsPort string `mapstructure:"PROMETHEUS_METRICS_PORT"`
	LogLevel              string `mapstructure:"LOG_LEVEL"`
	LogFormat             string `mapstructure:"LOG_FORMAT"`
	OTLPEndpoint          string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
}

// LoadConfig reads configuration from environment variables, applying
// defaults suitable for local development.
func LoadConfig(appLogger *logger.Logger) (*Config, error) {
	viper.SetDefault("SERVICE_NAME", "farmconnect")
	viper.SetDefault("HTTP_PORT", "8080")
	viper.SetDefault("MONGO_URI", "mongodb://localhost:27017")
	viper.SetDefault("MONGO_DATABASE", "farmconnect")
	viper.SetDefault("REDIS_ADDRESS", "localhost:6379")
	viper.SetDefault("NATS_URL", "nats://localhost:4222")
	viper.SetDefault("MINIO_ENDPOINT", "localhost:9000")
	viper.SetDefault("MINIO_ACCESS_KEY", "minioadmin")
	viper.SetDefault("MINIO_SECRET_KEY", "minioadmin")
	viper.SetDefault("MINIO_BUCKET", "post-photos")
	viper.SetDefault("MINIO_USE_SSL", "false")
	viper.SetDefault("IDENTITY_API_URL", "https://api.identity.localhost")
	viper.SetDefault("IDENTITY_API_KEY", "")
	viper.SetDefault("IDENTITY_SIGNING_KEY", "")
	viper.SetDefault("PROMETHEUS_METRICS_PORT", "9091")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LOG_FORMAT", "json")
	viper.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")

	viper.AutomaticEnv()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		appLogger.Error("Failed to unmarshal configuration", zap.Error(err))
		return nil, err
	}

	// Viper reads booleans set through env vars as strings.
	if raw := viper.GetString("MINIO_USE_SSL"); raw != "" {
		if parsed, err := strconv.ParseBool(raw); err == nil {
			cfg.MinIOUseSSL = parsed
		}
	}

	if cfg.MongoURI == "" {
		appLogger.Fatal("MONGO_URI is not set. This is required.")
	}
	if cfg.MongoDatabase == "" {
		appLogger.Fatal("MONGO_DATABASE is not set. This is required.")
	}
	if cfg.IdentitySigningKey == "" {
		appLogger.Warn("IDENTITY_SIGNING_KEY is empty. Session tokens cannot be verified without it.")
	}

	appLogger.Debug("Configuration loaded",
		zap.String("service_name", cfg.ServiceName),
		zap.String("http_port", cfg.HTTPPort),
		zap.Bool("mongo_uri_present", cfg.MongoURI != ""),
		zap.String("mongo_database", cfg.MongoDatabase),
		zap.String("nats_url", cfg.NATSURL),
		zap.String("redis_address", cfg.RedisAddress),
		zap.String("minio_endpoint", cfg.MinIOEndpoint),
		zap.String("prometheus_port", cfg.PrometheusMetricsPort),
	)

	return &cfg, nil
}
