package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// JWTConfig holds token signing settings.
type JWTConfig struct {
	Secret string
}

// KafkaConfig holds broker and consumer group settings.
type KafkaConfig struct {
	Brokers     []string
	GroupPrefix string
}

// TrackingConfig holds the live-tracking tunables.
type TrackingConfig struct {
	// StaleSampleThreshold is the maximum age of a sample's capture time
	// relative to its arrival before it is rejected.
	StaleSampleThreshold time.Duration
	// RouteHistoryLength bounds the per-booking route history (FIFO).
	RouteHistoryLength int
	// AssumedProviderSpeedMps is the fixed speed used for ETA computation.
	AssumedProviderSpeedMps float64
	// PendingTimeout is how long a booking may sit in pending before the
	// scheduler cancels it.
	PendingTimeout time.Duration
	// ArrivalAlertThresholds are the ETA values at which an arrival alert is
	// emitted when the ETA first drops below them.
	ArrivalAlertThresholds []time.Duration
}

// ServiceConfig holds all configuration for the dispatch service.
type ServiceConfig struct {
	Port     string
	AppEnv   string
	DB       DatabaseConfig
	JWT      JWTConfig
	Kafka    KafkaConfig
	Tracking TrackingConfig
}

// Load reads configuration from DISPATCH_-prefixed environment variables.
func Load() (*ServiceConfig, error) {
	v := viper.New()
	v.SetEnvPrefix("DISPATCH")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("SERVICE_PORT", ":8084")
	v.SetDefault("APP_ENV", "development")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "dispatch")
	v.SetDefault("DB_SSLMODE", "disable")

	v.SetDefault("KAFKA_BROKERS", "localhost:9092")
	v.SetDefault("KAFKA_GROUP_PREFIX", "urbanfix.")

	v.SetDefault("STALE_SAMPLE_THRESHOLD_SECONDS", 120)
	v.SetDefault("ROUTE_HISTORY_LENGTH", 50)
	v.SetDefault("ASSUMED_PROVIDER_SPEED_MPS", 8.3)
	v.SetDefault("PENDING_TIMEOUT_SECONDS", 600)
	v.SetDefault("ARRIVAL_ALERT_THRESHOLDS_SECONDS", "300")

	jwtSecret := v.GetString("JWT_SECRET")
	if jwtSecret == "" {
		return nil, fmt.Errorf("DISPATCH_JWT_SECRET is required")
	}

	thresholds, err := parseThresholds(v.GetString("ARRIVAL_ALERT_THRESHOLDS_SECONDS"))
	if err != nil {
		return nil, err
	}

	cfg := &ServiceConfig{
		Port:   normalizePort(v.GetString("SERVICE_PORT")),
		AppEnv: v.GetString("APP_ENV"),
		DB: DatabaseConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			DBName:   v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),
		},
		JWT: JWTConfig{Secret: jwtSecret},
		Kafka: KafkaConfig{
			Brokers:     strings.Split(v.GetString("KAFKA_BROKERS"), ","),
			GroupPrefix: v.GetString("KAFKA_GROUP_PREFIX"),
		},
		Tracking: TrackingConfig{
			StaleSampleThreshold:    time.Duration(v.GetInt("STALE_SAMPLE_THRESHOLD_SECONDS")) * time.Second,
			RouteHistoryLength:      v.GetInt("ROUTE_HISTORY_LENGTH"),
			AssumedProviderSpeedMps: v.GetFloat64("ASSUMED_PROVIDER_SPEED_MPS"),
			PendingTimeout:          time.Duration(v.GetInt("PENDING_TIMEOUT_SECONDS")) * time.Second,
			ArrivalAlertThresholds:  thresholds,
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *ServiceConfig) validate() error {
	if c.Tracking.RouteHistoryLength < 1 {
		return fmt.Errorf("route history length must be at least 1")
	}
	if c.Tracking.AssumedProviderSpeedMps <= 0 {
		return fmt.Errorf("assumed provider speed must be positive")
	}
	if c.Tracking.StaleSampleThreshold <= 0 {
		return fmt.Errorf("stale sample threshold must be positive")
	}
	return nil
}

// parseThresholds parses a comma-separated list of seconds, e.g. "300,600".
func parseThresholds(raw string) ([]time.Duration, error) {
	parts := strings.Split(raw, ",")
	thresholds := make([]time.Duration, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		var secs int
		if _, err := fmt.Sscanf(p, "%d", &secs); err != nil || secs <= 0 {
			return nil, fmt.Errorf("invalid arrival alert threshold: %q", p)
		}
		thresholds = append(thresholds, time.Duration(secs)*time.Second)
	}
	return thresholds, nil
}

func normalizePort(port string) string {
	if !strings.HasPrefix(port, ":") {
		return ":" + port
	}
	return port
}
