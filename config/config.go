package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yeremiapane/restaurant-pos/models"
	"github.com/yeremiapane/restaurant-pos/utils"
)

type Config struct {
	Port    string
	GinMode string

	APIBaseURL string
	APITimeout time.Duration

	DBDriver string
	DBDSN    string

	Location          *time.Location
	ReconcileInterval time.Duration
	ReconcileDebounce time.Duration
	ReconcileKinds    []models.UnitKind

	ServiceRate   float64
	PublicBaseURL string
	CORSOrigins   []string
	DeviceSecret  []byte
	RateLimit     float64

	RedisAddr     string
	KafkaBroker   string
	StatusTopic   string
	NATSURL       string
	StatusSubject string

	LogLevel string
}

// Load reads .env when present and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		utils.InfoLogger.Debug("no .env file, using process environment")
	}

	cfg := &Config{
		Port:          getEnv("PORT", "8080"),
		GinMode:       getEnv("GIN_MODE", "debug"),
		APIBaseURL:    strings.TrimRight(os.Getenv("API_BASE_URL"), "/"),
		DBDriver:      getEnv("DB_DRIVER", "sqlite"),
		DBDSN:         getEnv("DB_DSN", "pos.db"),
		PublicBaseURL: strings.TrimRight(getEnv("PUBLIC_BASE_URL", "http://localhost:8080"), "/"),
		CORSOrigins:   splitList(getEnv("CORS_ORIGINS", "*")),
		DeviceSecret:  []byte(os.Getenv("DEVICE_SECRET")),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		KafkaBroker:   os.Getenv("KAFKA_BROKER"),
		StatusTopic:   getEnv("STATUS_TOPIC", "unit-status"),
		NATSURL:       os.Getenv("NATS_URL"),
		StatusSubject: getEnv("STATUS_SUBJECT", "pos.status"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
	}
	if cfg.APIBaseURL == "" {
		return nil, fmt.Errorf("API_BASE_URL is required")
	}
	if len(cfg.DeviceSecret) == 0 {
		return nil, fmt.Errorf("DEVICE_SECRET is required")
	}

	var err error
	if cfg.APITimeout, err = getDuration("API_TIMEOUT", 15*time.Second); err != nil {
		return nil, err
	}
	if cfg.ReconcileInterval, err = getDuration("RECONCILE_INTERVAL", 15*time.Second); err != nil {
		return nil, err
	}
	if cfg.ReconcileDebounce, err = getDuration("RECONCILE_DEBOUNCE", 60*time.Second); err != nil {
		return nil, err
	}
	if cfg.ServiceRate, err = getFloat("SERVICE_RATE", 0.10); err != nil {
		return nil, err
	}
	if cfg.RateLimit, err = getFloat("RATE_LIMIT", 20); err != nil {
		return nil, err
	}
	for key, d := range map[string]time.Duration{
		"API_TIMEOUT":        cfg.APITimeout,
		"RECONCILE_INTERVAL": cfg.ReconcileInterval,
		"RECONCILE_DEBOUNCE": cfg.ReconcileDebounce,
	} {
		if d <= 0 {
			return nil, fmt.Errorf("%s must be positive, got %s", key, d)
		}
	}
	if cfg.RateLimit <= 0 {
		return nil, fmt.Errorf("RATE_LIMIT must be positive, got %v", cfg.RateLimit)
	}
	if cfg.ServiceRate < 0 {
		return nil, fmt.Errorf("SERVICE_RATE must not be negative, got %v", cfg.ServiceRate)
	}

	if cfg.Location, err = time.LoadLocation(getEnv("TIMEZONE", "Asia/Tashkent")); err != nil {
		return nil, fmt.Errorf("TIMEZONE: %w", err)
	}

	for _, raw := range splitList(getEnv("RECONCILE_KINDS", "tables,rooms")) {
		kind, err := models.ParseUnitKind(raw)
		if err != nil {
			return nil, fmt.Errorf("RECONCILE_KINDS: %w", err)
		}
		if !kind.HasReservations() {
			return nil, fmt.Errorf("RECONCILE_KINDS: %s have no reservations", kind)
		}
		cfg.ReconcileKinds = append(cfg.ReconcileKinds, kind)
	}

	return cfg, nil
}

// InitDB opens the local store that backs per-device state and the status
// history.
func InitDB(cfg *Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case "sqlite":
		dialector = sqlite.Open(cfg.DBDSN)
	case "mysql":
		dialector = mysql.Open(cfg.DBDSN)
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if cfg.DBDriver == "sqlite" {
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(5)
		sqlDB.SetConnMaxLifetime(time.Hour)
	}

	if err := db.AutoMigrate(&models.LocalValue{}, &models.StatusChange{}); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	utils.InfoLogger.Println("AutoMigrate completed.")
	return db, nil
}

// InitRedis returns nil when REDIS_ADDR is unset.
func InitRedis(ctx context.Context, cfg *Config) (*redis.Client, error) {
	if cfg.RedisAddr == "" {
		return nil, nil
	}
	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// NewKafkaWriter returns nil when KAFKA_BROKER is unset.
func NewKafkaWriter(cfg *Config) *kafka.Writer {
	if cfg.KafkaBroker == "" {
		return nil
	}
	return &kafka.Writer{
		Addr:                   kafka.TCP(splitList(cfg.KafkaBroker)...),
		Topic:                  cfg.StatusTopic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func getFloat(key string, fallback float64) (float64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return f, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
