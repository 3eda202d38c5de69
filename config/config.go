package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Env     string
	Port    string
	GinMode string

	DBDriver   string
	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string
	SQLitePath string

	JWTSecret        string
	AdminAuthEnabled bool

	Timezone    string
	AutoConfirm bool
	MaxGuests   int

	// requests per minute per client IP on guest reservation creation
	RateLimit int
	RateBurst int

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	LockTTL       time.Duration

	RabbitMQURL string

	OccupancyInterval time.Duration
	CORSOrigin        string

	LogLevel  string
	LogFormat string
}

// Load reads .env (when present) and the process environment.
func Load() (*Config, error) {
	// .env opsional, environment asli tetap dipakai
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	lockTTL, err := time.ParseDuration(v.GetString("ADMISSION_LOCK_TTL"))
	if err != nil {
		return nil, err
	}
	interval, err := time.ParseDuration(v.GetString("OCCUPANCY_BROADCAST_INTERVAL"))
	if err != nil {
		return nil, err
	}

	return &Config{
		Env:               v.GetString("APP_ENV"),
		Port:              v.GetString("PORT"),
		GinMode:           v.GetString("GIN_MODE"),
		DBDriver:          strings.ToLower(v.GetString("DB_DRIVER")),
		DBHost:            v.GetString("DB_HOST"),
		DBPort:            v.GetInt("DB_PORT"),
		DBUser:            v.GetString("DB_USER"),
		DBPassword:        v.GetString("DB_PASSWORD"),
		DBName:            v.GetString("DB_NAME"),
		SQLitePath:        v.GetString("SQLITE_PATH"),
		JWTSecret:         v.GetString("JWT_SECRET"),
		AdminAuthEnabled:  v.GetBool("ADMIN_AUTH_ENABLED"),
		Timezone:          v.GetString("APP_TIMEZONE"),
		AutoConfirm:       v.GetBool("RESERVATION_AUTO_CONFIRM"),
		MaxGuests:         v.GetInt("RESERVATION_MAX_GUESTS"),
		RateLimit:         v.GetInt("RESERVATION_RATE_LIMIT"),
		RateBurst:         v.GetInt("RESERVATION_RATE_BURST"),
		RedisAddr:         v.GetString("REDIS_ADDR"),
		RedisPassword:     v.GetString("REDIS_PASSWORD"),
		RedisDB:           v.GetInt("REDIS_DB"),
		LockTTL:           lockTTL,
		RabbitMQURL:       v.GetString("RABBITMQ_URL"),
		OccupancyInterval: interval,
		CORSOrigin:        v.GetString("CORS_ALLOWED_ORIGIN"),
		LogLevel:          v.GetString("LOG_LEVEL"),
		LogFormat:         v.GetString("LOG_FORMAT"),
	}, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("PORT", "8080")
	v.SetDefault("GIN_MODE", "debug")

	v.SetDefault("DB_DRIVER", "sqlite")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 3306)
	v.SetDefault("DB_USER", "root")
	v.SetDefault("DB_PASSWORD", "")
	v.SetDefault("DB_NAME", "restaurant")
	v.SetDefault("SQLITE_PATH", "restaurant.db")

	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("ADMIN_AUTH_ENABLED", true)

	v.SetDefault("APP_TIMEZONE", "America/Sao_Paulo")
	v.SetDefault("RESERVATION_AUTO_CONFIRM", false)
	v.SetDefault("RESERVATION_MAX_GUESTS", 20)
	v.SetDefault("RESERVATION_RATE_LIMIT", 10)
	v.SetDefault("RESERVATION_RATE_BURST", 5)

	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("ADMISSION_LOCK_TTL", "5s")

	v.SetDefault("RABBITMQ_URL", "")

	v.SetDefault("OCCUPANCY_BROADCAST_INTERVAL", "30s")
	v.SetDefault("CORS_ALLOWED_ORIGIN", "*")

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
}

// Location resolves the business timezone, falling back to UTC when it is unknown.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
