package app

import (
	"errors"
	"flag"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/metinatakli/screening-booking/internal/domain"
)

type Config struct {
	Port             int
	Env              string
	OtelCollectorUrl string
	DB               DBConfig
	Redis            RedisConfig
	AMQP             AMQPConfig
	Booking          BookingConfig
}

type DBConfig struct {
	DSN          string
	MaxOpenConns int
	MaxIdleTime  time.Duration
}

type RedisConfig struct {
	URL          string
	MaxOpenConns int
	MaxIdleConns int
	MaxIdleTime  time.Duration
}

type AMQPConfig struct {
	// URL of the broker. Events are not published when empty.
	URL string
}

type BookingConfig struct {
	LockPolicy           domain.LockPolicy
	UnknownServicePolicy domain.UnknownServicePolicy
	ScheduleCacheTTL     time.Duration
}

// LoadConfig reads the configuration from command line flags. Every flag falls back to an
// environment variable, and a .env file in the working directory is loaded first if present.
// The returned bool reports whether -version was given.
func LoadConfig(args []string) (Config, bool, error) {
	err := godotenv.Load()
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, false, err
	}

	var (
		cfg                  Config
		lockPolicy           string
		unknownServicePolicy string
	)

	flags := flag.NewFlagSet("api", flag.ContinueOnError)

	flags.IntVar(&cfg.Port, "port", envInt("PORT", 3000), "server port")
	flags.StringVar(&cfg.Env, "env", envStr("ENV", "dev"), "Environment (dev|staging|prod)")
	flags.StringVar(&cfg.OtelCollectorUrl, "otel-collector-url", envStr("OTEL_COLLECTOR_URL", ""), "OpenTelemetry collector gRPC endpoint")

	flags.StringVar(&cfg.DB.DSN, "db-dsn", envStr("DB_DSN", ""), "PostgreSQL DSN")
	flags.IntVar(&cfg.DB.MaxOpenConns, "db-max-open-conns", envInt("DB_MAX_OPEN_CONNS", 25), "PostgreSQL max open connections")
	flags.DurationVar(&cfg.DB.MaxIdleTime, "db-max-idle-time", envDuration("DB_MAX_IDLE_TIME", 15*time.Minute), "PostgreSQL max idle time for connections")

	flags.StringVar(&cfg.Redis.URL, "redis-url", envStr("REDIS_URL", ""), "Redis URL")
	flags.IntVar(&cfg.Redis.MaxOpenConns, "redis-max-open-conns", envInt("REDIS_MAX_OPEN_CONNS", 25), "Redis max open connections")
	flags.IntVar(&cfg.Redis.MaxIdleConns, "redis-max-idle-conns", envInt("REDIS_MAX_IDLE_CONNS", 10), "Redis max idle connections")
	flags.DurationVar(&cfg.Redis.MaxIdleTime, "redis-max-idle-time", envDuration("REDIS_MAX_IDLE_TIME", 2*time.Minute), "Redis max idle time for connections")

	flags.StringVar(&cfg.AMQP.URL, "amqp-url", envStr("AMQP_URL", ""), "RabbitMQ URL for booking events")

	flags.StringVar(&lockPolicy, "booking-lock-policy", envStr("BOOKING_LOCK_POLICY", string(domain.LockWhenUpcoming)), "Schedules whose bookings can no longer change (upcoming|past)")
	flags.StringVar(&unknownServicePolicy, "unknown-service-policy", envStr("UNKNOWN_SERVICE_POLICY", string(domain.UnknownServiceSkip)), "Handling of unknown service ids in bookings (skip|reject)")
	flags.DurationVar(&cfg.Booking.ScheduleCacheTTL, "schedule-cache-ttl", envDuration("SCHEDULE_CACHE_TTL", 5*time.Minute), "Redis cache TTL for schedules, 0 disables caching")

	displayVersion := flags.Bool("version", false, "Display version and exit")

	err = flags.Parse(args)
	if err != nil {
		return Config{}, false, err
	}

	cfg.Booking.LockPolicy, err = domain.ParseLockPolicy(lockPolicy)
	if err != nil {
		return Config{}, false, err
	}

	cfg.Booking.UnknownServicePolicy, err = domain.ParseUnknownServicePolicy(unknownServicePolicy)
	if err != nil {
		return Config{}, false, err
	}

	return cfg, *displayVersion, nil
}

func envStr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}

	return fallback
}

func envInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}

	return v
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return fallback
	}

	return v
}
