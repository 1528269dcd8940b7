package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	HTTPAddr string
	GinMode  string

	LogLevel  string
	LogFormat string
	LogFile   string

	// session store
	StoreDriver  string // file | sqlite | mysql
	SessionsFile string
	DBDSN        string

	// redis read cache (disabled when RedisAddr is empty)
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisCacheTTL time.Duration

	// rabbitMQ session events (disabled when RabbitURL is empty)
	RabbitURL         string
	RabbitQueue       string
	ArchiveDir        string
	WorkerConcurrency int

	// bearer auth on /api/v1 (disabled when JWTSecret is empty)
	JWTSecret string

	// seals model api keys at rest (disabled when SecretKey is empty)
	SecretKey string

	UpstreamTimeout  time.Duration
	CORSAllowOrigins []string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http_addr", ":8000")
	v.SetDefault("gin_mode", "release")

	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")
	v.SetDefault("log_file", "")

	v.SetDefault("store_driver", "file")
	v.SetDefault("sessions_file", "data/sessions.json")
	// DSN demo:
	// app:apppass@tcp(127.0.0.1:3306)/attackforge?charset=utf8mb4&parseTime=true&loc=Local
	v.SetDefault("db_dsn", "data/sessions.db")

	v.SetDefault("redis_addr", "")
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_db", 0)
	v.SetDefault("redis_cache_ttl", "10m")

	v.SetDefault("rabbit_url", "")
	v.SetDefault("rabbit_queue", "session_events")
	v.SetDefault("archive_dir", "data/archive")
	v.SetDefault("worker_concurrency", 2)

	v.SetDefault("jwt_secret", "")
	v.SetDefault("secret_key", "")

	v.SetDefault("upstream_timeout", "30s")
	v.SetDefault("cors_allow_origins", "*")
}

// Load reads configuration from the environment and, when configFile is
// non-empty, from that file. Environment variables win over the file.
func Load(configFile string) (Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", configFile, err)
		}
	}

	workers := v.GetInt("worker_concurrency")
	if workers <= 0 {
		workers = 2
	}
	if workers > 50 {
		workers = 50
	}

	timeout := v.GetDuration("upstream_timeout")
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	driver := strings.ToLower(strings.TrimSpace(v.GetString("store_driver")))
	switch driver {
	case "", "file":
		driver = "file"
	case "sqlite", "mysql":
	default:
		return Config{}, fmt.Errorf("unsupported STORE_DRIVER=%q", driver)
	}

	return Config{
		HTTPAddr: v.GetString("http_addr"),
		GinMode:  v.GetString("gin_mode"),

		LogLevel:  v.GetString("log_level"),
		LogFormat: v.GetString("log_format"),
		LogFile:   v.GetString("log_file"),

		StoreDriver:  driver,
		SessionsFile: v.GetString("sessions_file"),
		DBDSN:        v.GetString("db_dsn"),

		RedisAddr:     v.GetString("redis_addr"),
		RedisPassword: v.GetString("redis_password"),
		RedisDB:       v.GetInt("redis_db"),
		RedisCacheTTL: v.GetDuration("redis_cache_ttl"),

		RabbitURL:         v.GetString("rabbit_url"),
		RabbitQueue:       v.GetString("rabbit_queue"),
		ArchiveDir:        v.GetString("archive_dir"),
		WorkerConcurrency: workers,

		JWTSecret: v.GetString("jwt_secret"),
		SecretKey: v.GetString("secret_key"),

		UpstreamTimeout:  timeout,
		CORSAllowOrigins: splitList(v.GetString("cors_allow_origins")),
	}, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
