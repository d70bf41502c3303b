package shared

import (
	"os"
	"strconv"
)

type Config struct {
	AppEnv       string
	HTTPAddr     string
	MetricsAddr  string
	MySQLDSN     string
	RedisAddr    string
	RedisDB      int
	RedisPass    string
	LegacyURI    string
	LegacyDB     string
	MediaDir     string
	ImageRPS     int
	ImageWorkers int
}

func Load() Config {
	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
		}
		return def
	}
	return Config{
		AppEnv:      env("APP_ENV", "prod"),
		HTTPAddr:    env("HTTP_ADDR", ":8080"),
		MetricsAddr: env("METRICS_ADDR", ":9100"),
		MySQLDSN:    env("MYSQL_DSN", "root:root@tcp(localhost:3306)/platform?parseTime=true&charset=utf8mb4,utf8&loc=UTC"),
		RedisAddr:   env("REDIS_ADDR", "localhost:6379"),
		RedisPass:   env("REDIS_PASSWORD", ""),
		RedisDB:     atoi("REDIS_DB", 0),
		// default URI is a fallback; operators usually supply one per session
		LegacyURI:    env("LEGACY_MONGO_URI", ""),
		LegacyDB:     env("LEGACY_MONGO_DB", "legacy"),
		MediaDir:     env("MEDIA_DIR", "./media"),
		ImageRPS:     atoi("IMAGE_RPS", 10),
		ImageWorkers: atoi("IMAGE_WORKERS", 4),
	}
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
