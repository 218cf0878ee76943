package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config is the typed application configuration read at bootstrap.
// Components that only need a single value should inject it with
// component.Setting instead and let a Resolver supply it.
type Config struct {
	App     AppConfig
	Log     LogConfig
	HTTP    HTTPConfig
	Metrics MetricsConfig
	DB      DBConfig
}

type AppConfig struct {
	Name       string
	Env        string // local | production | testing
	Debug      bool
	ConfigFile string // optional YAML file layered under the environment
}

type LogConfig struct {
	Level string // debug | info | warn | error; empty picks by Env
}

type HTTPConfig struct {
	Addr            string
	ShutdownTimeout time.Duration
}

type MetricsConfig struct {
	Enabled bool
	Path    string
}

type DBConfig struct {
	Driver string
	URL    string
}

// Load reads the given .env files (default ".env", missing files are fine)
// into the process environment and builds a Config from it.
//
//	cfg := config.Load()
func Load(envFiles ...string) *Config {
	files := envFiles
	if len(files) == 0 {
		files = []string{".env"}
	}
	// .env is optional outside development
	_ = godotenv.Load(files...)

	return &Config{
		App: AppConfig{
			Name:       env("APP_NAME", "go-ioc"),
			Env:        env("APP_ENV", "local"),
			Debug:      envBool("APP_DEBUG", true),
			ConfigFile: env("APP_CONFIG_FILE", ""),
		},
		Log: LogConfig{
			Level: env("LOG_LEVEL", ""),
		},
		HTTP: HTTPConfig{
			Addr:            env("HTTP_ADDR", ":8000"),
			ShutdownTimeout: envDuration("HTTP_SHUTDOWN_TIMEOUT", 5*time.Second),
		},
		Metrics: MetricsConfig{
			Enabled: envBool("METRICS_ENABLED", true),
			Path:    env("METRICS_PATH", "/metrics"),
		},
		DB: DBConfig{
			Driver: env("DB_DRIVER", "mysql"),
			URL:    env("DB_URL", ""),
		},
	}
}

// IsProduction reports whether the app runs with APP_ENV=production.
func (c *Config) IsProduction() bool { return c.App.Env == "production" }

// Get returns a raw env value, falling back to defaultVal.
func Get(key, defaultVal string) string {
	return env(key, defaultVal)
}

// GetInt returns an int env value.
func GetInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

// GetBool returns a bool env value.
func GetBool(key string, defaultVal bool) bool {
	return envBool(key, defaultVal)
}

// ── helpers ─────────────────────────────────────────────────────────────────

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
