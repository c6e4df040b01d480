package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr    string
	PostgresDSN string
	LogLevel    string
	LogFormat   string

	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	StateKeyPrefix string

	BackendURL            string
	BackendWSURL          string
	BackendToken          string
	BackendTimeoutSeconds int
	PollIntervalSeconds   int
	PassTimeoutSeconds    int

	OrgPublicKeyBase64 string
	PolicyBundlePath   string

	RateLimitRequests      int
	RateLimitWindowSeconds int
	RateLimitMaxKeys       int
	RateLimitFailClosed    bool
}

// Load reads an optional dotenv file (VOTEAUDIT_ENV_FILE, default .env)
// without overriding variables already set, then builds the config.
func Load() (Config, error) {
	path := envDefault("VOTEAUDIT_ENV_FILE", ".env")
	if err := godotenv.Load(path); err != nil && !os.IsNotExist(err) {
		return Config{}, err
	}
	return FromEnv(), nil
}

func FromEnv() Config {
	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	return Config{
		HTTPAddr:               addr,
		PostgresDSN:            os.Getenv("POSTGRES_DSN"),
		LogLevel:               envDefault("LOG_LEVEL", "info"),
		LogFormat:              envDefault("LOG_FORMAT", "text"),
		RedisAddr:              os.Getenv("REDIS_ADDR"),
		RedisPassword:          os.Getenv("REDIS_PASSWORD"),
		RedisDB:                envIntDefault("REDIS_DB", 0),
		StateKeyPrefix:         envDefault("STATE_KEY_PREFIX", "voteaudit"),
		BackendURL:             os.Getenv("BACKEND_URL"),
		BackendWSURL:           os.Getenv("BACKEND_WS_URL"),
		BackendToken:           os.Getenv("BACKEND_TOKEN"),
		BackendTimeoutSeconds:  envIntDefault("BACKEND_TIMEOUT_SECONDS", 10),
		PollIntervalSeconds:    envIntDefault("POLL_INTERVAL_SECONDS", 5),
		PassTimeoutSeconds:     envIntDefault("PASS_TIMEOUT_SECONDS", 0),
		OrgPublicKeyBase64:     os.Getenv("ORG_PUBLIC_KEY_BASE64"),
		PolicyBundlePath:       os.Getenv("POLICY_BUNDLE_PATH"),
		RateLimitRequests:      envIntDefault("RATE_LIMIT_REQUESTS", 0),
		RateLimitWindowSeconds: envIntDefault("RATE_LIMIT_WINDOW_SECONDS", 60),
		RateLimitMaxKeys:       envIntDefault("RATE_LIMIT_MAX_KEYS", 10000),
		RateLimitFailClosed:    envBoolDefault("RATE_LIMIT_FAIL_CLOSED", false),
	}
}

func envDefault(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func envIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	parsed, err := strconv.Atoi(v)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func envBoolDefault(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	switch v {
	case "1", "true", "TRUE", "True", "yes", "YES", "Yes":
		return true
	case "0", "false", "FALSE", "False", "no", "NO", "No":
		return false
	default:
		return def
	}
}

func (c Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSeconds) * time.Second
}

func (c Config) PassTimeout() time.Duration {
	if c.PassTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(c.PassTimeoutSeconds) * time.Second
}

func (c Config) BackendTimeout() time.Duration {
	return time.Duration(c.BackendTimeoutSeconds) * time.Second
}

func (c Config) RateLimitWindow() time.Duration {
	return time.Duration(c.RateLimitWindowSeconds) * time.Second
}
