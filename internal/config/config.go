package config

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/zhouzirui/inbox-assistant/backend/internal/storage"
)

// DefaultQueryEndpoint is where the assistant backend answers questions.
const DefaultQueryEndpoint = "http://127.0.0.1:5000/api/query"

// Config 聚合整个服务的配置项。
type Config struct {
	Server ServerConfig
	Log    LogConfig
	Relay  RelayConfig
	Store  StoreConfig
}

// Load 从环境变量加载配置。
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	logCfg, err := loadLogConfig()
	if err != nil {
		return nil, err
	}

	relay, err := loadRelayConfig()
	if err != nil {
		return nil, err
	}

	store, err := loadStoreConfig()
	if err != nil {
		return nil, err
	}

	return &Config{Server: server, Log: logCfg, Relay: relay, Store: store}, nil
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	Addr           string
	AllowedOrigins []string
}

// loadServerConfig 解析服务器监听地址。
func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	origins := splitList(getEnvOrDefault("CORS_ALLOWED_ORIGINS", "*"))

	if strings.Contains(port, ":") {
		// 允许用户直接传入 ":8080" 或 "127.0.0.1:8080"。
		return ServerConfig{Addr: port, AllowedOrigins: origins}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port, AllowedOrigins: origins}, nil
}

// LogConfig 描述日志输出。
type LogConfig struct {
	Env    string
	Level  zerolog.Level
	Pretty bool
}

func loadLogConfig() (LogConfig, error) {
	raw := getEnvOrDefault("LOG_LEVEL", "info")
	level, err := zerolog.ParseLevel(strings.ToLower(raw))
	if err != nil {
		return LogConfig{}, fmt.Errorf("invalid LOG_LEVEL value %q: %w", raw, err)
	}

	env := getEnvOrDefault("ENV", "development")
	pretty, err := parseBoolEnv("LOG_PRETTY", env == "development")
	if err != nil {
		return LogConfig{}, err
	}

	return LogConfig{Env: env, Level: level, Pretty: pretty}, nil
}

// RelayConfig 描述远端问答接口。
type RelayConfig struct {
	QueryEndpoint string
}

func loadRelayConfig() (RelayConfig, error) {
	endpoint := getEnvOrDefault("QUERY_ENDPOINT", DefaultQueryEndpoint)

	parsed, err := url.Parse(endpoint)
	if err != nil {
		return RelayConfig{}, fmt.Errorf("invalid QUERY_ENDPOINT value %q: %w", endpoint, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return RelayConfig{}, fmt.Errorf("invalid QUERY_ENDPOINT value %q: scheme must be http or https", endpoint)
	}

	return RelayConfig{QueryEndpoint: endpoint}, nil
}

// StoreConfig 描述对话记录的持久化后端。
type StoreConfig struct {
	Driver      string
	Path        string
	RedisURL    string
	RedisPrefix string
	DatabaseURL string
}

func loadStoreConfig() (StoreConfig, error) {
	driver := strings.ToLower(getEnvOrDefault("STORE_DRIVER", storage.DriverMemory))

	cfg := StoreConfig{
		Driver:      driver,
		Path:        strings.TrimSpace(os.Getenv("STORE_PATH")),
		RedisURL:    strings.TrimSpace(os.Getenv("REDIS_URL")),
		RedisPrefix: getEnvOrDefault("REDIS_PREFIX", storage.DefaultRedisPrefix),
		DatabaseURL: strings.TrimSpace(os.Getenv("DATABASE_URL")),
	}

	switch driver {
	case storage.DriverMemory, storage.DriverSQLite:
	case storage.DriverFile:
		if cfg.Path == "" {
			cfg.Path = "./data/transcript.json"
		}
	case storage.DriverRedis:
		if cfg.RedisURL == "" {
			return StoreConfig{}, fmt.Errorf("REDIS_URL is required when STORE_DRIVER=redis")
		}
	case storage.DriverPostgres:
		if cfg.DatabaseURL == "" {
			return StoreConfig{}, fmt.Errorf("DATABASE_URL is required when STORE_DRIVER=postgres")
		}
	default:
		return StoreConfig{}, fmt.Errorf("invalid STORE_DRIVER value %q", driver)
	}

	return cfg, nil
}

// Open 根据配置创建存储后端。
func (c StoreConfig) Open(ctx context.Context) (storage.Backend, error) {
	switch c.Driver {
	case storage.DriverMemory, "":
		return storage.NewMemoryStore(), nil
	case storage.DriverFile:
		return storage.NewFileStore(c.Path)
	case storage.DriverSQLite:
		return storage.NewSQLiteStore(ctx, c.Path)
	case storage.DriverRedis:
		return storage.NewRedisStore(ctx, c.RedisURL, c.RedisPrefix)
	case storage.DriverPostgres:
		return storage.NewPostgresStore(ctx, c.DatabaseURL)
	default:
		return nil, fmt.Errorf("unsupported store driver %q", c.Driver)
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func splitList(raw string) []string {
	var out []string
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry != "" {
			out = append(out, entry)
		}
	}
	return out
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}
