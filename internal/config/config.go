package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Log      LogConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Storage  StorageConfig
	STT      STTConfig
	Notes    NotesConfig
}

type ServerConfig struct {
	Host           string
	Port           int
	AllowedOrigins []string
	RateLimitRPS   int
	RateLimitBurst int
}

type LogConfig struct {
	Level string // debug, info, warn, error
}

type DatabaseConfig struct {
	URL            string
	MaxConns       int
	MinConns       int
	MigrationsPath string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type StorageConfig struct {
	SupabaseURL string
	SupabaseKey string
	Bucket      string
}

type STTConfig struct {
	Backend        string // "openai" or "local"
	OpenAIKey      string
	OpenAIBaseURL  string
	OpenAIModel    string
	LocalBaseURL   string // default: "http://localhost:8178"
	Timeout        time.Duration
	TempDir        string
	MaxUploadBytes int64
}

type NotesConfig struct {
	CacheTTL time.Duration // 0 disables the list cache
}

// ClientConfig is the configuration of the notes CLI.
type ClientConfig struct {
	ServerURL string
	Timeout   time.Duration
}

// Load reads the server configuration from the environment. A .env file in
// the working directory is loaded first when present; real environment
// variables win over it.
func Load() (*Config, error) {
	_ = godotenv.Load()

	port, err := getEnvInt("SERVER_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}

	rps, err := getEnvInt("RATE_LIMIT_RPS", 20)
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_RPS: %w", err)
	}

	burst, err := getEnvInt("RATE_LIMIT_BURST", 40)
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_BURST: %w", err)
	}

	maxConns, err := getEnvInt("DB_MAX_CONNS", 10)
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MAX_CONNS: %w", err)
	}

	minConns, err := getEnvInt("DB_MIN_CONNS", 1)
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MIN_CONNS: %w", err)
	}

	redisDB, err := getEnvInt("REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	sttTimeout, err := getEnvDuration("STT_TIMEOUT", 5*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("invalid STT_TIMEOUT: %w", err)
	}

	maxUpload, err := getEnvInt("STT_MAX_UPLOAD_BYTES", 25<<20)
	if err != nil {
		return nil, fmt.Errorf("invalid STT_MAX_UPLOAD_BYTES: %w", err)
	}

	cacheTTL, err := getEnvDuration("NOTES_CACHE_TTL", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid NOTES_CACHE_TTL: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			Port:           port,
			AllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "*")),
			RateLimitRPS:   rps,
			RateLimitBurst: burst,
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Database: DatabaseConfig{
			URL:            getEnv("DATABASE_URL", ""),
			MaxConns:       maxConns,
			MinConns:       minConns,
			MigrationsPath: getEnv("MIGRATIONS_PATH", "migrations"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		Storage: StorageConfig{
			SupabaseURL: strings.TrimRight(getEnv("SUPABASE_URL", ""), "/"),
			SupabaseKey: getEnv("SUPABASE_SERVICE_KEY", getEnv("SUPABASE_ANON_KEY", "")),
			Bucket:      getEnv("STORAGE_BUCKET", "audio_recordings"),
		},
		STT: STTConfig{
			Backend:        getEnv("STT_BACKEND", "openai"),
			OpenAIKey:      getEnv("OPENAI_API_KEY", ""),
			OpenAIBaseURL:  getEnv("STT_OPENAI_BASE_URL", ""),
			OpenAIModel:    getEnv("STT_OPENAI_MODEL", ""),
			LocalBaseURL:   getEnv("STT_LOCAL_BASE_URL", "http://localhost:8178"),
			Timeout:        sttTimeout,
			TempDir:        getEnv("STT_TEMP_DIR", os.TempDir()),
			MaxUploadBytes: int64(maxUpload),
		},
		Notes: NotesConfig{
			CacheTTL: cacheTTL,
		},
	}

	return cfg, nil
}

// LoadClient reads the CLI configuration from the environment.
func LoadClient() (*ClientConfig, error) {
	_ = godotenv.Load()

	timeout, err := getEnvDuration("NOTES_CLIENT_TIMEOUT", 0)
	if err != nil {
		return nil, fmt.Errorf("invalid NOTES_CLIENT_TIMEOUT: %w", err)
	}

	return &ClientConfig{
		ServerURL: strings.TrimRight(getEnv("NOTES_SERVER_URL", "http://localhost:8080"), "/"),
		Timeout:   timeout,
	}, nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// Validate reports every missing credential or endpoint at once so the server
// refuses to start instead of failing on the first upstream call.
func (c *Config) Validate() error {
	var missing []string
	if c.Database.URL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if c.Storage.SupabaseURL == "" {
		missing = append(missing, "SUPABASE_URL")
	}
	if c.Storage.SupabaseKey == "" {
		missing = append(missing, "SUPABASE_SERVICE_KEY")
	}
	if c.STT.Backend == "openai" && c.STT.OpenAIKey == "" {
		missing = append(missing, "OPENAI_API_KEY")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required env vars: %s", strings.Join(missing, ", "))
	}

	switch c.STT.Backend {
	case "openai", "local":
	default:
		return fmt.Errorf("unknown STT_BACKEND %q", c.STT.Backend)
	}
	if c.STT.MaxUploadBytes <= 0 {
		return fmt.Errorf("STT_MAX_UPLOAD_BYTES must be positive")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.Atoi(v)
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return time.ParseDuration(v)
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
