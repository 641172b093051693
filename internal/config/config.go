package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

var (
	ErrMissingUsername   = errors.New("DUOLINGO_USERNAME is required")
	ErrMissingCredential = errors.New("either DUOLINGO_JWT or DUOLINGO_PASSWORD is required")
	ErrInvalidBackend    = errors.New("invalid store backend (must be file, memory, redis, or postgres)")
)

const (
	BackendFile     = "file"
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"

	DefaultBaseURL       = "https://www.duolingo.com"
	DefaultDataDir       = "data"
	DefaultProgressKey   = "duolingo-progress.json"
	DefaultStatisticsKey = "statistics.json"
	DefaultFetchDays     = 14
)

// Credential is either a Bearer token or a Password. A bearer token skips
// the login exchange.
type Credential interface {
	credential()
}

type Bearer struct {
	Token string
}

type Password struct {
	Secret string
}

func (Bearer) credential()   {}
func (Password) credential() {}

type Config struct {
	Username   string
	Credential Credential

	BaseURL     string
	FetchDays   int
	HTTPTimeout time.Duration
	Location    *time.Location

	DataDir       string
	ProgressKey   string
	StatisticsKey string

	Store  StoreConfig
	Server ServerConfig
}

type StoreConfig struct {
	Backend   string
	KeyPrefix string
	CacheTTL  time.Duration
	Redis     RedisConfig
	Postgres  PostgresConfig
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type PostgresConfig struct {
	User     string
	Password string
	Host     string
	Port     string
	Name     string
	Table    string
}

func (p PostgresConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		p.User, p.Password, p.Host, p.Port, p.Name)
}

type ServerConfig struct {
	Port         string
	RateLimit    int
	RateWindow   time.Duration
	APITokenHash string
	SyncInterval time.Duration
}

// Options locate the optional files merged beneath the process environment.
type Options struct {
	ConfigFile string
	EnvFile    string
}

// fileConfig mirrors the YAML layout. Zero values leave defaults in place.
type fileConfig struct {
	Username    string `yaml:"username"`
	BaseURL     string `yaml:"base_url"`
	FetchDays   int    `yaml:"fetch_days"`
	HTTPTimeout string `yaml:"http_timeout"`
	Timezone    string `yaml:"timezone"`

	Data struct {
		Dir        string `yaml:"dir"`
		Progress   string `yaml:"progress"`
		Statistics string `yaml:"statistics"`
	} `yaml:"data"`

	Store struct {
		Backend   string `yaml:"backend"`
		KeyPrefix string `yaml:"key_prefix"`
		CacheTTL  string `yaml:"cache_ttl"`
		Redis     struct {
			Host string `yaml:"host"`
			Port string `yaml:"port"`
			DB   int    `yaml:"db"`
		} `yaml:"redis"`
		Postgres struct {
			User  string `yaml:"user"`
			Host  string `yaml:"host"`
			Port  string `yaml:"port"`
			Name  string `yaml:"name"`
			Table string `yaml:"table"`
		} `yaml:"postgres"`
	} `yaml:"store"`

	Server struct {
		Port         string `yaml:"port"`
		RateLimit    int    `yaml:"rate_limit"`
		SyncInterval string `yaml:"sync_interval"`
	} `yaml:"server"`
}

func defaults() *Config {
	return &Config{
		BaseURL:       DefaultBaseURL,
		FetchDays:     DefaultFetchDays,
		HTTPTimeout:   30 * time.Second,
		Location:      time.Local,
		DataDir:       DefaultDataDir,
		ProgressKey:   DefaultProgressKey,
		StatisticsKey: DefaultStatisticsKey,
		Store: StoreConfig{
			Backend:   BackendFile,
			KeyPrefix: "duosync:",
			Redis: RedisConfig{
				Host: "localhost",
				Port: "6379",
			},
			Postgres: PostgresConfig{
				Host:  "localhost",
				Port:  "5432",
				Table: "documents",
			},
		},
		Server: ServerConfig{
			Port:       "8080",
			RateLimit:  100,
			RateWindow: time.Minute,
		},
	}
}

// Load builds the configuration once at startup. Precedence, lowest first:
// defaults, YAML file, .env file, process environment.
func Load(opts Options) (*Config, error) {
	cfg := defaults()

	configFile := opts.ConfigFile
	if configFile == "" {
		configFile = os.Getenv("SYNC_CONFIG_FILE")
	}
	if configFile != "" {
		if err := cfg.mergeFile(configFile); err != nil {
			return nil, err
		}
	}

	envFile := opts.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config: failed to load %s: %w", envFile, err)
	}

	if err := cfg.mergeEnv(os.Getenv); err != nil {
		return nil, err
	}

	switch cfg.Store.Backend {
	case BackendFile, BackendMemory, BackendRedis, BackendPostgres:
	default:
		return nil, fmt.Errorf("config: %w: %q", ErrInvalidBackend, cfg.Store.Backend)
	}

	return cfg, nil
}

// RequireAccount checks the inputs needed to talk to the remote service.
func (c *Config) RequireAccount() error {
	if c.Username == "" {
		return ErrMissingUsername
	}
	if c.Credential == nil {
		return ErrMissingCredential
	}
	return nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: failed to read %s: %w", path, err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("config: failed to parse %s: %w", path, err)
	}

	setString(&c.Username, fc.Username)
	setString(&c.BaseURL, fc.BaseURL)
	if fc.FetchDays > 0 {
		c.FetchDays = fc.FetchDays
	}
	if err := setDuration(&c.HTTPTimeout, fc.HTTPTimeout); err != nil {
		return err
	}
	if err := setLocation(&c.Location, fc.Timezone); err != nil {
		return err
	}

	setString(&c.DataDir, fc.Data.Dir)
	setString(&c.ProgressKey, fc.Data.Progress)
	setString(&c.StatisticsKey, fc.Data.Statistics)

	setString(&c.Store.Backend, fc.Store.Backend)
	setString(&c.Store.KeyPrefix, fc.Store.KeyPrefix)
	if err := setDuration(&c.Store.CacheTTL, fc.Store.CacheTTL); err != nil {
		return err
	}
	setString(&c.Store.Redis.Host, fc.Store.Redis.Host)
	setString(&c.Store.Redis.Port, fc.Store.Redis.Port)
	if fc.Store.Redis.DB > 0 {
		c.Store.Redis.DB = fc.Store.Redis.DB
	}
	setString(&c.Store.Postgres.User, fc.Store.Postgres.User)
	setString(&c.Store.Postgres.Host, fc.Store.Postgres.Host)
	setString(&c.Store.Postgres.Port, fc.Store.Postgres.Port)
	setString(&c.Store.Postgres.Name, fc.Store.Postgres.Name)
	setString(&c.Store.Postgres.Table, fc.Store.Postgres.Table)

	setString(&c.Server.Port, fc.Server.Port)
	if fc.Server.RateLimit > 0 {
		c.Server.RateLimit = fc.Server.RateLimit
	}
	return setDuration(&c.Server.SyncInterval, fc.Server.SyncInterval)
}

func (c *Config) mergeEnv(getenv func(string) string) error {
	setString(&c.Username, getenv("DUOLINGO_USERNAME"))

	// The bearer token wins over the password when both are present.
	if token := getenv("DUOLINGO_JWT"); token != "" {
		c.Credential = Bearer{Token: token}
	} else if secret := getenv("DUOLINGO_PASSWORD"); secret != "" {
		c.Credential = Password{Secret: secret}
	}

	setString(&c.BaseURL, getenv("DUOLINGO_BASE_URL"))
	if err := setInt(&c.FetchDays, "FETCH_DAYS", getenv("FETCH_DAYS")); err != nil {
		return err
	}
	if err := setDuration(&c.HTTPTimeout, getenv("HTTP_TIMEOUT")); err != nil {
		return err
	}
	if err := setLocation(&c.Location, getenv("DUOLINGO_TIMEZONE")); err != nil {
		return err
	}

	setString(&c.DataDir, getenv("DATA_DIR"))
	setString(&c.ProgressKey, getenv("PROGRESS_DOCUMENT"))
	setString(&c.StatisticsKey, getenv("STATISTICS_DOCUMENT"))

	setString(&c.Store.Backend, strings.ToLower(getenv("STORE_BACKEND")))
	setString(&c.Store.KeyPrefix, getenv("STORE_KEY_PREFIX"))
	if err := setDuration(&c.Store.CacheTTL, getenv("STORE_CACHE_TTL")); err != nil {
		return err
	}
	setString(&c.Store.Redis.Host, getenv("REDIS_HOST"))
	setString(&c.Store.Redis.Port, getenv("REDIS_PORT"))
	setString(&c.Store.Redis.Password, getenv("REDIS_PASSWORD"))
	if err := setInt(&c.Store.Redis.DB, "REDIS_DB", getenv("REDIS_DB")); err != nil {
		return err
	}
	setString(&c.Store.Postgres.User, getenv("DB_USER"))
	setString(&c.Store.Postgres.Password, getenv("DB_PASSWORD"))
	setString(&c.Store.Postgres.Host, getenv("DB_HOST"))
	setString(&c.Store.Postgres.Port, getenv("DB_PORT"))
	setString(&c.Store.Postgres.Name, getenv("DB_NAME"))
	setString(&c.Store.Postgres.Table, getenv("DB_TABLE"))

	setString(&c.Server.Port, getenv("PORT"))
	if err := setInt(&c.Server.RateLimit, "RATE_LIMIT", getenv("RATE_LIMIT")); err != nil {
		return err
	}
	setString(&c.Server.APITokenHash, getenv("SYNC_API_TOKEN_HASH"))
	return setDuration(&c.Server.SyncInterval, getenv("SYNC_INTERVAL"))
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, key, v string) error {
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return fmt.Errorf("config: %s must be a non-negative integer, got %q", key, v)
	}
	*dst = n
	return nil
}

func setDuration(dst *time.Duration, v string) error {
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("config: invalid duration %q: %w", v, err)
	}
	*dst = d
	return nil
}

func setLocation(dst **time.Location, name string) error {
	if name == "" {
		return nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return fmt.Errorf("config: invalid timezone %q: %w", name, err)
	}
	*dst = loc
	return nil
}
