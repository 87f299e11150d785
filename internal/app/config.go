package app

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/rsamf/gamma/internal/platform/envutil"
)

type Config struct {
	AppName         string        `yaml:"app_name"`
	Debug           bool          `yaml:"debug"`
	Port            int           `yaml:"port"`
	LogMode         string        `yaml:"log_mode"`
	HTTPTimeout     time.Duration `yaml:"http_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	CORSOrigins     []string      `yaml:"cors_allow_origins"`

	Database DatabaseConfig `yaml:"database"`
	GitHub   GitHubConfig   `yaml:"github"`
	MLflow   MLflowConfig   `yaml:"mlflow"`
	AWS      AWSConfig      `yaml:"aws"`
	LLM      LLMConfig      `yaml:"llm"`
	Agent    AgentConfig    `yaml:"agent"`
	Redis    RedisConfig    `yaml:"redis"`
}

type DatabaseConfig struct {
	URL            string `yaml:"url"`
	AdminURL       string `yaml:"admin_url"`
	SimpleProtocol bool   `yaml:"simple_protocol"`
	MaxOpenConns   int    `yaml:"max_open_conns"`
	AuthUsersTable string `yaml:"auth_users_table"`
	AutoMigrate    bool   `yaml:"auto_migrate"`
}

type GitHubConfig struct {
	AppID         string `yaml:"app_id"`
	PrivateKey    string `yaml:"private_key"`
	WebhookSecret string `yaml:"webhook_secret"`
	APIURL        string `yaml:"api_url"`
}

type MLflowConfig struct {
	TrackingURI string `yaml:"tracking_uri"`
}

type AWSConfig struct {
	Region        string        `yaml:"region"`
	DefaultBucket string        `yaml:"default_bucket"`
	S3Endpoint    string        `yaml:"s3_endpoint"`
	PresignTTL    time.Duration `yaml:"presign_ttl"`
}

type LLMConfig struct {
	APIKey        string        `yaml:"api_key"`
	Model         string        `yaml:"model"`
	BaseURL       string        `yaml:"base_url"`
	StreamTimeout time.Duration `yaml:"stream_timeout"`
}

type AgentConfig struct {
	MaxDiffBytes          int  `yaml:"max_diff_bytes"`
	PersistPartialReplies bool `yaml:"persist_partial_replies"`
}

type RedisConfig struct {
	Addr        string        `yaml:"addr"`
	Password    string        `yaml:"password"`
	DB          int           `yaml:"db"`
	DeliveryTTL time.Duration `yaml:"delivery_ttl"`
}

// LoadConfig reads the optional YAML file at path, then .env, then the
// process environment. Later sources win.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	if path = strings.TrimSpace(path); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	applyEnv(&cfg)
	applyDefaults(&cfg)
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.AppName = envutil.String("APP_NAME", cfg.AppName)
	cfg.Debug = envutil.Bool("DEBUG", cfg.Debug)
	cfg.Port = envutil.Int("PORT", cfg.Port)
	cfg.LogMode = envutil.String("LOG_MODE", cfg.LogMode)
	cfg.HTTPTimeout = envutil.Seconds("HTTP_TIMEOUT_SECONDS", cfg.HTTPTimeout)
	cfg.ShutdownTimeout = envutil.Seconds("SHUTDOWN_TIMEOUT_SECONDS", cfg.ShutdownTimeout)
	cfg.CORSOrigins = envutil.List("CORS_ALLOW_ORIGINS", cfg.CORSOrigins)

	cfg.Database.URL = envutil.String("DATABASE_URL", cfg.Database.URL)
	cfg.Database.AdminURL = envutil.String("DATABASE_ADMIN_URL", cfg.Database.AdminURL)
	cfg.Database.SimpleProtocol = envutil.Bool("DATABASE_SIMPLE_PROTOCOL", cfg.Database.SimpleProtocol)
	cfg.Database.MaxOpenConns = envutil.Int("DATABASE_MAX_OPEN_CONNS", cfg.Database.MaxOpenConns)
	cfg.Database.AuthUsersTable = envutil.String("DATABASE_AUTH_USERS_TABLE", cfg.Database.AuthUsersTable)
	cfg.Database.AutoMigrate = envutil.Bool("DATABASE_AUTO_MIGRATE", cfg.Database.AutoMigrate)

	cfg.GitHub.AppID = envutil.String("GITHUB_APP_ID", cfg.GitHub.AppID)
	cfg.GitHub.PrivateKey = envutil.String("GITHUB_APP_PRIVATE_KEY", cfg.GitHub.PrivateKey)
	cfg.GitHub.WebhookSecret = envutil.String("GITHUB_WEBHOOK_SECRET", cfg.GitHub.WebhookSecret)
	cfg.GitHub.APIURL = envutil.String("GITHUB_API_URL", cfg.GitHub.APIURL)

	cfg.MLflow.TrackingURI = envutil.String("MLFLOW_TRACKING_URI", cfg.MLflow.TrackingURI)

	cfg.AWS.Region = envutil.String("AWS_REGION", cfg.AWS.Region)
	cfg.AWS.DefaultBucket = envutil.String("S3_DEFAULT_BUCKET", cfg.AWS.DefaultBucket)
	cfg.AWS.S3Endpoint = envutil.String("S3_ENDPOINT", cfg.AWS.S3Endpoint)
	cfg.AWS.PresignTTL = envutil.Seconds("S3_PRESIGN_TTL_SECONDS", cfg.AWS.PresignTTL)

	cfg.LLM.APIKey = envutil.String("ANTHROPIC_API_KEY", cfg.LLM.APIKey)
	cfg.LLM.Model = envutil.String("ANTHROPIC_MODEL", cfg.LLM.Model)
	cfg.LLM.BaseURL = envutil.String("ANTHROPIC_BASE_URL", cfg.LLM.BaseURL)
	cfg.LLM.StreamTimeout = envutil.Seconds("LLM_STREAM_TIMEOUT_SECONDS", cfg.LLM.StreamTimeout)

	cfg.Agent.MaxDiffBytes = envutil.Int("AGENT_MAX_DIFF_BYTES", cfg.Agent.MaxDiffBytes)
	cfg.Agent.PersistPartialReplies = envutil.Bool("AGENT_PERSIST_PARTIAL_REPLIES", cfg.Agent.PersistPartialReplies)

	cfg.Redis.Addr = envutil.String("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Password = envutil.String("REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.DB = envutil.Int("REDIS_DB", cfg.Redis.DB)
	cfg.Redis.DeliveryTTL = envutil.Seconds("WEBHOOK_DELIVERY_TTL_SECONDS", cfg.Redis.DeliveryTTL)
}

func applyDefaults(cfg *Config) {
	if cfg.AppName == "" {
		cfg.AppName = "gamma"
	}
	if cfg.Port == 0 {
		cfg.Port = 8000
	}
	if cfg.LogMode == "" {
		cfg.LogMode = "production"
		if cfg.Debug {
			cfg.LogMode = "development"
		}
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = 30 * time.Second
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 15 * time.Second
	}
	if cfg.MLflow.TrackingURI == "" {
		cfg.MLflow.TrackingURI = "http://localhost:5000"
	}
	if cfg.AWS.Region == "" {
		cfg.AWS.Region = "us-east-1"
	}
	if cfg.AWS.DefaultBucket == "" {
		cfg.AWS.DefaultBucket = "gamma-artifacts"
	}
	if cfg.AWS.PresignTTL <= 0 {
		cfg.AWS.PresignTTL = time.Hour
	}
	if cfg.Agent.MaxDiffBytes == 0 {
		cfg.Agent.MaxDiffBytes = 60000
	}
	if cfg.Redis.DeliveryTTL <= 0 {
		cfg.Redis.DeliveryTTL = 24 * time.Hour
	}
}

func (c Config) validate() error {
	var errs []error
	if strings.TrimSpace(c.Database.URL) == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
	}
	if c.GitHub.AppID != "" && c.GitHub.PrivateKey == "" {
		errs = append(errs, errors.New("GITHUB_APP_PRIVATE_KEY is required when GITHUB_APP_ID is set"))
	}
	if c.Agent.MaxDiffBytes < 0 {
		errs = append(errs, errors.New("AGENT_MAX_DIFF_BYTES must not be negative"))
	}
	if c.LLM.StreamTimeout < 0 {
		errs = append(errs, errors.New("LLM_STREAM_TIMEOUT_SECONDS must not be negative"))
	}
	return errors.Join(errs...)
}

func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}
