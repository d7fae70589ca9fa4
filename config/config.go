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

// 默认配置文件路径
const DefaultPath = "config/config.yaml"

// Config 应用配置
type Config struct {
	Server struct {
		Port         string        `yaml:"port"`
		Mode         string        `yaml:"mode"`
		ReadTimeout  time.Duration `yaml:"read_timeout"`
		WriteTimeout time.Duration `yaml:"write_timeout"`
	} `yaml:"server"`

	Log struct {
		Mode  string `yaml:"mode"`
		Level string `yaml:"level"`
	} `yaml:"log"`

	Database DatabaseConfig `yaml:"database"`

	Model struct {
		Path string `yaml:"path"`
	} `yaml:"model"`

	Auth struct {
		JWTSecret     string        `yaml:"jwt_secret"`
		TokenTTL      time.Duration `yaml:"token_ttl"`
		VerifyBaseURL string        `yaml:"verify_base_url"`
	} `yaml:"auth"`

	Redis struct {
		URL string `yaml:"url"`
	} `yaml:"redis"`

	Cache struct {
		WeatherTTL time.Duration `yaml:"weather_ttl"`
		NewsTTL    time.Duration `yaml:"news_ttl"`
	} `yaml:"cache"`

	Weather struct {
		APIKey  string `yaml:"api_key"`
		BaseURL string `yaml:"base_url"`
	} `yaml:"weather"`

	News struct {
		APIKey  string `yaml:"api_key"`
		BaseURL string `yaml:"base_url"`
	} `yaml:"news"`

	Assistant AssistantConfig `yaml:"assistant"`

	Mail MailConfig `yaml:"mail"`

	CORS struct {
		AllowOrigins []string `yaml:"allow_origins"`
	} `yaml:"cors"`

	RateLimit struct {
		RPS   float64 `yaml:"rps"`
		Burst int     `yaml:"burst"`
	} `yaml:"rate_limit"`
}

// DatabaseConfig 数据库配置，DSN 为空时按 MySQL 连接参数拼接
type DatabaseConfig struct {
	Driver   string `yaml:"driver"`
	DSN      string `yaml:"dsn"`
	Host     string `yaml:"host"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
}

// 问答助手支持的大模型接口
const (
	AssistantAnthropic = "anthropic"
	AssistantOpenAI    = "openai"
)

// AssistantConfig 问答助手配置，APIKey 为空时接口返回503
type AssistantConfig struct {
	Provider  string        `yaml:"provider"`
	APIKey    string        `yaml:"api_key"`
	Model     string        `yaml:"model"`
	BaseURL   string        `yaml:"base_url"`
	MaxTokens int           `yaml:"max_tokens"`
	Timeout   time.Duration `yaml:"timeout"`
}

// MailConfig SMTP配置，Host 为空时只记录日志
type MailConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
}

// Default 返回默认配置
func Default() *Config {
	var cfg Config
	cfg.Server.Port = "8080"
	cfg.Server.Mode = "debug"
	cfg.Server.ReadTimeout = 10 * time.Second
	cfg.Server.WriteTimeout = 30 * time.Second
	cfg.Log.Mode = "dev"
	cfg.Log.Level = "info"
	cfg.Database = DatabaseConfig{
		Driver:   "mysql",
		Host:     "127.0.0.1:3306",
		Username: "root",
		Password: "root",
		Name:     "cropadvisor",
	}
	cfg.Model.Path = "data/crop_model.json"
	cfg.Auth.TokenTTL = 7 * 24 * time.Hour
	cfg.Auth.VerifyBaseURL = "http://localhost:8080"
	cfg.Cache.WeatherTTL = 10 * time.Minute
	cfg.Cache.NewsTTL = 30 * time.Minute
	cfg.Weather.BaseURL = "https://api.openweathermap.org/data/2.5/weather"
	cfg.News.BaseURL = "https://newsapi.org/v2/everything"
	cfg.Assistant.Provider = AssistantAnthropic
	cfg.Assistant.MaxTokens = 512
	cfg.Assistant.Timeout = 30 * time.Second
	cfg.Mail.Port = 587
	cfg.Mail.From = "CropAdvisor <no-reply@cropadvisor.local>"
	cfg.CORS.AllowOrigins = []string{"http://localhost:3000", "http://localhost:5173"}
	cfg.RateLimit.RPS = 1
	cfg.RateLimit.Burst = 5
	return &cfg
}

// Load 依次加载 .env、YAML 文件和环境变量
func Load(path string) (*Config, error) {
	// .env 不存在时忽略
	_ = godotenv.Load()

	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path == "" {
		path = DefaultPath
	}

	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	setString(&c.Server.Port, "PORT")
	setString(&c.Server.Mode, "GIN_MODE")
	setString(&c.Log.Mode, "LOG_MODE")
	setString(&c.Log.Level, "LOG_LEVEL")
	setString(&c.Database.Driver, "DATABASE_DRIVER")
	setString(&c.Database.DSN, "DATABASE_DSN")
	setString(&c.Model.Path, "MODEL_PATH")
	setString(&c.Auth.JWTSecret, "JWT_SECRET")
	setString(&c.Auth.VerifyBaseURL, "VERIFY_BASE_URL")
	setString(&c.Redis.URL, "REDIS_URL")
	setString(&c.Weather.APIKey, "OPENWEATHER_API_KEY")
	setString(&c.News.APIKey, "NEWS_API_KEY")
	setString(&c.Assistant.Provider, "ASSISTANT_PROVIDER")
	setString(&c.Assistant.APIKey, "ASSISTANT_API_KEY")
	setString(&c.Assistant.Model, "ASSISTANT_MODEL")
	setString(&c.Assistant.BaseURL, "ASSISTANT_BASE_URL")
	setString(&c.Mail.Host, "SMTP_HOST")
	setString(&c.Mail.Username, "SMTP_USERNAME")
	setString(&c.Mail.Password, "SMTP_PASSWORD")
	setString(&c.Mail.From, "SMTP_FROM")
	if v := os.Getenv("SMTP_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Mail.Port = port
		}
	}
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		*dst = strings.TrimSpace(v)
	}
}

// Validate 校验配置
func (c *Config) Validate() error {
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("unsupported server mode %q", c.Server.Mode)
	}
	switch c.Database.Driver {
	case DriverMySQL, DriverSQLite:
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.Database.Driver == DriverSQLite && c.Database.DSN == "" {
		return errors.New("sqlite driver requires database.dsn")
	}
	if c.Model.Path == "" {
		return errors.New("model.path is required")
	}
	switch c.Assistant.Provider {
	case AssistantAnthropic, AssistantOpenAI:
	default:
		return fmt.Errorf("unsupported assistant provider %q", c.Assistant.Provider)
	}
	if c.Assistant.MaxTokens <= 0 {
		return errors.New("assistant.max_tokens must be positive")
	}
	if c.Auth.JWTSecret == "" {
		if c.Server.Mode == "release" {
			return errors.New("auth.jwt_secret is required in release mode")
		}
		c.Auth.JWTSecret = "cropadvisor_dev_secret"
	}
	return nil
}
