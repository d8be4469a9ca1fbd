package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Database  DatabaseConfig  `mapstructure:"database"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Redis     RedisConfig     `mapstructure:"redis"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	CORS      CORSConfig      `mapstructure:"cors"`
	Workflow  WorkflowConfig  `mapstructure:"workflow"`
	SMTP      SMTPConfig      `mapstructure:"smtp"`
	Mailer    MailerConfig    `mapstructure:"mailer"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

type ServerConfig struct {
	Port           int    `mapstructure:"port"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	Mode           string `mapstructure:"mode"`
	Timezone       string `mapstructure:"timezone"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

type DatabaseConfig struct {
	// Driver is "mongo" or "memory".
	Driver                string `mapstructure:"driver"`
	URI                   string `mapstructure:"uri"`
	Name                  string `mapstructure:"name"`
	ConnectTimeoutSeconds int    `mapstructure:"connect_timeout_seconds"`
}

type JWTConfig struct {
	Secret       string `mapstructure:"secret"`
	ExpiryHours  int    `mapstructure:"expiry_hours"`
	CookieName   string `mapstructure:"cookie_name"`
	SecureCookie bool   `mapstructure:"secure_cookie"`
}

type AuthConfig struct {
	MaxLoginAttempts int `mapstructure:"max_login_attempts"`
	LockoutMinutes   int `mapstructure:"lockout_minutes"`
	BcryptCost       int `mapstructure:"bcrypt_cost"`
}

type RedisConfig struct {
	URL     string `mapstructure:"url"`
	Channel string `mapstructure:"channel"`
}

type RateLimitConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type WorkflowConfig struct {
	StrictTransitions bool `mapstructure:"strict_transitions"`
}

type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

type MailerConfig struct {
	Enabled    bool     `mapstructure:"enabled"`
	At         string   `mapstructure:"at"`
	Recipients []string `mapstructure:"recipients"`
	Reports    []string `mapstructure:"reports"`
}

type MetricsConfig struct {
	Namespace string `mapstructure:"namespace"`
}

// secrets are the values operators usually inject through the environment
// rather than the config file.
type secrets struct {
	MongoURI     string `envconfig:"MONGO_URI"`
	JWTSecret    string `envconfig:"JWT_SECRET"`
	RedisURL     string `envconfig:"REDIS_URL"`
	SMTPPassword string `envconfig:"SMTP_PASSWORD"`
	Port         int    `envconfig:"PORT"`
}

const envPrefix = "CRM"

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.timeout_seconds", 30)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.timezone", "Asia/Kolkata")
	v.SetDefault("log.level", "info")
	v.SetDefault("database.driver", "mongo")
	v.SetDefault("database.uri", "mongodb://localhost:27017")
	v.SetDefault("database.name", "hairline")
	v.SetDefault("database.connect_timeout_seconds", 10)
	v.SetDefault("jwt.expiry_hours", 24)
	v.SetDefault("jwt.cookie_name", "token")
	v.SetDefault("jwt.secure_cookie", true)
	v.SetDefault("auth.max_login_attempts", 5)
	v.SetDefault("auth.lockout_minutes", 15)
	v.SetDefault("auth.bcrypt_cost", 12)
	v.SetDefault("redis.channel", "patients")
	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests_per_second", 20)
	v.SetDefault("rate_limit.burst", 40)
	v.SetDefault("cors.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("workflow.strict_transitions", true)
	v.SetDefault("smtp.port", 587)
	v.SetDefault("mailer.at", "20:00")
	v.SetDefault("mailer.reports", []string{"transactions", "counsellors"})
	v.SetDefault("metrics.namespace", "hairline")
}

// LoadConfig reads config.yaml (if present), then applies .env and CRM_*
// environment overrides.
func LoadConfig(paths ...string) (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if len(paths) == 0 {
		paths = []string{".", "./config", "/app/config"}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	var s secrets
	if err := envconfig.Process(envPrefix, &s); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}
	config.applySecrets(s)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) applySecrets(s secrets) {
	if s.MongoURI != "" {
		c.Database.URI = s.MongoURI
	}
	if s.JWTSecret != "" {
		c.JWT.Secret = s.JWTSecret
	}
	if s.RedisURL != "" {
		c.Redis.URL = s.RedisURL
	}
	if s.SMTPPassword != "" {
		c.SMTP.Password = s.SMTPPassword
	}
	if s.Port != 0 {
		c.Server.Port = s.Port
	}
}

func (c *Config) Validate() error {
	if len(c.JWT.Secret) < 16 {
		return errors.New("jwt.secret must be at least 16 characters (set CRM_JWT_SECRET)")
	}
	switch c.Database.Driver {
	case "mongo", "memory":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.Mailer.Enabled && (c.SMTP.Host == "" || len(c.Mailer.Recipients) == 0) {
		return errors.New("mailer is enabled but smtp.host or mailer.recipients is empty")
	}
	return nil
}
