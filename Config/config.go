package Config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g.
// FIELDOPS_DATABASE_DSN sets database.dsn.
const EnvPrefix = "FIELDOPS"

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Digest   DigestConfig   `mapstructure:"digest"`
	Slack    SlackConfig    `mapstructure:"slack"`
	SMTP     SMTPConfig     `mapstructure:"smtp"`
	Firebase FirebaseConfig `mapstructure:"firebase"`
}

type ServerConfig struct {
	Addr         string `mapstructure:"addr"`
	ViewsDir     string `mapstructure:"views_dir"`
	StaticDir    string `mapstructure:"static_dir"`
	AllowOrigins string `mapstructure:"allow_origins"`
	// SecureCookie marks the jwt cookie Secure; turn off for plain http in development
	SecureCookie bool `mapstructure:"secure_cookie"`
}

type DatabaseConfig struct {
	// Driver is one of sqlite, postgres, mysql
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
}

type LoggingConfig struct {
	RequestLog string `mapstructure:"request_log"`
	Console    bool   `mapstructure:"console"`
}

type DigestConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// Schedule is a six field cron spec, seconds first
	Schedule string `mapstructure:"schedule"`
}

type SlackConfig struct {
	Token   string `mapstructure:"token"`
	Channel string `mapstructure:"channel"`
}

type SMTPConfig struct {
	Server       string   `mapstructure:"server"`
	Port         int      `mapstructure:"port"`
	Username     string   `mapstructure:"username"`
	Password     string   `mapstructure:"password"`
	FromEmail    string   `mapstructure:"from_email"`
	FromName     string   `mapstructure:"from_name"`
	TLSEnabled   bool     `mapstructure:"tls"`
	SkipTLSCheck bool     `mapstructure:"skip_tls_check"`
	To           []string `mapstructure:"to"`
}

type FirebaseConfig struct {
	CredentialsFile string `mapstructure:"credentials_file"`
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:         ":3001",
			ViewsDir:     "./Templates",
			StaticDir:    "static/",
			AllowOrigins: "*",
			SecureCookie: true,
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			DSN:    "data/fieldops.db",
		},
		Logging: LoggingConfig{
			RequestLog: "logs/requests.log",
			Console:    true,
		},
		Digest: DigestConfig{
			Enabled:  true,
			Schedule: "0 0 6 * * *",
		},
		SMTP: SMTPConfig{
			Port:     587,
			FromName: "FieldOps",
		},
	}
}

func SetDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.views_dir", d.Server.ViewsDir)
	v.SetDefault("server.static_dir", d.Server.StaticDir)
	v.SetDefault("server.allow_origins", d.Server.AllowOrigins)
	v.SetDefault("server.secure_cookie", d.Server.SecureCookie)

	v.SetDefault("database.driver", d.Database.Driver)
	v.SetDefault("database.dsn", d.Database.DSN)

	v.SetDefault("auth.jwt_secret", d.Auth.JWTSecret)

	v.SetDefault("logging.request_log", d.Logging.RequestLog)
	v.SetDefault("logging.console", d.Logging.Console)

	v.SetDefault("digest.enabled", d.Digest.Enabled)
	v.SetDefault("digest.schedule", d.Digest.Schedule)

	v.SetDefault("slack.token", d.Slack.Token)
	v.SetDefault("slack.channel", d.Slack.Channel)

	v.SetDefault("smtp.server", d.SMTP.Server)
	v.SetDefault("smtp.port", d.SMTP.Port)
	v.SetDefault("smtp.username", d.SMTP.Username)
	v.SetDefault("smtp.password", d.SMTP.Password)
	v.SetDefault("smtp.from_email", d.SMTP.FromEmail)
	v.SetDefault("smtp.from_name", d.SMTP.FromName)
	v.SetDefault("smtp.tls", d.SMTP.TLSEnabled)
	v.SetDefault("smtp.skip_tls_check", d.SMTP.SkipTLSCheck)
	v.SetDefault("smtp.to", d.SMTP.To)

	v.SetDefault("firebase.credentials_file", d.Firebase.CredentialsFile)
}

// Load reads .env (if present), then an optional config file, then
// FIELDOPS_* environment variables, in increasing precedence.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite", "postgres", "mysql":
	default:
		return fmt.Errorf("database.driver must be sqlite, postgres or mysql, got %q", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return errors.New("database.dsn is required")
	}
	return nil
}

// SlackEnabled reports whether digest messages should go to Slack.
func (c *Config) SlackEnabled() bool {
	return c.Slack.Token != "" && c.Slack.Channel != ""
}

func (c *Config) SMTPEnabled() bool {
	return c.SMTP.Server != "" && c.SMTP.FromEmail != ""
}

func (c *Config) FirebaseEnabled() bool {
	return c.Firebase.CredentialsFile != ""
}
