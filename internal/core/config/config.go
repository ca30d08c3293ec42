package config

import (
	"errors"
	"log"
	"os"
	"strings"

	"github.com/spf13/viper"
)

type HTTP struct {
	Host            string
	Port            int
	ReadTimeoutSec  int
	WriteTimeoutSec int
	IdleTimeoutSec  int
	CORSOrigins     []string `mapstructure:"cors_origins"`
}

type App struct {
	Name string
	Env  string
	HTTP HTTP
}

type LogFile struct {
	Enable     bool
	Filename   string
	MaxSizeMB  int `mapstructure:"max_size_mb"`
	MaxBackups int `mapstructure:"max_backups"`
	MaxAgeDays int `mapstructure:"max_age_days"`
	Compress   bool
}

type Log struct {
	Level string
	JSON  bool
	File  LogFile
}

type Session struct {
	Secret     string
	Issuer     string
	CookieName string `mapstructure:"cookie_name"`
	TTLMin     int    `mapstructure:"ttl_min"`
	Secure     bool
}

type Redis struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	TTLSec   int    `mapstructure:"ttl_sec"`
}

type DB struct {
	Driver             string
	DSN                string
	Username           string
	Password           string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeMin int
	AutoMigrate        bool
	LogLevel           string
}

type Storage struct {
	UploadDir   string `mapstructure:"upload_dir"`
	MaxUploadMB int    `mapstructure:"max_upload_mb"`
}

// IntervalMin defaults to 30.
type Backup struct {
	Enabled     bool
	Dir         string
	IntervalMin int `mapstructure:"interval_min"`
	Keep        int
}

type Limits struct {
	AuthRPS        float64 `mapstructure:"auth_rps"`
	AuthBurst      int     `mapstructure:"auth_burst"`
	MaxConcurrency int64   `mapstructure:"max_concurrency"`
	TimeoutSec     int     `mapstructure:"timeout_sec"`
}

type Config struct {
	App     App
	Log     Log
	Session Session
	DB      DB
	Redis   Redis `mapstructure:"redis"`
	Storage Storage
	Backup  Backup
	Limits  Limits
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "estate-listings")
	v.SetDefault("app.env", "dev")
	v.SetDefault("app.http.host", "0.0.0.0")
	v.SetDefault("app.http.port", 8080)
	v.SetDefault("app.http.readtimeoutsec", 15)
	v.SetDefault("app.http.writetimeoutsec", 30)
	v.SetDefault("app.http.idletimeoutsec", 60)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", false)
	v.SetDefault("log.file.filename", "logs/app.log")
	v.SetDefault("log.file.max_size_mb", 50)
	v.SetDefault("log.file.max_backups", 5)
	v.SetDefault("log.file.max_age_days", 14)

	v.SetDefault("session.secret", "change-me")
	v.SetDefault("session.issuer", "estate-listings")
	v.SetDefault("session.cookie_name", "session")
	v.SetDefault("session.ttl_min", 720)

	v.SetDefault("db.driver", "sqlite")
	v.SetDefault("db.dsn", "./data/local_database.db")
	v.SetDefault("db.maxopenconns", 10)
	v.SetDefault("db.maxidleconns", 5)
	v.SetDefault("db.connmaxlifetimemin", 30)
	v.SetDefault("db.automigrate", true)
	v.SetDefault("db.loglevel", "warn")

	v.SetDefault("redis.ttl_sec", 60)

	v.SetDefault("storage.upload_dir", "./static/uploads")
	v.SetDefault("storage.max_upload_mb", 64)

	v.SetDefault("backup.enabled", true)
	v.SetDefault("backup.dir", "./backups")
	v.SetDefault("backup.interval_min", 30)
	v.SetDefault("backup.keep", 0)

	v.SetDefault("limits.auth_rps", 1)
	v.SetDefault("limits.auth_burst", 10)
	v.SetDefault("limits.max_concurrency", 300)
	v.SetDefault("limits.timeout_sec", 30)
}

// Load reads the YAML file at path (CONFIG_PATH, then ./configs/config.local.yaml).
// A missing file is not fatal: defaults plus APP_* env vars are used.
func Load(path string) *Config {
	c, err := Read(path)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	return c
}

func Read(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
		if path == "" {
			path = "./configs/config.local.yaml"
		}
	}
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("APP")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		log.Printf("[config] %s not found, using defaults", path)
	}
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, err
	}
	return &c, nil
}
