// Package config loads server configuration.
//
// LOAD ORDER (later wins):
//  1. defaults (setDefaults)
//  2. the YAML file at CONFIG_PATH (default "config.yaml"), if it exists
//  3. a .env file in the working directory, if it exists
//  4. environment variables
//
// .env only fills variables that are not already set in the process
// environment, so a real environment always beats the file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Storage drivers.
const (
	StorageCloudinary = "cloudinary"
	StorageLocal      = "local"
)

// Config is the full server configuration.
type Config struct {
	Server struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
		// NotFoundPath is where failed click-throughs redirect.
		NotFoundPath string `yaml:"not_found_path"`
	} `yaml:"server"`

	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`

	Auth struct {
		JWTSecret    string        `yaml:"jwt_secret"`
		SessionTTL   time.Duration `yaml:"session_ttl"`
		CookieSecure bool          `yaml:"cookie_secure"`
	} `yaml:"auth"`

	Storage struct {
		Driver     string `yaml:"driver"`
		Cloudinary struct {
			CloudName string `yaml:"cloud_name"`
			APIKey    string `yaml:"api_key"`
			APISecret string `yaml:"api_secret"`
		} `yaml:"cloudinary"`
		Local struct {
			Dir     string `yaml:"dir"`
			BaseURL string `yaml:"base_url"`
		} `yaml:"local"`
	} `yaml:"storage"`

	Upload struct {
		MaxBytes int64 `yaml:"max_bytes"`
	} `yaml:"upload"`

	Download struct {
		AllowedHosts []string      `yaml:"allowed_hosts"`
		Timeout      time.Duration `yaml:"timeout"`
	} `yaml:"download"`

	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
}

// Load builds a Config from defaults, the optional YAML file at path, .env
// and the environment, then validates it.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	setDefaults(cfg)

	if err := loadFile(cfg, path); err != nil {
		return nil, err
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: loading .env: %w", err)
	}

	if err := loadFromEnv(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func setDefaults(cfg *Config) {
	cfg.Server.Port = 8080
	cfg.Server.ReadTimeout = 15 * time.Second
	cfg.Server.WriteTimeout = 60 * time.Second
	cfg.Server.ShutdownTimeout = 30 * time.Second
	cfg.Server.NotFoundPath = "/404"

	cfg.Database.Path = "data/students.db"

	cfg.Auth.SessionTTL = 30 * 24 * time.Hour

	cfg.Storage.Driver = StorageLocal
	cfg.Storage.Local.Dir = "data/uploads"
	cfg.Storage.Local.BaseURL = "/uploads"

	cfg.Upload.MaxBytes = 10 << 20

	cfg.Download.Timeout = 30 * time.Second

	cfg.Log.Level = "info"
	cfg.Log.Format = "text"
}

func loadFile(cfg *Config, path string) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("config: reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return nil
}

// loadFromEnv overrides cfg with every variable that is set.
func loadFromEnv(cfg *Config) error {
	str := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}

	str("DB_PATH", &cfg.Database.Path)
	str("JWT_SECRET", &cfg.Auth.JWTSecret)
	str("STORAGE_DRIVER", &cfg.Storage.Driver)
	str("CLOUDINARY_CLOUD_NAME", &cfg.Storage.Cloudinary.CloudName)
	str("CLOUDINARY_API_KEY", &cfg.Storage.Cloudinary.APIKey)
	str("CLOUDINARY_API_SECRET", &cfg.Storage.Cloudinary.APISecret)
	str("UPLOAD_DIR", &cfg.Storage.Local.Dir)
	str("UPLOAD_BASE_URL", &cfg.Storage.Local.BaseURL)
	str("NOT_FOUND_PATH", &cfg.Server.NotFoundPath)
	str("LOG_LEVEL", &cfg.Log.Level)
	str("LOG_FORMAT", &cfg.Log.Format)

	if v, ok := os.LookupEnv("PORT"); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: invalid PORT %q: %w", v, err)
		}
		cfg.Server.Port = port
	}
	if v, ok := os.LookupEnv("SESSION_TTL"); ok {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("config: invalid SESSION_TTL %q: %w", v, err)
		}
		cfg.Auth.SessionTTL = ttl
	}
	if v, ok := os.LookupEnv("COOKIE_SECURE"); ok {
		secure, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("config: invalid COOKIE_SECURE %q: %w", v, err)
		}
		cfg.Auth.CookieSecure = secure
	}
	if v, ok := os.LookupEnv("UPLOAD_MAX_BYTES"); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("config: invalid UPLOAD_MAX_BYTES %q: %w", v, err)
		}
		cfg.Upload.MaxBytes = n
	}
	if v, ok := os.LookupEnv("DOWNLOAD_ALLOWED_HOSTS"); ok {
		cfg.Download.AllowedHosts = nil
		for _, h := range strings.Split(v, ",") {
			if h = strings.TrimSpace(h); h != "" {
				cfg.Download.AllowedHosts = append(cfg.Download.AllowedHosts, h)
			}
		}
	}
	return nil
}

// Validate reports the first configuration problem.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server port %d out of range", c.Server.Port)
	}
	if len(c.Auth.JWTSecret) < 16 {
		return errors.New("JWT_SECRET must be at least 16 characters")
	}
	if c.Upload.MaxBytes <= 0 {
		return errors.New("upload max bytes must be positive")
	}

	switch c.Storage.Driver {
	case StorageCloudinary:
		cld := c.Storage.Cloudinary
		if cld.CloudName == "" || cld.APIKey == "" || cld.APISecret == "" {
			return errors.New("cloudinary storage needs CLOUDINARY_CLOUD_NAME, CLOUDINARY_API_KEY and CLOUDINARY_API_SECRET")
		}
	case StorageLocal:
		if c.Storage.Local.Dir == "" {
			return errors.New("local storage needs UPLOAD_DIR")
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}

	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.Log.Format)
	}
	return nil
}
