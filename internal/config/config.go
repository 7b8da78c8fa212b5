package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port      int    `yaml:"port"`
		StaticDir string `yaml:"staticDir"`
	} `yaml:"server"`

	Database struct {
		Driver   string `yaml:"driver"` // mysql | postgres
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
		SSLMode  string `yaml:"sslMode"`
	} `yaml:"database"`

	Oracle struct {
		Provider       string `yaml:"provider"` // oracle | openai
		Host           string `yaml:"host"`
		Model          string `yaml:"model"`
		APIKey         string `yaml:"apiKey"`
		TimeoutSeconds int    `yaml:"timeoutSeconds"`
		MaxAttempts    int    `yaml:"maxAttempts"`
		BackoffSeconds int    `yaml:"backoffSeconds"`
	} `yaml:"oracle"`

	Minio struct {
		Enabled    bool   `yaml:"enabled"`
		Endpoint   string `yaml:"endpoint"`
		AccessKey  string `yaml:"accessKey"`
		SecretKey  string `yaml:"secretKey"`
		BucketName string `yaml:"bucketName"`
		Region     string `yaml:"region"`
		UseSSL     bool   `yaml:"useSSL"`
	} `yaml:"minio"`

	Security struct {
		// APIKeys maps client name -> bearer key
		APIKeys  map[string]string `yaml:"apiKeys"`
		FieldKey string            `yaml:"fieldKey"`
	} `yaml:"security"`

	CORS struct {
		AllowedOrigins []string `yaml:"allowedOrigins"`
	} `yaml:"cors"`
}

// Load baca file config.yaml. Secrets can be supplied (or overridden)
// via environment so the file itself stays free of credentials.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if v := os.Getenv("ORACLE_API_KEY"); v != "" {
		cfg.Oracle.APIKey = v
	}
	if cfg.Oracle.Provider == "openai" {
		if v := os.Getenv("OPENAI_API_KEY"); v != "" {
			cfg.Oracle.APIKey = v
		}
	}
	if v := os.Getenv("FIELD_ENCRYPTION_KEY"); v != "" {
		cfg.Security.FieldKey = v
	}
	return &cfg, nil
}

// Helper untuk build DSN MySQL
func (c *Config) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
	)
}

// PostgresDSN untuk driver postgres
func (c *Config) PostgresDSN() string {
	ssl := c.Database.SSLMode
	if ssl == "" {
		ssl = "disable"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		ssl,
	)
}

func (c *Config) OracleTimeout() time.Duration {
	return time.Duration(c.Oracle.TimeoutSeconds) * time.Second
}

func (c *Config) OracleBackoff() time.Duration {
	return time.Duration(c.Oracle.BackoffSeconds) * time.Second
}
