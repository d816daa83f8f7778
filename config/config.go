package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

//go:embed config.yml
var embeddedConfig []byte

// JWTConfig holds everything the token issuer and verifier need. Access and
// refresh tokens are signed with different secrets so possession of one never
// allows forging the other.
type JWTConfig struct {
	AccessSecretKey  string        `mapstructure:"accessSecretKey"`
	RefreshSecretKey string        `mapstructure:"refreshSecretKey"`
	AccessTokenTTL   time.Duration `mapstructure:"accessTokenTTL"`
	RefreshTokenTTL  time.Duration `mapstructure:"refreshTokenTTL"`
	Issuer           string        `mapstructure:"issuer"`
}

type Config struct {
	Mode   string `mapstructure:"mode"`
	Server struct {
		HTTPPort string        `mapstructure:"HTTPPort"`
		Timeout  time.Duration `mapstructure:"HTTPTimeout"`
	} `mapstructure:"server"`
	Repositories struct {
		Postgres struct {
			Host     string `mapstructure:"host"`
			Port     string `mapstructure:"port"`
			Username string `mapstructure:"username"`
			Password string `mapstructure:"password"`
			DB       string `mapstructure:"db"`
			SSLMode  string `mapstructure:"sslmode"`
		} `mapstructure:"postgres"`
		Redis struct {
			Host     string `mapstructure:"host"`
			Port     string `mapstructure:"port"`
			Password string `mapstructure:"password"`
			DB       int    `mapstructure:"db"`
		} `mapstructure:"redis"`
	} `mapstructure:"repositories"`
	JWT     JWTConfig `mapstructure:"jwt"`
	Metrics struct {
		Port string `mapstructure:"port"`
	} `mapstructure:"metrics"`
}

// InitConfig loads the configuration from a config.yml on disk, falling back
// to the embedded default. Secrets can always be overridden by environment
// variables so they never have to live in a checked-in file.
func InitConfig() (Config, error) {
	var config Config
	v := viper.New()

	v.AddConfigPath(".")
	v.AddConfigPath("config")
	v.AddConfigPath("/app/config")

	v.SetConfigName("config")
	v.SetConfigType("yml")

	err := v.ReadInConfig()
	if err != nil {
		fmt.Printf("Warning: no file-based config found: %s. Falling back to embedded config.\n", err)
		if err = v.ReadConfig(bytes.NewReader(embeddedConfig)); err != nil {
			return Config{}, fmt.Errorf("failed to read embedded config: %w", err)
		}
	}

	if err = v.Unmarshal(&config); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyEnvOverrides(&config)

	if config.JWT.AccessSecretKey == "" || config.JWT.RefreshSecretKey == "" {
		return Config{}, fmt.Errorf("JWT secrets are not configured (JWT_ACCESS_SECRET / JWT_REFRESH_SECRET)")
	}
	if config.JWT.AccessSecretKey == config.JWT.RefreshSecretKey {
		return Config{}, fmt.Errorf("access and refresh token secrets must differ")
	}

	return config, nil
}

// applyEnvOverrides lets deployment environments inject secrets and
// connection details without touching the config file.
func applyEnvOverrides(c *Config) {
	if s := os.Getenv("JWT_ACCESS_SECRET"); s != "" {
		c.JWT.AccessSecretKey = s
	}
	if s := os.Getenv("JWT_REFRESH_SECRET"); s != "" {
		c.JWT.RefreshSecretKey = s
	}
	if s := os.Getenv("POSTGRES_PASSWORD"); s != "" {
		c.Repositories.Postgres.Password = s
	}
	if s := os.Getenv("POSTGRES_HOST"); s != "" {
		c.Repositories.Postgres.Host = s
	}
	if s := os.Getenv("REDIS_HOST"); s != "" {
		c.Repositories.Redis.Host = s
	}
	if s := os.Getenv("REDIS_PASSWORD"); s != "" {
		c.Repositories.Redis.Password = s
	}
}
