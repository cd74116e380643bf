// Package config implements the W7 ambient configuration: a struct-plus-tag
// configuration tree loaded from an optional YAML file and overridable by
// environment variables, the way the teacher's Config/DefaultConfig pair
// does it.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the control-plane, persistence, and cluster configuration
// for the serve/batch subcommands. The CLI's own flags (--time-limit,
// --naive, --raw, --output, --verbose) are not part of this struct; they
// govern a single analysis run directly.
type Config struct {
	JWT     JWTConfig     `yaml:"jwt" json:"jwt"`
	Auth    AuthConfig    `yaml:"auth" json:"auth"`
	API     APIConfig     `yaml:"api" json:"api"`
	DB      DBConfig      `yaml:"db" json:"db"`
	Redis   RedisConfig   `yaml:"redis" json:"redis"`
	Cluster ClusterConfig `yaml:"cluster" json:"cluster"`
}

// JWTConfig holds JWT signing configuration for the W4 control plane.
type JWTConfig struct {
	Issuer      string        `yaml:"issuer" json:"issuer"`
	Audience    string        `yaml:"audience" json:"audience"`
	ExpiryTime  time.Duration `yaml:"expiryTime" json:"expiryTime"`
	RefreshTime time.Duration `yaml:"refreshTime" json:"refreshTime"`
}

// AuthConfig toggles bearer-token enforcement on the control plane.
type AuthConfig struct {
	Enabled     bool          `yaml:"enabled" json:"enabled"`
	TokenExpiry time.Duration `yaml:"tokenExpiry" json:"tokenExpiry"`
}

// APIConfig holds the W4 HTTP control-plane server configuration.
type APIConfig struct {
	Listen      string          `yaml:"listen" json:"listen"`
	TLSEnabled  bool            `yaml:"tlsEnabled" json:"tlsEnabled"`
	CertFile    string          `yaml:"certFile" json:"certFile"`
	KeyFile     string          `yaml:"keyFile" json:"keyFile"`
	MaxBodySize int64           `yaml:"maxBodySize" json:"maxBodySize"`
	RateLimit   RateLimitConfig `yaml:"rateLimit" json:"rateLimit"`
	Cors        CorsConfig      `yaml:"cors" json:"cors"`
}

// RateLimitConfig configures the per-token rate limiter in front of
// POST /runs (golang.org/x/time/rate).
type RateLimitConfig struct {
	Enabled     bool          `yaml:"enabled" json:"enabled"`
	RequestsPer int           `yaml:"requestsPer" json:"requestsPer"`
	Duration    time.Duration `yaml:"duration" json:"duration"`
	BurstSize   int           `yaml:"burstSize" json:"burstSize"`
}

// CorsConfig configures gin-contrib/cors for the control plane.
type CorsConfig struct {
	Enabled          bool     `yaml:"enabled" json:"enabled"`
	AllowedOrigins   []string `yaml:"allowedOrigins" json:"allowedOrigins"`
	AllowedMethods   []string `yaml:"allowedMethods" json:"allowedMethods"`
	AllowedHeaders   []string `yaml:"allowedHeaders" json:"allowedHeaders"`
	AllowCredentials bool     `yaml:"allowCredentials" json:"allowCredentials"`
	MaxAgeSeconds    int      `yaml:"maxAgeSeconds" json:"maxAgeSeconds"`
}

// DBConfig configures the W5 Postgres run/result store.
type DBConfig struct {
	Host            string        `yaml:"host" json:"host"`
	Port            int           `yaml:"port" json:"port"`
	Name            string        `yaml:"name" json:"name"`
	User            string        `yaml:"user" json:"user"`
	Password        string        `yaml:"password" json:"password"`
	SSLMode         string        `yaml:"sslMode" json:"sslMode"`
	MaxOpenConns    int           `yaml:"maxOpenConns" json:"maxOpenConns"`
	MaxIdleConns    int           `yaml:"maxIdleConns" json:"maxIdleConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime" json:"connMaxLifetime"`
}

// RedisConfig configures the W5 run-id cache and progress pub/sub relay.
type RedisConfig struct {
	Host         string        `yaml:"host" json:"host"`
	Port         int           `yaml:"port" json:"port"`
	Password     string        `yaml:"password" json:"password"`
	DB           int           `yaml:"db" json:"db"`
	PoolSize     int           `yaml:"poolSize" json:"poolSize"`
	DialTimeout  time.Duration `yaml:"dialTimeout" json:"dialTimeout"`
	ReadTimeout  time.Duration `yaml:"readTimeout" json:"readTimeout"`
	WriteTimeout time.Duration `yaml:"writeTimeout" json:"writeTimeout"`
	CacheTTL     time.Duration `yaml:"cacheTTL" json:"cacheTTL"`
}

// ClusterConfig holds defaults for the W6 batch/cluster runner's libp2p
// host, repurposed from the teacher's P2PConfig.
type ClusterConfig struct {
	ListenAddr     string        `yaml:"listenAddr" json:"listenAddr"`
	BootstrapPeers []string      `yaml:"bootstrapPeers" json:"bootstrapPeers"`
	DialTimeout    time.Duration `yaml:"dialTimeout" json:"dialTimeout"`
	MaxConnections int           `yaml:"maxConnections" json:"maxConnections"`
}

// Default returns a configuration with the schedcheck-specific defaults,
// many of them overridable by a SCHEDCHECK_* environment variable.
func Default() *Config {
	return &Config{
		JWT: JWTConfig{
			Issuer:      "schedcheck",
			Audience:    "schedcheck-clients",
			ExpiryTime:  24 * time.Hour,
			RefreshTime: 7 * 24 * time.Hour,
		},
		Auth: AuthConfig{
			Enabled:     getEnvBoolOrDefault("SCHEDCHECK_AUTH_ENABLED", true),
			TokenExpiry: 24 * time.Hour,
		},
		API: APIConfig{
			Listen:      getEnvOrDefault("SCHEDCHECK_API_LISTEN", "0.0.0.0:8080"),
			TLSEnabled:  getEnvBoolOrDefault("SCHEDCHECK_API_TLS_ENABLED", false),
			CertFile:    getEnvOrDefault("SCHEDCHECK_API_CERT_FILE", ""),
			KeyFile:     getEnvOrDefault("SCHEDCHECK_API_KEY_FILE", ""),
			MaxBodySize: int64(getEnvIntOrDefault("SCHEDCHECK_API_MAX_BODY_SIZE", 8*1024*1024)),
			RateLimit: RateLimitConfig{
				Enabled:     getEnvBoolOrDefault("SCHEDCHECK_RATE_LIMIT_ENABLED", true),
				RequestsPer: getEnvIntOrDefault("SCHEDCHECK_RATE_LIMIT_REQUESTS", 30),
				Duration:    time.Minute,
				BurstSize:   getEnvIntOrDefault("SCHEDCHECK_RATE_LIMIT_BURST", 5),
			},
			Cors: CorsConfig{
				Enabled:          getEnvBoolOrDefault("SCHEDCHECK_CORS_ENABLED", true),
				AllowedOrigins:   []string{"*"},
				AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
				AllowedHeaders:   []string{"*"},
				AllowCredentials: false,
				MaxAgeSeconds:    300,
			},
		},
		DB: DBConfig{
			Host:            getEnvOrDefault("SCHEDCHECK_DB_HOST", "localhost"),
			Port:            getEnvIntOrDefault("SCHEDCHECK_DB_PORT", 5432),
			Name:            getEnvOrDefault("SCHEDCHECK_DB_NAME", "schedcheck"),
			User:            getEnvOrDefault("SCHEDCHECK_DB_USER", "schedcheck"),
			Password:        getEnvOrDefault("SCHEDCHECK_DB_PASSWORD", ""),
			SSLMode:         getEnvOrDefault("SCHEDCHECK_DB_SSL_MODE", "prefer"),
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Redis: RedisConfig{
			Host:         getEnvOrDefault("SCHEDCHECK_REDIS_HOST", "localhost"),
			Port:         getEnvIntOrDefault("SCHEDCHECK_REDIS_PORT", 6379),
			Password:     getEnvOrDefault("SCHEDCHECK_REDIS_PASSWORD", ""),
			PoolSize:     10,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
			CacheTTL:     10 * time.Minute,
		},
		Cluster: ClusterConfig{
			ListenAddr:     getEnvOrDefault("SCHEDCHECK_CLUSTER_LISTEN_ADDR", "/ip4/0.0.0.0/tcp/0"),
			BootstrapPeers: []string{},
			DialTimeout:    30 * time.Second,
			MaxConnections: getEnvIntOrDefault("SCHEDCHECK_CLUSTER_MAX_CONNECTIONS", 100),
		},
	}
}

// Load builds a Config starting from Default(), then overlays path's YAML
// document if path is non-empty. Environment variables are read only by
// Default(), so a value set in the YAML document takes precedence over the
// environment; no override is re-applied after decoding.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("config: open %q: %w", path, err)
		}
		defer f.Close()
		if err := yaml.NewDecoder(f).Decode(cfg); err != nil {
			return nil, fmt.Errorf("config: decode %q: %w", path, err)
		}
	}
	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
