package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig
	Log        LogConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	JWT        JWTConfig
	Chain      ChainConfig
	Pinning    PinningConfig
	Tracing    TracingConfig    `mapstructure:"tracing"`
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
	CORS       CORSConfig       `mapstructure:"cors"`
	RateLimit  RateLimitConfig  `mapstructure:"rate_limit"`
	Seed       SeedConfig
	Jobs       JobsConfig

	// 配置文件所在目录（运行时填充，供 configwatcher 使用）
	Dir string `mapstructure:"-"`
}

type ServerConfig struct {
	Port            string
	Mode            string
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type LogConfig struct {
	Level string
	File  string
}

// DatabaseConfig Driver 取值 memory / sqlite / mysql
type DatabaseConfig struct {
	Driver string
	DSN    string `mapstructure:"dsn"`
	Debug  bool
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	ExpireTime time.Duration `mapstructure:"expire_hours"`
}

type ChainConfig struct {
	Enabled              bool
	WSURL                string        `mapstructure:"ws_url"`
	ConnectTimeout       time.Duration `mapstructure:"connect_timeout"`
	SubmitTimeout        time.Duration `mapstructure:"submit_timeout"`
	AdminMnemonic        string        `mapstructure:"admin_mnemonic"`
	AdminAddress         string        `mapstructure:"admin_address"`
	SS58Format           uint16        `mapstructure:"ss58_format"`
	TokenDecimals        int32         `mapstructure:"token_decimals"`
	CollectionID         uint32        `mapstructure:"collection_id"`
	CollectionSettle     time.Duration `mapstructure:"collection_settle"`
	CollectionMaxAttempt int           `mapstructure:"collection_max_attempts"`
	TokenMaxAttempt      int           `mapstructure:"token_max_attempts"`
}

// PinningConfig Provider 取值 pinata / minio / oss / none
type PinningConfig struct {
	Provider string
	Pinata   PinataConfig
	Minio    ObjectStoreConfig
	OSS      ObjectStoreConfig `mapstructure:"oss"`
}

type PinataConfig struct {
	Endpoint  string
	APIKey    string `mapstructure:"api_key"`
	SecretKey string `mapstructure:"secret_key"`
	Timeout   time.Duration
}

type ObjectStoreConfig struct {
	Endpoint  string
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string
	UseSSL    bool   `mapstructure:"use_ssl"`
	PublicURL string `mapstructure:"public_url"`
}

type TracingConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	CollectorEndpoint string `mapstructure:"collector_endpoint"`
	ServiceName       string `mapstructure:"service_name"`
}

type MonitoringConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type RateLimitConfig struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

type SeedConfig struct {
	CoursesFile string `mapstructure:"courses_file"`
}

type JobsConfig struct {
	CertificateStatsSpec string `mapstructure:"certificate_stats_spec"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "3001")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.shutdown_timeout", 5*time.Second)

	v.SetDefault("log.file", "logs/app.log")

	v.SetDefault("database.driver", "memory")

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)

	v.SetDefault("jwt.secret", "polkaedu-dev-secret")
	v.SetDefault("jwt.expire_hours", 24)

	v.SetDefault("chain.enabled", true)
	v.SetDefault("chain.ws_url", "wss://asset-hub-paseo.dotters.network")
	v.SetDefault("chain.connect_timeout", 15*time.Second)
	v.SetDefault("chain.submit_timeout", time.Minute)
	v.SetDefault("chain.admin_address", "13Mby3KmWFu5w16j3YDN1zD6WzVpjb7WzgC1apze9N3dJYy9")
	v.SetDefault("chain.ss58_format", 42)
	v.SetDefault("chain.token_decimals", 10)
	v.SetDefault("chain.collection_id", 1)
	v.SetDefault("chain.collection_settle", 3*time.Second)
	v.SetDefault("chain.collection_max_attempts", 5)
	v.SetDefault("chain.token_max_attempts", 100)

	v.SetDefault("pinning.provider", "pinata")
	v.SetDefault("pinning.pinata.endpoint", "https://api.pinata.cloud")
	v.SetDefault("pinning.pinata.timeout", 30*time.Second)

	v.SetDefault("tracing.service_name", "polkaedu-backend")
	v.SetDefault("monitoring.enabled", true)

	v.SetDefault("cors.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("rate_limit.requests_per_second", 20)
	v.SetDefault("rate_limit.burst", 40)

	v.SetDefault("seed.courses_file", "configs/courses.json")
	v.SetDefault("jobs.certificate_stats_spec", "@every 1m")
}

// LoadConfig 从 path 目录读取 config.yaml，环境变量优先；配置文件不存在时使用默认值
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetEnvPrefix("POLKAEDU")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Server
	v.BindEnv("server.port", "PORT")
	v.BindEnv("server.mode", "SERVER_MODE")

	// Database
	v.BindEnv("database.driver", "DATABASE_DRIVER")
	v.BindEnv("database.dsn", "DATABASE_DSN")

	// JWT
	v.BindEnv("jwt.secret", "JWT_SECRET")

	// Redis
	v.BindEnv("redis.host", "REDIS_HOST")
	v.BindEnv("redis.port", "REDIS_PORT")
	v.BindEnv("redis.password", "REDIS_PASSWORD")

	// Chain
	v.BindEnv("chain.ws_url", "POLKADOT_WS_URL")
	v.BindEnv("chain.admin_mnemonic", "NFT_ADMIN_MNEMONIC")
	v.BindEnv("chain.admin_address", "NFT_ADMIN_ADDRESS")
	v.BindEnv("chain.collection_id", "NFT_COLLECTION_ID")

	// Pinning
	v.BindEnv("pinning.pinata.api_key", "PINATA_API_KEY")
	v.BindEnv("pinning.pinata.secret_key", "PINATA_SECRET_KEY")
	v.BindEnv("pinning.minio.endpoint", "MINIO_ENDPOINT")
	v.BindEnv("pinning.minio.access_key", "MINIO_ACCESS_KEY")
	v.BindEnv("pinning.minio.secret_key", "MINIO_SECRET_KEY")
	v.BindEnv("pinning.minio.bucket", "MINIO_BUCKET")
	v.BindEnv("pinning.oss.endpoint", "OSS_ENDPOINT")
	v.BindEnv("pinning.oss.access_key", "OSS_ACCESS_KEY")
	v.BindEnv("pinning.oss.secret_key", "OSS_SECRET_KEY")
	v.BindEnv("pinning.oss.bucket", "OSS_BUCKET")

	// Tracing
	v.BindEnv("tracing.enabled", "TRACING_ENABLED")
	v.BindEnv("tracing.collector_endpoint", "TRACING_COLLECTOR_ENDPOINT")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.JWT.ExpireTime = cfg.JWT.ExpireTime * time.Hour
	cfg.Dir = path

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "memory", "sqlite", "mysql":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}

	if (c.Database.Driver == "mysql" || c.Database.Driver == "sqlite") && c.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required for driver %q", c.Database.Driver)
	}

	switch c.Pinning.Provider {
	case "pinata", "minio", "oss", "none":
	default:
		return fmt.Errorf("unsupported pinning provider %q", c.Pinning.Provider)
	}

	// 生产环境校验 JWT Secret 强度
	if c.Server.Mode == "release" && len(c.JWT.Secret) < 32 {
		return fmt.Errorf("JWT secret is too short (%d chars), must be at least 32 characters in release mode", len(c.JWT.Secret))
	}

	return nil
}
