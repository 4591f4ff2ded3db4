package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Payment   PaymentConfig   `mapstructure:"payment"`
	Storage   StorageConfig   `mapstructure:"storage"`
	TON       TONConfig       `mapstructure:"ton"`
	NFT       NFTConfig       `mapstructure:"nft"`
	Tracing   TracingConfig   `mapstructure:"tracing"`
	CORS      CORSConfig      `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`

	// 运行时标志（非配置文件，通过命令行参数设置）
	ForceMigrate bool `mapstructure:"-"` // 强制执行数据库迁移
	MigrateOnly  bool `mapstructure:"-"` // 仅迁移模式（迁移后退出）
}

type ServerConfig struct {
	Port string
	Mode string
}

type DatabaseConfig struct {
	Host      string
	Port      int
	User      string
	Password  string
	DBName    string
	Charset   string
	ParseTime bool
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret            string        `mapstructure:"secret"`
	ExpireTime        time.Duration `mapstructure:"expire_hours"`
	AdminUser         string        `mapstructure:"admin_user"`
	AdminPasswordHash string        `mapstructure:"admin_password_hash"` // bcrypt
}

type TelegramConfig struct {
	BotToken string `mapstructure:"bot_token"`
	BotName  string `mapstructure:"bot_name"` // 深链接 external_url 用
}

type PaymentConfig struct {
	StarsEnabled  bool    `mapstructure:"stars_enabled"`
	TonEnabled    bool    `mapstructure:"ton_enabled"`
	StarsPrice    int64   `mapstructure:"stars_price"`    // Telegram Stars，整数
	TonPrice      float64 `mapstructure:"ton_price"`      // TON，入库前换算为 nanoton
	MintsPerDay   int     `mapstructure:"mints_per_day"`  // 每用户每日铸造上限，0 表示不限
	QuizzesPerDay int     `mapstructure:"quizzes_per_day"`
}

type StorageConfig struct {
	Type          string        `mapstructure:"type"` // pinata / minio
	PinataAPIURL  string        `mapstructure:"pinata_api_url"`
	PinataAPIKey  string        `mapstructure:"pinata_api_key"`
	PinataSecret  string        `mapstructure:"pinata_secret_key"`
	GatewayURL    string        `mapstructure:"gateway_url"`
	MinioEndpoint string        `mapstructure:"minio_endpoint"`
	MinioAccessID string        `mapstructure:"minio_access_key"`
	MinioSecret   string        `mapstructure:"minio_secret_key"`
	MinioBucket   string        `mapstructure:"minio_bucket"`
	UploadTimeout time.Duration `mapstructure:"upload_timeout_seconds"`
}

type TONConfig struct {
	Network           string  `mapstructure:"network"` // testnet / mainnet
	APIURL            string  `mapstructure:"api_url"`
	APIKey            string  `mapstructure:"api_key"`
	WalletAddress     string  `mapstructure:"wallet_address"`
	CollectionAddress string  `mapstructure:"collection_address"`
	MinBalanceTON     float64 `mapstructure:"min_balance_ton"`
}

type NFTConfig struct {
	MaxRetries  int           `mapstructure:"max_retries"`
	StepTimeout time.Duration `mapstructure:"step_timeout_seconds"`
}

type TracingConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	CollectorEndpoint string `mapstructure:"collector_endpoint"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type RateLimitConfig struct {
	MaxRequests   int `mapstructure:"max_requests"`
	WindowMinutes int `mapstructure:"window_minutes"`
}

func LoadConfig(path string) (*Config, error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetEnvPrefix("QUIZ_NFT")
	viper.AutomaticEnv()

	// Database
	viper.BindEnv("database.host", "DATABASE_HOST")
	viper.BindEnv("database.port", "DATABASE_PORT")
	viper.BindEnv("database.user", "DATABASE_USER")
	viper.BindEnv("database.password", "DATABASE_PASSWORD")
	viper.BindEnv("database.dbname", "DATABASE_NAME")

	// Redis
	viper.BindEnv("redis.host", "REDIS_HOST")
	viper.BindEnv("redis.port", "REDIS_PORT")
	viper.BindEnv("redis.password", "REDIS_PASSWORD")

	// Server
	viper.BindEnv("server.mode", "SERVER_MODE")

	// JWT
	viper.BindEnv("jwt.secret", "JWT_SECRET")
	viper.BindEnv("jwt.admin_user", "ADMIN_USER")
	viper.BindEnv("jwt.admin_password_hash", "ADMIN_PASSWORD_HASH")

	// Telegram
	viper.BindEnv("telegram.bot_token", "BOT_TOKEN")
	viper.BindEnv("telegram.bot_name", "BOT_NAME")

	// Payment
	viper.BindEnv("payment.stars_enabled", "STARS_ENABLED")
	viper.BindEnv("payment.ton_enabled", "TON_PAYMENT_ENABLED")
	viper.BindEnv("payment.stars_price", "NFT_MINT_PRICE_STARS")
	viper.BindEnv("payment.ton_price", "NFT_MINT_PRICE_TON")

	// Storage / IPFS
	viper.BindEnv("storage.type", "STORAGE_TYPE")
	viper.BindEnv("storage.pinata_api_url", "IPFS_API_URL")
	viper.BindEnv("storage.pinata_api_key", "IPFS_API_KEY")
	viper.BindEnv("storage.pinata_secret_key", "IPFS_SECRET_KEY")
	viper.BindEnv("storage.gateway_url", "IPFS_GATEWAY_URL")
	viper.BindEnv("storage.minio_endpoint", "MINIO_ENDPOINT")
	viper.BindEnv("storage.minio_access_key", "MINIO_ACCESS_KEY")
	viper.BindEnv("storage.minio_secret_key", "MINIO_SECRET_KEY")
	viper.BindEnv("storage.minio_bucket", "MINIO_BUCKET")

	// TON
	viper.BindEnv("ton.network", "TON_NETWORK")
	viper.BindEnv("ton.api_url", "TON_API_URL")
	viper.BindEnv("ton.api_key", "TON_API_KEY")
	viper.BindEnv("ton.wallet_address", "TON_WALLET_ADDRESS")
	viper.BindEnv("ton.collection_address", "NFT_COLLECTION_ADDRESS")

	// Tracing
	viper.BindEnv("tracing.enabled", "TRACING_ENABLED")
	viper.BindEnv("tracing.collector_endpoint", "TRACING_COLLECTOR_ENDPOINT")

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.JWT.ExpireTime = cfg.JWT.ExpireTime * time.Hour
	cfg.NFT.StepTimeout = cfg.NFT.StepTimeout * time.Second
	cfg.Storage.UploadTimeout = cfg.Storage.UploadTimeout * time.Second

	if cfg.NFT.MaxRetries <= 0 {
		cfg.NFT.MaxRetries = 3
	}
	if cfg.NFT.StepTimeout <= 0 {
		cfg.NFT.StepTimeout = 30 * time.Second
	}
	if cfg.Storage.UploadTimeout <= 0 {
		cfg.Storage.UploadTimeout = 30 * time.Second
	}
	if cfg.TON.MinBalanceTON <= 0 {
		cfg.TON.MinBalanceTON = 0.05
	}

	// 生产环境校验 JWT Secret 强度
	if cfg.Server.Mode == "release" && len(cfg.JWT.Secret) < 32 {
		return nil, fmt.Errorf("JWT secret is too short (%d chars), must be at least 32 characters in release mode", len(cfg.JWT.Secret))
	}

	return &cfg, nil
}
