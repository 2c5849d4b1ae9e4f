package config

import (
	"fmt"
	"log"
	"os"
	"time"
	_ "time/tzdata"

	"github.com/spf13/viper"
)

// Config хранит все настройки приложения
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Auth      AuthConfig
	Email     EmailConfig
	Reports   ReportsConfig
	Stats     StatsConfig
	WebSocket WebSocketConfig
	CORS      CORSConfig
}

// ServerConfig содержит настройки HTTP сервера
type ServerConfig struct {
	Port            string
	ReadTimeout     int
	WriteTimeout    int
	ShutdownTimeout int `mapstructure:"shutdownTimeout"`
}

// DatabaseConfig содержит настройки подключения к PostgreSQL
type DatabaseConfig struct {
	Host           string
	Port           string
	User           string
	Password       string
	DBName         string
	SSLMode        string
	MigrationsPath string `mapstructure:"migrationsPath"`
}

// RedisConfig содержит унифицированные настройки подключения к Redis
// Поддерживает режимы: single, sentinel, cluster
type RedisConfig struct {
	// Mode: Режим работы Redis ("single", "sentinel", "cluster"). По умолчанию "single".
	Mode string `mapstructure:"mode"`

	// Addrs: Список адресов Redis (хост:порт). Для 'single' используется первый адрес.
	Addrs []string `mapstructure:"addrs"`

	// Addr: Адрес для режима 'single', если Addrs пустой.
	Addr string `mapstructure:"addr"`

	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`

	// MasterName: Имя мастер-сервера Redis (только для режима "sentinel")
	MasterName string `mapstructure:"master_name"`

	// KeyPrefix: Пространство имен для всех ключей приложения
	KeyPrefix string `mapstructure:"key_prefix"`

	MaxRetries      int `mapstructure:"max_retries"`
	MinRetryBackoff int `mapstructure:"min_retry_backoff"` // мс
	MaxRetryBackoff int `mapstructure:"max_retry_backoff"` // мс
}

// JWTConfig содержит настройки JWT
type JWTConfig struct {
	Secret            string `mapstructure:"secret"`
	ExpirationHrs     int    `mapstructure:"expirationHrs"`
	WSTicketExpirySec int    `mapstructure:"wsTicketExpirySec"` // Время жизни тикета для WebSocket в секундах
}

// AuthConfig содержит настройки аутентификации и rate limit для /api/auth
type AuthConfig struct {
	MinPasswordLength int `mapstructure:"minPasswordLength"`
	RateLimitRequests int `mapstructure:"rateLimitRequests"`
	RateLimitWindowS  int `mapstructure:"rateLimitWindowSec"`
}

// EmailConfig содержит настройки отправки писем
type EmailConfig struct {
	// Provider: "resend" или "noop"
	Provider     string `mapstructure:"provider"`
	ResendAPIKey string `mapstructure:"resend_api_key"`
	From         string `mapstructure:"from"`
}

// ReportsConfig содержит настройки еженедельных отчётов
type ReportsConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	IntervalHours int  `mapstructure:"intervalHours"`
	BatchSize     int  `mapstructure:"batchSize"`
}

// StatsConfig содержит настройки статистики
type StatsConfig struct {
	CacheTTLSec int    `mapstructure:"cacheTTLSec"`
	Timezone    string `mapstructure:"timezone"`
}

// WebSocketConfig содержит настройки WebSocket-подсистемы
type WebSocketConfig struct {
	SendBuffer     int `mapstructure:"sendBuffer"`
	MaxMessageSize int `mapstructure:"maxMessageSize"`
	WriteWait      int `mapstructure:"writeWait"`    // секунды
	PongWait       int `mapstructure:"pongWait"`     // секунды
	PingInterval   int `mapstructure:"pingInterval"` // секунды
}

// CORSConfig содержит разрешённые источники
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowedOrigins"`
}

// PostgresConnectionString формирует строку подключения к PostgreSQL
func (d *DatabaseConfig) PostgresConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// PostgresURL формирует URL подключения для golang-migrate
func (d *DatabaseConfig) PostgresURL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

// Location возвращает часовой пояс для форматирования дат статистики
func (s StatsConfig) Location() *time.Location {
	if s.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		log.Printf("[Config] Неизвестный часовой пояс %q, используется UTC: %v", s.Timezone, err)
		return time.UTC
	}
	return loc
}

// CacheTTL возвращает время жизни кеша статистики
func (s StatsConfig) CacheTTL() time.Duration {
	return time.Duration(s.CacheTTLSec) * time.Second
}

func setDefaults(vip *viper.Viper) {
	vip.SetDefault("server.port", "8080")
	vip.SetDefault("server.readTimeout", 10)
	vip.SetDefault("server.writeTimeout", 10)
	vip.SetDefault("server.shutdownTimeout", 15)

	vip.SetDefault("database.port", "5432")
	vip.SetDefault("database.sslmode", "disable")
	vip.SetDefault("database.migrationsPath", "migrations")

	vip.SetDefault("redis.mode", "single")
	vip.SetDefault("redis.addr", "localhost:6379")
	vip.SetDefault("redis.key_prefix", "stoolpool:")

	vip.SetDefault("jwt.expirationHrs", 24*7)
	vip.SetDefault("jwt.wsTicketExpirySec", 60)

	vip.SetDefault("auth.minPasswordLength", 6)
	vip.SetDefault("auth.rateLimitRequests", 10)
	vip.SetDefault("auth.rateLimitWindowSec", 60)

	vip.SetDefault("email.provider", "noop")

	vip.SetDefault("reports.enabled", true)
	vip.SetDefault("reports.intervalHours", 24*7)
	vip.SetDefault("reports.batchSize", 100)

	vip.SetDefault("stats.cacheTTLSec", 300)
	vip.SetDefault("stats.timezone", "UTC")

	vip.SetDefault("websocket.sendBuffer", 32)
	vip.SetDefault("websocket.maxMessageSize", 4096)
	vip.SetDefault("websocket.writeWait", 10)
	vip.SetDefault("websocket.pongWait", 60)
	vip.SetDefault("websocket.pingInterval", 54)

	vip.SetDefault("cors.allowedOrigins", []string{"http://localhost:8081", "http://localhost:19006"})
}

// Load загружает конфигурацию из файла
func Load(configPath string) (*Config, error) {
	vip := viper.New() // Новый экземпляр Viper, чтобы избежать глобального состояния

	setDefaults(vip)

	// Привязка для секции Database
	vip.BindEnv("database.host", "DATABASE_HOST")
	vip.BindEnv("database.port", "DATABASE_PORT")
	vip.BindEnv("database.user", "DATABASE_USER")
	vip.BindEnv("database.password", "DATABASE_PASSWORD")
	vip.BindEnv("database.dbname", "DATABASE_DBNAME")
	vip.BindEnv("database.sslmode", "DATABASE_SSLMODE")

	// Привязка для секции Redis
	vip.BindEnv("redis.mode", "REDIS_MODE")
	vip.BindEnv("redis.addrs", "REDIS_ADDRS")
	vip.BindEnv("redis.addr", "REDIS_ADDR")
	vip.BindEnv("redis.password", "REDIS_PASSWORD")
	vip.BindEnv("redis.db", "REDIS_DB")
	vip.BindEnv("redis.master_name", "REDIS_MASTER_NAME")
	vip.BindEnv("redis.key_prefix", "REDIS_KEY_PREFIX")

	// Привязка для секции JWT
	vip.BindEnv("jwt.secret", "JWT_SECRET")
	vip.BindEnv("jwt.expirationHrs", "JWT_EXPIRATIONHRS")
	vip.BindEnv("jwt.wsTicketExpirySec", "JWT_WSTICKETEXPIRYSEC")

	// Привязка для секции Email
	vip.BindEnv("email.provider", "EMAIL_PROVIDER")
	vip.BindEnv("email.resend_api_key", "RESEND_API_KEY")
	vip.BindEnv("email.from", "EMAIL_FROM")

	// Привязка для отчётов и статистики
	vip.BindEnv("reports.enabled", "REPORTS_ENABLED")
	vip.BindEnv("stats.timezone", "STATS_TIMEZONE")

	// Привязка для Server
	vip.BindEnv("server.port", "SERVER_PORT")

	if configPath != "" {
		vip.SetConfigFile(configPath)
		// Файла может не быть, значения придут из переменных окружения
		if err := vip.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); ok {
				log.Printf("Файл конфигурации '%s' не найден, используются переменные окружения/умолчания.", configPath)
			} else {
				log.Printf("Предупреждение: не удалось прочитать файл конфигурации '%s': %v", configPath, err)
			}
		}
	}

	var cfg Config
	if err := vip.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if os.Getenv("GIN_MODE") != "release" {
		log.Printf("--- Загруженные значения конфигурации ---")
		log.Printf("Database Host: %s", cfg.Database.Host)
		log.Printf("Database Port: %s", cfg.Database.Port)
		log.Printf("Database User: %s", cfg.Database.User)
		log.Printf("Database Name: %s", cfg.Database.DBName)
		log.Printf("Redis Addr: %s", cfg.Redis.Addr)
		log.Printf("Redis Mode: %s", cfg.Redis.Mode)
		log.Printf("JWT Expiration Hours: %d", cfg.JWT.ExpirationHrs)
		log.Printf("JWT Secret Set: %t", cfg.JWT.Secret != "")
		log.Printf("Email Provider: %s", cfg.Email.Provider)
		log.Printf("Reports Enabled: %t (every %dh)", cfg.Reports.Enabled, cfg.Reports.IntervalHours)
		log.Printf("Stats Timezone: %s", cfg.Stats.Timezone)
		log.Printf("Server Port: %s", cfg.Server.Port)
		log.Printf("-----------------------------------------")
	}

	if err := cfg.validate(os.Getenv("GIN_MODE")); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// validate проверяет обязательные параметры
func (cfg *Config) validate(ginMode string) error {
	if cfg.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required in config (check JWT_SECRET env var)")
	}
	if cfg.Database.Host == "" || cfg.Database.DBName == "" || cfg.Database.User == "" {
		return fmt.Errorf("database configuration (host, dbname, user) is incomplete in config (check DATABASE_HOST, DATABASE_DBNAME, DATABASE_USER env vars)")
	}
	if ginMode == "release" && cfg.Database.Password == "" {
		return fmt.Errorf("database password is required in production mode (check DATABASE_PASSWORD env var)")
	}
	if cfg.Email.Provider == "resend" && (cfg.Email.ResendAPIKey == "" || cfg.Email.From == "") {
		return fmt.Errorf("resend provider requires RESEND_API_KEY and EMAIL_FROM")
	}
	if cfg.Reports.Enabled && cfg.Reports.IntervalHours <= 0 {
		return fmt.Errorf("reports interval must be positive, got %d", cfg.Reports.IntervalHours)
	}
	return nil
}
