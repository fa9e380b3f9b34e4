package config

import (
	"log"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App        AppConfig
	Farmacia   FarmaciaConfig
	Catalog    CatalogConfig
	Capability CapabilityConfig
	Database   DatabaseConfig
	JWT        JWTConfig
	Session    SessionConfig
	Printer    PrinterConfig
	Receipt    ReceiptConfig
	Pharmacy   PharmacyConfig
	CORS       CORSConfig
	RateLimit  RateLimitConfig
}

type AppConfig struct {
	Name  string
	Env   string
	Port  string
	Debug bool
}

// FarmaciaConfig addresses the remote pharmacy API
type FarmaciaConfig struct {
	BaseURL         string
	Timeout         time.Duration
	BreakerFailures uint32
	BreakerOpen     time.Duration
}

type CatalogConfig struct {
	// RefreshInterval of 0 disables the background refresh
	RefreshInterval time.Duration
}

type CapabilityConfig struct {
	TTL time.Duration
}

type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	SSLMode  string
	Timezone string
}

type JWTConfig struct {
	Secret      string
	ExpiryHours time.Duration
}

// SessionConfig selects where checkout sessions live
type SessionConfig struct {
	Store         string // "memory" or "redis"
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	TTL           time.Duration
}

type PrinterConfig struct {
	Type    string
	USBPath string
	Address string
	Width   int
}

type ReceiptConfig struct {
	NameWidth int
}

// PharmacyConfig is the receipt header used when the configuration read fails
type PharmacyConfig struct {
	Name    string
	Address string
	Phone   string
}

type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

type RateLimitConfig struct {
	Requests int
	Duration int
}

func Load() *Config {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables: %v", err)
	}

	setDefaults()

	return &Config{
		App: AppConfig{
			Name:  viper.GetString("APP_NAME"),
			Env:   viper.GetString("APP_ENV"),
			Port:  viper.GetString("APP_PORT"),
			Debug: viper.GetBool("APP_DEBUG"),
		},
		Farmacia: FarmaciaConfig{
			BaseURL:         viper.GetString("FARMACIA_API_URL"),
			Timeout:         time.Duration(viper.GetInt("FARMACIA_API_TIMEOUT_SECONDS")) * time.Second,
			BreakerFailures: viper.GetUint32("FARMACIA_API_BREAKER_FAILURES"),
			BreakerOpen:     time.Duration(viper.GetInt("FARMACIA_API_BREAKER_OPEN_SECONDS")) * time.Second,
		},
		Catalog: CatalogConfig{
			RefreshInterval: time.Duration(viper.GetInt("CATALOG_REFRESH_SECONDS")) * time.Second,
		},
		Capability: CapabilityConfig{
			TTL: time.Duration(viper.GetInt("CAPABILITY_TTL_MINUTES")) * time.Minute,
		},
		Database: DatabaseConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			Name:     viper.GetString("DB_NAME"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASSWORD"),
			SSLMode:  viper.GetString("DB_SSL_MODE"),
			Timezone: viper.GetString("DB_TIMEZONE"),
		},
		JWT: JWTConfig{
			Secret:      viper.GetString("JWT_SECRET"),
			ExpiryHours: time.Duration(viper.GetInt("JWT_EXPIRY_HOURS")) * time.Hour,
		},
		Session: SessionConfig{
			Store:         viper.GetString("SESSION_STORE"),
			RedisAddr:     viper.GetString("REDIS_ADDR"),
			RedisPassword: viper.GetString("REDIS_PASSWORD"),
			RedisDB:       viper.GetInt("REDIS_DB"),
			TTL:           time.Duration(viper.GetInt("SESSION_TTL_MINUTES")) * time.Minute,
		},
		Printer: PrinterConfig{
			Type:    viper.GetString("PRINTER_TYPE"),
			USBPath: viper.GetString("PRINTER_USB_PATH"),
			Address: viper.GetString("PRINTER_ADDRESS"),
			Width:   viper.GetInt("PRINTER_WIDTH"),
		},
		Receipt: ReceiptConfig{
			NameWidth: viper.GetInt("RECEIPT_NAME_WIDTH"),
		},
		Pharmacy: PharmacyConfig{
			Name:    viper.GetString("PHARMACY_NAME"),
			Address: viper.GetString("PHARMACY_ADDRESS"),
			Phone:   viper.GetString("PHARMACY_PHONE"),
		},
		CORS: CORSConfig{
			AllowedOrigins: viper.GetStringSlice("CORS_ALLOWED_ORIGINS"),
			AllowedMethods: viper.GetStringSlice("CORS_ALLOWED_METHODS"),
			AllowedHeaders: viper.GetStringSlice("CORS_ALLOWED_HEADERS"),
		},
		RateLimit: RateLimitConfig{
			Requests: viper.GetInt("RATE_LIMIT_REQUESTS"),
			Duration: viper.GetInt("RATE_LIMIT_DURATION"),
		},
	}
}

func setDefaults() {
	viper.SetDefault("APP_NAME", "farmacia-pos")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("APP_DEBUG", true)
	viper.SetDefault("FARMACIA_API_URL", "https://farmaciamontecinoweb.onrender.com")
	viper.SetDefault("FARMACIA_API_TIMEOUT_SECONDS", 15)
	viper.SetDefault("FARMACIA_API_BREAKER_FAILURES", 5)
	viper.SetDefault("FARMACIA_API_BREAKER_OPEN_SECONDS", 30)
	viper.SetDefault("CATALOG_REFRESH_SECONDS", 0)
	viper.SetDefault("CAPABILITY_TTL_MINUTES", 30)
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_NAME", "farmacia_pos")
	viper.SetDefault("DB_USER", "postgres")
	viper.SetDefault("DB_PASSWORD", "postgres")
	viper.SetDefault("DB_SSL_MODE", "disable")
	viper.SetDefault("DB_TIMEZONE", "America/La_Paz")
	viper.SetDefault("JWT_SECRET", "change-this-secret-in-production")
	viper.SetDefault("JWT_EXPIRY_HOURS", 12)
	viper.SetDefault("SESSION_STORE", "memory")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("SESSION_TTL_MINUTES", 720)
	viper.SetDefault("PRINTER_TYPE", "none")
	viper.SetDefault("PRINTER_WIDTH", 48)
	viper.SetDefault("RECEIPT_NAME_WIDTH", 20)
	viper.SetDefault("PHARMACY_NAME", "Farmacia")
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")
	viper.SetDefault("CORS_ALLOWED_HEADERS", []string{})
	viper.SetDefault("RATE_LIMIT_REQUESTS", 100)
	viper.SetDefault("RATE_LIMIT_DURATION", 60)
}

func (c *DatabaseConfig) DSN() string {
	return "host=" + c.Host +
		" user=" + c.User +
		" password=" + c.Password +
		" dbname=" + c.Name +
		" port=" + c.Port +
		" sslmode=" + c.SSLMode +
		" TimeZone=" + c.Timezone
}
