package config

import (
	"log"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	DatabaseURL       string `mapstructure:"DATABASE_URL"`
	Env               string `mapstructure:"ENV"`
	JWTSecret         string `mapstructure:"JWT_SECRET"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`

	// Redis configuration.
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisCacheDB  int    `mapstructure:"REDIS_CACHE_DB"`
	RedisAuthDB   int    `mapstructure:"REDIS_AUTH_DB"`
	RedisQueueDB  int    `mapstructure:"REDIS_QUEUE_DB"`

	// Admin back-office credentials.
	AdminEmail        string `mapstructure:"ADMIN_EMAIL"`
	AdminPasswordHash string `mapstructure:"ADMIN_PASSWORD_HASH"`

	// Outbound notification channels.
	MailProviderURL         string `mapstructure:"MAIL_PROVIDER_URL"`
	MailFromAddress         string `mapstructure:"MAIL_FROM_ADDRESS"`
	FirebaseCredentialsFile string `mapstructure:"FIREBASE_CREDENTIALS_FILE"`

	// Destination account printed on bank-transfer instructions.
	BankAccountHolder string `mapstructure:"BANK_ACCOUNT_HOLDER"`
	BankIBAN          string `mapstructure:"BANK_IBAN"`
	BankBIC           string `mapstructure:"BANK_BIC"`
	BankName          string `mapstructure:"BANK_NAME"`

	// Settlement behaviour.
	DefaultCurrency     string `mapstructure:"DEFAULT_CURRENCY"`
	TransferExpiryHours int    `mapstructure:"TRANSFER_EXPIRY_HOURS"`
}

var AppConfig Config

func LoadConfig() {
	// Look for a config file named "config.yaml" in the current and "config" directory.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	// Automatically use environment variables where available.
	viper.AutomaticEnv()

	// Set default values.
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("MAX_REQUESTS_PER_MIN", 100)
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_CACHE_DB", 0)
	viper.SetDefault("REDIS_AUTH_DB", 1)
	viper.SetDefault("REDIS_QUEUE_DB", 2)
	viper.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	viper.SetDefault("ADMIN_EMAIL", "admin@casabay.local")
	viper.SetDefault("ADMIN_PASSWORD_HASH", "")
	viper.SetDefault("MAIL_PROVIDER_URL", "")
	viper.SetDefault("MAIL_FROM_ADDRESS", "bookings@casabay.local")
	viper.SetDefault("FIREBASE_CREDENTIALS_FILE", "")
	viper.SetDefault("BANK_ACCOUNT_HOLDER", "")
	viper.SetDefault("BANK_IBAN", "")
	viper.SetDefault("BANK_BIC", "")
	viper.SetDefault("BANK_NAME", "")
	viper.SetDefault("DEFAULT_CURRENCY", "EUR")
	viper.SetDefault("TRANSFER_EXPIRY_HOURS", 48)

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}
