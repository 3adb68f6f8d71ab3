package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config representa la configuración del servicio
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Countries CountriesConfig
	Inngest   InngestConfig
	RateLimit RateLimitConfig
	Logging   LoggingConfig
	Email     EmailConfig
	Supabase  SupabaseConfig
}

// ServerConfig representa la configuración del servidor HTTP
type ServerConfig struct {
	Port            string
	Host            string
	Env             string
	BaseURL         string
	ShutdownTimeout time.Duration
}

// DatabaseConfig representa la configuración de la base de datos
type DatabaseConfig struct {
	Driver      string
	Host        string
	Port        string
	User        string
	Password    string
	Name        string
	SSLMode     string
	AutoMigrate bool
}

// RedisConfig representa la configuración de Redis
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// CountriesConfig representa la configuración del servicio externo de países
type CountriesConfig struct {
	BaseURL string
	Timeout time.Duration
}

// InngestConfig representa la configuración de Inngest
type InngestConfig struct {
	EventKey   string
	SigningKey string
	AppID      string
	Dev        bool
}

// RateLimitConfig representa la configuración de rate limiting
type RateLimitConfig struct {
	Default int
	Burst   int
}

// LoggingConfig representa la configuración de logging
type LoggingConfig struct {
	Level  string
	Format string
}

// EmailConfig representa la configuración de email
type EmailConfig struct {
	ResendAPIKey string
	FromAddress  string
}

// SupabaseConfig representa la configuración del storage S3 de Supabase
type SupabaseConfig struct {
	StorageEndpoint string
	StorageRegion   string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
}

// Load carga la configuración desde variables de entorno
func Load() (*Config, error) {
	// Cargar archivo .env si existe; no es crítico si no existe
	_ = godotenv.Load()

	config := &Config{
		Server: ServerConfig{
			Port:            getEnv("SERVER_PORT", "8080"),
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Env:             getEnv("SERVER_ENV", "development"),
			BaseURL:         getEnv("SERVER_BASE_URL", "http://localhost:8080"),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Database: DatabaseConfig{
			Driver:      getEnv("DB_DRIVER", "postgres"),
			Host:        getEnv("PGHOST", "localhost"),
			Port:        getEnv("PGPORT", "5432"),
			User:        getEnv("PGUSER", "postgres"),
			Password:    getEnv("PGPASSWORD", "postgres"),
			Name:        getEnv("PGDATABASE", "clients"),
			SSLMode:     getEnv("DB_SSLMODE", "disable"),
			AutoMigrate: getEnvAsBool("DB_AUTO_MIGRATE", true),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Countries: CountriesConfig{
			BaseURL: getEnv("COUNTRIES_API_URL", "https://restcountries.com/v3.1"),
			Timeout: getEnvAsDuration("COUNTRIES_API_TIMEOUT", 5*time.Second),
		},
		Inngest: InngestConfig{
			EventKey:   getEnv("INNGEST_EVENT_KEY", ""),
			SigningKey: getEnv("INNGEST_SIGNING_KEY", ""),
			AppID:      getEnv("INNGEST_APP_ID", "client-service"),
			Dev:        getEnvAsBool("INNGEST_DEV", false),
		},
		RateLimit: RateLimitConfig{
			Default: getEnvAsInt("RATE_LIMIT_DEFAULT", 120),
			Burst:   getEnvAsInt("RATE_LIMIT_BURST", 10),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Email: EmailConfig{
			ResendAPIKey: getEnv("RESEND_API_KEY", ""),
			FromAddress:  getEnv("EMAIL_FROM", "onboarding@resend.dev"),
		},
		Supabase: SupabaseConfig{
			StorageEndpoint: getEnv("SUPABASE_STORAGE_ENDPOINT", ""),
			StorageRegion:   getEnv("SUPABASE_STORAGE_REGION", ""),
			AccessKeyID:     getEnv("SUPABASE_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("SUPABASE_SECRET_ACCESS_KEY", ""),
			Bucket:          getEnv("SUPABASE_STORAGE_BUCKET", "client-exports"),
		},
	}

	return config, nil
}

// getEnv obtiene una variable de entorno o retorna un valor por defecto
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt obtiene una variable de entorno como entero
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsBool obtiene una variable de entorno como booleano
func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvAsDuration obtiene una variable de entorno como duración
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// IsDevelopment retorna true si el entorno es de desarrollo
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}

// UsesMemoryStore retorna true si los clientes se guardan en memoria
func (c *Config) UsesMemoryStore() bool {
	return c.Database.Driver == "memory"
}

// StorageConfigured retorna true si hay credenciales para el storage de Supabase
func (c *Config) StorageConfigured() bool {
	return c.Supabase.StorageEndpoint != "" && c.Supabase.AccessKeyID != "" && c.Supabase.SecretAccessKey != ""
}

// GetDSN retorna la cadena de conexión a la base de datos
func (c *Config) GetDSN() string {
	return "host=" + c.Database.Host +
		" port=" + c.Database.Port +
		" user=" + c.Database.User +
		" password=" + c.Database.Password +
		" dbname=" + c.Database.Name +
		" sslmode=" + c.Database.SSLMode
}

// GetRedisAddr retorna la dirección de Redis
func (c *Config) GetRedisAddr() string {
	return c.Redis.Host + ":" + c.Redis.Port
}
