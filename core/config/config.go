package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Env        string
	ServerPort int
	LogLevel   string

	// Postgres
	Host     string
	Port     int
	User     string
	Password string
	DBName   string

	// Redis (row cache, allocation lock, task queue)
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Admin API auth
	JWTSecret string

	// Messaging platform (LINE-style webhook)
	LineChannelSecret string
	LineChannelToken  string

	// LLM parser
	GeminiAPIKey string
	GeminiModel  string

	// Google service account + calendar target
	GoogleCredentialsFile string
	GoogleCalendarID      string

	// Color slot table backend: "sheets" or "postgres"
	ColorStoreBackend string
	SpreadsheetID     string
	SheetName         string

	// Optional raw payload archive
	S3Bucket           string
	S3Region           string
	AWSAccessKeyID     string
	AWSSecretAccessKey string
}

var instance *Config

// Init loads configuration from the environment (and an optional .env file).
func Init() error {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("ENV", "development")
	v.SetDefault("SERVER_PORT", 7070)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_NAME", "chatcal")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("GEMINI_MODEL", "gemini-1.5-flash")
	v.SetDefault("GOOGLE_CALENDAR_ID", "primary")
	v.SetDefault("COLOR_STORE_BACKEND", "sheets")
	v.SetDefault("SHEET_NAME", "colors")

	cfg := &Config{
		Env:        v.GetString("ENV"),
		ServerPort: v.GetInt("SERVER_PORT"),
		LogLevel:   v.GetString("LOG_LEVEL"),

		Host:     v.GetString("DB_HOST"),
		Port:     v.GetInt("DB_PORT"),
		User:     v.GetString("DB_USER"),
		Password: v.GetString("DB_PASSWORD"),
		DBName:   v.GetString("DB_NAME"),

		RedisAddr:     v.GetString("REDIS_ADDR"),
		RedisPassword: v.GetString("REDIS_PASSWORD"),
		RedisDB:       v.GetInt("REDIS_DB"),

		JWTSecret: v.GetString("JWT_SECRET"),

		LineChannelSecret: v.GetString("LINE_CHANNEL_SECRET"),
		LineChannelToken:  v.GetString("LINE_CHANNEL_TOKEN"),

		GeminiAPIKey: v.GetString("GEMINI_API_KEY"),
		GeminiModel:  v.GetString("GEMINI_MODEL"),

		GoogleCredentialsFile: v.GetString("GOOGLE_CREDENTIALS_FILE"),
		GoogleCalendarID:      v.GetString("GOOGLE_CALENDAR_ID"),

		ColorStoreBackend: v.GetString("COLOR_STORE_BACKEND"),
		SpreadsheetID:     v.GetString("SPREADSHEET_ID"),
		SheetName:         v.GetString("SHEET_NAME"),

		S3Bucket:           v.GetString("S3_BUCKET"),
		S3Region:           v.GetString("S3_REGION"),
		AWSAccessKeyID:     v.GetString("AWS_ACCESS_KEY_ID"),
		AWSSecretAccessKey: v.GetString("AWS_SECRET_ACCESS_KEY"),
	}

	if cfg.ColorStoreBackend == "sheets" && cfg.SpreadsheetID == "" {
		return fmt.Errorf("SPREADSHEET_ID is required when COLOR_STORE_BACKEND=sheets")
	}

	instance = cfg
	return nil
}

func Get() *Config {
	return instance
}

func GetSafe() (*Config, error) {
	if instance == nil {
		return nil, fmt.Errorf("config not initialized")
	}
	return instance, nil
}
