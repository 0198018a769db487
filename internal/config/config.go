package config

import (
	"fmt"
	"log"
	"os"

	"github.com/gospelline/storefront/internal/models"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type Config struct {
	DB_HOST             string
	DB_PORT             string
	DB_USER             string
	DB_PASSWORD         string
	DB_NAME             string
	ES_URL              string
	ES_USER             string
	ES_PASSWORD         string
	KAFKA_ADDRESS       string
	REDIS_ADDR          string
	REDIS_PASSWORD      string
	JWT_SECRET          string
	REFRESH_SECRET      string
	PAYSTACK_SECRET_KEY string
	PAYSTACK_BASE_URL   string
	APP_BASE_URL        string
	LOG_LEVEL           string
}

func LoadConfig() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Notice: .env file not found: %v. Using system environment variables", err)
	}

	config := &Config{
		DB_HOST:             os.Getenv("DB_HOST"),
		DB_PORT:             os.Getenv("DB_PORT"),
		DB_USER:             os.Getenv("DB_USER"),
		DB_PASSWORD:         os.Getenv("DB_PASSWORD"),
		DB_NAME:             os.Getenv("DB_NAME"),
		ES_URL:              os.Getenv("ES_URL"),
		ES_USER:             os.Getenv("ES_USER"),
		ES_PASSWORD:         os.Getenv("ES_PASSWORD"),
		KAFKA_ADDRESS:       os.Getenv("KAFKA_ADDRESS"),
		REDIS_ADDR:          os.Getenv("REDIS_ADDR"),
		REDIS_PASSWORD:      os.Getenv("REDIS_PASSWORD"),
		JWT_SECRET:          os.Getenv("JWT_SECRET"),
		REFRESH_SECRET:      os.Getenv("REFRESH_SECRET"),
		PAYSTACK_SECRET_KEY: os.Getenv("PAYSTACK_SECRET_KEY"),
		PAYSTACK_BASE_URL:   os.Getenv("PAYSTACK_BASE_URL"),
		APP_BASE_URL:        os.Getenv("APP_BASE_URL"),
		LOG_LEVEL:           os.Getenv("LOG_LEVEL"),
	}

	if config.PAYSTACK_BASE_URL == "" {
		config.PAYSTACK_BASE_URL = "https://api.paystack.co"
	}

	return config, nil
}

func InitDB() (*gorm.DB, error) {
	configuration, _ := LoadConfig()

	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		configuration.DB_USER,
		configuration.DB_PASSWORD,
		configuration.DB_HOST,
		configuration.DB_PORT,
		configuration.DB_NAME,
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := Migrate(db); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return db, nil
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Product{},
		&models.User{},
		&models.Profile{},
		&models.UserRole{},
		&models.RefreshToken{},
		&models.CartItem{},
		&models.SavedItem{},
		&models.Purchase{},
		&models.Notification{},
		&models.CourseLesson{},
		&models.WatchProgress{},
	)
}
