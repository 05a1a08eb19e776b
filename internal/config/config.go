package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// SMTP настройки почтового канала; пустой Host выключает отправку
type SMTP struct {
	Host string
	Port int
	User string
	Pass string
	From string
}

// Config конфигурация процесса, читается из окружения (.env в локале)
type Config struct {
	Port        string
	Env         string
	JWTSecret   string
	FrontOrigin string
	SMTP        SMTP
}

// Load подхватывает .env, если он есть, и собирает конфигурацию.
// JWT_SECRET обязателен вне development.
func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		Port:        getenv("PORT", "4000"),
		Env:         getenv("APP_ENV", "development"),
		JWTSecret:   os.Getenv("JWT_SECRET"),
		FrontOrigin: os.Getenv("FRONT_ORIGIN"),
		SMTP: SMTP{
			Host: os.Getenv("SMTP_HOST"),
			Port: atoi(getenv("SMTP_PORT", "587")),
			User: os.Getenv("SMTP_USER"),
			Pass: os.Getenv("SMTP_PASS"),
			From: getenv("MAIL_FROM", `"AgroLink" <no-reply@agrolink.cl>`),
		},
	}
	if cfg.JWTSecret == "" {
		if cfg.Env != "development" {
			log.Fatal("JWT_SECRET is required outside development")
		}
		cfg.JWTSecret = "dev-secret"
	}
	return cfg
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 587
	}
	return n
}
