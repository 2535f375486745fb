package configs

import (
	"fmt"
	"os"

	"etkin.link/configs/configslog"

	"github.com/joho/godotenv"
)

// Config uygulamanın ortam değişkenlerinden okunan ayarlarını tutar.
type Config struct {
	AppEnv     string
	AppPort    string
	SessionKey string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
}

var appConfig Config

// LoadEnv .env dosyasını okur ve Config'i doldurur.
// Dosya yoksa ortam değişkenleriyle devam edilir (container ortamları için).
func LoadEnv() Config {
	if err := godotenv.Load(); err != nil {
		configslog.SLog.Info(".env dosyası bulunamadı, mevcut ortam değişkenleri kullanılacak.")
	}

	appConfig = Config{
		AppEnv:     getEnv("APP_ENV", "development"),
		AppPort:    getEnv("APP_PORT", "3000"),
		SessionKey: getEnv("SESSION_KEY", "etkin_session"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "etkinlink"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),
	}
	return appConfig
}

// Get yüklenmiş konfigürasyonu döndürür.
func Get() Config {
	return appConfig
}

// DSN postgres bağlantı cümlesini üretir.
func (c Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode,
	)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
