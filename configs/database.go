package configs

import (
	"time"

	"etkin.link/configs/configslog"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var db *gorm.DB

// InitDB postgres bağlantısını kurar ve global DB örneğini hazırlar.
func InitDB(cfg Config) *gorm.DB {
	gormLogLevel := gormlogger.Warn
	if cfg.AppEnv == "development" {
		gormLogLevel = gormlogger.Info
	}

	conn, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormLogLevel),
	})
	if err != nil {
		configslog.Log.Fatal("Veritabanına bağlanılamadı", zap.Error(err))
	}

	sqlDB, err := conn.DB()
	if err != nil {
		configslog.Log.Fatal("Veritabanı bağlantı havuzu alınamadı", zap.Error(err))
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetConnMaxLifetime(time.Hour)

	db = conn
	configslog.SLog.Infof("Veritabanı bağlantısı kuruldu: %s/%s", cfg.DBHost, cfg.DBName)
	return db
}

// GetDB global DB örneğini döndürür. InitDB çağrılmadan kullanılmamalıdır.
func GetDB() *gorm.DB {
	return db
}
