package configslog

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Log yapısal loglama için global zap logger.
// SLog printf tarzı loglama için sugared versiyonu.
var (
	Log  *zap.Logger
	SLog *zap.SugaredLogger
)

// Init ortam adına göre logger'ları hazırlar.
// "production" ortamında JSON formatında, diğerlerinde konsol formatında loglar.
func Init(env string) {
	var cfg zap.Config
	if env == "production" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	logger, err := cfg.Build(zap.AddCallerSkip(0))
	if err != nil {
		// Logger kurulamıyorsa uygulama ayağa kalkmamalı.
		panic("zap logger oluşturulamadı: " + err.Error())
	}

	Log = logger
	SLog = logger.Sugar()
}

// Sync bufferlanmış log kayıtlarını flush eder. main içinde defer ile çağrılır.
func Sync() {
	if Log != nil {
		_ = Log.Sync()
	}
}

func init() {
	// Init çağrılmadan loglama yapılırsa nil pointer yerine no-op logger kullanılsın.
	Log = zap.NewNop()
	SLog = Log.Sugar()
}
