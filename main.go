package main

import (
	"os"
	"os/signal"
	"syscall"

	"etkin.link/configs"
	"etkin.link/configs/configslog"
	"etkin.link/routes"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/template/html/v2"
	"go.uber.org/zap"
)

func main() {
	cfg := configs.LoadEnv()
	configslog.Init(cfg.AppEnv)
	defer configslog.Sync()

	configs.InitDB(cfg)

	engine := html.New("./views", ".html")
	if cfg.AppEnv == "development" {
		engine.Reload(true)
	}

	app := fiber.New(fiber.Config{
		Views:   engine,
		AppName: "etkin.link",
	})

	routes.SetupRoutes(app)

	// Graceful shutdown: SIGINT/SIGTERM geldiğinde açık istekler tamamlanır.
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		configslog.SLog.Info("Kapatma sinyali alındı, sunucu durduruluyor...")
		if err := app.Shutdown(); err != nil {
			configslog.Log.Error("Sunucu kapatılırken hata oluştu", zap.Error(err))
		}
	}()

	addr := ":" + cfg.AppPort
	configslog.SLog.Infof("Sunucu %s adresinde dinliyor (%s)", addr, cfg.AppEnv)
	if err := app.Listen(addr); err != nil {
		configslog.Log.Fatal("Sunucu başlatılamadı", zap.Error(err))
	}
}
