package main

import (
	"flag"

	"etkin.link/configs"
	"etkin.link/configs/configslog"
	"etkin.link/database"
)

func main() {
	cfg := configs.LoadEnv()
	configslog.Init(cfg.AppEnv)
	defer configslog.Sync()

	migrateFlag := flag.Bool("migrate", false, "Veritabanı migrasyonlarını çalıştır")
	seedFlag := flag.Bool("seed", false, "Seeder'ları çalıştır (sistem kullanıcısı)")
	flag.Parse()

	db := configs.InitDB(cfg)

	configslog.SLog.Info("Veritabanı başlatma işlemi çalıştırılıyor...")
	database.Initialize(db, *migrateFlag, *seedFlag)
	configslog.SLog.Info("Veritabanı başlatma işlemi tamamlandı.")
}
