package migrations

import (
	"etkin.link/configs/configslog"
	"etkin.link/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

func MigrateSubmissionsTable(db *gorm.DB) error {
	configslog.SLog.Info("Migrating form_submissions table...")
	err := db.AutoMigrate(&models.FormSubmission{})
	if err != nil {
		configslog.Log.Error("Failed to migrate form_submissions table", zap.Error(err))
		return err
	}
	configslog.SLog.Info("Form_submissions table migrated successfully")
	return nil
}
