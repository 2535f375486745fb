package seeders

import (
	"errors"
	"os"

	"etkin.link/configs/configslog"
	"etkin.link/models"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// SeedSystemUser sistem kullanıcısını oluşturur; zaten varsa dokunmaz.
// Şifre SYSTEM_USER_PASSWORD ortam değişkeninden okunur.
func SeedSystemUser(db *gorm.DB) error {
	email := os.Getenv("SYSTEM_USER_EMAIL")
	if email == "" {
		email = "system@etkin.link"
	}

	var existing models.User
	result := db.Where("email = ?", email).First(&existing)
	if result.Error == nil {
		configslog.SLog.Debugf("Sistem kullanıcısı '%s' zaten mevcut, oluşturma atlanıyor.", email)
		return nil
	}
	if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		configslog.Log.Error("Sistem kullanıcısı kontrol edilirken veritabanı hatası", zap.Error(result.Error))
		return result.Error
	}

	password := os.Getenv("SYSTEM_USER_PASSWORD")
	if password == "" {
		return errors.New("SYSTEM_USER_PASSWORD ortam değişkeni tanımlı değil")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		configslog.Log.Error("Sistem kullanıcısı şifresi oluşturulamadı", zap.Error(err))
		return err
	}

	user := models.User{
		Name:         "System",
		Email:        email,
		PasswordHash: string(hashed),
		IsSystem:     true,
		IsActive:     true,
	}
	if err := db.Create(&user).Error; err != nil {
		configslog.Log.Error("Sistem kullanıcısı oluşturulamadı", zap.Error(err))
		return err
	}

	configslog.SLog.Infof("Sistem kullanıcısı oluşturuldu (ID: %d, E-posta: %s)", user.ID, user.Email)
	return nil
}
