package services

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"etkin.link/models"
	"etkin.link/repositories"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var testDBCounter atomic.Int64

// newTestDB her test için izole bir in-memory sqlite veritabanı açar.
// Tek bağlantı kullanılır; böylece in-memory veritabanı goroutine'ler arasında
// paylaşılır ve eşzamanlı transaction'lar deterministik sıralanır.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:servicetest%d?mode=memory&cache=shared", testDBCounter.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Event{},
		&models.Form{},
		&models.FormField{},
		&models.FormSubmission{},
	))
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func seedUser(t *testing.T, db *gorm.DB, name, email string, isSystem bool) *models.User {
	t.Helper()
	user := &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: "$2a$10$abcdefghijklmnopqrstuv",
		IsSystem:     isSystem,
		IsActive:     true,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func seedEvent(t *testing.T, db *gorm.DB, ownerUserID uint) *models.Event {
	t.Helper()
	event := &models.Event{
		OwnerUserID: ownerUserID,
		Title:       "Test Etkinliği",
		IsActive:    true,
	}
	repo := repositories.NewEventRepositoryTx(db)
	require.NoError(t, repo.Create(context.Background(), event))
	return event
}

// basicFormInput metin + e-posta + tek seçim alanlı geçerli bir form girdisi üretir.
func basicFormInput() FormInput {
	return FormInput{
		Title:    "Katılım Formu",
		IsActive: true,
		IsPublic: true,
		Fields: []FormFieldInput{
			{FieldType: models.FieldTypeText, Label: "Ad Soyad", Required: true},
			{FieldType: models.FieldTypeEmail, Label: "E-posta", Required: true},
			{FieldType: models.FieldTypeRadio, Label: "Renk", Options: []string{"Red", "Blue"}},
		},
	}
}

func createTestForm(t *testing.T, db *gorm.DB, ownerID, eventID uint, input FormInput) *models.Form {
	t.Helper()
	svc := NewFormServiceWithDB(db)
	form, err := svc.CreateForm(context.Background(), ownerID, eventID, input)
	require.NoError(t, err)
	return form
}

// fieldByLabel testlerde alan ID'lerine etiket üzerinden ulaşmayı kısaltır.
func fieldByLabel(t *testing.T, form *models.Form, label string) models.FormField {
	t.Helper()
	for _, field := range form.Fields {
		if field.Label == label {
			return field
		}
	}
	t.Fatalf("form %d içinde %q etiketli alan yok", form.ID, label)
	return models.FormField{}
}
