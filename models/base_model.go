package models

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type contextKey string

// ContextUserIDKey işlemi yapan kullanıcının ID'sini context üzerinden
// model hook'larına taşımak için kullanılır.
const ContextUserIDKey contextKey = "ctx_user_id"

// ContextWithUserID audit kolonları için kullanıcı ID'sini context'e ekler.
func ContextWithUserID(ctx context.Context, userID uint) context.Context {
	return context.WithValue(ctx, ContextUserIDKey, userID)
}

// BaseModel tüm tabloların ortak kolonlarını içerir.
// CreatedBy/UpdatedBy/DeletedBy hook'lar üzerinden doldurulur.
type BaseModel struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	CreatedBy *uint          `json:"-"`
	UpdatedBy *uint          `json:"-"`
	DeletedBy *uint          `json:"-"`
}

// BeforeCreate context'teki kullanıcı ID'sini CreatedBy'a yazar.
func (m *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if userID, ok := userIDFromContext(tx.Statement.Context); ok {
		m.CreatedBy = &userID
	}
	return nil
}

// BeforeUpdate context'teki kullanıcı ID'sini UpdatedBy'a yazar.
func (m *BaseModel) BeforeUpdate(tx *gorm.DB) error {
	if userID, ok := userIDFromContext(tx.Statement.Context); ok {
		m.UpdatedBy = &userID
	}
	return nil
}

func userIDFromContext(ctx context.Context) (uint, bool) {
	if ctx == nil {
		return 0, false
	}
	userID, ok := ctx.Value(ContextUserIDKey).(uint)
	if !ok || userID == 0 {
		return 0, false
	}
	return userID, true
}
