package models

import "time"

// MaxFormsPerEvent bir etkinliğin sahip olabileceği en fazla form sayısı.
const MaxFormsPerEvent = 3

// Event formların bağlı olduğu etkinlik kaydı.
// Etkinlik yönetiminin geri kalanı (bilet, aday, duyuru vb.) bu modülün dışındadır;
// form motoru yalnızca sahiplik ve form kotası için etkinliğe bakar.
type Event struct {
	BaseModel
	OwnerUserID uint       `gorm:"not null;index"`
	Title       string     `gorm:"type:varchar(255);not null"`
	StartsAt    *time.Time `gorm:"index;type:timestamptz"`
	IsActive    bool       `gorm:"not null;default:true"`

	Forms []Form `gorm:"foreignKey:EventID"`
}
