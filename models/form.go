package models

// Form bir etkinliğe bağlı dinamik formun ana kaydıdır.
// IsActive gönderim kabulünü, IsPublic sahip olmayanların erişimini kontrol eder.
// IsPaid true ise TokenAmount pozitif olmak zorundadır.
type Form struct {
	BaseModel
	EventID       uint `gorm:"not null;index"`
	CreatorUserID uint `gorm:"not null;index"`

	Title       string `gorm:"type:varchar(255);not null"`
	Description string `gorm:"type:text"`
	ImageURL    string `gorm:"type:varchar(500)"` // Harici upload servisi doldurur
	Terms       string `gorm:"type:text"`

	IsPaid      bool `gorm:"not null;default:false"`
	TokenAmount int  `gorm:"not null;default:0"`

	IsActive bool `gorm:"not null;default:true;index"`
	IsPublic bool `gorm:"not null;default:true"`

	// Nil ise limitsiz; set edilmişse pozitif olmalı.
	MaxSubmissions *int `gorm:"type:integer"`

	// GORM İlişkileri
	Event  Event       `gorm:"foreignKey:EventID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Fields []FormField `gorm:"foreignKey:FormID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}
