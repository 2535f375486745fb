package models

// User form sahipliği ve oturum kimliği için kullanıcı kaydı.
// IsSystem true olan kullanıcı tüm kayıtlar üzerinde işlem yapabilir.
type User struct {
	BaseModel
	Name         string `gorm:"type:varchar(150);not null"`
	Email        string `gorm:"type:varchar(150);uniqueIndex;not null"`
	PasswordHash string `gorm:"type:varchar(255);not null"`
	IsSystem     bool   `gorm:"not null;default:false"`
	IsActive     bool   `gorm:"not null;default:true"`
}
