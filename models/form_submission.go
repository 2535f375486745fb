package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AnswerKind bir cevabın hangi varyantı taşıdığını belirtir.
type AnswerKind string

const (
	AnswerKindText   AnswerKind = "text"   // text ve email alanları
	AnswerKindNumber AnswerKind = "number" // number alanları
	AnswerKindSingle AnswerKind = "single" // radio ve select alanları
	AnswerKindMulti  AnswerKind = "multi"  // checkbox alanları
	AnswerKindFile   AnswerKind = "file"   // file alanları
)

// FileRef harici upload servisinin ürettiği dosya referansı.
// Motor yalnızca referansı saklar ve varlığını doğrular; byte taşımaz.
type FileRef struct {
	URL  string `json:"url"`
	Name string `json:"name,omitempty"`
	Mime string `json:"mime,omitempty"`
}

// Answer tek bir alan için verilmiş, tipli cevap değeridir.
// Alanın field_type'ına göre yalnızca bir varyant geçerlidir; doğrulama
// gönderim anında SubmissionService tarafından yapılır.
type Answer struct {
	Kind   AnswerKind `json:"kind"`
	Text   string     `json:"text,omitempty"`
	Number float64    `json:"number,omitempty"`
	Values []string   `json:"values,omitempty"`
	File   *FileRef   `json:"file,omitempty"`
}

// TextAnswer text/email cevabı üretir.
func TextAnswer(v string) Answer { return Answer{Kind: AnswerKindText, Text: v} }

// NumberAnswer sayı cevabı üretir.
func NumberAnswer(v float64) Answer { return Answer{Kind: AnswerKindNumber, Number: v} }

// SingleChoiceAnswer radio/select cevabı üretir.
func SingleChoiceAnswer(v string) Answer { return Answer{Kind: AnswerKindSingle, Text: v} }

// MultiChoiceAnswer checkbox cevabı üretir.
func MultiChoiceAnswer(vs []string) Answer { return Answer{Kind: AnswerKindMulti, Values: vs} }

// FileAnswer dosya referansı cevabı üretir.
func FileAnswer(ref FileRef) Answer { return Answer{Kind: AnswerKindFile, File: &ref} }

// IsEmpty cevabın boş sayılıp sayılmayacağını söyler.
func (a Answer) IsEmpty() bool {
	switch a.Kind {
	case AnswerKindText, AnswerKindSingle:
		return strings.TrimSpace(a.Text) == ""
	case AnswerKindNumber:
		return false // doğrulanmış sayı her zaman bir değerdir
	case AnswerKindMulti:
		return len(a.Values) == 0
	case AnswerKindFile:
		return a.File == nil || a.File.URL == ""
	}
	return true
}

// Display cevabı insan okunur tek satıra çevirir (örnekler ve CSV için).
// Çoklu seçimler virgülle birleştirilir.
func (a Answer) Display() string {
	switch a.Kind {
	case AnswerKindText, AnswerKindSingle:
		return a.Text
	case AnswerKindNumber:
		return strconv.FormatFloat(a.Number, 'f', -1, 64)
	case AnswerKindMulti:
		return strings.Join(a.Values, ", ")
	case AnswerKindFile:
		if a.File == nil {
			return ""
		}
		if a.File.Name != "" {
			return a.File.Name
		}
		return a.File.URL
	}
	return ""
}

// AnswerMap alan ID'si -> Answer eşlemesi; tek jsonb kolonunda saklanır.
type AnswerMap map[uint]Answer

// Value GORM yazarken map'i JSON'a çevirir.
func (m AnswerMap) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan GORM okurken JSON kolonu map'e çevirir.
func (m *AnswerMap) Scan(value any) error {
	if value == nil {
		*m = nil
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return errors.New("AnswerMap: desteklenmeyen kolon tipi")
	}
	if len(data) == 0 {
		*m = nil
		return nil
	}
	return json.Unmarshal(data, m)
}

// GormDataType postgres'te jsonb kolonu kullanılır.
func (AnswerMap) GormDataType() string {
	return "jsonb"
}

// FormSubmission bir formun doldurulmuş halidir; yazıldıktan sonra değişmez.
// UserID nil ise gönderim anonimdir. Key dışa açık kimliktir (CSV, linkler).
type FormSubmission struct {
	BaseModel
	Key     string    `gorm:"type:varchar(36);uniqueIndex;not null"`
	FormID  uint      `gorm:"not null;index"`
	UserID  *uint     `gorm:"index"`
	Answers AnswerMap `gorm:"type:jsonb"`
}

// BeforeCreate public key üretir; BaseModel'in audit hook'unu da çalıştırır.
func (s *FormSubmission) BeforeCreate(tx *gorm.DB) error {
	if s.Key == "" {
		s.Key = uuid.NewString()
	}
	return s.BaseModel.BeforeCreate(tx)
}
