package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"strings"
)

// FieldType bir form alanının veri tipini tanımlar.
type FieldType string

const (
	FieldTypeText     FieldType = "text"
	FieldTypeEmail    FieldType = "email"
	FieldTypeNumber   FieldType = "number"
	FieldTypeRadio    FieldType = "radio"
	FieldTypeCheckbox FieldType = "checkbox"
	FieldTypeSelect   FieldType = "select"
	FieldTypeFile     FieldType = "file"
)

// Valid desteklenen bir alan tipi olup olmadığını söyler.
func (t FieldType) Valid() bool {
	switch t {
	case FieldTypeText, FieldTypeEmail, FieldTypeNumber,
		FieldTypeRadio, FieldTypeCheckbox, FieldTypeSelect, FieldTypeFile:
		return true
	}
	return false
}

// IsChoice seçenek listesi gerektiren tiplerden biri mi?
func (t FieldType) IsChoice() bool {
	return t == FieldTypeRadio || t == FieldTypeCheckbox || t == FieldTypeSelect
}

// HasPlaceholder placeholder yalnızca serbest girişli tiplerde anlamlıdır.
func (t FieldType) HasPlaceholder() bool {
	return t == FieldTypeText || t == FieldTypeEmail || t == FieldTypeNumber
}

// StringSlice JSON olarak tek kolonda saklanan string listesi.
type StringSlice []string

// Value GORM yazarken listeyi JSON'a çevirir.
func (s StringSlice) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan GORM okurken JSON kolonu listeye çevirir.
func (s *StringSlice) Scan(value any) error {
	if value == nil {
		*s = nil
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return errors.New("StringSlice: desteklenmeyen kolon tipi")
	}
	if len(data) == 0 {
		*s = nil
		return nil
	}
	return json.Unmarshal(data, s)
}

// GormDataType postgres'te jsonb kolonu kullanılır.
func (StringSlice) GormDataType() string {
	return "jsonb"
}

// NonBlank baştaki/sondaki boşlukları atılmış, boş olmayan girdileri döndürür.
func (s StringSlice) NonBlank() []string {
	out := make([]string, 0, len(s))
	for _, v := range s {
		if t := strings.TrimSpace(v); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// FormField bir formun tek bir girdi alanını temsil eder.
// SortOrder form içinde 0'dan başlayan, boşluksuz ve benzersiz sıradır.
type FormField struct {
	BaseModel
	FormID      uint        `gorm:"not null;index:idx_form_fields_form_sort"`
	FieldType   FieldType   `gorm:"type:varchar(20);not null"`
	Label       string      `gorm:"type:varchar(255);not null"`
	Placeholder string      `gorm:"type:varchar(255)"`
	Required    bool        `gorm:"not null;default:false"`
	Options     StringSlice `gorm:"type:jsonb"`
	SortOrder   int         `gorm:"not null;default:0;index:idx_form_fields_form_sort"`
}
