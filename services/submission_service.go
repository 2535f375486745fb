package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"etkin.link/configs"
	"etkin.link/configs/configslog"
	"etkin.link/models"
	"etkin.link/repositories"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SubmissionServiceError özel servis hataları
type SubmissionServiceError string

func (e SubmissionServiceError) Error() string { return string(e) }

const (
	ErrFormInactive             SubmissionServiceError = "form gönderime kapalı"
	ErrFormAccessDenied         SubmissionServiceError = "forma erişim izniniz yok"
	ErrFormCapacityReached      SubmissionServiceError = "formun gönderim limiti doldu"
	ErrSubmissionValidation     SubmissionServiceError = "gönderim doğrulaması başarısız"
	ErrSubmissionInvalidInput   SubmissionServiceError = "geçersiz gönderim girdisi"
	ErrSubmissionCreationFailed SubmissionServiceError = "gönderim kaydedilemedi"
)

// FieldValidationError hangi alanın neden reddedildiğini taşır.
// errors.Is ile ErrSubmissionValidation olarak yakalanabilir.
type FieldValidationError struct {
	FieldID uint
	Label   string
	Reason  string
}

func (e *FieldValidationError) Error() string {
	return fmt.Sprintf("%s: %q alanı: %s", ErrSubmissionValidation, e.Label, e.Reason)
}

func (e *FieldValidationError) Unwrap() error { return ErrSubmissionValidation }

func fieldErr(field models.FormField, reason string) error {
	return &FieldValidationError{FieldID: field.ID, Label: field.Label, Reason: reason}
}

// validate e-posta formatı gibi değer doğrulamaları için tek örnek.
var validate = validator.New()

// ISubmissionService gönderim işlemleri için arayüz.
type ISubmissionService interface {
	Submit(ctx context.Context, formID uint, submitterUserID *uint, rawAnswers map[uint]any) (*models.FormSubmission, error)
	GetSubmissionsForOwner(ctx context.Context, formID uint, requestingUserID uint) ([]models.FormSubmission, error)
	CountByFormID(ctx context.Context, formID uint) (int64, error)
}

// SubmissionService ISubmissionService arayüzünü uygular.
type SubmissionService struct {
	repo     repositories.ISubmissionRepository
	formRepo repositories.IFormRepository
	userRepo repositories.IUserRepository
	db       *gorm.DB
}

// NewSubmissionService yeni bir SubmissionService örneği oluşturur.
func NewSubmissionService() ISubmissionService {
	return NewSubmissionServiceWithDB(configs.GetDB())
}

// NewSubmissionServiceWithDB verilen DB üzerinde çalışan servis üretir (testler dahil).
func NewSubmissionServiceWithDB(db *gorm.DB) ISubmissionService {
	return &SubmissionService{
		repo:     repositories.NewSubmissionRepositoryTx(db),
		formRepo: repositories.NewFormRepositoryTx(db),
		userRepo: repositories.NewUserRepositoryTx(db),
		db:       db,
	}
}

// Submit ham cevapları doğrular ve gönderimi kaydeder.
// Sıra sabittir ve her adım ayrı bir hata üretir:
//  1. form var ve aktif mi (ErrFormNotFound / ErrFormInactive)
//  2. public mi, değilse gönderen sahip mi (ErrFormAccessDenied)
//  3. kapasite (ErrFormCapacityReached) — form satırı kilitliyken sayılır,
//     sayım + insert tek atomik birimdir, limit aşılamaz
//  4. zorunlu alanlar dolu mu (FieldValidationError)
//  5. değerler alan tipine dönüşüyor mu (FieldValidationError)
//  6. kayıt; bilinmeyen alan anahtarları sessizce atılır
func (s *SubmissionService) Submit(ctx context.Context, formID uint, submitterUserID *uint, rawAnswers map[uint]any) (*models.FormSubmission, error) {
	if formID == 0 {
		return nil, fmt.Errorf("%w: geçersiz form ID", ErrSubmissionInvalidInput)
	}

	var created *models.FormSubmission
	txErr := s.db.Transaction(func(tx *gorm.DB) error {
		txCtx := ctx
		if submitterUserID != nil {
			txCtx = models.ContextWithUserID(ctx, *submitterUserID)
		}
		userRepoTx := repositories.NewUserRepositoryTx(tx)

		// 1. Form var mı, aktif mi? Satır kilidi kapasite kontrolünü de korur.
		var form models.Form
		if err := lockForUpdate(tx.WithContext(txCtx)).First(&form, formID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrFormNotFound
			}
			return err
		}
		if !form.IsActive {
			return ErrFormInactive
		}

		// 2. Erişim kontrolü
		if !form.IsPublic {
			if submitterUserID == nil {
				return ErrFormAccessDenied
			}
			if *submitterUserID != form.CreatorUserID {
				user, err := userRepoTx.FindByID(txCtx, *submitterUserID)
				if err != nil || !user.IsSystem {
					return ErrFormAccessDenied
				}
			}
		}

		// 3. Kapasite kontrolü (form satırı kilitli)
		if form.MaxSubmissions != nil {
			var count int64
			if err := tx.Model(&models.FormSubmission{}).
				Where("form_id = ?", formID).Count(&count).Error; err != nil {
				return err
			}
			if count >= int64(*form.MaxSubmissions) {
				return ErrFormCapacityReached
			}
		}

		// 4-5. Alan bazlı doğrulama ve tip dönüşümü
		var fields []models.FormField
		if err := tx.Where("form_id = ?", formID).Order("sort_order ASC").Find(&fields).Error; err != nil {
			return err
		}
		answers, err := buildAnswers(fields, rawAnswers)
		if err != nil {
			return err
		}

		// 6. Kaydet (zaman damgasını sunucu atar)
		submission := &models.FormSubmission{
			FormID:  formID,
			UserID:  submitterUserID,
			Answers: answers,
		}
		if err := tx.WithContext(txCtx).Create(submission).Error; err != nil {
			configslog.Log.Error("Submit: gönderim yazılamadı", zap.Uint("form_id", formID), zap.Error(err))
			return fmt.Errorf("%w: %v", ErrSubmissionCreationFailed, err)
		}
		created = submission
		return nil
	})

	if txErr != nil {
		return nil, txErr
	}
	configslog.SLog.Infof("Gönderim kaydedildi: Form %d, Key %s", formID, created.Key)
	return created, nil
}

// buildAnswers ham değerleri alan tanımlarına göre tipli cevaplara çevirir.
// Form alanlarında karşılığı olmayan anahtarlar sonuçta yer almaz.
func buildAnswers(fields []models.FormField, rawAnswers map[uint]any) (models.AnswerMap, error) {
	answers := make(models.AnswerMap, len(fields))
	for _, field := range fields {
		raw, present := rawAnswers[field.ID]
		if !present || isEmptyRaw(raw) {
			if field.Required {
				return nil, fieldErr(field, "zorunlu alan boş bırakılamaz")
			}
			continue
		}
		answer, err := convertAnswer(field, raw)
		if err != nil {
			return nil, err
		}
		if answer.IsEmpty() {
			if field.Required {
				return nil, fieldErr(field, "zorunlu alan boş bırakılamaz")
			}
			continue
		}
		answers[field.ID] = answer
	}
	return answers, nil
}

// isEmptyRaw ham değerin hiç verilmemiş sayılıp sayılmayacağını söyler.
func isEmptyRaw(raw any) bool {
	switch v := raw.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	case []string:
		return len(v) == 0
	case []any:
		return len(v) == 0
	case map[string]any:
		return len(v) == 0
	}
	return false
}

// convertAnswer tek bir ham değeri alanın tipine uygun Answer varyantına çevirir.
func convertAnswer(field models.FormField, raw any) (models.Answer, error) {
	switch field.FieldType {
	case models.FieldTypeText:
		text, ok := rawString(raw)
		if !ok {
			return models.Answer{}, fieldErr(field, "metin değeri bekleniyor")
		}
		return models.TextAnswer(strings.TrimSpace(text)), nil

	case models.FieldTypeEmail:
		text, ok := rawString(raw)
		if !ok {
			return models.Answer{}, fieldErr(field, "e-posta değeri bekleniyor")
		}
		text = strings.TrimSpace(text)
		if err := validate.Var(text, "required,email"); err != nil {
			return models.Answer{}, fieldErr(field, "geçerli bir e-posta adresi değil")
		}
		return models.TextAnswer(text), nil

	case models.FieldTypeNumber:
		number, ok := rawNumber(raw)
		if !ok {
			return models.Answer{}, fieldErr(field, "sayısal değer bekleniyor")
		}
		return models.NumberAnswer(number), nil

	case models.FieldTypeRadio, models.FieldTypeSelect:
		text, ok := rawString(raw)
		if !ok {
			return models.Answer{}, fieldErr(field, "tek seçim değeri bekleniyor")
		}
		text = strings.TrimSpace(text)
		if text == "" {
			return models.Answer{}, nil
		}
		if !optionSet(field.Options)[text] {
			return models.Answer{}, fieldErr(field, "seçenek listesinde olmayan değer")
		}
		return models.SingleChoiceAnswer(text), nil

	case models.FieldTypeCheckbox:
		values, err := rawStringList(field, raw)
		if err != nil {
			return models.Answer{}, err
		}
		allowed := optionSet(field.Options)
		for _, v := range values {
			if !allowed[v] {
				return models.Answer{}, fieldErr(field, "seçenek listesinde olmayan değer: "+v)
			}
		}
		return models.MultiChoiceAnswer(values), nil

	case models.FieldTypeFile:
		ref, ok := rawFileRef(raw)
		if !ok || ref.URL == "" {
			return models.Answer{}, fieldErr(field, "geçerli bir dosya referansı bekleniyor")
		}
		return models.FileAnswer(ref), nil
	}
	return models.Answer{}, fieldErr(field, "desteklenmeyen alan tipi")
}

func rawString(raw any) (string, bool) {
	switch v := raw.(type) {
	case string:
		return v, true
	case fmt.Stringer:
		return v.String(), true
	}
	return "", false
}

func rawNumber(raw any) (float64, bool) {
	var number float64
	switch v := raw.(type) {
	case float64:
		number = v
	case float32:
		number = float64(v)
	case int:
		number = float64(v)
	case int64:
		number = float64(v)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		number = parsed
	default:
		return 0, false
	}
	if math.IsNaN(number) || math.IsInf(number, 0) {
		return 0, false
	}
	return number, true
}

// rawStringList checkbox değerini listeye çevirir. Tek string gelirse bu,
// eski virgülle birleştirilmiş kodlamadır: doğrulamadan önce ayrılıp kırpılır
// (uyumluluk katmanı; çift temsil modele taşınmaz).
func rawStringList(field models.FormField, raw any) ([]string, error) {
	switch v := raw.(type) {
	case []string:
		return trimNonEmpty(v), nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := rawString(item)
			if !ok {
				return nil, fieldErr(field, "çoklu seçim değerleri metin olmalı")
			}
			out = append(out, s)
		}
		return trimNonEmpty(out), nil
	case string:
		return trimNonEmpty(strings.Split(v, ",")), nil
	}
	return nil, fieldErr(field, "çoklu seçim değeri bekleniyor")
}

func trimNonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if t := strings.TrimSpace(v); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func rawFileRef(raw any) (models.FileRef, bool) {
	switch v := raw.(type) {
	case models.FileRef:
		return v, true
	case *models.FileRef:
		if v == nil {
			return models.FileRef{}, false
		}
		return *v, true
	case string:
		return models.FileRef{URL: strings.TrimSpace(v)}, strings.TrimSpace(v) != ""
	case map[string]any:
		ref := models.FileRef{}
		if s, ok := v["url"].(string); ok {
			ref.URL = strings.TrimSpace(s)
		}
		if s, ok := v["name"].(string); ok {
			ref.Name = s
		}
		if s, ok := v["mime"].(string); ok {
			ref.Mime = s
		}
		return ref, ref.URL != ""
	}
	return models.FileRef{}, false
}

// optionSet kırpılmış seçenek değerlerinden hızlı arama kümesi üretir.
func optionSet(options models.StringSlice) map[string]bool {
	set := make(map[string]bool, len(options))
	for _, opt := range options.NonBlank() {
		set[opt] = true
	}
	return set
}

// GetSubmissionsForOwner form sahibine tüm gönderimleri yeniden eskiye getirir.
func (s *SubmissionService) GetSubmissionsForOwner(ctx context.Context, formID uint, requestingUserID uint) ([]models.FormSubmission, error) {
	form, err := s.formRepo.FindByID(ctx, formID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrFormNotFound
		}
		return nil, err
	}
	if err := requireOwner(ctx, s.userRepo, requestingUserID, form.CreatorUserID); err != nil {
		return nil, err
	}
	return s.repo.FindAllByFormID(ctx, formID)
}

// CountByFormID formun toplam gönderim sayısı.
func (s *SubmissionService) CountByFormID(ctx context.Context, formID uint) (int64, error) {
	return s.repo.CountByFormID(ctx, formID)
}

var _ ISubmissionService = (*SubmissionService)(nil)
