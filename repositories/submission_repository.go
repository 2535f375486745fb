package repositories

import (
	"context"
	"errors"
	"time"

	"etkin.link/configs"
	"etkin.link/configs/configslog"
	"etkin.link/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ISubmissionRepository form gönderimi veritabanı işlemleri için arayüz.
// Gönderimler yazıldıktan sonra değiştirilmez; Update metodu bilerek yoktur.
type ISubmissionRepository interface {
	Create(ctx context.Context, submission *models.FormSubmission) error
	FindByID(ctx context.Context, id uint) (*models.FormSubmission, error)
	FindAllByFormID(ctx context.Context, formID uint) ([]models.FormSubmission, error)
	FindByFormIDSince(ctx context.Context, formID uint, since time.Time) ([]models.FormSubmission, error)
	CountByFormID(ctx context.Context, formID uint) (int64, error)
}

// SubmissionRepository ISubmissionRepository arayüzünü uygular.
type SubmissionRepository struct {
	db *gorm.DB
}

// NewSubmissionRepository yeni bir SubmissionRepository örneği oluşturur.
func NewSubmissionRepository() ISubmissionRepository {
	return &SubmissionRepository{db: configs.GetDB()}
}

// Context ile çalışan DB örneği
func (r *SubmissionRepository) getDB(ctx context.Context) *gorm.DB {
	if tx, ok := ctx.Value("tx").(*gorm.DB); ok && tx != nil {
		return tx
	}
	return r.db.WithContext(ctx)
}

// Create doğrulanmış bir gönderimi kaydeder.
func (r *SubmissionRepository) Create(ctx context.Context, submission *models.FormSubmission) error {
	if submission == nil || submission.FormID == 0 {
		return errors.New("geçersiz gönderim verisi (FormID eksik)")
	}
	return r.getDB(ctx).Create(submission).Error
}

// FindByID tek bir gönderimi bulur.
func (r *SubmissionRepository) FindByID(ctx context.Context, id uint) (*models.FormSubmission, error) {
	if id == 0 {
		return nil, errors.New("geçersiz Gönderim ID")
	}
	var submission models.FormSubmission
	err := r.getDB(ctx).First(&submission, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		configslog.Log.Error("SubmissionRepository.FindByID: DB error", zap.Uint("id", id), zap.Error(err))
		return nil, err
	}
	return &submission, nil
}

// FindAllByFormID formun tüm gönderimlerini yeniden eskiye doğru getirir.
// Bu sıralama motorun doğal gönderim sırasıdır (CSV ve örnek cevaplar buna dayanır).
func (r *SubmissionRepository) FindAllByFormID(ctx context.Context, formID uint) ([]models.FormSubmission, error) {
	if formID == 0 {
		return nil, errors.New("geçersiz Form ID")
	}
	var submissions []models.FormSubmission
	err := r.getDB(ctx).Where("form_id = ?", formID).
		Order("created_at DESC, id DESC").
		Find(&submissions).Error
	if err != nil {
		configslog.Log.Error("SubmissionRepository.FindAllByFormID: DB error", zap.Uint("form_id", formID), zap.Error(err))
		return nil, err
	}
	return submissions, nil
}

// FindByFormIDSince verilen andan bugüne kadarki gönderimleri yeniden eskiye getirir.
func (r *SubmissionRepository) FindByFormIDSince(ctx context.Context, formID uint, since time.Time) ([]models.FormSubmission, error) {
	if formID == 0 {
		return nil, errors.New("geçersiz Form ID")
	}
	var submissions []models.FormSubmission
	err := r.getDB(ctx).Where("form_id = ? AND created_at >= ?", formID, since).
		Order("created_at DESC, id DESC").
		Find(&submissions).Error
	if err != nil {
		configslog.Log.Error("SubmissionRepository.FindByFormIDSince: DB error", zap.Uint("form_id", formID), zap.Error(err))
		return nil, err
	}
	return submissions, nil
}

// CountByFormID formun toplam gönderim sayısını döndürür.
func (r *SubmissionRepository) CountByFormID(ctx context.Context, formID uint) (int64, error) {
	if formID == 0 {
		return 0, errors.New("geçersiz Form ID")
	}
	var count int64
	err := r.getDB(ctx).Model(&models.FormSubmission{}).Where("form_id = ?", formID).Count(&count).Error
	return count, err
}

var _ ISubmissionRepository = (*SubmissionRepository)(nil)

// Transaction'lı Repository için yardımcı constructor
func NewSubmissionRepositoryTx(tx *gorm.DB) ISubmissionRepository {
	return &SubmissionRepository{db: tx}
}
