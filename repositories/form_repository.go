package repositories

import (
	"context"
	"errors"
	"strings"
	"time"

	"etkin.link/configs"
	"etkin.link/configs/configslog"
	"etkin.link/models"
	"etkin.link/pkg/queryparams"
	"etkin.link/pkg/turkishsearch"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// IFormRepository form veritabanı işlemleri için arayüz.
type IFormRepository interface {
	Create(ctx context.Context, form *models.Form) error
	FindByID(ctx context.Context, id uint) (*models.Form, error)
	FindAllByUserIDPaginated(ctx context.Context, userID uint, params queryparams.ListParams) ([]models.Form, int64, error)
	Update(ctx context.Context, form *models.Form) error
	CountByEventID(ctx context.Context, eventID uint) (int64, error)
	CountByUserID(ctx context.Context, userID uint) (int64, error)
	Delete(ctx context.Context, form *models.Form, deletedByUserID uint) error

	// Alan işlemleri
	FindFieldsByFormID(ctx context.Context, formID uint) ([]models.FormField, error)
	FindFieldByID(ctx context.Context, fieldID uint) (*models.FormField, error)
	CreateField(ctx context.Context, field *models.FormField) error
	UpdateField(ctx context.Context, field *models.FormField) error
	DeleteFieldsByID(ctx context.Context, formID uint, fieldIDs []uint, deletedByUserID uint) error
}

// FormRepository IFormRepository arayüzünü uygular.
type FormRepository struct {
	db   *gorm.DB
	base IBaseRepository[models.Form]
}

// NewFormRepository yeni bir FormRepository örneği oluşturur.
func NewFormRepository() IFormRepository {
	db := configs.GetDB()
	return newFormRepository(db)
}

func newFormRepository(db *gorm.DB) *FormRepository {
	base := NewBaseRepository[models.Form](db)
	base.SetAllowedSortColumns([]string{"id", "created_at", "title", "is_active"})
	return &FormRepository{db: db, base: base}
}

// Context ile çalışan DB örneği döndüren yardımcı fonksiyon
func (r *FormRepository) getDB(ctx context.Context) *gorm.DB {
	if tx, ok := ctx.Value("tx").(*gorm.DB); ok && tx != nil {
		return tx
	}
	return r.db.WithContext(ctx)
}

// orderedFields alanları sort_order'a göre yükleyen Preload scope'u.
func orderedFields(db *gorm.DB) *gorm.DB {
	return db.Order("form_fields.sort_order ASC")
}

// Create yeni bir formu alanlarıyla birlikte oluşturur.
func (r *FormRepository) Create(ctx context.Context, form *models.Form) error {
	if form == nil || form.EventID == 0 || form.CreatorUserID == 0 {
		return errors.New("eksik etkinlik veya kullanıcı bilgisi olan form oluşturulamaz")
	}
	return r.getDB(ctx).Create(form).Error
}

// FindByID belirli bir ID'ye sahip formu alanlarıyla birlikte bulur.
func (r *FormRepository) FindByID(ctx context.Context, id uint) (*models.Form, error) {
	if id == 0 {
		return nil, errors.New("geçersiz Form ID")
	}
	var form models.Form
	err := r.getDB(ctx).Preload("Fields", orderedFields).First(&form, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		configslog.Log.Error("FormRepository.FindByID: DB error", zap.Uint("id", id), zap.Error(err))
		return nil, err
	}
	return &form, nil
}

// applyFormFilters ortak filtreleme ve sıralama mantığını uygular.
func (r *FormRepository) applyFormFilters(query *gorm.DB, params queryparams.ListParams) *gorm.DB {
	if params.Name != "" {
		sqlFragment, args := turkishsearch.SQLFilter("forms.title", params.Name)
		query = query.Where(sqlFragment, args...)
	}
	if params.Status != "" {
		statusBool := params.Status == "true"
		query = query.Where("forms.is_active = ?", statusBool)
	}
	if strings.TrimSpace(params.SortBy) == "" {
		params.SortBy = "created_at"
	}
	return query.Order(r.base.OrderClause(params))
}

// FindAllByUserIDPaginated belirli bir kullanıcıya ait formları sayfalayarak bulur.
func (r *FormRepository) FindAllByUserIDPaginated(ctx context.Context, creatorUserID uint, params queryparams.ListParams) ([]models.Form, int64, error) {
	if creatorUserID == 0 {
		return nil, 0, errors.New("geçersiz Creator User ID")
	}
	query := r.getDB(ctx).Model(&models.Form{}).Where("forms.creator_user_id = ?", creatorUserID)
	return r.findPaginated(ctx, query, params)
}

func (r *FormRepository) findPaginated(ctx context.Context, query *gorm.DB, params queryparams.ListParams) ([]models.Form, int64, error) {
	var forms []models.Form
	var totalCount int64

	query = r.applyFormFilters(query, params)

	if err := query.Count(&totalCount).Error; err != nil {
		configslog.Log.Error("FormRepository.Count (Paginated): DB error", zap.Error(err))
		return nil, 0, err
	}
	if totalCount == 0 {
		return forms, 0, nil
	}

	err := query.Preload("Fields", orderedFields).
		Limit(params.PerPage).
		Offset(params.CalculateOffset()).
		Find(&forms).Error
	if err != nil {
		configslog.Log.Error("FormRepository.Find (Paginated): DB error", zap.Error(err))
		return nil, totalCount, err
	}
	return forms, totalCount, nil
}

// Update formu tüm kolonlarıyla günceller.
func (r *FormRepository) Update(ctx context.Context, form *models.Form) error {
	if form == nil || form.ID == 0 {
		return errors.New("güncellenecek form geçerli değil")
	}
	return r.getDB(ctx).Omit("Fields", "Event").Save(form).Error
}

// CountByEventID etkinliğe bağlı form sayısını döndürür (kota kontrolü).
func (r *FormRepository) CountByEventID(ctx context.Context, eventID uint) (int64, error) {
	if eventID == 0 {
		return 0, errors.New("geçersiz Etkinlik ID")
	}
	var count int64
	err := r.getDB(ctx).Model(&models.Form{}).Where("event_id = ?", eventID).Count(&count).Error
	return count, err
}

// CountByUserID belirli bir kullanıcıya ait form sayısını döndürür.
func (r *FormRepository) CountByUserID(ctx context.Context, creatorUserID uint) (int64, error) {
	if creatorUserID == 0 {
		return 0, errors.New("geçersiz Creator User ID")
	}
	var count int64
	err := r.getDB(ctx).Model(&models.Form{}).Where("creator_user_id = ?", creatorUserID).Count(&count).Error
	return count, err
}

// Delete formu ve bağlı alan/gönderim kayıtlarını siler (soft delete, kaskad).
func (r *FormRepository) Delete(ctx context.Context, form *models.Form, deletedByUserID uint) error {
	if form == nil || form.ID == 0 {
		return errors.New("silinecek form geçerli değil")
	}
	db := r.getDB(ctx)

	return db.Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()
		deleteData := map[string]interface{}{"deleted_at": now, "deleted_by": &deletedByUserID}

		// Önce bağlı kayıtlar: gönderimler ve alanlar
		if err := tx.Model(&models.FormSubmission{}).
			Where("form_id = ? AND deleted_at IS NULL", form.ID).
			Updates(deleteData).Error; err != nil {
			configslog.Log.Error("FormRepository.Delete: submissions silinemedi", zap.Uint("form_id", form.ID), zap.Error(err))
			return err
		}
		if err := tx.Model(&models.FormField{}).
			Where("form_id = ? AND deleted_at IS NULL", form.ID).
			Updates(deleteData).Error; err != nil {
			configslog.Log.Error("FormRepository.Delete: fields silinemedi", zap.Uint("form_id", form.ID), zap.Error(err))
			return err
		}

		result := tx.Model(&models.Form{}).
			Where("id = ? AND deleted_at IS NULL", form.ID).
			Updates(deleteData)
		if result.Error != nil {
			configslog.Log.Error("FormRepository.Delete: form silinemedi", zap.Uint("id", form.ID), zap.Error(result.Error))
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// FindFieldsByFormID formun alanlarını sort_order sırasıyla getirir.
func (r *FormRepository) FindFieldsByFormID(ctx context.Context, formID uint) ([]models.FormField, error) {
	if formID == 0 {
		return nil, errors.New("geçersiz Form ID")
	}
	var fields []models.FormField
	err := r.getDB(ctx).Where("form_id = ?", formID).Order("sort_order ASC").Find(&fields).Error
	if err != nil {
		configslog.Log.Error("FormRepository.FindFieldsByFormID: DB error", zap.Uint("form_id", formID), zap.Error(err))
		return nil, err
	}
	return fields, nil
}

// FindFieldByID tek bir alanı bulur.
func (r *FormRepository) FindFieldByID(ctx context.Context, fieldID uint) (*models.FormField, error) {
	if fieldID == 0 {
		return nil, errors.New("geçersiz Alan ID")
	}
	var field models.FormField
	err := r.getDB(ctx).First(&field, fieldID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		configslog.Log.Error("FormRepository.FindFieldByID: DB error", zap.Uint("field_id", fieldID), zap.Error(err))
		return nil, err
	}
	return &field, nil
}

// CreateField formun yeni alanını ekler.
func (r *FormRepository) CreateField(ctx context.Context, field *models.FormField) error {
	if field == nil || field.FormID == 0 {
		return errors.New("geçersiz alan verisi")
	}
	return r.getDB(ctx).Create(field).Error
}

// UpdateField tek bir alanı günceller.
func (r *FormRepository) UpdateField(ctx context.Context, field *models.FormField) error {
	if field == nil || field.ID == 0 {
		return errors.New("güncellenecek alan geçerli değil")
	}
	return r.getDB(ctx).Save(field).Error
}

// DeleteFieldsByID verilen alanları soft delete ile kaldırır.
func (r *FormRepository) DeleteFieldsByID(ctx context.Context, formID uint, fieldIDs []uint, deletedByUserID uint) error {
	if formID == 0 || len(fieldIDs) == 0 {
		return nil
	}
	now := time.Now().UTC()
	deleteData := map[string]interface{}{"deleted_at": now, "deleted_by": &deletedByUserID}
	return r.getDB(ctx).Model(&models.FormField{}).
		Where("form_id = ? AND id IN ? AND deleted_at IS NULL", formID, fieldIDs).
		Updates(deleteData).Error
}

var _ IFormRepository = (*FormRepository)(nil)

// Transaction'lı Repository için yardımcı constructor
func NewFormRepositoryTx(tx *gorm.DB) IFormRepository {
	return newFormRepository(tx)
}
