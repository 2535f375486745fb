package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"etkin.link/configs"
	"etkin.link/configs/configslog"
	"etkin.link/models"
	"etkin.link/pkg/queryparams"
	"etkin.link/repositories"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// FormServiceError özel servis hataları
type FormServiceError string

func (e FormServiceError) Error() string { return string(e) }

const (
	ErrFormNotFound       FormServiceError = "form bulunamadı"
	ErrFieldNotFound      FormServiceError = "form alanı bulunamadı"
	ErrEventNotFound      FormServiceError = "etkinlik bulunamadı"
	ErrFormForbidden      FormServiceError = "bu işlem için yetkiniz yok"
	ErrFormValidation     FormServiceError = "form doğrulaması başarısız"
	ErrEventFormQuota     FormServiceError = "bir etkinlik en fazla 3 form içerebilir"
	ErrFormInvalidInput   FormServiceError = "geçersiz girdi verisi"
	ErrFormCreationFailed FormServiceError = "form oluşturulamadı"
	ErrFormUpdateFailed   FormServiceError = "form güncellenemedi"
	ErrFormDeletionFailed FormServiceError = "form silinemedi"
)

// DuplicateTitlePrefix kopyalanan formun başına eklenen sabit ön ek.
const DuplicateTitlePrefix = "Copy of "

// ReorderDirection alan taşıma yönü.
type ReorderDirection string

const (
	ReorderUp   ReorderDirection = "up"
	ReorderDown ReorderDirection = "down"
)

// FormFieldInput create/update sırasında tek alanın girdisi.
// ID'si dolu gelen alan mevcut kaydı günceller, boş gelen yeni kayıt açar.
type FormFieldInput struct {
	ID          uint             `json:"id"`
	FieldType   models.FieldType `json:"field_type"`
	Label       string           `json:"label"`
	Placeholder string           `json:"placeholder"`
	Required    bool             `json:"required"`
	Options     []string         `json:"options"`
}

// FormInput create/update sırasında formun tüm girdisi.
// Alan sırası girdi sırasıdır; sort_order 0'dan başlanarak buna göre atanır.
type FormInput struct {
	Title          string           `json:"title"`
	Description    string           `json:"description"`
	ImageURL       string           `json:"image_url"`
	Terms          string           `json:"terms"`
	IsPaid         bool             `json:"is_paid"`
	TokenAmount    int              `json:"token_amount"`
	IsActive       bool             `json:"is_active"`
	IsPublic       bool             `json:"is_public"`
	MaxSubmissions *int             `json:"max_submissions"`
	Fields         []FormFieldInput `json:"fields"`
}

// IFormService form tanımı işlemleri için arayüz.
type IFormService interface {
	CreateForm(ctx context.Context, creatorUserID uint, eventID uint, input FormInput) (*models.Form, error)
	GetFormByID(ctx context.Context, id uint, requestingUserID uint) (*models.Form, error)
	GetFormForViewer(ctx context.Context, id uint, viewerUserID *uint) (*models.Form, error)
	GetFormsForUser(ctx context.Context, creatorUserID uint, params queryparams.ListParams) (*queryparams.PaginatedResult, error)
	UpdateForm(ctx context.Context, id uint, updatingUserID uint, input FormInput) (*models.Form, error)
	ReorderField(ctx context.Context, formID uint, userID uint, fieldID uint, direction ReorderDirection) error
	DuplicateForm(ctx context.Context, formID uint, userID uint) (*models.Form, error)
	DeleteForm(ctx context.Context, id uint, deletingUserID uint) error
	GetFormCountForUser(ctx context.Context, creatorUserID uint) (int64, error)
}

// FormService IFormService arayüzünü uygular.
type FormService struct {
	repo     repositories.IFormRepository
	userRepo repositories.IUserRepository
	db       *gorm.DB
}

// NewFormService yeni bir FormService örneği oluşturur.
func NewFormService() IFormService {
	return NewFormServiceWithDB(configs.GetDB())
}

// NewFormServiceWithDB verilen DB üzerinde çalışan servis üretir (testler dahil).
func NewFormServiceWithDB(db *gorm.DB) IFormService {
	return &FormService{
		repo:     repositories.NewFormRepositoryTx(db),
		userRepo: repositories.NewUserRepositoryTx(db),
		db:       db,
	}
}

// --- Validasyon ---

// ValidateFormInput form girdisinin yapısal kurallarını denetler.
// Her ihlal ErrFormValidation'a sarılır; alan bazlı ihlaller alan etiketini taşır.
func ValidateFormInput(input FormInput) error {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return fmt.Errorf("%w: form başlığı zorunludur", ErrFormValidation)
	}
	if utf8.RuneCountInString(title) > 255 {
		return fmt.Errorf("%w: form başlığı 255 karakteri aşamaz", ErrFormValidation)
	}
	if input.IsPaid && input.TokenAmount <= 0 {
		return fmt.Errorf("%w: ücretli form için jeton tutarı pozitif olmalıdır", ErrFormValidation)
	}
	if input.MaxSubmissions != nil && *input.MaxSubmissions <= 0 {
		return fmt.Errorf("%w: gönderim limiti pozitif olmalıdır", ErrFormValidation)
	}
	if len(input.Fields) == 0 {
		return fmt.Errorf("%w: form en az bir alan içermelidir", ErrFormValidation)
	}
	for i, field := range input.Fields {
		if err := validateFieldInput(field); err != nil {
			return fmt.Errorf("%w (alan %d)", err, i+1)
		}
	}
	return nil
}

func validateFieldInput(field FormFieldInput) error {
	if !field.FieldType.Valid() {
		return fmt.Errorf("%w: desteklenmeyen alan tipi %q", ErrFormValidation, field.FieldType)
	}
	label := strings.TrimSpace(field.Label)
	if label == "" {
		return fmt.Errorf("%w: alan etiketi zorunludur", ErrFormValidation)
	}
	if utf8.RuneCountInString(label) > 255 {
		return fmt.Errorf("%w: alan etiketi 255 karakteri aşamaz", ErrFormValidation)
	}
	if field.FieldType.IsChoice() {
		// Boş girdiler listede durabilir ama minimumu onlar sağlamaz.
		if len(models.StringSlice(field.Options).NonBlank()) == 0 {
			return fmt.Errorf("%w: %q alanı için en az bir dolu seçenek gereklidir", ErrFormValidation, label)
		}
	}
	return nil
}

// buildField girdiden FormField üretir; placeholder ve options yalnızca
// anlamlı oldukları tiplerde saklanır.
func buildField(formID uint, input FormFieldInput, sortOrder int) models.FormField {
	field := models.FormField{
		FormID:    formID,
		FieldType: input.FieldType,
		Label:     strings.TrimSpace(input.Label),
		Required:  input.Required,
		SortOrder: sortOrder,
	}
	if input.FieldType.HasPlaceholder() {
		field.Placeholder = input.Placeholder
	}
	if input.FieldType.IsChoice() {
		field.Options = models.StringSlice(input.Options)
	}
	return field
}

// applyFormInput girdideki skaler alanları form kaydına kopyalar.
func applyFormInput(form *models.Form, input FormInput) {
	form.Title = strings.TrimSpace(input.Title)
	form.Description = input.Description
	form.ImageURL = input.ImageURL
	form.Terms = input.Terms
	form.IsPaid = input.IsPaid
	if input.IsPaid {
		form.TokenAmount = input.TokenAmount
	} else {
		form.TokenAmount = 0
	}
	form.IsActive = input.IsActive
	form.IsPublic = input.IsPublic
	form.MaxSubmissions = input.MaxSubmissions
}

// requireOwner kullanıcının kayıt sahibi veya sistem kullanıcısı olduğunu doğrular.
func requireOwner(ctx context.Context, userRepo repositories.IUserRepository, userID uint, ownerUserID uint) error {
	if userID == ownerUserID {
		return nil
	}
	user, err := userRepo.FindByID(ctx, userID)
	if err != nil {
		return ErrFormForbidden
	}
	if !user.IsSystem {
		return ErrFormForbidden
	}
	return nil
}

// --- Servis Metodları ---

// CreateForm yeni bir formu alanlarıyla birlikte oluşturur.
// Etkinlik başına form kotası transaction içinde, etkinlik satırı kilitliyken
// sayılır; eşzamanlı iki oluşturma kotayı aşamaz.
func (s *FormService) CreateForm(ctx context.Context, creatorUserID uint, eventID uint, input FormInput) (*models.Form, error) {
	if creatorUserID == 0 || eventID == 0 {
		return nil, fmt.Errorf("%w: geçersiz kullanıcı veya etkinlik ID", ErrFormInvalidInput)
	}
	if err := ValidateFormInput(input); err != nil {
		return nil, err
	}

	var createdForm *models.Form
	txErr := s.db.Transaction(func(tx *gorm.DB) error {
		txCtx := models.ContextWithUserID(ctx, creatorUserID)
		formRepoTx := repositories.NewFormRepositoryTx(tx)
		userRepoTx := repositories.NewUserRepositoryTx(tx)
		eventRepoTx := repositories.NewEventRepositoryTx(tx)

		// a. Etkinliği kilitli al
		event, err := eventRepoTx.FindByIDForUpdate(txCtx, eventID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return ErrEventNotFound
			}
			return err
		}

		// b. Yetki kontrolü
		if err := requireOwner(txCtx, userRepoTx, creatorUserID, event.OwnerUserID); err != nil {
			return err
		}

		// c. Kota kontrolü (etkinlik satırı kilitli, sayım yarışsız)
		count, err := formRepoTx.CountByEventID(txCtx, eventID)
		if err != nil {
			return err
		}
		if count >= models.MaxFormsPerEvent {
			return ErrEventFormQuota
		}

		// d. Form + alanları oluştur
		form := models.Form{
			EventID:       eventID,
			CreatorUserID: creatorUserID,
		}
		applyFormInput(&form, input)
		form.Fields = make([]models.FormField, 0, len(input.Fields))
		for i, fieldInput := range input.Fields {
			form.Fields = append(form.Fields, buildField(0, fieldInput, i))
		}
		if err := formRepoTx.Create(txCtx, &form); err != nil {
			configslog.Log.Error("CreateForm: repository hatası", zap.Uint("eventID", eventID), zap.Error(err))
			return ErrFormCreationFailed
		}
		createdForm = &form
		return nil
	})

	if txErr != nil {
		return nil, txErr
	}
	configslog.SLog.Infof("Form başarıyla oluşturuldu: ID %d, Başlık: %s (Etkinlik: %d)", createdForm.ID, createdForm.Title, eventID)
	return createdForm, nil
}

// GetFormByID belirli bir formu ID ve kullanıcı yetkisine göre getirir.
func (s *FormService) GetFormByID(ctx context.Context, id uint, requestingUserID uint) (*models.Form, error) {
	form, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrFormNotFound
		}
		return nil, err
	}
	if err := requireOwner(ctx, s.userRepo, requestingUserID, form.CreatorUserID); err != nil {
		return nil, err
	}
	return form, nil
}

// GetFormForViewer formu dolduracak kişi için getirir.
// is_public=false olan forma yalnızca sahibi (veya sistem kullanıcısı) erişebilir.
func (s *FormService) GetFormForViewer(ctx context.Context, id uint, viewerUserID *uint) (*models.Form, error) {
	form, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrFormNotFound
		}
		return nil, err
	}
	if !form.IsPublic {
		if viewerUserID == nil {
			return nil, ErrFormForbidden
		}
		if err := requireOwner(ctx, s.userRepo, *viewerUserID, form.CreatorUserID); err != nil {
			return nil, err
		}
	}
	return form, nil
}

// GetFormsForUser kullanıcıya ait formları sayfalayarak getirir.
func (s *FormService) GetFormsForUser(ctx context.Context, creatorUserID uint, params queryparams.ListParams) (*queryparams.PaginatedResult, error) {
	if creatorUserID == 0 {
		return nil, fmt.Errorf("%w: geçersiz kullanıcı ID", ErrFormInvalidInput)
	}
	params.Validate()

	forms, totalCount, err := s.repo.FindAllByUserIDPaginated(ctx, creatorUserID, params)
	if err != nil {
		return nil, err
	}

	return &queryparams.PaginatedResult{
		Data: forms,
		Meta: queryparams.PaginationMeta{
			CurrentPage: params.Page,
			PerPage:     params.PerPage,
			TotalItems:  totalCount,
			TotalPages:  queryparams.CalculateTotalPages(totalCount, params.PerPage),
		},
	}, nil
}

// UpdateForm formun skaler alanlarını ve alan listesini günceller.
// ID'si dolu gelen alanlar yerinde güncellenir, ID'siz olanlar eklenir,
// girdide olmayan mevcut alanlar silinir. Geçmiş gönderimlere dokunulmaz.
func (s *FormService) UpdateForm(ctx context.Context, id uint, updatingUserID uint, input FormInput) (*models.Form, error) {
	if id == 0 || updatingUserID == 0 {
		return nil, fmt.Errorf("%w: geçersiz ID veya güncelleyen kullanıcı ID", ErrFormInvalidInput)
	}
	if err := ValidateFormInput(input); err != nil {
		return nil, err
	}

	txErr := s.db.Transaction(func(tx *gorm.DB) error {
		txCtx := models.ContextWithUserID(ctx, updatingUserID)
		formRepoTx := repositories.NewFormRepositoryTx(tx)
		userRepoTx := repositories.NewUserRepositoryTx(tx)

		// a. Kaydı kilitli al
		var existingForm models.Form
		if err := lockForUpdate(tx.WithContext(txCtx)).First(&existingForm, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrFormNotFound
			}
			return err
		}

		// b. Yetki kontrolü
		if err := requireOwner(txCtx, userRepoTx, updatingUserID, existingForm.CreatorUserID); err != nil {
			return err
		}

		// c. Skaler alanları güncelle
		applyFormInput(&existingForm, input)
		if err := formRepoTx.Update(txCtx, &existingForm); err != nil {
			return ErrFormUpdateFailed
		}

		// d. Alanları ID üzerinden eşleştirerek güncelle/ekle/sil
		existingFields, err := formRepoTx.FindFieldsByFormID(txCtx, id)
		if err != nil {
			return err
		}
		existingByID := make(map[uint]models.FormField, len(existingFields))
		for _, f := range existingFields {
			existingByID[f.ID] = f
		}

		seen := make(map[uint]bool, len(input.Fields))
		for i, fieldInput := range input.Fields {
			if fieldInput.ID == 0 {
				newField := buildField(id, fieldInput, i)
				if err := formRepoTx.CreateField(txCtx, &newField); err != nil {
					return ErrFormUpdateFailed
				}
				continue
			}
			current, ok := existingByID[fieldInput.ID]
			if !ok {
				return fmt.Errorf("%w: ID %d", ErrFieldNotFound, fieldInput.ID)
			}
			seen[fieldInput.ID] = true

			updated := buildField(id, fieldInput, i)
			updated.BaseModel = current.BaseModel
			if err := formRepoTx.UpdateField(txCtx, &updated); err != nil {
				return ErrFormUpdateFailed
			}
		}

		var removed []uint
		for fieldID := range existingByID {
			if !seen[fieldID] {
				removed = append(removed, fieldID)
			}
		}
		if err := formRepoTx.DeleteFieldsByID(txCtx, id, removed, updatingUserID); err != nil {
			return ErrFormUpdateFailed
		}
		return nil
	})

	if txErr != nil {
		configslog.Log.Error("UpdateForm transaction failed", zap.Uint("id", id), zap.Uint("userID", updatingUserID), zap.Error(txErr))
		return nil, txErr
	}

	configslog.SLog.Infof("Form başarıyla güncellendi: ID %d (Güncelleyen: %d)", id, updatingUserID)
	return s.repo.FindByID(ctx, id)
}

// ReorderField alanı bir üst veya alt komşusuyla yer değiştirir.
// Sınırda (ilk alan yukarı, son alan aşağı) sessizce no-op'tur.
func (s *FormService) ReorderField(ctx context.Context, formID uint, userID uint, fieldID uint, direction ReorderDirection) error {
	if formID == 0 || userID == 0 || fieldID == 0 {
		return fmt.Errorf("%w: geçersiz ID", ErrFormInvalidInput)
	}
	if direction != ReorderUp && direction != ReorderDown {
		return fmt.Errorf("%w: geçersiz taşıma yönü %q", ErrFormInvalidInput, direction)
	}

	txErr := s.db.Transaction(func(tx *gorm.DB) error {
		txCtx := models.ContextWithUserID(ctx, userID)
		userRepoTx := repositories.NewUserRepositoryTx(tx)

		var form models.Form
		if err := lockForUpdate(tx.WithContext(txCtx)).First(&form, formID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrFormNotFound
			}
			return err
		}
		if err := requireOwner(txCtx, userRepoTx, userID, form.CreatorUserID); err != nil {
			return err
		}

		formRepoTx := repositories.NewFormRepositoryTx(tx)
		field, err := formRepoTx.FindFieldByID(txCtx, fieldID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return ErrFieldNotFound
			}
			return err
		}
		// Başka bir formun alanı bu form üzerinden taşınamaz
		if field.FormID != formID {
			return ErrFieldNotFound
		}

		neighborOrder := field.SortOrder - 1
		if direction == ReorderDown {
			neighborOrder = field.SortOrder + 1
		}
		if neighborOrder < 0 {
			return nil // ilk alan yukarı taşınamaz
		}

		var neighbor models.FormField
		err = tx.Where("form_id = ? AND sort_order = ?", formID, neighborOrder).First(&neighbor).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil // son alan aşağı taşınamaz
			}
			return err
		}

		// sort_order değerlerini takas et
		if err := tx.Model(&models.FormField{}).Where("id = ?", field.ID).
			Update("sort_order", neighbor.SortOrder).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.FormField{}).Where("id = ?", neighbor.ID).
			Update("sort_order", field.SortOrder).Error; err != nil {
			return err
		}
		return nil
	})

	if txErr != nil {
		if !errors.Is(txErr, ErrFormNotFound) && !errors.Is(txErr, ErrFieldNotFound) && !errors.Is(txErr, ErrFormForbidden) {
			configslog.Log.Error("ReorderField transaction failed", zap.Uint("form_id", formID), zap.Uint("field_id", fieldID), zap.Error(txErr))
		}
		return txErr
	}
	return nil
}

// DuplicateForm formun "Copy of " ön ekli, gönderimsiz bir kopyasını oluşturur.
// Alanlar yeni ID'lerle, tip/etiket/seçenek/sıra birebir kopyalanır; kopya da
// etkinlik kotasına tabidir.
func (s *FormService) DuplicateForm(ctx context.Context, formID uint, userID uint) (*models.Form, error) {
	if formID == 0 || userID == 0 {
		return nil, fmt.Errorf("%w: geçersiz ID", ErrFormInvalidInput)
	}

	var duplicated *models.Form
	txErr := s.db.Transaction(func(tx *gorm.DB) error {
		txCtx := models.ContextWithUserID(ctx, userID)
		formRepoTx := repositories.NewFormRepositoryTx(tx)
		userRepoTx := repositories.NewUserRepositoryTx(tx)

		original, err := formRepoTx.FindByID(txCtx, formID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return ErrFormNotFound
			}
			return err
		}
		if err := requireOwner(txCtx, userRepoTx, userID, original.CreatorUserID); err != nil {
			return err
		}

		// Kota: etkinlik satırı kilitliyken say
		eventRepoTx := repositories.NewEventRepositoryTx(tx)
		if _, err := eventRepoTx.FindByIDForUpdate(txCtx, original.EventID); err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return ErrEventNotFound
			}
			return err
		}
		count, err := formRepoTx.CountByEventID(txCtx, original.EventID)
		if err != nil {
			return err
		}
		if count >= models.MaxFormsPerEvent {
			return ErrEventFormQuota
		}

		title := DuplicateTitlePrefix + original.Title
		if utf8.RuneCountInString(title) > 255 {
			title = string([]rune(title)[:255])
		}

		var maxSubmissions *int
		if original.MaxSubmissions != nil {
			v := *original.MaxSubmissions
			maxSubmissions = &v
		}

		clone := models.Form{
			EventID:        original.EventID,
			CreatorUserID:  original.CreatorUserID,
			Title:          title,
			Description:    original.Description,
			ImageURL:       original.ImageURL,
			Terms:          original.Terms,
			IsPaid:         original.IsPaid,
			TokenAmount:    original.TokenAmount,
			IsActive:       original.IsActive,
			IsPublic:       original.IsPublic,
			MaxSubmissions: maxSubmissions,
		}
		clone.Fields = make([]models.FormField, 0, len(original.Fields))
		for _, f := range original.Fields {
			clone.Fields = append(clone.Fields, models.FormField{
				FieldType:   f.FieldType,
				Label:       f.Label,
				Placeholder: f.Placeholder,
				Required:    f.Required,
				Options:     append(models.StringSlice(nil), f.Options...),
				SortOrder:   f.SortOrder,
			})
		}

		if err := formRepoTx.Create(txCtx, &clone); err != nil {
			configslog.Log.Error("DuplicateForm: repository hatası", zap.Uint("form_id", formID), zap.Error(err))
			return ErrFormCreationFailed
		}
		duplicated = &clone
		return nil
	})

	if txErr != nil {
		return nil, txErr
	}
	configslog.SLog.Infof("Form kopyalandı: %d -> %d (Kullanıcı: %d)", formID, duplicated.ID, userID)
	return duplicated, nil
}

// DeleteForm formu, alanlarını ve gönderimlerini kalıcı olarak kaldırır.
func (s *FormService) DeleteForm(ctx context.Context, id uint, deletingUserID uint) error {
	if id == 0 || deletingUserID == 0 {
		return fmt.Errorf("%w: geçersiz ID veya silen kullanıcı ID", ErrFormInvalidInput)
	}

	txErr := s.db.Transaction(func(tx *gorm.DB) error {
		txCtx := models.ContextWithUserID(ctx, deletingUserID)
		formRepoTx := repositories.NewFormRepositoryTx(tx)
		userRepoTx := repositories.NewUserRepositoryTx(tx)

		var formToDelete models.Form
		if err := lockForUpdate(tx.WithContext(txCtx)).First(&formToDelete, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrFormNotFound
			}
			return err
		}
		if err := requireOwner(txCtx, userRepoTx, deletingUserID, formToDelete.CreatorUserID); err != nil {
			return err
		}

		if err := formRepoTx.Delete(txCtx, &formToDelete, deletingUserID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrFormNotFound
			}
			return ErrFormDeletionFailed
		}
		return nil
	})

	if txErr != nil {
		if !errors.Is(txErr, ErrFormNotFound) && !errors.Is(txErr, ErrFormForbidden) {
			configslog.Log.Error("DeleteForm transaction failed", zap.Uint("id", id), zap.Uint("userID", deletingUserID), zap.Error(txErr))
		}
		return txErr
	}
	configslog.SLog.Infof("Form ve bağlı kayıtları silindi: ID %d (Silen: %d)", id, deletingUserID)
	return nil
}

// GetFormCountForUser kullanıcıya ait form sayısını alır.
func (s *FormService) GetFormCountForUser(ctx context.Context, creatorUserID uint) (int64, error) {
	return s.repo.CountByUserID(ctx, creatorUserID)
}

var _ IFormService = (*FormService)(nil)
