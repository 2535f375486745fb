package repositories

import (
	"context"
	"errors"

	"etkin.link/configs"
	"etkin.link/configs/configslog"
	"etkin.link/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// IEventRepository etkinlik veritabanı işlemleri için arayüz.
// Form motoru etkinliği yalnızca sahiplik ve form kotası için kullanır;
// kota sayımı etkinlik satırı kilitliyken yapıldığından okuma kilitli varyanttır.
type IEventRepository interface {
	Create(ctx context.Context, event *models.Event) error
	FindByIDForUpdate(ctx context.Context, id uint) (*models.Event, error)
}

// EventRepository IEventRepository arayüzünü uygular.
type EventRepository struct {
	db *gorm.DB
}

// NewEventRepository yeni bir EventRepository örneği oluşturur.
func NewEventRepository() IEventRepository {
	return &EventRepository{db: configs.GetDB()}
}

func (r *EventRepository) getDB(ctx context.Context) *gorm.DB {
	if tx, ok := ctx.Value("tx").(*gorm.DB); ok && tx != nil {
		return tx
	}
	return r.db.WithContext(ctx)
}

// Create yeni etkinlik oluşturur.
func (r *EventRepository) Create(ctx context.Context, event *models.Event) error {
	if event == nil || event.OwnerUserID == 0 {
		return errors.New("geçersiz etkinlik verisi")
	}
	return r.getDB(ctx).Create(event).Error
}

// FindByIDForUpdate etkinliği yazma kilidiyle okur. Transaction içinden
// çağrılmalıdır; kilit transaction bitene kadar tutulur.
// sqlite FOR UPDATE sözdizimini tanımaz; o diyalektte kilit cümlesi eklenmez,
// seri yazma garantisini motorun kendisi verir.
func (r *EventRepository) FindByIDForUpdate(ctx context.Context, id uint) (*models.Event, error) {
	if id == 0 {
		return nil, errors.New("geçersiz Etkinlik ID")
	}
	db := r.getDB(ctx)
	if db.Dialector.Name() != "sqlite" {
		db = db.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var event models.Event
	err := db.First(&event, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		configslog.Log.Error("EventRepository.FindByIDForUpdate: DB error", zap.Uint("id", id), zap.Error(err))
		return nil, err
	}
	return &event, nil
}

var _ IEventRepository = (*EventRepository)(nil)

// Transaction'lı Repository için yardımcı constructor
func NewEventRepositoryTx(tx *gorm.DB) IEventRepository {
	return &EventRepository{db: tx}
}
