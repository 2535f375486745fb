package repositories

import (
	"context"
	"errors"

	"etkin.link/pkg/queryparams"

	"gorm.io/gorm"
)

// ErrNotFound repository katmanının ortak "kayıt yok" hatası.
var ErrNotFound = errors.New("kayıt bulunamadı")

// IBaseRepository tüm modeller için ortak CRUD operasyonları.
type IBaseRepository[T any] interface {
	Create(ctx context.Context, entity *T) error
	FindByID(ctx context.Context, id uint) (*T, error)
	Save(ctx context.Context, entity *T) error
	Count(ctx context.Context) (int64, error)
	SetAllowedSortColumns(columns []string)
	OrderClause(params queryparams.ListParams) string
}

// BaseRepository generik temel repository.
type BaseRepository[T any] struct {
	db          *gorm.DB
	allowedSort map[string]bool
}

// NewBaseRepository yeni bir BaseRepository örneği oluşturur.
func NewBaseRepository[T any](db *gorm.DB) *BaseRepository[T] {
	return &BaseRepository[T]{db: db, allowedSort: map[string]bool{"id": true, "created_at": true}}
}

// SetAllowedSortColumns sıralamaya izin verilen kolonları belirler.
func (r *BaseRepository[T]) SetAllowedSortColumns(columns []string) {
	allowed := make(map[string]bool, len(columns))
	for _, c := range columns {
		allowed[c] = true
	}
	r.allowedSort = allowed
}

// OrderClause parametrelerden güvenli bir ORDER BY ifadesi üretir.
// İzin verilmeyen kolon istenirse created_at'e düşer.
func (r *BaseRepository[T]) OrderClause(params queryparams.ListParams) string {
	column := params.SortBy
	if !r.allowedSort[column] {
		column = "created_at"
	}
	order := params.OrderBy
	if order != "asc" && order != "desc" {
		order = queryparams.DefaultOrderBy
	}
	return column + " " + order
}

// Create yeni kayıt ekler.
func (r *BaseRepository[T]) Create(ctx context.Context, entity *T) error {
	return r.db.WithContext(ctx).Create(entity).Error
}

// FindByID ID ile kayıt bulur.
func (r *BaseRepository[T]) FindByID(ctx context.Context, id uint) (*T, error) {
	var entity T
	err := r.db.WithContext(ctx).First(&entity, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &entity, nil
}

// Save kaydı günceller (tüm kolonlar).
func (r *BaseRepository[T]) Save(ctx context.Context, entity *T) error {
	return r.db.WithContext(ctx).Save(entity).Error
}

// Count toplam kayıt sayısını döndürür.
func (r *BaseRepository[T]) Count(ctx context.Context) (int64, error) {
	var entity T
	var count int64
	err := r.db.WithContext(ctx).Model(&entity).Count(&count).Error
	return count, err
}

var _ IBaseRepository[struct{}] = (*BaseRepository[struct{}])(nil)
