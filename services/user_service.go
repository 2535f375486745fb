package services

import (
	"context"
	"errors"
	"fmt"

	"etkin.link/configs"
	"etkin.link/models"
	"etkin.link/repositories"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// UserServiceError özel servis hataları
type UserServiceError string

func (e UserServiceError) Error() string { return string(e) }

const (
	ErrUserNotFound          UserServiceError = "kullanıcı bulunamadı"
	ErrInvalidCredentials    UserServiceError = "e-posta veya şifre hatalı"
	ErrUserInactive          UserServiceError = "kullanıcı hesabı pasif"
	ErrUserInvalidInput      UserServiceError = "geçersiz kullanıcı girdisi"
	ErrPasswordHashingFailed UserServiceError = "şifre oluşturulamadı"
)

// IUserService kullanıcı işlemleri için arayüz.
type IUserService interface {
	GetUserByID(ctx context.Context, id uint) (*models.User, error)
	Authenticate(ctx context.Context, email, password string) (*models.User, error)
	CreateUser(ctx context.Context, name, email, password string, isSystem bool) (*models.User, error)
}

// UserService IUserService arayüzünü uygular.
type UserService struct {
	repo repositories.IUserRepository
}

// NewUserService yeni bir UserService örneği oluşturur.
func NewUserService() IUserService {
	return NewUserServiceWithDB(configs.GetDB())
}

// NewUserServiceWithDB verilen DB üzerinde çalışan servis üretir (testler dahil).
func NewUserServiceWithDB(db *gorm.DB) IUserService {
	return &UserService{repo: repositories.NewUserRepositoryTx(db)}
}

// GetUserByID kullanıcıyı ID ile getirir.
func (s *UserService) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// Authenticate e-posta/şifre ikilisini doğrular (oturum açma).
// Bulunamayan kullanıcı ile yanlış şifre aynı hatayı döndürür.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// CreateUser yeni kullanıcı oluşturur (şifre bcrypt ile saklanır).
func (s *UserService) CreateUser(ctx context.Context, name, email, password string, isSystem bool) (*models.User, error) {
	if name == "" || email == "" || password == "" {
		return nil, fmt.Errorf("%w: ad, e-posta ve şifre zorunludur", ErrUserInvalidInput)
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, ErrPasswordHashingFailed
	}
	user := &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hashed),
		IsSystem:     isSystem,
		IsActive:     true,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

var _ IUserService = (*UserService)(nil)
