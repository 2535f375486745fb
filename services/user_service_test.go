package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthenticate(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserServiceWithDB(db)
	ctx := context.Background()

	user, err := svc.CreateUser(ctx, "Ayşe", "ayse@etkin.link", "gizli-şifre", false)
	require.NoError(t, err)
	assert.NotEqual(t, "gizli-şifre", user.PasswordHash)

	got, err := svc.Authenticate(ctx, "ayse@etkin.link", "gizli-şifre")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	// Yanlış şifre ile bilinmeyen kullanıcı aynı hatayı döndürür
	_, err = svc.Authenticate(ctx, "ayse@etkin.link", "yanlış")
	require.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Authenticate(ctx, "yok@etkin.link", "gizli-şifre")
	require.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Authenticate(ctx, "", "")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthenticate_InactiveUser(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserServiceWithDB(db)
	ctx := context.Background()

	user, err := svc.CreateUser(ctx, "Pasif", "pasif@etkin.link", "gizli", false)
	require.NoError(t, err)
	require.NoError(t, db.Model(user).Update("is_active", false).Error)

	_, err = svc.Authenticate(ctx, "pasif@etkin.link", "gizli")
	require.ErrorIs(t, err, ErrUserInactive)
}
