package utils

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
)

// Oturum yardımcıları: store router tarafından c.Locals'a konur,
// handler'lar kullanıcı kimliğine buradan erişir.

var ErrSessionStore = errors.New("session store bulunamadı")

// SessionStart istekteki oturumu açar.
func SessionStart(c *fiber.Ctx) (*session.Session, error) {
	store, ok := c.Locals("session_store").(*session.Store)
	if !ok || store == nil {
		return nil, ErrSessionStore
	}
	return store.Get(c)
}

// SetUserSession oturuma kullanıcı bilgilerini yazar.
func SetUserSession(sess *session.Session, userID uint, userName string, isSystem bool) error {
	sess.Set("user_id", userID)
	sess.Set("user_name", userName)
	sess.Set("is_system", isSystem)
	return sess.Save()
}

// GetUserIDFromSession oturumdaki kullanıcı ID'sini döndürür.
func GetUserIDFromSession(sess *session.Session) (uint, error) {
	userID, ok := sess.Get("user_id").(uint)
	if !ok || userID == 0 {
		return 0, errors.New("oturumda kullanıcı yok")
	}
	return userID, nil
}

// GetIsSystemFromSession oturumdaki sistem kullanıcısı bayrağını döndürür.
func GetIsSystemFromSession(sess *session.Session) (bool, error) {
	isSystem, ok := sess.Get("is_system").(bool)
	if !ok {
		return false, errors.New("oturumda bayrak yok")
	}
	return isSystem, nil
}

// DestroySession oturumu sonlandırır.
func DestroySession(sess *session.Session) error {
	return sess.Destroy()
}
