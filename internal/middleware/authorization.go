package middleware

import (
	"errors"
	"net/http"

	"github.com/OpenClique85/openclique-sub010/internal/repository"
	"github.com/OpenClique85/openclique-sub010/internal/service"
	"github.com/OpenClique85/openclique-sub010/pkg/auth"
	"github.com/OpenClique85/openclique-sub010/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	ActorIDKey = "actor_id"
	UserIDKey  = "user_id"
)

type Authorization struct {
	users service.UserRepository
}

func NewAuthorization(users service.UserRepository) *Authorization {
	return &Authorization{
		users: users,
	}
}

// Profile resolves the telegram user to a profile and stores its id under
// UserIDKey.
func (a *Authorization) Profile() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := a.resolve(c); ok {
			c.Next()
		}
	}
}

// AdminOnly lets only admin profiles through. The admin's profile id is
// stored under ActorIDKey for audit records.
func (a *Authorization) AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := a.resolve(c)
		if !ok {
			return
		}

		if !user.IsAdmin {
			logger.Logger().Info("unauthorized access attempt to admin endpoint",
				zap.Int64("telegram_id", user.TelegramID))
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin access required"})
			return
		}

		c.Set(ActorIDKey, user.ID)
		c.Next()
	}
}

type resolvedUser struct {
	ID         uuid.UUID
	TelegramID int64
	IsAdmin    bool
}

func (a *Authorization) resolve(c *gin.Context) (*resolvedUser, bool) {
	log := logger.Logger()

	telegramUser, ok := auth.UserFromContext(c)
	if !ok {
		log.Error("telegram user data not found in context")
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return nil, false
	}

	user, err := a.users.GetUserByTelegramID(c.Request.Context(), telegramUser.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
			return nil, false
		}
		log.Error("failed to get user data", zap.Error(err))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return nil, false
	}

	c.Set(UserIDKey, user.ID)
	return &resolvedUser{ID: user.ID, TelegramID: user.TelegramID, IsAdmin: user.IsAdmin}, true
}

// ActorID returns the admin id set by AdminOnly.
func ActorID(c *gin.Context) *uuid.UUID {
	v, ok := c.Get(ActorIDKey)
	if !ok {
		return nil
	}
	id, ok := v.(uuid.UUID)
	if !ok {
		return nil
	}
	return &id
}

func UserID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(UserIDKey)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}
