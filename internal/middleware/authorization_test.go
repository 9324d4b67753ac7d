package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/OpenClique85/openclique-sub010/internal/model"
	"github.com/OpenClique85/openclique-sub010/internal/repository"
	"github.com/OpenClique85/openclique-sub010/internal/service/mocks"
	"github.com/OpenClique85/openclique-sub010/pkg/auth"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func newRouter(users *mocks.MockUserRepository, telegramID int64) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if telegramID != 0 {
			c.Set(auth.ContextKey, &auth.TelegramUserData{ID: telegramID})
		}
		c.Next()
	})

	a := NewAuthorization(users)
	r.GET("/admin", a.AdminOnly(), func(c *gin.Context) {
		c.String(http.StatusOK, ActorID(c).String())
	})
	r.GET("/me", a.Profile(), func(c *gin.Context) {
		id, _ := UserID(c)
		c.String(http.StatusOK, id.String())
	})
	return r
}

func TestAuthorization_AdminOnly(t *testing.T) {
	adminID := uuid.New()

	tests := []struct {
		name       string
		telegramID int64
		setupMocks func(users *mocks.MockUserRepository)
		wantStatus int
		wantBody   string
	}{
		{
			name:       "No telegram user",
			setupMocks: func(*mocks.MockUserRepository) {},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "Unknown profile",
			telegramID: 42,
			setupMocks: func(users *mocks.MockUserRepository) {
				users.On("GetUserByTelegramID", mock.Anything, int64(42)).Return(nil, repository.ErrNotFound)
			},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "Lookup failure",
			telegramID: 42,
			setupMocks: func(users *mocks.MockUserRepository) {
				users.On("GetUserByTelegramID", mock.Anything, int64(42)).Return(nil, assert.AnError)
			},
			wantStatus: http.StatusInternalServerError,
		},
		{
			name:       "Not an admin",
			telegramID: 42,
			setupMocks: func(users *mocks.MockUserRepository) {
				users.On("GetUserByTelegramID", mock.Anything, int64(42)).
					Return(&model.User{ID: uuid.New(), TelegramID: 42}, nil)
			},
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "Admin",
			telegramID: 7,
			setupMocks: func(users *mocks.MockUserRepository) {
				users.On("GetUserByTelegramID", mock.Anything, int64(7)).
					Return(&model.User{ID: adminID, TelegramID: 7, IsAdmin: true}, nil)
			},
			wantStatus: http.StatusOK,
			wantBody:   adminID.String(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := &mocks.MockUserRepository{}
			tt.setupMocks(users)

			w := httptest.NewRecorder()
			newRouter(users, tt.telegramID).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin", nil))

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantBody != "" {
				assert.Equal(t, tt.wantBody, w.Body.String())
			}
			users.AssertExpectations(t)
		})
	}
}

func TestAuthorization_Profile(t *testing.T) {
	userID := uuid.New()
	users := &mocks.MockUserRepository{}
	users.On("GetUserByTelegramID", mock.Anything, int64(9)).Return(&model.User{ID: userID, TelegramID: 9}, nil)

	w := httptest.NewRecorder()
	newRouter(users, 9).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, userID.String(), w.Body.String())
}
