package model

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID          uuid.UUID
	TelegramID  int64
	DisplayName string
	IsAdmin     bool
	CreatedAt   time.Time
}
