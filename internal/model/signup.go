package model

import (
	"time"

	"github.com/google/uuid"
)

type SignupStatus string

const (
	SignupStatusPending   SignupStatus = "pending"
	SignupStatusConfirmed SignupStatus = "confirmed"
	SignupStatusStandby   SignupStatus = "standby"
	SignupStatusDropped   SignupStatus = "dropped"
)

type Signup struct {
	ID         uuid.UUID
	QuestID    uuid.UUID
	UserID     uuid.UUID
	Status     SignupStatus
	SignedUpAt time.Time
}
