package model

import (
	"time"

	"github.com/google/uuid"
)

type AuditRecord struct {
	ActorID     *uuid.UUID
	Action      string
	TargetTable string
	TargetID    string
	OldValues   map[string]any
	NewValues   map[string]any
	CreatedAt   time.Time
}

type OpsEvent struct {
	EventType   string
	EntityRefs  map[string]any
	BeforeState map[string]any
	AfterState  map[string]any
	Metadata    map[string]any
	CreatedAt   time.Time
}

type Notification struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Type      string
	Title     string
	Body      string
	QuestID   *uuid.UUID
	CreatedAt time.Time
}
