package model

import (
	"time"

	"github.com/google/uuid"
)

type QuestStatus string

const (
	QuestStatusDraft     QuestStatus = "draft"
	QuestStatusOpen      QuestStatus = "open"
	QuestStatusClosed    QuestStatus = "closed"
	QuestStatusCompleted QuestStatus = "completed"
	QuestStatusCancelled QuestStatus = "cancelled"
	QuestStatusPaused    QuestStatus = "paused"
	QuestStatusRevoked   QuestStatus = "revoked"
)

var QuestStatuses = []QuestStatus{
	QuestStatusDraft,
	QuestStatusOpen,
	QuestStatusClosed,
	QuestStatusCompleted,
	QuestStatusCancelled,
	QuestStatusPaused,
	QuestStatusRevoked,
}

func (s QuestStatus) IsValid() bool {
	for _, status := range QuestStatuses {
		if s == status {
			return true
		}
	}
	return false
}

func (s QuestStatus) String() string {
	return string(s)
}

type ReviewStatus string

const (
	ReviewStatusPending      ReviewStatus = "pending"
	ReviewStatusApproved     ReviewStatus = "approved"
	ReviewStatusRejected     ReviewStatus = "rejected"
	ReviewStatusNeedsChanges ReviewStatus = "needs_changes"
)

type ReviewAction string

const (
	ReviewActionApprove        ReviewAction = "approve"
	ReviewActionReject         ReviewAction = "reject"
	ReviewActionRequestChanges ReviewAction = "request_changes"
)

type Quest struct {
	ID              uuid.UUID
	Title           string
	CreatorID       *uuid.UUID
	Status          QuestStatus
	PreviousStatus  *QuestStatus
	ReviewStatus    ReviewStatus
	RevisionCount   int
	AdminNotes      *string
	PausedAt        *time.Time
	PausedReason    *string
	RevokedAt       *time.Time
	RevokedReason   *string
	CancelledReason *string
	PublishedAt     *time.Time
	PriorityFlag    bool
	DeletedAt       *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// QuestUpdate is a partial update of a quest row. Nil fields are left
// untouched; Clear* flags force the column to NULL. ClearPause nulls both
// pause columns, ClearPausedReason only the reason.
type QuestUpdate struct {
	Status            *QuestStatus
	PreviousStatus    *QuestStatus
	ReviewStatus      *ReviewStatus
	RevisionCount     *int
	AdminNotes        *string
	ClearAdminNotes   bool
	PausedAt          *time.Time
	PausedReason      *string
	ClearPausedReason bool
	ClearPause        bool
	RevokedAt         *time.Time
	RevokedReason     *string
	CancelledReason   *string
	PublishedAt       *time.Time
	DeletedAt         *time.Time

	// Guards for the conditional write. Zero values disable the guard.
	ExpectStatus        QuestStatus
	ExpectRevisionCount *int
}

// Apply copies the update onto q. Used by in-memory stores and tests.
func (u *QuestUpdate) Apply(q *Quest) {
	if u.Status != nil {
		q.Status = *u.Status
	}
	if u.PreviousStatus != nil {
		prev := *u.PreviousStatus
		q.PreviousStatus = &prev
	}
	if u.ReviewStatus != nil {
		q.ReviewStatus = *u.ReviewStatus
	}
	if u.RevisionCount != nil {
		q.RevisionCount = *u.RevisionCount
	}
	if u.ClearAdminNotes {
		q.AdminNotes = nil
	} else if u.AdminNotes != nil {
		q.AdminNotes = u.AdminNotes
	}
	if u.ClearPause {
		q.PausedAt = nil
		q.PausedReason = nil
	} else {
		if u.PausedAt != nil {
			q.PausedAt = u.PausedAt
		}
		if u.ClearPausedReason {
			q.PausedReason = nil
		} else if u.PausedReason != nil {
			q.PausedReason = u.PausedReason
		}
	}
	if u.RevokedAt != nil {
		q.RevokedAt = u.RevokedAt
	}
	if u.RevokedReason != nil {
		q.RevokedReason = u.RevokedReason
	}
	if u.CancelledReason != nil {
		q.CancelledReason = u.CancelledReason
	}
	if u.PublishedAt != nil {
		q.PublishedAt = u.PublishedAt
	}
	if u.DeletedAt != nil {
		q.DeletedAt = u.DeletedAt
	}
}
