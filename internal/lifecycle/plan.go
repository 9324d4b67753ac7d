package lifecycle

import (
	"fmt"
	"strings"
	"time"

	"github.com/OpenClique85/openclique-sub010/internal/model"

	"github.com/google/uuid"
)

const questsTable = "quests"

type TransitionOptions struct {
	Reason        string
	AdminNotes    string
	NotifyCreator bool
	NotifyUsers   bool
	ActorID       *uuid.UUID
}

type ReviewOptions struct {
	AdminNotes    string
	ShouldPublish bool
	ActorID       *uuid.UUID
}

// statusEffect fills in the status-specific columns of a transition update.
type statusEffect func(u *model.QuestUpdate, from model.QuestStatus, reason string, now time.Time)

var statusEffects = map[model.QuestStatus]statusEffect{
	model.QuestStatusPaused: func(u *model.QuestUpdate, _ model.QuestStatus, reason string, now time.Time) {
		u.PausedAt = &now
		u.PausedReason = optional(reason)
		u.ClearPausedReason = u.PausedReason == nil
	},
	model.QuestStatusRevoked: func(u *model.QuestUpdate, _ model.QuestStatus, reason string, now time.Time) {
		u.RevokedAt = &now
		u.RevokedReason = optional(reason)
	},
	model.QuestStatusCancelled: func(u *model.QuestUpdate, _ model.QuestStatus, reason string, _ time.Time) {
		u.CancelledReason = optional(reason)
	},
	model.QuestStatusOpen: func(u *model.QuestUpdate, from model.QuestStatus, _ string, _ time.Time) {
		if from == model.QuestStatusPaused {
			u.ClearPause = true
		}
	},
}

var reviewStatuses = map[model.ReviewAction]model.ReviewStatus{
	model.ReviewActionApprove:        model.ReviewStatusApproved,
	model.ReviewActionReject:         model.ReviewStatusRejected,
	model.ReviewActionRequestChanges: model.ReviewStatusNeedsChanges,
}

func ReviewStatusFor(action model.ReviewAction) (model.ReviewStatus, bool) {
	s, ok := reviewStatuses[action]
	return s, ok
}

// PlanTransition validates a status change of q to `to` and returns the
// update and side effects that perform it.
func PlanTransition(q *model.Quest, to model.QuestStatus, opts TransitionOptions, now time.Time) (*Plan, error) {
	from := q.Status
	if !IsTransitionAllowed(from, to) {
		return nil, fmt.Errorf("%w: cannot move quest from %q to %q", ErrInvalidTransition, from, to)
	}
	if RequiresReason(to) && strings.TrimSpace(opts.Reason) == "" {
		return nil, fmt.Errorf("%w: status %q", ErrMissingReason, to)
	}

	newStatus := to
	prevStatus := from
	plan := &Plan{
		QuestID:   q.ID.String(),
		NewStatus: to,
		Update: model.QuestUpdate{
			Status:         &newStatus,
			PreviousStatus: &prevStatus,
			ExpectStatus:   from,
		},
	}
	if effect, ok := statusEffects[to]; ok {
		effect(&plan.Update, from, opts.Reason, now)
	}

	before := map[string]any{"status": string(from)}
	after := map[string]any{
		"status":      string(to),
		"reason":      nullable(opts.Reason),
		"admin_notes": nullable(opts.AdminNotes),
	}

	plan.addEffect(AuditEffect{Record: model.AuditRecord{
		ActorID:     opts.ActorID,
		Action:      "quest_status_" + string(to),
		TargetTable: questsTable,
		TargetID:    q.ID.String(),
		OldValues:   before,
		NewValues:   after,
		CreatedAt:   now,
	}})

	refs := map[string]any{"quest_id": q.ID.String()}
	if q.CreatorID != nil {
		refs["creator_id"] = q.CreatorID.String()
	}
	meta := map[string]any{"source": "quest_lifecycle"}
	if opts.ActorID != nil {
		meta["actor_id"] = opts.ActorID.String()
	}
	plan.addEffect(OpsEventEffect{Event: model.OpsEvent{
		EventType:   "quest_status_changed",
		EntityRefs:  refs,
		BeforeState: copyMap(before),
		AfterState:  copyMap(after),
		Metadata:    meta,
		CreatedAt:   now,
	}})

	if opts.NotifyCreator && q.CreatorID != nil {
		plan.addEffect(statusNotification(q, *q.CreatorID, to, opts.Reason, now))
	}

	return plan, nil
}

// ParticipantNotifications builds one status notification per participant.
// The creator is skipped when notifyCreator already covers them.
func ParticipantNotifications(q *model.Quest, to model.QuestStatus, reason string, userIDs []uuid.UUID, skipCreator bool, now time.Time) []SideEffect {
	seen := make(map[uuid.UUID]struct{}, len(userIDs))
	if skipCreator && q.CreatorID != nil {
		seen[*q.CreatorID] = struct{}{}
	}

	var out []SideEffect
	for _, id := range userIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, statusNotification(q, id, to, reason, now))
	}
	return out
}

func statusNotification(q *model.Quest, userID uuid.UUID, to model.QuestStatus, reason string, now time.Time) NotificationEffect {
	questID := q.ID
	return NotificationEffect{Notification: model.Notification{
		UserID:    userID,
		Type:      NotificationTypeQuestStatus,
		Title:     StatusTitle(to),
		Body:      StatusMessage(q.Title, to, reason),
		QuestID:   &questID,
		CreatedAt: now,
	}}
}

// PlanReview records an admin review decision. Any action is accepted from
// any prior review status. Approving with ShouldPublish opens the quest
// directly without consulting the transition table.
func PlanReview(q *model.Quest, action model.ReviewAction, opts ReviewOptions, now time.Time) (*Plan, error) {
	reviewStatus, ok := ReviewStatusFor(action)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownReviewAction, action)
	}

	revision := q.RevisionCount + 1
	expectRevision := q.RevisionCount
	plan := &Plan{
		QuestID:   q.ID.String(),
		NewStatus: q.Status,
		Update: model.QuestUpdate{
			ReviewStatus:        &reviewStatus,
			RevisionCount:       &revision,
			ExpectRevisionCount: &expectRevision,
		},
	}
	if notes := strings.TrimSpace(opts.AdminNotes); notes != "" {
		plan.Update.AdminNotes = &opts.AdminNotes
	} else {
		plan.Update.ClearAdminNotes = true
	}

	published := action == model.ReviewActionApprove && opts.ShouldPublish
	if published {
		open := model.QuestStatusOpen
		plan.Update.Status = &open
		plan.NewStatus = open
		if q.Status != open {
			prev := q.Status
			plan.Update.PreviousStatus = &prev
		}
		if q.Status == model.QuestStatusPaused {
			plan.Update.ClearPause = true
		}
		if q.PublishedAt == nil {
			plan.Update.PublishedAt = &now
		}
	}

	plan.addEffect(AuditEffect{Record: model.AuditRecord{
		ActorID:     opts.ActorID,
		Action:      "quest_review_" + string(action),
		TargetTable: questsTable,
		TargetID:    q.ID.String(),
		OldValues: map[string]any{
			"review_status":  string(q.ReviewStatus),
			"status":         string(q.Status),
			"revision_count": q.RevisionCount,
		},
		NewValues: map[string]any{
			"review_status":  string(reviewStatus),
			"status":         string(plan.NewStatus),
			"revision_count": revision,
			"admin_notes":    nullable(opts.AdminNotes),
			"published":      published,
		},
		CreatedAt: now,
	}})

	if q.CreatorID != nil {
		questID := q.ID
		plan.addEffect(NotificationEffect{Notification: model.Notification{
			UserID:    *q.CreatorID,
			Type:      NotificationTypeQuestReview,
			Title:     ReviewTitle(action),
			Body:      ReviewMessage(q.Title, action, opts.AdminNotes),
			QuestID:   &questID,
			CreatedAt: now,
		}})
	}

	return plan, nil
}

// PlanSoftDelete hides a cancelled or revoked quest that no active signup
// still references. The reason is only kept in the audit trail.
func PlanSoftDelete(q *model.Quest, activeSignups int, reason string, actorID *uuid.UUID, now time.Time) (*Plan, error) {
	if !IsDeletable(q.Status) {
		return nil, fmt.Errorf("%w: status is %q", ErrInvalidState, q.Status)
	}
	if activeSignups > 0 {
		return nil, fmt.Errorf("%w: %d signups", ErrHasActiveReferences, activeSignups)
	}

	plan := &Plan{
		QuestID:   q.ID.String(),
		NewStatus: q.Status,
		Update: model.QuestUpdate{
			DeletedAt:    &now,
			ExpectStatus: q.Status,
		},
	}
	plan.addEffect(AuditEffect{Record: model.AuditRecord{
		ActorID:     actorID,
		Action:      "quest_soft_delete",
		TargetTable: questsTable,
		TargetID:    q.ID.String(),
		OldValues: map[string]any{
			"status":     string(q.Status),
			"deleted_at": nil,
		},
		NewValues: map[string]any{
			"deleted_at": now.UTC().Format(time.RFC3339),
			"reason":     nullable(reason),
		},
		CreatedAt: now,
	}})

	return plan, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func copyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
