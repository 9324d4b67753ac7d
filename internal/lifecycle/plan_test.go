package lifecycle

import (
	"testing"
	"time"

	"github.com/OpenClique85/openclique-sub010/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newQuest(status model.QuestStatus) *model.Quest {
	creator := uuid.New()
	return &model.Quest{
		ID:           uuid.New(),
		Title:        "Sunset Kayak",
		CreatorID:    &creator,
		Status:       status,
		ReviewStatus: model.ReviewStatusPending,
	}
}

func strPtr(s string) *string { return &s }

func TestPlanTransition_InvalidEdges(t *testing.T) {
	now := time.Now()
	for _, from := range model.QuestStatuses {
		for _, to := range model.QuestStatuses {
			if IsTransitionAllowed(from, to) {
				continue
			}
			plan, err := PlanTransition(newQuest(from), to, TransitionOptions{Reason: "x"}, now)
			assert.ErrorIs(t, err, ErrInvalidTransition, "%s -> %s", from, to)
			assert.Nil(t, plan)
			if err != nil {
				assert.Contains(t, err.Error(), string(from))
				assert.Contains(t, err.Error(), string(to))
			}
		}
	}
}

func TestPlanTransition_MissingReason(t *testing.T) {
	tests := []struct {
		name   string
		from   model.QuestStatus
		to     model.QuestStatus
		reason string
	}{
		{name: "cancel without reason", from: model.QuestStatusOpen, to: model.QuestStatusCancelled},
		{name: "revoke without reason", from: model.QuestStatusPaused, to: model.QuestStatusRevoked},
		{name: "blank reason", from: model.QuestStatusClosed, to: model.QuestStatusCancelled, reason: "   "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := PlanTransition(newQuest(tt.from), tt.to, TransitionOptions{Reason: tt.reason}, time.Now())
			assert.ErrorIs(t, err, ErrMissingReason)
		})
	}
}

func TestPlanTransition_ReasonRoundTrips(t *testing.T) {
	now := time.Now()

	plan, err := PlanTransition(newQuest(model.QuestStatusOpen), model.QuestStatusCancelled,
		TransitionOptions{Reason: "  weather  "}, now)
	require.NoError(t, err)
	require.NotNil(t, plan.Update.CancelledReason)
	assert.Equal(t, "  weather  ", *plan.Update.CancelledReason)

	plan, err = PlanTransition(newQuest(model.QuestStatusOpen), model.QuestStatusRevoked,
		TransitionOptions{Reason: "policy violation"}, now)
	require.NoError(t, err)
	require.NotNil(t, plan.Update.RevokedReason)
	assert.Equal(t, "policy violation", *plan.Update.RevokedReason)
	require.NotNil(t, plan.Update.RevokedAt)
	assert.Equal(t, now, *plan.Update.RevokedAt)
}

func TestPlanTransition_Pause(t *testing.T) {
	now := time.Now()
	q := newQuest(model.QuestStatusOpen)

	plan, err := PlanTransition(q, model.QuestStatusPaused, TransitionOptions{Reason: "venue unavailable"}, now)
	require.NoError(t, err)

	u := plan.Update
	assert.Equal(t, model.QuestStatusPaused, *u.Status)
	assert.Equal(t, model.QuestStatusOpen, *u.PreviousStatus)
	assert.Equal(t, model.QuestStatusOpen, u.ExpectStatus)
	assert.Equal(t, "venue unavailable", *u.PausedReason)
	assert.Equal(t, now, *u.PausedAt)
	assert.False(t, u.ClearPause)
}

func TestPlanTransition_PauseWithoutReasonClearsOldReason(t *testing.T) {
	q := newQuest(model.QuestStatusOpen)
	q.PausedReason = strPtr("venue unavailable")

	plan, err := PlanTransition(q, model.QuestStatusPaused, TransitionOptions{}, time.Now())
	require.NoError(t, err)
	assert.Nil(t, plan.Update.PausedReason)
	assert.True(t, plan.Update.ClearPausedReason)

	plan.Update.Apply(q)
	assert.NotNil(t, q.PausedAt)
	assert.Nil(t, q.PausedReason)
}

func TestPlanTransition_ResumeClearsPause(t *testing.T) {
	pausedAt := time.Now().Add(-time.Hour)
	q := newQuest(model.QuestStatusPaused)
	q.PausedAt = &pausedAt
	q.PausedReason = strPtr("venue unavailable")

	plan, err := PlanTransition(q, model.QuestStatusOpen, TransitionOptions{}, time.Now())
	require.NoError(t, err)
	assert.True(t, plan.Update.ClearPause)

	plan.Update.Apply(q)
	assert.Equal(t, model.QuestStatusOpen, q.Status)
	assert.Equal(t, model.QuestStatusPaused, *q.PreviousStatus)
	assert.Nil(t, q.PausedAt)
	assert.Nil(t, q.PausedReason)
}

func TestPlanTransition_ReopenFromClosedKeepsPauseUntouched(t *testing.T) {
	plan, err := PlanTransition(newQuest(model.QuestStatusClosed), model.QuestStatusOpen, TransitionOptions{}, time.Now())
	require.NoError(t, err)
	assert.False(t, plan.Update.ClearPause)
}

func TestPlanTransition_Effects(t *testing.T) {
	actor := uuid.New()
	q := newQuest(model.QuestStatusOpen)

	plan, err := PlanTransition(q, model.QuestStatusRevoked, TransitionOptions{
		Reason:        "spam",
		AdminNotes:    "reported twice",
		NotifyCreator: true,
		ActorID:       &actor,
	}, time.Now())
	require.NoError(t, err)
	require.Len(t, plan.Effects, 3)

	audit, ok := plan.Effects[0].(AuditEffect)
	require.True(t, ok)
	assert.Equal(t, "quest_status_revoked", audit.Record.Action)
	assert.Equal(t, "quests", audit.Record.TargetTable)
	assert.Equal(t, q.ID.String(), audit.Record.TargetID)
	assert.Equal(t, &actor, audit.Record.ActorID)
	assert.Equal(t, map[string]any{"status": "open"}, audit.Record.OldValues)
	assert.Equal(t, map[string]any{"status": "revoked", "reason": "spam", "admin_notes": "reported twice"}, audit.Record.NewValues)

	ops, ok := plan.Effects[1].(OpsEventEffect)
	require.True(t, ok)
	assert.Equal(t, "quest_status_changed", ops.Event.EventType)
	assert.Equal(t, audit.Record.OldValues, ops.Event.BeforeState)
	assert.Equal(t, audit.Record.NewValues, ops.Event.AfterState)
	assert.Equal(t, q.CreatorID.String(), ops.Event.EntityRefs["creator_id"])

	n, ok := plan.Effects[2].(NotificationEffect)
	require.True(t, ok)
	assert.Equal(t, *q.CreatorID, n.Notification.UserID)
	assert.Equal(t, NotificationTypeQuestStatus, n.Notification.Type)
	assert.Contains(t, n.Notification.Body, "has been revoked by an administrator")
	assert.Contains(t, n.Notification.Body, "Reason: spam")
}

func TestPlanTransition_NoCreatorNoNotification(t *testing.T) {
	q := newQuest(model.QuestStatusDraft)
	q.CreatorID = nil

	plan, err := PlanTransition(q, model.QuestStatusOpen, TransitionOptions{NotifyCreator: true}, time.Now())
	require.NoError(t, err)
	assert.Empty(t, plan.Notifications())
	assert.Len(t, plan.Audits(), 1)
}

func TestParticipantNotifications(t *testing.T) {
	q := newQuest(model.QuestStatusOpen)
	a, b := uuid.New(), uuid.New()

	effects := ParticipantNotifications(q, model.QuestStatusCancelled, "rain", []uuid.UUID{a, b, a, *q.CreatorID}, true, time.Now())
	require.Len(t, effects, 2)

	n := effects[0].(NotificationEffect).Notification
	assert.Equal(t, a, n.UserID)
	assert.Equal(t, `Your quest "Sunset Kayak" has been cancelled. Reason: rain`, n.Body)
	assert.Equal(t, b, effects[1].(NotificationEffect).Notification.UserID)
}

func TestPlanReview(t *testing.T) {
	tests := []struct {
		name          string
		status        model.QuestStatus
		action        model.ReviewAction
		opts          ReviewOptions
		wantReview    model.ReviewStatus
		wantStatus    model.QuestStatus
		wantPublished bool
		wantBody      string
	}{
		{
			name:          "approve and publish from draft",
			status:        model.QuestStatusDraft,
			action:        model.ReviewActionApprove,
			opts:          ReviewOptions{ShouldPublish: true},
			wantReview:    model.ReviewStatusApproved,
			wantStatus:    model.QuestStatusOpen,
			wantPublished: true,
			wantBody:      "has been approved",
		},
		{
			name:          "approve and publish bypasses the transition table",
			status:        model.QuestStatusRevoked,
			action:        model.ReviewActionApprove,
			opts:          ReviewOptions{ShouldPublish: true},
			wantReview:    model.ReviewStatusApproved,
			wantStatus:    model.QuestStatusOpen,
			wantPublished: true,
			wantBody:      "has been approved",
		},
		{
			name:       "approve without publish",
			status:     model.QuestStatusDraft,
			action:     model.ReviewActionApprove,
			wantReview: model.ReviewStatusApproved,
			wantStatus: model.QuestStatusDraft,
			wantBody:   "has been approved",
		},
		{
			name:       "reject ignores publish",
			status:     model.QuestStatusDraft,
			action:     model.ReviewActionReject,
			opts:       ReviewOptions{ShouldPublish: true, AdminNotes: "missing venue"},
			wantReview: model.ReviewStatusRejected,
			wantStatus: model.QuestStatusDraft,
			wantBody:   "has been rejected. Admin notes: missing venue",
		},
		{
			name:       "request changes",
			status:     model.QuestStatusOpen,
			action:     model.ReviewActionRequestChanges,
			wantReview: model.ReviewStatusNeedsChanges,
			wantStatus: model.QuestStatusOpen,
			wantBody:   "requires changes before approval",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			now := time.Now()
			q := newQuest(tt.status)
			q.RevisionCount = 4

			plan, err := PlanReview(q, tt.action, tt.opts, now)
			require.NoError(t, err)

			plan.Update.Apply(q)
			assert.Equal(t, tt.wantReview, q.ReviewStatus)
			assert.Equal(t, tt.wantStatus, q.Status)
			assert.Equal(t, 5, q.RevisionCount)
			assert.Equal(t, 4, *plan.Update.ExpectRevisionCount)
			if tt.wantPublished {
				require.NotNil(t, q.PublishedAt)
				assert.Equal(t, now, *q.PublishedAt)
			} else {
				assert.Nil(t, q.PublishedAt)
			}

			audits := plan.Audits()
			require.Len(t, audits, 1)
			assert.Equal(t, "quest_review_"+string(tt.action), audits[0].Action)
			assert.Equal(t, string(model.ReviewStatusPending), audits[0].OldValues["review_status"])

			notifications := plan.Notifications()
			require.Len(t, notifications, 1)
			assert.Contains(t, notifications[0].Body, tt.wantBody)
		})
	}
}

func TestPlanReview_AdminNotes(t *testing.T) {
	q := newQuest(model.QuestStatusDraft)
	q.AdminNotes = strPtr("old notes")

	plan, err := PlanReview(q, model.ReviewActionReject, ReviewOptions{}, time.Now())
	require.NoError(t, err)
	assert.True(t, plan.Update.ClearAdminNotes)
	plan.Update.Apply(q)
	assert.Nil(t, q.AdminNotes)

	plan, err = PlanReview(q, model.ReviewActionReject, ReviewOptions{AdminNotes: "fix photos"}, time.Now())
	require.NoError(t, err)
	plan.Update.Apply(q)
	require.NotNil(t, q.AdminNotes)
	assert.Equal(t, "fix photos", *q.AdminNotes)
}

func TestPlanReview_KeepsFirstPublishTime(t *testing.T) {
	first := time.Now().Add(-48 * time.Hour)
	q := newQuest(model.QuestStatusPaused)
	q.PublishedAt = &first

	plan, err := PlanReview(q, model.ReviewActionApprove, ReviewOptions{ShouldPublish: true}, time.Now())
	require.NoError(t, err)
	assert.Nil(t, plan.Update.PublishedAt)
	assert.Equal(t, model.QuestStatusOpen, *plan.Update.Status)
	assert.Equal(t, model.QuestStatusPaused, *plan.Update.PreviousStatus)
}

func TestPlanReview_PublishFromPausedClearsPause(t *testing.T) {
	pausedAt := time.Now().Add(-time.Hour)
	q := newQuest(model.QuestStatusPaused)
	q.PausedAt = &pausedAt
	q.PausedReason = strPtr("venue unavailable")

	plan, err := PlanReview(q, model.ReviewActionApprove, ReviewOptions{ShouldPublish: true}, time.Now())
	require.NoError(t, err)
	assert.True(t, plan.Update.ClearPause)

	plan.Update.Apply(q)
	assert.Equal(t, model.QuestStatusOpen, q.Status)
	assert.Nil(t, q.PausedAt)
	assert.Nil(t, q.PausedReason)
}

func TestPlanReview_PublishFromDraftKeepsPauseUntouched(t *testing.T) {
	plan, err := PlanReview(newQuest(model.QuestStatusDraft), model.ReviewActionApprove, ReviewOptions{ShouldPublish: true}, time.Now())
	require.NoError(t, err)
	assert.False(t, plan.Update.ClearPause)
}

func TestPlanReview_UnknownAction(t *testing.T) {
	_, err := PlanReview(newQuest(model.QuestStatusDraft), "escalate", ReviewOptions{}, time.Now())
	assert.ErrorIs(t, err, ErrUnknownReviewAction)
}

func TestPlanSoftDelete(t *testing.T) {
	tests := []struct {
		name    string
		status  model.QuestStatus
		active  int
		wantErr error
	}{
		{name: "open", status: model.QuestStatusOpen, wantErr: ErrInvalidState},
		{name: "draft", status: model.QuestStatusDraft, wantErr: ErrInvalidState},
		{name: "closed", status: model.QuestStatusClosed, wantErr: ErrInvalidState},
		{name: "completed", status: model.QuestStatusCompleted, wantErr: ErrInvalidState},
		{name: "paused", status: model.QuestStatusPaused, wantErr: ErrInvalidState},
		{name: "cancelled with signups", status: model.QuestStatusCancelled, active: 2, wantErr: ErrHasActiveReferences},
		{name: "cancelled", status: model.QuestStatusCancelled},
		{name: "revoked", status: model.QuestStatusRevoked},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			now := time.Now()
			plan, err := PlanSoftDelete(newQuest(tt.status), tt.active, "duplicate listing", nil, now)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, now, *plan.Update.DeletedAt)
			audits := plan.Audits()
			require.Len(t, audits, 1)
			assert.Equal(t, "quest_soft_delete", audits[0].Action)
			assert.Equal(t, "duplicate listing", audits[0].NewValues["reason"])
		})
	}
}

func TestStatusMessage(t *testing.T) {
	assert.Equal(t, `Your quest "Board Games" is now live and accepting signups.`,
		StatusMessage("Board Games", model.QuestStatusOpen, ""))
	assert.Equal(t, "Your quest has been paused. Reason: storm",
		StatusMessage("", model.QuestStatusPaused, "storm"))
}
