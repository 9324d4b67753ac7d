package service

import (
	"context"

	"github.com/OpenClique85/openclique-sub010/internal/lifecycle"
	"github.com/OpenClique85/openclique-sub010/internal/model"
	"github.com/OpenClique85/openclique-sub010/internal/repository"

	"github.com/google/uuid"
)

type QuestLifecycleServiceI interface {
	GetQuest(ctx context.Context, questID uuid.UUID) (*model.Quest, error)
	ListQuests(ctx context.Context, filter repository.QuestFilter) ([]*model.Quest, error)
	TransitionQuestStatus(ctx context.Context, questID uuid.UUID, newStatus model.QuestStatus, opts lifecycle.TransitionOptions) (*Result, error)
	PerformReviewAction(ctx context.Context, questID uuid.UUID, action model.ReviewAction, opts lifecycle.ReviewOptions) (*Result, error)
	SoftDeleteQuest(ctx context.Context, questID uuid.UUID, reason string, actorID *uuid.UUID) error
	TogglePriorityFlag(ctx context.Context, questID uuid.UUID) (bool, error)
}

type QuestRepository interface {
	GetQuestByID(ctx context.Context, questID uuid.UUID) (*model.Quest, error)
	ListQuests(ctx context.Context, filter repository.QuestFilter) ([]*model.Quest, error)
	UpdateQuest(ctx context.Context, questID uuid.UUID, update *model.QuestUpdate) error
	CountActiveSignups(ctx context.Context, questID uuid.UUID) (int, error)
	ListActiveSignupUserIDs(ctx context.Context, questID uuid.UUID) ([]uuid.UUID, error)
	TogglePriorityFlag(ctx context.Context, questID uuid.UUID) (bool, error)
}

type UserRepository interface {
	GetUserByTelegramID(ctx context.Context, telegramID int64) (*model.User, error)
}

type EffectDispatcher interface {
	Dispatch(ctx context.Context, effects []lifecycle.SideEffect)
}

// Result describes a persisted lifecycle operation. Quest is the row as it
// looks after the write.
type Result struct {
	NewStatus model.QuestStatus
	Quest     *model.Quest
}
