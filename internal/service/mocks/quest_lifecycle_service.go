package mocks

import (
	"context"

	"github.com/OpenClique85/openclique-sub010/internal/lifecycle"
	"github.com/OpenClique85/openclique-sub010/internal/model"
	"github.com/OpenClique85/openclique-sub010/internal/repository"
	"github.com/OpenClique85/openclique-sub010/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MockQuestLifecycleService struct {
	mock.Mock
}

func (m *MockQuestLifecycleService) GetQuest(ctx context.Context, questID uuid.UUID) (*model.Quest, error) {
	args := m.Called(ctx, questID)
	if q, ok := args.Get(0).(*model.Quest); ok {
		return q, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockQuestLifecycleService) ListQuests(ctx context.Context, filter repository.QuestFilter) ([]*model.Quest, error) {
	args := m.Called(ctx, filter)
	if quests, ok := args.Get(0).([]*model.Quest); ok {
		return quests, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockQuestLifecycleService) TransitionQuestStatus(ctx context.Context, questID uuid.UUID, newStatus model.QuestStatus, opts lifecycle.TransitionOptions) (*service.Result, error) {
	args := m.Called(ctx, questID, newStatus, opts)
	if res, ok := args.Get(0).(*service.Result); ok {
		return res, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockQuestLifecycleService) PerformReviewAction(ctx context.Context, questID uuid.UUID, action model.ReviewAction, opts lifecycle.ReviewOptions) (*service.Result, error) {
	args := m.Called(ctx, questID, action, opts)
	if res, ok := args.Get(0).(*service.Result); ok {
		return res, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockQuestLifecycleService) SoftDeleteQuest(ctx context.Context, questID uuid.UUID, reason string, actorID *uuid.UUID) error {
	args := m.Called(ctx, questID, reason, actorID)
	return args.Error(0)
}

func (m *MockQuestLifecycleService) TogglePriorityFlag(ctx context.Context, questID uuid.UUID) (bool, error) {
	args := m.Called(ctx, questID)
	return args.Bool(0), args.Error(1)
}
