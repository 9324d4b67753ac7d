package mocks

import (
	"context"

	"github.com/OpenClique85/openclique-sub010/internal/lifecycle"
	"github.com/OpenClique85/openclique-sub010/internal/model"
	"github.com/OpenClique85/openclique-sub010/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MockQuestRepository struct {
	mock.Mock
}

func (m *MockQuestRepository) GetQuestByID(ctx context.Context, questID uuid.UUID) (*model.Quest, error) {
	args := m.Called(ctx, questID)
	if q, ok := args.Get(0).(*model.Quest); ok {
		return q, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockQuestRepository) ListQuests(ctx context.Context, filter repository.QuestFilter) ([]*model.Quest, error) {
	args := m.Called(ctx, filter)
	if quests, ok := args.Get(0).([]*model.Quest); ok {
		return quests, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockQuestRepository) UpdateQuest(ctx context.Context, questID uuid.UUID, update *model.QuestUpdate) error {
	args := m.Called(ctx, questID, update)
	return args.Error(0)
}

func (m *MockQuestRepository) CountActiveSignups(ctx context.Context, questID uuid.UUID) (int, error) {
	args := m.Called(ctx, questID)
	return args.Int(0), args.Error(1)
}

func (m *MockQuestRepository) ListActiveSignupUserIDs(ctx context.Context, questID uuid.UUID) ([]uuid.UUID, error) {
	args := m.Called(ctx, questID)
	if ids, ok := args.Get(0).([]uuid.UUID); ok {
		return ids, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockQuestRepository) TogglePriorityFlag(ctx context.Context, questID uuid.UUID) (bool, error) {
	args := m.Called(ctx, questID)
	return args.Bool(0), args.Error(1)
}

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetUserByTelegramID(ctx context.Context, telegramID int64) (*model.User, error) {
	args := m.Called(ctx, telegramID)
	if u, ok := args.Get(0).(*model.User); ok {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

type MockDispatcher struct {
	mock.Mock
}

func (m *MockDispatcher) Dispatch(ctx context.Context, effects []lifecycle.SideEffect) {
	m.Called(ctx, effects)
}
