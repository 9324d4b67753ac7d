package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/OpenClique85/openclique-sub010/internal/lifecycle"
	"github.com/OpenClique85/openclique-sub010/internal/metrics"
	"github.com/OpenClique85/openclique-sub010/internal/model"
	"github.com/OpenClique85/openclique-sub010/internal/repository"
	"github.com/OpenClique85/openclique-sub010/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type QuestLifecycleService struct {
	repo     QuestRepository
	dispatch EffectDispatcher
	now      func() time.Time
	log      *zap.Logger
}

func NewQuestLifecycleService(repo QuestRepository, dispatch EffectDispatcher) *QuestLifecycleService {
	return &QuestLifecycleService{
		repo:     repo,
		dispatch: dispatch,
		now:      func() time.Time { return time.Now().UTC() },
		log:      logger.Logger().Named("quest_lifecycle"),
	}
}

// WithClock replaces the time source. Intended for tests.
func (s *QuestLifecycleService) WithClock(now func() time.Time) *QuestLifecycleService {
	s.now = now
	return s
}

func (s *QuestLifecycleService) GetQuest(ctx context.Context, questID uuid.UUID) (quest *model.Quest, err error) {
	defer recoverStore(&err)
	return s.loadQuest(ctx, questID)
}

func (s *QuestLifecycleService) ListQuests(ctx context.Context, filter repository.QuestFilter) (quests []*model.Quest, err error) {
	defer recoverStore(&err)

	quests, err = s.repo.ListQuests(ctx, filter)
	if err != nil {
		return nil, persistenceFailure(err)
	}
	return quests, nil
}

func (s *QuestLifecycleService) TransitionQuestStatus(
	ctx context.Context,
	questID uuid.UUID,
	newStatus model.QuestStatus,
	opts lifecycle.TransitionOptions,
) (res *Result, err error) {
	defer s.recordRejection("transition", &err)
	defer recoverStore(&err)

	quest, err := s.loadQuest(ctx, questID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	plan, err := lifecycle.PlanTransition(quest, newStatus, opts, now)
	if err != nil {
		return nil, err
	}

	if err := s.write(ctx, questID, &plan.Update); err != nil {
		return nil, err
	}

	from := quest.Status
	plan.Update.Apply(quest)
	metrics.QuestTransitionsTotal.WithLabelValues(string(from), string(newStatus)).Inc()
	s.log.Info("quest status changed",
		zap.String("quest_id", questID.String()),
		zap.String("from", string(from)),
		zap.String("to", string(newStatus)))

	effects := plan.Effects
	if opts.NotifyUsers {
		effects = append(effects, s.participantNotifications(ctx, quest, newStatus, opts, now)...)
	}
	s.dispatch.Dispatch(ctx, effects)

	return &Result{NewStatus: newStatus, Quest: quest}, nil
}

func (s *QuestLifecycleService) participantNotifications(
	ctx context.Context,
	quest *model.Quest,
	newStatus model.QuestStatus,
	opts lifecycle.TransitionOptions,
	now time.Time,
) []lifecycle.SideEffect {
	userIDs, err := s.repo.ListActiveSignupUserIDs(ctx, quest.ID)
	if err != nil {
		s.log.Warn("failed to load participants for notification",
			zap.String("quest_id", quest.ID.String()),
			zap.Error(err))
		return nil
	}
	return lifecycle.ParticipantNotifications(quest, newStatus, opts.Reason, userIDs, opts.NotifyCreator, now)
}

func (s *QuestLifecycleService) PerformReviewAction(
	ctx context.Context,
	questID uuid.UUID,
	action model.ReviewAction,
	opts lifecycle.ReviewOptions,
) (res *Result, err error) {
	defer s.recordRejection("review", &err)
	defer recoverStore(&err)

	if _, ok := lifecycle.ReviewStatusFor(action); !ok {
		return nil, fmt.Errorf("%w: %q", lifecycle.ErrUnknownReviewAction, action)
	}

	quest, err := s.loadQuest(ctx, questID)
	if err != nil {
		return nil, err
	}

	plan, err := lifecycle.PlanReview(quest, action, opts, s.now())
	if err != nil {
		return nil, err
	}

	if err := s.write(ctx, questID, &plan.Update); err != nil {
		return nil, err
	}

	published := plan.Update.Status != nil
	plan.Update.Apply(quest)
	metrics.QuestReviewActionsTotal.WithLabelValues(string(action), strconv.FormatBool(published)).Inc()
	s.log.Info("quest reviewed",
		zap.String("quest_id", questID.String()),
		zap.String("action", string(action)),
		zap.Bool("published", published),
		zap.Int("revision_count", quest.RevisionCount))

	s.dispatch.Dispatch(ctx, plan.Effects)

	return &Result{NewStatus: quest.Status, Quest: quest}, nil
}

func (s *QuestLifecycleService) SoftDeleteQuest(ctx context.Context, questID uuid.UUID, reason string, actorID *uuid.UUID) (err error) {
	defer s.recordRejection("soft_delete", &err)
	defer recoverStore(&err)

	quest, err := s.loadQuest(ctx, questID)
	if err != nil {
		return err
	}

	if !lifecycle.IsDeletable(quest.Status) {
		return fmt.Errorf("%w: status is %q", lifecycle.ErrInvalidState, quest.Status)
	}

	active, err := s.repo.CountActiveSignups(ctx, questID)
	if err != nil {
		return persistenceFailure(err)
	}

	plan, err := lifecycle.PlanSoftDelete(quest, active, reason, actorID, s.now())
	if err != nil {
		return err
	}

	if err := s.write(ctx, questID, &plan.Update); err != nil {
		return err
	}

	metrics.QuestSoftDeletesTotal.Inc()
	s.log.Info("quest soft-deleted", zap.String("quest_id", questID.String()))

	s.dispatch.Dispatch(ctx, plan.Effects)
	return nil
}

func (s *QuestLifecycleService) TogglePriorityFlag(ctx context.Context, questID uuid.UUID) (flag bool, err error) {
	defer recoverStore(&err)

	flag, err = s.repo.TogglePriorityFlag(ctx, questID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, lifecycle.ErrNotFound
		}
		return false, persistenceFailure(err)
	}
	return flag, nil
}

func (s *QuestLifecycleService) loadQuest(ctx context.Context, questID uuid.UUID) (*model.Quest, error) {
	quest, err := s.repo.GetQuestByID(ctx, questID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", lifecycle.ErrNotFound, questID)
		}
		return nil, persistenceFailure(err)
	}
	return quest, nil
}

func (s *QuestLifecycleService) write(ctx context.Context, questID uuid.UUID, update *model.QuestUpdate) error {
	err := s.repo.UpdateQuest(ctx, questID, update)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return fmt.Errorf("%w: %s", lifecycle.ErrNotFound, questID)
	case errors.Is(err, repository.ErrConflict):
		return fmt.Errorf("%w: %s", lifecycle.ErrConcurrentModification, questID)
	default:
		return persistenceFailure(err)
	}
}

func (s *QuestLifecycleService) recordRejection(operation string, errp *error) {
	if *errp == nil {
		return
	}
	metrics.OperationRejectionsTotal.WithLabelValues(operation, ErrorKind(*errp)).Inc()
}

// ErrorKind names the lifecycle error class of err for logs, metrics and
// API responses.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, lifecycle.ErrNotFound):
		return "not_found"
	case errors.Is(err, lifecycle.ErrInvalidTransition):
		return "invalid_transition"
	case errors.Is(err, lifecycle.ErrMissingReason):
		return "missing_reason"
	case errors.Is(err, lifecycle.ErrInvalidState):
		return "invalid_state"
	case errors.Is(err, lifecycle.ErrHasActiveReferences):
		return "has_active_references"
	case errors.Is(err, lifecycle.ErrConcurrentModification):
		return "concurrent_modification"
	case errors.Is(err, lifecycle.ErrUnknownReviewAction):
		return "unknown_review_action"
	case errors.Is(err, lifecycle.ErrPersistenceFailure):
		return "persistence_failure"
	default:
		return "unknown"
	}
}

func persistenceFailure(err error) error {
	return fmt.Errorf("%w: %w", lifecycle.ErrPersistenceFailure, err)
}

// recoverStore turns a panic raised by the store layer into a persistence
// failure so callers always get an error value.
func recoverStore(errp *error) {
	if r := recover(); r != nil {
		*errp = fmt.Errorf("%w: store panicked: %v", lifecycle.ErrPersistenceFailure, r)
	}
}
