package repository

import (
	"context"
	"fmt"

	"github.com/OpenClique85/openclique-sub010/internal/model"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
)

func activeSignupsFilter(questID uuid.UUID) squirrel.And {
	return squirrel.And{
		squirrel.Eq{"quest_id": questID},
		squirrel.NotEq{"status": string(model.SignupStatusDropped)},
	}
}

// CountActiveSignups counts signups on the quest that have not been dropped.
func (r *Repository) CountActiveSignups(ctx context.Context, questID uuid.UUID) (int, error) {
	query, args, err := squirrel.
		Select("COUNT(*)").
		From("quest_signups").
		Where(activeSignupsFilter(questID)).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build count query: %w", err)
	}

	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("failed to count signups: %w", err)
	}
	return count, nil
}

func (r *Repository) ListActiveSignupUserIDs(ctx context.Context, questID uuid.UUID) ([]uuid.UUID, error) {
	query, args, err := squirrel.
		Select("DISTINCT user_id").
		From("quest_signups").
		Where(activeSignupsFilter(questID)).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build signups query: %w", err)
	}

	var userIDs []uuid.UUID
	if err := r.db.SelectContext(ctx, &userIDs, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list signup users: %w", err)
	}
	return userIDs, nil
}
