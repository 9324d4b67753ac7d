package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/OpenClique85/openclique-sub010/internal/model"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
)

type userRow struct {
	ID          uuid.UUID `db:"id"`
	TelegramID  int64     `db:"telegram_id"`
	DisplayName string    `db:"display_name"`
	IsAdmin     bool      `db:"is_admin"`
	CreatedAt   time.Time `db:"created_at"`
}

func (r *Repository) GetUserByTelegramID(ctx context.Context, telegramID int64) (*model.User, error) {
	query, args, err := squirrel.
		Select("p.id", "p.telegram_id", "p.display_name", "p.created_at",
			"EXISTS (SELECT 1 FROM user_roles ur WHERE ur.user_id = p.id AND ur.role = 'admin') AS is_admin").
		From("profiles p").
		Where(squirrel.Eq{"p.telegram_id": telegramID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	var row userRow
	err = r.db.GetContext(ctx, &row, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &model.User{
		ID:          row.ID,
		TelegramID:  row.TelegramID,
		DisplayName: row.DisplayName,
		IsAdmin:     row.IsAdmin,
		CreatedAt:   row.CreatedAt,
	}, nil
}
