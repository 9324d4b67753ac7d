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
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type questRow struct {
	ID              uuid.UUID      `db:"id"`
	Title           string         `db:"title"`
	CreatorID       uuid.NullUUID  `db:"creator_id"`
	Status          string         `db:"status"`
	PreviousStatus  sql.NullString `db:"previous_status"`
	ReviewStatus    string         `db:"review_status"`
	RevisionCount   int            `db:"revision_count"`
	AdminNotes      sql.NullString `db:"admin_notes"`
	PausedAt        sql.NullTime   `db:"paused_at"`
	PausedReason    sql.NullString `db:"paused_reason"`
	RevokedAt       sql.NullTime   `db:"revoked_at"`
	RevokedReason   sql.NullString `db:"revoked_reason"`
	CancelledReason sql.NullString `db:"cancelled_reason"`
	PublishedAt     sql.NullTime   `db:"published_at"`
	PriorityFlag    bool           `db:"priority_flag"`
	DeletedAt       sql.NullTime   `db:"deleted_at"`
	CreatedAt       time.Time      `db:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at"`
}

var questColumns = []string{
	"id",
	"title",
	"creator_id",
	"status",
	"previous_status",
	"review_status",
	"revision_count",
	"admin_notes",
	"paused_at",
	"paused_reason",
	"revoked_at",
	"revoked_reason",
	"cancelled_reason",
	"published_at",
	"priority_flag",
	"deleted_at",
	"created_at",
	"updated_at",
}

func (q *questRow) toModel() *model.Quest {
	quest := &model.Quest{
		ID:              q.ID,
		Title:           q.Title,
		Status:          model.QuestStatus(q.Status),
		ReviewStatus:    model.ReviewStatus(q.ReviewStatus),
		RevisionCount:   q.RevisionCount,
		AdminNotes:      nullString(q.AdminNotes),
		PausedAt:        nullTime(q.PausedAt),
		PausedReason:    nullString(q.PausedReason),
		RevokedAt:       nullTime(q.RevokedAt),
		RevokedReason:   nullString(q.RevokedReason),
		CancelledReason: nullString(q.CancelledReason),
		PublishedAt:     nullTime(q.PublishedAt),
		PriorityFlag:    q.PriorityFlag,
		DeletedAt:       nullTime(q.DeletedAt),
		CreatedAt:       q.CreatedAt,
		UpdatedAt:       q.UpdatedAt,
	}
	if q.CreatorID.Valid {
		id := q.CreatorID.UUID
		quest.CreatorID = &id
	}
	if q.PreviousStatus.Valid {
		prev := model.QuestStatus(q.PreviousStatus.String)
		quest.PreviousStatus = &prev
	}
	return quest
}

// GetQuestByID returns a quest that has not been soft-deleted.
func (r *Repository) GetQuestByID(ctx context.Context, questID uuid.UUID) (*model.Quest, error) {
	query, args, err := squirrel.
		Select(questColumns...).
		From("quests").
		Where(squirrel.Eq{"id": questID, "deleted_at": nil}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	var row questRow
	err = r.db.GetContext(ctx, &row, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get quest: %w", err)
	}

	return row.toModel(), nil
}

type QuestFilter struct {
	Statuses     []model.QuestStatus
	PriorityOnly bool
	Limit        uint64
	Offset       uint64
}

func (r *Repository) ListQuests(ctx context.Context, filter QuestFilter) ([]*model.Quest, error) {
	builder := squirrel.
		Select(questColumns...).
		From("quests").
		Where(squirrel.Eq{"deleted_at": nil}).
		OrderBy("priority_flag DESC", "created_at DESC").
		PlaceholderFormat(squirrel.Dollar)

	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = string(s)
		}
		builder = builder.Where("status = ANY(?)", pq.Array(statuses))
	}
	if filter.PriorityOnly {
		builder = builder.Where(squirrel.Eq{"priority_flag": true})
	}
	if filter.Limit > 0 {
		builder = builder.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		builder = builder.Offset(filter.Offset)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	var rows []questRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list quests: %w", err)
	}

	quests := make([]*model.Quest, len(rows))
	for i := range rows {
		quests[i] = rows[i].toModel()
	}
	return quests, nil
}

// updateSetMap turns a typed QuestUpdate into the column map of one UPDATE.
func updateSetMap(u *model.QuestUpdate, now time.Time) map[string]interface{} {
	set := map[string]interface{}{
		"updated_at": now,
	}
	if u.Status != nil {
		set["status"] = string(*u.Status)
	}
	if u.PreviousStatus != nil {
		set["previous_status"] = string(*u.PreviousStatus)
	}
	if u.ReviewStatus != nil {
		set["review_status"] = string(*u.ReviewStatus)
	}
	if u.RevisionCount != nil {
		set["revision_count"] = *u.RevisionCount
	}
	if u.ClearAdminNotes {
		set["admin_notes"] = nil
	} else if u.AdminNotes != nil {
		set["admin_notes"] = *u.AdminNotes
	}
	if u.ClearPause {
		set["paused_at"] = nil
		set["paused_reason"] = nil
	} else {
		if u.PausedAt != nil {
			set["paused_at"] = *u.PausedAt
		}
		if u.ClearPausedReason {
			set["paused_reason"] = nil
		} else if u.PausedReason != nil {
			set["paused_reason"] = *u.PausedReason
		}
	}
	if u.RevokedAt != nil {
		set["revoked_at"] = *u.RevokedAt
	}
	if u.RevokedReason != nil {
		set["revoked_reason"] = *u.RevokedReason
	}
	if u.CancelledReason != nil {
		set["cancelled_reason"] = *u.CancelledReason
	}
	if u.PublishedAt != nil {
		set["published_at"] = *u.PublishedAt
	}
	if u.DeletedAt != nil {
		set["deleted_at"] = *u.DeletedAt
	}
	return set
}

func updateWhere(questID uuid.UUID, u *model.QuestUpdate) squirrel.Eq {
	where := squirrel.Eq{
		"id":         questID,
		"deleted_at": nil,
	}
	if u.ExpectStatus != "" {
		where["status"] = string(u.ExpectStatus)
	}
	if u.ExpectRevisionCount != nil {
		where["revision_count"] = *u.ExpectRevisionCount
	}
	return where
}

func buildQuestUpdate(questID uuid.UUID, update *model.QuestUpdate, now time.Time) (string, []interface{}, error) {
	return squirrel.
		Update("quests").
		SetMap(updateSetMap(update, now)).
		Where(updateWhere(questID, update)).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
}

// UpdateQuest applies the whole update in a single conditional statement.
// It returns ErrNotFound when the row is gone and ErrConflict when a guard
// no longer matches.
func (r *Repository) UpdateQuest(ctx context.Context, questID uuid.UUID, update *model.QuestUpdate) error {
	query, args, err := buildQuestUpdate(questID, update, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to build update query: %w", err)
	}

	return r.Transaction(ctx, func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("failed to update quest: %w", err)
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get affected rows: %w", err)
		}
		if rows > 0 {
			return nil
		}

		exists, err := questExists(ctx, tx, questID)
		if err != nil {
			return err
		}
		if !exists {
			return ErrNotFound
		}
		return ErrConflict
	})
}

func questExists(ctx context.Context, q sqlx.QueryerContext, questID uuid.UUID) (bool, error) {
	query, args, err := squirrel.
		Select("1").
		From("quests").
		Where(squirrel.Eq{"id": questID, "deleted_at": nil}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build check query: %w", err)
	}

	var exists int
	err = sqlx.GetContext(ctx, q, &exists, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check quest: %w", err)
	}
	return true, nil
}

// TogglePriorityFlag flips priority_flag and returns the new value.
func (r *Repository) TogglePriorityFlag(ctx context.Context, questID uuid.UUID) (bool, error) {
	query, args, err := squirrel.
		Update("quests").
		Set("priority_flag", squirrel.Expr("NOT priority_flag")).
		Set("updated_at", time.Now().UTC()).
		Where(squirrel.Eq{"id": questID, "deleted_at": nil}).
		Suffix("RETURNING priority_flag").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build update query: %w", err)
	}

	var flag bool
	err = r.db.GetContext(ctx, &flag, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, ErrNotFound
		}
		return false, fmt.Errorf("failed to toggle priority flag: %w", err)
	}
	return flag, nil
}

func nullString(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

func nullTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
