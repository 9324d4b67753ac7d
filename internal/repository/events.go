package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/OpenClique85/openclique-sub010/internal/model"

	"github.com/Masterminds/squirrel"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

func marshalJSONB(v map[string]any) ([]byte, error) {
	if v == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(v)
}

func createdAt(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t
}

func (r *Repository) InsertAuditRecord(ctx context.Context, record *model.AuditRecord) error {
	oldValues, err := marshalJSONB(record.OldValues)
	if err != nil {
		return fmt.Errorf("failed to encode old values: %w", err)
	}
	newValues, err := marshalJSONB(record.NewValues)
	if err != nil {
		return fmt.Errorf("failed to encode new values: %w", err)
	}

	var actor interface{}
	if record.ActorID != nil {
		actor = *record.ActorID
	}

	query, args, err := squirrel.
		Insert("audit_log").
		SetMap(map[string]interface{}{
			"id":           uuid.New(),
			"actor_id":     actor,
			"action":       record.Action,
			"target_table": record.TargetTable,
			"target_id":    record.TargetID,
			"old_values":   oldValues,
			"new_values":   newValues,
			"created_at":   createdAt(record.CreatedAt),
		}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build audit insert query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert audit record: %w", err)
	}
	return nil
}

func (r *Repository) InsertOpsEvent(ctx context.Context, event *model.OpsEvent) error {
	columns := map[string]interface{}{
		"id":         uuid.New(),
		"event_type": event.EventType,
		"created_at": createdAt(event.CreatedAt),
	}
	for column, value := range map[string]map[string]any{
		"entity_refs":  event.EntityRefs,
		"before_state": event.BeforeState,
		"after_state":  event.AfterState,
		"metadata":     event.Metadata,
	} {
		encoded, err := marshalJSONB(value)
		if err != nil {
			return fmt.Errorf("failed to encode %s: %w", column, err)
		}
		columns[column] = encoded
	}

	query, args, err := squirrel.
		Insert("ops_events").
		SetMap(columns).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build ops event insert query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert ops event: %w", err)
	}
	return nil
}

// InsertNotification stores the notification and assigns its id when the
// caller left it empty.
func (r *Repository) InsertNotification(ctx context.Context, n *model.Notification) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	n.CreatedAt = createdAt(n.CreatedAt)

	var questID interface{}
	if n.QuestID != nil {
		questID = *n.QuestID
	}

	query, args, err := squirrel.
		Insert("notifications").
		SetMap(map[string]interface{}{
			"id":         n.ID,
			"user_id":    n.UserID,
			"type":       n.Type,
			"title":      n.Title,
			"body":       n.Body,
			"quest_id":   questID,
			"read":       false,
			"created_at": n.CreatedAt,
		}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build notification insert query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert notification: %w", err)
	}
	return nil
}
