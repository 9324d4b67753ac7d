// Package opsstream mirrors ops events onto a Redis stream so dashboards and
// workers can tail lifecycle activity without polling the database.
package opsstream

import (
	"context"
	"fmt"
	"time"

	"github.com/OpenClique85/openclique-sub010/internal/model"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

const defaultStream = "openclique:ops_events"

type Config struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Stream   string `mapstructure:"stream"`
	MaxLen   int64  `mapstructure:"maxLen"`
}

type Stream struct {
	client *redis.Client
	stream string
	maxLen int64
}

// New connects to Redis and verifies the connection with a ping.
func New(cfg Config) (*Stream, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	return NewWithClient(client, cfg.Stream, cfg.MaxLen), nil
}

func NewWithClient(client *redis.Client, stream string, maxLen int64) *Stream {
	if stream == "" {
		stream = defaultStream
	}
	return &Stream{client: client, stream: stream, maxLen: maxLen}
}

func (s *Stream) Close() error {
	return s.client.Close()
}

// InsertOpsEvent appends the event to the stream. Each map is stored as a
// JSON encoded field.
func (s *Stream) InsertOpsEvent(ctx context.Context, event *model.OpsEvent) error {
	values := map[string]any{
		"event_type": event.EventType,
		"created_at": event.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
	for field, m := range map[string]map[string]any{
		"entity_refs":  event.EntityRefs,
		"before_state": event.BeforeState,
		"after_state":  event.AfterState,
		"metadata":     event.Metadata,
	} {
		raw, err := json.Marshal(m)
		if err != nil {
			return fmt.Errorf("encode %s: %w", field, err)
		}
		values[field] = string(raw)
	}

	args := &redis.XAddArgs{Stream: s.stream, Values: values}
	if s.maxLen > 0 {
		args.MaxLen = s.maxLen
		args.Approx = true
	}
	if err := s.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("xadd %s: %w", s.stream, err)
	}
	return nil
}

// Recent returns up to n events, newest first.
func (s *Stream) Recent(ctx context.Context, n int64) ([]model.OpsEvent, error) {
	msgs, err := s.client.XRevRangeN(ctx, s.stream, "+", "-", n).Result()
	if err != nil {
		return nil, fmt.Errorf("xrevrange %s: %w", s.stream, err)
	}

	events := make([]model.OpsEvent, 0, len(msgs))
	for _, msg := range msgs {
		event, err := decode(msg.Values)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", msg.ID, err)
		}
		events = append(events, event)
	}
	return events, nil
}

func decode(values map[string]any) (model.OpsEvent, error) {
	var event model.OpsEvent
	event.EventType, _ = values["event_type"].(string)
	if raw, ok := values["created_at"].(string); ok {
		t, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return event, err
		}
		event.CreatedAt = t
	}

	for field, dst := range map[string]*map[string]any{
		"entity_refs":  &event.EntityRefs,
		"before_state": &event.BeforeState,
		"after_state":  &event.AfterState,
		"metadata":     &event.Metadata,
	} {
		raw, ok := values[field].(string)
		if !ok {
			continue
		}
		if err := json.Unmarshal([]byte(raw), dst); err != nil {
			return event, fmt.Errorf("%s: %w", field, err)
		}
	}
	return event, nil
}
