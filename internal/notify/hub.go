// Package notify delivers lifecycle notifications to live websocket
// subscribers and to the ops Telegram chat.
package notify

import (
	"context"
	"sync"

	"github.com/OpenClique85/openclique-sub010/internal/model"
	"github.com/OpenClique85/openclique-sub010/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const subscriptionBuffer = 16

// Message is the frame pushed to websocket subscribers.
type Message struct {
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload,omitempty"`
}

type Subscription struct {
	UserID uuid.UUID
	C      chan Message
}

// Hub fans notifications out to live subscribers of the recipient. Delivery
// never blocks: a subscriber with a full buffer misses the message.
type Hub struct {
	mu   sync.RWMutex
	subs map[uuid.UUID]map[*Subscription]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[uuid.UUID]map[*Subscription]struct{})}
}

func (h *Hub) Subscribe(userID uuid.UUID) *Subscription {
	sub := &Subscription{UserID: userID, C: make(chan Message, subscriptionBuffer)}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.subs[userID] == nil {
		h.subs[userID] = make(map[*Subscription]struct{})
	}
	h.subs[userID][sub] = struct{}{}
	return sub
}

// Unsubscribe removes sub and closes its channel. Safe to call twice.
func (h *Hub) Unsubscribe(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.subs[sub.UserID]
	if !ok {
		return
	}
	if _, ok := set[sub]; !ok {
		return
	}
	delete(set, sub)
	if len(set) == 0 {
		delete(h.subs, sub.UserID)
	}
	close(sub.C)
}

func (h *Hub) Subscribers(userID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[userID])
}

func (h *Hub) InsertNotification(_ context.Context, n *model.Notification) error {
	msg := Message{Type: n.Type, Payload: payload(n)}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for sub := range h.subs[n.UserID] {
		select {
		case sub.C <- msg:
		default:
			logger.Logger().Warn("dropping notification for slow subscriber",
				zap.String("user_id", n.UserID.String()),
				zap.String("type", n.Type))
		}
	}
	return nil
}

func payload(n *model.Notification) map[string]any {
	p := map[string]any{
		"id":         n.ID.String(),
		"title":      n.Title,
		"body":       n.Body,
		"created_at": n.CreatedAt,
	}
	if n.QuestID != nil {
		p["quest_id"] = n.QuestID.String()
	}
	return p
}
