package lifecycle

import (
	"github.com/OpenClique85/openclique-sub010/internal/model"
)

// SideEffect is a best-effort write performed after the quest row has been
// persisted. Failures never change the outcome of the operation.
type SideEffect interface {
	Kind() string
}

type AuditEffect struct {
	Record model.AuditRecord
}

func (AuditEffect) Kind() string { return "audit" }

type OpsEventEffect struct {
	Event model.OpsEvent
}

func (OpsEventEffect) Kind() string { return "ops_event" }

type NotificationEffect struct {
	Notification model.Notification
}

func (NotificationEffect) Kind() string { return "notification" }

// Plan is everything an operation needs to do: exactly one row update and
// the side effects to fire once it has been written.
type Plan struct {
	QuestID   string
	NewStatus model.QuestStatus
	Update    model.QuestUpdate
	Effects   []SideEffect
}

func (p *Plan) addEffect(e SideEffect) {
	p.Effects = append(p.Effects, e)
}

func (p *Plan) Audits() []model.AuditRecord {
	var out []model.AuditRecord
	for _, e := range p.Effects {
		if a, ok := e.(AuditEffect); ok {
			out = append(out, a.Record)
		}
	}
	return out
}

func (p *Plan) Notifications() []model.Notification {
	var out []model.Notification
	for _, e := range p.Effects {
		if n, ok := e.(NotificationEffect); ok {
			out = append(out, n.Notification)
		}
	}
	return out
}
