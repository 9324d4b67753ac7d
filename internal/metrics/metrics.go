// Package metrics exposes Prometheus counters for the quest lifecycle.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Labels are restricted to closed enumerations (statuses, actions, error
// kinds); quest and user ids never become label values.
var (
	// QuestTransitionsTotal counts persisted status transitions.
	QuestTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "openclique_quest_transitions_total",
		Help: "Total number of persisted quest status transitions, by from and to status.",
	}, []string{"from", "to"})

	// QuestReviewActionsTotal counts persisted review actions.
	QuestReviewActionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "openclique_quest_review_actions_total",
		Help: "Total number of persisted quest review actions, by action and whether the quest was published.",
	}, []string{"action", "published"})

	// QuestSoftDeletesTotal counts soft-deleted quests.
	QuestSoftDeletesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "openclique_quest_soft_deletes_total",
		Help: "Total number of soft-deleted quests.",
	})

	// OperationRejectionsTotal counts lifecycle operations that failed, by reason.
	OperationRejectionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "openclique_quest_operation_rejections_total",
		Help: "Total number of rejected lifecycle operations, by operation and reason.",
	}, []string{"operation", "reason"})

	// SideEffectsTotal counts dispatched side effects, by kind and outcome.
	SideEffectsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "openclique_quest_side_effects_total",
		Help: "Total number of dispatched lifecycle side effects, by kind and outcome (ok/failed).",
	}, []string{"kind", "outcome"})
)
