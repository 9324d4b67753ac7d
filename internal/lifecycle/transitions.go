// Package lifecycle holds the quest status graph and builds the updates and
// side effects for every lifecycle operation. Nothing in here touches storage.
package lifecycle

import (
	"sort"

	"github.com/OpenClique85/openclique-sub010/internal/model"
)

var allowedTransitions = map[model.QuestStatus]map[model.QuestStatus]struct{}{
	model.QuestStatusDraft: {
		model.QuestStatusOpen:   {},
		model.QuestStatusPaused: {},
	},
	model.QuestStatusOpen: {
		model.QuestStatusClosed:    {},
		model.QuestStatusPaused:    {},
		model.QuestStatusCancelled: {},
		model.QuestStatusRevoked:   {},
	},
	model.QuestStatusClosed: {
		model.QuestStatusCompleted: {},
		model.QuestStatusCancelled: {},
		model.QuestStatusOpen:      {},
	},
	model.QuestStatusPaused: {
		model.QuestStatusOpen:      {},
		model.QuestStatusCancelled: {},
		model.QuestStatusRevoked:   {},
	},
	model.QuestStatusCompleted: {},
	model.QuestStatusCancelled: {},
	model.QuestStatusRevoked:   {},
}

var reasonRequired = map[model.QuestStatus]struct{}{
	model.QuestStatusCancelled: {},
	model.QuestStatusRevoked:   {},
}

var deletable = map[model.QuestStatus]struct{}{
	model.QuestStatusCancelled: {},
	model.QuestStatusRevoked:   {},
}

func IsTransitionAllowed(from, to model.QuestStatus) bool {
	next, ok := allowedTransitions[from]
	if !ok {
		return false
	}
	_, ok = next[to]
	return ok
}

// AllowedTransitions returns the statuses reachable from `from` in a stable
// order. Terminal and unknown statuses yield an empty, non-nil slice.
func AllowedTransitions(from model.QuestStatus) []model.QuestStatus {
	next := allowedTransitions[from]
	out := make([]model.QuestStatus, 0, len(next))
	for status := range next {
		out = append(out, status)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func IsTerminal(status model.QuestStatus) bool {
	next, ok := allowedTransitions[status]
	return ok && len(next) == 0
}

func RequiresReason(status model.QuestStatus) bool {
	_, ok := reasonRequired[status]
	return ok
}

func IsDeletable(status model.QuestStatus) bool {
	_, ok := deletable[status]
	return ok
}
