package lifecycle

import (
	"testing"

	"github.com/OpenClique85/openclique-sub010/internal/model"

	"github.com/stretchr/testify/assert"
)

func TestIsTransitionAllowed(t *testing.T) {
	expected := map[model.QuestStatus][]model.QuestStatus{
		model.QuestStatusDraft:     {model.QuestStatusOpen, model.QuestStatusPaused},
		model.QuestStatusOpen:      {model.QuestStatusClosed, model.QuestStatusPaused, model.QuestStatusCancelled, model.QuestStatusRevoked},
		model.QuestStatusClosed:    {model.QuestStatusCompleted, model.QuestStatusCancelled, model.QuestStatusOpen},
		model.QuestStatusPaused:    {model.QuestStatusOpen, model.QuestStatusCancelled, model.QuestStatusRevoked},
		model.QuestStatusCompleted: {},
		model.QuestStatusCancelled: {},
		model.QuestStatusRevoked:   {},
	}

	for _, from := range model.QuestStatuses {
		for _, to := range model.QuestStatuses {
			want := false
			for _, allowed := range expected[from] {
				if allowed == to {
					want = true
				}
			}
			assert.Equal(t, want, IsTransitionAllowed(from, to), "%s -> %s", from, to)
		}
	}
}

func TestIsTransitionAllowed_UnknownStatus(t *testing.T) {
	assert.False(t, IsTransitionAllowed("archived", model.QuestStatusOpen))
	assert.False(t, IsTransitionAllowed(model.QuestStatusOpen, "archived"))
}

func TestAllowedTransitions(t *testing.T) {
	tests := []struct {
		name     string
		from     model.QuestStatus
		expected []model.QuestStatus
	}{
		{
			name:     "draft",
			from:     model.QuestStatusDraft,
			expected: []model.QuestStatus{model.QuestStatusOpen, model.QuestStatusPaused},
		},
		{
			name:     "open",
			from:     model.QuestStatusOpen,
			expected: []model.QuestStatus{model.QuestStatusCancelled, model.QuestStatusClosed, model.QuestStatusPaused, model.QuestStatusRevoked},
		},
		{
			name:     "paused",
			from:     model.QuestStatusPaused,
			expected: []model.QuestStatus{model.QuestStatusCancelled, model.QuestStatusOpen, model.QuestStatusRevoked},
		},
		{
			name:     "completed is terminal",
			from:     model.QuestStatusCompleted,
			expected: []model.QuestStatus{},
		},
		{
			name:     "cancelled is terminal",
			from:     model.QuestStatusCancelled,
			expected: []model.QuestStatus{},
		},
		{
			name:     "revoked is terminal",
			from:     model.QuestStatusRevoked,
			expected: []model.QuestStatus{},
		},
		{
			name:     "unknown status",
			from:     "archived",
			expected: []model.QuestStatus{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AllowedTransitions(tt.from)
			assert.NotNil(t, got)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestIsTerminal(t *testing.T) {
	assert.True(t, IsTerminal(model.QuestStatusCompleted))
	assert.True(t, IsTerminal(model.QuestStatusCancelled))
	assert.True(t, IsTerminal(model.QuestStatusRevoked))
	assert.False(t, IsTerminal(model.QuestStatusPaused))
	assert.False(t, IsTerminal("archived"))
}
