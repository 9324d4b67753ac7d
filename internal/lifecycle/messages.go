package lifecycle

import (
	"fmt"
	"strings"

	"github.com/OpenClique85/openclique-sub010/internal/model"
)

const (
	NotificationTypeQuestStatus = "quest_status_changed"
	NotificationTypeQuestReview = "quest_review"
)

var statusMessages = map[model.QuestStatus]string{
	model.QuestStatusDraft:     "has been moved back to draft",
	model.QuestStatusOpen:      "is now live and accepting signups",
	model.QuestStatusClosed:    "is no longer accepting signups",
	model.QuestStatusCompleted: "has been marked as completed",
	model.QuestStatusCancelled: "has been cancelled",
	model.QuestStatusPaused:    "has been paused",
	model.QuestStatusRevoked:   "has been revoked by an administrator",
}

var statusTitles = map[model.QuestStatus]string{
	model.QuestStatusDraft:     "Quest moved to draft",
	model.QuestStatusOpen:      "Quest is live",
	model.QuestStatusClosed:    "Quest closed",
	model.QuestStatusCompleted: "Quest completed",
	model.QuestStatusCancelled: "Quest cancelled",
	model.QuestStatusPaused:    "Quest paused",
	model.QuestStatusRevoked:   "Quest revoked",
}

var reviewMessages = map[model.ReviewAction]string{
	model.ReviewActionApprove:        "has been approved",
	model.ReviewActionReject:         "has been rejected",
	model.ReviewActionRequestChanges: "requires changes before approval",
}

var reviewTitles = map[model.ReviewAction]string{
	model.ReviewActionApprove:        "Quest approved",
	model.ReviewActionReject:         "Quest rejected",
	model.ReviewActionRequestChanges: "Changes requested",
}

func questLabel(title string) string {
	if strings.TrimSpace(title) == "" {
		return "Your quest"
	}
	return fmt.Sprintf("Your quest %q", title)
}

func StatusTitle(status model.QuestStatus) string {
	if t, ok := statusTitles[status]; ok {
		return t
	}
	return "Quest updated"
}

// StatusMessage builds the notification body for a status change, appending
// the reason when one was given.
func StatusMessage(title string, status model.QuestStatus, reason string) string {
	msg, ok := statusMessages[status]
	if !ok {
		msg = fmt.Sprintf("is now %s", status)
	}
	body := fmt.Sprintf("%s %s.", questLabel(title), msg)
	if reason = strings.TrimSpace(reason); reason != "" {
		body += " Reason: " + reason
	}
	return body
}

func ReviewTitle(action model.ReviewAction) string {
	if t, ok := reviewTitles[action]; ok {
		return t
	}
	return "Quest reviewed"
}

func ReviewMessage(title string, action model.ReviewAction, adminNotes string) string {
	body := fmt.Sprintf("%s %s.", questLabel(title), reviewMessages[action])
	if adminNotes = strings.TrimSpace(adminNotes); adminNotes != "" {
		body += " Admin notes: " + adminNotes
	}
	return body
}
