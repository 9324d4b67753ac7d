package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/OpenClique85/openclique-sub010/internal/model"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type TelegramConfig struct {
	BotToken string
	ChatID   int64
	Debug    bool
}

// Sender is the part of *tgbotapi.BotAPI the relay needs.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramRelay mirrors lifecycle notifications into an ops chat.
type TelegramRelay struct {
	bot    Sender
	chatID int64
}

func NewTelegramRelay(cfg TelegramConfig) (*TelegramRelay, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize bot: %w", err)
	}
	bot.Debug = cfg.Debug

	return NewTelegramRelayWithSender(bot, cfg.ChatID), nil
}

func NewTelegramRelayWithSender(bot Sender, chatID int64) *TelegramRelay {
	return &TelegramRelay{bot: bot, chatID: chatID}
}

// MirrorNotifications posts one message per distinct notification of a plan.
// Copies addressed to several recipients collapse into a single message.
func (r *TelegramRelay) MirrorNotifications(_ context.Context, ns []model.Notification) error {
	var errs []error
	for _, g := range groupNotifications(ns) {
		msg := tgbotapi.NewMessage(r.chatID, relayText(g))
		msg.DisableWebPagePreview = true

		if _, err := r.bot.Send(msg); err != nil {
			errs = append(errs, fmt.Errorf("telegram send: %w", err))
		}
	}
	return errors.Join(errs...)
}

type relayGroup struct {
	first      model.Notification
	recipients int
}

func groupNotifications(ns []model.Notification) []*relayGroup {
	var groups []*relayGroup
	index := make(map[string]*relayGroup)
	for _, n := range ns {
		key := n.Type + "\x00" + n.Title + "\x00" + n.Body
		if n.QuestID != nil {
			key += "\x00" + n.QuestID.String()
		}
		if g, ok := index[key]; ok {
			g.recipients++
			continue
		}
		g := &relayGroup{first: n, recipients: 1}
		index[key] = g
		groups = append(groups, g)
	}
	return groups
}

func relayText(g *relayGroup) string {
	n := g.first

	var b strings.Builder
	b.WriteString(n.Title)
	b.WriteString("\n")
	b.WriteString(n.Body)
	if n.QuestID != nil {
		fmt.Fprintf(&b, "\nquest: %s", n.QuestID)
	}
	if g.recipients == 1 {
		fmt.Fprintf(&b, "\nrecipient: %s", n.UserID)
	} else {
		fmt.Fprintf(&b, "\nrecipients: %d", g.recipients)
	}
	return b.String()
}
