package telegram

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/mroshb/skill_swap/internal/models"
	"github.com/mroshb/skill_swap/internal/services"
	"github.com/mroshb/skill_swap/pkg/logger"
)

const swapCallbackPrefix = "swap:"

// Swap callback actions
const (
	ActionAccept   = "accept"
	ActionReject   = "reject"
	ActionCancel   = "cancel"
	ActionComplete = "complete"
)

func swapCallbackData(action string, id uuid.UUID) string {
	return swapCallbackPrefix + action + ":" + id.String()
}

// parseSwapCallback splits "swap:<action>:<uuid>".
func parseSwapCallback(data string) (string, uuid.UUID, bool) {
	if !strings.HasPrefix(data, swapCallbackPrefix) {
		return "", uuid.Nil, false
	}

	parts := strings.SplitN(strings.TrimPrefix(data, swapCallbackPrefix), ":", 2)
	if len(parts) != 2 {
		return "", uuid.Nil, false
	}

	switch parts[0] {
	case ActionAccept, ActionReject, ActionCancel, ActionComplete:
	default:
		return "", uuid.Nil, false
	}

	id, err := uuid.Parse(parts[1])
	if err != nil {
		return "", uuid.Nil, false
	}
	return parts[0], id, true
}

func (b *Bot) handleCallbackQuery(ctx context.Context, query *tgbotapi.CallbackQuery) {
	logger.Debug("Callback query", "data", query.Data, "user_id", query.From.ID)

	action, offerID, ok := parseSwapCallback(query.Data)
	if !ok {
		b.answerCallbackQuery(query.ID, MsgUnknownAction, false)
		return
	}

	chatID := query.From.ID
	if query.Message != nil && query.Message.Chat != nil {
		chatID = query.Message.Chat.ID
	}

	user, ok := b.linkedUser(ctx, query.From.ID, chatID)
	if !ok {
		b.answerCallbackQuery(query.ID, "", false)
		return
	}

	offer, err := b.applySwapAction(ctx, action, offerID, user.ID)
	if err != nil {
		b.answerCallbackQuery(query.ID, alertText(err), true)
		return
	}

	b.answerCallbackQuery(query.ID, MsgActionDone, false)

	text := formatOffer(offer, user.ID)
	var keyboard *tgbotapi.InlineKeyboardMarkup
	if kb, ok := SwapActionsKeyboard(offer, user.ID); ok {
		keyboard = &kb
	}

	if query.Message != nil {
		b.editMessage(chatID, query.Message.MessageID, text, keyboard)
		return
	}
	if keyboard != nil {
		b.sendMessage(chatID, text, *keyboard)
	} else {
		b.sendMessage(chatID, text, nil)
	}
}

func (b *Bot) applySwapAction(ctx context.Context, action string, offerID uuid.UUID, userID uint) (*models.SwapOffer, error) {
	switch action {
	case ActionAccept:
		return b.swaps.Respond(ctx, offerID, userID, services.DecisionAccept)
	case ActionReject:
		return b.swaps.Respond(ctx, offerID, userID, services.DecisionReject)
	case ActionCancel:
		return b.swaps.Cancel(ctx, offerID, userID)
	default:
		return b.swaps.Complete(ctx, offerID, userID)
	}
}
