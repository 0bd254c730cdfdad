package telegram

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/mroshb/skill_swap/internal/models"
)

// Button labels
const (
	BtnAccept   = "✅ Accept"
	BtnReject   = "❌ Reject"
	BtnCancel   = "🚫 Cancel offer"
	BtnComplete = "🤝 Mark completed"
)

// SwapActionsKeyboard returns the buttons viewerID may press on offer. The
// second result is false when there is nothing to do.
func SwapActionsKeyboard(offer *models.SwapOffer, viewerID uint) (tgbotapi.InlineKeyboardMarkup, bool) {
	var row []tgbotapi.InlineKeyboardButton

	switch offer.Status {
	case models.SwapStatusPending:
		if offer.RequestedFrom == viewerID {
			row = append(row,
				tgbotapi.NewInlineKeyboardButtonData(BtnAccept, swapCallbackData(ActionAccept, offer.ID)),
				tgbotapi.NewInlineKeyboardButtonData(BtnReject, swapCallbackData(ActionReject, offer.ID)),
			)
		}
		if offer.OfferedBy == viewerID {
			row = append(row, tgbotapi.NewInlineKeyboardButtonData(BtnCancel, swapCallbackData(ActionCancel, offer.ID)))
		}
	case models.SwapStatusAccepted:
		if offer.IsParty(viewerID) {
			row = append(row, tgbotapi.NewInlineKeyboardButtonData(BtnComplete, swapCallbackData(ActionComplete, offer.ID)))
		}
	}

	if len(row) == 0 {
		return tgbotapi.InlineKeyboardMarkup{}, false
	}
	return tgbotapi.NewInlineKeyboardMarkup(row), true
}
