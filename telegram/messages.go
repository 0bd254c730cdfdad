package telegram

import (
	stderrors "errors"
	"fmt"
	"html"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/mroshb/skill_swap/internal/models"
	"github.com/mroshb/skill_swap/pkg/errors"
	"github.com/mroshb/skill_swap/pkg/utils"
)

const (
	MsgWelcome = "👋 <b>Welcome to Skill Swap!</b>\n\nTrade what you know for what you want to learn.\n\n" + MsgHelp
	MsgHelp    = "Commands:\n" +
		"/swaps [status] - your swap offers, newest activity first\n" +
		"/propose &lt;user id&gt; &lt;offered skill&gt; | &lt;wanted skill&gt; - offer a swap\n" +
		"/help - this message"
	MsgUnknownCommand = "🤔 Unknown command. Send /help for the list."
	MsgNotLinked      = "🔗 Your Telegram account is not linked to a Skill Swap profile yet."
	MsgNoSwaps        = "📭 You have no swap offers."
	MsgProposeUsage   = "Usage: /propose &lt;user id&gt; &lt;offered skill&gt; | &lt;wanted skill&gt;\nExample: /propose 42 Guitar | Piano"
	MsgProposed       = "📨 Offer sent!"
	MsgActionDone     = "Done"
	MsgUnknownAction  = "This button is no longer valid"
)

var statusEmoji = map[models.SwapStatus]string{
	models.SwapStatusPending:   "⏳",
	models.SwapStatusAccepted:  "🤝",
	models.SwapStatusRejected:  "❌",
	models.SwapStatusCancelled: "🚫",
	models.SwapStatusCompleted: "🏁",
}

func partyName(id uint, brief *models.UserBrief) string {
	if brief == nil || brief.DisplayName == "" {
		return fmt.Sprintf("user #%d", id)
	}
	return html.EscapeString(brief.DisplayName)
}

// formatOffer renders an offer from viewerID's point of view.
func formatOffer(offer *models.SwapOffer, viewerID uint) string {
	var direction string
	if offer.OfferedBy == viewerID {
		direction = "You → " + partyName(offer.RequestedFrom, offer.RequestedFromUser)
	} else {
		direction = partyName(offer.OfferedBy, offer.OfferedByUser) + " → You"
	}

	return fmt.Sprintf("%s <b>%s</b>\n%s\nOffers: %s\nWants: %s\nUpdated: %s",
		statusEmoji[offer.Status],
		strings.ToUpper(string(offer.Status)),
		direction,
		html.EscapeString(offer.OfferedSkill),
		html.EscapeString(offer.WantedSkill),
		offer.UpdatedAt.UTC().Format("2006-01-02 15:04"),
	)
}

// maxAlertLength is Telegram's limit for callback query alert text.
const maxAlertLength = 200

const msgGenericError = "⚠️ Something went wrong, please try again later."

// errorParts returns the code and user-facing message of err, or ok=false
// when the details must not be shown.
func errorParts(err error) (string, string, bool) {
	code := errors.CodeOf(err)
	if code == "" || code == errors.ErrCodeStorage || code == errors.ErrCodeInternal {
		return "", "", false
	}

	var appErr *errors.AppError
	message := err.Error()
	if stderrors.As(err, &appErr) {
		message = appErr.Message
	}
	return code, message, true
}

// errorText renders err for an HTML chat message.
func errorText(err error) string {
	code, message, ok := errorParts(err)
	if !ok {
		return msgGenericError
	}
	return fmt.Sprintf("⚠️ %s: %s", code, html.EscapeString(message))
}

// alertText renders err for a callback query alert, which is plain text.
func alertText(err error) string {
	code, message, ok := errorParts(err)
	if !ok {
		return msgGenericError
	}

	text := fmt.Sprintf("⚠️ %s: %s", code, message)
	if utf8.RuneCountInString(text) > maxAlertLength {
		runes := []rune(text)
		text = string(runes[:maxAlertLength-1]) + "…"
	}
	return text
}

// parseProposeArgs parses "<user id> <offered skill> | <wanted skill>".
func parseProposeArgs(args string) (uint, string, string, bool) {
	args = strings.TrimSpace(args)
	idPart, rest, found := strings.Cut(args, " ")
	if !found {
		return 0, "", "", false
	}

	id, err := strconv.ParseUint(utils.NormalizeDigits(idPart), 10, 32)
	if err != nil || id == 0 {
		return 0, "", "", false
	}

	offered, wanted, found := strings.Cut(rest, "|")
	if !found {
		return 0, "", "", false
	}

	offered, wanted = strings.TrimSpace(offered), strings.TrimSpace(wanted)
	if offered == "" || wanted == "" {
		return 0, "", "", false
	}
	return uint(id), offered, wanted, true
}
