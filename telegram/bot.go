package telegram

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/mroshb/skill_swap/internal/config"
	"github.com/mroshb/skill_swap/internal/models"
	"github.com/mroshb/skill_swap/internal/services"
	"github.com/mroshb/skill_swap/pkg/errors"
	"github.com/mroshb/skill_swap/pkg/logger"
)

const (
	workerCount     = 10
	workerQueueSize = 100
	updateTimeout   = 10 * time.Second
)

// Sender is the part of the Bot API used to talk to chats.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// UserLookup resolves the account linked to a Telegram user.
type UserLookup interface {
	GetUserByTelegramID(ctx context.Context, telegramID int64) (*models.User, error)
}

type Bot struct {
	api    *tgbotapi.BotAPI
	sender Sender
	swaps  *services.SwapService
	users  UserLookup

	// Worker pool; updates are hashed by Telegram user id so each user's
	// updates are handled in order.
	workerChans []chan tgbotapi.Update
	workers     sync.WaitGroup

	stop         chan struct{}
	listenerDone chan struct{}
	stopOnce     sync.Once
}

func InitBot(cfg *config.Config, swaps *services.SwapService, users UserLookup) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	if cfg.IsDevelopment() {
		api.Debug = true
	}

	logger.Info("Authorized on account", "username", api.Self.UserName)

	bot := newBot(api, swaps, users, workerCount)
	bot.api = api

	go bot.startUpdateListener()

	return bot, nil
}

func newBot(sender Sender, swaps *services.SwapService, users UserLookup, workers int) *Bot {
	bot := &Bot{
		sender:       sender,
		swaps:        swaps,
		users:        users,
		workerChans:  make([]chan tgbotapi.Update, workers),
		stop:         make(chan struct{}),
		listenerDone: make(chan struct{}),
	}

	for i := range bot.workerChans {
		bot.workerChans[i] = make(chan tgbotapi.Update, workerQueueSize)
		bot.workers.Add(1)
		go bot.startWorker(bot.workerChans[i])
	}

	return bot
}

func (b *Bot) startUpdateListener() {
	defer close(b.listenerDone)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	for {
		logger.Info("Starting update listener...")
		updates := b.api.GetUpdatesChan(u)

		for update := range updates {
			b.dispatch(update)
		}

		select {
		case <-b.stop:
			return
		case <-time.After(5 * time.Second):
			logger.Warn("Update channel closed. Restarting...")
		}
	}
}

func workerIndex(telegramID int64, workers int) int {
	idx := telegramID % int64(workers)
	if idx < 0 {
		idx = -idx
	}
	return int(idx)
}

func (b *Bot) dispatch(update tgbotapi.Update) {
	var userID int64
	if update.Message != nil && update.Message.From != nil {
		userID = update.Message.From.ID
	} else if update.CallbackQuery != nil && update.CallbackQuery.From != nil {
		userID = update.CallbackQuery.From.ID
	}

	if userID == 0 {
		return
	}
	b.workerChans[workerIndex(userID, len(b.workerChans))] <- update
}

func (b *Bot) startWorker(ch chan tgbotapi.Update) {
	defer b.workers.Done()
	for update := range ch {
		b.handleUpdate(update)
	}
}

// Stop stops polling and waits for queued updates to be handled.
func (b *Bot) Stop() {
	b.stopOnce.Do(func() {
		close(b.stop)
		if b.api != nil {
			b.api.StopReceivingUpdates()
			<-b.listenerDone
		}
		for _, ch := range b.workerChans {
			close(ch)
		}
		b.workers.Wait()
		logger.Info("Bot stopped receiving updates")
	})
}

func (b *Bot) handleUpdate(update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Panic in handleUpdate", "error", r)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), updateTimeout)
	defer cancel()

	if update.Message != nil {
		b.handleMessage(ctx, update.Message)
	} else if update.CallbackQuery != nil {
		b.handleCallbackQuery(ctx, update.CallbackQuery)
	}
}

func (b *Bot) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	chatID := message.Chat.ID

	logger.Debug("Received message",
		"user_id", message.From.ID,
		"text", message.Text,
	)

	if !message.IsCommand() {
		b.sendMessage(chatID, MsgHelp, nil)
		return
	}

	switch message.Command() {
	case "start":
		b.sendMessage(chatID, MsgWelcome, nil)

	case "help":
		b.sendMessage(chatID, MsgHelp, nil)

	case "swaps":
		user, ok := b.linkedUser(ctx, message.From.ID, chatID)
		if !ok {
			return
		}
		b.listSwaps(ctx, chatID, user, strings.TrimSpace(message.CommandArguments()))

	case "propose":
		user, ok := b.linkedUser(ctx, message.From.ID, chatID)
		if !ok {
			return
		}
		b.proposeSwap(ctx, chatID, user, message.CommandArguments())

	default:
		b.sendMessage(chatID, MsgUnknownCommand, nil)
	}
}

// linkedUser resolves the caller and tells them when their account is not linked.
func (b *Bot) linkedUser(ctx context.Context, telegramID, chatID int64) (*models.User, bool) {
	user, err := b.users.GetUserByTelegramID(ctx, telegramID)
	if err != nil {
		if errors.Is(err, errors.ErrCodeNotFound) {
			b.sendMessage(chatID, MsgNotLinked, nil)
		} else {
			logger.Error("Failed to resolve telegram user", "telegram_id", telegramID, "error", err)
			b.sendMessage(chatID, errorText(err), nil)
		}
		return nil, false
	}
	return user, true
}

func (b *Bot) listSwaps(ctx context.Context, chatID int64, user *models.User, rawStatus string) {
	var status *models.SwapStatus
	if rawStatus != "" {
		s := models.SwapStatus(strings.ToLower(rawStatus))
		status = &s
	}

	offers, err := b.swaps.ListFor(ctx, user.ID, status)
	if err != nil {
		b.sendMessage(chatID, errorText(err), nil)
		return
	}

	if len(offers) == 0 {
		b.sendMessage(chatID, MsgNoSwaps, nil)
		return
	}

	for i := range offers {
		offer := &offers[i]
		if kb, ok := SwapActionsKeyboard(offer, user.ID); ok {
			b.sendMessage(chatID, formatOffer(offer, user.ID), kb)
		} else {
			b.sendMessage(chatID, formatOffer(offer, user.ID), nil)
		}
	}
}

func (b *Bot) proposeSwap(ctx context.Context, chatID int64, user *models.User, args string) {
	counterpartyID, offered, wanted, ok := parseProposeArgs(args)
	if !ok {
		b.sendMessage(chatID, MsgProposeUsage, nil)
		return
	}

	offer, err := b.swaps.Propose(ctx, user.ID, counterpartyID, offered, wanted)
	if err != nil {
		b.sendMessage(chatID, errorText(err), nil)
		return
	}

	kb, _ := SwapActionsKeyboard(offer, user.ID)
	b.sendMessage(chatID, MsgProposed+"\n\n"+formatOffer(offer, user.ID), kb)
}

func (b *Bot) sendMessage(chatID int64, text string, keyboard interface{}) int {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML

	switch kb := keyboard.(type) {
	case tgbotapi.ReplyKeyboardMarkup:
		msg.ReplyMarkup = kb
	case tgbotapi.InlineKeyboardMarkup:
		msg.ReplyMarkup = kb
	case tgbotapi.ReplyKeyboardRemove:
		msg.ReplyMarkup = kb
	}

	maxRetries := 3
	for i := 0; i < maxRetries; i++ {
		sentMsg, err := b.sender.Send(msg)
		if err != nil {
			logger.Error("Failed to send message", "error", err, "chat_id", chatID, "attempt", i+1)

			if isTransient(err) {
				time.Sleep(time.Duration(i+1) * time.Second)
				continue
			}
			return 0
		}
		return sentMsg.MessageID
	}
	return 0
}

func isTransient(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "timeout") ||
		strings.Contains(msg, "network is unreachable")
}

func (b *Bot) editMessage(chatID int64, messageID int, text string, keyboard *tgbotapi.InlineKeyboardMarkup) {
	msg := tgbotapi.NewEditMessageText(chatID, messageID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if keyboard != nil {
		msg.ReplyMarkup = keyboard
	} else {
		msg.ReplyMarkup = &tgbotapi.InlineKeyboardMarkup{InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{}}
	}

	if _, err := b.sender.Send(msg); err != nil {
		logger.Error("Failed to edit message", "error", err, "chat_id", chatID, "message_id", messageID)
	}
}

func (b *Bot) answerCallbackQuery(queryID string, text string, showAlert bool) {
	callback := tgbotapi.NewCallback(queryID, text)
	callback.ShowAlert = showAlert
	if _, err := b.sender.Request(callback); err != nil {
		logger.Error("Failed to answer callback query", "error", err, "query_id", queryID)
	}
}
