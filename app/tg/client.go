package tg

import (
	"context"
	"log/slog"
	"stravadash/app/metrics"
	dbModels "stravadash/app/storage/models"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

type BotSender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

type Syncer interface {
	Sync(ctx context.Context, athleteID int64) (int, error)
}

type Summarizer interface {
	Summary(ctx context.Context, athleteID int64, asOf time.Time) (dbModels.Summary, error)
}

type Planner interface {
	Weeks(ctx context.Context, athleteID int64, now time.Time) ([]dbModels.PlanWeek, error)
}

// Telegram talks to a single owner chat about a single athlete.
type Telegram struct {
	APIKey        string
	URL           string
	ChatID        int64
	AthleteID     int64
	TargetPaceSKm float64
	Bot           BotSender
	Syncer        Syncer
	Summary       Summarizer
	Plan          Planner
	Metrics       *metrics.Manager
	Loc           *time.Location
	Now           func() time.Time

	client *bot.Bot
}

func NewTelegramClient(apiKey string, chatID, athleteID int64) *Telegram {
	return &Telegram{
		APIKey:    apiKey,
		ChatID:    chatID,
		AthleteID: athleteID,
		Loc:       time.UTC,
		Now:       time.Now,
	}
}

// Connect creates the bot client and registers the command handlers.
func (tg *Telegram) Connect() error {
	options := []bot.Option{
		bot.WithDefaultHandler(tg.defaultHandler),
	}
	b, err := bot.New(tg.APIKey, options...)
	if err != nil {
		slog.Error("error occurred when spinning up the bot", "err", err)
		return err
	}
	b.RegisterHandler(bot.HandlerTypeMessageText, "/start", bot.MatchTypeExact, tg.startHandler)
	b.RegisterHandler(bot.HandlerTypeMessageText, "/sync", bot.MatchTypeExact, tg.syncHandler)
	b.RegisterHandler(bot.HandlerTypeMessageText, "/summary", bot.MatchTypeExact, tg.summaryHandler)
	b.RegisterHandler(bot.HandlerTypeMessageText, "/week", bot.MatchTypeExact, tg.weekHandler)
	tg.client = b
	tg.Bot = b
	return nil
}

// Start polls for updates until ctx is done. Connect must be called first.
func (tg *Telegram) Start(ctx context.Context) {
	slog.Info("telegram bot started", "chat_id", tg.ChatID)
	tg.client.Start(ctx)
}

// NotifySync reports a finished sync to the owner chat.
func (tg *Telegram) NotifySync(ctx context.Context, synced int, summary *dbModels.Summary) {
	if tg.Bot == nil || tg.ChatID == 0 {
		return
	}
	if tg.SendMessage(ctx, tg.ChatID, syncMessage(synced, summary)) && tg.Metrics != nil {
		tg.Metrics.CounterNotificationsSent.Inc()
	}
}

// SendMessage sends plain text and reports whether it went through.
func (tg *Telegram) SendMessage(ctx context.Context, chatID int64, text string) bool {
	_, err := tg.Bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	})
	if err != nil {
		slog.Error("error while sending telegram message", "chat_id", chatID, "err", err)
		return false
	}
	return true
}

func (tg *Telegram) defaultHandler(ctx context.Context, _ *bot.Bot, update *models.Update) {
	chatID, ok := tg.ownerChat(ctx, update)
	if !ok {
		return
	}
	tg.SendMessage(ctx, chatID, helpMessage)
}

// ownerChat answers strangers with their chat id and reports whether the
// update came from the configured owner chat.
func (tg *Telegram) ownerChat(ctx context.Context, update *models.Update) (int64, bool) {
	if update == nil || update.Message == nil {
		return 0, false
	}
	chatID := update.Message.Chat.ID
	if chatID != tg.ChatID {
		slog.Warn("ignoring message from unknown chat", "chat_id", chatID)
		tg.SendMessage(ctx, chatID, privateBotMessage(chatID))
		return 0, false
	}
	return chatID, true
}

func (tg *Telegram) now() time.Time {
	if tg.Now == nil {
		return time.Now()
	}
	return tg.Now()
}

func (tg *Telegram) loc() *time.Location {
	if tg.Loc == nil {
		return time.UTC
	}
	return tg.Loc
}
