package tg

import (
	"context"
	"fmt"
	"log/slog"
	"stravadash/app/utils"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

func (tg *Telegram) startHandler(ctx context.Context, _ *bot.Bot, update *models.Update) {
	chatID, ok := tg.ownerChat(ctx, update)
	if !ok {
		return
	}
	slog.Debug("received start command", "chat_id", chatID)
	if tg.URL == "" {
		tg.SendMessage(ctx, chatID, helpMessage)
		return
	}

	link := fmt.Sprintf("%s/api/strava/auth", tg.URL)
	_, err := tg.Bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      fmt.Sprintf(authLinkMessage, bot.EscapeMarkdownUnescaped(link)),
		ParseMode: models.ParseModeMarkdown,
	})
	if err != nil {
		slog.Error("failed to send auth message", "err", err, "chat_id", chatID)
	}
}

func (tg *Telegram) syncHandler(ctx context.Context, _ *bot.Bot, update *models.Update) {
	chatID, ok := tg.ownerChat(ctx, update)
	if !ok {
		return
	}
	synced, err := tg.Syncer.Sync(ctx, tg.AthleteID)
	if err != nil {
		slog.Error("sync from telegram failed", "athlete_id", tg.AthleteID, "synced", synced, "err", err)
		tg.SendMessage(ctx, chatID, syncFailedMessage)
		return
	}

	summary, err := tg.Summary.Summary(ctx, tg.AthleteID, tg.now())
	if err != nil {
		tg.SendMessage(ctx, chatID, syncMessage(synced, nil))
		return
	}
	tg.SendMessage(ctx, chatID, syncMessage(synced, &summary))
}

func (tg *Telegram) summaryHandler(ctx context.Context, _ *bot.Bot, update *models.Update) {
	chatID, ok := tg.ownerChat(ctx, update)
	if !ok {
		return
	}
	summary, err := tg.Summary.Summary(ctx, tg.AthleteID, tg.now())
	if err != nil {
		tg.SendMessage(ctx, chatID, defaultBotErrorMessage)
		return
	}
	tg.SendMessage(ctx, chatID, summaryMessage(summary, tg.TargetPaceSKm))
}

func (tg *Telegram) weekHandler(ctx context.Context, _ *bot.Bot, update *models.Update) {
	chatID, ok := tg.ownerChat(ctx, update)
	if !ok {
		return
	}
	now := tg.now()
	weeks, err := tg.Plan.Weeks(ctx, tg.AthleteID, now)
	if err != nil {
		tg.SendMessage(ctx, chatID, defaultBotErrorMessage)
		return
	}

	current := utils.StartOfWeek(now, tg.loc()).Format(utils.DateLayout)
	for i := range weeks {
		if weeks[i].WeekStart == current {
			tg.SendMessage(ctx, chatID, weekMessage(weeks[i], tg.loc()))
			return
		}
	}
	tg.SendMessage(ctx, chatID, noPlanMessage)
}
