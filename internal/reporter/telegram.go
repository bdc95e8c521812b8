package reporter

import (
	"context"
	"fmt"
	"html"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"go-greenhouse-scraper/internal/config"
	"go-greenhouse-scraper/internal/scraper"
)

// sender is the part of *tgbotapi.BotAPI the reporter needs.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// botAPIEndpoint is the Bot API URL template, token then method.
var botAPIEndpoint = tgbotapi.APIEndpoint

type TelegramReporter struct {
	bot    sender
	chatID int64
	logger *zap.Logger
}

func NewTelegramReporter(cfg *config.Config, logger *zap.Logger) (*TelegramReporter, error) {
	bot, err := tgbotapi.NewBotAPIWithAPIEndpoint(cfg.TelegramToken, botAPIEndpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram bot: %w", err)
	}

	//turn this on in case of debug
	//bot.Debug = true

	return newTelegramReporter(bot, cfg.TelegramChatID, logger), nil
}

func newTelegramReporter(bot sender, chatID int64, logger *zap.Logger) *TelegramReporter {
	return &TelegramReporter{
		bot:    bot,
		chatID: chatID,
		logger: logger,
	}
}

// Report sends a status line, then one message per listing. A listing that
// fails to send is logged and the rest still go out.
func (t *TelegramReporter) Report(ctx context.Context, report Report) error {
	if err := t.SendMessage(FormatStatus(report)); err != nil {
		return fmt.Errorf("send telegram status: %w", err)
	}

	failed := 0
	for _, l := range report.Listings {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := t.SendMessage(FormatListing(report.Result.Source, l)); err != nil {
			failed++
			t.logger.Warn("⚠️ Failed to send listing to Telegram",
				zap.String("title", l.Title),
				zap.Error(err),
			)
		}
	}
	if failed > 0 {
		return fmt.Errorf("failed to send %d of %d listings to telegram", failed, len(report.Listings))
	}
	return nil
}

func (t *TelegramReporter) SendMessage(text string) error {
	msg := tgbotapi.NewMessage(t.chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	_, err := t.bot.Send(msg)
	return err
}

// ReportError tells the chat a run failed before anything could be reported.
func (t *TelegramReporter) ReportError(ctx context.Context, errReq error) error {
	text := fmt.Sprintf("⚠️ <b>Greenhouse scraper error</b>:\n%s", html.EscapeString(errReq.Error()))
	return t.SendMessage(text)
}

func FormatStatus(report Report) string {
	if report.Result.Containers == 0 {
		return fmt.Sprintf("ℹ️ No job listings found on %s", html.EscapeString(report.Result.URL))
	}
	return fmt.Sprintf("ℹ️ <b>%s</b>: %d listings on %s (%d skipped, %d filtered out)",
		html.EscapeString(report.Result.Source),
		len(report.Listings),
		html.EscapeString(report.Result.URL),
		report.Skipped(),
		report.Filtered,
	)
}

func FormatListing(source string, l scraper.Listing) string {
	text := fmt.Sprintf(
		"🔥 <b>%s</b>\n"+
			"📍 %s\n",
		html.EscapeString(l.Title),
		html.EscapeString(l.Location),
	)
	if l.URL != "" {
		text += fmt.Sprintf("🔗 <a href=\"%s\">Apply Now</a>\n", html.EscapeString(l.URL))
	}
	text += fmt.Sprintf("🔖 Source: %s", html.EscapeString(source))
	return text
}
