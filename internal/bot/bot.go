package bot

import (
	"context"
	"fmt"
	"html"
	"log"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"task-reminder/internal/model"
	"task-reminder/internal/repository"
	"task-reminder/internal/service"
)

const (
	cbReadPrefix     = "read:"
	cbCompletePrefix = "complete:"

	historyPageSize = 10
)

// Bot is the Telegram delivery channel and the "user responded" boundary:
// fired alerts are sent to the configured chat, and acknowledging one flips
// its history record's read flag.
type Bot struct {
	api     *tgbotapi.BotAPI
	chatID  int64
	planner *service.PlannerService
	history *repository.HistoryStore
}

func New(token string, chatID int64, planner *service.PlannerService, history *repository.HistoryStore) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	log.Printf("[info] bot authorized on account %s", api.Self.UserName)

	return &Bot{api: api, chatID: chatID, planner: planner, history: history}, nil
}

// Send delivers one notification record to the chat with an acknowledgment
// button. Implements platform.Sender.
func (b *Bot) Send(_ context.Context, rec model.NotificationRecord) error {
	text := fmt.Sprintf("<b>%s</b>\n%s", html.EscapeString(rec.Title), html.EscapeString(rec.Body))
	msg := tgbotapi.NewMessage(b.chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Mark read", cbReadPrefix+rec.ID),
		),
	)
	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("send notification %s: %w", rec.ID, err)
	}
	return nil
}

// Start begins polling updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.api.GetUpdatesChan(updateConfig)

	log.Println("[info] start polling updates")
	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.CallbackQuery != nil {
				if err := b.handleCallback(ctx, update.CallbackQuery); err != nil {
					log.Printf("[error] handle callback: %v", err)
				}
				continue
			}
			if update.Message != nil && update.Message.Chat.ID == b.chatID {
				if err := b.handleMessage(ctx, update.Message); err != nil {
					log.Printf("[error] handle message: %v", err)
				}
			}
		}
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	switch msg.Command() {
	case "tasks":
		return b.sendTaskList(ctx)
	case "history":
		return b.sendHistory(ctx)
	case "clearhistory":
		if err := b.history.Clear(ctx); err != nil {
			return err
		}
		return b.sendText("🗑 Notification history cleared.")
	case "help", "start":
		return b.sendText("Commands: /tasks, /history, /clearhistory")
	default:
		return nil
	}
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	ack := tgbotapi.NewCallback(cb.ID, "")
	switch {
	case strings.HasPrefix(cb.Data, cbReadPrefix):
		id := strings.TrimPrefix(cb.Data, cbReadPrefix)
		if err := b.history.MarkRead(ctx, id); err != nil {
			return err
		}
		ack.Text = "Marked as read"
	case strings.HasPrefix(cb.Data, cbCompletePrefix):
		id := strings.TrimPrefix(cb.Data, cbCompletePrefix)
		if _, err := b.planner.CompleteTask(ctx, id); err != nil {
			return err
		}
		ack.Text = "Task completed"
	}
	if _, err := b.api.Request(ack); err != nil {
		return fmt.Errorf("answer callback: %w", err)
	}
	return nil
}

func (b *Bot) sendTaskList(ctx context.Context) error {
	tasks := b.planner.LoadTasks(ctx)
	if len(tasks) == 0 {
		return b.sendText("No tasks yet.")
	}

	var sb strings.Builder
	sb.WriteString("📋 <b>Tasks</b>\n")
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, t := range tasks {
		at := t.Time
		sb.WriteString(fmt.Sprintf("%s %s at %02d:%02d on %s\n",
			statusIcon(t.Status), html.EscapeString(t.Name), at.Hour(), at.Minute(), formatDays(t.RepeatDays)))
		if t.Status != model.StatusComplete {
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("✅ "+t.Name, cbCompletePrefix+t.ID),
			))
		}
	}

	msg := tgbotapi.NewMessage(b.chatID, strings.TrimSpace(sb.String()))
	msg.ParseMode = tgbotapi.ModeHTML
	if len(rows) > 0 {
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	}
	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("send task list: %w", err)
	}
	return nil
}

func (b *Bot) sendHistory(ctx context.Context) error {
	records := b.history.Load(ctx)
	if len(records) == 0 {
		return b.sendText("Notification history is empty.")
	}

	var sb strings.Builder
	sb.WriteString("🔔 <b>Recent notifications</b>\n")
	start := len(records) - historyPageSize
	if start < 0 {
		start = 0
	}
	for i := len(records) - 1; i >= start; i-- {
		rec := records[i]
		marker := "•"
		if rec.Read {
			marker = "✓"
		}
		sb.WriteString(fmt.Sprintf("%s %s <i>(%s)</i>\n",
			marker, html.EscapeString(rec.Title), rec.Timestamp.Format("02.01 15:04")))
	}
	return b.sendText(strings.TrimSpace(sb.String()))
}

func (b *Bot) sendText(text string) error {
	msg := tgbotapi.NewMessage(b.chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

func statusIcon(status model.TaskStatus) string {
	switch status {
	case model.StatusComplete:
		return "✅"
	case model.StatusOverdue:
		return "⚠️"
	default:
		return "🟢"
	}
}

func formatDays(days []model.Weekday) string {
	parts := make([]string, 0, len(days))
	for _, d := range days {
		parts = append(parts, d.String()[:3])
	}
	return strings.Join(parts, ", ")
}
