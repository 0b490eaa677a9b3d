package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/hazardyk27-sudo/smartxflow-sub001/internal/pkg/models"
)

// Min interval between any two Telegram messages to the same chat to avoid 429 Too Many Requests (~30/min limit).
const telegramSendInterval = 2 * time.Second

// Delivery retry policy for transient Telegram failures.
const (
	telegramSendAttempts = 3
	telegramRetryBackoff = 5 * time.Second
)

// Ensure TelegramNotifier implements AlarmNotifier
var _ AlarmNotifier = (*TelegramNotifier)(nil)

// TelegramNotifier renders alarm records to Telegram messages and delivers
// them through a rate-limited background queue.
type TelegramNotifier struct {
	bot      *tgbotapi.BotAPI
	chatID   int64
	mu       sync.Mutex
	lastSend time.Time

	queue     chan models.AlarmRecord
	queueDone chan struct{}
	wg        sync.WaitGroup
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewTelegramNotifier creates a new Telegram notifier. Returns nil when the
// bot cannot be created or reached; callers treat a nil notifier as disabled.
func NewTelegramNotifier(token string, chatID int64) *TelegramNotifier {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		slog.Error("Failed to create telegram bot", "error", err)
		return nil
	}

	bot.Debug = false

	if _, err = bot.GetMe(); err != nil {
		slog.Error("Failed to get bot info", "error", err)
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())

	notifier := &TelegramNotifier{
		bot:       bot,
		chatID:    chatID,
		queue:     make(chan models.AlarmRecord, 100),
		queueDone: make(chan struct{}),
		ctx:       ctx,
		cancel:    cancel,
	}

	notifier.wg.Add(1)
	go notifier.messageSender()

	slog.Info("Telegram notifier initialized", "chat_id", chatID)

	return notifier
}

// SendAlarm queues an alarm for delivery (non-blocking).
func (n *TelegramNotifier) SendAlarm(ctx context.Context, record models.AlarmRecord) error {
	if n == nil || n.bot == nil {
		return fmt.Errorf("telegram notifier not initialized")
	}

	select {
	case <-n.ctx.Done():
		return fmt.Errorf("notifier stopped")
	case <-ctx.Done():
		return ctx.Err()
	case n.queue <- record:
		return nil
	default:
		slog.Warn("Telegram message queue is full, dropping message", "alarm_id", record.ID, "match", record.MatchName)
		return fmt.Errorf("message queue is full")
	}
}

// Stop stops the notifier and waits for the queue to drain.
func (n *TelegramNotifier) Stop() {
	if n == nil {
		return
	}
	n.cancel()
	<-n.queueDone
	n.wg.Wait()
}

// messageSender runs in background and sends queued messages with proper intervals.
func (n *TelegramNotifier) messageSender() {
	defer n.wg.Done()

	for {
		select {
		case <-n.ctx.Done():
			// Drain remaining messages before exit
			for {
				select {
				case record := <-n.queue:
					n.sendRecord(record)
				default:
					close(n.queueDone)
					return
				}
			}
		case record := <-n.queue:
			n.sendRecord(record)
		}
	}
}

// sendRecord delivers one record, waiting out the rate limit and retrying
// transient failures.
func (n *TelegramNotifier) sendRecord(record models.AlarmRecord) {
	msg := tgbotapi.NewMessage(n.chatID, formatAlarm(record))
	msg.ParseMode = tgbotapi.ModeMarkdown

	n.mu.Lock()
	elapsed := time.Since(n.lastSend)
	if elapsed < telegramSendInterval {
		waitTime := telegramSendInterval - elapsed
		n.mu.Unlock()
		select {
		case <-n.ctx.Done():
			slog.Warn("Telegram send: cancelled during wait", "alarm_id", record.ID)
			return
		case <-time.After(waitTime):
		}
		n.mu.Lock()
	}
	n.lastSend = time.Now()
	n.mu.Unlock()

	var err error
	for attempt := 1; attempt <= telegramSendAttempts; attempt++ {
		if _, err = n.bot.Send(msg); err == nil {
			slog.Info("Telegram send: success",
				"alarm_id", record.ID, "category", record.Category, "severity", record.Severity,
				"match", record.MatchName, "queue_length", len(n.queue))
			return
		}
		slog.Warn("Telegram send: attempt failed",
			"alarm_id", record.ID, "attempt", attempt, "error", err)
		if attempt < telegramSendAttempts {
			select {
			case <-n.ctx.Done():
				return
			case <-time.After(telegramRetryBackoff):
			}
		}
	}
	slog.Error("Telegram send: failed", "alarm_id", record.ID, "error", err)
}

var categoryIcons = map[string]string{
	models.CategorySharp:         "🎯",
	models.CategoryDropping:      "📉",
	models.CategoryReversal:      "🔄",
	models.CategoryMomentumSpike: "⚡",
	models.CategoryLineFreeze:    "🧊",
}

var categoryTitles = map[string]string{
	models.CategorySharp:         "Sharp Money",
	models.CategoryDropping:      "Dropping Odds",
	models.CategoryReversal:      "Reversal",
	models.CategoryMomentumSpike: "Momentum Spike",
	models.CategoryLineFreeze:    "Line Freeze",
}

// formatAlarm renders one record as a Telegram markdown message.
func formatAlarm(record models.AlarmRecord) string {
	var builder strings.Builder

	icon := categoryIcons[record.Category]
	if icon == "" {
		icon = "🚨"
	}
	title := categoryTitles[record.Category]
	if title == "" {
		title = record.Category
	}

	builder.WriteString(fmt.Sprintf("%s *%s Alert* %s\n\n", icon, title, strings.Repeat("❗", record.Severity)))
	builder.WriteString(fmt.Sprintf("*%s*\n", escapeMarkdown(record.MatchName)))
	builder.WriteString(fmt.Sprintf("📌 %s | side %s\n\n", formatMarket(record.Market), record.Side))
	builder.WriteString(escapeMarkdown(record.Message))
	builder.WriteString("\n")
	if record.Category == models.CategoryReversal {
		builder.WriteString(fmt.Sprintf("✅ Criteria: %d/3\n", record.ConditionsMet))
	}
	builder.WriteString(fmt.Sprintf("🕐 %s\n", record.CreatedAt.Format("2006-01-02 15:04 UTC")))
	return builder.String()
}

func formatMarket(market string) string {
	parts := strings.Split(market, "_")
	for i, part := range parts {
		if len(part) > 0 {
			parts[i] = strings.ToUpper(part[:1]) + strings.ToLower(part[1:])
		}
	}
	return strings.Join(parts, " ")
}

func escapeMarkdown(text string) string {
	replacer := strings.NewReplacer(
		"_", "\\_",
		"*", "\\*",
		"[", "\\[",
		"]", "\\]",
		"`", "\\`",
	)
	return replacer.Replace(text)
}
