package analyzer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Vodeneev/betengine/internal/engine"
)

// Min interval between any two Telegram messages to the same chat to
// avoid 429 Too Many Requests (~30/min limit).
const telegramSendInterval = 2 * time.Second

type messageType int

const (
	messageTypeArbitrage messageType = iota
	messageTypeUpset
	messageTypeLive
	messageTypeTest
)

type queuedMessage struct {
	msgType     messageType
	arbitrage   *engine.ArbitrageOpportunity
	fixtureName string
	upsetScore  int
	signals     map[string]int
	candidate   *engine.LiveCandidate
	minute      int
	testMessage string
}

// TelegramNotifier sends Telegram alerts through a rate-limited queue.
type TelegramNotifier struct {
	bot      *tgbotapi.BotAPI
	chatID   int64
	mu       sync.Mutex
	lastSend time.Time

	queue     chan queuedMessage
	queueDone chan struct{}
	wg        sync.WaitGroup
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewTelegramNotifier creates a notifier and starts its sender worker.
// Returns nil when the bot cannot be reached; callers treat a nil
// notifier as alerts-disabled.
func NewTelegramNotifier(token string, chatID int64) *TelegramNotifier {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		slog.Error("Failed to create telegram bot", "error", err)
		return nil
	}
	bot.Debug = false

	if _, err := bot.GetMe(); err != nil {
		slog.Error("Failed to get bot info", "error", err)
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())

	notifier := &TelegramNotifier{
		bot:       bot,
		chatID:    chatID,
		queue:     make(chan queuedMessage, 100),
		queueDone: make(chan struct{}),
		ctx:       ctx,
		cancel:    cancel,
	}

	notifier.wg.Add(1)
	go notifier.messageSender()

	slog.Info("Telegram notifier initialized", "chat_id", chatID)
	return notifier
}

// QueueLen returns the current number of queued messages.
func (n *TelegramNotifier) QueueLen() int {
	if n == nil || n.queue == nil {
		return 0
	}
	return len(n.queue)
}

func (n *TelegramNotifier) messageSender() {
	defer n.wg.Done()

	for {
		select {
		case <-n.ctx.Done():
			// Drain remaining messages before exit
			for {
				select {
				case msg := <-n.queue:
					n.sendQueuedMessage(msg)
				default:
					close(n.queueDone)
					return
				}
			}
		case msg := <-n.queue:
			n.sendQueuedMessage(msg)
		}
	}
}

func (n *TelegramNotifier) sendQueuedMessage(msg queuedMessage) {
	var text string
	switch msg.msgType {
	case messageTypeArbitrage:
		text = formatArbitrageAlert(msg.arbitrage)
	case messageTypeUpset:
		text = formatUpsetAlert(msg.fixtureName, msg.upsetScore, msg.signals)
	case messageTypeLive:
		text = formatLiveAlert(msg.fixtureName, msg.candidate, msg.minute)
	case messageTypeTest:
		text = msg.testMessage
	default:
		slog.Error("Unknown message type", "type", msg.msgType)
		return
	}

	tgMsg := tgbotapi.NewMessage(n.chatID, text)
	tgMsg.ParseMode = tgbotapi.ModeMarkdown

	// Wait for proper interval
	n.mu.Lock()
	elapsed := time.Since(n.lastSend)
	if elapsed < telegramSendInterval {
		waitTime := telegramSendInterval - elapsed
		n.mu.Unlock()
		select {
		case <-n.ctx.Done():
			slog.Warn("Telegram send: cancelled during wait", "type", msg.msgType)
			return
		case <-time.After(waitTime):
		}
		n.mu.Lock()
	}
	n.lastSend = time.Now()
	_, err := n.bot.Send(tgMsg)
	n.mu.Unlock()

	if err != nil {
		slog.Error("Telegram send: failed", "error", err, "type", msg.msgType)
	} else {
		slog.Info("Telegram send: success", "type", msg.msgType, "queue_length", len(n.queue))
	}
}

func (n *TelegramNotifier) enqueue(ctx context.Context, msg queuedMessage) error {
	if n == nil || n.bot == nil {
		return fmt.Errorf("telegram notifier not initialized")
	}

	select {
	case <-n.ctx.Done():
		return fmt.Errorf("notifier stopped")
	case <-ctx.Done():
		return ctx.Err()
	case n.queue <- msg:
		return nil
	default:
		slog.Warn("Telegram alert: queue full, dropping", "type", msg.msgType)
		return fmt.Errorf("message queue is full")
	}
}

// SendArbitrageAlert queues an alert for a detected arbitrage (non-blocking).
func (n *TelegramNotifier) SendArbitrageAlert(ctx context.Context, opp *engine.ArbitrageOpportunity) error {
	return n.enqueue(ctx, queuedMessage{
		msgType:   messageTypeArbitrage,
		arbitrage: opp,
	})
}

// SendUpsetAlert queues an alert for a high upset score (non-blocking).
func (n *TelegramNotifier) SendUpsetAlert(ctx context.Context, fixtureName string, score int, signals map[string]int) error {
	return n.enqueue(ctx, queuedMessage{
		msgType:     messageTypeUpset,
		fixtureName: fixtureName,
		upsetScore:  score,
		signals:     signals,
	})
}

// SendLiveAlert queues an alert for an in-play candidate (non-blocking).
func (n *TelegramNotifier) SendLiveAlert(ctx context.Context, fixtureName string, candidate engine.LiveCandidate, minute int) error {
	return n.enqueue(ctx, queuedMessage{
		msgType:     messageTypeLive,
		fixtureName: fixtureName,
		candidate:   &candidate,
		minute:      minute,
	})
}

// SendTestAlert queues a test message (non-blocking).
func (n *TelegramNotifier) SendTestAlert(ctx context.Context, message string) error {
	return n.enqueue(ctx, queuedMessage{
		msgType:     messageTypeTest,
		testMessage: fmt.Sprintf("🧪 *Test Alert*\n\n%s\n\n_Time: %s_", message, time.Now().UTC().Format("2006-01-02 15:04:05 UTC")),
	})
}

// Stop stops the notifier and waits for queued messages to drain.
func (n *TelegramNotifier) Stop() {
	if n == nil {
		return
	}
	n.cancel()
	<-n.queueDone
	n.wg.Wait()
}

func formatArbitrageAlert(opp *engine.ArbitrageOpportunity) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "💰 *Arbitrage Found*\n\n")
	fmt.Fprintf(&sb, "*%s* (%s)\n", escapeMarkdown(opp.FixtureName), opp.Sport)
	fmt.Fprintf(&sb, "Profit margin: *%.2f%%*\n", opp.ProfitMargin)
	fmt.Fprintf(&sb, "Guaranteed profit: %.2f on %.2f total\n\n", opp.GuaranteedProfit, opp.TotalStake)
	for outcome, stake := range opp.Stakes {
		fmt.Fprintf(&sb, "• %s: %.2f @ %.2f (%s)\n", outcome, stake.Amount, stake.Odds, escapeMarkdown(stake.Bookmaker))
	}
	return sb.String()
}

func formatUpsetAlert(fixtureName string, score int, signals map[string]int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "⚠️ *Upset Risk*\n\n")
	fmt.Fprintf(&sb, "*%s*\n", escapeMarkdown(fixtureName))
	fmt.Fprintf(&sb, "Score: *%d/100*\n\n", score)
	for signal, points := range signals {
		fmt.Fprintf(&sb, "• %s: +%d\n", signal, points)
	}
	return sb.String()
}

func formatLiveAlert(fixtureName string, c *engine.LiveCandidate, minute int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "🔴 *Live Opportunity*\n\n")
	fmt.Fprintf(&sb, "*%s* (minute %d)\n", escapeMarkdown(fixtureName), minute)
	fmt.Fprintf(&sb, "Bet: *%s* @ %.2f\n", c.Outcome, c.Odds)
	fmt.Fprintf(&sb, "Edge: %.1f%%\n", c.Edge)
	fmt.Fprintf(&sb, "Reason: %s\n", c.Reason)
	return sb.String()
}

// escapeMarkdown escapes characters that break Telegram Markdown parsing.
func escapeMarkdown(text string) string {
	replacer := strings.NewReplacer(
		"_", "\\_",
		"*", "\\*",
		"[", "\\[",
		"`", "\\`",
	)
	return replacer.Replace(text)
}
