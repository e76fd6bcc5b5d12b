package telegram

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"coinpilot/internal/domain"
	"coinpilot/internal/utils"
)

const (
	defaultBaseURL = "https://api.telegram.org"
	queueSize      = 64
)

// NotificationService delivers notifications to a Telegram chat. Without credentials it
// only logs them.
type NotificationService struct {
	botToken string
	chatID   string
	enabled  bool
	client   *resty.Client
	logger   zerolog.Logger

	mu     sync.RWMutex
	closed bool
	queue  chan domain.Notification
	wg     sync.WaitGroup
}

type telegramMessage struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

type telegramResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// NewNotificationService creates the notifier and starts its delivery worker.
// baseURL may be empty for the public Bot API.
func NewNotificationService(botToken, chatID, baseURL string) *NotificationService {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	s := &NotificationService{
		botToken: botToken,
		chatID:   chatID,
		enabled:  botToken != "" && chatID != "",
		client:   resty.New().SetBaseURL(baseURL).SetTimeout(10 * time.Second),
		logger:   log.With().Str("component", "telegram").Logger(),
		queue:    make(chan domain.Notification, queueSize),
	}

	s.wg.Add(1)
	go s.worker()
	return s
}

// Enabled reports whether Telegram credentials are configured
func (s *NotificationService) Enabled() bool {
	return s.enabled
}

// Notify queues n for delivery. A full queue drops the notification.
func (s *NotificationService) Notify(n domain.Notification) {
	s.logger.Info().Str("severity", n.Severity).Str("title", n.Title).Msg(n.Description)
	if !s.enabled {
		return
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return
	}

	select {
	case s.queue <- n:
	default:
		s.logger.Warn().Str("title", n.Title).Msg("Notification queue full, dropping")
	}
}

// Close drains queued notifications and stops the worker
func (s *NotificationService) Close() {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.queue)
	}
	s.mu.Unlock()
	s.wg.Wait()
}

func (s *NotificationService) worker() {
	defer s.wg.Done()
	for n := range s.queue {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		if err := s.Send(ctx, n); err != nil {
			s.logger.Warn().Err(err).Str("title", n.Title).Msg("Failed to send Telegram notification")
		}
		cancel()
	}
}

// Send delivers n synchronously
func (s *NotificationService) Send(ctx context.Context, n domain.Notification) error {
	if !s.enabled {
		return nil
	}
	return s.sendMessage(ctx, FormatNotification(n))
}

// FormatNotification renders n as a Markdown message
func FormatNotification(n domain.Notification) string {
	icon := "ℹ️"
	switch n.Severity {
	case domain.SeveritySuccess:
		icon = "✅"
	case domain.SeverityWarning:
		icon = "⚠️"
	case domain.SeverityError:
		icon = "❌"
	}

	return fmt.Sprintf("%s *%s*\n%s\n🕒 `%s`",
		icon,
		n.Title,
		n.Description,
		time.Now().In(utils.GetLocation()).Format("2006-01-02 15:04:05"),
	)
}

func (s *NotificationService) sendMessage(ctx context.Context, text string) error {
	var result telegramResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetPathParam("token", s.botToken).
		SetBody(telegramMessage{ChatID: s.chatID, Text: text, ParseMode: "Markdown"}).
		SetResult(&result).
		SetError(&result).
		Post("/bot{token}/sendMessage")
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	if resp.IsError() || !result.OK {
		return fmt.Errorf("telegram API error (status %d): %s", resp.StatusCode(), result.Description)
	}
	return nil
}
