package telegram

import (
	"context"
	"fmt"
	"time"

	xhttp "github.com/OQueQuantFirm/Market-Analyzer/pkg/http"
	applogger "github.com/OQueQuantFirm/Market-Analyzer/pkg/logger"
)

// Notifier delivers alerts through the Telegram bot API. It implements
// repository.Notifier. Delivery is best effort; callers log failures
// and move on.
type Notifier struct {
	botToken string
	chatID   string
	http     *xhttp.Client
	logger   *applogger.Logger
}

// New creates a Telegram notifier.
func New(botToken, chatID string, logger *applogger.Logger) *Notifier {
	return &Notifier{
		botToken: botToken,
		chatID:   chatID,
		http:     xhttp.NewClient(xhttp.WithTimeout(10 * time.Second)),
		logger:   logger,
	}
}

type sendMessageRequest struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

// Notify sends one message to the configured chat.
func (n *Notifier) Notify(ctx context.Context, message string) error {
	url := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", n.botToken)

	err := n.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodPost,
		URL:    url,
		Body: sendMessageRequest{
			ChatID:    n.chatID,
			Text:      message,
			ParseMode: "Markdown",
		},
	}, nil)
	if err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}

	if n.logger != nil {
		n.logger.Debug("telegram: message sent", applogger.String("chat_id", n.chatID))
	}
	return nil
}

// Noop is a Notifier that discards messages. Used when Telegram is
// disabled in config.
type Noop struct{}

// Notify discards the message.
func (Noop) Notify(context.Context, string) error { return nil }
