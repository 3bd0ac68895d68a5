package report

import (
	"errors"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Pimboto/VideoLab/internal/logging"
)

// TelegramSink pushes batch completion and failure notices to a chat.
// Intermediate progress updates are skipped to avoid flooding.
type TelegramSink struct {
	tg     *tgbotapi.BotAPI
	chatID int64
	log    *logging.Logger
}

func NewTelegramSink(token string, chatID int64, log *logging.Logger) (*TelegramSink, error) {
	if token == "" {
		return nil, errors.New("telegram token is empty")
	}
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	api.Debug = false
	log.Infof("telegram reporting enabled as @%s", api.Self.UserName)
	return &TelegramSink{tg: api, chatID: chatID, log: log}, nil
}

func (t *TelegramSink) Report(u Update) {
	if u.Status == StatusProcessing {
		return
	}
	text := fmt.Sprintf("%s: %s", u.Status, u.Message)
	if len(u.OutputPaths) > 0 {
		text += fmt.Sprintf("\n%d output(s)", len(u.OutputPaths))
	}
	msg := tgbotapi.NewMessage(t.chatID, text)
	if _, err := t.tg.Send(msg); err != nil {
		t.log.Errorf("telegram send: %v", err)
	}
}
