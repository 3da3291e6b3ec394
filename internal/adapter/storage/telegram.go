package storage

import (
	"context"
	"fmt"
	"os"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/semmidev/argus/internal/config"
	"github.com/semmidev/argus/internal/domain"
)

// Telegram bots cannot send documents above 50 MB.
const telegramFileLimitMB = 50

// Telegram is the notifier target: it receives run summaries. When
// send_file is set it additionally ships small artifacts as documents.
type Telegram struct {
	id       string
	bot      *tgbotapi.BotAPI
	chatID   int64
	sendFile bool
}

func NewTelegram(spec *config.TargetSpec) (*Telegram, error) {
	bot, err := tgbotapi.NewBotAPI(spec.BotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	var chatID int64
	fmt.Sscanf(spec.ChatID, "%d", &chatID)

	return &Telegram{
		id:       spec.ID,
		bot:      bot,
		chatID:   chatID,
		sendFile: spec.SendFile,
	}, nil
}

func (t *Telegram) ID() string {
	return t.id
}

func (t *Telegram) Kind() string {
	return "telegram"
}

func (t *Telegram) Notify(ctx context.Context, summary string) error {
	msg := tgbotapi.NewMessage(t.chatID, summary)
	if _, err := t.bot.Send(msg); err != nil {
		return fmt.Errorf("failed to send telegram notification: %w", err)
	}
	return nil
}

func (t *Telegram) Store(ctx context.Context, localPath string, remoteName string) error {
	fileInfo, err := os.Stat(localPath)
	if err != nil {
		return fmt.Errorf("failed to stat file: %w", err)
	}

	fileSizeMB := float64(fileInfo.Size()) / (1024 * 1024)

	if !t.sendFile || fileSizeMB > telegramFileLimitMB {
		message := fmt.Sprintf("Backup created\n\nFile: %s\nSize: %.2f MB", remoteName, fileSizeMB)
		msg := tgbotapi.NewMessage(t.chatID, message)
		if _, err := t.bot.Send(msg); err != nil {
			return fmt.Errorf("failed to send telegram notification: %w", err)
		}
		return nil
	}

	file := tgbotapi.NewDocument(t.chatID, tgbotapi.FilePath(localPath))
	file.Caption = fmt.Sprintf("Backup: %s (%.2f MB)", remoteName, fileSizeMB)

	if _, err := t.bot.Send(file); err != nil {
		return fmt.Errorf("failed to send telegram file: %w", err)
	}

	return nil
}

// List is empty: Telegram offers no file enumeration, so retention never
// applies to it.
func (t *Telegram) List(ctx context.Context) ([]domain.RemoteFile, error) {
	return nil, nil
}

func (t *Telegram) Delete(ctx context.Context, remoteName string) error {
	return nil
}
