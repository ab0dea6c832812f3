package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Spok95/kitchen-quotes/internal/domain/quotes"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Sender — часть *tgbotapi.BotAPI, которая нужна уведомлениям.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram пишет об утверждённых КП в админский чат закупок.
type Telegram struct {
	api       Sender
	adminChat int64
	log       *slog.Logger
}

func NewTelegram(token string, adminChatID int64, log *slog.Logger) (*Telegram, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram: %w", err)
	}
	return New(api, adminChatID, log), nil
}

func New(api Sender, adminChatID int64, log *slog.Logger) *Telegram {
	return &Telegram{api: api, adminChat: adminChatID, log: log}
}

func (t *Telegram) QuotationApproved(ctx context.Context, a quotes.Approval) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(t.adminChat, ApprovalText(a))
	if _, err := t.api.Send(msg); err != nil {
		return fmt.Errorf("send approval %d: %w", a.QuotationID, err)
	}
	t.log.Debug("approval notification sent", "quotation_id", a.QuotationID, "chat_id", t.adminChat)
	return nil
}

func ApprovalText(a quotes.Approval) string {
	var sb strings.Builder
	sb.WriteString("✅ КП утверждено\n")
	fmt.Fprintf(&sb, "Поставщик: %s", a.SupplierCode)
	if a.SupplierName != "" {
		fmt.Fprintf(&sb, " (%s)", a.SupplierName)
	}
	fmt.Fprintf(&sb, "\nРегион: %s\nПериод: %s\nПозиций: %d\n", a.Region, a.Period, a.Items)
	fmt.Fprintf(&sb, "КП #%d, утвердил пользователь #%d", a.QuotationID, a.ApprovedBy)
	return sb.String()
}
