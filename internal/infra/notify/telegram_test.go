package notify_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/Spok95/kitchen-quotes/internal/domain/quotes"
	"github.com/Spok95/kitchen-quotes/internal/infra/notify"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type sender struct {
	sent []tgbotapi.MessageConfig
	err  error
}

func (s *sender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if s.err != nil {
		return tgbotapi.Message{}, s.err
	}
	s.sent = append(s.sent, c.(tgbotapi.MessageConfig))
	return tgbotapi.Message{}, nil
}

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestQuotationApproved(t *testing.T) {
	s := &sender{}
	n := notify.New(s, -100500, discard)
	var _ quotes.Notifier = n

	err := n.QuotationApproved(context.Background(), quotes.Approval{
		QuotationID: 42, SupplierCode: "SUP-A", SupplierName: "Rau Sạch", Region: "Hà Nội",
		Period: "2024-05-01", Items: 3, ApprovedBy: 7,
	})
	if err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(s.sent) != 1 || s.sent[0].ChatID != -100500 {
		t.Fatalf("sent = %+v", s.sent)
	}
	text := s.sent[0].Text
	for _, want := range []string{"SUP-A (Rau Sạch)", "Hà Nội", "2024-05-01", "Позиций: 3", "#42"} {
		if !strings.Contains(text, want) {
			t.Fatalf("text %q has no %q", text, want)
		}
	}
}

func TestQuotationApprovedSendError(t *testing.T) {
	n := notify.New(&sender{err: errors.New("bad gateway")}, 1, discard)
	if err := n.QuotationApproved(context.Background(), quotes.Approval{QuotationID: 1}); err == nil {
		t.Fatal("send error must be returned to the caller")
	}
}
