// Package telegram delivers reminders as Telegram messages.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tele "gopkg.in/telebot.v3"

	"supcal/internal/core"
	"supcal/internal/services"
)

// Sender is the part of *tele.Bot the notifier uses.
type Sender interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
}

// Notifier sends one message per reminder to a fixed chat.
type Notifier struct {
	sender Sender
	chatID int64
}

var _ services.Notifier = (*Notifier)(nil)

// New connects a send-only bot. No updates are polled.
func New(token string, chatID int64) (*Notifier, error) {
	if strings.TrimSpace(token) == "" {
		return nil, errors.New("missing TELEGRAM_TOKEN")
	}
	if chatID == 0 {
		return nil, errors.New("missing TELEGRAM_CHAT_ID")
	}
	bot, err := tele.NewBot(tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	})
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	return NewWithSender(bot, chatID), nil
}

func NewWithSender(sender Sender, chatID int64) *Notifier {
	return &Notifier{sender: sender, chatID: chatID}
}

// Notify sends the reminder text for entry.
func (n *Notifier) Notify(ctx context.Context, entry core.UpcomingEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	opts := &tele.SendOptions{DisableWebPagePreview: true}
	if _, err := n.sender.Send(&tele.Chat{ID: n.chatID}, Message(entry), opts); err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	return nil
}

// Message renders a reminder as plain text, e.g.
//
//	⏰ Renew passport is due tomorrow (2024-03-02)
func Message(entry core.UpcomingEntry) string {
	r := entry.Record
	var when string
	switch d := entry.DaysUntil; {
	case d < 0:
		when = fmt.Sprintf("is overdue by %d day%s", -d, plural(-d))
	case d == 0:
		when = "is due today"
	case d == 1:
		when = "is due tomorrow"
	default:
		when = fmt.Sprintf("is due in %d days", d)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "⏰ %s %s", r.Name(), when)
	if next := r.NextOccurrence(); next != nil {
		fmt.Fprintf(&b, " (%s)", next.UTC().Format("2006-01-02"))
	}
	if r.Type == core.TypePayment {
		fmt.Fprintf(&b, "\n%s %s %s", r.Payment.Direction, r.Payment.Amount, r.Payment.Currency)
	}
	if desc := recordDescription(r); desc != "" {
		b.WriteString("\n" + desc)
	}
	return b.String()
}

func recordDescription(r core.Record) string {
	switch r.Type {
	case core.TypeSimple:
		return strings.TrimSpace(r.Simple.Description)
	case core.TypePayment:
		return strings.TrimSpace(r.Payment.Description)
	}
	return ""
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
