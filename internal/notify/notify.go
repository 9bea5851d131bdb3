// Package notify defines the notification boundary of the consistency
// engine. Producers emit short human-readable events; delivery beyond the
// in-memory feed is fire-and-forget.
package notify

import (
	"context"
	"log/slog"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Category classifies a notification for the consuming UI.
type Category string

const (
	CategoryOrder   Category = "order"
	CategoryAlert   Category = "alert"
	CategorySuccess Category = "success"
	CategoryInfo    Category = "info"
)

// Notifier receives human-readable events. Implementations must not block
// the caller and must never return the event to the producer as an error.
type Notifier interface {
	Notify(ctx context.Context, title, desc string, category Category)
}

// Multi fans a notification out to several notifiers.
type Multi []Notifier

// Notify implements Notifier.
func (m Multi) Notify(ctx context.Context, title, desc string, category Category) {
	for _, n := range m {
		if n != nil {
			n.Notify(ctx, title, desc, category)
		}
	}
}

// LogNotifier writes notifications to the structured log.
type LogNotifier struct {
	Logger *slog.Logger
}

// Notify implements Notifier.
func (l LogNotifier) Notify(ctx context.Context, title, desc string, category Category) {
	if l.Logger == nil {
		return
	}
	l.Logger.InfoContext(ctx, "notification",
		slog.String("title", title),
		slog.String("desc", desc),
		slog.String("category", string(category)))
}

var rupeePrinter = message.NewPrinter(language.English)

// Rupees renders an amount for notification text, e.g. "₹1,200".
func Rupees(amount float64) string {
	return rupeePrinter.Sprintf("₹%v", number.Decimal(amount, number.MaxFractionDigits(2)))
}
