package notify

import (
	"context"
	"fmt"

	"github.com/Spok95/factory/internal/domain/warehouses"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Sender — то, что нужно от *tgbotapi.BotAPI.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// CapacityAlerts пишет в админский чат, когда свободная ёмкость склада
// опускается ниже доли ratio от максимальной.
type CapacityAlerts struct {
	bot    Sender
	chatID int64
	ratio  float64
}

func NewCapacityAlerts(bot Sender, chatID int64, ratio float64) *CapacityAlerts {
	return &CapacityAlerts{bot: bot, chatID: chatID, ratio: ratio}
}

func (a *CapacityAlerts) CapacityChanged(_ context.Context, w warehouses.Warehouse) error {
	if w.MaxCapacity <= 0 || float64(w.Capacity)/float64(w.MaxCapacity) >= a.ratio {
		return nil
	}
	text := fmt.Sprintf(
		"Склад %s (%s) почти заполнен.\nСвободно: %d из %d",
		w.Name, w.Location, w.Capacity, w.MaxCapacity,
	)
	_, err := a.bot.Send(tgbotapi.NewMessage(a.chatID, text))
	return err
}
