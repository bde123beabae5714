package delivery

import (
	"time"

	"github.com/Spok95/factory/internal/domain/inventory"
	"github.com/Spok95/factory/internal/domain/warehouses"
	"github.com/google/uuid"
)

type Position struct {
	MaterialID uuid.UUID
	Quantity   int64
}

// Request — поставка на один склад. Порядок позиций сохраняется.
type Request struct {
	WarehouseID uuid.UUID
	Positions   []Position
}

// Receipt — результат проведённой поставки: склад после коммита,
// его остатки и позиции после склейки дублей.
type Receipt struct {
	Warehouse warehouses.Warehouse
	Stock     []inventory.Entry
	Positions []Position
	Total     int64
}

// Event уходит в брокер после коммита.
type Event struct {
	WarehouseID uuid.UUID       `json:"warehouse_id"`
	Positions   []EventPosition `json:"positions"`
	Total       int64           `json:"total"`
	Capacity    int64           `json:"capacity"`
	MaxCapacity int64           `json:"max_capacity"`
	At          time.Time       `json:"at"`
}

type EventPosition struct {
	MaterialID uuid.UUID `json:"material_id"`
	Quantity   int64     `json:"quantity"`
}

func newEvent(r *Receipt, at time.Time) Event {
	ps := make([]EventPosition, len(r.Positions))
	for i, p := range r.Positions {
		ps[i] = EventPosition{MaterialID: p.MaterialID, Quantity: p.Quantity}
	}
	return Event{
		WarehouseID: r.Warehouse.ID,
		Positions:   ps,
		Total:       r.Total,
		Capacity:    r.Warehouse.Capacity,
		MaxCapacity: r.Warehouse.MaxCapacity,
		At:          at,
	}
}
