package warehouses

import (
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/Spok95/factory/internal/domain/errs"
	"github.com/Spok95/factory/internal/domain/slug"
	"github.com/google/uuid"
)

const DefaultMaxCapacity int64 = 1_000_000

// Warehouse хранит Capacity денормализованно: всегда MaxCapacity минус
// всё, что лежит на складе.
type Warehouse struct {
	ID          uuid.UUID
	Name        string
	Slug        string
	Location    string
	MaxCapacity int64
	Capacity    int64
	CreatedAt   time.Time
}

type Patch struct {
	Name        *string
	Location    *string
	MaxCapacity *int64
}

// Consumed — занятая остатками часть MaxCapacity.
func (w Warehouse) Consumed() int64 {
	return w.MaxCapacity - w.Capacity
}

// New собирает пустой склад. При nil maxCapacity берётся
// DefaultMaxCapacity.
func New(name, location string, maxCapacity *int64) (*Warehouse, error) {
	s, err := slug.FromName(name)
	if err != nil {
		return nil, err
	}
	if err := validateLocation(location); err != nil {
		return nil, err
	}
	ceiling := DefaultMaxCapacity
	if maxCapacity != nil {
		ceiling = *maxCapacity
	}
	if err := validateMaxCapacity(ceiling); err != nil {
		return nil, err
	}
	return &Warehouse{
		ID:          uuid.New(),
		Name:        name,
		Slug:        s,
		Location:    location,
		MaxCapacity: ceiling,
		Capacity:    ceiling,
	}, nil
}

// Apply проверяет p и применяет к w. Новый MaxCapacity сдвигает Capacity,
// занятое не меняется. Потолок ниже занятого — ошибка валидации.
func (w *Warehouse) Apply(p Patch) error {
	if p.Name != nil {
		if _, err := slug.FromName(*p.Name); err != nil {
			return err
		}
	}
	if p.Location != nil {
		if err := validateLocation(*p.Location); err != nil {
			return err
		}
	}
	if p.MaxCapacity != nil {
		if err := validateMaxCapacity(*p.MaxCapacity); err != nil {
			return err
		}
		if consumed := w.Consumed(); *p.MaxCapacity < consumed {
			return errs.Invalid("max_capacity", fmt.Sprintf("must not be less than already consumed capacity %d", consumed))
		}
	}

	if p.Name != nil {
		w.Name = *p.Name
	}
	if p.Location != nil {
		w.Location = *p.Location
	}
	if p.MaxCapacity != nil {
		consumed := w.Consumed()
		w.MaxCapacity = *p.MaxCapacity
		w.Capacity = w.MaxCapacity - consumed
	}
	return nil
}

// Reserve забирает qty из свободного места.
func (w *Warehouse) Reserve(qty int64) error {
	if qty > w.Capacity {
		return &errs.CapacityExceededError{Requested: qty, Available: w.Capacity}
	}
	w.Capacity -= qty
	return nil
}

// Release возвращает qty, но не выше MaxCapacity.
func (w *Warehouse) Release(qty int64) {
	w.Capacity += qty
	if w.Capacity > w.MaxCapacity {
		w.Capacity = w.MaxCapacity
	}
}

func validateLocation(location string) error {
	if utf8.RuneCountInString(location) < 2 {
		return errs.Invalid("location", "must be at least 2 characters")
	}
	return nil
}

func validateMaxCapacity(v int64) error {
	if v < 1 {
		return errs.Invalid("max_capacity", "must be a positive integer")
	}
	return nil
}
