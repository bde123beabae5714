package materials

import (
	"time"
	"unicode/utf8"

	"github.com/Spok95/factory/internal/domain/errs"
	"github.com/Spok95/factory/internal/domain/slug"
	"github.com/google/uuid"
)

const maxUnitLen = 40

type Material struct {
	ID           uuid.UUID
	Name         string
	Slug         string
	QuantityUnit string // как ввели, без нормализации
	CreatedAt    time.Time
}

// Patch — частичное обновление, nil = не менять.
type Patch struct {
	Name         *string
	QuantityUnit *string
}

// New проверяет поля и собирает материал с новым id и slug.
// CreatedAt ставит хранилище.
func New(name, unit string) (*Material, error) {
	s, err := slug.FromName(name)
	if err != nil {
		return nil, err
	}
	if err := validateUnit(unit); err != nil {
		return nil, err
	}
	return &Material{ID: uuid.New(), Name: name, Slug: s, QuantityUnit: unit}, nil
}

// Apply проверяет p и применяет к m. Slug не меняется.
func (m *Material) Apply(p Patch) error {
	if p.Name != nil {
		if _, err := slug.FromName(*p.Name); err != nil {
			return err
		}
	}
	if p.QuantityUnit != nil {
		if err := validateUnit(*p.QuantityUnit); err != nil {
			return err
		}
	}
	if p.Name != nil {
		m.Name = *p.Name
	}
	if p.QuantityUnit != nil {
		m.QuantityUnit = *p.QuantityUnit
	}
	return nil
}

func validateUnit(unit string) error {
	n := utf8.RuneCountInString(unit)
	if n < 1 || n > maxUnitLen {
		return errs.Invalid("quantity_unit", "must be between 1 and 40 characters")
	}
	return nil
}
