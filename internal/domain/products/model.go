package products

import (
	"time"

	"github.com/Spok95/factory/internal/domain/errs"
	"github.com/Spok95/factory/internal/domain/slug"
	"github.com/google/uuid"
)

type Product struct {
	ID        uuid.UUID
	Name      string
	Slug      string
	CreatedAt time.Time
}

type Patch struct {
	Name *string
}

// BOM — строка спецификации: сколько материала уходит в продукт.
type BOM struct {
	ID         uuid.UUID
	ProductID  uuid.UUID
	MaterialID uuid.UUID
	Quantity   int64
	CreatedAt  time.Time

	ProductName  string
	ProductSlug  string
	MaterialName string
	MaterialSlug string
}

func New(name string) (*Product, error) {
	s, err := slug.FromName(name)
	if err != nil {
		return nil, err
	}
	return &Product{ID: uuid.New(), Name: name, Slug: s}, nil
}

func (p *Product) Apply(patch Patch) error {
	if patch.Name == nil {
		return nil
	}
	if _, err := slug.FromName(*patch.Name); err != nil {
		return err
	}
	p.Name = *patch.Name
	return nil
}

func ValidateQuantity(qty int64) error {
	if qty < 1 {
		return errs.Invalid("quantity", "must be a positive integer")
	}
	return nil
}
