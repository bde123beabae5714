package inventory

import (
	"time"

	"github.com/google/uuid"
)

// Entry — количество материала на складе. На пару (склад, материал)
// не больше одной записи.
type Entry struct {
	ID          uuid.UUID
	WarehouseID uuid.UUID
	MaterialID  uuid.UUID
	Quantity    int64
	CreatedAt   time.Time

	// для отображения, заполняются при выборке списков
	MaterialName  string
	MaterialSlug  string
	WarehouseName string
	WarehouseSlug string
}
