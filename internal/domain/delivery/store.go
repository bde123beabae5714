package delivery

import (
	"context"

	"github.com/Spok95/factory/internal/domain/inventory"
	"github.com/Spok95/factory/internal/domain/materials"
	"github.com/Spok95/factory/internal/domain/warehouses"
	"github.com/Spok95/factory/internal/infra/db"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Tx — операции, которые сервис выполняет внутри одной транзакции.
type Tx interface {
	LockWarehouse(ctx context.Context, id uuid.UUID) (*warehouses.Warehouse, error)
	MissingMaterials(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error)
	ConsumeCapacity(ctx context.Context, warehouseID uuid.UUID, qty int64) (*warehouses.Warehouse, error)
	AddStock(ctx context.Context, warehouseID, materialID uuid.UUID, qty int64) (*inventory.Entry, error)
	WarehouseStock(ctx context.Context, warehouseID uuid.UUID) ([]inventory.Entry, error)
}

// Store открывает транзакцию. Если fn вернула ошибку, ни одно изменение
// не должно стать видимым.
type Store interface {
	InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// PGStore — Store поверх postgres.
type PGStore struct {
	db db.DB
}

func NewPGStore(d db.DB) *PGStore { return &PGStore{db: d} }

func (s *PGStore) InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	return db.WithTx(ctx, s.db, func(tx pgx.Tx) error {
		return fn(ctx, &pgTx{
			warehouses: warehouses.NewRepo(tx),
			materials:  materials.NewRepo(tx),
			stock:      inventory.NewRepo(tx),
		})
	})
}

type pgTx struct {
	warehouses *warehouses.Repo
	materials  *materials.Repo
	stock      *inventory.Repo
}

func (t *pgTx) LockWarehouse(ctx context.Context, id uuid.UUID) (*warehouses.Warehouse, error) {
	return t.warehouses.Lock(ctx, id)
}

func (t *pgTx) MissingMaterials(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error) {
	return t.materials.Missing(ctx, ids)
}

func (t *pgTx) ConsumeCapacity(ctx context.Context, warehouseID uuid.UUID, qty int64) (*warehouses.Warehouse, error) {
	return t.warehouses.Consume(ctx, warehouseID, qty)
}

func (t *pgTx) AddStock(ctx context.Context, warehouseID, materialID uuid.UUID, qty int64) (*inventory.Entry, error) {
	return t.stock.Add(ctx, warehouseID, materialID, qty)
}

func (t *pgTx) WarehouseStock(ctx context.Context, warehouseID uuid.UUID) ([]inventory.Entry, error) {
	return t.stock.ByWarehouse(ctx, warehouseID)
}
