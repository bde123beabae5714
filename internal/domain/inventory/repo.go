package inventory

import (
	"context"

	"github.com/Spok95/factory/internal/domain/errs"
	"github.com/Spok95/factory/internal/infra/db"
	"github.com/google/uuid"
)

const entity = "stock entry"

// Repo — учёт остатков. Пишут в него только поставки.
type Repo struct{ db db.Querier }

func NewRepo(q db.Querier) *Repo { return &Repo{db: q} }

// Add создаёт запись для пары с количеством delta или прибавляет delta
// к существующей.
func (r *Repo) Add(ctx context.Context, warehouseID, materialID uuid.UUID, delta int64) (*Entry, error) {
	if delta < 0 {
		return nil, errs.Invalid("quantity", "stock can only grow through deliveries")
	}
	row := r.db.QueryRow(ctx, `
		INSERT INTO stock (id, warehouse_id, material_id, quantity)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (warehouse_id, material_id)
		DO UPDATE SET quantity = stock.quantity + EXCLUDED.quantity
		RETURNING id, warehouse_id, material_id, quantity, created_at
	`, uuid.New(), warehouseID, materialID, delta)

	var e Entry
	if err := row.Scan(&e.ID, &e.WarehouseID, &e.MaterialID, &e.Quantity, &e.CreatedAt); err != nil {
		return nil, db.Wrap(entity, "upsert stock", err)
	}
	return &e, nil
}

const listQuery = `
	SELECT s.id, s.warehouse_id, s.material_id, s.quantity, s.created_at,
	       m.name, m.slug, w.name, w.slug
	FROM stock s
	JOIN materials m ON m.id = s.material_id
	JOIN warehouses w ON w.id = s.warehouse_id
`

func (r *Repo) ByWarehouse(ctx context.Context, warehouseID uuid.UUID) ([]Entry, error) {
	return r.list(ctx, listQuery+` WHERE s.warehouse_id = $1 ORDER BY m.name`, warehouseID)
}

func (r *Repo) ByMaterial(ctx context.Context, materialID uuid.UUID) ([]Entry, error) {
	return r.list(ctx, listQuery+` WHERE s.material_id = $1 ORDER BY w.name`, materialID)
}

func (r *Repo) list(ctx context.Context, q string, id uuid.UUID) ([]Entry, error) {
	rows, err := r.db.Query(ctx, q, id)
	if err != nil {
		return nil, db.Wrap(entity, "list stock", err)
	}
	defer rows.Close()

	out := []Entry{}
	for rows.Next() {
		var e Entry
		if err := rows.Scan(
			&e.ID, &e.WarehouseID, &e.MaterialID, &e.Quantity, &e.CreatedAt,
			&e.MaterialName, &e.MaterialSlug, &e.WarehouseName, &e.WarehouseSlug,
		); err != nil {
			return nil, db.Wrap(entity, "list stock", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, db.Wrap(entity, "list stock", err)
	}
	return out, nil
}
