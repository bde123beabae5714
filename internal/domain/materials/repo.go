package materials

import (
	"context"
	"errors"

	"github.com/Spok95/factory/internal/domain/errs"
	"github.com/Spok95/factory/internal/domain/slug"
	"github.com/Spok95/factory/internal/infra/db"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const entity = "material"

const columns = `id, name, slug, quantity_unit, created_at`

// byRef: совпадение по id важнее совпадения по slug
const byRef = `WHERE id = $1 OR slug = $2 ORDER BY (id = $1) IS TRUE DESC LIMIT 1`

type Repo struct{ db db.DB }

func NewRepo(d db.DB) *Repo { return &Repo{db: d} }

func scan(row pgx.Row) (*Material, error) {
	var m Material
	if err := row.Scan(&m.ID, &m.Name, &m.Slug, &m.QuantityUnit, &m.CreatedAt); err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *Repo) Create(ctx context.Context, name, unit string) (*Material, error) {
	m, err := New(name, unit)
	if err != nil {
		return nil, err
	}
	row := r.db.QueryRow(ctx, `
		INSERT INTO materials (id, name, slug, quantity_unit)
		VALUES ($1,$2,$3,$4)
		RETURNING `+columns, m.ID, m.Name, m.Slug, m.QuantityUnit)
	out, err := scan(row)
	if err != nil {
		return nil, db.Wrap(entity, "create material", err)
	}
	return out, nil
}

// List — в порядке создания.
func (r *Repo) List(ctx context.Context, offset, limit int) ([]Material, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+columns+`
		FROM materials
		ORDER BY created_at, id
		OFFSET $1 LIMIT $2
	`, offset, limit)
	if err != nil {
		return nil, db.Wrap(entity, "list materials", err)
	}
	defer rows.Close()

	out := []Material{}
	for rows.Next() {
		m, err := scan(rows)
		if err != nil {
			return nil, db.Wrap(entity, "list materials", err)
		}
		out = append(out, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, db.Wrap(entity, "list materials", err)
	}
	return out, nil
}

func (r *Repo) Get(ctx context.Context, ref slug.Ref) (*Material, error) {
	return get(ctx, r.db, ref, "")
}

func get(ctx context.Context, q db.Querier, ref slug.Ref, lock string) (*Material, error) {
	m, err := scan(q.QueryRow(ctx, `SELECT `+columns+` FROM materials `+byRef+lock, ref.IDArg(), ref.Slug))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errs.NotFound(entity, ref.String())
	}
	if err != nil {
		return nil, db.Wrap(entity, "get material", err)
	}
	return m, nil
}

func (r *Repo) Update(ctx context.Context, ref slug.Ref, p Patch) (*Material, error) {
	var out *Material
	err := db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		m, err := get(ctx, tx, ref, " FOR UPDATE")
		if err != nil {
			return err
		}
		if err := m.Apply(p); err != nil {
			return err
		}
		out, err = scan(tx.QueryRow(ctx, `
			UPDATE materials SET name=$2, quantity_unit=$3
			WHERE id=$1
			RETURNING `+columns, m.ID, m.Name, m.QuantityUnit))
		return db.Wrap(entity, "update material", err)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Delete удаляет материал вместе с остатками и строками BOM. Занятое им
// место возвращается в capacity каждого склада.
//
// Блокировки берутся в том же порядке, что и при поставке: сначала склады
// (по id), потом материал. Иначе встречная поставка ловит deadlock.
func (r *Repo) Delete(ctx context.Context, ref slug.Ref) error {
	return db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		m, err := get(ctx, tx, ref, "")
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `
			SELECT 1 FROM warehouses
			WHERE id IN (SELECT warehouse_id FROM stock WHERE material_id = $1)
			ORDER BY id
			FOR UPDATE
		`, m.ID); err != nil {
			return db.Wrap(entity, "lock warehouses", err)
		}
		tag, err := tx.Exec(ctx, `SELECT 1 FROM materials WHERE id=$1 FOR UPDATE`, m.ID)
		if err != nil {
			return db.Wrap(entity, "lock material", err)
		}
		if tag.RowsAffected() == 0 {
			return errs.NotFound(entity, ref.String())
		}
		if _, err := tx.Exec(ctx, `
			UPDATE warehouses w SET capacity = w.capacity + s.quantity
			FROM stock s
			WHERE s.warehouse_id = w.id AND s.material_id = $1
		`, m.ID); err != nil {
			return db.Wrap(entity, "release material stock", err)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM materials WHERE id=$1`, m.ID); err != nil {
			return db.Wrap(entity, "delete material", err)
		}
		return nil
	})
}

// Missing возвращает id без строки в materials, в исходном порядке.
func (r *Repo) Missing(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	strs := make([]string, len(ids))
	for i, id := range ids {
		strs[i] = id.String()
	}
	rows, err := r.db.Query(ctx, `SELECT id FROM materials WHERE id = ANY($1::uuid[])`, strs)
	if err != nil {
		return nil, db.Wrap(entity, "check materials", err)
	}
	defer rows.Close()

	found := make(map[uuid.UUID]struct{}, len(ids))
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, db.Wrap(entity, "check materials", err)
		}
		found[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, db.Wrap(entity, "check materials", err)
	}

	var missing []uuid.UUID
	for _, id := range ids {
		if _, ok := found[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing, nil
}
