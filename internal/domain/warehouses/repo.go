package warehouses

import (
	"context"
	"errors"

	"github.com/Spok95/factory/internal/domain/errs"
	"github.com/Spok95/factory/internal/domain/slug"
	"github.com/Spok95/factory/internal/infra/db"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const entity = "warehouse"

const columns = `id, name, slug, location, max_capacity, capacity, created_at`

const byRef = `WHERE id = $1 OR slug = $2 ORDER BY (id = $1) IS TRUE DESC LIMIT 1`

type Repo struct{ db db.DB }

func NewRepo(d db.DB) *Repo { return &Repo{db: d} }

func scan(row pgx.Row) (*Warehouse, error) {
	var w Warehouse
	if err := row.Scan(&w.ID, &w.Name, &w.Slug, &w.Location, &w.MaxCapacity, &w.Capacity, &w.CreatedAt); err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *Repo) Create(ctx context.Context, name, location string, maxCapacity *int64) (*Warehouse, error) {
	w, err := New(name, location, maxCapacity)
	if err != nil {
		return nil, err
	}
	row := r.db.QueryRow(ctx, `
		INSERT INTO warehouses (id, name, slug, location, max_capacity, capacity)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING `+columns, w.ID, w.Name, w.Slug, w.Location, w.MaxCapacity, w.Capacity)
	out, err := scan(row)
	if err != nil {
		return nil, db.Wrap(entity, "create warehouse", err)
	}
	return out, nil
}

func (r *Repo) List(ctx context.Context, offset, limit int) ([]Warehouse, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+columns+`
		FROM warehouses
		ORDER BY created_at, id
		OFFSET $1 LIMIT $2
	`, offset, limit)
	if err != nil {
		return nil, db.Wrap(entity, "list warehouses", err)
	}
	defer rows.Close()

	out := []Warehouse{}
	for rows.Next() {
		w, err := scan(rows)
		if err != nil {
			return nil, db.Wrap(entity, "list warehouses", err)
		}
		out = append(out, *w)
	}
	if err := rows.Err(); err != nil {
		return nil, db.Wrap(entity, "list warehouses", err)
	}
	return out, nil
}

func (r *Repo) Get(ctx context.Context, ref slug.Ref) (*Warehouse, error) {
	return get(ctx, r.db, ref, "")
}

func get(ctx context.Context, q db.Querier, ref slug.Ref, lock string) (*Warehouse, error) {
	w, err := scan(q.QueryRow(ctx, `SELECT `+columns+` FROM warehouses `+byRef+lock, ref.IDArg(), ref.Slug))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errs.NotFound(entity, ref.String())
	}
	if err != nil {
		return nil, db.Wrap(entity, "get warehouse", err)
	}
	return w, nil
}

// Lock читает склад с FOR UPDATE. Только внутри транзакции, блокировка
// держится до commit/rollback.
func (r *Repo) Lock(ctx context.Context, id uuid.UUID) (*Warehouse, error) {
	w, err := scan(r.db.QueryRow(ctx, `SELECT `+columns+` FROM warehouses WHERE id=$1 FOR UPDATE`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errs.NotFound(entity, id.String())
	}
	if err != nil {
		return nil, db.Wrap(entity, "lock warehouse", err)
	}
	return w, nil
}

// Consume уменьшает capacity на qty. Условие в WHERE не даёт уйти в минус
// даже без Lock.
func (r *Repo) Consume(ctx context.Context, id uuid.UUID, qty int64) (*Warehouse, error) {
	w, err := scan(r.db.QueryRow(ctx, `
		UPDATE warehouses SET capacity = capacity - $2
		WHERE id = $1 AND capacity >= $2
		RETURNING `+columns, id, qty))
	if errors.Is(err, pgx.ErrNoRows) {
		// склада нет или не хватает места; при поставке строка уже
		// заблокирована, так что остаётся только второе
		return nil, &errs.CapacityExceededError{Requested: qty}
	}
	if err != nil {
		return nil, db.Wrap(entity, "consume capacity", err)
	}
	return w, nil
}

func (r *Repo) Update(ctx context.Context, ref slug.Ref, p Patch) (*Warehouse, error) {
	var out *Warehouse
	err := db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		w, err := get(ctx, tx, ref, " FOR UPDATE")
		if err != nil {
			return err
		}
		if err := w.Apply(p); err != nil {
			return err
		}
		out, err = scan(tx.QueryRow(ctx, `
			UPDATE warehouses SET name=$2, location=$3, max_capacity=$4, capacity=$5
			WHERE id=$1
			RETURNING `+columns, w.ID, w.Name, w.Location, w.MaxCapacity, w.Capacity))
		return db.Wrap(entity, "update warehouse", err)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Delete удаляет склад вместе с его остатками.
func (r *Repo) Delete(ctx context.Context, ref slug.Ref) error {
	w, err := r.Get(ctx, ref)
	if err != nil {
		return err
	}
	tag, err := r.db.Exec(ctx, `DELETE FROM warehouses WHERE id=$1`, w.ID)
	if err != nil {
		return db.Wrap(entity, "delete warehouse", err)
	}
	if tag.RowsAffected() == 0 {
		return errs.NotFound(entity, ref.String())
	}
	return nil
}
