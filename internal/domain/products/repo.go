package products

import (
	"context"
	"errors"

	"github.com/Spok95/factory/internal/domain/errs"
	"github.com/Spok95/factory/internal/domain/slug"
	"github.com/Spok95/factory/internal/infra/db"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const (
	entity    = "product"
	bomEntity = "bom"
)

const columns = `id, name, slug, created_at`

const byRef = `WHERE id = $1 OR slug = $2 ORDER BY (id = $1) IS TRUE DESC LIMIT 1`

type Repo struct{ db db.DB }

func NewRepo(d db.DB) *Repo { return &Repo{db: d} }

func scan(row pgx.Row) (*Product, error) {
	var p Product
	if err := row.Scan(&p.ID, &p.Name, &p.Slug, &p.CreatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *Repo) Create(ctx context.Context, name string) (*Product, error) {
	p, err := New(name)
	if err != nil {
		return nil, err
	}
	out, err := scan(r.db.QueryRow(ctx, `
		INSERT INTO products (id, name, slug)
		VALUES ($1,$2,$3)
		RETURNING `+columns, p.ID, p.Name, p.Slug))
	if err != nil {
		return nil, db.Wrap(entity, "create product", err)
	}
	return out, nil
}

func (r *Repo) List(ctx context.Context, offset, limit int) ([]Product, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+columns+`
		FROM products
		ORDER BY created_at, id
		OFFSET $1 LIMIT $2
	`, offset, limit)
	if err != nil {
		return nil, db.Wrap(entity, "list products", err)
	}
	defer rows.Close()

	out := []Product{}
	for rows.Next() {
		p, err := scan(rows)
		if err != nil {
			return nil, db.Wrap(entity, "list products", err)
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, db.Wrap(entity, "list products", err)
	}
	return out, nil
}

func (r *Repo) Get(ctx context.Context, ref slug.Ref) (*Product, error) {
	p, err := scan(r.db.QueryRow(ctx, `SELECT `+columns+` FROM products `+byRef, ref.IDArg(), ref.Slug))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errs.NotFound(entity, ref.String())
	}
	if err != nil {
		return nil, db.Wrap(entity, "get product", err)
	}
	return p, nil
}

func (r *Repo) Update(ctx context.Context, ref slug.Ref, patch Patch) (*Product, error) {
	p, err := r.Get(ctx, ref)
	if err != nil {
		return nil, err
	}
	if err := p.Apply(patch); err != nil {
		return nil, err
	}
	out, err := scan(r.db.QueryRow(ctx, `
		UPDATE products SET name=$2
		WHERE id=$1
		RETURNING `+columns, p.ID, p.Name))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errs.NotFound(entity, ref.String())
	}
	if err != nil {
		return nil, db.Wrap(entity, "update product", err)
	}
	return out, nil
}

// Delete удаляет продукт и его строки BOM.
func (r *Repo) Delete(ctx context.Context, ref slug.Ref) error {
	p, err := r.Get(ctx, ref)
	if err != nil {
		return err
	}
	tag, err := r.db.Exec(ctx, `DELETE FROM products WHERE id=$1`, p.ID)
	if err != nil {
		return db.Wrap(entity, "delete product", err)
	}
	if tag.RowsAffected() == 0 {
		return errs.NotFound(entity, ref.String())
	}
	return nil
}

// SetBOM создаёт или заменяет строку для (продукт, материал).
func (r *Repo) SetBOM(ctx context.Context, productID, materialID uuid.UUID, qty int64) (*BOM, error) {
	if err := ValidateQuantity(qty); err != nil {
		return nil, err
	}
	var b BOM
	err := r.db.QueryRow(ctx, `
		INSERT INTO boms (id, product_id, material_id, quantity)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (product_id, material_id)
		DO UPDATE SET quantity = EXCLUDED.quantity
		RETURNING id, product_id, material_id, quantity, created_at
	`, uuid.New(), productID, materialID, qty).Scan(&b.ID, &b.ProductID, &b.MaterialID, &b.Quantity, &b.CreatedAt)
	if err != nil {
		return nil, db.Wrap(bomEntity, "set bom", err)
	}
	return &b, nil
}

func (r *Repo) RemoveBOM(ctx context.Context, productID, materialID uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM boms WHERE product_id=$1 AND material_id=$2`, productID, materialID)
	if err != nil {
		return db.Wrap(bomEntity, "remove bom", err)
	}
	if tag.RowsAffected() == 0 {
		return errs.NotFound(bomEntity, productID.String()+"/"+materialID.String())
	}
	return nil
}

const bomQuery = `
	SELECT b.id, b.product_id, b.material_id, b.quantity, b.created_at,
	       p.name, p.slug, m.name, m.slug
	FROM boms b
	JOIN products p ON p.id = b.product_id
	JOIN materials m ON m.id = b.material_id
`

func (r *Repo) BOMsByProduct(ctx context.Context, productID uuid.UUID) ([]BOM, error) {
	return r.boms(ctx, bomQuery+` WHERE b.product_id = $1 ORDER BY m.name`, productID)
}

func (r *Repo) BOMsByMaterial(ctx context.Context, materialID uuid.UUID) ([]BOM, error) {
	return r.boms(ctx, bomQuery+` WHERE b.material_id = $1 ORDER BY p.name`, materialID)
}

func (r *Repo) boms(ctx context.Context, q string, id uuid.UUID) ([]BOM, error) {
	rows, err := r.db.Query(ctx, q, id)
	if err != nil {
		return nil, db.Wrap(bomEntity, "list boms", err)
	}
	defer rows.Close()

	out := []BOM{}
	for rows.Next() {
		var b BOM
		if err := rows.Scan(
			&b.ID, &b.ProductID, &b.MaterialID, &b.Quantity, &b.CreatedAt,
			&b.ProductName, &b.ProductSlug, &b.MaterialName, &b.MaterialSlug,
		); err != nil {
			return nil, db.Wrap(bomEntity, "list boms", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, db.Wrap(bomEntity, "list boms", err)
	}
	return out, nil
}
