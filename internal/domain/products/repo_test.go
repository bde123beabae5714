package products

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Spok95/factory/internal/domain/errs"
	"github.com/Spok95/factory/internal/domain/slug"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
)

var cols = []string{"id", "name", "slug", "created_at"}

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(mock.Close)
	return mock
}

func TestCreate(t *testing.T) {
	mock := newMock(t)
	id := uuid.New()
	mock.ExpectQuery(`INSERT INTO products`).
		WithArgs(pgxmock.AnyArg(), "Sulphuric Acid", "sulphuric-acid").
		WillReturnRows(pgxmock.NewRows(cols).AddRow(id, "Sulphuric Acid", "sulphuric-acid", time.Now()))

	p, err := NewRepo(mock).Create(context.Background(), "Sulphuric Acid")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ID != id {
		t.Fatalf("unexpected product %+v", p)
	}
}

func TestUpdateKeepsSlug(t *testing.T) {
	mock := newMock(t)
	id := uuid.New()
	now := time.Now()
	mock.ExpectQuery(`SELECT .* FROM products WHERE id = \$1 OR slug = \$2`).
		WithArgs(nil, "acid").
		WillReturnRows(pgxmock.NewRows(cols).AddRow(id, "Acid", "acid", now))
	mock.ExpectQuery(`UPDATE products SET name=\$2`).
		WithArgs(id, "Strong Acid").
		WillReturnRows(pgxmock.NewRows(cols).AddRow(id, "Strong Acid", "acid", now))

	name := "Strong Acid"
	p, err := NewRepo(mock).Update(context.Background(), slug.Parse("acid"), Patch{Name: &name})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Slug != "acid" || p.Name != "Strong Acid" {
		t.Fatalf("unexpected product %+v", p)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestGetMissing(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery(`SELECT .* FROM products`).WillReturnError(pgx.ErrNoRows)

	_, err := NewRepo(mock).Get(context.Background(), slug.Parse("nope"))
	if !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestSetBOM(t *testing.T) {
	mock := newMock(t)
	prod, mat := uuid.New(), uuid.New()
	mock.ExpectQuery(`INSERT INTO boms .* ON CONFLICT \(product_id, material_id\)`).
		WithArgs(pgxmock.AnyArg(), prod, mat, int64(3)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "product_id", "material_id", "quantity", "created_at"}).
			AddRow(uuid.New(), prod, mat, int64(3), time.Now()))

	b, err := NewRepo(mock).SetBOM(context.Background(), prod, mat, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.Quantity != 3 {
		t.Fatalf("unexpected bom %+v", b)
	}
}

func TestSetBOMRejectsZero(t *testing.T) {
	mock := newMock(t)
	_, err := NewRepo(mock).SetBOM(context.Background(), uuid.New(), uuid.New(), 0)
	if !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRemoveBOMMissing(t *testing.T) {
	mock := newMock(t)
	mock.ExpectExec(`DELETE FROM boms`).WillReturnResult(pgxmock.NewResult("DELETE", 0))

	err := NewRepo(mock).RemoveBOM(context.Background(), uuid.New(), uuid.New())
	if !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestBOMsByMaterial(t *testing.T) {
	mock := newMock(t)
	prod, mat := uuid.New(), uuid.New()
	mock.ExpectQuery(`FROM boms b .* WHERE b.material_id = \$1`).
		WithArgs(mat).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "product_id", "material_id", "quantity", "created_at",
			"product_name", "product_slug", "material_name", "material_slug",
		}).AddRow(uuid.New(), prod, mat, int64(2), time.Now(), "Acid", "acid", "Sulphur", "sulphur"))

	boms, err := NewRepo(mock).BOMsByMaterial(context.Background(), mat)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(boms) != 1 || boms[0].ProductSlug != "acid" {
		t.Fatalf("unexpected boms %+v", boms)
	}
}
