package materials

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Spok95/factory/internal/domain/errs"
	"github.com/Spok95/factory/internal/domain/slug"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
)

var cols = []string{"id", "name", "slug", "quantity_unit", "created_at"}

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
	now := time.Now()

	mock.ExpectQuery(`INSERT INTO materials`).
		WithArgs(pgxmock.AnyArg(), "Sulphur", "sulphur", "mole").
		WillReturnRows(pgxmock.NewRows(cols).AddRow(id, "Sulphur", "sulphur", "mole", now))

	m, err := NewRepo(mock).Create(context.Background(), "Sulphur", "mole")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.ID != id || m.Slug != "sulphur" {
		t.Fatalf("unexpected material: %+v", m)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestCreateDuplicateIsConflict(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery(`INSERT INTO materials`).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "materials_slug_key"})

	_, err := NewRepo(mock).Create(context.Background(), "Sulphur", "mole")
	if !errors.Is(err, errs.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestCreateInvalidSkipsStore(t *testing.T) {
	mock := newMock(t)
	_, err := NewRepo(mock).Create(context.Background(), "S", "mole")
	if !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestGetBySlugAndID(t *testing.T) {
	mock := newMock(t)
	id := uuid.New()
	now := time.Now()

	mock.ExpectQuery(`SELECT .* FROM materials WHERE id = \$1 OR slug = \$2`).
		WithArgs(nil, "sulphur").
		WillReturnRows(pgxmock.NewRows(cols).AddRow(id, "Sulphur", "sulphur", "mole", now))
	mock.ExpectQuery(`SELECT .* FROM materials WHERE id = \$1 OR slug = \$2`).
		WithArgs(id, id.String()).
		WillReturnRows(pgxmock.NewRows(cols).AddRow(id, "Sulphur", "sulphur", "mole", now))

	repo := NewRepo(mock)
	for _, ref := range []slug.Ref{slug.Parse("sulphur"), slug.ByID(id)} {
		m, err := repo.Get(context.Background(), ref)
		if err != nil {
			t.Fatalf("Get(%s): %v", ref, err)
		}
		if m.ID != id {
			t.Fatalf("Get(%s): got %s", ref, m.ID)
		}
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestGetMissing(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery(`SELECT .* FROM materials`).
		WithArgs(nil, "does-not-exist").
		WillReturnError(pgx.ErrNoRows)

	_, err := NewRepo(mock).Get(context.Background(), slug.Parse("does-not-exist"))
	var nf *errs.NotFoundError
	if !errors.As(err, &nf) || nf.Entity != "material" {
		t.Fatalf("expected material not found, got %v", err)
	}
}

func TestUpdate(t *testing.T) {
	mock := newMock(t)
	id := uuid.New()
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .* FROM materials .* FOR UPDATE`).
		WithArgs(nil, "sulphur").
		WillReturnRows(pgxmock.NewRows(cols).AddRow(id, "Sulphur", "sulphur", "mole", now))
	mock.ExpectQuery(`UPDATE materials SET name=\$2, quantity_unit=\$3`).
		WithArgs(id, "Sulphur", "kg").
		WillReturnRows(pgxmock.NewRows(cols).AddRow(id, "Sulphur", "sulphur", "kg", now))
	mock.ExpectCommit()

	unit := "kg"
	m, err := NewRepo(mock).Update(context.Background(), slug.Parse("sulphur"), Patch{QuantityUnit: &unit})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.QuantityUnit != "kg" {
		t.Fatalf("unit: got %q", m.QuantityUnit)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestUpdateInvalidRollsBack(t *testing.T) {
	mock := newMock(t)
	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .* FROM materials .* FOR UPDATE`).
		WillReturnRows(pgxmock.NewRows(cols).AddRow(id, "Sulphur", "sulphur", "mole", time.Now()))
	mock.ExpectRollback()

	unit := ""
	_, err := NewRepo(mock).Update(context.Background(), slug.Parse("sulphur"), Patch{QuantityUnit: &unit})
	if !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestDeleteReleasesCapacity(t *testing.T) {
	mock := newMock(t)
	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .* FROM materials WHERE`).
		WithArgs(nil, "hydrogen").
		WillReturnRows(pgxmock.NewRows(cols).AddRow(id, "Hydrogen", "hydrogen", "mole", time.Now()))
	// склады блокируются раньше материала, как при поставке
	mock.ExpectExec(`SELECT 1 FROM warehouses\s+WHERE id IN \(SELECT warehouse_id FROM stock WHERE material_id = \$1\)\s+ORDER BY id\s+FOR UPDATE`).
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("SELECT", 2))
	mock.ExpectExec(`SELECT 1 FROM materials WHERE id=\$1 FOR UPDATE`).
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("SELECT", 1))
	mock.ExpectExec(`UPDATE warehouses w SET capacity = w.capacity \+ s.quantity`).
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 2))
	mock.ExpectExec(`DELETE FROM materials WHERE id=\$1`).
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectCommit()

	if err := NewRepo(mock).Delete(context.Background(), slug.Parse("hydrogen")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestDeleteMaterialGoneBeforeLock(t *testing.T) {
	mock := newMock(t)
	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .* FROM materials WHERE`).
		WithArgs(nil, "hydrogen").
		WillReturnRows(pgxmock.NewRows(cols).AddRow(id, "Hydrogen", "hydrogen", "mole", time.Now()))
	mock.ExpectExec(`SELECT 1 FROM warehouses`).
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("SELECT", 0))
	mock.ExpectExec(`SELECT 1 FROM materials WHERE id=\$1 FOR UPDATE`).
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("SELECT", 0))
	mock.ExpectRollback()

	err := NewRepo(mock).Delete(context.Background(), slug.Parse("hydrogen"))
	if !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestMissing(t *testing.T) {
	mock := newMock(t)
	known, unknown := uuid.New(), uuid.New()

	mock.ExpectQuery(`SELECT id FROM materials WHERE id = ANY`).
		WithArgs([]string{known.String(), unknown.String()}).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(known))

	missing, err := NewRepo(mock).Missing(context.Background(), []uuid.UUID{known, unknown})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(missing) != 1 || missing[0] != unknown {
		t.Fatalf("missing: got %v", missing)
	}
}
