package db

import (
	"context"
	"errors"
	"testing"

	"github.com/Spok95/factory/internal/domain/errs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
)

func TestWrap(t *testing.T) {
	dup := &pgconn.PgError{Code: "23505", ConstraintName: "materials_slug_key"}
	if err := Wrap("material", "create material", dup); !errors.Is(err, errs.ErrConflict) {
		t.Fatalf("unique violation: got %v", err)
	}

	nf := errs.NotFound("material", "x")
	if err := Wrap("material", "get material", nf); err != nf {
		t.Fatalf("classified error must pass through, got %v", err)
	}

	err := Wrap("material", "list materials", errors.New("conn reset"))
	if !errors.Is(err, errs.ErrStorage) {
		t.Fatalf("driver error: got %v", err)
	}

	if Wrap("material", "noop", nil) != nil {
		t.Fatal("nil must stay nil")
	}
}

func TestWithTxCommits(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE warehouses`).WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	err = WithTx(context.Background(), mock, func(tx pgx.Tx) error {
		_, err := tx.Exec(context.Background(), `UPDATE warehouses SET capacity = capacity`)
		return err
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestWithTxRollsBackOnError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectRollback()

	want := errs.Invalid("quantity", "must be positive")
	err = WithTx(context.Background(), mock, func(pgx.Tx) error { return want })
	if err != want {
		t.Fatalf("expected fn error, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestWithTxCommitFailure(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectCommit().WillReturnError(errors.New("serialization failure"))
	mock.ExpectRollback()

	err = WithTx(context.Background(), mock, func(pgx.Tx) error { return nil })
	if !errors.Is(err, errs.ErrStorage) {
		t.Fatalf("expected storage error, got %v", err)
	}
}
