package warehouses

import (
	"errors"
	"testing"

	"github.com/Spok95/factory/internal/domain/errs"
)

func ptr[T any](v T) *T { return &v }

func TestNewDefaultsCapacity(t *testing.T) {
	w, err := New("Test Warehouse", "Wien", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if w.MaxCapacity != DefaultMaxCapacity || w.Capacity != DefaultMaxCapacity {
		t.Fatalf("expected default capacity, got %+v", w)
	}
	if w.Slug != "test-warehouse" {
		t.Fatalf("slug: got %q", w.Slug)
	}
}

func TestNewValidation(t *testing.T) {
	cases := []struct {
		name, location string
		max            *int64
	}{
		{"W", "Wien", nil},
		{"Test Warehouse", "W", nil},
		{"Test Warehouse", "Wien", ptr[int64](0)},
		{"Test Warehouse", "Wien", ptr[int64](-5)},
	}
	for _, tc := range cases {
		if _, err := New(tc.name, tc.location, tc.max); !errors.Is(err, errs.ErrValidation) {
			t.Fatalf("New(%q, %q, %v): expected validation error, got %v", tc.name, tc.location, tc.max, err)
		}
	}
}

func TestApplyMaxCapacity(t *testing.T) {
	w, _ := New("Test Warehouse", "Wien", ptr[int64](100))
	if err := w.Reserve(30); err != nil {
		t.Fatal(err)
	}

	if err := w.Apply(Patch{MaxCapacity: ptr[int64](50)}); err != nil {
		t.Fatalf("lowering above consumed must succeed: %v", err)
	}
	if w.MaxCapacity != 50 || w.Capacity != 20 {
		t.Fatalf("expected 50/20, got %d/%d", w.MaxCapacity, w.Capacity)
	}

	if err := w.Apply(Patch{MaxCapacity: ptr[int64](30)}); err != nil {
		t.Fatalf("lowering to exactly consumed must succeed: %v", err)
	}
	if w.Capacity != 0 {
		t.Fatalf("expected capacity 0, got %d", w.Capacity)
	}
}

func TestApplyBelowConsumedLeavesWarehouseUnchanged(t *testing.T) {
	w, _ := New("Test Warehouse", "Wien", ptr[int64](100))
	if err := w.Reserve(30); err != nil {
		t.Fatal(err)
	}
	before := *w

	err := w.Apply(Patch{Location: ptr("Graz"), MaxCapacity: ptr[int64](29)})
	if !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if *w != before {
		t.Fatalf("warehouse changed: before %+v after %+v", before, *w)
	}
}

func TestReserve(t *testing.T) {
	w, _ := New("Test Warehouse", "Wien", ptr[int64](15))
	err := w.Reserve(30)
	var ce *errs.CapacityExceededError
	if !errors.As(err, &ce) {
		t.Fatalf("expected capacity exceeded, got %v", err)
	}
	if ce.Requested != 30 || ce.Available != 15 {
		t.Fatalf("unexpected details %+v", ce)
	}
	if w.Capacity != 15 {
		t.Fatalf("capacity changed to %d", w.Capacity)
	}

	if err := w.Reserve(15); err != nil {
		t.Fatal(err)
	}
	w.Release(20)
	if w.Capacity != 15 {
		t.Fatalf("release must clamp at max capacity, got %d", w.Capacity)
	}
}
