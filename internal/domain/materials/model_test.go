package materials

import (
	"errors"
	"strings"
	"testing"

	"github.com/Spok95/factory/internal/domain/errs"
)

func TestNew(t *testing.T) {
	m, err := New("Sulphur", "mole")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Slug != "sulphur" {
		t.Fatalf("slug: got %q", m.Slug)
	}
	if m.ID.String() == "00000000-0000-0000-0000-000000000000" {
		t.Fatal("id must be generated")
	}

	invalid := []struct{ name, unit string }{
		{"S", "mole"},
		{"Sulphur", ""},
		{"Sulphur", strings.Repeat("u", 41)},
	}
	for _, tc := range invalid {
		if _, err := New(tc.name, tc.unit); !errors.Is(err, errs.ErrValidation) {
			t.Fatalf("New(%q, %q): expected validation error, got %v", tc.name, tc.unit, err)
		}
	}
}

func TestApplyKeepsSlug(t *testing.T) {
	m, _ := New("Sulphur", "mole")
	name, unit := "Sulfur", "kg"
	if err := m.Apply(Patch{Name: &name, QuantityUnit: &unit}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Name != "Sulfur" || m.QuantityUnit != "kg" {
		t.Fatalf("patch not applied: %+v", m)
	}
	if m.Slug != "sulphur" {
		t.Fatalf("slug must stay stable, got %q", m.Slug)
	}
}

func TestApplyRejectsInvalidPatch(t *testing.T) {
	m, _ := New("Sulphur", "mole")
	name, unit := "Sulfur", ""
	if err := m.Apply(Patch{Name: &name, QuantityUnit: &unit}); !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if m.Name != "Sulphur" {
		t.Fatalf("rejected patch must leave material unchanged, got %+v", m)
	}
}
