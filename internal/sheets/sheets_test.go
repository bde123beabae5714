package sheets

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/Spok95/factory/internal/domain/errs"
	"github.com/Spok95/factory/internal/domain/inventory"
	"github.com/Spok95/factory/internal/domain/warehouses"
	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

func book(t *testing.T, rows ...[]interface{}) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	for i, r := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(sheet, cell, &r); err != nil {
			t.Fatal(err)
		}
	}
	buf := &bytes.Buffer{}
	if err := f.Write(buf); err != nil {
		t.Fatal(err)
	}
	return buf
}

func TestExportReadsBackAsDelivery(t *testing.T) {
	wh := warehouses.Warehouse{ID: uuid.New(), Slug: "main"}
	o2, h2 := uuid.New(), uuid.New()
	entries := []inventory.Entry{
		{MaterialID: h2, MaterialSlug: "h2", MaterialName: "H2", Quantity: 20},
		{MaterialID: o2, MaterialSlug: "o2", MaterialName: "O2", Quantity: 10},
	}

	buf := &bytes.Buffer{}
	if err := WriteStock(buf, wh, entries); err != nil {
		t.Fatal(err)
	}

	rows, err := ReadPositions(buf)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %+v", rows)
	}
	if rows[0].Material != h2.String() || rows[0].Quantity != 20 || rows[0].Line != 2 {
		t.Fatalf("unexpected first row %+v", rows[0])
	}
	if rows[1].Material != o2.String() || rows[1].Quantity != 10 {
		t.Fatalf("unexpected second row %+v", rows[1])
	}
}

func TestReadWithoutHeader(t *testing.T) {
	buf := book(t,
		[]interface{}{"o2", 10},
		[]interface{}{"", ""},
		[]interface{}{"h2", "20"},
	)
	rows, err := ReadPositions(buf)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 || rows[0].Material != "o2" || rows[1].Quantity != 20 || rows[1].Line != 3 {
		t.Fatalf("unexpected rows %+v", rows)
	}
}

func TestReadSlugHeader(t *testing.T) {
	buf := book(t,
		[]interface{}{"note", "quantity", "material_slug"},
		[]interface{}{"first", 5, "o2"},
	)
	rows, err := ReadPositions(buf)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || rows[0].Material != "o2" || rows[0].Quantity != 5 {
		t.Fatalf("unexpected rows %+v", rows)
	}
}

func TestReadBadQuantityNamesRow(t *testing.T) {
	buf := book(t,
		[]interface{}{"material", "quantity"},
		[]interface{}{"o2", 10},
		[]interface{}{"h2", "lots"},
	)
	_, err := ReadPositions(buf)
	var ve *errs.ValidationError
	if !errors.As(err, &ve) || ve.Field != "row 3" {
		t.Fatalf("expected validation error on row 3, got %v", err)
	}
}

func TestReadGarbage(t *testing.T) {
	_, err := ReadPositions(strings.NewReader("definitely not a zip"))
	if !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestReadEmptySheet(t *testing.T) {
	_, err := ReadPositions(book(t, []interface{}{"material_id", "quantity"}))
	if !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestParseQuantity(t *testing.T) {
	for in, want := range map[string]int64{"10": 10, "10.0": 10, "7,0": 7, "-3": -3} {
		got, err := parseQuantity(in)
		if err != nil || got != want {
			t.Fatalf("%q: got %d, %v", in, got, err)
		}
	}
	for _, in := range []string{"", "1.5", "ten"} {
		if _, err := parseQuantity(in); err == nil {
			t.Fatalf("%q must not parse", in)
		}
	}
}
