// Package sheets выгружает остатки склада в xlsx и читает из xlsx позиции
// поставки.
package sheets

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/Spok95/factory/internal/domain/errs"
	"github.com/Spok95/factory/internal/domain/inventory"
	"github.com/Spok95/factory/internal/domain/warehouses"
	"github.com/xuri/excelize/v2"
)

const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var stockHeader = []interface{}{
	"warehouse_id",
	"warehouse_slug",
	"material_id",
	"material_slug",
	"material_name",
	"quantity",
}

// WriteStock пишет остатки склада: одна строка на материал.
func WriteStock(w io.Writer, wh warehouses.Warehouse, entries []inventory.Entry) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	if err := f.SetSheetRow(sheet, "A1", &stockHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, e := range entries {
		row := []interface{}{
			wh.ID.String(),
			wh.Slug,
			e.MaterialID.String(),
			e.MaterialSlug,
			e.MaterialName,
			e.Quantity,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	return f.Write(w)
}

// Row — позиция из файла. Material — id или slug материала, Line — номер
// строки в файле для сообщений об ошибках.
type Row struct {
	Line     int
	Material string
	Quantity int64
}

// ReadPositions читает активный лист. Если первая строка — заголовок с
// колонкой quantity, материал берётся из material_id, material_slug или
// material; иначе материал в колонке A, количество в колонке B.
func ReadPositions(r io.Reader) ([]Row, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, errs.Invalid("file", "not a readable xlsx file")
	}
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(f.GetSheetName(f.GetActiveSheetIndex()))
	if err != nil {
		return nil, errs.Invalid("file", "cannot read the active sheet")
	}
	if len(rows) == 0 {
		return nil, errs.Invalid("file", "no positions")
	}

	matCol, qtyCol, start := 0, 1, 0
	if m, q, ok := headerColumns(rows[0]); ok {
		matCol, qtyCol, start = m, q, 1
	}

	var out []Row
	for i := start; i < len(rows); i++ {
		line := i + 1
		mat := cell(rows[i], matCol)
		qtyStr := cell(rows[i], qtyCol)
		if mat == "" && qtyStr == "" {
			// пустая строка
			continue
		}
		if mat == "" {
			return nil, errs.Invalid(fmt.Sprintf("row %d", line), "material is empty")
		}
		qty, err := parseQuantity(qtyStr)
		if err != nil {
			return nil, errs.Invalid(fmt.Sprintf("row %d", line), fmt.Sprintf("invalid quantity %q", qtyStr))
		}
		out = append(out, Row{Line: line, Material: mat, Quantity: qty})
	}
	if len(out) == 0 {
		return nil, errs.Invalid("file", "no positions")
	}
	return out, nil
}

func headerColumns(header []string) (mat, qty int, ok bool) {
	mat, qty = -1, -1
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "quantity":
			qty = i
		case "material_id":
			mat = i
		case "material_slug", "material":
			if mat < 0 {
				mat = i
			}
		}
	}
	return mat, qty, mat >= 0 && qty >= 0
}

func cell(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// parseQuantity принимает целые числа, в том числе записанные как 10.0.
// Знак не проверяется: это делает сервис поставок.
func parseQuantity(s string) (int64, error) {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	if err != nil || f != math.Trunc(f) || math.Abs(f) > math.MaxInt64/2 {
		return 0, fmt.Errorf("not an integer: %q", s)
	}
	return int64(f), nil
}
