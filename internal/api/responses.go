package api

import (
	"time"

	"github.com/Spok95/factory/internal/domain/inventory"
	"github.com/Spok95/factory/internal/domain/materials"
	"github.com/Spok95/factory/internal/domain/products"
	"github.com/Spok95/factory/internal/domain/warehouses"
	"github.com/google/uuid"
)

type materialResponse struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Slug         string    `json:"slug"`
	QuantityUnit string    `json:"quantity_unit"`
	CreatedAt    time.Time `json:"created_at"`
}

type materialDetail struct {
	materialResponse
	BOMs     []bomResponse   `json:"boms"`
	Stock    []stockResponse `json:"stock"`
	Products []productSimple `json:"products"`
}

type materialSimple struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type warehouseResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Location    string    `json:"location"`
	MaxCapacity int64     `json:"max_capacity"`
	Capacity    int64     `json:"capacity"`
	CreatedAt   time.Time `json:"created_at"`
}

type warehouseDetail struct {
	warehouseResponse
	Stock []stockResponse `json:"stock"`
}

type productResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"created_at"`
}

type productDetail struct {
	productResponse
	BOMs      []bomResponse    `json:"boms"`
	Materials []materialSimple `json:"materials"`
}

type productSimple struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type stockResponse struct {
	ID            uuid.UUID `json:"id"`
	MaterialID    uuid.UUID `json:"material_id"`
	WarehouseID   uuid.UUID `json:"warehouse_id"`
	Quantity      int64     `json:"quantity"`
	MaterialName  string    `json:"material_name"`
	MaterialSlug  string    `json:"material_slug"`
	WarehouseName string    `json:"warehouse_name"`
	WarehouseSlug string    `json:"warehouse_slug"`
}

type bomResponse struct {
	ID           uuid.UUID `json:"id"`
	MaterialID   uuid.UUID `json:"material_id"`
	ProductID    uuid.UUID `json:"product_id"`
	Quantity     int64     `json:"quantity"`
	MaterialName string    `json:"material_name"`
	MaterialSlug string    `json:"material_slug"`
	ProductName  string    `json:"product_name"`
	ProductSlug  string    `json:"product_slug"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

func toMaterial(m materials.Material) materialResponse {
	return materialResponse{
		ID:           m.ID,
		Name:         m.Name,
		Slug:         m.Slug,
		QuantityUnit: m.QuantityUnit,
		CreatedAt:    m.CreatedAt,
	}
}

func toWarehouse(w warehouses.Warehouse) warehouseResponse {
	return warehouseResponse{
		ID:          w.ID,
		Name:        w.Name,
		Slug:        w.Slug,
		Location:    w.Location,
		MaxCapacity: w.MaxCapacity,
		Capacity:    w.Capacity,
		CreatedAt:   w.CreatedAt,
	}
}

func toProduct(p products.Product) productResponse {
	return productResponse{ID: p.ID, Name: p.Name, Slug: p.Slug, CreatedAt: p.CreatedAt}
}

func toStock(entries []inventory.Entry) []stockResponse {
	out := make([]stockResponse, len(entries))
	for i, e := range entries {
		out[i] = stockResponse{
			ID:            e.ID,
			MaterialID:    e.MaterialID,
			WarehouseID:   e.WarehouseID,
			Quantity:      e.Quantity,
			MaterialName:  e.MaterialName,
			MaterialSlug:  e.MaterialSlug,
			WarehouseName: e.WarehouseName,
			WarehouseSlug: e.WarehouseSlug,
		}
	}
	return out
}

func toBOMs(boms []products.BOM) []bomResponse {
	out := make([]bomResponse, len(boms))
	for i, b := range boms {
		out[i] = toBOM(b)
	}
	return out
}

func toBOM(b products.BOM) bomResponse {
	return bomResponse{
		ID:           b.ID,
		MaterialID:   b.MaterialID,
		ProductID:    b.ProductID,
		Quantity:     b.Quantity,
		MaterialName: b.MaterialName,
		MaterialSlug: b.MaterialSlug,
		ProductName:  b.ProductName,
		ProductSlug:  b.ProductSlug,
	}
}

func mapSlice[T, R any](in []T, fn func(T) R) []R {
	out := make([]R, len(in))
	for i, v := range in {
		out[i] = fn(v)
	}
	return out
}
