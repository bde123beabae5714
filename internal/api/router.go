// Package api — HTTP-интерфейс поверх репозиториев и сервиса поставок.
package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/Spok95/factory/internal/domain/delivery"
	"github.com/Spok95/factory/internal/domain/inventory"
	"github.com/Spok95/factory/internal/domain/materials"
	"github.com/Spok95/factory/internal/domain/products"
	"github.com/Spok95/factory/internal/domain/slug"
	"github.com/Spok95/factory/internal/domain/warehouses"
	"github.com/Spok95/factory/internal/infra/idempotency"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type Materials interface {
	Create(ctx context.Context, name, unit string) (*materials.Material, error)
	List(ctx context.Context, offset, limit int) ([]materials.Material, error)
	Get(ctx context.Context, ref slug.Ref) (*materials.Material, error)
	Update(ctx context.Context, ref slug.Ref, p materials.Patch) (*materials.Material, error)
	Delete(ctx context.Context, ref slug.Ref) error
}

type Warehouses interface {
	Create(ctx context.Context, name, location string, maxCapacity *int64) (*warehouses.Warehouse, error)
	List(ctx context.Context, offset, limit int) ([]warehouses.Warehouse, error)
	Get(ctx context.Context, ref slug.Ref) (*warehouses.Warehouse, error)
	Update(ctx context.Context, ref slug.Ref, p warehouses.Patch) (*warehouses.Warehouse, error)
	Delete(ctx context.Context, ref slug.Ref) error
}

type Products interface {
	Create(ctx context.Context, name string) (*products.Product, error)
	List(ctx context.Context, offset, limit int) ([]products.Product, error)
	Get(ctx context.Context, ref slug.Ref) (*products.Product, error)
	Update(ctx context.Context, ref slug.Ref, p products.Patch) (*products.Product, error)
	Delete(ctx context.Context, ref slug.Ref) error
	SetBOM(ctx context.Context, productID, materialID uuid.UUID, qty int64) (*products.BOM, error)
	RemoveBOM(ctx context.Context, productID, materialID uuid.UUID) error
	BOMsByProduct(ctx context.Context, productID uuid.UUID) ([]products.BOM, error)
	BOMsByMaterial(ctx context.Context, materialID uuid.UUID) ([]products.BOM, error)
}

type Stock interface {
	ByWarehouse(ctx context.Context, warehouseID uuid.UUID) ([]inventory.Entry, error)
	ByMaterial(ctx context.Context, materialID uuid.UUID) ([]inventory.Entry, error)
}

type Deliverer interface {
	Deliver(ctx context.Context, req delivery.Request) (*delivery.Receipt, error)
}

// Idempotency — необязательный кэш ответов по Idempotency-Key.
type Idempotency interface {
	Do(ctx context.Context, key, fingerprint string, fn func() (idempotency.Response, error)) (idempotency.Response, bool, error)
}

type Deps struct {
	Materials   Materials
	Warehouses  Warehouses
	Products    Products
	Stock       Stock
	Delivery    Deliverer
	Idempotency Idempotency
	Log         *slog.Logger
	// Middleware навешивается на каждый найденный маршрут, например метрики.
	Middleware []mux.MiddlewareFunc
}

type API struct {
	Deps
}

func New(d Deps) http.Handler {
	a := &API{Deps: d}

	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, errorResponse{Detail: "Not Found"})
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Detail: "Method Not Allowed"})
	})
	for _, m := range d.Middleware {
		r.Use(m)
	}

	// коллекции доступны и со слешем на конце, и без него
	collection := func(path string, list, create http.HandlerFunc) {
		for _, p := range []string{path, path + "/"} {
			r.HandleFunc(p, list).Methods(http.MethodGet)
			r.HandleFunc(p, create).Methods(http.MethodPost)
		}
	}
	item := func(path string, get, patch, del http.HandlerFunc) {
		r.HandleFunc(path, get).Methods(http.MethodGet)
		r.HandleFunc(path, patch).Methods(http.MethodPatch)
		r.HandleFunc(path, del).Methods(http.MethodDelete)
	}

	collection("/materials", a.listMaterials, a.createMaterial)
	item("/materials/{ref}", a.getMaterial, a.patchMaterial, a.deleteMaterial)

	collection("/warehouses", a.listWarehouses, a.createWarehouse)
	item("/warehouses/{ref}", a.getWarehouse, a.patchWarehouse, a.deleteWarehouse)
	r.HandleFunc("/warehouses/{ref}/stock.xlsx", a.exportStock).Methods(http.MethodGet)

	collection("/products", a.listProducts, a.createProduct)
	item("/products/{ref}", a.getProduct, a.patchProduct, a.deleteProduct)
	r.HandleFunc("/products/{ref}/boms/{material}", a.setBOM).Methods(http.MethodPut)
	r.HandleFunc("/products/{ref}/boms/{material}", a.removeBOM).Methods(http.MethodDelete)

	r.HandleFunc("/delivery", a.deliver).Methods(http.MethodPost)
	r.HandleFunc("/delivery/", a.deliver).Methods(http.MethodPost)
	r.HandleFunc("/delivery/import", a.importDelivery).Methods(http.MethodPost)

	return otelhttp.NewHandler(accessLog(d.Log)(r), "http-server")
}
