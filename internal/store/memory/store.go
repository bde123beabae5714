// Package memory — хранилище в памяти с теми же контрактами, что и
// postgres-репозитории. Используется, когда DSN не задан, и в тестах.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Spok95/factory/internal/domain/delivery"
	"github.com/Spok95/factory/internal/domain/errs"
	"github.com/Spok95/factory/internal/domain/inventory"
	"github.com/Spok95/factory/internal/domain/materials"
	"github.com/Spok95/factory/internal/domain/products"
	"github.com/Spok95/factory/internal/domain/slug"
	"github.com/Spok95/factory/internal/domain/warehouses"
	"github.com/google/uuid"
)

type pair struct {
	a, b uuid.UUID
}

type state struct {
	materials  map[uuid.UUID]materials.Material
	warehouses map[uuid.UUID]warehouses.Warehouse
	products   map[uuid.UUID]products.Product
	boms       map[pair]products.BOM      // (product, material)
	stock      map[pair]inventory.Entry   // (warehouse, material)
}

func newState() state {
	return state{
		materials:  map[uuid.UUID]materials.Material{},
		warehouses: map[uuid.UUID]warehouses.Warehouse{},
		products:   map[uuid.UUID]products.Product{},
		boms:       map[pair]products.BOM{},
		stock:      map[pair]inventory.Entry{},
	}
}

// значения в картах — плоские структуры, поэтому копии карт достаточно
func (s state) clone() state {
	c := newState()
	for k, v := range s.materials {
		c.materials[k] = v
	}
	for k, v := range s.warehouses {
		c.warehouses[k] = v
	}
	for k, v := range s.products {
		c.products[k] = v
	}
	for k, v := range s.boms {
		c.boms[k] = v
	}
	for k, v := range s.stock {
		c.stock[k] = v
	}
	return c
}

type Store struct {
	mu    sync.RWMutex
	state state
	last  time.Time
	nowFn func() time.Time
}

func New() *Store {
	return &Store{state: newState(), nowFn: time.Now}
}

// now строго возрастает, чтобы порядок создания был однозначным.
func (s *Store) now() time.Time {
	t := s.nowFn().UTC()
	if !t.After(s.last) {
		t = s.last.Add(time.Microsecond)
	}
	s.last = t
	return t
}

func (s *Store) read(fn func(st *state) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(&s.state)
}

// write применяет fn к копии состояния и подменяет состояние только при
// успехе.
func (s *Store) write(fn func(st *state) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.state.clone()
	if err := fn(&st); err != nil {
		return err
	}
	s.state = st
	return nil
}

// InTx реализует delivery.Store. Транзакции сериализуются мьютексом.
func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context, tx delivery.Tx) error) error {
	return s.write(func(st *state) error {
		return fn(ctx, &tx{st: st, store: s})
	})
}

func (s *Store) Materials() *Materials   { return &Materials{s: s} }
func (s *Store) Warehouses() *Warehouses { return &Warehouses{s: s} }
func (s *Store) Products() *Products     { return &Products{s: s} }
func (s *Store) Stock() *Stock           { return &Stock{s: s} }

func page[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return []T{}
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

// resolve ищет сначала по id, потом по slug.
func resolve[T any](m map[uuid.UUID]T, ref slug.Ref, slugOf func(T) string) (T, bool) {
	if ref.ID != nil {
		if v, ok := m[*ref.ID]; ok {
			return v, true
		}
	}
	for _, v := range m {
		if slugOf(v) == ref.Slug {
			return v, true
		}
	}
	var zero T
	return zero, false
}

func sortByCreated[T any](items []T, created func(T) time.Time) {
	sort.Slice(items, func(i, j int) bool { return created(items[i]).Before(created(items[j])) })
}

func (st *state) stockEntry(e inventory.Entry) inventory.Entry {
	m := st.materials[e.MaterialID]
	w := st.warehouses[e.WarehouseID]
	e.MaterialName, e.MaterialSlug = m.Name, m.Slug
	e.WarehouseName, e.WarehouseSlug = w.Name, w.Slug
	return e
}

func (st *state) stockWhere(keep func(inventory.Entry) bool, less func(a, b inventory.Entry) bool) []inventory.Entry {
	out := []inventory.Entry{}
	for _, e := range st.stock {
		if keep(e) {
			out = append(out, st.stockEntry(e))
		}
	}
	sort.Slice(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

func (st *state) warehouseStock(id uuid.UUID) []inventory.Entry {
	return st.stockWhere(
		func(e inventory.Entry) bool { return e.WarehouseID == id },
		func(a, b inventory.Entry) bool { return a.MaterialName < b.MaterialName },
	)
}

type tx struct {
	st    *state
	store *Store
}

func (t *tx) LockWarehouse(_ context.Context, id uuid.UUID) (*warehouses.Warehouse, error) {
	w, ok := t.st.warehouses[id]
	if !ok {
		return nil, errs.NotFound("warehouse", id.String())
	}
	return &w, nil
}

func (t *tx) MissingMaterials(_ context.Context, ids []uuid.UUID) ([]uuid.UUID, error) {
	var missing []uuid.UUID
	for _, id := range ids {
		if _, ok := t.st.materials[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

func (t *tx) ConsumeCapacity(_ context.Context, id uuid.UUID, qty int64) (*warehouses.Warehouse, error) {
	w, ok := t.st.warehouses[id]
	if !ok {
		return nil, errs.NotFound("warehouse", id.String())
	}
	if err := w.Reserve(qty); err != nil {
		return nil, err
	}
	t.st.warehouses[id] = w
	return &w, nil
}

func (t *tx) AddStock(_ context.Context, warehouseID, materialID uuid.UUID, qty int64) (*inventory.Entry, error) {
	if qty < 0 {
		return nil, errs.Invalid("quantity", "stock can only grow through deliveries")
	}
	k := pair{warehouseID, materialID}
	e, ok := t.st.stock[k]
	if !ok {
		e = inventory.Entry{
			ID:          uuid.New(),
			WarehouseID: warehouseID,
			MaterialID:  materialID,
			CreatedAt:   t.store.now(),
		}
	}
	e.Quantity += qty
	t.st.stock[k] = e
	return &e, nil
}

func (t *tx) WarehouseStock(_ context.Context, id uuid.UUID) ([]inventory.Entry, error) {
	return t.st.warehouseStock(id), nil
}

type Stock struct{ s *Store }

func (r *Stock) ByWarehouse(_ context.Context, id uuid.UUID) ([]inventory.Entry, error) {
	var out []inventory.Entry
	err := r.s.read(func(st *state) error {
		out = st.warehouseStock(id)
		return nil
	})
	return out, err
}

func (r *Stock) ByMaterial(_ context.Context, id uuid.UUID) ([]inventory.Entry, error) {
	var out []inventory.Entry
	err := r.s.read(func(st *state) error {
		out = st.stockWhere(
			func(e inventory.Entry) bool { return e.MaterialID == id },
			func(a, b inventory.Entry) bool { return a.WarehouseName < b.WarehouseName },
		)
		return nil
	})
	return out, err
}
