package memory

import (
	"context"
	"time"

	"github.com/Spok95/factory/internal/domain/errs"
	"github.com/Spok95/factory/internal/domain/slug"
	"github.com/Spok95/factory/internal/domain/warehouses"
)

type Warehouses struct{ s *Store }

func warehouseSlug(w warehouses.Warehouse) string { return w.Slug }

func (st *state) warehouseConflict(w warehouses.Warehouse) error {
	for _, o := range st.warehouses {
		if o.ID == w.ID {
			continue
		}
		switch {
		case o.Name == w.Name:
			return errs.Conflict("warehouse", "warehouses_name_key")
		case o.Slug == w.Slug:
			return errs.Conflict("warehouse", "warehouses_slug_key")
		case o.Location == w.Location:
			return errs.Conflict("warehouse", "warehouses_location_key")
		}
	}
	return nil
}

func (r *Warehouses) Create(_ context.Context, name, location string, maxCapacity *int64) (*warehouses.Warehouse, error) {
	w, err := warehouses.New(name, location, maxCapacity)
	if err != nil {
		return nil, err
	}
	err = r.s.write(func(st *state) error {
		if err := st.warehouseConflict(*w); err != nil {
			return err
		}
		w.CreatedAt = r.s.now()
		st.warehouses[w.ID] = *w
		return nil
	})
	if err != nil {
		return nil, err
	}
	return w, nil
}

func (r *Warehouses) List(_ context.Context, offset, limit int) ([]warehouses.Warehouse, error) {
	var out []warehouses.Warehouse
	err := r.s.read(func(st *state) error {
		all := make([]warehouses.Warehouse, 0, len(st.warehouses))
		for _, w := range st.warehouses {
			all = append(all, w)
		}
		sortByCreated(all, func(w warehouses.Warehouse) time.Time { return w.CreatedAt })
		out = page(all, offset, limit)
		return nil
	})
	return out, err
}

func (r *Warehouses) Get(_ context.Context, ref slug.Ref) (*warehouses.Warehouse, error) {
	var out *warehouses.Warehouse
	err := r.s.read(func(st *state) error {
		w, ok := resolve(st.warehouses, ref, warehouseSlug)
		if !ok {
			return errs.NotFound("warehouse", ref.String())
		}
		out = &w
		return nil
	})
	return out, err
}

func (r *Warehouses) Update(_ context.Context, ref slug.Ref, p warehouses.Patch) (*warehouses.Warehouse, error) {
	var out *warehouses.Warehouse
	err := r.s.write(func(st *state) error {
		w, ok := resolve(st.warehouses, ref, warehouseSlug)
		if !ok {
			return errs.NotFound("warehouse", ref.String())
		}
		if err := w.Apply(p); err != nil {
			return err
		}
		if err := st.warehouseConflict(w); err != nil {
			return err
		}
		st.warehouses[w.ID] = w
		out = &w
		return nil
	})
	return out, err
}

// Delete удаляет склад вместе с его остатками.
func (r *Warehouses) Delete(_ context.Context, ref slug.Ref) error {
	return r.s.write(func(st *state) error {
		w, ok := resolve(st.warehouses, ref, warehouseSlug)
		if !ok {
			return errs.NotFound("warehouse", ref.String())
		}
		for k := range st.stock {
			if k.a == w.ID {
				delete(st.stock, k)
			}
		}
		delete(st.warehouses, w.ID)
		return nil
	})
}
