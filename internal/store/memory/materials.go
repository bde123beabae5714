package memory

import (
	"context"
	"time"

	"github.com/Spok95/factory/internal/domain/errs"
	"github.com/Spok95/factory/internal/domain/materials"
	"github.com/Spok95/factory/internal/domain/slug"
)

type Materials struct{ s *Store }

func materialSlug(m materials.Material) string { return m.Slug }

func (st *state) materialConflict(m materials.Material) error {
	for _, o := range st.materials {
		if o.ID == m.ID {
			continue
		}
		if o.Name == m.Name {
			return errs.Conflict("material", "materials_name_key")
		}
		if o.Slug == m.Slug {
			return errs.Conflict("material", "materials_slug_key")
		}
	}
	return nil
}

func (r *Materials) Create(_ context.Context, name, unit string) (*materials.Material, error) {
	m, err := materials.New(name, unit)
	if err != nil {
		return nil, err
	}
	err = r.s.write(func(st *state) error {
		if err := st.materialConflict(*m); err != nil {
			return err
		}
		m.CreatedAt = r.s.now()
		st.materials[m.ID] = *m
		return nil
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (r *Materials) List(_ context.Context, offset, limit int) ([]materials.Material, error) {
	var out []materials.Material
	err := r.s.read(func(st *state) error {
		all := make([]materials.Material, 0, len(st.materials))
		for _, m := range st.materials {
			all = append(all, m)
		}
		sortByCreated(all, func(m materials.Material) time.Time { return m.CreatedAt })
		out = page(all, offset, limit)
		return nil
	})
	return out, err
}

func (r *Materials) Get(_ context.Context, ref slug.Ref) (*materials.Material, error) {
	var out *materials.Material
	err := r.s.read(func(st *state) error {
		m, ok := resolve(st.materials, ref, materialSlug)
		if !ok {
			return errs.NotFound("material", ref.String())
		}
		out = &m
		return nil
	})
	return out, err
}

func (r *Materials) Update(_ context.Context, ref slug.Ref, p materials.Patch) (*materials.Material, error) {
	var out *materials.Material
	err := r.s.write(func(st *state) error {
		m, ok := resolve(st.materials, ref, materialSlug)
		if !ok {
			return errs.NotFound("material", ref.String())
		}
		if err := m.Apply(p); err != nil {
			return err
		}
		if err := st.materialConflict(m); err != nil {
			return err
		}
		st.materials[m.ID] = m
		out = &m
		return nil
	})
	return out, err
}

// Delete удаляет материал вместе с остатками и строками BOM и возвращает
// занятый им объём складам.
func (r *Materials) Delete(_ context.Context, ref slug.Ref) error {
	return r.s.write(func(st *state) error {
		m, ok := resolve(st.materials, ref, materialSlug)
		if !ok {
			return errs.NotFound("material", ref.String())
		}
		for k, e := range st.stock {
			if e.MaterialID != m.ID {
				continue
			}
			if w, ok := st.warehouses[e.WarehouseID]; ok {
				w.Release(e.Quantity)
				st.warehouses[w.ID] = w
			}
			delete(st.stock, k)
		}
		for k := range st.boms {
			if k.b == m.ID {
				delete(st.boms, k)
			}
		}
		delete(st.materials, m.ID)
		return nil
	})
}
