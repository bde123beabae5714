package memory

import (
	"context"
	"sort"
	"time"

	"github.com/Spok95/factory/internal/domain/errs"
	"github.com/Spok95/factory/internal/domain/products"
	"github.com/Spok95/factory/internal/domain/slug"
	"github.com/google/uuid"
)

type Products struct{ s *Store }

func productSlug(p products.Product) string { return p.Slug }

func (st *state) productConflict(p products.Product) error {
	for _, o := range st.products {
		if o.ID == p.ID {
			continue
		}
		if o.Name == p.Name {
			return errs.Conflict("product", "products_name_key")
		}
		if o.Slug == p.Slug {
			return errs.Conflict("product", "products_slug_key")
		}
	}
	return nil
}

func (r *Products) Create(_ context.Context, name string) (*products.Product, error) {
	p, err := products.New(name)
	if err != nil {
		return nil, err
	}
	err = r.s.write(func(st *state) error {
		if err := st.productConflict(*p); err != nil {
			return err
		}
		p.CreatedAt = r.s.now()
		st.products[p.ID] = *p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *Products) List(_ context.Context, offset, limit int) ([]products.Product, error) {
	var out []products.Product
	err := r.s.read(func(st *state) error {
		all := make([]products.Product, 0, len(st.products))
		for _, p := range st.products {
			all = append(all, p)
		}
		sortByCreated(all, func(p products.Product) time.Time { return p.CreatedAt })
		out = page(all, offset, limit)
		return nil
	})
	return out, err
}

func (r *Products) Get(_ context.Context, ref slug.Ref) (*products.Product, error) {
	var out *products.Product
	err := r.s.read(func(st *state) error {
		p, ok := resolve(st.products, ref, productSlug)
		if !ok {
			return errs.NotFound("product", ref.String())
		}
		out = &p
		return nil
	})
	return out, err
}

func (r *Products) Update(_ context.Context, ref slug.Ref, patch products.Patch) (*products.Product, error) {
	var out *products.Product
	err := r.s.write(func(st *state) error {
		p, ok := resolve(st.products, ref, productSlug)
		if !ok {
			return errs.NotFound("product", ref.String())
		}
		if err := p.Apply(patch); err != nil {
			return err
		}
		if err := st.productConflict(p); err != nil {
			return err
		}
		st.products[p.ID] = p
		out = &p
		return nil
	})
	return out, err
}

func (r *Products) Delete(_ context.Context, ref slug.Ref) error {
	return r.s.write(func(st *state) error {
		p, ok := resolve(st.products, ref, productSlug)
		if !ok {
			return errs.NotFound("product", ref.String())
		}
		for k := range st.boms {
			if k.a == p.ID {
				delete(st.boms, k)
			}
		}
		delete(st.products, p.ID)
		return nil
	})
}

func (r *Products) SetBOM(_ context.Context, productID, materialID uuid.UUID, qty int64) (*products.BOM, error) {
	if err := products.ValidateQuantity(qty); err != nil {
		return nil, err
	}
	var out *products.BOM
	err := r.s.write(func(st *state) error {
		if _, ok := st.products[productID]; !ok {
			return errs.NotFound("product", productID.String())
		}
		if _, ok := st.materials[materialID]; !ok {
			return errs.NotFound("material", materialID.String())
		}
		k := pair{productID, materialID}
		b, ok := st.boms[k]
		if !ok {
			b = products.BOM{ID: uuid.New(), ProductID: productID, MaterialID: materialID, CreatedAt: r.s.now()}
		}
		b.Quantity = qty
		st.boms[k] = b
		out = &b
		return nil
	})
	return out, err
}

func (r *Products) RemoveBOM(_ context.Context, productID, materialID uuid.UUID) error {
	return r.s.write(func(st *state) error {
		k := pair{productID, materialID}
		if _, ok := st.boms[k]; !ok {
			return errs.NotFound("bom", productID.String()+"/"+materialID.String())
		}
		delete(st.boms, k)
		return nil
	})
}

func (r *Products) BOMsByProduct(_ context.Context, productID uuid.UUID) ([]products.BOM, error) {
	return r.boms(func(b products.BOM) bool { return b.ProductID == productID },
		func(a, b products.BOM) bool { return a.MaterialName < b.MaterialName })
}

func (r *Products) BOMsByMaterial(_ context.Context, materialID uuid.UUID) ([]products.BOM, error) {
	return r.boms(func(b products.BOM) bool { return b.MaterialID == materialID },
		func(a, b products.BOM) bool { return a.ProductName < b.ProductName })
}

func (r *Products) boms(keep func(products.BOM) bool, less func(a, b products.BOM) bool) ([]products.BOM, error) {
	out := []products.BOM{}
	err := r.s.read(func(st *state) error {
		for _, b := range st.boms {
			if !keep(b) {
				continue
			}
			p, m := st.products[b.ProductID], st.materials[b.MaterialID]
			b.ProductName, b.ProductSlug = p.Name, p.Slug
			b.MaterialName, b.MaterialSlug = m.Name, m.Slug
			out = append(out, b)
		}
		sort.Slice(out, func(i, j int) bool { return less(out[i], out[j]) })
		return nil
	})
	return out, err
}
