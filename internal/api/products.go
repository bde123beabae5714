package api

import (
	"net/http"

	"github.com/Spok95/factory/internal/domain/products"
)

type createProductRequest struct {
	Name string `json:"name"`
}

type patchProductRequest struct {
	Name *string `json:"name"`
}

type setBOMRequest struct {
	Quantity *int64 `json:"quantity"`
}

func (a *API) createProduct(w http.ResponseWriter, r *http.Request) {
	var req createProductRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, a.Log, err)
		return
	}
	p, err := a.Products.Create(r.Context(), req.Name)
	if err != nil {
		writeError(w, a.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, toProduct(*p))
}

func (a *API) listProducts(w http.ResponseWriter, r *http.Request) {
	pg, err := pageOf(r)
	if err != nil {
		writeError(w, a.Log, err)
		return
	}
	list, err := a.Products.List(r.Context(), pg.Offset, pg.Limit)
	if err != nil {
		writeError(w, a.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(list, toProduct))
}

func (a *API) getProduct(w http.ResponseWriter, r *http.Request) {
	p, err := a.Products.Get(r.Context(), refOf(r, "ref"))
	if err != nil {
		writeError(w, a.Log, err)
		return
	}
	a.writeProductDetail(w, r, *p)
}

func (a *API) patchProduct(w http.ResponseWriter, r *http.Request) {
	var req patchProductRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, a.Log, err)
		return
	}
	p, err := a.Products.Update(r.Context(), refOf(r, "ref"), products.Patch{Name: req.Name})
	if err != nil {
		writeError(w, a.Log, err)
		return
	}
	a.writeProductDetail(w, r, *p)
}

func (a *API) deleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := a.Products.Delete(r.Context(), refOf(r, "ref")); err != nil {
		writeError(w, a.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// setBOM — PUT /products/{ref}/boms/{material}. Без тела количество 1.
func (a *API) setBOM(w http.ResponseWriter, r *http.Request) {
	req := setBOMRequest{}
	if r.ContentLength != 0 {
		if err := decode(w, r, &req); err != nil {
			writeError(w, a.Log, err)
			return
		}
	}
	qty := int64(1)
	if req.Quantity != nil {
		qty = *req.Quantity
	}

	p, err := a.Products.Get(r.Context(), refOf(r, "ref"))
	if err != nil {
		writeError(w, a.Log, err)
		return
	}
	m, err := a.Materials.Get(r.Context(), refOf(r, "material"))
	if err != nil {
		writeError(w, a.Log, err)
		return
	}
	b, err := a.Products.SetBOM(r.Context(), p.ID, m.ID, qty)
	if err != nil {
		writeError(w, a.Log, err)
		return
	}
	b.ProductName, b.ProductSlug = p.Name, p.Slug
	b.MaterialName, b.MaterialSlug = m.Name, m.Slug
	writeJSON(w, http.StatusOK, toBOM(*b))
}

func (a *API) removeBOM(w http.ResponseWriter, r *http.Request) {
	p, err := a.Products.Get(r.Context(), refOf(r, "ref"))
	if err != nil {
		writeError(w, a.Log, err)
		return
	}
	m, err := a.Materials.Get(r.Context(), refOf(r, "material"))
	if err != nil {
		writeError(w, a.Log, err)
		return
	}
	if err := a.Products.RemoveBOM(r.Context(), p.ID, m.ID); err != nil {
		writeError(w, a.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) writeProductDetail(w http.ResponseWriter, r *http.Request, p products.Product) {
	boms, err := a.Products.BOMsByProduct(r.Context(), p.ID)
	if err != nil {
		writeError(w, a.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, productDetail{
		productResponse: toProduct(p),
		BOMs:            toBOMs(boms),
		Materials: mapSlice(boms, func(b products.BOM) materialSimple {
			return materialSimple{Name: b.MaterialName, Slug: b.MaterialSlug}
		}),
	})
}
