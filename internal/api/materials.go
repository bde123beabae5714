package api

import (
	"net/http"

	"github.com/Spok95/factory/internal/domain/materials"
	"github.com/Spok95/factory/internal/domain/products"
)

type createMaterialRequest struct {
	Name         string `json:"name"`
	QuantityUnit string `json:"quantity_unit"`
}

type patchMaterialRequest struct {
	Name         *string `json:"name"`
	QuantityUnit *string `json:"quantity_unit"`
}

func (a *API) createMaterial(w http.ResponseWriter, r *http.Request) {
	var req createMaterialRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, a.Log, err)
		return
	}
	m, err := a.Materials.Create(r.Context(), req.Name, req.QuantityUnit)
	if err != nil {
		writeError(w, a.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, toMaterial(*m))
}

func (a *API) listMaterials(w http.ResponseWriter, r *http.Request) {
	p, err := pageOf(r)
	if err != nil {
		writeError(w, a.Log, err)
		return
	}
	list, err := a.Materials.List(r.Context(), p.Offset, p.Limit)
	if err != nil {
		writeError(w, a.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(list, toMaterial))
}

func (a *API) getMaterial(w http.ResponseWriter, r *http.Request) {
	m, err := a.Materials.Get(r.Context(), refOf(r, "ref"))
	if err != nil {
		writeError(w, a.Log, err)
		return
	}
	a.writeMaterialDetail(w, r, http.StatusOK, *m)
}

func (a *API) patchMaterial(w http.ResponseWriter, r *http.Request) {
	var req patchMaterialRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, a.Log, err)
		return
	}
	m, err := a.Materials.Update(r.Context(), refOf(r, "ref"), materials.Patch{
		Name:         req.Name,
		QuantityUnit: req.QuantityUnit,
	})
	if err != nil {
		writeError(w, a.Log, err)
		return
	}
	a.writeMaterialDetail(w, r, http.StatusOK, *m)
}

func (a *API) deleteMaterial(w http.ResponseWriter, r *http.Request) {
	if err := a.Materials.Delete(r.Context(), refOf(r, "ref")); err != nil {
		writeError(w, a.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// writeMaterialDetail дополняет материал остатками по складам, строками BOM
// и продуктами, в которые он входит.
func (a *API) writeMaterialDetail(w http.ResponseWriter, r *http.Request, status int, m materials.Material) {
	stock, err := a.Stock.ByMaterial(r.Context(), m.ID)
	if err != nil {
		writeError(w, a.Log, err)
		return
	}
	boms, err := a.Products.BOMsByMaterial(r.Context(), m.ID)
	if err != nil {
		writeError(w, a.Log, err)
		return
	}
	writeJSON(w, status, materialDetail{
		materialResponse: toMaterial(m),
		BOMs:             toBOMs(boms),
		Stock:            toStock(stock),
		Products: mapSlice(boms, func(b products.BOM) productSimple {
			return productSimple{Name: b.ProductName, Slug: b.ProductSlug}
		}),
	})
}
