package api

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/Spok95/factory/internal/domain/warehouses"
	"github.com/Spok95/factory/internal/sheets"
)

type createWarehouseRequest struct {
	Name        string `json:"name"`
	Location    string `json:"location"`
	MaxCapacity *int64 `json:"max_capacity"`
}

type patchWarehouseRequest struct {
	Name        *string `json:"name"`
	Location    *string `json:"location"`
	MaxCapacity *int64  `json:"max_capacity"`
}

func (a *API) createWarehouse(w http.ResponseWriter, r *http.Request) {
	var req createWarehouseRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, a.Log, err)
		return
	}
	wh, err := a.Warehouses.Create(r.Context(), req.Name, req.Location, req.MaxCapacity)
	if err != nil {
		writeError(w, a.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, warehouseDetail{warehouseResponse: toWarehouse(*wh), Stock: []stockResponse{}})
}

func (a *API) listWarehouses(w http.ResponseWriter, r *http.Request) {
	p, err := pageOf(r)
	if err != nil {
		writeError(w, a.Log, err)
		return
	}
	list, err := a.Warehouses.List(r.Context(), p.Offset, p.Limit)
	if err != nil {
		writeError(w, a.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(list, toWarehouse))
}

func (a *API) getWarehouse(w http.ResponseWriter, r *http.Request) {
	wh, err := a.Warehouses.Get(r.Context(), refOf(r, "ref"))
	if err != nil {
		writeError(w, a.Log, err)
		return
	}
	a.writeWarehouseDetail(w, r, *wh)
}

func (a *API) patchWarehouse(w http.ResponseWriter, r *http.Request) {
	var req patchWarehouseRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, a.Log, err)
		return
	}
	wh, err := a.Warehouses.Update(r.Context(), refOf(r, "ref"), warehouses.Patch{
		Name:        req.Name,
		Location:    req.Location,
		MaxCapacity: req.MaxCapacity,
	})
	if err != nil {
		writeError(w, a.Log, err)
		return
	}
	a.writeWarehouseDetail(w, r, *wh)
}

func (a *API) deleteWarehouse(w http.ResponseWriter, r *http.Request) {
	if err := a.Warehouses.Delete(r.Context(), refOf(r, "ref")); err != nil {
		writeError(w, a.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) writeWarehouseDetail(w http.ResponseWriter, r *http.Request, wh warehouses.Warehouse) {
	stock, err := a.Stock.ByWarehouse(r.Context(), wh.ID)
	if err != nil {
		writeError(w, a.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, warehouseDetail{warehouseResponse: toWarehouse(wh), Stock: toStock(stock)})
}

func (a *API) exportStock(w http.ResponseWriter, r *http.Request) {
	wh, err := a.Warehouses.Get(r.Context(), refOf(r, "ref"))
	if err != nil {
		writeError(w, a.Log, err)
		return
	}
	stock, err := a.Stock.ByWarehouse(r.Context(), wh.ID)
	if err != nil {
		writeError(w, a.Log, err)
		return
	}

	// собираем файл целиком, чтобы при ошибке ещё можно было ответить JSON
	buf := &bytes.Buffer{}
	if err := sheets.WriteStock(buf, *wh, stock); err != nil {
		writeError(w, a.Log, err)
		return
	}
	w.Header().Set("Content-Type", sheets.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="stock_%s.xlsx"`, wh.Slug))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
