package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/Spok95/factory/internal/domain/delivery"
	"github.com/Spok95/factory/internal/domain/errs"
	"github.com/Spok95/factory/internal/domain/slug"
	"github.com/Spok95/factory/internal/infra/idempotency"
	"github.com/Spok95/factory/internal/sheets"
	"github.com/google/uuid"
)

const idempotencyHeader = "Idempotency-Key"

type positionRequest struct {
	MaterialID string `json:"material_id"`
	Quantity   int64  `json:"quantity"`
}

type deliveryRequest struct {
	WarehouseID string            `json:"warehouse_id"`
	Positions   []positionRequest `json:"positions"`
}

func (req deliveryRequest) toDomain() (delivery.Request, error) {
	whID, err := uuid.Parse(req.WarehouseID)
	if err != nil {
		return delivery.Request{}, errs.Invalid("warehouse_id", "must be a UUID")
	}
	out := delivery.Request{WarehouseID: whID, Positions: make([]delivery.Position, 0, len(req.Positions))}
	for _, p := range req.Positions {
		matID, err := uuid.Parse(p.MaterialID)
		if err != nil {
			return delivery.Request{}, errs.Invalid("positions.material_id", "must be a UUID")
		}
		out.Positions = append(out.Positions, delivery.Position{MaterialID: matID, Quantity: p.Quantity})
	}
	return out, nil
}

// deliver — POST /delivery/. С заголовком Idempotency-Key повтор в пределах
// TTL получает первый успешный ответ без повторного проведения.
func (a *API) deliver(w http.ResponseWriter, r *http.Request) {
	var body deliveryRequest
	if err := decode(w, r, &body); err != nil {
		writeError(w, a.Log, err)
		return
	}
	req, err := body.toDomain()
	if err != nil {
		writeError(w, a.Log, err)
		return
	}

	key := strings.TrimSpace(r.Header.Get(idempotencyHeader))
	if key == "" || a.Idempotency == nil {
		a.runDelivery(w, r, req)
		return
	}

	// отпечаток считаем по разобранному телу: пробелы и порядок ключей не важны
	canonical, err := json.Marshal(body)
	if err != nil {
		writeError(w, a.Log, err)
		return
	}
	resp, replayed, err := a.Idempotency.Do(r.Context(), key, idempotency.Fingerprint(canonical), func() (idempotency.Response, error) {
		rec := &bufferedResponse{header: http.Header{}, status: http.StatusOK}
		a.runDelivery(rec, r, req)
		return idempotency.Response{Status: rec.status, Body: rec.body.Bytes()}, nil
	})
	switch {
	case errors.Is(err, idempotency.ErrKeyReused):
		writeError(w, a.Log, errs.Invalid(idempotencyHeader, "already used with a different request body"))
		return
	case err != nil:
		writeError(w, a.Log, errs.Storage("idempotency", err))
		return
	}
	if replayed {
		w.Header().Set("Idempotent-Replayed", "true")
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.Status)
	_, _ = w.Write(resp.Body)
}

func (a *API) runDelivery(w http.ResponseWriter, r *http.Request, req delivery.Request) {
	receipt, err := a.Delivery.Deliver(r.Context(), req)
	if err != nil {
		writeError(w, a.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, warehouseDetail{
		warehouseResponse: toWarehouse(receipt.Warehouse),
		Stock:             toStock(receipt.Stock),
	})
}

// importDelivery — POST /delivery/import?warehouse={ref}, тело — xlsx.
// Весь файл проводится одной поставкой.
func (a *API) importDelivery(w http.ResponseWriter, r *http.Request) {
	ref := strings.TrimSpace(r.URL.Query().Get("warehouse"))
	if ref == "" {
		writeError(w, a.Log, errs.Invalid("warehouse", "query parameter is required"))
		return
	}
	wh, err := a.Warehouses.Get(r.Context(), slug.Parse(ref))
	if err != nil {
		writeError(w, a.Log, err)
		return
	}

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxFileBytes))
	if err != nil {
		writeError(w, a.Log, errs.Invalid("body", "file is too large or unreadable"))
		return
	}
	rows, err := sheets.ReadPositions(bytes.NewReader(data))
	if err != nil {
		writeError(w, a.Log, err)
		return
	}

	req := delivery.Request{WarehouseID: wh.ID}
	for _, row := range rows {
		m, err := a.Materials.Get(r.Context(), slug.Parse(row.Material))
		if err != nil {
			writeError(w, a.Log, err)
			return
		}
		req.Positions = append(req.Positions, delivery.Position{MaterialID: m.ID, Quantity: row.Quantity})
	}
	a.runDelivery(w, r, req)
}

// bufferedResponse собирает ответ в память для кэша идемпотентности.
type bufferedResponse struct {
	header http.Header
	status int
	body   bytes.Buffer
}

func (b *bufferedResponse) Header() http.Header         { return b.header }
func (b *bufferedResponse) WriteHeader(status int)      { b.status = status }
func (b *bufferedResponse) Write(p []byte) (int, error) { return b.body.Write(p) }
