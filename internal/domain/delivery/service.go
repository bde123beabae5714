package delivery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/Spok95/factory/internal/domain/errs"
	"github.com/Spok95/factory/internal/domain/warehouses"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/Spok95/factory/internal/domain/delivery"

// Publisher отправляет событие о проведённой поставке.
type Publisher interface {
	Publish(ctx context.Context, key string, v any) error
}

// Alerter получает склад после каждой поставки и сам решает, нужно ли
// предупреждение о заполнении.
type Alerter interface {
	CapacityChanged(ctx context.Context, w warehouses.Warehouse) error
}

// Recorder считает поставки. result: ok, rejected или failed.
type Recorder interface {
	Delivery(result string, units int64)
}

const EventKey = "delivery.completed"

type Service struct {
	store     Store
	log       *slog.Logger
	tracer    trace.Tracer
	publisher Publisher
	alerter   Alerter
	metrics   Recorder
	now       func() time.Time
}

type Option func(*Service)

func WithPublisher(p Publisher) Option { return func(s *Service) { s.publisher = p } }
func WithAlerter(a Alerter) Option     { return func(s *Service) { s.alerter = a } }
func WithRecorder(r Recorder) Option   { return func(s *Service) { s.metrics = r } }
func WithTracer(t trace.Tracer) Option { return func(s *Service) { s.tracer = t } }

func NewService(store Store, log *slog.Logger, opts ...Option) *Service {
	s := &Service{
		store:  store,
		log:    log,
		tracer: otel.Tracer(tracerName),
		now:    time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Deliver проверяет поставку и проводит её одной транзакцией: списывает
// ёмкость склада и прибавляет остатки по каждому материалу. При любой
// ошибке не меняется ничего.
func (s *Service) Deliver(ctx context.Context, req Request) (*Receipt, error) {
	ctx, span := s.tracer.Start(ctx, "delivery.deliver")
	defer span.End()
	span.SetAttributes(
		attribute.String("warehouse.id", req.WarehouseID.String()),
		attribute.Int("delivery.positions", len(req.Positions)),
	)

	receipt, err := s.deliver(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "delivery failed")
		s.record(err, 0)
		if rejected(err) {
			s.log.Info("delivery rejected", "warehouse_id", req.WarehouseID, "err", err)
		} else {
			s.log.Error("delivery failed", "warehouse_id", req.WarehouseID, "err", err)
		}
		return nil, err
	}

	span.SetAttributes(
		attribute.Int64("delivery.total", receipt.Total),
		attribute.Int64("warehouse.capacity", receipt.Warehouse.Capacity),
	)
	span.SetStatus(codes.Ok, "delivered")
	s.record(nil, receipt.Total)
	s.log.Info("delivery applied",
		"warehouse_id", receipt.Warehouse.ID,
		"positions", len(receipt.Positions),
		"total", receipt.Total,
		"capacity", receipt.Warehouse.Capacity,
	)

	s.afterCommit(ctx, receipt)
	return receipt, nil
}

func (s *Service) deliver(ctx context.Context, req Request) (*Receipt, error) {
	if len(req.Positions) == 0 {
		return nil, errs.Invalid("positions", "must contain at least one position")
	}

	var receipt *Receipt
	err := s.store.InTx(ctx, func(ctx context.Context, tx Tx) error {
		// 1) склад: блокируем строку до конца транзакции
		w, err := tx.LockWarehouse(ctx, req.WarehouseID)
		if err != nil {
			return err
		}

		// 2) материалы
		positions, ids := merge(req.Positions)
		missing, err := tx.MissingMaterials(ctx, ids)
		if err != nil {
			return err
		}
		if len(missing) > 0 {
			return errs.NotFound("material", missing[0].String())
		}

		// 3) количества
		total, err := sum(req.Positions)
		if err != nil {
			return err
		}

		// 4) ёмкость
		if total > w.Capacity {
			return &errs.CapacityExceededError{Requested: total, Available: w.Capacity}
		}

		w, err = tx.ConsumeCapacity(ctx, w.ID, total)
		if err != nil {
			return err
		}
		for _, p := range positions {
			if _, err := tx.AddStock(ctx, w.ID, p.MaterialID, p.Quantity); err != nil {
				return err
			}
		}
		stock, err := tx.WarehouseStock(ctx, w.ID)
		if err != nil {
			return err
		}

		receipt = &Receipt{Warehouse: *w, Stock: stock, Positions: positions, Total: total}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return receipt, nil
}

// merge склеивает позиции с одинаковым материалом, сохраняя порядок
// первого появления. Количества здесь ещё не проверены.
func merge(in []Position) ([]Position, []uuid.UUID) {
	idx := make(map[uuid.UUID]int, len(in))
	out := make([]Position, 0, len(in))
	ids := make([]uuid.UUID, 0, len(in))
	for _, p := range in {
		if i, ok := idx[p.MaterialID]; ok {
			out[i].Quantity += p.Quantity
			continue
		}
		idx[p.MaterialID] = len(out)
		out = append(out, p)
		ids = append(ids, p.MaterialID)
	}
	return out, ids
}

func sum(in []Position) (int64, error) {
	var total int64
	for i, p := range in {
		if p.Quantity <= 0 {
			return 0, errs.Invalid(fmt.Sprintf("positions[%d].quantity", i), "must be a positive integer")
		}
		if total > math.MaxInt64-p.Quantity {
			return 0, errs.Invalid("positions", "total quantity is too large")
		}
		total += p.Quantity
	}
	return total, nil
}

// afterCommit — побочные эффекты после коммита. Их ошибки только логируются.
func (s *Service) afterCommit(ctx context.Context, r *Receipt) {
	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, EventKey, newEvent(r, s.now())); err != nil {
			s.log.Warn("publish delivery event failed", "warehouse_id", r.Warehouse.ID, "err", err)
		}
	}
	if s.alerter != nil {
		if err := s.alerter.CapacityChanged(ctx, r.Warehouse); err != nil {
			s.log.Warn("capacity alert failed", "warehouse_id", r.Warehouse.ID, "err", err)
		}
	}
}

func (s *Service) record(err error, units int64) {
	if s.metrics == nil {
		return
	}
	switch {
	case err == nil:
		s.metrics.Delivery("ok", units)
	case rejected(err):
		s.metrics.Delivery("rejected", 0)
	default:
		s.metrics.Delivery("failed", 0)
	}
}

// rejected — поставка отклонена проверками, а не упала на хранилище.
func rejected(err error) bool {
	return errs.Known(err) && !errors.Is(err, errs.ErrStorage)
}
