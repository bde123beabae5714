package delivery_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/Spok95/factory/internal/domain/delivery"
	"github.com/Spok95/factory/internal/domain/errs"
	"github.com/Spok95/factory/internal/domain/slug"
	"github.com/Spok95/factory/internal/store/memory"
)

func TestConcurrentDeliveriesNeverOverfill(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	ceiling := int64(100)
	w, err := store.Warehouses().Create(ctx, "Main", "Wien", &ceiling)
	if err != nil {
		t.Fatal(err)
	}
	m, err := store.Materials().Create(ctx, "Oxygen", "l")
	if err != nil {
		t.Fatal(err)
	}
	svc := delivery.NewService(store, slog.New(slog.NewTextHandler(io.Discard, nil)))

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		ok       int
		rejected int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Deliver(ctx, delivery.Request{
				WarehouseID: w.ID,
				Positions:   []delivery.Position{{MaterialID: m.ID, Quantity: 30}},
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, errs.ErrCapacityExceeded):
				rejected++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if ok != 3 || rejected != 7 {
		t.Fatalf("ok=%d rejected=%d, want 3 and 7", ok, rejected)
	}
	got, _ := store.Warehouses().Get(ctx, slug.ByID(w.ID))
	stock, _ := store.Stock().ByWarehouse(ctx, w.ID)
	if got.Capacity != 10 || len(stock) != 1 || stock[0].Quantity != 90 {
		t.Fatalf("capacity %d, stock %+v", got.Capacity, stock)
	}
	if got.MaxCapacity-got.Capacity != stock[0].Quantity {
		t.Fatal("capacity drifted from the delivered sum")
	}
}
