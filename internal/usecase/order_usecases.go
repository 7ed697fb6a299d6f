package usecase

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/BekhruzCo/soma-selecto/internal/domain"
)

// ListOrders — все заказы.
type ListOrders struct {
	Repo domain.OrderRepository
}

func (uc ListOrders) Execute(ctx context.Context) ([]domain.Order, error) {
	return uc.Repo.List(ctx)
}

// GetOrder — получить заказ по идентификатору.
type GetOrder struct {
	Repo domain.OrderRepository
}

func (uc GetOrder) Execute(ctx context.Context, id string) (domain.Order, error) {
	return uc.Repo.Get(ctx, id)
}

// PlaceOrder — принять полностью сформированный заказ, сохранить его и
// лучшими усилиями уведомить операторов. Сбой уведомления логируется и
// никогда не возвращается вызывающему: заказ к этому моменту уже
// сохранён.
type PlaceOrder struct {
	Repo      domain.OrderRepository
	Publisher domain.OrderPublisher
	Now       func() time.Time
}

func (uc PlaceOrder) Execute(ctx context.Context, o domain.Order) (domain.Order, error) {
	if o.ID == "" {
		o.ID = "o" + strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
	}
	if o.Status == "" {
		o.Status = domain.StatusProcessing
	}
	if o.CreatedAt.IsZero() {
		now := time.Now
		if uc.Now != nil {
			now = uc.Now
		}
		o.CreatedAt = now()
	}
	// оценка ставится только после создания заказа
	o.Rating = nil
	if err := o.Validate(); err != nil {
		return domain.Order{}, err
	}
	if err := uc.Repo.Create(ctx, o); err != nil {
		return domain.Order{}, err
	}
	if uc.Publisher != nil {
		pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := uc.Publisher.Publish(pubCtx, o); err != nil {
			log.Printf("notify order %s: %v", o.ID, err)
		}
	}
	return o, nil
}

// SetOrderStatus — перевести заказ в новый статус. Допустимость
// перехода решает машина состояний; чтение и запись сериализуются
// по заказу.
type SetOrderStatus struct {
	Repo      domain.OrderRepository
	Lifecycle domain.Lifecycle
	Locks     *OrderLocker
}

func (uc SetOrderStatus) Execute(ctx context.Context, id string, status domain.Status) (domain.Order, error) {
	if uc.Locks != nil {
		defer uc.Locks.Lock(id)()
	}
	o, err := uc.Repo.Get(ctx, id)
	if err != nil {
		return domain.Order{}, err
	}
	if err := uc.Lifecycle.Transition(o.Status, status); err != nil {
		return domain.Order{}, err
	}
	o.Status = status
	if err := uc.Repo.Update(ctx, o); err != nil {
		return domain.Order{}, fmt.Errorf("update order %s: %w", id, err)
	}
	return o, nil
}

// SetOrderRating — выставить заказу оценку 1..5.
type SetOrderRating struct {
	Repo  domain.OrderRepository
	Locks *OrderLocker
}

func (uc SetOrderRating) Execute(ctx context.Context, id string, rating int) (domain.Order, error) {
	if err := domain.ValidateRating(rating); err != nil {
		return domain.Order{}, err
	}
	if uc.Locks != nil {
		defer uc.Locks.Lock(id)()
	}
	o, err := uc.Repo.Get(ctx, id)
	if err != nil {
		return domain.Order{}, err
	}
	o.Rating = &rating
	if err := uc.Repo.Update(ctx, o); err != nil {
		return domain.Order{}, fmt.Errorf("update order %s: %w", id, err)
	}
	return o, nil
}

// OrderStats — сводка по заказам для операторов.
type OrderStats struct {
	Repo domain.OrderRepository
}

// Stats — количество заказов по статусам и выручка завершённых.
type Stats struct {
	Total      int
	ByStatus   map[domain.Status]int
	Revenue    float64
	RatedCount int
	AvgRating  float64
}

func (uc OrderStats) Execute(ctx context.Context) (Stats, error) {
	orders, err := uc.Repo.List(ctx)
	if err != nil {
		return Stats{}, err
	}
	st := Stats{Total: len(orders), ByStatus: make(map[domain.Status]int)}
	var ratingSum int
	for _, o := range orders {
		st.ByStatus[o.Status]++
		if o.Status == domain.StatusCompleted {
			st.Revenue += o.Total
		}
		if o.Rating != nil {
			st.RatedCount++
			ratingSum += *o.Rating
		}
	}
	if st.RatedCount > 0 {
		st.AvgRating = float64(ratingSum) / float64(st.RatedCount)
	}
	return st, nil
}
