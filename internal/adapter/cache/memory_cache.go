package cache

import (
	"sync"

	"github.com/BekhruzCo/soma-selecto/internal/domain"
)

// MemoryOrderCache — кэш отображения для шлюза уведомлений. Хранит
// последние отрисованные заказы, чтобы перерисовать сообщение после
// смены статуса без похода в хранилище. Авторитетным источником
// не является.
type MemoryOrderCache struct {
	mu    sync.RWMutex
	store map[string]domain.Order
}

func NewMemoryOrderCache() *MemoryOrderCache {
	return &MemoryOrderCache{store: make(map[string]domain.Order)}
}

func (c *MemoryOrderCache) Get(id string) (domain.Order, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	o, ok := c.store[id]
	return o, ok
}

func (c *MemoryOrderCache) Set(id string, o domain.Order) {
	c.mu.Lock()
	c.store[id] = o
	c.mu.Unlock()
}

// Delete убирает заказ из кэша; бот вызывает это для завершённых и
// отменённых заказов.
func (c *MemoryOrderCache) Delete(id string) {
	c.mu.Lock()
	delete(c.store, id)
	c.mu.Unlock()
}

var _ domain.OrderCache = (*MemoryOrderCache)(nil)
