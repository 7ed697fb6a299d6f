package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/BekhruzCo/soma-selecto/internal/domain"
)

// Файловое хранилище: products.json и orders.json в каталоге данных.
// Каждая мутация переписывает файл атомарно (временный файл + rename).
// Файл могут одновременно открыть несколько процессов (API и бот),
// поэтому перед каждой операцией снимок сверяется с mtime/размером
// файла и при расхождении перечитывается. Гонка двух одновременных
// записей остаётся last-write-wins, как и у остальных драйверов.

// fileStamp — отпечаток файла, по которому определяется чужая запись.
type fileStamp struct {
	modTime time.Time
	size    int64
}

func stampOf(path string) (fileStamp, error) {
	st, err := os.Stat(path)
	if os.IsNotExist(err) {
		return fileStamp{}, nil
	}
	if err != nil {
		return fileStamp{}, err
	}
	return fileStamp{modTime: st.ModTime(), size: st.Size()}, nil
}

// JSONProductRepo — каталог в products.json.
type JSONProductRepo struct {
	path     string
	mu       sync.Mutex
	products []domain.Product
	stamp    fileStamp
}

func NewJSONProductRepo(dir string) (*JSONProductRepo, error) {
	r := &JSONProductRepo{path: filepath.Join(dir, "products.json")}
	if err := r.reload(); err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}
	return r, nil
}

// reload перечитывает файл, если его перезаписал другой процесс.
// Вызывается под r.mu.
func (r *JSONProductRepo) reload() error {
	st, err := stampOf(r.path)
	if err != nil {
		return err
	}
	if st == r.stamp && !st.modTime.IsZero() {
		return nil
	}
	var products []domain.Product
	if err := loadJSON(r.path, &products); err != nil {
		return err
	}
	r.products = products
	r.stamp = st
	return nil
}

// save записывает снимок и запоминает отпечаток собственной записи.
// Вызывается под r.mu.
func (r *JSONProductRepo) save(products []domain.Product) error {
	if err := saveJSON(r.path, products); err != nil {
		return err
	}
	r.products = products
	st, err := stampOf(r.path)
	if err != nil {
		return err
	}
	r.stamp = st
	return nil
}

func (r *JSONProductRepo) List(ctx context.Context) ([]domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.reload(); err != nil {
		return nil, err
	}
	out := make([]domain.Product, len(r.products))
	copy(out, r.products)
	return out, nil
}

func (r *JSONProductRepo) Get(ctx context.Context, id string) (domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.reload(); err != nil {
		return domain.Product{}, err
	}
	for _, p := range r.products {
		if p.ID == id {
			return p, nil
		}
	}
	return domain.Product{}, domain.ErrNotFound
}

func (r *JSONProductRepo) Create(ctx context.Context, p domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.reload(); err != nil {
		return err
	}
	for _, existing := range r.products {
		if existing.ID == p.ID {
			return domain.ErrConflict
		}
	}
	return r.save(append(r.products, p))
}

func (r *JSONProductRepo) Update(ctx context.Context, p domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.reload(); err != nil {
		return err
	}
	for i, existing := range r.products {
		if existing.ID == p.ID {
			next := make([]domain.Product, len(r.products))
			copy(next, r.products)
			next[i] = p
			return r.save(next)
		}
	}
	return domain.ErrNotFound
}

func (r *JSONProductRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.reload(); err != nil {
		return err
	}
	for i, existing := range r.products {
		if existing.ID == id {
			rest := make([]domain.Product, 0, len(r.products)-1)
			rest = append(rest, r.products[:i]...)
			rest = append(rest, r.products[i+1:]...)
			return r.save(rest)
		}
	}
	return domain.ErrNotFound
}

var _ domain.ProductRepository = (*JSONProductRepo)(nil)

// JSONOrderRepo — заказы в orders.json.
type JSONOrderRepo struct {
	path   string
	mu     sync.Mutex
	orders []domain.Order
	stamp  fileStamp
}

func NewJSONOrderRepo(dir string) (*JSONOrderRepo, error) {
	r := &JSONOrderRepo{path: filepath.Join(dir, "orders.json")}
	if err := r.reload(); err != nil {
		return nil, fmt.Errorf("load orders: %w", err)
	}
	return r, nil
}

func (r *JSONOrderRepo) reload() error {
	st, err := stampOf(r.path)
	if err != nil {
		return err
	}
	if st == r.stamp && !st.modTime.IsZero() {
		return nil
	}
	var orders []domain.Order
	if err := loadJSON(r.path, &orders); err != nil {
		return err
	}
	r.orders = orders
	r.stamp = st
	return nil
}

func (r *JSONOrderRepo) save(orders []domain.Order) error {
	if err := saveJSON(r.path, orders); err != nil {
		return err
	}
	r.orders = orders
	st, err := stampOf(r.path)
	if err != nil {
		return err
	}
	r.stamp = st
	return nil
}

func (r *JSONOrderRepo) List(ctx context.Context) ([]domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.reload(); err != nil {
		return nil, err
	}
	out := make([]domain.Order, len(r.orders))
	copy(out, r.orders)
	return out, nil
}

func (r *JSONOrderRepo) Get(ctx context.Context, id string) (domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.reload(); err != nil {
		return domain.Order{}, err
	}
	for _, o := range r.orders {
		if o.ID == id {
			return o, nil
		}
	}
	return domain.Order{}, domain.ErrNotFound
}

func (r *JSONOrderRepo) Create(ctx context.Context, o domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.reload(); err != nil {
		return err
	}
	for _, existing := range r.orders {
		if existing.ID == o.ID {
			return domain.ErrConflict
		}
	}
	return r.save(append(r.orders, o))
}

func (r *JSONOrderRepo) Update(ctx context.Context, o domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.reload(); err != nil {
		return err
	}
	for i, existing := range r.orders {
		if existing.ID == o.ID {
			next := make([]domain.Order, len(r.orders))
			copy(next, r.orders)
			next[i] = o
			return r.save(next)
		}
	}
	return domain.ErrNotFound
}

var _ domain.OrderRepository = (*JSONOrderRepo)(nil)

func loadJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}

func saveJSON(path string, v any) error {
	if v == nil {
		v = []any{}
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
