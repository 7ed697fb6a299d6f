package usecase

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"

	"github.com/BekhruzCo/soma-selecto/internal/domain"
)

type fakeOrderRepo struct {
	mu     sync.Mutex
	orders map[string]domain.Order
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: make(map[string]domain.Order)}
}

func (r *fakeOrderRepo) List(ctx context.Context) ([]domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Order, 0, len(r.orders))
	for _, o := range r.orders {
		out = append(out, o)
	}
	return out, nil
}

func (r *fakeOrderRepo) Get(ctx context.Context, id string) (domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return domain.Order{}, domain.ErrNotFound
	}
	return o, nil
}

func (r *fakeOrderRepo) Create(ctx context.Context, o domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orders[o.ID]; ok {
		return domain.ErrConflict
	}
	r.orders[o.ID] = o
	return nil
}

func (r *fakeOrderRepo) Update(ctx context.Context, o domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orders[o.ID]; !ok {
		return domain.ErrNotFound
	}
	r.orders[o.ID] = o
	return nil
}

type fakeProductRepo struct {
	mu       sync.Mutex
	products map[string]domain.Product
	failNext error
}

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{products: make(map[string]domain.Product)}
}

func (r *fakeProductRepo) List(ctx context.Context) ([]domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Product, 0, len(r.products))
	for _, p := range r.products {
		out = append(out, p)
	}
	return out, nil
}

func (r *fakeProductRepo) Get(ctx context.Context, id string) (domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return domain.Product{}, domain.ErrNotFound
	}
	return p, nil
}

func (r *fakeProductRepo) Create(ctx context.Context, p domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failNext != nil {
		err := r.failNext
		r.failNext = nil
		return err
	}
	r.products[p.ID] = p
	return nil
}

func (r *fakeProductRepo) Update(ctx context.Context, p domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.products[p.ID]; !ok {
		return domain.ErrNotFound
	}
	r.products[p.ID] = p
	return nil
}

func (r *fakeProductRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.products[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.products, id)
	return nil
}

// fakeAssetStore keeps stored paths in memory and tracks removals.
type fakeAssetStore struct {
	mu      sync.Mutex
	stored  map[string]bool
	removed []string
}

func newFakeAssetStore() *fakeAssetStore {
	return &fakeAssetStore{stored: make(map[string]bool)}
}

func (s *fakeAssetStore) Save(id string, upload domain.AssetUpload) (string, error) {
	ext := strings.ToLower(filepath.Ext(upload.Filename))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".webp":
	default:
		return "", domain.ErrUnsupportedMedia
	}
	path := "/uploads/" + id + ext
	s.mu.Lock()
	s.stored[path] = true
	s.mu.Unlock()
	return path, nil
}

func (s *fakeAssetStore) Remove(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.stored[path] {
		return errors.New("no such asset")
	}
	delete(s.stored, path)
	s.removed = append(s.removed, path)
	return nil
}

type capturedPublish struct {
	mu     sync.Mutex
	orders []domain.Order
	err    error
}

func (p *capturedPublish) Publish(ctx context.Context, o domain.Order) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.orders = append(p.orders, o)
	return nil
}
