package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/BekhruzCo/soma-selecto/internal/domain"
)

// ProductInput — поля нового товара.
type ProductInput struct {
	Name        string
	Description string
	Price       float64
	Category    string
	Popular     bool
}

// ProductPatch — частичное обновление: меняются только заданные поля.
type ProductPatch struct {
	Name        *string
	Description *string
	Price       *float64
	Category    *string
	Popular     *bool
}

// ListProducts — весь каталог.
type ListProducts struct {
	Repo domain.ProductRepository
}

func (uc ListProducts) Execute(ctx context.Context) ([]domain.Product, error) {
	return uc.Repo.List(ctx)
}

// GetProduct — товар по идентификатору.
type GetProduct struct {
	Repo domain.ProductRepository
}

func (uc GetProduct) Execute(ctx context.Context, id string) (domain.Product, error) {
	return uc.Repo.Get(ctx, id)
}

// CreateProduct — добавить товар в каталог, при необходимости с
// изображением. Если запись товара не удалась после сохранения
// изображения, файл удаляется до возврата ошибки — осиротевших
// файлов не остаётся.
type CreateProduct struct {
	Repo   domain.ProductRepository
	Assets domain.AssetStore
}

func (uc CreateProduct) Execute(ctx context.Context, in ProductInput, image *domain.AssetUpload) (domain.Product, error) {
	p := domain.Product{
		ID:          "p" + strings.ReplaceAll(uuid.New().String(), "-", "")[:8],
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		Price:       in.Price,
		Category:    strings.TrimSpace(in.Category),
		Popular:     in.Popular,
	}
	if err := p.Validate(); err != nil {
		return domain.Product{}, err
	}
	if image != nil {
		path, err := uc.Assets.Save(p.ID, *image)
		if err != nil {
			return domain.Product{}, err
		}
		p.Image = path
	}
	if err := uc.Repo.Create(ctx, p); err != nil {
		if p.Image != "" {
			_ = uc.Assets.Remove(p.Image)
		}
		return domain.Product{}, fmt.Errorf("create product: %w", err)
	}
	return p, nil
}

// UpdateProduct — применить частичное обновление товара. Новое
// изображение заменяет прежнее: старый файл удаляется первым.
type UpdateProduct struct {
	Repo   domain.ProductRepository
	Assets domain.AssetStore
}

func (uc UpdateProduct) Execute(ctx context.Context, id string, patch ProductPatch, image *domain.AssetUpload) (domain.Product, error) {
	p, err := uc.Repo.Get(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.Price != nil {
		p.Price = *patch.Price
	}
	if patch.Category != nil {
		p.Category = *patch.Category
	}
	if patch.Popular != nil {
		p.Popular = *patch.Popular
	}
	if err := p.Validate(); err != nil {
		return domain.Product{}, err
	}
	if image != nil {
		if p.Image != "" {
			_ = uc.Assets.Remove(p.Image)
		}
		path, err := uc.Assets.Save(p.ID, *image)
		if err != nil {
			return domain.Product{}, err
		}
		p.Image = path
	}
	if err := uc.Repo.Update(ctx, p); err != nil {
		return domain.Product{}, fmt.Errorf("update product %s: %w", id, err)
	}
	return p, nil
}

// DeleteProduct — удалить товар вместе с его изображением и вернуть
// удалённую запись.
type DeleteProduct struct {
	Repo   domain.ProductRepository
	Assets domain.AssetStore
}

func (uc DeleteProduct) Execute(ctx context.Context, id string) (domain.Product, error) {
	p, err := uc.Repo.Get(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}
	if err := uc.Repo.Delete(ctx, id); err != nil {
		return domain.Product{}, fmt.Errorf("delete product %s: %w", id, err)
	}
	if p.Image != "" {
		_ = uc.Assets.Remove(p.Image)
	}
	return p, nil
}
