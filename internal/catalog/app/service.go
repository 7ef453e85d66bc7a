package app

import (
	"context"
	"errors"
	"strings"

	"github.com/dwikikusuma/cartd/internal/catalog/domain"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
)

// Service serves a read-only product list injected at construction.
// The catalog is an external collaborator here; no persistence sits
// behind it.
type Service struct {
	byID  map[string]domain.Product
	order []domain.Product
}

func NewService(products []domain.Product) *Service {
	s := &Service{byID: make(map[string]domain.Product, len(products))}
	for _, p := range products {
		if _, dup := s.byID[p.ID]; dup {
			continue
		}
		s.byID[p.ID] = p
		s.order = append(s.order, p)
	}
	return s
}

func (s *Service) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	if strings.TrimSpace(id) == "" {
		return domain.Product{}, ErrInvalidInput
	}
	p, ok := s.byID[id]
	if !ok {
		return domain.Product{}, ErrNotFound
	}
	return p, nil
}

func (s *Service) ListProducts(ctx context.Context) []domain.Product {
	out := make([]domain.Product, len(s.order))
	copy(out, s.order)
	return out
}

// DefaultProducts is the demo inventory served when no catalog source
// is configured.
func DefaultProducts() []domain.Product {
	return []domain.Product{
		{ID: "prod-001", Name: "T-shirt", Description: "100% cotton t-shirt", Price: domain.Money{Currency: "USD", Amount: 1999}, Inventory: 120},
		{ID: "prod-002", Name: "Coffee Mug", Description: "Ceramic 12oz mug", Price: domain.Money{Currency: "USD", Amount: 950}, Inventory: 80},
		{ID: "prod-003", Name: "Notebook", Description: "Spiral notebook 120 pages", Price: domain.Money{Currency: "USD", Amount: 525}, Inventory: 200},
		{ID: "prod-004", Name: "Sticker Pack", Description: "Assorted tech stickers", Price: domain.Money{Currency: "USD", Amount: 300}, Inventory: 500},
	}
}
