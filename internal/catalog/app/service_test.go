package app

import (
	"context"
	"errors"
	"testing"

	"github.com/dwikikusuma/cartd/internal/catalog/domain"
)

func TestGetProduct(t *testing.T) {
	svc := NewService([]domain.Product{
		{ID: "prod-001", Name: "T-shirt", Price: domain.Money{Currency: "USD", Amount: 1999}},
	})

	t.Run("known id", func(t *testing.T) {
		p, err := svc.GetProduct(context.Background(), "prod-001")
		if err != nil {
			t.Fatalf("get failed: %v", err)
		}
		if p.Name != "T-shirt" {
			t.Fatalf("wrong product: %+v", p)
		}
	})

	t.Run("unknown id -> not found", func(t *testing.T) {
		_, err := svc.GetProduct(context.Background(), "prod-999")
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("blank id -> invalid", func(t *testing.T) {
		_, err := svc.GetProduct(context.Background(), "   ")
		if !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("expected ErrInvalidInput, got %v", err)
		}
	})
}

func TestListProductsKeepsOrder(t *testing.T) {
	svc := NewService(DefaultProducts())
	products := svc.ListProducts(context.Background())
	if len(products) != 4 {
		t.Fatalf("expected 4 products, got %d", len(products))
	}
	if products[0].ID != "prod-001" || products[3].ID != "prod-004" {
		t.Fatalf("injection order not preserved: %+v", products)
	}
}
