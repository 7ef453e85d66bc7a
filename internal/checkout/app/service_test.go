package app

import (
	"context"
	"errors"
	"testing"
)

func TestCheckout(t *testing.T) {
	svc := NewService()

	ownerID, err := svc.Checkout(context.Background(), "u1")
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}
	if ownerID != "u1" {
		t.Fatalf("expected owner echoed back, got %q", ownerID)
	}

	if _, err := svc.Checkout(context.Background(), "  "); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for blank owner, got %v", err)
	}
}
