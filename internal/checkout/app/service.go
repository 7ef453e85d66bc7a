package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidInput = errors.New("invalid input")

// Service acknowledges checkout requests. Payment and fulfillment live
// behind external systems; this stub only validates the owner.
type Service struct{}

func NewService() *Service {
	return &Service{}
}

func (s *Service) Checkout(ctx context.Context, ownerID string) (string, error) {
	if strings.TrimSpace(ownerID) == "" {
		return "", fmt.Errorf("%w: ownerId is required", ErrInvalidInput)
	}
	return ownerID, nil
}
