package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/dwikikusuma/cartd/internal/cart/domain"
)

var ErrInvalidInput = errors.New("invalid input")

// CartWriter is the slice of the cart mutation service the coordinator
// merges through. Accumulation onto existing destination quantities is
// AddItem's contract, not re-implemented here.
type CartWriter interface {
	AddItem(ctx context.Context, ownerID, productID string, deltaQuantity, price int64) (domain.LineItem, error)
}

// CleanupEnqueuer schedules removal of a source-side record after its
// contents moved to the destination.
type CleanupEnqueuer interface {
	EnqueueDelete(ctx context.Context, ownerID, productID string) error
}

// Item is one line carried over by a migration request.
type Item struct {
	ProductID string
	Quantity  int64
	UnitPrice int64
}

// Request describes a merge of the source owner's cart into the
// destination owner's cart. An empty DestinationOwnerID means merge
// back onto the source (no cleanup).
type Request struct {
	SourceOwnerID      string
	DestinationOwnerID string
	Items              []Item
}

type OutcomeStatus string

const (
	OutcomeWritten OutcomeStatus = "written"
	OutcomeSkipped OutcomeStatus = "skipped"
)

// ItemOutcome records per-item what happened, so callers and tests can
// inspect partial failure structurally instead of scraping logs.
type ItemOutcome struct {
	ProductID string
	Status    OutcomeStatus
	Reason    string
	Item      *domain.LineItem
}

type Result struct {
	DestinationOwnerID string
	Written            []domain.LineItem
	Outcomes           []ItemOutcome
}

// Service merges carts best-effort: a single item's failed write skips
// that item, never the migration. Cleanup of the source side is
// scheduled asynchronously and its enqueue failures are logged, not
// surfaced.
type Service struct {
	carts         CartWriter
	cleanup       CleanupEnqueuer
	log           *slog.Logger
	maxConcurrent int
}

func NewService(carts CartWriter, cleanup CleanupEnqueuer, log *slog.Logger, maxConcurrent int) *Service {
	if maxConcurrent <= 0 {
		maxConcurrent = 4
	}
	return &Service{carts: carts, cleanup: cleanup, log: log, maxConcurrent: maxConcurrent}
}

func (s *Service) Migrate(ctx context.Context, req Request) (Result, error) {
	source := strings.TrimSpace(req.SourceOwnerID)
	if source == "" {
		return Result{}, fmt.Errorf("%w: sourceOwnerId is required", ErrInvalidInput)
	}
	dest := strings.TrimSpace(req.DestinationOwnerID)
	if dest == "" {
		dest = source
	}

	// No explicit items: a no-op merge, nothing fabricated.
	outcomes := make([]ItemOutcome, len(req.Items))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxConcurrent)
	for idx := range req.Items {
		idx := idx
		g.Go(func() error {
			it := req.Items[idx]
			if strings.TrimSpace(it.ProductID) == "" {
				outcomes[idx] = ItemOutcome{Status: OutcomeSkipped, Reason: "productId missing"}
				return nil
			}
			qty := it.Quantity
			if qty <= 0 {
				qty = 1
			}
			written, err := s.carts.AddItem(gctx, dest, it.ProductID, qty, it.UnitPrice)
			if err != nil {
				s.log.Warn("migration write skipped",
					slog.String("destinationOwnerId", dest),
					slog.String("productId", it.ProductID),
					slog.Any("err", err))
				outcomes[idx] = ItemOutcome{ProductID: it.ProductID, Status: OutcomeSkipped, Reason: err.Error()}
				return nil
			}
			outcomes[idx] = ItemOutcome{ProductID: it.ProductID, Status: OutcomeWritten, Item: &written}
			return nil
		})
	}
	_ = g.Wait()

	// Schedule source-side cleanup for every attempted item, whether or
	// not its write landed. Merging onto the same owner cleans nothing.
	if dest != source {
		for idx := range req.Items {
			productID := strings.TrimSpace(req.Items[idx].ProductID)
			if productID == "" {
				continue
			}
			if err := s.cleanup.EnqueueDelete(ctx, source, productID); err != nil {
				s.log.Warn("cleanup enqueue failed",
					slog.String("sourceOwnerId", source),
					slog.String("productId", productID),
					slog.Any("err", err))
			}
		}
	}

	result := Result{DestinationOwnerID: dest, Outcomes: outcomes}
	for _, oc := range outcomes {
		if oc.Status == OutcomeWritten && oc.Item != nil {
			result.Written = append(result.Written, *oc.Item)
		}
	}
	return result, nil
}
