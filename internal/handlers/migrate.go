package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dwikikusuma/cartd/internal/identity"
	migrateapp "github.com/dwikikusuma/cartd/internal/migrate/app"
	"github.com/dwikikusuma/cartd/internal/observability"
)

type MigrateHandler struct {
	svc      *migrateapp.Service
	resolver identity.Resolver
	log      *slog.Logger
	metrics  *observability.Metrics
}

func NewMigrateHandler(svc *migrateapp.Service, resolver identity.Resolver, log *slog.Logger, metrics *observability.Metrics) *MigrateHandler {
	if resolver == nil {
		resolver = identity.None{}
	}
	return &MigrateHandler{svc: svc, resolver: resolver, log: log, metrics: metrics}
}

type migrateItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int64  `json:"quantity"`
	Price     int64  `json:"price"`
}

type migrateRequest struct {
	SourceOwnerID      string               `json:"sourceOwnerId"`
	DestinationOwnerID string               `json:"destinationOwnerId"`
	Items              []migrateItemRequest `json:"items"`
}

type outcomeDTO struct {
	ProductID string       `json:"productId,omitempty"`
	Status    string       `json:"outcome"`
	Reason    string       `json:"reason,omitempty"`
	Item      *lineItemDTO `json:"item,omitempty"`
}

// Migrate handles POST /cart/migrate. The source owner comes from the
// body when present, otherwise from the verified bearer token.
func (h *MigrateHandler) Migrate(c *gin.Context) {
	var req migrateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.metrics.Request("migrate", "invalid")
		c.JSON(http.StatusBadRequest, gin.H{"code": "INVALID_INPUT", "error": "invalid request body"})
		return
	}

	source := req.SourceOwnerID
	if source == "" {
		if resolved, ok := h.resolver.ResolveOwnerID(c.Request); ok {
			source = resolved
		}
	}

	items := make([]migrateapp.Item, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, migrateapp.Item{ProductID: it.ProductID, Quantity: it.Quantity, UnitPrice: it.Price})
	}

	result, err := h.svc.Migrate(c.Request.Context(), migrateapp.Request{
		SourceOwnerID:      source,
		DestinationOwnerID: req.DestinationOwnerID,
		Items:              items,
	})
	if err != nil {
		status := writeError(c, err)
		if status >= http.StatusInternalServerError {
			h.metrics.Request("migrate", "error")
			h.log.Error("migration failed", slog.Any("err", err))
		} else {
			h.metrics.Request("migrate", "invalid")
		}
		return
	}

	written := make([]lineItemDTO, 0, len(result.Written))
	for _, item := range result.Written {
		written = append(written, toDTO(item))
	}
	outcomes := make([]outcomeDTO, 0, len(result.Outcomes))
	for _, oc := range result.Outcomes {
		dto := outcomeDTO{ProductID: oc.ProductID, Status: string(oc.Status), Reason: oc.Reason}
		if oc.Item != nil {
			item := toDTO(*oc.Item)
			dto.Item = &item
		}
		outcomes = append(outcomes, dto)
	}

	h.metrics.Request("migrate", "ok")
	c.JSON(http.StatusOK, gin.H{
		"destinationOwnerId": result.DestinationOwnerID,
		"written":            written,
		"outcomes":           outcomes,
	})
}
