package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	cartapp "github.com/dwikikusuma/cartd/internal/cart/app"
	"github.com/dwikikusuma/cartd/internal/cart/domain"
	"github.com/dwikikusuma/cartd/internal/observability"
)

type CartHandler struct {
	svc     *cartapp.Service
	log     *slog.Logger
	metrics *observability.Metrics
}

func NewCartHandler(svc *cartapp.Service, log *slog.Logger, metrics *observability.Metrics) *CartHandler {
	return &CartHandler{svc: svc, log: log, metrics: metrics}
}

type lineItemDTO struct {
	ItemID    string    `json:"itemId"`
	OwnerID   string    `json:"ownerId"`
	ProductID string    `json:"productId"`
	Quantity  int64     `json:"quantity"`
	Price     int64     `json:"price"`
	AddedAt   time.Time `json:"addedAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func toDTO(li domain.LineItem) lineItemDTO {
	return lineItemDTO{
		ItemID:    li.ItemID,
		OwnerID:   li.OwnerID,
		ProductID: li.ProductID,
		Quantity:  li.Quantity,
		Price:     li.UnitPrice,
		AddedAt:   li.CreatedAt,
		UpdatedAt: li.UpdatedAt,
	}
}

type mutateItemRequest struct {
	OwnerID   string `json:"ownerId"`
	ProductID string `json:"productId"`
	Quantity  int64  `json:"quantity"`
	Price     int64  `json:"price"`
}

// Add handles POST /cart: accumulate quantity onto the owner's record.
func (h *CartHandler) Add(c *gin.Context) {
	var req mutateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.metrics.Request("add", "invalid")
		c.JSON(http.StatusBadRequest, gin.H{"code": "INVALID_INPUT", "error": "invalid request body"})
		return
	}

	item, err := h.svc.AddItem(c.Request.Context(), req.OwnerID, req.ProductID, req.Quantity, req.Price)
	if err != nil {
		status := writeError(c, err)
		h.requestOutcome("add", status, err)
		return
	}
	h.metrics.Request("add", "ok")
	c.JSON(http.StatusCreated, gin.H{"item": toDTO(item)})
}

// Set handles PUT /cart: absolute quantity; zero removes the record.
func (h *CartHandler) Set(c *gin.Context) {
	var req mutateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.metrics.Request("set", "invalid")
		c.JSON(http.StatusBadRequest, gin.H{"code": "INVALID_INPUT", "error": "invalid request body"})
		return
	}

	item, removed, err := h.svc.SetItem(c.Request.Context(), req.OwnerID, req.ProductID, req.Quantity, req.Price)
	if err != nil {
		status := writeError(c, err)
		h.requestOutcome("set", status, err)
		return
	}
	h.metrics.Request("set", "ok")
	if removed {
		c.JSON(http.StatusOK, gin.H{"removed": true})
		return
	}
	c.JSON(http.StatusOK, gin.H{"item": toDTO(item)})
}

// List handles GET /cart/:ownerId.
func (h *CartHandler) List(c *gin.Context) {
	ownerID := c.Param("ownerId")
	items, err := h.svc.ListItems(c.Request.Context(), ownerID)
	if err != nil {
		status := writeError(c, err)
		h.requestOutcome("list", status, err)
		return
	}
	dtos := make([]lineItemDTO, 0, len(items))
	for _, item := range items {
		dtos = append(dtos, toDTO(item))
	}
	h.metrics.Request("list", "ok")
	c.JSON(http.StatusOK, gin.H{"ownerId": ownerID, "items": dtos})
}

func (h *CartHandler) requestOutcome(op string, status int, err error) {
	if status >= http.StatusInternalServerError {
		h.metrics.Request(op, "error")
		h.log.Error("cart request failed", slog.String("op", op), slog.Any("err", err))
		return
	}
	h.metrics.Request(op, "invalid")
}
