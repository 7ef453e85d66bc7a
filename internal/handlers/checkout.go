package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	checkoutapp "github.com/dwikikusuma/cartd/internal/checkout/app"
	"github.com/dwikikusuma/cartd/internal/observability"
)

type CheckoutHandler struct {
	svc     *checkoutapp.Service
	metrics *observability.Metrics
}

func NewCheckoutHandler(svc *checkoutapp.Service, metrics *observability.Metrics) *CheckoutHandler {
	return &CheckoutHandler{svc: svc, metrics: metrics}
}

type checkoutRequest struct {
	OwnerID string `json:"ownerId"`
}

func (h *CheckoutHandler) Checkout(c *gin.Context) {
	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.metrics.Request("checkout", "invalid")
		c.JSON(http.StatusBadRequest, gin.H{"code": "INVALID_INPUT", "error": "invalid request body"})
		return
	}
	ownerID, err := h.svc.Checkout(c.Request.Context(), req.OwnerID)
	if err != nil {
		h.metrics.Request("checkout", "invalid")
		writeError(c, err)
		return
	}
	h.metrics.Request("checkout", "ok")
	c.JSON(http.StatusOK, gin.H{"ownerId": ownerID})
}
