package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	catalogapp "github.com/dwikikusuma/cartd/internal/catalog/app"
	"github.com/dwikikusuma/cartd/internal/catalog/domain"
	"github.com/dwikikusuma/cartd/internal/observability"
)

type CatalogHandler struct {
	svc     *catalogapp.Service
	metrics *observability.Metrics
}

func NewCatalogHandler(svc *catalogapp.Service, metrics *observability.Metrics) *CatalogHandler {
	return &CatalogHandler{svc: svc, metrics: metrics}
}

type productDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Currency    string `json:"currency"`
	Price       int64  `json:"price"`
	Inventory   int64  `json:"inventory"`
	Image       string `json:"image,omitempty"`
}

func toProductDTO(p domain.Product) productDTO {
	return productDTO{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Currency:    p.Price.Currency,
		Price:       p.Price.Amount,
		Inventory:   p.Inventory,
		Image:       p.Image,
	}
}

func (h *CatalogHandler) List(c *gin.Context) {
	products := h.svc.ListProducts(c.Request.Context())
	dtos := make([]productDTO, 0, len(products))
	for _, p := range products {
		dtos = append(dtos, toProductDTO(p))
	}
	h.metrics.Request("products", "ok")
	c.JSON(http.StatusOK, gin.H{"products": dtos})
}

func (h *CatalogHandler) Get(c *gin.Context) {
	p, err := h.svc.GetProduct(c.Request.Context(), c.Param("productId"))
	if err != nil {
		h.metrics.Request("products", "invalid")
		writeError(c, err)
		return
	}
	h.metrics.Request("products", "ok")
	c.JSON(http.StatusOK, toProductDTO(p))
}
