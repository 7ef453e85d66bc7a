package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	cartapp "github.com/dwikikusuma/cartd/internal/cart/app"
	catalogapp "github.com/dwikikusuma/cartd/internal/catalog/app"
	checkoutapp "github.com/dwikikusuma/cartd/internal/checkout/app"
	migrateapp "github.com/dwikikusuma/cartd/internal/migrate/app"
)

// httpStatusFromErr maps app-layer errors onto HTTP statuses. Client
// faults keep their message (it names the missing field); backend
// faults are reported by category only.
func httpStatusFromErr(err error) (int, string, string) {
	switch {
	case errors.Is(err, cartapp.ErrInvalidInput),
		errors.Is(err, migrateapp.ErrInvalidInput),
		errors.Is(err, catalogapp.ErrInvalidInput),
		errors.Is(err, checkoutapp.ErrInvalidInput):
		return http.StatusBadRequest, "INVALID_INPUT", err.Error()
	case errors.Is(err, catalogapp.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND", "not found"
	case errors.Is(err, cartapp.ErrUnavailable):
		return http.StatusInternalServerError, "STORAGE_UNAVAILABLE", "storage unavailable"
	default:
		return http.StatusInternalServerError, "INTERNAL", "internal error"
	}
}

func writeError(c *gin.Context, err error) (status int) {
	status, code, msg := httpStatusFromErr(err)
	c.JSON(status, gin.H{"code": code, "error": msg})
	return status
}
