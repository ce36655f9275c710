package invoices

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"invoice-backend/internal/shared/server/respond"
)

// Handler exposes the invoice review surface: list, read, update.
type Handler struct {
	Repo Repo
}

func NewHandler(repo Repo) *Handler {
	return &Handler{Repo: repo}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/invoices", h.list)
	rg.GET("/invoices/:id", h.get)
	rg.PUT("/invoices/:id", h.update)
}

func (h *Handler) list(c *gin.Context) {
	sortField := c.DefaultQuery("sortField", SortByInvoiceDate)
	sortOrder := c.DefaultQuery("sortOrder", "asc")

	out, err := h.Repo.List(c.Request.Context(), sortField, sortOrder)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list invoices", nil)
		return
	}
	if out == nil {
		out = []Invoice{}
	}
	respond.JSON(c, http.StatusOK, out)
}

func (h *Handler) get(c *gin.Context) {
	inv, err := h.Repo.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "Invoice not found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to read invoice", nil)
		return
	}
	respond.JSON(c, http.StatusOK, inv)
}

func (h *Handler) update(c *gin.Context) {
	var fields UpdateFields
	if err := c.ShouldBindJSON(&fields); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	inv, err := h.Repo.Update(c.Request.Context(), c.Param("id"), fields)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "Invoice not found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "Update failed", nil)
		return
	}
	respond.JSON(c, http.StatusOK, inv)
}
