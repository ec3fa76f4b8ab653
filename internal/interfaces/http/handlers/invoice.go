// internal/interfaces/http/handlers/invoice.go
package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/thesheunit/storefront/internal/domain/order"
	"github.com/thesheunit/storefront/internal/interfaces/http/middleware"
	"github.com/thesheunit/storefront/internal/pkg/pdf"
)

// InvoiceHandler renders order invoices
type InvoiceHandler struct {
	orderService *order.Service
	pdfService   *pdf.Service
}

// NewInvoiceHandler creates a new invoice handler
func NewInvoiceHandler(orderService *order.Service, pdfService *pdf.Service) *InvoiceHandler {
	return &InvoiceHandler{
		orderService: orderService,
		pdfService:   pdfService,
	}
}

// GenerateInvoice handles GET /orders/:id/invoice
func (h *InvoiceHandler) GenerateInvoice(c *gin.Context) {
	userID, _ := middleware.GetUserIDFromContext(c)
	h.render(c, func(ctx context.Context, id uint) (*order.Order, error) {
		return h.orderService.GetForUser(ctx, userID, id)
	})
}

// GenerateAdminInvoice handles GET /admin/orders/:id/invoice
func (h *InvoiceHandler) GenerateAdminInvoice(c *gin.Context) {
	h.render(c, h.orderService.GetOrder)
}

// PreviewInvoice handles GET /orders/:id/invoice/preview and returns the
// HTML the PDF is rendered from
func (h *InvoiceHandler) PreviewInvoice(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	userID, _ := middleware.GetUserIDFromContext(c)
	o, err := h.orderService.GetForUser(c.Request.Context(), userID, id)
	if err != nil {
		respondError(c, err, "Failed to retrieve order")
		return
	}

	html, err := h.pdfService.RenderInvoiceHTML(o)
	if err != nil {
		respondError(c, err, "Failed to render invoice")
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", html)
}

func (h *InvoiceHandler) render(c *gin.Context, load func(context.Context, uint) (*order.Order, error)) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	o, err := load(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "Failed to retrieve order")
		return
	}

	buf, err := h.pdfService.GenerateInvoice(o)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to generate invoice",
		})
		return
	}

	c.Header("Content-Disposition", "attachment; filename="+pdf.InvoiceFilename(o))
	c.Header("Content-Length", strconv.Itoa(buf.Len()))
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}
