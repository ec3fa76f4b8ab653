package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/thesheunit/storefront/internal/domain/admin"
	"github.com/thesheunit/storefront/internal/interfaces/http/middleware"
	"github.com/thesheunit/storefront/internal/session"
)

// AdminTable exposes one back-office table of the caller's session over HTTP
type AdminTable[R admin.Record[R]] struct {
	label string
	pick  func(*session.AdminViews) *admin.Table[R]
}

// NewAdminTable creates the handlers for the table chosen by pick
func NewAdminTable[R admin.Record[R]](label string, pick func(*session.AdminViews) *admin.Table[R]) *AdminTable[R] {
	return &AdminTable[R]{label: label, pick: pick}
}

// Register mounts the table routes on rg
func (h *AdminTable[R]) Register(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.DELETE("/view", h.Close)
	rg.PATCH("/:id", h.Update)
	rg.POST("/:id/toggle/:field", h.Toggle)
	rg.DELETE("/:id", h.Delete)
}

func (h *AdminTable[R]) table(c *gin.Context) *admin.Table[R] {
	return h.pick(middleware.GetSession(c).Admin)
}

// ensureMounted loads the table on first use so edits always apply to known rows
func (h *AdminTable[R]) ensureMounted(c *gin.Context) (*admin.Table[R], bool) {
	t := h.table(c)
	if t.Mounted() {
		return t, true
	}
	if _, err := t.Mount(c.Request.Context()); err != nil {
		respondError(c, err, "Failed to load "+h.label)
		return nil, false
	}
	return t, true
}

// List handles GET /admin/<table>; every call reloads the rows
func (h *AdminTable[R]) List(c *gin.Context) {
	rows, err := h.table(c).Mount(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to load "+h.label)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": h.label + " retrieved successfully",
		"data":    rows,
	})
}

// Close handles DELETE /admin/<table>/view and discards the loaded rows
func (h *AdminTable[R]) Close(c *gin.Context) {
	h.table(c).Unmount()
	c.Status(http.StatusNoContent)
}

// Update handles PATCH /admin/<table>/:id with a partial row
func (h *AdminTable[R]) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var changes map[string]any
	if err := c.ShouldBindJSON(&changes); err != nil {
		badRequest(c, err)
		return
	}

	t, ok := h.ensureMounted(c)
	if !ok {
		return
	}
	respondOutcome(c, t.Update(c.Request.Context(), id, changes), h.label+" updated successfully")
}

// Toggle handles POST /admin/<table>/:id/toggle/:field
func (h *AdminTable[R]) Toggle(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	t, ok := h.ensureMounted(c)
	if !ok {
		return
	}
	respondOutcome(c, t.Toggle(c.Request.Context(), id, c.Param("field")), h.label+" updated successfully")
}

// Delete handles DELETE /admin/<table>/:id
func (h *AdminTable[R]) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	t, ok := h.ensureMounted(c)
	if !ok {
		return
	}
	respondOutcome(c, t.Delete(c.Request.Context(), id), h.label+" deleted successfully")
}
