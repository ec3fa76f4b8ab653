package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/thesheunit/storefront/internal/domain/admin"
	"github.com/thesheunit/storefront/internal/infrastructure/storeerr"
	"github.com/thesheunit/storefront/internal/pkg/optimistic"
)

// respondOutcome writes a settled optimistic mutation. The body always
// carries the visible state so clients can re-render without refetching.
func respondOutcome[V any](c *gin.Context, out optimistic.Outcome[V], message string) {
	if out.OK() {
		c.JSON(http.StatusOK, gin.H{
			"message": message,
			"data":    out.Value,
		})
		return
	}

	body := gin.H{
		"status": out.Status,
		"data":   out.Value,
	}
	var oe *optimistic.Error
	if errors.As(out.Err, &oe) {
		body["error"] = oe.Message
		body["kind"] = oe.Kind
		if oe.RedirectTo != "" {
			body["redirect_to"] = oe.RedirectTo
		}
	} else if out.Err != nil {
		body["error"] = out.Err.Error()
	}
	var ve *admin.ValidationError
	if errors.As(out.Err, &ve) {
		body["fields"] = ve.Fields
	}

	status := outcomeStatus(out.Status, out.Kind())
	if out.Status == optimistic.StatusRolledBack && storeerr.Classify(out.Err) == storeerr.CategoryNotFound {
		// the target is gone, the store itself is healthy
		status = http.StatusNotFound
	}
	c.JSON(status, body)
}

func outcomeStatus(status optimistic.Status, kind optimistic.Kind) int {
	switch status {
	case optimistic.StatusConfirmed:
		return http.StatusOK
	case optimistic.StatusUnauthenticated:
		return http.StatusUnauthorized
	case optimistic.StatusInvalid:
		return http.StatusUnprocessableEntity
	case optimistic.StatusRejected:
		return http.StatusConflict
	}
	if kind == optimistic.KindNetworkFailure {
		return http.StatusServiceUnavailable
	}
	return http.StatusBadGateway
}

// respondError maps a store error onto an HTTP error response
func respondError(c *gin.Context, err error, fallback string) {
	status := http.StatusInternalServerError
	msg := fallback
	switch storeerr.Classify(err) {
	case storeerr.CategoryNotFound:
		status = http.StatusNotFound
		msg = storeerr.UserMessage(err)
	case storeerr.CategoryPermission:
		status = http.StatusForbidden
		msg = storeerr.UserMessage(err)
	case storeerr.CategoryNetwork:
		status = http.StatusServiceUnavailable
		msg = storeerr.UserMessage(err)
	case storeerr.CategoryConflict:
		status = http.StatusConflict
		msg = storeerr.UserMessage(err)
	}
	_ = c.Error(err)
	c.JSON(status, gin.H{"error": msg})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":   "Invalid request data",
		"details": err.Error(),
	})
}

// parseID reads a positive numeric path parameter
func parseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid " + name,
		})
		return 0, false
	}
	return uint(id), true
}
