package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thesheunit/storefront/internal/domain/admin"
	"github.com/thesheunit/storefront/internal/infrastructure/storeerr"
	"github.com/thesheunit/storefront/internal/pkg/optimistic"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestOutcomeStatus(t *testing.T) {
	tests := []struct {
		status optimistic.Status
		kind   optimistic.Kind
		want   int
	}{
		{optimistic.StatusConfirmed, "", http.StatusOK},
		{optimistic.StatusUnauthenticated, optimistic.KindNeedsAuthentication, http.StatusUnauthorized},
		{optimistic.StatusInvalid, optimistic.KindValidationFailed, http.StatusUnprocessableEntity},
		{optimistic.StatusRejected, "", http.StatusConflict},
		{optimistic.StatusRolledBack, optimistic.KindNetworkFailure, http.StatusServiceUnavailable},
		{optimistic.StatusRolledBack, optimistic.KindPersistenceFailed, http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(string(tt.status)+"/"+string(tt.kind), func(t *testing.T) {
			assert.Equal(t, tt.want, outcomeStatus(tt.status, tt.kind))
		})
	}
}

func TestRespondOutcome_Invalid(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	out := optimistic.Invalid([]int{1}, &admin.ValidationError{Fields: map[string]string{"price": "must be at least 0"}})
	respondOutcome(c, out, "ok")

	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	var body struct {
		Status string            `json:"status"`
		Kind   string            `json:"kind"`
		Fields map[string]string `json:"fields"`
		Data   []int             `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "invalid", body.Status)
	assert.Equal(t, string(optimistic.KindValidationFailed), body.Kind)
	assert.Equal(t, "must be at least 0", body.Fields["price"])
	assert.Equal(t, []int{1}, body.Data, "the visible state travels with the failure")
}

func TestRespondError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", storeerr.ErrNotFound, http.StatusNotFound},
		{"permission", storeerr.ErrPermission, http.StatusForbidden},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			respondError(c, tt.err, "Failed")
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestParseID(t *testing.T) {
	for raw, ok := range map[string]bool{"7": true, "0": false, "-1": false, "abc": false} {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Params = gin.Params{{Key: "id", Value: raw}}

		id, got := parseID(c, "id")
		assert.Equal(t, ok, got, raw)
		if ok {
			assert.Equal(t, uint(7), id)
		} else {
			assert.Equal(t, http.StatusBadRequest, w.Code)
		}
	}
}

func TestRespondOutcome_MissingTargetIsNotFound(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	out := optimistic.Outcome[[]uint]{
		Status: optimistic.StatusRolledBack,
		Value:  []uint{1},
		Err: &optimistic.Error{
			Kind:    optimistic.KindPersistenceFailed,
			Message: storeerr.UserMessage(storeerr.ErrNotFound),
			Err:     fmt.Errorf("product %w", storeerr.ErrNotFound),
		},
	}
	respondOutcome(c, out, "ok")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "no longer exists")
}
