package storeerr

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/thesheunit/storefront/internal/pkg/optimistic"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"gorm.io/gorm"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Category
	}{
		{"nil", nil, CategoryNone},
		{"gorm not found", fmt.Errorf("load product: %w", gorm.ErrRecordNotFound), CategoryNotFound},
		{"redis nil", redis.Nil, CategoryNotFound},
		{"sentinel permission", fmt.Errorf("update: %w", ErrPermission), CategoryPermission},
		{"deadline", context.DeadlineExceeded, CategoryNetwork},
		{"postgres privilege", &pgconn.PgError{Code: "42501"}, CategoryPermission},
		{"postgres unique", &pgconn.PgError{Code: "23505"}, CategoryConflict},
		{"postgres connection", &pgconn.PgError{Code: "08006"}, CategoryNetwork},
		{"grpc denied", status.Error(codes.PermissionDenied, "no"), CategoryPermission},
		{"grpc unavailable", status.Error(codes.Unavailable, "down"), CategoryNetwork},
		{"grpc not found", status.Error(codes.NotFound, "gone"), CategoryNotFound},
		{"refused dial", errors.New("dial tcp 127.0.0.1:5432: connect: connection refused"), CategoryNetwork},
		{"anything else", errors.New("boom"), CategoryUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}

func TestRetryable(t *testing.T) {
	assert.True(t, Retryable(context.DeadlineExceeded))
	assert.True(t, Retryable(&pgconn.PgError{Code: "40001"}))
	assert.True(t, Retryable(status.Error(codes.Aborted, "contention")))
	assert.False(t, Retryable(&pgconn.PgError{Code: "23505"}))
	assert.False(t, Retryable(ErrPermission))
	assert.False(t, Retryable(gorm.ErrRecordNotFound))
}

func TestMutationKindAndMessage(t *testing.T) {
	assert.Equal(t, optimistic.KindNetworkFailure, MutationKind(status.Error(codes.Unavailable, "down")))
	assert.Equal(t, optimistic.KindPersistenceFailed, MutationKind(ErrPermission))

	assert.Equal(t, "", UserMessage(nil))
	assert.Equal(t, optimistic.FallbackMessage, UserMessage(errors.New("boom")))
	assert.Contains(t, UserMessage(ErrPermission), "permission")
}
