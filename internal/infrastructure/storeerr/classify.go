// Package storeerr sorts errors from the durable stores into coarse categories.
// The categories only drive user-facing messages and retry decisions.
package storeerr

import (
	"context"
	"errors"
	"net"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"
	"github.com/thesheunit/storefront/internal/pkg/optimistic"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"gorm.io/gorm"
)

// Category is a coarse error class shared by all durable stores
type Category string

const (
	CategoryNone       Category = ""
	CategoryPermission Category = "permission"
	CategoryNotFound   Category = "not_found"
	CategoryNetwork    Category = "network"
	CategoryConflict   Category = "conflict"
	CategoryUnknown    Category = "unknown"
)

var (
	// ErrPermission marks a write the current identity may not perform
	ErrPermission = errors.New("permission denied")
	// ErrNotFound marks a missing record
	ErrNotFound = errors.New("record not found")
)

// Classify returns the category of err
func Classify(err error) Category {
	if err == nil {
		return CategoryNone
	}

	switch {
	case errors.Is(err, ErrPermission):
		return CategoryPermission
	case errors.Is(err, ErrNotFound), errors.Is(err, gorm.ErrRecordNotFound), errors.Is(err, redis.Nil):
		return CategoryNotFound
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return CategoryNetwork
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return CategoryConflict
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return classifyPostgres(pgErr.Code)
	}

	if st, ok := status.FromError(err); ok && st.Code() != codes.OK && st.Code() != codes.Unknown {
		return classifyGRPC(st.Code())
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return CategoryNetwork
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "connection refused") || strings.Contains(msg, "broken pipe") ||
		strings.Contains(msg, "i/o timeout") || strings.Contains(msg, "connection reset") {
		return CategoryNetwork
	}

	return CategoryUnknown
}

func classifyPostgres(code string) Category {
	switch {
	case code == "42501":
		return CategoryPermission
	case code == "23505", code == "40001", code == "40P01":
		return CategoryConflict
	case strings.HasPrefix(code, "08"), code == "57P01", code == "53300":
		return CategoryNetwork
	default:
		return CategoryUnknown
	}
}

func classifyGRPC(code codes.Code) Category {
	switch code {
	case codes.PermissionDenied, codes.Unauthenticated:
		return CategoryPermission
	case codes.NotFound:
		return CategoryNotFound
	case codes.Unavailable, codes.DeadlineExceeded, codes.Canceled, codes.ResourceExhausted:
		return CategoryNetwork
	case codes.AlreadyExists, codes.Aborted, codes.FailedPrecondition:
		return CategoryConflict
	default:
		return CategoryUnknown
	}
}

// Retryable reports whether repeating the call may succeed
func Retryable(err error) bool {
	switch Classify(err) {
	case CategoryNetwork:
		return true
	case CategoryConflict:
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			return pgErr.Code == "40001" || pgErr.Code == "40P01"
		}
		return status.Code(err) == codes.Aborted
	default:
		return false
	}
}

// MutationKind adapts Classify to the optimistic controller
func MutationKind(err error) optimistic.Kind {
	if Classify(err) == CategoryNetwork {
		return optimistic.KindNetworkFailure
	}
	return optimistic.KindPersistenceFailed
}

// UserMessage selects the text shown for a failed remote call
func UserMessage(err error) string {
	switch Classify(err) {
	case CategoryNone:
		return ""
	case CategoryPermission:
		return "You do not have permission to make this change."
	case CategoryNotFound:
		return "This item no longer exists."
	case CategoryNetwork:
		return "We could not reach the server. Please check your connection and try again."
	case CategoryConflict:
		return "This item was changed elsewhere. Please refresh and try again."
	default:
		return optimistic.FallbackMessage
	}
}
