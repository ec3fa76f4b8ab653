package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/redis/go-redis/v9"
	"github.com/thesheunit/storefront/internal/pkg/retry"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"gorm.io/gorm"
)

// Repository is the durable per-identity cart store
type Repository interface {
	Load(ctx context.Context, userID uint) ([]LineItem, error)
	Save(ctx context.Context, userID uint, items []LineItem) error
	Backend() string
}

// RedisRepository stores each cart as one JSON document
type RedisRepository struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisRepository creates a Redis backed cart store
func NewRedisRepository(client *redis.Client, prefix string, ttl time.Duration) *RedisRepository {
	if prefix == "" {
		prefix = "cart:user:"
	}
	return &RedisRepository{client: client, prefix: prefix, ttl: ttl}
}

type redisDocument struct {
	Items     []LineItem `json:"items"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (r *RedisRepository) key(userID uint) string {
	return r.prefix + strconv.FormatUint(uint64(userID), 10)
}

// Backend implements Repository
func (r *RedisRepository) Backend() string { return "redis" }

// Load implements Repository. A missing key is an empty cart.
func (r *RedisRepository) Load(ctx context.Context, userID uint) ([]LineItem, error) {
	data, err := r.client.Get(ctx, r.key(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []LineItem{}, nil
		}
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	return ParseJSON(data), nil
}

// Save implements Repository
func (r *RedisRepository) Save(ctx context.Context, userID uint, items []LineItem) error {
	data, err := json.Marshal(redisDocument{Items: nonNil(items), UpdatedAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("failed to encode cart: %w", err)
	}
	if err := r.client.Set(ctx, r.key(userID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save cart: %w", err)
	}
	return nil
}

// PostgresRepository stores one row per line item
type PostgresRepository struct {
	db *gorm.DB
}

// NewPostgresRepository creates a relational cart store
func NewPostgresRepository(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Backend implements Repository
func (r *PostgresRepository) Backend() string { return "postgres" }

// Load implements Repository
func (r *PostgresRepository) Load(ctx context.Context, userID uint) ([]LineItem, error) {
	var rows []CartItem
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("position ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}

	raw := make([]any, 0, len(rows))
	for _, row := range rows {
		raw = append(raw, map[string]any{
			"product_id": int64(row.ProductID),
			"size":       row.Size,
			"quantity":   int64(row.Quantity),
		})
	}
	return ParseItems(raw), nil
}

// Save implements Repository. The stored lines are replaced in one transaction.
func (r *PostgresRepository) Save(ctx context.Context, userID uint, items []LineItem) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&CartItem{}).Error; err != nil {
			return fmt.Errorf("failed to clear cart: %w", err)
		}
		if len(items) == 0 {
			return nil
		}

		rows := make([]CartItem, 0, len(items))
		for i, item := range items {
			rows = append(rows, CartItem{
				UserID:    userID,
				ProductID: item.ProductID,
				Size:      item.Size,
				Quantity:  item.Quantity,
				Position:  i,
			})
		}
		if err := tx.Create(&rows).Error; err != nil {
			return fmt.Errorf("failed to save cart: %w", err)
		}
		return nil
	})
}

// FirestoreRepository stores each cart as a document keyed by user id
type FirestoreRepository struct {
	client     *firestore.Client
	collection string
}

// NewFirestoreRepository creates a Firestore backed cart store
func NewFirestoreRepository(client *firestore.Client, collection string) *FirestoreRepository {
	if collection == "" {
		collection = "carts"
	}
	return &FirestoreRepository{client: client, collection: collection}
}

// Backend implements Repository
func (r *FirestoreRepository) Backend() string { return "firestore" }

func (r *FirestoreRepository) doc(userID uint) *firestore.DocumentRef {
	return r.client.Collection(r.collection).Doc(strconv.FormatUint(uint64(userID), 10))
}

// Load implements Repository. A missing document is an empty cart.
func (r *FirestoreRepository) Load(ctx context.Context, userID uint) ([]LineItem, error) {
	snap, err := r.doc(userID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return []LineItem{}, nil
		}
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}

	raw, _ := snap.Data()["items"].([]interface{})
	return ParseItems(raw), nil
}

// Save implements Repository
func (r *FirestoreRepository) Save(ctx context.Context, userID uint, items []LineItem) error {
	docItems := make([]map[string]interface{}, 0, len(items))
	for _, item := range items {
		docItems = append(docItems, map[string]interface{}{
			"product_id": int64(item.ProductID),
			"size":       item.Size,
			"quantity":   int64(item.Quantity),
		})
	}

	_, err := r.doc(userID).Set(ctx, map[string]interface{}{
		"userId":    int64(userID),
		"items":     docItems,
		"updatedAt": firestore.ServerTimestamp,
	})
	if err != nil {
		return fmt.Errorf("failed to save cart: %w", err)
	}
	return nil
}

// MemoryRepository keeps carts in process memory
type MemoryRepository struct {
	mu    sync.Mutex
	carts map[uint][]LineItem
}

// NewMemoryRepository creates an in-process cart store
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{carts: make(map[uint][]LineItem)}
}

// Backend implements Repository
func (r *MemoryRepository) Backend() string { return "memory" }

// Load implements Repository
func (r *MemoryRepository) Load(_ context.Context, userID uint) ([]LineItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Cart{Items: r.carts[userID]}.Clone().Items, nil
}

// Save implements Repository
func (r *MemoryRepository) Save(_ context.Context, userID uint, items []LineItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.carts[userID] = Cart{Items: items}.Clone().Items
	return nil
}

// retryingRepository retries transient store failures
type retryingRepository struct {
	next    Repository
	retrier *retry.Retrier
}

// WithRetry wraps repo so every call is retried under r
func WithRetry(repo Repository, r *retry.Retrier) Repository {
	if r == nil {
		return repo
	}
	return &retryingRepository{next: repo, retrier: r}
}

func (r *retryingRepository) Backend() string { return r.next.Backend() }

func (r *retryingRepository) Load(ctx context.Context, userID uint) ([]LineItem, error) {
	return retry.Value(ctx, r.retrier, func(ctx context.Context) ([]LineItem, error) {
		return r.next.Load(ctx, userID)
	})
}

func (r *retryingRepository) Save(ctx context.Context, userID uint, items []LineItem) error {
	return r.retrier.Do(ctx, func(ctx context.Context) error {
		return r.next.Save(ctx, userID, items)
	})
}

func nonNil(items []LineItem) []LineItem {
	if items == nil {
		return []LineItem{}
	}
	return items
}
