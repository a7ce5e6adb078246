package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// ItemCacheTTL is the time-to-live for cached items.
	ItemCacheTTL = 24 * time.Hour

	itemCacheKeyPrefix = "catalog:item"
)

// CachedItem is the denormalized read model of a catalog item stored in Redis
// as a hash. Price is kept in its canonical text form.
type CachedItem struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Price     string    `json:"price"`
	Size      string    `json:"size"`
	Image     string    `json:"image"`
	Available bool      `json:"available"`
	Deleted   bool      `json:"deleted"`
	CreatedAt time.Time `json:"created_at"`
}

// ItemCache provides structured read/write operations for catalog item entries.
// Key format: "catalog:item:{itemID}"
type ItemCache struct {
	client *RedisClient
}

// NewItemCache creates a new ItemCache backed by the given RedisClient.
func NewItemCache(r *RedisClient) *ItemCache {
	return &ItemCache{client: r}
}

// Get retrieves a cached item by ID.
// Returns redis.Nil error when the key does not exist or has expired.
func (c *ItemCache) Get(ctx context.Context, itemID uuid.UUID) (*CachedItem, error) {
	vals, err := c.client.Client().HGetAll(ctx, itemKey(itemID)).Result()
	if err != nil {
		return nil, fmt.Errorf("cache get: %w", err)
	}
	if len(vals) == 0 {
		return nil, redis.Nil
	}
	return decodeItem(vals)
}

// Stamp is an item's invalidation generation. Every Delete advances it, so
// a value read before querying PostgreSQL tells SetIfUnchanged whether the
// row may have changed since.
type Stamp int64

// ErrStale is returned by SetIfUnchanged when the item was invalidated after
// its stamp was read. The entry is not written.
var ErrStale = errors.New("cache: item invalidated since read")

// Stamp returns the current generation of itemID. Items never invalidated
// (or whose generation expired) are at 0.
func (c *ItemCache) Stamp(ctx context.Context, itemID uuid.UUID) (Stamp, error) {
	n, err := c.client.Client().Get(ctx, genKey(itemID)).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return 0, fmt.Errorf("cache stamp: %w", err)
	}
	return Stamp(n), nil
}

// SetIfUnchanged writes item as a Redis hash with a 24-hour TTL, but only
// while its generation still equals stamp. The generation key is WATCHed,
// so an invalidation racing the write aborts it with ErrStale.
func (c *ItemCache) SetIfUnchanged(ctx context.Context, item *CachedItem, stamp Stamp) error {
	key, gen := itemKey(item.ID), genKey(item.ID)
	err := c.client.Client().Watch(ctx, func(tx *redis.Tx) error {
		n, err := tx.Get(ctx, gen).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if Stamp(n) != stamp {
			return ErrStale
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, key)
			pipe.HSet(ctx, key, encodeItem(item)...)
			pipe.Expire(ctx, key, ItemCacheTTL)
			return nil
		})
		return err
	}, gen)

	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrStale), errors.Is(err, redis.TxFailedErr):
		return ErrStale
	default:
		return fmt.Errorf("cache set: %w", err)
	}
}

// Delete removes cached items and advances their generations. Missing keys
// are ignored.
func (c *ItemCache) Delete(ctx context.Context, itemIDs ...uuid.UUID) error {
	if len(itemIDs) == 0 {
		return nil
	}
	pipe := c.client.Client().TxPipeline()
	for _, id := range itemIDs {
		pipe.Del(ctx, itemKey(id))
		pipe.Incr(ctx, genKey(id))
		pipe.Expire(ctx, genKey(id), ItemCacheTTL)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cache delete: %w", err)
	}
	return nil
}

// itemKey builds the Redis key: "catalog:item:{itemID}"
func itemKey(itemID uuid.UUID) string {
	return fmt.Sprintf("%s:%s", itemCacheKeyPrefix, itemID)
}

func genKey(itemID uuid.UUID) string {
	return itemKey(itemID) + ":gen"
}

func encodeItem(item *CachedItem) []any {
	return []any{
		"id", item.ID.String(),
		"name", item.Name,
		"price", item.Price,
		"size", item.Size,
		"image", item.Image,
		"available", strconv.FormatBool(item.Available),
		"deleted", strconv.FormatBool(item.Deleted),
		"created_at", item.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func decodeItem(vals map[string]string) (*CachedItem, error) {
	id, err := uuid.Parse(vals["id"])
	if err != nil {
		return nil, fmt.Errorf("cache parse id: %w", err)
	}
	available, err := strconv.ParseBool(vals["available"])
	if err != nil {
		return nil, fmt.Errorf("cache parse available: %w", err)
	}
	deleted, err := strconv.ParseBool(vals["deleted"])
	if err != nil {
		return nil, fmt.Errorf("cache parse deleted: %w", err)
	}
	createdAt, err := time.Parse(time.RFC3339Nano, vals["created_at"])
	if err != nil {
		return nil, fmt.Errorf("cache parse created_at: %w", err)
	}

	return &CachedItem{
		ID:        id,
		Name:      vals["name"],
		Price:     vals["price"],
		Size:      vals["size"],
		Image:     vals["image"],
		Available: available,
		Deleted:   deleted,
		CreatedAt: createdAt,
	}, nil
}
