// Package redis implements the current-state item store on Redis.
//
// All items live in a single hash keyed by item id so that a bulk upsert
// is one MULTI/EXEC transaction and GetAll is one HGETALL.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"ge-price-lab/internal/domain"
	"ge-price-lab/internal/observability"
	"ge-price-lab/internal/storage"
)

// DefaultKey is the hash holding every item.
const DefaultKey = "ge:items"

// ItemStore implements storage.ItemStore using a Redis hash.
type ItemStore struct {
	client *goredis.Client
	key    string
}

// NewClient parses a redis:// URL and verifies the server is reachable.
func NewClient(ctx context.Context, url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := goredis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// NewItemStore creates a new ItemStore. An empty key selects DefaultKey.
func NewItemStore(client *goredis.Client, key string) *ItemStore {
	if key == "" {
		key = DefaultKey
	}
	return &ItemStore{client: client, key: key}
}

// Compile-time interface check.
var _ storage.ItemStore = (*ItemStore)(nil)

// UpsertBulk replaces items by id inside one transaction.
func (s *ItemStore) UpsertBulk(ctx context.Context, items []*domain.Item) (err error) {
	if len(items) == 0 {
		return nil
	}

	start := time.Now()
	defer func() { observe("upsert_bulk", start, err) }()

	values := make([]any, 0, len(items)*2)
	for _, item := range items {
		if item == nil {
			return storage.ErrInvalidInput
		}
		data, err := json.Marshal(item)
		if err != nil {
			return fmt.Errorf("marshal item %d: %w", item.ID, err)
		}
		values = append(values, strconv.FormatInt(item.ID, 10), data)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.HSet(ctx, s.key, values...)
		return nil
	})
	if err != nil {
		return fmt.Errorf("upsert items: %w", err)
	}
	return nil
}

// GetByID retrieves an item by id.
func (s *ItemStore) GetByID(ctx context.Context, id int64) (*domain.Item, error) {
	start := time.Now()

	data, err := s.client.HGet(ctx, s.key, strconv.FormatInt(id, 10)).Bytes()
	if errors.Is(err, goredis.Nil) {
		observe("get_by_id", start, nil)
		return nil, storage.ErrNotFound
	}
	observe("get_by_id", start, err)
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}

	var item domain.Item
	if err := json.Unmarshal(data, &item); err != nil {
		return nil, fmt.Errorf("decode item %d: %w", id, err)
	}
	return &item, nil
}

// GetAll retrieves all items, ordered by id ASC.
func (s *ItemStore) GetAll(ctx context.Context) ([]*domain.Item, error) {
	start := time.Now()

	fields, err := s.client.HGetAll(ctx, s.key).Result()
	observe("get_all", start, err)
	if err != nil {
		return nil, fmt.Errorf("get all items: %w", err)
	}

	items := make([]*domain.Item, 0, len(fields))
	for field, data := range fields {
		var item domain.Item
		if err := json.Unmarshal([]byte(data), &item); err != nil {
			return nil, fmt.Errorf("decode item %s: %w", field, err)
		}
		items = append(items, &item)
	}

	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, nil
}

func observe(operation string, start time.Time, err error) {
	observability.RecordDBQuery("redis_items", operation, time.Since(start).Seconds(), err)
}
