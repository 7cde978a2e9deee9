package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"ge-price-lab/internal/domain"
	"ge-price-lab/internal/storage"
)

// ItemStore implements storage.ItemStore using PostgreSQL.
type ItemStore struct {
	pool *Pool
}

// NewItemStore creates a new ItemStore.
func NewItemStore(pool *Pool) *ItemStore {
	return &ItemStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ItemStore = (*ItemStore)(nil)

const upsertItemQuery = `
	INSERT INTO items (
		id, name, examine, members, icon, lowalch, highalch, item_limit, value,
		high, high_time, low, low_time, volume,
		avg_high_price, avg_low_price, high_price_volume, low_price_volume, updated_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
	ON CONFLICT (id) DO UPDATE SET
		name = EXCLUDED.name,
		examine = EXCLUDED.examine,
		members = EXCLUDED.members,
		icon = EXCLUDED.icon,
		lowalch = EXCLUDED.lowalch,
		highalch = EXCLUDED.highalch,
		item_limit = EXCLUDED.item_limit,
		value = EXCLUDED.value,
		high = EXCLUDED.high,
		high_time = EXCLUDED.high_time,
		low = EXCLUDED.low,
		low_time = EXCLUDED.low_time,
		volume = EXCLUDED.volume,
		avg_high_price = EXCLUDED.avg_high_price,
		avg_low_price = EXCLUDED.avg_low_price,
		high_price_volume = EXCLUDED.high_price_volume,
		low_price_volume = EXCLUDED.low_price_volume,
		updated_at = EXCLUDED.updated_at
`

const selectItemColumns = `
	SELECT id, name, examine, members, icon, lowalch, highalch, item_limit, value,
		high, high_time, low, low_time, volume,
		avg_high_price, avg_low_price, high_price_volume, low_price_volume, updated_at
	FROM items
`

// UpsertBulk inserts or replaces items in a single transaction.
// The transaction is rolled back on every error path.
func (s *ItemStore) UpsertBulk(ctx context.Context, items []*domain.Item) (err error) {
	if len(items) == 0 {
		return nil
	}
	for _, it := range items {
		if it == nil {
			return storage.ErrInvalidInput
		}
	}

	start := time.Now()
	defer func() { observe("items", "upsert_bulk", start, err) }()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, it := range items {
		batch.Queue(upsertItemQuery,
			it.ID, it.Name, it.Examine, it.Members, it.Icon,
			it.LowAlch, it.HighAlch, it.Limit, it.Value,
			it.High, it.HighTime, it.Low, it.LowTime, it.Volume,
			it.AvgHighPrice, it.AvgLowPrice, it.HighPriceVolume, it.LowPriceVolume,
			it.UpdatedAt,
		)
	}

	br := tx.SendBatch(ctx, batch)
	for range items {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return fmt.Errorf("upsert item: %w", err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("close batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetByID retrieves an item by id. Returns ErrNotFound if not exists.
func (s *ItemStore) GetByID(ctx context.Context, id int64) (*domain.Item, error) {
	row := s.pool.QueryRow(ctx, selectItemColumns+` WHERE id = $1`, id)
	it, err := scanItem(row)
	if err != nil {
		return nil, mapError("get item by id", err)
	}
	return it, nil
}

// GetAll retrieves all items, ordered by id ASC.
func (s *ItemStore) GetAll(ctx context.Context) ([]*domain.Item, error) {
	rows, err := s.pool.Query(ctx, selectItemColumns+` ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("get all items: %w", err)
	}
	defer rows.Close()

	var items []*domain.Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate items: %w", err)
	}
	return items, nil
}

// scanItem scans a single row into Item.
func scanItem(row pgx.Row) (*domain.Item, error) {
	var it domain.Item

	err := row.Scan(
		&it.ID, &it.Name, &it.Examine, &it.Members, &it.Icon,
		&it.LowAlch, &it.HighAlch, &it.Limit, &it.Value,
		&it.High, &it.HighTime, &it.Low, &it.LowTime, &it.Volume,
		&it.AvgHighPrice, &it.AvgLowPrice, &it.HighPriceVolume, &it.LowPriceVolume,
		&it.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &it, nil
}
