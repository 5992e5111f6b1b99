package postgres

import (
	"context"

	"github.com/chrisdamba/dealradar/internal/models"
	"github.com/jackc/pgx/v5/pgxpool"
)

const insertStore = `
    INSERT INTO stores (id, name, chain, location, address, contact, card_ids)
    VALUES ($1, $2, $3, ST_SetSRID(ST_MakePoint($4, $5), 4326)::geography, $6, $7, $8)
`

const selectStores = `
    SELECT id, name, chain,
           ST_AsText(location::geometry) AS location,
           address, contact, card_ids
    FROM stores
`

type StoreRepository struct {
	pool *pgxpool.Pool
}

func NewStoreRepository(pool *pgxpool.Pool) *StoreRepository {
	return &StoreRepository{pool: pool}
}

func (r *StoreRepository) BulkCreate(ctx context.Context, stores []*models.Store) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, store := range stores {
		_, err = tx.Exec(ctx, insertStore,
			store.ID,
			store.Name,
			store.Chain,
			store.Location.Lon,
			store.Location.Lat,
			store.Address,
			store.Contact,
			store.CardIDs,
		)
		if err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (r *StoreRepository) GetAll(ctx context.Context) ([]*models.Store, error) {
	return r.query(ctx, selectStores+" ORDER BY id")
}

func (r *StoreRepository) query(ctx context.Context, query string, args ...any) ([]*models.Store, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stores []*models.Store
	for rows.Next() {
		store := &models.Store{}
		err := rows.Scan(
			&store.ID,
			&store.Name,
			&store.Chain,
			&store.Location,
			&store.Address,
			&store.Contact,
			&store.CardIDs,
		)
		if err != nil {
			return nil, err
		}
		stores = append(stores, store)
	}
	return stores, rows.Err()
}

func (r *StoreRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM stores").Scan(&count)
	return count, err
}

func (r *StoreRepository) DeleteAll(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, "TRUNCATE TABLE stores CASCADE")
	return err
}
