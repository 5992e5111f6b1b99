package postgres

import (
	"context"
	"time"

	"github.com/chrisdamba/dealradar/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var dealColumns = []string{
	"id", "title", "description", "store_chain", "valid_from", "valid_to",
	"discount_percentage", "categories",
}

type DealRepository struct {
	pool *pgxpool.Pool
}

func NewDealRepository(pool *pgxpool.Pool) *DealRepository {
	return &DealRepository{pool: pool}
}

func (r *DealRepository) BulkCreate(ctx context.Context, deals []*models.Deal) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.CopyFrom(ctx, pgx.Identifier{"deals"}, dealColumns,
		pgx.CopyFromSlice(len(deals), func(i int) ([]any, error) {
			d := deals[i]
			return []any{
				d.ID, d.Title, d.Description, d.StoreChain, d.ValidFrom, d.ValidTo,
				d.DiscountPercentage, d.Categories,
			}, nil
		}),
	)
	if err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *DealRepository) GetAll(ctx context.Context) ([]*models.Deal, error) {
	return r.query(ctx, `
        SELECT id, title, description, store_chain, valid_from, valid_to,
               discount_percentage, categories
        FROM deals
        ORDER BY id
    `)
}

func (r *DealRepository) GetActive(ctx context.Context, at time.Time) ([]*models.Deal, error) {
	return r.query(ctx, `
        SELECT id, title, description, store_chain, valid_from, valid_to,
               discount_percentage, categories
        FROM deals
        WHERE valid_from <= $1 AND valid_to > $1
        ORDER BY id
    `, at)
}

func (r *DealRepository) query(ctx context.Context, query string, args ...any) ([]*models.Deal, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var deals []*models.Deal
	for rows.Next() {
		deal := &models.Deal{}
		err := rows.Scan(
			&deal.ID,
			&deal.Title,
			&deal.Description,
			&deal.StoreChain,
			&deal.ValidFrom,
			&deal.ValidTo,
			&deal.DiscountPercentage,
			&deal.Categories,
		)
		if err != nil {
			return nil, err
		}
		deals = append(deals, deal)
	}
	return deals, rows.Err()
}

func (r *DealRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM deals").Scan(&count)
	return count, err
}

func (r *DealRepository) DeleteAll(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, "TRUNCATE TABLE deals CASCADE")
	return err
}
