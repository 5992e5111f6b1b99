package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/chrisdamba/dealradar/internal/models"
	"github.com/chrisdamba/dealradar/internal/repositories"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const insertProfile = `
    INSERT INTO user_profiles (user_id, preferred_categories, store_visit_history)
    VALUES ($1, $2, $3)
    ON CONFLICT (user_id) DO UPDATE
    SET preferred_categories = EXCLUDED.preferred_categories,
        store_visit_history = EXCLUDED.store_visit_history
`

type ProfileRepository struct {
	pool *pgxpool.Pool
}

func NewProfileRepository(pool *pgxpool.Pool) *ProfileRepository {
	return &ProfileRepository{pool: pool}
}

func (r *ProfileRepository) BulkCreate(ctx context.Context, profiles []*models.UserProfile) error {
	batch := &pgx.Batch{}
	for _, p := range profiles {
		batch.Queue(insertProfile, p.UserID, p.Categories(), visits(p))
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *ProfileRepository) GetAll(ctx context.Context) ([]*models.UserProfile, error) {
	rows, err := r.pool.Query(ctx, `
        SELECT user_id, preferred_categories, store_visit_history
        FROM user_profiles
        ORDER BY user_id
    `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var profiles []*models.UserProfile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

func (r *ProfileRepository) GetByUserID(ctx context.Context, userID string) (*models.UserProfile, error) {
	row := r.pool.QueryRow(ctx, `
        SELECT user_id, preferred_categories, store_visit_history
        FROM user_profiles
        WHERE user_id = $1
    `, userID)

	p, err := scanProfile(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("profile %s: %w", userID, repositories.ErrNotFound)
	}
	return p, err
}

func (r *ProfileRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM user_profiles").Scan(&count)
	return count, err
}

func (r *ProfileRepository) DeleteAll(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, "TRUNCATE TABLE user_profiles CASCADE")
	return err
}

func scanProfile(row pgx.Row) (*models.UserProfile, error) {
	var (
		userID     string
		categories []string
		history    map[string]float64
	)
	if err := row.Scan(&userID, &categories, &history); err != nil {
		return nil, err
	}
	return models.NewUserProfile(userID, categories, history), nil
}

func visits(p *models.UserProfile) map[string]float64 {
	if p.StoreVisitHistory == nil {
		return map[string]float64{}
	}
	return p.StoreVisitHistory
}
