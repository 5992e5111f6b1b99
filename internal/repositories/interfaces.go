package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/chrisdamba/dealradar/internal/models"
)

var ErrNotFound = errors.New("record not found")

type DealRepository interface {
	BulkCreate(ctx context.Context, deals []*models.Deal) error
	GetAll(ctx context.Context) ([]*models.Deal, error)
	// GetActive returns deals whose validity window contains at.
	GetActive(ctx context.Context, at time.Time) ([]*models.Deal, error)
	Count(ctx context.Context) (int, error)
	DeleteAll(ctx context.Context) error
}

type StoreRepository interface {
	BulkCreate(ctx context.Context, stores []*models.Store) error
	GetAll(ctx context.Context) ([]*models.Store, error)
	Count(ctx context.Context) (int, error)
	DeleteAll(ctx context.Context) error
}

type ProfileRepository interface {
	BulkCreate(ctx context.Context, profiles []*models.UserProfile) error
	GetAll(ctx context.Context) ([]*models.UserProfile, error)
	GetByUserID(ctx context.Context, userID string) (*models.UserProfile, error)
	Count(ctx context.Context) (int, error)
	DeleteAll(ctx context.Context) error
}
