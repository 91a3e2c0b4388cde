package repository

import (
	"context"

	"github.com/prperemyshlev/page-manager/internal/domain"
)

// UserRepository defines methods for user operations
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
}

// AccountRepository defines methods for connected Facebook account operations.
// Every lookup and mutation is scoped to the owning user.
type AccountRepository interface {
	ListByUser(ctx context.Context, userID string) ([]*domain.FacebookAccount, error)
	GetByID(ctx context.Context, id, userID string) (*domain.FacebookAccount, error)
	Create(ctx context.Context, account *domain.FacebookAccount) error
	Update(ctx context.Context, id, userID string, update domain.AccountUpdate) (*domain.FacebookAccount, error)
	Delete(ctx context.Context, id, userID string) error
}
