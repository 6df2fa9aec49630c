// Package storage contains a storage interface.
package storage

import (
	"context"
	"fmt"

	"github.com/cork-collective/corkd/internal/entities"
)

//go:generate mockgen -destination=./mock/storage.go -package=mock -source=storage.go

// ErrNotFound ...
var ErrNotFound = fmt.Errorf("not found")

// TransactionsListLimit caps ListTransactions results.
const TransactionsListLimit = 50

// Storage provides methods for interacting with database.
type Storage interface {
	InTx(ctx context.Context, f func(s Storage) error) error

	CreatePost(ctx context.Context, p *entities.Post) error
	GetPost(ctx context.Context, id string) (*entities.Post, error)
	ListPosts(ctx context.Context, p *ListPostsParams) ([]*entities.Post, error)
	LikePost(ctx context.Context, id string) error

	GetProfile(ctx context.Context, address string) (*entities.Profile, error)
	SetProfile(ctx context.Context, p *entities.Profile) error

	CreateTransaction(ctx context.Context, t *entities.Transaction) error
	ListTransactions(ctx context.Context, address string) ([]*entities.Transaction, error)

	ListVillages(ctx context.Context) ([]*entities.Village, error)
	GetVillage(ctx context.Context, id string) (*entities.Village, error)
}

// ListPostsParams ...
type ListPostsParams struct {
	Village *string
	Limit   uint16
	Offset  uint32
}
