package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// FriendshipRepository reads the friend graph. Friendships are managed elsewhere.
type FriendshipRepository interface {
	FriendIDs(ctx context.Context, ownerID string) ([]string, error)
	FollowerIDs(ctx context.Context, friendID string) ([]string, error)
}

type friendshipRepository struct {
	db *sqlx.DB
}

func NewFriendshipRepository(db *sqlx.DB) FriendshipRepository {
	return &friendshipRepository{db: db}
}

func (r *friendshipRepository) FriendIDs(ctx context.Context, ownerID string) ([]string, error) {
	ids := []string{}
	query := `SELECT friend_id FROM friendships WHERE owner_id = $1 ORDER BY friend_id ASC`

	err := r.db.SelectContext(ctx, &ids, query, ownerID)
	if err != nil {
		return nil, err
	}

	return ids, nil
}

// FollowerIDs returns the owners whose friends feed includes friendID's goals.
func (r *friendshipRepository) FollowerIDs(ctx context.Context, friendID string) ([]string, error) {
	ids := []string{}
	query := `SELECT owner_id FROM friendships WHERE friend_id = $1 ORDER BY owner_id ASC`

	err := r.db.SelectContext(ctx, &ids, query, friendID)
	if err != nil {
		return nil, err
	}

	return ids, nil
}
