package domain

import "context"

// FollowRepository defines persistence operations for directed follow
// edges: followerID follows followedID.
type FollowRepository interface {
	// Create inserts the edge. Inserting an existing edge is a no-op.
	Create(ctx context.Context, followerID, followedID string) error
	Delete(ctx context.Context, followerID, followedID string) error
	Exists(ctx context.Context, followerID, followedID string) (bool, error)
	// ListFollowers returns the ids of users following userID.
	ListFollowers(ctx context.Context, userID string) ([]string, error)
	// ListFollowings returns the ids of users that userID follows.
	ListFollowings(ctx context.Context, userID string) ([]string, error)
}
