package service

import (
	"context"
	"fmt"
	"time"

	"github.com/msomdec/murmur/internal/domain"
)

const (
	feedDateLayout = "2006-01-02"
	defaultFeedAge = 7 * 24 * time.Hour
)

// FeedService resolves which posts a requester may see.
type FeedService struct {
	users   domain.UserRepository
	follows domain.FollowRepository
	posts   domain.PostRepository
	clock   Clock
}

func NewFeedService(users domain.UserRepository, follows domain.FollowRepository, posts domain.PostRepository) *FeedService {
	return &FeedService{users: users, follows: follows, posts: posts, clock: systemClock{}}
}

// WithClock replaces the time source. Used by tests.
func (s *FeedService) WithClock(c Clock) *FeedService {
	s.clock = c
	return s
}

// FeedWindow converts an optional YYYY-MM-DD date into a creation-time
// window. A date selects that UTC calendar day; no date selects the last
// seven days up to and past now.
func FeedWindow(date string, now time.Time) (domain.Window, error) {
	if date == "" {
		return domain.Window{From: now.UTC().Add(-defaultFeedAge)}, nil
	}
	day, err := time.ParseInLocation(feedDateLayout, date, time.UTC)
	if err != nil {
		return domain.Window{}, fmt.Errorf("%w: date must be YYYY-MM-DD", domain.ErrInvalidInput)
	}
	return domain.Window{From: day, To: day.AddDate(0, 0, 1)}, nil
}

// Feed returns the visible posts of followed authors followed by the
// requester's own posts. Posts of a private author are only included
// when that author follows the requester back.
func (s *FeedService) Feed(ctx context.Context, requesterID, date string) ([]domain.Post, error) {
	window, err := FeedWindow(date, s.clock.Now())
	if err != nil {
		return nil, err
	}

	followed, err := s.posts.ListByFollowedAuthors(ctx, requesterID, window)
	if err != nil {
		return nil, fmt.Errorf("list followed posts: %w", err)
	}

	visible := make(map[string]bool)
	result := make([]domain.Post, 0, len(followed))
	for _, post := range followed {
		ok, seen := visible[post.UserID]
		if !seen {
			ok, err = s.authorVisible(ctx, requesterID, post.UserID)
			if err != nil {
				return nil, err
			}
			visible[post.UserID] = ok
		}
		if ok {
			result = append(result, post)
		}
	}

	own, err := s.posts.ListByOwner(ctx, requesterID, window)
	if err != nil {
		return nil, fmt.Errorf("list own posts: %w", err)
	}
	return append(result, own...), nil
}

// authorVisible assumes requesterID already follows authorID.
func (s *FeedService) authorVisible(ctx context.Context, requesterID, authorID string) (bool, error) {
	author, err := s.users.GetByID(ctx, authorID)
	if err != nil {
		return false, fmt.Errorf("get author: %w", err)
	}
	if !author.IsPrivate {
		return true, nil
	}
	back, err := s.follows.Exists(ctx, authorID, requesterID)
	if err != nil {
		return false, fmt.Errorf("check follow back: %w", err)
	}
	return back, nil
}
