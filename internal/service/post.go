package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/msomdec/murmur/internal/domain"
	"github.com/msomdec/murmur/internal/events"
)

const maxContentLen = 2200

// PostService creates and edits posts.
type PostService struct {
	posts  domain.PostRepository
	events events.Publisher
}

// NewPostService creates a new PostService. A nil publisher disables events.
func NewPostService(posts domain.PostRepository, publisher events.Publisher) *PostService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &PostService{posts: posts, events: publisher}
}

type PostInput struct {
	Content   string
	MediaURL  string
	Latitude  float64
	Longitude float64
	Hidden    bool
}

// PostUpdate lists the fields to change. Nil fields are left as they are.
type PostUpdate struct {
	Content   *string
	MediaURL  *string
	Latitude  *float64
	Longitude *float64
	Hidden    *bool
}

func (s *PostService) Create(ctx context.Context, userID string, in PostInput) (*domain.Post, error) {
	content := strings.TrimSpace(in.Content)
	if err := validateContent(content); err != nil {
		return nil, err
	}
	if err := validateLocation(in.Latitude, in.Longitude); err != nil {
		return nil, err
	}

	post := &domain.Post{
		UserID:    userID,
		Content:   content,
		MediaURL:  strings.TrimSpace(in.MediaURL),
		Latitude:  in.Latitude,
		Longitude: in.Longitude,
		Hidden:    in.Hidden,
	}
	if err := s.posts.Create(ctx, post); err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}

	s.events.Publish(ctx, events.PostCreated, userID, map[string]string{"postId": post.ID})
	return post, nil
}

// Edit updates a post owned by userID.
func (s *PostService) Edit(ctx context.Context, userID, postID string, in PostUpdate) (*domain.Post, error) {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("get post: %w", err)
	}
	if post.UserID != userID {
		return nil, domain.ErrForbidden
	}

	if in.Content != nil {
		content := strings.TrimSpace(*in.Content)
		if err := validateContent(content); err != nil {
			return nil, err
		}
		post.Content = content
	}
	if in.MediaURL != nil {
		post.MediaURL = strings.TrimSpace(*in.MediaURL)
	}
	if in.Latitude != nil {
		post.Latitude = *in.Latitude
	}
	if in.Longitude != nil {
		post.Longitude = *in.Longitude
	}
	if err := validateLocation(post.Latitude, post.Longitude); err != nil {
		return nil, err
	}
	if in.Hidden != nil {
		post.Hidden = *in.Hidden
	}

	if err := s.posts.Update(ctx, post); err != nil {
		return nil, fmt.Errorf("update post: %w", err)
	}

	s.events.Publish(ctx, events.PostUpdated, userID, map[string]string{"postId": post.ID})
	return post, nil
}

func validateContent(content string) error {
	if content == "" {
		return fmt.Errorf("%w: content is required", domain.ErrInvalidInput)
	}
	if utf8.RuneCountInString(content) > maxContentLen {
		return fmt.Errorf("%w: content must be at most %d characters", domain.ErrInvalidInput, maxContentLen)
	}
	return nil
}

func validateLocation(lat, lng float64) error {
	if lat < -90 || lat > 90 {
		return fmt.Errorf("%w: latitude must be between -90 and 90", domain.ErrInvalidInput)
	}
	if lng < -180 || lng > 180 {
		return fmt.Errorf("%w: longitude must be between -180 and 180", domain.ErrInvalidInput)
	}
	return nil
}
