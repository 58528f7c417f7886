package service

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/msomdec/murmur/internal/domain"
	"github.com/msomdec/murmur/internal/events"
)

const (
	maxFullNameLen = 100
	maxBioLen      = 500
)

// UserService manages profiles and the follow graph.
type UserService struct {
	users      domain.UserRepository
	follows    domain.FollowRepository
	tokens     domain.RefreshTokenRepository
	bcryptCost int
	events     events.Publisher
}

// NewUserService creates a new UserService. A nil publisher disables events.
func NewUserService(users domain.UserRepository, follows domain.FollowRepository, tokens domain.RefreshTokenRepository, bcryptCost int, publisher events.Publisher) *UserService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &UserService{users: users, follows: follows, tokens: tokens, bcryptCost: bcryptCost, events: publisher}
}

// ProfileUpdate lists the fields to change. Nil fields are left as they are.
type ProfileUpdate struct {
	Username          *string
	Email             *string
	Password          *string
	FullName          *string
	Bio               *string
	ProfilePictureURL *string
	IsPrivate         *bool
}

// UpdateProfile applies a partial update to the user's own profile.
// Changing the password revokes every refresh token of the user; access
// tokens already issued stay valid until they expire.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, in ProfileUpdate) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	if in.Username != nil {
		username := strings.TrimSpace(*in.Username)
		if err := validateUsername(username); err != nil {
			return nil, err
		}
		user.Username = username
	}
	if in.Email != nil {
		email, err := normalizeEmail(*in.Email)
		if err != nil {
			return nil, err
		}
		user.Email = email
	}
	if in.Password != nil {
		if err := validatePassword(*in.Password); err != nil {
			return nil, err
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*in.Password), s.bcryptCost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		user.PasswordHash = string(hash)
	}
	if in.FullName != nil {
		name := strings.TrimSpace(*in.FullName)
		if len(name) > maxFullNameLen {
			return nil, fmt.Errorf("%w: full name must be at most %d characters", domain.ErrInvalidInput, maxFullNameLen)
		}
		user.FullName = name
	}
	if in.Bio != nil {
		if len(*in.Bio) > maxBioLen {
			return nil, fmt.Errorf("%w: bio must be at most %d characters", domain.ErrInvalidInput, maxBioLen)
		}
		user.Bio = *in.Bio
	}
	if in.ProfilePictureURL != nil {
		user.ProfilePictureURL = strings.TrimSpace(*in.ProfilePictureURL)
	}
	if in.IsPrivate != nil {
		user.IsPrivate = *in.IsPrivate
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	if in.Password != nil {
		if err := s.tokens.DeleteAllForUser(ctx, user.ID); err != nil {
			return nil, fmt.Errorf("revoke sessions: %w", err)
		}
	}

	s.events.Publish(ctx, events.UserUpdated, user.ID, nil)
	return user, nil
}

// Follow makes followerID follow followedID. Following someone twice is not an error.
func (s *UserService) Follow(ctx context.Context, followerID, followedID string) error {
	if followerID == followedID {
		return fmt.Errorf("%w: cannot follow yourself", domain.ErrInvalidInput)
	}
	if _, err := s.users.GetByID(ctx, followedID); err != nil {
		return fmt.Errorf("get followed user: %w", err)
	}
	if err := s.follows.Create(ctx, followerID, followedID); err != nil {
		return fmt.Errorf("create follow: %w", err)
	}
	s.events.Publish(ctx, events.FollowCreated, followerID, map[string]string{"followedId": followedID})
	return nil
}

// Unfollow removes the edge if present.
func (s *UserService) Unfollow(ctx context.Context, followerID, followedID string) error {
	if err := s.follows.Delete(ctx, followerID, followedID); err != nil {
		return fmt.Errorf("delete follow: %w", err)
	}
	s.events.Publish(ctx, events.FollowDeleted, followerID, map[string]string{"followedId": followedID})
	return nil
}

func (s *UserService) Followers(ctx context.Context, userID string) ([]string, error) {
	ids, err := s.follows.ListFollowers(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list followers: %w", err)
	}
	return ids, nil
}

func (s *UserService) Followings(ctx context.Context, userID string) ([]string, error) {
	ids, err := s.follows.ListFollowings(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list followings: %w", err)
	}
	return ids, nil
}

// GetProfile returns targetID's profile as seen by requesterID. A private
// profile is only visible to its owner and to users it mutually follows.
func (s *UserService) GetProfile(ctx context.Context, requesterID, targetID string) (*domain.User, error) {
	target, err := s.users.GetByID(ctx, targetID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if !target.IsPrivate || target.ID == requesterID {
		return target, nil
	}

	mutual, err := s.mutual(ctx, requesterID, target.ID)
	if err != nil {
		return nil, err
	}
	if !mutual {
		return nil, domain.ErrPrivateAccount
	}
	return target, nil
}

func (s *UserService) mutual(ctx context.Context, a, b string) (bool, error) {
	forward, err := s.follows.Exists(ctx, a, b)
	if err != nil {
		return false, fmt.Errorf("check follow: %w", err)
	}
	if !forward {
		return false, nil
	}
	back, err := s.follows.Exists(ctx, b, a)
	if err != nil {
		return false, fmt.Errorf("check follow back: %w", err)
	}
	return back, nil
}
