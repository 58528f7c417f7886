package handler

import (
	"time"

	"github.com/msomdec/murmur/internal/domain"
	"github.com/msomdec/murmur/internal/service"
)

// UserDTO is the JSON representation of a user. It never carries the password hash.
type UserDTO struct {
	ID                string `json:"id"`
	Username          string `json:"username"`
	Email             string `json:"email"`
	FullName          string `json:"fullName"`
	Bio               string `json:"bio"`
	ProfilePictureURL string `json:"profilePictureUrl"`
	IsPrivate         bool   `json:"isPrivate"`
	CreatedAt         string `json:"createdAt"`
	UpdatedAt         string `json:"updatedAt"`
}

func toUserDTO(u *domain.User) UserDTO {
	return UserDTO{
		ID:                u.ID,
		Username:          u.Username,
		Email:             u.Email,
		FullName:          u.FullName,
		Bio:               u.Bio,
		ProfilePictureURL: u.ProfilePictureURL,
		IsPrivate:         u.IsPrivate,
		CreatedAt:         u.CreatedAt.Format(time.RFC3339),
		UpdatedAt:         u.UpdatedAt.Format(time.RFC3339),
	}
}

type IdentityDTO struct {
	UserID            string `json:"userId"`
	Username          string `json:"username"`
	Email             string `json:"email"`
	FullName          string `json:"fullName,omitempty"`
	ProfilePictureURL string `json:"profilePictureUrl,omitempty"`
}

func toIdentityDTO(id *domain.Identity) IdentityDTO {
	return IdentityDTO{
		UserID:            id.UserID,
		Username:          id.Username,
		Email:             id.Email,
		FullName:          id.FullName,
		ProfilePictureURL: id.ProfilePictureURL,
	}
}

type TokenPairDTO struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int64  `json:"expiresIn"`
}

func toTokenPairDTO(p *service.TokenPair) TokenPairDTO {
	return TokenPairDTO{
		AccessToken:  p.AccessToken,
		RefreshToken: p.RefreshToken,
		ExpiresIn:    p.ExpiresIn,
	}
}

type PostDTO struct {
	ID        string  `json:"id"`
	UserID    string  `json:"userId"`
	Content   string  `json:"content"`
	MediaURL  string  `json:"mediaUrl"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Hidden    bool    `json:"hidden"`
	CreatedAt string  `json:"createdAt"`
	UpdatedAt string  `json:"updatedAt"`
}

func toPostDTO(p *domain.Post) PostDTO {
	return PostDTO{
		ID:        p.ID,
		UserID:    p.UserID,
		Content:   p.Content,
		MediaURL:  p.MediaURL,
		Latitude:  p.Latitude,
		Longitude: p.Longitude,
		Hidden:    p.Hidden,
		CreatedAt: p.CreatedAt.Format(time.RFC3339),
		UpdatedAt: p.UpdatedAt.Format(time.RFC3339),
	}
}

func toPostDTOs(posts []domain.Post) []PostDTO {
	dtos := make([]PostDTO, len(posts))
	for i := range posts {
		dtos[i] = toPostDTO(&posts[i])
	}
	return dtos
}
