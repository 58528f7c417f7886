package handler

import (
	"net/http"

	"github.com/msomdec/murmur/internal/service"
)

// UserHandler serves profile and follow-graph endpoints.
type UserHandler struct {
	users *service.UserService
}

func NewUserHandler(users *service.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// HandleEdit applies a partial profile update.
// PUT /api/users/edit
func (h *UserHandler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username          *string `json:"username"`
		Email             *string `json:"email"`
		Password          *string `json:"password"`
		FullName          *string `json:"fullName"`
		Bio               *string `json:"bio"`
		ProfilePictureURL *string `json:"profilePictureUrl"`
		IsPrivate         *bool   `json:"isPrivate"`
	}
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	identity := IdentityFromContext(r.Context())
	user, err := h.users.UpdateProfile(r.Context(), identity.UserID, service.ProfileUpdate{
		Username:          req.Username,
		Email:             req.Email,
		Password:          req.Password,
		FullName:          req.FullName,
		Bio:               req.Bio,
		ProfilePictureURL: req.ProfilePictureURL,
		IsPrivate:         req.IsPrivate,
	})
	if err != nil {
		writeServiceError(w, "update profile", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Profile updated successfully.",
		"user":    toUserDTO(user),
	})
}

type followRequest struct {
	FollowedID string `json:"followedId"`
}

// HandleFollow makes the caller follow another user.
// POST /api/users/follow
func (h *UserHandler) HandleFollow(w http.ResponseWriter, r *http.Request) {
	var req followRequest
	if err := readJSON(w, r, &req); err != nil || req.FollowedID == "" {
		writeError(w, http.StatusBadRequest, "followedId is required.")
		return
	}

	identity := IdentityFromContext(r.Context())
	if err := h.users.Follow(r.Context(), identity.UserID, req.FollowedID); err != nil {
		writeServiceError(w, "follow user", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "User followed successfully."})
}

// HandleUnfollow removes a follow edge.
// POST /api/users/unfollow
func (h *UserHandler) HandleUnfollow(w http.ResponseWriter, r *http.Request) {
	var req followRequest
	if err := readJSON(w, r, &req); err != nil || req.FollowedID == "" {
		writeError(w, http.StatusBadRequest, "followedId is required.")
		return
	}

	identity := IdentityFromContext(r.Context())
	if err := h.users.Unfollow(r.Context(), identity.UserID, req.FollowedID); err != nil {
		writeServiceError(w, "unfollow user", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "User unfollowed successfully."})
}

// HandleFollowers lists the ids following the caller.
// GET /api/users/followers
func (h *UserHandler) HandleFollowers(w http.ResponseWriter, r *http.Request) {
	ids, err := h.users.Followers(r.Context(), IdentityFromContext(r.Context()).UserID)
	if err != nil {
		writeServiceError(w, "list followers", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"followers": nonNil(ids)})
}

// HandleFollowings lists the ids the caller follows.
// GET /api/users/followings
func (h *UserHandler) HandleFollowings(w http.ResponseWriter, r *http.Request) {
	ids, err := h.users.Followings(r.Context(), IdentityFromContext(r.Context()).UserID)
	if err != nil {
		writeServiceError(w, "list followings", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"followings": nonNil(ids)})
}

// HandleGetProfile returns a user's profile if the caller may see it.
// GET /api/users/{id}
func (h *UserHandler) HandleGetProfile(w http.ResponseWriter, r *http.Request) {
	identity := IdentityFromContext(r.Context())
	user, err := h.users.GetProfile(r.Context(), identity.UserID, r.PathValue("id"))
	if err != nil {
		writeServiceError(w, "get profile", err)
		return
	}
	writeJSON(w, http.StatusOK, toUserDTO(user))
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
