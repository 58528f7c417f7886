package handler

import (
	"net/http"

	"github.com/msomdec/murmur/internal/service"
)

// PostHandler serves post creation, editing and the feed.
type PostHandler struct {
	posts *service.PostService
	feed  *service.FeedService
}

func NewPostHandler(posts *service.PostService, feed *service.FeedService) *PostHandler {
	return &PostHandler{posts: posts, feed: feed}
}

// HandleCreate creates a post for the caller.
// POST /api/posts/upload
// Request:  {"content":"...","mediaUrl":"...","latitude":0,"longitude":0,"hidden":false}
// Response: {"message":"...","postId":"..."}
func (h *PostHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Content   string  `json:"content"`
		MediaURL  string  `json:"mediaUrl"`
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
		Hidden    bool    `json:"hidden"`
	}
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	identity := IdentityFromContext(r.Context())
	post, err := h.posts.Create(r.Context(), identity.UserID, service.PostInput{
		Content:   req.Content,
		MediaURL:  req.MediaURL,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		Hidden:    req.Hidden,
	})
	if err != nil {
		writeServiceError(w, "create post", err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"message": "Post created successfully.",
		"postId":  post.ID,
	})
}

// HandleEdit updates one of the caller's posts.
// PUT /api/posts/edit
func (h *PostHandler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PostID    string   `json:"postId"`
		Content   *string  `json:"content"`
		MediaURL  *string  `json:"mediaUrl"`
		Latitude  *float64 `json:"latitude"`
		Longitude *float64 `json:"longitude"`
		Hidden    *bool    `json:"hidden"`
	}
	if err := readJSON(w, r, &req); err != nil || req.PostID == "" {
		writeError(w, http.StatusBadRequest, "postId is required.")
		return
	}

	identity := IdentityFromContext(r.Context())
	post, err := h.posts.Edit(r.Context(), identity.UserID, req.PostID, service.PostUpdate{
		Content:   req.Content,
		MediaURL:  req.MediaURL,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		Hidden:    req.Hidden,
	})
	if err != nil {
		writeServiceError(w, "edit post", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Post updated successfully.",
		"post":    toPostDTO(post),
	})
}

// HandleFeed returns the posts visible to the caller.
// GET /api/posts/get?date=YYYY-MM-DD
func (h *PostHandler) HandleFeed(w http.ResponseWriter, r *http.Request) {
	identity := IdentityFromContext(r.Context())
	posts, err := h.feed.Feed(r.Context(), identity.UserID, r.URL.Query().Get("date"))
	if err != nil {
		writeServiceError(w, "get feed", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"posts": toPostDTOs(posts)})
}
