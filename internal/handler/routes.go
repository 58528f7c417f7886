package handler

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/msomdec/murmur/internal/service"
	"github.com/msomdec/murmur/internal/telemetry"
)

// Services bundles what the routes depend on.
type Services struct {
	Auth  *service.AuthService
	Users *service.UserService
	Posts *service.PostService
	Feed  *service.FeedService
	Media *service.MediaService
	// LoginLimiter guards POST /api/auth/login. Nil disables limiting.
	LoginLimiter service.Limiter
	DB           Pinger
	// Registry backs /metrics. Nil leaves the endpoint unregistered.
	Registry *prometheus.Registry
}

// RegisterRoutes sets up all HTTP routes on the given mux.
func RegisterRoutes(mux *http.ServeMux, s Services) {
	authH := NewAuthHandler(s.Auth)
	userH := NewUserHandler(s.Users)
	postH := NewPostHandler(s.Posts, s.Feed)
	mediaH := NewMediaHandler(s.Media)

	protected := func(h http.HandlerFunc) http.Handler {
		return RequireAuth(s.Auth, h)
	}

	mux.HandleFunc("GET /healthz", HandleHealthz)
	mux.HandleFunc("GET /readyz", HandleReadyz(s.DB))
	if s.Registry != nil {
		mux.Handle("GET /metrics", telemetry.Handler(s.Registry))
	}

	// Auth.
	var login http.Handler = http.HandlerFunc(authH.HandleLogin)
	if s.LoginLimiter != nil {
		login = RateLimit(s.LoginLimiter, login)
	}
	mux.HandleFunc("POST /api/auth/register", authH.HandleRegister)
	mux.Handle("POST /api/auth/login", login)
	mux.HandleFunc("POST /api/auth/refresh-token", authH.HandleRefresh)
	mux.HandleFunc("POST /api/auth/logout", authH.HandleLogout)
	mux.Handle("POST /api/auth/logout-all", protected(authH.HandleLogoutAll))
	mux.Handle("GET /api/auth/me", protected(authH.HandleMe))

	// Users.
	mux.Handle("PUT /api/users/edit", protected(userH.HandleEdit))
	mux.Handle("POST /api/users/follow", protected(userH.HandleFollow))
	mux.Handle("POST /api/users/unfollow", protected(userH.HandleUnfollow))
	mux.Handle("GET /api/users/followers", protected(userH.HandleFollowers))
	mux.Handle("GET /api/users/followings", protected(userH.HandleFollowings))
	mux.Handle("GET /api/users/{id}", protected(userH.HandleGetProfile))

	// Posts and media.
	mux.Handle("POST /api/posts/upload", protected(postH.HandleCreate))
	mux.Handle("PUT /api/posts/edit", protected(postH.HandleEdit))
	mux.Handle("GET /api/posts/get", protected(postH.HandleFeed))
	mux.Handle("POST /api/posts/upload-media", protected(mediaH.HandleUpload))
	mux.HandleFunc("GET "+service.MediaPathPrefix+"{key...}", mediaH.HandleServe)
}
