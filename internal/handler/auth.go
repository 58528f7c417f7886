package handler

import (
	"net/http"

	"github.com/msomdec/murmur/internal/service"
)

// AuthHandler handles authentication-related HTTP requests.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(auth *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// HandleRegister processes a JSON registration request.
// POST /api/auth/register
// Request:  {"username":"...","email":"...","password":"...","fullName":"...","isPrivate":false}
// Response: {"message":"...","userId":"..."}
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username  string `json:"username"`
		Email     string `json:"email"`
		Password  string `json:"password"`
		FullName  string `json:"fullName"`
		IsPrivate bool   `json:"isPrivate"`
	}
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	user, err := h.auth.Register(r.Context(), service.RegisterInput{
		Username:  req.Username,
		Email:     req.Email,
		Password:  req.Password,
		FullName:  req.FullName,
		IsPrivate: req.IsPrivate,
	})
	if err != nil {
		writeServiceError(w, "register user", err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"message": "User registered successfully.",
		"userId":  user.ID,
	})
}

// HandleLogin exchanges credentials for a token pair.
// POST /api/auth/login
// Request:  {"username":"..."} or {"email":"..."} plus "password"
// Response: {"accessToken":"...","refreshToken":"...","expiresIn":900}
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	pair, err := h.auth.Login(r.Context(), service.LoginInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeServiceError(w, "login user", err)
		return
	}

	writeJSON(w, http.StatusOK, toTokenPairDTO(pair))
}

// HandleRefresh rotates a refresh token.
// POST /api/auth/refresh-token
// Request:  {"refreshToken":"..."}
func (h *AuthHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	if req.RefreshToken == "" {
		writeError(w, http.StatusUnauthorized, "Refresh token is required.")
		return
	}

	pair, err := h.auth.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		writeServiceError(w, "refresh token", err)
		return
	}

	writeJSON(w, http.StatusOK, toTokenPairDTO(pair))
}

// HandleLogout revokes the refresh token in the body.
// POST /api/auth/logout
// Response: 204 No Content
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := readJSON(w, r, &req); err != nil || req.RefreshToken == "" {
		writeError(w, http.StatusBadRequest, "Refresh token is required.")
		return
	}

	if err := h.auth.Logout(r.Context(), req.RefreshToken); err != nil {
		writeServiceError(w, "logout", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleLogoutAll revokes every session of the caller.
// POST /api/auth/logout-all
func (h *AuthHandler) HandleLogoutAll(w http.ResponseWriter, r *http.Request) {
	identity := IdentityFromContext(r.Context())
	if err := h.auth.LogoutAll(r.Context(), identity.UserID); err != nil {
		writeServiceError(w, "logout all", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleMe echoes the authenticated identity.
// GET /api/auth/me
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "You have access to this protected route.",
		"user":    toIdentityDTO(IdentityFromContext(r.Context())),
	})
}
