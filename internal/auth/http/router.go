package http

import (
	"net/http"
	"time"

	"github.com/quickchat/server/internal/auth/service"
	commonhttp "github.com/quickchat/server/internal/common/http"
	"github.com/quickchat/server/internal/common/jwtverify"
	"github.com/quickchat/server/internal/common/logger"
	userdomain "github.com/quickchat/server/internal/user/domain"
)

type signupRequest struct {
	Email    string `json:"email"`
	FullName string `json:"fullName"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type updateProfileRequest struct {
	FullName   string `json:"fullName"`
	Bio        string `json:"bio"`
	ProfilePic string `json:"profilePic"`
}

type userResponse struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	FullName      string    `json:"fullName"`
	Bio           string    `json:"bio,omitempty"`
	ProfilePicURL string    `json:"profilePic,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

type authResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

func toUserResponse(u userdomain.User) userResponse {
	return userResponse{
		ID:            string(u.ID),
		Email:         u.Email,
		FullName:      u.FullName,
		Bio:           u.Bio,
		ProfilePicURL: u.ProfilePicURL,
		CreatedAt:     u.CreatedAt,
	}
}

type Handler struct {
	auth    *service.AuthService
	timeout time.Duration
	log     *logger.Logger
}

func NewHandler(auth *service.AuthService, timeout time.Duration, log *logger.Logger) *Handler {
	return &Handler{auth: auth, timeout: timeout, log: log}
}

// Register mounts the auth routes. signup/login/logout are public; check and
// update-profile require the authed middleware.
func (h *Handler) Register(mux *http.ServeMux, authed func(http.Handler) http.Handler) {
	public := func(method string, fn http.HandlerFunc) http.HandlerFunc {
		return commonhttp.RequireMethod(method)(commonhttp.WithTimeout(h.timeout)(fn))
	}

	mux.HandleFunc("/api/auth/signup", public(http.MethodPost, h.signup))
	mux.HandleFunc("/api/auth/login", public(http.MethodPost, h.login))
	mux.HandleFunc("/api/auth/logout", public(http.MethodPost, h.logout))
	mux.Handle("/api/auth/check", authed(public(http.MethodGet, h.check)))
	mux.Handle("/api/auth/update-profile", authed(public(http.MethodPut, h.updateProfile)))
}

func (h *Handler) signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := commonhttp.DecodeJSON(r, &req); err != nil {
		commonhttp.WriteErrorCode(w, http.StatusBadRequest, commonhttp.CodeInvalidJSON, "invalid request body")
		return
	}

	result, err := h.auth.Signup(r.Context(), service.SignupInput{
		Email:    req.Email,
		FullName: req.FullName,
		Password: req.Password,
	})
	if err != nil {
		commonhttp.HandleError(w, r, err, h.log)
		return
	}
	commonhttp.WriteJSON(w, http.StatusCreated, authResponse{
		Token: result.Token,
		User:  toUserResponse(result.User),
	})
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := commonhttp.DecodeJSON(r, &req); err != nil {
		commonhttp.WriteErrorCode(w, http.StatusBadRequest, commonhttp.CodeInvalidJSON, "invalid request body")
		return
	}

	result, err := h.auth.Login(r.Context(), service.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		commonhttp.HandleError(w, r, err, h.log)
		return
	}
	commonhttp.WriteJSON(w, http.StatusOK, authResponse{
		Token: result.Token,
		User:  toUserResponse(result.User),
	})
}

// logout exists for client symmetry. Access tokens are stateless, so there is
// nothing to revoke server-side; the client discards its copy.
func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	commonhttp.WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *Handler) check(w http.ResponseWriter, r *http.Request) {
	claims, ok := jwtverify.FromContext(r.Context())
	if !ok {
		commonhttp.WriteErrorCode(w, http.StatusUnauthorized, commonhttp.CodeInvalidToken, "authentication required")
		return
	}

	user, err := h.auth.CheckAuth(r.Context(), claims.UserID)
	if err != nil {
		commonhttp.HandleError(w, r, err, h.log)
		return
	}
	commonhttp.WriteJSON(w, http.StatusOK, toUserResponse(user))
}

func (h *Handler) updateProfile(w http.ResponseWriter, r *http.Request) {
	claims, ok := jwtverify.FromContext(r.Context())
	if !ok {
		commonhttp.WriteErrorCode(w, http.StatusUnauthorized, commonhttp.CodeInvalidToken, "authentication required")
		return
	}

	var req updateProfileRequest
	if err := commonhttp.DecodeJSON(r, &req); err != nil {
		commonhttp.WriteErrorCode(w, http.StatusBadRequest, commonhttp.CodeInvalidJSON, "invalid request body")
		return
	}

	user, err := h.auth.UpdateProfile(r.Context(), claims.UserID, service.UpdateProfileInput{
		FullName:   req.FullName,
		Bio:        req.Bio,
		ProfilePic: []byte(req.ProfilePic),
	})
	if err != nil {
		commonhttp.HandleError(w, r, err, h.log)
		return
	}
	commonhttp.WriteJSON(w, http.StatusOK, toUserResponse(user))
}
