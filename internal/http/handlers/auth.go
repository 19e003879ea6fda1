package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/brokerapp/server/internal/auth"
	"github.com/brokerapp/server/internal/middleware"
	"github.com/brokerapp/server/internal/model"
)

const maxBodyBytes = 1 << 16

// AuthService is the facade the handlers call into.
type AuthService interface {
	RequestCode(ctx context.Context, email string) error
	VerifyCode(ctx context.Context, email, code string) (auth.VerifyResult, error)
	GetCurrentUser(ctx context.Context, token string) (model.UserView, error)
	Logout(ctx context.Context, token string) error
}

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	authService AuthService
	cookies     CookieConfig
	logger      *zap.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService AuthService, cookies CookieConfig, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{authService: authService, cookies: cookies, logger: logger}
}

// sendOTPRequest is the request body for POST /api/auth/send-otp
type sendOTPRequest struct {
	Email string `json:"email"`
}

// verifyOTPRequest is the request body for POST /api/auth/verify-otp
type verifyOTPRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

type successResponse struct {
	Success bool            `json:"success"`
	User    *model.UserView `json:"user,omitempty"`
}

type meResponse struct {
	User model.UserView `json:"user"`
}

// HandleSendOTP handles POST /api/auth/send-otp
func (h *AuthHandler) HandleSendOTP(w http.ResponseWriter, r *http.Request) {
	var req sendOTPRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, auth.MsgInvalidEmail)
		return
	}

	if err := h.authService.RequestCode(r.Context(), req.Email); err != nil {
		h.respondWithAuthError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, successResponse{Success: true})
}

// HandleVerifyOTP handles POST /api/auth/verify-otp. The token is delivered
// only as the session cookie.
func (h *AuthHandler) HandleVerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req verifyOTPRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, auth.MsgInvalidEmailOrCode)
		return
	}

	res, err := h.authService.VerifyCode(r.Context(), req.Email, req.Code)
	if err != nil {
		h.respondWithAuthError(w, err)
		return
	}

	h.cookies.Set(w, res.Token)
	respondJSON(w, http.StatusOK, successResponse{Success: true, User: &res.User})
}

// HandleMe handles GET /api/auth/me (behind RequireUser)
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, auth.MsgNotAuthenticated)
		return
	}
	respondJSON(w, http.StatusOK, meResponse{User: user})
}

// HandleLogout handles POST /api/auth/logout. It always succeeds.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	_ = h.authService.Logout(r.Context(), middleware.TokenFromRequest(r))
	h.cookies.Clear(w)
	respondJSON(w, http.StatusOK, successResponse{Success: true})
}

func (h *AuthHandler) respondWithAuthError(w http.ResponseWriter, err error) {
	var ae *auth.Error
	if !errors.As(err, &ae) {
		h.logger.Error("unclassified auth error", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, auth.MsgInternalServerError)
		return
	}
	respondWithError(w, ae.Kind().StatusCode(), ae.Msg())
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(v)
}

func respondJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(body)
}

// respondWithError sends a JSON error response
func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	respondJSON(w, statusCode, map[string]string{"error": message})
}
