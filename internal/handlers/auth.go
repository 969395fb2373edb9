package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/mkuznetsov/reconcilo/internal/handlers/render"
	"github.com/mkuznetsov/reconcilo/internal/handlers/userctx"
	"github.com/mkuznetsov/reconcilo/internal/models"
	"github.com/mkuznetsov/reconcilo/internal/service/auth"
)

type authService interface {
	// Signup registers a user
	// Has to return apperrors.ErrUserAlreadyExists if email is taken
	Signup(ctx context.Context, email string, password string, companyName string) (auth.AuthResult, error)

	// Login authenticates and rotates the token pair
	// Has to return apperrors.ErrInvalidCredentials on any credential failure
	Login(ctx context.Context, email string, password string) (auth.AuthResult, error)

	// RefreshPair exchanges a refresh token for a new rotated pair
	RefreshPair(ctx context.Context, refresh string) (auth.AuthResult, error)

	// Logout drops the stored refresh token
	Logout(ctx context.Context, userID uuid.UUID) error

	// Cookie delivery
	SetTokens(w http.ResponseWriter, pair models.TokenPair)
	ClearTokens(w http.ResponseWriter)
	ReadRefreshToken(r *http.Request) (string, error)
}

// Account shape returned by signup, signin and refresh
type accountResponse struct {
	ID          uuid.UUID `json:"id"`
	Email       string    `json:"email"`
	CompanyName string    `json:"company_name"`
	IsVerified  bool      `json:"is_verified"`
}

type successResponse struct {
	Success bool `json:"success"`
	Data    any  `json:"data,omitempty"`
}

type AuthHandler struct {
	auth authService
}

func NewAuth(auth authService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	type SignupRequest struct {
		Email       string `json:"email" validate:"required,email"`
		Password    string `json:"password" validate:"required,min=8"`
		CompanyName string `json:"companyName" validate:"required,max=100"`
	}

	data, err := render.BindAndValidate[SignupRequest](w, r)
	if err != nil {
		return
	}

	result, err := h.auth.Signup(r.Context(), data.Email, data.Password, data.CompanyName)
	if err != nil {
		appError(w, err)
		return
	}

	h.auth.SetTokens(w, result.Pair)
	render.JSONWithStatus(w, successResponse{Success: true, Data: toAccountResponse(result.User)}, http.StatusCreated)
}

func (h *AuthHandler) Signin(w http.ResponseWriter, r *http.Request) {
	type SigninRequest struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}

	data, err := render.BindAndValidate[SigninRequest](w, r)
	if err != nil {
		return
	}

	result, err := h.auth.Login(r.Context(), data.Email, data.Password)
	if err != nil {
		appError(w, err)
		return
	}

	h.auth.SetTokens(w, result.Pair)
	render.JSON(w, successResponse{Success: true, Data: toAccountResponse(result.User)})
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	refresh, err := h.auth.ReadRefreshToken(r)
	if err != nil {
		render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	result, err := h.auth.RefreshPair(r.Context(), refresh)
	if err != nil {
		appError(w, err)
		return
	}

	h.auth.SetTokens(w, result.Pair)
	render.JSON(w, successResponse{Success: true, Data: toAccountResponse(result.User)})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	type LogoutResponse struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}

	user, _ := userctx.FromContext(r.Context())

	if err := h.auth.Logout(r.Context(), user.ID); err != nil {
		appError(w, err)
		return
	}

	h.auth.ClearTokens(w)
	render.JSON(w, LogoutResponse{Success: true, Message: "Logged out successfully"})
}

func toAccountResponse(u models.User) accountResponse {
	return accountResponse{
		ID:          u.ID,
		Email:       u.Email,
		CompanyName: u.CompanyName,
		IsVerified:  u.IsVerified,
	}
}
