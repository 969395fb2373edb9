package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/mkuznetsov/reconcilo/internal/handlers/render"
	"github.com/mkuznetsov/reconcilo/internal/handlers/userctx"
	"github.com/mkuznetsov/reconcilo/internal/models"
)

type userService interface {
	UpdateProfile(ctx context.Context, email string, patch models.ProfilePatch) (models.User, error)
	ChangePassword(ctx context.Context, email string, current string, newPassword string, confirm string) error
}

type profileResponse struct {
	ID             uuid.UUID `json:"id"`
	FirstName      string    `json:"first_name"`
	LastName       string    `json:"last_name"`
	Email          string    `json:"email"`
	CompanyName    string    `json:"company_name"`
	PhoneNumber    string    `json:"phone_number"`
	ProfilePicture string    `json:"profilePicture"`
}

type UserHandler struct {
	user userService
}

func NewUser(user userService) *UserHandler {
	return &UserHandler{user: user}
}

// Profile returns the authenticated principal as it was live-loaded by the
// auth middleware: no second repository round trip here
func (h *UserHandler) Profile(w http.ResponseWriter, r *http.Request) {
	user, _ := userctx.FromContext(r.Context())
	render.JSON(w, successResponse{Success: true, Data: toProfileResponse(user)})
}

func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	type UpdateProfileRequest struct {
		FirstName      *string `json:"first_name" validate:"omitempty,max=100"`
		LastName       *string `json:"last_name" validate:"omitempty,max=100"`
		CompanyName    *string `json:"company_name" validate:"omitempty,max=100"`
		PhoneNumber    *string `json:"phone_number" validate:"omitempty,max=30"`
		ProfilePicture *string `json:"profilePicture" validate:"omitempty,max=500"`
	}

	data, err := render.BindAndValidate[UpdateProfileRequest](w, r)
	if err != nil {
		return
	}

	principal, _ := userctx.FromContext(r.Context())

	user, err := h.user.UpdateProfile(r.Context(), principal.Email, models.ProfilePatch{
		FirstName:      data.FirstName,
		LastName:       data.LastName,
		CompanyName:    data.CompanyName,
		PhoneNumber:    data.PhoneNumber,
		ProfilePicture: data.ProfilePicture,
	})
	if err != nil {
		appError(w, err)
		return
	}

	render.JSON(w, successResponse{Success: true, Data: toProfileResponse(user)})
}

func (h *UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	type ChangePasswordRequest struct {
		CurrentPassword string `json:"currentPassword" validate:"required"`
		NewPassword     string `json:"newPassword" validate:"required,min=8"`
		ConfirmPassword string `json:"confirmPassword" validate:"required"`
	}
	type ChangePasswordResponse struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}

	data, err := render.BindAndValidate[ChangePasswordRequest](w, r)
	if err != nil {
		return
	}

	principal, _ := userctx.FromContext(r.Context())

	err = h.user.ChangePassword(r.Context(), principal.Email, data.CurrentPassword, data.NewPassword, data.ConfirmPassword)
	if err != nil {
		appError(w, err)
		return
	}

	render.JSON(w, ChangePasswordResponse{Success: true, Message: "Password changed successfully"})
}

func toProfileResponse(u models.User) profileResponse {
	return profileResponse{
		ID:             u.ID,
		FirstName:      u.FirstName,
		LastName:       u.LastName,
		Email:          u.Email,
		CompanyName:    u.CompanyName,
		PhoneNumber:    u.PhoneNumber,
		ProfilePicture: u.ProfilePicture,
	}
}
