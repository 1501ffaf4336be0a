// AngelaMos | 2026
// dto.go

package user

import (
	"time"

	"github.com/vidtube/go-backend/internal/auth"
)

type UpdateAccountRequest struct {
	FullName string `json:"fullName" validate:"required,max=100"`
	Email    string `json:"email"    validate:"required,email,max=255"`
}

type Response struct {
	ID           string    `json:"_id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	FullName     string    `json:"fullName"`
	Avatar       string    `json:"avatar"`
	CoverImage   string    `json:"coverImage"`
	WatchHistory []string  `json:"watchHistory"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func ToResponse(u *User) Response {
	history := u.WatchHistory
	if history == nil {
		history = []string{}
	}

	return Response{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		FullName:     u.FullName,
		Avatar:       u.Avatar,
		CoverImage:   u.CoverImage,
		WatchHistory: history,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func toUserInfo(u *User) *auth.UserInfo {
	return &auth.UserInfo{
		ID:               u.ID,
		Username:         u.Username,
		Email:            u.Email,
		FullName:         u.FullName,
		Avatar:           u.Avatar,
		CoverImage:       u.CoverImage,
		PasswordHash:     u.PasswordHash,
		RefreshTokenHash: u.RefreshTokenHash,
		CreatedAt:        u.CreatedAt,
		UpdatedAt:        u.UpdatedAt,
	}
}
