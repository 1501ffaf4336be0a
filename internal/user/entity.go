// AngelaMos | 2026
// entity.go

package user

import (
	"time"
)

type User struct {
	ID               string
	Username         string
	Email            string
	FullName         string
	Avatar           string
	CoverImage       string
	PasswordHash     string
	RefreshTokenHash string
	WatchHistory     []string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// ProfilePatch updates only the non-nil fields.
type ProfilePatch struct {
	FullName   *string
	Email      *string
	Avatar     *string
	CoverImage *string
}

// ChannelProfile is a user seen as a channel, with subscription counts and
// whether the requesting user follows it.
type ChannelProfile struct {
	ID                        string `json:"_id"`
	FullName                  string `json:"fullName"`
	Username                  string `json:"username"`
	Email                     string `json:"email"`
	Avatar                    string `json:"avatar"`
	CoverImage                string `json:"coverImage"`
	SubscribersCount          int64  `json:"subscribersCount"`
	ChannelsSubscribedToCount int64  `json:"channelsSubscribedToCount"`
	IsSubscribed              bool   `json:"isSubscribed"`
}

type VideoOwner struct {
	ID       string `json:"_id"`
	FullName string `json:"fullName"`
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
}

// WatchedVideo is one watch history entry with its owner collapsed to a
// single projected record.
type WatchedVideo struct {
	ID          string      `json:"_id"`
	VideoFile   string      `json:"videoFile"`
	Thumbnail   string      `json:"thumbnail"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Duration    float64     `json:"duration"`
	Views       int64       `json:"views"`
	IsPublished bool        `json:"isPublished"`
	Owner       *VideoOwner `json:"owner"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}
