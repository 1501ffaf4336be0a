// AngelaMos | 2026
// entity.go

package video

import (
	"time"
)

type Video struct {
	ID          string    `json:"_id"`
	VideoFile   string    `json:"videoFile"`
	Thumbnail   string    `json:"thumbnail"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Duration    float64   `json:"duration"`
	Views       int64     `json:"views"`
	IsPublished bool      `json:"isPublished"`
	Owner       string    `json:"owner"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type PublishInput struct {
	Title         string
	Description   string
	Duration      float64
	IsPublished   bool
	VideoPath     string
	ThumbnailPath string
}
