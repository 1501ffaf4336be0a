// AngelaMos | 2026
// postgres_repository.go

package video

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vidtube/go-backend/internal/core"
)

const videoColumns = `
	id, video_file, thumbnail, title, description, duration, views,
	is_published, owner_id, created_at, updated_at`

type videoRow struct {
	ID          string    `db:"id"`
	VideoFile   string    `db:"video_file"`
	Thumbnail   string    `db:"thumbnail"`
	Title       string    `db:"title"`
	Description string    `db:"description"`
	Duration    float64   `db:"duration"`
	Views       int64     `db:"views"`
	IsPublished bool      `db:"is_published"`
	Owner       string    `db:"owner_id"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

type postgresRepository struct {
	db core.DBTX
}

func NewPostgresRepository(db core.DBTX) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) Create(ctx context.Context, video *Video) error {
	if err := core.ValidUUID(video.Owner); err != nil {
		return fmt.Errorf("create video: %w", err)
	}

	query := `
		INSERT INTO videos (id, video_file, thumbnail, title, description, duration, is_published, owner_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + videoColumns

	var row videoRow
	err := r.db.GetContext(ctx, &row, query,
		uuid.NewString(),
		video.VideoFile,
		video.Thumbnail,
		video.Title,
		video.Description,
		video.Duration,
		video.IsPublished,
		video.Owner,
	)
	if err != nil {
		return core.PostgresError("create video", err)
	}

	*video = Video(row)
	return nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id string) (*Video, error) {
	if err := core.ValidUUID(id); err != nil {
		return nil, fmt.Errorf("get video: %w", err)
	}

	var row videoRow
	if err := r.db.GetContext(ctx, &row, `SELECT `+videoColumns+` FROM videos WHERE id = $1`, id); err != nil {
		return nil, core.PostgresError("get video", err)
	}

	video := Video(row)
	return &video, nil
}

func (r *postgresRepository) IncrementViews(ctx context.Context, id string) (*Video, error) {
	if err := core.ValidUUID(id); err != nil {
		return nil, fmt.Errorf("increment views: %w", err)
	}

	query := `UPDATE videos SET views = views + 1 WHERE id = $1 RETURNING ` + videoColumns

	var row videoRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		return nil, core.PostgresError("increment views", err)
	}

	video := Video(row)
	return &video, nil
}
