// AngelaMos | 2026
// postgres_repository.go

package user

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vidtube/go-backend/internal/core"
)

const userColumns = `
	id, username, email, full_name, avatar, cover_image, password_hash,
	refresh_token_hash, array_to_string(watch_history, ',') AS watch_history,
	created_at, updated_at`

type userRow struct {
	ID               string         `db:"id"`
	Username         string         `db:"username"`
	Email            string         `db:"email"`
	FullName         string         `db:"full_name"`
	Avatar           string         `db:"avatar"`
	CoverImage       string         `db:"cover_image"`
	PasswordHash     string         `db:"password_hash"`
	RefreshTokenHash sql.NullString `db:"refresh_token_hash"`
	WatchHistory     string         `db:"watch_history"`
	CreatedAt        time.Time      `db:"created_at"`
	UpdatedAt        time.Time      `db:"updated_at"`
}

func (row *userRow) toUser() *User {
	history := []string{}
	if row.WatchHistory != "" {
		history = strings.Split(row.WatchHistory, ",")
	}

	return &User{
		ID:               row.ID,
		Username:         row.Username,
		Email:            row.Email,
		FullName:         row.FullName,
		Avatar:           row.Avatar,
		CoverImage:       row.CoverImage,
		PasswordHash:     row.PasswordHash,
		RefreshTokenHash: row.RefreshTokenHash.String,
		WatchHistory:     history,
		CreatedAt:        row.CreatedAt,
		UpdatedAt:        row.UpdatedAt,
	}
}

type watchedVideoRow struct {
	ID            string         `db:"id"`
	VideoFile     string         `db:"video_file"`
	Thumbnail     string         `db:"thumbnail"`
	Title         string         `db:"title"`
	Description   string         `db:"description"`
	Duration      float64        `db:"duration"`
	Views         int64          `db:"views"`
	IsPublished   bool           `db:"is_published"`
	CreatedAt     time.Time      `db:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at"`
	OwnerID       sql.NullString `db:"owner_id"`
	OwnerFullName sql.NullString `db:"owner_full_name"`
	OwnerUsername sql.NullString `db:"owner_username"`
	OwnerAvatar   sql.NullString `db:"owner_avatar"`
}

func (row *watchedVideoRow) owner() *VideoOwner {
	if !row.OwnerID.Valid {
		return nil
	}
	return &VideoOwner{
		ID:       row.OwnerID.String,
		FullName: row.OwnerFullName.String,
		Username: row.OwnerUsername.String,
		Avatar:   row.OwnerAvatar.String,
	}
}

type postgresRepository struct {
	db core.DBTX
}

// NewPostgresRepository stores users in Postgres. Watch history is a uuid
// array on the row, kept most recent first.
func NewPostgresRepository(db core.DBTX) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) Create(ctx context.Context, user *User) error {
	query := `
		INSERT INTO users (id, username, email, full_name, avatar, cover_image, password_hash)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at`

	id := uuid.NewString()

	var ts struct {
		CreatedAt time.Time `db:"created_at"`
		UpdatedAt time.Time `db:"updated_at"`
	}
	err := r.db.GetContext(ctx, &ts, query,
		id,
		user.Username,
		user.Email,
		user.FullName,
		user.Avatar,
		user.CoverImage,
		user.PasswordHash,
	)
	if err != nil {
		return core.PostgresError("create user", err)
	}

	user.ID = id
	user.WatchHistory = []string{}
	user.CreatedAt = ts.CreatedAt
	user.UpdatedAt = ts.UpdatedAt
	return nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id string) (*User, error) {
	if err := core.ValidUUID(id); err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	var row userRow
	err := r.db.GetContext(ctx, &row, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	if err != nil {
		return nil, core.PostgresError("get user", err)
	}

	return row.toUser(), nil
}

func (r *postgresRepository) GetByUsernameOrEmail(
	ctx context.Context,
	username, email string,
) (*User, error) {
	if username == "" && email == "" {
		return nil, fmt.Errorf("get user by username or email: %w", core.ErrNotFound)
	}

	query := `SELECT ` + userColumns + ` FROM users
		WHERE ($1 <> '' AND username = $1) OR ($2 <> '' AND email = $2)
		LIMIT 1`

	var row userRow
	if err := r.db.GetContext(ctx, &row, query, username, email); err != nil {
		return nil, core.PostgresError("get user by username or email", err)
	}

	return row.toUser(), nil
}

func (r *postgresRepository) ExistsByUsernameOrEmail(
	ctx context.Context,
	username, email string,
) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM users
			WHERE ($1 <> '' AND username = $1) OR ($2 <> '' AND email = $2)
		)`

	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, username, email); err != nil {
		return false, core.PostgresError("check user exists", err)
	}

	return exists, nil
}

func (r *postgresRepository) Exists(ctx context.Context, id string) (bool, error) {
	if core.ValidUUID(id) != nil {
		return false, nil
	}

	var exists bool
	if err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`, id); err != nil {
		return false, core.PostgresError("check user exists", err)
	}

	return exists, nil
}

func (r *postgresRepository) UpdateProfile(
	ctx context.Context,
	id string,
	patch ProfilePatch,
) (*User, error) {
	if err := core.ValidUUID(id); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}

	query := `
		UPDATE users SET
			full_name   = COALESCE($2, full_name),
			email       = COALESCE($3, email),
			avatar      = COALESCE($4, avatar),
			cover_image = COALESCE($5, cover_image),
			updated_at  = NOW()
		WHERE id = $1
		RETURNING ` + userColumns

	var row userRow
	err := r.db.GetContext(ctx, &row, query,
		id,
		patch.FullName,
		patch.Email,
		patch.Avatar,
		patch.CoverImage,
	)
	if err != nil {
		return nil, core.PostgresError("update user", err)
	}

	return row.toUser(), nil
}

func (r *postgresRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	return r.exec(ctx, "update password",
		`UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1`,
		id, passwordHash)
}

func (r *postgresRepository) SetRefreshTokenHash(ctx context.Context, id, hash string) error {
	return r.exec(ctx, "set refresh token",
		`UPDATE users SET refresh_token_hash = $2, updated_at = NOW() WHERE id = $1`,
		id, hash)
}

func (r *postgresRepository) UnsetRefreshToken(ctx context.Context, id string) error {
	return r.exec(ctx, "unset refresh token",
		`UPDATE users SET refresh_token_hash = NULL, updated_at = NOW() WHERE id = $1`,
		id)
}

func (r *postgresRepository) AppendWatchHistory(ctx context.Context, userID, videoID string) error {
	if err := core.ValidUUID(videoID); err != nil {
		return fmt.Errorf("append watch history: %w", err)
	}

	return r.exec(ctx, "append watch history", `
		UPDATE users
		SET watch_history = array_prepend($2::uuid, array_remove(watch_history, $2::uuid)),
		    updated_at = NOW()
		WHERE id = $1`,
		userID, videoID)
}

func (r *postgresRepository) ChannelProfile(
	ctx context.Context,
	username, requesterID string,
) (*ChannelProfile, error) {
	var requester *string
	if core.ValidUUID(requesterID) == nil {
		requester = &requesterID
	}

	query := `
		SELECT u.id, u.full_name, u.username, u.email, u.avatar, u.cover_image,
		       (SELECT COUNT(*) FROM subscriptions s WHERE s.channel_id = u.id)
		           AS subscribers_count,
		       (SELECT COUNT(*) FROM subscriptions s WHERE s.subscriber_id = u.id)
		           AS channels_subscribed_to_count,
		       EXISTS (
		           SELECT 1 FROM subscriptions s
		           WHERE s.channel_id = u.id AND s.subscriber_id = $2::uuid
		       ) AS is_subscribed
		FROM users u
		WHERE u.username = $1`

	var row struct {
		ID                        string `db:"id"`
		FullName                  string `db:"full_name"`
		Username                  string `db:"username"`
		Email                     string `db:"email"`
		Avatar                    string `db:"avatar"`
		CoverImage                string `db:"cover_image"`
		SubscribersCount          int64  `db:"subscribers_count"`
		ChannelsSubscribedToCount int64  `db:"channels_subscribed_to_count"`
		IsSubscribed              bool   `db:"is_subscribed"`
	}
	if err := r.db.GetContext(ctx, &row, query, username, requester); err != nil {
		return nil, core.PostgresError("channel profile", err)
	}

	return &ChannelProfile{
		ID:                        row.ID,
		FullName:                  row.FullName,
		Username:                  row.Username,
		Email:                     row.Email,
		Avatar:                    row.Avatar,
		CoverImage:                row.CoverImage,
		SubscribersCount:          row.SubscribersCount,
		ChannelsSubscribedToCount: row.ChannelsSubscribedToCount,
		IsSubscribed:              row.IsSubscribed,
	}, nil
}

// WatchHistory walks the stored array WITH ORDINALITY so entries come back
// in stored order. A video whose owner row is gone keeps a nil owner.
func (r *postgresRepository) WatchHistory(ctx context.Context, userID string) ([]WatchedVideo, error) {
	exists, err := r.Exists(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("watch history: %w", core.ErrNotFound)
	}

	query := `
		SELECT v.id, v.video_file, v.thumbnail, v.title, v.description, v.duration,
		       v.views, v.is_published, v.created_at, v.updated_at,
		       o.id AS owner_id, o.full_name AS owner_full_name,
		       o.username AS owner_username, o.avatar AS owner_avatar
		FROM users u
		CROSS JOIN LATERAL unnest(u.watch_history) WITH ORDINALITY AS h(video_id, position)
		JOIN videos v ON v.id = h.video_id
		LEFT JOIN users o ON o.id = v.owner_id
		WHERE u.id = $1
		ORDER BY h.position`

	var rows []watchedVideoRow
	if err := r.db.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, core.PostgresError("watch history", err)
	}

	videos := make([]WatchedVideo, 0, len(rows))
	for _, row := range rows {
		videos = append(videos, WatchedVideo{
			ID:          row.ID,
			VideoFile:   row.VideoFile,
			Thumbnail:   row.Thumbnail,
			Title:       row.Title,
			Description: row.Description,
			Duration:    row.Duration,
			Views:       row.Views,
			IsPublished: row.IsPublished,
			CreatedAt:   row.CreatedAt,
			UpdatedAt:   row.UpdatedAt,
			Owner:       row.owner(),
		})
	}

	return videos, nil
}

func (r *postgresRepository) exec(ctx context.Context, op, query string, id string, args ...any) error {
	if err := core.ValidUUID(id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	res, err := r.db.ExecContext(ctx, query, append([]any{id}, args...)...)
	if err != nil {
		return core.PostgresError(op, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return core.PostgresError(op, err)
	}
	if affected == 0 {
		return fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}

	return nil
}
